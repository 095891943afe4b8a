package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation базовая ошибка для проверок пользовательского ввода и состояния заказа.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound — идентификатор не найден среди загруженных данных.
	ErrNotFound = errors.New("not found")
	// ErrBackend ошибка вызова внешнего бэкенда (сеть, статус, десериализация).
	ErrBackend = errors.New("backend call failed")
)

var (
	// Ошибка отсутствующего поставщика в заказе.
	ErrSupplierRequired = &ValidationError{Field: "supplier_id", Message: "select a supplier"}
	// Ошибка отсутствующей даты заказа.
	ErrOrderDateRequired = &ValidationError{Field: "order_date", Message: "select the order date"}
	// Ошибка отсутствия хотя бы одной позиции.
	ErrItemsRequired = &ValidationError{Field: "items", Message: "add at least one line item"}
	// Ошибка позиции без товара.
	ErrProductRequired = &ValidationError{Field: "product_id", Message: "select a product"}
	// Ошибка некорректного количества (< 1).
	ErrQuantityInvalid = &ValidationError{Field: "quantity", Message: "quantity must be greater than zero"}
	// Ошибка неположительной цены за единицу.
	ErrUnitPriceInvalid = &ValidationError{Field: "unit_price", Message: "unit price must be greater than zero"}
	// ErrOrderNotEditable возвращается при попытке изменить заказ вне статуса PENDING.
	ErrOrderNotEditable = &ValidationError{Field: "status", Message: "order can only be edited while pending"}
)

// ValidationError — нарушение правила обязательных полей или бизнес-правила.
// Черновик при такой ошибке остаётся без изменений.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError ссылка на товар, заказ или поставщика, которой нет в загруженных данных.
type NotFoundError struct {
	Kind string
	ID   string
}

// NewNotFoundError создаёт ошибку для сущности kind с идентификатором id.
func NewNotFoundError(kind string, id any) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: fmt.Sprint(id)}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// BackendError оборачивает сбой внешнего вызова. Автоматически не повторяется.
type BackendError struct {
	Op  string
	Err error
}

// NewBackendError оборачивает err как сбой операции op.
func NewBackendError(op string, err error) *BackendError {
	return &BackendError{Op: op, Err: err}
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return e.Op + ": backend call failed"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// IsValidation проверяет, относится ли ошибка к ошибкам валидации.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound проверяет, что сущность не найдена.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsBackend проверяет, что ошибка пришла из вызова бэкенда.
func IsBackend(err error) bool { return errors.Is(err, ErrBackend) }

// Severity — категория сообщения для пользователя.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// SeverityOf сопоставляет ошибке категорию сообщения. Ошибки валидации показываются
// как предупреждение, все остальные как ошибка.
func SeverityOf(err error) Severity {
	if err == nil {
		return SeverityInfo
	}
	if IsValidation(err) {
		return SeverityWarning
	}
	return SeverityError
}
