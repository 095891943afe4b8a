package domain

import (
	"fmt"
	"strings"
)

// OrderStatus описывает жизненный цикл заказа поставщику.
type OrderStatus string

const (
	// OrderStatusPending черновик или сохранённый заказ, ещё доступный для правки.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusApproved — заказ согласован и отправлен поставщику.
	OrderStatusApproved OrderStatus = "APPROVED"
	// OrderStatusReceived товар получен, конечное состояние.
	OrderStatusReceived OrderStatus = "RECEIVED"
	// OrderStatusCancelled — заказ отменён, конечное состояние.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderStatuses перечисляет статусы в порядке отображения в фильтрах.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusApproved,
	OrderStatusReceived,
	OrderStatusCancelled,
}

// ParseOrderStatus разбирает статус без учёта регистра.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown order status %q", raw)}
	}
	return s, nil
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusApproved, OrderStatusReceived, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) String() string { return string(s) }

// Label возвращает подпись статуса для интерфейса.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "Pending"
	case OrderStatusApproved:
		return "Approved"
	case OrderStatusReceived:
		return "Received"
	case OrderStatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// IsEditable правка позиций разрешена только в PENDING.
func (s OrderStatus) IsEditable() bool { return s == OrderStatusPending }

func (s OrderStatus) IsApprovable() bool { return s == OrderStatusPending }

func (s OrderStatus) IsReceivable() bool { return s == OrderStatusApproved }

func (s OrderStatus) IsCancelable() bool {
	return s == OrderStatusPending || s == OrderStatusApproved
}

// CanTransitionTo описывает допустимые переходы. Применяет их сторона, хранящая заказы;
// агрегат сам переходы не выполняет.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch target {
	case OrderStatusApproved:
		return s.IsApprovable()
	case OrderStatusReceived:
		return s.IsReceivable()
	case OrderStatusCancelled:
		return s.IsCancelable()
	default:
		return false
	}
}
