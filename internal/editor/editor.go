package editor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

// Заголовки диалога редактора.
const (
	TitleNew  = "New purchase order"
	TitleEdit = "Edit purchase order"
)

// DateLayout — формат отображения дат заказа.
const DateLayout = "02/01/2006"

// Candidate поля ввода новой позиции до нажатия «Добавить».
type Candidate struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal

	// цена подставлена из каталога, а не введена пользователем
	autofilled bool
}

// PriceFromCatalog сообщает, что цена кандидата взята из каталога.
func (c Candidate) PriceFromCatalog() bool { return c.autofilled }

func emptyCandidate() Candidate {
	return Candidate{Quantity: 1}
}

// Editor ведёт один черновик заказа в рамках сессии пользователя.
// Не потокобезопасен: владелец сессии обращается к нему последовательно.
type Editor struct {
	deps     Deps
	recorder recorder
	logger   *log.Entry

	order     *domain.Order
	suppliers []domain.Supplier
	products  []domain.Product
	candidate Candidate
}

// New создаёт редактор для пользователя actor. Черновик появляется после PrepareNew или PrepareEdit.
func New(deps Deps, actor string) *Editor {
	deps = deps.withDefaults("order-editor")
	return &Editor{
		deps:      deps,
		recorder:  recorder{deps: deps, actor: actor},
		logger:    deps.Logger.WithField("actor", actor),
		products:  []domain.Product{},
		candidate: emptyCandidate(),
	}
}

// PrepareNew открывает пустой черновик: PENDING, сегодняшняя дата, без позиций.
// Номер заказа запрашивается заранее; сбой генерации не мешает работе.
func (e *Editor) PrepareNew(ctx context.Context) error {
	e.order = domain.NewDraftOrder(e.deps.Now())
	e.order.CreatedBy = e.recorder.actor
	e.products = []domain.Product{}
	e.candidate = emptyCandidate()

	number, err := e.deps.Orders.GenerateOrderNumber(ctx)
	if err != nil {
		e.logger.WithError(err).Warn("failed to pre-generate order number")
	} else {
		e.order.OrderNumber = number
	}

	return e.loadSuppliers(ctx)
}

// PrepareEdit загружает сохранённый заказ с бэкенда вместе с каталогом его поставщика.
// Если полная загрузка не удалась, а fallback передан (строка списка), редактируется он.
func (e *Editor) PrepareEdit(ctx context.Context, id int64, fallback *domain.Order) error {
	order, err := e.deps.Orders.FindByID(ctx, id)
	if err != nil {
		if fallback == nil || fallback.ID != id {
			return asBackendError("find order", err)
		}
		e.logger.WithError(err).WithField("order_id", id).Warn("failed to reload order, editing list row")
		order = fallback.Clone()
	}
	if !order.IsEditable() {
		return domain.ErrOrderNotEditable
	}

	order.RecomputeTotals()
	e.order = order
	e.candidate = emptyCandidate()

	if err := e.loadSuppliers(ctx); err != nil {
		return err
	}
	return e.loadProducts(ctx, order.SupplierID)
}

// SelectSupplier меняет поставщика заказа и перезагружает каталог его товаров.
// Уже добавленные позиции сохраняются, поля новой позиции сбрасываются.
func (e *Editor) SelectSupplier(ctx context.Context, supplierID int64) error {
	if err := e.ensureEditable(); err != nil {
		return err
	}

	e.order.SupplierID = supplierID
	e.order.SupplierName = ""
	for _, s := range e.suppliers {
		if s.ID == supplierID {
			e.order.SupplierName = s.LegalName
			break
		}
	}
	e.candidate = emptyCandidate()

	return e.loadProducts(ctx, supplierID)
}

// SelectCandidateProduct выбирает товар для новой позиции. Цена каталога подставляется,
// если поле цены пустое или было заполнено из каталога для прежнего товара.
// Цену, введённую пользователем, смена товара не трогает.
func (e *Editor) SelectCandidateProduct(productID int64) error {
	if productID == 0 {
		e.candidate.ProductID = 0
		if e.candidate.autofilled {
			e.candidate.UnitPrice = decimal.Zero
			e.candidate.autofilled = false
		}
		return nil
	}
	product, ok := domain.FindProduct(e.products, productID)
	if !ok {
		return domain.NewNotFoundError("product", productID)
	}

	e.candidate.ProductID = productID
	if e.candidate.autofilled || e.candidate.UnitPrice.IsZero() {
		e.candidate.UnitPrice = product.Price
		e.candidate.autofilled = true
	}
	return nil
}

// SetCandidateQuantity и SetCandidatePrice отражают ввод пользователя без проверки,
// проверка выполняется при добавлении позиции.
func (e *Editor) SetCandidateQuantity(quantity int) { e.candidate.Quantity = quantity }

// SetCandidatePrice принимает цену из формы. Форма возвращает подставленную цену как есть,
// поэтому то же значение не считается ручным вводом.
func (e *Editor) SetCandidatePrice(price decimal.Decimal) {
	if e.candidate.autofilled && price.Equal(e.candidate.UnitPrice) {
		return
	}
	e.candidate.UnitPrice = price
	e.candidate.autofilled = false
}

// AddLineItem добавляет позицию по товару из каталога текущего поставщика.
// priceOverride == nil означает цену каталога.
func (e *Editor) AddLineItem(productID int64, quantity int, priceOverride *decimal.Decimal) (domain.LineItem, error) {
	if err := e.ensureEditable(); err != nil {
		return domain.LineItem{}, err
	}
	if productID == 0 {
		e.recorder.validationFailed(domain.ErrProductRequired)
		return domain.LineItem{}, domain.ErrProductRequired
	}

	product, ok := domain.FindProduct(e.products, productID)
	if !ok {
		return domain.LineItem{}, domain.NewNotFoundError("product", productID)
	}

	price := product.Price
	if priceOverride != nil {
		price = *priceOverride
	}

	item, err := domain.NewLineItem(product.Snapshot(), quantity, price)
	if err != nil {
		e.recorder.validationFailed(err)
		return domain.LineItem{}, err
	}
	e.order.AddItem(item)
	return item, nil
}

// AddCandidate добавляет позицию из полей ввода и очищает их при успехе.
func (e *Editor) AddCandidate() (domain.LineItem, error) {
	price := e.candidate.UnitPrice
	item, err := e.AddLineItem(e.candidate.ProductID, e.candidate.Quantity, &price)
	if err != nil {
		return domain.LineItem{}, err
	}
	e.candidate = emptyCandidate()
	return item, nil
}

// RemoveLineItem удаляет позицию по ключу. Неизвестный ключ игнорируется.
func (e *Editor) RemoveLineItem(key string) error {
	if err := e.ensureEditable(); err != nil {
		return err
	}
	if item, ok := e.order.FindItem(key); ok {
		e.order.RemoveItem(item)
	}
	return nil
}

// SetHeader обновляет даты и примечания черновика.
func (e *Editor) SetHeader(orderDate, deliveryDate time.Time, notes string) error {
	if err := e.ensureEditable(); err != nil {
		return err
	}
	e.order.OrderDate = orderDate
	e.order.DeliveryDate = deliveryDate
	e.order.Notes = notes
	return nil
}

// Submit проверяет черновик и создаёт или обновляет заказ на бэкенде.
// При любой ошибке черновик не меняется и доступен для повторной попытки.
func (e *Editor) Submit(ctx context.Context) (*domain.Order, error) {
	if err := e.ensureEditable(); err != nil {
		return nil, err
	}
	if err := e.order.Validate(); err != nil {
		e.recorder.validationFailed(err)
		return nil, err
	}

	var (
		saved     *domain.Order
		err       error
		mode      = "update"
		eventType = domain.OrderEventUpdated
		timeline  = domain.TimelineOrderUpdated
	)
	if e.order.IsNew() {
		mode, eventType, timeline = "create", domain.OrderEventCreated, domain.TimelineOrderCreated
		saved, err = e.deps.Orders.Create(ctx, e.order.Clone())
	} else {
		saved, err = e.deps.Orders.Update(ctx, e.order.ID, e.order.Clone())
	}
	if err != nil {
		e.recorder.validationFailed(err)
		e.logger.WithError(err).WithField("mode", mode).Error("failed to submit order")
		return nil, asBackendError(mode+" order", err)
	}

	e.deps.Metrics.RecordOrderSubmitted(mode)
	e.recorder.record(ctx, saved, eventType, timeline, "")
	e.logger.WithFields(log.Fields{
		"order_id":     saved.ID,
		"order_number": saved.OrderNumber,
		"total":        saved.Total().StringFixed(2),
	}).Info("order submitted")

	e.order = saved.Clone()
	return saved, nil
}

// Title — заголовок диалога по наличию ID.
func (e *Editor) Title() string {
	if e.order == nil || e.order.IsNew() {
		return TitleNew
	}
	return TitleEdit
}

// Order возвращает копию черновика или nil, если он ещё не открыт.
func (e *Editor) Order() *domain.Order {
	if e.order == nil {
		return nil
	}
	return e.order.Clone()
}

// Suppliers активные поставщики для выбора.
func (e *Editor) Suppliers() []domain.Supplier { return e.suppliers }

// Products — каталог текущего поставщика.
func (e *Editor) Products() []domain.Product { return e.products }

func (e *Editor) Candidate() Candidate { return e.candidate }

// FormatDate форматирует дату как dd/mm/yyyy; для нулевой даты пустая строка.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func (e *Editor) ensureEditable() error {
	if e.order == nil {
		return &domain.ValidationError{Field: "order", Message: "no order is open in the editor"}
	}
	if !e.order.IsEditable() {
		return domain.ErrOrderNotEditable
	}
	return nil
}

func (e *Editor) loadSuppliers(ctx context.Context) error {
	suppliers, err := e.deps.Suppliers.ListActive(ctx)
	if err != nil {
		e.suppliers = []domain.Supplier{}
		return asBackendError("list suppliers", err)
	}
	e.suppliers = suppliers
	return nil
}

// loadProducts заменяет отфильтрованный каталог; при ошибке он остаётся пустым.
func (e *Editor) loadProducts(ctx context.Context, supplierID int64) error {
	if supplierID == 0 {
		e.products = domain.FilterBySupplier(0, nil)
		return nil
	}
	catalog, err := e.deps.Catalog.ListBySupplier(ctx, supplierID)
	if err != nil {
		e.products = domain.FilterBySupplier(0, nil)
		return asBackendError("list products", err)
	}
	e.products = domain.FilterBySupplier(supplierID, catalog)
	return nil
}
