package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order агрегирует заказ поставщику и его позиции.
// Подытог, налог и итог пересчитываются внутри агрегата после каждого изменения
// набора позиций и не могут быть заданы снаружи.
type Order struct {
	// ID назначается бэкендом; 0 означает несохранённый черновик.
	ID int64
	// OrderNumber выдаёт бэкенд, для новых заказов может быть сгенерирован заранее.
	OrderNumber  string
	OrderDate    time.Time
	DeliveryDate time.Time
	SupplierID   int64
	SupplierName string
	Status       OrderStatus
	Notes        string
	CreatedBy    string

	items  []LineItem
	totals Totals
}

// NewDraftOrder создаёт черновик в статусе PENDING с сегодняшней датой и без позиций.
func NewDraftOrder(now time.Time) *Order {
	y, m, d := now.Date()
	return &Order{
		Status:    OrderStatusPending,
		OrderDate: time.Date(y, m, d, 0, 0, 0, 0, now.Location()),
		items:     []LineItem{},
		totals:    ComputeTotals(nil),
	}
}

// RestoreOrder собирает агрегат из сохранённых данных; суммы пересчитываются по позициям.
func RestoreOrder(header Order, items []LineItem) *Order {
	o := header
	o.items = make([]LineItem, len(items))
	copy(o.items, items)
	o.RecomputeTotals()
	return &o
}

// IsNew сообщает, что заказ ещё не сохранён на бэкенде.
func (o *Order) IsNew() bool { return o.ID == 0 }

// AddItem добавляет позицию в конец списка и пересчитывает суммы.
func (o *Order) AddItem(item LineItem) {
	o.items = append(o.items, item)
	o.RecomputeTotals()
}

// RemoveItem удаляет первую совпавшую позицию и пересчитывает суммы.
// Если такой позиции нет, агрегат остаётся без изменений и ошибки не будет.
func (o *Order) RemoveItem(item LineItem) {
	for idx, existing := range o.items {
		if !existing.sameAs(item) {
			continue
		}
		items := make([]LineItem, 0, len(o.items)-1)
		items = append(items, o.items[:idx]...)
		items = append(items, o.items[idx+1:]...)
		o.items = items
		o.RecomputeTotals()
		return
	}
}

// FindItem ищет позицию по локальному ключу.
func (o *Order) FindItem(key string) (LineItem, bool) {
	for _, item := range o.items {
		if item.key == key {
			return item, true
		}
	}
	return LineItem{}, false
}

// RecomputeTotals пересчитывает производные суммы только по текущим позициям.
func (o *Order) RecomputeTotals() {
	o.totals = ComputeTotals(o.items)
}

// Items возвращает копию позиций в порядке добавления.
func (o *Order) Items() []LineItem {
	items := make([]LineItem, len(o.items))
	copy(items, o.items)
	return items
}

func (o *Order) ItemCount() int { return len(o.items) }

func (o *Order) Subtotal() decimal.Decimal { return o.totals.Subtotal }

func (o *Order) Tax() decimal.Decimal { return o.totals.Tax }

func (o *Order) Total() decimal.Decimal { return o.totals.Total }

func (o *Order) Totals() Totals { return o.totals }

// Validate проверяет обязательные поля перед отправкой на бэкенд
// и возвращает первое невыполненное условие.
func (o *Order) Validate() error {
	if o.SupplierID == 0 {
		return ErrSupplierRequired
	}
	if o.OrderDate.IsZero() {
		return ErrOrderDateRequired
	}
	if len(o.items) == 0 {
		return ErrItemsRequired
	}
	return nil
}

func (o *Order) IsEditable() bool { return o.Status.IsEditable() }

func (o *Order) IsApprovable() bool { return o.Status.IsApprovable() }

func (o *Order) IsReceivable() bool { return o.Status.IsReceivable() }

func (o *Order) IsCancelable() bool { return o.Status.IsCancelable() }

// Clone возвращает независимую копию агрегата.
func (o *Order) Clone() *Order {
	c := *o
	c.items = o.Items()
	return &c
}
