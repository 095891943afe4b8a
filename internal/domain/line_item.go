package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSnapshot денормализованные поля товара, зафиксированные в момент добавления позиции.
// Позиция не следит за дальнейшими изменениями товара в каталоге.
type ProductSnapshot struct {
	ID     int64
	Code   string
	Name   string
	Unit   string
	Price  decimal.Decimal
	Active bool
}

// LineItem — одна позиция заказа. Значение неизменяемо: правка выполняется
// удалением позиции и добавлением новой.
type LineItem struct {
	key       string
	id        int64
	productID int64
	product   ProductSnapshot
	quantity  int
	unitPrice decimal.Decimal
	subtotal  decimal.Decimal
}

// NewLineItem создаёт позицию и сразу считает её подытог.
// Цена новой позиции должна быть положительной.
func NewLineItem(product ProductSnapshot, quantity int, unitPrice decimal.Decimal) (LineItem, error) {
	item, err := RestoreLineItem(0, product, quantity, unitPrice)
	if err != nil {
		return LineItem{}, err
	}
	if !unitPrice.IsPositive() {
		return LineItem{}, ErrUnitPriceInvalid
	}
	return item, nil
}

// RestoreLineItem восстанавливает позицию, уже сохранённую на бэкенде под идентификатором id.
// Сохранённые строки могут иметь нулевую цену (на бэкенде цена необязательна),
// поэтому здесь отклоняется только отрицательная.
func RestoreLineItem(id int64, product ProductSnapshot, quantity int, unitPrice decimal.Decimal) (LineItem, error) {
	if product.ID == 0 {
		return LineItem{}, ErrProductRequired
	}
	if quantity < 1 {
		return LineItem{}, ErrQuantityInvalid
	}
	if unitPrice.IsNegative() {
		return LineItem{}, ErrUnitPriceInvalid
	}

	return LineItem{
		key:       uuid.NewString(),
		id:        id,
		productID: product.ID,
		product:   product,
		quantity:  quantity,
		unitPrice: unitPrice,
		subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// Key локальный идентификатор позиции внутри черновика.
func (i LineItem) Key() string { return i.key }

// ID — идентификатор позиции на бэкенде, 0 для ещё не сохранённых.
func (i LineItem) ID() int64 { return i.id }

func (i LineItem) ProductID() int64 { return i.productID }

func (i LineItem) Product() ProductSnapshot { return i.product }

func (i LineItem) Quantity() int { return i.quantity }

func (i LineItem) UnitPrice() decimal.Decimal { return i.unitPrice }

// Subtotal всегда равен Quantity × UnitPrice.
func (i LineItem) Subtotal() decimal.Decimal { return i.subtotal }

// sameAs сравнивает позиции по локальной идентичности либо по id бэкенда.
func (i LineItem) sameAs(other LineItem) bool {
	if i.key != "" && i.key == other.key {
		return true
	}
	return i.id != 0 && i.id == other.id
}
