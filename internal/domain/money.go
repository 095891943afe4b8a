package domain

import "github.com/shopspring/decimal"

// TaxRate ставка IVA, применяемая к подытогу заказа.
var TaxRate = decimal.RequireFromString("0.12")

// taxScale — количество знаков после запятой для налога.
const taxScale = 2

// Totals хранит производные суммы заказа.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals считает подытог, налог и итог по позициям.
// Подытог и итог сохраняют полную точность слагаемых, округляется только налог (half-up).
func ComputeTotals(items []LineItem) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal())
	}
	tax := roundHalfUp(subtotal.Mul(TaxRate), taxScale)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// roundHalfUp округляет к ближайшему, половину: от нуля.
// Для неотрицательных сумм это совпадает с HALF_UP.
func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// FormatMoney возвращает сумму с двумя знаками после запятой для отображения.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
