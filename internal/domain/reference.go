package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// maxTaxIDLength максимальная длина RUC поставщика.
const maxTaxIDLength = 13

// minProductPrice — минимальная допустимая цена товара в каталоге.
var minProductPrice = decimal.RequireFromString("0.01")

// Supplier поставщик из справочника бэкенда.
type Supplier struct {
	ID           int64
	TaxID        string
	LegalName    string
	TradeName    string
	Address      string
	Phone        string
	Email        string
	Contact      string
	ContactPhone string
	Active       bool
	RegisteredAt time.Time
	UpdatedAt    time.Time
}

// DisplayName — «юр. название (торговое название)» для выпадающих списков.
func (s Supplier) DisplayName() string {
	if s.TradeName == "" {
		return s.LegalName
	}
	return s.LegalName + " (" + s.TradeName + ")"
}

// Product товар каталога, привязанный к поставщику.
type Product struct {
	ID           int64
	Code         string
	Name         string
	Description  string
	Unit         string
	Price        decimal.Decimal
	MinStock     int
	CurrentStock int
	Active       bool
	SupplierID   int64
	SupplierName string
	RegisteredAt time.Time
	UpdatedAt    time.Time
}

// DisplayName — «код - название».
func (p Product) DisplayName() string {
	return p.Code + " - " + p.Name
}

// LowStock сообщает, что остаток не выше минимального.
func (p Product) LowStock() bool {
	return p.CurrentStock <= p.MinStock
}

// Snapshot фиксирует поля товара для позиции заказа.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:     p.ID,
		Code:   p.Code,
		Name:   p.Name,
		Unit:   p.Unit,
		Price:  p.Price,
		Active: p.Active,
	}
}

// ValidateSupplier проверяет обязательные поля карточки поставщика.
func ValidateSupplier(s Supplier) error {
	taxID := strings.TrimSpace(s.TaxID)
	if taxID == "" {
		return &ValidationError{Field: "tax_id", Message: "tax id is required"}
	}
	if strings.TrimSpace(s.LegalName) == "" {
		return &ValidationError{Field: "legal_name", Message: "legal name is required"}
	}
	if len(taxID) > maxTaxIDLength {
		return &ValidationError{Field: "tax_id", Message: "tax id cannot be longer than 13 characters"}
	}
	return nil
}

// ValidateProduct проверяет обязательные поля карточки товара.
func ValidateProduct(p Product) error {
	if strings.TrimSpace(p.Code) == "" {
		return &ValidationError{Field: "code", Message: "code is required"}
	}
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if strings.TrimSpace(p.Unit) == "" {
		return &ValidationError{Field: "unit", Message: "unit of measure is required"}
	}
	if p.Price.LessThan(minProductPrice) {
		return &ValidationError{Field: "price", Message: "price must be greater than zero"}
	}
	if p.SupplierID == 0 {
		return &ValidationError{Field: "supplier_id", Message: "a supplier must be selected"}
	}
	return nil
}
