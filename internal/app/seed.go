package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
	"github.com/vladislavdragonenkov/procurement-admin/internal/storage/memory"
)

const (
	demoUsername = "admin"
	demoPassword = "admin"
)

type demoProduct struct {
	code, name, unit, price string
}

var demoCatalog = []struct {
	supplier domain.Supplier
	products []demoProduct
}{
	{
		supplier: domain.Supplier{TaxID: "0990000000001", LegalName: "Papelera Nacional SA", TradeName: "Papelera", Email: "ventas@papelera.example", Active: true},
		products: []demoProduct{
			{"PAP-A4", "Paper A4 80g", "box", "24.50"},
			{"PAP-A3", "Paper A3 80g", "box", "39.90"},
			{"PEN-BL", "Ballpoint pen, blue", "pack", "3.75"},
		},
	},
	{
		supplier: domain.Supplier{TaxID: "0990000000002", LegalName: "Toner y Tinta Cia Ltda", TradeName: "TonerCorp", Email: "pedidos@toner.example", Active: true},
		products: []demoProduct{
			{"TON-85A", "Toner 85A", "unit", "45.00"},
			{"INK-664", "Ink bottle 664", "unit", "9.99"},
		},
	},
	{
		supplier: domain.Supplier{TaxID: "0990000000003", LegalName: "Limpieza Total SA", TradeName: "Limpieza", Active: true},
		products: []demoProduct{
			{"CLN-01", "Floor cleaner 4L", "gallon", "12.30"},
		},
	},
}

// seedDemoData заполняет пустые in-memory справочники.
func seedDemoData(ctx context.Context, suppliers *memory.SupplierRepository, products *memory.ProductRepository) error {
	for _, entry := range demoCatalog {
		supplier, err := suppliers.Create(ctx, entry.supplier)
		if err != nil {
			return err
		}
		for _, p := range entry.products {
			_, err := products.Create(ctx, domain.Product{
				Code:       p.code,
				Name:       p.name,
				Unit:       p.unit,
				Price:      decimal.RequireFromString(p.price),
				SupplierID: supplier.ID,
				Active:     true,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
