package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

func catalogFixture() []domain.Product {
	return []domain.Product{
		{ID: 1, Code: "A", Name: "Paper", SupplierID: 10, Price: dec("2.50"), Active: true},
		{ID: 2, Code: "B", Name: "Toner", SupplierID: 20, Price: dec("45.00"), Active: true},
		{ID: 3, Code: "C", Name: "Pens", SupplierID: 10, Price: dec("0.80"), Active: false},
	}
}

func TestFilterBySupplier(t *testing.T) {
	catalog := catalogFixture()

	got := domain.FilterBySupplier(10, catalog)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("unexpected products for supplier 10: %+v", got)
	}

	got = domain.FilterBySupplier(20, catalog)
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected the previous result to be replaced, got %+v", got)
	}
}

func TestFilterBySupplier_Empty(t *testing.T) {
	catalog := catalogFixture()

	for name, id := range map[string]int64{"absent supplier": 0, "no matches": 99} {
		t.Run(name, func(t *testing.T) {
			got := domain.FilterBySupplier(id, catalog)
			if got == nil || len(got) != 0 {
				t.Fatalf("expected empty non-nil slice, got %#v", got)
			}
		})
	}
}

func TestFilterBySupplier_DoesNotAliasCatalog(t *testing.T) {
	catalog := catalogFixture()
	got := domain.FilterBySupplier(10, catalog)
	got[0].Name = "changed"

	if catalog[0].Name != "Paper" {
		t.Fatal("filter result must not share storage with the catalog")
	}
}

func TestValidateSupplier(t *testing.T) {
	ok := domain.Supplier{TaxID: "0991234567001", LegalName: "Papelera SA"}
	if err := domain.ValidateSupplier(ok); err != nil {
		t.Fatalf("expected valid supplier, got %v", err)
	}

	cases := map[string]domain.Supplier{
		"missing tax id":  {LegalName: "X"},
		"missing name":    {TaxID: "123"},
		"tax id too long": {TaxID: "09912345670011", LegalName: "X"},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			if err := domain.ValidateSupplier(s); !domain.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestValidateProduct(t *testing.T) {
	base := domain.Product{Code: "A", Name: "Paper", Unit: "box", Price: dec("0.01"), SupplierID: 1}
	if err := domain.ValidateProduct(base); err != nil {
		t.Fatalf("expected valid product, got %v", err)
	}

	cases := []struct {
		name  string
		mut   func(p *domain.Product)
		field string
	}{
		{name: "code", mut: func(p *domain.Product) { p.Code = " " }, field: "code"},
		{name: "name", mut: func(p *domain.Product) { p.Name = "" }, field: "name"},
		{name: "unit", mut: func(p *domain.Product) { p.Unit = "" }, field: "unit"},
		{name: "price", mut: func(p *domain.Product) { p.Price = dec("0.009") }, field: "price"},
		{name: "supplier", mut: func(p *domain.Product) { p.SupplierID = 0 }, field: "supplier_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			tc.mut(&p)
			err := domain.ValidateProduct(p)
			verr, ok := err.(*domain.ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %s, got %s", tc.field, verr.Field)
			}
		})
	}
}

func TestProductHelpers(t *testing.T) {
	p := domain.Product{ID: 4, Code: "TN", Name: "Toner", Unit: "unit", Price: dec("9.99"), Active: true, MinStock: 5, CurrentStock: 5}
	if p.DisplayName() != "TN - Toner" {
		t.Fatalf("unexpected display name %q", p.DisplayName())
	}
	if !p.LowStock() {
		t.Fatal("expected low stock when current equals minimum")
	}
	snap := p.Snapshot()
	if snap.ID != 4 || snap.Code != "TN" || !snap.Price.Equal(dec("9.99")) || !snap.Active {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestUserInitials(t *testing.T) {
	cases := map[string]string{
		"System Administrator": "SA",
		"Admin":                "Ad",
		"":                     "??",
		"X":                    "X",
	}
	for name, want := range cases {
		if got := (domain.User{FullName: name}).Initials(); got != want {
			t.Errorf("Initials(%q) = %q, want %q", name, got, want)
		}
	}
}
