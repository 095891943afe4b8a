package domain_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func product(id int64, price string) domain.ProductSnapshot {
	return domain.ProductSnapshot{ID: id, Code: "P-1", Name: "Paper", Unit: "box", Price: dec(price), Active: true}
}

func mustItem(t *testing.T, productID int64, qty int, price string) domain.LineItem {
	t.Helper()
	item, err := domain.NewLineItem(product(productID, price), qty, dec(price))
	if err != nil {
		t.Fatalf("new line item: %v", err)
	}
	return item
}

func assertMoney(t *testing.T, name, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("expected %s %s, got %s", name, want, got.String())
	}
}

func assertTotals(t *testing.T, o *domain.Order, subtotal, tax, total string) {
	t.Helper()
	assertMoney(t, "subtotal", subtotal, o.Subtotal())
	assertMoney(t, "tax", tax, o.Tax())
	assertMoney(t, "total", total, o.Total())
}

func TestNewDraftOrder_Defaults(t *testing.T) {
	now := time.Date(2026, 10, 17, 15, 4, 5, 0, time.UTC)
	o := domain.NewDraftOrder(now)

	if !o.IsNew() {
		t.Fatal("expected draft to be new")
	}
	if o.Status != domain.OrderStatusPending {
		t.Fatalf("expected status PENDING, got %s", o.Status)
	}
	if !o.OrderDate.Equal(time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected order date to be today, got %v", o.OrderDate)
	}
	if o.ItemCount() != 0 {
		t.Fatalf("expected no items, got %d", o.ItemCount())
	}
	assertTotals(t, o, "0", "0", "0")
}

func TestOrder_TotalsScenario(t *testing.T) {
	o := domain.NewDraftOrder(time.Now())

	first := mustItem(t, 5, 3, "10.00")
	o.AddItem(first)
	assertTotals(t, o, "30.00", "3.60", "33.60")

	second := mustItem(t, 7, 1, "19.99")
	o.AddItem(second)
	assertTotals(t, o, "49.99", "6.00", "55.99")

	o.RemoveItem(second)
	assertTotals(t, o, "30.00", "3.60", "33.60")
	if o.ItemCount() != 1 {
		t.Fatalf("expected 1 item, got %d", o.ItemCount())
	}
}

func TestOrder_RemoveAbsentItemIsNoop(t *testing.T) {
	o := domain.NewDraftOrder(time.Now())
	kept := mustItem(t, 5, 3, "10.00")
	o.AddItem(kept)

	stranger := mustItem(t, 5, 3, "10.00")
	o.RemoveItem(stranger)

	if o.ItemCount() != 1 {
		t.Fatalf("expected item to stay, got %d items", o.ItemCount())
	}
	if o.Items()[0].Key() != kept.Key() {
		t.Fatal("expected the original item to stay in place")
	}
	assertTotals(t, o, "30.00", "3.60", "33.60")
}

func TestOrder_RemoveByBackendID(t *testing.T) {
	stored, err := domain.RestoreLineItem(42, product(5, "2.50"), 2, dec("2.50"))
	if err != nil {
		t.Fatalf("restore item: %v", err)
	}
	o := domain.RestoreOrder(domain.Order{ID: 9, SupplierID: 1, Status: domain.OrderStatusPending}, []domain.LineItem{stored})
	assertTotals(t, o, "5.00", "0.60", "5.60")

	sameRow, err := domain.RestoreLineItem(42, product(5, "2.50"), 2, dec("2.50"))
	if err != nil {
		t.Fatalf("restore item: %v", err)
	}
	o.RemoveItem(sameRow)

	if o.ItemCount() != 0 {
		t.Fatalf("expected item removed by id, got %d", o.ItemCount())
	}
	assertTotals(t, o, "0", "0", "0")
}

func TestRestoreLineItem_AcceptsStoredZeroPrice(t *testing.T) {
	free, err := domain.RestoreLineItem(7, product(5, "0"), 3, dec("0"))
	if err != nil {
		t.Fatalf("restore zero-priced item: %v", err)
	}
	paid, err := domain.RestoreLineItem(8, product(6, "10.00"), 1, dec("10.00"))
	if err != nil {
		t.Fatalf("restore item: %v", err)
	}
	o := domain.RestoreOrder(domain.Order{ID: 3, SupplierID: 1, Status: domain.OrderStatusReceived}, []domain.LineItem{free, paid})
	assertTotals(t, o, "10.00", "1.20", "11.20")

	if _, err := domain.RestoreLineItem(9, product(5, "1"), 1, dec("-1")); !errors.Is(err, domain.ErrUnitPriceInvalid) {
		t.Fatalf("expected negative stored price rejected, got %v", err)
	}
	if _, err := domain.NewLineItem(product(5, "0"), 1, dec("0")); !errors.Is(err, domain.ErrUnitPriceInvalid) {
		t.Fatalf("expected zero price rejected for new items, got %v", err)
	}
}

func TestOrder_RemoveFirstMatchOnly(t *testing.T) {
	a, _ := domain.RestoreLineItem(1, product(5, "1.00"), 1, dec("1.00"))
	b, _ := domain.RestoreLineItem(1, product(6, "2.00"), 1, dec("2.00"))
	o := domain.RestoreOrder(domain.Order{Status: domain.OrderStatusPending}, []domain.LineItem{a, b})

	o.RemoveItem(a)

	items := o.Items()
	if len(items) != 1 || items[0].ProductID() != 6 {
		t.Fatalf("expected only the first match removed, got %+v", items)
	}
}

func TestOrder_TotalsFollowItemsForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	o := domain.NewDraftOrder(time.Now())
	var live []domain.LineItem

	for step := 0; step < 200; step++ {
		if len(live) > 0 && rng.Intn(3) == 0 {
			idx := rng.Intn(len(live))
			o.RemoveItem(live[idx])
			live = append(live[:idx], live[idx+1:]...)
		} else {
			price := decimal.New(int64(rng.Intn(100000)+1), -2)
			item, err := domain.NewLineItem(product(int64(rng.Intn(20)+1), price.String()), rng.Intn(50)+1, price)
			if err != nil {
				t.Fatalf("new line item: %v", err)
			}
			o.AddItem(item)
			live = append(live, item)
		}

		want := decimal.Zero
		for _, item := range live {
			want = want.Add(item.UnitPrice().Mul(decimal.NewFromInt(int64(item.Quantity()))))
		}
		if !o.Subtotal().Equal(want) {
			t.Fatalf("step %d: expected subtotal %s, got %s", step, want, o.Subtotal())
		}
		wantTax := want.Mul(dec("0.12")).Round(2)
		if !o.Tax().Equal(wantTax) {
			t.Fatalf("step %d: expected tax %s, got %s", step, wantTax, o.Tax())
		}
		if !o.Total().Equal(o.Subtotal().Add(o.Tax())) {
			t.Fatalf("step %d: total %s != subtotal + tax", step, o.Total())
		}
	}
}

func TestComputeTotals_TaxRounding(t *testing.T) {
	cases := []struct {
		price string
		tax   string
	}{
		{price: "10.005", tax: "1.20"},
		{price: "10.00", tax: "1.20"},
		{price: "49.99", tax: "6.00"},
		{price: "0.125", tax: "0.02"},
		{price: "0.04", tax: "0.00"},
		{price: "1.0417", tax: "0.13"},
	}

	for _, tc := range cases {
		t.Run(tc.price, func(t *testing.T) {
			item, err := domain.NewLineItem(product(1, tc.price), 1, dec(tc.price))
			if err != nil {
				t.Fatalf("new line item: %v", err)
			}
			totals := domain.ComputeTotals([]domain.LineItem{item})
			assertMoney(t, "subtotal", tc.price, totals.Subtotal)
			assertMoney(t, "tax", tc.tax, totals.Tax)
			assertMoney(t, "total", dec(tc.price).Add(dec(tc.tax)).String(), totals.Total)
		})
	}
}

func TestOrderValidate(t *testing.T) {
	item := mustItem(t, 5, 1, "1.00")

	cases := []struct {
		name string
		mut  func(o *domain.Order)
		want error
	}{
		{name: "ok", mut: func(o *domain.Order) {}, want: nil},
		{name: "no supplier", mut: func(o *domain.Order) { o.SupplierID = 0 }, want: domain.ErrSupplierRequired},
		{name: "no date", mut: func(o *domain.Order) { o.OrderDate = time.Time{} }, want: domain.ErrOrderDateRequired},
		{name: "no items", mut: func(o *domain.Order) { o.RemoveItem(item) }, want: domain.ErrItemsRequired},
		{
			name: "supplier reported first",
			mut: func(o *domain.Order) {
				o.SupplierID = 0
				o.OrderDate = time.Time{}
				o.RemoveItem(item)
			},
			want: domain.ErrSupplierRequired,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := domain.NewDraftOrder(time.Now())
			o.SupplierID = 3
			o.AddItem(item)
			tc.mut(o)

			err := o.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !domain.IsValidation(err) {
				t.Fatalf("expected validation error, got %T", err)
			}
		})
	}
}

func TestOrderValidate_ReChecksLiveState(t *testing.T) {
	o := domain.NewDraftOrder(time.Now())
	if err := o.Validate(); !errors.Is(err, domain.ErrSupplierRequired) {
		t.Fatalf("expected supplier error, got %v", err)
	}
	o.SupplierID = 1
	if err := o.Validate(); !errors.Is(err, domain.ErrItemsRequired) {
		t.Fatalf("expected items error, got %v", err)
	}
	o.AddItem(mustItem(t, 2, 1, "3.00"))
	if err := o.Validate(); err != nil {
		t.Fatalf("expected valid order, got %v", err)
	}
}

func TestNewLineItem_Validation(t *testing.T) {
	cases := []struct {
		name  string
		prod  domain.ProductSnapshot
		qty   int
		price string
		want  error
	}{
		{name: "zero qty", prod: product(1, "1"), qty: 0, price: "1", want: domain.ErrQuantityInvalid},
		{name: "negative qty", prod: product(1, "1"), qty: -3, price: "1", want: domain.ErrQuantityInvalid},
		{name: "zero price", prod: product(1, "1"), qty: 1, price: "0", want: domain.ErrUnitPriceInvalid},
		{name: "negative price", prod: product(1, "1"), qty: 1, price: "-0.01", want: domain.ErrUnitPriceInvalid},
		{name: "no product", prod: domain.ProductSnapshot{}, qty: 1, price: "1", want: domain.ErrProductRequired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.NewLineItem(tc.prod, tc.qty, dec(tc.price))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNewLineItem_SubtotalAndSnapshot(t *testing.T) {
	snap := domain.ProductSnapshot{ID: 9, Code: "TN-01", Name: "Toner", Unit: "unit", Price: dec("45.50"), Active: true}
	item, err := domain.NewLineItem(snap, 4, dec("40.25"))
	if err != nil {
		t.Fatalf("new line item: %v", err)
	}
	assertMoney(t, "subtotal", "161.00", item.Subtotal())
	if item.Product() != snap {
		t.Fatalf("expected snapshot to be kept, got %+v", item.Product())
	}
	if item.Key() == "" {
		t.Fatal("expected local key to be assigned")
	}
	if item.ID() != 0 {
		t.Fatalf("expected unsaved item, got id %d", item.ID())
	}
}

func TestOrderStatusPredicates(t *testing.T) {
	cases := []struct {
		status                                       domain.OrderStatus
		editable, approvable, receivable, cancelable bool
	}{
		{domain.OrderStatusPending, true, true, false, true},
		{domain.OrderStatusApproved, false, false, true, true},
		{domain.OrderStatusReceived, false, false, false, false},
		{domain.OrderStatusCancelled, false, false, false, false},
	}

	for _, tc := range cases {
		o := domain.Order{Status: tc.status}
		if o.IsEditable() != tc.editable || o.IsApprovable() != tc.approvable ||
			o.IsReceivable() != tc.receivable || o.IsCancelable() != tc.cancelable {
			t.Fatalf("unexpected predicates for %s", tc.status)
		}
	}
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	if !domain.OrderStatusPending.CanTransitionTo(domain.OrderStatusApproved) {
		t.Fatal("pending -> approved must be allowed")
	}
	if !domain.OrderStatusApproved.CanTransitionTo(domain.OrderStatusReceived) {
		t.Fatal("approved -> received must be allowed")
	}
	if !domain.OrderStatusApproved.CanTransitionTo(domain.OrderStatusCancelled) {
		t.Fatal("approved -> cancelled must be allowed")
	}
	if domain.OrderStatusReceived.CanTransitionTo(domain.OrderStatusCancelled) {
		t.Fatal("received is terminal")
	}
	if domain.OrderStatusPending.CanTransitionTo(domain.OrderStatusReceived) {
		t.Fatal("pending -> received must be rejected")
	}
	if domain.OrderStatusApproved.CanTransitionTo(domain.OrderStatusPending) {
		t.Fatal("transitions never go back to pending")
	}
}

func TestParseOrderStatus(t *testing.T) {
	s, err := domain.ParseOrderStatus(" approved ")
	if err != nil || s != domain.OrderStatusApproved {
		t.Fatalf("expected APPROVED, got %q (%v)", s, err)
	}
	if _, err := domain.ParseOrderStatus("shipped"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOrder_ItemsReturnsCopy(t *testing.T) {
	o := domain.NewDraftOrder(time.Now())
	o.AddItem(mustItem(t, 1, 1, "1.00"))

	items := o.Items()
	items[0] = mustItem(t, 2, 10, "99.00")

	assertTotals(t, o, "1.00", "0.12", "1.12")
	if o.Items()[0].ProductID() != 1 {
		t.Fatal("external slice mutation leaked into the aggregate")
	}
}
