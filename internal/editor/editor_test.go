package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
	"github.com/vladislavdragonenkov/procurement-admin/internal/metrics"
	"github.com/vladislavdragonenkov/procurement-admin/internal/storage/memory"
)

// flakyOrders подменяет отдельные вызовы репозитория ошибками.
type flakyOrders struct {
	domain.OrderRepository
	numberErr error
	createErr error
	updateErr error
	findErr   error
	creates   int
}

func (f *flakyOrders) GenerateOrderNumber(ctx context.Context) (string, error) {
	if f.numberErr != nil {
		return "", f.numberErr
	}
	return f.OrderRepository.GenerateOrderNumber(ctx)
}

func (f *flakyOrders) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.OrderRepository.Create(ctx, order)
}

func (f *flakyOrders) Update(ctx context.Context, id int64, order *domain.Order) (*domain.Order, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.OrderRepository.Update(ctx, id, order)
}

func (f *flakyOrders) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.OrderRepository.FindByID(ctx, id)
}

type failingCatalog struct{ domain.ProductCatalog }

func (failingCatalog) ListBySupplier(ctx context.Context, supplierID int64) ([]domain.Product, error) {
	return nil, domain.NewBackendError("list products", errors.New("connection refused"))
}

type fixture struct {
	deps      Deps
	orders    *flakyOrders
	suppliers *memory.SupplierRepository
	products  *memory.ProductRepository
	events    *memory.EventLog
	timeline  domain.TimelineRepository
	metrics   *metrics.ProcurementMetrics

	supplierA domain.Supplier
	supplierB domain.Supplier
	paper     domain.Product
	toner     domain.Product
	pens      domain.Product
}

var fixedNow = time.Date(2026, time.March, 14, 15, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		orders:    &flakyOrders{OrderRepository: memory.NewOrderRepository()},
		suppliers: memory.NewSupplierRepository(),
		events:    memory.NewEventLog(nil),
		timeline:  memory.NewTimelineRepository(),
		metrics:   metrics.NewProcurementMetricsWithRegisterer(prometheus.NewRegistry()),
	}
	f.products = memory.NewProductRepository(f.suppliers)

	var err error
	f.supplierA, err = f.suppliers.Create(ctx, domain.Supplier{TaxID: "0990000000001", LegalName: "Papelera SA", Active: true})
	require.NoError(t, err)
	f.supplierB, err = f.suppliers.Create(ctx, domain.Supplier{TaxID: "0990000000002", LegalName: "Toner Corp", Active: true})
	require.NoError(t, err)

	f.paper, err = f.products.Create(ctx, domain.Product{Code: "PAP", Name: "Paper", Unit: "box", Price: dec("10.00"), SupplierID: f.supplierA.ID, Active: true})
	require.NoError(t, err)
	f.pens, err = f.products.Create(ctx, domain.Product{Code: "PEN", Name: "Pens", Unit: "box", Price: dec("19.99"), SupplierID: f.supplierA.ID, Active: true})
	require.NoError(t, err)
	f.toner, err = f.products.Create(ctx, domain.Product{Code: "TON", Name: "Toner", Unit: "unit", Price: dec("45.00"), SupplierID: f.supplierB.ID, Active: true})
	require.NoError(t, err)

	f.deps = Deps{
		Suppliers: f.suppliers,
		Catalog:   f.products,
		Orders:    f.orders,
		Events:    f.events,
		Timeline:  f.timeline,
		Metrics:   f.metrics,
		Now:       func() time.Time { return fixedNow },
	}
	return f
}

func (f *fixture) editor(t *testing.T) *Editor {
	t.Helper()
	e := New(f.deps, "admin")
	require.NoError(t, e.PrepareNew(context.Background()))
	return e
}

func TestPrepareNew_DraftDefaults(t *testing.T) {
	f := newFixture(t)
	e := f.editor(t)

	order := e.Order()
	require.NotNil(t, order)
	assert.True(t, order.IsNew())
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC), order.OrderDate)
	assert.Equal(t, 0, order.ItemCount())
	assert.NotEmpty(t, order.OrderNumber)
	assert.Equal(t, "admin", order.CreatedBy)
	assert.Len(t, e.Suppliers(), 2)
	assert.Empty(t, e.Products())
	assert.Equal(t, TitleNew, e.Title())
}

func TestPrepareNew_NumberFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.orders.numberErr = errors.New("503")

	e := New(f.deps, "admin")
	require.NoError(t, e.PrepareNew(context.Background()))
	assert.Empty(t, e.Order().OrderNumber)
}

func TestSelectSupplier_FiltersCatalogAndKeepsItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.editor(t)

	require.NoError(t, e.SelectSupplier(ctx, f.supplierA.ID))
	require.Len(t, e.Products(), 2)
	assert.Equal(t, "Papelera SA", e.Order().SupplierName)

	_, err := e.AddLineItem(f.paper.ID, 3, nil)
	require.NoError(t, err)
	require.NoError(t, e.SelectCandidateProduct(f.pens.ID))

	require.NoError(t, e.SelectSupplier(ctx, f.supplierB.ID))
	require.Len(t, e.Products(), 1)
	assert.Equal(t, f.toner.ID, e.Products()[0].ID)
	assert.Equal(t, 1, e.Order().ItemCount(), "existing line items are kept")
	assert.Equal(t, emptyCandidate(), e.Candidate(), "candidate inputs are reset")

	require.NoError(t, e.SelectSupplier(ctx, 0))
	assert.NotNil(t, e.Products())
	assert.Empty(t, e.Products())
	assert.Equal(t, 1, e.Order().ItemCount())
}

func TestSelectSupplier_CatalogFailureLeavesEmptyList(t *testing.T) {
	f := newFixture(t)
	f.deps.Catalog = failingCatalog{}
	e := f.editor(t)

	err := e.SelectSupplier(context.Background(), f.supplierA.ID)
	assert.True(t, domain.IsBackend(err))
	assert.Empty(t, e.Products())
}

func TestSelectCandidateProduct_AutofillsOnlyBlankPrice(t *testing.T) {
	f := newFixture(t)
	e := f.editor(t)
	require.NoError(t, e.SelectSupplier(context.Background(), f.supplierA.ID))

	require.NoError(t, e.SelectCandidateProduct(f.paper.ID))
	assert.True(t, e.Candidate().UnitPrice.Equal(dec("10.00")))

	e.SetCandidatePrice(dec("8.50"))
	require.NoError(t, e.SelectCandidateProduct(f.pens.ID))
	assert.True(t, e.Candidate().UnitPrice.Equal(dec("8.50")), "typed price is kept")

	err := e.SelectCandidateProduct(f.toner.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestSelectCandidateProduct_RefillsCatalogPriceOnProductChange(t *testing.T) {
	f := newFixture(t)
	e := f.editor(t)
	require.NoError(t, e.SelectSupplier(context.Background(), f.supplierA.ID))

	require.NoError(t, e.SelectCandidateProduct(f.paper.ID))
	assert.True(t, e.Candidate().PriceFromCatalog())

	// форма возвращает подставленную цену обратно
	e.SetCandidatePrice(dec("10.00"))
	require.NoError(t, e.SelectCandidateProduct(f.pens.ID))
	assert.True(t, e.Candidate().UnitPrice.Equal(dec("19.99")))

	item, err := e.AddCandidate()
	require.NoError(t, err)
	assert.Equal(t, "Pens", item.Product().Name)
	assert.True(t, item.UnitPrice().Equal(dec("19.99")), "got %s", item.UnitPrice())
}

func TestSelectCandidateProduct_ClearingProductDropsCatalogPrice(t *testing.T) {
	f := newFixture(t)
	e := f.editor(t)
	require.NoError(t, e.SelectSupplier(context.Background(), f.supplierA.ID))

	require.NoError(t, e.SelectCandidateProduct(f.paper.ID))
	require.NoError(t, e.SelectCandidateProduct(0))
	assert.True(t, e.Candidate().UnitPrice.IsZero())
	assert.False(t, e.Candidate().PriceFromCatalog())

	e.SetCandidatePrice(dec("7.00"))
	require.NoError(t, e.SelectCandidateProduct(0))
	assert.True(t, e.Candidate().UnitPrice.Equal(dec("7.00")), "typed price survives")
}

func TestAddAndRemove_TotalsScenario(t *testing.T) {
	f := newFixture(t)
	e := f.editor(t)
	require.NoError(t, e.SelectSupplier(context.Background(), f.supplierA.ID))

	first, err := e.AddLineItem(f.paper.ID, 3, nil)
	require.NoError(t, err)
	assertTotals(t, e.Order(), "30.00", "3.60", "33.60")

	_, err = e.AddLineItem(f.pens.ID, 1, nil)
	require.NoError(t, err)
	assertTotals(t, e.Order(), "49.99", "6.00", "55.99")

	require.NoError(t, e.RemoveLineItem(e.Order().Items()[1].Key()))
	assertTotals(t, e.Order(), "30.00", "3.60", "33.60")
	assert.Equal(t, first.Key(), e.Order().Items()[0].Key())

	require.NoError(t, e.RemoveLineItem("missing"))
	assert.Equal(t, 1, e.Order().ItemCount())
}

func TestAddLineItem_Errors(t *testing.T) {
	f := newFixture(t)
	e := f.editor(t)
	require.NoError(t, e.SelectSupplier(context.Background(), f.supplierA.ID))

	zero := dec("0")
	tests := []struct {
		name      string
		productID int64
		qty       int
		price     *decimal.Decimal
		check     func(error) bool
	}{
		{name: "no product", productID: 0, qty: 1, check: func(err error) bool { return err == domain.ErrProductRequired }},
		{name: "other supplier", productID: f.toner.ID, qty: 1, check: domain.IsNotFound},
		{name: "zero quantity", productID: f.paper.ID, qty: 0, check: func(err error) bool { return err == domain.ErrQuantityInvalid }},
		{name: "zero price", productID: f.paper.ID, qty: 1, price: &zero, check: func(err error) bool { return err == domain.ErrUnitPriceInvalid }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.AddLineItem(tt.productID, tt.qty, tt.price)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
			assert.Equal(t, 0, e.Order().ItemCount())
			assertTotals(t, e.Order(), "0.00", "0.00", "0.00")
		})
	}
}

func TestAddCandidate_UsesInputsAndResets(t *testing.T) {
	f := newFixture(t)
	e := f.editor(t)
	require.NoError(t, e.SelectSupplier(context.Background(), f.supplierA.ID))

	require.NoError(t, e.SelectCandidateProduct(f.paper.ID))
	e.SetCandidateQuantity(2)
	e.SetCandidatePrice(dec("12.50"))

	item, err := e.AddCandidate()
	require.NoError(t, err)
	assert.True(t, item.Subtotal().Equal(dec("25.00")))
	assert.Equal(t, emptyCandidate(), e.Candidate())
}

func TestSubmit_ValidationOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.editor(t)

	_, err := e.Submit(ctx)
	assert.Equal(t, domain.ErrSupplierRequired, err)

	require.NoError(t, e.SelectSupplier(ctx, f.supplierA.ID))
	require.NoError(t, e.SetHeader(time.Time{}, time.Time{}, ""))
	_, err = e.Submit(ctx)
	assert.Equal(t, domain.ErrOrderDateRequired, err)

	require.NoError(t, e.SetHeader(fixedNow, time.Time{}, ""))
	_, err = e.Submit(ctx)
	assert.Equal(t, domain.ErrItemsRequired, err)
	assert.Equal(t, 0, f.orders.creates, "repository is not called on validation failure")
}

func TestSubmit_CreateThenUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.editor(t)
	require.NoError(t, e.SelectSupplier(ctx, f.supplierA.ID))
	_, err := e.AddLineItem(f.paper.ID, 3, nil)
	require.NoError(t, err)

	created, err := e.Submit(ctx)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.Total().Equal(dec("33.60")))
	assert.Equal(t, TitleEdit, e.Title())

	_, err = e.AddLineItem(f.pens.ID, 1, nil)
	require.NoError(t, err)
	updated, err := e.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.Total().Equal(dec("55.99")))

	events := f.events.Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.OrderEventCreated, events[0].Type)
	assert.Equal(t, domain.OrderEventUpdated, events[1].Type)
	assert.Equal(t, "admin", events[1].Actor)

	timeline, err := f.timeline.List(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, domain.TimelineOrderCreated, timeline[0].Type)
}

func TestSubmit_BackendFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.editor(t)
	require.NoError(t, e.SelectSupplier(ctx, f.supplierA.ID))
	_, err := e.AddLineItem(f.paper.ID, 3, nil)
	require.NoError(t, err)

	f.orders.createErr = errors.New("connection reset by peer")
	before := e.Order()

	_, err = e.Submit(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsBackend(err))
	assert.Contains(t, err.Error(), "connection reset by peer")

	after := e.Order()
	assert.True(t, after.IsNew())
	assert.Equal(t, before.ItemCount(), after.ItemCount())
	assert.True(t, before.Total().Equal(after.Total()))
	assert.Empty(t, f.events.Events())

	f.orders.createErr = nil
	_, err = e.Submit(ctx)
	require.NoError(t, err, "retry after failure succeeds")
}

func TestPrepareEdit_LoadsOrderAndCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.editor(t)
	require.NoError(t, e.SelectSupplier(ctx, f.supplierA.ID))
	_, err := e.AddLineItem(f.paper.ID, 3, nil)
	require.NoError(t, err)
	created, err := e.Submit(ctx)
	require.NoError(t, err)

	other := New(f.deps, "user")
	require.NoError(t, other.PrepareEdit(ctx, created.ID, nil))
	assert.Equal(t, TitleEdit, other.Title())
	assert.Len(t, other.Products(), 2)
	assertTotals(t, other.Order(), "30.00", "3.60", "33.60")
}

func TestPrepareEdit_FallsBackToListRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.orders.findErr = errors.New("timeout")

	row := domain.NewDraftOrder(fixedNow)
	row.ID = 77
	row.SupplierID = f.supplierA.ID

	e := New(f.deps, "admin")
	require.NoError(t, e.PrepareEdit(ctx, 77, row))
	assert.Equal(t, int64(77), e.Order().ID)

	err := e.PrepareEdit(ctx, 78, nil)
	assert.True(t, domain.IsBackend(err))
}

func TestPrepareEdit_RejectsNonPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.editor(t)
	require.NoError(t, e.SelectSupplier(ctx, f.supplierA.ID))
	_, err := e.AddLineItem(f.paper.ID, 1, nil)
	require.NoError(t, err)
	created, err := e.Submit(ctx)
	require.NoError(t, err)
	require.NoError(t, f.orders.SetStatus(ctx, created.ID, domain.OrderStatusApproved))

	err = New(f.deps, "admin").PrepareEdit(ctx, created.ID, nil)
	assert.Equal(t, domain.ErrOrderNotEditable, err)
}

func TestEditor_RequiresOpenDraft(t *testing.T) {
	e := New(newFixture(t).deps, "admin")

	_, err := e.AddLineItem(1, 1, nil)
	assert.True(t, domain.IsValidation(err))
	assert.Nil(t, e.Order())
	assert.Equal(t, TitleNew, e.Title())
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "05/01/2026", FormatDate(time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", FormatDate(time.Time{}))
}

func assertTotals(t *testing.T, order *domain.Order, subtotal, tax, total string) {
	t.Helper()
	assert.Equal(t, subtotal, order.Subtotal().StringFixed(2), "subtotal")
	assert.Equal(t, tax, order.Tax().StringFixed(2), "tax")
	assert.Equal(t, total, order.Total().StringFixed(2), "total")
}
