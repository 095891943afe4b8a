package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
	"github.com/vladislavdragonenkov/procurement-admin/internal/storage/memory"
)

func TestSupplierRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSupplierRepository()

	created, err := repo.Create(ctx, domain.Supplier{TaxID: "0990000000001", LegalName: "Papelera SA", Active: true})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	_, err = repo.Create(ctx, domain.Supplier{TaxID: "0990000000001", LegalName: "Duplicate"})
	assert.True(t, domain.IsValidation(err))

	_, err = repo.Create(ctx, domain.Supplier{LegalName: "No tax id"})
	assert.True(t, domain.IsValidation(err))

	created.TradeName = "Papelera"
	updated, err := repo.Update(ctx, created.ID, created)
	require.NoError(t, err)
	assert.Equal(t, "Papelera SA (Papelera)", updated.DisplayName())

	found, err := repo.SearchByName(ctx, "papel")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, repo.SetActive(ctx, created.ID, false))
	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.FindByID(ctx, created.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestProductRepository_BySupplierIncludesInactive(t *testing.T) {
	ctx := context.Background()
	suppliers := memory.NewSupplierRepository()
	products := memory.NewProductRepository(suppliers)

	s, err := suppliers.Create(ctx, domain.Supplier{TaxID: "1", LegalName: "Toner Corp", Active: true})
	require.NoError(t, err)

	base := domain.Product{Code: "T1", Name: "Toner", Unit: "unit", Price: decimal.RequireFromString("45.00"), SupplierID: s.ID, Active: true}
	_, err = products.Create(ctx, base)
	require.NoError(t, err)

	inactive := base
	inactive.Code = "T2"
	inactive.Active = false
	_, err = products.Create(ctx, inactive)
	require.NoError(t, err)

	bySupplier, err := products.ListBySupplier(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, bySupplier, 2)
	assert.Equal(t, "Toner Corp", bySupplier[0].SupplierName)

	active, err := products.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestProductRepository_RejectsUnknownSupplier(t *testing.T) {
	products := memory.NewProductRepository(memory.NewSupplierRepository())

	_, err := products.Create(context.Background(), domain.Product{
		Code: "X", Name: "X", Unit: "u", Price: decimal.RequireFromString("1.00"), SupplierID: 99,
	})
	assert.True(t, domain.IsNotFound(err))
}

func TestSessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()

	require.NoError(t, store.Create(ctx, domain.Session{ID: "live", Username: "admin"}))
	require.NoError(t, store.Create(ctx, domain.Session{ID: "old", Username: "admin", ExpiresAt: pastTime()}))

	got, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)

	_, err = store.Get(ctx, "old")
	assert.True(t, domain.IsNotFound(err))

	require.NoError(t, store.Delete(ctx, "live"))
	_, err = store.Get(ctx, "live")
	assert.True(t, domain.IsNotFound(err))
}

func TestCredentialStore_LookupIsCaseInsensitive(t *testing.T) {
	store := memory.NewCredentialStore(domain.User{Username: "Admin", Role: domain.RoleAdmin, Active: true})

	u, err := store.Lookup(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	_, err = store.Lookup(context.Background(), "ghost")
	assert.True(t, domain.IsNotFound(err))
}

func TestTimelineRepository_Chronological(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTimelineRepository()

	later := pastTime().Add(2)
	require.NoError(t, repo.Append(ctx, domain.TimelineEvent{OrderID: 1, Type: domain.TimelineOrderUpdated, Occurred: later}))
	require.NoError(t, repo.Append(ctx, domain.TimelineEvent{OrderID: 1, Type: domain.TimelineOrderCreated, Occurred: pastTime()}))
	require.NoError(t, repo.Append(ctx, domain.TimelineEvent{OrderID: 2, Type: domain.TimelineOrderDeleted}))

	events, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.TimelineOrderCreated, events[0].Type)
	assert.Equal(t, domain.TimelineOrderUpdated, events[1].Type)
}

func TestEventLog_KeepsPublishedEvents(t *testing.T) {
	l := memory.NewEventLog(nil)
	require.NoError(t, l.Publish(context.Background(), domain.OrderEvent{Type: domain.OrderEventCreated, OrderID: 5}))

	events := l.Events()
	require.Len(t, events, 1)
	assert.Equal(t, int64(5), events[0].OrderID)
}

func pastTime() time.Time {
	return time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
}
