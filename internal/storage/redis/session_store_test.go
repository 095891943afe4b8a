package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

// openTestStore подключается к Redis из PROCUREMENT_TEST_REDIS_ADDR или пропускает тест.
func openTestStore(t *testing.T) *SessionStore {
	t.Helper()

	addr := os.Getenv("PROCUREMENT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PROCUREMENT_TEST_REDIS_ADDR is not set")
	}

	store, err := Open(context.Background(), addr, "", 0)
	if err != nil {
		t.Skipf("redis is unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSessionStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	session := domain.Session{
		ID:        uuid.NewString(),
		Username:  "admin",
		FullName:  "System Administrator",
		Role:      domain.RoleAdmin,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		ExpiresAt: time.Now().Add(time.Minute).UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Create(ctx, session))

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Username, got.Username)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.True(t, got.ExpiresAt.Equal(session.ExpiresAt))

	require.NoError(t, store.Delete(ctx, session.ID))
	_, err = store.Get(ctx, session.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestSessionStore_ExpiredSessionIsNotStored(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id := uuid.NewString()
	require.NoError(t, store.Create(ctx, domain.Session{ID: id, ExpiresAt: time.Now().Add(-time.Second)}))

	_, err := store.Get(ctx, id)
	assert.True(t, domain.IsNotFound(err))
}

func TestOpen_UnreachableRedis(t *testing.T) {
	_, err := Open(context.Background(), "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
