package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireMigrationStatus(t *testing.T, store *Store, wantVersion int64, wantCount int) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	version, count, err := store.MigrationStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, wantVersion, version, "version")
	require.Equal(t, wantCount, count, "count")
}

func TestMigrator_PostgresLifecycle(t *testing.T) {
	store := openRawPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	require.NoError(t, store.MigrateDown(ctx, 100))
	requireMigrationStatus(t, store, 0, 0)

	pending, err := store.PendingMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_users", "0002_order_timeline"}, pending)

	require.NoError(t, store.MigrateUp(ctx, 1))
	requireMigrationStatus(t, store, 1, 1)

	require.NoError(t, store.MigrateUp(ctx, 0))
	requireMigrationStatus(t, store, 2, 2)

	require.NoError(t, store.MigrateUp(ctx, 0), "повторный up ничего не меняет")
	requireMigrationStatus(t, store, 2, 2)

	pending, err = store.PendingMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, store.MigrateDown(ctx, 0))
	requireMigrationStatus(t, store, 1, 1)

	require.NoError(t, store.MigrateDown(ctx, 1))
	requireMigrationStatus(t, store, 0, 0)

	require.NoError(t, store.MigrateDown(ctx, 1), "откат пустой схемы ничего не делает")
	require.NoError(t, store.EnsureSchema(ctx))
}

func TestMigrator_DetectsEditedMigration(t *testing.T) {
	store := openRawPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, store.EnsureSchema(ctx))

	var original string
	require.NoError(t, store.DB().QueryRowContext(ctx,
		`SELECT checksum FROM procurement_schema_migrations WHERE version = 1`).Scan(&original))
	_, err := store.DB().ExecContext(ctx,
		`UPDATE procurement_schema_migrations SET checksum = 'edited' WHERE version = 1`)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = store.DB().ExecContext(context.Background(),
			`UPDATE procurement_schema_migrations SET checksum = $1 WHERE version = 1`, original)
	})

	assert.ErrorIs(t, store.MigrateUp(ctx, 0), ErrMigrationDrift)
}

func TestMigrator_NilStore(t *testing.T) {
	var store *Store
	ctx := context.Background()

	assert.Error(t, store.MigrateUp(ctx, 0))
	assert.Error(t, store.MigrateDown(ctx, 1))
	_, _, err := store.MigrationStatus(ctx)
	assert.Error(t, err)
	_, err = store.PendingMigrations(ctx)
	assert.Error(t, err)
}
