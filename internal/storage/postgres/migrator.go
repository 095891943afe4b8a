package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

const (
	migrationsDir     = "sql/migrations"
	migrationLockKey  = int64(20260314)
	migrationTableDDL = `
CREATE TABLE IF NOT EXISTS procurement_schema_migrations (
    version    BIGINT PRIMARY KEY,
    name       TEXT NOT NULL,
    checksum   TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
)

//go:embed sql/migrations/*.sql
var migrationsFS embed.FS

// ErrMigrationDrift — применённая миграция изменилась после применения.
var ErrMigrationDrift = errors.New("applied migration was modified")

type migrationDirection string

const (
	migrationUp   migrationDirection = "up"
	migrationDown migrationDirection = "down"
)

// schemaMigration пара up/down файлов одной версии.
type schemaMigration struct {
	Version  int64
	Name     string
	Up       string
	Down     string
	Checksum string
}

func (m schemaMigration) label() string {
	return fmt.Sprintf("%04d_%s", m.Version, m.Name)
}

// appliedMigration — строка таблицы procurement_schema_migrations.
type appliedMigration struct {
	Version  int64
	Checksum string
}

// MigrateUp применяет ожидающие миграции. steps=0 применяет все.
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	return s.migrate(ctx, migrationUp, steps)
}

// MigrateDown откатывает последние миграции, минимум одну.
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	return s.migrate(ctx, migrationDown, max(steps, 1))
}

// MigrationStatus возвращает последнюю применённую версию и число применённых миграций.
func (s *Store) MigrationStatus(ctx context.Context) (int64, int, error) {
	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return 0, 0, err
	}
	var version int64
	for _, a := range applied {
		version = max(version, a.Version)
	}
	return version, len(applied), nil
}

// PendingMigrations перечисляет ещё не применённые миграции в порядке применения.
func (s *Store) PendingMigrations(ctx context.Context) ([]string, error) {
	all, err := parseMigrations(migrationsFS, migrationsDir)
	if err != nil {
		return nil, err
	}
	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := planMigrations(all, applied, migrationUp, 0)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(plan))
	for _, m := range plan {
		names = append(names, m.label())
	}
	return names, nil
}

func (s *Store) appliedMigrations(ctx context.Context) ([]appliedMigration, error) {
	if s == nil || s.db == nil {
		return nil, errStoreClosed
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, migrationTableDDL); err != nil {
		return nil, fmt.Errorf("ensure migration table: %w", err)
	}
	return queryApplied(ctx, s.db)
}

func (s *Store) migrate(ctx context.Context, direction migrationDirection, steps int) error {
	if s == nil || s.db == nil {
		return errStoreClosed
	}
	if direction != migrationUp && direction != migrationDown {
		return fmt.Errorf("unsupported migration direction: %s", direction)
	}

	all, err := parseMigrations(migrationsFS, migrationsDir)
	if err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire db connection: %w", err)
	}
	defer conn.Close()

	lockCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := conn.ExecContext(lockCtx, "SELECT pg_advisory_lock($1)", migrationLockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockKey)
	}()

	if _, err := conn.ExecContext(ctx, migrationTableDDL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}
	applied, err := queryApplied(ctx, conn)
	if err != nil {
		return err
	}

	plan, err := planMigrations(all, applied, direction, steps)
	if err != nil {
		return err
	}
	for _, m := range plan {
		if err := runMigration(ctx, conn, m, direction); err != nil {
			return err
		}
	}
	return nil
}

// planMigrations решает, какие миграции и в каком порядке выполнить.
// Для up сначала сверяются контрольные суммы уже применённых версий.
func planMigrations(all []schemaMigration, applied []appliedMigration, direction migrationDirection, steps int) ([]schemaMigration, error) {
	byVersion := make(map[int64]schemaMigration, len(all))
	for _, m := range all {
		byVersion[m.Version] = m
	}
	done := make(map[int64]bool, len(applied))
	for _, a := range applied {
		done[a.Version] = true
	}

	var plan []schemaMigration
	switch direction {
	case migrationUp:
		for _, a := range applied {
			if m, ok := byVersion[a.Version]; ok && m.Checksum != a.Checksum {
				return nil, fmt.Errorf("%w: %s", ErrMigrationDrift, m.label())
			}
		}
		for _, m := range all {
			if !done[m.Version] {
				plan = append(plan, m)
			}
		}
	case migrationDown:
		versions := make([]int64, 0, len(applied))
		for _, a := range applied {
			versions = append(versions, a.Version)
		}
		sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })
		for _, v := range versions {
			m, ok := byVersion[v]
			if !ok {
				return nil, fmt.Errorf("cannot rollback unknown migration version %d", v)
			}
			plan = append(plan, m)
		}
	default:
		return nil, fmt.Errorf("unsupported migration direction: %s", direction)
	}

	if steps > 0 && len(plan) > steps {
		plan = plan[:steps]
	}
	return plan, nil
}

// runMigration выполняет одну миграцию и правит журнал версий в той же транзакции.
func runMigration(ctx context.Context, conn *sql.Conn, m schemaMigration, direction migrationDirection) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s migration %s: %w", direction, m.label(), err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	body, record, args := m.Up, `
		INSERT INTO procurement_schema_migrations (version, name, checksum)
		VALUES ($1, $2, $3)`, []any{m.Version, m.Name, m.Checksum}
	if direction == migrationDown {
		body, record, args = m.Down, `DELETE FROM procurement_schema_migrations WHERE version = $1`, []any{m.Version}
	}

	if _, err = tx.ExecContext(ctx, body); err != nil {
		return fmt.Errorf("execute %s migration %s: %w", direction, m.label(), err)
	}
	if _, err = tx.ExecContext(ctx, record, args...); err != nil {
		return fmt.Errorf("record %s migration %s: %w", direction, m.label(), err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s migration %s: %w", direction, m.label(), err)
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryApplied(ctx context.Context, q queryer) ([]appliedMigration, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT version, checksum
		FROM procurement_schema_migrations
		ORDER BY version
	`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	var applied []appliedMigration
	for rows.Next() {
		var a appliedMigration
		if err := rows.Scan(&a.Version, &a.Checksum); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied = append(applied, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

// parseMigrations читает файлы вида 0001_name.up.sql / 0001_name.down.sql.
func parseMigrations(fsys fs.FS, dir string) ([]schemaMigration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	byVersion := make(map[int64]*schemaMigration)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, name, direction, err := parseMigrationName(entry.Name())
		if err != nil {
			return nil, err
		}

		raw, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		body := strings.TrimSpace(string(raw))
		if body == "" {
			return nil, fmt.Errorf("migration file is empty: %s", entry.Name())
		}

		m, ok := byVersion[version]
		if !ok {
			m = &schemaMigration{Version: version, Name: name}
			byVersion[version] = m
		}
		if m.Name != name {
			return nil, fmt.Errorf("migration %d has two names: %s and %s", version, m.Name, name)
		}

		target := &m.Up
		if direction == migrationDown {
			target = &m.Down
		}
		if *target != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %d", direction, version)
		}
		*target = body
	}
	if len(byVersion) == 0 {
		return nil, errors.New("no migration files found")
	}

	migrations := make([]schemaMigration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("migration %s needs both up and down files", m.label())
		}
		sum := sha256.Sum256([]byte(m.Up))
		m.Checksum = hex.EncodeToString(sum[:])
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func parseMigrationName(file string) (int64, string, migrationDirection, error) {
	stem := strings.TrimSuffix(file, ".sql")

	var direction migrationDirection
	switch {
	case strings.HasSuffix(stem, ".up"):
		direction = migrationUp
	case strings.HasSuffix(stem, ".down"):
		direction = migrationDown
	default:
		return 0, "", "", fmt.Errorf("invalid migration file name: %s", file)
	}
	stem = strings.TrimSuffix(stem, "."+string(direction))

	rawVersion, name, ok := strings.Cut(stem, "_")
	if !ok || name == "" || strings.ContainsAny(name, ". ") {
		return 0, "", "", fmt.Errorf("invalid migration file name: %s", file)
	}
	version, err := strconv.ParseInt(rawVersion, 10, 64)
	if err != nil || version <= 0 {
		return 0, "", "", fmt.Errorf("invalid migration version in %s", file)
	}
	return version, name, direction, nil
}
