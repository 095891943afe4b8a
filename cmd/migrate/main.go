package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
	"github.com/vladislavdragonenkov/procurement-admin/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second
	envPostgresDSN = "PROCUREMENT_POSTGRES_DSN"
)

func main() {
	var (
		direction string
		steps     int
		dsn       string
		seedUser  string
	)

	flag.StringVar(&direction, "direction", "up", "migration direction: up|down|status")
	flag.IntVar(&steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: "+envPostgresDSN+")")
	flag.StringVar(&seedUser, "seed-user", "", "provision a login after migrating: name:password[:ADMIN|USER]")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv(envPostgresDSN))
	}
	if dsn == "" {
		fail("%s (or -dsn) is required", envPostgresDSN)
	}

	var (
		user     domain.User
		password string
	)
	if seedUser != "" {
		var err error
		if user, password, err = parseSeedUser(seedUser); err != nil {
			fail("invalid -seed-user: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "up":
		if err := store.MigrateUp(ctx, steps); err != nil {
			fail("migrate up failed: %v", err)
		}
		version, count, err := store.MigrationStatus(ctx)
		if err != nil {
			fail("migration status failed: %v", err)
		}
		fmt.Printf("migrate up ok: version=%d applied=%d\n", version, count)
	case "down":
		if steps <= 0 {
			steps = 1
		}
		if err := store.MigrateDown(ctx, steps); err != nil {
			fail("migrate down failed: %v", err)
		}
		version, count, err := store.MigrationStatus(ctx)
		if err != nil {
			fail("migration status failed: %v", err)
		}
		fmt.Printf("migrate down ok: version=%d applied=%d\n", version, count)
	case "status":
		version, count, err := store.MigrationStatus(ctx)
		if err != nil {
			fail("migration status failed: %v", err)
		}
		pending, err := store.PendingMigrations(ctx)
		if err != nil {
			fail("pending migrations failed: %v", err)
		}
		fmt.Printf("migration status: version=%d applied=%d pending=%d\n", version, count, len(pending))
		for _, name := range pending {
			fmt.Printf("  pending: %s\n", name)
		}
	default:
		fail("unsupported direction: %s (use up|down|status)", direction)
	}

	if seedUser != "" {
		saved, err := postgres.NewCredentialStore(store).UpsertUser(ctx, user, password)
		if err != nil {
			fail("seed user failed: %v", err)
		}
		fmt.Printf("seed user ok: username=%s role=%s id=%d\n", saved.Username, saved.Role, saved.ID)
	}
}

// parseSeedUser разбирает name:password[:role]. Роль по умолчанию USER.
func parseSeedUser(raw string) (domain.User, string, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" || parts[1] == "" {
		return domain.User{}, "", fmt.Errorf("expected name:password[:role], got %q", raw)
	}

	role := domain.RoleUser
	if len(parts) == 3 {
		role = domain.Role(strings.ToUpper(strings.TrimSpace(parts[2])))
		if role != domain.RoleAdmin && role != domain.RoleUser {
			return domain.User{}, "", fmt.Errorf("unsupported role %q (use ADMIN|USER)", parts[2])
		}
	}

	user := domain.User{
		Username: strings.TrimSpace(parts[0]),
		FullName: strings.TrimSpace(parts[0]),
		Role:     role,
		Active:   true,
	}
	return user, parts[1], nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
