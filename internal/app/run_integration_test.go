package app

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/procurement-admin/internal/health"
	"github.com/vladislavdragonenkov/procurement-admin/internal/messaging/kafka"
)

func TestInitRuntimeDependencies_PostgresSuccess(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("PROCUREMENT_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("postgres dsn is not available")
	}

	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverPostgres
	cfg.PostgresDSN = dsn
	cfg.PostgresAutoMigrate = true
	cfg.BootstrapUser = "app-integration"
	cfg.BootstrapPassword = "integration-pass"

	logger := log.WithField("test", "postgres-init")
	deps, err := initRuntimeDependencies(context.Background(), cfg, logger)
	if err != nil {
		t.Skipf("postgres is not available for app integration test: %v", err)
	}
	defer deps.close(logger)

	require.NotNil(t, deps.pgStore)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := deps.credentials.Lookup(ctx, "app-integration")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	require.NoError(t, deps.timeline.Append(ctx, domain.TimelineEvent{
		OrderID:     9001,
		OrderNumber: "OC-9001",
		Type:        domain.TimelineOrderCreated,
		Actor:       "app-integration",
		Occurred:    time.Now().UTC(),
	}))
	events, err := deps.timeline.List(ctx, 9001)
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	check := healthcheck.NewSimpleChecker("postgres", deps.pgStore.Ping).Check(ctx)
	assert.Equal(t, healthcheck.StatusHealthy, check.Status)
}

func TestCloseKafka_NonNil(t *testing.T) {
	brokers := strings.TrimSpace(os.Getenv("PROCUREMENT_KAFKA_TEST_BROKERS"))
	if brokers == "" {
		t.Skip("kafka brokers are not configured")
	}

	producer, err := kafka.NewProducer(splitList(brokers), kafka.TopicOrderEvents, nil)
	if err != nil {
		t.Skipf("kafka is not available for integration test: %v", err)
	}
	closeKafka(producer, log.WithField("test", "kafka-close"))
}
