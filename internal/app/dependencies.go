package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/procurement-admin/internal/backend"
	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
	"github.com/vladislavdragonenkov/procurement-admin/internal/editor"
	healthcheck "github.com/vladislavdragonenkov/procurement-admin/internal/health"
	"github.com/vladislavdragonenkov/procurement-admin/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/procurement-admin/internal/metrics"
	"github.com/vladislavdragonenkov/procurement-admin/internal/storage/memory"
	"github.com/vladislavdragonenkov/procurement-admin/internal/storage/postgres"
	redisstore "github.com/vladislavdragonenkov/procurement-admin/internal/storage/redis"
	"github.com/vladislavdragonenkov/procurement-admin/internal/version"
	"github.com/vladislavdragonenkov/procurement-admin/internal/web"
)

// runtimeDependencies — всё, что нужно веб-серверу, плюс ресурсы, которые надо закрыть при остановке.
type runtimeDependencies struct {
	suppliers   domain.SupplierAdmin
	products    domain.ProductAdmin
	orders      domain.OrderRepository
	timeline    domain.TimelineRepository
	events      domain.EventPublisher
	credentials domain.CredentialStore
	sessions    domain.SessionStore

	metrics *metrics.ProcurementMetrics
	health  *healthcheck.Handler

	pgStore    *postgres.Store
	redisStore *redisstore.SessionStore
	producer   *kafka.Producer
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &runtimeDependencies{
		metrics: metrics.NewProcurementMetrics(),
		health:  healthcheck.NewHandler(version.GetVersion()),
	}

	if err := deps.initStorage(ctx, cfg, logger); err != nil {
		deps.close(logger)
		return nil, err
	}
	if err := deps.initReference(ctx, cfg, logger); err != nil {
		deps.close(logger)
		return nil, err
	}
	if err := deps.initSessions(ctx, cfg, logger); err != nil {
		deps.close(logger)
		return nil, err
	}
	deps.events, deps.producer = initEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)

	return deps, nil
}

// initStorage подключает хранилище аудита и учётных записей.
func (d *runtimeDependencies) initStorage(ctx context.Context, cfg Config, logger *log.Entry) error {
	switch strings.TrimSpace(cfg.StorageDriver) {
	case "", StorageDriverMemory:
		d.timeline = memory.NewTimelineRepository()
		users, err := memoryUsers(cfg, logger)
		if err != nil {
			return err
		}
		d.credentials = memory.NewCredentialStore(users...)
		return nil

	case StorageDriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return errors.New("postgres storage driver requires a DSN")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN, postgres.WithMaxConns(cfg.PostgresMaxConns))
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		d.pgStore = store

		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("migrate postgres schema: %w", err)
			}
		}

		credentials := postgres.NewCredentialStore(store)
		if cfg.BootstrapUser != "" {
			if _, err := credentials.UpsertUser(ctx, bootstrapUser(cfg), cfg.BootstrapPassword); err != nil {
				return fmt.Errorf("provision bootstrap user: %w", err)
			}
			logger.WithField("username", cfg.BootstrapUser).Info("bootstrap user provisioned")
		}

		d.timeline = postgres.NewTimelineRepository(store)
		d.credentials = credentials
		d.health.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", store.Ping))
		logger.Info("postgres storage initialized")
		return nil

	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// initReference подключает справочники и заказы: REST-бэкенд или данные в памяти.
func (d *runtimeDependencies) initReference(ctx context.Context, cfg Config, logger *log.Entry) error {
	if strings.TrimSpace(cfg.BackendURL) == "" {
		suppliers := memory.NewSupplierRepository()
		products := memory.NewProductRepository(suppliers)
		if cfg.DemoData {
			if err := seedDemoData(ctx, suppliers, products); err != nil {
				return fmt.Errorf("seed demo data: %w", err)
			}
		}
		d.suppliers = suppliers
		d.products = products
		d.orders = memory.NewOrderRepository()
		logger.Warn("backend url is not set, using in-memory suppliers, products and orders")
		return nil
	}

	client, err := backend.New(backend.Config{
		BaseURL:      cfg.BackendURL,
		Timeout:      cfg.BackendTimeout,
		MaxIdleConns: cfg.MaxIdleConns,
	}, logger.WithField("component", "backend-client"), d.metrics)
	if err != nil {
		return fmt.Errorf("init backend client: %w", err)
	}
	d.suppliers = client.Suppliers()
	d.products = client.Products()
	d.orders = client.Orders()
	d.health.RegisterChecker("backend", healthcheck.NewDegradedChecker("backend", client.Ping))
	logger.WithField("backend_url", cfg.BackendURL).Info("backend client initialized")
	return nil
}

// initSessions выбирает хранилище сессий: Redis, если задан адрес, иначе память процесса.
func (d *runtimeDependencies) initSessions(ctx context.Context, cfg Config, logger *log.Entry) error {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		d.sessions = memory.NewSessionStore()
		return nil
	}

	store, err := redisstore.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("open redis session store: %w", err)
	}
	d.redisStore = store
	d.sessions = store
	d.health.RegisterChecker("redis", healthcheck.NewSimpleChecker("redis", store.Ping))
	logger.WithField("redis_addr", cfg.RedisAddr).Info("redis session store initialized")
	return nil
}

// services собирает зависимости веб-слоя.
func (d *runtimeDependencies) services(logger *log.Entry) web.Services {
	return web.Services{
		Editor: editor.Deps{
			Suppliers: d.suppliers,
			Catalog:   d.products,
			Orders:    d.orders,
			Events:    d.events,
			Timeline:  d.timeline,
			Metrics:   d.metrics,
			Logger:    logger.WithField("component", "editor"),
		},
		SupplierAdmin: d.suppliers,
		ProductAdmin:  d.products,
		Logger:        logger.WithField("component", "boards"),
	}
}

// close освобождает внешние подключения. Безопасен для частично собранных зависимостей.
func (d *runtimeDependencies) close(logger *log.Entry) {
	closeKafka(d.producer, logger)
	if d.redisStore != nil {
		if err := d.redisStore.Close(); err != nil {
			logger.WithError(err).Warn("failed to close redis session store")
		}
	}
	if d.pgStore != nil {
		if err := d.pgStore.Close(); err != nil {
			logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}

func bootstrapUser(cfg Config) domain.User {
	return domain.User{
		Username: cfg.BootstrapUser,
		FullName: "Administrator",
		Role:     domain.RoleAdmin,
		Active:   true,
	}
}

// memoryUsers готовит учётные записи для in-memory режима.
func memoryUsers(cfg Config, logger *log.Entry) ([]domain.User, error) {
	username, password := cfg.BootstrapUser, cfg.BootstrapPassword
	if username == "" {
		if !cfg.DemoData {
			logger.Warn("no bootstrap user configured, nobody can sign in")
			return nil, nil
		}
		username, password = demoUsername, demoPassword
		logger.WithField("username", username).Warn("using demo credentials")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash bootstrap password: %w", err)
	}
	user := bootstrapUser(cfg)
	user.Username = username
	user.PasswordHash = string(hash)
	return []domain.User{user}, nil
}
