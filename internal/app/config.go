package app

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/procurement-admin/internal/messaging/kafka"
)

const (
	// StorageDriverMemory хранит аудит и учётные записи в памяти процесса.
	StorageDriverMemory = "memory"
	// StorageDriverPostgres хранит аудит и учётные записи в PostgreSQL.
	StorageDriverPostgres = "postgres"

	envPrefix = "PROCUREMENT_"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`

	// Без BackendURL справочники и заказы живут в памяти с демонстрационными данными.
	BackendURL     string        `yaml:"backend_url"`
	BackendTimeout time.Duration `yaml:"backend_timeout"`
	MaxIdleConns   int           `yaml:"max_idle_conns"`

	StorageDriver       string `yaml:"storage_driver"`
	PostgresDSN         string `yaml:"postgres_dsn"`
	PostgresAutoMigrate bool   `yaml:"postgres_auto_migrate"`
	PostgresMaxConns    int    `yaml:"postgres_max_conns"`

	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SecureCookies bool          `yaml:"secure_cookies"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`

	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Учётная запись, которую приложение создаёт при старте, если она задана.
	BootstrapUser     string `yaml:"bootstrap_user"`
	BootstrapPassword string `yaml:"bootstrap_password"`

	// DemoData заполняет in-memory справочники при пустом BackendURL.
	DemoData bool `yaml:"demo_data"`
}

// DefaultConfig возвращает настройки для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:       ":8080",
		MetricsAddr:    ":9090",
		LogLevel:       "info",
		BackendTimeout: 10 * time.Second,
		MaxIdleConns:   20,
		StorageDriver:  StorageDriverMemory,
		SessionTTL:     8 * time.Hour,
		KafkaTopic:     kafka.TopicOrderEvents,
		DemoData:       true,
	}
}

// LoadConfigFile накладывает YAML-файл на переданную конфигурацию.
func LoadConfigFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv накладывает переменные окружения PROCUREMENT_* поверх конфигурации.
// lookup обычно os.LookupEnv.
func ApplyEnv(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(envPrefix + key); ok {
			parsed, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = parsed
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(envPrefix + key); ok {
			parsed, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = parsed
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + key); ok {
			parsed, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = parsed
		}
	}

	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("METRICS_ADDR", &cfg.MetricsAddr)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("BACKEND_URL", &cfg.BackendURL)
	duration("BACKEND_TIMEOUT", &cfg.BackendTimeout)
	integer("MAX_IDLE_CONNS", &cfg.MaxIdleConns)
	str("STORAGE_DRIVER", &cfg.StorageDriver)
	str("POSTGRES_DSN", &cfg.PostgresDSN)
	boolean("POSTGRES_AUTO_MIGRATE", &cfg.PostgresAutoMigrate)
	integer("POSTGRES_MAX_CONNS", &cfg.PostgresMaxConns)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("REDIS_PASSWORD", &cfg.RedisPassword)
	integer("REDIS_DB", &cfg.RedisDB)
	duration("SESSION_TTL", &cfg.SessionTTL)
	boolean("SECURE_COOKIES", &cfg.SecureCookies)
	if v, ok := lookup(envPrefix + "KAFKA_BROKERS"); ok {
		cfg.KafkaBrokers = splitList(v)
	}
	str("KAFKA_TOPIC", &cfg.KafkaTopic)
	str("OTLP_ENDPOINT", &cfg.OTLPEndpoint)
	str("BOOTSTRAP_USER", &cfg.BootstrapUser)
	str("BOOTSTRAP_PASSWORD", &cfg.BootstrapPassword)
	boolean("DEMO_DATA", &cfg.DemoData)

	return cfg, errors.Join(errs...)
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error

	if err := validateAddr("http_addr", c.HTTPAddr); err != nil {
		errs = append(errs, err)
	}
	if err := validateAddr("metrics_addr", c.MetricsAddr); err != nil {
		errs = append(errs, err)
	}
	if c.HTTPAddr == c.MetricsAddr && !strings.HasSuffix(c.HTTPAddr, ":0") {
		errs = append(errs, errors.New("http_addr and metrics_addr must differ"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.BackendTimeout <= 0 {
		errs = append(errs, errors.New("backend_timeout must be positive"))
	}
	if c.MaxIdleConns < 0 {
		errs = append(errs, errors.New("max_idle_conns must not be negative"))
	}
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("postgres_dsn is required for the postgres storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage_driver: unsupported value %q (use memory|postgres)", c.StorageDriver))
	}
	if c.PostgresMaxConns < 0 {
		errs = append(errs, errors.New("postgres_max_conns must not be negative"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session_ttl must be positive"))
	}
	if c.RedisDB < 0 {
		errs = append(errs, errors.New("redis_db must not be negative"))
	}
	if len(c.KafkaBrokers) > 0 && strings.TrimSpace(c.KafkaTopic) == "" {
		errs = append(errs, errors.New("kafka_topic is required when kafka_brokers are set"))
	}
	if (c.BootstrapUser == "") != (c.BootstrapPassword == "") {
		errs = append(errs, errors.New("bootstrap_user and bootstrap_password must be set together"))
	}

	return errors.Join(errs...)
}

func validateAddr(field, addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
