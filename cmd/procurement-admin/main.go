package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/procurement-admin/internal/app"
)

const envConfigFile = "PROCUREMENT_CONFIG"

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// readConfig собирает конфигурацию: значения по умолчанию, затем YAML-файл, затем переменные окружения.
func readConfig(lookup func(string) (string, bool)) (app.Config, error) {
	cfg := app.DefaultConfig()
	if path, ok := lookup(envConfigFile); ok && strings.TrimSpace(path) != "" {
		var err error
		if cfg, err = app.LoadConfigFile(cfg, strings.TrimSpace(path)); err != nil {
			return cfg, err
		}
	}
	return app.ApplyEnv(cfg, lookup)
}

func main() {
	cfg, err := readConfig(os.LookupEnv)
	setupLogger(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("некорректная конфигурация")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":      cfg.HTTPAddr,
		"metrics_addr":   cfg.MetricsAddr,
		"storage_driver": cfg.StorageDriver,
		"backend_url":    cfg.BackendURL,
	}).Info("запускаем procurement-admin")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("procurement-admin остановлен")
}
