// Package backend реализует REST-клиент бэкенда закупок: справочники, каталог и заказы.
// Ответы бэкенда приходят в конверте {success, message, data, error}.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
	"github.com/vladislavdragonenkov/procurement-admin/internal/metrics"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxIdleConns = 20
	maxErrorBodyBytes   = 4 << 10
)

// Config параметры подключения к бэкенду.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxIdleConns    int
	// BreakerFailures подряд идущих сбоев размыкают цепь на BreakerReset.
	BreakerFailures int
	BreakerReset    time.Duration
}

// StatusError — ответ бэкенда с кодом не из 2xx или с success=false.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend responded with status %d: %s", e.StatusCode, e.Message)
}

// Client общий HTTP-клиент; доступ к ресурсам через Suppliers, Products и Orders.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Entry
	metrics *metrics.ProcurementMetrics
	breaker *circuitBreaker
}

// New создаёт клиента. Транспорт обёрнут otelhttp: каждый вызов попадает в трассировку.
func New(cfg Config, logger *log.Entry, m *metrics.ProcurementMetrics) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = defaultMaxIdleConns
	}
	if logger == nil {
		logger = log.WithField("component", "backend-client")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = cfg.MaxIdleConns
	transport.MaxIdleConnsPerHost = cfg.MaxIdleConns

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		logger:  logger,
		metrics: m,
		breaker: newCircuitBreaker(cfg.BreakerFailures, cfg.BreakerReset, logger),
	}, nil
}

// Suppliers возвращает клиента справочника поставщиков.
func (c *Client) Suppliers() *SupplierClient { return &SupplierClient{c: c} }

// Products возвращает клиента каталога товаров.
func (c *Client) Products() *ProductClient { return &ProductClient{c: c} }

// Orders возвращает клиента заказов.
func (c *Client) Orders() *OrderClient { return &OrderClient{c: c} }

// Ping проверяет доступность бэкенда лёгким запросом справочника.
func (c *Client) Ping(ctx context.Context) error {
	_, err := call[json.RawMessage](ctx, c, "ping", http.MethodGet, "/proveedores/activos", nil, nil)
	return err
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// call выполняет запрос и разворачивает конверт ответа.
// Любая ошибка возвращается как *domain.BackendError.
func call[T any](ctx context.Context, c *Client, op, method, path string, query url.Values, body any) (T, error) {
	start := time.Now()
	logger := c.logger.WithFields(log.Fields{"op": op, "method": method, "path": path})

	if err := c.breaker.allow(op); err != nil {
		c.metrics.ObserveBackendCall(op, time.Since(start), err)
		logger.Warn("backend call skipped, circuit breaker is open")
		var zero T
		return zero, domain.NewBackendError(op, err)
	}

	data, err := roundTrip[T](ctx, c, method, path, query, body)
	c.breaker.record(op, err)
	c.metrics.ObserveBackendCall(op, time.Since(start), err)
	if err != nil {
		logger.WithError(err).Error("backend call failed")
		var zero T
		return zero, domain.NewBackendError(op, err)
	}
	logger.WithField("duration", time.Since(start)).Debug("backend call completed")
	return data, nil
}

func roundTrip[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var zero T

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return zero, &decodeError{op: "encode request", err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return zero, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zero, statusError(resp)
	}
	if resp.StatusCode == http.StatusNoContent {
		return zero, nil
	}

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if errors.Is(err, io.EOF) {
			return zero, nil
		}
		return zero, &decodeError{op: "decode response", err: err}
	}
	if !env.Success {
		return zero, &StatusError{StatusCode: resp.StatusCode, Message: firstNonEmpty(env.Error, env.Message)}
	}
	return env.Data, nil
}

// decodeError — тело запроса или ответа не совпало с форматом обмена.
type decodeError struct {
	op  string
	err error
}

func (e *decodeError) Error() string { return e.op + ": " + e.err.Error() }

func (e *decodeError) Unwrap() error { return e.err }

// statusError достаёт сообщение из конверта ошибки, если он есть.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	var env envelope[json.RawMessage]
	message := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &env); err == nil {
		if m := firstNonEmpty(env.Error, env.Message); m != "" {
			message = m
		}
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: message}
}

// isNotFound сообщает, что бэкенд ответил 404.
func isNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
