package backend

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultBreakerFailures = 5
	defaultBreakerReset    = 30 * time.Second
)

// ErrCircuitOpen бэкенд недавно был недоступен, запрос не отправлялся.
var ErrCircuitOpen = errors.New("backend circuit breaker is open")

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case circuitOpen:
		return "open"
	case circuitHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// circuitBreaker размыкается после maxFailures подряд сбоев транспорта или 5xx
// и пропускает один пробный запрос по истечении resetTimeout.
type circuitBreaker struct {
	mu           sync.Mutex
	maxFailures  int
	resetTimeout time.Duration
	failures     int
	lastFailure  time.Time
	state        circuitState
	probing      bool
	now          func() time.Time
	logger       *log.Entry
}

func newCircuitBreaker(maxFailures int, resetTimeout time.Duration, logger *log.Entry) *circuitBreaker {
	if maxFailures <= 0 {
		maxFailures = defaultBreakerFailures
	}
	if resetTimeout <= 0 {
		resetTimeout = defaultBreakerReset
	}
	return &circuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		now:          time.Now,
		logger:       logger,
	}
}

// allow решает, можно ли отправить запрос.
func (cb *circuitBreaker) allow(op string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitOpen:
		if cb.now().Sub(cb.lastFailure) < cb.resetTimeout {
			return ErrCircuitOpen
		}
		cb.state = circuitHalfOpen
		cb.probing = true
		cb.logger.WithField("op", op).Info("circuit breaker half-open")
		return nil
	case circuitHalfOpen:
		if cb.probing {
			return ErrCircuitOpen
		}
		cb.probing = true
	}
	return nil
}

// record учитывает результат запроса. Ошибки уровня бизнес-логики (4xx, success=false) цепь не размыкают.
func (cb *circuitBreaker) record(op string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false
	if !isOutage(err) {
		if cb.state != circuitClosed {
			cb.logger.WithField("op", op).Info("circuit breaker closed")
		}
		cb.state = circuitClosed
		cb.failures = 0
		return
	}

	cb.failures++
	cb.lastFailure = cb.now()
	if cb.state == circuitHalfOpen || cb.failures >= cb.maxFailures {
		cb.state = circuitOpen
		cb.logger.WithFields(log.Fields{
			"op":       op,
			"failures": cb.failures,
		}).Warn("circuit breaker opened")
	}
}

func (cb *circuitBreaker) currentState() circuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// isOutage отделяет недоступность бэкенда от отказов по существу запроса.
func isOutage(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}
	var decodeErr *decodeError
	return !errors.As(err, &decodeErr)
}
