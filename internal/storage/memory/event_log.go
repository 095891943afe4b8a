package memory

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

// EventLog публикует события без брокера, записывая их в лог и в память.
// Используется, когда Kafka не настроена.
type EventLog struct {
	mu     sync.RWMutex
	events []domain.OrderEvent
	logger *log.Entry
}

// NewEventLog создаёт публикатор. При nil-логгере используется стандартный.
func NewEventLog(logger *log.Entry) *EventLog {
	if logger == nil {
		logger = log.WithField("component", "event-log")
	}
	return &EventLog{logger: logger}
}

func (l *EventLog) Publish(ctx context.Context, event domain.OrderEvent) error {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	l.logger.WithFields(log.Fields{
		"event_type":   event.Type,
		"order_id":     event.OrderID,
		"order_number": event.OrderNumber,
		"status":       event.Status,
	}).Debug("order event recorded")
	return nil
}

// Events возвращает копию опубликованных событий.
func (l *EventLog) Events() []domain.OrderEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]domain.OrderEvent, len(l.events))
	copy(result, l.events)
	return result
}

var _ domain.EventPublisher = (*EventLog)(nil)
