package kafka

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

// TopicOrderEvents топик по умолчанию для событий заказов.
const TopicOrderEvents = "procurement.order.events"

// Заголовки сообщения.
const (
	HeaderEventID   = "x-event-id"
	HeaderEventType = "x-event-type"
	HeaderActor     = "x-actor"
)

// OrderEventMessage — JSON-представление события заказа в топике.
type OrderEventMessage struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number,omitempty"`
	SupplierID  int64     `json:"supplier_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	Total       string    `json:"total"`
	Actor       string    `json:"actor,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewOrderEventMessage строит сообщение и присваивает ему уникальный идентификатор.
func NewOrderEventMessage(event domain.OrderEvent) OrderEventMessage {
	occurred := event.Occurred
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return OrderEventMessage{
		EventID:     uuid.NewString(),
		EventType:   string(event.Type),
		OrderID:     event.OrderID,
		OrderNumber: event.OrderNumber,
		SupplierID:  event.SupplierID,
		Status:      string(event.Status),
		Total:       event.Total.StringFixed(2),
		Actor:       event.Actor,
		Timestamp:   occurred.UTC(),
	}
}

// Key возвращает ключ партиционирования: все события одного заказа попадают в одну партицию.
func (m OrderEventMessage) Key() string {
	if m.OrderNumber != "" {
		return m.OrderNumber
	}
	return strconv.FormatInt(m.OrderID, 10)
}
