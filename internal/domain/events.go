package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderEventType тип события об изменении заказа.
type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "order.created"
	OrderEventUpdated       OrderEventType = "order.updated"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
	OrderEventDeleted       OrderEventType = "order.deleted"
)

// OrderEvent публикуется после успешной операции над заказом на бэкенде.
type OrderEvent struct {
	Type        OrderEventType
	OrderID     int64
	OrderNumber string
	SupplierID  int64
	Status      OrderStatus
	Total       decimal.Decimal
	Actor       string
	Occurred    time.Time
}

// NewOrderEvent строит событие по текущему состоянию агрегата.
func NewOrderEvent(eventType OrderEventType, order *Order, actor string, now time.Time) OrderEvent {
	event := OrderEvent{
		Type:     eventType,
		Actor:    actor,
		Occurred: now,
	}
	if order != nil {
		event.OrderID = order.ID
		event.OrderNumber = order.OrderNumber
		event.SupplierID = order.SupplierID
		event.Status = order.Status
		event.Total = order.Total()
	}
	return event
}
