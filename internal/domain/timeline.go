package domain

import "time"

// Типы событий журнала заказа.
const (
	TimelineOrderCreated       = "OrderCreated"
	TimelineOrderUpdated       = "OrderUpdated"
	TimelineOrderStatusChanged = "OrderStatusChanged"
	TimelineOrderDeleted       = "OrderDeleted"
)

// TimelineEvent описывает действие пользователя над заказом.
type TimelineEvent struct {
	OrderID     int64
	OrderNumber string
	Type        string
	Actor       string
	Reason      string
	Occurred    time.Time
}
