package models

import "time"

// Event types
const (
	EventTypeOrderPlaced        = "ORDER_PLACED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when an order is committed
type OrderPlacedEvent struct {
	BaseEvent
	Order Order `json:"order"`
}

// OrderStatusChangedEvent published when an admin advances an order
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID string      `json:"order_id"`
	UserID  string      `json:"user_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
}
