package models

// OrderStatus is the fulfilment stage of an order
type OrderStatus string

// Order statuses, in fulfilment order
const (
	OrderStatusPlaced    OrderStatus = "PLACED"
	OrderStatusPacked    OrderStatus = "PACKED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
)

var nextStatus = map[OrderStatus]OrderStatus{
	OrderStatusPlaced:  OrderStatusPacked,
	OrderStatusPacked:  OrderStatusShipped,
	OrderStatusShipped: OrderStatusDelivered,
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusPacked, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// Next returns the only status reachable from s. Delivered is terminal.
func (s OrderStatus) Next() (OrderStatus, bool) {
	next, ok := nextStatus[s]
	return next, ok
}

// CanTransitionTo reports whether moving from s to target is a single forward step
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	next, ok := s.Next()
	return ok && next == target
}
