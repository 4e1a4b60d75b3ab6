package ports

import (
	"context"
	"time"
)

// FulfillmentEvent is emitted after an order transition has been committed.
type FulfillmentEvent struct {
	Type       string
	OrderID    string
	Status     string
	Operator   string
	OccurredAt time.Time

	// Attributes holds event-specific data such as the tracking code.
	Attributes map[string]string
}

const (
	EventOrderPlaced    = "order.placed"
	EventOrderClaimed   = "order.claimed"
	EventOrderShipped   = "order.shipped"
	EventOrderCancelled = "order.cancelled"
	EventOrderDelivered = "order.delivered"
)

// EventPublisher delivers fulfillment events to downstream consumers.
// Publishing is best effort: a failure never rolls back a committed transition.
type EventPublisher interface {
	Publish(ctx context.Context, event FulfillmentEvent) error
}
