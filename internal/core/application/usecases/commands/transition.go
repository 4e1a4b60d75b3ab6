package commands

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

func orDefaultClock(c Clock) Clock {
	if c == nil {
		return func() time.Time { return time.Now().UTC() }
	}
	return c
}

func orDefaultLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// mutation inspects a fresh copy and changes it in place. It reports false
// when the intent is already satisfied and nothing needs to be written.
type mutation func(o *order.Order) (changed bool, err error)

// transitioner runs one guard-and-mutate section for an order.
type transitioner struct {
	repo   ports.OrderRepository
	locker ports.OrderLocker
}

// apply locks the order, reads it, runs mutate and commits the result with a
// conditional update against the version that was read.
func (t transitioner) apply(ctx context.Context, orderID string, mutate mutation) (*order.Order, bool, error) {
	unlock, err := t.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	o, err := t.repo.Get(ctx, orderID)
	if err != nil {
		return nil, false, err
	}

	changed, err := mutate(o)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return o, false, nil
	}

	updated, err := t.repo.UpdateIf(ctx, o, o.Version())
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

func newEvent(eventType string, o *order.Order, operator string, at time.Time) ports.FulfillmentEvent {
	return ports.FulfillmentEvent{
		Type:       eventType,
		OrderID:    o.ID(),
		Status:     o.Status().String(),
		Operator:   operator,
		OccurredAt: at,
	}
}

// publish never fails the command: the transition is already committed.
func publish(ctx context.Context, publisher ports.EventPublisher, logger *slog.Logger, event ports.FulfillmentEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish fulfillment event",
			"order_id", event.OrderID, "event_type", event.Type, "error", err)
	}
}
