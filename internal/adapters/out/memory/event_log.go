package memory

import (
	"context"
	"log/slog"
	"sync"

	"fulfillment/internal/core/ports"
)

var _ ports.EventPublisher = &EventLog{}

// EventLog is the publisher used when no broker is configured. It logs every
// event and keeps the most recent ones for inspection.
type EventLog struct {
	mu     sync.Mutex
	events []ports.FulfillmentEvent
	limit  int
	logger *slog.Logger
}

// NewEventLog keeps at most limit events; limit <= 0 keeps everything.
func NewEventLog(limit int, logger *slog.Logger) *EventLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventLog{limit: limit, logger: logger.With("component", "event_log")}
}

func (l *EventLog) Publish(ctx context.Context, event ports.FulfillmentEvent) error {
	l.mu.Lock()
	l.events = append(l.events, event)
	if l.limit > 0 && len(l.events) > l.limit {
		l.events = l.events[len(l.events)-l.limit:]
	}
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "Fulfillment event",
		"event_type", event.Type, "order_id", event.OrderID, "status", event.Status, "operator", event.Operator)
	return nil
}

// Events returns a copy of the retained events, oldest first.
func (l *EventLog) Events() []ports.FulfillmentEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]ports.FulfillmentEvent, len(l.events))
	copy(out, l.events)
	return out
}
