package queries

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// ListOrdersQueryHandler translates filter tabs into an OrderFilter.
type ListOrdersQueryHandler struct {
	repo  ports.OrderRepository
	clock Clock
}

func NewListOrdersQueryHandler(repo ports.OrderRepository, clock Clock) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{repo: repo, clock: orDefaultClock(clock)}
}

// Handle returns matching orders, newest first.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]*order.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	filter := ports.OrderFilter{Search: query.Search()}
	now := h.clock()

	switch query.Filter() {
	case FilterDay:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		filter.CreatedFrom, filter.CreatedTo = start, start.AddDate(0, 0, 1)
	case FilterMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		filter.CreatedFrom, filter.CreatedTo = start, start.AddDate(0, 1, 0)
	case FilterPending:
		filter.Statuses = []order.Status{order.Pending, order.Processing}
	case FilterInSeparation:
		filter.Statuses = []order.Status{order.InSeparation}
	case FilterShipped:
		filter.Statuses = []order.Status{order.Shipped}
	case FilterDelivered:
		filter.Statuses = []order.Status{order.Delivered}
	case FilterCancelled:
		filter.Statuses = []order.Status{order.Cancelled}
	case FilterAll:
	}

	return h.repo.List(ctx, filter)
}
