// Package memory holds in-process implementations of the storage and locking
// ports. They are the default backends when no database or Redis is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

var _ ports.OrderRepository = &OrderRepository{}

// OrderRepository keeps orders in a map. Stored values are private copies.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*order.Order)}
}

func (r *OrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[aggregate.ID()]; ok {
		return errs.NewObjectExistsError("order", aggregate.ID())
	}
	r.orders[aggregate.ID()] = aggregate.Clone()
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id)
	}
	return stored.Clone(), nil
}

func (r *OrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	result := make([]*order.Order, 0, len(r.orders))
	for _, stored := range r.orders {
		if matches(stored, filter) {
			result = append(result, stored.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt().Equal(result[j].CreatedAt()) {
			return result[i].CreatedAt().After(result[j].CreatedAt())
		}
		return result[i].ID() < result[j].ID()
	})
	return result, nil
}

func (r *OrderRepository) UpdateIf(ctx context.Context, aggregate *order.Order, expectedVersion int64) (*order.Order, error) {
	if err := aggregate.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[aggregate.ID()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", aggregate.ID())
	}
	if stored.Version() != expectedVersion {
		return nil, errs.NewVersionIsInvalidError("order "+aggregate.ID(), expectedVersion, stored.Version())
	}

	state := aggregate.State()
	state.Version = expectedVersion + 1
	next, err := order.RestoreOrder(state)
	if err != nil {
		return nil, err
	}
	r.orders[next.ID()] = next
	return next.Clone(), nil
}

func matches(o *order.Order, filter ports.OrderFilter) bool {
	if len(filter.Statuses) > 0 {
		found := false
		for _, s := range filter.Statuses {
			if o.Status() == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !filter.CreatedFrom.IsZero() && o.CreatedAt().Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && !o.CreatedAt().Before(filter.CreatedTo) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Search)); q != "" {
		if !strings.Contains(strings.ToLower(o.ID()), q) &&
			!strings.Contains(strings.ToLower(o.Customer().Name()), q) {
			return false
		}
	}
	return true
}
