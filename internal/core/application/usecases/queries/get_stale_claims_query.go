package queries

import (
	"context"
	"errors"
	"slices"
	"time"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrGetStaleClaimsQueryIsNotConstructed = errors.New(
	"GetStaleClaimsQuery must be created via NewGetStaleClaimsQuery constructor",
)

// GetStaleClaimsQuery finds in_separation orders whose claim is older than a
// threshold, i.e. separations that were probably abandoned.
type GetStaleClaimsQuery struct {
	olderThan time.Duration

	guard guard.ConstructorGuard
}

func NewGetStaleClaimsQuery(olderThan time.Duration) (GetStaleClaimsQuery, error) {
	if olderThan <= 0 {
		return GetStaleClaimsQuery{}, errs.NewValueIsInvalidError("stale claim threshold")
	}
	return GetStaleClaimsQuery{olderThan: olderThan, guard: guard.NewConstructorGuard()}, nil
}

func (q GetStaleClaimsQuery) Validate() error {
	return q.guard.Validate(ErrGetStaleClaimsQueryIsNotConstructed)
}

func (q GetStaleClaimsQuery) OlderThan() time.Duration {
	return q.olderThan
}

type GetStaleClaimsQueryHandler struct {
	repo  ports.OrderRepository
	clock Clock
}

func NewGetStaleClaimsQueryHandler(repo ports.OrderRepository, clock Clock) GetStaleClaimsQueryHandler {
	return GetStaleClaimsQueryHandler{repo: repo, clock: orDefaultClock(clock)}
}

// Handle returns the stale orders, oldest claim first.
func (h GetStaleClaimsQueryHandler) Handle(ctx context.Context, query GetStaleClaimsQuery) ([]*order.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders, err := h.repo.List(ctx, ports.OrderFilter{Statuses: []order.Status{order.InSeparation}})
	if err != nil {
		return nil, err
	}

	cutoff := h.clock().Add(-query.OlderThan())
	stale := make([]*order.Order, 0, len(orders))
	for _, o := range orders {
		if o.ClaimedAt().Before(cutoff) {
			stale = append(stale, o)
		}
	}
	slices.SortStableFunc(stale, func(a, b *order.Order) int {
		return a.ClaimedAt().Compare(b.ClaimedAt())
	})
	return stale, nil
}
