// Package ports defines the contracts between the fulfillment core and its
// infrastructure: storage, locking, external collaborators and event sinks.
package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/order"
)

// OrderFilter narrows List results. Zero values mean "no restriction".
type OrderFilter struct {
	// Statuses keeps orders whose status is in the set.
	Statuses []order.Status

	// CreatedFrom is inclusive, CreatedTo is exclusive.
	CreatedFrom time.Time
	CreatedTo   time.Time

	// Search matches case-insensitively against the order id and customer name.
	Search string
}

// OrderRepository is the Order Store.
//
// Every read returns an independent copy; callers never share state with the
// store. Writes go through UpdateIf, which only succeeds if nobody committed
// in between.
type OrderRepository interface {
	// Add persists a newly placed order. The id must not exist yet.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by id. Unknown ids yield errs.ObjectNotFoundError.
	Get(ctx context.Context, id string) (*order.Order, error)

	// List returns orders matching filter, newest first (ties broken by id).
	List(ctx context.Context, filter OrderFilter) ([]*order.Order, error)

	// UpdateIf stores aggregate if the stored version equals expectedVersion and
	// returns the stored copy with the incremented version.
	//
	// Returns:
	//   - errs.ObjectNotFoundError if the order does not exist
	//   - errs.VersionIsInvalidError if another write won the race
	UpdateIf(ctx context.Context, aggregate *order.Order, expectedVersion int64) (*order.Order, error)
}
