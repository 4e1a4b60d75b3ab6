package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/audit"
)

// AttemptLog is the append-only fulfillment audit trail.
type AttemptLog interface {
	// Append records an attempt. Entries are never modified afterwards.
	Append(ctx context.Context, attempt audit.Attempt) error

	// List returns all attempts for an order, oldest first.
	List(ctx context.Context, orderID string) ([]audit.Attempt, error)

	// LastSucceeded returns the most recent succeeded attempt for the given
	// order and stage, and false if there is none.
	LastSucceeded(ctx context.Context, orderID string, stage audit.Stage) (audit.Attempt, bool, error)
}
