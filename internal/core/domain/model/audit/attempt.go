// Package audit defines the fulfillment audit trail.
//
// Every side-effect attempt made while preparing an order for shipment is
// appended as an Attempt: invoice issuance, label generation and the final
// commit of the pipeline result. Entries are never updated. The trail lets
// staff see why a ReadyToShip failed, and lets the pipeline reuse an invoice
// that was already issued for an order instead of requesting a second one.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Stage names the step of the fulfillment pipeline an attempt belongs to.
type Stage string

const (
	StageInvoice Stage = "invoice"
	StageLabel   Stage = "label"
	StageCommit  Stage = "commit"
)

// Outcome is the result of a single attempt.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"

	// OutcomeDiscarded marks a pipeline result that could not be committed
	// because the order changed while the side effects were running.
	OutcomeDiscarded Outcome = "discarded"
)

// Attempt is one row of the audit trail.
type Attempt struct {
	ID       uuid.UUID
	OrderID  string
	Operator string
	Stage    Stage
	Outcome  Outcome

	// Reference is the invoice key for the invoice stage and the label
	// reference for the label stage.
	Reference    string
	TrackingCode string

	// Reason is the collaborator's failure message, verbatim.
	Reason string

	TraceID string
	SpanID  string
	At      time.Time
}

// NewAttempt builds an Attempt stamped with a fresh id, the current time and
// the trace of the span active in ctx (if any).
func NewAttempt(ctx context.Context, orderID, operator string, stage Stage, outcome Outcome) Attempt {
	a := Attempt{
		ID:       uuid.New(),
		OrderID:  orderID,
		Operator: operator,
		Stage:    stage,
		Outcome:  outcome,
		At:       time.Now().UTC(),
	}

	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		a.TraceID = sc.TraceID().String()
		a.SpanID = sc.SpanID().String()
	}
	return a
}

// Succeeded reports whether the attempt produced its side effect.
func (a Attempt) Succeeded() bool {
	return a.Outcome == OutcomeSucceeded
}
