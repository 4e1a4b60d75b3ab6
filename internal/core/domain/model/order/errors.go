package order

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
)

var (
	// ErrInvalidState is returned when the intent is not legal from the current status.
	ErrInvalidState = errors.New("intent is not allowed in the current status")

	// ErrAlreadyClaimed is returned when another operator already holds the separation claim.
	ErrAlreadyClaimed = errors.New("order is already claimed by another operator")

	// ErrLocked is returned when an operator acts on an order separated by someone else.
	ErrLocked = errors.New("order is locked by another operator")

	// ErrTerminalState is returned for any intent on a cancelled order.
	ErrTerminalState = errors.New("order is in a terminal state")
)

// TransitionError carries the context of a rejected intent. It unwraps to one
// of the sentinels above.
type TransitionError struct {
	OrderID string
	Intent  Intent
	From    Status
	Holder  kernel.OperatorID
	Err     error
}

func newTransitionError(o *Order, intent Intent, err error) *TransitionError {
	return &TransitionError{
		OrderID: o.id,
		Intent:  intent,
		From:    o.status,
		Holder:  o.claimedBy,
		Err:     err,
	}
}

func (e *TransitionError) Error() string {
	if !e.Holder.IsZero() && (errors.Is(e.Err, ErrLocked) || errors.Is(e.Err, ErrAlreadyClaimed)) {
		return fmt.Sprintf("%s order %s (%s, held by %s): %v", e.Intent, e.OrderID, e.From, e.Holder, e.Err)
	}
	return fmt.Sprintf("%s order %s (%s): %v", e.Intent, e.OrderID, e.From, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}
