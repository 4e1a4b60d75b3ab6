package order

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the state of a freshly placed order awaiting separation.
	Pending

	// Processing is equivalent to Pending for fulfillment purposes.
	Processing

	// InSeparation means an operator holds the separation claim.
	InSeparation

	// Shipped means invoice and shipping label were both issued.
	Shipped

	// Delivered is set by the external delivery confirmation.
	Delivered

	// Cancelled is terminal.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:      "unknown",
		Pending:      "pending",
		Processing:   "processing",
		InSeparation: "in_separation",
		Shipped:      "shipped",
		Delivered:    "delivered",
		Cancelled:    "cancelled",
	}
}

// AllStatuses lists every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{Pending, Processing, InSeparation, Shipped, Delivered, Cancelled}
}

// ParseStatus converts the persisted/wire name back into a Status.
func ParseStatus(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if status != Unknown && name == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

// Validate checks if the Status value is one of the defined states.
func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the snake_case name used on the wire and in storage.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsAwaitingSeparation reports whether the order can be claimed.
// Pending and Processing are interchangeable here.
func (s Status) IsAwaitingSeparation() bool {
	return s == Pending || s == Processing
}

// IsTerminal reports whether no transition may leave this status.
func (s Status) IsTerminal() bool {
	return s == Cancelled
}

// ValidateCanHaveClaim enforces that only in_separation orders carry a claim
// and that every in_separation order does.
func (s Status) ValidateCanHaveClaim(claimed bool) error {
	if claimed && s != InSeparation {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%s is not a valid status to have a claim", s.String()),
		)
	}
	if !claimed && s == InSeparation {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%s is not a valid status to have no claim", s.String()),
		)
	}
	return nil
}

// Claim transitions pending/processing to in_separation.
func (s Status) Claim() (Status, error) {
	switch {
	case s.IsTerminal():
		return Unknown, ErrTerminalState
	case s.IsAwaitingSeparation():
		return InSeparation, nil
	default:
		return Unknown, ErrInvalidState
	}
}

// Ship transitions in_separation to shipped.
func (s Status) Ship() (Status, error) {
	switch {
	case s.IsTerminal():
		return Unknown, ErrTerminalState
	case s == InSeparation:
		return Shipped, nil
	default:
		return Unknown, ErrInvalidState
	}
}

// Cancel transitions any non-terminal status to cancelled, subject to policy
// for orders that already left the building.
func (s Status) Cancel(policy CancelPolicy) (Status, error) {
	switch {
	case s.IsTerminal():
		return Unknown, ErrTerminalState
	case s == Shipped && !policy.AllowAfterShipped,
		s == Delivered && !policy.AllowAfterDelivered:
		return Unknown, ErrInvalidState
	case s.Validate() != nil:
		return Unknown, ErrInvalidState
	default:
		return Cancelled, nil
	}
}

// Deliver transitions shipped to delivered.
func (s Status) Deliver() (Status, error) {
	switch {
	case s.IsTerminal():
		return Unknown, ErrTerminalState
	case s == Shipped:
		return Delivered, nil
	default:
		return Unknown, ErrInvalidState
	}
}
