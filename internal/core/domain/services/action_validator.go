package services

import (
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
)

// ActionValidator is the Fulfillment Action Validator. It never mutates the
// order it inspects, so it can be run against a stale read for display and
// again against a fresh read right before commit.
//
// Decision table (first matching row wins):
//
//	intent          status                     result
//	any             cancelled                  ErrTerminalState
//	claim           pending | processing       ok
//	claim           in_separation, same op     ok (no-op)
//	claim           in_separation, other op    ErrAlreadyClaimed
//	ready_to_ship   in_separation, same op     ok
//	ready_to_ship   in_separation, other op    ErrLocked
//	cancel          in_separation, other op    ErrLocked
//	cancel          shipped | delivered        ok if allowed by CancelPolicy
//	cancel          pending | processing       ok
//	otherwise                                  ErrInvalidState
type ActionValidator struct {
	policy order.CancelPolicy
}

// NewActionValidator creates a validator using policy for late cancellations.
func NewActionValidator(policy order.CancelPolicy) ActionValidator {
	return ActionValidator{policy: policy}
}

// Policy returns the cancel policy in force.
func (v ActionValidator) Policy() order.CancelPolicy {
	return v.policy
}

func (v ActionValidator) ValidateClaim(o *order.Order, op kernel.OperatorID) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return o.ValidateClaim(op)
}

func (v ActionValidator) ValidateReadyToShip(o *order.Order, op kernel.OperatorID) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return o.ValidateReadyToShip(op)
}

func (v ActionValidator) ValidateCancel(o *order.Order, op kernel.OperatorID) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return o.ValidateCancel(op, v.policy)
}

func (v ActionValidator) ValidateConfirmDelivery(o *order.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return o.ValidateDeliver()
}

// Validate dispatches on intent.
func (v ActionValidator) Validate(o *order.Order, op kernel.OperatorID, intent order.Intent) error {
	switch intent {
	case order.IntentClaim:
		return v.ValidateClaim(o, op)
	case order.IntentReadyToShip:
		return v.ValidateReadyToShip(o, op)
	case order.IntentCancel:
		return v.ValidateCancel(o, op)
	case order.IntentConfirmDelivery:
		return v.ValidateConfirmDelivery(o)
	default:
		return errs.NewValueIsInvalidErrorWithCause("intent", fmt.Errorf("%q is not a known intent", intent))
	}
}

// AllowedIntents lists the operator intents that would currently pass
// validation. A claim the operator already holds is not listed, since
// repeating it changes nothing.
func (v ActionValidator) AllowedIntents(o *order.Order, op kernel.OperatorID) []order.Intent {
	allowed := make([]order.Intent, 0, 2)
	if v.ValidateClaim(o, op) == nil && !o.IsClaimedBy(op) {
		allowed = append(allowed, order.IntentClaim)
	}
	if v.ValidateReadyToShip(o, op) == nil {
		allowed = append(allowed, order.IntentReadyToShip)
	}
	if v.ValidateCancel(o, op) == nil {
		allowed = append(allowed, order.IntentCancel)
	}
	return allowed
}
