package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
)

// ClaimOrderCommandHandler gives an operator the separation claim of an order.
// Of several operators racing for the same order exactly one wins; the others
// get order.ErrAlreadyClaimed.
type ClaimOrderCommandHandler struct {
	transitioner
	validator services.ActionValidator
	publisher ports.EventPublisher
	clock     Clock
	logger    *slog.Logger
}

func NewClaimOrderCommandHandler(
	repo ports.OrderRepository,
	locker ports.OrderLocker,
	validator services.ActionValidator,
	publisher ports.EventPublisher,
	clock Clock,
	logger *slog.Logger,
) ClaimOrderCommandHandler {
	return ClaimOrderCommandHandler{
		transitioner: transitioner{repo: repo, locker: locker},
		validator:    validator,
		publisher:    publisher,
		clock:        orDefaultClock(clock),
		logger:       orDefaultLogger(logger).With("component", "claim_order_handler"),
	}
}

// Handle claims the order. Re-claiming an order the operator already holds
// succeeds without writing.
func (h *ClaimOrderCommandHandler) Handle(ctx context.Context, cmd ClaimOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	op := cmd.Operator()

	o, changed, err := h.apply(ctx, cmd.OrderID(), func(o *order.Order) (bool, error) {
		if err := h.validator.ValidateClaim(o, op); err != nil {
			return false, err
		}
		if o.IsClaimedBy(op) {
			return false, nil
		}
		return true, o.Claim(op, h.clock())
	})
	if err != nil {
		return nil, err
	}

	if changed {
		h.logger.InfoContext(ctx, "Order claimed", "order_id", o.ID(), "operator", op.String())
		publish(ctx, h.publisher, h.logger, newEvent(ports.EventOrderClaimed, o, op.String(), h.clock()))
	}
	return o, nil
}
