package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
)

// CancelOrderCommandHandler cancels orders. Whether shipped or delivered
// orders may still be cancelled is decided by the validator's CancelPolicy.
type CancelOrderCommandHandler struct {
	transitioner
	validator services.ActionValidator
	publisher ports.EventPublisher
	clock     Clock
	logger    *slog.Logger
}

func NewCancelOrderCommandHandler(
	repo ports.OrderRepository,
	locker ports.OrderLocker,
	validator services.ActionValidator,
	publisher ports.EventPublisher,
	clock Clock,
	logger *slog.Logger,
) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		transitioner: transitioner{repo: repo, locker: locker},
		validator:    validator,
		publisher:    publisher,
		clock:        orDefaultClock(clock),
		logger:       orDefaultLogger(logger).With("component", "cancel_order_handler"),
	}
}

func (h *CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	op := cmd.Operator()

	var from order.Status
	o, _, err := h.apply(ctx, cmd.OrderID(), func(o *order.Order) (bool, error) {
		if err := h.validator.ValidateCancel(o, op); err != nil {
			return false, err
		}
		from = o.Status()
		return true, o.Cancel(op, h.validator.Policy())
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "Order cancelled", "order_id", o.ID(), "operator", op.String(), "from", from.String())
	event := newEvent(ports.EventOrderCancelled, o, op.String(), h.clock())
	event.Attributes = map[string]string{"previous_status": from.String()}
	publish(ctx, h.publisher, h.logger, event)
	return o, nil
}
