package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
)

// ConfirmDeliveryCommandHandler moves shipped orders to delivered. It is the
// entry point for the carrier's delivery notification.
type ConfirmDeliveryCommandHandler struct {
	transitioner
	validator services.ActionValidator
	publisher ports.EventPublisher
	clock     Clock
	logger    *slog.Logger
}

func NewConfirmDeliveryCommandHandler(
	repo ports.OrderRepository,
	locker ports.OrderLocker,
	validator services.ActionValidator,
	publisher ports.EventPublisher,
	clock Clock,
	logger *slog.Logger,
) ConfirmDeliveryCommandHandler {
	return ConfirmDeliveryCommandHandler{
		transitioner: transitioner{repo: repo, locker: locker},
		validator:    validator,
		publisher:    publisher,
		clock:        orDefaultClock(clock),
		logger:       orDefaultLogger(logger).With("component", "confirm_delivery_handler"),
	}
}

func (h *ConfirmDeliveryCommandHandler) Handle(ctx context.Context, cmd ConfirmDeliveryCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	o, _, err := h.apply(ctx, cmd.OrderID(), func(o *order.Order) (bool, error) {
		if err := h.validator.ValidateConfirmDelivery(o); err != nil {
			return false, err
		}
		return true, o.Deliver()
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "Order delivered", "order_id", o.ID())
	publish(ctx, h.publisher, h.logger, newEvent(ports.EventOrderDelivered, o, "", h.clock()))
	return o, nil
}
