package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// CreateOrderCommandHandler registers newly placed orders in the store.
type CreateOrderCommandHandler struct {
	repo      ports.OrderRepository
	publisher ports.EventPublisher
	clock     Clock
	logger    *slog.Logger
}

func NewCreateOrderCommandHandler(
	repo ports.OrderRepository,
	publisher ports.EventPublisher,
	clock Clock,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		repo:      repo,
		publisher: publisher,
		clock:     orDefaultClock(clock),
		logger:    orDefaultLogger(logger).With("component", "create_order_handler"),
	}
}

// Handle builds the order aggregate and adds it to the store.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	createdAt := cmd.CreatedAt()
	if createdAt.IsZero() {
		createdAt = h.clock()
	}

	o, err := order.NewOrder(cmd.OrderID(), cmd.Customer(), cmd.Items(), cmd.PaymentMethod(), cmd.ShippingMethod(), createdAt)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Add(ctx, o); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "Order placed", "order_id", o.ID(), "total", o.Total().String())
	publish(ctx, h.publisher, h.logger, newEvent(ports.EventOrderPlaced, o, "", h.clock()))
	return o.Clone(), nil
}
