// Package fulfillment is the entry point for operator intents. The
// Coordinator turns raw ids into commands, runs them through the command
// handlers and reports each outcome to tracing and metrics.
package fulfillment

import (
	"context"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("fulfillment/coordinator")

// Handlers are the command handlers the Coordinator delegates to.
type Handlers struct {
	Claim           commands.ClaimOrderCommandHandler
	ReadyToShip     commands.ReadyToShipCommandHandler
	Cancel          commands.CancelOrderCommandHandler
	ConfirmDelivery commands.ConfirmDeliveryCommandHandler
}

// Coordinator exposes Claim, ReadyToShip, Cancel and ConfirmDelivery.
//
// Every returned order is an independent copy: callers may read or modify it
// freely without affecting the store. Failures are returned as values and
// classified by KindOf; nothing is retried or compensated automatically.
type Coordinator struct {
	claim           commands.ClaimOrderCommandHandler
	readyToShip     commands.ReadyToShipCommandHandler
	cancel          commands.CancelOrderCommandHandler
	confirmDelivery commands.ConfirmDeliveryCommandHandler
	metrics         *metrics.Metrics
}

func NewCoordinator(h Handlers, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		claim:           h.Claim,
		readyToShip:     h.ReadyToShip,
		cancel:          h.Cancel,
		confirmDelivery: h.ConfirmDelivery,
		metrics:         m,
	}
}

// Claim gives operatorID the separation claim. Of concurrent claims on the
// same order exactly one succeeds.
func (c *Coordinator) Claim(ctx context.Context, orderID, operatorID string) (*order.Order, error) {
	return c.run(ctx, order.IntentClaim, orderID, operatorID, func(ctx context.Context) (*order.Order, error) {
		cmd, err := commands.NewClaimOrderCommand(orderID, operatorID)
		if err != nil {
			return nil, err
		}
		return c.claim.Handle(ctx, cmd)
	})
}

// ReadyToShip issues the invoice and shipping label and, if both succeed and
// operatorID still holds the claim, marks the order as shipped.
func (c *Coordinator) ReadyToShip(ctx context.Context, orderID, operatorID string) (*order.Order, error) {
	return c.run(ctx, order.IntentReadyToShip, orderID, operatorID, func(ctx context.Context) (*order.Order, error) {
		cmd, err := commands.NewReadyToShipCommand(orderID, operatorID)
		if err != nil {
			return nil, err
		}
		return c.readyToShip.Handle(ctx, cmd)
	})
}

func (c *Coordinator) Cancel(ctx context.Context, orderID, operatorID string) (*order.Order, error) {
	return c.run(ctx, order.IntentCancel, orderID, operatorID, func(ctx context.Context) (*order.Order, error) {
		cmd, err := commands.NewCancelOrderCommand(orderID, operatorID)
		if err != nil {
			return nil, err
		}
		return c.cancel.Handle(ctx, cmd)
	})
}

// ConfirmDelivery records the carrier's delivery confirmation.
func (c *Coordinator) ConfirmDelivery(ctx context.Context, orderID string) (*order.Order, error) {
	return c.run(ctx, order.IntentConfirmDelivery, orderID, "", func(ctx context.Context) (*order.Order, error) {
		cmd, err := commands.NewConfirmDeliveryCommand(orderID)
		if err != nil {
			return nil, err
		}
		return c.confirmDelivery.Handle(ctx, cmd)
	})
}

func (c *Coordinator) run(
	ctx context.Context,
	intent order.Intent,
	orderID, operatorID string,
	do func(ctx context.Context) (*order.Order, error),
) (*order.Order, error) {
	ctx, span := tracer.Start(ctx, "fulfillment."+intent.String(), trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("fulfillment.operator", operatorID),
	))
	defer span.End()

	o, err := do(ctx)
	if err != nil {
		kind := KindOf(err)
		span.SetAttributes(attribute.String("error.kind", string(kind)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.ObserveIntent(intent.String(), string(kind))
		return nil, err
	}

	span.SetAttributes(attribute.String("order.status", o.Status().String()))
	c.metrics.ObserveIntent(intent.String(), "ok")
	return o, nil
}
