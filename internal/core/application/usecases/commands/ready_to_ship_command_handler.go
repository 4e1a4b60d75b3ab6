package commands

import (
	"context"
	"fmt"
	"log/slog"

	"fulfillment/internal/core/application/pipeline"
	"fulfillment/internal/core/domain/model/audit"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
)

// PipelineRunner executes the invoice and label side effects.
type PipelineRunner interface {
	Run(ctx context.Context, orderID, operator string) (pipeline.Result, error)
}

// ReadyToShipCommandHandler ships an order once its invoice and shipping
// label have been produced.
//
// The flow is split around the side effects so that no order lock is held
// while collaborators run:
//
//  1. lock, validate against a fresh read, unlock
//  2. run the pipeline
//  3. lock, re-validate against a fresh read, commit with UpdateIf, unlock
//
// If step 3's re-validation fails the pipeline output is recorded as a
// discarded commit attempt and the validation error is returned.
//
// Overlapping calls for the same order and operator share one run. Every
// caller still returns as soon as its own ctx is done, and the shared run is
// canceled once no caller is waiting for it.
type ReadyToShipCommandHandler struct {
	transitioner
	validator services.ActionValidator
	runner    PipelineRunner
	attempts  ports.AttemptLog
	publisher ports.EventPublisher
	clock     Clock
	logger    *slog.Logger
	inflight  *flightGroup
}

func NewReadyToShipCommandHandler(
	repo ports.OrderRepository,
	locker ports.OrderLocker,
	validator services.ActionValidator,
	runner PipelineRunner,
	attempts ports.AttemptLog,
	publisher ports.EventPublisher,
	clock Clock,
	logger *slog.Logger,
) ReadyToShipCommandHandler {
	return ReadyToShipCommandHandler{
		transitioner: transitioner{repo: repo, locker: locker},
		validator:    validator,
		runner:       runner,
		attempts:     attempts,
		publisher:    publisher,
		clock:        orDefaultClock(clock),
		logger:       orDefaultLogger(logger).With("component", "ready_to_ship_handler"),
		inflight:     newFlightGroup(),
	}
}

func (h *ReadyToShipCommandHandler) Handle(ctx context.Context, cmd ReadyToShipCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	v, shared, err := h.inflight.Do(ctx, inflightKey(cmd), func(ctx context.Context) (any, error) {
		return h.handle(ctx, cmd)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		h.logger.DebugContext(ctx, "Joined in-flight ready-to-ship", "order_id", cmd.OrderID())
	}
	return v.(*order.Order).Clone(), nil
}

func inflightKey(cmd ReadyToShipCommand) string {
	return cmd.OrderID() + "\x00" + cmd.Operator().String()
}

func (h *ReadyToShipCommandHandler) handle(ctx context.Context, cmd ReadyToShipCommand) (*order.Order, error) {
	orderID, op := cmd.OrderID(), cmd.Operator()

	if err := h.precheck(ctx, orderID, op); err != nil {
		return nil, err
	}

	res, err := h.runner.Run(ctx, orderID, op.String())
	if err != nil {
		return nil, err
	}

	var revalidated bool
	o, _, err := h.apply(ctx, orderID, func(o *order.Order) (bool, error) {
		if err := h.validator.ValidateReadyToShip(o, op); err != nil {
			return false, err
		}
		revalidated = true
		return true, o.Ship(op, res.InvoiceReference, res.TrackingCode, res.LabelReference, h.clock())
	})
	if err != nil {
		reason := err.Error()
		if revalidated {
			reason = fmt.Sprintf("commit failed: %v", err)
		}
		h.recordCommit(ctx, orderID, op.String(), res, audit.OutcomeDiscarded, reason)
		h.logger.WarnContext(ctx, "Discarded pipeline result",
			"order_id", orderID, "operator", op.String(), "invoice", res.InvoiceReference, "error", err)
		return nil, err
	}

	h.recordCommit(ctx, orderID, op.String(), res, audit.OutcomeSucceeded, "")
	h.logger.InfoContext(ctx, "Order shipped",
		"order_id", orderID, "operator", op.String(), "tracking_code", res.TrackingCode)

	event := newEvent(ports.EventOrderShipped, o, op.String(), h.clock())
	event.Attributes = map[string]string{
		"invoice_reference": res.InvoiceReference,
		"tracking_code":     res.TrackingCode,
		"label_reference":   res.LabelReference,
	}
	publish(ctx, h.publisher, h.logger, event)
	return o, nil
}

// precheck validates the intent inside the critical section without writing.
func (h *ReadyToShipCommandHandler) precheck(ctx context.Context, orderID string, op kernel.OperatorID) error {
	_, _, err := h.apply(ctx, orderID, func(o *order.Order) (bool, error) {
		return false, h.validator.ValidateReadyToShip(o, op)
	})
	return err
}

func (h *ReadyToShipCommandHandler) recordCommit(
	ctx context.Context,
	orderID, operator string,
	res pipeline.Result,
	outcome audit.Outcome,
	reason string,
) {
	attempt := audit.NewAttempt(ctx, orderID, operator, audit.StageCommit, outcome)
	attempt.Reference = res.InvoiceReference
	attempt.TrackingCode = res.TrackingCode
	attempt.Reason = reason

	if err := h.attempts.Append(context.WithoutCancel(ctx), attempt); err != nil {
		h.logger.ErrorContext(ctx, "Failed to append commit attempt", "order_id", orderID, "error", err)
	}
}
