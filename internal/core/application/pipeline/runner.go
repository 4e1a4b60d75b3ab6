// Package pipeline runs the side effects that must succeed before an order
// can be marked as shipped: invoice issuance, then shipping label generation.
//
// The runner is strictly sequential and stops at the first failure. It never
// holds an order lock and never writes to the order store; the caller commits
// the Result. Every attempt is appended to the audit trail.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/audit"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultStepTimeout = 10 * time.Second

var tracer = otel.Tracer("fulfillment/pipeline")

// Config tunes the runner.
type Config struct {
	// StepTimeout bounds each collaborator call. Zero means DefaultStepTimeout.
	StepTimeout time.Duration

	// ReuseCompletedSteps makes the runner take the output of a step that
	// already succeeded for the order from the audit trail instead of calling
	// the collaborator again. This keeps a retry after a label failure from
	// issuing a second invoice. Only recorded successes are reused: a step
	// whose result arrives after StepTimeout is dropped and never recorded.
	ReuseCompletedSteps bool
}

// Result holds the references to commit onto the order.
type Result struct {
	InvoiceReference string
	TrackingCode     string
	LabelReference   string

	// Reused lists the stages whose output came from the audit trail.
	Reused []audit.Stage
}

// Runner executes the pipeline steps in order.
type Runner struct {
	steps    []Step
	attempts ports.AttemptLog
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewRunner builds the standard invoice → label pipeline.
func NewRunner(
	issuer ports.InvoiceIssuer,
	labels ports.LabelGenerator,
	attempts ports.AttemptLog,
	cfg Config,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Runner {
	return NewRunnerWithSteps([]Step{NewInvoiceStep(issuer), NewLabelStep(labels)}, attempts, cfg, logger, m)
}

// NewRunnerWithSteps builds a runner over an explicit step list.
func NewRunnerWithSteps(steps []Step, attempts ports.AttemptLog, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Runner {
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultStepTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		steps:    steps,
		attempts: attempts,
		cfg:      cfg,
		logger:   logger.With("component", "fulfillment_pipeline"),
		metrics:  m,
	}
}

// Run executes every step for orderID on behalf of operator.
//
// Returns:
//   - the combined Result when every step succeeded
//   - *StepError for the first failing step (timeouts included)
//   - a plain error if the audit trail could not be read
func (r *Runner) Run(ctx context.Context, orderID, operator string) (Result, error) {
	var res Result

	for _, step := range r.steps {
		stage := step.Stage()

		if r.cfg.ReuseCompletedSteps {
			prev, ok, err := r.attempts.LastSucceeded(ctx, orderID, stage)
			if err != nil {
				return Result{}, fmt.Errorf("read %s attempts for order %s: %w", stage, orderID, err)
			}
			if ok {
				r.logger.InfoContext(ctx, "Reusing completed step",
					"order_id", orderID, "stage", stage, "attempt_id", prev.ID.String())
				res.apply(stage, Output{Reference: prev.Reference, TrackingCode: prev.TrackingCode})
				res.Reused = append(res.Reused, stage)
				continue
			}
		}

		out, err := r.runStep(ctx, step, orderID, operator)
		if err != nil {
			return Result{}, err
		}
		res.apply(stage, out)
	}

	return res, nil
}

func (r *Runner) runStep(ctx context.Context, step Step, orderID, operator string) (Output, error) {
	stage := step.Stage()

	ctx, span := tracer.Start(ctx, "pipeline."+string(stage))
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("pipeline.stage", string(stage)))

	started := time.Now()
	out, err := r.runBounded(ctx, step, orderID)
	elapsed := time.Since(started)

	// The audit entry must be written even if the caller gave up.
	auditCtx := context.WithoutCancel(ctx)

	if err != nil {
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			reason = fmt.Sprintf("%s timed out after %s", stage, r.cfg.StepTimeout)
			err = fmt.Errorf("%w after %s", ErrStepTimedOut, r.cfg.StepTimeout)
		}

		attempt := audit.NewAttempt(ctx, orderID, operator, stage, audit.OutcomeFailed)
		attempt.Reason = reason
		if appendErr := r.appendAttempt(auditCtx, attempt); appendErr != nil {
			span.RecordError(appendErr)
		}
		r.metrics.ObserveStep(string(stage), string(audit.OutcomeFailed), elapsed)

		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		r.logger.WarnContext(ctx, "Pipeline step failed",
			"order_id", orderID, "stage", stage, "reason", reason, "elapsed", elapsed)
		return Output{}, newStepError(stage, reason, err)
	}

	attempt := audit.NewAttempt(ctx, orderID, operator, stage, audit.OutcomeSucceeded)
	attempt.Reference = out.Reference
	attempt.TrackingCode = out.TrackingCode
	if err := r.appendAttempt(auditCtx, attempt); err != nil {
		// Reuse only sees recorded outputs.
		reason := fmt.Sprintf("%s %s succeeded but could not be recorded", stage, out.Reference)
		r.metrics.ObserveStep(string(stage), string(audit.OutcomeFailed), elapsed)

		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		r.logger.ErrorContext(ctx, "Pipeline step result lost",
			"order_id", orderID, "stage", stage, "reference", out.Reference, "error", err)
		return Output{}, newStepError(stage, reason, errors.Join(ErrStepUnrecorded, err))
	}
	r.metrics.ObserveStep(string(stage), string(audit.OutcomeSucceeded), elapsed)

	r.logger.InfoContext(ctx, "Pipeline step succeeded",
		"order_id", orderID, "stage", stage, "reference", out.Reference, "elapsed", elapsed)
	return out, nil
}

// runBounded stops waiting for a step once its timeout elapses, even if the
// collaborator ignores ctx. A late result is dropped.
func (r *Runner) runBounded(ctx context.Context, step Step, orderID string) (Output, error) {
	stepCtx, cancel := context.WithTimeout(ctx, r.cfg.StepTimeout)
	defer cancel()

	type outcome struct {
		out Output
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := step.Run(stepCtx, orderID)
		done <- outcome{out: out, err: err}
	}()

	select {
	case o := <-done:
		return o.out, o.err
	case <-stepCtx.Done():
		return Output{}, stepCtx.Err()
	}
}

func (r *Runner) appendAttempt(ctx context.Context, attempt audit.Attempt) error {
	if err := r.attempts.Append(ctx, attempt); err != nil {
		r.logger.ErrorContext(ctx, "Failed to append fulfillment attempt",
			"order_id", attempt.OrderID, "stage", attempt.Stage, "error", err)
		return err
	}
	return nil
}

func (res *Result) apply(stage audit.Stage, out Output) {
	switch stage {
	case audit.StageInvoice:
		res.InvoiceReference = out.Reference
	case audit.StageLabel:
		res.LabelReference = out.Reference
		res.TrackingCode = out.TrackingCode
	}
}
