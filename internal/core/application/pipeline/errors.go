package pipeline

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/audit"
)

var (
	// ErrInvoiceFailed is matched by every StepError of the invoice stage.
	ErrInvoiceFailed = errors.New("invoice issuance failed")

	// ErrLabelFailed is matched by every StepError of the label stage.
	ErrLabelFailed = errors.New("shipping label generation failed")

	// ErrStepFailed is used for stages without a dedicated sentinel.
	ErrStepFailed = errors.New("pipeline step failed")

	// ErrStepTimedOut is the cause of a StepError whose step outlived
	// Config.StepTimeout. It does not match context.DeadlineExceeded, which
	// is kept for the caller's own deadline.
	ErrStepTimedOut = errors.New("pipeline step timed out")

	// ErrStepUnrecorded is the cause of a StepError whose step succeeded but
	// whose attempt could not be written to the audit log.
	ErrStepUnrecorded = errors.New("pipeline step succeeded but was not recorded")
)

// StepError reports which stage of the pipeline failed and why. Reason is the
// collaborator's message, unchanged, so it can be shown to the operator.
type StepError struct {
	Stage  audit.Stage
	Reason string
	Err    error
}

func newStepError(stage audit.Stage, reason string, err error) *StepError {
	return &StepError{Stage: stage, Reason: reason, Err: err}
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s", sentinelFor(e.Stage), e.Reason)
}

// Unwrap exposes both the stage sentinel and the underlying cause.
func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{sentinelFor(e.Stage)}
	}
	return []error{sentinelFor(e.Stage), e.Err}
}

func sentinelFor(stage audit.Stage) error {
	switch stage {
	case audit.StageInvoice:
		return ErrInvoiceFailed
	case audit.StageLabel:
		return ErrLabelFailed
	default:
		return ErrStepFailed
	}
}
