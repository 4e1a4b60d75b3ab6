package fulfillment

import (
	"context"
	"errors"

	"fulfillment/internal/core/application/pipeline"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
)

// Kind classifies a Coordinator error for callers that need a stable code,
// such as transports and metrics.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindInvalidState   Kind = "invalid_state"
	KindAlreadyClaimed Kind = "already_claimed"
	KindLocked         Kind = "locked"
	KindTerminalState  Kind = "terminal_state"
	KindInvoiceFailed  Kind = "invoice_failed"
	KindLabelFailed    Kind = "label_failed"
	KindTimeout        Kind = "timeout"
	KindCanceled       Kind = "canceled"
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindInternal       Kind = "internal"
)

// KindOf returns the Kind of err, or "" for nil. A pipeline step that outlived
// its step timeout is a failure of its stage. KindTimeout and KindCanceled
// are reserved for the caller's own context ending.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, pipeline.ErrInvoiceFailed):
		return KindInvoiceFailed
	case errors.Is(err, pipeline.ErrLabelFailed):
		return KindLabelFailed
	case errors.Is(err, order.ErrTerminalState):
		return KindTerminalState
	case errors.Is(err, order.ErrAlreadyClaimed):
		return KindAlreadyClaimed
	case errors.Is(err, order.ErrLocked):
		return KindLocked
	case errors.Is(err, order.ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, errs.ErrObjectNotFound):
		return KindNotFound
	case errors.Is(err, errs.ErrVersionIsInvalid), errors.Is(err, errs.ErrObjectExists):
		return KindConflict
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return KindValidation
	default:
		return KindInternal
	}
}
