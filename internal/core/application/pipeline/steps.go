package pipeline

import (
	"context"
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/audit"
	"fulfillment/internal/core/ports"
)

// Output is what a step produced. Reference is the invoice key for the
// invoice stage and the label reference for the label stage.
type Output struct {
	Reference    string
	TrackingCode string
}

// Step is a single side effect of the fulfillment pipeline. Steps have no
// compensation: a failed later step leaves earlier effects in place.
type Step interface {
	Stage() audit.Stage
	Run(ctx context.Context, orderID string) (Output, error)
}

// InvoiceStep issues the fiscal invoice.
type InvoiceStep struct {
	issuer ports.InvoiceIssuer
}

func NewInvoiceStep(issuer ports.InvoiceIssuer) *InvoiceStep {
	return &InvoiceStep{issuer: issuer}
}

func (s *InvoiceStep) Stage() audit.Stage { return audit.StageInvoice }

func (s *InvoiceStep) Run(ctx context.Context, orderID string) (Output, error) {
	key, err := s.issuer.IssueInvoice(ctx, orderID)
	if err != nil {
		return Output{}, err
	}
	if strings.TrimSpace(key) == "" {
		return Output{}, errors.New("invoice issuer returned an empty key")
	}
	return Output{Reference: key}, nil
}

// LabelStep generates the shipping label and tracking code.
type LabelStep struct {
	generator ports.LabelGenerator
}

func NewLabelStep(generator ports.LabelGenerator) *LabelStep {
	return &LabelStep{generator: generator}
}

func (s *LabelStep) Stage() audit.Stage { return audit.StageLabel }

func (s *LabelStep) Run(ctx context.Context, orderID string) (Output, error) {
	label, err := s.generator.GenerateShippingLabel(ctx, orderID)
	if err != nil {
		return Output{}, err
	}
	if strings.TrimSpace(label.TrackingCode) == "" {
		return Output{}, errors.New("label generator returned an empty tracking code")
	}
	return Output{Reference: label.LabelReference, TrackingCode: label.TrackingCode}, nil
}
