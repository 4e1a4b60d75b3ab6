// Package simulated provides stand-ins for the tax authority and the carrier.
// Each call waits for a configurable latency and then fails with a fixed
// probability, which makes every pipeline failure path reachable locally.
package simulated

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"fulfillment/internal/core/ports"
)

var (
	_ ports.InvoiceIssuer  = (*InvoiceIssuer)(nil)
	_ ports.LabelGenerator = (*LabelGenerator)(nil)
)

const (
	DefaultInvoiceFailureRate = 0.3
	DefaultLabelFailureRate   = 0.1

	invoiceKeyPrefix = "NFE-3522100000000000000000000000000000000"
)

var (
	ErrSefazUnavailable   = errors.New("Falha na comunicação com a Sefaz. Tente novamente mais tarde.")
	ErrCarrierUnavailable = errors.New("Falha ao conectar com o serviço de transporte. Verifique as credenciais.")
)

// Config controls a simulated collaborator.
type Config struct {
	// FailureRate is the probability in [0, 1] that a call fails.
	FailureRate float64
	Latency     time.Duration
	// Rand returns a number in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
}

func (c Config) normalized() (Config, error) {
	if c.FailureRate < 0 || c.FailureRate > 1 {
		return Config{}, fmt.Errorf("failure rate %v is outside [0, 1]", c.FailureRate)
	}
	if c.Latency < 0 {
		return Config{}, fmt.Errorf("latency %s is negative", c.Latency)
	}
	if c.Rand == nil {
		c.Rand = rand.Float64
	}
	return c, nil
}

func (c Config) fails() bool {
	return c.Rand() < c.FailureRate
}

// InvoiceIssuer simulates the fiscal invoice (NF-e) service.
type InvoiceIssuer struct {
	cfg Config
}

func NewInvoiceIssuer(cfg Config) (*InvoiceIssuer, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, fmt.Errorf("invoice issuer: %w", err)
	}
	return &InvoiceIssuer{cfg: cfg}, nil
}

// IssueInvoice returns a key ending in the last three characters of orderID.
func (s *InvoiceIssuer) IssueInvoice(ctx context.Context, orderID string) (string, error) {
	if err := waitOrCancel(ctx, s.cfg.Latency); err != nil {
		return "", err
	}
	if s.cfg.fails() {
		return "", ErrSefazUnavailable
	}
	return invoiceKeyPrefix + lastN(orderID, 3), nil
}

// LabelGenerator simulates the carrier integration.
type LabelGenerator struct {
	cfg Config
}

func NewLabelGenerator(cfg Config) (*LabelGenerator, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, fmt.Errorf("label generator: %w", err)
	}
	return &LabelGenerator{cfg: cfg}, nil
}

func (s *LabelGenerator) GenerateShippingLabel(ctx context.Context, orderID string) (ports.ShippingLabel, error) {
	if err := waitOrCancel(ctx, s.cfg.Latency); err != nil {
		return ports.ShippingLabel{}, err
	}
	if s.cfg.fails() {
		return ports.ShippingLabel{}, ErrCarrierUnavailable
	}
	return ports.ShippingLabel{
		TrackingCode:   "BR" + orderID + "-XYZ",
		LabelReference: "/labels/label-" + orderID + ".pdf",
	}, nil
}

func waitOrCancel(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func lastN(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
