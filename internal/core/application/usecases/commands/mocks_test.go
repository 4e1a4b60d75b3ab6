package commands_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"fulfillment/internal/core/application/pipeline"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

var fixedNow = time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) List(_ context.Context, _ ports.OrderFilter) ([]*order.Order, error) {
	return nil, errors.New("not implemented in mock")
}

func (m *MockOrderRepository) UpdateIf(ctx context.Context, o *order.Order, expected int64) (*order.Order, error) {
	args := m.Called(ctx, o, expected)
	updated, _ := args.Get(0).(*order.Order)
	return updated, args.Error(1)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, event ports.FulfillmentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// recordingPublisher collects events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.FulfillmentEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event ports.FulfillmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// stubRunner returns a canned result and counts runs. An optional hook runs
// while the pipeline is "in flight", before the result is returned. When gate
// is set, Run blocks until gate is closed or its ctx ends.
type stubRunner struct {
	calls  atomic.Int32
	result pipeline.Result
	err    error
	during func()
	delay  time.Duration

	started   chan struct{}
	gate      chan struct{}
	abandoned atomic.Bool
}

func (r *stubRunner) Run(ctx context.Context, orderID, _ string) (pipeline.Result, error) {
	r.calls.Add(1)
	if r.started != nil {
		select {
		case r.started <- struct{}{}:
		default:
		}
	}
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			r.abandoned.Store(true)
			return pipeline.Result{}, ctx.Err()
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.during != nil {
		r.during()
	}
	if r.err != nil {
		return pipeline.Result{}, r.err
	}
	res := r.result
	if res.InvoiceReference == "" {
		res = pipeline.Result{
			InvoiceReference: "NFE-" + orderID,
			TrackingCode:     "BR" + orderID + "-XYZ",
			LabelReference:   "/labels/label-" + orderID + ".pdf",
		}
	}
	return res, nil
}
