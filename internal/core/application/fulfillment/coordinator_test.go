package fulfillment_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/application/pipeline"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/audit"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/order/ordertest"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSefaz = errors.New("Falha na comunicação com a Sefaz")

type fakeInvoices struct {
	calls atomic.Int32
	fail  func(call int32) error
	// during runs inside the collaborator call, while no order lock is held.
	during func()
}

func (f *fakeInvoices) IssueInvoice(_ context.Context, orderID string) (string, error) {
	n := f.calls.Add(1)
	if f.during != nil {
		f.during()
	}
	if f.fail != nil {
		if err := f.fail(n); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("NFE-%s-%d", orderID, n), nil
}

type fakeLabels struct {
	calls atomic.Int32
	fail  func(call int32) error
	delay time.Duration
}

func (f *fakeLabels) GenerateShippingLabel(ctx context.Context, orderID string) (ports.ShippingLabel, error) {
	n := f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ports.ShippingLabel{}, ctx.Err()
		}
	}
	if f.fail != nil {
		if err := f.fail(n); err != nil {
			return ports.ShippingLabel{}, err
		}
	}
	return ports.ShippingLabel{
		TrackingCode:   "BR" + orderID + "-XYZ",
		LabelReference: "/labels/label-" + orderID + ".pdf",
	}, nil
}

type harness struct {
	coordinator *fulfillment.Coordinator
	repo        *memory.OrderRepository
	attempts    *memory.AttemptLog
	invoices    *fakeInvoices
	labels      *fakeLabels
	metrics     *metrics.Metrics
}

type harnessOption func(*pipeline.Config, *order.CancelPolicy)

func withoutReuse() harnessOption {
	return func(c *pipeline.Config, _ *order.CancelPolicy) { c.ReuseCompletedSteps = false }
}

func withStepTimeout(d time.Duration) harnessOption {
	return func(c *pipeline.Config, _ *order.CancelPolicy) { c.StepTimeout = d }
}

func withStrictCancel() harnessOption {
	return func(_ *pipeline.Config, p *order.CancelPolicy) { *p = order.StrictCancelPolicy() }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	cfg := pipeline.Config{StepTimeout: time.Second, ReuseCompletedSteps: true}
	policy := order.PermissiveCancelPolicy()
	for _, opt := range opts {
		opt(&cfg, &policy)
	}

	h := &harness{
		repo:     memory.NewOrderRepository(),
		attempts: memory.NewAttemptLog(),
		invoices: &fakeInvoices{},
		labels:   &fakeLabels{},
		metrics:  metrics.New(),
	}
	locker := memory.NewKeyedLocker()
	validator := services.NewActionValidator(policy)
	runner := pipeline.NewRunner(h.invoices, h.labels, h.attempts, cfg, nil, h.metrics)

	h.coordinator = fulfillment.NewCoordinator(fulfillment.Handlers{
		Claim:           commands.NewClaimOrderCommandHandler(h.repo, locker, validator, nil, nil, nil),
		ReadyToShip:     commands.NewReadyToShipCommandHandler(h.repo, locker, validator, runner, h.attempts, nil, nil, nil),
		Cancel:          commands.NewCancelOrderCommandHandler(h.repo, locker, validator, nil, nil, nil),
		ConfirmDelivery: commands.NewConfirmDeliveryCommandHandler(h.repo, locker, validator, nil, nil, nil),
	}, h.metrics)
	return h
}

func (h *harness) place(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, h.repo.Add(t.Context(), ordertest.New(t, id)))
}

func (h *harness) stored(t *testing.T, id string) *order.Order {
	t.Helper()
	o, err := h.repo.Get(t.Context(), id)
	require.NoError(t, err)
	return o
}

func (h *harness) trail(t *testing.T, id string) []string {
	t.Helper()
	attempts, err := h.attempts.List(t.Context(), id)
	require.NoError(t, err)
	out := make([]string, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, string(a.Stage)+":"+string(a.Outcome))
	}
	return out
}

func TestCoordinator_HappyPath(t *testing.T) {
	h := newHarness(t)
	h.place(t, "PED-001")
	ctx := t.Context()

	claimed, err := h.coordinator.Claim(ctx, "PED-001", "Kayte")
	require.NoError(t, err)
	assert.Equal(t, order.InSeparation, claimed.Status())
	assert.Equal(t, kernel.OperatorID("Kayte"), claimed.ClaimedBy())

	shipped, err := h.coordinator.ReadyToShip(ctx, "PED-001", "Kayte")
	require.NoError(t, err)
	assert.Equal(t, order.Shipped, shipped.Status())
	assert.True(t, shipped.ClaimedBy().IsZero())
	assert.Equal(t, "NFE-PED-001-1", shipped.Shipment().InvoiceReference)
	assert.Equal(t, "BRPED-001-XYZ", shipped.Shipment().TrackingCode)
	assert.Equal(t, "/labels/label-PED-001.pdf", shipped.Shipment().LabelReference)

	delivered, err := h.coordinator.ConfirmDelivery(ctx, "PED-001")
	require.NoError(t, err)
	assert.Equal(t, order.Delivered, delivered.Status())

	assert.Equal(t, []string{"invoice:succeeded", "label:succeeded", "commit:succeeded"}, h.trail(t, "PED-001"))
}

func TestCoordinator_ReturnsIndependentCopies(t *testing.T) {
	h := newHarness(t)
	h.place(t, "PED-001")

	claimed, err := h.coordinator.Claim(t.Context(), "PED-001", "Kayte")
	require.NoError(t, err)

	require.NoError(t, claimed.Cancel("Kayte", order.PermissiveCancelPolicy()))

	assert.Equal(t, order.InSeparation, h.stored(t, "PED-001").Status())
}

func TestCoordinator_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	h := newHarness(t)
	h.place(t, "PED-001")

	const operators = 16
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
		losers  atomic.Int32
		start   = make(chan struct{})
	)
	for i := range operators {
		wg.Add(1)
		go func(op string) {
			defer wg.Done()
			<-start
			_, err := h.coordinator.Claim(context.Background(), "PED-001", op)
			switch {
			case err == nil:
				winners.Add(1)
			case errors.Is(err, order.ErrAlreadyClaimed):
				losers.Add(1)
			default:
				t.Errorf("unexpected error for %s: %v", op, err)
			}
		}(fmt.Sprintf("operador-%02d", i))
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.Equal(t, int32(operators-1), losers.Load())

	stored := h.stored(t, "PED-001")
	assert.Equal(t, order.InSeparation, stored.Status())
	assert.Equal(t, int64(1), stored.Version())
}

func TestCoordinator_ClaimIsIdempotentForHolder(t *testing.T) {
	h := newHarness(t)
	h.place(t, "PED-001")

	_, err := h.coordinator.Claim(t.Context(), "PED-001", "Kayte")
	require.NoError(t, err)
	again, err := h.coordinator.Claim(t.Context(), "PED-001", "Kayte")
	require.NoError(t, err)

	assert.Equal(t, int64(1), again.Version())
}

func TestCoordinator_ReadyToShipRequiresHolder(t *testing.T) {
	h := newHarness(t)
	h.place(t, "PED-001")

	_, err := h.coordinator.ReadyToShip(t.Context(), "PED-001", "Kayte")
	assert.ErrorIs(t, err, order.ErrInvalidState)

	_, err = h.coordinator.Claim(t.Context(), "PED-001", "Outro Usuario")
	require.NoError(t, err)

	_, err = h.coordinator.ReadyToShip(t.Context(), "PED-001", "Kayte")
	assert.ErrorIs(t, err, order.ErrLocked)
	assert.Equal(t, fulfillment.KindLocked, fulfillment.KindOf(err))
	assert.Zero(t, h.invoices.calls.Load())
}

func TestCoordinator_InvoiceFailureShortCircuits(t *testing.T) {
	h := newHarness(t)
	h.invoices.fail = func(int32) error { return errSefaz }
	h.place(t, "PED-001")
	_, err := h.coordinator.Claim(t.Context(), "PED-001", "Kayte")
	require.NoError(t, err)

	_, err = h.coordinator.ReadyToShip(t.Context(), "PED-001", "Kayte")

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrInvoiceFailed)
	assert.ErrorIs(t, err, errSefaz)
	assert.Equal(t, fulfillment.KindInvoiceFailed, fulfillment.KindOf(err))
	assert.Zero(t, h.labels.calls.Load())

	stored := h.stored(t, "PED-001")
	assert.Equal(t, order.InSeparation, stored.Status())
	assert.Equal(t, kernel.OperatorID("Kayte"), stored.ClaimedBy())
	assert.True(t, stored.Shipment().IsZero())
	assert.Equal(t, []string{"invoice:failed"}, h.trail(t, "PED-001"))
}

func TestCoordinator_RetryAfterInvoiceFailureSucceeds(t *testing.T) {
	h := newHarness(t)
	h.invoices.fail = func(call int32) error {
		if call == 1 {
			return errSefaz
		}
		return nil
	}
	h.place(t, "PED-001")
	_, err := h.coordinator.Claim(t.Context(), "PED-001", "Kayte")
	require.NoError(t, err)

	_, err = h.coordinator.ReadyToShip(t.Context(), "PED-001", "Kayte")
	require.Error(t, err)

	shipped, err := h.coordinator.ReadyToShip(t.Context(), "PED-001", "Kayte")
	require.NoError(t, err)

	assert.Equal(t, order.Shipped, shipped.Status())
	assert.Equal(t, "NFE-PED-001-2", shipped.Shipment().InvoiceReference)
	assert.Equal(t,
		[]string{"invoice:failed", "invoice:succeeded", "label:succeeded", "commit:succeeded"},
		h.trail(t, "PED-001"))
}

func TestCoordinator_LabelFailureKeepsIssuedInvoice(t *testing.T) {
	tests := []struct {
		name         string
		opts         []harnessOption
		wantInvoices int32
		wantRef      string
	}{
		{name: "reuses completed invoice", wantInvoices: 1, wantRef: "NFE-PED-001-1"},
		{name: "issues a second invoice", opts: []harnessOption{withoutReuse()}, wantInvoices: 2, wantRef: "NFE-PED-001-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.opts...)
			h.labels.fail = func(call int32) error {
				if call == 1 {
					return errors.New("carrier unavailable")
				}
				return nil
			}
			h.place(t, "PED-001")
			_, err := h.coordinator.Claim(t.Context(), "PED-001", "Kayte")
			require.NoError(t, err)

			_, err = h.coordinator.ReadyToShip(t.Context(), "PED-001", "Kayte")
			require.ErrorIs(t, err, pipeline.ErrLabelFailed)
			assert.Equal(t, order.InSeparation, h.stored(t, "PED-001").Status())

			shipped, err := h.coordinator.ReadyToShip(t.Context(), "PED-001", "Kayte")
			require.NoError(t, err)

			assert.Equal(t, tt.wantInvoices, h.invoices.calls.Load())
			assert.Equal(t, tt.wantRef, shipped.Shipment().InvoiceReference)
		})
	}
}

func TestCoordinator_StepTimeout(t *testing.T) {
	h := newHarness(t, withStepTimeout(20*time.Millisecond))
	h.labels.delay = time.Second
	h.place(t, "PED-001")
	_, err := h.coordinator.Claim(t.Context(), "PED-001", "Kayte")
	require.NoError(t, err)

	_, err = h.coordinator.ReadyToShip(t.Context(), "PED-001", "Kayte")

	require.ErrorIs(t, err, pipeline.ErrLabelFailed)
	assert.ErrorIs(t, err, pipeline.ErrStepTimedOut)
	assert.Equal(t, fulfillment.KindLabelFailed, fulfillment.KindOf(err))
	assert.Equal(t, order.InSeparation, h.stored(t, "PED-001").Status())
}

func TestCoordinator_ReadyToShipJoinerKeepsItsDeadline(t *testing.T) {
	h := newHarness(t)
	h.labels.delay = 500 * time.Millisecond
	h.place(t, "PED-001")
	_, err := h.coordinator.Claim(t.Context(), "PED-001", "Kayte")
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() {
		_, err := h.coordinator.ReadyToShip(t.Context(), "PED-001", "Kayte")
		first <- err
	}()
	require.Eventually(t, func() bool { return h.labels.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	started := time.Now()
	_, err = h.coordinator.ReadyToShip(ctx, "PED-001", "Kayte")

	assert.Less(t, time.Since(started), 400*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, fulfillment.KindTimeout, fulfillment.KindOf(err))

	require.NoError(t, <-first)
	assert.Equal(t, order.Shipped, h.stored(t, "PED-001").Status())
	assert.Equal(t, int32(1), h.invoices.calls.Load())
	assert.Equal(t, int32(1), h.labels.calls.Load())
}

func TestCoordinator_CancelDuringPipelineDiscardsResult(t *testing.T) {
	h := newHarness(t)
	h.place(t, "PED-001")
	_, err := h.coordinator.Claim(t.Context(), "PED-001", "Kayte")
	require.NoError(t, err)

	h.invoices.during = func() {
		_, cancelErr := h.coordinator.Cancel(context.Background(), "PED-001", "Kayte")
		assert.NoError(t, cancelErr)
	}

	_, err = h.coordinator.ReadyToShip(t.Context(), "PED-001", "Kayte")

	assert.ErrorIs(t, err, order.ErrTerminalState)
	stored := h.stored(t, "PED-001")
	assert.Equal(t, order.Cancelled, stored.Status())
	assert.True(t, stored.Shipment().IsZero())

	attempts, err := h.attempts.List(t.Context(), "PED-001")
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	commit := attempts[2]
	assert.Equal(t, audit.StageCommit, commit.Stage)
	assert.Equal(t, audit.OutcomeDiscarded, commit.Outcome)
	assert.Equal(t, "NFE-PED-001-1", commit.Reference)
}

func TestCoordinator_CancelAfterShipThenClaim(t *testing.T) {
	h := newHarness(t)
	h.place(t, "PED-001")
	ctx := t.Context()

	_, err := h.coordinator.Claim(ctx, "PED-001", "Kayte")
	require.NoError(t, err)
	_, err = h.coordinator.ReadyToShip(ctx, "PED-001", "Kayte")
	require.NoError(t, err)

	cancelled, err := h.coordinator.Cancel(ctx, "PED-001", "Outro Usuario")
	require.NoError(t, err)
	assert.Equal(t, order.Cancelled, cancelled.Status())
	assert.Equal(t, "BRPED-001-XYZ", cancelled.Shipment().TrackingCode)

	_, err = h.coordinator.Claim(ctx, "PED-001", "Kayte")
	assert.ErrorIs(t, err, order.ErrTerminalState)
	assert.Equal(t, fulfillment.KindTerminalState, fulfillment.KindOf(err))
}

func TestCoordinator_StrictPolicyRejectsLateCancel(t *testing.T) {
	h := newHarness(t, withStrictCancel())
	h.place(t, "PED-001")
	ctx := t.Context()

	_, err := h.coordinator.Claim(ctx, "PED-001", "Kayte")
	require.NoError(t, err)
	_, err = h.coordinator.ReadyToShip(ctx, "PED-001", "Kayte")
	require.NoError(t, err)

	_, err = h.coordinator.Cancel(ctx, "PED-001", "Kayte")

	assert.ErrorIs(t, err, order.ErrInvalidState)
	assert.Equal(t, order.Shipped, h.stored(t, "PED-001").Status())
}

func TestCoordinator_CancelBlockedForNonHolder(t *testing.T) {
	h := newHarness(t)
	h.place(t, "PED-001")

	_, err := h.coordinator.Claim(t.Context(), "PED-001", "Outro Usuario")
	require.NoError(t, err)

	_, err = h.coordinator.Cancel(t.Context(), "PED-001", "Kayte")

	assert.ErrorIs(t, err, order.ErrLocked)
}

func TestCoordinator_InputErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.coordinator.Claim(t.Context(), "PED-404", "Kayte")
	assert.Equal(t, fulfillment.KindNotFound, fulfillment.KindOf(err))

	_, err = h.coordinator.Claim(t.Context(), "PED-001", " ")
	assert.Equal(t, fulfillment.KindValidation, fulfillment.KindOf(err))

	_, err = h.coordinator.ConfirmDelivery(t.Context(), "")
	assert.Equal(t, fulfillment.KindValidation, fulfillment.KindOf(err))
}

func TestCoordinator_RecordsIntentMetrics(t *testing.T) {
	h := newHarness(t)
	h.place(t, "PED-001")

	_, err := h.coordinator.Claim(t.Context(), "PED-001", "Kayte")
	require.NoError(t, err)
	_, err = h.coordinator.Claim(t.Context(), "PED-001", "Outro Usuario")
	require.Error(t, err)

	n, err := testutil.GatherAndCount(h.metrics.Registry(), "fulfillment_intents_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
