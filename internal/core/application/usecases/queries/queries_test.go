package queries_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/audit"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/order/ordertest"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

// seedRepo mirrors the demo data: one order per interesting status.
func seedRepo(t *testing.T) *memory.OrderRepository {
	t.Helper()
	ctx := t.Context()
	repo := memory.NewOrderRepository()

	add := func(o *order.Order) { require.NoError(t, repo.Add(ctx, o)) }
	restore := func(id, name string, createdAt time.Time, status order.Status, holder kernel.OperatorID) *order.Order {
		state := ordertest.NewFor(t, id, name, createdAt).State()
		state.Status = status
		state.ClaimedBy = holder
		if status == order.Shipped || status == order.Delivered {
			state.Shipment = order.Shipment{InvoiceReference: "NFE", TrackingCode: "BR" + id}
		}
		o, err := order.RestoreOrder(state)
		require.NoError(t, err)
		return o
	}

	add(restore("PED-001", "Maria Silva", now.Add(-2*time.Hour), order.Pending, ""))
	add(restore("PED-002", "João Santos", now.Add(-26*time.Hour), order.InSeparation, "Outro Usuario"))
	add(restore("PED-003", "Ana Costa", now.AddDate(0, 0, -10), order.Shipped, ""))
	add(restore("PED-004", "Pedro Lima", now.AddDate(0, -1, 0), order.Delivered, ""))
	add(restore("PED-005", "Carla Souza", now.Add(-time.Hour), order.Processing, ""))
	add(restore("PED-006", "Bruno Alves", now.AddDate(0, -2, 0), order.Cancelled, ""))
	add(restore("PED-007", "Lucia Rocha", now.AddDate(0, -2, 0), order.Delivered, ""))
	return repo
}

func ids(orders []*order.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID())
	}
	return out
}

func TestNewListOrdersQuery(t *testing.T) {
	q, err := queries.NewListOrdersQuery("", " maria ")
	require.NoError(t, err)
	assert.Equal(t, queries.FilterAll, q.Filter())
	assert.Equal(t, "maria", q.Search())

	_, err = queries.NewListOrdersQuery("yesterday", "")
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)

	var zero queries.ListOrdersQuery
	assert.ErrorIs(t, zero.Validate(), queries.ErrListOrdersQueryIsNotConstructed)
}

func TestListOrdersQueryHandler_Handle(t *testing.T) {
	h := queries.NewListOrdersQueryHandler(seedRepo(t), clock)

	tests := []struct {
		filter string
		search string
		want   []string
	}{
		{"all", "", []string{"PED-005", "PED-001", "PED-002", "PED-003", "PED-004", "PED-006", "PED-007"}},
		{"day", "", []string{"PED-005", "PED-001"}},
		{"month", "", []string{"PED-005", "PED-001", "PED-002", "PED-003"}},
		{"pending", "", []string{"PED-005", "PED-001"}},
		{"in_separation", "", []string{"PED-002"}},
		{"shipped", "", []string{"PED-003"}},
		{"delivered", "", []string{"PED-004", "PED-007"}},
		{"cancelled", "", []string{"PED-006"}},
		{"all", "SILVA", []string{"PED-001"}},
		{"delivered", "ped-007", []string{"PED-007"}},
		{"pending", "ana", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.filter+"/"+tt.search, func(t *testing.T) {
			q, err := queries.NewListOrdersQuery(tt.filter, tt.search)
			require.NoError(t, err)

			got, err := h.Handle(t.Context(), q)

			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestGetOrderStatsQueryHandler_Handle(t *testing.T) {
	h := queries.NewGetOrderStatsQueryHandler(seedRepo(t))

	stats, err := h.Handle(t.Context(), queries.NewGetOrderStatsQuery())

	require.NoError(t, err)
	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 3, stats.Open)
	assert.Equal(t, 2, stats.Delivered)
	assert.Equal(t, "269.60", stats.Revenue.String())
}

func TestGetOrderStatsQueryHandler_Empty(t *testing.T) {
	h := queries.NewGetOrderStatsQueryHandler(memory.NewOrderRepository())

	stats, err := h.Handle(t.Context(), queries.NewGetOrderStatsQuery())

	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Equal(t, "0.00", stats.Revenue.String())
}

func TestGetOrderQueryHandler_Handle(t *testing.T) {
	h := queries.NewGetOrderQueryHandler(seedRepo(t), services.NewActionValidator(order.PermissiveCancelPolicy()))

	t.Run("blocked for non-holder", func(t *testing.T) {
		q, err := queries.NewGetOrderQuery("PED-002", "Kayte")
		require.NoError(t, err)

		resp, err := h.Handle(t.Context(), q)

		require.NoError(t, err)
		assert.Equal(t, "Outro Usuario", resp.Order.ClaimedBy().String())
		assert.Empty(t, resp.AllowedIntents)
	})

	t.Run("holder may ship or cancel", func(t *testing.T) {
		q, _ := queries.NewGetOrderQuery("PED-002", "Outro Usuario")

		resp, err := h.Handle(t.Context(), q)

		require.NoError(t, err)
		assert.Equal(t, []order.Intent{order.IntentReadyToShip, order.IntentCancel}, resp.AllowedIntents)
	})

	t.Run("anonymous viewer gets no intents", func(t *testing.T) {
		q, _ := queries.NewGetOrderQuery("PED-001", "")

		resp, err := h.Handle(t.Context(), q)

		require.NoError(t, err)
		assert.Empty(t, resp.AllowedIntents)
	})

	t.Run("unknown order", func(t *testing.T) {
		q, _ := queries.NewGetOrderQuery("PED-404", "Kayte")

		_, err := h.Handle(t.Context(), q)

		assert.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}

func TestGetFulfillmentAttemptsQueryHandler_Handle(t *testing.T) {
	repo := seedRepo(t)
	log := memory.NewAttemptLog()
	failed := audit.NewAttempt(context.Background(), "PED-002", "Outro Usuario", audit.StageInvoice, audit.OutcomeFailed)
	require.NoError(t, log.Append(t.Context(), failed))
	h := queries.NewGetFulfillmentAttemptsQueryHandler(repo, log)

	t.Run("returns the trail", func(t *testing.T) {
		q, err := queries.NewGetFulfillmentAttemptsQuery("PED-002")
		require.NoError(t, err)

		got, err := h.Handle(t.Context(), q)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, failed.ID, got[0].ID)
	})

	t.Run("known order without attempts", func(t *testing.T) {
		q, _ := queries.NewGetFulfillmentAttemptsQuery("PED-001")

		got, err := h.Handle(t.Context(), q)

		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unknown order", func(t *testing.T) {
		q, _ := queries.NewGetFulfillmentAttemptsQuery("PED-404")

		_, err := h.Handle(t.Context(), q)

		assert.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}

func TestGetStaleClaimsQuery(t *testing.T) {
	t.Run("non-positive threshold is rejected", func(t *testing.T) {
		_, err := queries.NewGetStaleClaimsQuery(0)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("returns claims older than the threshold, oldest first", func(t *testing.T) {
		repo := memory.NewOrderRepository()
		claim := func(id string, at time.Time) {
			state := ordertest.New(t, id).State()
			state.Status = order.InSeparation
			state.ClaimedBy = "Kayte"
			state.ClaimedAt = at
			o, err := order.RestoreOrder(state)
			require.NoError(t, err)
			require.NoError(t, repo.Add(t.Context(), o))
		}
		claim("PED-010", now.Add(-3*time.Hour))
		claim("PED-011", now.Add(-10*time.Minute))
		claim("PED-012", now.Add(-5*time.Hour))
		require.NoError(t, repo.Add(t.Context(), ordertest.New(t, "PED-013")))

		query, err := queries.NewGetStaleClaimsQuery(time.Hour)
		require.NoError(t, err)

		stale, err := queries.NewGetStaleClaimsQueryHandler(repo, clock).Handle(t.Context(), query)
		require.NoError(t, err)
		assert.Equal(t, []string{"PED-012", "PED-010"}, ids(stale))
	})

	t.Run("zero value query is rejected", func(t *testing.T) {
		_, err := queries.NewGetStaleClaimsQueryHandler(memory.NewOrderRepository(), clock).
			Handle(t.Context(), queries.GetStaleClaimsQuery{})
		assert.ErrorIs(t, err, queries.ErrGetStaleClaimsQueryIsNotConstructed)
	})
}
