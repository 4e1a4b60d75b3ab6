package memory_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/order/ordertest"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepository_AddAndGet(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewOrderRepository()
	o := ordertest.New(t, "PED-001")

	require.NoError(t, repo.Add(ctx, o))

	got, err := repo.Get(ctx, "PED-001")
	require.NoError(t, err)
	assert.Equal(t, o.State(), got.State())

	t.Run("duplicate id is rejected", func(t *testing.T) {
		err := repo.Add(ctx, ordertest.New(t, "PED-001"))
		assert.ErrorIs(t, err, errs.ErrObjectExists)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.Get(ctx, "PED-404")
		assert.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("returned copy is independent", func(t *testing.T) {
		got, err := repo.Get(ctx, "PED-001")
		require.NoError(t, err)
		require.NoError(t, got.Claim("Kayte", time.Now()))

		again, err := repo.Get(ctx, "PED-001")
		require.NoError(t, err)
		assert.Equal(t, order.Pending, again.Status())
	})

	t.Run("caller mutation after add does not leak", func(t *testing.T) {
		fresh := ordertest.New(t, "PED-009")
		require.NoError(t, repo.Add(ctx, fresh))
		require.NoError(t, fresh.Claim("Kayte", time.Now()))

		stored, err := repo.Get(ctx, "PED-009")
		require.NoError(t, err)
		assert.Equal(t, order.Pending, stored.Status())
	})
}

func TestOrderRepository_UpdateIf(t *testing.T) {
	ctx := t.Context()

	t.Run("matching version commits and bumps version", func(t *testing.T) {
		repo := memory.NewOrderRepository()
		require.NoError(t, repo.Add(ctx, ordertest.New(t, "PED-001")))

		o, err := repo.Get(ctx, "PED-001")
		require.NoError(t, err)
		require.NoError(t, o.Claim("Kayte", time.Now()))

		updated, err := repo.UpdateIf(ctx, o, o.Version())
		require.NoError(t, err)
		assert.Equal(t, int64(1), updated.Version())

		stored, err := repo.Get(ctx, "PED-001")
		require.NoError(t, err)
		assert.Equal(t, order.InSeparation, stored.Status())
		assert.Equal(t, int64(1), stored.Version())
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		repo := memory.NewOrderRepository()
		require.NoError(t, repo.Add(ctx, ordertest.New(t, "PED-001")))

		first, _ := repo.Get(ctx, "PED-001")
		second, _ := repo.Get(ctx, "PED-001")
		require.NoError(t, first.Claim("Kayte", time.Now()))
		require.NoError(t, second.Claim("Outro Usuario", time.Now()))

		_, err := repo.UpdateIf(ctx, first, 0)
		require.NoError(t, err)
		_, err = repo.UpdateIf(ctx, second, 0)

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrVersionIsInvalid)
		stored, _ := repo.Get(ctx, "PED-001")
		assert.Equal(t, "Kayte", stored.ClaimedBy().String())
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		repo := memory.NewOrderRepository()
		_, err := repo.UpdateIf(ctx, ordertest.New(t, "PED-404"), 0)
		assert.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("concurrent writers with the same version: exactly one wins", func(t *testing.T) {
		repo := memory.NewOrderRepository()
		require.NoError(t, repo.Add(ctx, ordertest.New(t, "PED-001")))

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				o, err := repo.Get(ctx, "PED-001")
				if err != nil {
					return
				}
				if _, err := repo.UpdateIf(ctx, o, 0); err == nil {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
	})
}

func TestOrderRepository_List(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewOrderRepository()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Add(ctx, ordertest.NewFor(t, "PED-001", "Maria Silva", base)))
	require.NoError(t, repo.Add(ctx, ordertest.NewFor(t, "PED-002", "João Santos", base.Add(time.Hour))))
	require.NoError(t, repo.Add(ctx, ordertest.NewFor(t, "PED-003", "Ana Costa", base.AddDate(0, -1, 0))))
	require.NoError(t, repo.Add(ctx, ordertest.NewFor(t, "PED-004", "Pedro Lima", base.Add(time.Hour))))

	o, _ := repo.Get(ctx, "PED-002")
	require.NoError(t, o.Claim("Kayte", base))
	_, err := repo.UpdateIf(ctx, o, 0)
	require.NoError(t, err)

	ids := func(orders []*order.Order) []string {
		out := make([]string, 0, len(orders))
		for _, o := range orders {
			out = append(out, o.ID())
		}
		return out
	}

	tests := []struct {
		name   string
		filter ports.OrderFilter
		want   []string
	}{
		{"all newest first, ties by id", ports.OrderFilter{}, []string{"PED-002", "PED-004", "PED-001", "PED-003"}},
		{"by status", ports.OrderFilter{Statuses: []order.Status{order.InSeparation}}, []string{"PED-002"}},
		{"by several statuses", ports.OrderFilter{Statuses: []order.Status{order.Pending, order.Processing}}, []string{"PED-004", "PED-001", "PED-003"}},
		{"created range", ports.OrderFilter{CreatedFrom: base, CreatedTo: base.Add(time.Hour)}, []string{"PED-001"}},
		{"search by name is case-insensitive", ports.OrderFilter{Search: "maria"}, []string{"PED-001"}},
		{"search by id", ports.OrderFilter{Search: "ped-00"}, []string{"PED-002", "PED-004", "PED-001", "PED-003"}},
		{"search without match", ports.OrderFilter{Search: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}
