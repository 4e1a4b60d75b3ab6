package queries

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/guard"
)

var ErrGetOrderStatsQueryIsNotConstructed = errors.New(
	"GetOrderStatsQuery must be created via NewGetOrderStatsQuery constructor",
)

// GetOrderStatsQuery computes the dashboard counters.
type GetOrderStatsQuery struct {
	guard guard.ConstructorGuard
}

func NewGetOrderStatsQuery() GetOrderStatsQuery {
	return GetOrderStatsQuery{guard: guard.NewConstructorGuard()}
}

func (q GetOrderStatsQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderStatsQueryIsNotConstructed)
}

// GetOrderStatsQueryResponse holds the counters.
//   - Open counts pending, processing and in_separation orders
//   - Revenue sums the totals of delivered orders only
type GetOrderStatsQueryResponse struct {
	Total     int
	Open      int
	Delivered int
	Revenue   kernel.Money
}

type GetOrderStatsQueryHandler struct {
	repo ports.OrderRepository
}

func NewGetOrderStatsQueryHandler(repo ports.OrderRepository) GetOrderStatsQueryHandler {
	return GetOrderStatsQueryHandler{repo: repo}
}

func (h GetOrderStatsQueryHandler) Handle(ctx context.Context, query GetOrderStatsQuery) (GetOrderStatsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderStatsQueryResponse{}, err
	}

	orders, err := h.repo.List(ctx, ports.OrderFilter{})
	if err != nil {
		return GetOrderStatsQueryResponse{}, err
	}

	resp := GetOrderStatsQueryResponse{Total: len(orders), Revenue: kernel.ZeroMoney()}
	for _, o := range orders {
		switch {
		case o.Status().IsAwaitingSeparation(), o.Status() == order.InSeparation:
			resp.Open++
		case o.Status() == order.Delivered:
			resp.Delivered++
			resp.Revenue = resp.Revenue.Add(o.Total())
		}
	}
	return resp, nil
}
