package queries

import (
	"context"
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery fetches one order as seen by an operator. The operator may be
// empty, in which case no intent is reported as allowed.
type GetOrderQuery struct {
	orderID  string
	operator kernel.OperatorID
	guard    guard.ConstructorGuard
}

func NewGetOrderQuery(orderID, operator string) (GetOrderQuery, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return GetOrderQuery{}, errs.NewValueIsRequiredError("order id")
	}
	return GetOrderQuery{
		orderID:  orderID,
		operator: kernel.OperatorID(strings.TrimSpace(operator)),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// GetOrderQueryResponse is the order plus what the operator may do with it.
type GetOrderQueryResponse struct {
	Order          *order.Order
	AllowedIntents []order.Intent
}

type GetOrderQueryHandler struct {
	repo      ports.OrderRepository
	validator services.ActionValidator
}

func NewGetOrderQueryHandler(repo ports.OrderRepository, validator services.ActionValidator) GetOrderQueryHandler {
	return GetOrderQueryHandler{repo: repo, validator: validator}
}

func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	o, err := h.repo.Get(ctx, query.orderID)
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	allowed := []order.Intent{}
	if !query.operator.IsZero() {
		allowed = h.validator.AllowedIntents(o, query.operator)
	}
	return GetOrderQueryResponse{Order: o, AllowedIntents: allowed}, nil
}
