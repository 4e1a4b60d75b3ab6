package queries

import (
	"context"
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/audit"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrGetFulfillmentAttemptsQueryIsNotConstructed = errors.New(
	"GetFulfillmentAttemptsQuery must be created via NewGetFulfillmentAttemptsQuery constructor",
)

// GetFulfillmentAttemptsQuery returns the audit trail of one order.
type GetFulfillmentAttemptsQuery struct {
	orderID string
	guard   guard.ConstructorGuard
}

func NewGetFulfillmentAttemptsQuery(orderID string) (GetFulfillmentAttemptsQuery, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return GetFulfillmentAttemptsQuery{}, errs.NewValueIsRequiredError("order id")
	}
	return GetFulfillmentAttemptsQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetFulfillmentAttemptsQuery) Validate() error {
	return q.guard.Validate(ErrGetFulfillmentAttemptsQueryIsNotConstructed)
}

type GetFulfillmentAttemptsQueryHandler struct {
	repo     ports.OrderRepository
	attempts ports.AttemptLog
}

func NewGetFulfillmentAttemptsQueryHandler(repo ports.OrderRepository, attempts ports.AttemptLog) GetFulfillmentAttemptsQueryHandler {
	return GetFulfillmentAttemptsQueryHandler{repo: repo, attempts: attempts}
}

// Handle fails with errs.ObjectNotFoundError for unknown orders, so an empty
// result always means "no attempts yet".
func (h GetFulfillmentAttemptsQueryHandler) Handle(ctx context.Context, query GetFulfillmentAttemptsQuery) ([]audit.Attempt, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if _, err := h.repo.Get(ctx, query.orderID); err != nil {
		return nil, err
	}
	return h.attempts.List(ctx, query.orderID)
}
