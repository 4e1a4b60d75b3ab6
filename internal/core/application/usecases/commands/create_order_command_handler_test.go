package commands_test

import (
	"errors"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewOrderRepository()
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e ports.FulfillmentEvent) bool {
		return e.Type == ports.EventOrderPlaced && e.OrderID == "PED-006" && e.Status == "pending"
	})).Return(nil).Once()

	h := commands.NewCreateOrderCommandHandler(repo, publisher, fixedClock, nil)
	cmd, err := commands.NewCreateOrderCommand("PED-006", validCustomer(t), validItems(t), "pix", "sedex", time.Time{})
	require.NoError(t, err)

	created, err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Pending, created.Status())
	assert.Equal(t, "189.90", created.Total().String())
	assert.Equal(t, fixedNow, created.CreatedAt())

	stored, err := repo.Get(ctx, "PED-006")
	require.NoError(t, err)
	assert.Equal(t, created.State(), stored.State())
	publisher.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_DuplicateID(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewOrderRepository()
	h := commands.NewCreateOrderCommandHandler(repo, nil, fixedClock, nil)
	cmd, err := commands.NewCreateOrderCommand("PED-006", validCustomer(t), validItems(t), "pix", "sedex", fixedNow)
	require.NoError(t, err)

	_, err = h.Handle(ctx, cmd)
	require.NoError(t, err)
	_, err = h.Handle(ctx, cmd)

	assert.ErrorIs(t, err, errs.ErrObjectExists)
}

func TestCreateOrderCommandHandler_Handle_RepositoryError(t *testing.T) {
	ctx := t.Context()
	repo := new(MockOrderRepository)
	repo.On("Add", mock.Anything, mock.AnythingOfType("*order.Order")).Return(errors.New("db down")).Once()
	publisher := new(MockEventPublisher)

	h := commands.NewCreateOrderCommandHandler(repo, publisher, fixedClock, nil)
	cmd, _ := commands.NewCreateOrderCommand("PED-006", validCustomer(t), validItems(t), "pix", "sedex", fixedNow)

	_, err := h.Handle(ctx, cmd)

	require.EqualError(t, err, "db down")
	repo.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCreateOrderCommandHandler_Handle_PublishFailureIsNotFatal(t *testing.T) {
	ctx := t.Context()
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker unavailable")).Once()

	h := commands.NewCreateOrderCommandHandler(memory.NewOrderRepository(), publisher, fixedClock, nil)
	cmd, _ := commands.NewCreateOrderCommand("PED-006", validCustomer(t), validItems(t), "pix", "sedex", fixedNow)

	_, err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_InvalidCommand(t *testing.T) {
	h := commands.NewCreateOrderCommandHandler(memory.NewOrderRepository(), nil, fixedClock, nil)

	_, err := h.Handle(t.Context(), commands.CreateOrderCommand{})

	assert.ErrorIs(t, err, commands.ErrCreateOrderCommandIsNotConstructed)
}
