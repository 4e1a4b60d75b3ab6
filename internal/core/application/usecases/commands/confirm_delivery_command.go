package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/pkg/guard"
)

var ErrConfirmDeliveryCommandIsNotConstructed = errors.New(
	"ConfirmDeliveryCommand must be created via NewConfirmDeliveryCommand constructor",
)

// ConfirmDeliveryCommand records the carrier's delivery confirmation.
type ConfirmDeliveryCommand struct {
	orderID string
	guard   guard.ConstructorGuard
}

func NewConfirmDeliveryCommand(orderID string) (ConfirmDeliveryCommand, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return ConfirmDeliveryCommand{}, ErrOrderIDIsRequired
	}
	return ConfirmDeliveryCommand{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c ConfirmDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrConfirmDeliveryCommandIsNotConstructed)
}

func (c ConfirmDeliveryCommand) OrderID() string {
	return c.orderID
}
