package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrOperatorCommandIsNotConstructed = errors.New(
	"operator command must be created via its constructor",
)

// operatorCommand is the shared payload of intents issued by a staff member
// on a single order.
type operatorCommand struct { //nolint:recvcheck //using for validation
	orderID  string
	operator kernel.OperatorID

	guard guard.ConstructorGuard
}

func newOperatorCommand(orderID string, operator string) (operatorCommand, error) {
	cmd := operatorCommand{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setOperator(operator),
	); err != nil {
		return operatorCommand{}, err
	}
	return cmd, nil
}

func (c operatorCommand) Validate() error {
	return c.guard.Validate(ErrOperatorCommandIsNotConstructed)
}

func (c operatorCommand) OrderID() string {
	return c.orderID
}

func (c operatorCommand) Operator() kernel.OperatorID {
	return c.operator
}

func (c *operatorCommand) setOrderID(orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return ErrOrderIDIsRequired
	}
	c.orderID = orderID
	return nil
}

func (c *operatorCommand) setOperator(raw string) error {
	op, err := kernel.NewOperatorID(raw)
	if err != nil {
		return err
	}
	c.operator = op
	return nil
}

// ClaimOrderCommand asks to start separating an order.
type ClaimOrderCommand struct{ operatorCommand }

func NewClaimOrderCommand(orderID, operator string) (ClaimOrderCommand, error) {
	cmd, err := newOperatorCommand(orderID, operator)
	return ClaimOrderCommand{cmd}, err
}

// ReadyToShipCommand asks to invoice, label and ship an order in separation.
type ReadyToShipCommand struct{ operatorCommand }

func NewReadyToShipCommand(orderID, operator string) (ReadyToShipCommand, error) {
	cmd, err := newOperatorCommand(orderID, operator)
	return ReadyToShipCommand{cmd}, err
}

// CancelOrderCommand asks to cancel an order.
type CancelOrderCommand struct{ operatorCommand }

func NewCancelOrderCommand(orderID, operator string) (CancelOrderCommand, error) {
	cmd, err := newOperatorCommand(orderID, operator)
	return CancelOrderCommand{cmd}, err
}
