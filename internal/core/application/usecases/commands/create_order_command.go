package commands

import (
	"errors"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrOrderIDIsRequired = errs.NewValueIsRequiredError("order id")
	ErrItemsAreRequired  = errs.NewValueIsRequiredError("items")
)

// CreateOrderCommand places a new order. The order enters as pending.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand("PED-006", customer, items, "pix", "sedex", time.Now())
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	created, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID        string
	customer       kernel.Customer
	items          []order.Item
	paymentMethod  string
	shippingMethod string
	createdAt      time.Time

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the order id, the customer and that at least
// one item is present. A zero createdAt is filled in by the handler.
func NewCreateOrderCommand(
	orderID string,
	customer kernel.Customer,
	items []order.Item,
	paymentMethod, shippingMethod string,
	createdAt time.Time,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		paymentMethod:  paymentMethod,
		shippingMethod: shippingMethod,
		createdAt:      createdAt,
		guard:          guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setCustomer(customer),
		cmd.setItems(items),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() string           { return c.orderID }
func (c CreateOrderCommand) Customer() kernel.Customer { return c.customer }
func (c CreateOrderCommand) PaymentMethod() string     { return c.paymentMethod }
func (c CreateOrderCommand) ShippingMethod() string    { return c.shippingMethod }
func (c CreateOrderCommand) CreatedAt() time.Time      { return c.createdAt }

func (c CreateOrderCommand) Items() []order.Item {
	items := make([]order.Item, len(c.items))
	copy(items, c.items)
	return items
}

func (c *CreateOrderCommand) setOrderID(orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return ErrOrderIDIsRequired
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setCustomer(customer kernel.Customer) error {
	if err := customer.Validate(); err != nil {
		return err
	}
	c.customer = customer
	return nil
}

func (c *CreateOrderCommand) setItems(items []order.Item) error {
	if len(items) == 0 {
		return ErrItemsAreRequired
	}
	c.items = make([]order.Item, len(items))
	copy(c.items, items)
	return nil
}
