package kernel

import (
	"errors"
	"strings"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// ErrCustomerIsNotConstructed is returned when a zero-value Customer is used.
var ErrCustomerIsNotConstructed = errs.NewValueIsRequiredError("customer must be created via NewCustomer")

// Customer holds the buyer's contact data as captured when the order was placed.
type Customer struct {
	name    string
	email   string
	phone   string
	address string
	guard   guard.ConstructorGuard
}

// NewCustomer requires a name; the contact fields are optional.
func NewCustomer(name, email, phone, address string) (Customer, error) {
	c := Customer{
		name:    strings.TrimSpace(name),
		email:   strings.TrimSpace(email),
		phone:   strings.TrimSpace(phone),
		address: strings.TrimSpace(address),
		guard:   guard.NewConstructorGuard(),
	}

	var errList []error
	if c.name == "" {
		errList = append(errList, errs.NewValueIsRequiredError("customer name"))
	}
	if c.email != "" && !strings.Contains(c.email, "@") {
		errList = append(errList, errs.NewValueIsInvalidError("customer email"))
	}
	if err := errors.Join(errList...); err != nil {
		return Customer{}, err
	}

	return c, nil
}

func (c Customer) Validate() error {
	return c.guard.Validate(ErrCustomerIsNotConstructed)
}

func (c Customer) Name() string    { return c.name }
func (c Customer) Email() string   { return c.email }
func (c Customer) Phone() string   { return c.phone }
func (c Customer) Address() string { return c.address }
