package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order is the aggregate root of the fulfillment workflow. It owns the
// immutable placement data (customer, items, total) and the mutable
// fulfillment state (status, separation claim, shipment references).
//
// Order follows these invariants:
//   - Must have a non-empty identifier and at least one item
//   - claimedBy is non-empty if and only if status is InSeparation
//   - The total is the sum of item subtotals at placement and is never recomputed
//   - Cancelled is terminal
//   - Can only be created through NewOrder or RestoreOrder
//
// Orders are not safe for concurrent mutation; the store hands out
// independent copies and accepts them back through a conditional update.
type Order struct {
	id             string
	customer       kernel.Customer
	createdAt      time.Time
	items          []Item
	paymentMethod  string
	shippingMethod string
	total          kernel.Money

	status    Status
	claimedBy kernel.OperatorID
	claimedAt time.Time

	// shipment is filled in by Ship and kept afterwards for display.
	shipment Shipment

	// cancelledBy records who cancelled the order (empty otherwise).
	cancelledBy kernel.OperatorID

	// version is the optimistic concurrency token maintained by the store.
	version int64

	isConstructed bool
}

// Shipment holds the references produced by the invoice and label stages.
type Shipment struct {
	ShippedBy        kernel.OperatorID
	ShippedAt        time.Time
	InvoiceReference string
	TrackingCode     string
	LabelReference   string
}

// IsZero reports whether no shipment was recorded.
func (s Shipment) IsZero() bool {
	return s.InvoiceReference == "" && s.TrackingCode == "" && s.LabelReference == ""
}

// NewOrder creates a freshly placed order in Pending status.
//
// Parameters:
//   - id: business identifier, e.g. "PED-001"
//   - customer: validated contact data
//   - items: at least one line item
//   - paymentMethod, shippingMethod: free-form labels shown to staff
//   - createdAt: placement time
//
// The total is computed here from the items and stored as-is from then on.
func NewOrder(
	id string,
	customer kernel.Customer,
	items []Item,
	paymentMethod, shippingMethod string,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		status:         Pending,
		paymentMethod:  strings.TrimSpace(paymentMethod),
		shippingMethod: strings.TrimSpace(shippingMethod),
		createdAt:      createdAt.UTC(),
		isConstructed:  true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomer(customer),
		o.setItems(items),
		o.setCreatedAt(createdAt),
	); err != nil {
		return nil, err
	}

	total := kernel.ZeroMoney()
	for _, item := range o.items {
		total = total.Add(item.Subtotal())
	}
	o.total = total

	return o, nil
}

// State is the full persisted form of an Order. Storage adapters convert
// their records to State and call RestoreOrder.
type State struct {
	ID             string
	Customer       kernel.Customer
	CreatedAt      time.Time
	Items          []Item
	PaymentMethod  string
	ShippingMethod string
	Total          kernel.Money
	Status         Status
	ClaimedBy      kernel.OperatorID
	ClaimedAt      time.Time
	Shipment       Shipment
	CancelledBy    kernel.OperatorID
	Version        int64
}

// RestoreOrder rebuilds an Order from persistence. The stored total is kept
// verbatim; the claim invariant is checked.
func RestoreOrder(state State) (*Order, error) {
	o := &Order{
		paymentMethod:  state.PaymentMethod,
		shippingMethod: state.ShippingMethod,
		createdAt:      state.CreatedAt.UTC(),
		claimedBy:      state.ClaimedBy,
		claimedAt:      state.ClaimedAt,
		shipment:       state.Shipment,
		cancelledBy:    state.CancelledBy,
		version:        state.Version,
		isConstructed:  true,
	}

	if err := errors.Join(
		o.setID(state.ID),
		o.setCustomer(state.Customer),
		o.setItems(state.Items),
		o.setTotal(state.Total),
		o.setStatus(state.Status),
	); err != nil {
		return nil, err
	}

	if err := o.status.ValidateCanHaveClaim(!o.claimedBy.IsZero()); err != nil {
		return nil, err
	}

	return o, nil
}

// State exports the aggregate for persistence.
func (o *Order) State() State {
	return State{
		ID:             o.id,
		Customer:       o.customer,
		CreatedAt:      o.createdAt,
		Items:          o.Items(),
		PaymentMethod:  o.paymentMethod,
		ShippingMethod: o.shippingMethod,
		Total:          o.total,
		Status:         o.status,
		ClaimedBy:      o.claimedBy,
		ClaimedAt:      o.claimedAt,
		Shipment:       o.shipment,
		CancelledBy:    o.cancelledBy,
		Version:        o.version,
	}
}

// Clone returns an independent copy.
func (o *Order) Clone() *Order {
	c := *o
	c.items = o.Items()
	return &c
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) ID() string {
	return o.id
}

func (o *Order) Customer() kernel.Customer {
	return o.customer
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) PaymentMethod() string {
	return o.paymentMethod
}

func (o *Order) ShippingMethod() string {
	return o.shippingMethod
}

func (o *Order) Total() kernel.Money {
	return o.total
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) ClaimedBy() kernel.OperatorID {
	return o.claimedBy
}

func (o *Order) ClaimedAt() time.Time {
	return o.claimedAt
}

func (o *Order) Shipment() Shipment {
	return o.shipment
}

func (o *Order) CancelledBy() kernel.OperatorID {
	return o.cancelledBy
}

// Version is the store's concurrency token for this copy.
func (o *Order) Version() int64 {
	return o.version
}

// Items returns a copy of the order lines.
func (o *Order) Items() []Item {
	items := make([]Item, len(o.items))
	copy(items, o.items)
	return items
}

// IsClaimedBy reports whether op currently holds the separation claim.
func (o *Order) IsClaimedBy(op kernel.OperatorID) bool {
	return o.status == InSeparation && !op.IsZero() && o.claimedBy == op
}

// ValidateClaim checks whether op may start separating the order.
//
// Returns:
//   - nil if the order awaits separation, or op already holds the claim
//   - ErrAlreadyClaimed if another operator holds it
//   - ErrTerminalState for cancelled orders
//   - ErrInvalidState otherwise
func (o *Order) ValidateClaim(op kernel.OperatorID) error {
	if op.IsZero() {
		return errs.NewValueIsRequiredError("operator")
	}
	if o.status == InSeparation {
		if o.claimedBy == op {
			return nil
		}
		return newTransitionError(o, IntentClaim, ErrAlreadyClaimed)
	}
	if _, err := o.status.Claim(); err != nil {
		return newTransitionError(o, IntentClaim, err)
	}
	return nil
}

// Claim gives op the separation claim and moves the order to InSeparation.
// Claiming an order already held by op is a no-op.
func (o *Order) Claim(op kernel.OperatorID, at time.Time) error {
	if err := o.ValidateClaim(op); err != nil {
		return err
	}
	if o.IsClaimedBy(op) {
		return nil
	}

	o.status = InSeparation
	o.claimedBy = op
	o.claimedAt = at.UTC()
	return nil
}

// ValidateReadyToShip checks that op holds the claim of an in_separation order.
func (o *Order) ValidateReadyToShip(op kernel.OperatorID) error {
	if op.IsZero() {
		return errs.NewValueIsRequiredError("operator")
	}
	if _, err := o.status.Ship(); err != nil {
		return newTransitionError(o, IntentReadyToShip, err)
	}
	if o.claimedBy != op {
		return newTransitionError(o, IntentReadyToShip, ErrLocked)
	}
	return nil
}

// Ship records the pipeline references and moves the order to Shipped.
// The separation claim is released; the shipping operator is kept in Shipment.
func (o *Order) Ship(op kernel.OperatorID, invoiceReference, trackingCode, labelReference string, at time.Time) error {
	if err := o.ValidateReadyToShip(op); err != nil {
		return err
	}

	var errList []error
	if strings.TrimSpace(invoiceReference) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("invoice reference"))
	}
	if strings.TrimSpace(trackingCode) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("tracking code"))
	}
	if err := errors.Join(errList...); err != nil {
		return err
	}

	o.status = Shipped
	o.claimedBy = kernel.NoOperator
	o.claimedAt = time.Time{}
	o.shipment = Shipment{
		ShippedBy:        op,
		ShippedAt:        at.UTC(),
		InvoiceReference: invoiceReference,
		TrackingCode:     trackingCode,
		LabelReference:   labelReference,
	}
	return nil
}

// ValidateCancel checks whether op may cancel the order under policy.
// An in_separation order may only be cancelled by the claim holder.
func (o *Order) ValidateCancel(op kernel.OperatorID, policy CancelPolicy) error {
	if op.IsZero() {
		return errs.NewValueIsRequiredError("operator")
	}
	if _, err := o.status.Cancel(policy); err != nil {
		return newTransitionError(o, IntentCancel, err)
	}
	if o.status == InSeparation && o.claimedBy != op {
		return newTransitionError(o, IntentCancel, ErrLocked)
	}
	return nil
}

// Cancel moves the order to the terminal Cancelled status and clears the claim.
func (o *Order) Cancel(op kernel.OperatorID, policy CancelPolicy) error {
	if err := o.ValidateCancel(op, policy); err != nil {
		return err
	}

	o.status = Cancelled
	o.claimedBy = kernel.NoOperator
	o.claimedAt = time.Time{}
	o.cancelledBy = op
	return nil
}

// ValidateDeliver checks that the order has shipped.
func (o *Order) ValidateDeliver() error {
	if _, err := o.status.Deliver(); err != nil {
		return newTransitionError(o, IntentConfirmDelivery, err)
	}
	return nil
}

// Deliver marks a shipped order as delivered.
func (o *Order) Deliver() error {
	if err := o.ValidateDeliver(); err != nil {
		return err
	}
	o.status = Delivered
	return nil
}

func (o *Order) setID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errs.NewValueIsRequiredError("order id")
	}
	o.id = id
	return nil
}

func (o *Order) setCustomer(customer kernel.Customer) error {
	if err := customer.Validate(); err != nil {
		return err
	}
	o.customer = customer
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	o.items = make([]Item, len(items))
	copy(o.items, items)
	return nil
}

func (o *Order) setCreatedAt(createdAt time.Time) error {
	if createdAt.IsZero() {
		return errs.NewValueIsRequiredError("created at")
	}
	return nil
}

func (o *Order) setTotal(total kernel.Money) error {
	if err := total.Validate(); err != nil {
		return err
	}
	o.total = total
	return nil
}

func (o *Order) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.status = status
	return nil
}
