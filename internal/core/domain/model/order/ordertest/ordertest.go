// Package ordertest builds orders for tests in other packages.
package ordertest

import (
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

// PlacedAt is the creation time of orders built by New.
var PlacedAt = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

// New returns a pending order for "Maria Silva" with two items totalling 134.80.
func New(t testing.TB, id string) *order.Order {
	t.Helper()
	return NewFor(t, id, "Maria Silva", PlacedAt)
}

// NewFor returns a pending order with the given customer name and creation time.
func NewFor(t testing.TB, id, customerName string, createdAt time.Time) *order.Order {
	t.Helper()

	customer, err := kernel.NewCustomer(customerName, "cliente@example.com", "+55 11 90000-0000", "Rua das Flores, 10")
	require.NoError(t, err)
	shirt, err := order.NewItem("Camiseta", 2, kernel.MustMoney("49.90"))
	require.NoError(t, err)
	hat, err := order.NewItem("Boné", 1, kernel.MustMoney("35.00"))
	require.NoError(t, err)

	o, err := order.NewOrder(id, customer, []order.Item{shirt, hat}, "pix", "sedex", createdAt)
	require.NoError(t, err)
	return o
}

// InStatus returns an order restored directly into status. holder must be set
// exactly when status is InSeparation.
func InStatus(t testing.TB, id string, status order.Status, holder kernel.OperatorID) *order.Order {
	t.Helper()

	state := New(t, id).State()
	state.Status = status
	state.ClaimedBy = holder
	if !holder.IsZero() {
		state.ClaimedAt = PlacedAt.Add(time.Hour)
	}
	if status == order.Shipped || status == order.Delivered {
		state.Shipment = order.Shipment{
			ShippedBy:        "Kayte",
			ShippedAt:        PlacedAt.Add(2 * time.Hour),
			InvoiceReference: "NFE-" + id,
			TrackingCode:     "BR" + id + "-XYZ",
			LabelReference:   "/labels/label-" + id + ".pdf",
		}
	}

	o, err := order.RestoreOrder(state)
	require.NoError(t, err)
	return o
}
