package order

// CancelPolicy decides whether orders that already shipped or were delivered
// may still be cancelled (e.g. to process a return).
type CancelPolicy struct {
	AllowAfterShipped   bool
	AllowAfterDelivered bool
}

// PermissiveCancelPolicy allows cancellation from every non-terminal status.
func PermissiveCancelPolicy() CancelPolicy {
	return CancelPolicy{AllowAfterShipped: true, AllowAfterDelivered: true}
}

// StrictCancelPolicy only allows cancellation before shipment.
func StrictCancelPolicy() CancelPolicy {
	return CancelPolicy{}
}
