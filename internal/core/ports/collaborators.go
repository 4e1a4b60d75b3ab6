package ports

import "context"

// InvoiceIssuer requests a fiscal invoice for an order. A non-nil error
// carries the human-readable rejection reason.
type InvoiceIssuer interface {
	IssueInvoice(ctx context.Context, orderID string) (invoiceKey string, err error)
}

// ShippingLabel is what a carrier returns for a labelled package.
type ShippingLabel struct {
	TrackingCode   string
	LabelReference string
}

// LabelGenerator requests a shipping label for an order.
type LabelGenerator interface {
	GenerateShippingLabel(ctx context.Context, orderID string) (ShippingLabel, error)
}
