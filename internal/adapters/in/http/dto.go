package http

import (
	"time"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/audit"
	"fulfillment/internal/core/domain/model/order"
)

type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type Item struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

type Shipment struct {
	ShippedBy        string     `json:"shipped_by,omitempty"`
	ShippedAt        *time.Time `json:"shipped_at,omitempty"`
	InvoiceReference string     `json:"invoice_reference"`
	TrackingCode     string     `json:"tracking_code"`
	LabelReference   string     `json:"label_reference,omitempty"`
}

type Order struct {
	ID             string     `json:"id"`
	Customer       Customer   `json:"customer"`
	CreatedAt      time.Time  `json:"created_at"`
	Status         string     `json:"status"`
	Total          string     `json:"total"`
	PaymentMethod  string     `json:"payment_method,omitempty"`
	ShippingMethod string     `json:"shipping_method,omitempty"`
	Items          []Item     `json:"items"`
	ClaimedBy      string     `json:"claimed_by,omitempty"`
	ClaimedAt      *time.Time `json:"claimed_at,omitempty"`
	Shipment       *Shipment  `json:"shipment,omitempty"`
	CancelledBy    string     `json:"cancelled_by,omitempty"`
	Version        int64      `json:"version"`
}

// OrderDetail adds what the requesting operator may do next.
type OrderDetail struct {
	Order
	AllowedIntents []string `json:"allowed_intents"`
}

type Stats struct {
	Total     int    `json:"total"`
	Open      int    `json:"open"`
	Delivered int    `json:"delivered"`
	Revenue   string `json:"revenue"`
}

type Attempt struct {
	ID           string    `json:"id"`
	Operator     string    `json:"operator,omitempty"`
	Stage        string    `json:"stage"`
	Outcome      string    `json:"outcome"`
	Reference    string    `json:"reference,omitempty"`
	TrackingCode string    `json:"tracking_code,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	TraceID      string    `json:"trace_id,omitempty"`
	At           time.Time `json:"at"`
}

// NewOrder is the body of POST /api/v1/orders.
type NewOrder struct {
	ID             string    `json:"id"`
	Customer       Customer  `json:"customer"`
	Items          []NewItem `json:"items"`
	PaymentMethod  string    `json:"payment_method"`
	ShippingMethod string    `json:"shipping_method"`
}

type NewItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

func toOrder(o *order.Order) Order {
	items := o.Items()
	dto := Order{
		ID: o.ID(),
		Customer: Customer{
			Name:    o.Customer().Name(),
			Email:   o.Customer().Email(),
			Phone:   o.Customer().Phone(),
			Address: o.Customer().Address(),
		},
		CreatedAt:      o.CreatedAt(),
		Status:         o.Status().String(),
		Total:          o.Total().String(),
		PaymentMethod:  o.PaymentMethod(),
		ShippingMethod: o.ShippingMethod(),
		Items:          make([]Item, len(items)),
		ClaimedBy:      o.ClaimedBy().String(),
		ClaimedAt:      optionalTime(o.ClaimedAt()),
		CancelledBy:    o.CancelledBy().String(),
		Version:        o.Version(),
	}
	for i, item := range items {
		dto.Items[i] = Item{
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice().String(),
			Subtotal:  item.Subtotal().String(),
		}
	}
	if s := o.Shipment(); !s.IsZero() {
		dto.Shipment = &Shipment{
			ShippedBy:        s.ShippedBy.String(),
			ShippedAt:        optionalTime(s.ShippedAt),
			InvoiceReference: s.InvoiceReference,
			TrackingCode:     s.TrackingCode,
			LabelReference:   s.LabelReference,
		}
	}
	return dto
}

func toOrders(orders []*order.Order) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = toOrder(o)
	}
	return out
}

func toOrderDetail(resp queries.GetOrderQueryResponse) OrderDetail {
	intents := make([]string, len(resp.AllowedIntents))
	for i, intent := range resp.AllowedIntents {
		intents[i] = intent.String()
	}
	return OrderDetail{Order: toOrder(resp.Order), AllowedIntents: intents}
}

func toStats(resp queries.GetOrderStatsQueryResponse) Stats {
	return Stats{
		Total:     resp.Total,
		Open:      resp.Open,
		Delivered: resp.Delivered,
		Revenue:   resp.Revenue.String(),
	}
}

func toAttempts(attempts []audit.Attempt) []Attempt {
	out := make([]Attempt, len(attempts))
	for i, a := range attempts {
		out[i] = Attempt{
			ID:           a.ID.String(),
			Operator:     a.Operator,
			Stage:        string(a.Stage),
			Outcome:      string(a.Outcome),
			Reference:    a.Reference,
			TrackingCode: a.TrackingCode,
			Reason:       a.Reason,
			TraceID:      a.TraceID,
			At:           a.At,
		}
	}
	return out
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
