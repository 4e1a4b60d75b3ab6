// Package orderrepo persists the Order aggregate with GORM. An order is
// stored as one row in "orders" plus its lines in "order_items".
package orderrepo

import (
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

// OrderDTO is the row of the orders table. Status and created_at are indexed
// for the list filters.
type OrderDTO struct {
	ID             string      `gorm:"primaryKey;size:64"`
	Customer       CustomerDTO `gorm:"embedded;embeddedPrefix:customer_"`
	CreatedAt      time.Time   `gorm:"index;not null"`
	PaymentMethod  string
	ShippingMethod string
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status         int             `gorm:"index;not null"`
	ClaimedBy      string          `gorm:"size:128"`
	ClaimedAt      *time.Time
	Shipment       ShipmentDTO `gorm:"embedded;embeddedPrefix:shipment_"`
	CancelledBy    string      `gorm:"size:128"`
	Version        int64       `gorm:"not null;default:0"`
	Items          []ItemDTO   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

type CustomerDTO struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

type ShipmentDTO struct {
	ShippedBy        string `gorm:"size:128"`
	ShippedAt        *time.Time
	InvoiceReference string
	TrackingCode     string
	LabelReference   string
}

// ItemDTO is one order line. Position keeps the placement order.
type ItemDTO struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   string `gorm:"size:64;index;not null"`
	Position  int    `gorm:"not null"`
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (ItemDTO) TableName() string {
	return "order_items"
}

func fromDomain(o *order.Order) OrderDTO {
	state := o.State()

	items := make([]ItemDTO, len(state.Items))
	for i, item := range state.Items {
		items[i] = ItemDTO{
			OrderID:   state.ID,
			Position:  i,
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice().Decimal(),
		}
	}

	return OrderDTO{
		ID: state.ID,
		Customer: CustomerDTO{
			Name:    state.Customer.Name(),
			Email:   state.Customer.Email(),
			Phone:   state.Customer.Phone(),
			Address: state.Customer.Address(),
		},
		CreatedAt:      state.CreatedAt,
		PaymentMethod:  state.PaymentMethod,
		ShippingMethod: state.ShippingMethod,
		Total:          state.Total.Decimal(),
		Status:         int(state.Status),
		ClaimedBy:      state.ClaimedBy.String(),
		ClaimedAt:      timePtr(state.ClaimedAt),
		Shipment: ShipmentDTO{
			ShippedBy:        state.Shipment.ShippedBy.String(),
			ShippedAt:        timePtr(state.Shipment.ShippedAt),
			InvoiceReference: state.Shipment.InvoiceReference,
			TrackingCode:     state.Shipment.TrackingCode,
			LabelReference:   state.Shipment.LabelReference,
		},
		CancelledBy: state.CancelledBy.String(),
		Version:     state.Version,
		Items:       items,
	}
}

// mutableColumns are the columns UpdateIf may change. Placement data and
// items are never rewritten.
func mutableColumns(dto OrderDTO) map[string]any {
	return map[string]any{
		"status":                     dto.Status,
		"claimed_by":                 dto.ClaimedBy,
		"claimed_at":                 dto.ClaimedAt,
		"shipment_shipped_by":        dto.Shipment.ShippedBy,
		"shipment_shipped_at":        dto.Shipment.ShippedAt,
		"shipment_invoice_reference": dto.Shipment.InvoiceReference,
		"shipment_tracking_code":     dto.Shipment.TrackingCode,
		"shipment_label_reference":   dto.Shipment.LabelReference,
		"cancelled_by":               dto.CancelledBy,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	customer, err := kernel.NewCustomer(dto.Customer.Name, dto.Customer.Email, dto.Customer.Phone, dto.Customer.Address)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", dto.ID, err)
	}

	items := make([]order.Item, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		price, err := kernel.NewMoney(itemDTO.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", dto.ID, err)
		}
		item, err := order.NewItem(itemDTO.Name, itemDTO.Quantity, price)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", dto.ID, err)
		}
		items = append(items, item)
	}

	total, err := kernel.NewMoney(dto.Total)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", dto.ID, err)
	}

	return order.RestoreOrder(order.State{
		ID:             dto.ID,
		Customer:       customer,
		CreatedAt:      dto.CreatedAt,
		Items:          items,
		PaymentMethod:  dto.PaymentMethod,
		ShippingMethod: dto.ShippingMethod,
		Total:          total,
		Status:         order.Status(dto.Status),
		ClaimedBy:      kernel.OperatorID(dto.ClaimedBy),
		ClaimedAt:      timeValue(dto.ClaimedAt),
		Shipment: order.Shipment{
			ShippedBy:        kernel.OperatorID(dto.Shipment.ShippedBy),
			ShippedAt:        timeValue(dto.Shipment.ShippedAt),
			InvoiceReference: dto.Shipment.InvoiceReference,
			TrackingCode:     dto.Shipment.TrackingCode,
			LabelReference:   dto.Shipment.LabelReference,
		},
		CancelledBy: kernel.OperatorID(dto.CancelledBy),
		Version:     dto.Version,
	})
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
