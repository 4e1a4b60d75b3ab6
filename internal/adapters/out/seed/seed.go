// Package seed loads demo orders from YAML. Creation times are given as an
// age relative to the moment of loading, so the "day" and "month" filters
// have something to show on every start.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"gopkg.in/yaml.v3"
)

// File is the document root.
type File struct {
	Orders []Order `yaml:"orders"`
}

type Order struct {
	ID             string    `yaml:"id"`
	Customer       Customer  `yaml:"customer"`
	Age            string    `yaml:"age"`
	Status         string    `yaml:"status"`
	ClaimedBy      string    `yaml:"claimed_by"`
	PaymentMethod  string    `yaml:"payment_method"`
	ShippingMethod string    `yaml:"shipping_method"`
	Items          []Item    `yaml:"items"`
	Shipment       *Shipment `yaml:"shipment"`
}

type Customer struct {
	Name    string `yaml:"name"`
	Email   string `yaml:"email"`
	Phone   string `yaml:"phone"`
	Address string `yaml:"address"`
}

type Item struct {
	Name     string `yaml:"name"`
	Quantity int    `yaml:"quantity"`
	Price    string `yaml:"price"`
}

type Shipment struct {
	InvoiceReference string `yaml:"invoice_reference"`
	TrackingCode     string `yaml:"tracking_code"`
	LabelReference   string `yaml:"label_reference"`
}

// LoadFile reads and converts the seed file at path.
func LoadFile(path string, now time.Time) ([]*order.Order, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	return Parse(f, now)
}

// Parse decodes a seed document and builds the orders it describes. All
// problems are reported together.
func Parse(r io.Reader, now time.Time) ([]*order.Order, error) {
	var doc File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	orders := make([]*order.Order, 0, len(doc.Orders))
	var errList []error
	for i, entry := range doc.Orders {
		o, err := entry.build(now)
		if err != nil {
			errList = append(errList, fmt.Errorf("orders[%d] %q: %w", i, entry.ID, err))
			continue
		}
		orders = append(orders, o)
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}
	return orders, nil
}

// Apply adds orders that are not stored yet and returns how many were added.
func Apply(ctx context.Context, repo ports.OrderRepository, orders []*order.Order, logger *slog.Logger) (int, error) {
	added := 0
	for _, o := range orders {
		err := repo.Add(ctx, o)
		switch {
		case err == nil:
			added++
		case errors.Is(err, errs.ErrObjectExists):
			logger.DebugContext(ctx, "Seed order already present", "order_id", o.ID())
		default:
			return added, fmt.Errorf("seed order %s: %w", o.ID(), err)
		}
	}
	return added, nil
}

func (in Order) build(now time.Time) (*order.Order, error) {
	age, err := parseAge(in.Age)
	if err != nil {
		return nil, err
	}
	createdAt := now.Add(-age)

	customer, err := kernel.NewCustomer(in.Customer.Name, in.Customer.Email, in.Customer.Phone, in.Customer.Address)
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(in.Items))
	for i, it := range in.Items {
		price, err := kernel.MoneyFromString(it.Price)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		item, err := order.NewItem(it.Name, it.Quantity, price)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}

	placed, err := order.NewOrder(in.ID, customer, items, in.PaymentMethod, in.ShippingMethod, createdAt)
	if err != nil {
		return nil, err
	}
	if in.Status == "" {
		return placed, nil
	}

	status, err := order.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	state := placed.State()
	state.Status = status
	state.ClaimedBy = kernel.OperatorID(in.ClaimedBy)
	if in.ClaimedBy != "" {
		state.ClaimedAt = createdAt
	}
	if in.Shipment != nil {
		state.Shipment = order.Shipment{
			ShippedAt:        createdAt,
			InvoiceReference: in.Shipment.InvoiceReference,
			TrackingCode:     in.Shipment.TrackingCode,
			LabelReference:   in.Shipment.LabelReference,
		}
	}
	return order.RestoreOrder(state)
}

func parseAge(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errs.NewValueIsInvalidErrorWithCause("age", err)
	}
	if d < 0 {
		return 0, errs.NewValueIsInvalidErrorWithCause("age", fmt.Errorf("%s is negative", raw))
	}
	return d, nil
}
