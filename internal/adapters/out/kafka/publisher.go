// Package kafka publishes fulfillment events to a Kafka topic.
//
// Every event is wrapped in an Envelope and keyed by order id, so all events
// of one order land on the same partition in commit order. The trace context
// of the publishing request travels in the message headers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fulfillment/internal/core/ports"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var _ ports.EventPublisher = (*Publisher)(nil)

const envelopeVersion = 1

// Envelope is the JSON value of every message.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload"`
}

// Payload is the event body. CorrelationID of the envelope is the order id.
type Payload struct {
	OrderID    string            `json:"order_id"`
	Status     string            `json:"status"`
	Operator   string            `json:"operator,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type Publisher struct {
	writer   messageWriter
	producer string
}

// NewPublisher writes synchronously with acks from all in-sync replicas.
func NewPublisher(brokers []string, topic, producer string) *Publisher {
	return newPublisher(&kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}, producer)
}

func newPublisher(w messageWriter, producer string) *Publisher {
	return &Publisher{writer: w, producer: producer}
}

func (p *Publisher) Publish(ctx context.Context, event ports.FulfillmentEvent) error {
	msg, err := p.message(ctx, event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event for order %s: %w", event.Type, event.OrderID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) message(ctx context.Context, event ports.FulfillmentEvent) (kafkago.Message, error) {
	payload, err := json.Marshal(Payload{
		OrderID:    event.OrderID,
		Status:     event.Status,
		Operator:   event.Operator,
		Attributes: event.Attributes,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshal %s payload: %w", event.Type, err)
	}

	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     event.Type,
		EventVersion:  envelopeVersion,
		OccurredAt:    event.OccurredAt.UTC(),
		Producer:      p.producer,
		CorrelationID: event.OrderID,
		Payload:       payload,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		env.TraceID = sc.TraceID().String()
	}

	value, err := json.Marshal(env)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshal %s envelope: %w", event.Type, err)
	}

	headers := headerCarrier{{Key: "event_type", Value: []byte(event.Type)}}
	otel.GetTextMapPropagator().Inject(ctx, &headers)

	return kafkago.Message{
		Key:     []byte(event.OrderID),
		Value:   value,
		Time:    env.OccurredAt,
		Headers: headers,
	}, nil
}

// headerCarrier adapts message headers to propagation.TextMapCarrier.
type headerCarrier []kafkago.Header

func (c *headerCarrier) Get(key string) string {
	for _, h := range *c {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	for i, h := range *c {
		if h.Key == key {
			(*c)[i].Value = []byte(value)
			return
		}
	}
	*c = append(*c, kafkago.Header{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, len(*c))
	for i, h := range *c {
		keys[i] = h.Key
	}
	return keys
}
