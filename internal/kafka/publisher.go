package kafka

import (
	"context"
	"encoding/json"
	"github.com/ariefcatur/go-realtime-store/internal/invoices"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"time"
)

const HeaderEventType = "x-event-type"

type publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers ...kafka.Header) error
}

// EventPublisher is the invoices.Notifier backed by Kafka.
type EventPublisher struct {
	P       publisher
	Service string
	Now     func() time.Time
}

func NewEventPublisher(p *Producer, service string) *EventPublisher {
	return &EventPublisher{P: p, Service: service, Now: time.Now}
}

func (e *EventPublisher) Notify(ctx context.Context, eventType string, p invoices.InvoiceEventPayload) error {
	topic, ok := invoices.TopicFor(eventType)
	if !ok {
		return errors.Errorf("kafka: no topic for event %q", eventType)
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "kafka: encode payload")
	}
	env := invoices.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    e.Now().UTC(),
		Producer:      e.Service,
		CorrelationID: p.InvoiceCode,
		Payload:       payload,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "kafka: encode envelope")
	}
	return e.P.Publish(ctx, topic, invoices.PartitionKey(p.InvoiceCode), value,
		kafka.Header{Key: HeaderEventType, Value: []byte(eventType)})
}
