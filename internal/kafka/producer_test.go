package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-realtime-store/internal/invoices"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

func TestProducerFlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 8, nil)
	p.Start()

	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, invoices.TopicInvoicePaid, []byte("INV-1"), []byte("a")))
	require.NoError(t, p.Publish(ctx, invoices.TopicInvoiceExpired, []byte("INV-2"), []byte("b")))
	p.Close()
	p.Close()
	p.WaitClosed()

	require.Len(t, w.msgs, 2)
	assert.Equal(t, invoices.TopicInvoicePaid, w.msgs[0].Topic)
	assert.Equal(t, "INV-2", string(w.msgs[1].Key))
	assert.True(t, w.closed)

	assert.ErrorIs(t, p.Publish(ctx, invoices.TopicInvoicePaid, nil, nil), ErrProducerClosed)
}

func TestProducerLogsWriteFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := newProducer(&fakeWriter{err: errors.New("leader not available")}, 1, logger)
	p.Start()
	require.NoError(t, p.Publish(context.Background(), invoices.TopicInvoicePaid, []byte("INV-1"), nil))
	p.Close()
	p.WaitClosed()

	require.NotEmpty(t, hook.Entries)
	assert.Equal(t, logrus.ErrorLevel, hook.Entries[0].Level)
}

func TestPublishHonoursContext(t *testing.T) {
	p := newProducer(&fakeWriter{}, 0, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Publish(ctx, "t", nil, nil), context.DeadlineExceeded)
}

type capture struct {
	topic   string
	key     []byte
	value   []byte
	headers []kafka.Header
}

func (c *capture) Publish(_ context.Context, topic string, key, value []byte, headers ...kafka.Header) error {
	c.topic, c.key, c.value, c.headers = topic, key, value, headers
	return nil
}

func TestEventPublisherBuildsEnvelope(t *testing.T) {
	c := &capture{}
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	pub := &EventPublisher{P: c, Service: "store-api", Now: func() time.Time { return at }}

	stock := 7
	err := pub.Notify(context.Background(), invoices.EventInvoicePaid, invoices.InvoiceEventPayload{
		InvoiceCode: "INV-20260314-ABC123",
		UserID:      "1001",
		TotalPrice:  150000,
		Status:      invoices.StatusPaid,
		NewStock:    &stock,
	})
	require.NoError(t, err)
	assert.Equal(t, invoices.TopicInvoicePaid, c.topic)
	assert.Equal(t, "INV-20260314-ABC123", string(c.key))
	require.Len(t, c.headers, 1)
	assert.Equal(t, invoices.EventInvoicePaid, string(c.headers[0].Value))

	env, err := DecodeEnvelope(c.value)
	require.NoError(t, err)
	assert.Equal(t, "store-api", env.Producer)
	assert.Equal(t, at, env.OccurredAt)
	assert.NotEmpty(t, env.EventID)

	p, err := UnwrapPayload[invoices.InvoiceEventPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), p.TotalPrice)
	require.NotNil(t, p.NewStock)
	assert.Equal(t, 7, *p.NewStock)
}

func TestEventPublisherRejectsUnknownEvent(t *testing.T) {
	pub := &EventPublisher{P: &capture{}, Now: time.Now}
	assert.Error(t, pub.Notify(context.Background(), "Nope", invoices.InvoiceEventPayload{}))
}
