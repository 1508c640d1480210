package kafka

import (
	"context"
	"errors"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"sync"
	"time"
)

var ErrProducerClosed = errors.New("kafka: producer closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers messages in memory and writes them from one goroutine so
// callers never wait on the broker. Each message names its own topic.
type Producer struct {
	w       messageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, buf int, log logrus.FieldLogger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}, buf, log)
}

func newProducer(w messageWriter, buf int, log logrus.FieldLogger) *Producer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

// Start runs the writer loop until Close; whatever is still queued is
// flushed before the writer is closed.
func (p *Producer) Start() {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			if err := p.w.WriteMessages(context.Background(), m); err != nil {
				p.log.WithError(err).WithFields(logrus.Fields{
					"topic": m.Topic,
					"key":   string(m.Key),
				}).Error("kafka write failed")
			}
		}
		if err := p.w.Close(); err != nil {
			p.log.WithError(err).Warn("kafka writer close")
		}
	}()
}

func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte, headers ...kafka.Header) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	m := kafka.Message{Topic: topic, Key: key, Value: value, Time: time.Now(), Headers: headers}
	select {
	case p.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting messages. Safe to call more than once.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

// WaitClosed blocks until the queue is flushed. Only valid after Start.
func (p *Producer) WaitClosed() { <-p.closeCh }
