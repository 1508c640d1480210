// Package notify delivers invoice events to the admin channel and payment
// confirmations to customers.
package notify

import (
	"context"
	"github.com/ariefcatur/go-realtime-store/internal/invoices"
	"github.com/ariefcatur/go-realtime-store/internal/kafka"
	"github.com/ariefcatur/go-realtime-store/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Service struct {
	RDB      redis.Cmdable
	Sender   Sender
	Customer CustomerSender // optional
	Log      logrus.FieldLogger
	Currency string
	Name     string // dedup namespace
}

// HandleMessage is a kafka.Handler. Delivery is best effort: every failure is
// logged and the offset is still committed.
func (s *Service) HandleMessage(ctx context.Context, m kafkago.Message) error {
	env, err := kafka.DecodeEnvelope(m.Value)
	if err != nil {
		s.Log.WithError(err).WithField("topic", m.Topic).Warn("skip undecodable message")
		return nil
	}
	log := s.Log.WithFields(logrus.Fields{
		"event_type":   env.EventType,
		"event_id":     env.EventID,
		"invoice_code": env.CorrelationID,
	})

	if env.EventID != "" {
		first, err := redisx.Claim(ctx, s.RDB, redisx.DedupKey(s.Name, env.EventID), "1", redisx.TTLDedup)
		if err != nil {
			log.WithError(err).Warn("dedup check failed, delivering anyway")
		} else if !first {
			log.Debug("duplicate event skipped")
			return nil
		}
	}

	p, err := kafka.UnwrapPayload[invoices.InvoiceEventPayload](env.Payload)
	if err != nil {
		log.WithError(err).Warn("skip undecodable payload")
		return nil
	}
	if content := Render(s.Currency, env.EventType, p); content != "" {
		if err := s.Sender.Send(ctx, content); err != nil {
			log.WithError(err).Warn("admin notification failed")
		}
	}
	s.notifyCustomer(ctx, log, env.EventType, p)
	return nil
}

// notifyCustomer reports an unreachable customer to the admin channel as a
// warning; it never fails the message.
func (s *Service) notifyCustomer(ctx context.Context, log logrus.FieldLogger, eventType string, p invoices.InvoiceEventPayload) {
	if s.Customer == nil || p.UserID == "" {
		return
	}
	content := RenderCustomer(s.Currency, eventType, p)
	if content == "" {
		return
	}
	err := s.Customer.SendTo(ctx, p.UserID, content)
	if err == nil {
		return
	}
	log.WithError(err).WithField("user_id", p.UserID).Warn("customer notification failed")
	if err := s.Sender.Send(ctx, renderCustomerUnreachable(p)); err != nil {
		log.WithError(err).Warn("admin notification failed")
	}
}
