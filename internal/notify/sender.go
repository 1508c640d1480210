package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"net/http"
	"time"
)

// Sender writes to the admin channel.
type Sender interface {
	Send(ctx context.Context, content string) error
}

// CustomerSender delivers a direct message to one customer.
type CustomerSender interface {
	SendTo(ctx context.Context, userID, content string) error
}

// WebhookSender posts {"content": "..."} to a chat webhook. As a
// CustomerSender it posts {"user_id": "...", "content": "..."} to a DM relay.
type WebhookSender struct {
	URL    string
	Client *http.Client
}

func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *WebhookSender) Send(ctx context.Context, content string) error {
	return s.post(ctx, map[string]string{"content": content})
}

func (s *WebhookSender) SendTo(ctx context.Context, userID, content string) error {
	return s.post(ctx, map[string]string{"user_id": userID, "content": content})
}

func (s *WebhookSender) post(ctx context.Context, payload map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "webhook: encode")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "webhook: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Client.Do(req)
	if err != nil {
		return errors.Wrap(err, "webhook: post")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return errors.Errorf("webhook: status %d", resp.StatusCode)
	}
	return nil
}

// LogSender is used when no webhook is configured.
type LogSender struct{ Log logrus.FieldLogger }

func (s LogSender) Send(_ context.Context, content string) error {
	s.Log.WithField("content", content).Info("admin notification")
	return nil
}

func (s LogSender) SendTo(_ context.Context, userID, content string) error {
	s.Log.WithFields(logrus.Fields{"user_id": userID, "content": content}).Info("customer notification")
	return nil
}
