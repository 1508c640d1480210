package invoices

import (
	"context"
	"encoding/json"
	"time"
)

const (
	EventInvoiceCreated       = "InvoiceCreated"
	EventInvoicePaid          = "InvoicePaid"
	EventInvoiceExpired       = "InvoiceExpired"
	EventInvoiceStatusChanged = "InvoiceStatusChanged"
)

const (
	TopicInvoiceCreated       = "invoice.created"
	TopicInvoicePaid          = "invoice.paid"
	TopicInvoiceExpired       = "invoice.expired"
	TopicInvoiceStatusChanged = "invoice.status_changed"
)

var eventTopics = map[string]string{
	EventInvoiceCreated:       TopicInvoiceCreated,
	EventInvoicePaid:          TopicInvoicePaid,
	EventInvoiceExpired:       TopicInvoiceExpired,
	EventInvoiceStatusChanged: TopicInvoiceStatusChanged,
}

// Topics lists every topic the engine publishes to.
func Topics() []string {
	return []string{TopicInvoiceCreated, TopicInvoicePaid, TopicInvoiceExpired, TopicInvoiceStatusChanged}
}

func TopicFor(eventType string) (string, bool) {
	t, ok := eventTopics[eventType]
	return t, ok
}

// Partition key = invoice code so every event of one invoice stays ordered.
func PartitionKey(code string) []byte { return []byte(code) }

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // invoice code
	Payload       json.RawMessage `json:"payload"`
}

type InvoiceEventPayload struct {
	InvoiceCode    string `json:"invoice_code"`
	UserID         string `json:"user_id"`
	UserName       string `json:"username"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	TotalPrice     int64  `json:"total_price"`
	Status         Status `json:"status"`
	PreviousStatus Status `json:"previous_status,omitempty"`
	HandledBy      string `json:"handled_by,omitempty"`
	NewStock       *int   `json:"new_stock,omitempty"`
}

func payloadOf(inv *Invoice) InvoiceEventPayload {
	return InvoiceEventPayload{
		InvoiceCode: inv.Code,
		UserID:      inv.UserID,
		UserName:    inv.UserName,
		ProductName: inv.ProductName,
		Quantity:    inv.Quantity,
		TotalPrice:  inv.TotalPrice,
		Status:      inv.Status,
		HandledBy:   inv.HandledBy,
	}
}

// Notifier delivers invoice outcomes out of band. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, eventType string, p InvoiceEventPayload) error
}
