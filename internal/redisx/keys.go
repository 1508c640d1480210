package redisx

import (
	"fmt"
	"time"
)

const (
	// Idempotency create invoice: idem:invoice:create:{user_id}:{idempotency_key} -> invoice_code
	KeyIdemInvoiceCreate = "idem:invoice:create:%s:%s"

	// Cache invoice: invoice:{invoice_code} -> JSON invoices.Invoice
	KeyInvoice = "invoice:%s"

	// Versi cache invoice, naik setiap invalidate: invoice:ver:{invoice_code} -> counter
	KeyInvoiceVersion = "invoice:ver:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency  = 24 * time.Hour
	TTLInvoiceCache = 5 * time.Minute
	// must outlive any read that fills the cache
	TTLInvoiceVersion = 24 * time.Hour
	TTLDedup          = 48 * time.Hour
)

func IdemInvoiceCreateKey(userID, idemKey string) string {
	return fmt.Sprintf(KeyIdemInvoiceCreate, userID, idemKey)
}

func InvoiceKey(code string) string { return fmt.Sprintf(KeyInvoice, code) }

func InvoiceVersionKey(code string) string { return fmt.Sprintf(KeyInvoiceVersion, code) }

func DedupKey(service, id string) string { return fmt.Sprintf(KeyDedup, service, id) }
