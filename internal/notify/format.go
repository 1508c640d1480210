package notify

import (
	"fmt"
	"github.com/ariefcatur/go-realtime-store/internal/invoices"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatMoney renders minor units with Indonesian grouping, e.g. Rp150.000.
func FormatMoney(prefix string, v int64) string {
	return prefix + idPrinter.Sprintf("%d", v)
}

// Render turns an invoice event into the admin log line. Unknown event types
// render as "".
func Render(prefix, eventType string, p invoices.InvoiceEventPayload) string {
	switch eventType {
	case invoices.EventInvoiceCreated:
		return fmt.Sprintf("🧾 Order baru **%s** dari %s: %s x%d, total %s.",
			p.InvoiceCode, p.UserName, p.ProductName, p.Quantity, FormatMoney(prefix, p.TotalPrice))
	case invoices.EventInvoicePaid:
		msg := fmt.Sprintf("✅ Invoice **%s** dikonfirmasi **PAID** oleh %s. Total %s.",
			p.InvoiceCode, p.HandledBy, FormatMoney(prefix, p.TotalPrice))
		if p.NewStock != nil {
			msg += fmt.Sprintf(" Stok baru %s: **%d**.", p.ProductName, *p.NewStock)
		}
		return msg
	case invoices.EventInvoiceExpired:
		return fmt.Sprintf("⏰ Invoice **%s** otomatis berubah menjadi **EXPIRED**.", p.InvoiceCode)
	case invoices.EventInvoiceStatusChanged:
		return fmt.Sprintf("🔄 Invoice **%s**: %s → **%s** oleh %s.",
			p.InvoiceCode, p.PreviousStatus, p.Status, p.HandledBy)
	}
	return ""
}

// RenderCustomer is the direct message for the invoice owner. Only payment
// confirmation reaches customers; other events render as "".
func RenderCustomer(prefix, eventType string, p invoices.InvoiceEventPayload) string {
	if eventType != invoices.EventInvoicePaid {
		return ""
	}
	return fmt.Sprintf("✅ **Pembayaran Diterima**\nInvoice: %s\nProduk: %s\nQty: %d\nTotal: %s\nStatus: PAID",
		p.InvoiceCode, p.ProductName, p.Quantity, FormatMoney(prefix, p.TotalPrice))
}

func renderCustomerUnreachable(p invoices.InvoiceEventPayload) string {
	return fmt.Sprintf("⚠️ Gagal mengirim DM pembayaran ke user %s untuk invoice **%s**.", p.UserID, p.InvoiceCode)
}
