package invoices

import "github.com/ariefcatur/go-realtime-store/internal/apperr"

var (
	ErrInvalidQuantity = apperr.New(apperr.KindValidation, "invalid_quantity", "quantity must be positive")
	ErrInvalidCustomer = apperr.New(apperr.KindValidation, "invalid_customer", "customer identity is required")
	ErrInvalidStatus   = apperr.New(apperr.KindValidation, "invalid_status", "unknown invoice status")

	ErrProductNotFound = apperr.New(apperr.KindNotFound, "product_not_found", "product not found")
	ErrInvoiceNotFound = apperr.New(apperr.KindNotFound, "invoice_not_found", "invoice not found")
	ErrProductMissing  = apperr.New(apperr.KindNotFound, "product_missing", "invoice product no longer exists")

	ErrDuplicateInvoiceCode = apperr.New(apperr.KindConflict, "duplicate_invoice_code", "invoice code already exists")

	ErrAlreadySettled    = apperr.New(apperr.KindState, "already_settled", "invoice already settled")
	ErrInactive          = apperr.New(apperr.KindState, "inactive", "invoice is cancelled or expired")
	ErrInvalidTransition = apperr.New(apperr.KindState, "invalid_transition", "status transition not allowed")

	ErrInsufficientStock = apperr.New(apperr.KindInsufficientStock, "insufficient_stock", "insufficient stock")
)
