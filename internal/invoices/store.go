package invoices

import (
	"context"
	"github.com/ariefcatur/go-realtime-store/internal/catalog"
	"time"
)

// Store is the persistence port of the engine. *Repo is the Postgres
// implementation; tests use an in-memory one.
type Store interface {
	// WithTx runs fn as one atomic unit. Rows read through the TxStore are
	// locked until fn returns; a returned error rolls everything back.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error

	Insert(ctx context.Context, inv *Invoice) error
	GetByCode(ctx context.Context, code string) (*Invoice, error)
	// ExpireDue moves every open invoice with due_at before now to EXPIRED in
	// one statement and returns the rows it changed ordered by id.
	ExpireDue(ctx context.Context, now time.Time) ([]Invoice, error)
	ListPending(ctx context.Context, limit int) ([]Invoice, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Invoice, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type TxStore interface {
	InvoiceForUpdate(ctx context.Context, code string) (*Invoice, error)
	ProductForUpdate(ctx context.Context, id int64) (*catalog.Product, error)
	// DecrementStock fails with ErrInsufficientStock instead of going negative.
	DecrementStock(ctx context.Context, productID int64, qty int) (int, error)
	MarkPaid(ctx context.Context, code string, paidAt time.Time, handler string) error
	// SetStatus keeps the stored notes when notes is nil.
	SetStatus(ctx context.Context, code string, st Status, handler string, notes *string) error
}

// ProductReader is satisfied by *catalog.Service.
type ProductReader interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
	FindByName(ctx context.Context, name string) (*catalog.Product, error)
}
