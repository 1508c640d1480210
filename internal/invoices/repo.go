package invoices

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-realtime-store/internal/catalog"
	"github.com/ariefcatur/go-realtime-store/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"
	"sort"
	"time"
)

const invoiceColumns = `id, invoice_code, user_id, username, product_id, product_name, unit_price, quantity,
	total_price, status, created_at, due_at, paid_at, notes, handled_by`

const uniqueCodeConstraint = "invoices_invoice_code_key"

type Repo struct{ DB *pgxpool.Pool }

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var st string
	err := row.Scan(&inv.ID, &inv.Code, &inv.UserID, &inv.UserName, &inv.ProductID, &inv.ProductName,
		&inv.UnitPrice, &inv.Quantity, &inv.TotalPrice, &st, &inv.CreatedAt, &inv.DueAt, &inv.PaidAt,
		&inv.Notes, &inv.HandledBy)
	if err != nil {
		return nil, err
	}
	inv.Status = Status(st)
	return &inv, nil
}

func collect(rows pgx.Rows, op string) ([]Invoice, error) {
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, pkgerrors.Wrap(err, op)
		}
		out = append(out, *inv)
	}
	return out, pkgerrors.Wrap(rows.Err(), op)
}

func (r *Repo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error {
	return postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (r *Repo) Insert(ctx context.Context, inv *Invoice) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO invoices(invoice_code, user_id, username, product_id, product_name, unit_price, quantity,
		                     total_price, status, created_at, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		inv.Code, inv.UserID, inv.UserName, inv.ProductID, inv.ProductName, inv.UnitPrice, inv.Quantity,
		inv.TotalPrice, string(inv.Status), inv.CreatedAt, inv.DueAt,
	).Scan(&inv.ID)
	switch {
	case err == nil:
		return nil
	case postgres.UniqueViolation(err, uniqueCodeConstraint):
		return ErrDuplicateInvoiceCode.WithMessage("invoice code %s already exists", inv.Code)
	case postgres.ForeignKeyViolation(err):
		return ErrProductNotFound.WithMessage("product %d not found", inv.ProductID)
	default:
		return pkgerrors.Wrap(err, "invoices: insert")
	}
}

func (r *Repo) GetByCode(ctx context.Context, code string) (*Invoice, error) {
	inv, err := scanInvoice(r.DB.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_code=$1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inv, pkgerrors.Wrap(err, "invoices: get")
}

// ExpireDue relies on the UPDATE re-checking its WHERE clause against the
// committed row when it had to wait on a lock held by ConfirmPayment.
func (r *Repo) ExpireDue(ctx context.Context, now time.Time) ([]Invoice, error) {
	rows, err := r.DB.Query(ctx, `
		UPDATE invoices SET status='EXPIRED'
		WHERE status IN ('UNPAID', 'PROCESSING') AND due_at < $1
		RETURNING `+invoiceColumns, now)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "invoices: expire due")
	}
	out, err := collect(rows, "invoices: expire due")
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repo) ListPending(ctx context.Context, limit int) ([]Invoice, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE status IN ('UNPAID', 'PROCESSING')
		ORDER BY created_at, id LIMIT $1`, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "invoices: list pending")
	}
	return collect(rows, "invoices: list pending")
}

func (r *Repo) ListByUser(ctx context.Context, userID string, limit int) ([]Invoice, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE user_id=$1 ORDER BY id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "invoices: list by user")
	}
	return collect(rows, "invoices: list by user")
}

func (r *Repo) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{ByStatus: map[Status]int64{}}
	err := r.DB.QueryRow(ctx, `SELECT count(*), COALESCE(sum(stock), 0) FROM products`).
		Scan(&d.ProductCount, &d.TotalStock)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "invoices: dashboard products")
	}

	rows, err := r.DB.Query(ctx, `SELECT status, count(*), COALESCE(sum(total_price), 0) FROM invoices GROUP BY status`)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "invoices: dashboard invoices")
	}
	defer rows.Close()
	for rows.Next() {
		var st string
		var n, sum int64
		if err := rows.Scan(&st, &n, &sum); err != nil {
			return nil, pkgerrors.Wrap(err, "invoices: dashboard scan")
		}
		d.ByStatus[Status(st)] = n
		if Status(st) == StatusPaid || Status(st) == StatusDone {
			d.Revenue += sum
		}
	}
	return d, pkgerrors.Wrap(rows.Err(), "invoices: dashboard rows")
}

type txRepo struct{ tx pgx.Tx }

func (t *txRepo) InvoiceForUpdate(ctx context.Context, code string) (*Invoice, error) {
	inv, err := scanInvoice(t.tx.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE invoice_code=$1 FOR UPDATE`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inv, pkgerrors.Wrap(err, "invoices: lock invoice")
}

func (t *txRepo) ProductForUpdate(ctx context.Context, id int64) (*catalog.Product, error) {
	p, err := catalog.ScanProduct(t.tx.QueryRow(ctx,
		`SELECT `+catalog.ProductColumns+` FROM products WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, pkgerrors.Wrap(err, "invoices: lock product")
}

func (t *txRepo) DecrementStock(ctx context.Context, productID int64, qty int) (int, error) {
	var stock int
	err := t.tx.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id=$1 AND stock >= $2
		RETURNING stock`, productID, qty).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrInsufficientStock
	}
	return stock, pkgerrors.Wrap(err, "invoices: decrement stock")
}

func (t *txRepo) MarkPaid(ctx context.Context, code string, paidAt time.Time, handler string) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE invoices SET status='PAID', paid_at=$2, handled_by=$3
		WHERE invoice_code=$1 AND paid_at IS NULL AND status IN ('UNPAID', 'PROCESSING')`,
		code, paidAt, handler)
	if err != nil {
		return pkgerrors.Wrap(err, "invoices: mark paid")
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadySettled
	}
	return nil
}

func (t *txRepo) SetStatus(ctx context.Context, code string, st Status, handler string, notes *string) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE invoices SET status=$2, handled_by=$3, notes=COALESCE($4, notes)
		WHERE invoice_code=$1`, code, string(st), handler, notes)
	return pkgerrors.Wrap(err, "invoices: set status")
}
