package catalog

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-realtime-store/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"
)

// ProductColumns is the canonical select list matched by ScanProduct.
const ProductColumns = `id, name, price, stock, description, created_at, updated_at`

const uniqueNameIndex = "products_name_lower_key"

type Repo struct{ DB *pgxpool.Pool }

func ScanProduct(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Insert(ctx context.Context, np NewProduct) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products(name, price, stock, description)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		np.Name, np.Price, np.Stock, np.Description,
	).Scan(&id)
	if postgres.UniqueViolation(err, uniqueNameIndex) {
		return 0, ErrDuplicateName.WithMessage("product %q already exists", np.Name)
	}
	if err != nil {
		return 0, pkgerrors.Wrap(err, "catalog: insert product")
	}
	return id, nil
}

// SetStockByName overwrites stock on the case-insensitive name match and
// reports the affected row count.
func (r *Repo) SetStockByName(ctx context.Context, name string, stock int) (int64, error) {
	tag, err := r.DB.Exec(ctx, `
		UPDATE products SET stock=$2, updated_at=now()
		WHERE lower(name)=lower($1)`, name, stock)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "catalog: set stock")
	}
	return tag.RowsAffected(), nil
}

func (r *Repo) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := ScanProduct(r.DB.QueryRow(ctx, `SELECT `+ProductColumns+` FROM products WHERE id=$1`, id))
	return notFoundAsNil(p, err, "catalog: get product")
}

func (r *Repo) FindByName(ctx context.Context, name string) (*Product, error) {
	p, err := ScanProduct(r.DB.QueryRow(ctx, `SELECT `+ProductColumns+` FROM products WHERE lower(name)=lower($1)`, name))
	return notFoundAsNil(p, err, "catalog: find product")
}

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+ProductColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "catalog: list products")
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := ScanProduct(rows)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "catalog: scan product")
		}
		out = append(out, *p)
	}
	return out, pkgerrors.Wrap(rows.Err(), "catalog: rows")
}

func notFoundAsNil(p *Product, err error, op string) (*Product, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, op)
	}
	return p, nil
}
