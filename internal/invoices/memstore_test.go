package invoices

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ariefcatur/go-realtime-store/internal/catalog"
)

// memStore serialises every transaction behind one mutex, which is a coarser
// version of the row locks the Postgres repo takes.
type memStore struct {
	mu       sync.Mutex
	products map[int64]catalog.Product
	invoices map[string]Invoice
	nextID   int64

	failMarkPaid error
}

func newMemStore() *memStore {
	return &memStore{products: map[int64]catalog.Product{}, invoices: map[string]Invoice{}}
}

func (m *memStore) addProduct(name string, price int64, stock int) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := int64(len(m.products) + 1)
	m.products[id] = catalog.Product{ID: id, Name: name, Price: price, Stock: stock}
	return id
}

func (m *memStore) stockOf(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

func (m *memStore) setStock(id int64, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.products[id]
	p.Stock = stock
	m.products[id] = p
}

func (m *memStore) invoice(code string) Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invoices[code]
}

func (m *memStore) backdate(code string, due time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv := m.invoices[code]
	inv.DueAt = due
	m.invoices[code] = inv
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	products := make(map[int64]catalog.Product, len(m.products))
	for k, v := range m.products {
		products[k] = v
	}
	invoices := make(map[string]Invoice, len(m.invoices))
	for k, v := range m.invoices {
		invoices[k] = v
	}
	if err := fn(ctx, memTx{m}); err != nil {
		m.products, m.invoices = products, invoices
		return err
	}
	return nil
}

func (m *memStore) Insert(_ context.Context, inv *Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[inv.Code]; ok {
		return ErrDuplicateInvoiceCode
	}
	if _, ok := m.products[inv.ProductID]; !ok {
		return ErrProductNotFound
	}
	m.nextID++
	inv.ID = m.nextID
	m.invoices[inv.Code] = *inv
	return nil
}

func (m *memStore) GetByCode(_ context.Context, code string) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[code]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (m *memStore) ExpireDue(_ context.Context, now time.Time) ([]Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Invoice
	for code, inv := range m.invoices {
		if inv.Status.IsOpen() && inv.DueAt.Before(now) {
			inv.Status = StatusExpired
			m.invoices[code] = inv
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListPending(_ context.Context, limit int) ([]Invoice, error) {
	return m.filter(limit, func(inv Invoice) bool { return inv.Status.IsOpen() }), nil
}

func (m *memStore) ListByUser(_ context.Context, userID string, limit int) ([]Invoice, error) {
	out := m.filter(0, func(inv Invoice) bool { return inv.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) filter(limit int, keep func(Invoice) bool) []Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Invoice
	for _, inv := range m.invoices {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memStore) Dashboard(context.Context) (*Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := &Dashboard{ProductCount: int64(len(m.products)), ByStatus: map[Status]int64{}}
	for _, p := range m.products {
		d.TotalStock += int64(p.Stock)
	}
	for _, inv := range m.invoices {
		d.ByStatus[inv.Status]++
		if inv.Status == StatusPaid || inv.Status == StatusDone {
			d.Revenue += inv.TotalPrice
		}
	}
	return d, nil
}

func (m *memStore) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) FindByName(_ context.Context, name string) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if strings.EqualFold(p.Name, name) {
			return &p, nil
		}
	}
	return nil, nil
}

// memTx runs with memStore.mu already held.
type memTx struct{ m *memStore }

func (t memTx) InvoiceForUpdate(_ context.Context, code string) (*Invoice, error) {
	inv, ok := t.m.invoices[code]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (t memTx) ProductForUpdate(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := t.m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t memTx) DecrementStock(_ context.Context, productID int64, qty int) (int, error) {
	p := t.m.products[productID]
	if p.Stock < qty {
		return 0, ErrInsufficientStock
	}
	p.Stock -= qty
	t.m.products[productID] = p
	return p.Stock, nil
}

func (t memTx) MarkPaid(_ context.Context, code string, paidAt time.Time, handler string) error {
	if t.m.failMarkPaid != nil {
		return t.m.failMarkPaid
	}
	inv := t.m.invoices[code]
	if inv.PaidAt != nil || !inv.Status.IsOpen() {
		return ErrAlreadySettled
	}
	inv.Status, inv.PaidAt, inv.HandledBy = StatusPaid, &paidAt, handler
	t.m.invoices[code] = inv
	return nil
}

func (t memTx) SetStatus(_ context.Context, code string, st Status, handler string, notes *string) error {
	inv := t.m.invoices[code]
	inv.Status, inv.HandledBy = st, handler
	if notes != nil {
		inv.Notes = *notes
	}
	t.m.invoices[code] = inv
	return nil
}
