package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ariefcatur/go-realtime-store/internal/activity"
	"github.com/ariefcatur/go-realtime-store/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	products []Product
	err      error
}

func (m *memStore) Insert(_ context.Context, np NewProduct) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	for _, p := range m.products {
		if strings.EqualFold(p.Name, np.Name) {
			return 0, ErrDuplicateName
		}
	}
	id := int64(len(m.products) + 1)
	m.products = append(m.products, Product{ID: id, Name: np.Name, Price: np.Price, Stock: np.Stock, Description: np.Description})
	return id, nil
}

func (m *memStore) SetStockByName(_ context.Context, name string, stock int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.products {
		if strings.EqualFold(m.products[i].Name, name) {
			m.products[i].Stock = stock
			n++
		}
	}
	return n, nil
}

func (m *memStore) Get(_ context.Context, id int64) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindByName(_ context.Context, name string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if strings.EqualFold(p.Name, name) {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memStore) List(context.Context) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Product(nil), m.products...), nil
}

type auditLog struct{ entries []activity.Entry }

func (a *auditLog) Log(_ context.Context, e activity.Entry) { a.entries = append(a.entries, e) }

var admin = activity.Actor{ID: "1", Name: "owner", Role: activity.RoleAdmin}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()
	audit := &auditLog{}
	svc := NewService(&memStore{}, audit, nil)

	id, err := svc.CreateProduct(ctx, admin, NewProduct{Name: " Widget ", Price: 50000, Stock: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	p, err := svc.GetProduct(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Widget", p.Name)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, activity.ActionAddProduct, audit.entries[0].ActionType)
	assert.Equal(t, "price=50000, stock=10", audit.entries[0].Detail)
}

func TestCreateProductRejectsInvalidInput(t *testing.T) {
	svc := NewService(&memStore{}, nil, nil)
	cases := map[string]NewProduct{
		"blank name":     {Name: "   ", Price: 1},
		"negative price": {Name: "A", Price: -1},
		"negative stock": {Name: "A", Price: 1, Stock: -3},
	}
	for name, np := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), admin, np)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestCreateProductDuplicateNameIgnoresCase(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memStore{}, nil, nil)
	_, err := svc.CreateProduct(ctx, admin, NewProduct{Name: "Widget", Price: 1})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, admin, NewProduct{Name: "WIDGET", Price: 2})
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestSetStock(t *testing.T) {
	ctx := context.Background()
	audit := &auditLog{}
	store := &memStore{}
	svc := NewService(store, audit, nil)
	_, err := svc.CreateProduct(ctx, admin, NewProduct{Name: "Widget", Price: 1, Stock: 1})
	require.NoError(t, err)

	n, err := svc.SetStock(ctx, admin, "widget", 25)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	p, _ := svc.FindByName(ctx, "WIDGET")
	assert.Equal(t, 25, p.Stock)
	assert.Equal(t, "new stock=25", audit.entries[len(audit.entries)-1].Detail)

	n, err = svc.SetStock(ctx, admin, "nothing", 5)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, audit.entries, 2)

	_, err = svc.SetStock(ctx, admin, "widget", -1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetProductMissingIsNil(t *testing.T) {
	p, err := NewService(&memStore{}, nil, nil).GetProduct(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestStoreFailureIsOpaque(t *testing.T) {
	svc := NewService(&memStore{err: errors.New("dial tcp: refused")}, nil, nil)
	_, err := svc.CreateProduct(context.Background(), admin, NewProduct{Name: "A"})
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	assert.Equal(t, "storage failure", err.Error())
}

func TestListProductsKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memStore{}, nil, nil)
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		_, err := svc.CreateProduct(ctx, admin, NewProduct{Name: name, Price: 1})
		require.NoError(t, err)
	}
	ps, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, ps, 3)
	assert.Equal(t, "Zeta", ps[0].Name)
	assert.Equal(t, "Mid", ps[2].Name)
}
