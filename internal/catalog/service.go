// Package catalog manages the product list and its stock counts.
package catalog

import (
	"context"
	"fmt"
	"github.com/ariefcatur/go-realtime-store/internal/activity"
	"github.com/ariefcatur/go-realtime-store/internal/apperr"
	"github.com/sirupsen/logrus"
	"strings"
)

// Store is implemented by *Repo. Get and FindByName return nil, nil when
// nothing matches.
type Store interface {
	Insert(ctx context.Context, np NewProduct) (int64, error)
	SetStockByName(ctx context.Context, name string, stock int) (int64, error)
	Get(ctx context.Context, id int64) (*Product, error)
	FindByName(ctx context.Context, name string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
}

type Auditor interface {
	Log(ctx context.Context, e activity.Entry)
}

type Service struct {
	store Store
	audit Auditor
	log   logrus.FieldLogger
}

func NewService(store Store, audit Auditor, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, audit: audit, log: log}
}

func (s *Service) CreateProduct(ctx context.Context, actor activity.Actor, np NewProduct) (int64, error) {
	np.Name = strings.TrimSpace(np.Name)
	switch {
	case np.Name == "":
		return 0, ErrInvalidInput.WithMessage("product name is required")
	case np.Price < 0:
		return 0, ErrInvalidInput.WithMessage("price must not be negative")
	case np.Stock < 0:
		return 0, ErrInvalidInput.WithMessage("stock must not be negative")
	}

	id, err := s.store.Insert(ctx, np)
	if err != nil {
		return 0, apperr.Storage(err)
	}
	s.log.WithFields(logrus.Fields{"product_id": id, "name": np.Name}).Info("product created")
	s.record(ctx, actor.Entry(activity.ActionAddProduct, activity.TargetProduct, np.Name,
		fmt.Sprintf("price=%d, stock=%d", np.Price, np.Stock)))
	return id, nil
}

// SetStock returns the number of products updated; zero is not an error.
func (s *Service) SetStock(ctx context.Context, actor activity.Actor, name string, stock int) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrInvalidInput.WithMessage("product name is required")
	}
	if stock < 0 {
		return 0, ErrInvalidInput.WithMessage("stock must not be negative")
	}
	n, err := s.store.SetStockByName(ctx, name, stock)
	if err != nil {
		return 0, apperr.Storage(err)
	}
	if n > 0 {
		s.record(ctx, actor.Entry(activity.ActionSetStock, activity.TargetProduct, name,
			fmt.Sprintf("new stock=%d", stock)))
	}
	return n, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, err := s.store.Get(ctx, id)
	return p, apperr.Storage(err)
}

func (s *Service) FindByName(ctx context.Context, name string) (*Product, error) {
	p, err := s.store.FindByName(ctx, strings.TrimSpace(name))
	return p, apperr.Storage(err)
}

func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	ps, err := s.store.List(ctx)
	return ps, apperr.Storage(err)
}

func (s *Service) record(ctx context.Context, e activity.Entry) {
	if s.audit != nil {
		s.audit.Log(ctx, e)
	}
}
