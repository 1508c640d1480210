// Package invoices is the invoice lifecycle engine: order creation, the
// status graph, atomic pay-and-decrement and the expiry sweep.
package invoices

import (
	"context"
	"fmt"
	"github.com/ariefcatur/go-realtime-store/internal/activity"
	"github.com/ariefcatur/go-realtime-store/internal/apperr"
	"github.com/ariefcatur/go-realtime-store/internal/catalog"
	"github.com/sirupsen/logrus"
	"math"
	"strings"
	"time"
)

const (
	DefaultTTL       = 30 * time.Minute
	defaultListLimit = 20
	maxListLimit     = 100
)

type Auditor interface {
	Log(ctx context.Context, e activity.Entry)
}

// CacheInvalidator drops cached copies of invoices. It runs after commit.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, codes ...string) error
}

type Config struct {
	TTL     time.Duration
	Now     func() time.Time
	NewCode func(now time.Time) (string, error)
	Cache   CacheInvalidator
}

type Service struct {
	store    Store
	products ProductReader
	audit    Auditor
	notifier Notifier
	log      logrus.FieldLogger
	cfg      Config
}

func NewService(store Store, products ProductReader, audit Auditor, notifier Notifier, log logrus.FieldLogger, cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewCode == nil {
		cfg.NewCode = NewCode
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, products: products, audit: audit, notifier: notifier, log: log, cfg: cfg}
}

// CreateInvoice checks live stock without holding it; two orders may both pass
// and the loser is caught by ConfirmPayment.
func (s *Service) CreateInvoice(ctx context.Context, c Customer, ref ProductRef, qty int) (*Invoice, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if strings.TrimSpace(c.ID) == "" {
		return nil, ErrInvalidCustomer
	}

	p, err := s.resolveProduct(ctx, ref)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	if qty > p.Stock {
		return nil, ErrInsufficientStock.WithMessage("only %d of %s left, requested %d", p.Stock, p.Name, qty)
	}
	if p.Price > 0 && int64(qty) > math.MaxInt64/p.Price {
		return nil, ErrInvalidQuantity.WithMessage("quantity %d is too large", qty)
	}

	now := s.cfg.Now()
	code, err := s.cfg.NewCode(now)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	inv := &Invoice{
		Code:        code,
		UserID:      c.ID,
		UserName:    c.Name,
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Quantity:    qty,
		TotalPrice:  p.Price * int64(qty),
		Status:      StatusUnpaid,
		CreatedAt:   now,
		DueAt:       now.Add(s.cfg.TTL),
	}
	if err := s.store.Insert(ctx, inv); err != nil {
		return nil, apperr.Storage(err)
	}

	s.log.WithFields(logrus.Fields{"invoice_code": code, "product_id": p.ID, "qty": qty}).Info("invoice created")
	customer := activity.Actor{ID: c.ID, Name: c.Name, Role: activity.RoleUser}
	s.record(ctx, customer.Entry(activity.ActionCreateOrder, activity.TargetInvoice, code,
		fmt.Sprintf("%s x%d", p.Name, qty)))
	s.emit(ctx, EventInvoiceCreated, payloadOf(inv))
	return inv, nil
}

func (s *Service) resolveProduct(ctx context.Context, ref ProductRef) (*catalog.Product, error) {
	if ref.ID > 0 {
		return s.products.GetProduct(ctx, ref.ID)
	}
	if name := strings.TrimSpace(ref.Name); name != "" {
		return s.products.FindByName(ctx, name)
	}
	return nil, nil
}

// UpdateStatus drives the PROCESSING, DONE and CANCELLED edges. PAID and
// EXPIRED belong to ConfirmPayment and ExpireDue. A missing invoice reports
// false without an error.
func (s *Service) UpdateStatus(ctx context.Context, actor activity.Actor, code string, target string, notes string) (bool, error) {
	to, ok := ParseStatus(target)
	if !ok {
		return false, ErrInvalidStatus.WithMessage("unknown status %q", target)
	}
	if to == StatusPaid || to == StatusExpired {
		return false, ErrInvalidTransition.WithMessage("%s cannot be set directly", to)
	}

	var notesArg *string
	if n := strings.TrimSpace(notes); n != "" {
		notesArg = &n
	}
	handler := handlerOf(actor)

	var before *Invoice
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		inv, err := tx.InvoiceForUpdate(ctx, code)
		if err != nil || inv == nil {
			return err
		}
		if !CanTransition(inv.Status, to) {
			return ErrInvalidTransition.WithMessage("invoice %s cannot move from %s to %s", code, inv.Status, to)
		}
		if err := tx.SetStatus(ctx, code, to, handler, notesArg); err != nil {
			return err
		}
		before = inv
		return nil
	})
	if err != nil {
		return false, apperr.Storage(err)
	}
	if before == nil {
		return false, nil
	}

	action := "SET_" + string(to)
	if to == StatusCancelled {
		action = activity.ActionCancelInvoice
	}
	detail := fmt.Sprintf("%s -> %s", before.Status, to)
	if notesArg != nil {
		detail += ": " + *notesArg
	}
	s.invalidate(ctx, code)
	s.log.WithFields(logrus.Fields{"invoice_code": code, "from": before.Status, "to": to}).Info("invoice status changed")
	s.record(ctx, actor.Entry(action, activity.TargetInvoice, code, detail))

	p := payloadOf(before)
	p.PreviousStatus, p.Status, p.HandledBy = before.Status, to, handler
	s.emit(ctx, EventInvoiceStatusChanged, p)
	return true, nil
}

// ConfirmPayment settles an invoice and takes its quantity out of stock as one
// transaction. The invoice row is locked before the product row.
func (s *Service) ConfirmPayment(ctx context.Context, actor activity.Actor, code string) (*PaymentResult, error) {
	handler := handlerOf(actor)
	var res *PaymentResult
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		inv, err := tx.InvoiceForUpdate(ctx, code)
		if err != nil {
			return err
		}
		if inv == nil {
			return ErrInvoiceNotFound.WithMessage("invoice %s not found", code)
		}
		switch inv.Status {
		case StatusPaid, StatusDone:
			return ErrAlreadySettled.WithMessage("invoice %s is already %s", code, inv.Status)
		case StatusCancelled, StatusExpired:
			return ErrInactive.WithMessage("invoice %s is %s", code, inv.Status)
		}

		p, err := tx.ProductForUpdate(ctx, inv.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrProductMissing.WithMessage("product %s of invoice %s no longer exists", inv.ProductName, code)
		}
		if p.Stock < inv.Quantity {
			return ErrInsufficientStock.WithMessage("only %d of %s left, invoice needs %d", p.Stock, p.Name, inv.Quantity)
		}

		newStock, err := tx.DecrementStock(ctx, p.ID, inv.Quantity)
		if err != nil {
			return err
		}
		paidAt := s.cfg.Now()
		if err := tx.MarkPaid(ctx, code, paidAt, handler); err != nil {
			return err
		}
		res = &PaymentResult{
			InvoiceCode: code,
			UserID:      inv.UserID,
			UserName:    inv.UserName,
			ProductID:   p.ID,
			ProductName: inv.ProductName,
			Quantity:    inv.Quantity,
			TotalPrice:  inv.TotalPrice,
			NewStock:    newStock,
			PaidAt:      paidAt,
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}

	s.invalidate(ctx, code)
	s.log.WithFields(logrus.Fields{"invoice_code": code, "product_id": res.ProductID, "new_stock": res.NewStock}).Info("payment confirmed")
	s.record(ctx, actor.Entry(activity.ActionConfirmPayment, activity.TargetInvoice, code,
		fmt.Sprintf("Produk=%s, Qty=%d, StokSisa=%d", res.ProductName, res.Quantity, res.NewStock)))

	newStock := res.NewStock
	s.emit(ctx, EventInvoicePaid, InvoiceEventPayload{
		InvoiceCode: code,
		UserID:      res.UserID,
		UserName:    res.UserName,
		ProductName: res.ProductName,
		Quantity:    res.Quantity,
		TotalPrice:  res.TotalPrice,
		Status:      StatusPaid,
		HandledBy:   handler,
		NewStock:    &newStock,
	})
	return res, nil
}

// ExpireDue returns the codes it moved to EXPIRED; an empty slice when nothing
// was due. Audit entries are the caller's concern.
func (s *Service) ExpireDue(ctx context.Context) ([]string, error) {
	expired, err := s.store.ExpireDue(ctx, s.cfg.Now())
	if err != nil {
		return nil, apperr.Storage(err)
	}
	codes := make([]string, 0, len(expired))
	for i := range expired {
		codes = append(codes, expired[i].Code)
	}
	s.invalidate(ctx, codes...)
	for i := range expired {
		p := payloadOf(&expired[i])
		p.Status = StatusExpired
		s.emit(ctx, EventInvoiceExpired, p)
	}
	if len(codes) > 0 {
		s.log.WithField("count", len(codes)).Info("invoices expired")
	}
	return codes, nil
}

func (s *Service) GetInvoice(ctx context.Context, code string) (*Invoice, error) {
	inv, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if inv == nil {
		return nil, ErrInvoiceNotFound.WithMessage("invoice %s not found", code)
	}
	return inv, nil
}

func (s *Service) ListPending(ctx context.Context, limit int) ([]Invoice, error) {
	out, err := s.store.ListPending(ctx, clampLimit(limit))
	return out, apperr.Storage(err)
}

func (s *Service) ListByUser(ctx context.Context, userID string, limit int) ([]Invoice, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidCustomer
	}
	out, err := s.store.ListByUser(ctx, userID, clampLimit(limit))
	return out, apperr.Storage(err)
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d, err := s.store.Dashboard(ctx)
	return d, apperr.Storage(err)
}

func (s *Service) record(ctx context.Context, e activity.Entry) {
	if s.audit != nil {
		s.audit.Log(ctx, e)
	}
}

func (s *Service) invalidate(ctx context.Context, codes ...string) {
	if s.cfg.Cache == nil || len(codes) == 0 {
		return
	}
	if err := s.cfg.Cache.Invalidate(ctx, codes...); err != nil {
		s.log.WithError(err).WithField("invoice_codes", codes).Warn("invoice cache invalidate failed")
	}
}

func (s *Service) emit(ctx context.Context, eventType string, p InvoiceEventPayload) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, eventType, p); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"invoice_code": p.InvoiceCode,
			"event_type":   eventType,
		}).Warn("invoice notification failed")
	}
}

func handlerOf(a activity.Actor) string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultListLimit
	case n > maxListLimit:
		return maxListLimit
	}
	return n
}
