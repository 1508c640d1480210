package httpx

import (
	"context"
	"github.com/ariefcatur/go-realtime-store/internal/activity"
	"github.com/ariefcatur/go-realtime-store/internal/invoices"
	"github.com/ariefcatur/go-realtime-store/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type InvoiceService interface {
	CreateInvoice(ctx context.Context, c invoices.Customer, ref invoices.ProductRef, qty int) (*invoices.Invoice, error)
	UpdateStatus(ctx context.Context, actor activity.Actor, code, target, notes string) (bool, error)
	ConfirmPayment(ctx context.Context, actor activity.Actor, code string) (*invoices.PaymentResult, error)
	GetInvoice(ctx context.Context, code string) (*invoices.Invoice, error)
	ListPending(ctx context.Context, limit int) ([]invoices.Invoice, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]invoices.Invoice, error)
	Dashboard(ctx context.Context) (*invoices.Dashboard, error)
}

// InvoiceCache is read-through only here; the engine invalidates after commit.
type InvoiceCache interface {
	Get(ctx context.Context, code string) (*invoices.Invoice, error)
	Version(ctx context.Context, code string) (string, error)
	SetIfCurrent(ctx context.Context, inv *invoices.Invoice, version string) (bool, error)
}

type ActivityReader interface {
	Recent(ctx context.Context, limit int) ([]activity.Entry, error)
}

type Auditor interface {
	Log(ctx context.Context, e activity.Entry)
}

const idemPending = "pending"

type InvoicesHandler struct {
	Invoices  InvoiceService
	Cache     InvoiceCache
	Redis     redis.Cmdable
	Activity  ActivityReader
	Audit     Auditor
	Log       logrus.FieldLogger
	OrderRate int // per actor per minute; 0 disables

	validate *validator.Validate
	lookups  singleflight.Group
}

type CreateInvoiceReq struct {
	ProductID   int64  `json:"product_id" validate:"required_without=ProductName"`
	ProductName string `json:"product_name" validate:"max=100"`
	Quantity    int    `json:"quantity"`
}

type CreateInvoiceResp struct {
	Invoice    *invoices.Invoice `json:"invoice"`
	Idempotent bool              `json:"idempotent"`
}

type UpdateStatusReq struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes" validate:"max=500"`
}

func (h *InvoicesHandler) Register(r chi.Router) {
	if h.validate == nil {
		h.validate = validator.New()
	}
	create := http.Handler(http.HandlerFunc(h.create))
	if h.OrderRate > 0 {
		create = httprate.Limit(h.OrderRate, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return ActorFrom(r.Context()).ID, nil
		}))(create)
	}
	r.Method(http.MethodPost, "/invoices", create)
	r.Get("/invoices", h.listByUser)
	r.Get("/invoices/{code}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(RequireStaff)
		r.Get("/invoices/pending", h.listPending)
		r.Post("/invoices/{code}/pay", h.pay)
		r.Post("/invoices/{code}/status", h.updateStatus)
		r.Get("/dashboard", h.dashboard)
		r.Get("/logs", h.logs)
	})
}

func (h *InvoicesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceReq
	if !decode(w, r, h.validate, &req) {
		return
	}
	ctx := r.Context()
	actor := ActorFrom(ctx)

	idemKey := ""
	if k := strings.TrimSpace(r.Header.Get("Idempotency-Key")); k != "" && h.Redis != nil {
		idemKey = redisx.IdemInvoiceCreateKey(actor.ID, k)
		first, err := redisx.Claim(ctx, h.Redis, idemKey, idemPending, redisx.TTLIdempotency)
		switch {
		case err != nil:
			h.Log.WithError(err).Warn("idempotency claim failed")
			idemKey = ""
		case !first:
			h.replay(w, r, idemKey)
			return
		}
	}

	inv, err := h.Invoices.CreateInvoice(ctx, invoices.Customer{ID: actor.ID, Name: actor.Name},
		invoices.ProductRef{ID: req.ProductID, Name: req.ProductName}, req.Quantity)
	if err != nil {
		if idemKey != "" {
			_ = h.Redis.Del(ctx, idemKey).Err()
		}
		respondError(w, h.Log, err)
		return
	}
	if idemKey != "" {
		_ = h.Redis.Set(ctx, idemKey, inv.Code, redisx.TTLIdempotency).Err()
	}
	writeJSON(w, http.StatusCreated, CreateInvoiceResp{Invoice: inv})
}

func (h *InvoicesHandler) replay(w http.ResponseWriter, r *http.Request, idemKey string) {
	code, found, err := redisx.Lookup(r.Context(), h.Redis, idemKey)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if !found || code == idemPending {
		problem(w, http.StatusConflict, "Conflict", "request with this Idempotency-Key is still in progress", "idempotency_in_progress")
		return
	}
	inv, err := h.lookup(r.Context(), code)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, CreateInvoiceResp{Invoice: inv, Idempotent: true})
}

func (h *InvoicesHandler) get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	actor := ActorFrom(r.Context())
	inv, err := h.lookup(r.Context(), code)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if !actor.Role.IsStaff() && inv.UserID != actor.ID {
		respondError(w, h.Log, invoices.ErrInvoiceNotFound)
		return
	}
	if actor.Role.IsStaff() && h.Audit != nil {
		h.Audit.Log(r.Context(), actor.Entry(activity.ActionLookupInvoice, activity.TargetInvoice, code, ""))
	}
	writeJSON(w, http.StatusOK, inv)
}

// lookup serves invoices from Redis and collapses concurrent misses for the
// same code and cache version into one database read. A read that overlaps an
// invalidation is returned to its callers but never cached.
func (h *InvoicesHandler) lookup(ctx context.Context, code string) (*invoices.Invoice, error) {
	if h.Cache == nil {
		return h.Invoices.GetInvoice(ctx, code)
	}
	if inv, err := h.Cache.Get(ctx, code); err != nil {
		h.Log.WithError(err).Warn("invoice cache read failed")
	} else if inv != nil {
		return inv, nil
	}
	ver, err := h.Cache.Version(ctx, code)
	if err != nil {
		h.Log.WithError(err).Warn("invoice cache version read failed")
		return h.Invoices.GetInvoice(ctx, code)
	}

	ch := h.lookups.DoChan(code+"@"+ver, func() (interface{}, error) {
		// shared by every waiter, so it must outlive the first caller
		bg := context.WithoutCancel(ctx)
		inv, err := h.Invoices.GetInvoice(bg, code)
		if err != nil {
			return nil, err
		}
		if ok, err := h.Cache.SetIfCurrent(bg, inv, ver); err != nil {
			h.Log.WithError(err).Warn("invoice cache write failed")
		} else if !ok {
			h.Log.WithField("invoice_code", code).Debug("invoice changed during lookup, not cached")
		}
		return inv, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*invoices.Invoice), nil
	}
}

func (h *InvoicesHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = actor.ID
	}
	if userID != actor.ID && !actor.Role.IsStaff() {
		problem(w, http.StatusForbidden, "Forbidden", "helper or admin role required", "")
		return
	}
	out, err := h.Invoices.ListByUser(r.Context(), userID, limitParam(r))
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(out))
}

func (h *InvoicesHandler) listPending(w http.ResponseWriter, r *http.Request) {
	out, err := h.Invoices.ListPending(r.Context(), limitParam(r))
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(out))
}

func (h *InvoicesHandler) pay(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	res, err := h.Invoices.ConfirmPayment(r.Context(), ActorFrom(r.Context()), code)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *InvoicesHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusReq
	if !decode(w, r, h.validate, &req) {
		return
	}
	actor := ActorFrom(r.Context())
	if st, ok := invoices.ParseStatus(req.Status); ok && st == invoices.StatusCancelled && !actor.Role.IsAdmin() {
		problem(w, http.StatusForbidden, "Forbidden", "only admins can cancel invoices", "")
		return
	}
	code := chi.URLParam(r, "code")
	changed, err := h.Invoices.UpdateStatus(r.Context(), actor, code, req.Status, req.Notes)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if !changed {
		respondError(w, h.Log, invoices.ErrInvoiceNotFound.WithMessage("invoice %s not found", code))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": true})
}

func (h *InvoicesHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Invoices.Dashboard(r.Context())
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *InvoicesHandler) logs(w http.ResponseWriter, r *http.Request) {
	if h.Activity == nil {
		writeJSON(w, http.StatusOK, []activity.Entry{})
		return
	}
	out, err := h.Activity.Recent(r.Context(), limitParam(r))
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if out == nil {
		out = []activity.Entry{}
	}
	writeJSON(w, http.StatusOK, out)
}

func limitParam(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return n
}

func nonNil(in []invoices.Invoice) []invoices.Invoice {
	if in == nil {
		return []invoices.Invoice{}
	}
	return in
}
