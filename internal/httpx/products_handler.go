package httpx

import (
	"context"
	"encoding/json"
	"github.com/ariefcatur/go-realtime-store/internal/activity"
	"github.com/ariefcatur/go-realtime-store/internal/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"net/http"
	"strconv"
)

type ProductService interface {
	CreateProduct(ctx context.Context, actor activity.Actor, np catalog.NewProduct) (int64, error)
	SetStock(ctx context.Context, actor activity.Actor, name string, stock int) (int64, error)
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
	ListProducts(ctx context.Context) ([]catalog.Product, error)
}

type ProductsHandler struct {
	Products ProductService
	Log      logrus.FieldLogger
	validate *validator.Validate
}

type CreateProductReq struct {
	Name        string `json:"name" validate:"required,max=100"`
	Price       int64  `json:"price" validate:"gte=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
	Description string `json:"description" validate:"max=1000"`
}

type SetStockReq struct {
	Name  string `json:"name" validate:"required"`
	Stock *int   `json:"stock" validate:"required,gte=0"`
}

func NewProductsHandler(products ProductService, log logrus.FieldLogger) *ProductsHandler {
	return &ProductsHandler{Products: products, Log: log, validate: validator.New()}
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
	r.With(RequireAdmin).Post("/products", h.create)
	r.With(RequireAdmin).Put("/products/stock", h.setStock)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Products.ListProducts(r.Context())
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if ps == nil {
		ps = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id", "")
		return
	}
	p, err := h.Products.GetProduct(r.Context(), id)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if p == nil {
		problem(w, http.StatusNotFound, "Not Found", "product not found", "product_not_found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductReq
	if !decode(w, r, h.validate, &req) {
		return
	}
	id, err := h.Products.CreateProduct(r.Context(), ActorFrom(r.Context()), catalog.NewProduct{
		Name:        req.Name,
		Price:       req.Price,
		Stock:       req.Stock,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *ProductsHandler) setStock(w http.ResponseWriter, r *http.Request) {
	var req SetStockReq
	if !decode(w, r, h.validate, &req) {
		return
	}
	n, err := h.Products.SetStock(r.Context(), ActorFrom(r.Context()), req.Name, *req.Stock)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if n == 0 {
		problem(w, http.StatusNotFound, "Not Found", "product not found", "product_not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// decode reads a JSON body into dst and validates it, writing the 400 itself.
func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		problem(w, http.StatusBadRequest, "Validation Failed", "invalid json", "")
		return false
	}
	if err := v.Struct(dst); err != nil {
		problem(w, http.StatusBadRequest, "Validation Failed", err.Error(), "")
		return false
	}
	return true
}
