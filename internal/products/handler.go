package products

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/inventario/internal/platform/httpx"
)

// Handler wires HTTP endpoints for products.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the product handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: httpx.NewValidator()}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/low-stock", h.lowStock)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
	})
}

type productRequest struct {
	Name       string              `json:"name" validate:"required"`
	Price      decimal.Decimal     `json:"price"`
	CostPrice  decimal.NullDecimal `json:"cost_price"`
	Stock      int                 `json:"stock" validate:"gte=0"`
	MinStock   *int                `json:"min_stock" validate:"omitempty,gte=0"`
	CategoryID *int64              `json:"category_id" validate:"omitempty,gt=0"`
	BrandID    *int64              `json:"brand_id" validate:"omitempty,gt=0"`
}

func (req productRequest) input() Input {
	return Input{
		Name:       req.Name,
		Price:      req.Price,
		CostPrice:  req.CostPrice,
		Stock:      req.Stock,
		MinStock:   req.MinStock,
		CategoryID: req.CategoryID,
		BrandID:    req.BrandID,
	}
}

// Response decorates a product with its derived values.
type Response struct {
	Product
	Margin   decimal.Decimal `json:"margin"`
	LowStock bool            `json:"low_stock"`
}

// NewResponse builds the API representation of p.
func NewResponse(p Product) Response {
	return Response{Product: p, Margin: p.Margin(), LowStock: p.LowStock()}
}

func newResponses(list []Product) []Response {
	out := make([]Response, 0, len(list))
	for _, p := range list {
		out = append(out, NewResponse(p))
	}
	return out
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Search: r.URL.Query().Get("search"),
		Limit:  httpx.QueryInt(r, "limit", 0),
		Offset: httpx.QueryInt(r, "offset", 0),
	}
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newResponses(list))
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.LowStock(r.Context(), httpx.QueryInt(r, "limit", 0))
	if err != nil {
		h.logger.Error("list low stock failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newResponses(list))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewResponse(p))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !httpx.DecodeAndValidate(w, r, h.validate, &req) {
		return
	}
	p, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		h.logger.Warn("create product failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("product created", slog.Int64("product_id", p.ID), slog.String("name", p.Name))
	httpx.JSON(w, http.StatusCreated, NewResponse(p))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req productRequest
	if !httpx.DecodeAndValidate(w, r, h.validate, &req) {
		return
	}
	p, err := h.service.Update(r.Context(), id, req.input())
	if err != nil {
		h.logger.Warn("update product failed", slog.Any("error", err), slog.Int64("product_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewResponse(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Warn("delete product failed", slog.Any("error", err), slog.Int64("product_id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
