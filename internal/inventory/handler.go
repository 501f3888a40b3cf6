package inventory

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/inventario/internal/platform/httpx"
	"github.com/odyssey-erp/inventario/internal/products"
	"github.com/odyssey-erp/inventario/internal/shared"
)

// IdempotencyHeader carries the optional client key of a sell request.
const IdempotencyHeader = "Idempotency-Key"

const exportLimit = 10000

// Handler wires HTTP endpoints for the sales ledger.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: httpx.NewValidator()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleSell)
	r.Get("/summary", h.handleSummary)
	r.Get("/export.xlsx", h.handleExport)
	r.Get("/{id}", h.handleGet)
	r.Delete("/{id}", h.handleDelete)
}

type sellRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type sellResponse struct {
	Product products.Response `json:"product"`
	Sale    Sale              `json:"sale"`
}

func (h *Handler) handleSell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if !httpx.DecodeAndValidate(w, r, h.validate, &req) {
		return
	}
	res, err := h.service.Sell(r.Context(), SellInput{
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		IdempotencyKey: r.Header.Get(IdempotencyHeader),
	})
	if err != nil {
		h.logger.Warn("sell failed", slog.Any("error", err), slog.Int64("product_id", req.ProductID), slog.Int("quantity", req.Quantity))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sellResponse{Product: products.NewResponse(res.Product), Sale: res.Sale})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSalesFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sales, err := h.service.ListSales(r.Context(), filter)
	if err != nil {
		h.logger.Error("list sales failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if sales == nil {
		sales = []Sale{}
	}
	httpx.JSON(w, http.StatusOK, sales)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.GetSale(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.DeleteSale(r.Context(), id)
	if err != nil {
		h.logger.Warn("delete sale failed", slog.Any("error", err), slog.Int64("sale_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSalesFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sum, err := h.service.Summary(r.Context(), filter.From, filter.To)
	if err != nil {
		h.logger.Error("sales summary failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSalesFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter.Limit, filter.Offset = exportLimit, 0
	sales, err := h.service.ListSales(r.Context(), filter)
	if err != nil {
		h.logger.Error("export sales failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := WriteSalesXLSX(&buf, sales); err != nil {
		h.logger.Error("render sales workbook failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ventas_%s.xlsx"`, time.Now().Format("20060102_150405")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// parseSalesFilter reads from/to as dates (2006-01-02) or RFC3339 instants.
// A plain date in "to" includes that whole day.
func parseSalesFilter(r *http.Request) (SalesFilter, error) {
	q := r.URL.Query()
	filter := SalesFilter{
		Limit:  httpx.QueryInt(r, "limit", 0),
		Offset: httpx.QueryInt(r, "offset", 0),
	}
	var err error
	if filter.From, err = parseBound(q.Get("from"), false); err != nil {
		return SalesFilter{}, fmt.Errorf("invalid from: %w", err)
	}
	if filter.To, err = parseBound(q.Get("to"), true); err != nil {
		return SalesFilter{}, fmt.Errorf("invalid to: %w", err)
	}
	if raw := q.Get("product_id"); raw != "" {
		id, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || id <= 0 {
			return SalesFilter{}, fmt.Errorf("invalid product_id %q: %w", raw, shared.ErrInvalidArgument)
		}
		filter.ProductID = id
	}
	return filter, nil
}

func parseBound(raw string, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		if endOfDay {
			t = t.Add(24 * time.Hour)
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", raw, shared.ErrInvalidArgument)
	}
	return t, nil
}
