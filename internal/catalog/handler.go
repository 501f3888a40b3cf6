package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/inventario/internal/platform/httpx"
)

// Handler exposes categories and brands over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the category and brand handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: httpx.NewValidator()}
}

// MountCategoryRoutes registers /categories routes.
func (h *Handler) MountCategoryRoutes(r chi.Router) {
	r.Get("/", h.listCategories)
	r.Post("/", h.createCategory)
	r.Get("/{id}", h.getCategory)
	r.Put("/{id}", h.updateCategory)
	r.Delete("/{id}", h.deleteCategory)
}

// MountBrandRoutes registers /brands routes.
func (h *Handler) MountBrandRoutes(r chi.Router) {
	r.Get("/", h.listBrands)
	r.Post("/", h.createBrand)
	r.Get("/{id}", h.getBrand)
	r.Put("/{id}", h.updateBrand)
	r.Delete("/{id}", h.deleteBrand)
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type brandRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	CategoryIDs []int64 `json:"category_ids" validate:"omitempty,dive,gt=0"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Category{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	h.saveCategory(w, r, 0, http.StatusCreated)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.saveCategory(w, r, id, http.StatusOK)
}

func (h *Handler) saveCategory(w http.ResponseWriter, r *http.Request, id int64, status int) {
	var req categoryRequest
	if !httpx.DecodeAndValidate(w, r, h.validate, &req) {
		return
	}
	c, err := h.service.SaveCategory(r.Context(), Category{ID: id, Name: req.Name})
	if err != nil {
		h.logger.Warn("save category failed", slog.Any("error", err), slog.Int64("category_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, status, c)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		h.logger.Warn("delete category failed", slog.Any("error", err), slog.Int64("category_id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listBrands(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListBrands(r.Context())
	if err != nil {
		h.logger.Error("list brands failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Brand{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getBrand(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	b, err := h.service.GetBrand(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) createBrand(w http.ResponseWriter, r *http.Request) {
	h.saveBrand(w, r, 0, http.StatusCreated)
}

func (h *Handler) updateBrand(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.saveBrand(w, r, id, http.StatusOK)
}

func (h *Handler) saveBrand(w http.ResponseWriter, r *http.Request, id int64, status int) {
	var req brandRequest
	if !httpx.DecodeAndValidate(w, r, h.validate, &req) {
		return
	}
	b, err := h.service.SaveBrand(r.Context(), Brand{ID: id, Name: req.Name, CategoryIDs: req.CategoryIDs})
	if err != nil {
		h.logger.Warn("save brand failed", slog.Any("error", err), slog.Int64("brand_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, status, b)
}

func (h *Handler) deleteBrand(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteBrand(r.Context(), id); err != nil {
		h.logger.Warn("delete brand failed", slog.Any("error", err), slog.Int64("brand_id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
