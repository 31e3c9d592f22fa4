package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/scope"
)

// Handler exposes catalog endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

type adjustRequest struct {
	Delta *int32 `json:"delta"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

// Products handles GET /api/v1/products with category, search, and pagination.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	params, err := h.service.ParseListParams(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.service.ListProducts(r.Context(), sc, params)
	if err != nil {
		writeError(w, err)
		return
	}
	common.SetTotalCount(w, result.Total)
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.Pagination{Page: result.Page, PerPage: result.Limit, TotalItems: int(result.Total)},
	})
}

// Product handles GET /api/v1/products/{id}.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	sc, id, ok := h.target(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetProduct(r.Context(), sc, id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// CreateProduct handles POST /api/v1/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req ProductInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), sc, req)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/products/"+strconv.FormatInt(p.ID, 10))
	common.JSON(w, http.StatusCreated, map[string]any{"data": p})
}

// UpdateProduct handles PATCH /api/v1/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	sc, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), sc, id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	sc, id, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), sc, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdjustInventory handles POST /api/v1/products/{id}/inventory.
func (h *Handler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	sc, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	if req.Delta == nil || *req.Delta == 0 {
		writeError(w, common.FieldError("delta", "delta must be a non-zero integer", nil))
		return
	}
	p, err := h.service.AdjustInventory(r.Context(), sc, id, *req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	rows, err := h.service.ListCategories(r.Context(), sc)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// CreateCategory handles POST /api/v1/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	c, err := h.service.CreateCategory(r.Context(), sc, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": c})
}

// DeleteCategory handles DELETE /api/v1/categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	sc, id, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(r.Context(), sc, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (scope.Scope, bool) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return scope.Scope{}, false
	}
	sc, err := scope.Require(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return scope.Scope{}, false
	}
	return sc, true
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (scope.Scope, int64, bool) {
	sc, ok := h.scope(w, r)
	if !ok {
		return scope.Scope{}, 0, false
	}
	id, ok := common.ParseID(chi.URLParam(r, "id"))
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return scope.Scope{}, 0, false
	}
	return sc, id, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
	case errors.Is(err, ErrCategoryNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "category not found", nil)
	case errors.Is(err, ErrCategoryExists):
		common.JSONError(w, http.StatusConflict, "CATEGORY_EXISTS", "category already exists", nil)
	case errors.Is(err, inventory.ErrInsufficientInventory):
		common.JSONError(w, http.StatusConflict, "INSUFFICIENT_INVENTORY", "adjustment would make inventory negative", nil)
	case errors.Is(err, scope.ErrMissing):
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
	case common.WriteAppError(w, err):
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
