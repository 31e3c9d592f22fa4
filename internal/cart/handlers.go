package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/scope"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc *Service
}

type addItemRequest struct {
	ProductID int64            `json:"product_id" validate:"required,gt=0"`
	Quantity  int32            `json:"quantity" validate:"gte=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type setQuantityRequest struct {
	Quantity *int32 `json:"quantity"`
}

// DiscountPayload is the wire form of a discount.
type DiscountPayload struct {
	Kind  string          `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// Discount converts the payload, treating nil as no discount.
func (p *DiscountPayload) Discount() (pricing.Discount, error) {
	if p == nil {
		return pricing.Discount{}, nil
	}
	return pricing.ParseDiscount(p.Kind, p.Value)
}

type previewItem struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int32           `json:"quantity" validate:"gte=1"`
}

type previewRequest struct {
	Discount *DiscountPayload `json:"discount"`
	Items    []previewItem    `json:"items" validate:"omitempty,dive"`
}

// Get handles GET /api/v1/cart. Optional discount_kind and discount_value
// query parameters feed the pricing block.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	discount, err := discountFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.Svc.View(r.Context(), sc, discount)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// AddItem handles POST /api/v1/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		writeError(w, err)
		return
	}
	line, err := h.Svc.Add(r.Context(), sc, AddInput{ProductID: req.ProductID, Quantity: req.Quantity, UnitPrice: req.UnitPrice})
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": line})
}

// UpdateItem handles PATCH /api/v1/cart/items/{id}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	lineID, ok := common.ParseID(chi.URLParam(r, "id"))
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart item id", nil)
		return
	}
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	if req.Quantity == nil {
		writeError(w, common.FieldError("quantity", "quantity is required", nil))
		return
	}
	line, removed, err := h.Svc.SetQuantity(r.Context(), sc, lineID, *req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	if removed {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": line})
}

// RemoveItem handles DELETE /api/v1/cart/items/{id}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	lineID, ok := common.ParseID(chi.URLParam(r, "id"))
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart item id", nil)
		return
	}
	if err := h.Svc.Remove(r.Context(), sc, lineID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/v1/cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	if _, err := h.Svc.Clear(r.Context(), sc); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview handles POST /api/v1/pricing/preview. Without items the current
// cart is priced; with items the supplied snapshot is priced instead.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		writeError(w, err)
		return
	}
	discount, err := req.Discount.Discount()
	if err != nil {
		writeError(w, err)
		return
	}
	var items []pricing.Item
	if len(req.Items) > 0 {
		items = make([]pricing.Item, 0, len(req.Items))
		for _, it := range req.Items {
			if it.UnitPrice.IsNegative() {
				writeError(w, common.FieldError("items.unit_price", "unit_price must not be negative", nil))
				return
			}
			items = append(items, pricing.Item{Qty: int(it.Quantity), UnitPrice: it.UnitPrice})
		}
	} else {
		lines, err := h.Svc.List(r.Context(), sc)
		if err != nil {
			writeError(w, err)
			return
		}
		items = Items(lines)
	}
	summary, currency, err := h.Svc.Price(r.Context(), sc, items, discount)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"pricing": summary, "currency": currency}})
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (scope.Scope, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return scope.Scope{}, false
	}
	sc, err := scope.Require(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return scope.Scope{}, false
	}
	return sc, true
}

func discountFromQuery(r *http.Request) (pricing.Discount, error) {
	kind := strings.TrimSpace(r.URL.Query().Get("discount_kind"))
	raw := strings.TrimSpace(r.URL.Query().Get("discount_value"))
	if kind == "" && raw == "" {
		return pricing.Discount{}, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return pricing.Discount{}, common.FieldError("discount_value", "discount_value must be a number", err)
	}
	return pricing.ParseDiscount(kind, value)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart item not found", nil)
	case errors.Is(err, ErrProductNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
	case errors.Is(err, inventory.ErrOutOfStock):
		common.JSONError(w, http.StatusConflict, "OUT_OF_STOCK", "requested quantity exceeds available inventory", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, pricing.ErrInvalidDiscount):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), map[string]string{"field": "discount"})
	case errors.Is(err, scope.ErrMissing):
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
	case common.WriteAppError(w, err):
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
