package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/lock"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/scope"
)

// Handler exposes checkout over HTTP.
type Handler struct {
	Svc *Service
}

type discountPayload struct {
	Kind  string          `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

type request struct {
	PaymentMethod  string           `json:"payment_method" validate:"required"`
	Discount       *discountPayload `json:"discount"`
	AmountTendered *decimal.Decimal `json:"amount_tendered"`
	ExpectedTotal  *decimal.Decimal `json:"expected_total"`
}

// Checkout handles POST /api/v1/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	sc, err := scope.Require(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		writeError(w, err)
		return
	}
	in := Input{
		PaymentMethod:  req.PaymentMethod,
		AmountTendered: req.AmountTendered,
		ExpectedTotal:  req.ExpectedTotal,
	}
	if req.Discount != nil {
		d, err := pricing.ParseDiscount(req.Discount.Kind, req.Discount.Value)
		if err != nil {
			writeError(w, err)
			return
		}
		in.Discount = d
	}
	res, err := h.Svc.Checkout(r.Context(), sc, in)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/transactions/"+strconv.FormatInt(res.TransactionID, 10))
	common.JSON(w, http.StatusCreated, map[string]any{"data": res})
}

func writeError(w http.ResponseWriter, err error) {
	var short *InsufficientInventoryError
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart is empty", nil)
	case errors.As(err, &short):
		code := "INSUFFICIENT_INVENTORY"
		message := "not enough inventory to settle the cart"
		if errors.Is(err, inventory.ErrProductNotFound) {
			code = "PRODUCT_UNAVAILABLE"
			message = "a product in the cart no longer exists"
		}
		common.JSONError(w, http.StatusConflict, code, message, map[string]any{
			"product_id": short.ProductID,
			"requested":  short.Requested,
		})
	case errors.Is(err, ErrInsufficientTender):
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "amount tendered is less than total", map[string]string{"field": "amount_tendered"})
	case errors.Is(err, ErrLineChanged), errors.Is(err, lock.ErrBusy):
		common.JSONError(w, http.StatusConflict, "CHECKOUT_IN_PROGRESS", "cart is being settled by another request", nil)
	case errors.Is(err, ErrUnknownCashier):
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown cashier", map[string]string{"field": "X-Cashier-ID"})
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
