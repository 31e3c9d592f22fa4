package analytics

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/scope"
)

// Handler exposes analytics read endpoints.
type Handler struct {
	Svc *Service
}

// Sales handles GET /api/v1/analytics/sales?from=&to=&days=.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	sc, from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	report, err := h.Svc.SalesRange(r.Context(), sc, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": report})
}

// TopProducts handles GET /api/v1/analytics/top-products?from=&to=&limit=.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	sc, from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 10)
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := h.Svc.TopProducts(r.Context(), sc, from, to, int32(limit))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// window resolves the reporting range. Dates are whole days: to=2024-03-02
// includes that day. Without from and to the last days (or the default range)
// ending now are used.
func (h *Handler) window(w http.ResponseWriter, r *http.Request) (scope.Scope, time.Time, time.Time, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_NOT_CONFIGURED", "analytics service not configured", nil)
		return scope.Scope{}, time.Time{}, time.Time{}, false
	}
	sc, err := scope.Require(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return scope.Scope{}, time.Time{}, time.Time{}, false
	}
	query := r.URL.Query()
	fromStr, toStr := strings.TrimSpace(query.Get("from")), strings.TrimSpace(query.Get("to"))
	if fromStr == "" && toStr == "" {
		from, to := h.Svc.Window()
		if raw := query.Get("days"); raw != "" {
			if days := common.AtoiDefault(raw, 0); days > 0 {
				from = to.AddDate(0, 0, -days)
			}
		}
		return sc, from, to, true
	}
	from, err := parseBound(fromStr, false)
	if err != nil || fromStr == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid from date", nil)
		return scope.Scope{}, time.Time{}, time.Time{}, false
	}
	to, err := parseBound(toStr, true)
	if err != nil || toStr == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid to date", nil)
		return scope.Scope{}, time.Time{}, time.Time{}, false
	}
	return sc, from, to, true
}

func parseBound(raw string, upper bool) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		if upper {
			return t.AddDate(0, 0, 1), nil
		}
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRange):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "from must be before to", nil)
	case errors.Is(err, scope.ErrMissing):
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_ERROR", "analytics query failed", nil)
	}
}
