package archive

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/scope"
)

const dateLayout = "2006-01-02"

// Handler exposes the archive over HTTP.
type Handler struct {
	Svc          *Service
	DefaultLimit int
	MaxLimit     int
}

type cancelRequest struct {
	Restock bool `json:"restock"`
}

// List handles GET /api/v1/transactions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	from, err := parseTime(query.Get("from"), false)
	if err != nil {
		writeError(w, common.FieldError("from", "from must be a date (YYYY-MM-DD) or RFC3339 timestamp", err))
		return
	}
	to, err := parseTime(query.Get("to"), true)
	if err != nil {
		writeError(w, common.FieldError("to", "to must be a date (YYYY-MM-DD) or RFC3339 timestamp", err))
		return
	}
	defaultLimit := h.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	maxLimit := h.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}
	page, perPage := common.ParsePagination(r, defaultLimit, maxLimit)
	items, total, err := h.Svc.List(r.Context(), sc, Filter{
		From:    from,
		To:      to,
		Query:   query.Get("q"),
		Status:  query.Get("status"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	common.SetTotalCount(w, total)
	common.JSON(w, http.StatusOK, map[string]any{
		"data": items,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Get handles GET /api/v1/transactions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sc, id, ok := h.target(w, r)
	if !ok {
		return
	}
	v, err := h.Svc.Get(r.Context(), sc, id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": v})
}

// Receipt handles GET /api/v1/transactions/{id}/receipt.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	sc, id, ok := h.target(w, r)
	if !ok {
		return
	}
	rc, err := h.Svc.Receipt(r.Context(), sc, id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rc})
}

// Transition returns a handler for POST /api/v1/transactions/{id}/{action}.
// Cancel accepts an optional {"restock": true} body.
func (h *Handler) Transition(action Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, id, ok := h.target(w, r)
		if !ok {
			return
		}
		var req cancelRequest
		if action == ActionCancel && r.Body != nil {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
				return
			}
		}
		res, err := h.Svc.Transition(r.Context(), sc, id, action, req.Restock)
		if err != nil {
			writeError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": res})
	}
}

// Restock handles POST /api/v1/transactions/{id}/restock.
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	sc, id, ok := h.target(w, r)
	if !ok {
		return
	}
	res, err := h.Svc.Restock(r.Context(), sc, id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (scope.Scope, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "archive service not configured", nil)
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
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid transaction id", nil)
		return scope.Scope{}, 0, false
	}
	return sc, id, true
}

// parseTime accepts a calendar date or an RFC3339 timestamp. A date used as an
// upper bound covers the whole day.
func parseTime(raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		if endOfDay {
			return t.Add(24*time.Hour - time.Nanosecond), nil
		}
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "transaction not found", nil)
	case errors.Is(err, ErrInvalidTransition):
		common.JSONError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, ErrNotCanceled):
		common.JSONError(w, http.StatusConflict, "INVALID_TRANSITION", "only canceled transactions can be restocked", nil)
	case errors.Is(err, ErrAlreadyRestocked):
		common.JSONError(w, http.StatusConflict, "ALREADY_RESTOCKED", "transaction already restocked", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, scope.ErrMissing):
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
	case common.WriteAppError(w, err):
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
