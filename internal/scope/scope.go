// Package scope carries the owning-user boundary explicitly through every
// cart, settlement and archive call.
package scope

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// ErrMissing is returned when no scope could be resolved.
var ErrMissing = errors.New("scope: owner missing")

// Scope identifies the owning user and the cashier operating the register.
type Scope struct {
	OwnerID   int64
	CashierID int64
}

// Valid reports whether the scope names an owner.
func (s Scope) Valid() bool {
	return s.OwnerID > 0
}

// Cashier returns the cashier id, falling back to the owner.
func (s Scope) Cashier() int64 {
	if s.CashierID > 0 {
		return s.CashierID
	}
	return s.OwnerID
}

type contextKey string

const scopeContextKey contextKey = "scope.owner"

// With stores the scope inside the context.
func With(ctx context.Context, s Scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scopeContextKey, s)
}

// From extracts the scope from the context if available.
func From(ctx context.Context) (Scope, bool) {
	if ctx == nil {
		return Scope{}, false
	}
	s, ok := ctx.Value(scopeContextKey).(Scope)
	if !ok || !s.Valid() {
		return Scope{}, false
	}
	return s, true
}

// Require is From returning ErrMissing instead of a flag.
func Require(ctx context.Context) (Scope, error) {
	s, ok := From(ctx)
	if !ok {
		return Scope{}, ErrMissing
	}
	return s, nil
}

// Resolver derives the scope from the authenticated user id placed on the
// context by the auth middleware. An optional header names a different cashier.
type Resolver struct {
	CashierHeader string
}

// Middleware resolves the scope and rejects requests without one.
func (r Resolver) Middleware(next http.Handler) http.Handler {
	header := r.CashierHeader
	if header == "" {
		header = "X-Cashier-ID"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		owner, ok := common.OperatorID(req.Context())
		if !ok {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		s := Scope{OwnerID: owner}
		if value := strings.TrimSpace(req.Header.Get(header)); value != "" {
			cashier, err := strconv.ParseInt(value, 10, 64)
			if err != nil || cashier <= 0 {
				common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cashier id", map[string]string{"field": header})
				return
			}
			s.CashierID = cashier
		}
		next.ServeHTTP(w, req.WithContext(With(req.Context(), s)))
	})
}
