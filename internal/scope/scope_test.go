package scope_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/scope"
)

func TestResolverInjectsScope(t *testing.T) {
	var got scope.Scope
	handler := scope.Resolver{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := scope.From(r.Context())
		require.True(t, ok)
		got = s
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req = req.WithContext(common.WithUserID(req.Context(), "42"))
	req.Header.Set("X-Cashier-ID", "7")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, int64(42), got.OwnerID)
	require.Equal(t, int64(7), got.Cashier())
}

func TestResolverRejectsMissingUser(t *testing.T) {
	handler := scope.Resolver{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cart", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestResolverRejectsBadCashier(t *testing.T) {
	handler := scope.Resolver{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req = req.WithContext(common.WithUserID(req.Context(), "42"))
	req.Header.Set("X-Cashier-ID", "abc")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCashierFallsBackToOwner(t *testing.T) {
	require.Equal(t, int64(3), scope.Scope{OwnerID: 3}.Cashier())
	_, err := scope.Require(t.Context())
	require.ErrorIs(t, err, scope.ErrMissing)
}
