package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func limited(max int64, captured *string) http.Handler {
	return BodyLimit{Max: max}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if captured != nil {
			*captured = string(data)
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestBodyLimitAllowsWithinLimit(t *testing.T) {
	var captured string
	rr := httptest.NewRecorder()
	limited(64, &captured).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"product_id":1}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, `{"product_id":1}`, captured)
}

func TestBodyLimitRejectsOversized(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader("excessive"))
	req.ContentLength = -1
	rr := httptest.NewRecorder()
	limited(5, nil).ServeHTTP(rr, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Contains(t, rr.Body.String(), "PAYLOAD_TOO_LARGE")
}

func TestBodyLimitRejectsDeclaredLength(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader("content"))
	req.ContentLength = 100
	rr := httptest.NewRecorder()
	limited(5, nil).ServeHTTP(rr, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestBodyLimitDisabled(t *testing.T) {
	var captured string
	rr := httptest.NewRecorder()
	limited(0, &captured).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("anything goes")))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "anything goes", captured)
}
