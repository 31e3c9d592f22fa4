package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestParsePaginationClampsLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/items?page=3&limit=500", nil)
	page, perPage := ParsePagination(req, 20, 100)
	require.Equal(t, 3, page)
	require.Equal(t, 100, perPage)
	require.Equal(t, 200, Offset(page, perPage))

	req = httptest.NewRequest(http.MethodGet, "/items?page=-1&limit=abc", nil)
	page, perPage = ParsePagination(req, 20, 100)
	require.Equal(t, 1, page)
	require.Equal(t, 20, perPage)
	require.Equal(t, 0, Offset(page, perPage))
}

func TestParseID(t *testing.T) {
	id, ok := ParseID(" 42 ")
	require.True(t, ok)
	require.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-3", "abc"} {
		_, ok := ParseID(raw)
		require.False(t, ok, raw)
	}
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	type payload struct {
		Name     string `json:"name" validate:"required"`
		Quantity int    `json:"quantity" validate:"min=1"`
	}
	err := ValidateStruct(payload{Quantity: 0})
	require.Error(t, err)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
	details, ok := appErr.Details.(map[string]any)
	require.True(t, ok)
	fields, ok := details["fields"].(map[string]string)
	require.True(t, ok)
	require.Equal(t, "is required", fields["name"])
	require.Equal(t, "must be at least 1", fields["quantity"])

	require.NoError(t, ValidateStruct(payload{Name: "ok", Quantity: 1}))
}

func TestWriteAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	handled := WriteAppError(rec, FieldError("quantity", "quantity must be positive", nil))
	require.True(t, handled)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	require.Contains(t, rec.Body.String(), "quantity")

	require.False(t, WriteAppError(httptest.NewRecorder(), http.ErrAbortHandler))
}

func TestIdempotencyRejectsReplayAndReleasesFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	status := http.StatusCreated
	calls := 0
	handler := Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req = req.WithContext(WithUserID(req.Context(), "7"))
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusCreated, send().Code)
	replay := send()
	require.Equal(t, http.StatusConflict, replay.Code)
	require.Contains(t, replay.Body.String(), "IDEMPOTENT_REPLAY")
	require.Equal(t, 1, calls)

	mr.FlushAll()
	status = http.StatusUnprocessableEntity
	require.Equal(t, http.StatusUnprocessableEntity, send().Code)
	status = http.StatusCreated
	require.Equal(t, http.StatusCreated, send().Code)
	require.Equal(t, 3, calls)
}

func TestIdempotencyReportsInFlightRequest(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var nested *httptest.ResponseRecorder
	var handler http.Handler
	newRequest := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
		req = req.WithContext(WithUserID(req.Context(), "7"))
		req.Header.Set(IdempotencyHeader, "same")
		return req
	}
	handler = Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if nested == nil {
			nested = httptest.NewRecorder()
			handler.ServeHTTP(nested, newRequest())
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest())
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, http.StatusConflict, nested.Code)
	require.Contains(t, nested.Body.String(), "REQUEST_IN_PROGRESS")
}

func TestIdempotencyReleasesKeyWhenHandlerPanics(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	panics := true
	handler := Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if panics {
			panic("boom")
		}
		w.WriteHeader(http.StatusCreated)
	}))
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req = req.WithContext(WithUserID(req.Context(), "7"))
		req.Header.Set(IdempotencyHeader, "retry-me")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.PanicsWithValue(t, "boom", func() { send() })
	require.Empty(t, mr.Keys())

	panics = false
	require.Equal(t, http.StatusCreated, send().Code)
	require.Len(t, mr.Keys(), 1)
}

func TestOperatorIDRequiresNumericSubject(t *testing.T) {
	ctx := WithUserID(context.Background(), " 42 ")
	id, ok := OperatorID(ctx)
	require.True(t, ok)
	require.Equal(t, int64(42), id)
	subject, ok := UserID(ctx)
	require.True(t, ok)
	require.Equal(t, "42", subject)

	_, ok = OperatorID(WithUserID(context.Background(), "user-1"))
	require.False(t, ok)
	_, ok = UserID(context.Background())
	require.False(t, ok)
}
