package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/store/storetest"
)

func newServiceWithStore(t *testing.T) (*Service, *storetest.Memory) {
	t.Helper()
	mem := storetest.New()
	svc, err := NewService(Config{
		Queries:         mem,
		Secret:          "super-secret-key",
		AccessTokenTTL:  time.Hour,
		DefaultCurrency: "idr",
		DefaultTaxRate:  decimal.NewFromInt(11),
	})
	require.NoError(t, err)
	return svc, mem
}

func appErrCode(t *testing.T, err error) (string, int) {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code, appErr.HTTPStatus
}

func TestRegisterAppliesDefaults(t *testing.T) {
	svc, mem := newServiceWithStore(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  Ana  ", "Ana@Example.com ", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, "Ana", user.Name)
	require.Equal(t, "ana@example.com", user.Email)
	require.Equal(t, "IDR", user.CurrencyCode)
	require.Equal(t, "11.00", user.TaxRate)

	stored, err := mem.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotEqual(t, "correct-horse", stored.PasswordHash)
	require.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))
}

func TestRegisterRejectsDuplicateAndInvalid(t *testing.T) {
	svc, _ := newServiceWithStore(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@example.com", "correct-horse")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other", "ANA@example.com", "correct-horse")
	code, status := appErrCode(t, err)
	require.Equal(t, "EMAIL_ALREADY_USED", code)
	require.Equal(t, http.StatusConflict, status)

	_, err = svc.Register(ctx, "", "not-an-email", "short")
	code, status = appErrCode(t, err)
	require.Equal(t, "VALIDATION_ERROR", code)
	require.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestLoginAndMe(t *testing.T) {
	svc, _ := newServiceWithStore(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Ana", "ana@example.com", "correct-horse")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ana@example.com", "wrong-password")
	code, status := appErrCode(t, err)
	require.Equal(t, "INVALID_CREDENTIALS", code)
	require.Equal(t, http.StatusUnauthorized, status)

	_, err = svc.Login(ctx, "nobody@example.com", "correct-horse")
	code, _ = appErrCode(t, err)
	require.Equal(t, "INVALID_CREDENTIALS", code)

	result, err := svc.Login(ctx, " ANA@example.com", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, "Bearer", result.TokenType)
	require.Equal(t, registered.ID, result.User.ID)

	subject, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, strconv.FormatInt(registered.ID, 10), subject)

	me, err := svc.Me(ctx, subject)
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", me.Email)

	_, err = svc.Me(ctx, "abc")
	code, _ = appErrCode(t, err)
	require.Equal(t, "UNAUTHORIZED", code)
}

func TestHandlersRegisterLoginMe(t *testing.T) {
	svc, _ := newServiceWithStore(t)
	h := &Handler{Service: svc, Logger: zerolog.Nop()}
	mw := Middleware{Service: svc}

	do := func(handler http.Handler, method, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/", strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.HandlerFunc(h.Register), http.MethodPost, `{"name":"Ana","email":"ana@example.com","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(http.HandlerFunc(h.Register), http.MethodPost, `{"name":"Ana","email":"ana@example.com","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(http.HandlerFunc(h.Register), http.MethodPost, `{`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.HandlerFunc(h.Login), http.MethodPost, `{"email":"ana@example.com","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Data LoginResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Data.AccessToken)

	me := mw.RequireAuth(http.HandlerFunc(h.Me))
	rec = do(me, http.MethodGet, "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(me, http.MethodGet, "", "tampered."+login.Data.AccessToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(me, http.MethodGet, "", login.Data.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"email":"ana@example.com"`)
}
