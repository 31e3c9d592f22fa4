package settings

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/common"
	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/scope"
	"github.com/noah-isme/backend-kasir/internal/store/storetest"
)

func strPtr(v string) *string { return &v }

func newService(t *testing.T) (*Service, *storetest.Memory, dbgen.User) {
	t.Helper()
	mem := storetest.New()
	owner := mem.SeedUser(dbgen.User{
		Name:         "Owner",
		Email:        "owner@example.com",
		CurrencyCode: "USD",
		TaxRate:      decimal.RequireFromString("8"),
		StoreName:    common.Text("Corner Shop"),
	})
	return &Service{Q: mem, DefaultTaxRate: decimal.NewFromInt(5)}, mem, owner
}

func TestUpdateIsPartial(t *testing.T) {
	svc, _, owner := newService(t)
	rate := decimal.RequireFromString("7.5")

	out, err := svc.Update(context.Background(), owner.ID, Patch{TaxRate: &rate, ReceiptFooter: strPtr("Thanks!")})
	require.NoError(t, err)
	require.Equal(t, "7.5", out.TaxRate.String())
	require.Equal(t, "USD", out.CurrencyCode)
	require.NotNil(t, out.StoreName)
	require.Equal(t, "Corner Shop", *out.StoreName)
	require.Equal(t, "Thanks!", *out.ReceiptFooter)

	out, err = svc.Update(context.Background(), owner.ID, Patch{StoreName: strPtr(""), CurrencyCode: strPtr("idr")})
	require.NoError(t, err)
	require.Nil(t, out.StoreName)
	require.Equal(t, "IDR", out.CurrencyCode)
	require.Equal(t, "7.5", out.TaxRate.String())
}

func TestUpdateValidates(t *testing.T) {
	svc, mem, owner := newService(t)
	ctx := context.Background()

	tooHigh := decimal.NewFromInt(31)
	_, err := svc.Update(ctx, owner.ID, Patch{TaxRate: &tooHigh})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)

	negative := decimal.NewFromInt(-1)
	_, err = svc.Update(ctx, owner.ID, Patch{TaxRate: &negative})
	require.ErrorAs(t, err, &appErr)

	_, err = svc.Update(ctx, owner.ID, Patch{CurrencyCode: strPtr("EURO")})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)

	_, err = svc.Update(ctx, owner.ID, Patch{StoreEmail: strPtr("not-an-email")})
	require.ErrorAs(t, err, &appErr)

	_, err = svc.Update(ctx, owner.ID, Patch{LogoURL: strPtr("nope")})
	require.ErrorAs(t, err, &appErr)

	require.Zero(t, mem.CallCount("UpdateUserSettings"))
}

func TestTaxRateFallsBackForUnknownOwner(t *testing.T) {
	svc, mem, owner := newService(t)

	rate, err := svc.TaxRate(context.Background(), mem, owner.ID)
	require.NoError(t, err)
	require.Equal(t, "8", rate.String())

	rate, err = svc.TaxRate(context.Background(), nil, 9999)
	require.NoError(t, err)
	require.Equal(t, "5", rate.String())

	_, err = svc.Get(context.Background(), 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHandlerUpdate(t *testing.T) {
	svc, _, owner := newService(t)
	h := &Handler{Svc: svc}

	body := bytes.NewBufferString(`{"tax_rate":"10","store_email":"shop@example.com"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/settings", body)
	req = req.WithContext(scope.With(req.Context(), scope.Scope{OwnerID: owner.ID}))
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"tax_rate":"10"`)
	require.Contains(t, rec.Body.String(), `"store_email":"shop@example.com"`)

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/settings", bytes.NewBufferString(`{"tax_rate":"45"}`))
	req = req.WithContext(scope.With(req.Context(), scope.Scope{OwnerID: owner.ID}))
	rec = httptest.NewRecorder()
	h.Update(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "tax_rate")
}

func TestHandlerRequiresScope(t *testing.T) {
	svc, _, _ := newService(t)
	rec := httptest.NewRecorder()
	(&Handler{Svc: svc}).Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
