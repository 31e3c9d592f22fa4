package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/scope"
	"github.com/noah-isme/backend-kasir/internal/settings"
	"github.com/noah-isme/backend-kasir/internal/store/storetest"
)

type fixture struct {
	mem    *storetest.Memory
	svc    *Service
	sc     scope.Scope
	coffee dbgen.Product
	tea    dbgen.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mem := storetest.New()
	owner := mem.SeedUser(dbgen.User{Name: "Owner", Email: "owner@example.com", TaxRate: decimal.NewFromInt(8)})
	coffee := mem.SeedProduct(dbgen.Product{Name: "Coffee", Price: decimal.RequireFromString("10.00"), Inventory: 5, UserID: owner.ID})
	tea := mem.SeedProduct(dbgen.Product{Name: "Tea", Price: decimal.RequireFromString("5.00"), Inventory: 2, UserID: owner.ID})
	svc := &Service{Store: mem, Settings: &settings.Service{Q: mem}, Currency: "USD"}
	return fixture{mem: mem, svc: svc, sc: scope.Scope{OwnerID: owner.ID}, coffee: coffee, tea: tea}
}

func TestAddMergesIntoExistingLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, f.sc, AddInput{ProductID: f.coffee.ID, Quantity: 1})
	require.NoError(t, err)
	line, err := f.svc.Add(ctx, f.sc, AddInput{ProductID: f.coffee.ID, Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, int32(3), line.Quantity)

	lines, err := f.svc.List(ctx, f.sc)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, int32(3), lines[0].Quantity)
	require.Equal(t, "30.00", pricing.Format(lines[0].LineTotal))
}

func TestAddDefaultsQuantityToOne(t *testing.T) {
	f := newFixture(t)
	line, err := f.svc.Add(context.Background(), f.sc, AddInput{ProductID: f.tea.ID})
	require.NoError(t, err)
	require.Equal(t, int32(1), line.Quantity)
}

func TestAddKeepsFrozenPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, f.sc, AddInput{ProductID: f.coffee.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = f.mem.UpdateProduct(ctx, dbgen.UpdateProductParams{ID: f.coffee.ID, UserID: f.sc.OwnerID, Name: "Coffee", Price: decimal.RequireFromString("12.00")})
	require.NoError(t, err)

	_, err = f.svc.Add(ctx, f.sc, AddInput{ProductID: f.coffee.ID, Quantity: 1})
	require.NoError(t, err)

	lines, err := f.svc.List(ctx, f.sc)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, "10.00", pricing.Format(lines[0].UnitPrice))
	require.Equal(t, "12.00", pricing.Format(lines[0].Product.Price))
}

func TestAddUnitPriceOverride(t *testing.T) {
	f := newFixture(t)
	override := decimal.RequireFromString("7.499")
	line, err := f.svc.Add(context.Background(), f.sc, AddInput{ProductID: f.coffee.ID, Quantity: 1, UnitPrice: &override})
	require.NoError(t, err)
	require.Equal(t, "7.50", pricing.Format(line.UnitPrice))

	negative := decimal.NewFromInt(-1)
	_, err = f.svc.Add(context.Background(), f.sc, AddInput{ProductID: f.coffee.ID, Quantity: 1, UnitPrice: &negative})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddRejectsOverInventory(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Add(context.Background(), f.sc, AddInput{ProductID: f.tea.ID, Quantity: 3})
	require.ErrorIs(t, err, inventory.ErrOutOfStock)
	require.Empty(t, f.mem.CartItems())
}

func TestAddRejectsForeignProduct(t *testing.T) {
	f := newFixture(t)
	other := scope.Scope{OwnerID: f.sc.OwnerID + 1000}
	_, err := f.svc.Add(context.Background(), other, AddInput{ProductID: f.coffee.ID, Quantity: 1})
	require.ErrorIs(t, err, ErrProductNotFound)

	_, err = f.svc.Add(context.Background(), f.sc, AddInput{ProductID: f.coffee.ID, Quantity: -1})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestConcurrentAddsAllCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Add(ctx, f.sc, AddInput{ProductID: f.coffee.ID, Quantity: 1})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	lines, err := f.svc.List(ctx, f.sc)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, int32(4), lines[0].Quantity)
}

func TestSetQuantityIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	line, err := f.svc.Add(ctx, f.sc, AddInput{ProductID: f.coffee.ID, Quantity: 1})
	require.NoError(t, err)

	first, removed, err := f.svc.SetQuantity(ctx, f.sc, line.ID, 4)
	require.NoError(t, err)
	require.False(t, removed)
	second, removed, err := f.svc.SetQuantity(ctx, f.sc, line.ID, 4)
	require.NoError(t, err)
	require.False(t, removed)
	require.Equal(t, first.Quantity, second.Quantity)

	lines, err := f.svc.List(ctx, f.sc)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, int32(4), lines[0].Quantity)
}

func TestSetQuantityZeroDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	line, err := f.svc.Add(ctx, f.sc, AddInput{ProductID: f.coffee.ID, Quantity: 2})
	require.NoError(t, err)

	_, removed, err := f.svc.SetQuantity(ctx, f.sc, line.ID, 0)
	require.NoError(t, err)
	require.True(t, removed)

	lines, err := f.svc.List(ctx, f.sc)
	require.NoError(t, err)
	require.Empty(t, lines)

	_, _, err = f.svc.SetQuantity(ctx, f.sc, line.ID, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetQuantityChecksIncrementalUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	line, err := f.svc.Add(ctx, f.sc, AddInput{ProductID: f.tea.ID, Quantity: 2})
	require.NoError(t, err)

	// Three more units are requested while only two are on hand.
	_, _, err = f.svc.SetQuantity(ctx, f.sc, line.ID, 5)
	require.ErrorIs(t, err, inventory.ErrOutOfStock)

	updated, _, err := f.svc.SetQuantity(ctx, f.sc, line.ID, 4)
	require.NoError(t, err)
	require.Equal(t, int32(4), updated.Quantity)

	lowered, _, err := f.svc.SetQuantity(ctx, f.sc, line.ID, 1)
	require.NoError(t, err)
	require.Equal(t, int32(1), lowered.Quantity)
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Add(ctx, f.sc, AddInput{ProductID: f.coffee.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, f.sc, AddInput{ProductID: f.tea.ID, Quantity: 1})
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.Remove(ctx, scope.Scope{OwnerID: f.sc.OwnerID + 1}, a.ID), ErrNotFound)
	require.NoError(t, f.svc.Remove(ctx, f.sc, a.ID))
	require.ErrorIs(t, f.svc.Remove(ctx, f.sc, a.ID), ErrNotFound)

	n, err := f.svc.Clear(ctx, f.sc)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	lines, err := f.svc.List(ctx, f.sc)
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestViewPricesCartWithOwnerTaxRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Add(ctx, f.sc, AddInput{ProductID: f.coffee.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, f.sc, AddInput{ProductID: f.tea.ID, Quantity: 1})
	require.NoError(t, err)

	view, err := f.svc.View(ctx, f.sc, pricing.Percentage(decimal.NewFromInt(10)))
	require.NoError(t, err)
	require.Equal(t, "25.00", pricing.Format(view.Pricing.Subtotal))
	require.Equal(t, "2.50", pricing.Format(view.Pricing.Discount))
	require.Equal(t, "22.50", pricing.Format(view.Pricing.DiscountedSubtotal))
	require.Equal(t, "1.80", pricing.Format(view.Pricing.Tax))
	require.Equal(t, "24.30", pricing.Format(view.Pricing.Total))
	require.Equal(t, "USD", view.Currency)
}

func withScope(req *http.Request, sc scope.Scope) *http.Request {
	return req.WithContext(scope.With(req.Context(), sc))
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandlerAddAndUpdate(t *testing.T) {
	f := newFixture(t)
	h := &Handler{Svc: f.svc}

	body := bytes.NewBufferString(`{"product_id":` + jsonInt(f.coffee.ID) + `,"quantity":2}`)
	rec := httptest.NewRecorder()
	h.AddItem(rec, withScope(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body), f.sc))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data struct {
			ID        int64  `json:"id"`
			Quantity  int32  `json:"quantity"`
			UnitPrice string `json:"unit_price"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, int32(2), created.Data.Quantity)
	require.Equal(t, "10.00", created.Data.UnitPrice)

	rec = httptest.NewRecorder()
	req := withScope(httptest.NewRequest(http.MethodPatch, "/", bytes.NewBufferString(`{"quantity":0}`)), f.sc)
	h.UpdateItem(rec, withID(req, jsonInt(created.Data.ID)))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	req = withScope(httptest.NewRequest(http.MethodPatch, "/", bytes.NewBufferString(`{}`)), f.sc)
	h.UpdateItem(rec, withID(req, jsonInt(created.Data.ID)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerOutOfStockIsConflict(t *testing.T) {
	f := newFixture(t)
	h := &Handler{Svc: f.svc}

	body := bytes.NewBufferString(`{"product_id":` + jsonInt(f.tea.ID) + `,"quantity":9}`)
	rec := httptest.NewRecorder()
	h.AddItem(rec, withScope(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body), f.sc))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "OUT_OF_STOCK")
}

func TestHandlerPreviewMatchesCheckoutFigures(t *testing.T) {
	f := newFixture(t)
	h := &Handler{Svc: f.svc}

	payload := `{"discount":{"kind":"percentage","value":"10"},"items":[{"unit_price":"10.00","quantity":2},{"unit_price":"5.00","quantity":1}]}`
	rec := httptest.NewRecorder()
	h.Preview(rec, withScope(httptest.NewRequest(http.MethodPost, "/api/v1/pricing/preview", bytes.NewBufferString(payload)), f.sc))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total":"24.30"`)

	rec = httptest.NewRecorder()
	bad := `{"discount":{"kind":"bogo","value":"1"}}`
	h.Preview(rec, withScope(httptest.NewRequest(http.MethodPost, "/api/v1/pricing/preview", bytes.NewBufferString(bad)), f.sc))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
