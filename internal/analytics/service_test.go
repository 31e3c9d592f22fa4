package analytics_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/analytics"
	"github.com/noah-isme/backend-kasir/internal/common"
	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/scope"
	"github.com/noah-isme/backend-kasir/internal/store/storetest"
)

func at(d, h int) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: time.Date(2024, 3, d, h, 0, 0, 0, time.UTC), Valid: true}
}

type fixture struct {
	mem *storetest.Memory
	svc *analytics.Service
	sc  scope.Scope
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mem := storetest.New()
	owner := mem.SeedUser(dbgen.User{Name: "Owner", Email: "owner@example.com"})
	coffee := mem.SeedProduct(dbgen.Product{Name: "Coffee", Price: decimal.RequireFromString("10.00"), UserID: owner.ID})
	tea := mem.SeedProduct(dbgen.Product{Name: "Tea", Price: decimal.RequireFromString("5.00"), UserID: owner.ID})

	sale := func(status dbgen.TransactionStatus, when pgtype.Timestamptz, total string, lines map[int64]int32) {
		tx := mem.SeedTransaction(dbgen.Transaction{
			Subtotal:       decimal.RequireFromString(total),
			DiscountAmount: decimal.NullDecimal{Decimal: decimal.RequireFromString("1.00"), Valid: true},
			Tax:            decimal.RequireFromString("0.50"),
			Total:          decimal.RequireFromString(total).Sub(decimal.NewFromInt(1)).Add(decimal.RequireFromString("0.50")),
			PaymentMethod:  "cash",
			Status:         status,
			Completed:      status == dbgen.TransactionStatusCompleted,
			UserID:         owner.ID,
			CreatedAt:      when,
		})
		for productID, qty := range lines {
			price := decimal.RequireFromString("10.00")
			if productID == tea.ID {
				price = decimal.RequireFromString("5.00")
			}
			mem.SeedBoundItem(dbgen.CartItem{ProductID: productID, Quantity: qty, UnitPrice: price, TransactionID: common.Int8(tx.ID), UserID: owner.ID})
		}
	}
	sale(dbgen.TransactionStatusCompleted, at(1, 9), "25.00", map[int64]int32{coffee.ID: 2, tea.ID: 1})
	sale(dbgen.TransactionStatusCompleted, at(1, 15), "15.00", map[int64]int32{tea.ID: 3})
	sale(dbgen.TransactionStatusCompleted, at(2, 10), "10.00", map[int64]int32{coffee.ID: 1})
	sale(dbgen.TransactionStatusCanceled, at(2, 11), "50.00", map[int64]int32{coffee.ID: 5})
	sale(dbgen.TransactionStatusCompleted, at(5, 10), "10.00", map[int64]int32{coffee.ID: 1})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return fixture{
		mem: mem,
		svc: &analytics.Service{
			Q:   mem,
			R:   rdb,
			TTL: time.Minute,
			Now: func() time.Time { return at(6, 0).Time },
		},
		sc: scope.Scope{OwnerID: owner.ID},
	}
}

func TestSalesRangeAggregatesCompletedOnly(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.SalesRange(context.Background(), f.sc, at(1, 0).Time, at(3, 0).Time)
	require.NoError(t, err)
	require.Len(t, report.Days, 2)
	require.Equal(t, "2024-03-01", report.Days[0].Day)
	require.Equal(t, int64(2), report.Days[0].Transactions)
	require.Equal(t, "40.00", report.Days[0].Gross)
	require.Equal(t, "2.00", report.Days[0].Discounts)
	require.Equal(t, "39.00", report.Days[0].Revenue)
	require.Equal(t, int64(3), report.Totals.Transactions)
	require.Equal(t, "48.50", report.Totals.Revenue)
}

func TestSalesRangeCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SalesRange(ctx, f.sc, at(1, 0).Time, at(3, 0).Time)
	require.NoError(t, err)
	_, err = f.svc.SalesRange(ctx, f.sc, at(1, 0).Time, at(3, 0).Time)
	require.NoError(t, err)
	require.Equal(t, 1, f.mem.CallCount("SalesByDay"))

	_, err = f.svc.SalesRange(ctx, scope.Scope{OwnerID: 999}, at(1, 0).Time, at(3, 0).Time)
	require.NoError(t, err)
	require.Equal(t, 2, f.mem.CallCount("SalesByDay"))
}

func TestTopProductsRanksByUnits(t *testing.T) {
	f := newFixture(t)

	rows, err := f.svc.TopProducts(context.Background(), f.sc, at(1, 0).Time, at(6, 0).Time, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Equal units fall back to revenue.
	require.Equal(t, "Coffee", rows[0].Name)
	require.Equal(t, int64(4), rows[0].Units)
	require.Equal(t, "40.00", rows[0].Revenue)
	require.Equal(t, "Tea", rows[1].Name)
	require.Equal(t, int64(4), rows[1].Units)
	require.Equal(t, "20.00", rows[1].Revenue)

	_, err = f.svc.TopProducts(context.Background(), f.sc, at(6, 0).Time, at(1, 0).Time, 5)
	require.ErrorIs(t, err, analytics.ErrInvalidRange)
}

func TestSalesHandlerDateBounds(t *testing.T) {
	f := newFixture(t)
	h := &analytics.Handler{Svc: f.svc}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/sales?from=2024-03-02&to=2024-03-05", nil)
	req = req.WithContext(scope.With(req.Context(), f.sc))
	rec := httptest.NewRecorder()
	h.Sales(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data analytics.SalesReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Days, 2)
	require.Equal(t, "2024-03-05", body.Data.Days[1].Day)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/analytics/sales?from=2024-03-05&to=2024-03-01", nil)
	req = req.WithContext(scope.With(req.Context(), f.sc))
	rec = httptest.NewRecorder()
	h.Sales(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/analytics/top-products?days=10", nil)
	req = req.WithContext(scope.With(req.Context(), f.sc))
	rec = httptest.NewRecorder()
	h.TopProducts(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Coffee")
}
