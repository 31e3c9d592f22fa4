package checkout

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/cart"
	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/lock"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/scope"
	"github.com/noah-isme/backend-kasir/internal/settings"
	"github.com/noah-isme/backend-kasir/internal/store/storetest"
)

type captureNotifier struct {
	events []dbgen.DomainEvent
}

func (c *captureNotifier) Notify(_ context.Context, ev dbgen.DomainEvent) error {
	c.events = append(c.events, ev)
	return nil
}

type fixture struct {
	mem      *storetest.Memory
	cart     *cart.Service
	svc      *Service
	notifier *captureNotifier
	sc       scope.Scope
	coffee   dbgen.Product
	tea      dbgen.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mem := storetest.New()
	owner := mem.SeedUser(dbgen.User{Name: "Owner", Email: "owner@example.com", TaxRate: decimal.NewFromInt(8)})
	coffee := mem.SeedProduct(dbgen.Product{Name: "Coffee", Price: decimal.RequireFromString("10.00"), Inventory: 5, UserID: owner.ID})
	tea := mem.SeedProduct(dbgen.Product{Name: "Tea", Price: decimal.RequireFromString("5.00"), Inventory: 4, UserID: owner.ID})
	settingsSvc := &settings.Service{Q: mem, DefaultTaxRate: decimal.NewFromInt(8)}
	notifier := &captureNotifier{}
	svc := &Service{
		Store:    mem,
		Settings: settingsSvc,
		Events:   &events.Bus{Store: mem, Notifiers: []events.Notifier{notifier}},
		Logger:   zerolog.Nop(),
	}
	return fixture{
		mem:      mem,
		cart:     &cart.Service{Store: mem, Settings: settingsSvc, Currency: "USD"},
		svc:      svc,
		notifier: notifier,
		sc:       scope.Scope{OwnerID: owner.ID, CashierID: owner.ID},
		coffee:   coffee,
		tea:      tea,
	}
}

func (f fixture) add(t *testing.T, p dbgen.Product, qty int32) {
	t.Helper()
	_, err := f.cart.Add(context.Background(), f.sc, cart.AddInput{ProductID: p.ID, Quantity: qty})
	require.NoError(t, err)
}

func tenPercent() pricing.Discount {
	return pricing.Percentage(decimal.NewFromInt(10))
}

func TestCheckoutEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.coffee, 2)
	f.add(t, f.tea, 1)

	res, err := f.svc.Checkout(context.Background(), f.sc, Input{PaymentMethod: "Cash", Discount: tenPercent()})
	require.NoError(t, err)
	require.Equal(t, "25.00", pricing.Format(res.Pricing.Subtotal))
	require.Equal(t, "2.50", pricing.Format(res.Pricing.Discount))
	require.Equal(t, "22.50", pricing.Format(res.Pricing.DiscountedSubtotal))
	require.Equal(t, "1.80", pricing.Format(res.Pricing.Tax))
	require.Equal(t, "24.30", pricing.Format(res.Pricing.Total))
	require.Equal(t, 2, res.Lines)
	require.Equal(t, 3, res.Units)

	coffee, _ := f.mem.Product(f.coffee.ID)
	require.Equal(t, int32(3), coffee.Inventory)
	tea, _ := f.mem.Product(f.tea.ID)
	require.Equal(t, int32(3), tea.Inventory)

	txn, ok := f.mem.Transaction(res.TransactionID)
	require.True(t, ok)
	require.Equal(t, dbgen.TransactionStatusCompleted, txn.Status)
	require.True(t, txn.Completed)
	require.Equal(t, "cash", txn.PaymentMethod)
	require.True(t, txn.DiscountAmount.Valid)
	require.Equal(t, "2.50", pricing.Format(txn.DiscountAmount.Decimal))
	require.Equal(t, dbgen.DiscountKindPercentage, txn.DiscountKind.DiscountKind)
	require.Equal(t, f.sc.OwnerID, txn.CashierID.Int64)
	require.True(t, txn.Total.Equal(txn.Subtotal.Sub(txn.DiscountAmount.Decimal).Add(txn.Tax)))

	for _, item := range f.mem.CartItems() {
		require.True(t, item.TransactionID.Valid)
		require.Equal(t, res.TransactionID, item.TransactionID.Int64)
	}
	lines, err := f.cart.List(context.Background(), f.sc)
	require.NoError(t, err)
	require.Empty(t, lines)

	require.Len(t, f.notifier.events, 1)
	require.Equal(t, events.TopicTransactionCompleted, f.notifier.events[0].Topic)
	require.Equal(t, res.TransactionID, f.notifier.events[0].AggregateID)
	require.Len(t, f.mem.Events(), 1)
}

func TestCheckoutWithoutDiscountLeavesDiscountNull(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.tea, 2)

	res, err := f.svc.Checkout(context.Background(), f.sc, Input{PaymentMethod: "card"})
	require.NoError(t, err)
	txn, _ := f.mem.Transaction(res.TransactionID)
	require.False(t, txn.DiscountAmount.Valid)
	require.False(t, txn.DiscountKind.Valid)
	require.Equal(t, "10.80", pricing.Format(txn.Total))
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Checkout(context.Background(), f.sc, Input{PaymentMethod: "cash"})
	require.ErrorIs(t, err, ErrEmptyCart)
	require.Empty(t, f.mem.Transactions())
	require.Empty(t, f.notifier.events)
}

func TestCheckoutRollsBackOnInsufficientInventory(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.coffee, 2)
	f.add(t, f.tea, 3)
	rollbacks := f.mem.Rollbacks

	// Stock sold elsewhere between the advisory check and settlement.
	_, err := inventory.New(f.mem).Adjust(context.Background(), f.sc.OwnerID, f.tea.ID, -3)
	require.NoError(t, err)

	_, err = f.svc.Checkout(context.Background(), f.sc, Input{PaymentMethod: "cash", Discount: tenPercent()})
	var short *InsufficientInventoryError
	require.ErrorAs(t, err, &short)
	require.Equal(t, f.tea.ID, short.ProductID)
	require.Equal(t, int32(3), short.Requested)
	require.ErrorIs(t, err, inventory.ErrInsufficientInventory)

	require.Empty(t, f.mem.Transactions())
	require.Empty(t, f.mem.Events())
	require.Empty(t, f.notifier.events)
	coffee, _ := f.mem.Product(f.coffee.ID)
	require.Equal(t, int32(5), coffee.Inventory)
	tea, _ := f.mem.Product(f.tea.ID)
	require.Equal(t, int32(1), tea.Inventory)

	lines, err := f.cart.List(context.Background(), f.sc)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	for _, item := range f.mem.CartItems() {
		require.False(t, item.TransactionID.Valid)
	}
	require.Equal(t, rollbacks+1, f.mem.Rollbacks)
}

func TestCheckoutRollsBackWhenStorageFails(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.coffee, 1)
	f.mem.FailOn["ClearCart"] = errors.New("connection reset")

	_, err := f.svc.Checkout(context.Background(), f.sc, Input{PaymentMethod: "cash"})
	require.Error(t, err)
	require.Empty(t, f.mem.Transactions())
	coffee, _ := f.mem.Product(f.coffee.ID)
	require.Equal(t, int32(5), coffee.Inventory)
}

func TestCheckoutRejectsCashierOutsideStore(t *testing.T) {
	f := newFixture(t)
	other := f.mem.SeedUser(dbgen.User{Name: "Other", Email: "other@example.com"})
	f.add(t, f.coffee, 1)

	for name, cashier := range map[string]int64{"foreign": other.ID, "unknown": 9999} {
		t.Run(name, func(t *testing.T) {
			sc := scope.Scope{OwnerID: f.sc.OwnerID, CashierID: cashier}
			_, err := f.svc.Checkout(context.Background(), sc, Input{PaymentMethod: "cash"})
			require.ErrorIs(t, err, ErrUnknownCashier)
			require.Empty(t, f.mem.Transactions())
			coffee, _ := f.mem.Product(f.coffee.ID)
			require.Equal(t, int32(5), coffee.Inventory)
		})
	}

	h := &Handler{Svc: f.svc}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBufferString(`{"payment_method":"cash"}`))
	req = req.WithContext(scope.With(req.Context(), scope.Scope{OwnerID: f.sc.OwnerID, CashierID: other.ID}))
	rec := httptest.NewRecorder()
	h.Checkout(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "X-Cashier-ID")
}

func TestCheckoutDefaultsCashierToOwner(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.tea, 1)

	res, err := f.svc.Checkout(context.Background(), scope.Scope{OwnerID: f.sc.OwnerID}, Input{PaymentMethod: "card"})
	require.NoError(t, err)
	txn, ok := f.mem.Transaction(res.TransactionID)
	require.True(t, ok)
	require.Equal(t, f.sc.OwnerID, txn.CashierID.Int64)
}

func TestCheckoutAgreesWithPreview(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.coffee, 2)
	f.add(t, f.tea, 1)

	view, err := f.cart.View(context.Background(), f.sc, tenPercent())
	require.NoError(t, err)

	expected := view.Pricing.Total
	res, err := f.svc.Checkout(context.Background(), f.sc, Input{PaymentMethod: "qris", Discount: tenPercent(), ExpectedTotal: &expected})
	require.NoError(t, err)
	require.True(t, view.Pricing.Equal(res.Pricing))
	require.NotNil(t, res.PreviewMatched)
	require.True(t, *res.PreviewMatched)
}

func TestCheckoutIgnoresStalePreview(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.coffee, 1)

	stale := decimal.RequireFromString("1.00")
	res, err := f.svc.Checkout(context.Background(), f.sc, Input{PaymentMethod: "cash", ExpectedTotal: &stale})
	require.NoError(t, err)
	require.False(t, *res.PreviewMatched)
	require.Equal(t, "10.80", pricing.Format(res.Pricing.Total))
}

func TestCheckoutTender(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.coffee, 1)

	short := decimal.RequireFromString("10.79")
	_, err := f.svc.Checkout(context.Background(), f.sc, Input{PaymentMethod: "cash", AmountTendered: &short})
	require.ErrorIs(t, err, ErrInsufficientTender)
	require.Empty(t, f.mem.Transactions())

	enough := decimal.RequireFromString("20")
	res, err := f.svc.Checkout(context.Background(), f.sc, Input{PaymentMethod: "cash", AmountTendered: &enough})
	require.NoError(t, err)
	require.Equal(t, "20.00", *res.AmountTendered)
	require.Equal(t, "9.20", *res.ChangeDue)
}

func TestCheckoutRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.coffee, 1)

	_, err := f.svc.Checkout(context.Background(), f.sc, Input{PaymentMethod: "bitcoin"})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.Checkout(context.Background(), f.sc, Input{PaymentMethod: "cash", Discount: pricing.Discount{Kind: "bogus", Value: decimal.NewFromInt(1)}})
	require.ErrorIs(t, err, pricing.ErrInvalidDiscount)
	_, err = f.svc.Checkout(context.Background(), scope.Scope{}, Input{PaymentMethod: "cash"})
	require.ErrorIs(t, err, scope.ErrMissing)
	require.Empty(t, f.mem.Transactions())
}

func TestSettledTransactionIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, f.coffee, 2)

	res, err := f.svc.Checkout(ctx, f.sc, Input{PaymentMethod: "cash"})
	require.NoError(t, err)
	before, _ := f.mem.Transaction(res.TransactionID)

	_, err = f.mem.UpdateProduct(ctx, dbgen.UpdateProductParams{ID: f.coffee.ID, UserID: f.sc.OwnerID, Name: "Coffee", Price: decimal.RequireFromString("99.00")})
	require.NoError(t, err)
	f.add(t, f.coffee, 1)
	_, err = f.cart.Clear(ctx, f.sc)
	require.NoError(t, err)

	after, _ := f.mem.Transaction(res.TransactionID)
	require.True(t, before.Total.Equal(after.Total))
	require.True(t, before.Subtotal.Equal(after.Subtotal))

	bound := 0
	for _, item := range f.mem.CartItems() {
		if item.TransactionID.Valid && item.TransactionID.Int64 == res.TransactionID {
			bound++
			require.Equal(t, "10.00", pricing.Format(item.UnitPrice))
			require.Equal(t, int32(2), item.Quantity)
		}
	}
	require.Equal(t, 1, bound)
}

func TestCheckoutUsesRedisLock(t *testing.T) {
	f := newFixture(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	f.svc.Locker = lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond, MaxWait: 50 * time.Millisecond}
	f.svc.LockTTL = time.Second

	f.add(t, f.coffee, 1)
	require.NoError(t, mr.Set(lock.CheckoutKey(f.sc.OwnerID), "held-by-other-request"))
	_, err := f.svc.Checkout(context.Background(), f.sc, Input{PaymentMethod: "cash"})
	require.ErrorIs(t, err, lock.ErrBusy)
	require.Empty(t, f.mem.Transactions())

	mr.Del(lock.CheckoutKey(f.sc.OwnerID))
	_, err = f.svc.Checkout(context.Background(), f.sc, Input{PaymentMethod: "cash"})
	require.NoError(t, err)
	require.False(t, mr.Exists(lock.CheckoutKey(f.sc.OwnerID)))
}

func TestHandlerCheckout(t *testing.T) {
	f := newFixture(t)
	h := &Handler{Svc: f.svc}

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBufferString(body))
		req = req.WithContext(scope.With(req.Context(), f.sc))
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)
		return rec
	}

	rec := send(`{"payment_method":"cash"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "EMPTY_CART")

	rec = send(`{}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "payment_method")

	f.add(t, f.coffee, 2)
	f.add(t, f.tea, 1)
	rec = send(`{"payment_method":"cash","discount":{"kind":"percentage","value":10},"amount_tendered":"30","expected_total":"24.30"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"total":"24.30"`)
	require.Contains(t, rec.Body.String(), `"change_due":"5.70"`)
	require.Contains(t, rec.Body.String(), `"preview_matched":true`)
	require.NotEmpty(t, rec.Header().Get("Location"))
}
