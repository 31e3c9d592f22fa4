// Package checkout settles a pending cart into an immutable transaction.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/backend-kasir/internal/common"
	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/lock"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/scope"
	"github.com/noah-isme/backend-kasir/internal/settings"
	"github.com/noah-isme/backend-kasir/internal/store"
)

var (
	// ErrEmptyCart is returned when there are no pending lines to settle.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrInvalidInput covers malformed checkout payloads.
	ErrInvalidInput = errors.New("checkout: invalid input")
	// ErrInsufficientTender is returned when the tendered amount is below the total.
	ErrInsufficientTender = errors.New("checkout: amount tendered is less than total")
	// ErrLineChanged means a cart line was settled or removed while checkout ran.
	ErrLineChanged = errors.New("checkout: cart changed during settlement")
	// ErrUnknownCashier is returned when the cashier is not an operator of the owner's store.
	ErrUnknownCashier = errors.New("checkout: cashier does not operate this store")
)

// PaymentMethod labels how the customer paid. Capture is simulated.
type PaymentMethod string

// Supported payment methods.
const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentQRIS     PaymentMethod = "qris"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentOther    PaymentMethod = "other"
)

// ParsePaymentMethod normalises and validates a payment method label.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case PaymentCash, PaymentCard, PaymentQRIS, PaymentTransfer, PaymentOther:
		return m, nil
	case "":
		return "", fmt.Errorf("payment method is required: %w", ErrInvalidInput)
	default:
		return "", fmt.Errorf("unsupported payment method %q: %w", raw, ErrInvalidInput)
	}
}

// InsufficientInventoryError names the line whose decrement failed. The whole
// settlement is rolled back when it is returned.
type InsufficientInventoryError struct {
	ProductID int64
	Requested int32
	Err       error
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("checkout: product %d cannot supply %d units: %v", e.ProductID, e.Requested, e.Err)
}

func (e *InsufficientInventoryError) Unwrap() error { return e.Err }

// Locker serialises settlement per owner.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Input is a checkout request.
type Input struct {
	PaymentMethod string
	Discount      pricing.Discount
	// AmountTendered, when set, must cover the total; change is recorded.
	AmountTendered *decimal.Decimal
	// ExpectedTotal is the client's preview. It is compared, never trusted.
	ExpectedTotal *decimal.Decimal
}

// Result describes a settled transaction.
type Result struct {
	TransactionID  int64             `json:"transaction_id"`
	Status         string            `json:"status"`
	PaymentMethod  string            `json:"payment_method"`
	Pricing        pricing.Summary   `json:"pricing"`
	AmountTendered *string           `json:"amount_tendered"`
	ChangeDue      *string           `json:"change_due"`
	Lines          int               `json:"lines"`
	Units          int               `json:"units"`
	PreviewMatched *bool             `json:"preview_matched,omitempty"`
	Transaction    dbgen.Transaction `json:"-"`
}

// Service runs settlement.
type Service struct {
	Store    store.Store
	Settings *settings.Service
	Events   *events.Bus
	Locker   Locker
	LockTTL  time.Duration
	Logger   zerolog.Logger
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Checkout converts the scope's pending cart into a completed transaction.
// Reading the cart, creating the transaction, binding every line and
// decrementing inventory commit together; any failure leaves no trace.
func (s *Service) Checkout(ctx context.Context, sc scope.Scope, in Input) (Result, error) {
	if s == nil || s.Store == nil {
		return Result{}, errors.New("checkout service not configured")
	}
	if !sc.Valid() {
		return Result{}, scope.ErrMissing
	}
	method, err := ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		obs.ObserveCheckout("invalid", -1)
		return Result{}, err
	}
	if err := in.Discount.Validate(); err != nil {
		obs.ObserveCheckout("invalid", -1)
		return Result{}, err
	}
	if in.AmountTendered != nil && in.AmountTendered.IsNegative() {
		obs.ObserveCheckout("invalid", -1)
		return Result{}, fmt.Errorf("amount tendered must not be negative: %w", ErrInvalidInput)
	}

	start := s.now()
	ctx, span := obs.StartSpan(ctx, "checkout.settle",
		attribute.Int64("owner_id", sc.OwnerID),
		attribute.String("payment_method", string(method)),
	)

	var (
		res   Result
		event dbgen.DomainEvent
	)
	settle := func(ctx context.Context) error {
		return s.Store.ExecTx(ctx, func(q dbgen.Querier) error {
			var err error
			res, event, err = s.settle(ctx, q, sc, method, in)
			return err
		})
	}
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, lock.CheckoutKey(sc.OwnerID), s.LockTTL, settle)
	} else {
		err = settle(ctx)
	}
	obs.EndSpan(span, err)
	obs.ObserveCheckout(resultLabel(err), float64(s.now().Sub(start).Milliseconds()))
	if err != nil {
		s.Logger.Warn().Err(err).Int64("owner_id", sc.OwnerID).Msg("checkout failed")
		return Result{}, err
	}

	if in.ExpectedTotal != nil {
		matched := in.ExpectedTotal.Round(pricing.Precision).Equal(res.Pricing.Total)
		res.PreviewMatched = &matched
		if !matched {
			s.Logger.Warn().
				Int64("transaction_id", res.TransactionID).
				Str("expected_total", pricing.Format(*in.ExpectedTotal)).
				Str("total", pricing.Format(res.Pricing.Total)).
				Msg("client preview disagreed with settled total")
		}
	}
	if s.Events != nil && event.ID != 0 {
		if perr := s.Events.Publish(ctx, event); perr != nil {
			s.Logger.Error().Err(perr).Int64("transaction_id", res.TransactionID).Msg("publish checkout event")
		}
	}
	s.Logger.Info().
		Int64("owner_id", sc.OwnerID).
		Int64("cashier_id", sc.Cashier()).
		Int64("transaction_id", res.TransactionID).
		Str("total", pricing.Format(res.Pricing.Total)).
		Int("lines", res.Lines).
		Msg("checkout settled")
	return res, nil
}

// cashierFor resolves the cashier recorded on the transaction. Operator
// accounts carry no store membership, so only the owner may ring up a sale.
func cashierFor(ctx context.Context, q dbgen.Querier, sc scope.Scope) (int64, error) {
	id := sc.Cashier()
	user, err := q.GetUserByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("cashier %d not found: %w", id, ErrUnknownCashier)
	}
	if err != nil {
		return 0, fmt.Errorf("load cashier: %w", err)
	}
	if user.ID != sc.OwnerID {
		return 0, fmt.Errorf("cashier %d belongs to another store: %w", id, ErrUnknownCashier)
	}
	return user.ID, nil
}

func (s *Service) settle(ctx context.Context, q dbgen.Querier, sc scope.Scope, method PaymentMethod, in Input) (Result, dbgen.DomainEvent, error) {
	cashier, err := cashierFor(ctx, q, sc)
	if err != nil {
		return Result{}, dbgen.DomainEvent{}, err
	}
	lines, err := q.LockCartItems(ctx, sc.OwnerID)
	if err != nil {
		return Result{}, dbgen.DomainEvent{}, fmt.Errorf("lock cart: %w", err)
	}
	if len(lines) == 0 {
		return Result{}, dbgen.DomainEvent{}, ErrEmptyCart
	}

	rate := decimal.Zero
	if s.Settings != nil {
		rate, err = s.Settings.TaxRate(ctx, q, sc.OwnerID)
		if err != nil {
			return Result{}, dbgen.DomainEvent{}, err
		}
	}
	items := make([]pricing.Item, 0, len(lines))
	units := 0
	for _, l := range lines {
		items = append(items, pricing.Item{Qty: int(l.Quantity), UnitPrice: l.UnitPrice})
		units += int(l.Quantity)
	}
	summary := pricing.Compute(items, in.Discount, rate)

	params := dbgen.CreateTransactionParams{
		Subtotal:      summary.Subtotal,
		TaxRate:       summary.TaxRate,
		Tax:           summary.Tax,
		Total:         summary.Total,
		PaymentMethod: string(method),
		Status:        dbgen.TransactionStatusCompleted,
		Completed:     true,
		UserID:        sc.OwnerID,
		CashierID:     common.Int8(cashier),
	}
	if summary.Discount.IsPositive() {
		params.DiscountAmount = decimal.NullDecimal{Decimal: summary.Discount, Valid: true}
		params.DiscountKind = dbgen.NullDiscountKind{DiscountKind: dbgen.DiscountKind(in.Discount.Kind), Valid: true}
		params.DiscountValue = decimal.NullDecimal{Decimal: in.Discount.Value.Round(pricing.Precision), Valid: true}
	}
	if in.AmountTendered != nil {
		tendered := in.AmountTendered.Round(pricing.Precision)
		if tendered.LessThan(summary.Total) {
			return Result{}, dbgen.DomainEvent{}, ErrInsufficientTender
		}
		params.AmountTendered = decimal.NullDecimal{Decimal: tendered, Valid: true}
		params.ChangeDue = decimal.NullDecimal{Decimal: tendered.Sub(summary.Total), Valid: true}
	}

	txn, err := q.CreateTransaction(ctx, params)
	if err != nil {
		return Result{}, dbgen.DomainEvent{}, fmt.Errorf("create transaction: %w", err)
	}

	ledger := inventory.New(q)
	for _, l := range lines {
		n, err := q.BindCartItem(ctx, dbgen.BindCartItemParams{
			ID:            l.ID,
			UserID:        sc.OwnerID,
			TransactionID: pgtype.Int8{Int64: txn.ID, Valid: true},
		})
		if err != nil {
			return Result{}, dbgen.DomainEvent{}, fmt.Errorf("bind cart item %d: %w", l.ID, err)
		}
		if n == 0 {
			return Result{}, dbgen.DomainEvent{}, ErrLineChanged
		}
		if _, err := ledger.Decrement(ctx, sc.OwnerID, l.ProductID, l.Quantity); err != nil {
			if errors.Is(err, inventory.ErrInsufficientInventory) || errors.Is(err, inventory.ErrProductNotFound) {
				return Result{}, dbgen.DomainEvent{}, &InsufficientInventoryError{ProductID: l.ProductID, Requested: l.Quantity, Err: err}
			}
			return Result{}, dbgen.DomainEvent{}, err
		}
	}
	if _, err := q.ClearCart(ctx, sc.OwnerID); err != nil {
		return Result{}, dbgen.DomainEvent{}, fmt.Errorf("clear cart: %w", err)
	}

	var event dbgen.DomainEvent
	if s.Events != nil {
		event, err = s.Events.Record(ctx, q, events.TopicTransactionCompleted, txn.ID, map[string]any{
			"transaction_id": txn.ID,
			"owner_id":       sc.OwnerID,
			"cashier_id":     cashier,
			"payment_method": txn.PaymentMethod,
			"total":          pricing.Format(txn.Total),
			"lines":          len(lines),
		})
		if err != nil {
			return Result{}, dbgen.DomainEvent{}, err
		}
	}

	res := Result{
		TransactionID: txn.ID,
		Status:        string(txn.Status),
		PaymentMethod: txn.PaymentMethod,
		Pricing:       summary,
		Lines:         len(lines),
		Units:         units,
		Transaction:   txn,
	}
	if txn.AmountTendered.Valid {
		tendered := pricing.Format(txn.AmountTendered.Decimal)
		change := pricing.Format(txn.ChangeDue.Decimal)
		res.AmountTendered = &tendered
		res.ChangeDue = &change
	}
	return res, event, nil
}

func resultLabel(err error) string {
	var short *InsufficientInventoryError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.As(err, &short):
		return "insufficient_inventory"
	case errors.Is(err, ErrInsufficientTender):
		return "insufficient_tender"
	case errors.Is(err, lock.ErrBusy):
		return "busy"
	case errors.Is(err, ErrUnknownCashier):
		return "invalid"
	default:
		return "error"
	}
}
