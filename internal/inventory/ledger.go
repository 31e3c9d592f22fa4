// Package inventory guards per-product on-hand counts.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/obs"
)

var (
	// ErrOutOfStock is the advisory refusal raised while assembling a cart.
	ErrOutOfStock = errors.New("inventory: out of stock")
	// ErrInsufficientInventory is raised when a guarded decrement would go negative.
	ErrInsufficientInventory = errors.New("inventory: insufficient inventory")
	// ErrProductNotFound means the product is absent or owned by someone else.
	ErrProductNotFound = errors.New("inventory: product not found")
	// ErrInvalidQuantity rejects zero or negative quantities.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
)

// Querier is the slice of the query layer the ledger needs.
type Querier interface {
	GetProductInventory(ctx context.Context, arg dbgen.GetProductInventoryParams) (int32, error)
	DecrementProductInventory(ctx context.Context, arg dbgen.DecrementProductInventoryParams) (int32, error)
	IncrementProductInventory(ctx context.Context, arg dbgen.IncrementProductInventoryParams) (int32, error)
}

// Ledger reads and mutates inventory through Q. Build one per unit of work so
// that decrements made during settlement share the settlement transaction.
type Ledger struct {
	Q Querier
}

// New returns a ledger bound to q.
func New(q Querier) Ledger {
	return Ledger{Q: q}
}

// OnHand returns the current count for a product owned by ownerID.
func (l Ledger) OnHand(ctx context.Context, ownerID, productID int64) (int32, error) {
	if l.Q == nil {
		return 0, errors.New("inventory: querier not configured")
	}
	n, err := l.Q.GetProductInventory(ctx, dbgen.GetProductInventoryParams{ID: productID, UserID: ownerID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("inventory: load product %d: %w", productID, err)
	}
	return n, nil
}

// CheckAvailable reports whether at least qty units are on hand.
func (l Ledger) CheckAvailable(ctx context.Context, ownerID, productID int64, qty int32) (bool, error) {
	if qty <= 0 {
		return true, nil
	}
	n, err := l.OnHand(ctx, ownerID, productID)
	if err != nil {
		return false, err
	}
	return n >= qty, nil
}

// Require fails with ErrOutOfStock when fewer than qty units are on hand. The
// answer is only advisory; Decrement is authoritative.
func (l Ledger) Require(ctx context.Context, ownerID, productID int64, qty int32) error {
	ok, err := l.CheckAvailable(ctx, ownerID, productID, qty)
	if err != nil {
		return err
	}
	if !ok {
		obs.ObserveInventoryRejection("out_of_stock")
		return ErrOutOfStock
	}
	return nil
}

// Decrement removes qty units in a single guarded update and returns the
// remaining count. Inventory is left untouched on failure.
func (l Ledger) Decrement(ctx context.Context, ownerID, productID int64, qty int32) (int32, error) {
	if l.Q == nil {
		return 0, errors.New("inventory: querier not configured")
	}
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	left, err := l.Q.DecrementProductInventory(ctx, dbgen.DecrementProductInventoryParams{
		Quantity: qty,
		ID:       productID,
		UserID:   ownerID,
	})
	if err == nil {
		return left, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("inventory: decrement product %d: %w", productID, err)
	}
	// The guard matched no row: either the product is gone or stock is short.
	if _, lookupErr := l.OnHand(ctx, ownerID, productID); lookupErr != nil {
		return 0, lookupErr
	}
	obs.ObserveInventoryRejection("insufficient")
	return 0, ErrInsufficientInventory
}

// Restock returns qty units to a product.
func (l Ledger) Restock(ctx context.Context, ownerID, productID int64, qty int32) (int32, error) {
	if l.Q == nil {
		return 0, errors.New("inventory: querier not configured")
	}
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	n, err := l.Q.IncrementProductInventory(ctx, dbgen.IncrementProductInventoryParams{
		Quantity: qty,
		ID:       productID,
		UserID:   ownerID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("inventory: restock product %d: %w", productID, err)
	}
	return n, nil
}

// Adjust applies a signed delta. Negative deltas go through the guarded
// decrement so a manual correction can never push the count below zero.
func (l Ledger) Adjust(ctx context.Context, ownerID, productID int64, delta int32) (int32, error) {
	switch {
	case delta > 0:
		return l.Restock(ctx, ownerID, productID, delta)
	case delta < 0:
		return l.Decrement(ctx, ownerID, productID, -delta)
	default:
		return l.OnHand(ctx, ownerID, productID)
	}
}
