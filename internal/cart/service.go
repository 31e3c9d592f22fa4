package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/scope"
	"github.com/noah-isme/backend-kasir/internal/settings"
	"github.com/noah-isme/backend-kasir/internal/store"
)

// ErrNotFound indicates the pending line does not exist in this scope.
var ErrNotFound = errors.New("cart line not found")

// ErrProductNotFound indicates the referenced product is absent or not owned by the scope.
var ErrProductNotFound = errors.New("product not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Service encapsulates cart domain operations for one owner scope at a time.
type Service struct {
	Store    store.Store
	Settings *settings.Service
	Currency string
}

// ProductRef is the live product data shown next to a pending line.
type ProductRef struct {
	Name      string          `json:"name"`
	ImageURL  *string         `json:"image_url"`
	Price     decimal.Decimal `json:"price"`
	Inventory int32           `json:"inventory"`
}

// Line is one pending cart entry. UnitPrice is the frozen billing price.
type Line struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Product   *ProductRef     `json:"product"`
}

// MarshalJSON renders money at currency precision.
func (l Line) MarshalJSON() ([]byte, error) {
	type product struct {
		Name      string  `json:"name"`
		ImageURL  *string `json:"image_url"`
		Price     string  `json:"price"`
		Inventory int32   `json:"inventory"`
	}
	out := struct {
		ID        int64    `json:"id"`
		ProductID int64    `json:"product_id"`
		Quantity  int32    `json:"quantity"`
		UnitPrice string   `json:"unit_price"`
		LineTotal string   `json:"line_total"`
		Product   *product `json:"product"`
	}{
		ID:        l.ID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		UnitPrice: pricing.Format(l.UnitPrice),
		LineTotal: pricing.Format(l.LineTotal),
	}
	if l.Product != nil {
		out.Product = &product{
			Name:      l.Product.Name,
			ImageURL:  l.Product.ImageURL,
			Price:     pricing.Format(l.Product.Price),
			Inventory: l.Product.Inventory,
		}
	}
	return json.Marshal(out)
}

// View is the cart contents plus the authoritative pricing for them.
type View struct {
	Items    []Line          `json:"items"`
	Pricing  pricing.Summary `json:"pricing"`
	Currency string          `json:"currency"`
}

// AddInput describes an add-to-cart request.
type AddInput struct {
	ProductID int64
	Quantity  int32
	// UnitPrice overrides the product's current price when set.
	UnitPrice *decimal.Decimal
}

func (s *Service) ready() error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	return nil
}

// Add merges qty units of a product into the pending cart. Re-adding a product
// increments the existing line and keeps its original frozen price.
func (s *Service) Add(ctx context.Context, sc scope.Scope, in AddInput) (Line, error) {
	if err := s.ready(); err != nil {
		return Line{}, err
	}
	if !sc.Valid() {
		return Line{}, scope.ErrMissing
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 || in.ProductID <= 0 {
		obs.ObserveCartMutation("add", "invalid")
		return Line{}, fmt.Errorf("quantity must be positive: %w", ErrInvalidInput)
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		obs.ObserveCartMutation("add", "invalid")
		return Line{}, fmt.Errorf("unit price must not be negative: %w", ErrInvalidInput)
	}

	product, err := s.Store.GetProductForUser(ctx, dbgen.GetProductForUserParams{ID: in.ProductID, UserID: sc.OwnerID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			obs.ObserveCartMutation("add", "not_found")
			return Line{}, ErrProductNotFound
		}
		return Line{}, fmt.Errorf("load product: %w", err)
	}
	if product.Inventory < in.Quantity {
		obs.ObserveCartMutation("add", "out_of_stock")
		obs.ObserveInventoryRejection("out_of_stock")
		return Line{}, inventory.ErrOutOfStock
	}

	price := product.Price
	if in.UnitPrice != nil {
		price = *in.UnitPrice
	}
	item, err := s.Store.UpsertCartItem(ctx, dbgen.UpsertCartItemParams{
		ProductID: product.ID,
		Quantity:  in.Quantity,
		UnitPrice: price.Round(pricing.Precision),
		UserID:    sc.OwnerID,
	})
	if err != nil {
		obs.ObserveCartMutation("add", "error")
		return Line{}, fmt.Errorf("upsert cart item: %w", err)
	}
	obs.ObserveCartMutation("add", "ok")
	return lineFrom(item, &product), nil
}

// SetQuantity replaces the quantity of a pending line. A quantity of zero or
// less removes the line and reports removed=true. Increases re-check only the
// additional units against on-hand inventory.
func (s *Service) SetQuantity(ctx context.Context, sc scope.Scope, lineID int64, qty int32) (line Line, removed bool, err error) {
	if err := s.ready(); err != nil {
		return Line{}, false, err
	}
	if !sc.Valid() {
		return Line{}, false, scope.ErrMissing
	}
	err = s.Store.ExecTx(ctx, func(q dbgen.Querier) error {
		current, err := q.GetPendingCartItemForUpdate(ctx, dbgen.GetPendingCartItemForUpdateParams{ID: lineID, UserID: sc.OwnerID})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock cart item: %w", err)
		}
		if qty <= 0 {
			if _, err := q.DeletePendingCartItem(ctx, dbgen.DeletePendingCartItemParams{ID: lineID, UserID: sc.OwnerID}); err != nil {
				return fmt.Errorf("delete cart item: %w", err)
			}
			removed = true
			return nil
		}
		if qty == current.Quantity {
			line = lineFrom(current, nil)
			return nil
		}
		if qty > current.Quantity {
			if err := inventory.New(q).Require(ctx, sc.OwnerID, current.ProductID, qty-current.Quantity); err != nil {
				if errors.Is(err, inventory.ErrProductNotFound) {
					return ErrProductNotFound
				}
				return err
			}
		}
		updated, err := q.SetCartItemQuantity(ctx, dbgen.SetCartItemQuantityParams{ID: lineID, UserID: sc.OwnerID, Quantity: qty})
		if err != nil {
			return fmt.Errorf("update cart item: %w", err)
		}
		line = lineFrom(updated, nil)
		return nil
	})
	obs.ObserveCartMutation("set_quantity", resultLabel(err))
	if err != nil {
		return Line{}, false, err
	}
	return line, removed, nil
}

// Remove deletes a pending line.
func (s *Service) Remove(ctx context.Context, sc scope.Scope, lineID int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if !sc.Valid() {
		return scope.ErrMissing
	}
	n, err := s.Store.DeletePendingCartItem(ctx, dbgen.DeletePendingCartItemParams{ID: lineID, UserID: sc.OwnerID})
	if err != nil {
		obs.ObserveCartMutation("remove", "error")
		return fmt.Errorf("delete cart item: %w", err)
	}
	if n == 0 {
		obs.ObserveCartMutation("remove", "not_found")
		return ErrNotFound
	}
	obs.ObserveCartMutation("remove", "ok")
	return nil
}

// Clear deletes every pending line in scope and returns how many were removed.
func (s *Service) Clear(ctx context.Context, sc scope.Scope) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if !sc.Valid() {
		return 0, scope.ErrMissing
	}
	n, err := s.Store.ClearCart(ctx, sc.OwnerID)
	if err != nil {
		obs.ObserveCartMutation("clear", "error")
		return 0, fmt.Errorf("clear cart: %w", err)
	}
	obs.ObserveCartMutation("clear", "ok")
	return n, nil
}

// List returns the pending lines joined with live product details.
func (s *Service) List(ctx context.Context, sc scope.Scope) ([]Line, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !sc.Valid() {
		return nil, scope.ErrMissing
	}
	rows, err := s.Store.ListCartItems(ctx, sc.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		line := Line{
			ID:        row.ID,
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
			LineTotal: lineTotal(row.UnitPrice, row.Quantity),
		}
		if row.ProductName.Valid {
			line.Product = &ProductRef{
				Name:      row.ProductName.String,
				Inventory: row.ProductInventory.Int32,
				Price:     row.ProductPrice.Decimal,
			}
			if row.ProductImageUrl.Valid {
				v := row.ProductImageUrl.String
				line.Product.ImageURL = &v
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// View lists the cart and prices it with the owner's tax rate.
func (s *Service) View(ctx context.Context, sc scope.Scope, discount pricing.Discount) (View, error) {
	lines, err := s.List(ctx, sc)
	if err != nil {
		return View{}, err
	}
	summary, currency, err := s.Price(ctx, sc, Items(lines), discount)
	if err != nil {
		return View{}, err
	}
	return View{Items: lines, Pricing: summary, Currency: currency}, nil
}

// Price runs the pricing engine over items using the owner's settings.
func (s *Service) Price(ctx context.Context, sc scope.Scope, items []pricing.Item, discount pricing.Discount) (pricing.Summary, string, error) {
	if err := discount.Validate(); err != nil {
		return pricing.Summary{}, "", err
	}
	rate := decimal.Zero
	currency := s.Currency
	if s.Settings != nil {
		settingsView, err := s.Settings.Get(ctx, sc.OwnerID)
		switch {
		case err == nil:
			rate = settingsView.TaxRate
			currency = settingsView.CurrencyCode
		case errors.Is(err, settings.ErrNotFound):
			rate = s.Settings.DefaultTaxRate
		default:
			return pricing.Summary{}, "", err
		}
	}
	return pricing.Compute(items, discount, rate), currency, nil
}

// Items converts cart lines into pricing engine input.
func Items(lines []Line) []pricing.Item {
	out := make([]pricing.Item, 0, len(lines))
	for _, l := range lines {
		out = append(out, pricing.Item{Qty: int(l.Quantity), UnitPrice: l.UnitPrice})
	}
	return out
}

func lineFrom(item dbgen.CartItem, product *dbgen.Product) Line {
	line := Line{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		LineTotal: lineTotal(item.UnitPrice, item.Quantity),
	}
	if product != nil {
		line.Product = &ProductRef{Name: product.Name, Price: product.Price, Inventory: product.Inventory}
		if product.ImageUrl.Valid {
			v := product.ImageUrl.String
			line.Product.ImageURL = &v
		}
	}
	return line
}

func lineTotal(price decimal.Decimal, qty int32) decimal.Decimal {
	return price.Mul(decimal.NewFromInt32(qty)).Round(pricing.Precision)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrProductNotFound):
		return "not_found"
	case errors.Is(err, inventory.ErrOutOfStock):
		return "out_of_stock"
	default:
		return "error"
	}
}
