package pricing

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money represents a currency amount. Arithmetic is exact; figures are rounded
// to Precision decimal places only when a Summary is produced.
type Money = decimal.Decimal

// Precision is the number of decimal places persisted for currency figures.
const Precision int32 = 2

var hundred = decimal.NewFromInt(100)

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal           Money
	Discount           Money
	DiscountedSubtotal Money
	TaxRate            decimal.Decimal
	Tax                Money
	Total              Money
}

// Compute calculates totals for the provided items. Tax is charged on the
// discounted subtotal. The discount never exceeds the subtotal.
//
// The subtotal is summed in full precision and rounded once. Discount and tax
// are rounded once each, and the discounted subtotal and total are derived from
// the rounded components so total == (subtotal - discount) + tax holds exactly.
func Compute(items []Item, discount Discount, taxRate decimal.Decimal) Summary {
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	subtotal = subtotal.Round(Precision)

	applied := discount.amount(subtotal).Round(Precision)
	if applied.GreaterThan(subtotal) {
		applied = subtotal
	}
	if applied.IsNegative() {
		applied = decimal.Zero
	}
	discounted := subtotal.Sub(applied)

	if taxRate.IsNegative() {
		taxRate = decimal.Zero
	}
	tax := discounted.Mul(taxRate).Div(hundred).Round(Precision)

	return Summary{
		Subtotal:           subtotal,
		Discount:           applied,
		DiscountedSubtotal: discounted,
		TaxRate:            taxRate,
		Tax:                tax,
		Total:              discounted.Add(tax),
	}
}

// Equal reports whether two summaries carry the same figures.
func (s Summary) Equal(o Summary) bool {
	return s.Subtotal.Equal(o.Subtotal) &&
		s.Discount.Equal(o.Discount) &&
		s.DiscountedSubtotal.Equal(o.DiscountedSubtotal) &&
		s.TaxRate.Equal(o.TaxRate) &&
		s.Tax.Equal(o.Tax) &&
		s.Total.Equal(o.Total)
}

// Format renders a currency amount with fixed precision.
func Format(m Money) string {
	return m.StringFixed(Precision)
}

// MarshalJSON renders every figure as a fixed precision string.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Subtotal           string `json:"subtotal"`
		Discount           string `json:"discount"`
		DiscountedSubtotal string `json:"discounted_subtotal"`
		TaxRate            string `json:"tax_rate"`
		Tax                string `json:"tax"`
		Total              string `json:"total"`
	}{
		Subtotal:           Format(s.Subtotal),
		Discount:           Format(s.Discount),
		DiscountedSubtotal: Format(s.DiscountedSubtotal),
		TaxRate:            s.TaxRate.String(),
		Tax:                Format(s.Tax),
		Total:              Format(s.Total),
	})
}
