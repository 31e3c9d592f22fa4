package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidDiscount is returned for unknown kinds or negative values.
var ErrInvalidDiscount = errors.New("invalid discount")

// DiscountKind selects how a discount value is interpreted.
type DiscountKind string

const (
	// DiscountNone applies no discount.
	DiscountNone DiscountKind = ""
	// DiscountPercentage takes Value percent of the subtotal.
	DiscountPercentage DiscountKind = "percentage"
	// DiscountAmount takes a fixed Value off the subtotal.
	DiscountAmount DiscountKind = "amount"
)

// Discount is a tagged percentage or fixed-amount reduction. The zero value applies nothing.
type Discount struct {
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// Percentage builds a percentage discount.
func Percentage(value decimal.Decimal) Discount {
	return Discount{Kind: DiscountPercentage, Value: value}
}

// Amount builds a fixed amount discount.
func Amount(value decimal.Decimal) Discount {
	return Discount{Kind: DiscountAmount, Value: value}
}

// ParseDiscount validates a kind/value pair received from a client.
func ParseDiscount(kind string, value decimal.Decimal) (Discount, error) {
	d := Discount{Kind: DiscountKind(strings.ToLower(strings.TrimSpace(kind))), Value: value}
	if err := d.Validate(); err != nil {
		return Discount{}, err
	}
	return d, nil
}

// Validate rejects unknown kinds and negative values.
func (d Discount) Validate() error {
	switch d.Kind {
	case DiscountNone:
		return nil
	case DiscountPercentage, DiscountAmount:
	default:
		return fmt.Errorf("unknown kind %q: %w", d.Kind, ErrInvalidDiscount)
	}
	if d.Value.IsNegative() {
		return fmt.Errorf("value must not be negative: %w", ErrInvalidDiscount)
	}
	return nil
}

// IsZero reports whether the discount has no effect regardless of subtotal.
func (d Discount) IsZero() bool {
	return d.Kind == DiscountNone || d.Value.IsZero()
}

// amount is the uncapped discount for the given subtotal.
func (d Discount) amount(subtotal Money) Money {
	switch d.Kind {
	case DiscountPercentage:
		return subtotal.Mul(d.Value).Div(hundred)
	case DiscountAmount:
		return d.Value
	default:
		return decimal.Zero
	}
}
