package archive

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// Line is a cart line bound to a transaction, frozen at settlement price.
type Line struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	ProductName *string `json:"product_name"`
	ImageURL    *string `json:"image_url"`
	Quantity    int32   `json:"quantity"`
	UnitPrice   string  `json:"unit_price"`
	LineTotal   string  `json:"line_total"`
}

// View is the read model of a transaction. Money is rendered with two decimals.
type View struct {
	ID             int64      `json:"id"`
	Status         string     `json:"status"`
	Completed      bool       `json:"completed"`
	PaymentMethod  string     `json:"payment_method"`
	Subtotal       string     `json:"subtotal"`
	DiscountKind   *string    `json:"discount_kind"`
	DiscountValue  *string    `json:"discount_value"`
	Discount       string     `json:"discount"`
	TaxRate        string     `json:"tax_rate"`
	Tax            string     `json:"tax"`
	Total          string     `json:"total"`
	AmountTendered *string    `json:"amount_tendered"`
	ChangeDue      *string    `json:"change_due"`
	CashierID      *int64     `json:"cashier_id"`
	RestockedAt    *time.Time `json:"restocked_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Items          []Line     `json:"items,omitempty"`
}

func viewOf(t dbgen.Transaction) View {
	v := View{
		ID:             t.ID,
		Status:         string(t.Status),
		Completed:      t.Completed,
		PaymentMethod:  t.PaymentMethod,
		Subtotal:       pricing.Format(t.Subtotal),
		Discount:       pricing.Format(decimal.Zero),
		TaxRate:        t.TaxRate.StringFixed(2),
		Tax:            pricing.Format(t.Tax),
		Total:          pricing.Format(t.Total),
		AmountTendered: money(t.AmountTendered),
		ChangeDue:      money(t.ChangeDue),
		CreatedAt:      common.TimeOf(t.CreatedAt),
		UpdatedAt:      common.TimeOf(t.UpdatedAt),
	}
	if t.DiscountAmount.Valid {
		v.Discount = pricing.Format(t.DiscountAmount.Decimal)
	}
	if t.DiscountKind.Valid {
		kind := string(t.DiscountKind.DiscountKind)
		v.DiscountKind = &kind
	}
	v.DiscountValue = money(t.DiscountValue)
	if t.CashierID.Valid {
		id := t.CashierID.Int64
		v.CashierID = &id
	}
	if t.RestockedAt.Valid {
		at := t.RestockedAt.Time
		v.RestockedAt = &at
	}
	return v
}

func linesOf(rows []dbgen.ListTransactionItemsRow) []Line {
	out := make([]Line, 0, len(rows))
	for _, r := range rows {
		out = append(out, Line{
			ID:          r.ID,
			ProductID:   r.ProductID,
			ProductName: common.TextPtr(r.ProductName),
			ImageURL:    common.TextPtr(r.ProductImageUrl),
			Quantity:    r.Quantity,
			UnitPrice:   pricing.Format(r.UnitPrice),
			LineTotal:   pricing.Format(r.UnitPrice.Mul(decimal.NewFromInt32(r.Quantity))),
		})
	}
	return out
}

func money(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := pricing.Format(d.Decimal)
	return &s
}
