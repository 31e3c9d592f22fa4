// Package analytics summarises completed sales for an owner.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/scope"
)

// ErrInvalidRange rejects windows whose start is not before their end.
var ErrInvalidRange = errors.New("analytics: from must be before to")

// Querier defines the database access required for analytics operations.
type Querier interface {
	SalesByDay(ctx context.Context, arg dbgen.SalesByDayParams) ([]dbgen.SalesByDayRow, error)
	TopProducts(ctx context.Context, arg dbgen.TopProductsParams) ([]dbgen.TopProductsRow, error)
}

// Service provides cached sales aggregates. Windows are [from, to).
type Service struct {
	Q            Querier
	R            *redis.Client
	TTL          time.Duration
	DefaultRange time.Duration
	Now          func() time.Time
}

// Day is one row of the daily sales summary.
type Day struct {
	Day          string `json:"day"`
	Transactions int64  `json:"transactions"`
	Gross        string `json:"gross"`
	Discounts    string `json:"discounts"`
	Tax          string `json:"tax"`
	Revenue      string `json:"revenue"`
}

// SalesReport is the daily breakdown plus totals over the window.
type SalesReport struct {
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Days   []Day     `json:"days"`
	Totals Day       `json:"totals"`
}

// TopProduct ranks a product by units sold.
type TopProduct struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Units     int64  `json:"units"`
	Revenue   string `json:"revenue"`
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Window returns the default reporting window ending now.
func (s *Service) Window() (time.Time, time.Time) {
	span := s.DefaultRange
	if span <= 0 {
		span = 30 * 24 * time.Hour
	}
	to := s.now().UTC()
	return to.Add(-span), to
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// SalesRange returns daily totals for completed transactions in [from, to).
func (s *Service) SalesRange(ctx context.Context, sc scope.Scope, from, to time.Time) (SalesReport, error) {
	if s == nil || s.Q == nil {
		return SalesReport{}, fmt.Errorf("analytics service not configured")
	}
	if !sc.Valid() {
		return SalesReport{}, scope.ErrMissing
	}
	if !from.Before(to) {
		return SalesReport{}, ErrInvalidRange
	}
	key := cacheKey("an", "sales", sc.OwnerID, from.Unix(), to.Unix())
	var cached SalesReport
	if s.load(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.SalesByDay(ctx, dbgen.SalesByDayParams{
		UserID:   sc.OwnerID,
		FromTime: common.Timestamptz(from),
		ToTime:   common.Timestamptz(to),
	})
	if err != nil {
		return SalesReport{}, fmt.Errorf("sales by day: %w", err)
	}
	report := SalesReport{From: from, To: to, Days: make([]Day, 0, len(rows))}
	var (
		count                        int64
		gross, discounts, tax, total decimal.Decimal
	)
	for _, row := range rows {
		report.Days = append(report.Days, Day{
			Day:          row.Day.Time.Format("2006-01-02"),
			Transactions: row.Transactions,
			Gross:        pricing.Format(row.Gross),
			Discounts:    pricing.Format(row.Discounts),
			Tax:          pricing.Format(row.Tax),
			Revenue:      pricing.Format(row.Revenue),
		})
		count += row.Transactions
		gross = gross.Add(row.Gross)
		discounts = discounts.Add(row.Discounts)
		tax = tax.Add(row.Tax)
		total = total.Add(row.Revenue)
	}
	report.Totals = Day{
		Transactions: count,
		Gross:        pricing.Format(gross),
		Discounts:    pricing.Format(discounts),
		Tax:          pricing.Format(tax),
		Revenue:      pricing.Format(total),
	}
	s.store(ctx, key, report)
	return report, nil
}

// TopProducts returns the best sellers by units in [from, to).
func (s *Service) TopProducts(ctx context.Context, sc scope.Scope, from, to time.Time, limit int32) ([]TopProduct, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if !sc.Valid() {
		return nil, scope.ErrMissing
	}
	if !from.Before(to) {
		return nil, ErrInvalidRange
	}
	if limit <= 0 {
		limit = 10
	}
	key := cacheKey("an", "top", sc.OwnerID, from.Unix(), to.Unix(), limit)
	var cached []TopProduct
	if s.load(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.TopProducts(ctx, dbgen.TopProductsParams{
		UserID:     sc.OwnerID,
		FromTime:   common.Timestamptz(from),
		ToTime:     common.Timestamptz(to),
		LimitCount: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	out := make([]TopProduct, 0, len(rows))
	for _, row := range rows {
		out = append(out, TopProduct{
			ProductID: row.ProductID,
			Name:      row.Name,
			Units:     row.Units,
			Revenue:   pricing.Format(row.Revenue),
		})
	}
	s.store(ctx, key, out)
	return out, nil
}

func (s *Service) load(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
