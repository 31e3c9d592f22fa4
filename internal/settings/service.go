// Package settings reads and updates the per-owner store settings.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
)

var (
	// ErrNotFound is returned when the owner row does not exist.
	ErrNotFound = errors.New("settings: owner not found")

	maxTaxRate = decimal.NewFromInt(30)
)

// Querier is the subset of queries the settings service uses.
type Querier interface {
	GetUserByID(ctx context.Context, id int64) (dbgen.User, error)
	UpdateUserSettings(ctx context.Context, arg dbgen.UpdateUserSettingsParams) (dbgen.User, error)
}

// Settings is the store configuration shown on receipts and used for tax.
type Settings struct {
	CurrencyCode  string          `json:"currency_code"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	StoreName     *string         `json:"store_name"`
	StoreAddress  *string         `json:"store_address"`
	StorePhone    *string         `json:"store_phone"`
	StoreEmail    *string         `json:"store_email"`
	ReceiptFooter *string         `json:"receipt_footer"`
	ShowLogo      bool            `json:"show_logo"`
	LogoURL       *string         `json:"logo_url"`
}

// Patch is a partial update. Nil fields keep their stored value; an empty
// string clears an optional text field.
type Patch struct {
	CurrencyCode  *string          `json:"currency_code" validate:"omitempty,len=3,alpha"`
	TaxRate       *decimal.Decimal `json:"tax_rate"`
	StoreName     *string          `json:"store_name" validate:"omitempty,max=120"`
	StoreAddress  *string          `json:"store_address" validate:"omitempty,max=255"`
	StorePhone    *string          `json:"store_phone" validate:"omitempty,max=40"`
	StoreEmail    *string          `json:"store_email" validate:"omitempty,email"`
	ReceiptFooter *string          `json:"receipt_footer" validate:"omitempty,max=500"`
	ShowLogo      *bool            `json:"show_logo"`
	LogoURL       *string          `json:"logo_url" validate:"omitempty,url"`
}

// Service exposes settings reads and updates.
type Service struct {
	Q Querier
	// DefaultTaxRate applies when the owner row cannot be read.
	DefaultTaxRate decimal.Decimal
}

// Get returns the settings for ownerID.
func (s *Service) Get(ctx context.Context, ownerID int64) (Settings, error) {
	if s == nil || s.Q == nil {
		return Settings{}, errors.New("settings service not configured")
	}
	user, err := s.Q.GetUserByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return FromUser(user), nil
}

// TaxRate resolves the effective tax rate for ownerID using q, which may be a
// transaction-bound querier.
func (s *Service) TaxRate(ctx context.Context, q Querier, ownerID int64) (decimal.Decimal, error) {
	if q == nil && s != nil {
		q = s.Q
	}
	if q == nil {
		return decimal.Zero, errors.New("settings service not configured")
	}
	user, err := q.GetUserByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) && s != nil {
			return s.DefaultTaxRate, nil
		}
		return decimal.Zero, fmt.Errorf("load tax rate: %w", err)
	}
	return user.TaxRate, nil
}

// Update applies patch and returns the stored result.
func (s *Service) Update(ctx context.Context, ownerID int64, patch Patch) (Settings, error) {
	if s == nil || s.Q == nil {
		return Settings{}, errors.New("settings service not configured")
	}
	if err := common.ValidateStruct(patch); err != nil {
		return Settings{}, err
	}
	if patch.TaxRate != nil && (patch.TaxRate.IsNegative() || patch.TaxRate.GreaterThan(maxTaxRate)) {
		return Settings{}, common.FieldError("tax_rate", "tax_rate must be between 0 and 30", nil)
	}
	user, err := s.Q.GetUserByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}

	params := dbgen.UpdateUserSettingsParams{
		ID:            user.ID,
		CurrencyCode:  user.CurrencyCode,
		TaxRate:       user.TaxRate,
		StoreName:     user.StoreName,
		StoreAddress:  user.StoreAddress,
		StorePhone:    user.StorePhone,
		StoreEmail:    user.StoreEmail,
		ReceiptFooter: user.ReceiptFooter,
		ShowLogo:      user.ShowLogo,
		LogoUrl:       user.LogoUrl,
	}
	if patch.CurrencyCode != nil {
		params.CurrencyCode = strings.ToUpper(strings.TrimSpace(*patch.CurrencyCode))
	}
	if patch.TaxRate != nil {
		params.TaxRate = patch.TaxRate.Round(2)
	}
	if patch.StoreName != nil {
		params.StoreName = common.Text(*patch.StoreName)
	}
	if patch.StoreAddress != nil {
		params.StoreAddress = common.Text(*patch.StoreAddress)
	}
	if patch.StorePhone != nil {
		params.StorePhone = common.Text(*patch.StorePhone)
	}
	if patch.StoreEmail != nil {
		params.StoreEmail = common.Text(*patch.StoreEmail)
	}
	if patch.ReceiptFooter != nil {
		params.ReceiptFooter = common.Text(*patch.ReceiptFooter)
	}
	if patch.ShowLogo != nil {
		params.ShowLogo = *patch.ShowLogo
	}
	if patch.LogoURL != nil {
		params.LogoUrl = common.Text(*patch.LogoURL)
	}

	updated, err := s.Q.UpdateUserSettings(ctx, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, fmt.Errorf("update settings: %w", err)
	}
	return FromUser(updated), nil
}

// FromUser projects the settings columns of a user row.
func FromUser(u dbgen.User) Settings {
	return Settings{
		CurrencyCode:  strings.TrimSpace(u.CurrencyCode),
		TaxRate:       u.TaxRate,
		StoreName:     common.TextPtr(u.StoreName),
		StoreAddress:  common.TextPtr(u.StoreAddress),
		StorePhone:    common.TextPtr(u.StorePhone),
		StoreEmail:    common.TextPtr(u.StoreEmail),
		ReceiptFooter: common.TextPtr(u.ReceiptFooter),
		ShowLogo:      u.ShowLogo,
		LogoURL:       common.TextPtr(u.LogoUrl),
	}
}
