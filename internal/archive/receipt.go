package archive

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/backend-kasir/internal/scope"
	"github.com/noah-isme/backend-kasir/internal/settings"
)

// StoreInfo is the header block printed on a receipt.
type StoreInfo struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	LogoURL *string `json:"logo_url,omitempty"`
}

// Receipt is a printable rendering of a transaction.
type Receipt struct {
	Store       StoreInfo `json:"store"`
	Currency    string    `json:"currency"`
	Transaction View      `json:"transaction"`
	Footer      *string   `json:"footer"`
	PrintedAt   time.Time `json:"printed_at"`
}

// Receipt merges a transaction with the owner's display settings.
func (s *Service) Receipt(ctx context.Context, sc scope.Scope, id int64) (Receipt, error) {
	v, err := s.Get(ctx, sc, id)
	if err != nil {
		return Receipt{}, err
	}
	r := Receipt{Transaction: v, PrintedAt: time.Now().UTC()}
	if s.Settings == nil {
		return r, nil
	}
	st, err := s.Settings.Get(ctx, sc.OwnerID)
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			return r, nil
		}
		return Receipt{}, err
	}
	r.Currency = st.CurrencyCode
	r.Footer = st.ReceiptFooter
	r.Store = StoreInfo{
		Name:    st.StoreName,
		Address: st.StoreAddress,
		Phone:   st.StorePhone,
		Email:   st.StoreEmail,
	}
	if st.ShowLogo {
		r.Store.LogoURL = st.LogoURL
	}
	return r, nil
}
