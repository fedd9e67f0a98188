package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kurzwaffle/antiques/internal/domain"
	"github.com/Kurzwaffle/antiques/internal/session"
)

// CartItemView is one cart line as the storefront renders it.
type CartItemView struct {
	ProductID         string          `json:"product_id"`
	Slug              string          `json:"slug"`
	Name              string          `json:"name"`
	Image             string          `json:"image"`
	InStock           bool            `json:"in_stock"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	FormattedPrice    string          `json:"formatted_price"`
	FormattedSubtotal string          `json:"formatted_subtotal"`
}

// CartView is the cart page: entries, badge count, base total and the total
// in the selected display currency.
type CartView struct {
	SessionID      string          `json:"session_id"`
	Version        int64           `json:"version"`
	Currency       domain.Currency `json:"currency"`
	Symbol         string          `json:"symbol"`
	Items          []CartItemView  `json:"items"`
	Count          int             `json:"count"`
	Distinct       int             `json:"distinct"`
	Total          decimal.Decimal `json:"total"`
	BaseCurrency   domain.Currency `json:"base_currency"`
	ConvertedTotal decimal.Decimal `json:"converted_total"`
	FormattedTotal string          `json:"formatted_total"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewCartView renders s.
func NewCartView(s *session.Session) *CartView {
	entries := s.Entries()
	items := make([]CartItemView, len(entries))
	for i, e := range entries {
		items[i] = CartItemView{
			ProductID:         e.Product.ID,
			Slug:              e.Product.Slug,
			Name:              e.Product.Name,
			Image:             e.Product.PrimaryImage(),
			InStock:           e.Product.InStock,
			Quantity:          e.Quantity,
			UnitPrice:         e.Product.Price,
			Subtotal:          e.Subtotal(),
			FormattedPrice:    s.Format(e.Product.Price),
			FormattedSubtotal: s.Format(e.Subtotal()),
		}
	}

	total := s.Total()
	return &CartView{
		SessionID:      s.ID(),
		Version:        s.Version(),
		Currency:       s.Currency(),
		Symbol:         s.Currency().Symbol(),
		Items:          items,
		Count:          s.Count(),
		Distinct:       s.Len(),
		Total:          total,
		BaseCurrency:   domain.BaseCurrency,
		ConvertedTotal: s.Convert(total).Round(2),
		FormattedTotal: s.Format(total),
		CreatedAt:      s.CreatedAt(),
		UpdatedAt:      s.UpdatedAt(),
	}
}
