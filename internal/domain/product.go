package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidProduct is wrapped by every Product validation failure.
var ErrInvalidProduct = errors.New("invalid product")

// Product is an antique offered by the catalog. Prices are in the base
// currency (USD). Products are immutable once built by the catalog.
type Product struct {
	ID               string          `json:"id"`
	Slug             string          `json:"slug"`
	Name             string          `json:"name"`
	ShortDescription string          `json:"short_description"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"`
	Images           []string        `json:"images"`
	Category         string          `json:"category"`
	Era              string          `json:"era"`
	Origin           string          `json:"origin"`
	Materials        []string        `json:"materials"`
	Dimensions       string          `json:"dimensions"`
	Condition        string          `json:"condition"`
	Featured         bool            `json:"featured"`
	InStock          bool            `json:"in_stock"`
	CreatedAt        time.Time       `json:"created_at,omitzero"`
}

// Validate checks the invariants every catalog product must hold.
func (p Product) Validate() error {
	var errs []error
	if p.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if p.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if p.Price.IsNegative() {
		errs = append(errs, fmt.Errorf("price %s is negative", p.Price))
	}
	if len(p.Images) == 0 {
		errs = append(errs, errors.New("at least one image is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %w", ErrInvalidProduct, p.ID, errors.Join(errs...))
	}
	return nil
}

// PrimaryImage returns the first image, the one shown in listings.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
