package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is one of the display currencies the storefront supports.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// BaseCurrency is the currency every product price is stored in.
const BaseCurrency = USD

// Currencies lists the supported currencies in display order.
var Currencies = []Currency{USD, EUR, GBP}

var symbols = map[Currency]string{
	USD: "$",
	EUR: "€",
	GBP: "£",
}

// ParseCurrency accepts a currency code in any case.
func ParseCurrency(code string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	_, ok := symbols[c]
	return c, ok
}

// Valid reports whether c is in the supported set.
func (c Currency) Valid() bool {
	_, ok := symbols[c]
	return ok
}

// Symbol returns the display symbol, "$" for anything unknown.
func (c Currency) Symbol() string {
	if s, ok := symbols[c]; ok {
		return s
	}
	return symbols[USD]
}

// Rates maps each currency to its multiplier against the base currency.
type Rates map[Currency]decimal.Decimal

// DefaultRates returns the built-in exchange table.
func DefaultRates() Rates {
	return Rates{
		USD: decimal.NewFromInt(1),
		EUR: decimal.RequireFromString("0.93"),
		GBP: decimal.RequireFromString("0.79"),
	}
}

// ParseRates applies overrides such as {"EUR": "0.92"} on top of the default
// table. The base currency cannot be overridden and every rate must be
// positive.
func ParseRates(overrides map[string]string) (Rates, error) {
	rates := DefaultRates()
	for code, raw := range overrides {
		c, ok := ParseCurrency(code)
		if !ok {
			return nil, fmt.Errorf("unsupported currency %q", code)
		}
		v, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("rate for %s: %w", c, err)
		}
		rates[c] = v
	}
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	return rates, nil
}

// Validate checks that the table covers every currency with a positive
// multiplier and that the base currency is 1.
func (r Rates) Validate() error {
	for _, c := range Currencies {
		v, ok := r[c]
		if !ok {
			return fmt.Errorf("missing rate for %s", c)
		}
		if !v.IsPositive() {
			return fmt.Errorf("rate for %s must be positive, got %s", c, v)
		}
	}
	if !r[BaseCurrency].Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("rate for base currency %s must be 1", BaseCurrency)
	}
	return nil
}

// Rate returns the multiplier for c, 1 for anything unknown.
func (r Rates) Rate(c Currency) decimal.Decimal {
	if v, ok := r[c]; ok {
		return v
	}
	return decimal.NewFromInt(1)
}

// Convert returns base expressed in c.
func (r Rates) Convert(c Currency, base decimal.Decimal) decimal.Decimal {
	return base.Mul(r.Rate(c))
}

// Format renders base in c as symbol plus two decimals, rounding half away
// from zero ("€93.00", "$1.40" for 1.395). No thousands separators.
func (r Rates) Format(c Currency, base decimal.Decimal) string {
	return c.Symbol() + r.Convert(c, base).StringFixed(2)
}

// Converter holds a session's selected display currency.
type Converter struct {
	rates    Rates
	selected Currency
}

// NewConverter starts in the base currency.
func NewConverter(rates Rates) *Converter {
	return &Converter{rates: rates, selected: BaseCurrency}
}

// RestoreConverter rebuilds a converter with a previously stored selection.
// The selection is kept as-is; unknown values render with the base symbol and
// a multiplier of 1.
func RestoreConverter(rates Rates, selected Currency) *Converter {
	return &Converter{rates: rates, selected: selected}
}

// Selected returns the current selection.
func (c *Converter) Selected() Currency {
	return c.selected
}

// SetCurrency selects code and reports whether the selection changed.
// Codes outside the supported set are ignored.
func (c *Converter) SetCurrency(code Currency) bool {
	if !code.Valid() || code == c.selected {
		return false
	}
	c.selected = code
	return true
}

// Convert returns base in the selected currency.
func (c *Converter) Convert(base decimal.Decimal) decimal.Decimal {
	return c.rates.Convert(c.selected, base)
}

// Format renders base in the selected currency.
func (c *Converter) Format(base decimal.Decimal) string {
	return c.rates.Format(c.selected, base)
}
