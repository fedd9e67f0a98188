package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id string, price string) Product {
	return Product{
		ID:     id,
		Name:   "Product " + id,
		Price:  decimal.RequireFromString(price),
		Images: []string{"/images/" + id + ".jpg"},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ============================================================================
// Product
// ============================================================================

func TestProduct_Validate(t *testing.T) {
	assert.NoError(t, product("1", "2800").Validate())
	assert.NoError(t, product("free", "0").Validate())

	bad := Product{Price: dec("-1")}
	err := bad.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidProduct)
	assert.Contains(t, err.Error(), "id is required")
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "negative")
	assert.Contains(t, err.Error(), "image")
}

func TestProduct_PrimaryImage(t *testing.T) {
	p := product("1", "1")
	p.Images = []string{"/a.jpg", "/b.jpg"}
	assert.Equal(t, "/a.jpg", p.PrimaryImage())
	assert.Empty(t, Product{}.PrimaryImage())
}

// ============================================================================
// Cart
// ============================================================================

func TestCart_AddSameProductMerges(t *testing.T) {
	c := NewCart()
	p := product("chest", "2800")

	assert.True(t, c.AddItem(p, 2))
	assert.True(t, c.AddItem(p, 3))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 5, c.Quantity("chest"))
	assert.Equal(t, 5, c.Count())
}

func TestCart_CountIsSumOfQuantitiesAcrossAdds(t *testing.T) {
	c := NewCart()
	p := product("carpet", "3600")
	quantities := []int{1, 4, 2, 7}

	sum := 0
	for _, q := range quantities {
		c.AddItem(p, q)
		sum += q
	}

	assert.Equal(t, sum, c.Count())
	assert.Equal(t, 1, c.Len())
}

func TestCart_CountIsNotDistinctEntries(t *testing.T) {
	c := NewCart()
	c.AddItem(product("a", "1"), 3)
	c.AddItem(product("b", "1"), 2)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 5, c.Count())
}

func TestCart_AddNonPositiveQuantityClampsToOne(t *testing.T) {
	for _, q := range []int{0, -1, -50} {
		c := NewCart()
		c.AddItem(product("a", "10"), q)
		assert.Equal(t, 1, c.Quantity("a"), "quantity %d", q)
	}
}

func TestCart_AddPreservesInsertionOrder(t *testing.T) {
	c := NewCart()
	c.AddItem(product("b", "1"), 1)
	c.AddItem(product("a", "1"), 1)
	c.AddItem(product("c", "1"), 1)
	c.AddItem(product("a", "1"), 1)

	ids := make([]string, 0, 3)
	for _, e := range c.Entries() {
		ids = append(ids, e.Product.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}

func TestCart_AddOutOfStockAccepted(t *testing.T) {
	c := NewCart()
	p := product("sold", "100")
	p.InStock = false

	assert.True(t, c.AddItem(p, 1))
	assert.Equal(t, 1, c.Count())
}

func TestCart_RemoveItem(t *testing.T) {
	c := NewCart()
	c.AddItem(product("a", "1"), 2)
	c.AddItem(product("b", "1"), 1)

	assert.True(t, c.RemoveItem("a"))
	assert.Equal(t, 0, c.Quantity("a"))
	assert.Equal(t, 1, c.Len())
}

func TestCart_RemoveAbsentIsNoop(t *testing.T) {
	c := NewCart()
	c.AddItem(product("a", "5"), 2)
	before := c.Entries()

	assert.False(t, c.RemoveItem("never-added"))
	assert.Equal(t, before, c.Entries())
}

func TestCart_UpdateQuantity(t *testing.T) {
	c := NewCart()
	c.AddItem(product("a", "5"), 1)

	assert.True(t, c.UpdateQuantity("a", 4))
	assert.Equal(t, 4, c.Quantity("a"))

	assert.False(t, c.UpdateQuantity("a", 4), "same quantity is not a change")
	assert.False(t, c.UpdateQuantity("missing", 3))
	assert.Equal(t, 0, c.Quantity("missing"))
}

func TestCart_UpdateQuantityZeroOrLessRemoves(t *testing.T) {
	for _, q := range []int{0, -1} {
		c := NewCart()
		c.AddItem(product("a", "5"), 1)

		assert.True(t, c.UpdateQuantity("a", q))
		assert.Equal(t, 0, c.Len())
		assert.Equal(t, 0, c.Count())
	}
}

func TestCart_Total(t *testing.T) {
	c := NewCart()
	c.AddItem(product("A", "100"), 2)
	c.AddItem(product("B", "50"), 1)
	assert.True(t, dec("250").Equal(c.Total()))

	reversed := NewCart()
	reversed.AddItem(product("B", "50"), 1)
	reversed.AddItem(product("A", "100"), 2)
	assert.True(t, c.Total().Equal(reversed.Total()))
}

func TestCart_TotalIsExactDecimal(t *testing.T) {
	c := NewCart()
	c.AddItem(product("a", "0.10"), 3)
	assert.Equal(t, "0.3", c.Total().String())
}

func TestCart_Clear(t *testing.T) {
	c := NewCart()
	c.AddItem(product("a", "100"), 2)
	c.AddItem(product("b", "10"), 1)
	c.UpdateQuantity("b", 5)

	assert.True(t, c.Clear())
	assert.Equal(t, 0, c.Count())
	assert.True(t, c.Total().IsZero())

	assert.False(t, c.Clear(), "clearing an empty cart is a no-op")
}

func TestCart_EntriesIsACopy(t *testing.T) {
	c := NewCart()
	c.AddItem(product("a", "1"), 1)

	entries := c.Entries()
	entries[0].Quantity = 99

	assert.Equal(t, 1, c.Quantity("a"))
}

func TestRestoreCart_RepairsInvariants(t *testing.T) {
	c := RestoreCart([]CartEntry{
		{Product: product("a", "1"), Quantity: 2},
		{Product: product("b", "1"), Quantity: 0},
		{Product: product("a", "1"), Quantity: 3},
		{Product: product("c", "1"), Quantity: -4},
	})

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 5, c.Quantity("a"))
}

// ============================================================================
// Currency
// ============================================================================

func TestParseCurrency(t *testing.T) {
	c, ok := ParseCurrency(" eur ")
	assert.True(t, ok)
	assert.Equal(t, EUR, c)

	_, ok = ParseCurrency("JPY")
	assert.False(t, ok)
}

func TestCurrency_Symbol(t *testing.T) {
	assert.Equal(t, "$", USD.Symbol())
	assert.Equal(t, "€", EUR.Symbol())
	assert.Equal(t, "£", GBP.Symbol())
	assert.Equal(t, "$", Currency("JPY").Symbol())
}

func TestConverter_DefaultsToUSD(t *testing.T) {
	c := NewConverter(DefaultRates())
	assert.Equal(t, USD, c.Selected())
	assert.Equal(t, "$100.00", c.Format(dec("100")))
}

func TestConverter_ConvertAndFormatEUR(t *testing.T) {
	c := NewConverter(DefaultRates())
	require.True(t, c.SetCurrency(EUR))

	assert.True(t, dec("93").Equal(c.Convert(dec("100"))))
	assert.Equal(t, "€93.00", c.Format(dec("100")))
}

func TestConverter_FormatGBP(t *testing.T) {
	c := NewConverter(DefaultRates())
	c.SetCurrency(GBP)
	assert.Equal(t, "£2212.00", c.Format(dec("2800")))
}

func TestConverter_SetUnknownCurrencyIsNoop(t *testing.T) {
	c := NewConverter(DefaultRates())
	c.SetCurrency(GBP)

	assert.False(t, c.SetCurrency("JPY"))
	assert.False(t, c.SetCurrency(""))
	assert.Equal(t, GBP, c.Selected())
}

func TestConverter_SetSameCurrencyReportsNoChange(t *testing.T) {
	c := NewConverter(DefaultRates())
	assert.False(t, c.SetCurrency(USD))
}

func TestConverter_UnknownSelectionFallsBackToUSD(t *testing.T) {
	c := RestoreConverter(DefaultRates(), "JPY")

	assert.True(t, dec("100").Equal(c.Convert(dec("100"))))
	assert.Equal(t, "$100.00", c.Format(dec("100")))
}

func TestFormat_RoundsHalfAwayFromZero(t *testing.T) {
	rates := DefaultRates()
	tests := []struct {
		base string
		want string
	}{
		{"1.395", "$1.40"},
		{"1.394", "$1.39"},
		{"0.005", "$0.01"},
		{"0.004", "$0.00"},
		{"2.675", "$2.68"},
		{"1450", "$1450.00"},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			assert.Equal(t, tt.want, rates.Format(USD, dec(tt.base)))
		})
	}
}

func TestFormat_ConvertedValueIsRounded(t *testing.T) {
	// 1.5 * 0.93 = 1.395
	assert.Equal(t, "€1.40", DefaultRates().Format(EUR, dec("1.5")))
	// 0.5 * 0.79 = 0.395
	assert.Equal(t, "£0.40", DefaultRates().Format(GBP, dec("0.5")))
}

func TestParseRates(t *testing.T) {
	rates, err := ParseRates(map[string]string{"eur": "0.92", "GBP": " 0.78 "})
	require.NoError(t, err)
	assert.True(t, dec("0.92").Equal(rates[EUR]))
	assert.True(t, dec("0.78").Equal(rates[GBP]))
	assert.True(t, dec("1").Equal(rates[USD]))

	defaults, err := ParseRates(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultRates(), defaults)
}

func TestParseRates_Rejects(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown currency": {"JPY": "150"},
		"not a number":     {"EUR": "abc"},
		"zero":             {"EUR": "0"},
		"negative":         {"GBP": "-0.5"},
		"base not one":     {"USD": "1.1"},
	}

	for name, overrides := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRates(overrides)
			assert.Error(t, err)
		})
	}
}

func TestRates_RateUnknownIsOne(t *testing.T) {
	assert.True(t, dec("1").Equal(DefaultRates().Rate("XYZ")))
}
