package domain

import "github.com/shopspring/decimal"

// CartEntry pairs a product with a positive quantity.
type CartEntry struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is price times quantity in the base currency.
func (e CartEntry) Subtotal() decimal.Decimal {
	return e.Product.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Cart is an ordered set of entries, at most one per product id, none with a
// quantity below 1. Mutators report whether anything changed. A Cart belongs
// to one session and is not safe for concurrent use.
type Cart struct {
	entries []CartEntry
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// RestoreCart rebuilds a cart from stored entries, merging duplicate ids and
// dropping non-positive quantities so a damaged snapshot cannot break the
// cart's invariants.
func RestoreCart(entries []CartEntry) *Cart {
	c := NewCart()
	for _, e := range entries {
		if e.Quantity > 0 {
			c.AddItem(e.Product, e.Quantity)
		}
	}
	return c
}

func (c *Cart) index(productID string) int {
	for i := range c.entries {
		if c.entries[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// AddItem adds quantity of p, merging with an existing entry. A quantity
// below 1 is treated as 1. Stock is not checked.
func (c *Cart) AddItem(p Product, quantity int) bool {
	if quantity < 1 {
		quantity = 1
	}
	if i := c.index(p.ID); i >= 0 {
		c.entries[i].Quantity += quantity
		return true
	}
	c.entries = append(c.entries, CartEntry{Product: p, Quantity: quantity})
	return true
}

// RemoveItem deletes the entry for productID if there is one.
func (c *Cart) RemoveItem(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	return true
}

// UpdateQuantity sets the quantity of an existing entry. Zero or less removes
// the entry. Unknown ids are ignored.
func (c *Cart) UpdateQuantity(productID string, quantity int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		return c.RemoveItem(productID)
	}
	if c.entries[i].Quantity == quantity {
		return false
	}
	c.entries[i].Quantity = quantity
	return true
}

// Clear empties the cart. It reports false when the cart was already empty.
func (c *Cart) Clear() bool {
	if len(c.entries) == 0 {
		return false
	}
	c.entries = nil
	return true
}

// Count is the sum of all quantities, the number shown on the cart badge.
func (c *Cart) Count() int {
	n := 0
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

// Total is the sum of entry subtotals in the base currency.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.entries {
		total = total.Add(e.Subtotal())
	}
	return total
}

// Len is the number of distinct products.
func (c *Cart) Len() int {
	return len(c.entries)
}

// Quantity returns the quantity held for productID, 0 if absent.
func (c *Cart) Quantity(productID string) int {
	if i := c.index(productID); i >= 0 {
		return c.entries[i].Quantity
	}
	return 0
}

// Entries returns a copy of the entries in insertion order.
func (c *Cart) Entries() []CartEntry {
	out := make([]CartEntry, len(c.entries))
	copy(out, c.entries)
	return out
}
