// Package session holds the per-browser-session storefront state: one cart and
// one display currency, with explicit change notifications.
package session

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kurzwaffle/antiques/internal/domain"
)

// ChangeKind names what a notification is about.
type ChangeKind string

const (
	ChangeCartUpdated ChangeKind = "cart_updated"
	ChangeCartCleared ChangeKind = "cart_cleared"
	ChangeCurrency    ChangeKind = "currency_changed"
	ChangeEnded       ChangeKind = "session_ended"
)

// Change describes one state change of a session, after it happened.
type Change struct {
	Kind      ChangeKind
	SessionID string
	Version   int64
	Currency  domain.Currency
	Count     int
	Total     decimal.Decimal
	ProductID string
	At        time.Time
}

// Observer receives changes synchronously, in subscription order.
type Observer interface {
	OnChange(Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Change)

// OnChange calls f.
func (f ObserverFunc) OnChange(c Change) { f(c) }

type subscription struct {
	id       int
	observer Observer
}

// Session is owned by a single actor at a time and has no locking. Callers
// that share sessions across goroutines serialize through the session store.
type Session struct {
	id        string
	cart      *domain.Cart
	converter *domain.Converter
	version   int64
	createdAt time.Time
	updatedAt time.Time

	subs     []subscription
	nextSub  int
	disposed bool

	now func() time.Time
}

// New starts a session with an empty cart in the base currency.
func New(id string, rates domain.Rates) *Session {
	s := &Session{
		id:        id,
		cart:      domain.NewCart(),
		converter: domain.NewConverter(rates),
		now:       time.Now,
	}
	s.createdAt = s.now().UTC()
	s.updatedAt = s.createdAt
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Version increases by one on every change.
func (s *Session) Version() int64 { return s.version }

// CreatedAt returns when the session started.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the time of the last change.
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

// Disposed reports whether Dispose was called.
func (s *Session) Disposed() bool { return s.disposed }

// Subscribe registers o and returns a function that removes it again.
func (s *Session) Subscribe(o Observer) (unsubscribe func()) {
	if s.disposed || o == nil {
		return func() {}
	}
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscription{id: id, observer: o})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// AddItem adds quantity of p to the cart.
func (s *Session) AddItem(p domain.Product, quantity int) bool {
	if s.disposed {
		return false
	}
	return s.changed(s.cart.AddItem(p, quantity), ChangeCartUpdated, p.ID)
}

// RemoveItem drops productID from the cart.
func (s *Session) RemoveItem(productID string) bool {
	if s.disposed {
		return false
	}
	return s.changed(s.cart.RemoveItem(productID), ChangeCartUpdated, productID)
}

// UpdateQuantity sets the quantity for productID; zero or less removes it.
func (s *Session) UpdateQuantity(productID string, quantity int) bool {
	if s.disposed {
		return false
	}
	return s.changed(s.cart.UpdateQuantity(productID, quantity), ChangeCartUpdated, productID)
}

// ClearCart empties the cart.
func (s *Session) ClearCart() bool {
	if s.disposed {
		return false
	}
	return s.changed(s.cart.Clear(), ChangeCartCleared, "")
}

// SetCurrency changes the display currency. Unsupported codes are ignored.
func (s *Session) SetCurrency(c domain.Currency) bool {
	if s.disposed {
		return false
	}
	return s.changed(s.converter.SetCurrency(c), ChangeCurrency, "")
}

// Dispose ends the session. Observers get ChangeEnded and are dropped; every
// later mutation is ignored.
func (s *Session) Dispose() {
	if s.disposed {
		return
	}
	s.version++
	s.updatedAt = s.now().UTC()
	s.notify(s.change(ChangeEnded, ""))
	s.disposed = true
	s.subs = nil
}

func (s *Session) changed(ok bool, kind ChangeKind, productID string) bool {
	if !ok {
		return false
	}
	s.version++
	s.updatedAt = s.now().UTC()
	s.notify(s.change(kind, productID))
	return true
}

func (s *Session) change(kind ChangeKind, productID string) Change {
	return Change{
		Kind:      kind,
		SessionID: s.id,
		Version:   s.version,
		Currency:  s.converter.Selected(),
		Count:     s.cart.Count(),
		Total:     s.cart.Total(),
		ProductID: productID,
		At:        s.updatedAt,
	}
}

func (s *Session) notify(c Change) {
	// Copy so an observer may unsubscribe itself while being notified.
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	for _, sub := range subs {
		sub.observer.OnChange(c)
	}
}

// Entries returns the cart entries in insertion order.
func (s *Session) Entries() []domain.CartEntry { return s.cart.Entries() }

// Count is the number of items in the cart.
func (s *Session) Count() int { return s.cart.Count() }

// Len is the number of distinct products in the cart.
func (s *Session) Len() int { return s.cart.Len() }

// Quantity returns the cart quantity for productID.
func (s *Session) Quantity(productID string) int { return s.cart.Quantity(productID) }

// Total is the cart total in the base currency.
func (s *Session) Total() decimal.Decimal { return s.cart.Total() }

// Currency returns the selected display currency.
func (s *Session) Currency() domain.Currency { return s.converter.Selected() }

// Convert returns base in the selected currency.
func (s *Session) Convert(base decimal.Decimal) decimal.Decimal { return s.converter.Convert(base) }

// Format renders base in the selected currency.
func (s *Session) Format(base decimal.Decimal) string { return s.converter.Format(base) }
