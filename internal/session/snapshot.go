package session

import (
	"time"

	"github.com/Kurzwaffle/antiques/internal/domain"
)

// Snapshot is the serializable state of a session.
type Snapshot struct {
	ID        string             `json:"id"`
	Entries   []domain.CartEntry `json:"entries"`
	Currency  domain.Currency    `json:"currency"`
	Version   int64              `json:"version"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Snapshot captures the current state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:        s.id,
		Entries:   s.cart.Entries(),
		Currency:  s.converter.Selected(),
		Version:   s.version,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

// Restore rebuilds a session from snap. Observers are not part of a snapshot
// and must be subscribed again.
func Restore(snap Snapshot, rates domain.Rates) *Session {
	s := &Session{
		id:        snap.ID,
		cart:      domain.RestoreCart(snap.Entries),
		converter: domain.RestoreConverter(rates, snap.Currency),
		version:   snap.Version,
		createdAt: snap.CreatedAt,
		updatedAt: snap.UpdatedAt,
		now:       time.Now,
	}
	if s.converter.Selected() == "" {
		s.converter = domain.NewConverter(rates)
	}
	return s
}
