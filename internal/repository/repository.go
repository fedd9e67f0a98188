package repository

import (
	"context"

	"github.com/Kurzwaffle/antiques/internal/domain"
	"github.com/Kurzwaffle/antiques/internal/session"
)

// SessionRepository stores storefront session snapshots.
type SessionRepository interface {
	// Create stores a new snapshot. It fails with a conflict if the id is taken.
	Create(ctx context.Context, snap session.Snapshot) error

	// Get returns the snapshot for id or a not-found error.
	Get(ctx context.Context, id string) (session.Snapshot, error)

	// SaveIfVersion replaces the stored snapshot only if its version still
	// equals expectedVersion. It returns false when another writer got there
	// first or the session no longer exists.
	SaveIfVersion(ctx context.Context, snap session.Snapshot, expectedVersion int64) (bool, error)

	// Delete removes the snapshot; deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}

// ProfileRepository reads account profiles.
type ProfileRepository interface {
	// GetByID returns the profile or a not-found error.
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
}

// AdminAccountRepository reads locally stored admin credentials.
type AdminAccountRepository interface {
	// GetByEmail returns the account or a not-found error.
	GetByEmail(ctx context.Context, email string) (*domain.AdminAccount, error)
}
