package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Kurzwaffle/antiques/internal/domain"
	"github.com/Kurzwaffle/antiques/pkg/database"
	apperrors "github.com/Kurzwaffle/antiques/pkg/errors"
)

var tracer = database.QueryTracer{System: "postgresql", SlowThreshold: 200 * time.Millisecond}

const getProfileSQL = `
	SELECT id, email, role, created_at
	FROM profiles
	WHERE id = $1`

// ProfileRepository implements repository.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	db database.DBTX
}

// NewProfileRepository creates a new PostgreSQL-backed profile repository.
func NewProfileRepository(db database.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (_ *domain.Profile, err error) {
	ctx, end := tracer.Start(ctx, "GetProfile", getProfileSQL)
	defer func() { end(err) }()

	var p domain.Profile
	err = r.db.QueryRow(ctx, getProfileSQL, id).Scan(&p.ID, &p.Email, &p.Role, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("profile", id)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

const getAdminAccountSQL = `
	SELECT id, email, password_hash, created_at
	FROM admin_accounts
	WHERE lower(email) = $1`

// AdminAccountRepository implements repository.AdminAccountRepository using PostgreSQL.
type AdminAccountRepository struct {
	db database.DBTX
}

// NewAdminAccountRepository creates a new PostgreSQL-backed admin account repository.
func NewAdminAccountRepository(db database.DBTX) *AdminAccountRepository {
	return &AdminAccountRepository{db: db}
}

// GetByEmail retrieves an account by email, ignoring case.
func (r *AdminAccountRepository) GetByEmail(ctx context.Context, email string) (_ *domain.AdminAccount, err error) {
	ctx, end := tracer.Start(ctx, "GetAdminAccount", getAdminAccountSQL)
	defer func() { end(err) }()

	email = strings.ToLower(strings.TrimSpace(email))

	var a domain.AdminAccount
	err = r.db.QueryRow(ctx, getAdminAccountSQL, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("admin account", email)
		}
		return nil, fmt.Errorf("get admin account: %w", err)
	}
	return &a, nil
}
