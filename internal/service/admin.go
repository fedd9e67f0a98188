package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Kurzwaffle/antiques/internal/auth"
	"github.com/Kurzwaffle/antiques/internal/catalog"
	"github.com/Kurzwaffle/antiques/internal/domain"
	"github.com/Kurzwaffle/antiques/internal/repository"
	apperrors "github.com/Kurzwaffle/antiques/pkg/errors"
)

// MsgNotAdmin is the message shown when valid credentials lack the admin role.
const MsgNotAdmin = "You do not have administrator privileges."

// SignInInput holds the admin login form.
type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminSession is what a successful sign-in hands back.
type AdminSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

// CatalogStats reports catalog figures for the dashboard.
type CatalogStats interface {
	Stats(ctx context.Context) (catalog.Stats, error)
}

// TokenIssuer signs admin access tokens.
type TokenIssuer interface {
	GenerateAccessToken(userID, email, role string) (string, time.Time, error)
}

// AdminService implements the admin shell: sign-in and the dashboard.
type AdminService struct {
	authn    auth.Authenticator
	profiles repository.ProfileRepository
	tokens   TokenIssuer
	catalog  CatalogStats
	logger   *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(
	authn auth.Authenticator,
	profiles repository.ProfileRepository,
	tokens TokenIssuer,
	catalog CatalogStats,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		authn:    authn,
		profiles: profiles,
		tokens:   tokens,
		catalog:  catalog,
		logger:   logger,
	}
}

// SignIn checks the credentials, then requires the admin role on the
// account's profile before issuing a token.
func (s *AdminService) SignIn(ctx context.Context, input SignInInput) (*AdminSession, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	identity, err := s.authn.Authenticate(ctx, email, input.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) || errors.Is(err, apperrors.ErrServiceUnavail) {
			s.logger.WarnContext(ctx, "admin sign-in rejected",
				slog.String("email", email),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	profile, err := s.profiles.GetByID(ctx, identity.UserID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil || !profile.IsAdmin() {
		s.logger.WarnContext(ctx, "sign-in without admin role",
			slog.String("user_id", identity.UserID),
		)
		return nil, apperrors.Forbidden(MsgNotAdmin)
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(identity.UserID, identity.Email, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "admin signed in",
		slog.String("user_id", identity.UserID),
		slog.String("email", identity.Email),
	)

	return &AdminSession{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    identity.UserID,
		Email:     identity.Email,
		Role:      domain.RoleAdmin,
	}, nil
}

// Dashboard returns the catalog summary.
func (s *AdminService) Dashboard(ctx context.Context) (catalog.Stats, error) {
	stats, err := s.catalog.Stats(ctx)
	if err != nil {
		return catalog.Stats{}, err
	}
	return stats, nil
}
