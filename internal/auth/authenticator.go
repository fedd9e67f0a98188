package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Kurzwaffle/antiques/internal/repository"
	apperrors "github.com/Kurzwaffle/antiques/pkg/errors"
	"github.com/Kurzwaffle/antiques/pkg/httpclient"
)

const invalidCredentials = "Invalid login credentials"

// Identity is who a password check proved the caller to be.
type Identity struct {
	UserID string
	Email  string
}

// Authenticator checks an email and password. Wrong credentials yield an
// Unauthorized AppError; anything else is an infrastructure failure.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (Identity, error)
}

// LocalAuthenticator checks bcrypt hashes stored in admin_accounts.
type LocalAuthenticator struct {
	accounts repository.AdminAccountRepository
}

// NewLocalAuthenticator creates an authenticator over accounts.
func NewLocalAuthenticator(accounts repository.AdminAccountRepository) *LocalAuthenticator {
	return &LocalAuthenticator{accounts: accounts}
}

// dummyHash keeps unknown-email attempts as slow as wrong-password ones.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// Authenticate implements Authenticator.
func (a *LocalAuthenticator) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	acct, err := a.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return Identity{}, apperrors.Unauthorized(invalidCredentials)
		}
		return Identity{}, fmt.Errorf("load admin account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return Identity{}, apperrors.Unauthorized(invalidCredentials)
	}
	return Identity{UserID: acct.ID, Email: acct.Email}, nil
}

// Doer sends HTTP requests. *httpclient.CircuitBreakerClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// SupabaseAuthenticator uses the hosted auth API's password grant.
type SupabaseAuthenticator struct {
	baseURL string
	apiKey  string
	client  Doer
}

// NewSupabaseAuthenticator creates an authenticator for the project at baseURL.
func NewSupabaseAuthenticator(baseURL, apiKey string, client Doer) *SupabaseAuthenticator {
	return &SupabaseAuthenticator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

type passwordGrantResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// Authenticate implements Authenticator.
func (a *SupabaseAuthenticator) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return Identity{}, fmt.Errorf("marshal sign-in request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/auth/v1/token?grant_type=password", bytes.NewReader(body))
	if err != nil {
		return Identity{}, fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("apikey", a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return Identity{}, apperrors.Unavailable("auth", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := httpclient.ParseResponseError(resp, "auth")
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && (appErr.Status == http.StatusBadRequest || appErr.Status == http.StatusUnauthorized) {
			return Identity{}, apperrors.Unauthorized(appErr.Message)
		}
		return Identity{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var grant passwordGrantResponse
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return Identity{}, fmt.Errorf("decode sign-in response: %w", err)
	}
	if grant.User.ID == "" {
		return Identity{}, errors.New("sign-in response carries no user id")
	}
	return Identity{UserID: grant.User.ID, Email: grant.User.Email}, nil
}
