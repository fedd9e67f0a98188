package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kurzwaffle/antiques/internal/domain"
	apperrors "github.com/Kurzwaffle/antiques/pkg/errors"
	"github.com/Kurzwaffle/antiques/pkg/httpclient"
)

// ============================================================================
// JWT
// ============================================================================

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, expiresAt, err := m.GenerateAccessToken("u-1", "owner@antiques.al", domain.RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "owner@antiques.al", claims.Email)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("test-secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := m.GenerateAccessToken("u-1", "a@b.al", domain.RoleAdmin)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateAccessToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, _, err := NewJWTManager("one", time.Hour).GenerateAccessToken("u-1", "a@b.al", domain.RoleAdmin)
	require.NoError(t, err)

	_, err = NewJWTManager("two", time.Hour).ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u-1", Role: domain.RoleAdmin})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTManager("secret", time.Hour).ValidateAccessToken(signed)
	assert.Error(t, err)
}

func TestJWTManager_Validator(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, _, err := m.GenerateAccessToken("u-7", "x@y.al", domain.RoleAdmin)
	require.NoError(t, err)

	claims, err := m.Validator()(token)
	require.NoError(t, err)
	assert.Equal(t, "u-7", claims.Subject)
	assert.Equal(t, "x@y.al", claims.Email)
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	_, err = m.Validator()("garbage")
	assert.Error(t, err)
}

// ============================================================================
// Local authenticator
// ============================================================================

type stubAccounts struct {
	accounts map[string]*domain.AdminAccount
	err      error
}

func (s stubAccounts) GetByEmail(_ context.Context, email string) (*domain.AdminAccount, error) {
	if s.err != nil {
		return nil, s.err
	}
	if a, ok := s.accounts[email]; ok {
		return a, nil
	}
	return nil, apperrors.NotFound("admin account", email)
}

func newLocal(t *testing.T) *LocalAuthenticator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewLocalAuthenticator(stubAccounts{accounts: map[string]*domain.AdminAccount{
		"owner@antiques.al": {ID: "u-1", Email: "owner@antiques.al", PasswordHash: string(hash)},
	}})
}

func TestLocalAuthenticator_Success(t *testing.T) {
	id, err := newLocal(t).Authenticate(context.Background(), "owner@antiques.al", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u-1", Email: "owner@antiques.al"}, id)
}

func TestLocalAuthenticator_WrongPassword(t *testing.T) {
	_, err := newLocal(t).Authenticate(context.Background(), "owner@antiques.al", "battery staple")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestLocalAuthenticator_UnknownEmail(t *testing.T) {
	_, err := newLocal(t).Authenticate(context.Background(), "nobody@antiques.al", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestLocalAuthenticator_StoreError(t *testing.T) {
	a := NewLocalAuthenticator(stubAccounts{err: errors.New("pool closed")})
	_, err := a.Authenticate(context.Background(), "owner@antiques.al", "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrUnauthorized))
}

// ============================================================================
// Hosted authenticator
// ============================================================================

func noRetryClient() *httpclient.Client {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	return httpclient.New(cfg)
}

func TestSupabaseAuthenticator_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "owner@antiques.al", body["email"])
		assert.Equal(t, "pw", body["password"])

		_, _ = w.Write([]byte(`{"access_token":"tok","user":{"id":"u-9","email":"owner@antiques.al"}}`))
	}))
	defer srv.Close()

	id, err := NewSupabaseAuthenticator(srv.URL, "anon", noRetryClient()).
		Authenticate(context.Background(), "owner@antiques.al", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u-9", id.UserID)
}

func TestSupabaseAuthenticator_InvalidGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	}))
	defer srv.Close()

	_, err := NewSupabaseAuthenticator(srv.URL, "anon", noRetryClient()).
		Authenticate(context.Background(), "owner@antiques.al", "bad")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, "Invalid login credentials", appErr.Message)
}

func TestSupabaseAuthenticator_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewSupabaseAuthenticator(url, "anon", noRetryClient()).
		Authenticate(context.Background(), "owner@antiques.al", "pw")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}

func TestSupabaseAuthenticator_MissingUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok"}`))
	}))
	defer srv.Close()

	_, err := NewSupabaseAuthenticator(strings.TrimSuffix(srv.URL, "/")+"/", "anon", noRetryClient()).
		Authenticate(context.Background(), "owner@antiques.al", "pw")
	assert.Error(t, err)
}
