package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kurzwaffle/antiques/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, CatalogStatic, cfg.CatalogSource)
	assert.Equal(t, 5*time.Minute, cfg.CatalogRefreshInterval)
	assert.False(t, cfg.KafkaEnabled)
	assert.False(t, cfg.AdminEnabled())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, domain.DefaultRates(), cfg.Rates())
}

func TestLoad_ExchangeRateOverrides(t *testing.T) {
	t.Setenv("EXCHANGE_RATES", "EUR:0.92,gbp:0.78")

	cfg, err := Load()

	require.NoError(t, err)
	rates := cfg.Rates()
	assert.Equal(t, "0.92", rates.Rate(domain.EUR).String())
	assert.Equal(t, "0.78", rates.Rate(domain.GBP).String())
	assert.Equal(t, "1", rates.Rate(domain.USD).String())
}

func TestLoad_InvalidExchangeRates(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"unsupported currency", "JPY:150"},
		{"not a number", "EUR:abc"},
		{"non-positive", "GBP:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("EXCHANGE_RATES", tt.value)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "EXCHANGE_RATES")
		})
	}
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidSessionTTL(t *testing.T) {
	t.Setenv("SESSION_TTL_HOURS", "0")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_TTL_HOURS")
}

func TestLoad_InvalidOTELSampleRate(t *testing.T) {
	t.Setenv("OTEL_SAMPLE_RATE", "2.0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
}

func TestLoad_CatalogSource(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown source", map[string]string{"CATALOG_SOURCE": "elastic"}, "CATALOG_SOURCE must be one of"},
		{"postgres without url", map[string]string{"CATALOG_SOURCE": "postgres"}, "DATABASE_URL is required"},
		{"postgres", map[string]string{"CATALOG_SOURCE": "postgres", "DATABASE_URL": "postgres://localhost/antiques"}, ""},
		{"supabase without key", map[string]string{"CATALOG_SOURCE": "supabase", "SUPABASE_URL": "https://x.supabase.co"}, "SUPABASE_ANON_KEY"},
		{"supabase", map[string]string{"CATALOG_SOURCE": "supabase", "SUPABASE_URL": "https://x.supabase.co", "SUPABASE_ANON_KEY": "anon"}, ""},
		{"zero refresh interval", map[string]string{"CATALOG_REFRESH_INTERVAL": "0s"}, "CATALOG_REFRESH_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.env["CATALOG_SOURCE"], cfg.CatalogSource)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Admin(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown provider", map[string]string{"ADMIN_AUTH_PROVIDER": "ldap"}, "ADMIN_AUTH_PROVIDER must be one of"},
		{"short secret", map[string]string{"ADMIN_AUTH_PROVIDER": "local", "ADMIN_JWT_SECRET": "short", "DATABASE_URL": "postgres://db"}, "ADMIN_JWT_SECRET"},
		{"no database", map[string]string{"ADMIN_AUTH_PROVIDER": "local", "ADMIN_JWT_SECRET": testSecret}, "DATABASE_URL is required when admin"},
		{"supabase without url", map[string]string{"ADMIN_AUTH_PROVIDER": "supabase", "ADMIN_JWT_SECRET": testSecret, "DATABASE_URL": "postgres://db"}, "SUPABASE_URL"},
		{"bad burst", map[string]string{"ADMIN_AUTH_PROVIDER": "local", "ADMIN_JWT_SECRET": testSecret, "DATABASE_URL": "postgres://db", "ADMIN_LOGIN_BURST": "0"}, "ADMIN_LOGIN_BURST"},
		{"local", map[string]string{"ADMIN_AUTH_PROVIDER": "local", "ADMIN_JWT_SECRET": testSecret, "DATABASE_URL": "postgres://db"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.True(t, cfg.AdminEnabled())
				assert.Equal(t, 8*time.Hour, cfg.AdminTokenTTL)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_KafkaBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}
