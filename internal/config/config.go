package config

import (
	"fmt"
	"time"

	"github.com/Kurzwaffle/antiques/internal/domain"
	pkgconfig "github.com/Kurzwaffle/antiques/pkg/config"
)

// Catalog sources.
const (
	CatalogStatic   = "static"
	CatalogPostgres = "postgres"
	CatalogSupabase = "supabase"
)

// Admin auth providers. AdminNone disables the admin routes.
const (
	AdminNone     = "none"
	AdminLocal    = "local"
	AdminSupabase = "supabase"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Session TTL in hours, refreshed on every change.
	SessionTTLHours int `env:"SESSION_TTL_HOURS" envDefault:"24"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Catalog
	CatalogSource          string        `env:"CATALOG_SOURCE" envDefault:"static"`
	CatalogRefreshInterval time.Duration `env:"CATALOG_REFRESH_INTERVAL" envDefault:"5m"`

	// Postgres holds the catalog tables, profiles and local admin accounts.
	DatabaseURL string `env:"DATABASE_URL"`

	// Hosted backend (PostgREST + auth API)
	SupabaseURL     string `env:"SUPABASE_URL"`
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY"`

	// EXCHANGE_RATES overrides the built-in table, e.g. "EUR:0.92,GBP:0.78".
	ExchangeRates map[string]string `env:"EXCHANGE_RATES" envSeparator:"," envKeyValSeparator:":"`

	// Admin
	AdminAuthProvider string        `env:"ADMIN_AUTH_PROVIDER" envDefault:"none"`
	AdminJWTSecret    string        `env:"ADMIN_JWT_SECRET"`
	AdminTokenTTL     time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"8h"`
	AdminLoginRPS     float64       `env:"ADMIN_LOGIN_RPS" envDefault:"0.2"`
	AdminLoginBurst   int           `env:"ADMIN_LOGIN_BURST" envDefault:"5"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`

	rates domain.Rates
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SessionTTL is the idle lifetime of a stored session.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// Rates is the exchange table after EXCHANGE_RATES overrides.
func (c *Config) Rates() domain.Rates {
	if c.rates == nil {
		return domain.DefaultRates()
	}
	return c.rates
}

// AdminEnabled reports whether the admin routes are mounted.
func (c *Config) AdminEnabled() bool {
	return c.AdminAuthProvider != AdminNone
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.SessionTTLHours < 1 {
		return fmt.Errorf("SESSION_TTL_HOURS must be at least 1, got %d", c.SessionTTLHours)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}

	switch c.CatalogSource {
	case CatalogStatic:
	case CatalogPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for CATALOG_SOURCE=%s", c.CatalogSource)
		}
	case CatalogSupabase:
		if err := c.requireSupabase("CATALOG_SOURCE"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("CATALOG_SOURCE must be one of static, postgres, supabase, got %q", c.CatalogSource)
	}
	if c.CatalogRefreshInterval <= 0 {
		return fmt.Errorf("CATALOG_REFRESH_INTERVAL must be positive, got %s", c.CatalogRefreshInterval)
	}

	rates, err := domain.ParseRates(c.ExchangeRates)
	if err != nil {
		return fmt.Errorf("EXCHANGE_RATES: %w", err)
	}
	c.rates = rates

	switch c.AdminAuthProvider {
	case AdminNone:
	case AdminLocal, AdminSupabase:
		if err := c.validateAdmin(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("ADMIN_AUTH_PROVIDER must be one of none, local, supabase, got %q", c.AdminAuthProvider)
	}

	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

func (c *Config) validateAdmin() error {
	if len(c.AdminJWTSecret) < 32 {
		return fmt.Errorf("ADMIN_JWT_SECRET must be at least 32 characters when admin is enabled")
	}
	// Profiles live in postgres for both providers.
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when admin is enabled")
	}
	if c.AdminAuthProvider == AdminSupabase {
		if err := c.requireSupabase("ADMIN_AUTH_PROVIDER"); err != nil {
			return err
		}
	}
	if c.AdminTokenTTL <= 0 {
		return fmt.Errorf("ADMIN_TOKEN_TTL must be positive, got %s", c.AdminTokenTTL)
	}
	if c.AdminLoginRPS <= 0 || c.AdminLoginBurst < 1 {
		return fmt.Errorf("ADMIN_LOGIN_RPS and ADMIN_LOGIN_BURST must be positive")
	}
	return nil
}

func (c *Config) requireSupabase(key string) error {
	if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required for %s=supabase", key)
	}
	return nil
}
