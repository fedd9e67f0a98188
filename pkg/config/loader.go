package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the provided struct using `env`
// and `envDefault` tags. Unset variables without a default leave the zero value.
//
//	type Config struct {
//	    Port       int           `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
//	    SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
//	}
func Load(cfg any) error {
	if err := env.ParseWithOptions(cfg, env.Options{}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
