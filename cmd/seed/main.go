// Command seed loads the built-in antiques catalog into PostgreSQL and,
// when SEED_ADMIN_EMAIL is set, creates or updates the admin account.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Kurzwaffle/antiques/internal/catalog"
	"github.com/Kurzwaffle/antiques/internal/repository/postgres"
	pkgconfig "github.com/Kurzwaffle/antiques/pkg/config"
	"github.com/Kurzwaffle/antiques/pkg/database"
	"github.com/Kurzwaffle/antiques/pkg/logger"
)

type seedConfig struct {
	DatabaseURL   string `env:"DATABASE_URL"`
	AdminEmail    string `env:"SEED_ADMIN_EMAIL"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg seedConfig
	if err := pkgconfig.Load(&cfg); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("seed", cfg.LogLevel)
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed complete")
}

func run(ctx context.Context, cfg seedConfig, log *slog.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if cfg.AdminEmail != "" && len(cfg.AdminPassword) < 8 {
		return errors.New("SEED_ADMIN_PASSWORD must be at least 8 characters")
	}

	start := time.Now()

	pool, err := database.NewPostgresPool(ctx, database.DefaultPostgresConfig(cfg.DatabaseURL), log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, postgres.Migrations(), log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// The service normalizes the raw records the same way the storefront does.
	svc := catalog.NewService(catalog.NewStaticSource(), 0, log)
	if err := svc.Refresh(ctx); err != nil {
		return fmt.Errorf("load static catalog: %w", err)
	}
	products, err := svc.All(ctx)
	if err != nil {
		return err
	}

	seeder := postgres.NewSeeder(pool, log)
	n, err := seeder.SeedCatalog(ctx, products)
	if err != nil {
		return err
	}

	if cfg.AdminEmail != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		if _, err := seeder.SeedAdmin(ctx, cfg.AdminEmail, string(hash)); err != nil {
			return err
		}
	}

	log.Info("seeded",
		slog.Int("products", n),
		slog.Bool("admin", cfg.AdminEmail != ""),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}
