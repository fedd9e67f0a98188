package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Kurzwaffle/antiques/internal/domain"
	"github.com/Kurzwaffle/antiques/pkg/database"
)

const (
	upsertCategorySQL = `
		INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	upsertProductSQL = `
		INSERT INTO products (name, slug, short_description, description, price,
			category_id, era, origin, dimensions, condition, featured, in_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (slug) WHERE slug IS NOT NULL DO UPDATE SET
			name = EXCLUDED.name,
			short_description = EXCLUDED.short_description,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category_id = EXCLUDED.category_id,
			era = EXCLUDED.era,
			origin = EXCLUDED.origin,
			dimensions = EXCLUDED.dimensions,
			condition = EXCLUDED.condition,
			featured = EXCLUDED.featured,
			in_stock = EXCLUDED.in_stock
		RETURNING id`

	selectAdminIDSQL = `SELECT id FROM admin_accounts WHERE lower(email) = $1`

	upsertAdminProfileSQL = `
		INSERT INTO profiles (id, email, role) VALUES ($1, $2, 'admin')
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, role = 'admin'`

	upsertAdminAccountSQL = `
		INSERT INTO admin_accounts (id, email, password_hash) VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash`
)

// Seeder loads the catalog and the first admin account into an empty or
// existing database. Every write is an upsert, so reruns are safe.
type Seeder struct {
	pool   database.Pool
	logger *slog.Logger
}

// NewSeeder creates a Seeder over pool.
func NewSeeder(pool database.Pool, logger *slog.Logger) *Seeder {
	return &Seeder{pool: pool, logger: logger}
}

// SeedCatalog upserts products keyed by slug, one transaction per product.
// Images and materials are replaced wholesale. It returns how many products
// were written before the first failure.
func (s *Seeder) SeedCatalog(ctx context.Context, products []domain.Product) (int, error) {
	for i, p := range products {
		if p.Slug == "" {
			return i, fmt.Errorf("seed product %q: slug is required", p.ID)
		}
		if err := s.seedProduct(ctx, p); err != nil {
			return i, fmt.Errorf("seed product %s: %w", p.Slug, err)
		}
		s.logger.DebugContext(ctx, "product seeded", slog.String("slug", p.Slug))
	}
	s.logger.InfoContext(ctx, "catalog seeded", slog.Int("products", len(products)))
	return len(products), nil
}

func (s *Seeder) seedProduct(ctx context.Context, p domain.Product) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var categoryID *string
	if name := strings.TrimSpace(p.Category); name != "" {
		var id string
		if err = tx.QueryRow(ctx, upsertCategorySQL, name).Scan(&id); err != nil {
			return fmt.Errorf("upsert category: %w", err)
		}
		categoryID = &id
	}

	var dimensions *string
	if p.Dimensions != "" {
		dimensions = &p.Dimensions
	}

	var productID string
	err = tx.QueryRow(ctx, upsertProductSQL,
		p.Name, p.Slug, p.ShortDescription, p.Description, p.Price,
		categoryID, p.Era, p.Origin, dimensions, p.Condition, p.Featured, p.InStock,
	).Scan(&productID)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("clear images: %w", err)
	}
	for i, url := range p.Images {
		if _, err = tx.Exec(ctx,
			`INSERT INTO product_images (product_id, image_url, display_order) VALUES ($1, $2, $3)`,
			productID, url, i,
		); err != nil {
			return fmt.Errorf("insert image: %w", err)
		}
	}

	if _, err = tx.Exec(ctx, `DELETE FROM product_materials WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("clear materials: %w", err)
	}
	for _, m := range p.Materials {
		if _, err = tx.Exec(ctx,
			`INSERT INTO product_materials (product_id, material_name) VALUES ($1, $2)`,
			productID, m,
		); err != nil {
			return fmt.Errorf("insert material: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SeedAdmin creates or updates the admin account for email and gives its
// profile the admin role. It returns the account id.
func (s *Seeder) SeedAdmin(ctx context.Context, email, passwordHash string) (_ string, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || passwordHash == "" {
		return "", errors.New("seed admin: email and password hash are required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("seed admin: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var id string
	err = tx.QueryRow(ctx, selectAdminIDSQL, email).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		id = uuid.NewString()
	case err != nil:
		return "", fmt.Errorf("seed admin: lookup: %w", err)
	}

	if _, err = tx.Exec(ctx, upsertAdminProfileSQL, id, email); err != nil {
		return "", fmt.Errorf("seed admin: upsert profile: %w", err)
	}
	if _, err = tx.Exec(ctx, upsertAdminAccountSQL, id, email, passwordHash); err != nil {
		return "", fmt.Errorf("seed admin: upsert account: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("seed admin: commit: %w", err)
	}

	s.logger.InfoContext(ctx, "admin account seeded", slog.String("email", email))
	return id, nil
}
