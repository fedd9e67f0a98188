package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kurzwaffle/antiques/pkg/database"
)

// listProductsSQL builds one JSON document per product in the same nested
// shape the hosted REST API returns, so both go through Normalize unchanged.
const listProductsSQL = `
	SELECT json_build_object(
		'id', p.id,
		'name', p.name,
		'slug', p.slug,
		'short_description', p.short_description,
		'description', p.description,
		'price', p.price,
		'era', p.era,
		'origin', p.origin,
		'dimensions', p.dimensions,
		'condition', p.condition,
		'featured', p.featured,
		'in_stock', p.in_stock,
		'created_at', p.created_at,
		'categories', CASE WHEN c.id IS NULL THEN NULL ELSE json_build_object('name', c.name) END,
		'product_images', COALESCE((
			SELECT json_agg(json_build_object('image_url', i.image_url, 'display_order', i.display_order))
			FROM product_images i WHERE i.product_id = p.id
		), '[]'::json),
		'product_materials', COALESCE((
			SELECT json_agg(json_build_object('material_name', m.material_name))
			FROM product_materials m WHERE m.product_id = p.id
		), '[]'::json)
	)
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	ORDER BY p.created_at DESC`

// PostgresSource reads the catalog tables directly.
type PostgresSource struct {
	db     database.DBTX
	tracer database.QueryTracer
}

// NewPostgresSource creates a source over db.
func NewPostgresSource(db database.DBTX, logger *slog.Logger) *PostgresSource {
	return &PostgresSource{
		db: db,
		tracer: database.QueryTracer{
			System:        "postgresql",
			SlowThreshold: 200 * time.Millisecond,
			Logger:        logger,
		},
	}
}

func (s *PostgresSource) Name() string { return "postgres" }

// Fetch returns every product, newest first.
func (s *PostgresSource) Fetch(ctx context.Context) (records []RawRecord, err error) {
	ctx, end := s.tracer.Start(ctx, "ListProducts", listProductsSQL)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		rec, err := decodeRecord(doc)
		if err != nil {
			return nil, fmt.Errorf("decode product document: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return records, nil
}
