package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kidbea/forecast-go/internal/domain"
)

type SKURepository interface {
	GetBySKU(ctx context.Context, skuCode string) (*domain.ProductVariant, error)
	GetBySKUs(ctx context.Context, skuCodes []string) (map[string]domain.ProductVariant, error)
	ListActive(ctx context.Context, afterSKU string, limit int) ([]domain.ProductVariant, error)
	ListCategories(ctx context.Context) ([]string, error)
	UpsertVariant(ctx context.Context, variant *domain.ProductVariant) error
}

type skuRepository struct {
	db *sqlx.DB
}

func NewSKURepository(db *sqlx.DB) SKURepository {
	return &skuRepository{db: db}
}

func (r *skuRepository) GetBySKU(ctx context.Context, skuCode string) (*domain.ProductVariant, error) {
	query := `
		SELECT id, sku_code, name, category, unit_price, current_stock, is_active, created_at, updated_at
		FROM product_variants
		WHERE sku_code = $1
	`

	var variant domain.ProductVariant
	if err := r.db.GetContext(ctx, &variant, query, skuCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting variant %s: %w", skuCode, err)
	}
	return &variant, nil
}

func (r *skuRepository) GetBySKUs(ctx context.Context, skuCodes []string) (map[string]domain.ProductVariant, error) {
	if len(skuCodes) == 0 {
		return map[string]domain.ProductVariant{}, nil
	}

	query := `
		SELECT id, sku_code, name, category, unit_price, current_stock, is_active, created_at, updated_at
		FROM product_variants
		WHERE sku_code = ANY($1::text[])
	`

	var variants []domain.ProductVariant
	if err := r.db.SelectContext(ctx, &variants, query, pq.Array(skuCodes)); err != nil {
		return nil, fmt.Errorf("error getting variants: %w", err)
	}

	out := make(map[string]domain.ProductVariant, len(variants))
	for _, variant := range variants {
		out[variant.SKUCode] = variant
	}
	return out, nil
}

// ListActive pages through active SKUs in sku_code order; afterSKU is the
// cursor from the previous page ("" for the first page).
func (r *skuRepository) ListActive(ctx context.Context, afterSKU string, limit int) ([]domain.ProductVariant, error) {
	if limit <= 0 {
		limit = 500
	}

	query := `
		SELECT id, sku_code, name, category, unit_price, current_stock, is_active, created_at, updated_at
		FROM product_variants
		WHERE is_active = true AND sku_code > $1
		ORDER BY sku_code
		LIMIT $2
	`

	var variants []domain.ProductVariant
	if err := r.db.SelectContext(ctx, &variants, query, afterSKU, limit); err != nil {
		return nil, fmt.Errorf("error listing active variants: %w", err)
	}
	return variants, nil
}

func (r *skuRepository) ListCategories(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT category
		FROM product_variants
		WHERE is_active = true AND category <> ''
		ORDER BY category
	`

	var categories []string
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}
	return categories, nil
}

func (r *skuRepository) UpsertVariant(ctx context.Context, variant *domain.ProductVariant) error {
	query := `
		INSERT INTO product_variants (sku_code, name, category, unit_price, current_stock, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (sku_code) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			unit_price = EXCLUDED.unit_price,
			current_stock = EXCLUDED.current_stock,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query,
		variant.SKUCode, variant.Name, variant.Category,
		variant.UnitPrice, variant.CurrentStock, variant.IsActive); err != nil {
		return fmt.Errorf("error upserting variant %s: %w", variant.SKUCode, err)
	}
	return nil
}
