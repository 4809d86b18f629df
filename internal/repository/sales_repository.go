package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/repository/postgres"
)

type SalesRepository interface {
	DailyQuantities(ctx context.Context, skuCode string, start, end time.Time) ([]domain.HistoricalSale, error)
	QuantityOn(ctx context.Context, skuCode string, date time.Time) (float64, error)
	UpsertDaily(ctx context.Context, sale *domain.HistoricalSale) error
	UpsertDailyBatch(ctx context.Context, sales []domain.HistoricalSale) (int, error)
}

type salesRepository struct {
	db *postgres.DB
}

func NewSalesRepository(db *postgres.DB) SalesRepository {
	return &salesRepository{db: db}
}

// DailyQuantities returns the per-day quantities inside [start, end], oldest
// first. Days without sales have no row.
func (r *salesRepository) DailyQuantities(ctx context.Context, skuCode string, start, end time.Time) ([]domain.HistoricalSale, error) {
	query := `
		SELECT sku_code, sale_date, quantity_sold
		FROM historical_sales_daily
		WHERE sku_code = $1 AND sale_date BETWEEN $2 AND $3
		ORDER BY sale_date
	`

	var sales []domain.HistoricalSale
	if err := r.db.SelectContext(ctx, &sales, query, skuCode, start, end); err != nil {
		return nil, fmt.Errorf("error getting daily sales for %s: %w", skuCode, err)
	}
	return sales, nil
}

// QuantityOn returns the realized quantity for one day; a missing row counts
// as zero sold.
func (r *salesRepository) QuantityOn(ctx context.Context, skuCode string, date time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(quantity_sold), 0)
		FROM historical_sales_daily
		WHERE sku_code = $1 AND sale_date = $2
	`

	var quantity float64
	if err := r.db.GetContext(ctx, &quantity, query, skuCode, date); err != nil {
		return 0, fmt.Errorf("error getting sales for %s on %s: %w", skuCode, date.Format("2006-01-02"), err)
	}
	return quantity, nil
}

func (r *salesRepository) UpsertDaily(ctx context.Context, sale *domain.HistoricalSale) error {
	query := `
		INSERT INTO historical_sales_daily (sku_code, sale_date, quantity_sold)
		VALUES ($1, $2, $3)
		ON CONFLICT (sku_code, sale_date) DO UPDATE SET
			quantity_sold = EXCLUDED.quantity_sold
	`

	if _, err := r.db.ExecContext(ctx, query, sale.SKUCode, sale.SaleDate, sale.QuantitySold); err != nil {
		return fmt.Errorf("error upserting sale %s/%s: %w", sale.SKUCode, sale.SaleDate.Format("2006-01-02"), err)
	}
	return nil
}

// UpsertDailyBatch loads many rows in one gated transaction; returns the
// number of rows written.
func (r *salesRepository) UpsertDailyBatch(ctx context.Context, sales []domain.HistoricalSale) (int, error) {
	if len(sales) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO historical_sales_daily (sku_code, sale_date, quantity_sold)
		VALUES ($1, $2, $3)
		ON CONFLICT (sku_code, sale_date) DO UPDATE SET
			quantity_sold = EXCLUDED.quantity_sold
	`

	written := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, sale := range sales {
			if _, err := tx.ExecContext(ctx, query, sale.SKUCode, sale.SaleDate, sale.QuantitySold); err != nil {
				return fmt.Errorf("error writing sale %s/%s: %w", sale.SKUCode, sale.SaleDate.Format("2006-01-02"), err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}
