package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/repository/postgres"
)

type ForecastRepository interface {
	InsertRun(ctx context.Context, result *domain.ForecastResult) (int, error)
	ListForSKU(ctx context.Context, skuCode string, from, to time.Time) ([]domain.DemandForecast, error)
	ListUnreconciled(ctx context.Context, before time.Time, limit int) ([]domain.DemandForecast, error)
	AttachActual(ctx context.Context, forecastID int64, actual float64, reconciledAt time.Time) error
}

type forecastRepository struct {
	db *postgres.DB
}

func NewForecastRepository(db *postgres.DB) ForecastRepository {
	return &forecastRepository{db: db}
}

// InsertRun persists every day of a forecast result as one generation run.
// Rerunning for the same (SKU, date, days ahead) replaces the previous
// unreconciled prediction.
func (r *forecastRepository) InsertRun(ctx context.Context, result *domain.ForecastResult) (int, error) {
	if len(result.Forecasts) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO demand_forecasts (sku_code, forecast_date, generated_at, days_ahead, model_type, predicted_quantity, lower_bound, upper_bound, factors)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (sku_code, forecast_date, days_ahead, model_type) DO UPDATE SET
			generated_at = EXCLUDED.generated_at,
			predicted_quantity = EXCLUDED.predicted_quantity,
			lower_bound = EXCLUDED.lower_bound,
			upper_bound = EXCLUDED.upper_bound,
			factors = EXCLUDED.factors
		WHERE demand_forecasts.reconciled_at IS NULL
	`

	written := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, day := range result.Forecasts {
			if _, err := tx.ExecContext(ctx, query,
				result.SKUCode, day.Date, result.GeneratedAt, day.DaysAhead, result.ModelType,
				day.PredictedQuantity, day.LowerBound, day.UpperBound, strings.Join(day.Factors, "; ")); err != nil {
				return fmt.Errorf("error writing forecast %s/%d: %w", result.SKUCode, day.DaysAhead, err)
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

func (r *forecastRepository) ListForSKU(ctx context.Context, skuCode string, from, to time.Time) ([]domain.DemandForecast, error) {
	query := `
		SELECT id, sku_code, forecast_date, generated_at, days_ahead, model_type,
		       predicted_quantity, lower_bound, upper_bound, factors, actual_quantity, reconciled_at
		FROM demand_forecasts
		WHERE sku_code = $1 AND forecast_date BETWEEN $2 AND $3
		ORDER BY forecast_date, days_ahead
	`

	var forecasts []domain.DemandForecast
	if err := r.db.SelectContext(ctx, &forecasts, query, skuCode, from, to); err != nil {
		return nil, fmt.Errorf("error listing forecasts for %s: %w", skuCode, err)
	}
	return forecasts, nil
}

// ListUnreconciled returns past forecasts that still lack an actual, oldest
// first.
func (r *forecastRepository) ListUnreconciled(ctx context.Context, before time.Time, limit int) ([]domain.DemandForecast, error) {
	if limit <= 0 {
		limit = 1000
	}

	query := `
		SELECT id, sku_code, forecast_date, generated_at, days_ahead, model_type,
		       predicted_quantity, lower_bound, upper_bound, factors, actual_quantity, reconciled_at
		FROM demand_forecasts
		WHERE reconciled_at IS NULL AND forecast_date < $1
		ORDER BY forecast_date
		LIMIT $2
	`

	var forecasts []domain.DemandForecast
	if err := r.db.SelectContext(ctx, &forecasts, query, before, limit); err != nil {
		return nil, fmt.Errorf("error listing unreconciled forecasts: %w", err)
	}
	return forecasts, nil
}

func (r *forecastRepository) AttachActual(ctx context.Context, forecastID int64, actual float64, reconciledAt time.Time) error {
	query := `
		UPDATE demand_forecasts
		SET actual_quantity = $2, reconciled_at = $3
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, forecastID, actual, reconciledAt); err != nil {
		return fmt.Errorf("error attaching actual to forecast %d: %w", forecastID, err)
	}
	return nil
}
