package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kidbea/forecast-go/internal/domain"
)

type AccuracyRepository interface {
	Upsert(ctx context.Context, record *domain.AccuracyRecord) error
	ListSince(ctx context.Context, since time.Time) ([]domain.AccuracyRecord, error)
}

type accuracyRepository struct {
	db *sqlx.DB
}

func NewAccuracyRepository(db *sqlx.DB) AccuracyRepository {
	return &accuracyRepository{db: db}
}

// Upsert is keyed by (SKU, forecast date, days ahead, model type) so
// recomputing a period is idempotent.
func (r *accuracyRepository) Upsert(ctx context.Context, record *domain.AccuracyRecord) error {
	query := `
		INSERT INTO forecast_accuracy (sku_code, forecast_date, days_ahead, model_type, predicted_quantity, actual_quantity, absolute_error, percentage_error, squared_error, metric_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (sku_code, forecast_date, days_ahead, model_type) DO UPDATE SET
			predicted_quantity = EXCLUDED.predicted_quantity,
			actual_quantity = EXCLUDED.actual_quantity,
			absolute_error = EXCLUDED.absolute_error,
			percentage_error = EXCLUDED.percentage_error,
			squared_error = EXCLUDED.squared_error,
			metric_date = EXCLUDED.metric_date
	`

	if _, err := r.db.ExecContext(ctx, query,
		record.SKUCode, record.ForecastDate, record.DaysAhead, record.ModelType,
		record.PredictedQuantity, record.ActualQuantity,
		record.AbsoluteError, record.PercentageError, record.SquaredError, record.MetricDate); err != nil {
		return fmt.Errorf("error upserting accuracy record %s/%s: %w",
			record.SKUCode, record.ForecastDate.Format("2006-01-02"), err)
	}
	return nil
}

func (r *accuracyRepository) ListSince(ctx context.Context, since time.Time) ([]domain.AccuracyRecord, error) {
	query := `
		SELECT id, sku_code, forecast_date, days_ahead, model_type, predicted_quantity,
		       actual_quantity, absolute_error, percentage_error, squared_error, metric_date
		FROM forecast_accuracy
		WHERE metric_date >= $1
		ORDER BY metric_date DESC
	`

	var records []domain.AccuracyRecord
	if err := r.db.SelectContext(ctx, &records, query, since); err != nil {
		return nil, fmt.Errorf("error listing accuracy records: %w", err)
	}
	return records, nil
}
