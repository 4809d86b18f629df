// Package accuracy reconciles persisted forecasts against realized sales and
// aggregates the error statistics (MAPE, MAE, RMSE) per model type.
package accuracy

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidbea/forecast-go/internal/domain"
)

// ForecastStore is the slice of forecast persistence the tracker needs.
type ForecastStore interface {
	ListUnreconciled(ctx context.Context, before time.Time, limit int) ([]domain.DemandForecast, error)
	AttachActual(ctx context.Context, forecastID int64, actual float64, reconciledAt time.Time) error
}

// ActualsReader reads realized sales quantities. A day with no sales row
// counts as zero sold.
type ActualsReader interface {
	QuantityOn(ctx context.Context, skuCode string, date time.Time) (float64, error)
}

// RecordStore persists accuracy records. Upsert is keyed by (SKU, forecast
// date, days ahead, model type) so recomputation is idempotent.
type RecordStore interface {
	Upsert(ctx context.Context, record *domain.AccuracyRecord) error
	ListSince(ctx context.Context, since time.Time) ([]domain.AccuracyRecord, error)
}

// Tracker runs reconciliation and reporting.
type Tracker struct {
	forecasts ForecastStore
	actuals   ActualsReader
	records   RecordStore
	now       func() time.Time
}

func NewTracker(forecasts ForecastStore, actuals ActualsReader, records RecordStore) *Tracker {
	return &Tracker{
		forecasts: forecasts,
		actuals:   actuals,
		records:   records,
		now:       time.Now,
	}
}

// Reconcile attaches realized sales to past forecasts and upserts the
// corresponding accuracy records. Per-forecast failures are counted, not
// fatal; the error return covers only the initial listing.
func (t *Tracker) Reconcile(ctx context.Context, limit int) (succeeded, failed int, err error) {
	now := t.now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	pending, err := t.forecasts.ListUnreconciled(ctx, cutoff, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("list unreconciled forecasts: %w", err)
	}

	for _, forecast := range pending {
		if err := t.reconcileOne(ctx, forecast, now); err != nil {
			log.Warn().Err(err).Str("sku_code", forecast.SKUCode).
				Time("forecast_date", forecast.ForecastDate).Msg("forecast reconciliation failed")
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed, nil
}

func (t *Tracker) reconcileOne(ctx context.Context, forecast domain.DemandForecast, now time.Time) error {
	actual, err := t.actuals.QuantityOn(ctx, forecast.SKUCode, forecast.ForecastDate)
	if err != nil {
		return fmt.Errorf("read actual sales: %w", err)
	}

	if err := t.forecasts.AttachActual(ctx, forecast.ID, actual, now); err != nil {
		return fmt.Errorf("attach actual: %w", err)
	}

	record := BuildRecord(forecast, actual, now)
	if err := t.records.Upsert(ctx, &record); err != nil {
		return fmt.Errorf("upsert accuracy record: %w", err)
	}
	return nil
}

// Report aggregates records created since the given time.
func (t *Tracker) Report(ctx context.Context, since time.Time) (domain.AccuracyReport, error) {
	records, err := t.records.ListSince(ctx, since)
	if err != nil {
		return domain.AccuracyReport{}, fmt.Errorf("list accuracy records: %w", err)
	}
	return Aggregate(records), nil
}

// BuildRecord derives the error fields for one forecast/actual pair. The
// percentage error is pinned to 100 when the prediction was zero.
func BuildRecord(forecast domain.DemandForecast, actual float64, metricDate time.Time) domain.AccuracyRecord {
	absErr := math.Abs(actual - float64(forecast.PredictedQuantity))

	pctErr := 100.0
	if forecast.PredictedQuantity != 0 {
		pctErr = absErr / float64(forecast.PredictedQuantity) * 100
	}

	return domain.AccuracyRecord{
		SKUCode:           forecast.SKUCode,
		ForecastDate:      forecast.ForecastDate,
		DaysAhead:         forecast.DaysAhead,
		ModelType:         forecast.ModelType,
		PredictedQuantity: forecast.PredictedQuantity,
		ActualQuantity:    actual,
		AbsoluteError:     absErr,
		PercentageError:   pctErr,
		SquaredError:      absErr * absErr,
		MetricDate:        metricDate,
	}
}

// Aggregate computes the overall metrics and a per-model-type breakdown.
// With no records it returns a single zeroed "unknown" group so callers
// never see an empty mapping.
func Aggregate(records []domain.AccuracyRecord) domain.AccuracyReport {
	if len(records) == 0 {
		return domain.AccuracyReport{
			ByModelType: map[string]domain.AccuracyMetrics{"unknown": {}},
		}
	}

	byModel := make(map[string][]domain.AccuracyRecord)
	for _, record := range records {
		model := record.ModelType
		if model == "" {
			model = "unknown"
		}
		byModel[model] = append(byModel[model], record)
	}

	report := domain.AccuracyReport{
		Overall:     metricsFor(records),
		ByModelType: make(map[string]domain.AccuracyMetrics, len(byModel)),
	}
	for model, group := range byModel {
		report.ByModelType[model] = metricsFor(group)
	}
	return report
}

func metricsFor(records []domain.AccuracyRecord) domain.AccuracyMetrics {
	var sumPct, sumAbs, sumSq float64
	for _, record := range records {
		sumPct += record.PercentageError
		sumAbs += record.AbsoluteError
		sumSq += record.SquaredError
	}

	n := float64(len(records))
	return domain.AccuracyMetrics{
		Records: len(records),
		MAPE:    sumPct / n,
		MAE:     sumAbs / n,
		RMSE:    math.Sqrt(sumSq / n),
	}
}
