package accuracy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidbea/forecast-go/internal/domain"
)

type stubForecastStore struct {
	pending  []domain.DemandForecast
	attached map[int64]float64
	listErr  error
}

func (s *stubForecastStore) ListUnreconciled(_ context.Context, _ time.Time, _ int) ([]domain.DemandForecast, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.pending, nil
}

func (s *stubForecastStore) AttachActual(_ context.Context, id int64, actual float64, _ time.Time) error {
	if s.attached == nil {
		s.attached = make(map[int64]float64)
	}
	s.attached[id] = actual
	return nil
}

type stubActuals struct {
	quantities map[string]float64
	err        error
}

func (s *stubActuals) QuantityOn(_ context.Context, skuCode string, _ time.Time) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.quantities[skuCode], nil
}

type stubRecordStore struct {
	upserted []domain.AccuracyRecord
	records  []domain.AccuracyRecord
}

func (s *stubRecordStore) Upsert(_ context.Context, record *domain.AccuracyRecord) error {
	s.upserted = append(s.upserted, *record)
	return nil
}

func (s *stubRecordStore) ListSince(_ context.Context, _ time.Time) ([]domain.AccuracyRecord, error) {
	return s.records, nil
}

func TestBuildRecordZeroPrediction(t *testing.T) {
	record := BuildRecord(domain.DemandForecast{PredictedQuantity: 0}, 5, time.Now())
	assert.Equal(t, 100.0, record.PercentageError)
	assert.Equal(t, 5.0, record.AbsoluteError)
	assert.Equal(t, 25.0, record.SquaredError)
}

func TestBuildRecordStandardErrors(t *testing.T) {
	record := BuildRecord(domain.DemandForecast{PredictedQuantity: 10}, 8, time.Now())
	assert.Equal(t, 2.0, record.AbsoluteError)
	assert.Equal(t, 4.0, record.SquaredError)
	assert.Equal(t, 20.0, record.PercentageError)
}

func TestReconcile(t *testing.T) {
	forecasts := &stubForecastStore{pending: []domain.DemandForecast{
		{ID: 1, SKUCode: "SKU-001", PredictedQuantity: 10, ModelType: "multiplicative_v1"},
		{ID: 2, SKUCode: "SKU-002", PredictedQuantity: 5, ModelType: "multiplicative_v1"},
	}}
	actuals := &stubActuals{quantities: map[string]float64{"SKU-001": 8}}
	records := &stubRecordStore{}

	tracker := NewTracker(forecasts, actuals, records)
	tracker.now = func() time.Time { return time.Date(2026, 8, 24, 3, 0, 0, 0, time.UTC) }

	succeeded, failed, err := tracker.Reconcile(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 0, failed)

	assert.Equal(t, 8.0, forecasts.attached[1])
	// SKU-002 had no sales row: a zero-sale day still reconciles.
	assert.Equal(t, 0.0, forecasts.attached[2])

	require.Len(t, records.upserted, 2)
	assert.Equal(t, 20.0, records.upserted[0].PercentageError)
	assert.Equal(t, 100.0, records.upserted[1].PercentageError)
}

func TestReconcileCountsFailures(t *testing.T) {
	forecasts := &stubForecastStore{pending: []domain.DemandForecast{{ID: 1, SKUCode: "SKU-001"}}}
	tracker := NewTracker(forecasts, &stubActuals{err: errors.New("connection refused")}, &stubRecordStore{})

	succeeded, failed, err := tracker.Reconcile(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 0, succeeded)
	assert.Equal(t, 1, failed)
}

func TestReconcileListErrorIsFatal(t *testing.T) {
	forecasts := &stubForecastStore{listErr: errors.New("connection refused")}
	tracker := NewTracker(forecasts, &stubActuals{}, &stubRecordStore{})

	_, _, err := tracker.Reconcile(context.Background(), 100)
	assert.Error(t, err)
}

func TestAggregate(t *testing.T) {
	records := []domain.AccuracyRecord{
		{ModelType: "multiplicative_v1", AbsoluteError: 2, SquaredError: 4, PercentageError: 20},
		{ModelType: "multiplicative_v1", AbsoluteError: 4, SquaredError: 16, PercentageError: 40},
		{ModelType: "baseline", AbsoluteError: 1, SquaredError: 1, PercentageError: 10},
	}

	report := Aggregate(records)

	assert.Equal(t, 3, report.Overall.Records)
	assert.InDelta(t, 23.333, report.Overall.MAPE, 0.001)
	assert.InDelta(t, 2.333, report.Overall.MAE, 0.001)
	assert.InDelta(t, 2.6458, report.Overall.RMSE, 0.001)

	require.Contains(t, report.ByModelType, "multiplicative_v1")
	require.Contains(t, report.ByModelType, "baseline")
	assert.Equal(t, 2, report.ByModelType["multiplicative_v1"].Records)
	assert.Equal(t, 30.0, report.ByModelType["multiplicative_v1"].MAPE)
}

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate(nil)
	assert.Zero(t, report.Overall.Records)
	require.Contains(t, report.ByModelType, "unknown")
	assert.Zero(t, report.ByModelType["unknown"].MAPE)
}
