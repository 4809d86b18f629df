package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/forecast"
)

func forecastRunFixture(days int) domain.ForecastResult {
	generated := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)
	forecasts := make([]domain.DailyForecast, 0, days)
	for i := 1; i <= days; i++ {
		forecasts = append(forecasts, domain.DailyForecast{
			Date:              generated.AddDate(0, 0, i),
			DaysAhead:         i,
			PredictedQuantity: 10,
			LowerBound:        5,
			UpperBound:        15,
		})
	}
	return domain.ForecastResult{
		SKUCode:     "SKU-001",
		ModelType:   forecast.ModelMultiplicative,
		GeneratedAt: generated,
		Forecasts:   forecasts,
	}
}

func TestInsertRunRunsInOneTransaction(t *testing.T) {
	db, conn := newGatedDB(t)
	repo := NewForecastRepository(db)

	result := forecastRunFixture(7)
	written, err := repo.InsertRun(context.Background(), &result)

	require.NoError(t, err)
	assert.Equal(t, 7, written)
	assert.Equal(t, 1, conn.begun)
	assert.Equal(t, 1, conn.committed)
	assert.Equal(t, 7, conn.execs)
}

func TestInsertRunStopsAtClosedGate(t *testing.T) {
	db, conn := newGatedDB(t)
	repo := NewForecastRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := forecastRunFixture(3)
	_, err := repo.InsertRun(ctx, &result)

	require.ErrorContains(t, err, "could not acquire semaphore")
	assert.Equal(t, 0, conn.begun)
}

func TestInsertRunEmptyResultWritesNothing(t *testing.T) {
	db, conn := newGatedDB(t)
	repo := NewForecastRepository(db)

	result := domain.ForecastResult{SKUCode: "SKU-001", ModelType: forecast.ModelMultiplicative}
	written, err := repo.InsertRun(context.Background(), &result)

	require.NoError(t, err)
	assert.Equal(t, 0, written)
	assert.Equal(t, 0, conn.begun)
}
