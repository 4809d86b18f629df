package forecast

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidbea/forecast-go/internal/cache"
	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/features"
	"github.com/kidbea/forecast-go/internal/refdata"
)

type stubVariants struct {
	variant *domain.ProductVariant
	err     error
	calls   int
}

func (s *stubVariants) GetBySKU(context.Context, string) (*domain.ProductVariant, error) {
	s.calls++
	return s.variant, s.err
}

type stubSales struct {
	dailyQuantity float64
	days          int
}

func (s *stubSales) DailyQuantities(_ context.Context, skuCode string, start, end time.Time) ([]domain.HistoricalSale, error) {
	var out []domain.HistoricalSale
	for i := 0; i < s.days; i++ {
		date := end.AddDate(0, 0, -i)
		if date.Before(start) {
			break
		}
		out = append(out, domain.HistoricalSale{SKUCode: skuCode, SaleDate: date, QuantitySold: s.dailyQuantity})
	}
	return out, nil
}

type stubSignals struct{}

func (stubSignals) SignalForDate(context.Context, string, string, time.Time) (*domain.ExternalSignal, error) {
	return nil, nil
}

func (stubSignals) LatestSignal(context.Context, string, string, time.Time) (*domain.ExternalSignal, error) {
	return nil, nil
}

type memForecastCache struct {
	entries map[string]domain.ForecastResult
}

func newMemForecastCache() *memForecastCache {
	return &memForecastCache{entries: make(map[string]domain.ForecastResult)}
}

func (m *memForecastCache) key(sku string, horizon int) string {
	return fmt.Sprintf("%s:%d", sku, horizon)
}

func (m *memForecastCache) Get(_ context.Context, sku string, horizon int) (*domain.ForecastResult, bool, error) {
	result, ok := m.entries[m.key(sku, horizon)]
	if !ok {
		return nil, false, nil
	}
	return &result, true, nil
}

func (m *memForecastCache) Set(_ context.Context, sku string, horizon int, result *domain.ForecastResult) error {
	m.entries[m.key(sku, horizon)] = *result
	return nil
}

func (m *memForecastCache) Invalidate(_ context.Context, sku string, horizon int) error {
	delete(m.entries, m.key(sku, horizon))
	return nil
}

var _ cache.ForecastCache = (*memForecastCache)(nil)

func neutralProvider() refdata.Provider {
	return refdata.NewStaticProvider(refdata.FestivalCalendar{}, refdata.SeasonalPatterns{})
}

func neutralVariant(stock int) *domain.ProductVariant {
	// Zero CreatedAt keeps the lifecycle group at its neutral default.
	return &domain.ProductVariant{SKUCode: "SKU-001", Category: "", CurrentStock: stock}
}

func newTestEngine(variants *stubVariants, sales *stubSales, fc cache.ForecastCache) *Engine {
	assembler := features.NewAssembler(sales, stubSignals{}, neutralProvider(), "mumbai")
	engine := NewEngine(variants, assembler, NewMultiplicativeComposer(), fc)
	engine.now = func() time.Time { return time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC) }
	return engine
}

func TestForecastBounds(t *testing.T) {
	variants := &stubVariants{variant: neutralVariant(100)}
	engine := newTestEngine(variants, &stubSales{dailyQuantity: 12, days: 90}, newMemForecastCache())

	result := engine.Forecast(context.Background(), "SKU-001", 14)

	require.Len(t, result.Forecasts, 14)
	for _, day := range result.Forecasts {
		assert.GreaterOrEqual(t, day.PredictedQuantity, 1)
		assert.LessOrEqual(t, day.LowerBound, day.PredictedQuantity)
		assert.GreaterOrEqual(t, day.UpperBound, day.PredictedQuantity)
		assert.GreaterOrEqual(t, day.LowerBound, 0)
	}
	assert.False(t, result.Degraded)
	assert.Equal(t, ModelMultiplicative, result.ModelType)
}

func TestForecastNeutralFallback(t *testing.T) {
	// No history, no signals, empty reference data: the combined multiplier
	// is exactly 1.0 and every day predicts the default baseline.
	variants := &stubVariants{variant: neutralVariant(100)}
	engine := newTestEngine(variants, &stubSales{}, newMemForecastCache())

	result := engine.Forecast(context.Background(), "SKU-001", 7)

	assert.Equal(t, DefaultBaselineDemand, result.BaselineDailyDemand)
	for _, day := range result.Forecasts {
		assert.Equal(t, 10, day.PredictedQuantity)
		assert.Equal(t, 5, day.LowerBound)
		assert.Equal(t, 15, day.UpperBound)
	}
}

func TestForecastIdempotentWithinCache(t *testing.T) {
	variants := &stubVariants{variant: neutralVariant(100)}
	engine := newTestEngine(variants, &stubSales{dailyQuantity: 8, days: 90}, newMemForecastCache())

	first := engine.Forecast(context.Background(), "SKU-001", 7)
	second := engine.Forecast(context.Background(), "SKU-001", 7)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, variants.calls, "second call must be served from cache")
}

func TestForecastInvalidateForcesRecompute(t *testing.T) {
	variants := &stubVariants{variant: neutralVariant(100)}
	engine := newTestEngine(variants, &stubSales{dailyQuantity: 8, days: 90}, newMemForecastCache())

	engine.Forecast(context.Background(), "SKU-001", 7)
	require.NoError(t, engine.Invalidate(context.Background(), "SKU-001", 7))
	engine.Forecast(context.Background(), "SKU-001", 7)

	assert.Equal(t, 2, variants.calls)
}

func TestForecastDegradedWhenVariantMissing(t *testing.T) {
	variants := &stubVariants{err: errors.New("connection refused")}
	engine := newTestEngine(variants, &stubSales{}, cache.NewNoopForecastCache())

	result := engine.Forecast(context.Background(), "SKU-404", 30)

	assert.True(t, result.Degraded)
	require.Len(t, result.Forecasts, 7)
	for _, day := range result.Forecasts {
		assert.Equal(t, 10, day.PredictedQuantity)
		assert.Equal(t, 5, day.LowerBound)
		assert.Equal(t, 15, day.UpperBound)
	}
}

func TestDaysUntilStockout(t *testing.T) {
	forecasts := []domain.DailyForecast{
		{DaysAhead: 1, PredictedQuantity: 10},
		{DaysAhead: 2, PredictedQuantity: 10},
		{DaysAhead: 3, PredictedQuantity: 10},
	}

	assert.Equal(t, 3, daysUntilStockout(forecasts, 25))
	assert.Equal(t, 1, daysUntilStockout(forecasts, 10))
	assert.Equal(t, NeverWithinHorizon, daysUntilStockout(forecasts, 1000))
	assert.Equal(t, 0, daysUntilStockout(forecasts, 0))
}

func TestRecommendedReorder(t *testing.T) {
	full := make([]domain.DailyForecast, 0, 30)
	for i := 1; i <= 30; i++ {
		full = append(full, domain.DailyForecast{DaysAhead: i, PredictedQuantity: 10})
	}
	// 300 units over 30 days plus 30% margin.
	assert.Equal(t, 390, recommendedReorder(full, 10))

	// A short horizon extrapolates at the mean predicted rate.
	short := full[:7]
	assert.Equal(t, 390, recommendedReorder(short, 10))

	assert.Equal(t, 390, recommendedReorder(nil, 10))
}

func TestMultiplicativeComposer(t *testing.T) {
	record := features.Record{}
	record.Seasonal.SeasonalMultiplier = 1.5
	record.Festival.FestivalMultiplier = 1.8
	record.Temporal.DayOfWeekMultiplier = 1.0
	record.Temporal.MonthMultiplier = 0 // skipped
	record.Lifecycle.Multiplier = -2.0  // skipped
	record.Weather.TemperatureImpact = 1.2
	record.Weather.WeatherImpact = 1.0

	combined := NewMultiplicativeComposer().Compose(record)
	assert.InDelta(t, 1.5*1.8*1.2, combined, 1e-9)
}

func TestInfluencingFactors(t *testing.T) {
	record := features.Record{}
	record.Festival.IsFestivalWeek = true
	record.Festival.FestivalName = "Diwali"
	record.Historical.SalesTrend7d = "increasing"
	record.Weather.TemperatureImpact = 1.2

	factors := influencingFactors(record)
	assert.Equal(t, []string{"festival: Diwali", "sales trend increasing", "temperature effect"}, factors)

	assert.Empty(t, influencingFactors(features.Record{Weather: features.WeatherFeatures{TemperatureImpact: 1.0}}))
}
