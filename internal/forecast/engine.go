// Package forecast turns assembled feature records into dated demand
// predictions with confidence bounds, stockout estimates and reorder
// quantities.
package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidbea/forecast-go/internal/cache"
	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/features"
)

const (
	// ModelMultiplicative is the model identifier stamped on results from
	// the multiplier-product heuristic.
	ModelMultiplicative = "multiplicative_v1"

	// DefaultBaselineDemand anchors forecasts for SKUs with no sales history.
	DefaultBaselineDemand = 10.0

	// NeverWithinHorizon marks a stockout that the horizon does not reach.
	NeverWithinHorizon = 999

	reorderWindowDays   = 30
	reorderSafetyFactor = 1.3
	degradedHorizonDays = 7
)

// VariantReader resolves SKU codes to product variants.
type VariantReader interface {
	GetBySKU(ctx context.Context, skuCode string) (*domain.ProductVariant, error)
}

// Engine produces demand forecasts. Forecast never fails: every error path
// collapses into a degraded-but-valid result.
type Engine struct {
	variants  VariantReader
	assembler *features.Assembler
	composer  Composer
	cache     cache.ForecastCache
	now       func() time.Time
}

func NewEngine(variants VariantReader, assembler *features.Assembler, composer Composer, forecastCache cache.ForecastCache) *Engine {
	if composer == nil {
		composer = NewMultiplicativeComposer()
	}
	if forecastCache == nil {
		forecastCache = cache.NewNoopForecastCache()
	}
	return &Engine{
		variants:  variants,
		assembler: assembler,
		composer:  composer,
		cache:     forecastCache,
		now:       time.Now,
	}
}

// Forecast computes the demand forecast for one SKU over the horizon.
// Results are cached by (SKU, horizon); a second call inside the cache TTL
// returns the identical result.
func (e *Engine) Forecast(ctx context.Context, skuCode string, horizonDays int) domain.ForecastResult {
	if horizonDays <= 0 {
		horizonDays = reorderWindowDays
	}

	if cached, ok, err := e.cache.Get(ctx, skuCode, horizonDays); err != nil {
		log.Warn().Err(err).Str("sku_code", skuCode).Msg("forecast cache read failed, recomputing")
	} else if ok {
		return *cached
	}

	result := e.compute(ctx, skuCode, horizonDays)

	if err := e.cache.Set(ctx, skuCode, horizonDays, &result); err != nil {
		log.Warn().Err(err).Str("sku_code", skuCode).Msg("forecast cache write failed")
	}
	return result
}

// Invalidate drops the cached result so the next call recomputes.
func (e *Engine) Invalidate(ctx context.Context, skuCode string, horizonDays int) error {
	if err := e.cache.Invalidate(ctx, skuCode, horizonDays); err != nil {
		return fmt.Errorf("invalidate forecast %s/%d: %w", skuCode, horizonDays, err)
	}
	return nil
}

func (e *Engine) compute(ctx context.Context, skuCode string, horizonDays int) domain.ForecastResult {
	generatedAt := e.now()

	variant, err := e.variants.GetBySKU(ctx, skuCode)
	if err != nil || variant == nil {
		log.Warn().Err(err).Str("sku_code", skuCode).Msg("variant lookup failed, emitting degraded forecast")
		return e.degradedResult(skuCode, 0, generatedAt)
	}

	today := truncateToDay(generatedAt)
	firstDay := today.AddDate(0, 0, 1)

	// The baseline is one number for the whole run: the trailing 30 day mean
	// ending the day before the first forecast day.
	firstRecord := e.assembler.AssembleFeatures(ctx, *variant, firstDay)
	baseline := firstRecord.Historical.AvgDailySales30d
	if baseline <= 0 {
		baseline = DefaultBaselineDemand
	}

	result := domain.ForecastResult{
		SKUCode:             skuCode,
		ModelType:           ModelMultiplicative,
		GeneratedAt:         generatedAt,
		CurrentStock:        variant.CurrentStock,
		BaselineDailyDemand: baseline,
		Forecasts:           make([]domain.DailyForecast, 0, horizonDays),
	}

	anyDegraded := false
	for offset := 1; offset <= horizonDays; offset++ {
		date := today.AddDate(0, 0, offset)

		record := firstRecord
		if offset > 1 {
			record = e.assembler.AssembleFeatures(ctx, *variant, date)
		}

		day, ok := e.safeDay(record, baseline, date, offset)
		if !ok {
			anyDegraded = true
		}
		result.Forecasts = append(result.Forecasts, day)
	}
	result.Degraded = anyDegraded

	result.DaysUntilStockout = daysUntilStockout(result.Forecasts, variant.CurrentStock)
	result.RecommendedReorderQty = recommendedReorder(result.Forecasts, baseline)

	return result
}

// safeDay builds one day's forecast; a panic inside the computation yields
// the safe default record for that day instead of aborting the horizon.
func (e *Engine) safeDay(record features.Record, baseline float64, date time.Time, offset int) (day domain.DailyForecast, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("sku_code", record.SKUCode).Int("days_ahead", offset).
				Msg("day forecast failed, using defaults")
			day = defaultDay(date, offset)
			ok = false
		}
	}()

	combined := e.composer.Compose(record)
	predicted := int(math.Round(baseline * combined))
	if predicted < 1 {
		predicted = 1
	}

	width := int(math.Round(0.2 * float64(predicted)))
	if width < 5 {
		width = 5
	}
	lower := predicted - width
	if lower < 0 {
		lower = 0
	}

	return domain.DailyForecast{
		Date:              date,
		DaysAhead:         offset,
		PredictedQuantity: predicted,
		LowerBound:        lower,
		UpperBound:        predicted + width,
		Factors:           influencingFactors(record),
	}, true
}

// degradedResult is the whole-horizon fallback: a short run of default days
// flagged as degraded.
func (e *Engine) degradedResult(skuCode string, currentStock int, generatedAt time.Time) domain.ForecastResult {
	today := truncateToDay(generatedAt)

	forecasts := make([]domain.DailyForecast, 0, degradedHorizonDays)
	for offset := 1; offset <= degradedHorizonDays; offset++ {
		forecasts = append(forecasts, defaultDay(today.AddDate(0, 0, offset), offset))
	}

	return domain.ForecastResult{
		SKUCode:               skuCode,
		ModelType:             ModelMultiplicative,
		GeneratedAt:           generatedAt,
		CurrentStock:          currentStock,
		BaselineDailyDemand:   DefaultBaselineDemand,
		Forecasts:             forecasts,
		DaysUntilStockout:     daysUntilStockout(forecasts, currentStock),
		RecommendedReorderQty: recommendedReorder(forecasts, DefaultBaselineDemand),
		Degraded:              true,
	}
}

func defaultDay(date time.Time, offset int) domain.DailyForecast {
	return domain.DailyForecast{
		Date:              date,
		DaysAhead:         offset,
		PredictedQuantity: 10,
		LowerBound:        5,
		UpperBound:        15,
	}
}

func influencingFactors(record features.Record) []string {
	var factors []string
	if record.Festival.IsFestivalWeek {
		factors = append(factors, fmt.Sprintf("festival: %s", record.Festival.FestivalName))
	}
	if record.Historical.SalesTrend7d == "increasing" {
		factors = append(factors, "sales trend increasing")
	}
	if record.Weather.TemperatureImpact != 1.0 {
		factors = append(factors, "temperature effect")
	}
	return factors
}

// daysUntilStockout is the first day offset at which cumulative predicted
// demand reaches current stock, or NeverWithinHorizon.
func daysUntilStockout(forecasts []domain.DailyForecast, currentStock int) int {
	if currentStock <= 0 {
		return 0
	}
	cumulative := 0
	for _, day := range forecasts {
		cumulative += day.PredictedQuantity
		if cumulative >= currentStock {
			return day.DaysAhead
		}
	}
	return NeverWithinHorizon
}

// recommendedReorder covers 30 days of predicted demand plus a 30% safety
// margin. A horizon shorter than 30 days is extrapolated at the mean
// predicted rate.
func recommendedReorder(forecasts []domain.DailyForecast, baseline float64) int {
	if len(forecasts) == 0 {
		return int(math.Round(baseline * reorderWindowDays * reorderSafetyFactor))
	}

	total := 0.0
	counted := 0
	for _, day := range forecasts {
		if day.DaysAhead > reorderWindowDays {
			break
		}
		total += float64(day.PredictedQuantity)
		counted++
	}

	if counted < reorderWindowDays {
		meanDaily := total / float64(counted)
		total += meanDaily * float64(reorderWindowDays-counted)
	}

	return int(math.Round(total * reorderSafetyFactor))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
