package features

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/multiplier"
	"github.com/kidbea/forecast-go/internal/refdata"
)

const festivalLookaheadDays = 60

// SalesReader provides realized daily sales ordered by sale date.
type SalesReader interface {
	DailyQuantities(ctx context.Context, skuCode string, start, end time.Time) ([]domain.HistoricalSale, error)
}

// SignalReader provides collected external signals.
type SignalReader interface {
	SignalForDate(ctx context.Context, signalType, locationCode string, date time.Time) (*domain.ExternalSignal, error)
	LatestSignal(ctx context.Context, signalType, subjectCode string, onOrBefore time.Time) (*domain.ExternalSignal, error)
}

type weatherPayload struct {
	Temperature   *float64 `json:"temperature"`
	Humidity      *float64 `json:"humidity"`
	Precipitation *float64 `json:"precipitation"`
	Description   string   `json:"description"`
}

type trendsPayload struct {
	Score     float64 `json:"score"`
	Direction string  `json:"direction"`
}

// Assembler builds feature records for the forecast engine.
type Assembler struct {
	sales       SalesReader
	signals     SignalReader
	provider    refdata.Provider
	multipliers *multiplier.Library
	location    string
	now         func() time.Time
}

func NewAssembler(sales SalesReader, signals SignalReader, provider refdata.Provider, location string) *Assembler {
	return &Assembler{
		sales:       sales,
		signals:     signals,
		provider:    provider,
		multipliers: multiplier.NewLibrary(provider),
		location:    location,
		now:         time.Now,
	}
}

// GroupOption excludes an optional feature group from one assembly call.
// Excluded groups keep their neutral defaults and are not marked degraded.
type GroupOption func(*groupSelection)

type groupSelection struct {
	festival bool
	weather  bool
	trends   bool
}

func WithoutFestival() GroupOption { return func(g *groupSelection) { g.festival = false } }
func WithoutWeather() GroupOption  { return func(g *groupSelection) { g.weather = false } }
func WithoutTrends() GroupOption   { return func(g *groupSelection) { g.trends = false } }

// AssembleFeatures builds the feature record for one SKU and date. Each
// feature group degrades independently to its defaults; failures are recorded
// in Record.Degraded and logged, never returned.
func (a *Assembler) AssembleFeatures(ctx context.Context, variant domain.ProductVariant, date time.Time, opts ...GroupOption) Record {
	selected := groupSelection{festival: true, weather: true, trends: true}
	for _, opt := range opts {
		opt(&selected)
	}

	record := Record{
		SKUCode:   variant.SKUCode,
		Date:      date,
		Temporal:  a.temporalGroup(ctx, date),
		Seasonal:  a.seasonalGroup(ctx, variant, date),
		Festival:  defaultFestival(),
		Lifecycle: a.lifecycleGroup(ctx, variant),
		Weather:   defaultWeather(),
		Trends:    defaultTrends(),
	}

	if selected.festival {
		record.Festival = a.festivalGroup(ctx, date)
	}

	historical, err := a.historicalGroup(ctx, variant.SKUCode, date)
	if err != nil {
		log.Warn().Err(err).Str("sku_code", variant.SKUCode).Msg("historical features degraded to defaults")
		historical = defaultHistorical()
		record.Degraded = append(record.Degraded, GroupHistorical)
	}
	record.Historical = historical

	if selected.weather {
		weather, err := a.weatherGroup(ctx, date)
		if err != nil {
			log.Warn().Err(err).Str("location", a.location).Msg("weather features degraded to defaults")
			weather = defaultWeather()
			record.Degraded = append(record.Degraded, GroupWeather)
		}
		record.Weather = weather
	}

	if selected.trends {
		trends, err := a.trendsGroup(ctx, variant.Category, date)
		if err != nil {
			log.Warn().Err(err).Str("category", variant.Category).Msg("trends features degraded to defaults")
			trends = defaultTrends()
			record.Degraded = append(record.Degraded, GroupTrends)
		}
		record.Trends = trends
	}

	return record
}

func (a *Assembler) temporalGroup(ctx context.Context, date time.Time) TemporalFeatures {
	return temporalFor(
		date,
		a.multipliers.DayOfWeek(ctx, date.Weekday()),
		a.multipliers.Month(ctx, date.Month()),
	)
}

func (a *Assembler) seasonalGroup(ctx context.Context, variant domain.ProductVariant, date time.Time) SeasonalFeatures {
	if variant.Category == "" {
		return defaultSeasonal()
	}
	return SeasonalFeatures{
		Season:             multiplier.SeasonName(date.Month()),
		SeasonalMultiplier: a.multipliers.CategorySeason(ctx, variant.Category, date.Month()),
	}
}

// festivalGroup scans festivals within the lookahead window around the date.
// The nearest in-window occurrence wins; otherwise DaysToFestival tracks the
// closest upcoming festival.
func (a *Assembler) festivalGroup(ctx context.Context, date time.Time) FestivalFeatures {
	features := defaultFestival()

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	occurrences := a.provider.FestivalsInRange(ctx,
		day.AddDate(0, 0, -festivalLookaheadDays),
		day.AddDate(0, 0, festivalLookaheadDays))

	sort.Slice(occurrences, func(i, j int) bool {
		di := absInt(daysBetween(day, occurrences[i].Date))
		dj := absInt(daysBetween(day, occurrences[j].Date))
		return di < dj
	})

	for _, occ := range occurrences {
		diff := daysBetween(day, occ.Date)
		if diff >= -occ.ImpactWindowDays && diff <= occ.ImpactWindowDays {
			features.IsFestivalWeek = true
			features.FestivalName = occ.Name
			features.FestivalMultiplier = occ.DemandMultiplier
			features.DaysToFestival = diff
			features.ImpactWindowDays = occ.ImpactWindowDays
			return features
		}
		if diff > 0 && diff < features.DaysToFestival {
			features.DaysToFestival = diff
		}
	}
	return features
}

func (a *Assembler) lifecycleGroup(ctx context.Context, variant domain.ProductVariant) LifecycleFeatures {
	if variant.CreatedAt.IsZero() {
		return defaultLifecycle()
	}

	days := int(a.now().Sub(variant.CreatedAt).Hours() / 24)
	if days < 0 {
		return defaultLifecycle()
	}

	return LifecycleFeatures{
		DaysSinceLaunch: days,
		Stage:           multiplier.LifecycleStage(days),
		Multiplier:      a.multipliers.Lifecycle(ctx, days),
	}
}

// historicalGroup summarizes sales over the trailing 7/30/90 day windows
// ending the day before the forecast date.
func (a *Assembler) historicalGroup(ctx context.Context, skuCode string, date time.Time) (HistoricalFeatures, error) {
	end := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	start90 := end.AddDate(0, 0, -89)

	sales, err := a.sales.DailyQuantities(ctx, skuCode, start90, end)
	if err != nil {
		return HistoricalFeatures{}, err
	}

	features := defaultHistorical()
	if len(sales) == 0 {
		return features, nil
	}

	start7 := end.AddDate(0, 0, -6)
	start30 := end.AddDate(0, 0, -29)

	var last7 []float64
	var sum7, sum30, sum90 float64
	var n7, n30 int
	var lastSale time.Time

	for _, sale := range sales {
		sum90 += sale.QuantitySold
		if !sale.SaleDate.Before(start30) {
			sum30 += sale.QuantitySold
			n30++
		}
		if !sale.SaleDate.Before(start7) {
			sum7 += sale.QuantitySold
			n7++
			last7 = append(last7, sale.QuantitySold)
		}
		if sale.SaleDate.After(lastSale) {
			lastSale = sale.SaleDate
		}
	}

	features.AvgDailySales90d = sum90 / float64(len(sales))
	if n30 > 0 {
		features.AvgDailySales30d = sum30 / float64(n30)
	}
	if n7 > 0 {
		features.AvgDailySales7d = sum7 / float64(n7)
	}
	if len(last7) >= 2 {
		features.SalesTrend7d = trendLabel(last7)
		features.SalesVolatility7d = sampleStdev(last7)
	}
	if !lastSale.IsZero() {
		if days := daysBetween(lastSale, end); days >= 0 {
			features.DaysSinceLastSale = days
		} else {
			features.DaysSinceLastSale = 0
		}
	}

	return features, nil
}

// weatherGroup reads the observation for the date, falling back to the
// collected daily forecast when no observation exists yet.
func (a *Assembler) weatherGroup(ctx context.Context, date time.Time) (WeatherFeatures, error) {
	signal, err := a.signals.SignalForDate(ctx, domain.SignalWeather, a.location, date)
	if err != nil {
		return WeatherFeatures{}, err
	}
	if signal == nil {
		signal, err = a.signals.SignalForDate(ctx, domain.SignalWeatherForecast, a.location, date)
		if err != nil {
			return WeatherFeatures{}, err
		}
	}

	features := defaultWeather()
	if signal == nil || len(signal.RawData) == 0 {
		return features, nil
	}

	var payload weatherPayload
	if err := json.Unmarshal(signal.RawData, &payload); err != nil {
		return WeatherFeatures{}, err
	}

	features.Temperature = payload.Temperature
	features.Humidity = payload.Humidity
	features.Precipitation = payload.Precipitation
	features.Description = payload.Description
	features.HasData = true

	if payload.Temperature != nil {
		features.TemperatureImpact = a.multipliers.TemperatureBucket(ctx, *payload.Temperature)
	}
	if payload.Description != "" {
		features.WeatherImpact = a.multipliers.WeatherImpact(ctx, payload.Description)
	}

	return features, nil
}

// trendsGroup reads the most recent search-interest signal for the category
// at or before the forecast date.
func (a *Assembler) trendsGroup(ctx context.Context, category string, date time.Time) (TrendsFeatures, error) {
	features := defaultTrends()
	if category == "" {
		return features, nil
	}

	signal, err := a.signals.LatestSignal(ctx, domain.SignalTrends, strings.ToLower(category), date)
	if err != nil {
		return TrendsFeatures{}, err
	}
	if signal == nil || len(signal.RawData) == 0 {
		return features, nil
	}

	var payload trendsPayload
	if err := json.Unmarshal(signal.RawData, &payload); err != nil {
		return TrendsFeatures{}, err
	}

	if payload.Score > 0 {
		features.Score = payload.Score
	}
	if payload.Direction != "" {
		features.Direction = payload.Direction
	}
	features.HasData = true

	return features, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
