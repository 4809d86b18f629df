// Package features assembles per-SKU, per-date feature records from sales
// history, reference data and collected external signals. Assembly is total:
// a failing feature group degrades to its defaults and is reported in
// Record.Degraded instead of failing the whole record.
package features

import "time"

// UnknownDays marks "no data" for day-distance features.
const UnknownDays = 999

// Feature group names reported in Record.Degraded.
const (
	GroupTemporal   = "temporal"
	GroupSeasonal   = "seasonal"
	GroupFestival   = "festival"
	GroupLifecycle  = "lifecycle"
	GroupHistorical = "historical"
	GroupWeather    = "weather"
	GroupTrends     = "trends"
)

// TemporalFeatures are pure calendar facts about the forecast date.
type TemporalFeatures struct {
	DayOfWeek           int     `json:"day_of_week"`
	DayOfMonth          int     `json:"day_of_month"`
	Month               int     `json:"month"`
	Quarter             int     `json:"quarter"`
	WeekOfYear          int     `json:"week_of_year"`
	IsWeekend           bool    `json:"is_weekend"`
	IsMonthStart        bool    `json:"is_month_start"`
	IsMonthEnd          bool    `json:"is_month_end"`
	IsQuarterEnd        bool    `json:"is_quarter_end"`
	DayOfWeekMultiplier float64 `json:"day_of_week_multiplier"`
	MonthMultiplier     float64 `json:"month_multiplier"`
}

// SeasonalFeatures describe the season and the category's seasonal lift.
type SeasonalFeatures struct {
	Season             string  `json:"season"`
	SeasonalMultiplier float64 `json:"seasonal_multiplier"`
}

// FestivalFeatures describe proximity to the nearest festival. DaysToFestival
// is signed: negative means the festival already passed but the date is still
// inside its impact window.
type FestivalFeatures struct {
	IsFestivalWeek     bool    `json:"is_festival_week"`
	FestivalName       string  `json:"festival_name,omitempty"`
	FestivalMultiplier float64 `json:"festival_multiplier"`
	DaysToFestival     int     `json:"days_to_festival"`
	ImpactWindowDays   int     `json:"festival_impact_window"`
}

// LifecycleFeatures describe product age.
type LifecycleFeatures struct {
	DaysSinceLaunch int     `json:"days_since_launch"`
	Stage           string  `json:"lifecycle_stage"`
	Multiplier      float64 `json:"lifecycle_multiplier"`
}

// HistoricalFeatures summarize realized sales before the forecast date.
type HistoricalFeatures struct {
	AvgDailySales7d   float64 `json:"avg_daily_sales_7d"`
	AvgDailySales30d  float64 `json:"avg_daily_sales_30d"`
	AvgDailySales90d  float64 `json:"avg_daily_sales_90d"`
	SalesTrend7d      string  `json:"sales_trend_7d"`
	SalesVolatility7d float64 `json:"sales_volatility_7d"`
	DaysSinceLastSale int     `json:"days_since_last_sale"`
}

// WeatherFeatures carry collected weather for the date plus derived demand
// impacts. Pointer fields are nil when no observation exists.
type WeatherFeatures struct {
	Temperature       *float64 `json:"temperature,omitempty"`
	Humidity          *float64 `json:"humidity,omitempty"`
	Precipitation     *float64 `json:"precipitation,omitempty"`
	Description       string   `json:"weather_description,omitempty"`
	TemperatureImpact float64  `json:"temperature_impact"`
	WeatherImpact     float64  `json:"weather_impact"`
	HasData           bool     `json:"has_weather_data"`
}

// TrendsFeatures carry the latest search-interest signal for the SKU's
// category.
type TrendsFeatures struct {
	Score     float64 `json:"trend_score"`
	Direction string  `json:"trend_direction"`
	HasData   bool    `json:"has_trend_data"`
}

// Record is the full assembled feature set for one SKU and date.
type Record struct {
	SKUCode    string             `json:"sku_code"`
	Date       time.Time          `json:"date"`
	Temporal   TemporalFeatures   `json:"temporal"`
	Seasonal   SeasonalFeatures   `json:"seasonal"`
	Festival   FestivalFeatures   `json:"festival"`
	Lifecycle  LifecycleFeatures  `json:"lifecycle"`
	Historical HistoricalFeatures `json:"historical"`
	Weather    WeatherFeatures    `json:"weather"`
	Trends     TrendsFeatures     `json:"trends"`
	Degraded   []string           `json:"degraded,omitempty"`
}

func defaultSeasonal() SeasonalFeatures {
	return SeasonalFeatures{Season: "unknown", SeasonalMultiplier: 1.0}
}

func defaultFestival() FestivalFeatures {
	return FestivalFeatures{FestivalMultiplier: 1.0, DaysToFestival: UnknownDays}
}

func defaultLifecycle() LifecycleFeatures {
	return LifecycleFeatures{DaysSinceLaunch: UnknownDays, Stage: "unknown", Multiplier: 1.0}
}

func defaultHistorical() HistoricalFeatures {
	return HistoricalFeatures{SalesTrend7d: "stable", DaysSinceLastSale: UnknownDays}
}

func defaultWeather() WeatherFeatures {
	return WeatherFeatures{TemperatureImpact: 1.0, WeatherImpact: 1.0}
}

func defaultTrends() TrendsFeatures {
	return TrendsFeatures{Score: 50, Direction: "stable"}
}

// DefaultRecord is the safe fallback when assembly as a whole cannot run:
// calendar facts are still computed, everything else is neutral.
func DefaultRecord(skuCode string, date time.Time) Record {
	return Record{
		SKUCode:    skuCode,
		Date:       date,
		Temporal:   temporalFor(date, 1.0, 1.0),
		Seasonal:   defaultSeasonal(),
		Festival:   defaultFestival(),
		Lifecycle:  defaultLifecycle(),
		Historical: defaultHistorical(),
		Weather:    defaultWeather(),
		Trends:     defaultTrends(),
		Degraded: []string{
			GroupSeasonal, GroupFestival, GroupLifecycle,
			GroupHistorical, GroupWeather, GroupTrends,
		},
	}
}

func temporalFor(date time.Time, dowMult, monthMult float64) TemporalFeatures {
	_, week := date.ISOWeek()
	weekday := date.Weekday()
	return TemporalFeatures{
		DayOfWeek:           int(weekday),
		DayOfMonth:          date.Day(),
		Month:               int(date.Month()),
		Quarter:             (int(date.Month())-1)/3 + 1,
		WeekOfYear:          week,
		IsWeekend:           weekday == time.Saturday || weekday == time.Sunday,
		IsMonthStart:        date.Day() <= 5,
		IsMonthEnd:          date.Day() >= 25,
		IsQuarterEnd:        date.Day() >= 25 && int(date.Month())%3 == 0,
		DayOfWeekMultiplier: dowMult,
		MonthMultiplier:     monthMult,
	}
}
