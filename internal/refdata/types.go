// Package refdata loads the static reference datasets (festival calendar,
// seasonal pattern table) that back the multiplier library. Datasets are
// versioned JSON documents resolved through object storage, a local data
// directory, or hardcoded defaults, and cached for 24 hours.
package refdata

import "time"

// Festival is one entry of the festival calendar. Dates maps a year ("2026")
// to that year's occurrence in YYYY-MM-DD form.
type Festival struct {
	Name             string            `json:"name"`
	Type             string            `json:"type"`
	Region           string            `json:"region"`
	DemandMultiplier float64           `json:"demand_multiplier"`
	ImpactWindowDays int               `json:"impact_window_days"`
	Dates            map[string]string `json:"dates"`
	ImpactCategories []string          `json:"impact_categories"`
}

// FestivalCalendar is the full festival dataset.
type FestivalCalendar struct {
	Festivals []Festival `json:"festivals"`
}

// FestivalOccurrence is a festival resolved to a concrete date.
type FestivalOccurrence struct {
	Name             string
	Date             time.Time
	DemandMultiplier float64
	ImpactWindowDays int
	DaysUntil        int
}

// Season maps months to per-category demand multipliers.
type Season struct {
	Months              []int              `json:"months"`
	CategoryMultipliers map[string]float64 `json:"category_multipliers"`
}

// LifecyclePhase describes a product age band and its demand multiplier.
// DaysFromCreated is an inclusive "start-end" day range.
type LifecyclePhase struct {
	DaysFromCreated  string  `json:"days_from_created"`
	DemandMultiplier float64 `json:"demand_multiplier"`
}

// SeasonalPatterns is the seasonal/calendar dataset.
type SeasonalPatterns struct {
	Seasons                map[string]Season         `json:"seasons"`
	DayOfWeekPatterns      map[string]float64        `json:"day_of_week_patterns"`
	MonthPatterns          map[string]float64        `json:"month_patterns"`
	WeatherImpact          map[string]float64        `json:"weather_impact"`
	TemperatureImpact      map[string]float64        `json:"temperature_impact"`
	ProductLifecyclePhases map[string]LifecyclePhase `json:"product_lifecycle_phases"`
}
