// Package multiplier maps calendar, weather and lifecycle context to scalar
// demand multipliers. Every lookup is total: internal problems collapse to
// the neutral multiplier 1.0, never to an error.
package multiplier

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kidbea/forecast-go/internal/refdata"
)

// Neutral is the multiplier representing "no demand effect".
const Neutral = 1.0

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
	time.Sunday:    "sunday",
}

// Library resolves demand multipliers against an injected reference data
// provider.
type Library struct {
	provider refdata.Provider
}

func NewLibrary(provider refdata.Provider) *Library {
	return &Library{provider: provider}
}

// DayOfWeek returns the demand multiplier for a weekday.
func (l *Library) DayOfWeek(ctx context.Context, weekday time.Weekday) float64 {
	patterns := l.provider.SeasonalPatterns(ctx)
	name, ok := weekdayNames[weekday]
	if !ok {
		return Neutral
	}
	return sanitize(patterns.DayOfWeekPatterns[name])
}

// Month returns the demand multiplier for a calendar month.
func (l *Library) Month(ctx context.Context, month time.Month) float64 {
	if month < time.January || month > time.December {
		return Neutral
	}
	patterns := l.provider.SeasonalPatterns(ctx)
	return sanitize(patterns.MonthPatterns[strconv.Itoa(int(month))])
}

// CategorySeason returns the seasonal multiplier for a product category in a
// given month. Categories without an entry in the active season are neutral.
func (l *Library) CategorySeason(ctx context.Context, category string, month time.Month) float64 {
	patterns := l.provider.SeasonalPatterns(ctx)
	season, ok := patterns.Seasons[SeasonName(month)]
	if !ok {
		return Neutral
	}
	return sanitize(season.CategoryMultipliers[strings.ToLower(category)])
}

// Lifecycle returns the multiplier for a product's age in days. Ranges come
// from the lifecycle phase table; unknown ages are neutral.
func (l *Library) Lifecycle(ctx context.Context, daysSinceLaunch int) float64 {
	if daysSinceLaunch < 0 {
		return Neutral
	}

	patterns := l.provider.SeasonalPatterns(ctx)
	type phase struct {
		start, end int
		multiplier float64
	}

	phases := make([]phase, 0, len(patterns.ProductLifecyclePhases))
	for _, p := range patterns.ProductLifecyclePhases {
		start, end, ok := parseDayRange(p.DaysFromCreated)
		if !ok {
			continue
		}
		phases = append(phases, phase{start: start, end: end, multiplier: p.DemandMultiplier})
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i].start < phases[j].start })

	for _, p := range phases {
		if daysSinceLaunch >= p.start && daysSinceLaunch <= p.end {
			return sanitize(p.multiplier)
		}
	}
	return Neutral
}

// TemperatureBucket returns the demand impact for a temperature, using fixed
// 5 degree buckets from below_10 up to above_40.
func (l *Library) TemperatureBucket(ctx context.Context, celsius float64) float64 {
	patterns := l.provider.SeasonalPatterns(ctx)
	return sanitize(patterns.TemperatureImpact[temperatureBucketKey(celsius)])
}

// WeatherImpact matches a normalized weather description against the
// configured impact keys. Keys are checked in sorted order so the first match
// is deterministic; no match is neutral.
func (l *Library) WeatherImpact(ctx context.Context, description string) float64 {
	patterns := l.provider.SeasonalPatterns(ctx)
	if len(patterns.WeatherImpact) == 0 {
		return Neutral
	}

	normalized := strings.ToLower(strings.ReplaceAll(description, "_", " "))

	keys := make([]string, 0, len(patterns.WeatherImpact))
	for key := range patterns.WeatherImpact {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if strings.Contains(normalized, strings.ToLower(key)) {
			return sanitize(patterns.WeatherImpact[key])
		}
	}
	return Neutral
}

// FestivalProximity returns the demand multiplier of an in-window festival
// occurrence, or neutral when none applies.
func (l *Library) FestivalProximity(ctx context.Context, date time.Time, lookaheadDays int) float64 {
	occurrences := l.provider.FestivalsInRange(ctx, date.AddDate(0, 0, -lookaheadDays), date.AddDate(0, 0, lookaheadDays))
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	for _, occ := range occurrences {
		diff := int(occ.Date.Sub(day).Hours() / 24)
		if diff >= -occ.ImpactWindowDays && diff <= occ.ImpactWindowDays {
			return sanitize(occ.DemandMultiplier)
		}
	}
	return Neutral
}

// SeasonName maps a month to its season label.
func SeasonName(month time.Month) string {
	switch month {
	case time.November, time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May, time.June:
		return "summer"
	case time.July, time.August, time.September:
		return "monsoon"
	default:
		return "spring"
	}
}

// LifecycleStage maps a product age in days to a stage label.
func LifecycleStage(daysSinceLaunch int) string {
	switch {
	case daysSinceLaunch < 0:
		return "unknown"
	case daysSinceLaunch < 30:
		return "launch"
	case daysSinceLaunch < 180:
		return "growth"
	case daysSinceLaunch < 730:
		return "maturity"
	default:
		return "decline"
	}
}

func temperatureBucketKey(celsius float64) string {
	switch {
	case celsius < 10:
		return "below_10"
	case celsius < 15:
		return "10_to_15"
	case celsius < 20:
		return "15_to_20"
	case celsius < 25:
		return "20_to_25"
	case celsius < 30:
		return "25_to_30"
	case celsius < 35:
		return "30_to_35"
	case celsius < 40:
		return "35_to_40"
	default:
		return "above_40"
	}
}

// sanitize collapses missing, non-positive and non-finite values to neutral.
func sanitize(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return Neutral
	}
	return v
}

func parseDayRange(spec string) (int, int, bool) {
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || end < start {
		return 0, 0, false
	}
	return start, end, true
}
