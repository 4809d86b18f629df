package multiplier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kidbea/forecast-go/internal/refdata"
)

func testProvider() *refdata.StaticProvider {
	return refdata.NewStaticProvider(
		refdata.FestivalCalendar{
			Festivals: []refdata.Festival{
				{
					Name:             "Diwali",
					DemandMultiplier: 1.8,
					ImpactWindowDays: 7,
					Dates:            map[string]string{"2026": "2026-11-08"},
				},
			},
		},
		refdata.SeasonalPatterns{
			Seasons: map[string]refdata.Season{
				"winter": {Months: []int{11, 12, 1, 2}, CategoryMultipliers: map[string]float64{"sweaters": 1.5}},
				"summer": {Months: []int{3, 4, 5, 6}, CategoryMultipliers: map[string]float64{}},
			},
			DayOfWeekPatterns: map[string]float64{"saturday": 1.2, "monday": 0.9},
			MonthPatterns:     map[string]float64{"11": 1.4},
			WeatherImpact:     map[string]float64{"rain": 0.8, "clear sky": 1.1},
			TemperatureImpact: map[string]float64{"above_40": 1.3, "below_10": 0.9},
			ProductLifecyclePhases: map[string]refdata.LifecyclePhase{
				"launch":  {DaysFromCreated: "0-30", DemandMultiplier: 0.8},
				"growth":  {DaysFromCreated: "31-180", DemandMultiplier: 1.3},
				"mature":  {DaysFromCreated: "181-730", DemandMultiplier: 1.0},
				"decline": {DaysFromCreated: "731-999999", DemandMultiplier: 0.7},
			},
		},
	)
}

func TestDayOfWeek(t *testing.T) {
	lib := NewLibrary(testProvider())
	ctx := context.Background()

	assert.Equal(t, 1.2, lib.DayOfWeek(ctx, time.Saturday))
	assert.Equal(t, 0.9, lib.DayOfWeek(ctx, time.Monday))
	// Weekdays without an entry are neutral.
	assert.Equal(t, Neutral, lib.DayOfWeek(ctx, time.Wednesday))
}

func TestMonth(t *testing.T) {
	lib := NewLibrary(testProvider())
	ctx := context.Background()

	assert.Equal(t, 1.4, lib.Month(ctx, time.November))
	assert.Equal(t, Neutral, lib.Month(ctx, time.March))
}

func TestCategorySeason(t *testing.T) {
	lib := NewLibrary(testProvider())
	ctx := context.Background()

	assert.Equal(t, 1.5, lib.CategorySeason(ctx, "Sweaters", time.December))
	assert.Equal(t, Neutral, lib.CategorySeason(ctx, "sweaters", time.May))
	assert.Equal(t, Neutral, lib.CategorySeason(ctx, "toys", time.December))
}

func TestLifecycle(t *testing.T) {
	lib := NewLibrary(testProvider())
	ctx := context.Background()

	assert.Equal(t, 0.8, lib.Lifecycle(ctx, 10))
	assert.Equal(t, 1.3, lib.Lifecycle(ctx, 31))
	assert.Equal(t, 1.0, lib.Lifecycle(ctx, 400))
	assert.Equal(t, 0.7, lib.Lifecycle(ctx, 800))
	assert.Equal(t, Neutral, lib.Lifecycle(ctx, -5))
}

func TestTemperatureBucket(t *testing.T) {
	lib := NewLibrary(testProvider())
	ctx := context.Background()

	assert.Equal(t, 1.3, lib.TemperatureBucket(ctx, 42.0))
	assert.Equal(t, 0.9, lib.TemperatureBucket(ctx, 5.0))
	// Buckets without an entry are neutral.
	assert.Equal(t, Neutral, lib.TemperatureBucket(ctx, 22.0))
}

func TestTemperatureBucketKey(t *testing.T) {
	cases := map[float64]string{
		-3:   "below_10",
		9.9:  "below_10",
		10:   "10_to_15",
		17:   "15_to_20",
		24.9: "20_to_25",
		28:   "25_to_30",
		33:   "30_to_35",
		39:   "35_to_40",
		40:   "above_40",
		45:   "above_40",
	}
	for celsius, want := range cases {
		assert.Equal(t, want, temperatureBucketKey(celsius), "celsius=%v", celsius)
	}
}

func TestWeatherImpact(t *testing.T) {
	lib := NewLibrary(testProvider())
	ctx := context.Background()

	assert.Equal(t, 0.8, lib.WeatherImpact(ctx, "Light Rain Showers"))
	assert.Equal(t, 1.1, lib.WeatherImpact(ctx, "clear_sky"))
	assert.Equal(t, Neutral, lib.WeatherImpact(ctx, "overcast"))
	assert.Equal(t, Neutral, lib.WeatherImpact(ctx, ""))
}

func TestFestivalProximity(t *testing.T) {
	lib := NewLibrary(testProvider())
	ctx := context.Background()

	inWindow := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1.8, lib.FestivalProximity(ctx, inWindow, 60))

	outOfWindow := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Neutral, lib.FestivalProximity(ctx, outOfWindow, 60))
}

func TestSeasonName(t *testing.T) {
	assert.Equal(t, "winter", SeasonName(time.January))
	assert.Equal(t, "winter", SeasonName(time.December))
	assert.Equal(t, "summer", SeasonName(time.April))
	assert.Equal(t, "monsoon", SeasonName(time.August))
	assert.Equal(t, "spring", SeasonName(time.October))
}

func TestLifecycleStage(t *testing.T) {
	assert.Equal(t, "launch", LifecycleStage(0))
	assert.Equal(t, "launch", LifecycleStage(29))
	assert.Equal(t, "growth", LifecycleStage(30))
	assert.Equal(t, "maturity", LifecycleStage(180))
	assert.Equal(t, "decline", LifecycleStage(730))
	assert.Equal(t, "unknown", LifecycleStage(-1))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, Neutral, sanitize(0))
	assert.Equal(t, Neutral, sanitize(-2.5))
	assert.Equal(t, 1.3, sanitize(1.3))
}
