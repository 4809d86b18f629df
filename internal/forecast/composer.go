package forecast

import (
	"math"

	"github.com/kidbea/forecast-go/internal/features"
)

// Composer folds a feature record's multipliers into one combined factor.
// Implementations must be total and return a finite positive scalar.
type Composer interface {
	Compose(record features.Record) float64
}

// MultiplicativeComposer multiplies the seven demand multipliers together,
// treating any missing, zero, negative or non-finite factor as neutral. The
// product form lets one strong signal dominate while absent signals cost
// nothing. This is a heuristic, not a statistical model; swap in a learned
// strategy behind the same interface when one exists.
type MultiplicativeComposer struct{}

func NewMultiplicativeComposer() MultiplicativeComposer {
	return MultiplicativeComposer{}
}

func (MultiplicativeComposer) Compose(record features.Record) float64 {
	factors := []float64{
		record.Seasonal.SeasonalMultiplier,
		record.Festival.FestivalMultiplier,
		record.Temporal.DayOfWeekMultiplier,
		record.Temporal.MonthMultiplier,
		record.Lifecycle.Multiplier,
		record.Weather.TemperatureImpact,
		record.Weather.WeatherImpact,
	}

	combined := 1.0
	for _, factor := range factors {
		if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
			continue
		}
		combined *= factor
	}

	if combined <= 0 || math.IsNaN(combined) || math.IsInf(combined, 0) {
		return 1.0
	}
	return combined
}

var _ Composer = MultiplicativeComposer{}
