package refdata

// defaultFestivalCalendar is the minimal fallback used when neither object
// storage nor the local data directory yields a parseable calendar. One major
// festival keeps the festival feature path alive.
func defaultFestivalCalendar() FestivalCalendar {
	return FestivalCalendar{
		Festivals: []Festival{
			{
				Name:             "Diwali",
				Type:             "major",
				Region:           "all",
				DemandMultiplier: 1.8,
				ImpactWindowDays: 14,
				Dates:            map[string]string{},
				ImpactCategories: []string{"toys", "clothing", "gifts"},
			},
		},
	}
}

// defaultSeasonalPatterns is the neutral fallback table: every multiplier is
// 1.0 except the lifecycle phases, so an all-defaults run composes to a
// combined multiplier of exactly 1.0.
func defaultSeasonalPatterns() SeasonalPatterns {
	neutralMonths := make(map[string]float64, 12)
	for _, m := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"} {
		neutralMonths[m] = 1.0
	}

	return SeasonalPatterns{
		Seasons: map[string]Season{
			"winter":  {Months: []int{11, 12, 1, 2}, CategoryMultipliers: map[string]float64{}},
			"summer":  {Months: []int{3, 4, 5, 6}, CategoryMultipliers: map[string]float64{}},
			"monsoon": {Months: []int{7, 8, 9}, CategoryMultipliers: map[string]float64{}},
			"spring":  {Months: []int{10}, CategoryMultipliers: map[string]float64{}},
		},
		DayOfWeekPatterns: map[string]float64{
			"monday": 1.0, "tuesday": 1.0, "wednesday": 1.0,
			"thursday": 1.0, "friday": 1.0, "saturday": 1.0, "sunday": 1.0,
		},
		MonthPatterns:     neutralMonths,
		WeatherImpact:     map[string]float64{},
		TemperatureImpact: map[string]float64{},
		ProductLifecyclePhases: map[string]LifecyclePhase{
			"launch":  {DaysFromCreated: "0-30", DemandMultiplier: 0.8},
			"growth":  {DaysFromCreated: "31-180", DemandMultiplier: 1.3},
			"mature":  {DaysFromCreated: "181-730", DemandMultiplier: 1.0},
			"decline": {DaysFromCreated: "731-999999", DemandMultiplier: 0.7},
		},
	}
}
