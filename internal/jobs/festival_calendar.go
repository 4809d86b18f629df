package jobs

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/refdata"
	"github.com/kidbea/forecast-go/internal/repository"
)

const JobFestivalCalendar = "update_festival_calendar"

// FestivalCalendarJob reloads the festival dataset and materializes the
// upcoming occurrences as external signals for reporting.
type FestivalCalendarJob struct {
	provider      refdata.Provider
	signals       repository.SignalRepository
	lookaheadDays int
	now           func() time.Time
}

func NewFestivalCalendarJob(provider refdata.Provider, signals repository.SignalRepository) *FestivalCalendarJob {
	return &FestivalCalendarJob{
		provider:      provider,
		signals:       signals,
		lookaheadDays: 60,
		now:           time.Now,
	}
}

func (j *FestivalCalendarJob) Name() string { return JobFestivalCalendar }

func (j *FestivalCalendarJob) Run(ctx context.Context, _ string) (domain.JobSummary, string, error) {
	summary := domain.JobSummary{Job: JobFestivalCalendar, Timestamp: j.now()}

	if err := j.provider.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("festival dataset refresh failed, continuing with cached data")
	}

	today := truncateToDay(j.now())
	occurrences := j.provider.FestivalsInRange(ctx, today, today.AddDate(0, 0, j.lookaheadDays))

	for _, occurrence := range occurrences {
		if err := j.storeOccurrence(ctx, occurrence); err != nil {
			log.Warn().Err(err).Str("festival", occurrence.Name).Msg("festival signal write failed")
			summary.Failed++
			continue
		}
		summary.Succeeded++
	}
	return summary, "", nil
}

func (j *FestivalCalendarJob) storeOccurrence(ctx context.Context, occurrence refdata.FestivalOccurrence) error {
	payload, err := json.Marshal(map[string]interface{}{
		"name":               occurrence.Name,
		"demand_multiplier":  occurrence.DemandMultiplier,
		"impact_window_days": occurrence.ImpactWindowDays,
		"days_until":         occurrence.DaysUntil,
	})
	if err != nil {
		return err
	}

	return j.signals.Upsert(ctx, &domain.ExternalSignal{
		SignalType:  domain.SignalFestival,
		SubjectCode: strings.ToLower(strings.ReplaceAll(occurrence.Name, " ", "_")),
		SignalDate:  occurrence.Date,
		Value:       occurrence.DemandMultiplier,
		RawData:     payload,
		Source:      "festival-calendar",
	})
}
