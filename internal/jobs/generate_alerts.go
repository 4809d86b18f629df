package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidbea/forecast-go/internal/alerts"
	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/forecast"
	"github.com/kidbea/forecast-go/internal/repository"
)

const JobGenerateAlerts = "generate_alerts"

// AlertGenerationJob re-evaluates stock health for a capped batch of SKUs.
// Severity is recomputed from scratch every run; when a full pass over the
// population completes, open alerts for SKUs that no longer trigger are
// resolved.
type AlertGenerationJob struct {
	skus        repository.SKURepository
	alertRepo   repository.AlertRepository
	engine      *forecast.Engine
	skuCap      int
	horizonDays int
	now         func() time.Time
}

func NewAlertGenerationJob(skus repository.SKURepository, alertRepo repository.AlertRepository, engine *forecast.Engine, skuCap, horizonDays int) *AlertGenerationJob {
	if skuCap <= 0 {
		skuCap = 500
	}
	if horizonDays <= 0 {
		horizonDays = 14
	}
	return &AlertGenerationJob{
		skus:        skus,
		alertRepo:   alertRepo,
		engine:      engine,
		skuCap:      skuCap,
		horizonDays: horizonDays,
		now:         time.Now,
	}
}

func (j *AlertGenerationJob) Name() string { return JobGenerateAlerts }

func (j *AlertGenerationJob) Run(ctx context.Context, cursor string) (domain.JobSummary, string, error) {
	summary := domain.JobSummary{Job: JobGenerateAlerts, Timestamp: j.now()}

	variants, err := j.skus.ListActive(ctx, cursor, j.skuCap)
	if err != nil {
		return summary, cursor, fmt.Errorf("list active skus: %w", err)
	}

	alertedSKUs := make([]string, 0, len(variants))
	nextCursor := ""
	for _, variant := range variants {
		result := j.engine.Forecast(ctx, variant.SKUCode, j.horizonDays)

		alert := alerts.FromForecast(result, j.now())
		if alert != nil {
			if err := j.alertRepo.Upsert(ctx, alert); err != nil {
				log.Error().Err(err).Str("sku_code", variant.SKUCode).Msg("alert upsert failed")
				summary.Failed++
				continue
			}
			alertedSKUs = append(alertedSKUs, variant.SKUCode)
		}
		summary.Succeeded++
		nextCursor = variant.SKUCode
	}

	// Stale-alert cleanup only runs on a single-batch full pass, where the
	// evaluated set is the whole population.
	if cursor == "" && len(variants) < j.skuCap {
		nextCursor = ""
		resolved, err := j.alertRepo.ResolveMissing(ctx, alertedSKUs)
		if err != nil {
			log.Warn().Err(err).Msg("stale alert cleanup failed")
		} else if resolved > 0 {
			log.Info().Int64("resolved", resolved).Msg("cleared alerts resolved")
		}
	} else if len(variants) < j.skuCap {
		nextCursor = ""
	}

	return summary, nextCursor, nil
}
