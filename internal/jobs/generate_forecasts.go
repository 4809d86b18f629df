package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/forecast"
	"github.com/kidbea/forecast-go/internal/repository"
)

const JobGenerateForecasts = "generate_forecasts"

// ForecastGenerationJob forecasts a capped batch of active SKUs per cycle
// and persists every horizon day. The cursor is the last SKU processed; a
// batch smaller than the cap wraps the cursor back to the start.
type ForecastGenerationJob struct {
	skus        repository.SKURepository
	forecasts   repository.ForecastRepository
	engine      *forecast.Engine
	skuCap      int
	horizonDays int
	now         func() time.Time
}

func NewForecastGenerationJob(skus repository.SKURepository, forecasts repository.ForecastRepository, engine *forecast.Engine, skuCap, horizonDays int) *ForecastGenerationJob {
	if skuCap <= 0 {
		skuCap = 1000
	}
	if horizonDays <= 0 {
		horizonDays = 30
	}
	return &ForecastGenerationJob{
		skus:        skus,
		forecasts:   forecasts,
		engine:      engine,
		skuCap:      skuCap,
		horizonDays: horizonDays,
		now:         time.Now,
	}
}

func (j *ForecastGenerationJob) Name() string { return JobGenerateForecasts }

func (j *ForecastGenerationJob) Run(ctx context.Context, cursor string) (domain.JobSummary, string, error) {
	summary := domain.JobSummary{Job: JobGenerateForecasts, Timestamp: j.now()}

	variants, err := j.skus.ListActive(ctx, cursor, j.skuCap)
	if err != nil {
		return summary, cursor, fmt.Errorf("list active skus: %w", err)
	}

	nextCursor := ""
	for _, variant := range variants {
		result := j.engine.Forecast(ctx, variant.SKUCode, j.horizonDays)
		if result.Degraded {
			log.Warn().Str("sku_code", variant.SKUCode).Msg("forecast degraded")
		}

		if _, err := j.forecasts.InsertRun(ctx, &result); err != nil {
			log.Error().Err(err).Str("sku_code", variant.SKUCode).Msg("forecast persistence failed")
			summary.Failed++
			continue
		}
		summary.Succeeded++
		nextCursor = variant.SKUCode
	}

	// Fewer rows than the cap means the population is exhausted; the next
	// cycle starts over.
	if len(variants) < j.skuCap {
		nextCursor = ""
	}
	return summary, nextCursor, nil
}
