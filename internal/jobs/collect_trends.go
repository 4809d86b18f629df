package jobs

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/repository"
	"github.com/kidbea/forecast-go/internal/trends"
)

const JobCollectTrends = "collect_trends"

// TrendsCollectionJob collects a search-interest trend per active product
// category and stores it as an external signal.
type TrendsCollectionJob struct {
	client  *trends.Client
	skus    repository.SKURepository
	signals repository.SignalRepository
	now     func() time.Time
}

func NewTrendsCollectionJob(client *trends.Client, skus repository.SKURepository, signals repository.SignalRepository) *TrendsCollectionJob {
	return &TrendsCollectionJob{
		client:  client,
		skus:    skus,
		signals: signals,
		now:     time.Now,
	}
}

func (j *TrendsCollectionJob) Name() string { return JobCollectTrends }

func (j *TrendsCollectionJob) Run(ctx context.Context, _ string) (domain.JobSummary, string, error) {
	summary := domain.JobSummary{Job: JobCollectTrends, Timestamp: j.now()}

	categories, err := j.skus.ListCategories(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("category listing failed, using default keyword categories")
		for category := range trends.DefaultKeywords {
			categories = append(categories, category)
		}
	}

	for _, category := range categories {
		trend, err := j.client.CategoryTrend(ctx, category, nil)
		if err != nil {
			log.Warn().Err(err).Str("category", category).Msg("trends collection failed for category")
			summary.Failed++
			continue
		}

		if err := j.storeTrend(ctx, category, trend); err != nil {
			log.Warn().Err(err).Str("category", category).Msg("trend signal write failed")
			summary.Failed++
			continue
		}
		summary.Succeeded++
	}

	if summary.Succeeded == 0 && len(categories) > 0 {
		return summary, "", trends.ErrUnavailable
	}
	return summary, "", nil
}

func (j *TrendsCollectionJob) storeTrend(ctx context.Context, category string, trend *trends.CategoryTrend) error {
	payload, err := json.Marshal(map[string]interface{}{
		"score":     trend.Score,
		"direction": trend.Direction,
		"keywords":  trend.Keywords,
	})
	if err != nil {
		return err
	}

	return j.signals.Upsert(ctx, &domain.ExternalSignal{
		SignalType:   domain.SignalTrends,
		SubjectCode:  strings.ToLower(category),
		LocationCode: "",
		SignalDate:   truncateToDay(j.now()),
		Value:        trend.Score,
		RawData:      payload,
		Source:       "trends",
	})
}
