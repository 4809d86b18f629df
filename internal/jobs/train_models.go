package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidbea/forecast-go/internal/domain"
)

const JobTrainModels = "train_models"

// ModelTrainingJob is a placeholder for a future learned forecasting model.
// It reports success without doing work so schedulers can already carry the
// job in their cycle.
type ModelTrainingJob struct {
	now func() time.Time
}

func NewModelTrainingJob() *ModelTrainingJob {
	return &ModelTrainingJob{now: time.Now}
}

func (j *ModelTrainingJob) Name() string { return JobTrainModels }

func (j *ModelTrainingJob) Run(ctx context.Context, _ string) (domain.JobSummary, string, error) {
	log.Info().Msg("model training is not implemented; multiplicative heuristic remains active")
	return domain.JobSummary{Job: JobTrainModels, Timestamp: j.now()}, "", nil
}
