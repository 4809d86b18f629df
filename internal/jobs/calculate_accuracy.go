package jobs

import (
	"context"
	"time"

	"github.com/kidbea/forecast-go/internal/accuracy"
	"github.com/kidbea/forecast-go/internal/domain"
)

const JobCalculateAccuracy = "calculate_accuracy"

// AccuracyJob reconciles past forecasts against realized sales, up to the
// configured record cap per cycle.
type AccuracyJob struct {
	tracker   *accuracy.Tracker
	recordCap int
	now       func() time.Time
}

func NewAccuracyJob(tracker *accuracy.Tracker, recordCap int) *AccuracyJob {
	if recordCap <= 0 {
		recordCap = 1000
	}
	return &AccuracyJob{
		tracker:   tracker,
		recordCap: recordCap,
		now:       time.Now,
	}
}

func (j *AccuracyJob) Name() string { return JobCalculateAccuracy }

func (j *AccuracyJob) Run(ctx context.Context, _ string) (domain.JobSummary, string, error) {
	summary := domain.JobSummary{Job: JobCalculateAccuracy, Timestamp: j.now()}

	succeeded, failed, err := j.tracker.Reconcile(ctx, j.recordCap)
	summary.Succeeded = succeeded
	summary.Failed = failed
	if err != nil {
		return summary, "", err
	}
	return summary, "", nil
}
