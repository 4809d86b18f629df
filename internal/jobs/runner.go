// Package jobs holds the scheduled entry points of the pipeline and the
// runner that executes them with bounded retries.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/kidbea/forecast-go/internal/config"
	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/repository"
	"github.com/kidbea/forecast-go/pkg/logger"
)

// Job is one schedulable unit of work. Cursor carries pagination state
// between cycles for capped jobs; others ignore it and return "".
type Job interface {
	Name() string
	Run(ctx context.Context, cursor string) (summary domain.JobSummary, nextCursor string, err error)
}

// Runner executes registered jobs, records every attempt in job_runs, and
// retries failures with geometrically increasing delay. After the configured
// attempts the job is abandoned for this cycle.
type Runner struct {
	runs      repository.JobRunRepository
	attempts  int
	baseDelay time.Duration
	jobs      map[string]Job

	sleep func(time.Duration)
}

func NewRunner(runs repository.JobRunRepository, cfg config.JobsConfig) *Runner {
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	baseDelay := time.Duration(cfg.RetryBaseDelayMins) * time.Minute
	if baseDelay <= 0 {
		baseDelay = 10 * time.Minute
	}
	return &Runner{
		runs:      runs,
		attempts:  attempts,
		baseDelay: baseDelay,
		jobs:      make(map[string]Job),
		sleep:     time.Sleep,
	}
}

func (r *Runner) Register(job Job) {
	r.jobs[job.Name()] = job
}

// Names lists the registered job names.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	return names
}

// Execute runs one job by name through the retry policy.
func (r *Runner) Execute(ctx context.Context, name string) (domain.JobSummary, error) {
	job, ok := r.jobs[name]
	if !ok {
		return domain.JobSummary{}, fmt.Errorf("unknown job %q", name)
	}

	jobLog := logger.ForJob(name)

	cursor, err := r.runs.LastCursor(ctx, name)
	if err != nil {
		jobLog.Warn().Err(err).Msg("cursor lookup failed, starting from the beginning")
		cursor = ""
	}

	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if attempt > 1 {
			delay := r.baseDelay * time.Duration(attempt-1)
			jobLog.Info().Int("attempt", attempt).Dur("delay", delay).Msg("retrying job")
			r.sleep(delay)
		}

		runID, err := r.runs.Create(ctx, &domain.JobRun{JobName: name, Attempt: attempt, Cursor: cursor})
		if err != nil {
			return domain.JobSummary{}, fmt.Errorf("record job run: %w", err)
		}

		summary, nextCursor, err := job.Run(ctx, cursor)
		if err != nil {
			lastErr = err
			jobLog.Error().Err(err).Int("attempt", attempt).Msg("job attempt failed")
			if completeErr := r.runs.Complete(ctx, runID, domain.JobStatusFailed,
				summary.Succeeded, summary.Failed, cursor, err.Error()); completeErr != nil {
				jobLog.Warn().Err(completeErr).Msg("could not record failed run")
			}
			continue
		}

		if err := r.runs.Complete(ctx, runID, domain.JobStatusCompleted,
			summary.Succeeded, summary.Failed, nextCursor, ""); err != nil {
			jobLog.Warn().Err(err).Msg("could not record completed run")
		}

		jobLog.Info().Int("succeeded", summary.Succeeded).
			Int("failed", summary.Failed).Msg("job completed")
		return summary, nil
	}

	return domain.JobSummary{}, fmt.Errorf("job %s abandoned after %d attempts: %w", name, r.attempts, lastErr)
}
