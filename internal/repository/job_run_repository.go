package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kidbea/forecast-go/internal/domain"
)

type JobRunRepository interface {
	Create(ctx context.Context, run *domain.JobRun) (int64, error)
	Complete(ctx context.Context, runID int64, status string, succeeded, failed int, cursor, errorMessage string) error
	LastCursor(ctx context.Context, jobName string) (string, error)
	ListRecent(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error)
}

type jobRunRepository struct {
	db *sqlx.DB
}

func NewJobRunRepository(db *sqlx.DB) JobRunRepository {
	return &jobRunRepository{db: db}
}

func (r *jobRunRepository) Create(ctx context.Context, run *domain.JobRun) (int64, error) {
	query := `
		INSERT INTO job_runs (job_name, status, attempt, succeeded, failed, cursor, error_message, started_at)
		VALUES ($1, $2, $3, 0, 0, $4, '', NOW())
		RETURNING id
	`

	var id int64
	if err := r.db.GetContext(ctx, &id, query, run.JobName, domain.JobStatusRunning, run.Attempt, run.Cursor); err != nil {
		return 0, fmt.Errorf("error creating job run for %s: %w", run.JobName, err)
	}
	return id, nil
}

func (r *jobRunRepository) Complete(ctx context.Context, runID int64, status string, succeeded, failed int, cursor, errorMessage string) error {
	query := `
		UPDATE job_runs
		SET status = $2, succeeded = $3, failed = $4, cursor = $5, error_message = $6, completed_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, runID, status, succeeded, failed, cursor, errorMessage); err != nil {
		return fmt.Errorf("error completing job run %d: %w", runID, err)
	}
	return nil
}

// LastCursor returns the cursor of the most recent completed run, letting
// capped jobs resume where the previous cycle stopped.
func (r *jobRunRepository) LastCursor(ctx context.Context, jobName string) (string, error) {
	query := `
		SELECT cursor
		FROM job_runs
		WHERE job_name = $1 AND status = $2
		ORDER BY started_at DESC
		LIMIT 1
	`

	var cursor string
	if err := r.db.GetContext(ctx, &cursor, query, jobName, domain.JobStatusCompleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("error getting cursor for %s: %w", jobName, err)
	}
	return cursor, nil
}

func (r *jobRunRepository) ListRecent(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, job_name, status, attempt, succeeded, failed, cursor, error_message, started_at, completed_at
		FROM job_runs
		WHERE job_name = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	var runs []domain.JobRun
	if err := r.db.SelectContext(ctx, &runs, query, jobName, limit); err != nil {
		return nil, fmt.Errorf("error listing runs for %s: %w", jobName, err)
	}
	return runs, nil
}
