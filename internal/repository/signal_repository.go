package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kidbea/forecast-go/internal/domain"
)

type SignalRepository interface {
	Upsert(ctx context.Context, signal *domain.ExternalSignal) error
	SignalForDate(ctx context.Context, signalType, locationCode string, date time.Time) (*domain.ExternalSignal, error)
	LatestSignal(ctx context.Context, signalType, subjectCode string, onOrBefore time.Time) (*domain.ExternalSignal, error)
	DeleteOlderThan(ctx context.Context, signalType string, cutoff time.Time) (int64, error)
}

type signalRepository struct {
	db *sqlx.DB
}

func NewSignalRepository(db *sqlx.DB) SignalRepository {
	return &signalRepository{db: db}
}

// Upsert is keyed by (signal type, subject, location, date) so collection
// jobs can rerun for the same day.
func (r *signalRepository) Upsert(ctx context.Context, signal *domain.ExternalSignal) error {
	query := `
		INSERT INTO external_signals (signal_type, subject_code, location_code, signal_date, value, raw_data, source, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (signal_type, subject_code, location_code, signal_date) DO UPDATE SET
			value = EXCLUDED.value,
			raw_data = EXCLUDED.raw_data,
			source = EXCLUDED.source,
			collected_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query,
		signal.SignalType, signal.SubjectCode, signal.LocationCode,
		signal.SignalDate, signal.Value, signal.RawData, signal.Source); err != nil {
		return fmt.Errorf("error upserting %s signal: %w", signal.SignalType, err)
	}
	return nil
}

func (r *signalRepository) SignalForDate(ctx context.Context, signalType, locationCode string, date time.Time) (*domain.ExternalSignal, error) {
	query := `
		SELECT id, signal_type, subject_code, location_code, signal_date, value, raw_data, source, collected_at
		FROM external_signals
		WHERE signal_type = $1 AND location_code = $2 AND signal_date = $3
		ORDER BY collected_at DESC
		LIMIT 1
	`

	var signal domain.ExternalSignal
	if err := r.db.GetContext(ctx, &signal, query, signalType, locationCode, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting %s signal: %w", signalType, err)
	}
	return &signal, nil
}

func (r *signalRepository) LatestSignal(ctx context.Context, signalType, subjectCode string, onOrBefore time.Time) (*domain.ExternalSignal, error) {
	query := `
		SELECT id, signal_type, subject_code, location_code, signal_date, value, raw_data, source, collected_at
		FROM external_signals
		WHERE signal_type = $1 AND subject_code = $2 AND signal_date <= $3
		ORDER BY signal_date DESC
		LIMIT 1
	`

	var signal domain.ExternalSignal
	if err := r.db.GetContext(ctx, &signal, query, signalType, subjectCode, onOrBefore); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting latest %s signal: %w", signalType, err)
	}
	return &signal, nil
}

// DeleteOlderThan prunes stale signal rows, returning the count removed.
func (r *signalRepository) DeleteOlderThan(ctx context.Context, signalType string, cutoff time.Time) (int64, error) {
	query := `DELETE FROM external_signals WHERE signal_type = $1 AND signal_date < $2`

	result, err := r.db.ExecContext(ctx, query, signalType, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error pruning %s signals: %w", signalType, err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}
