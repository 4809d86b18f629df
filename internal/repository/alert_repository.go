package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kidbea/forecast-go/internal/domain"
)

type AlertRepository interface {
	Upsert(ctx context.Context, alert *domain.InventoryAlert) error
	GetBySKU(ctx context.Context, skuCode string) (*domain.InventoryAlert, error)
	ListOpen(ctx context.Context) ([]domain.InventoryAlert, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]domain.InventoryAlert, error)
	UpdateStatus(ctx context.Context, skuCode, status string) error
	ResolveMissing(ctx context.Context, alertedSKUs []string) (int64, error)
}

type alertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) AlertRepository {
	return &alertRepository{db: db}
}

// Upsert keeps at most one alert row per SKU. Re-alerting a resolved or
// acknowledged SKU reopens it with the freshly computed severity.
func (r *alertRepository) Upsert(ctx context.Context, alert *domain.InventoryAlert) error {
	query := `
		INSERT INTO inventory_alerts (sku_code, alert_type, severity, status, current_stock, predicted_daily_demand, days_until_stockout, recommended_reorder_qty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (sku_code) DO UPDATE SET
			alert_type = EXCLUDED.alert_type,
			severity = EXCLUDED.severity,
			status = EXCLUDED.status,
			current_stock = EXCLUDED.current_stock,
			predicted_daily_demand = EXCLUDED.predicted_daily_demand,
			days_until_stockout = EXCLUDED.days_until_stockout,
			recommended_reorder_qty = EXCLUDED.recommended_reorder_qty,
			updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query,
		alert.SKUCode, alert.AlertType, alert.Severity, alert.Status,
		alert.CurrentStock, alert.PredictedDailyDemand,
		alert.DaysUntilStockout, alert.RecommendedReorderQty); err != nil {
		return fmt.Errorf("error upserting alert for %s: %w", alert.SKUCode, err)
	}
	return nil
}

func (r *alertRepository) GetBySKU(ctx context.Context, skuCode string) (*domain.InventoryAlert, error) {
	query := `
		SELECT id, sku_code, alert_type, severity, status, current_stock,
		       predicted_daily_demand, days_until_stockout, recommended_reorder_qty, created_at, updated_at
		FROM inventory_alerts
		WHERE sku_code = $1
	`

	var alert domain.InventoryAlert
	if err := r.db.GetContext(ctx, &alert, query, skuCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting alert for %s: %w", skuCode, err)
	}
	return &alert, nil
}

// ListOpen returns active and acknowledged alerts, most severe first.
func (r *alertRepository) ListOpen(ctx context.Context) ([]domain.InventoryAlert, error) {
	query := `
		SELECT id, sku_code, alert_type, severity, status, current_stock,
		       predicted_daily_demand, days_until_stockout, recommended_reorder_qty, created_at, updated_at
		FROM inventory_alerts
		WHERE status IN ('active', 'acknowledged')
		ORDER BY
			CASE severity WHEN 'critical' THEN 3 WHEN 'warning' THEN 2 ELSE 1 END DESC,
			days_until_stockout
	`

	var alerts []domain.InventoryAlert
	if err := r.db.SelectContext(ctx, &alerts, query); err != nil {
		return nil, fmt.Errorf("error listing open alerts: %w", err)
	}
	return alerts, nil
}

func (r *alertRepository) ListByStatus(ctx context.Context, status string, limit int) ([]domain.InventoryAlert, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, sku_code, alert_type, severity, status, current_stock,
		       predicted_daily_demand, days_until_stockout, recommended_reorder_qty, created_at, updated_at
		FROM inventory_alerts
		WHERE status = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`

	var alerts []domain.InventoryAlert
	if err := r.db.SelectContext(ctx, &alerts, query, status, limit); err != nil {
		return nil, fmt.Errorf("error listing %s alerts: %w", status, err)
	}
	return alerts, nil
}

func (r *alertRepository) UpdateStatus(ctx context.Context, skuCode, status string) error {
	query := `
		UPDATE inventory_alerts
		SET status = $2, updated_at = NOW()
		WHERE sku_code = $1
	`

	result, err := r.db.ExecContext(ctx, query, skuCode, status)
	if err != nil {
		return fmt.Errorf("error updating alert status for %s: %w", skuCode, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("no alert found for %s", skuCode)
	}
	return nil
}

// ResolveMissing resolves open alerts whose SKU is absent from the latest
// evaluation run, so cleared conditions do not leave stale alerts behind.
func (r *alertRepository) ResolveMissing(ctx context.Context, alertedSKUs []string) (int64, error) {
	query := `
		UPDATE inventory_alerts
		SET status = 'resolved', updated_at = NOW()
		WHERE status IN ('active', 'acknowledged')
		  AND NOT (sku_code = ANY($1::text[]))
	`

	result, err := r.db.ExecContext(ctx, query, pq.Array(alertedSKUs))
	if err != nil {
		return 0, fmt.Errorf("error resolving cleared alerts: %w", err)
	}
	resolved, _ := result.RowsAffected()
	return resolved, nil
}
