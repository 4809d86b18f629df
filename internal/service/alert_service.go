package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidbea/forecast-go/internal/alerts"
	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/repository"
)

type AlertService interface {
	ListAlerts(ctx context.Context, status string, limit int) ([]domain.InventoryAlert, error)
	Acknowledge(ctx context.Context, skuCode string) error
	Resolve(ctx context.Context, skuCode string) error
	GetReorderPlan(ctx context.Context) (domain.ReorderPlan, error)
}

type alertService struct {
	alerts repository.AlertRepository
	skus   repository.SKURepository
	now    func() time.Time
}

func NewAlertService(alertRepo repository.AlertRepository, skuRepo repository.SKURepository) AlertService {
	return &alertService{
		alerts: alertRepo,
		skus:   skuRepo,
		now:    time.Now,
	}
}

func (s *alertService) ListAlerts(ctx context.Context, status string, limit int) ([]domain.InventoryAlert, error) {
	if status == "" {
		return s.alerts.ListOpen(ctx)
	}
	if !domain.ValidAlertStatus(status) {
		return nil, fmt.Errorf("invalid alert status %q", status)
	}
	return s.alerts.ListByStatus(ctx, status, limit)
}

func (s *alertService) Acknowledge(ctx context.Context, skuCode string) error {
	return s.alerts.UpdateStatus(ctx, skuCode, domain.AlertStatusAcknowledged)
}

func (s *alertService) Resolve(ctx context.Context, skuCode string) error {
	return s.alerts.UpdateStatus(ctx, skuCode, domain.AlertStatusResolved)
}

// GetReorderPlan aggregates open alerts into the prioritized reorder list.
// A failed variant lookup degrades to fallback pricing rather than failing
// the plan.
func (s *alertService) GetReorderPlan(ctx context.Context) (domain.ReorderPlan, error) {
	openAlerts, err := s.alerts.ListOpen(ctx)
	if err != nil {
		return domain.ReorderPlan{}, fmt.Errorf("list open alerts: %w", err)
	}

	skuCodes := make([]string, 0, len(openAlerts))
	for _, alert := range openAlerts {
		skuCodes = append(skuCodes, alert.SKUCode)
	}

	variants, err := s.skus.GetBySKUs(ctx, skuCodes)
	if err != nil {
		log.Warn().Err(err).Msg("variant lookup failed, using fallback pricing")
		variants = nil
	}

	return alerts.BuildPlan(openAlerts, variants, s.now()), nil
}
