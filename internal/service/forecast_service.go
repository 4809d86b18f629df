package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kidbea/forecast-go/internal/accuracy"
	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/forecast"
	"github.com/kidbea/forecast-go/internal/repository"
)

// ErrSKUNotFound is returned for unknown or inactive SKU codes.
var ErrSKUNotFound = errors.New("sku not found")

type ForecastService interface {
	GetForecast(ctx context.Context, skuCode string, horizonDays int) (domain.ForecastResult, error)
	RefreshForecast(ctx context.Context, skuCode string, horizonDays int) (domain.ForecastResult, error)
	GetForecastHistory(ctx context.Context, skuCode string, from, to time.Time) ([]domain.DemandForecast, error)
	GetAccuracyReport(ctx context.Context, sinceDays int) (domain.AccuracyReport, error)
}

type forecastService struct {
	engine    *forecast.Engine
	tracker   *accuracy.Tracker
	skus      repository.SKURepository
	forecasts repository.ForecastRepository
}

func NewForecastService(engine *forecast.Engine, tracker *accuracy.Tracker, skus repository.SKURepository, forecasts repository.ForecastRepository) ForecastService {
	return &forecastService{
		engine:    engine,
		tracker:   tracker,
		skus:      skus,
		forecasts: forecasts,
	}
}

// GetForecast validates the SKU and runs the engine. The engine itself is
// total; the only error here is an unknown SKU.
func (s *forecastService) GetForecast(ctx context.Context, skuCode string, horizonDays int) (domain.ForecastResult, error) {
	variant, err := s.skus.GetBySKU(ctx, skuCode)
	if err != nil {
		return domain.ForecastResult{}, fmt.Errorf("look up sku %s: %w", skuCode, err)
	}
	if variant == nil {
		return domain.ForecastResult{}, ErrSKUNotFound
	}

	return s.engine.Forecast(ctx, skuCode, horizonDays), nil
}

// RefreshForecast drops the cached result and recomputes.
func (s *forecastService) RefreshForecast(ctx context.Context, skuCode string, horizonDays int) (domain.ForecastResult, error) {
	variant, err := s.skus.GetBySKU(ctx, skuCode)
	if err != nil {
		return domain.ForecastResult{}, fmt.Errorf("look up sku %s: %w", skuCode, err)
	}
	if variant == nil {
		return domain.ForecastResult{}, ErrSKUNotFound
	}

	if err := s.engine.Invalidate(ctx, skuCode, horizonDays); err != nil {
		return domain.ForecastResult{}, fmt.Errorf("invalidate forecast for %s: %w", skuCode, err)
	}
	return s.engine.Forecast(ctx, skuCode, horizonDays), nil
}

func (s *forecastService) GetForecastHistory(ctx context.Context, skuCode string, from, to time.Time) ([]domain.DemandForecast, error) {
	variant, err := s.skus.GetBySKU(ctx, skuCode)
	if err != nil {
		return nil, fmt.Errorf("look up sku %s: %w", skuCode, err)
	}
	if variant == nil {
		return nil, ErrSKUNotFound
	}

	return s.forecasts.ListForSKU(ctx, skuCode, from, to)
}

func (s *forecastService) GetAccuracyReport(ctx context.Context, sinceDays int) (domain.AccuracyReport, error) {
	if sinceDays <= 0 {
		sinceDays = 30
	}
	since := time.Now().AddDate(0, 0, -sinceDays)
	return s.tracker.Report(ctx, since)
}
