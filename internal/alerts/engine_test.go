package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidbea/forecast-go/internal/domain"
)

func TestEvaluateThresholds(t *testing.T) {
	cases := []struct {
		name              string
		stock             int
		avgDemand         float64
		daysUntilStockout int
		wantTriggered     bool
		wantType          string
		wantSeverity      string
	}{
		{
			name: "imminent stockout is critical", stock: 20, avgDemand: 10, daysUntilStockout: 2,
			wantTriggered: true, wantType: domain.AlertStockoutWarning, wantSeverity: domain.SeverityCritical,
		},
		{
			name: "stockout within a week is a warning", stock: 50, avgDemand: 10, daysUntilStockout: 5,
			wantTriggered: true, wantType: domain.AlertLowStock, wantSeverity: domain.SeverityWarning,
		},
		{
			name: "thin cover is informational", stock: 10, avgDemand: 10, daysUntilStockout: 999,
			wantTriggered: true, wantType: domain.AlertLowStock, wantSeverity: domain.SeverityInfo,
		},
		{
			name: "healthy stock raises nothing", stock: 20, avgDemand: 10, daysUntilStockout: 999,
			wantTriggered: false,
		},
		{
			name: "zero demand raises nothing", stock: 0, avgDemand: 0, daysUntilStockout: 999,
			wantTriggered: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.stock, tc.avgDemand, tc.daysUntilStockout)
			assert.Equal(t, tc.wantTriggered, got.Triggered)
			if tc.wantTriggered {
				assert.Equal(t, tc.wantType, got.AlertType)
				assert.Equal(t, tc.wantSeverity, got.Severity)
			}
		})
	}
}

func forecastFixture(stock, dailyQty, daysUntilStockout int) domain.ForecastResult {
	forecasts := make([]domain.DailyForecast, 0, 7)
	for i := 1; i <= 7; i++ {
		forecasts = append(forecasts, domain.DailyForecast{DaysAhead: i, PredictedQuantity: dailyQty})
	}
	return domain.ForecastResult{
		SKUCode:               "SKU-001",
		CurrentStock:          stock,
		Forecasts:             forecasts,
		DaysUntilStockout:     daysUntilStockout,
		RecommendedReorderQty: dailyQty * 39,
	}
}

func TestFromForecast(t *testing.T) {
	now := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)

	alert := FromForecast(forecastFixture(20, 10, 2), now)
	require.NotNil(t, alert)
	assert.Equal(t, "SKU-001", alert.SKUCode)
	assert.Equal(t, domain.AlertStockoutWarning, alert.AlertType)
	assert.Equal(t, domain.SeverityCritical, alert.Severity)
	assert.Equal(t, domain.AlertStatusActive, alert.Status)
	assert.Equal(t, 10.0, alert.PredictedDailyDemand)
	// Reorder covers the next 7 days at 1.5x, not the engine's 30-day figure.
	assert.Equal(t, 105, alert.RecommendedReorderQty)

	assert.Nil(t, FromForecast(forecastFixture(1000, 10, 999), now))
}

func TestFromForecastReorderIgnoresDaysBeyondWeek(t *testing.T) {
	now := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)

	result := forecastFixture(20, 10, 2)
	for i := 8; i <= 14; i++ {
		result.Forecasts = append(result.Forecasts, domain.DailyForecast{DaysAhead: i, PredictedQuantity: 50})
	}

	alert := FromForecast(result, now)
	require.NotNil(t, alert)
	assert.Equal(t, 105, alert.RecommendedReorderQty)
}

func TestFromForecastReorderShortHorizon(t *testing.T) {
	now := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)

	result := domain.ForecastResult{
		SKUCode:      "SKU-001",
		CurrentStock: 5,
		Forecasts: []domain.DailyForecast{
			{DaysAhead: 1, PredictedQuantity: 3},
			{DaysAhead: 2, PredictedQuantity: 4},
			{DaysAhead: 3, PredictedQuantity: 4},
		},
		DaysUntilStockout:     2,
		RecommendedReorderQty: 999,
	}

	alert := FromForecast(result, now)
	require.NotNil(t, alert)
	// round(11 * 1.5) = 17
	assert.Equal(t, 17, alert.RecommendedReorderQty)
}

func TestBuildPlanOrdering(t *testing.T) {
	now := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)
	openAlerts := []domain.InventoryAlert{
		{SKUCode: "SKU-INFO", Severity: domain.SeverityInfo, Status: domain.AlertStatusActive, DaysUntilStockout: 999, RecommendedReorderQty: 10},
		{SKUCode: "SKU-CRIT", Severity: domain.SeverityCritical, Status: domain.AlertStatusActive, DaysUntilStockout: 2, RecommendedReorderQty: 50},
		{SKUCode: "SKU-WARN", Severity: domain.SeverityWarning, Status: domain.AlertStatusAcknowledged, DaysUntilStockout: 5, RecommendedReorderQty: 30},
		{SKUCode: "SKU-DONE", Severity: domain.SeverityCritical, Status: domain.AlertStatusResolved, DaysUntilStockout: 1, RecommendedReorderQty: 99},
	}
	variants := map[string]domain.ProductVariant{
		"SKU-CRIT": {SKUCode: "SKU-CRIT", Name: "Wool Sweater", UnitPrice: 20},
		"SKU-WARN": {SKUCode: "SKU-WARN", Name: "Cotton Shirt", UnitPrice: 10},
	}

	plan := BuildPlan(openAlerts, variants, now)

	require.Len(t, plan.Recommendations, 3, "resolved alerts are excluded")
	assert.Equal(t, "SKU-CRIT", plan.Recommendations[0].SKUCode)
	assert.Equal(t, "SKU-WARN", plan.Recommendations[1].SKUCode)
	assert.Equal(t, "SKU-INFO", plan.Recommendations[2].SKUCode)

	assert.Equal(t, 1000.0, plan.Recommendations[0].EstimatedCost)
	assert.Equal(t, 300.0, plan.Recommendations[1].EstimatedCost)
	// SKU-INFO has no variant on file: flat fallback price applies.
	assert.Equal(t, 1000.0, plan.Recommendations[2].EstimatedCost)
	assert.Equal(t, 2300.0, plan.TotalValue)
}

func TestBuildPlanTieBreaksByStockoutDay(t *testing.T) {
	now := time.Now()
	openAlerts := []domain.InventoryAlert{
		{SKUCode: "SKU-B", Severity: domain.SeverityCritical, Status: domain.AlertStatusActive, DaysUntilStockout: 2},
		{SKUCode: "SKU-A", Severity: domain.SeverityCritical, Status: domain.AlertStatusActive, DaysUntilStockout: 1},
	}

	plan := BuildPlan(openAlerts, nil, now)
	require.Len(t, plan.Recommendations, 2)
	assert.Equal(t, "SKU-A", plan.Recommendations[0].SKUCode)
}
