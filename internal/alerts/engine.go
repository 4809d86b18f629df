// Package alerts turns forecast output and current stock into inventory
// alerts and prioritized reorder recommendations.
package alerts

import (
	"math"
	"sort"
	"time"

	"github.com/kidbea/forecast-go/internal/domain"
)

const (
	criticalStockoutDays = 3
	warningStockoutDays  = 7
	lowStockCoverFactor  = 1.5

	// fallbackUnitPrice estimates reorder cost for SKUs with no price on file.
	fallbackUnitPrice = 100.0

	demandWindowDays = 7

	// reorderSafetyFactor scales next week's demand into the reorder quantity.
	reorderSafetyFactor = 1.5
)

// Evaluation is the deterministic alert decision for one (stock, forecast)
// pair. Triggered is false when stock needs no attention.
type Evaluation struct {
	AlertType string
	Severity  string
	Triggered bool
}

// Evaluate is a pure function of current stock and the near-term forecast.
// Thresholds, most urgent first: stockout in under 3 days is critical, under
// 7 days is a warning, and stock below 1.5x the average daily demand is
// informational.
func Evaluate(currentStock int, avgDailyDemand float64, daysUntilStockout int) Evaluation {
	switch {
	case daysUntilStockout < criticalStockoutDays:
		return Evaluation{AlertType: domain.AlertStockoutWarning, Severity: domain.SeverityCritical, Triggered: true}
	case daysUntilStockout < warningStockoutDays:
		return Evaluation{AlertType: domain.AlertLowStock, Severity: domain.SeverityWarning, Triggered: true}
	case avgDailyDemand > 0 && float64(currentStock) < lowStockCoverFactor*avgDailyDemand:
		return Evaluation{AlertType: domain.AlertLowStock, Severity: domain.SeverityInfo, Triggered: true}
	default:
		return Evaluation{}
	}
}

// FromForecast evaluates one forecast result and, when a condition holds,
// returns the alert to upsert for the SKU. Returns nil when stock is healthy.
func FromForecast(result domain.ForecastResult, now time.Time) *domain.InventoryAlert {
	avgDemand := averageDailyDemand(result.Forecasts)

	evaluation := Evaluate(result.CurrentStock, avgDemand, result.DaysUntilStockout)
	if !evaluation.Triggered {
		return nil
	}

	return &domain.InventoryAlert{
		SKUCode:               result.SKUCode,
		AlertType:             evaluation.AlertType,
		Severity:              evaluation.Severity,
		Status:                domain.AlertStatusActive,
		CurrentStock:          result.CurrentStock,
		PredictedDailyDemand:  avgDemand,
		DaysUntilStockout:     result.DaysUntilStockout,
		RecommendedReorderQty: reorderQuantity(result.Forecasts),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// BuildPlan aggregates open alerts into a reorder plan, most urgent first.
// Unit prices come from the variant map; unknown SKUs fall back to a flat
// estimate.
func BuildPlan(openAlerts []domain.InventoryAlert, variants map[string]domain.ProductVariant, now time.Time) domain.ReorderPlan {
	plan := domain.ReorderPlan{
		Recommendations: make([]domain.ReorderRecommendation, 0, len(openAlerts)),
		GeneratedAt:     now,
	}

	for _, alert := range openAlerts {
		if alert.Status == domain.AlertStatusResolved {
			continue
		}

		unitPrice := fallbackUnitPrice
		productName := ""
		if variant, ok := variants[alert.SKUCode]; ok {
			productName = variant.Name
			if variant.UnitPrice > 0 {
				unitPrice = variant.UnitPrice
			}
		}

		cost := unitPrice * float64(alert.RecommendedReorderQty)
		plan.Recommendations = append(plan.Recommendations, domain.ReorderRecommendation{
			SKUCode:           alert.SKUCode,
			ProductName:       productName,
			Severity:          alert.Severity,
			DaysUntilStockout: alert.DaysUntilStockout,
			ReorderQuantity:   alert.RecommendedReorderQty,
			EstimatedCost:     cost,
		})
		plan.TotalValue += cost
	}

	sort.SliceStable(plan.Recommendations, func(i, j int) bool {
		ri := domain.SeverityRank(plan.Recommendations[i].Severity)
		rj := domain.SeverityRank(plan.Recommendations[j].Severity)
		if ri != rj {
			return ri > rj
		}
		return plan.Recommendations[i].DaysUntilStockout < plan.Recommendations[j].DaysUntilStockout
	})

	return plan
}

// reorderQuantity covers the next week's predicted demand with a safety
// margin. This is deliberately shorter-sighted than the engine's 30-day
// replenishment figure: the alert answers "how much to order right now".
func reorderQuantity(forecasts []domain.DailyForecast) int {
	total := 0.0
	for _, day := range forecasts {
		if day.DaysAhead > demandWindowDays {
			break
		}
		total += float64(day.PredictedQuantity)
	}
	return int(math.Round(total * reorderSafetyFactor))
}

func averageDailyDemand(forecasts []domain.DailyForecast) float64 {
	total := 0.0
	counted := 0
	for _, day := range forecasts {
		if day.DaysAhead > demandWindowDays {
			break
		}
		total += float64(day.PredictedQuantity)
		counted++
	}
	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}
