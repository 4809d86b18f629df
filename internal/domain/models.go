// internal/domain/models.go
package domain

import (
	"encoding/json"
	"time"
)

// ProductVariant is a sellable SKU.
type ProductVariant struct {
	ID           int64     `json:"id" db:"id"`
	SKUCode      string    `json:"sku_code" db:"sku_code"`
	Name         string    `json:"name" db:"name"`
	Category     string    `json:"category" db:"category"`
	UnitPrice    float64   `json:"unit_price" db:"unit_price"`
	CurrentStock int       `json:"current_stock" db:"current_stock"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// HistoricalSale is one day of realized sales for a SKU.
type HistoricalSale struct {
	SKUCode      string    `json:"sku_code" db:"sku_code"`
	SaleDate     time.Time `json:"sale_date" db:"sale_date"`
	QuantitySold float64   `json:"quantity_sold" db:"quantity_sold"`
}

// ExternalSignal is a raw row collected from an external data source
// (weather, weather_forecast, trends, festival). Read-only to the forecast
// core; written by the collection jobs.
type ExternalSignal struct {
	ID           int64           `json:"id" db:"id"`
	SignalType   string          `json:"signal_type" db:"signal_type"`
	SubjectCode  string          `json:"subject_code" db:"subject_code"`
	LocationCode string          `json:"location_code" db:"location_code"`
	SignalDate   time.Time       `json:"signal_date" db:"signal_date"`
	Value        float64         `json:"value" db:"value"`
	RawData      json.RawMessage `json:"raw_data" db:"raw_data"`
	Source       string          `json:"source" db:"source"`
	CollectedAt  time.Time       `json:"collected_at" db:"collected_at"`
}

// Signal types stored in external_signals.
const (
	SignalWeather         = "weather"
	SignalWeatherForecast = "weather_forecast"
	SignalTrends          = "trends"
	SignalFestival        = "festival"
)

// DailyForecast is a single day of a forecast horizon.
type DailyForecast struct {
	Date              time.Time `json:"date"`
	DaysAhead         int       `json:"days_ahead"`
	PredictedQuantity int       `json:"predicted_quantity"`
	LowerBound        int       `json:"lower_bound"`
	UpperBound        int       `json:"upper_bound"`
	Factors           []string  `json:"factors,omitempty"`
}

// ForecastResult is the full output of one forecast run for a SKU.
type ForecastResult struct {
	SKUCode               string          `json:"sku_code"`
	ModelType             string          `json:"model_type"`
	GeneratedAt           time.Time       `json:"generated_at"`
	CurrentStock          int             `json:"current_stock"`
	BaselineDailyDemand   float64         `json:"baseline_daily_demand"`
	Forecasts             []DailyForecast `json:"forecasts"`
	DaysUntilStockout     int             `json:"days_until_stockout"`
	RecommendedReorderQty int             `json:"recommended_reorder_qty"`
	Degraded              bool            `json:"degraded"`
}

// DemandForecast is a persisted forecast row, one per (SKU, forecast date,
// generation run). ActualQuantity is attached later by reconciliation.
type DemandForecast struct {
	ID                int64      `json:"id" db:"id"`
	SKUCode           string     `json:"sku_code" db:"sku_code"`
	ForecastDate      time.Time  `json:"forecast_date" db:"forecast_date"`
	GeneratedAt       time.Time  `json:"generated_at" db:"generated_at"`
	DaysAhead         int        `json:"days_ahead" db:"days_ahead"`
	ModelType         string     `json:"model_type" db:"model_type"`
	PredictedQuantity int        `json:"predicted_quantity" db:"predicted_quantity"`
	LowerBound        int        `json:"lower_bound" db:"lower_bound"`
	UpperBound        int        `json:"upper_bound" db:"upper_bound"`
	Factors           string     `json:"factors" db:"factors"`
	ActualQuantity    *float64   `json:"actual_quantity,omitempty" db:"actual_quantity"`
	ReconciledAt      *time.Time `json:"reconciled_at,omitempty" db:"reconciled_at"`
}

// InventoryAlert is the per-SKU stock alert. At most one open alert per SKU.
type InventoryAlert struct {
	ID                    int64     `json:"id" db:"id"`
	SKUCode               string    `json:"sku_code" db:"sku_code"`
	AlertType             string    `json:"alert_type" db:"alert_type"`
	Severity              string    `json:"severity" db:"severity"`
	Status                string    `json:"status" db:"status"`
	CurrentStock          int       `json:"current_stock" db:"current_stock"`
	PredictedDailyDemand  float64   `json:"predicted_daily_demand" db:"predicted_daily_demand"`
	DaysUntilStockout     int       `json:"days_until_stockout" db:"days_until_stockout"`
	RecommendedReorderQty int       `json:"recommended_reorder_qty" db:"recommended_reorder_qty"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
}

// AccuracyRecord compares one persisted forecast against realized sales.
// Keyed by (SKU, forecast date, days ahead, model type); idempotent upsert.
type AccuracyRecord struct {
	ID                int64     `json:"id" db:"id"`
	SKUCode           string    `json:"sku_code" db:"sku_code"`
	ForecastDate      time.Time `json:"forecast_date" db:"forecast_date"`
	DaysAhead         int       `json:"days_ahead" db:"days_ahead"`
	ModelType         string    `json:"model_type" db:"model_type"`
	PredictedQuantity int       `json:"predicted_quantity" db:"predicted_quantity"`
	ActualQuantity    float64   `json:"actual_quantity" db:"actual_quantity"`
	AbsoluteError     float64   `json:"absolute_error" db:"absolute_error"`
	PercentageError   float64   `json:"percentage_error" db:"percentage_error"`
	SquaredError      float64   `json:"squared_error" db:"squared_error"`
	MetricDate        time.Time `json:"metric_date" db:"metric_date"`
}

// AccuracyMetrics is an aggregated error report (MAPE/MAE/RMSE).
type AccuracyMetrics struct {
	Records int     `json:"records"`
	MAPE    float64 `json:"mape"`
	MAE     float64 `json:"mae"`
	RMSE    float64 `json:"rmse"`
}

// AccuracyReport groups metrics overall and per model type.
type AccuracyReport struct {
	Overall     AccuracyMetrics            `json:"overall"`
	ByModelType map[string]AccuracyMetrics `json:"by_model_type"`
}

// ReorderRecommendation is one line of the prioritized reorder list.
type ReorderRecommendation struct {
	SKUCode           string  `json:"sku_code"`
	ProductName       string  `json:"product_name"`
	Severity          string  `json:"severity"`
	DaysUntilStockout int     `json:"days_until_stockout"`
	ReorderQuantity   int     `json:"reorder_quantity"`
	EstimatedCost     float64 `json:"estimated_cost"`
}

// ReorderPlan aggregates recommendations across alerted SKUs.
type ReorderPlan struct {
	Recommendations []ReorderRecommendation `json:"recommendations"`
	TotalValue      float64                 `json:"total_value"`
	GeneratedAt     time.Time               `json:"generated_at"`
}

// JobRun tracks one execution of a scheduled job, including the SKU cursor
// used by the paginated jobs to resume on the next cycle.
type JobRun struct {
	ID           int64      `json:"id" db:"id"`
	JobName      string     `json:"job_name" db:"job_name"`
	Status       string     `json:"status" db:"status"`
	Attempt      int        `json:"attempt" db:"attempt"`
	Succeeded    int        `json:"succeeded" db:"succeeded"`
	Failed       int        `json:"failed" db:"failed"`
	Cursor       string     `json:"cursor" db:"cursor"`
	ErrorMessage string     `json:"error_message" db:"error_message"`
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// JobSummary is the status summary every job entry point returns.
type JobSummary struct {
	Job       string    `json:"job"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}
