package domain

import "strings"

// Alert types.
const (
	AlertLowStock        = "low_stock"
	AlertStockoutWarning = "stockout_warning"
)

// Alert severities, in escalation order.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert lifecycle states.
const (
	AlertStatusActive       = "active"
	AlertStatusAcknowledged = "acknowledged"
	AlertStatusResolved     = "resolved"
)

// Job run states.
const (
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

var severityRanks = map[string]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityCritical: 2,
}

// SeverityRank returns an ordering value for a severity label. Unknown labels
// rank below info.
func SeverityRank(severity string) int {
	if rank, ok := severityRanks[strings.ToLower(severity)]; ok {
		return rank
	}
	return -1
}

// ValidAlertStatus reports whether the label is a known alert status.
func ValidAlertStatus(status string) bool {
	switch strings.ToLower(status) {
	case AlertStatusActive, AlertStatusAcknowledged, AlertStatusResolved:
		return true
	}
	return false
}
