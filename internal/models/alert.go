package models

import (
	"fmt"
	"time"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// ThresholdRule is one configured boundary condition for a metric.
type ThresholdRule struct {
	Value    float64  `json:"value"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Enabled  bool     `json:"enabled"`
}

// MetricThresholds pairs the optional rules for one metric. Above fires
// when the latest value >= Value, below when <= Value; both are inclusive
// and evaluated independently.
type MetricThresholds struct {
	Above *ThresholdRule `json:"above,omitempty"`
	Below *ThresholdRule `json:"below,omitempty"`
}

// ThresholdConfig maps metric name to its configured rules.
type ThresholdConfig map[string]MetricThresholds

// Alert is a concrete breach of one rule by the most recent reading of a
// metric.
type Alert struct {
	ID         string    `json:"id"`
	Metric     string    `json:"metric"`
	Message    string    `json:"message"`
	Severity   Severity  `json:"severity"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit,omitempty"`
	Threshold  string    `json:"threshold,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// AlertID derives the identity used to deduplicate alerts across poll
// cycles: the same breach at the same timestamp always yields the same id.
func AlertID(metric, direction string, receivedAt time.Time) string {
	return fmt.Sprintf("%s-%s-%s", metric, direction, receivedAt.UTC().Format(time.RFC3339))
}
