// Package alerting holds the core of the pipeline: the pure threshold
// evaluator, the per-session tracker that decides which alerts are newly
// appearing, and the persisted read-state.
package alerting

import (
	"fmt"

	"garden-monitor/internal/metrics"
	"garden-monitor/internal/models"
)

const (
	directionAbove = "above"
	directionBelow = "below"
)

// watched lists the metrics checked for alerts. Water flow is charted but
// not alertable.
var watched = []string{
	metrics.Temperature,
	metrics.Humidity,
	metrics.SoilMoisture,
	metrics.SoilPH,
	metrics.WaterDepth,
}

func buildAlert(metric, unit string, rule models.ThresholdRule, direction string, point metrics.Point) models.Alert {
	op := ">"
	if direction == directionBelow {
		op = "<"
	}
	return models.Alert{
		ID:         models.AlertID(metric, direction, point.ReceivedAt),
		Metric:     metric,
		Message:    rule.Message,
		Severity:   rule.Severity,
		Value:      point.Value,
		Unit:       unit,
		Threshold:  fmt.Sprintf("%s %g%s", op, rule.Value, unit),
		ReceivedAt: point.ReceivedAt,
	}
}

// CheckMetric evaluates one metric's rules against the most recent point
// of its series. Historical breaches are not re-surfaced. Above and below
// are checked independently; both comparisons are inclusive. An empty
// series yields no alerts.
func CheckMetric(metric, unit string, points []metrics.Point, th models.MetricThresholds) []models.Alert {
	if len(points) == 0 {
		return nil
	}
	latest := points[len(points)-1]

	var alerts []models.Alert
	if th.Above != nil && th.Above.Enabled && latest.Value >= th.Above.Value {
		alerts = append(alerts, buildAlert(metric, unit, *th.Above, directionAbove, latest))
	}
	if th.Below != nil && th.Below.Enabled && latest.Value <= th.Below.Value {
		alerts = append(alerts, buildAlert(metric, unit, *th.Below, directionBelow, latest))
	}
	return alerts
}

// Evaluate runs every watched metric against its configured rules. Pure
// function of (dataset, config); alerts are recomputed fresh each cycle.
func Evaluate(ds metrics.Dataset, cfg models.ThresholdConfig) []models.Alert {
	var all []models.Alert
	for _, metric := range watched {
		th, ok := cfg[metric]
		if !ok {
			continue
		}
		all = append(all, CheckMetric(metric, metrics.Units[metric], ds[metric], th)...)
	}
	return all
}
