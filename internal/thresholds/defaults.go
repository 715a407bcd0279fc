package thresholds

import (
	"garden-monitor/internal/metrics"
	"garden-monitor/internal/models"
)

// Defaults returns a fresh copy of the factory threshold configuration.
// Water flow is charted but carries no rules, matching the settings UI.
func Defaults() models.ThresholdConfig {
	return models.ThresholdConfig{
		metrics.Temperature: {
			Above: &models.ThresholdRule{
				Value:    35,
				Message:  "Temperature too high",
				Severity: models.SeverityCritical,
				Enabled:  true,
			},
			Below: &models.ThresholdRule{
				Value:    5,
				Message:  "Temperature too low",
				Severity: models.SeverityWarning,
				Enabled:  true,
			},
		},
		metrics.Humidity: {
			Above: &models.ThresholdRule{
				Value:    95,
				Message:  "Humidity too high",
				Severity: models.SeverityInfo,
				Enabled:  true,
			},
			Below: &models.ThresholdRule{
				Value:    20,
				Message:  "Humidity too low (dry)",
				Severity: models.SeverityWarning,
				Enabled:  true,
			},
		},
		metrics.SoilMoisture: {
			Below: &models.ThresholdRule{
				Value:    15,
				Message:  "Soil moisture too low – plants may need water",
				Severity: models.SeverityCritical,
				Enabled:  true,
			},
		},
		metrics.SoilPH: {
			Above: &models.ThresholdRule{
				Value:    8.5,
				Message:  "Soil pH too alkaline",
				Severity: models.SeverityWarning,
				Enabled:  true,
			},
			Below: &models.ThresholdRule{
				Value:    5,
				Message:  "Soil pH too acidic",
				Severity: models.SeverityWarning,
				Enabled:  true,
			},
		},
		metrics.WaterDepth: {
			Below: &models.ThresholdRule{
				Value:    5,
				Message:  "Water level too low – reservoir needs refill",
				Severity: models.SeverityCritical,
				Enabled:  true,
			},
		},
	}
}
