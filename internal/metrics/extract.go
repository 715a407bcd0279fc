// Package metrics turns raw sensor readings into per-metric time series.
// Each device contributes to a fixed set of metrics; numeric fields are
// coerced from mixed number/string payloads and run through per-metric
// sanity filters before entering a series.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"garden-monitor/internal/models"
)

const (
	Temperature  = "Temperature"
	Humidity     = "Humidity"
	SoilMoisture = "Soil moisture"
	SoilPH       = "Soil pH"
	WaterFlow    = "Water flow"
	WaterDepth   = "Water depth"
)

// OverviewLimit caps the rolling overview series; detail queries pass a
// larger window bound instead.
const OverviewLimit = 15

// All lists every extracted metric in display order.
var All = []string{Temperature, Humidity, SoilMoisture, SoilPH, WaterFlow, WaterDepth}

// Units maps metric name to its display unit. Soil pH is unitless.
var Units = map[string]string{
	Temperature:  "°C",
	Humidity:     "%",
	SoilMoisture: "%",
	SoilPH:       "",
	WaterFlow:    "L",
	WaterDepth:   "cm",
}

// SlugTitle maps the URL-friendly metric key used by the detail endpoint
// to the metric name.
var SlugTitle = map[string]string{
	"temperature":   Temperature,
	"humidity":      Humidity,
	"soil-moisture": SoilMoisture,
	"soil-ph":       SoilPH,
	"water-flow":    WaterFlow,
	"water-depth":   WaterDepth,
}

// Point is one chart data point of a metric series.
type Point struct {
	Label      string    `json:"label"`
	Value      float64   `json:"value"`
	ReceivedAt time.Time `json:"received_at"`
}

// Dataset maps metric name to its series, ordered by ascending received_at.
type Dataset map[string][]Point

// toNumber coerces a payload field to float64. Unparsable or missing
// values become 0, never an error.
func toNumber(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Extract routes a chronologically ordered batch of readings into one
// series per metric, each truncated to the most recent limit points.
func Extract(readings []models.Reading, limit int) Dataset {
	var temp, humidity, soilMoisture, soilPH, waterFlow, waterDepth []Point

	for _, r := range readings {
		p := r.Payload
		label := r.ReceivedAt.Format("15:04")

		switch r.DeviceID {
		case "temp-humid":
			t := toNumber(p["temperature"])
			ext := toNumber(p["ext_temperature"])
			// A zero on both probes means the sensor had no fix; drop the
			// point instead of charting 0.
			if t != 0 || ext != 0 {
				v := t
				if ext != 0 {
					v = ext
				}
				temp = append(temp, Point{Label: label, Value: v, ReceivedAt: r.ReceivedAt})
			}
			if h := toNumber(p["humidity"]); h > 0 && h <= 100 {
				humidity = append(humidity, Point{Label: label, Value: h, ReceivedAt: r.ReceivedAt})
			}
		case "soil":
			soilPH = append(soilPH, Point{Label: label, Value: toNumber(p["PH1_SOIL"]), ReceivedAt: r.ReceivedAt})
			temp = append(temp, Point{Label: label, Value: toNumber(p["TEMP_SOIL"]), ReceivedAt: r.ReceivedAt})
		case "soilmositure": // device reports itself under this id
			soilMoisture = append(soilMoisture, Point{Label: label, Value: toNumber(p["water_SOIL"]), ReceivedAt: r.ReceivedAt})
			temp = append(temp, Point{Label: label, Value: toNumber(p["temp_SOIL"]), ReceivedAt: r.ReceivedAt})
		case "waterflow":
			v := toNumber(p["Water_flow_value"])
			if v == 0 {
				v = toNumber(p["Total_pulse"])
			}
			waterFlow = append(waterFlow, Point{Label: label, Value: v, ReceivedAt: r.ReceivedAt})
		case "analog":
			waterDepth = append(waterDepth, Point{Label: label, Value: toNumber(p["Water_deep_cm"]), ReceivedAt: r.ReceivedAt})
		}
	}

	return Dataset{
		Temperature:  tail(temp, limit),
		Humidity:     tail(humidity, limit),
		SoilMoisture: tail(soilMoisture, limit),
		SoilPH:       tail(soilPH, limit),
		WaterFlow:    tail(waterFlow, limit),
		WaterDepth:   tail(waterDepth, limit),
	}
}

// tail keeps the most recent n points.
func tail(points []Point, n int) []Point {
	if n <= 0 || len(points) <= n {
		return points
	}
	return points[len(points)-n:]
}
