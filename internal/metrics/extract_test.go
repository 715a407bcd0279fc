package metrics

import (
	"testing"
	"time"

	"garden-monitor/internal/models"
)

func reading(device string, at time.Time, payload models.Payload) models.Reading {
	return models.Reading{DeviceID: device, Payload: payload, ReceivedAt: at}
}

func TestToNumberCoercion(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want float64
	}{
		{"float", 21.5, 21.5},
		{"int", 7, 7},
		{"numeric string", "12.5", 12.5},
		{"padded string", " 3 ", 3},
		{"garbage string", "n/a", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := toNumber(tc.in); got != tc.want {
				t.Errorf("toNumber(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestExtractUnparsableFieldYieldsZero(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ds := Extract([]models.Reading{
		reading("analog", at, models.Payload{"Water_deep_cm": "broken"}),
	}, OverviewLimit)

	if len(ds[WaterDepth]) != 1 {
		t.Fatalf("expected 1 water depth point, got %d", len(ds[WaterDepth]))
	}
	if ds[WaterDepth][0].Value != 0 {
		t.Errorf("unparsable value = %v, want 0", ds[WaterDepth][0].Value)
	}
}

func TestExtractHumidityFilter(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ds := Extract([]models.Reading{
		reading("temp-humid", at, models.Payload{"temperature": 20.0, "humidity": 0.0}),
		reading("temp-humid", at.Add(time.Minute), models.Payload{"temperature": 20.0, "humidity": 101.0}),
		reading("temp-humid", at.Add(2*time.Minute), models.Payload{"temperature": 20.0, "humidity": 100.0}),
		reading("temp-humid", at.Add(3*time.Minute), models.Payload{"temperature": 20.0, "humidity": 55.5}),
	}, OverviewLimit)

	if got := len(ds[Humidity]); got != 2 {
		t.Fatalf("humidity points = %d, want 2 (0 and 101 dropped)", got)
	}
	if ds[Humidity][0].Value != 100 || ds[Humidity][1].Value != 55.5 {
		t.Errorf("unexpected humidity values: %+v", ds[Humidity])
	}
}

func TestExtractDropsDeadTempSensor(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ds := Extract([]models.Reading{
		reading("temp-humid", at, models.Payload{"temperature": 0.0, "ext_temperature": 0.0, "humidity": 40.0}),
	}, OverviewLimit)

	if len(ds[Temperature]) != 0 {
		t.Errorf("zero temp+ext should be dropped, got %+v", ds[Temperature])
	}
	if len(ds[Humidity]) != 1 {
		t.Errorf("humidity from the same row should survive")
	}
}

func TestExtractPrefersExternalProbe(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ds := Extract([]models.Reading{
		reading("temp-humid", at, models.Payload{"temperature": 19.0, "ext_temperature": 23.5}),
	}, OverviewLimit)

	if len(ds[Temperature]) != 1 || ds[Temperature][0].Value != 23.5 {
		t.Errorf("expected external probe value 23.5, got %+v", ds[Temperature])
	}
}

func TestExtractSoilDevicesFeedTemperature(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ds := Extract([]models.Reading{
		reading("soil", at, models.Payload{"PH1_SOIL": "6.5", "TEMP_SOIL": 18.0}),
		reading("soilmositure", at.Add(time.Minute), models.Payload{"water_SOIL": 42.0, "temp_SOIL": 17.5}),
	}, OverviewLimit)

	if len(ds[SoilPH]) != 1 || ds[SoilPH][0].Value != 6.5 {
		t.Errorf("unexpected soil pH series: %+v", ds[SoilPH])
	}
	if len(ds[SoilMoisture]) != 1 || ds[SoilMoisture][0].Value != 42 {
		t.Errorf("unexpected soil moisture series: %+v", ds[SoilMoisture])
	}
	if len(ds[Temperature]) != 2 {
		t.Errorf("both soil devices should contribute temperature points, got %d", len(ds[Temperature]))
	}
}

func TestExtractWaterFlowFallsBackToPulse(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ds := Extract([]models.Reading{
		reading("waterflow", at, models.Payload{"Water_flow_value": 0.0, "Total_pulse": 120.0}),
		reading("waterflow", at.Add(time.Minute), models.Payload{"Water_flow_value": 3.2, "Total_pulse": 130.0}),
	}, OverviewLimit)

	if ds[WaterFlow][0].Value != 120 {
		t.Errorf("zero flow should fall back to pulse count, got %v", ds[WaterFlow][0].Value)
	}
	if ds[WaterFlow][1].Value != 3.2 {
		t.Errorf("nonzero flow should win over pulse count, got %v", ds[WaterFlow][1].Value)
	}
}

func TestExtractCapsAndKeepsOrder(t *testing.T) {
	at := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	var rows []models.Reading
	for i := 0; i < 40; i++ {
		rows = append(rows, reading("analog", at.Add(time.Duration(i)*time.Minute),
			models.Payload{"Water_deep_cm": float64(i)}))
	}

	ds := Extract(rows, OverviewLimit)
	points := ds[WaterDepth]
	if len(points) != OverviewLimit {
		t.Fatalf("series length = %d, want %d", len(points), OverviewLimit)
	}
	// Most recent points, still chronological.
	if points[0].Value != 25 || points[len(points)-1].Value != 39 {
		t.Errorf("unexpected window: first=%v last=%v", points[0].Value, points[len(points)-1].Value)
	}
	for i := 1; i < len(points); i++ {
		if points[i].ReceivedAt.Before(points[i-1].ReceivedAt) {
			t.Fatalf("series out of order at %d", i)
		}
	}

	// Zero limit means no cap (detail view).
	if got := len(Extract(rows, 0)[WaterDepth]); got != 40 {
		t.Errorf("uncapped length = %d, want 40", got)
	}
}
