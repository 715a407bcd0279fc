package models

import "time"

// Payload is the raw key-value document a device reports. Depending on
// firmware, values arrive as numbers or as numeric strings.
type Payload map[string]interface{}

// Reading is one raw sensor record as stored in the readings table.
// Immutable once fetched; the pipeline never writes back to it.
type Reading struct {
	ID         int64     `json:"id"`
	DeviceID   string    `json:"device_id"`
	Payload    Payload   `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}
