package db

import (
	"context"
	"fmt"
	"time"

	"garden-monitor/internal/models"
)

// ReadingQuery selects rows from sensor_readings ordered by received_at.
// Zero-value bounds are not applied; Limit 0 means no limit clause.
type ReadingQuery struct {
	Ascending bool
	Limit     int
	From      *time.Time
	To        *time.Time
}

// QueryReadings fetches readings matching q.
func (d *DB) QueryReadings(ctx context.Context, q ReadingQuery) ([]models.Reading, error) {
	query := `SELECT id, device_id, payload, received_at FROM sensor_readings`
	args := []interface{}{}
	conds := []string{}

	if q.From != nil {
		args = append(args, *q.From)
		conds = append(conds, fmt.Sprintf("received_at >= $%d", len(args)))
	}
	if q.To != nil {
		args = append(args, *q.To)
		conds = append(conds, fmt.Sprintf("received_at <= $%d", len(args)))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}

	if q.Ascending {
		query += " ORDER BY received_at ASC"
	} else {
		query += " ORDER BY received_at DESC"
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var list []models.Reading
	for rows.Next() {
		var r models.Reading
		if err := rows.Scan(&r.ID, &r.DeviceID, &r.Payload, &r.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return list, nil
}

// InsertReading stores one raw reading. Used by the Kafka ingest bridge.
func (d *DB) InsertReading(ctx context.Context, r models.Reading) error {
	query := `
        INSERT INTO sensor_readings (device_id, payload, received_at)
        VALUES ($1, $2, $3)`
	_, err := d.Pool.Exec(ctx, query, r.DeviceID, r.Payload, r.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}
