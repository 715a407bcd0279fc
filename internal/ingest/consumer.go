// Package ingest drains raw device readings from a Kafka topic into the
// readings table the monitor polls. It is optional: deployments where
// devices write to the store directly simply leave the broker unset.
package ingest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"garden-monitor/internal/config"
	"garden-monitor/internal/logging"
	"garden-monitor/internal/models"
)

// ReadingWriter stores one raw reading. *db.DB implements it.
type ReadingWriter interface {
	InsertReading(ctx context.Context, r models.Reading) error
}

type Consumer struct {
	reader *kafka.Reader
	store  ReadingWriter
	log    *logging.Logger
}

func NewConsumer(cfg config.Config, store ReadingWriter, log *logging.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		GroupID:  cfg.Kafka.GroupID,
		Topic:    cfg.Kafka.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, store: store, log: log}
}

// Start launches the consume loop.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.run(ctx)
	}()
}

func (c *Consumer) run(ctx context.Context) {
	c.log.Infof("Reading ingest started: topic=%s", c.reader.Config().Topic)
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Infof("Reading ingest stopped")
				return
			}
			c.log.Errorf("Read message failed: %v", err)
			continue
		}

		var in struct {
			DeviceID   string         `json:"device_id"`
			Payload    models.Payload `json:"payload"`
			ReceivedAt time.Time      `json:"received_at"`
		}
		if err := json.Unmarshal(msg.Value, &in); err != nil {
			c.log.Errorf("Unmarshal message failed: %v", err)
			continue
		}
		if in.DeviceID == "" {
			c.log.Errorf("Invalid message: missing device_id")
			continue
		}
		if in.ReceivedAt.IsZero() {
			in.ReceivedAt = time.Now()
		}

		reading := models.Reading{
			DeviceID:   in.DeviceID,
			Payload:    in.Payload,
			ReceivedAt: in.ReceivedAt,
		}
		if err := c.store.InsertReading(ctx, reading); err != nil {
			c.log.Errorf("Insert reading failed: %v", err)
			continue
		}
		c.log.Debugf("Ingested reading from device %s", in.DeviceID)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Errorf("Reader close failed: %v", err)
	}
}
