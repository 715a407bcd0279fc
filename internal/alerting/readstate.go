package alerting

import (
	"context"
	"encoding/json"

	"garden-monitor/internal/bus"
	"garden-monitor/internal/db"
	"garden-monitor/internal/logging"
	"garden-monitor/internal/models"
)

const readIDsKey = "read-alert-ids"

// ReadStateStore persists the set of alert ids the user has acknowledged.
// The set only grows; ids are never removed short of wiping the setting.
// Every mutation publishes read-state-changed so open views can refresh
// their unread badge.
type ReadStateStore struct {
	kv  db.KV
	bus *bus.Bus
	log *logging.Logger
}

func NewReadStateStore(kv db.KV, b *bus.Bus, log *logging.Logger) *ReadStateStore {
	return &ReadStateStore{kv: kv, bus: b, log: log}
}

// Load returns the persisted read set. Missing or corrupt storage yields
// an empty set, never an error.
func (s *ReadStateStore) Load(ctx context.Context) map[string]bool {
	raw, err := s.kv.GetSetting(ctx, readIDsKey)
	if err != nil {
		if err != db.ErrNoSetting {
			s.log.Warnf("Read-state unreadable, treating all alerts unread: %v", err)
		}
		return map[string]bool{}
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		s.log.Warnf("Read-state corrupt, treating all alerts unread: %v", err)
		return map[string]bool{}
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// MarkRead adds ids to the persisted set.
func (s *ReadStateStore) MarkRead(ctx context.Context, ids []string) error {
	set := s.Load(ctx)
	for _, id := range ids {
		set[id] = true
	}
	if err := s.save(ctx, set); err != nil {
		return err
	}
	s.bus.Publish(bus.TopicReadStateChanged, nil)
	return nil
}

// MarkAllRead acknowledges every currently active alert.
func (s *ReadStateStore) MarkAllRead(ctx context.Context, alerts []models.Alert) error {
	ids := make([]string, 0, len(alerts))
	for _, a := range alerts {
		ids = append(ids, a.ID)
	}
	return s.MarkRead(ctx, ids)
}

// UnreadCount counts active alerts not yet acknowledged.
func (s *ReadStateStore) UnreadCount(ctx context.Context, alerts []models.Alert) int {
	set := s.Load(ctx)
	n := 0
	for _, a := range alerts {
		if !set[a.ID] {
			n++
		}
	}
	return n
}

func (s *ReadStateStore) save(ctx context.Context, set map[string]bool) error {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return s.kv.PutSetting(ctx, readIDsKey, ids)
}
