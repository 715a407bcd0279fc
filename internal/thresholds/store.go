// Package thresholds owns the user-configurable alert rules: factory
// defaults, durable storage of overrides, and the deep-merge that lays
// partial overrides onto the defaults at load time.
package thresholds

import (
	"context"
	"encoding/json"

	"garden-monitor/internal/bus"
	"garden-monitor/internal/db"
	"garden-monitor/internal/logging"
	"garden-monitor/internal/models"
)

const settingKey = "threshold-config"

// rulePatch mirrors ThresholdRule with every field optional, so stored
// overrides may set a subset of fields and inherit the rest from defaults.
type rulePatch struct {
	Value    *float64         `json:"value,omitempty"`
	Message  *string          `json:"message,omitempty"`
	Severity *models.Severity `json:"severity,omitempty"`
	Enabled  *bool            `json:"enabled,omitempty"`
}

type metricPatch struct {
	Above *rulePatch `json:"above,omitempty"`
	Below *rulePatch `json:"below,omitempty"`
}

// Store loads and saves the threshold configuration, publishing a
// rule-config-changed event on every mutation.
type Store struct {
	kv  db.KV
	bus *bus.Bus
	log *logging.Logger
}

func NewStore(kv db.KV, b *bus.Bus, log *logging.Logger) *Store {
	return &Store{kv: kv, bus: b, log: log}
}

// Load returns the effective configuration: defaults overlaid with any
// stored overrides. A missing or corrupt stored document silently falls
// back to the defaults; configuration can never fail to load.
func (s *Store) Load(ctx context.Context) models.ThresholdConfig {
	raw, err := s.kv.GetSetting(ctx, settingKey)
	if err != nil {
		if err != db.ErrNoSetting {
			s.log.Warnf("Threshold config unreadable, using defaults: %v", err)
		}
		return Defaults()
	}

	var overrides map[string]metricPatch
	if err := json.Unmarshal(raw, &overrides); err != nil {
		s.log.Warnf("Threshold config corrupt, using defaults: %v", err)
		return Defaults()
	}

	return merge(Defaults(), overrides)
}

// Save persists cfg as the override document and notifies subscribers.
func (s *Store) Save(ctx context.Context, cfg models.ThresholdConfig) error {
	if err := s.kv.PutSetting(ctx, settingKey, cfg); err != nil {
		return err
	}
	s.bus.Publish(bus.TopicRuleConfigChanged, nil)
	return nil
}

// Reset removes all overrides, notifies subscribers, and returns the
// defaults now in effect.
func (s *Store) Reset(ctx context.Context) (models.ThresholdConfig, error) {
	if err := s.kv.DeleteSetting(ctx, settingKey); err != nil {
		return nil, err
	}
	s.bus.Publish(bus.TopicRuleConfigChanged, nil)
	return Defaults(), nil
}

// merge lays overrides onto defaults. Only metrics present in the
// defaults participate; a patch for an unknown metric is ignored.
func merge(defaults models.ThresholdConfig, overrides map[string]metricPatch) models.ThresholdConfig {
	for metric, def := range defaults {
		ovr, ok := overrides[metric]
		if !ok {
			continue
		}
		if ovr.Above != nil {
			def.Above = mergeRule(def.Above, ovr.Above)
		}
		if ovr.Below != nil {
			def.Below = mergeRule(def.Below, ovr.Below)
		}
		defaults[metric] = def
	}
	return defaults
}

func mergeRule(def *models.ThresholdRule, patch *rulePatch) *models.ThresholdRule {
	rule := models.ThresholdRule{}
	if def != nil {
		rule = *def
	}
	if patch.Value != nil {
		rule.Value = *patch.Value
	}
	if patch.Message != nil {
		rule.Message = *patch.Message
	}
	if patch.Severity != nil {
		rule.Severity = *patch.Severity
	}
	if patch.Enabled != nil {
		rule.Enabled = *patch.Enabled
	}
	return &rule
}
