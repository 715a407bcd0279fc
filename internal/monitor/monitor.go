// Package monitor runs the fetch-and-evaluate loop: poll the readings
// store, extract metric series, evaluate threshold rules, and hand
// newly-appeared alerts to the toast manager and the notification
// dispatcher.
package monitor

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"garden-monitor/internal/alerting"
	"garden-monitor/internal/bus"
	"garden-monitor/internal/db"
	"garden-monitor/internal/logging"
	"garden-monitor/internal/metrics"
	"garden-monitor/internal/models"
	"garden-monitor/internal/notify"
	"garden-monitor/internal/thresholds"
	"garden-monitor/internal/toast"
)

// Source is the readings query surface the monitor polls. *db.DB
// implements it.
type Source interface {
	QueryReadings(ctx context.Context, q db.ReadingQuery) ([]models.Reading, error)
}

// Notifier receives one task per newly-appeared alert.
type Notifier interface {
	Queue(task notify.Task)
}

// Monitor owns one evaluation loop and the alert state it produces.
type Monitor struct {
	source     Source
	rules      *thresholds.Store
	tracker    *alerting.SessionTracker
	toasts     *toast.Manager
	notifier   Notifier
	bus        *bus.Bus
	log        *logging.Logger
	interval   time.Duration
	fetchLimit int

	inFlight atomic.Bool

	mu      sync.Mutex
	alerts  []models.Alert
	lastErr string
}

func New(source Source, rules *thresholds.Store, toasts *toast.Manager, notifier Notifier, b *bus.Bus, log *logging.Logger, interval time.Duration, fetchLimit int) *Monitor {
	return &Monitor{
		source:     source,
		rules:      rules,
		tracker:    alerting.NewSessionTracker(),
		toasts:     toasts,
		notifier:   notifier,
		bus:        b,
		log:        log,
		interval:   interval,
		fetchLimit: fetchLimit,
	}
}

// Handle controls a running loop. Stop cancels it and blocks until the
// loop has exited; no cycle fires afterwards.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Start runs an immediate first cycle (which seeds the session tracker
// without notifying) and then re-evaluates on every tick and on every
// rule-config change.
func (m *Monitor) Start() *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sub := m.bus.Subscribe(bus.TopicRuleConfigChanged)

	go func() {
		defer close(done)
		defer sub.Close()

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.Cycle(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Cycle(ctx)
			case <-sub.C:
				m.log.Infof("Threshold config changed, re-evaluating")
				m.Cycle(ctx)
			}
		}
	}()

	return &Handle{cancel: cancel, done: done}
}

// Cycle performs one fetch-and-evaluate pass. Overlapping cycles are
// suppressed: a tick arriving while a fetch is still in flight is skipped.
func (m *Monitor) Cycle(ctx context.Context) {
	if !m.inFlight.CompareAndSwap(false, true) {
		m.log.Warnf("Previous cycle still in flight, skipping")
		return
	}
	defer m.inFlight.Store(false)

	rows, err := m.source.QueryReadings(ctx, db.ReadingQuery{Limit: m.fetchLimit})
	if err != nil {
		// Clear alerts rather than showing stale state; the loop retries
		// on the next interval.
		m.log.Errorf("Reading fetch failed: %v", err)
		m.setResult(nil, err.Error())
		return
	}

	// The query returns newest first; extraction expects chronological
	// order.
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].ReceivedAt.Before(rows[j].ReceivedAt)
	})

	ds := metrics.Extract(rows, metrics.OverviewLimit)
	cfg := m.rules.Load(ctx)
	alerts := alerting.Evaluate(ds, cfg)
	newly := m.tracker.Observe(alerts)
	m.setResult(alerts, "")

	for _, a := range newly {
		m.log.Infof("New alert: %s (%s=%g, %s)", a.ID, a.Metric, a.Value, a.Severity)
		m.toasts.Push(a)
		m.notifier.Queue(notify.Task{Alert: a, QueuedAt: time.Now()})
	}
}

// Snapshot returns the alerts of the last completed cycle and the fetch
// error, if the last cycle failed.
func (m *Monitor) Snapshot() ([]models.Alert, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Alert, len(m.alerts))
	copy(out, m.alerts)
	return out, m.lastErr
}

func (m *Monitor) setResult(alerts []models.Alert, errMsg string) {
	m.mu.Lock()
	m.alerts = alerts
	m.lastErr = errMsg
	m.mu.Unlock()
}
