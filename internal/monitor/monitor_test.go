package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"garden-monitor/internal/bus"
	"garden-monitor/internal/db"
	"garden-monitor/internal/logging"
	"garden-monitor/internal/models"
	"garden-monitor/internal/notify"
	"garden-monitor/internal/thresholds"
	"garden-monitor/internal/toast"
)

type memKV struct {
	mu   sync.Mutex
	data map[string]json.RawMessage
}

func (m *memKV) GetSetting(_ context.Context, key string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrNoSetting
	}
	return v, nil
}

func (m *memKV) PutSetting(_ context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = b
	m.mu.Unlock()
	return nil
}

func (m *memKV) DeleteSetting(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

type fakeSource struct {
	mu    sync.Mutex
	rows  []models.Reading
	err   error
	calls int
}

func (f *fakeSource) QueryReadings(_ context.Context, _ db.ReadingQuery) ([]models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Reading, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeSource) set(rows []models.Reading, err error) {
	f.mu.Lock()
	f.rows, f.err = rows, err
	f.mu.Unlock()
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingNotifier struct {
	mu    sync.Mutex
	tasks []notify.Task
}

func (r *recordingNotifier) Queue(task notify.Task) {
	r.mu.Lock()
	r.tasks = append(r.tasks, task)
	r.mu.Unlock()
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// hotReading breaches the default Temperature above-35 rule.
func hotReading(at time.Time) models.Reading {
	return models.Reading{DeviceID: "temp-humid", Payload: models.Payload{"temperature": 36.0}, ReceivedAt: at}
}

func newTestMonitor(source Source) (*Monitor, *toast.Manager, *recordingNotifier, *bus.Bus) {
	b := bus.New()
	log := logging.Discard()
	rules := thresholds.NewStore(&memKV{data: map[string]json.RawMessage{}}, b, log)
	toasts := toast.NewManager(time.Hour, nil)
	notifier := &recordingNotifier{}
	m := New(source, rules, toasts, notifier, b, log, time.Hour, 150)
	return m, toasts, notifier, b
}

func TestCycleFirstPassSeedsSilently(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{rows: []models.Reading{hotReading(at)}}
	m, toasts, notifier, _ := newTestMonitor(source)
	defer toasts.Stop()

	m.Cycle(context.Background())

	alerts, errMsg := m.Snapshot()
	if errMsg != "" {
		t.Fatalf("unexpected error: %q", errMsg)
	}
	if len(alerts) != 1 {
		t.Fatalf("active alerts = %d, want 1", len(alerts))
	}
	if got := len(toasts.List()); got != 0 {
		t.Errorf("first cycle pushed %d toasts, want 0", got)
	}
	if got := notifier.count(); got != 0 {
		t.Errorf("first cycle queued %d tasks, want 0", got)
	}
}

func TestCycleIdempotentRepoll(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{}
	m, toasts, notifier, _ := newTestMonitor(source)
	defer toasts.Stop()

	m.Cycle(context.Background()) // seed on empty data
	source.set([]models.Reading{hotReading(at)}, nil)
	m.Cycle(context.Background())

	if got := len(toasts.List()); got != 1 {
		t.Fatalf("new breach pushed %d toasts, want 1", got)
	}
	if got := notifier.count(); got != 1 {
		t.Fatalf("new breach queued %d tasks, want 1", got)
	}

	// Same data again: nothing new to announce.
	m.Cycle(context.Background())
	if got := notifier.count(); got != 1 {
		t.Errorf("unchanged repoll queued extra tasks, total %d", got)
	}

	// A later breach timestamp is a new alert.
	source.set([]models.Reading{hotReading(at.Add(10 * time.Minute))}, nil)
	m.Cycle(context.Background())
	if got := notifier.count(); got != 2 {
		t.Errorf("reappeared breach not announced, tasks = %d", got)
	}
}

func TestCycleFetchErrorClearsAlerts(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{}
	m, toasts, _, _ := newTestMonitor(source)
	defer toasts.Stop()

	m.Cycle(context.Background())
	source.set([]models.Reading{hotReading(at)}, nil)
	m.Cycle(context.Background())
	if alerts, _ := m.Snapshot(); len(alerts) != 1 {
		t.Fatalf("setup: expected one active alert")
	}

	source.set(nil, errors.New("connection refused"))
	m.Cycle(context.Background())

	alerts, errMsg := m.Snapshot()
	if len(alerts) != 0 {
		t.Errorf("failed fetch left %d stale alerts", len(alerts))
	}
	if errMsg != "connection refused" {
		t.Errorf("error = %q, want the fetch error", errMsg)
	}

	// Recovery on the next pass.
	source.set([]models.Reading{hotReading(at)}, nil)
	m.Cycle(context.Background())
	alerts, errMsg = m.Snapshot()
	if len(alerts) != 1 || errMsg != "" {
		t.Errorf("recovery pass: alerts = %d, err = %q", len(alerts), errMsg)
	}
}

func TestStartReactsToRuleChanges(t *testing.T) {
	source := &fakeSource{}
	m, toasts, _, b := newTestMonitor(source)
	defer toasts.Stop()

	handle := m.Start()
	waitFor(t, func() bool { return source.callCount() >= 1 })

	b.Publish(bus.TopicRuleConfigChanged, nil)
	waitFor(t, func() bool { return source.callCount() >= 2 })

	handle.Stop()
	after := source.callCount()
	b.Publish(bus.TopicRuleConfigChanged, nil)
	time.Sleep(50 * time.Millisecond)
	if source.callCount() != after {
		t.Errorf("cycle ran after Stop")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
