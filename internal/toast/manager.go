// Package toast keeps the ephemeral queue of notification cards shown for
// newly-appeared alerts. Toasts are never persisted; each one is removed
// after a fixed display duration or an explicit dismissal, whichever comes
// first.
package toast

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"garden-monitor/internal/models"
)

type State string

const (
	StateCreated   State = "created"
	StateVisible   State = "visible"
	StateExpired   State = "expired"
	StateDismissed State = "dismissed"
)

// Duration is how long a toast stays on screen before auto-expiry.
const Duration = 5000 * time.Millisecond

// maxActive bounds concurrent toasts; a burst of simultaneous alerts
// evicts the oldest card instead of stacking without limit.
const maxActive = 8

type Toast struct {
	ID        string       `json:"id"`
	Alert     models.Alert `json:"alert"`
	State     State        `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
}

// Manager owns the active toast list. A toast enters in Created state and
// becomes Visible the first time a client lists it, leaving the enter
// animation to the renderer.
type Manager struct {
	mu       sync.Mutex
	duration time.Duration
	active   map[string]*Toast
	order    []string
	timers   map[string]*time.Timer
	onPush   func(Toast)
	stopped  bool
}

// NewManager creates a Manager expiring toasts after duration. onPush, if
// non-nil, is invoked for every created toast (used to push cards over the
// websocket stream).
func NewManager(duration time.Duration, onPush func(Toast)) *Manager {
	if duration <= 0 {
		duration = Duration
	}
	return &Manager{
		duration: duration,
		active:   make(map[string]*Toast),
		timers:   make(map[string]*time.Timer),
		onPush:   onPush,
	}
}

// Push creates a toast for a newly-appeared alert and schedules its expiry.
func (m *Manager) Push(alert models.Alert) Toast {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return Toast{}
	}

	if len(m.order) >= maxActive {
		m.removeLocked(m.order[0], StateExpired)
	}

	t := &Toast{
		ID:        fmt.Sprintf("toast-%s", uuid.New().String()),
		Alert:     alert,
		State:     StateCreated,
		CreatedAt: time.Now(),
	}
	m.active[t.ID] = t
	m.order = append(m.order, t.ID)

	id := t.ID
	m.timers[id] = time.AfterFunc(m.duration, func() {
		m.mu.Lock()
		m.removeLocked(id, StateExpired)
		m.mu.Unlock()
	})

	snapshot := *t
	m.mu.Unlock()

	if m.onPush != nil {
		m.onPush(snapshot)
	}
	return snapshot
}

// List returns the active toasts in creation order. Listing is the
// rendering opportunity: Created toasts transition to Visible here.
func (m *Manager) List() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Toast, 0, len(m.order))
	for _, id := range m.order {
		t := m.active[id]
		if t.State == StateCreated {
			t.State = StateVisible
		}
		out = append(out, *t)
	}
	return out
}

// Dismiss removes a toast before its timer fires. Returns false when the
// id is unknown (already expired or never existed).
func (m *Manager) Dismiss(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[id]; !ok {
		return false
	}
	m.removeLocked(id, StateDismissed)
	return true
}

// Stop cancels all pending expiry timers. No toasts are created afterwards.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	for id := range m.active {
		m.removeLocked(id, StateExpired)
	}
}

// removeLocked takes a toast out of the active list; expiry and dismissal
// both end here. Caller holds m.mu.
func (m *Manager) removeLocked(id string, final State) {
	t, ok := m.active[id]
	if !ok {
		return
	}
	t.State = final
	delete(m.active, id)
	if timer, ok := m.timers[id]; ok {
		timer.Stop()
		delete(m.timers, id)
	}
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
