package alerting

import (
	"sync"

	"garden-monitor/internal/models"
)

// SessionTracker remembers the alert ids seen in the previous evaluation
// cycle so a freshly recomputed alert list can be split into "still
// active" and "newly appeared". It holds only one cycle of ids; an alert
// that disappears and later returns under a new timestamp counts as new
// again.
type SessionTracker struct {
	mu     sync.Mutex
	prev   map[string]bool
	seeded bool
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{prev: make(map[string]bool)}
}

// Observe replaces the previous-cycle id set with the ids of alerts and
// returns the subset whose ids were not present before. The very first
// call only seeds the set and returns nothing: conditions already active
// when the session starts are never announced.
func (t *SessionTracker) Observe(alerts []models.Alert) []models.Alert {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := make(map[string]bool, len(alerts))
	var newly []models.Alert
	for _, a := range alerts {
		current[a.ID] = true
		if !t.prev[a.ID] {
			newly = append(newly, a)
		}
	}
	t.prev = current

	if !t.seeded {
		t.seeded = true
		return nil
	}
	return newly
}
