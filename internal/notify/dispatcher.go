// Package notify dispatches best-effort outbound notifications for
// newly-appeared alerts. Delivery runs on a queued worker pool; failures
// are logged and swallowed, never surfaced to the caller, and never block
// toast display.
package notify

import (
	"context"
	"sync"
	"time"

	"garden-monitor/internal/config"
	"garden-monitor/internal/logging"
	"garden-monitor/internal/models"
)

// Task is one outbound notification request for a newly-appeared alert.
type Task struct {
	Alert    models.Alert
	QueuedAt time.Time
}

// Provider delivers a Task over one channel (email, telegram). A provider
// decides for itself whether its channel is enabled and returns nil when
// it has nothing to do.
type Provider func(ctx context.Context, task Task) error

// Dispatcher fans Tasks out to every registered provider.
type Dispatcher struct {
	log       *logging.Logger
	tasks     chan Task
	ctx       context.Context
	cancel    context.CancelFunc
	wg        *sync.WaitGroup
	workers   int
	providers map[string]Provider
}

// New constructs a Dispatcher with the standard email and telegram
// providers registered.
func New(cfg config.Config, settings *SettingsStore, log *logging.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		log:     log,
		tasks:   make(chan Task, cfg.Notify.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
		workers: cfg.Notify.MaxWorkers,
	}
	d.providers = map[string]Provider{
		"email":    EmailProvider(cfg, settings, log),
		"telegram": TelegramProvider(cfg, settings, log),
	}
	return d
}

// Start launches the worker pool.
func (d *Dispatcher) Start(wg *sync.WaitGroup) {
	d.wg = wg
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Queue enqueues a Task. A full queue drops the task; alert delivery is
// best-effort by contract.
func (d *Dispatcher) Queue(task Task) {
	select {
	case d.tasks <- task:
		d.log.Infof("Queued notification: alert=%s", task.Alert.ID)
	default:
		d.log.Errorf("Queue full, dropping notification: alert=%s", task.Alert.ID)
	}
}

// Stop cancels the workers.
func (d *Dispatcher) Stop() {
	d.cancel()
}

// worker processes Tasks until context is cancelled.
func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			d.log.Infof("Notify worker %d stopped", id)
			return
		case task := <-d.tasks:
			d.handle(task)
		}
	}
}

// handle runs every provider for a task. One channel failing does not
// keep the others from delivering.
func (d *Dispatcher) handle(task Task) {
	for name, provider := range d.providers {
		if err := provider(d.ctx, task); err != nil {
			d.log.Errorf("Dispatch error via %s for alert %s: %v", name, task.Alert.ID, err)
		}
	}
}
