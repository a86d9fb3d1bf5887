package plugin

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/pinchboard/internal/engine"
)

// DefaultQueue is the number of events waiting for plugin delivery.
const DefaultQueue = 64

// Dispatcher delivers board events to subscribed plugins on a single worker
// goroutine, so a slow plugin never stalls the render tick.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	log      logrus.FieldLogger
	queue    chan engine.Event

	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher creates a Dispatcher. queue <= 0 uses DefaultQueue.
func NewDispatcher(manager *Manager, executor *Executor, queue int, log logrus.FieldLogger) *Dispatcher {
	if queue <= 0 {
		queue = DefaultQueue
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		log:      log.WithField("component", "plugins"),
		queue:    make(chan engine.Event, queue),
	}
}

// Notify queues ev without blocking. Events arriving while the queue is full
// are dropped.
func (d *Dispatcher) Notify(ev engine.Event) {
	select {
	case d.queue <- ev:
	default:
		n := d.dropped.Add(1)
		d.log.WithFields(logrus.Fields{"kind": ev.Kind.String(), "dropped": n}).Warn("plugin queue full, dropping event")
	}
}

// Run delivers queued events until ctx is cancelled. Events still queued at
// that point are discarded.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev engine.Event) {
	for _, p := range d.manager.Subscribers(ev) {
		log := d.log.WithFields(logrus.Fields{
			"plugin": p.Manifest.Name,
			"kind":   ev.Kind.String(),
			"action": ev.Action.String(),
		})

		resp, err := d.executor.Execute(ctx, p, NewRequest(p, ev))
		switch {
		case err != nil:
			d.failed.Add(1)
			log.WithError(err).Warn("plugin failed")
		case !resp.Success:
			d.failed.Add(1)
			log.WithField("error", resp.Error).Warn("plugin reported failure")
		default:
			d.delivered.Add(1)
			log.Debug("plugin ran")
		}
	}
}

// Delivered returns the number of successful plugin runs.
func (d *Dispatcher) Delivered() uint64 { return d.delivered.Load() }

// Failed returns the number of plugin runs that errored or reported failure.
func (d *Dispatcher) Failed() uint64 { return d.failed.Load() }

// Dropped returns the number of events discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }
