// Package runloop drives automatic undo grouping at event-loop iteration
// boundaries.
//
// The undo engine only exposes explicit grouping calls; this package is
// the external driver that invokes them on a schedule. Work posted to a
// Driver runs serialized, one item per iteration, and any implicit group
// the manager opened for event-driven registrations is closed when the
// iteration ends, provided automatic grouping is on and the driver's
// mode is among the manager's active run-loop modes.
//
// All manager access must go through the driver once Run is started: the
// manager itself is single-threaded.
package runloop

import (
	"context"

	"github.com/dshills/rewind"
)

// Driver pumps queued work through a Manager, bracketing each iteration.
type Driver struct {
	mgr   *rewind.Manager
	mode  string
	queue chan func()
}

// Option configures a Driver.
type Option func(*Driver)

// WithMode sets the mode the driver runs in. Defaults to
// rewind.DefaultRunLoopMode.
func WithMode(mode string) Option {
	return func(d *Driver) { d.mode = mode }
}

// WithQueueSize sets the pending-work queue capacity.
func WithQueueSize(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.queue = make(chan func(), n)
		}
	}
}

// New creates a Driver for m.
func New(m *rewind.Manager, opts ...Option) *Driver {
	d := &Driver{
		mgr:   m,
		mode:  rewind.DefaultRunLoopMode,
		queue: make(chan func(), 64),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Mode returns the driver's run-loop mode token.
func (d *Driver) Mode() string { return d.mode }

// Post queues fn for a future iteration. Blocks when the queue is full.
func (d *Driver) Post(fn func()) {
	d.queue <- fn
}

// Run processes posted work until ctx is cancelled. Each item is one
// iteration.
func (d *Driver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-d.queue:
			d.Iterate(fn)
		}
	}
}

// Iterate runs fn synchronously as one iteration: after fn returns, a
// pending event-opened group is closed when grouping applies in this
// driver's mode.
func (d *Driver) Iterate(fn func()) {
	fn()
	d.endIteration()
}

func (d *Driver) endIteration() {
	if !d.mgr.GroupsByEvent() || !d.modeActive() {
		return
	}
	d.mgr.EndEventGroup()
}

func (d *Driver) modeActive() bool {
	for _, m := range d.mgr.RunLoopModes() {
		if m == d.mode {
			return true
		}
	}
	return false
}
