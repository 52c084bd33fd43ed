package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// Driver owns a Manager on behalf of concurrent producers.
type Driver struct {
	mu      sync.Mutex
	manager *tendril.Manager

	logger     *slog.Logger
	interval   time.Duration
	onOutcomes func(context.Context, []domain.EventOutcome)
	onDepth    func(int)

	loader  ports.GraphLoader
	watcher ports.Watchable

	checkpoint time.Duration
	locker     ports.DistributedLocker
	lockTTL    time.Duration
}

// NewDriver wraps m. The caller must not use m directly afterwards; use Do.
func NewDriver(m *tendril.Manager, opts ...Option) *Driver {
	d := &Driver{
		manager:  m,
		logger:   logging.NewNop(),
		interval: DefaultInterval,
		lockTTL:  DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue queues an event and returns its id.
func (d *Driver) Enqueue(entry string, payload map[string]any) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.manager.Enqueue(entry, payload)
}

// EnqueueTo queues an event that only resolves against graph.
func (d *Driver) EnqueueTo(graph, entry string, payload map[string]any) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.manager.EnqueueTo(graph, entry, payload)
}

// Cancel removes a pending event.
func (d *Driver) Cancel(eventID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.manager.Cancel(eventID)
}

// Do runs fn with exclusive access to the Manager.
func (d *Driver) Do(fn func(*tendril.Manager) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.manager)
}

// Tick drains the queue once and returns the outcomes.
func (d *Driver) Tick(ctx context.Context) []domain.EventOutcome {
	d.mu.Lock()
	outcomes := d.drain(ctx)
	d.mu.Unlock()

	d.publish(ctx, outcomes)
	return outcomes
}

// Fire queues an event and drains the queue under one lock. Events queued
// earlier by other producers are processed too, but only the outcome of
// the fired event is returned; the outcome handler receives all of them.
func (d *Driver) Fire(ctx context.Context, graph, entry string, payload map[string]any) []domain.EventOutcome {
	d.mu.Lock()
	id := d.manager.EnqueueTo(graph, entry, payload)
	outcomes := d.drain(ctx)
	d.mu.Unlock()

	d.publish(ctx, outcomes)
	own := make([]domain.EventOutcome, 0, 1)
	for _, o := range outcomes {
		if o.EventID == id {
			own = append(own, o)
		}
	}
	return own
}

// drain must be called with mu held.
func (d *Driver) drain(ctx context.Context) []domain.EventOutcome {
	if d.onDepth != nil {
		d.onDepth(d.manager.Pending())
	}
	return d.manager.ProcessEvents(ctx)
}

func (d *Driver) publish(ctx context.Context, outcomes []domain.EventOutcome) {
	if len(outcomes) > 0 && d.onOutcomes != nil {
		d.onOutcomes(ctx, outcomes)
	}
}

// Run ticks until ctx is done. Hot reload and checkpoints run on the same
// goroutine, between ticks.
func (d *Driver) Run(ctx context.Context) error {
	var changes <-chan string
	if d.watcher != nil {
		ch, err := d.watcher.Watch(ctx)
		if err != nil {
			return fmt.Errorf("watch graphs: %w", err)
		}
		changes = ch
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	var checkpoints <-chan time.Time
	if d.checkpoint > 0 {
		t := time.NewTicker(d.checkpoint)
		defer t.Stop()
		checkpoints = t.C
	}

	d.logger.Info("driver started", "interval", d.interval)
	for {
		select {
		case <-ctx.Done():
			return d.stop()
		case <-ticker.C:
			d.Tick(ctx)
		case name, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			d.Reload(ctx, name)
		case <-checkpoints:
			if err := d.Checkpoint(ctx); err != nil {
				d.logger.Warn("checkpoint failed", "err", err)
			}
		}
	}
}

func (d *Driver) stop() error {
	d.logger.Info("driver stopping")
	if d.checkpoint <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.lockTTL)
	defer cancel()
	return d.Checkpoint(ctx)
}

// Reload reinstalls one graph from the watched loader. A graph that no
// longer exists is uninstalled; a graph that fails to build keeps running
// its previous version.
func (d *Driver) Reload(ctx context.Context, name string) {
	if d.loader == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.manager.LoadFrom(ctx, d.loader, name)
	switch {
	case err == nil:
		d.logger.Info("graph reloaded", "graph", name)
	case errors.Is(err, domain.ErrGraphNotFound):
		if d.manager.Uninstall(name) {
			d.logger.Info("graph removed", "graph", name)
		}
	default:
		d.logger.Warn("reload rejected", "graph", name, "err", err)
	}
}

// Checkpoint saves the state of every installed graph.
func (d *Driver) Checkpoint(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, name := range d.manager.Graphs() {
		if err := d.save(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Driver) save(ctx context.Context, name string) error {
	if d.locker == nil {
		return d.manager.SaveState(ctx, name)
	}
	unlock, err := d.locker.Lock(ctx, "checkpoint:"+name, d.lockTTL)
	if err != nil {
		return fmt.Errorf("lock %s: %w", name, err)
	}
	defer func() {
		if err := unlock(context.Background()); err != nil {
			d.logger.Warn("unlock failed", "graph", name, "err", err)
		}
	}()
	return d.manager.SaveState(ctx, name)
}
