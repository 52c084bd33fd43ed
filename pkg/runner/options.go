package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// DefaultInterval is the tick period when none is configured.
const DefaultInterval = 100 * time.Millisecond

// DefaultLockTTL bounds how long a checkpoint lock is held.
const DefaultLockTTL = 10 * time.Second

// Option defines a functional option for configuring the Driver.
type Option func(*Driver)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithInterval sets the tick period of Run.
func WithInterval(interval time.Duration) Option {
	return func(d *Driver) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// WithOutcomeHandler receives the outcomes of every tick.
func WithOutcomeHandler(fn func(context.Context, []domain.EventOutcome)) Option {
	return func(d *Driver) {
		d.onOutcomes = fn
	}
}

// WithQueueObserver is called with the queue depth before each drain.
func WithQueueObserver(fn func(int)) Option {
	return func(d *Driver) {
		d.onDepth = fn
	}
}

// WithWatcher reloads graphs from loader whenever watcher reports a change.
func WithWatcher(loader ports.GraphLoader, watcher ports.Watchable) Option {
	return func(d *Driver) {
		d.loader = loader
		d.watcher = watcher
	}
}

// WithCheckpoint saves the state of every graph on this period, and once
// more when Run stops. The Manager must have a state store.
func WithCheckpoint(every time.Duration) Option {
	return func(d *Driver) {
		d.checkpoint = every
	}
}

// WithLocker guards checkpoints with a distributed lock so that only one
// driver writes a graph's snapshot at a time.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(d *Driver) {
		d.locker = locker
		if ttl > 0 {
			d.lockTTL = ttl
		}
	}
}
