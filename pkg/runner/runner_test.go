package runner_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/dsl"
	"github.com/aretw0/tendril/pkg/nodes"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoSpec(t *testing.T, entries ...string) domain.GraphSpec {
	t.Helper()
	b := dsl.New("echo").
		Node("in", nodes.TypeEventValue).
		Node("print", nodes.TypePrint).
		Connect("in.value", "print.value")
	for _, e := range entries {
		b.Entry(e, "in")
	}
	spec, err := b.Build()
	require.NoError(t, err)
	return spec
}

func counterSpec(t *testing.T) domain.GraphSpec {
	t.Helper()
	spec, err := dsl.New("clicks").
		Node("count", nodes.TypeCounter).AsEntry("click").
		Build()
	require.NoError(t, err)
	return spec
}

type fakeWatcher struct {
	ch chan string
}

func (w *fakeWatcher) Watch(context.Context) (<-chan string, error) { return w.ch, nil }

type fakeLocker struct {
	mu       sync.Mutex
	keys     []string
	released int
}

func (l *fakeLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

func TestDriver_TickDrainsQueue(t *testing.T) {
	host := memory.NewHost()
	m := tendril.New(nodes.NewRegistry(), tendril.WithHost(host))
	require.NoError(t, m.Load(context.Background(), echoSpec(t, "go")))

	var depth int
	d := runner.NewDriver(m, runner.WithQueueObserver(func(n int) { depth = n }))
	d.Enqueue("go", map[string]any{"value": 1})
	d.EnqueueTo("echo", "go", map[string]any{"value": 2})
	cancelled := d.Enqueue("go", map[string]any{"value": 3})
	assert.True(t, d.Cancel(cancelled))

	outcomes := d.Tick(context.Background())
	require.Len(t, outcomes, 2)
	assert.Equal(t, 2, depth)
	assert.Equal(t, []any{"1", "2"}, host.Emitted(nodes.PrintTopic))
	assert.Empty(t, d.Tick(context.Background()))
}

func TestDriver_FireReturnsOwnOutcome(t *testing.T) {
	host := memory.NewHost()
	m := tendril.New(nodes.NewRegistry(), tendril.WithHost(host))
	require.NoError(t, m.Load(context.Background(), echoSpec(t, "go")))

	var handled []domain.EventOutcome
	d := runner.NewDriver(m, runner.WithOutcomeHandler(func(_ context.Context, o []domain.EventOutcome) {
		handled = append(handled, o...)
	}))
	earlier := d.Enqueue("go", map[string]any{"value": 1})

	outcomes := d.Fire(context.Background(), "echo", "go", map[string]any{"value": 2})
	require.Len(t, outcomes, 1)
	assert.NotEqual(t, earlier, outcomes[0].EventID)
	assert.Equal(t, domain.OutcomeSucceeded, outcomes[0].Status)
	assert.Len(t, handled, 2)
	assert.Equal(t, []any{"1", "2"}, host.Emitted(nodes.PrintTopic))
	assert.Empty(t, d.Tick(context.Background()))
}

func TestDriver_ConcurrentProducers(t *testing.T) {
	m := tendril.New(nodes.NewRegistry(), tendril.WithHost(memory.NewHost()))
	require.NoError(t, m.Load(context.Background(), echoSpec(t, "go")))

	var processed atomic.Int64
	d := runner.NewDriver(m,
		runner.WithInterval(time.Millisecond),
		runner.WithOutcomeHandler(func(_ context.Context, outcomes []domain.EventOutcome) {
			processed.Add(int64(len(outcomes)))
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				d.Enqueue("go", map[string]any{"value": i})
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return processed.Load() == 200 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestDriver_HotReload(t *testing.T) {
	ctx := context.Background()
	loader, err := memory.NewLoader(echoSpec(t, "go"))
	require.NoError(t, err)

	m := tendril.New(nodes.NewRegistry(), tendril.WithHost(memory.NewHost()))
	require.NoError(t, m.LoadAll(ctx, loader))

	watcher := &fakeWatcher{ch: make(chan string)}
	d := runner.NewDriver(m, runner.WithInterval(time.Hour), runner.WithWatcher(loader, watcher))

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- d.Run(runCtx) }()

	loader.Put(echoSpec(t, "go", "again"))
	watcher.ch <- "echo"

	require.Eventually(t, func() bool {
		var found bool
		_ = d.Do(func(m *tendril.Manager) error {
			def, ok := m.Graph("echo")
			if ok {
				_, found = def.Entry("again")
			}
			return nil
		})
		return found
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestDriver_Reload(t *testing.T) {
	ctx := context.Background()
	loader, err := memory.NewLoader(echoSpec(t, "go"))
	require.NoError(t, err)

	m := tendril.New(nodes.NewRegistry())
	require.NoError(t, m.LoadAll(ctx, loader))
	require.NoError(t, m.Load(ctx, counterSpec(t)))
	d := runner.NewDriver(m, runner.WithWatcher(loader, &fakeWatcher{}))

	t.Run("Rejected keeps previous", func(t *testing.T) {
		loader.Put(domain.GraphSpec{
			Name:  "echo",
			Nodes: []domain.NodeInstance{{ID: "x", Type: "no.such.type"}},
		})
		d.Reload(ctx, "echo")
		_ = d.Do(func(m *tendril.Manager) error {
			def, ok := m.Graph("echo")
			require.True(t, ok)
			_, hasGo := def.Entry("go")
			assert.True(t, hasGo)
			return nil
		})
	})

	t.Run("Missing asset uninstalls", func(t *testing.T) {
		d.Reload(ctx, "clicks")
		_ = d.Do(func(m *tendril.Manager) error {
			assert.Equal(t, []string{"echo"}, m.Graphs())
			return nil
		})
	})
}

func TestDriver_Checkpoint(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	m := tendril.New(nodes.NewRegistry(), tendril.WithStateStore(store))
	require.NoError(t, m.Load(ctx, counterSpec(t)))

	locker := &fakeLocker{}
	d := runner.NewDriver(m,
		runner.WithInterval(time.Hour),
		runner.WithCheckpoint(time.Hour),
		runner.WithLocker(locker, time.Second),
	)
	d.Enqueue("click", nil)
	d.Enqueue("click", nil)
	d.Tick(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	cancel()
	require.NoError(t, d.Run(runCtx))

	snap, err := store.Load(ctx, "clicks")
	require.NoError(t, err)
	assert.EqualValues(t, 2, snap.Nodes["count"].State)
	assert.Equal(t, []string{"checkpoint:clicks"}, locker.keys)
	assert.Equal(t, 1, locker.released)
}

func TestDriver_WatchError(t *testing.T) {
	m := tendril.New(nodes.NewRegistry())
	d := runner.NewDriver(m, runner.WithWatcher(nil, failingWatcher{}))
	assert.Error(t, d.Run(context.Background()))
}

type failingWatcher struct{}

func (failingWatcher) Watch(context.Context) (<-chan string, error) {
	return nil, assert.AnError
}
