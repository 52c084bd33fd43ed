package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/pkg/adapters/file"
	"github.com/aretw0/tendril/pkg/adapters/loam"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/adapters/mqtt"
	"github.com/aretw0/tendril/pkg/adapters/postgres"
	"github.com/aretw0/tendril/pkg/adapters/process"
	"github.com/aretw0/tendril/pkg/adapters/redis"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/nodes"
	"github.com/aretw0/tendril/pkg/observability"
	"github.com/aretw0/tendril/pkg/persistence/middleware"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
)

// App is a fully wired process: loader, manager, driver and the adapters
// the configuration selects.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Loader   ports.GraphLoader
	Manager  *tendril.Manager
	Driver   *runner.Driver
	Metrics  *observability.Metrics
	Registry *prometheus.Registry

	// MQTT is the broker connection, nil when no broker is configured.
	MQTT mqtt.Conn

	closers []func() error
}

// AppOption adjusts how an App is assembled.
type AppOption func(*appOptions)

type appOptions struct {
	echo   runner.Emitter
	watch  bool
	driver []runner.Option
}

// WithEcho mirrors every host emission to e.
func WithEcho(e runner.Emitter) AppOption {
	return func(o *appOptions) { o.echo = e }
}

// WithWatch enables hot reload when the loader supports it.
func WithWatch(enabled bool) AppOption {
	return func(o *appOptions) { o.watch = enabled }
}

// WithDriverOptions appends driver options after the configured ones.
func WithDriverOptions(opts ...runner.Option) AppOption {
	return func(o *appOptions) { o.driver = append(o.driver, opts...) }
}

// NewApp assembles an App from cfg and loads every graph the loader lists.
// The caller owns the App and must Close it.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...AppOption) (*App, error) {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}

	app := &App{Config: cfg, Logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = app.Close()
		}
	}()

	loader, err := OpenLoader(cfg)
	if err != nil {
		return nil, err
	}
	app.Loader = loader

	var client *backend.Client
	if cfg.State.Backend == config.BackendRedis || cfg.Redis.Host || cfg.State.Lock {
		client = redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		app.closers = append(app.closers, client.Close)
	}

	store, err := app.store(ctx, client)
	if err != nil {
		return nil, err
	}
	if store, err = app.protect(store); err != nil {
		return nil, err
	}
	host, err := app.host(client)
	if err != nil {
		return nil, err
	}
	if o.echo != nil {
		host = runner.NewEchoHost(host, o.echo)
	}

	app.Registry = prometheus.NewRegistry()
	app.Metrics = observability.NewMetrics(app.Registry)

	reg, err := NewRegistry(cfg)
	if err != nil {
		return nil, err
	}
	app.Manager = tendril.New(reg,
		tendril.WithLogger(logger),
		tendril.WithLifecycleHooks(app.Metrics.Hooks()),
		tendril.WithLifecycleHooks(debugHooks(logger)),
		tendril.WithHost(host),
		tendril.WithStateStore(store),
	)
	if err := app.Manager.LoadAll(ctx, loader); err != nil {
		return nil, err
	}
	for _, name := range app.Manager.Graphs() {
		if err := app.Manager.RestoreState(ctx, name); err != nil && !errors.Is(err, domain.ErrStateNotFound) {
			logger.Warn("state not restored", "graph", name, "error", err)
		}
	}

	driverOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithInterval(cfg.Tick.Std()),
		runner.WithQueueObserver(app.Metrics.SetQueueDepth),
	}
	if cfg.Checkpoint > 0 {
		driverOpts = append(driverOpts, runner.WithCheckpoint(cfg.Checkpoint.Std()))
	}
	if cfg.State.Lock && client != nil {
		driverOpts = append(driverOpts, runner.WithLocker(redis.NewLocker(client, cfg.Redis.Prefix), runner.DefaultLockTTL))
	}
	if w, isWatchable := loader.(ports.Watchable); isWatchable && o.watch {
		driverOpts = append(driverOpts, runner.WithWatcher(loader, w))
	}
	app.Driver = runner.NewDriver(app.Manager, append(driverOpts, o.driver...)...)

	ok = true
	return app, nil
}

// NewRegistry returns the built-in node types plus process.run when cfg
// names a tools file.
func NewRegistry(cfg config.Config) (*registry.Registry, error) {
	reg := nodes.NewRegistry()
	if cfg.Tools == "" {
		return reg, nil
	}
	tools, err := process.LoadTools(cfg.Tools)
	if err != nil {
		return nil, err
	}
	r := process.NewRunner(process.WithRegistry(tools), process.WithBaseDir(filepath.Dir(cfg.Tools)))
	if err := reg.Register(r.Descriptor()); err != nil {
		return nil, err
	}
	return reg, nil
}

// OpenLoader returns the graph loader cfg selects: a Loam repository or a
// plain directory.
func OpenLoader(cfg config.Config) (ports.GraphLoader, error) {
	if cfg.Loam {
		l, err := loam.Open(cfg.Graphs)
		if err != nil {
			return nil, fmt.Errorf("open loam repository: %w", err)
		}
		return l, nil
	}
	return file.NewLoader(cfg.Graphs), nil
}

func (a *App) store(ctx context.Context, client *backend.Client) (ports.StateStore, error) {
	cfg := a.Config
	switch cfg.State.Backend {
	case config.BackendMemory, "":
		return memory.NewStore(), nil
	case config.BackendFile:
		return file.NewStore(cfg.State.Dir), nil
	case config.BackendRedis:
		opts := []redis.Option{redis.WithPrefix(cfg.Redis.Prefix)}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL.Std()))
		}
		return redis.NewFromClient(client, opts...), nil
	case config.BackendPostgres:
		s, err := postgres.Open(ctx, cfg.Postgres.DSN, postgres.WithTable(cfg.Postgres.Table))
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.State.Backend)
	}
}

// protect wraps store with the exclusion and encryption middleware the
// state config asks for.
func (a *App) protect(store ports.StateStore) (ports.StateStore, error) {
	var mws []middleware.Middleware
	if patterns := a.Config.State.Exclude; len(patterns) > 0 {
		mw, err := middleware.NewExcludeMiddleware(patterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	active, fallback, err := a.Config.State.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}

func (a *App) host(client *backend.Client) (ports.Host, error) {
	var host ports.Host = memory.NewHost()
	if a.Config.Redis.Host && client != nil {
		host = redis.NewHost(client, a.Config.Redis.Prefix)
	}

	if a.Config.MQTT.Broker == "" {
		return host, nil
	}
	conn, err := mqtt.Dial(a.Config.MQTT.Broker, a.Config.MQTT.ClientID)
	if err != nil {
		return nil, fmt.Errorf("connect mqtt broker: %w", err)
	}
	a.MQTT = conn
	a.closers = append(a.closers, func() error {
		conn.Disconnect(250)
		return nil
	})
	return mqtt.NewHost(conn, host, a.Config.MQTT.Prefix), nil
}

// Bridge returns an MQTT bridge feeding the driver, or nil without a broker.
func (a *App) Bridge() *mqtt.Bridge {
	if a.MQTT == nil {
		return nil
	}
	return mqtt.NewBridge(a.MQTT, a.Driver,
		mqtt.WithPrefix(a.Config.MQTT.Prefix),
		mqtt.WithLogger(a.Logger),
	)
}

// Close releases every connection the App opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
