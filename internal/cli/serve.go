package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/tendril/internal/config"
	tendrilhttp "github.com/aretw0/tendril/pkg/adapters/http"
	"github.com/aretw0/tendril/pkg/adapters/mcp"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds graceful HTTP shutdown.
const ShutdownTimeout = 5 * time.Second

// ServeOptions configures the long-running server.
type ServeOptions struct {
	Config config.Config
	Stderr io.Writer
}

// Serve runs the driver loop, the HTTP API and, when a broker is
// configured, the MQTT bridge until ctx is cancelled or one of them fails.
func Serve(ctx context.Context, opts ServeOptions) error {
	logger, err := NewLogger(opts.Stderr, opts.Config.LogLevel)
	if err != nil {
		return err
	}

	var api *tendrilhttp.Server
	publish := func(ctx context.Context, outcomes []domain.EventOutcome) {
		api.Publish(ctx, outcomes)
	}

	app, err := NewApp(ctx, opts.Config, logger,
		WithWatch(true),
		WithDriverOptions(runner.WithOutcomeHandler(publish)),
	)
	if err != nil {
		return err
	}
	defer app.Close()

	api = tendrilhttp.NewServer(app.Driver,
		tendrilhttp.WithLogger(logger),
		tendrilhttp.WithMetricsHandler(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})),
	)
	srv := &http.Server{
		Addr:              opts.Config.HTTP.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var b bridge
	if mb := app.Bridge(); mb != nil {
		b = mb
	}
	return serve(ctx, logger, app.Driver, srv, b)
}

type bridge interface {
	Start() error
	Stop() error
	Topic() string
}

// serve starts b, then runs driver and srv until ctx is done or one fails.
func serve(ctx context.Context, logger *slog.Logger, driver *runner.Driver, srv *http.Server, b bridge) error {
	// Nothing may be running yet if the bridge fails to start.
	if b != nil {
		if err := b.Start(); err != nil {
			return fmt.Errorf("start mqtt bridge: %w", err)
		}
		logger.Info("mqtt bridge subscribed", "topic", b.Topic())
		defer func() {
			if err := b.Stop(); err != nil {
				logger.Warn("mqtt bridge stop failed", "err", err)
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return driver.Run(gctx) })
	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})

	return HandleExecutionError(g.Wait())
}

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// MCPOptions configures the MCP server.
type MCPOptions struct {
	Config    config.Config
	Transport string
	Addr      string
	Stderr    io.Writer
}

// ServeMCP exposes the configured graphs as MCP tools. Events are only
// processed when a client asks for it, so no driver loop runs.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	logger, err := NewLogger(opts.Stderr, opts.Config.LogLevel)
	if err != nil {
		return err
	}
	app, err := NewApp(ctx, opts.Config, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := mcp.NewServer(app.Driver, logger)
	switch opts.Transport {
	case TransportStdio, "":
		return srv.ServeStdio()
	case TransportSSE:
		return HandleExecutionError(srv.ServeSSE(ctx, opts.Addr))
	default:
		return fmt.Errorf("unknown transport %q", opts.Transport)
	}
}
