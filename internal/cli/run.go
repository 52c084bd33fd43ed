package cli

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/internal/presentation/tui"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/runner"
	"golang.org/x/sync/errgroup"
)

// RunOptions configures an interactive console session.
type RunOptions struct {
	Config config.Config
	// JSON switches the console to line-delimited JSON on both ends.
	JSON bool
	// Watch reloads graphs while the session runs. It needs a Loam repository.
	Watch bool
	Quiet bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run drives every configured graph from console input until stdin closes
// or ctx is cancelled.
func Run(ctx context.Context, opts RunOptions) error {
	logger, err := NewLogger(opts.Stderr, opts.Config.LogLevel)
	if err != nil {
		return err
	}

	var h runner.IOHandler
	if opts.JSON {
		h = runner.NewJSONHandler(opts.Stdin, opts.Stdout)
	} else {
		h = runner.NewTextHandler(opts.Stdin, opts.Stdout)
	}

	app, err := NewApp(ctx, opts.Config, logger,
		WithEcho(h),
		WithWatch(opts.Watch),
		WithDriverOptions(runner.WithOutcomeHandler(logOutcomes(logger))),
	)
	if err != nil {
		return err
	}
	defer app.Close()

	if !opts.JSON && !opts.Quiet {
		tui.PrintBanner(opts.Stdout, tendril.Version)
		var graphs []string
		_ = app.Driver.Do(func(m *tendril.Manager) error {
			graphs = m.Graphs()
			return nil
		})
		printSystemMessage(opts.Stdout, "%d graph(s) loaded: %s", len(graphs), strings.Join(graphs, ", "))
	}

	if !opts.Watch {
		return HandleExecutionError(app.Driver.Interact(ctx, h))
	}

	// With hot reload the driver loop runs beside the console. Events it
	// drains between prompts are only logged.
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Driver.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		return app.Driver.Interact(gctx, h)
	})
	return HandleExecutionError(g.Wait())
}

func logOutcomes(logger *slog.Logger) func(context.Context, []domain.EventOutcome) {
	return func(_ context.Context, outcomes []domain.EventOutcome) {
		for _, o := range outcomes {
			logger.Debug("event processed", "event", o.EventID, "graph", o.Graph, "entry", o.Entry, "status", o.Status)
		}
	}
}
