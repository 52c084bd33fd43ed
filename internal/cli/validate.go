package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	viz "github.com/aretw0/tendril/internal/presentation/graph"
	"github.com/aretw0/tendril/internal/presentation/tui"
	"github.com/aretw0/tendril/internal/validator"
	"github.com/aretw0/tendril/pkg/graph"
	"github.com/aretw0/tendril/pkg/nodes"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/registry"
)

// ErrInvalidGraphs is returned by Validate when at least one graph is rejected.
var ErrInvalidGraphs = errors.New("invalid graphs")

// ValidateOptions configures Validate.
type ValidateOptions struct {
	// Names restricts validation to these graphs. Empty means all.
	Names []string
	// Report prints a markdown report of each valid graph.
	Report bool
	// Render formats the report. Nil prints it raw.
	Render func(string) (string, error)
	// Registry resolves node types. Nil means the built-in types.
	Registry *registry.Registry
}

// Validate compiles graphs from loader and writes one line per graph to w,
// followed by any lint warnings.
func Validate(ctx context.Context, loader ports.GraphLoader, w io.Writer, opts ValidateOptions) error {
	names := opts.Names
	if len(names) == 0 {
		var err error
		if names, err = loader.List(ctx); err != nil {
			return fmt.Errorf("list graphs: %w", err)
		}
	}
	if len(names) == 0 {
		fmt.Fprintln(w, "no graphs found")
		return nil
	}

	reg := opts.Registry
	if reg == nil {
		reg = nodes.NewRegistry()
	}
	failed := 0
	for _, name := range names {
		def, err := compile(ctx, loader, reg, name)
		if err != nil {
			failed++
			fmt.Fprintf(w, "✗ %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "✓ %s (%d nodes, entries: %s)\n", name, def.Len(), strings.Join(def.EntryNames(), ", "))
		for _, warning := range validator.Lint(def) {
			fmt.Fprintf(w, "  ! %s\n", warning)
		}
		if opts.Report {
			report := tui.GraphReport(def)
			if opts.Render != nil {
				if out, err := opts.Render(report); err == nil {
					report = out
				}
			}
			fmt.Fprintln(w, report)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrInvalidGraphs, failed, len(names))
	}
	return nil
}

// Mermaid returns the Mermaid flowchart of one graph. A nil reg means the
// built-in node types.
func Mermaid(ctx context.Context, loader ports.GraphLoader, reg *registry.Registry, name string, highlight []string) (string, error) {
	if reg == nil {
		reg = nodes.NewRegistry()
	}
	def, err := compile(ctx, loader, reg, name)
	if err != nil {
		return "", err
	}
	var overlay *viz.Overlay
	if len(highlight) > 0 {
		overlay = &viz.Overlay{Highlight: highlight}
	}
	return viz.GenerateMermaid(def, overlay), nil
}

func compile(ctx context.Context, loader ports.GraphLoader, reg *registry.Registry, name string) (*graph.Definition, error) {
	spec, err := loader.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return graph.Build(spec, reg)
}
