package runner

import (
	"context"
	"errors"
	"io"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// Request asks for an entry point to be fired.
type Request struct {
	Graph   string         `json:"graph,omitempty"`
	Entry   string         `json:"entry"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Emitter shows values emitted by effectful nodes.
type Emitter interface {
	Emission(ctx context.Context, topic string, value any) error
}

// IOHandler defines how a console session reads requests and reports
// results. This allows switching between Text and JSON modes.
type IOHandler interface {
	Emitter

	// Input reads the next request. It returns io.EOF when the source is exhausted.
	Input(ctx context.Context) (Request, error)

	// Output presents the outcomes of one drain.
	Output(ctx context.Context, outcomes []domain.EventOutcome) error
}

// Interact reads requests from h until its input is exhausted or ctx is
// done. Each request is queued and drained immediately.
func (d *Driver) Interact(ctx context.Context, h IOHandler) error {
	for {
		req, err := h.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		d.EnqueueTo(req.Graph, req.Entry, req.Payload)
		if err := h.Output(ctx, d.Tick(ctx)); err != nil {
			return err
		}
	}
}

// EchoHost forwards emissions to an Emitter after the wrapped host
// accepted them. Reads and writes go to the wrapped host.
type EchoHost struct {
	ports.Host
	Out Emitter
}

// NewEchoHost wraps base.
func NewEchoHost(base ports.Host, out Emitter) *EchoHost {
	return &EchoHost{Host: base, Out: out}
}

func (h *EchoHost) Emit(ctx context.Context, topic string, value any) error {
	if err := h.Host.Emit(ctx, topic, value); err != nil {
		return err
	}
	return h.Out.Emission(ctx, topic, value)
}

var _ ports.Host = (*EchoHost)(nil)
