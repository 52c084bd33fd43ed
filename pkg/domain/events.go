package domain

import (
	"context"
	"time"
)

// HookType defines the category of a lifecycle notification.
type HookType string

const (
	HookGraphInstalled HookType = "graph_installed"
	HookEventStart     HookType = "event_start"
	HookEventDone      HookType = "event_done"
	HookNodeEnter      HookType = "node_enter"
	HookNodeLeave      HookType = "node_leave"
)

// HookBase contains common fields for all notifications.
type HookBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      HookType  `json:"type"`
}

// GraphHook is emitted after a graph is installed or replaced.
type GraphHook struct {
	HookBase
	Graph    string     `json:"graph"`
	Replaced bool       `json:"replaced"`
	Diff     *GraphDiff `json:"diff,omitempty"`
}

// EventHook is emitted around the processing of one queued event.
type EventHook struct {
	HookBase
	Event   Event         `json:"event"`
	Outcome *EventOutcome `json:"outcome,omitempty"`
}

// NodeHook is emitted when a node behavior is invoked. Cached reads do not
// produce hooks.
type NodeHook struct {
	HookBase
	Graph    string        `json:"graph"`
	NodeID   string        `json:"node_id"`
	NodeType string        `json:"node_type"`
	Category Category      `json:"category"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for manager observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnGraphInstalled func(context.Context, *GraphHook)
	OnEventStart     func(context.Context, *EventHook)
	OnEventDone      func(context.Context, *EventHook)
	OnNodeEnter      func(context.Context, *NodeHook)
	OnNodeLeave      func(context.Context, *NodeHook)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnGraphInstalled: chain(h.OnGraphInstalled, other.OnGraphInstalled),
		OnEventStart:     chain(h.OnEventStart, other.OnEventStart),
		OnEventDone:      chain(h.OnEventDone, other.OnEventDone),
		OnNodeEnter:      chain(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave:      chain(h.OnNodeLeave, other.OnNodeLeave),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, v T) {
		a(ctx, v)
		b(ctx, v)
	}
}
