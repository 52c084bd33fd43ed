package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Load-time failures. Every *GraphError unwraps to exactly one of these.
var (
	ErrDuplicateNodeType   = errors.New("duplicate node type")
	ErrUnknownNodeType     = errors.New("unknown node type")
	ErrInvalidDescriptor   = errors.New("invalid node descriptor")
	ErrInvalidGraph        = errors.New("invalid graph")
	ErrUnknownSlot         = errors.New("unknown slot")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrCyclicGraph         = errors.New("cyclic graph")
	ErrDanglingConnection  = errors.New("dangling connection")
	ErrMultipleConnections = errors.New("multiple connections to input")
	ErrUnknownEntryPoint   = errors.New("unknown entry point")
)

// Run-time failures captured per event.
var (
	ErrAmbiguousEntryPoint  = errors.New("ambiguous entry point")
	ErrCycleDetected        = errors.New("cycle detected during evaluation")
	ErrHostCapability       = errors.New("host capability error")
	ErrMissingRequiredInput = errors.New("missing required input")
	ErrNodeFailed           = errors.New("node failed")
)

// ErrGraphNotFound is returned when a graph name is not installed or cannot be loaded.
var ErrGraphNotFound = errors.New("graph not found")

// ErrStateNotFound is returned when a state store has no snapshot for a graph.
var ErrStateNotFound = errors.New("state not found")

// GraphError describes why a GraphSpec was rejected.
type GraphError struct {
	Graph string
	// Kind is one of the load-time sentinels.
	Kind error
	// Node is the offending instance id, if any.
	Node string
	// Connection is the offending connection, if any.
	Connection *Connection
	// Path lists the instance ids of a cycle, first id repeated at the end.
	Path   []string
	Detail string
}

func (e *GraphError) Error() string {
	var b strings.Builder
	if e.Graph != "" {
		fmt.Fprintf(&b, "graph %q: ", e.Graph)
	}
	b.WriteString(e.Kind.Error())
	switch {
	case len(e.Path) > 0:
		fmt.Fprintf(&b, " %s", strings.Join(e.Path, " -> "))
	case e.Connection != nil:
		fmt.Fprintf(&b, " at connection %s", e.Connection)
	case e.Node != "":
		fmt.Fprintf(&b, " at node %q", e.Node)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	return b.String()
}

func (e *GraphError) Unwrap() error { return e.Kind }

// EvalError describes why an event failed while running.
type EvalError struct {
	Entry string
	// Node is the instance being evaluated when the failure occurred.
	Node string
	// Slot is set for input resolution failures.
	Slot string
	// Kind is one of the run-time sentinels (or ErrTypeMismatch / ErrUnknownSlot).
	Kind error
	// Err is the underlying cause, if any.
	Err error
}

func (e *EvalError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Node != "" {
		fmt.Fprintf(&b, " at node %q", e.Node)
	}
	if e.Slot != "" {
		fmt.Fprintf(&b, " slot %q", e.Slot)
	}
	if e.Entry != "" {
		fmt.Fprintf(&b, " (entry %q)", e.Entry)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *EvalError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
