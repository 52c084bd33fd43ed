package domain

import "time"

// QualifiedEntrySeparator separates a graph name from an entry name in a
// qualified entry reference such as "door/opened".
const QualifiedEntrySeparator = "/"

// Event is a request to run an entry point with a payload.
type Event struct {
	ID string `json:"id"`
	// Graph restricts resolution to one installed graph. Empty means any.
	Graph      string         `json:"graph,omitempty"`
	Entry      string         `json:"entry"`
	Payload    map[string]any `json:"payload,omitempty"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

// OutcomeStatus tells whether an event completed.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

// EventOutcome is the result of draining one event.
type EventOutcome struct {
	EventID string        `json:"event_id"`
	Graph   string        `json:"graph,omitempty"`
	Entry   string        `json:"entry"`
	Status  OutcomeStatus `json:"status"`

	// Outputs holds the outputs of the entry node on success.
	Outputs map[string]any `json:"outputs,omitempty"`

	// Reason is the human readable failure; Err keeps the typed error.
	Reason string `json:"reason,omitempty"`
	Err    error  `json:"-"`

	Duration time.Duration `json:"duration"`
}

// Succeeded reports whether the event completed without error.
func (o EventOutcome) Succeeded() bool { return o.Status == OutcomeSucceeded }
