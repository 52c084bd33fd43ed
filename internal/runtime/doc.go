// Package runtime contains the evaluation machinery behind the flow manager:
// the per-event execution context, the memoizing pull evaluator, the storage
// of stateful node state and the double-buffered event queue.
package runtime
