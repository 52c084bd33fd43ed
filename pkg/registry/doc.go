// Package registry holds the catalog of node types a graph may instantiate.
//
// A node type is described by a NodeDescriptor: its input and output slots,
// required static parameters and a Behavior. Behaviors form a closed set of
// three variants, dispatched by the evaluator with a type switch:
//
//   - Pure: outputs depend on inputs only; memoized within one event.
//   - Effectful: may use the host, the event sink and the variable store;
//     runs exactly once per event.
//   - Stateful: owns per-instance state that persists across events.
package registry
