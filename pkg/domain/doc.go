/*
Package domain contains the core models shared by every layer of the flow VM.

It defines the graph description that hosts load from assets, the events that
drive execution and the outcomes they produce. The package holds data and
error taxonomy only; it performs no I/O and knows nothing about persistence
or transport.

# Key Entities

  - SlotSpec: a named, kinded input or output of a node type.
  - NodeInstance: one placement of a node type inside a graph, with static parameters.
  - Connection: a directed wire from an output slot to an input slot.
  - GraphSpec: the raw, unvalidated description of a graph (instances, wires, entry points).
  - Event / EventOutcome: a queued trigger of an entry point and the result of draining it.
  - StateSnapshot: the persisted state of the stateful instances of one graph.
*/
package domain
