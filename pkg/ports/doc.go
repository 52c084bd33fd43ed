/*
Package ports defines the interfaces between the flow VM and the outside world.

These interfaces decouple the manager and the node library from concrete
implementations, allowing the same graphs to run against an in-memory world,
Redis, or an MQTT-connected host, and to load assets from disk or a Loam
repository.

# Key Interfaces

  - Host: the capability boundary through which effectful nodes read and write
    the host world and emit values.
  - EventSink / Variables: re-entrant capabilities the manager hands to nodes.
  - GraphLoader / Watchable: sources of graph assets, optionally with change notification.
  - StateStore: persistence of stateful node snapshots.
*/
package ports
