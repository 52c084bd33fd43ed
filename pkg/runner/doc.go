/*
Package runner drives a tendril Manager from the outside world.

The Manager has a single logical owner. Driver is that owner when several
producers (an HTTP handler, an MQTT bridge, a console) feed the same VM: it
serializes every call behind a mutex and drains the queue on a fixed tick.

# Key Components

  - Driver: the tick loop, with optional hot reload and state checkpoints.
  - IOHandler: decouples how events are read and outcomes are shown.
  - TextHandler / JSONHandler: line-based console and JSON-Lines implementations.

# Usage

	d := runner.NewDriver(m,
		runner.WithInterval(50*time.Millisecond),
		runner.WithCheckpoint(time.Minute),
	)
	go d.Run(ctx)
	d.Enqueue("door/opened", map[string]any{"value": 1})
*/
package runner
