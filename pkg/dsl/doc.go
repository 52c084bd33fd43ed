/*
Package dsl provides a fluent builder for constructing graph specs in Go.

It is an alternative to graph files for tests, embedded scenarios and generated graphs.

	spec, err := dsl.New("door").
		Node("open", "host.set").Params(map[string]any{"entity": "door", "component": "open"}).
		AsEntry("open").
		To("value", "log.value").
		Node("log", "print").
		Build()
*/
package dsl
