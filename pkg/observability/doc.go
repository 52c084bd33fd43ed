/*
Package observability exports VM activity as Prometheus metrics.

Metrics plugs into the Manager through its lifecycle hooks, so the VM itself
does not depend on Prometheus:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	m := tendril.New(reg, tendril.WithLifecycleHooks(metrics.Hooks()))
*/
package observability
