package observability

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "tendril"

// Metrics collects event and node counters.
type Metrics struct {
	Events          *prometheus.CounterVec
	EventDuration   *prometheus.HistogramVec
	NodeInvocations *prometheus.CounterVec
	NodeFailures    *prometheus.CounterVec
	GraphInstalls   *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_total",
			Help:      "Processed events by graph and outcome.",
		}, []string{"graph", "status"}),
		EventDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "event_duration_seconds",
			Help:      "Time spent evaluating an event.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"graph"}),
		NodeInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "node_invocations_total",
			Help:      "Node behavior invocations by type and category.",
		}, []string{"type", "category"}),
		NodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "node_failures_total",
			Help:      "Node behavior invocations that returned an error.",
		}, []string{"type"}),
		GraphInstalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "graph_installs_total",
			Help:      "Graph installs, split by first install and replacement.",
		}, []string{"graph", "replaced"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "queue_depth",
			Help:      "Events waiting for the next drain.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Events, m.EventDuration, m.NodeInvocations, m.NodeFailures, m.GraphInstalls, m.QueueDepth)
	}
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnGraphInstalled: func(_ context.Context, h *domain.GraphHook) {
			replaced := "false"
			if h.Replaced {
				replaced = "true"
			}
			m.GraphInstalls.WithLabelValues(h.Graph, replaced).Inc()
		},
		OnEventDone: func(_ context.Context, h *domain.EventHook) {
			if h.Outcome == nil {
				return
			}
			graph := h.Outcome.Graph
			if graph == "" {
				graph = "unresolved"
			}
			m.Events.WithLabelValues(graph, string(h.Outcome.Status)).Inc()
			m.EventDuration.WithLabelValues(graph).Observe(h.Outcome.Duration.Seconds())
		},
		OnNodeLeave: func(_ context.Context, h *domain.NodeHook) {
			m.NodeInvocations.WithLabelValues(h.NodeType, string(h.Category)).Inc()
			if h.Err != nil {
				m.NodeFailures.WithLabelValues(h.NodeType).Inc()
			}
		},
	}
}

// SetQueueDepth records the number of pending events.
func (m *Metrics) SetQueueDepth(n int) {
	m.QueueDepth.Set(float64(n))
}
