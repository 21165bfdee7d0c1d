package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shuttletrack"

// Metrics covers the ingestion path and broker health.
type Metrics struct {
	registry *prometheus.Registry

	MessagesReceived  *prometheus.CounterVec
	MessagesRejected  *prometheus.CounterVec
	MessagesProcessed *prometheus.CounterVec
	MessagesDropped   prometheus.Counter
	Republished       prometheus.Counter
	ZoneMatches       prometheus.Counter
	QueueDepth        prometheus.Gauge
	BrokerConnected   prometheus.Gauge
}

// New builds and registers all ingest metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		MessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "messages_received_total",
				Help:      "Messages received from the broker, by topic class",
			},
			[]string{"class"},
		),
		MessagesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "messages_rejected_total",
				Help:      "Messages rejected by validation, by reason",
			},
			[]string{"reason"},
		),
		MessagesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "messages_processed_total",
				Help:      "Messages fully processed by the pipeline worker",
			},
			[]string{"class"},
		),
		MessagesDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "messages_dropped_total",
				Help:      "Validated messages dropped because the work queue was full or stopped",
			},
		),
		Republished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "republished_total",
				Help:      "Updates re-emitted on the live location topic",
			},
		),
		ZoneMatches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "zones",
				Name:      "matches_total",
				Help:      "Zone containment matches",
			},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "queue_depth",
				Help:      "Readings waiting in the dispatcher queue",
			},
		),
		BrokerConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "broker",
				Name:      "connected",
				Help:      "Broker connection status (1=connected)",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.MessagesReceived,
		m.MessagesRejected,
		m.MessagesProcessed,
		m.MessagesDropped,
		m.Republished,
		m.ZoneMatches,
		m.QueueDepth,
		m.BrokerConnected,
	)

	return m
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
