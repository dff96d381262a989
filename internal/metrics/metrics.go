// Package metrics holds the Prometheus collectors for the ingest pipeline.
//
// Collectors are registered on the default registry and exposed on /metrics
// when SERVER_ENABLE_METRICS is set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveassist_events_ingested_total",
			Help: "Events durably recorded, by event type",
		},
		[]string{"type"},
	)

	EventPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "liveassist_event_persist_failures_total",
			Help: "Ingest requests rejected because the event could not be stored",
		},
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "liveassist_ingest_duration_seconds",
			Help:    "Wall time of one ingestion including forwarding and dispatch",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 10, 20},
		},
		[]string{"type"},
	)

	GatewayAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveassist_gateway_attempts_total",
			Help: "Delivery attempts per gateway endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	GatewayUndelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "liveassist_gateway_undelivered_total",
			Help: "Broadcasts for which every gateway candidate failed",
		},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "liveassist_gateway_breaker_state",
			Help: "Circuit breaker state per endpoint (0=closed, 1=half-open, 2=open)",
		},
		[]string{"endpoint"},
	)

	ActionsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveassist_rule_actions_triggered_total",
			Help: "Action specs produced by rule matching",
		},
		[]string{"action"},
	)

	ActionsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveassist_rule_actions_dispatched_total",
			Help: "Dispatched actions by kind and outcome",
		},
		[]string{"action", "outcome"},
	)

	SpoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "liveassist_spool_items",
			Help: "Undelivered broadcasts waiting in the spool",
		},
	)

	SpoolRedelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveassist_spool_redeliveries_total",
			Help: "Spool redelivery attempts by result",
		},
		[]string{"result"},
	)
)
