// Package telemetry exposes Prometheus collectors for the ingestion
// pipeline.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sourcesTotal        *prometheus.CounterVec
	fetchFallbacksTotal *prometheus.CounterVec
	rawEventsTotal      *prometheus.CounterVec
	eventsEmitted       prometheus.Gauge
	geocodeTotal        *prometheus.CounterVec
	assistCallsTotal    *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors. It is safe to call
// this function multiple times.
func Init() {
	once.Do(func() {
		sourcesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cartelera_sources_total",
				Help: "Sources processed, labeled by kind and outcome.",
			},
			[]string{"kind", "status"},
		)

		fetchFallbacksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cartelera_fetch_fallbacks_total",
				Help: "Fetches that escalated past the direct transport, labeled by transport.",
			},
			[]string{"transport"},
		)

		rawEventsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cartelera_raw_events_total",
				Help: "Raw events produced by the parsers, labeled by source kind.",
			},
			[]string{"kind"},
		)

		eventsEmitted = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "cartelera_events_emitted",
				Help: "Canonical events written to the artifacts by the last run.",
			},
		)

		geocodeTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cartelera_geocode_requests_total",
				Help: "Geocoding lookups, labeled by outcome.",
			},
			[]string{"status"},
		)

		assistCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cartelera_assist_calls_total",
				Help: "Text-understanding service calls, labeled by outcome.",
			},
			[]string{"status"},
		)
	})
}

// ObserveSource records one processed source.
func ObserveSource(kind, status string) {
	if sourcesTotal != nil {
		sourcesTotal.WithLabelValues(kind, status).Inc()
	}
}

// ObserveFallback records a fetch served by a non-direct transport.
func ObserveFallback(transport string) {
	if fetchFallbacksTotal != nil {
		fetchFallbacksTotal.WithLabelValues(transport).Inc()
	}
}

// ObserveRawEvents records parser output volume.
func ObserveRawEvents(kind string, n int) {
	if rawEventsTotal != nil && n > 0 {
		rawEventsTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// SetEventsEmitted records the size of the final artifact.
func SetEventsEmitted(n int) {
	if eventsEmitted != nil {
		eventsEmitted.Set(float64(n))
	}
}

// ObserveGeocode records one geocoding lookup.
func ObserveGeocode(status string) {
	if geocodeTotal != nil {
		geocodeTotal.WithLabelValues(status).Inc()
	}
}

// ObserveAssist records one text-understanding call.
func ObserveAssist(status string) {
	if assistCallsTotal != nil {
		assistCallsTotal.WithLabelValues(status).Inc()
	}
}
