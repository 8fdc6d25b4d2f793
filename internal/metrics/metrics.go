// Package metrics exposes Prometheus collectors for the storage pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors on a private registry, so every instance can
// be created independently (one per process, one per test).
type Metrics struct {
	registry *prometheus.Registry

	ImagesStored     *prometheus.CounterVec
	SessionsCreated  prometheus.Counter
	QRProviderCalls  *prometheus.CounterVec
	QRCacheLookups   *prometheus.CounterVec
	BundleItems      *prometheus.CounterVec
	LinkDeliveries   *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ImagesStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photomaton_images_stored_total",
			Help: "Images handed to the storage backend, by backend and outcome.",
		}, []string{"backend", "outcome"}),
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "photomaton_sessions_created_total",
			Help: "Sessions persisted.",
		}),
		QRProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photomaton_qr_provider_calls_total",
			Help: "QR rendering attempts, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		QRCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photomaton_qr_cache_lookups_total",
			Help: "QR cache lookups, by result.",
		}, []string{"result"}),
		BundleItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photomaton_bundle_items_total",
			Help: "Items considered for ZIP bundles, written or skipped.",
		}, []string{"outcome"}),
		LinkDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photomaton_link_deliveries_total",
			Help: "Shareable link deliveries, by sender and outcome.",
		}, []string{"sender", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "photomaton_upstream_request_seconds",
			Help:    "Latency of outbound calls to storage, QR and image hosts.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"target"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ImagesStored,
		m.SessionsCreated,
		m.QRProviderCalls,
		m.QRCacheLookups,
		m.BundleItems,
		m.LinkDeliveries,
		m.UpstreamDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome maps an error to the "ok"/"error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
