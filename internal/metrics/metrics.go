// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metrics exposes Prometheus instrumentation for the polling
// processor on a separate listener, disabled by default.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics holds all processor instruments. A nil *Metrics is valid and turns
// every record call into a no-op, so the processor never branches on whether
// metrics are enabled.
type Metrics struct {
	CyclesTotal          prometheus.Counter
	CycleDuration        prometheus.Histogram
	ItemsProcessed       *prometheus.CounterVec
	ItemsSkipped         prometheus.Counter
	ProbeAttempts        prometheus.Counter
	VerificationFailures prometheus.Counter
	SkipCacheEntries     *prometheus.GaugeVec
}

// New registers all instruments on the default registry.
func New() *Metrics {
	return &Metrics{
		CyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamdarr_cycles_total",
			Help: "Number of completed polling cycles",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "streamdarr_cycle_duration_seconds",
			Help:    "Wall time of one full polling cycle",
			Buckets: prometheus.DefBuckets,
		}),
		ItemsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streamdarr_items_processed_total",
			Help: "Processed wanted items by media kind and outcome",
		}, []string{"kind", "outcome"}),
		ItemsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamdarr_items_skipped_total",
			Help: "Wanted items skipped due to a recent prior attempt",
		}),
		ProbeAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamdarr_probe_attempts_total",
			Help: "Download trigger probes issued",
		}),
		VerificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamdarr_verification_failures_total",
			Help: "Candidates that failed post-trigger verification",
		}),
		SkipCacheEntries: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "streamdarr_skip_cache_entries",
			Help: "Skip-cache entries by recorded outcome",
		}, []string{"outcome"}),
	}
}

// RecordCycle observes one finished cycle.
func (m *Metrics) RecordCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.Inc()
	m.CycleDuration.Observe(d.Seconds())
}

// RecordItem counts one processed item outcome.
func (m *Metrics) RecordItem(kind, outcome string) {
	if m == nil {
		return
	}
	m.ItemsProcessed.WithLabelValues(kind, outcome).Inc()
}

// RecordSkip counts one skip-cache hit.
func (m *Metrics) RecordSkip() {
	if m == nil {
		return
	}
	m.ItemsSkipped.Inc()
}

// RecordProbe counts one trigger probe.
func (m *Metrics) RecordProbe() {
	if m == nil {
		return
	}
	m.ProbeAttempts.Inc()
}

// RecordVerificationFailure counts one failed verification.
func (m *Metrics) RecordVerificationFailure() {
	if m == nil {
		return
	}
	m.VerificationFailures.Inc()
}

// SetSkipCacheSize updates the skip-cache gauges.
func (m *Metrics) SetSkipCacheSize(successful, failed int) {
	if m == nil {
		return
	}
	m.SkipCacheEntries.WithLabelValues("success").Set(float64(successful))
	m.SkipCacheEntries.WithLabelValues("failed").Set(float64(failed))
}

// Server serves /metrics and /healthz on its own host:port.
type Server struct {
	host string
	port int
}

// NewServer creates the metrics listener.
func NewServer(host string, port int) *Server {
	return &Server{host: host, port: port}
}

// ListenAndServe blocks serving the metrics endpoint.
func (s *Server) ListenAndServe() error {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	log.Info().Str("addr", addr).Msg("Starting metrics server")
	return http.ListenAndServe(addr, r)
}
