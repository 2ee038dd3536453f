// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "evm"

// Metrics holds the voting counters. All methods are safe on a nil
// receiver so components can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	VotesCast      *prometheus.CounterVec
	VotesDuplicate *prometheus.CounterVec
	VotesFailed    *prometheus.CounterVec
	LedgerRetries  prometheus.Counter
	LedgerLatency  *prometheus.HistogramVec
	Sessions       prometheus.Gauge
}

// New registers the voting metrics on a fresh registry. Each call is
// independent, so tests can build as many as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		VotesCast: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_cast_total",
				Help:      "Votes durably recorded, by race type and seat",
			},
			[]string{"race_type", "seat"},
		),
		VotesDuplicate: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_duplicate_total",
				Help:      "Casts rejected because the voter already voted in the race",
			},
			[]string{"race_type", "seat"},
		),
		VotesFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_failed_total",
				Help:      "Casts that failed to persist after retries",
			},
			[]string{"race_type", "seat"},
		),
		LedgerRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "retries_total",
			Help:      "Transient ledger failures that were retried",
		}),
		LedgerLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "increment_seconds",
				Help:      "Time spent in a ledger increment, retries included",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
			},
			[]string{"outcome"},
		),
		Sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_sessions",
			Help:      "Voter sessions with a live controller",
		}),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) VoteCast(raceType, seat string) {
	if m == nil {
		return
	}
	m.VotesCast.WithLabelValues(raceType, seat).Inc()
}

func (m *Metrics) VoteDuplicate(raceType, seat string) {
	if m == nil {
		return
	}
	m.VotesDuplicate.WithLabelValues(raceType, seat).Inc()
}

func (m *Metrics) VoteFailed(raceType, seat string) {
	if m == nil {
		return
	}
	m.VotesFailed.WithLabelValues(raceType, seat).Inc()
}

func (m *Metrics) LedgerRetry() {
	if m == nil {
		return
	}
	m.LedgerRetries.Inc()
}

// ObserveLedger records one increment; outcome is "ok" or "error"
func (m *Metrics) ObserveLedger(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.LedgerLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.Sessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.Sessions.Dec()
}
