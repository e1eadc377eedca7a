// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package recommend

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	providerFailures *prometheus.CounterVec
	latency          prometheus.Histogram
}

// NewMetrics creates and registers the engine collectors. A nil registerer
// creates unregistered collectors, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recommender",
			Name:      "requests_total",
			Help:      "Recommendation requests by path.",
		}, []string{"path"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "recommender",
			Name:      "cache_hits_total",
			Help:      "Result cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "recommender",
			Name:      "cache_misses_total",
			Help:      "Result cache misses.",
		}),
		providerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recommender",
			Name:      "provider_failures_total",
			Help:      "Provider calls treated as unavailable.",
		}, []string{"provider"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "recommender",
			Name:      "request_duration_seconds",
			Help:      "End-to-end recommendation latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(m.requestsTotal, m.cacheHits, m.cacheMisses, m.providerFailures, m.latency)
	}
	return m
}
