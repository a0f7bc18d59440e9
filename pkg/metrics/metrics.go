package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PermissionChecks counts permission evaluations and their outcome (granted|denied|error).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casedesk_permission_checks_total",
			Help: "Total number of permission checks",
		},
		[]string{"result"},
	)

	// CacheLookups counts permission cache lookups by result (hit|miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casedesk_permission_cache_lookups_total",
			Help: "Total number of permission cache lookups",
		},
		[]string{"result"},
	)

	// CacheEntries tracks the number of live entries in the permission cache.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "casedesk_permission_cache_entries",
			Help: "Number of entries currently held by the permission cache",
		},
	)

	// CacheInvalidations counts explicit invalidations by criteria (user|role|company|all).
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casedesk_permission_cache_invalidations_total",
			Help: "Total number of explicit cache invalidations",
		},
		[]string{"criteria"},
	)

	// ResolveDuration measures effective-permission resolution latency.
	ResolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "casedesk_permission_resolve_seconds",
			Help:    "Time spent resolving effective permission sets",
			Buckets: prometheus.DefBuckets,
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casedesk_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
