// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration observes API latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poseflow_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// SessionsLogged counts practice sessions stored, by entry path (api, ingest).
	SessionsLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseflow_sessions_logged_total",
			Help: "Total number of practice sessions stored",
		},
		[]string{"source"},
	)

	// RecommendationsServed counts recommended poses by reason tag.
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseflow_recommendations_total",
			Help: "Total number of pose recommendations served",
		},
		[]string{"reason"},
	)

	// StreakTransitions counts mark-practiced calls by state machine branch.
	StreakTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseflow_streak_transitions_total",
			Help: "Total number of streak updates by transition",
		},
		[]string{"transition"},
	)

	// CatalogPoses reports the size of the loaded pose catalog.
	CatalogPoses = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "poseflow_catalog_poses",
			Help: "Number of poses in the catalog by difficulty",
		},
		[]string{"difficulty"},
	)
)
