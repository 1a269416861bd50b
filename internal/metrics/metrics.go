// Package metrics defines the Prometheus collectors for the surfsup API.
// All metrics use the "surfsup_" prefix.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "surfsup"

var (
	// HTTPRequests counts handled requests by method, matched route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests, by method, route and status code.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration tracks handler latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds, by method and route.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	}, []string{"method", "route"})
)

var (
	// DatasetObservations is the measurement row count seen at startup.
	DatasetObservations = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dataset_observations",
		Help:      "Number of observation rows in the dataset at startup.",
	})

	// MostActiveSelections counts most-active station lookups by the station chosen.
	MostActiveSelections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "most_active_station_selections_total",
		Help:      "Total most-active station selections, by station.",
	}, []string{"station"})
)
