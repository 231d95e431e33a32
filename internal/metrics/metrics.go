package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ew_api_requests_total",
			Help: "Number of API requests",
		},
		[]string{"method", "path", "status"},
	)
	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ew_api_latency_seconds",
			Help:    "API latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	Entities = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ew_entities_total",
			Help: "Number of compiled entities",
		},
	)
	SchemaReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ew_schema_reloads_total",
			Help: "Schema reload attempts by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(APIRequests, APILatency, Entities, SchemaReloads)
}
