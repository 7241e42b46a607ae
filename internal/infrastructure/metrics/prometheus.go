package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc/status"
)

// PrometheusExporter exports metrics in Prometheus format from its own registry.
type PrometheusExporter struct {
	collector *Collector
	registry  *prometheus.Registry

	grpcRequests *prometheus.CounterVec
	grpcDuration *prometheus.HistogramVec
	cacheHits    *prometheus.GaugeVec
	cacheMisses  *prometheus.GaugeVec
	cacheKeys    *prometheus.GaugeVec
}

// NewPrometheusExporter creates a new Prometheus exporter.
func NewPrometheusExporter(collector *Collector) *PrometheusExporter {
	e := &PrometheusExporter{
		collector: collector,
		registry:  prometheus.NewRegistry(),
		grpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eav_grpc_requests_total",
			Help: "Total number of gRPC requests by method and status code",
		}, []string{"method", "code"}),
		grpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eav_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}, []string{"method"}),
		cacheHits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eav_cache_hits",
			Help: "Cache hits since start",
		}, []string{"cache"}),
		cacheMisses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eav_cache_misses",
			Help: "Cache misses since start",
		}, []string{"cache"}),
		cacheKeys: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eav_cache_keys",
			Help: "Current number of cached keys",
		}, []string{"cache"}),
	}

	e.registry.MustRegister(e.grpcRequests, e.grpcDuration, e.cacheHits, e.cacheMisses, e.cacheKeys)
	return e
}

// ObserveCall records one gRPC call.
func (e *PrometheusExporter) ObserveCall(method string, durationSeconds float64, err error) {
	e.grpcRequests.WithLabelValues(method, status.Code(err).String()).Inc()
	e.grpcDuration.WithLabelValues(method).Observe(durationSeconds)
}

// Update refreshes cache gauges from the collector.
func (e *PrometheusExporter) Update() {
	for _, m := range e.collector.GetCacheMetrics() {
		e.cacheHits.WithLabelValues(m.Name).Set(float64(m.Hits))
		e.cacheMisses.WithLabelValues(m.Name).Set(float64(m.Misses))
		e.cacheKeys.WithLabelValues(m.Name).Set(float64(m.KeysCurrent))
	}
}

// Handler serves the registry, refreshing cache gauges on every scrape.
func (e *PrometheusExporter) Handler() http.Handler {
	inner := promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.Update()
		inner.ServeHTTP(w, r)
	})
}
