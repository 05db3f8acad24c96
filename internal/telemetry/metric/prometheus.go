package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bindplan"

// Bind attempt results.
const (
	ResultSuccess      = "success"
	ResultAddressInUse = "address_in_use"
	ResultError        = "error"
)

// Certificate load results.
const (
	CertLoaded  = "loaded"
	CertMissing = "missing"
	CertFailed  = "failed"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	BindAttempts       *prometheus.CounterVec
	BindDuration       *prometheus.HistogramVec
	BoundEndpoints     prometheus.Gauge
	StrategySelections *prometheus.CounterVec

	CertificateLoads   *prometheus.CounterVec
	CertificateReloads *prometheus.CounterVec
	CertificateExpiry  *prometheus.GaugeVec
}

// NewRegistry creates a registry with runtime collectors and the bind
// pipeline metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		BindAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bind",
			Name:      "attempts_total",
			Help:      "Endpoint bind attempts by endpoint kind, scheme and result.",
		}, []string{"kind", "scheme", "result"}),

		BindDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bind",
			Name:      "duration_seconds",
			Help:      "Time spent binding a single endpoint.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"kind"}),

		BoundEndpoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bound_endpoints",
			Help:      "Endpoints bound by the last bind pass.",
		}),

		StrategySelections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bind",
			Name:      "strategy_total",
			Help:      "Binding strategy selections.",
		}, []string{"strategy"}),

		CertificateLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "certificate",
			Name:      "loads_total",
			Help:      "Certificate resolutions by source and result.",
		}, []string{"source", "result"}),

		CertificateReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "certificate",
			Name:      "reloads_total",
			Help:      "Certificate file reloads triggered by file changes.",
		}, []string{"result"}),

		CertificateExpiry: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "certificate",
			Name:      "not_after_timestamp_seconds",
			Help:      "Expiry of the leaf certificate served by an endpoint.",
		}, []string{"endpoint"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.BindAttempts,
		r.BindDuration,
		r.BoundEndpoints,
		r.StrategySelections,
		r.CertificateLoads,
		r.CertificateReloads,
		r.CertificateExpiry,
	)
	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns the /metrics handler of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler exposing this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the underlying registry for tests and embedding.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveBind records one bind attempt.
func (r *Registry) ObserveBind(kind, scheme, result string, d time.Duration) {
	if r == nil {
		return
	}
	r.BindAttempts.WithLabelValues(kind, scheme, result).Inc()
	r.BindDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// SetBoundEndpoints records the number of endpoints bound by a pass.
func (r *Registry) SetBoundEndpoints(n int) {
	if r == nil {
		return
	}
	r.BoundEndpoints.Set(float64(n))
}

// RecordStrategy records a strategy selection.
func (r *Registry) RecordStrategy(strategy string) {
	if r == nil {
		return
	}
	r.StrategySelections.WithLabelValues(strategy).Inc()
}

// RecordCertificateLoad records a certificate resolution.
func (r *Registry) RecordCertificateLoad(source, result string) {
	if r == nil {
		return
	}
	r.CertificateLoads.WithLabelValues(source, result).Inc()
}

// RecordCertificateReload records a watched certificate reload.
func (r *Registry) RecordCertificateReload(ok bool) {
	if r == nil {
		return
	}
	result := ResultSuccess
	if !ok {
		result = ResultError
	}
	r.CertificateReloads.WithLabelValues(result).Inc()
}

// SetCertificateExpiry records the leaf expiry for an endpoint.
func (r *Registry) SetCertificateExpiry(endpoint string, notAfter time.Time) {
	if r == nil {
		return
	}
	r.CertificateExpiry.WithLabelValues(endpoint).Set(float64(notAfter.Unix()))
}
