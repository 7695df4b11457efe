package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process collectors on a private registry.
type Metrics struct {
	registry     *prometheus.Registry
	dispatch     *prometheus.CounterVec
	render       *prometheus.HistogramVec
	authAttempts *prometheus.CounterVec
}

// New registers gatehouse collectors plus Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Subsystem: "shell",
			Name:      "dispatch_total",
			Help:      "Shell dispatches by route and outcome.",
		}, []string{"route", "outcome"}),
		render: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gatehouse",
			Subsystem: "shell",
			Name:      "render_seconds",
			Help:      "Time spent dispatching and rendering a shell request.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Sign-in and sign-up attempts by result.",
		}, []string{"action", "result"}),
	}
	m.registry.MustRegister(
		m.dispatch,
		m.render,
		m.authAttempts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveDispatch records one shell dispatch.
func (m *Metrics) ObserveDispatch(route, outcome string, elapsed time.Duration) {
	m.dispatch.WithLabelValues(route, outcome).Inc()
	m.render.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveAuth records one authentication attempt.
func (m *Metrics) ObserveAuth(action, result string) {
	m.authAttempts.WithLabelValues(action, result).Inc()
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
