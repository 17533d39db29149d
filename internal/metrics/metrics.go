// Package metrics exposes Prometheus counters for inventory actions, alerts,
// exports and HTTP requests. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors and the registry they live in.
type Metrics struct {
	Registry *prometheus.Registry

	Actions         *prometheus.CounterVec
	LowStockAlerts  prometheus.Counter
	ExpiryAlerts    *prometheus.CounterVec
	Exports         *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them, along with the Go runtime
// and process collectors, in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qmedic",
			Name:      "inventory_actions_total",
			Help:      "Inventory actions processed, by action kind and result.",
		}, []string{"action", "result"}),
		LowStockAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qmedic",
			Name:      "low_stock_alerts_total",
			Help:      "Low stock alerts raised by inventory actions.",
		}),
		ExpiryAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qmedic",
			Name:      "expiry_alerts_total",
			Help:      "Expiry warnings raised by the expiry scan, by kind.",
		}, []string{"kind"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qmedic",
			Name:      "exports_total",
			Help:      "Inventory exports, by format and status.",
		}, []string{"format", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "qmedic",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route pattern and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Actions,
		m.LowStockAlerts,
		m.ExpiryAlerts,
		m.Exports,
		m.RequestDuration,
	)
	return m
}

// Action results.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultFailed   = "failed"
)

// ObserveAction counts one processed action.
func (m *Metrics) ObserveAction(action, result string) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(action, result).Inc()
}

// ObserveLowStockAlert counts one low stock alert.
func (m *Metrics) ObserveLowStockAlert() {
	if m == nil {
		return
	}
	m.LowStockAlerts.Inc()
}

// ObserveExpiryAlert counts one expiry alert of the given kind.
func (m *Metrics) ObserveExpiryAlert(kind string) {
	if m == nil {
		return
	}
	m.ExpiryAlerts.WithLabelValues(kind).Inc()
}

// ObserveExport counts one export attempt.
func (m *Metrics) ObserveExport(format, status string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(format, status).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request latency labelled by the matched route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.WithLabelValues(route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
