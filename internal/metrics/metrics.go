// Package metrics defines the Prometheus collectors exported by coda-mcp.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coda"

// Metrics groups every collector. A nil *Metrics is valid and records nothing,
// so components can take one unconditionally.
type Metrics struct {
	apiRequests  *prometheus.CounterVec
	apiDuration  *prometheus.HistogramVec
	toolCalls    *prometheus.CounterVec
	exports      *prometheus.CounterVec
	pollAttempts prometheus.Histogram
	gatherer     prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Requests sent to the Coda API, by method and HTTP status.",
		}, []string{"method", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Latency of Coda API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "MCP tool invocations, by tool and outcome.",
		}, []string{"tool", "outcome"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_exports_total",
			Help:      "Page export workflows, by terminal outcome.",
		}, []string{"outcome"}),
		pollAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_export_poll_attempts",
			Help:      "Status polls issued per page export.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 30},
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.apiRequests, m.apiDuration, m.toolCalls, m.exports, m.pollAttempts)
	return m
}

// ObserveAPIRequest records one Coda API round trip. status is 0 when the
// request never produced a response.
func (m *Metrics) ObserveAPIRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.apiRequests.WithLabelValues(method, label).Inc()
	m.apiDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveToolCall records one MCP tool invocation.
func (m *Metrics) ObserveToolCall(tool, outcome string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

// ObserveExport records the terminal outcome of a page export and how many
// polls it took.
func (m *Metrics) ObserveExport(outcome string, attempts int) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		m.pollAttempts.Observe(float64(attempts))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
