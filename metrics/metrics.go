package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the animation service.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      prometheus.Counter
	errorsTotal        prometheus.Counter
	sequencesGenerated *prometheus.CounterVec
	framesEmitted      prometheus.Counter
	clipsTotal         *prometheus.CounterVec
	queueDepth         prometheus.Gauge
}

// New creates and registers Prometheus metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "puppetx_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "puppetx_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		sequencesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "puppetx_sequences_generated_total",
			Help: "Total number of stop-motion sequences generated",
		}, []string{"target"}),
		framesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "puppetx_frames_emitted_total",
			Help: "Total number of frames sent to renderers",
		}),
		clipsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "puppetx_clips_total",
			Help: "Total number of clips that finished playing, by outcome",
		}, []string{"outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "puppetx_queue_depth",
			Help: "Number of clips waiting to play",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.sequencesGenerated,
		m.framesEmitted,
		m.clipsTotal,
		m.queueDepth,
	)

	return m
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncSequences counts a generated sequence for target.
func (m *Metrics) IncSequences(target string) {
	m.sequencesGenerated.WithLabelValues(target).Inc()
}

// IncFramesEmitted counts one frame sent to a renderer.
func (m *Metrics) IncFramesEmitted() {
	m.framesEmitted.Inc()
}

// IncClips counts a finished clip by outcome.
func (m *Metrics) IncClips(outcome string) {
	m.clipsTotal.WithLabelValues(outcome).Inc()
}

// SetQueueDepth sets the queue depth gauge.
func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RequestMiddleware returns chi-compatible middleware that records request
// and error counts.
func RequestMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			m.IncRequests()
			if ww.Status() >= 400 {
				m.IncErrors()
			}
		})
	}
}
