package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	inference   prometheus.Histogram
	predictions *prometheus.CounterVec
	cacheHits   prometheus.Counter
	modelLoaded prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plantdoc_http_requests_total",
				Help: "HTTP requests served, by method, route and status",
			},
			[]string{"method", "path", "status"},
		),
		inference: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "plantdoc_inference_duration_seconds",
				Help:    "Time spent in the model forward pass",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plantdoc_predictions_total",
				Help: "Top-1 predictions by class",
			},
			[]string{"class"},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "plantdoc_prediction_cache_hits_total",
				Help: "Predictions served from the in-memory cache",
			},
		),
		modelLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "plantdoc_model_loaded",
				Help: "1 when the classification model is loaded",
			},
		),
	}
	m.registry.MustRegister(
		m.requests, m.inference, m.predictions, m.cacheHits, m.modelLoaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, path string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ObserveInference(d time.Duration) {
	if m == nil {
		return
	}
	m.inference.Observe(d.Seconds())
}

func (m *Metrics) ObservePrediction(class string) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(class).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) SetModelLoaded(loaded bool) {
	if m == nil {
		return
	}
	if loaded {
		m.modelLoaded.Set(1)
	} else {
		m.modelLoaded.Set(0)
	}
}
