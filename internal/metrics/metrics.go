package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	uploadsTotal      *prometheus.CounterVec
	uploadBytes       prometheus.Histogram
	inferenceDuration *prometheus.HistogramVec
	verdictsTotal     *prometheus.CounterVec
}

// New registers the service collectors on reg. service ends up as a constant
// label so both binaries can share a dashboard.
func New(reg *prometheus.Registry, service string) *Metrics {
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"service": service}

	return &Metrics{
		gatherer: reg,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "vision",
			Name:        "http_requests_total",
			Help:        "HTTP requests by route and status code",
			ConstLabels: constLabels,
		}, []string{"route", "method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "vision",
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"route"}),

		uploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "vision",
			Name:        "uploads_total",
			Help:        "Uploads by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),

		uploadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "vision",
			Name:        "upload_size_bytes",
			Help:        "Size of accepted uploads",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(16<<10, 4, 6), // 16KB to 16MB
		}),

		inferenceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "vision",
			Name:        "inference_duration_seconds",
			Help:        "Time spent in the inference backend",
			ConstLabels: constLabels,
			Buckets:     []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"detector"}),

		verdictsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "vision",
			Name:        "verdicts_total",
			Help:        "Verdicts by label",
			ConstLabels: constLabels,
		}, []string{"label"}),
	}
}

func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) Upload(outcome string) {
	m.uploadsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) UploadSize(n int) {
	m.uploadBytes.Observe(float64(n))
}

func (m *Metrics) Inference(detector string, d time.Duration) {
	m.inferenceDuration.WithLabelValues(detector).Observe(d.Seconds())
}

func (m *Metrics) Verdict(label string) {
	m.verdictsTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
