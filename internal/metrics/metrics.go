package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the service collectors. A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	submissionsStarted   prometheus.Counter
	submissionsFinalized prometheus.Counter
	answersRecorded      *prometheus.CounterVec
	scorePercent         prometheus.Histogram
	requestCounter       *prometheus.CounterVec
	requestDuration      *prometheus.HistogramVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		submissionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exam_submissions_started_total",
			Help: "Total number of exam attempts started",
		}),
		submissionsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exam_submissions_finalized_total",
			Help: "Total number of exam attempts scored",
		}),
		answersRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exam_answers_recorded_total",
				Help: "Total number of answers stored",
			},
			[]string{"correct"},
		),
		scorePercent: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "exam_score_percent",
			Help:    "Distribution of finalized scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.submissionsStarted,
		r.submissionsFinalized,
		r.answersRecorded,
		r.scorePercent,
		r.requestCounter,
		r.requestDuration,
	)
	return r
}

func (r *Registry) SubmissionStarted() {
	if r == nil {
		return
	}
	r.submissionsStarted.Inc()
}

func (r *Registry) AnswerRecorded(correct bool) {
	if r == nil {
		return
	}
	r.answersRecorded.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

func (r *Registry) SubmissionFinalized(scorePercent float64) {
	if r == nil {
		return
	}
	r.submissionsFinalized.Inc()
	r.scorePercent.Observe(scorePercent)
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Instrument counts requests by chi route pattern so path ids do not explode label cardinality.
func (r *Registry) Instrument(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		endpoint := req.URL.Path
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.requestCounter.WithLabelValues(req.Method, endpoint, strconv.Itoa(status)).Inc()
		r.requestDuration.WithLabelValues(req.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}
