package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"jee-exam-service/internal/app"
	"jee-exam-service/internal/metrics"
)

// RouterOptions tunes NewRouter. A nil Metrics disables /metrics and request instrumentation.
type RouterOptions struct {
	Metrics        *metrics.Registry
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// NewRouter wires health, metrics, websocket and REST endpoints.
func NewRouter(service *app.ExamService, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(opts.Metrics.Instrument)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	r.HandleFunc("/ws", NewWSHandler(service, logger).ServeWS)

	rest := NewRESTHandler(service, logger)
	r.Route("/api", func(api chi.Router) {
		if opts.RequestTimeout > 0 {
			api.Use(middleware.Timeout(opts.RequestTimeout))
		}
		rest.Routes(api)
	})
	return r
}
