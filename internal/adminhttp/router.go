package adminhttp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cuemby/reflex-dispatch/internal/adminhttp/authmw"
	"github.com/cuemby/reflex-dispatch/internal/store"
)

// Config holds the admin HTTP surface's own settings: rate limiting and
// bearer-token auth guarding mutation endpoints. This surface is operator
// tooling, not a public API.
type Config struct {
	RateLimitRPS int
	Auth         authmw.Config
}

// Server is the dispatch core's administrative HTTP surface: DLQ
// inspection and retry, replay, and liveness/readiness checks. It carries
// no event-ingestion routes — producing events is out of this core's
// scope.
type Server struct {
	store  store.Store
	health healthcheck.Handler
	logger *slog.Logger
	cfg    Config
}

// NewServer constructs the admin Server. health may be nil, in which case
// a bare healthcheck.NewHandler() with no checks registered is used.
func NewServer(s store.Store, health healthcheck.Handler, registry *prometheus.Registry, logger *slog.Logger, cfg Config) *Server {
	if health == nil {
		health = healthcheck.NewHandler()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 50
	}
	return &Server{store: s, health: health, logger: logger, cfg: cfg}
}

// Router builds the chi router: health checks and metrics are
// unauthenticated; DLQ/replay routes are rate-limited and, when
// cfg.Auth.Enabled, bearer-token guarded.
func (s *Server) Router(registry *prometheus.Registry) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.health.LiveEndpoint)
	r.Get("/readyz", s.health.ReadyEndpoint)
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/dlq", func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.cfg.RateLimitRPS, time.Second))
		r.Get("/", s.dlqListHandler)
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireBearer(s.cfg.Auth))
			r.Post("/{id}/retry", s.dlqRetryHandler)
			r.Post("/retry-all", s.dlqRetryAllHandler)
		})
	})

	r.Route("/replay", func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.cfg.RateLimitRPS, time.Second))
		r.Get("/", s.replayHandler)
	})

	return r
}

// requestLogger logs one structured line per request, mirroring the
// teacher's transport-layer request logging middleware.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("admin request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}
