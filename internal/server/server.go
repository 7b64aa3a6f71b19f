package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"s3-file-drop/internal/audit"
	"s3-file-drop/internal/storage"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
}

// ActivityLog is the part of *audit.Log the handlers use.
type ActivityLog interface {
	Record(ctx context.Context, ev audit.Event) error
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
	Ping(ctx context.Context) error
}

type Config struct {
	Addr  string // e.g. ":3000"
	Build BuildInfo

	Store    storage.Store
	Activity ActivityLog // nil disables /activity and event recording

	// ActivityTimeout bounds each activity log write. 0 means activityWriteTimeout.
	ActivityTimeout time.Duration

	MaxUploadBytes int64 // 0 means no limit
	AllowOrigins   []string
	RateLimitRPS   float64 // 0 disables rate limiting
	RateLimitBurst int

	Logger   zerolog.Logger
	Registry *prometheus.Registry // nil creates a private registry
}

// compressibleTypes are gzipped when the client accepts it. The Prometheus
// handler negotiates its own encoding.
var compressibleTypes = []string{
	"application/json",
	"text/html",
	"text/css",
	"text/javascript",
	"application/javascript",
}

type Server struct {
	httpServer *http.Server

	cfg      Config
	store    storage.Store
	activity ActivityLog
	log      zerolog.Logger
	metrics  *Metrics
}

func New(cfg Config) *Server {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if cfg.ActivityTimeout <= 0 {
		cfg.ActivityTimeout = activityWriteTimeout
	}

	s := &Server{
		cfg:      cfg,
		store:    cfg.Store,
		activity: cfg.Activity,
		log:      cfg.Logger,
		metrics:  NewMetrics(reg),
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// requestID -> logging -> recover -> headers -> compression -> routes
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(corsMiddleware(s.cfg.AllowOrigins))
	r.Use(middleware.Compress(5, compressibleTypes...))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/live", s.handleLive)
	r.Handle("/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimitRPS > 0 {
			r.Use(newRateLimiter(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst).middleware)
		}
		r.Post("/upload", s.handleUpload)
		r.Get("/files", s.handleListFiles)
		r.Post("/delete", s.handleDelete)
		r.Post("/download", s.handleDownload)
		r.Get("/activity", s.handleActivity)
	})

	r.Get("/*", staticHandler().ServeHTTP)

	return r
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
