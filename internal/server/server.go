// Package server is the ClawKit HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/getclawkit/clawkit/internal/cost"
	"github.com/getclawkit/clawkit/internal/pricing"
	"github.com/getclawkit/clawkit/internal/probe"
	"github.com/getclawkit/clawkit/internal/skills"
	"github.com/getclawkit/clawkit/internal/status"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options configure a Server. Store is required; everything else has a
// default.
type Options struct {
	Store   *skills.Store
	Status  *status.Checker
	Prober  *probe.Prober
	Logger  *log.Logger
	Version string

	// SyncAPIKey guards the sync endpoint. When empty, sync is disabled.
	SyncAPIKey string

	// Models are the priced models of the cost endpoint.
	Models       []pricing.Entry
	CostDefaults cost.Params

	ShutdownTimeout time.Duration
}

// Server serves the API.
type Server struct {
	opts    Options
	logger  *log.Logger
	metrics *metrics
	now     func() time.Time

	mu    sync.Mutex
	index *skills.Index
}

// New returns a server for the given options.
func New(opts Options) *Server {
	if opts.Status == nil {
		opts.Status = status.New(nil)
	}
	if opts.Prober == nil {
		opts.Prober = probe.New()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if len(opts.Models) == 0 {
		opts.Models = pricing.Estimator()
	}
	if opts.CostDefaults == (cost.Params{}) {
		opts.CostDefaults = cost.DefaultParams()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		opts:    opts,
		logger:  opts.Logger,
		metrics: newMetrics(),
		now:     time.Now,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.instrument)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", s.metrics.handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Post("/cost", s.cost)

		r.Route("/skills", func(r chi.Router) {
			r.Get("/", s.listSkills)
			r.Post("/sync", s.syncSkills)
			r.Get("/{id}", s.getSkill)
		})

		r.Route("/config", func(r chi.Router) {
			r.Post("/render", s.renderConfig)
			r.Post("/test", s.testConfig)
		})
	})
	return r
}

// ListenAndServe serves the API on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api starting", "addr", addr, "version", s.opts.Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down")
	}

	sctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("api stopped")
	return nil
}

// skillIndex returns the search index, loading it from the store the first
// time and after every sync.
func (s *Server) skillIndex(ctx context.Context) (*skills.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		return s.index, nil
	}
	idx, err := s.opts.Store.Index(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	s.index = idx
	return idx, nil
}

func (s *Server) invalidateIndex() {
	s.mu.Lock()
	s.index = nil
	s.mu.Unlock()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug(
			"request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"id", middleware.GetReqID(r.Context()),
		)
	})
}
