// Package server exposes resolution over HTTP.
//
// Routes:
//
//	POST /v1/resolve     resolve (and optionally fetch) a set of roots
//	GET  /v1/runs        recent runs, newest first (?limit=N)
//	GET  /v1/runs/{id}   one run
//	GET  /healthz        liveness
//	GET  /metrics        Prometheus metrics
//
// Every resolution is recorded in a [history.Store] under a fresh run ID.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/mvnfetch/pkg/history"
	"github.com/matzehuels/mvnfetch/pkg/pipeline"
	"github.com/matzehuels/mvnfetch/pkg/repository"
)

// Options configures a [Server].
type Options struct {
	// Pipeline is the base runner configuration. Requests that name their
	// own repositories get a runner with those repositories and the same
	// store and cache.
	Pipeline pipeline.Config

	History  history.Store       // Run history (default in-memory)
	Gatherer prometheus.Gatherer // Metrics source (default prometheus.DefaultGatherer)
	Logger   *log.Logger         // Request and error logging (default discards)

	// RequestTimeout bounds one resolution (default 5 minutes).
	RequestTimeout time.Duration
}

// Server handles HTTP requests. It is safe for concurrent use.
type Server struct {
	opts    Options
	runner  *pipeline.Runner
	history history.Store
	logger  *log.Logger
	router  chi.Router
}

// New creates a server.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.History == nil {
		opts.History = history.NewMemoryStore(0)
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Minute
	}
	if opts.Pipeline.Logger == nil {
		opts.Pipeline.Logger = opts.Logger
	}
	if opts.Pipeline.HTTPClient == nil {
		opts.Pipeline.HTTPClient = repository.NewHTTPClient()
	}

	runner, err := pipeline.NewRunner(opts.Pipeline)
	if err != nil {
		return nil, err
	}
	// Per-request runners share the opened store and cache.
	opts.Pipeline.StoreDir = runner.Store.Root()
	opts.Pipeline.Cache = runner.Cache

	s := &Server{
		opts:    opts,
		runner:  runner,
		history: opts.History,
		logger:  opts.Logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", s.handleResolve)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Close releases the cache and the run history.
func (s *Server) Close(ctx context.Context) error {
	return stderrors.Join(s.runner.Close(), s.history.Close(ctx))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
