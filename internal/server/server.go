// Package server exposes a dependent index over HTTP.
//
// The server owns one [pipeline.Snapshot] at a time. Queries read it
// through an atomic pointer, so they never block on a reload; [Server.Reload]
// builds a fresh snapshot from the configured source and swaps it in only
// when the build succeeds.
//
// # Routes
//
//	GET /healthz                      liveness plus snapshot stats
//	GET /api/v1/packages              every indexed package
//	GET /api/v1/package?name=         one package and its direct dependents
//	GET /api/v1/tree?name=&depth=     dependent tree (format=json|yaml|text|dot|svg)
//	GET /api/v1/compat?name=          declared ranges checked against versions
//	GET /metrics                      Prometheus exposition
//
// Every API response carries the snapshot ID in the X-Revdeps-Snapshot
// header.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/revdeps/pkg/loader"
	"github.com/matzehuels/revdeps/pkg/pipeline"
)

// SnapshotHeader names the response header carrying the snapshot ID.
const SnapshotHeader = "X-Revdeps-Snapshot"

// shutdownTimeout bounds how long in-flight requests may run after the
// serving context is cancelled.
const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	// Source provides the manifests indexed on every reload. Required.
	Source loader.Source
	// Runner executes queries. Nil means an uncached runner.
	Runner *pipeline.Runner
	// Metrics receives index, cache and HTTP events. Nil disables /metrics.
	Metrics *Metrics
	// Logger receives request and reload events. Nil discards them.
	Logger *log.Logger
}

// Server answers dependent queries over HTTP.
type Server struct {
	source  loader.Source
	runner  *pipeline.Runner
	metrics *Metrics
	logger  *log.Logger

	snap     atomic.Pointer[pipeline.Snapshot]
	reloadMu sync.Mutex
	router   chi.Router
}

// New creates a server. It serves 503 until the first successful Reload.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	runner := opts.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	s := &Server{
		source:  opts.Source,
		runner:  runner,
		metrics: opts.Metrics,
		logger:  logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireSnapshot)
		r.Get("/packages", s.handlePackages)
		r.Get("/package", s.handlePackage)
		r.Get("/tree", s.handleTree)
		r.Get("/compat", s.handleCompat)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: errorDetail{Code: "NOT_FOUND", Message: "no route for " + r.URL.Path}})
	})
	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

// Snapshot returns the snapshot queries currently run against, or nil
// before the first successful reload.
func (s *Server) Snapshot() *pipeline.Snapshot { return s.snap.Load() }

// Reload rebuilds the index from the source and swaps it in. On failure
// the previous snapshot keeps serving. Concurrent reloads are serialized.
func (s *Server) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	snap, err := s.runner.Load(ctx, s.source)
	if err != nil {
		s.logger.Error("reload failed; keeping previous snapshot", "source", s.source, "err", err)
		return err
	}
	prev := s.snap.Swap(snap)
	fields := []any{
		"snapshot", snap.ID,
		"packages", snap.Stats.Packages,
		"edges", snap.Stats.Edges,
		"skipped", snap.Stats.Skipped,
		"elapsed", time.Since(start).Round(time.Millisecond),
	}
	if prev != nil && prev.Hash == snap.Hash {
		s.logger.Debug("reloaded index (content unchanged)", fields...)
		return nil
	}
	s.logger.Info("loaded index", fields...)
	return nil
}

// Watch reloads whenever the watched directory settles after a change.
// It blocks until ctx is cancelled.
func (s *Server) Watch(ctx context.Context, dir loader.Dir, debounce time.Duration) error {
	w, err := loader.NewWatcher(dir, debounce, func(ctx context.Context, paths []string) {
		s.logger.Debug("manifests changed", "files", len(paths))
		_ = s.Reload(ctx)
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}
	<-ctx.Done()
	w.Stop()
	return nil
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. The index must already be loaded.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}
