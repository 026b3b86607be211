// Package server implements the modmap HTTP viewer.
//
// The viewer serves the card grid, the table view, the node-link graph and
// a small JSON API over one catalogue loaded at startup. Navigation state
// lives in the URL (?theme=&module=&all=), so every view is a shareable
// link. Detail preferences are kept server-side per visitor, keyed by a
// random visitor id cookie, in a [prefs.Store] (in-memory or Redis).
//
// Routes:
//
//	GET  /                 card grid
//	GET  /table            table view
//	GET  /graph.svg        node-link graph
//	GET  /export.xlsx      table view as a workbook
//	GET  /search?q=        resolve a query and redirect to the module
//	POST /prefs/{flag}     toggle a preference and redirect back
//	GET  /api/index.json   resolved catalogue
//	GET  /api/highlight    highlight of ?module=
//	GET  /api/search       resolve ?q= to a module code
//	GET  /api/prefs        visitor preferences
//	PUT  /api/prefs/{flag} set a preference (?value=on|off)
//	GET  /metrics          Prometheus metrics
//	GET  /healthz          liveness
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/modmap/pkg/cache"
	modio "github.com/matzehuels/modmap/pkg/io"
	"github.com/matzehuels/modmap/pkg/pipeline"
	"github.com/matzehuels/modmap/pkg/prefs"
	"github.com/matzehuels/modmap/pkg/session"
)

// Config configures a Server.
type Config struct {
	// Source is the loaded dataset every request is served from.
	Source *modio.Source

	// Runner renders cached artifacts (graph and workbook).
	// Nil uses a runner without a cache.
	Runner *pipeline.Runner

	// Store keeps visitor preferences. Nil uses an in-memory store.
	Store prefs.Store

	// Options carries the index settings (ancillary modules, syllabus base
	// URL, search prefix) and the page title.
	Options pipeline.Options

	// Metrics receives request metrics. Nil disables /metrics.
	Metrics *Metrics

	Logger *log.Logger
}

// Server is the HTTP viewer.
type Server struct {
	src         *modio.Source
	datasetHash string
	runner      *pipeline.Runner
	store       prefs.Store
	opts        pipeline.Options
	metrics     *Metrics
	logger      *log.Logger
	router      chi.Router
}

// New validates cfg and builds the router.
func New(cfg Config) (*Server, error) {
	if cfg.Source == nil || cfg.Source.Dataset == nil {
		return nil, errors.New("server: no dataset")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Store == nil {
		cfg.Store = prefs.NewMemoryStore()
	}
	if cfg.Options.Title == "" {
		cfg.Options.Title = pipeline.DefaultTitle
	}
	cfg.Options.Dataset = cfg.Source.Name

	s := &Server{
		src:         cfg.Source,
		datasetHash: cache.Hash(cfg.Source.Raw),
		runner:      cfg.Runner,
		store:       cfg.Store,
		opts:        cfg.Options,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.metrics != nil {
		r.Use(s.metrics.instrument)
	}
	r.Use(s.visitor)

	r.Get("/", s.handleGrid)
	r.Get("/table", s.handleTable)
	r.Get("/graph.svg", s.handleGraph)
	r.Get("/export.xlsx", s.handleXLSX)
	r.Get("/search", s.handleSearch)
	r.Post("/prefs/{flag}", s.handleTogglePref)

	r.Route("/api", func(r chi.Router) {
		r.Get("/index.json", s.handleIndex)
		r.Get("/highlight", s.handleHighlight)
		r.Get("/search", s.handleAPISearch)
		r.Get("/prefs", s.handleGetPrefs)
		r.Put("/prefs/{flag}", s.handleSetPref)
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
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
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("viewer listening", "addr", ln.Addr().String(), "modules", len(s.src.Dataset.Modules))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("viewer stopped")
	return nil
}

// session builds a session for the request: the visitor's preferences and
// the navigation state of the query string.
func (s *Server) session(r *http.Request) (*session.Session, prefs.Prefs, error) {
	p, err := s.store.Load(r.Context(), visitorID(r.Context()))
	if err != nil {
		s.logger.Warn("loading preferences", "err", err)
		p = prefs.Defaults()
	}
	opts := s.opts
	opts.Prefs = p
	opts.Logger = s.logger
	sess, err := pipeline.NewSession(s.src, opts)
	if err != nil {
		return nil, p, err
	}
	sess.ApplyQuery(r.URL.Query())
	return sess, p, nil
}
