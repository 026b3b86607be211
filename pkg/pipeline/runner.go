package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modmap/pkg/cache"
	modio "github.com/matzehuels/modmap/pkg/io"
	"github.com/matzehuels/modmap/pkg/render"
	"github.com/matzehuels/modmap/pkg/session"
)

// Result is the outcome of a complete pipeline run.
type Result struct {
	Source      *modio.Source
	Session     *session.Session
	DatasetHash string
	Artifacts   map[render.Format][]byte

	// LevelErrors lists the levels that could not be ordered. They are
	// rendered as notices; callers decide whether they are fatal.
	LevelErrors []error

	Stats struct {
		LoadTime   time.Duration
		RenderTime time.Duration
		Modules    int
		Edges      int
	}
	CacheInfo struct {
		DatasetHit bool
		RenderHit  bool
	}
}

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete load → session → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)
	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	src, hit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Source = src
	result.DatasetHash = cache.Hash(src.Raw)
	result.Stats.LoadTime = time.Since(loadStart)
	result.CacheInfo.DatasetHit = hit

	// Stage 2: Session
	s, err := NewSession(src, opts)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	result.Session = s
	result.LevelErrors = s.Index().LevelErrors()
	result.Stats.Modules = s.Index().Len()
	result.Stats.Edges = s.Index().Graph().EdgeCount()

	r.Logger.Info("loaded catalogue",
		"source", src.Name,
		"modules", result.Stats.Modules,
		"edges", result.Stats.Edges,
		"cached", hit,
		"duration", result.Stats.LoadTime)
	for _, lerr := range result.LevelErrors {
		r.Logger.Warn("level not ordered", "err", lerr)
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, s, result.DatasetHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", formatNames(opts.Formats),
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// NewSession indexes a loaded dataset and restores the navigation state of
// opts. An unknown theme or module is ignored, as it is in a shared link.
func NewSession(src *modio.Source, opts Options) (*session.Session, error) {
	s, err := session.New(src.Dataset, opts.Prefs, session.Options{
		IncludeAncillary: opts.IncludeAncillary,
		SyllabusBaseURL:  opts.SyllabusBaseURL,
		SearchPrefix:     opts.SearchPrefix,
		Logger:           opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	if opts.Theme != "" {
		q.Set(session.ParamTheme, opts.Theme)
	}
	if opts.Module != "" {
		q.Set(session.ParamModule, opts.Module)
	}
	if opts.ShowAll {
		q.Set(session.ParamShowAll, "1")
	}
	s.ApplyQuery(q)
	return s, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
