// Package observability provides hooks for metrics and tracing.
//
// Library packages emit events through the hooks registered here; the
// binary decides where they go. The HTTP viewer registers Prometheus
// collectors, the CLI keeps the no-op defaults.
//
// # Usage
//
// Register hooks at application startup; nil fields are left as they are:
//
//	observability.Register(observability.Hooks{
//	    Catalog: metrics,
//	    Cache:   metrics,
//	})
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnLoadStart(ctx, source)
//	// ... load dataset ...
//	observability.Pipeline().OnLoadComplete(ctx, source, modules, duration, err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Catalog Hooks
// =============================================================================

// CatalogHooks receives events from index construction and interaction.
type CatalogHooks interface {
	// OnIndexBuilt records a completed index build.
	OnIndexBuilt(modules, edges, missing int)

	// OnHighlight records a module activation and the size of its closure.
	OnHighlight(code string, considered, edges int)

	// OnSearch records a search and whether it resolved to a module.
	OnSearch(found bool)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the load and render pipeline.
type PipelineHooks interface {
	// Load events
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, modules int, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCatalogHooks is a no-op implementation of CatalogHooks.
type NoopCatalogHooks struct{}

func (NoopCatalogHooks) OnIndexBuilt(int, int, int)   {}
func (NoopCatalogHooks) OnHighlight(string, int, int) {}
func (NoopCatalogHooks) OnSearch(bool)               {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string) {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// Hooks is one implementation per event family.
type Hooks struct {
	Catalog  CatalogHooks
	Pipeline PipelineHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
}

func noopHooks() *Hooks {
	return &Hooks{
		Catalog:  NoopCatalogHooks{},
		Pipeline: NoopPipelineHooks{},
		Cache:    NoopCacheHooks{},
		HTTP:     NoopHTTPHooks{},
	}
}

// registered is swapped whole, so readers on hot paths never lock.
var registered atomic.Pointer[Hooks]

func init() { registered.Store(noopHooks()) }

// Register installs the non-nil fields of h and keeps the rest.
func Register(h Hooks) {
	for {
		old := registered.Load()
		next := *old
		if h.Catalog != nil {
			next.Catalog = h.Catalog
		}
		if h.Pipeline != nil {
			next.Pipeline = h.Pipeline
		}
		if h.Cache != nil {
			next.Cache = h.Cache
		}
		if h.HTTP != nil {
			next.HTTP = h.HTTP
		}
		if registered.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Reset restores the no-op hooks.
func Reset() { registered.Store(noopHooks()) }

// Catalog returns the registered catalog hooks.
func Catalog() CatalogHooks { return registered.Load().Catalog }

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return registered.Load().Pipeline }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return registered.Load().Cache }

// HTTP returns the registered HTTP client hooks.
func HTTP() HTTPHooks { return registered.Load().HTTP }
