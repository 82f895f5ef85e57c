// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about resolution runs, downloads, cache operations, and
// repository requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so library packages never
// import a metrics backend. [PrometheusHooks] is the bundled implementation
// used by the service mode.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    hooks := observability.NewPrometheusHooks(prometheus.DefaultRegisterer)
//	    observability.SetAll(hooks)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resolve().OnResolveStart(ctx, roots)
//	// ... build the graph ...
//	observability.Resolve().OnResolveComplete(ctx, roots, len(order), duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Resolve Hooks
// =============================================================================

// ResolveHooks receives events from the dependency graph builder.
type ResolveHooks interface {
	// OnResolveStart records the start of a resolution run.
	OnResolveStart(ctx context.Context, roots []string)

	// OnResolveComplete records the end of a resolution run.
	OnResolveComplete(ctx context.Context, roots []string, artifacts int, duration time.Duration, err error)

	// OnDiagnostic records a non-fatal finding such as a cycle or relocation.
	OnDiagnostic(ctx context.Context, kind, coordinate string)
}

// =============================================================================
// Download Hooks
// =============================================================================

// DownloadHooks receives events from the download manager.
type DownloadHooks interface {
	// OnDownloadStart records that a coordinate is being materialized.
	OnDownloadStart(ctx context.Context, coordinate string)

	// OnDownloadComplete records the outcome for one coordinate. cached is
	// true when the bytes came from the local store.
	OnDownloadComplete(ctx context.Context, coordinate string, size int64, cached bool, duration time.Duration, err error)
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

// NoopResolveHooks is a no-op implementation of ResolveHooks.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnResolveStart(context.Context, []string) {}
func (NoopResolveHooks) OnResolveComplete(context.Context, []string, int, time.Duration, error) {
}
func (NoopResolveHooks) OnDiagnostic(context.Context, string, string) {}

// NoopDownloadHooks is a no-op implementation of DownloadHooks.
type NoopDownloadHooks struct{}

func (NoopDownloadHooks) OnDownloadStart(context.Context, string) {}
func (NoopDownloadHooks) OnDownloadComplete(context.Context, string, int64, bool, time.Duration, error) {
}

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

var (
	resolveHooks  ResolveHooks  = NoopResolveHooks{}
	downloadHooks DownloadHooks = NoopDownloadHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetResolveHooks registers custom resolve hooks.
// This should be called once at application startup before any resolution.
func SetResolveHooks(h ResolveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolveHooks = h
	}
}

// SetDownloadHooks registers custom download hooks.
func SetDownloadHooks(h DownloadHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		downloadHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// AllHooks implements every hook interface.
type AllHooks interface {
	ResolveHooks
	DownloadHooks
	CacheHooks
	HTTPHooks
}

// SetAll registers h for every hook category.
func SetAll(h AllHooks) {
	SetResolveHooks(h)
	SetDownloadHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

// Resolve returns the registered resolve hooks.
func Resolve() ResolveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolveHooks
}

// Download returns the registered download hooks.
func Download() DownloadHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return downloadHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	resolveHooks = NoopResolveHooks{}
	downloadHooks = NoopDownloadHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
