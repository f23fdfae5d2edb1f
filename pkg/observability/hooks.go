// Package observability provides hooks for metrics and tracing.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup
// to receive events about index builds, tree queries, cache operations, and
// served HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main (or the serve command), never by libraries,
// which keeps the core packages free of any metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetGraphHooks(&myGraphHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Graph().OnTreeQuery(ctx, root, nodes, cycles, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Graph Hooks
// =============================================================================

// GraphHooks receives events from index construction and tree queries.
type GraphHooks interface {
	// OnIndexBuilt fires after BuildIndex and PopulateDependents complete.
	OnIndexBuilt(ctx context.Context, source string, packages, edges, skipped int, duration time.Duration)

	// OnTreeQuery fires after a dependent tree has been materialized (or failed).
	OnTreeQuery(ctx context.Context, root string, nodes, cycles int, duration time.Duration, err error)

	// OnCycleDetected fires once per branch cut by the cycle guard, for
	// cached and freshly computed expansions alike.
	OnCycleDetected(ctx context.Context, pkg string, path []string)
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

// HTTPHooks receives events from the HTTP query API.
type HTTPHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGraphHooks is a no-op implementation of GraphHooks.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnIndexBuilt(context.Context, string, int, int, int, time.Duration) {}
func (NoopGraphHooks) OnTreeQuery(context.Context, string, int, int, time.Duration, error) {
}
func (NoopGraphHooks) OnCycleDetected(context.Context, string, []string) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                       {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	graphHooks GraphHooks = NoopGraphHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetGraphHooks registers custom graph hooks.
// This should be called once at application startup before any index is built.
func SetGraphHooks(h GraphHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		graphHooks = h
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
// This should be called once at application startup before serving requests.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Graph returns the registered graph hooks.
func Graph() GraphHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return graphHooks
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
	graphHooks = NoopGraphHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
