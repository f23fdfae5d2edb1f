package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/revdeps/pkg/cache"
	"github.com/matzehuels/revdeps/pkg/compat"
	"github.com/matzehuels/revdeps/pkg/depgraph"
	"github.com/matzehuels/revdeps/pkg/loader"
	"github.com/matzehuels/revdeps/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store snapshots. Multiple goroutines can safely use the same Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// TTL applies to every cache write. Zero means cache.DefaultTTL.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If logger is nil, diagnostics are discarded.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Load reads manifests from src and builds a populated snapshot.
func (r *Runner) Load(ctx context.Context, src loader.Source) (*Snapshot, error) {
	start := time.Now()
	manifests, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src, err)
	}
	loadTime := time.Since(start)

	buildStart := time.Now()
	ix := depgraph.BuildIndex(manifests, depgraph.Options{Logger: r.Logger})
	ix.PopulateDependents()
	buildTime := time.Since(buildStart)

	snap := NewSnapshot(ix, src.String(), len(manifests))
	observability.Graph().OnIndexBuilt(ctx, snap.Source, snap.Stats.Packages, snap.Stats.Edges,
		snap.Stats.Skipped, time.Since(start))

	r.Logger.Debug("built dependent index",
		"source", snap.Source,
		"packages", snap.Stats.Packages,
		"edges", snap.Stats.Edges,
		"skipped", snap.Stats.Skipped,
		"load", loadTime,
		"build", buildTime)
	return snap, nil
}

// Tree materializes the dependent tree described by opts. The boolean
// reports whether the result came from the cache. Unknown packages are
// never cached.
func (r *Runner) Tree(ctx context.Context, snap *Snapshot, opts Options) (*depgraph.Expansion, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}
	start := time.Now()
	key := r.Keyer.TreeKey(snap.Hash, opts.Package, opts.TreeKeyOpts())

	if !opts.Refresh {
		if exp, ok := r.cachedExpansion(ctx, key); ok {
			for _, path := range exp.Cycles {
				r.Logger.Warn("circular dependency detected", "package", path[len(path)-1], "path", path, "cached", true)
			}
			reportCycles(ctx, exp)
			observability.Graph().OnTreeQuery(ctx, opts.Package, exp.Tree.Size(), len(exp.Cycles), time.Since(start), nil)
			return exp, true, nil
		}
	}

	exp, err := snap.Index.Expand(opts.Package, opts.TreeOptions())
	if err != nil {
		observability.Graph().OnTreeQuery(ctx, opts.Package, 0, 0, time.Since(start), err)
		return nil, false, err
	}
	reportCycles(ctx, exp)
	observability.Graph().OnTreeQuery(ctx, opts.Package, exp.Tree.Size(), len(exp.Cycles), time.Since(start), nil)

	if data, err := json.Marshal(exp); err == nil {
		r.store(ctx, key, data)
	}
	return exp, false, nil
}

// reportCycles fires the cycle hook for every branch cut in exp.
func reportCycles(ctx context.Context, exp *depgraph.Expansion) {
	for _, path := range exp.Cycles {
		observability.Graph().OnCycleDetected(ctx, path[len(path)-1], path)
	}
}

// Compat checks the ranges declared by the direct dependents of name, or
// every edge in the snapshot when name is empty.
func (r *Runner) Compat(ctx context.Context, snap *Snapshot, name string) ([]compat.Finding, bool, error) {
	key := r.Keyer.CompatKey(snap.Hash, name)
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var findings []compat.Finding
		if err := json.Unmarshal(data, &findings); err == nil {
			observability.Cache().OnCacheHit(ctx, key)
			return findings, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, key)

	var findings []compat.Finding
	if name == "" {
		findings = compat.CheckAll(snap.Index)
	} else {
		var err error
		if findings, err = compat.Check(snap.Index, name); err != nil {
			return nil, false, err
		}
	}
	if data, err := json.Marshal(findings); err == nil {
		r.store(ctx, key, data)
	}
	return findings, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) cachedExpansion(ctx context.Context, key string) (*depgraph.Expansion, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	var exp depgraph.Expansion
	if err := json.Unmarshal(data, &exp); err != nil {
		// Stale or foreign entry: recompute.
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, key)
	return &exp, true
}

func (r *Runner) store(ctx context.Context, key string, data []byte) {
	ttl := r.TTL
	if ttl == 0 {
		ttl = cache.DefaultTTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}
