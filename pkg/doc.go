// Package pkg provides the libraries behind revdeps, a reverse-dependency
// index over package.json manifests.
//
// # Overview
//
// Package managers answer "what does this package need?". revdeps answers
// the opposite question for a fixed collection of manifests: which packages
// depend on this one, directly or transitively, and through which
// declaration. The pkg directory is organized into four areas:
//
//  1. [manifest], [depgraph] - Domain model (records, the dependent index,
//     cycle-safe tree materialization)
//  2. [loader], [cache] - Infrastructure (manifest sources, tree caches)
//  3. [io], [render] - Output (JSON/YAML trees, terminal trees, diagrams)
//  4. [pipeline] - Orchestration (load → index → query → render)
//
// # Architecture
//
// The typical data flow:
//
//	Directory / MongoDB collection of manifests
//	         ↓
//	    [loader] package (read raw manifest records)
//	         ↓
//	    [depgraph] package (index by name, populate reverse edges)
//	         ↓
//	    [depgraph] Expand (dependent tree with cycle guard)
//	         ↓
//	    text / JSON / YAML / DOT / SVG output
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/revdeps/pkg/depgraph"
//	    "github.com/matzehuels/revdeps/pkg/loader"
//	)
//
//	manifests, err := loader.Dir{Path: "./manifests"}.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	ix := depgraph.Build(manifests, depgraph.Options{Logger: logger})
//	tree, err := ix.DependentTree("lodash")
//
// # Package Guide
//
// [manifest] - The raw package record: name, version and the three
// dependency buckets (dependencies, devDependencies, peerDependencies).
//
// [depgraph] - The dependent index. [depgraph.BuildIndex] keys records by
// name, [depgraph.Index.PopulateDependents] adds one reverse edge per
// declared dependency that is itself indexed, and
// [depgraph.Index.Expand] materializes the transitive dependents of a root.
// A branch whose package already occurs on the current path is cut and
// reported instead of recursing forever.
//
// [compat] - Checks each dependent's declared range against the version
// that is actually indexed, using semver constraints.
//
// [loader] - Manifest sources: a directory scan (optionally recursive),
// a MongoDB collection, and a static slice. Also a debounced directory
// watcher.
//
// [cache] - Tree caches: file (CLI), LRU (server), Redis (shared), null.
//
// [io] - JSON and YAML encoding of dependent trees.
//
// [render] - Terminal trees ([render/textree]) and node-link diagrams
// ([render/nodelink]).
//
// [pipeline] - Snapshot loading and cached queries shared by the CLI and
// the HTTP server.
//
// [observability] - Hook interfaces for metrics; no-ops by default.
//
// [errors] - Coded errors shared by the CLI and the HTTP API.
//
// [buildinfo] - Version information injected at build time.
package pkg
