// Package depgraph builds a reverse-dependency graph over a set of package
// manifests and materializes dependent trees from it.
//
// # Overview
//
// Construction happens in two explicit phases:
//
//  1. [BuildIndex] turns a sequence of manifests into an [Index]: one
//     [Record] per package name. Manifests without a name or version are
//     skipped; when two manifests share a name, the later one wins.
//  2. [Index.PopulateDependents] walks every record's dependencies,
//     devDependencies and peerDependencies (in that order) and, for every
//     declared dependency that is itself indexed, registers a reverse [Edge]
//     on the depended-upon record pointing back at the dependent.
//
// [Build] runs both phases. After PopulateDependents returns the index is
// read-only and safe for concurrent queries without locking.
//
// # Dependent Trees
//
// [Index.DependentTree] expands the reverse edges reachable from a root,
// depth first, into a nested [Tree]:
//
//	ix := depgraph.Build(manifests, depgraph.Options{Logger: logger})
//	tree, err := ix.DependentTree("lodash")
//	if errors.Is(err, depgraph.ErrNotFound) {
//	    // unknown root
//	}
//
// The expansion keeps the list of names on the current path. A package that
// would be expanded while already present twice on that path is left as a
// leaf, a warning is logged, and the path is recorded in
// [Expansion.Cycles]. Expansion therefore terminates on any graph, cyclic or
// not.
//
// # Ordering
//
// Packages, bucket entries and dependents are always visited in sorted name
// order, so repeated builds and queries over the same input produce
// identical results.
package depgraph
