// Package manifest describes the raw package records that feed the
// reverse-dependency index.
//
// A [Manifest] is the subset of a package.json document that matters for
// dependents: the package name and version plus the three dependency
// buckets. Buckets are keyed by [Kind] and always walked in the order given
// by [Kinds], so that a dependent declared in several buckets resolves to the
// same edge on every run.
//
// Manifests are produced by loaders (see [loader]) and consumed by
// [depgraph.BuildIndex]. Use [Parse] to decode a package.json document and
// [New] to construct a manifest in code:
//
//	m, err := manifest.New("express", "4.18.2")
//	m.Dependencies["body-parser"] = "1.20.1"
//
// [loader]: github.com/matzehuels/revdeps/pkg/loader
// [depgraph.BuildIndex]: github.com/matzehuels/revdeps/pkg/depgraph.BuildIndex
package manifest
