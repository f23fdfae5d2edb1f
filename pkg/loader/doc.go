// Package loader supplies the manifests an index is built from.
//
// A [Source] produces a slice of package manifests. Three sources are
// provided:
//
//   - [Dir] reads package.json-style documents from a directory tree
//   - [Mongo] reads documents from a MongoDB collection
//   - [Static] wraps an in-memory slice
//
// Sources skip documents they cannot parse instead of failing the load;
// each skip is reported at debug level on the source's logger. The order
// of the returned slice is deterministic, which matters because a later
// manifest replaces an earlier one with the same name.
//
// [Watcher] notifies a callback when manifests under a directory change,
// coalescing bursts of filesystem events into a single call.
package loader
