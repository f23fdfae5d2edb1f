package depgraph

import (
	"maps"
	"slices"

	"github.com/matzehuels/revdeps/pkg/manifest"
)

// PopulateDependents registers reverse edges for every declared dependency
// whose target is indexed. Dependencies on unknown packages are ignored.
// Dependencies declared with an empty range are dropped with a warning.
//
// Buckets are processed in [manifest.Kinds] order, so a dependent listed in
// several buckets of the same manifest ends up with the edge of the last
// one. The method does its work once; later calls are no-ops.
func (ix *Index) PopulateDependents() {
	if ix.populated {
		ix.logger.Debug("dependents already populated")
		return
	}
	ix.ForEachPackage(func(r *Record, _ string) {
		for _, kind := range manifest.Kinds {
			ix.addDependents(r, kind)
		}
	})
	ix.populated = true
}

// addDependents makes dependent a dependent of every indexed entry in one of
// its buckets.
func (ix *Index) addDependents(dependent *Record, kind manifest.Kind) {
	bucket := dependent.Manifest.Bucket(kind)
	for _, name := range slices.Sorted(maps.Keys(bucket)) {
		target, ok := ix.records[name]
		if !ok {
			continue
		}
		if prev, exists := target.Dependent(dependent.Name); exists {
			ix.logger.Debug("overwriting dependent edge", "package", name, "dependent", dependent.Name,
				"old", prev.Kind, "new", kind)
		}
		err := target.AddDependent(dependent.Name, Edge{
			Kind:         kind,
			VersionRange: bucket[name],
			Target:       dependent,
		})
		if err != nil {
			ix.logger.Warn("skipping dependency", "package", name, "dependent", dependent.Name, "err", err)
		}
	}
}
