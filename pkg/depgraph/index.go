package depgraph

import (
	"io"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/revdeps/pkg/manifest"
)

// Options configures index construction and queries.
type Options struct {
	// Logger receives diagnostics: skipped manifests at warn level, cycle
	// cuts at warn level, unknown roots at error level, traversal steps at
	// debug level. A nil Logger discards everything.
	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard)
}

// Index maps package names to records. It is built once by [BuildIndex],
// completed once by [Index.PopulateDependents], and read-only afterwards.
type Index struct {
	records   map[string]*Record
	logger    *log.Logger
	skipped   int
	populated bool
}

// BuildIndex creates one record per valid manifest. Manifests without a
// name or version are skipped with a warning. When names collide the later
// manifest replaces the earlier one. Dependents are left empty.
func BuildIndex(manifests []manifest.Manifest, opts Options) *Index {
	ix := &Index{
		records: make(map[string]*Record, len(manifests)),
		logger:  opts.logger(),
	}
	for _, m := range manifests {
		rec, err := newRecord(m)
		if err != nil {
			ix.skipped++
			ix.logger.Warn("skipping manifest", "source", m.Source, "err", err)
			continue
		}
		if prev, ok := ix.records[rec.Name]; ok {
			ix.logger.Debug("replacing package", "package", rec.Name,
				"old", prev.Version, "new", rec.Version, "source", m.Source)
		}
		ix.records[rec.Name] = rec
		ix.logger.Debug("indexed package", "package", rec.Name, "version", rec.Version, "source", m.Source)
	}
	return ix
}

// Build runs [BuildIndex] followed by [Index.PopulateDependents].
func Build(manifests []manifest.Manifest, opts Options) *Index {
	ix := BuildIndex(manifests, opts)
	ix.PopulateDependents()
	return ix
}

// Get returns the record for name.
func (ix *Index) Get(name string) (*Record, bool) {
	r, ok := ix.records[name]
	return r, ok
}

// Len returns the number of indexed packages.
func (ix *Index) Len() int { return len(ix.records) }

// Names returns all package names in sorted order.
func (ix *Index) Names() []string {
	return slices.Sorted(maps.Keys(ix.records))
}

// Skipped returns how many manifests BuildIndex rejected.
func (ix *Index) Skipped() int { return ix.skipped }

// Populated reports whether PopulateDependents has run.
func (ix *Index) Populated() bool { return ix.populated }

// EdgeCount returns the number of reverse edges across all records.
func (ix *Index) EdgeCount() int {
	n := 0
	for _, r := range ix.records {
		n += len(r.dependents)
	}
	return n
}

// ForEachPackage calls fn for every record in sorted name order.
// fn must not modify the index.
func (ix *Index) ForEachPackage(fn func(r *Record, name string)) {
	for _, name := range ix.Names() {
		fn(ix.records[name], name)
	}
}
