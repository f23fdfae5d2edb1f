package pipeline

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/revdeps/pkg/cache"
	"github.com/matzehuels/revdeps/pkg/depgraph"
)

// Snapshot is an immutable, populated index together with where and when
// it was loaded. It is safe for concurrent queries.
type Snapshot struct {
	ID       uuid.UUID
	Hash     string
	Source   string
	LoadedAt time.Time
	Index    *depgraph.Index
	Stats    Stats
}

// NewSnapshot wraps a populated index. The hash covers the indexed
// manifests only, so two loads of identical content share cache entries.
func NewSnapshot(ix *depgraph.Index, source string, manifests int) *Snapshot {
	return &Snapshot{
		ID:       uuid.New(),
		Hash:     contentHash(ix),
		Source:   source,
		LoadedAt: time.Now().UTC(),
		Index:    ix,
		Stats: Stats{
			Manifests: manifests,
			Packages:  ix.Len(),
			Skipped:   ix.Skipped(),
			Edges:     ix.EdgeCount(),
		},
	}
}

// contentHash hashes the canonical JSON of every indexed manifest in name
// order. Map keys are sorted by encoding/json.
func contentHash(ix *depgraph.Index) string {
	docs := make([]json.RawMessage, 0, ix.Len())
	ix.ForEachPackage(func(r *depgraph.Record, _ string) {
		data, err := json.Marshal(r.Manifest)
		if err != nil {
			return
		}
		docs = append(docs, data)
	})
	data, _ := json.Marshal(docs)
	return cache.Hash(data)
}
