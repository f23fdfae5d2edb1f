package depgraph

import (
	"maps"
	"slices"

	"github.com/matzehuels/revdeps/pkg/errors"
	"github.com/matzehuels/revdeps/pkg/manifest"
)

// Edge is a reverse dependency: it lives on the depended-upon record and
// points at the record that declared the dependency.
type Edge struct {
	Kind         manifest.Kind // bucket the dependency was declared in
	VersionRange string        // raw declared range, never parsed here
	Target       *Record       // the dependent; not owned by the edge
}

// Record is one indexed package.
type Record struct {
	Name     string
	Version  string
	Manifest manifest.Manifest

	dependents map[string]Edge
}

func newRecord(m manifest.Manifest) (*Record, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &Record{
		Name:       m.Name,
		Version:    m.Version,
		Manifest:   m.Clone(),
		dependents: make(map[string]Edge),
	}, nil
}

// AddDependent registers dependent as depending on r through e.
// A later registration for the same dependent replaces the earlier one.
// It returns an INVALID_INPUT error when e is incomplete.
func (r *Record) AddDependent(dependent string, e Edge) error {
	switch {
	case dependent == "":
		return errors.New(errors.ErrCodeInvalidInput, "dependent of %q has no name", r.Name)
	case e.Kind == "":
		return errors.New(errors.ErrCodeInvalidInput, "edge %s -> %s has no kind", dependent, r.Name)
	case e.VersionRange == "":
		return errors.New(errors.ErrCodeInvalidInput, "edge %s -> %s (%s) has no version range", dependent, r.Name, e.Kind)
	case e.Target == nil:
		return errors.New(errors.ErrCodeInvalidInput, "edge %s -> %s has no target", dependent, r.Name)
	}
	r.dependents[dependent] = e
	return nil
}

// Dependent returns the edge registered for the named dependent.
func (r *Record) Dependent(name string) (Edge, bool) {
	e, ok := r.dependents[name]
	return e, ok
}

// DependentNames returns the names of direct dependents in sorted order.
func (r *Record) DependentNames() []string {
	return slices.Sorted(maps.Keys(r.dependents))
}

// DependentCount returns the number of direct dependents.
func (r *Record) DependentCount() int { return len(r.dependents) }

// ForEachDependent calls fn for every direct dependent in sorted name order.
func (r *Record) ForEachDependent(fn func(e Edge, name string)) {
	for _, name := range r.DependentNames() {
		fn(r.dependents[name], name)
	}
}
