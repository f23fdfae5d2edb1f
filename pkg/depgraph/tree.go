package depgraph

import (
	stderrors "errors"
	"slices"

	"github.com/matzehuels/revdeps/pkg/errors"
	"github.com/matzehuels/revdeps/pkg/manifest"
)

// ErrNotFound is wrapped by tree queries whose root is not indexed.
var ErrNotFound = stderrors.New("package not found in dependent map")

// Tree maps dependent names to their expanded nodes.
type Tree map[string]*TreeNode

// TreeNode is one dependent in a materialized tree.
type TreeNode struct {
	Kind         manifest.Kind `json:"kind" yaml:"kind"`
	VersionRange string        `json:"versionRange" yaml:"versionRange"`
	Dependents   Tree          `json:"dependents" yaml:"dependents"`

	// Circular marks a node whose expansion was cut by the cycle guard.
	Circular bool `json:"circular,omitempty" yaml:"circular,omitempty"`
}

// Size returns the number of nodes in the tree, at every depth.
func (t Tree) Size() int {
	n := 0
	for _, node := range t {
		n += 1 + node.Dependents.Size()
	}
	return n
}

// Depth returns the number of levels in the tree.
func (t Tree) Depth() int {
	d := 0
	for _, node := range t {
		d = max(d, 1+node.Dependents.Depth())
	}
	return d
}

// TreeOptions bounds an expansion.
type TreeOptions struct {
	// MaxDepth limits the number of levels below the root. Zero means no
	// limit other than the cycle guard.
	MaxDepth int
}

// Expansion is the result of materializing a dependent tree.
type Expansion struct {
	Root    string `json:"root"`
	Version string `json:"version"`
	Tree    Tree   `json:"tree"`

	// Cycles holds the path at which each cyclic branch was cut.
	Cycles [][]string `json:"cycles,omitempty"`
	// DepthTruncated counts nodes left unexpanded because of MaxDepth.
	DepthTruncated int `json:"depthTruncated,omitempty"`
}

// DependentTree returns everything that transitively depends on root.
// It fails with an error wrapping [ErrNotFound] when root is not indexed.
func (ix *Index) DependentTree(root string) (Tree, error) {
	exp, err := ix.Expand(root, TreeOptions{})
	if err != nil {
		return nil, err
	}
	return exp.Tree, nil
}

// Expand materializes the dependent tree of root with the given options.
// On an index that was never populated every tree is empty; Expand warns
// about that instead of failing.
func (ix *Index) Expand(root string, opts TreeOptions) (*Expansion, error) {
	rec, ok := ix.records[root]
	if !ok {
		ix.logger.Error("package not found in dependent map", "package", root)
		return nil, errors.Wrap(errors.ErrCodePackageNotFound, ErrNotFound, "package %q", root)
	}
	if !ix.populated {
		ix.logger.Warn("expanding an index whose dependents were never populated", "package", root)
	}
	ix.logger.Debug("expanding dependents", "package", root, "version", rec.Version, "dependents", rec.DependentCount())

	w := &walker{ix: ix, maxDepth: opts.MaxDepth, path: []string{root}}
	tree := Tree{}
	w.expand(rec, tree)

	return &Expansion{
		Root:           root,
		Version:        rec.Version,
		Tree:           tree,
		Cycles:         w.cycles,
		DepthTruncated: w.depthTruncated,
	}, nil
}

// walker carries the state of one depth-first expansion. path holds the
// names from the root down to the record being expanded.
type walker struct {
	ix             *Index
	maxDepth       int
	path           []string
	cycles         [][]string
	depthTruncated int
}

// expand writes the dependents of r into out. It returns false when r was
// not expanded because it already occurs twice on the current path.
func (w *walker) expand(r *Record, out Tree) bool {
	if w.occurrences(r.Name) > 1 {
		w.ix.logger.Warn("circular dependency detected", "package", r.Name, "path", w.path)
		w.cycles = append(w.cycles, slices.Clone(w.path))
		return false
	}
	w.ix.logger.Debug("building dependent tree", "package", r.Name, "path", w.path)

	if w.maxDepth > 0 && len(w.path) > w.maxDepth {
		if r.DependentCount() > 0 {
			w.depthTruncated++
		}
		return true
	}

	r.ForEachDependent(func(e Edge, name string) {
		node := &TreeNode{Kind: e.Kind, VersionRange: e.VersionRange, Dependents: Tree{}}
		out[name] = node

		w.path = append(w.path, name)
		node.Circular = !w.expand(e.Target, node.Dependents)
		w.path = w.path[:len(w.path)-1]
	})
	return true
}

func (w *walker) occurrences(name string) int {
	n := 0
	for _, p := range w.path {
		if p == name {
			n++
		}
	}
	return n
}
