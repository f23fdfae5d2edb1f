package cache

import "fmt"

// TreeKeyOpts holds the query options that change a tree's content.
type TreeKeyOpts struct {
	MaxDepth int `json:"max_depth"`
}

// Keyer builds cache keys.
type Keyer interface {
	// TreeKey identifies the dependent tree of root in the snapshot with
	// the given content hash.
	TreeKey(snapshotHash, root string, opts TreeKeyOpts) string
	// CompatKey identifies the compatibility findings for root, or for the
	// whole snapshot when root is empty.
	CompatKey(snapshotHash, root string) string
}

// DefaultKeyer produces keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) TreeKey(snapshotHash, root string, opts TreeKeyOpts) string {
	return hashKey("tree", snapshotHash, root, opts)
}

func (DefaultKeyer) CompatKey(snapshotHash, root string) string {
	return hashKey("compat", snapshotHash, root)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = DefaultKeyer{}

func (o TreeKeyOpts) String() string {
	return fmt.Sprintf("depth=%d", o.MaxDepth)
}
