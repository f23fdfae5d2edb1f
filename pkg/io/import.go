package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/revdeps/pkg/depgraph"
	"github.com/matzehuels/revdeps/pkg/manifest"
)

// ReadJSON decodes a tree written by [WriteJSON].
//
// Every node must name a known kind; a missing dependents object is read
// as empty. ReadJSON does not close r.
func ReadJSON(r io.Reader) (depgraph.Tree, error) {
	var t depgraph.Tree
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if t == nil {
		t = depgraph.Tree{}
	}
	if err := normalize(t, ""); err != nil {
		return nil, err
	}
	return t, nil
}

// ImportJSON reads a JSON file at path and returns the decoded tree.
func ImportJSON(path string) (depgraph.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

func normalize(t depgraph.Tree, parent string) error {
	for name, n := range t {
		if n == nil {
			return fmt.Errorf("node %s%s: empty", parent, name)
		}
		if _, err := manifest.ParseKind(string(n.Kind)); err != nil {
			return fmt.Errorf("node %s%s: %w", parent, name, err)
		}
		if n.Dependents == nil {
			n.Dependents = depgraph.Tree{}
		}
		if err := normalize(n.Dependents, parent+name+"/"); err != nil {
			return err
		}
	}
	return nil
}
