package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/revdeps/pkg/depgraph"
)

// WriteJSON encodes a tree as indented JSON and writes it to w.
// A nil tree is written as an empty object.
func WriteJSON(t depgraph.Tree, w io.Writer) error {
	if t == nil {
		t = depgraph.Tree{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes a tree as YAML and writes it to w.
func WriteYAML(t depgraph.Tree, w io.Writer) error {
	if t == nil {
		t = depgraph.Tree{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes a tree to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(t depgraph.Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(t, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
