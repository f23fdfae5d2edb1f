// Package pipeline provides the core load → index → query pipeline for
// revdeps.
//
// This package ties the manifest loaders, the dependent index, the cache
// and the renderers together so the CLI and the HTTP server behave
// identically.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read manifests from a [loader.Source] and build a [Snapshot]
//     (index construction plus dependent population)
//  2. Query: materialize the dependent tree of one package, cache-aside
//  3. Render: encode the tree as text, JSON, YAML, DOT or SVG
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	snap, err := runner.Load(ctx, loader.Dir{Path: "./manifests"})
//	if err != nil {
//	    return err
//	}
//	exp, cached, err := runner.Tree(ctx, snap, pipeline.Options{Package: "lodash"})
//	out, err := pipeline.Render(ctx, exp, pipeline.FormatText, pipeline.RenderOptions{})
package pipeline

import (
	"fmt"
	"strings"

	"github.com/matzehuels/revdeps/pkg/cache"
	"github.com/matzehuels/revdeps/pkg/depgraph"
	"github.com/matzehuels/revdeps/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// MaxDepthLimit caps the depth a caller may request. Zero (unlimited) is
// still allowed; the cycle guard bounds the walk.
const MaxDepthLimit = 1000

// Format constants for output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// DefaultFormat is used when no format is requested.
const DefaultFormat = FormatText

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatJSON: true,
	FormatYAML: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// FormatNames lists the formats in display order.
var FormatNames = []string{FormatText, FormatJSON, FormatYAML, FormatDOT, FormatSVG}

// =============================================================================
// Options - Query Configuration
// =============================================================================

// Options describes a tree query. It supports JSON serialization for API
// requests.
type Options struct {
	Package  string `json:"package"`
	MaxDepth int    `json:"max_depth,omitempty"`
	// Refresh bypasses the cache read; the fresh result is still stored.
	Refresh bool `json:"refresh,omitempty"`
}

// Validate checks required fields.
func (o Options) Validate() error {
	if o.Package == "" {
		return errors.New(errors.ErrCodeInvalidInput, "package is required")
	}
	if err := errors.ValidatePackageName(o.Package); err != nil {
		return err
	}
	if o.MaxDepth < 0 || o.MaxDepth > MaxDepthLimit {
		return errors.New(errors.ErrCodeInvalidInput, "max depth must be between 0 and %d", MaxDepthLimit)
	}
	return nil
}

// TreeOptions returns the expansion options for the query.
func (o Options) TreeOptions() depgraph.TreeOptions {
	return depgraph.TreeOptions{MaxDepth: o.MaxDepth}
}

// TreeKeyOpts returns cache key options for the query.
func (o Options) TreeKeyOpts() cache.TreeKeyOpts {
	return cache.TreeKeyOpts{MaxDepth: o.MaxDepth}
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: %s)", format, strings.Join(FormatNames, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Stats describes a loaded snapshot.
type Stats struct {
	Manifests int `json:"manifests"`
	Packages  int `json:"packages"`
	Skipped   int `json:"skipped"`
	Edges     int `json:"edges"`
}

func (s Stats) String() string {
	return fmt.Sprintf("%d packages, %d edges (%d manifests, %d skipped)",
		s.Packages, s.Edges, s.Manifests, s.Skipped)
}
