// Package nodelink renders dependent trees as node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz, where
// nodes appear as boxes and arrows run from each dependent to the package
// it depends on. The queried package sits at the top.
//
// # Usage
//
// Convert an expansion to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(exp, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: When true, edge labels include the dependency kind
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [RenderSVG]
//   - Saved and processed with external Graphviz tools
//
// A package reachable along several paths appears once per path, matching
// the tree shape. Nodes where a cycle was cut are dashed.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
