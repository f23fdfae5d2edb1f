// Package render turns materialized dependent trees into human-facing
// output.
//
// # Text Trees
//
// The [textree] subpackage draws a tree in the terminal with lipgloss,
// labelling the root with its indexed version and every dependent with the
// bucket and range it declared:
//
//	lodash@4.17.21
//	├── express (dependencies ^4.17.0)
//	│   └── my-app (dependencies ^4.18.2)
//	╰── jest (devDependencies ^4.17.15)
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage renders the same tree as a Graphviz diagram.
// Every tree node becomes a graph node, so a package reachable along two
// paths appears twice.
//
//	dot := nodelink.ToDOT(exp, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
package render
