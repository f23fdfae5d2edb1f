package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/revdeps/pkg/depgraph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the dependency kind to edge labels.
	// When false, edges carry only the version range.
	Detailed bool
}

// ToDOT converts a dependent tree to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Edges point from a dependent to the package it depends on, so the root
// ends up at the top. Nodes cut by the cycle guard are drawn with dashed
// outlines and grey fill.
func ToDOT(exp *depgraph.Expansion, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=16, fontcolor=gray30];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	rootLabel := exp.Root
	if exp.Version != "" {
		rootLabel += "\n" + exp.Version
	}
	fmt.Fprintf(&buf, "  %q [label=%q, penwidth=2];\n", "n0", rootLabel)

	w := &dotWriter{buf: &buf, detailed: opts.Detailed}
	w.write("n0", exp.Tree)

	buf.WriteString("}\n")
	return buf.String()
}

type dotWriter struct {
	buf      *bytes.Buffer
	detailed bool
	next     int
}

func (w *dotWriter) write(parent string, t depgraph.Tree) {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		n := t[name]
		w.next++
		id := "n" + strconv.Itoa(w.next)

		fmt.Fprintf(w.buf, "  %q [%s];\n", id, strings.Join(fmtAttrs(name, n), ", "))
		fmt.Fprintf(w.buf, "  %q -> %q [label=%q];\n", id, parent, fmtEdgeLabel(n, w.detailed))
		w.write(id, n.Dependents)
	}
}

func fmtEdgeLabel(n *depgraph.TreeNode, detailed bool) string {
	if !detailed {
		return n.VersionRange
	}
	return n.Kind.String() + "\n" + n.VersionRange
}

func fmtAttrs(name string, n *depgraph.TreeNode) []string {
	attrs := []string{fmt.Sprintf("label=%q", name)}
	if n.Circular {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
