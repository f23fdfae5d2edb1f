package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/revdeps/pkg/depgraph"
	revio "github.com/matzehuels/revdeps/pkg/io"
	"github.com/matzehuels/revdeps/pkg/render/nodelink"
	"github.com/matzehuels/revdeps/pkg/render/textree"
)

// RenderOptions controls presentation details that do not change the tree.
type RenderOptions struct {
	// Styled enables terminal colors in text output.
	Styled bool
	// Detailed adds dependency kinds to diagram edges.
	Detailed bool
}

// Render encodes an expansion in the requested format.
func Render(ctx context.Context, exp *depgraph.Expansion, format string, opts RenderOptions) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case FormatText:
		buf.WriteString(textree.Render(exp, textree.Options{Styled: opts.Styled}))
		buf.WriteByte('\n')
	case FormatJSON:
		if err := revio.WriteJSON(exp.Tree, &buf); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := revio.WriteYAML(exp.Tree, &buf); err != nil {
			return nil, err
		}
	case FormatDOT:
		buf.WriteString(nodelink.ToDOT(exp, nodelink.Options{Detailed: opts.Detailed}))
	case FormatSVG:
		svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(exp, nodelink.Options{Detailed: opts.Detailed}))
		if err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
		return svg, nil
	}
	return buf.Bytes(), nil
}
