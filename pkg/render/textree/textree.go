// Package textree renders dependent trees for the terminal.
package textree

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/matzehuels/revdeps/pkg/depgraph"
)

// CycleMarker is appended to nodes whose expansion was cut by the cycle
// guard.
const CycleMarker = "↺"

// Options controls text rendering.
type Options struct {
	// Styled enables colors. Leave it off for files and pipes.
	Styled bool
}

var (
	rootStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cycleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	enumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	plain       = lipgloss.NewStyle()
)

// Render draws the expansion with the root labelled name@version.
func Render(exp *depgraph.Expansion, opts Options) string {
	label := exp.Root
	if exp.Version != "" {
		label += "@" + exp.Version
	}
	t := tree.Root(style(rootStyle, opts).Render(label)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(style(enumStyle, opts))
	addChildren(t, exp.Tree, opts)
	return t.String()
}

// Label formats a single dependent the way Render does.
func Label(name string, n *depgraph.TreeNode, opts Options) string {
	s := style(nameStyle, opts).Render(name) + " " +
		style(detailStyle, opts).Render("("+n.Kind.String()+" "+n.VersionRange+")")
	if n.Circular {
		s += " " + style(cycleStyle, opts).Render(CycleMarker)
	}
	return s
}

func addChildren(parent *tree.Tree, t depgraph.Tree, opts Options) {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		n := t[name]
		if len(n.Dependents) == 0 {
			parent.Child(Label(name, n, opts))
			continue
		}
		child := tree.Root(Label(name, n, opts))
		addChildren(child, n.Dependents, opts)
		parent.Child(child)
	}
}

func style(s lipgloss.Style, opts Options) lipgloss.Style {
	if opts.Styled {
		return s
	}
	return plain
}
