package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/revdeps/pkg/compat"
	"github.com/matzehuels/revdeps/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failures.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// statusIcons maps a compat status to its icon and style.
var statusIcons = map[compat.Status]struct {
	icon  string
	style lipgloss.Style
}{
	compat.StatusSatisfied:   {iconSuccess, styleIconSuccess},
	compat.StatusUnsatisfied: {iconError, styleIconError},
	compat.StatusUnparseable: {iconWarning, styleIconWarning},
}

// =============================================================================
// Status Output
// =============================================================================

func (c *CLI) printSuccess(format string, args ...any) {
	fmt.Fprintln(c.Out, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func (c *CLI) printError(format string, args ...any) {
	fmt.Fprintln(c.Out, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func (c *CLI) printWarning(format string, args ...any) {
	fmt.Fprintln(c.Out, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (c *CLI) printInfo(format string, args ...any) {
	fmt.Fprintln(c.Out, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func (c *CLI) printDetail(format string, args ...any) {
	fmt.Fprintln(c.Out, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func (c *CLI) printFile(path string) {
	fmt.Fprintln(c.Out, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// =============================================================================
// Stats Display
// =============================================================================

// printTreeStats prints tree statistics on a single line.
func (c *CLI) printTreeStats(nodes, cycles, truncated int, cached bool) {
	parts := []string{fmt.Sprintf("%d dependents", nodes)}
	if cycles > 0 {
		parts = append(parts, fmt.Sprintf("%d cycles cut", cycles))
	}
	if truncated > 0 {
		parts = append(parts, fmt.Sprintf("%d truncated by depth", truncated))
	}

	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	rendered := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		rendered = append(rendered, StyleDim.Render(p))
	}
	rendered = append(rendered, statusStyle.Render(status))
	fmt.Fprintln(c.Out, "  "+strings.Join(rendered, StyleDim.Render(" · ")))
}

// printSnapshot prints where an index came from and its size.
func (c *CLI) printSnapshot(snap *pipeline.Snapshot) {
	c.printDetail("%s: %s", snap.Source, snap.Stats)
}

// printFinding prints one compat finding.
func (c *CLI) printFinding(f compat.Finding) {
	si := statusIcons[f.Status]
	line := fmt.Sprintf("%s %s %s %s",
		si.style.Render(si.icon),
		StyleValue.Render(f.Dependent),
		StyleDim.Render(iconArrow),
		fmt.Sprintf("%s@%s (%s %s)", f.Package, f.PackageVersion, f.Kind, f.Range))
	fmt.Fprintln(c.Out, line)
	if f.Reason != "" {
		c.printDetail("%s", f.Reason)
	}
}
