package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/revdeps/pkg/depgraph"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// PackageListModel - Interactive package selection
// =============================================================================

// PackageRow is one selectable package.
type PackageRow struct {
	Name       string
	Version    string
	Dependents int
}

// PackageListModel is the bubbletea model for picking a tree root. Typing
// narrows the list by substring.
type PackageListModel struct {
	All      []PackageRow
	Visible  []PackageRow
	Filter   string
	Cursor   int
	Offset   int
	Height   int
	Selected *PackageRow
}

// NewPackageListModel lists every package in ix, most depended-upon first.
func NewPackageListModel(ix *depgraph.Index) PackageListModel {
	rows := make([]PackageRow, 0, ix.Len())
	ix.ForEachPackage(func(r *depgraph.Record, name string) {
		rows = append(rows, PackageRow{Name: name, Version: r.Version, Dependents: r.DependentCount()})
	})
	sortRows(rows)
	return PackageListModel{All: rows, Visible: rows, Height: 15}
}

// sortRows orders by dependent count descending. Equal counts keep the
// index's name order.
func sortRows(rows []PackageRow) {
	slices.SortStableFunc(rows, func(a, b PackageRow) int {
		return cmp.Compare(b.Dependents, a.Dependents)
	})
}

func (m PackageListModel) Init() tea.Cmd {
	return nil
}

func (m PackageListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			m.moveCursor(-1)
		case tea.KeyDown:
			m.moveCursor(1)
		case tea.KeyEnter:
			if len(m.Visible) == 0 {
				return m, nil
			}
			row := m.Visible[m.Cursor]
			m.Selected = &row
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.Filter != "" {
				m.Filter = m.Filter[:len(m.Filter)-1]
				m.applyFilter()
			}
		case tea.KeyRunes:
			m.Filter += string(msg.Runes)
			m.applyFilter()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m *PackageListModel) moveCursor(delta int) {
	next := m.Cursor + delta
	if next < 0 || next >= len(m.Visible) {
		return
	}
	m.Cursor = next
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *PackageListModel) applyFilter() {
	m.Cursor, m.Offset = 0, 0
	if m.Filter == "" {
		m.Visible = m.All
		return
	}
	m.Visible = nil
	for _, r := range m.All {
		if strings.Contains(r.Name, m.Filter) {
			m.Visible = append(m.Visible, r)
		}
	}
}

func (m PackageListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Package"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  esc quit  type to filter"))
	b.WriteString("\n")
	b.WriteString(StyleValue.Render("filter: " + m.Filter))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Visible))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		r := m.Visible[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, r.Name, r.Version, strconv.Itoa(r.Dependents)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Version", "Dependents").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Visible) {
				return lipgloss.NewStyle()
			}
			switch {
			case idx == m.Cursor:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			case m.Visible[idx].Dependents == 0:
				return lipgloss.NewStyle().Foreground(colorDim)
			default:
				return lipgloss.NewStyle()
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Visible)), len(m.Visible))))
	return b.String()
}

// pickPackage runs the picker and returns the chosen name, or "" when the
// user quit without choosing.
func (c *CLI) pickPackage(ix *depgraph.Index) (string, error) {
	final, err := tea.NewProgram(NewPackageListModel(ix), tea.WithOutput(c.Err)).Run()
	if err != nil {
		return "", err
	}
	if m, ok := final.(PackageListModel); ok && m.Selected != nil {
		return m.Selected.Name, nil
	}
	return "", nil
}
