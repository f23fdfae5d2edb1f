package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/revdeps/pkg/depgraph"
)

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	var orphans bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed packages with their dependent counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner()
			if err != nil {
				return err
			}
			defer runner.Close()

			snap, err := c.load(cmd.Context(), runner)
			if err != nil {
				return err
			}

			var rows [][]string
			snap.Index.ForEachPackage(func(r *depgraph.Record, name string) {
				if orphans && r.DependentCount() > 0 {
					return
				}
				rows = append(rows, []string{name, r.Version, strconv.Itoa(r.DependentCount()), r.Manifest.Source})
			})

			fmt.Fprintln(c.Out, packageTable(rows).Render())
			c.printSnapshot(snap)
			return nil
		},
	}

	cmd.Flags().BoolVar(&orphans, "orphans", false, "only list packages nothing depends on")
	return cmd
}

// packageTable lays out name, version, dependents and source columns.
func packageTable(rows [][]string) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Package", "Version", "Dependents", "Source").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle.Padding(0, 1)
			case col == 2:
				return cell.Foreground(colorCyan).Align(lipgloss.Right)
			case col == 3:
				return cell.Foreground(colorDim)
			default:
				return cell
			}
		})
}
