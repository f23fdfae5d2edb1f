package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/revdeps/pkg/compat"
	"github.com/matzehuels/revdeps/pkg/errors"
)

// checkFlags holds flags for the check command.
type checkFlags struct {
	all    bool
	json   bool
	strict bool
}

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	var flags checkFlags

	cmd := &cobra.Command{
		Use:   "check [package]",
		Short: "Check declared ranges against indexed versions",
		Long: `Check whether each dependent's declared version range admits the version
of the package that is actually indexed. Without an argument every edge in
the index is checked.

Ranges that are not semver constraints (git URLs, file paths, tags) are
reported as unparseable.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
				if err := errors.ValidatePackageName(name); err != nil {
					return err
				}
			}

			runner, err := c.newRunner()
			if err != nil {
				return err
			}
			defer runner.Close()

			snap, err := c.load(cmd.Context(), runner)
			if err != nil {
				return err
			}
			findings, _, err := runner.Compat(cmd.Context(), snap, name)
			if err != nil {
				return err
			}
			report := compat.NewReport(findings)

			if flags.json {
				enc := json.NewEncoder(c.Out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				c.printReport(report, flags.all)
			}

			if flags.strict && !report.OK() {
				return fmt.Errorf("%d unsatisfied version ranges", report.Unsatisfied)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&flags.all, "all", "a", false, "also list satisfied ranges")
	cmd.Flags().BoolVar(&flags.json, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "exit non-zero when any range is unsatisfied")
	return cmd
}

func (c *CLI) printReport(r compat.Report, all bool) {
	for _, f := range r.Findings {
		if f.Status == compat.StatusSatisfied && !all {
			continue
		}
		c.printFinding(f)
	}
	summary := fmt.Sprintf("%d satisfied, %d unsatisfied, %d unparseable", r.Satisfied, r.Unsatisfied, r.Unparseable)
	switch {
	case len(r.Findings) == 0:
		c.printInfo("No dependents to check")
	case r.OK():
		c.printSuccess("%s", summary)
	default:
		c.printError("%s", summary)
	}
}
