package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/revdeps/pkg/errors"
	"github.com/matzehuels/revdeps/pkg/pipeline"
)

// treeFlags holds flags for the tree command.
type treeFlags struct {
	format   string
	depth    int
	output   string
	refresh  bool
	detailed bool
}

// treeCommand creates the tree command.
func (c *CLI) treeCommand() *cobra.Command {
	var flags treeFlags

	cmd := &cobra.Command{
		Use:   "tree [package]",
		Short: "Print everything that depends on a package",
		Long: `Print the dependent tree of a package: its direct dependents, their
dependents, and so on. Branches that loop back onto the current path are
cut and marked ↺.

Without a package argument on an interactive terminal, a picker lists the
indexed packages.`,
		Example: `  # Who depends on lodash, as a tree
  revdeps tree lodash --dir ./manifests

  # Two levels only, as JSON
  revdeps tree lodash --depth 2 --format json

  # Diagram of the dependents
  revdeps tree lodash --format svg -o lodash.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTree(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", pipeline.DefaultFormat,
		"output format: "+strings.Join(pipeline.FormatNames, ", "))
	cmd.Flags().IntVar(&flags.depth, "depth", 0, "maximum levels below the package (0 = unlimited)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "recompute even when a cached tree exists")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "label diagram edges with the dependency kind")

	return cmd
}

func (c *CLI) runTree(ctx context.Context, args []string, flags treeFlags) error {
	if err := pipeline.ValidateFormat(flags.format); err != nil {
		return err
	}

	runner, err := c.newRunner()
	if err != nil {
		return err
	}
	defer runner.Close()

	snap, err := c.load(ctx, runner)
	if err != nil {
		return err
	}

	name, err := c.treeRoot(args, snap)
	if err != nil || name == "" {
		return err
	}

	exp, cached, err := runner.Tree(ctx, snap, pipeline.Options{
		Package:  name,
		MaxDepth: flags.depth,
		Refresh:  flags.refresh,
	})
	if err != nil {
		return err
	}

	styled := flags.output == "" && isTerminal(c.Out)
	data, err := pipeline.Render(ctx, exp, flags.format, pipeline.RenderOptions{
		Styled:   styled,
		Detailed: flags.detailed,
	})
	if err != nil {
		return err
	}

	if flags.output != "" {
		if err := os.WriteFile(flags.output, data, 0o644); err != nil {
			return err
		}
		c.printSuccess("Dependent tree of %s", name)
		c.printFile(flags.output)
		c.printTreeStats(exp.Tree.Size(), len(exp.Cycles), exp.DepthTruncated, cached)
		return nil
	}

	if _, err := c.Out.Write(data); err != nil {
		return err
	}
	if flags.format == pipeline.FormatText {
		c.printTreeStats(exp.Tree.Size(), len(exp.Cycles), exp.DepthTruncated, cached)
		if len(exp.Cycles) > 0 {
			c.printWarning("circular dependencies were cut (%s)", strings.Join(exp.Cycles[0], " → "))
		}
	}
	return nil
}

// treeRoot returns the package named on the command line, or asks for one
// on an interactive terminal. An empty name means the user cancelled.
func (c *CLI) treeRoot(args []string, snap *pipeline.Snapshot) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if !isTerminal(os.Stdin) || !isTerminal(c.Err) {
		return "", errors.New(errors.ErrCodeInvalidInput, "package name required when not running in a terminal")
	}
	return c.pickPackage(snap.Index)
}
