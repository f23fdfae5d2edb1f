// Package cli implements the revdeps command-line interface.
//
// Commands load a directory (or MongoDB collection) of package manifests,
// index who depends on whom, and answer queries against that index.
//
// # Commands
//
//   - tree: print everything that transitively depends on a package
//   - list: tabulate the indexed packages
//   - check: test declared ranges against the indexed versions
//   - serve: expose the same queries over HTTP
//   - cache: manage the on-disk tree cache
//
// # Configuration
//
// Settings come from revdeps.toml, REVDEPS_* environment variables and
// global flags, in increasing priority. See internal/config.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which
// includes every expansion step of a tree query.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/revdeps/internal/config"
	"github.com/matzehuels/revdeps/pkg/buildinfo"
	"github.com/matzehuels/revdeps/pkg/cache"
	"github.com/matzehuels/revdeps/pkg/loader"
	"github.com/matzehuels/revdeps/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "revdeps"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command results; Err receives logs and progress.
	Out io.Writer
	Err io.Writer

	flags  globalFlags
	config *config.Config
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	verbose    bool
	configPath string
	dir        string
	recursive  bool
	mongoURI   string
	mongoDB    string
	mongoColl  string
	noCache    bool
}

// New creates a CLI writing results to out and diagnostics to errw.
func New(out, errw io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(errw, level),
		Out:    out,
		Err:    errw,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "revdeps shows what depends on a package",
		Long:          `revdeps indexes a collection of package.json manifests and answers the reverse question: which packages depend on this one, directly or transitively.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.flags.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig(cmd)
		},
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.Out)
	root.SetErr(c.Err)

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.flags.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&c.flags.configPath, "config", "", "config file (default ./revdeps.toml)")
	pf.StringVarP(&c.flags.dir, "dir", "d", "", "directory of package manifests")
	pf.BoolVarP(&c.flags.recursive, "recursive", "r", false, "search subdirectories for manifests")
	pf.StringVar(&c.flags.mongoURI, "mongo-uri", "", "read manifests from this MongoDB deployment")
	pf.StringVar(&c.flags.mongoDB, "mongo-db", "", "MongoDB database name")
	pf.StringVar(&c.flags.mongoColl, "mongo-collection", "", "MongoDB collection name")
	pf.BoolVar(&c.flags.noCache, "no-cache", false, "disable the tree cache")

	root.AddCommand(c.treeCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Execute runs the command tree with args.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the config file and environment, then applies the
// global flags that were set explicitly.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(c.flags.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Source.Dir = c.flags.dir
	}
	if flags.Changed("recursive") {
		cfg.Source.Recursive = c.flags.recursive
	}
	if flags.Changed("mongo-uri") {
		cfg.Source.Mongo.URI = c.flags.mongoURI
	}
	if flags.Changed("mongo-db") {
		cfg.Source.Mongo.Database = c.flags.mongoDB
	}
	if flags.Changed("mongo-collection") {
		cfg.Source.Mongo.Collection = c.flags.mongoColl
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Disabled = c.flags.noCache
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	c.config = cfg
	return nil
}

// source returns the manifest source selected by the configuration.
func (c *CLI) source() loader.Source {
	return c.config.ManifestSource(c.Logger)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use, backed by the file cache.
func (c *CLI) newRunner() (*pipeline.Runner, error) {
	cc, err := c.newCache()
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, nil, c.Logger)
	r.TTL = c.config.Cache.TTL
	return r, nil
}

func (c *CLI) newCache() (cache.Cache, error) {
	if c.config.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Debug("no cache directory; caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the configured cache directory, falling back to the
// XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.config != nil && c.config.Cache.Dir != "" {
		return c.config.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// load builds a snapshot from the configured source, showing a spinner on
// interactive terminals.
func (c *CLI) load(ctx context.Context, r *pipeline.Runner) (*pipeline.Snapshot, error) {
	src := c.source()
	prog := newProgress(loggerFromContext(ctx))

	var spin *Spinner
	if isTerminal(c.Err) {
		spin = newSpinnerWithContext(ctx, c.Err, "Indexing "+src.String()+"...")
		spin.Start()
	}
	snap, err := r.Load(ctx, src)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return nil, err
	}
	prog.done("Indexed " + snap.Stats.String())
	return snap, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
