package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/revdeps/internal/server"
	"github.com/matzehuels/revdeps/pkg/cache"
	"github.com/matzehuels/revdeps/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dependent queries over HTTP",
		Long: `Load the index once and answer queries over HTTP until interrupted.

With --watch the manifest directory is watched and the index is rebuilt
after changes settle. Queries keep using the previous index until the new
one is ready.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("watch") {
				cfg.Watch = watch
			}
			return c.serve(cmd.Context(), cfg.Addr, cfg.Watch)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild the index when manifests change")
	return cmd
}

func (c *CLI) serve(ctx context.Context, addr string, watch bool) error {
	cc, keyer, err := c.serverCache(ctx)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(cc, keyer, c.Logger)
	runner.TTL = c.config.Cache.TTL
	defer runner.Close()

	metrics := server.NewMetrics()
	metrics.Install()

	srv := server.New(server.Options{
		Source:  c.source(),
		Runner:  runner,
		Metrics: metrics,
		Logger:  c.Logger,
	})
	if err := srv.Reload(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if watch {
		if c.config.Source.Mongo.URI != "" {
			c.Logger.Warn("--watch only applies to directory sources; ignoring")
		} else {
			g.Go(func() error {
				return srv.Watch(ctx, c.config.Dir(c.Logger), c.config.Server.Debounce)
			})
		}
	}
	g.Go(func() error {
		return srv.ListenAndServe(ctx, addr)
	})
	return g.Wait()
}

// serverCache picks the tree cache for a long-running server: Redis when
// configured, otherwise an in-process LRU.
func (c *CLI) serverCache(ctx context.Context) (cache.Cache, cache.Keyer, error) {
	cfg := c.config.Cache
	switch {
	case cfg.Disabled:
		return cache.NewNullCache(), nil, nil
	case cfg.RedisAddr != "":
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		var keyer cache.Keyer = cache.NewDefaultKeyer()
		if cfg.RedisPrefix != "" {
			keyer = cache.NewScopedKeyer(keyer, cfg.RedisPrefix)
		}
		c.Logger.Info("using redis cache", "addr", cfg.RedisAddr, "prefix", cfg.RedisPrefix)
		return rc, keyer, nil
	default:
		lc, err := cache.NewLRUCache(cfg.LRUSize)
		if err != nil {
			return nil, nil, err
		}
		return lc, nil, nil
	}
}
