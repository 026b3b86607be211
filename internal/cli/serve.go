package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/modmap/internal/server"
	"github.com/matzehuels/modmap/pkg/prefs"
)

type serveOpts struct {
	listen   string
	redisURL string
	title    string
	noCache  bool
	metrics  bool
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts
	cmd := &cobra.Command{
		Use:   "serve [dataset]",
		Short: "Serve the interactive module map over HTTP",
		Long: `Serve the card grid, table view, node-link graph and JSON API for a
catalogue. Preferences are stored per visitor, in memory or in Redis when
--redis (or MODMAP_REDIS_URL) is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, err := c.dataset(args)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), dataset, opts)
		},
	}
	cmd.Flags().StringVar(&opts.listen, "listen", "", "listen address (default "+c.cfg().Listen+")")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "Redis URL for visitor preferences")
	cmd.Flags().StringVar(&opts.title, "title", "", "page title")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", true, "serve Prometheus metrics on /metrics")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, dataset string, opts serveOpts) error {
	logger := loggerFromContext(ctx)
	cfg := c.cfg()
	if opts.listen == "" {
		opts.listen = cfg.Listen
	}
	if opts.redisURL == "" {
		opts.redisURL = cfg.RedisURL
	}

	var metrics *server.Metrics
	if opts.metrics {
		metrics = server.NewMetrics()
		metrics.Register()
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := c.baseOptions(ctx, dataset)
	popts.Title = opts.title
	stop := c.spin(ctx, dataset)
	src, err := runner.Load(ctx, popts)
	stop()
	if err != nil {
		return err
	}

	var store prefs.Store = prefs.NewMemoryStore()
	if opts.redisURL != "" {
		rs, err := prefs.NewRedisStore(ctx, opts.redisURL, prefs.DefaultTTL)
		if err != nil {
			return err
		}
		store = rs
	}
	defer store.Close()

	srv, err := server.New(server.Config{
		Source:  src,
		Runner:  runner,
		Store:   store,
		Options: popts,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	storeName := "memory"
	if opts.redisURL != "" {
		storeName = "redis"
	}
	printSuccess("Serving %s", StyleLink.Render(displayAddr(opts.listen)))
	printKeyValue("Dataset", dataset)
	printKeyValue("Modules", fmt.Sprint(len(src.Dataset.Modules)))
	printKeyValue("Preferences", storeName)
	return srv.ListenAndServe(ctx, opts.listen)
}

// displayAddr turns a listen address into a URL to open.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
