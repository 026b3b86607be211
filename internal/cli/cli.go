package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/modmap/pkg/buildinfo"
	"github.com/matzehuels/modmap/pkg/cache"
	"github.com/matzehuels/modmap/pkg/config"
	errs "github.com/matzehuels/modmap/pkg/errors"
	modio "github.com/matzehuels/modmap/pkg/io"
	"github.com/matzehuels/modmap/pkg/pipeline"
	"github.com/matzehuels/modmap/pkg/prefs"
	"github.com/matzehuels/modmap/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "modmap"

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

	errOut     io.Writer

	configFile string
	config     *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), errOut: w}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Modmap explores a module catalogue and its prerequisites",
		Long: `Modmap turns a catalogue of academic modules into a map of their
prerequisites: modules are grouped by level, ordered so prerequisites come
first, and can be highlighted, filtered by theme, exported, or served as an
interactive page.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/modmap/config.yaml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.levelsCommand())
	root.AddCommand(c.highlightCommand())
	root.AddCommand(c.themesCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.prefsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

func (c *CLI) loadConfig() error {
	cfg, err := config.NewLoader().LoadWithDefaults(c.configFile)
	if err != nil {
		return err
	}
	c.config = cfg
	return nil
}

// cfg returns the loaded configuration, or the defaults when a command runs
// without the root's pre-run hook (as in tests).
func (c *CLI) cfg() *config.Config {
	if c.config == nil {
		return config.Defaults()
	}
	return c.config
}

// dataset picks the dataset argument, falling back to the configured one.
func (c *CLI) dataset(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if ds := c.cfg().Dataset; ds != "" {
		return ds, nil
	}
	return "", errs.New(errs.ErrCodeInvalidInput, "no dataset: pass a path or URL, or set MODMAP_DATASET")
}

// baseOptions returns pipeline options populated from the configuration and
// the stored CLI preferences.
func (c *CLI) baseOptions(ctx context.Context, dataset string) pipeline.Options {
	cfg := c.cfg()
	return pipeline.Options{
		Dataset:          dataset,
		IncludeAncillary: cfg.IncludeAncillary,
		SyllabusBaseURL:  cfg.SyllabusBaseURL,
		SearchPrefix:     cfg.SearchPrefix,
		Prefs:            c.loadPrefs(ctx),
		Logger:           loggerFromContext(ctx),
	}
}

// loadPrefs reads the CLI user's preferences, falling back to defaults.
func (c *CLI) loadPrefs(ctx context.Context) prefs.Prefs {
	store, err := c.prefsStore()
	if err != nil {
		loggerFromContext(ctx).Debug("preferences unavailable", "err", err)
		return prefs.Defaults()
	}
	defer store.Close()
	p, err := store.Load(ctx, prefs.DefaultKey)
	if err != nil {
		loggerFromContext(ctx).Warn("reading preferences", "err", err)
		return prefs.Defaults()
	}
	return p
}

func (c *CLI) prefsStore() (*prefs.FileStore, error) {
	dir, err := c.cfg().ResolvedPrefsDir()
	if err != nil {
		return nil, err
	}
	return prefs.NewFileStore(dir)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Cache keys are scoped
// by build version, so artifacts rendered by another release are not
// served from a shared cache directory.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), cacheScope())
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

func cacheScope() string {
	return appName + "@" + buildinfo.Version + ":"
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := c.cfg().ResolvedCacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// openSession loads a dataset through a runner and builds a session for it.
func (c *CLI) openSession(ctx context.Context, opts pipeline.Options, noCache bool) (*modio.Source, *session.Session, error) {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return nil, nil, err
	}
	defer runner.Close()

	stop := c.spin(ctx, opts.Dataset)
	src, err := runner.Load(ctx, opts)
	stop()
	if err != nil {
		return nil, nil, err
	}
	s, err := pipeline.NewSession(src, opts)
	if err != nil {
		return nil, nil, err
	}
	return src, s, nil
}

// spin starts a spinner while a remote dataset is fetched and returns the
// function that stops it. Local datasets get no spinner.
func (c *CLI) spin(ctx context.Context, dataset string) func() {
	if c.errOut == nil || !errs.IsURL(dataset) {
		return func() {}
	}
	sp := newSpinner(ctx, c.errOut, "Fetching "+dataset)
	sp.Start()
	return sp.Stop
}
