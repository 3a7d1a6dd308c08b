package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sticky3d/deskgeom/pkg/buildinfo"
	"github.com/sticky3d/deskgeom/pkg/cache"
	"github.com/sticky3d/deskgeom/pkg/config"
	"github.com/sticky3d/deskgeom/pkg/pipeline"
	"github.com/sticky3d/deskgeom/pkg/props"
	"github.com/sticky3d/deskgeom/pkg/scene"
	"github.com/sticky3d/deskgeom/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "deskgeom"

	// configEnv overrides the default config path.
	configEnv = "DESKGEOM_CONFIG"
)

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

	// ConfigPath is set by the --config flag.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "deskgeom solves desk layouts, placements and monitor mounts",
		Long:         `deskgeom extracts planar surfaces from prop geometry, keeps docked accessories and the monitor on the desk, frames a default camera view and generates a verified monitor mount.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.ConfigPath, "config", "c", "", "config file (default $"+configEnv+" or ~/.config/deskgeom/config.toml)")

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.projectCommand())
	root.AddCommand(c.mountCommand())
	root.AddCommand(c.dockCommand())
	root.AddCommand(c.undockCommand())
	root.AddCommand(c.docksCommand())
	root.AddCommand(c.tuneCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.propsCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// configPath resolves the config file: flag, then environment, then the
// user config directory. An empty result means built-in defaults.
func (c *CLI) configPath() string {
	if c.ConfigPath != "" {
		return c.ConfigPath
	}
	if p := os.Getenv(configEnv); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, appName, "config.toml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath())
}

// newRunner creates a pipeline runner backed by the configured cache and
// dock store.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	ch, err := openCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, store.Options{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		Mongo: store.MongoOptions{
			URI:        cfg.Store.MongoURI,
			Database:   cfg.Store.MongoDatabase,
			Collection: cfg.Store.MongoCollection,
		},
	})
	if err != nil {
		ch.Close()
		return nil, err
	}
	r := pipeline.NewRunner(ch, nil, loggerFromContext(ctx))
	r.Store = st
	r.TTL = cfg.Cache.TTL
	return r, nil
}

func openCache(ctx context.Context, cfg config.Cache, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   appName + ":",
		})
	case "none":
		return cache.NewNullCache(), nil
	default:
		return cache.NewFileCache(cfg.Dir)
	}
}

// =============================================================================
// Shared Flags
// =============================================================================

// solveFlags are shared by every command that solves a scene first.
type solveFlags struct {
	align     bool
	refresh   bool
	noCache   bool
	autoscale bool
	catalog   string
}

func (f *solveFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.align, "align", false, "centre the monitor and face it along the desk")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&f.autoscale, "autoscale", false, "rescale catalogued props to real-world size")
	cmd.Flags().StringVar(&f.catalog, "catalog", "", "prop catalog TOML (default: built-in)")
}

func (f *solveFlags) options(cmd *cobra.Command, cfg *config.Config) (pipeline.Options, error) {
	if cmd.Flags().Changed("align") {
		cfg.Placement.Align = f.align
	}
	opts := pipeline.Options{Config: cfg, Refresh: f.refresh, Logger: loggerFromContext(cmd.Context())}
	if f.autoscale || f.catalog != "" {
		cat := props.Default()
		if f.catalog != "" {
			var err error
			if cat, err = props.LoadFile(f.catalog); err != nil {
				return opts, err
			}
		}
		opts.Catalog = cat
	}
	return opts, nil
}

// session is a loaded scene with a ready runner.
type session struct {
	cfg    *config.Config
	scene  *scene.Scene
	runner *pipeline.Runner
	opts   pipeline.Options
}

func (c *CLI) openSession(cmd *cobra.Command, path string, f *solveFlags) (*session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	sc, err := scene.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts, err := f.options(cmd, cfg)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(cmd.Context(), cfg, f.noCache)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, scene: sc, runner: runner, opts: opts}, nil
}

func (s *session) solve(ctx context.Context) (*pipeline.Result, error) {
	return s.runner.Solve(ctx, s.scene, s.opts)
}

func (s *session) Close() error { return s.runner.Close() }
