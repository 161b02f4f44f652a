// Package cli implements the garmushka command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/garmushka/pkg/buildinfo"
	"github.com/matzehuels/garmushka/pkg/config"
	"github.com/matzehuels/garmushka/pkg/engine"
	"github.com/matzehuels/garmushka/pkg/session"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	configPath string
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
		Use:   "garmushka",
		Short: "Garmushka measures lengths and areas on scanned plans",
		Long: `Garmushka measures distances and areas on a raster image such as a scanned
floor plan. Calibrate against a reference of known length, trace polylines
and polygons, and export the measurement table as CSV, JSON or an annotated PNG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/garmushka/config.toml)")

	root.AddCommand(c.replayCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file selected by --config.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	c.Logger.Debug("config loaded", "backend", cfg.Session.Backend, "unit_mode", cfg.Engine.UnitMode)
	return cfg, nil
}

// openStore opens the configured session store.
func (c *CLI) openStore(ctx context.Context, cfg config.Config) (session.Store, error) {
	backend := cfg.Session.Backend
	if backend != config.BackendRedis && backend != config.BackendMongo {
		return session.Open(ctx, cfg.Session)
	}
	sp := newSpinnerWithContext(ctx, "Connecting to "+backend+"...")
	sp.Start()
	st, err := session.Open(ctx, cfg.Session)
	if err != nil {
		sp.StopWithError("Could not connect to " + backend)
		return nil, err
	}
	sp.StopWithSuccess("Connected to " + backend)
	return st, nil
}

func (c *CLI) engineOptions(cfg config.Config) engine.Options {
	return engine.OptionsFromConfig(cfg.Engine, c.Logger)
}
