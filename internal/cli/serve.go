package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/garmushka/internal/server"
	"github.com/matzehuels/garmushka/pkg/config"
	"github.com/matzehuels/garmushka/pkg/session"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the measurement engine over HTTP",
		Long: `Serve exposes measurement sessions over a JSON HTTP API. Clients create a
session from an image or a saved payload, post commands to it and fetch rows,
summaries and CSV, JSON or PNG exports.`,
		Example: `  garmushka serve
  garmushka serve --addr :9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(cfg config.Config, st session.Store) error {
				if addr == "" {
					addr = cfg.Server.Addr
				}
				printInfo("Listening on %s", StyleValue.Render("http://"+addr))
				printDetail("session backend: %s", cfg.Session.Backend)
				return server.New(cfg, st, c.Logger).ListenAndServe(cmd.Context(), addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config server.addr)")
	return cmd
}
