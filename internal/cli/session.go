package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/garmushka/pkg/cache"
	"github.com/matzehuels/garmushka/pkg/config"
	"github.com/matzehuels/garmushka/pkg/export"
	"github.com/matzehuels/garmushka/pkg/session"
)

// sessionCommand creates the session management command.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage saved measurement sessions",
	}

	cmd.AddCommand(c.sessionListCommand())
	cmd.AddCommand(c.sessionShowCommand())
	cmd.AddCommand(c.sessionExportCommand())
	cmd.AddCommand(c.sessionDeleteCommand())
	cmd.AddCommand(c.sessionCleanupCommand())
	cmd.AddCommand(c.sessionPathCommand())

	return cmd
}

// withStore loads the config, opens the store and runs fn against it.
func (c *CLI) withStore(ctx context.Context, fn func(config.Config, session.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	st, err := c.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st)
}

func (c *CLI) sessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(_ config.Config, st session.Store) error {
				list, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo("No saved sessions")
					printNextStep("Save one with", "garmushka replay <script> --save")
					return nil
				}
				fmt.Println(renderSessions(list))
				return nil
			})
		},
	}
}

func renderSessions(list []*session.Session) string {
	rows := make([][]string, len(list))
	for i, s := range list {
		scale := "px"
		if s.Payload.IsCalibrated {
			scale = strconv.FormatFloat(s.Payload.PixelsPerUnit, 'f', 2, 64) + " px/m"
		}
		rows[i] = []string{s.ID, s.SourceLabel(), strconv.Itoa(len(s.Payload.Shapes)), scale, formatRelativeTime(s.UpdatedAt)}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Image", "Shapes", "Scale", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			if col == 0 || col == 4 {
				return styleCell.Foreground(colorGray)
			}
			return styleCell
		}).
		Render()
}

func (c *CLI) sessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved session's measurement table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(_ config.Config, st session.Store) error {
				sess, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				p := sess.Payload
				printKeyValue("ID", sess.ID)
				printKeyValue("Image", fmt.Sprintf("%s (%dx%d)", p.SourceLabel, p.Width, p.Height))
				printKeyValue("Units", string(p.UnitMode))
				printKeyValue("Updated", sess.UpdatedAt.Local().Format("2006-01-02 15:04"))
				if !sess.ExpiresAt.IsZero() {
					printKeyValue("Expires", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
				}
				printNewline()
				printTable(p)
				return nil
			})
		},
	}
}

func (c *CLI) sessionExportCommand() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a saved session as CSV, JSON or PNG",
		Example: `  garmushka session export 3f2c... --format csv -o plan.csv
  garmushka session export 3f2c... --format json | jq .area_summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(cfg config.Config, st session.Store) error {
				sess, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				if err := c.exportSession(cmd.Context(), &buf, f, sess, cfg); err != nil {
					return err
				}
				if output == "" {
					_, err := os.Stdout.Write(buf.Bytes())
					return err
				}
				if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				printFile(output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "export format: csv, json or png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, f := range export.Formats() {
			names = append(names, string(f))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// exportSession writes sess in format f. PNG prefers the stored snapshot
// and otherwise renders the shapes on a blank sheet, through the render
// cache in cfg.Export.CacheDir.
func (c *CLI) exportSession(ctx context.Context, w io.Writer, f export.Format, sess *session.Session, cfg config.Config) error {
	p := sess.Payload
	switch f {
	case export.FormatCSV:
		return export.WriteCSV(p, w, export.CSVOptions{BOM: cfg.Export.CSVBOM, Summary: true})
	case export.FormatPNG:
		if len(p.RasterSnapshot) > 0 {
			_, err := w.Write(p.RasterSnapshot)
			return err
		}
		e, err := p.Engine(c.engineOptions(cfg))
		if err != nil {
			return err
		}
		renders, err := cache.NewFileCache(cfg.Export.CacheDir)
		if err != nil {
			return err
		}
		data, err := export.CachedSnapshot(ctx, renders, export.SceneFromEngine(e, nil), cfg.Export.SnapshotWidth, cfg.Export.SnapshotHeight, "")
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	p.RasterSnapshot = nil
	return export.Write(w, f, p, export.Scene{}, export.RasterOptions{})
}

func (c *CLI) sessionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete saved sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(_ config.Config, st session.Store) error {
				for _, id := range args {
					if err := st.Delete(cmd.Context(), id); err != nil {
						return err
					}
					printSuccess("Deleted %s", id)
				}
				return nil
			})
		},
	}
}

func (c *CLI) sessionCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(_ config.Config, st session.Store) error {
				if err := st.Cleanup(cmd.Context()); err != nil {
					return err
				}
				printSuccess("Expired sessions removed")
				return nil
			})
		},
	}
}

// sessionPathCommand prints where sessions are stored.
func (c *CLI) sessionPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the session storage location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			fmt.Println(storeLocation(cfg.Session))
			return nil
		},
	}
}

func storeLocation(s config.Session) string {
	switch s.Backend {
	case config.BackendSQLite:
		return s.SQLitePath
	case config.BackendRedis:
		return "redis://" + s.RedisAddr + "/" + strconv.Itoa(s.RedisDB)
	case config.BackendMongo:
		return s.MongoURI + "/" + s.MongoDatabase
	case config.BackendMemory:
		return "memory"
	}
	return s.Dir
}
