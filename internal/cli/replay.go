package cli

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/garmushka/pkg/bitmap"
	"github.com/matzehuels/garmushka/pkg/config"
	"github.com/matzehuels/garmushka/pkg/engine"
	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/export"
	"github.com/matzehuels/garmushka/pkg/script"
	"github.com/matzehuels/garmushka/pkg/session"
	"github.com/matzehuels/garmushka/pkg/units"
	"github.com/matzehuels/garmushka/pkg/watcher"
)

// replayOptions holds the flags of `garmushka replay`.
type replayOptions struct {
	image string
	unit  string
	csv   string
	json  string
	png   string
	save  bool
	watch bool
	quiet bool
}

// replayResult is what one replay produced.
type replayResult struct {
	engine   *engine.Engine
	payload  export.Payload
	rejected int
	session  *session.Session
}

func (c *CLI) replayCommand() *cobra.Command {
	var opts replayOptions

	cmd := &cobra.Command{
		Use:   "replay <script>",
		Short: "Apply a measurement script and export the results",
		Long: `Replay applies a JSON or TOML script of engine commands to an image (or a
blank sheet of the script's width and height), prints the measurement table
and writes the requested exports.

With --watch the script is replayed every time it or the image changes.`,
		Example: `  garmushka replay floor-2.toml --image floor-2.png --csv floor-2.csv
  garmushka replay plan.json --unit imperial --png plan-annotated.png --save
  garmushka replay plan.json --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			var st session.Store
			if opts.save {
				if st, err = c.openStore(cmd.Context(), cfg); err != nil {
					return err
				}
				defer st.Close()
			}
			if opts.watch {
				return c.watchReplay(cmd.Context(), cfg, st, args[0], opts)
			}
			_, err = c.replay(cmd.Context(), cfg, st, args[0], opts, nil)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.image, "image", "", "image to measure on (overrides the script's image)")
	cmd.Flags().StringVar(&opts.unit, "unit", "", "display units: metric or imperial")
	cmd.Flags().StringVar(&opts.csv, "csv", "", "write the measurement table as CSV")
	cmd.Flags().StringVar(&opts.json, "json", "", "write the session payload as JSON")
	cmd.Flags().StringVar(&opts.png, "png", "", "write an annotated PNG of the current view")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the result to the session store")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "replay again whenever the script or image changes")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print the measurement table")

	return cmd
}

// replay runs the script once. prev carries the session across --watch
// runs so repeated saves update one session.
func (c *CLI) replay(ctx context.Context, cfg config.Config, st session.Store, path string, opts replayOptions, prev *session.Session) (*replayResult, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	s, err := script.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.image != "" {
		s.Image = opts.image
	}

	var img image.Image
	width, height := s.Width, s.Height
	if s.Image != "" {
		if img, err = bitmap.Load(s.Image); err != nil {
			return nil, err
		}
		width, height = bitmap.Size(img)
	}
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "script needs an image or a positive width and height")
	}

	eo := c.engineOptions(cfg)
	if s.UnitMode != "" {
		eo.UnitMode = s.Mode()
	}
	if opts.unit != "" {
		if eo.UnitMode, err = units.ParseMode(opts.unit); err != nil {
			return nil, err
		}
	}

	e := engine.New(width, height, eo)
	res := &replayResult{engine: e, session: prev}
	for _, r := range e.Run(s.Commands) {
		if !r.Outcome.Accepted {
			res.rejected++
			printWarning("command %d (%s) rejected: %s", r.Index+1, r.Command.Op, r.Outcome.Reason)
		} else if r.Outcome.Code != "" {
			logger.Debug("command notice", "index", r.Index+1, "op", r.Command.Op, "code", r.Outcome.Code)
		}
	}
	prog.done("Replayed " + pluralize(len(s.Commands), "command"))

	res.payload = export.FromEngine(e, s.Label)
	if !opts.quiet {
		printTable(res.payload)
	}
	if err := c.writeExports(res, img, cfg, opts); err != nil {
		return nil, err
	}
	if opts.save {
		if err := c.saveReplay(ctx, st, cfg, res, img); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (c *CLI) writeExports(res *replayResult, img image.Image, cfg config.Config, opts replayOptions) error {
	if opts.csv != "" {
		if err := export.ExportCSV(res.payload, opts.csv, export.CSVOptions{BOM: cfg.Export.CSVBOM, Summary: true}); err != nil {
			return err
		}
		printFile(opts.csv)
	}
	if opts.json != "" {
		if err := export.ExportJSON(res.payload, opts.json); err != nil {
			return err
		}
		printFile(opts.json)
	}
	if opts.png != "" {
		out := export.Render(export.SceneFromEngine(res.engine, img), export.RasterOptions{Labels: true})
		if err := writePNGFile(opts.png, out); err != nil {
			return err
		}
		printFile(opts.png)
	}
	return nil
}

func (c *CLI) saveReplay(ctx context.Context, st session.Store, cfg config.Config, res *replayResult, img image.Image) error {
	p := res.payload
	snap := export.Snapshot(export.SceneFromEngine(res.engine, img), cfg.Export.SnapshotWidth, cfg.Export.SnapshotHeight)
	if err := p.AttachSnapshot(snap); err != nil {
		return err
	}
	if res.session == nil {
		res.session = session.New(p, cfg.Session.TTL.Duration)
	} else {
		res.session.Update(p, cfg.Session.TTL.Duration)
	}
	if err := st.Set(ctx, res.session); err != nil {
		return err
	}
	printSuccess("Saved session %s", res.session.ID)
	printNextStep("Browse it", "garmushka browse "+res.session.ID)
	return nil
}

// watchReplay replays once, then again on every change until ctx is done.
func (c *CLI) watchReplay(ctx context.Context, cfg config.Config, st session.Store, path string, opts replayOptions) error {
	logger := loggerFromContext(ctx)
	res, err := c.replay(ctx, cfg, st, path, opts, nil)
	if err != nil {
		printError("%v", err)
	}
	var sess *session.Session
	if res != nil {
		sess = res.session
	}

	w, err := watcher.New(watcher.DefaultDebounce, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	runs := make(chan string, 1)
	notify := func(p string) {
		select {
		case runs <- p:
		default:
		}
	}
	targets := []string{path}
	if opts.image != "" {
		targets = append(targets, opts.image)
	} else if s, err := script.Load(path); err == nil && s.Image != "" {
		targets = append(targets, s.Image)
	}
	for _, t := range targets {
		if err := w.Watch(t, notify); err != nil {
			return err
		}
	}

	go w.Run(ctx)
	printInfo("Watching %s for changes (ctrl+c to stop)", path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case changed := <-runs:
			printNewline()
			printInfo("%s changed", changed)
			res, err := c.replay(ctx, cfg, st, path, opts, sess)
			if err != nil {
				printError("%v", err)
				continue
			}
			sess = res.session
		}
	}
}

// printTable prints the measurement table with its summary.
func printTable(p export.Payload) {
	title := p.SourceLabel
	if p.IsCalibrated {
		title += StyleDim.Render("  calibrated")
	} else {
		title += StyleWarning.Render("  uncalibrated, values in px")
	}
	fmt.Println(StyleTitle.Render("Measurements") + " " + title)
	fmt.Println(renderRows(p.MeasurementTable, -1))
	fmt.Println(renderSummary(p.Summary))
}

func writePNGFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WritePNG(img, f); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
