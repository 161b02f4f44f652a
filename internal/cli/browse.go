package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/garmushka/pkg/config"
	"github.com/matzehuels/garmushka/pkg/engine"
	"github.com/matzehuels/garmushka/pkg/export"
	"github.com/matzehuels/garmushka/pkg/session"
	"github.com/matzehuels/garmushka/pkg/store"
)

var (
	browseHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
	browseStatusStyle = lipgloss.NewStyle().Foreground(colorGreen)
	browseErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <id>",
		Short: "Review and edit a saved session interactively",
		Long: `Browse opens a saved session in the terminal. Move through the measurement
table, reorder or delete shapes, undo, switch between metric and imperial
units and save the result back to the session store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(cfg config.Config, st session.Store) error {
				sess, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				e, err := sess.Payload.Engine(c.engineOptions(cfg))
				if err != nil {
					return err
				}
				m := NewBrowseModel(cmd.Context(), e, sess, st, cfg)
				final, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
				if err != nil {
					return err
				}
				if bm, ok := final.(BrowseModel); ok && bm.dirty {
					printWarning("Unsaved changes to %s were discarded", sess.ID)
				}
				return nil
			})
		},
	}
}

// savedMsg reports the end of an asynchronous save.
type savedMsg struct {
	sess *session.Session
	err  error
}

// BrowseModel is the bubbletea model for `garmushka browse`.
type BrowseModel struct {
	ctx    context.Context
	engine *engine.Engine
	sess   *session.Session
	store  session.Store
	cfg    config.Config

	rows   []store.Row
	cursor int
	status string
	failed bool
	dirty  bool
}

// NewBrowseModel creates a browse model over a reopened session.
func NewBrowseModel(ctx context.Context, e *engine.Engine, sess *session.Session, st session.Store, cfg config.Config) BrowseModel {
	m := BrowseModel{ctx: ctx, engine: e, sess: sess, store: st, cfg: cfg}
	m.refresh()
	return m
}

// refresh reloads the table and keeps the cursor on a valid row.
func (m *BrowseModel) refresh() {
	m.rows = m.engine.Rows()
	m.cursor = max(0, min(m.cursor, len(m.rows)-1))
	if len(m.rows) > 0 {
		m.engine.Select(m.rows[m.cursor].ID)
	}
}

// apply records an engine outcome in the status line.
func (m *BrowseModel) apply(out engine.Outcome, done string) {
	m.failed = !out.Accepted
	switch {
	case !out.Accepted:
		m.status = out.Reason
	case out.Code != "":
		m.status = "nothing to undo"
	default:
		m.status = done
		m.dirty = true
	}
}

func (m BrowseModel) current() (store.Row, bool) {
	if len(m.rows) == 0 {
		return store.Row{}, false
	}
	return m.rows[m.cursor], true
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		if msg.err != nil {
			m.failed, m.status = true, "save failed: "+msg.err.Error()
		} else {
			m.sess = msg.sess
			m.failed, m.status, m.dirty = false, "saved "+msg.sess.ID, false
		}
		return m, nil

	case tea.KeyMsg:
		row, ok := m.current()
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "K", "shift+up":
			if ok && m.cursor > 0 {
				m.apply(m.engine.Reorder(row.ID, store.Up), "moved up")
				if !m.failed {
					m.cursor--
				}
			}
		case "J", "shift+down":
			if ok && m.cursor < len(m.rows)-1 {
				m.apply(m.engine.Reorder(row.ID, store.Down), "moved down")
				if !m.failed {
					m.cursor++
				}
			}
		case "d", "delete":
			if ok {
				m.apply(m.engine.Remove(row.ID), "deleted "+row.Name)
			}
		case "u":
			m.apply(m.engine.Undo(), "undone")
		case "m":
			mode := m.engine.UnitMode().Toggle()
			m.engine.SetUnitMode(mode)
			m.status, m.failed = "units: "+string(mode), false
		case "s":
			m.status, m.failed = "saving...", false
			return m, m.save()
		}
		m.refresh()
	}
	return m, nil
}

// save persists the current state without blocking the UI.
func (m BrowseModel) save() tea.Cmd {
	p := export.FromEngine(m.engine, m.sess.SourceLabel())
	snap := export.Snapshot(export.SceneFromEngine(m.engine, nil), m.cfg.Export.SnapshotWidth, m.cfg.Export.SnapshotHeight)
	if err := p.AttachSnapshot(snap); err != nil {
		return func() tea.Msg { return savedMsg{err: err} }
	}
	sess := *m.sess
	sess.Update(p, m.cfg.Session.TTL.Duration)
	ctx, st := m.ctx, m.store
	return func() tea.Msg {
		return savedMsg{sess: &sess, err: st.Set(ctx, &sess)}
	}
}

func (m BrowseModel) View() string {
	var b strings.Builder

	title := m.sess.SourceLabel()
	if title == "" {
		title = m.sess.ID
	}
	b.WriteString(StyleTitle.Render("Session") + " " + StyleValue.Render(title))
	if m.dirty {
		b.WriteString(StyleWarning.Render(" *"))
	}
	b.WriteString("\n")
	b.WriteString(browseHelpStyle.Render("↑/↓ move  K/J reorder  d delete  u undo  m " + string(m.engine.UnitMode().Toggle()) + "  s save  q quit"))
	b.WriteString("\n\n")

	b.WriteString(renderRows(m.rows, m.cursor))
	b.WriteString("\n")
	b.WriteString(renderSummary(m.engine.Summary()))
	b.WriteString("\n\n")

	if m.status != "" {
		style := browseStatusStyle
		if m.failed {
			style = browseErrorStyle
		}
		b.WriteString(style.Render(m.status))
	}
	if !m.engine.Calibration().IsCalibrated() {
		b.WriteString("  " + StyleWarning.Render("uncalibrated"))
	}
	b.WriteString(browseHelpStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.cursor+1, len(m.rows)), len(m.rows))))
	return b.String()
}

