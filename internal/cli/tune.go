package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/layout"
	"github.com/sticky3d/deskgeom/pkg/pipeline"
	"github.com/sticky3d/deskgeom/pkg/placement"
	"github.com/sticky3d/deskgeom/pkg/scene"
	"github.com/sticky3d/deskgeom/pkg/validate"
)

var (
	tuneKeyStyle   = lipgloss.NewStyle().Foreground(colorGray)
	tuneValueStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
)

const (
	tuneStep    = 0.01 // metres per key press
	tuneYawStep = 5.0  // degrees per key press
)

// =============================================================================
// TuneModel - Interactive dock offset editing
// =============================================================================

// TuneModel nudges one docked object around the desk, re-solving the scene
// after every key press.
type TuneModel struct {
	ctx    context.Context
	scene  *scene.Scene
	object string
	opts   pipeline.Options

	frame  layout.Frame
	desk   geom.Bounds
	margin float64

	Offset placement.DockOffset
	Step   float64
	Issues []validate.Issue
	// Writes is how many docked transforms the last solve wrote; zero when
	// a key press left every offset unchanged.
	Writes  int
	Err     error
	Saved   bool
	Stopped bool
}

// NewTuneModel prepares s for tuning objectID. The desk must be framed and
// the object measured.
func NewTuneModel(ctx context.Context, s *scene.Scene, objectID string, opts pipeline.Options) (TuneModel, error) {
	o, ok := s.Object(objectID)
	if !ok {
		return TuneModel{}, errors.New(errors.ErrCodeObjectNotFound, "object %q not found", objectID)
	}
	f, deskYaw, err := pipeline.DeskFrame(ctx, s, opts)
	if err != nil {
		return TuneModel{}, err
	}
	if f == nil {
		return TuneModel{}, errors.New(errors.ErrCodeSurfaceNotFound, "desk %q cannot be framed", s.Desk)
	}

	opts.Docker = new(placement.Docker)
	m := TuneModel{
		ctx:    ctx,
		scene:  s,
		object: objectID,
		opts:   opts,
		frame:  *f,
		desk:   f.Bounds,
		Step:   tuneStep,
	}
	if opts.Config != nil {
		m.margin = opts.Config.Placement.EdgeMargin
	}
	if o.Dock != nil {
		m.Offset = pipeline.DockOffset(*o.Dock)
	} else {
		m.Offset = placement.CaptureOffset(*f, o.Position, o.Rotation.Y, deskYaw)
	}
	m.resolve()
	return m, nil
}

func (m TuneModel) Init() tea.Cmd {
	return nil
}

func (m TuneModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.Stopped = true
		return m, tea.Quit
	case "enter":
		m.Saved = true
		return m, tea.Quit
	case "left", "h":
		m.Offset.Lateral -= m.Step
	case "right", "l":
		m.Offset.Lateral += m.Step
	case "up", "k":
		m.Offset.Depth -= m.Step
	case "down", "j":
		m.Offset.Depth += m.Step
	case "pgup":
		m.Offset.Lift += m.Step
	case "pgdown":
		m.Offset.Lift = max(0, m.Offset.Lift-m.Step)
	case "[":
		m.Offset.Yaw = geom.NormalizeRadians(m.Offset.Yaw - geom.Deg2Rad(tuneYawStep))
	case "]":
		m.Offset.Yaw = geom.NormalizeRadians(m.Offset.Yaw + geom.Deg2Rad(tuneYawStep))
	case "+", "=":
		m.Step = min(m.Step*10, 1)
		return m, nil
	case "-":
		m.Step = max(m.Step/10, 0.0001)
		return m, nil
	default:
		return m, nil
	}
	m.resolve()
	return m, nil
}

// resolve clamps the offset to the desk and solves the scene with it.
func (m *TuneModel) resolve() {
	o, _ := m.scene.Object(m.object)
	if o.Bounds != nil {
		m.Offset.Lateral, m.Offset.Depth = placement.ClampToDesk(m.frame, m.desk, *o.Bounds,
			m.Offset.Lateral, m.Offset.Depth, m.margin)
	}
	d := pipeline.DockSpec(m.Offset)
	o.Dock = &d

	res, err := pipeline.Solve(m.ctx, m.scene, m.opts)
	m.Err = err
	m.Issues = nil
	if err != nil {
		return
	}
	m.Writes = res.Stats.DockWrites
	for _, is := range res.Issues {
		if is.Object == m.object {
			m.Issues = append(m.Issues, is)
		}
	}
}

func (m TuneModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Tune " + m.object))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ lateral  ↑/↓ depth  pgup/pgdn lift  [ ] yaw  +/- step  ⏎ save  q quit"))
	b.WriteString("\n\n")

	d := pipeline.DockSpec(m.Offset)
	for _, kv := range [][2]string{
		{"lateral", fmt.Sprintf("%+.4f m", d.Lateral)},
		{"depth", fmt.Sprintf("%+.4f m", d.Depth)},
		{"lift", fmt.Sprintf("%.4f m", d.Lift)},
		{"yaw", fmt.Sprintf("%+.1f°", d.YawDeg)},
		{"step", fmt.Sprintf("%g m", m.Step)},
	} {
		b.WriteString(tuneKeyStyle.Width(10).Render(kv[0]))
		b.WriteString(tuneValueStyle.Render(kv[1]))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(StyleError.Render(iconError + " " + errors.UserMessage(m.Err)))
	case len(m.Issues) == 0:
		b.WriteString(StyleSuccess.Render(iconSuccess + " no issues"))
	default:
		for _, is := range m.Issues {
			b.WriteString(StyleWarning.Render(iconWarning + " " + is.Message))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

// tuneCommand creates the tune command.
func (c *CLI) tuneCommand() *cobra.Command {
	var flags solveFlags

	cmd := &cobra.Command{
		Use:   "tune <scene.toml> <object>",
		Short: "Interactively adjust an object's dock offset",
		Long: `Tune opens an interactive editor for one object's desk-relative offset.
The scene is re-solved on every key press and issues for the object are shown
live. Enter stores the offset, q discards it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := c.openSession(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			defer sess.Close()

			m, err := NewTuneModel(ctx, sess.scene, args[1], sess.opts)
			if err != nil {
				return err
			}
			final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}
			tm := final.(TuneModel)
			if !tm.Saved {
				printInfo("Discarded changes to %s", args[1])
				return nil
			}
			if err := sess.runner.SetDock(ctx, sess.scene, args[1], tm.Offset); err != nil {
				return err
			}
			printSuccess("Docked %s", StyleValue.Render(args[1]))
			printDockOffset(tm.Offset)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
