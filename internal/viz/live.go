package viz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/icpwalk/internal/config"
	"github.com/san-kum/icpwalk/internal/experiment"
	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/icpopt"
	"github.com/san-kum/icpwalk/internal/models"
	"github.com/san-kum/icpwalk/internal/sim"
	"github.com/san-kum/icpwalk/internal/walking"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	width           = 80
	height          = 16
	historyCapacity = 600
	trailCapacity   = 400
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(40)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Bold(true)
	adjustStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	phaseStyles = map[icpopt.Phase]lipgloss.Style{
		icpopt.Standing:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88")),
		icpopt.Transfer:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffcc00")),
		icpopt.SingleSupport: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ccff")),
	}
)

// Frame is what the view shows of one control tick.
type Frame struct {
	Time      float64
	CoM       r2.Vec
	ICP       r2.Vec
	Sample    walking.Sample
	Feet      [][]r2.Vec
	Landed    int
	Remaining int
}

type FrameMsg Frame

// DoneMsg ends the run. Err is nil when the run finished normally.
type DoneMsg struct{ Err error }

// Capture reads a frame from an experiment inside its streaming callback.
func Capture(exp *experiment.Experiment, x sim.State, t float64) Frame {
	f := Frame{
		Time: t,
		CoM:  r2.Vec{X: x[models.CoMX], Y: x[models.CoMY]},
		ICP:  r2.Vec{X: x[models.ICPX], Y: x[models.ICPY]},
	}
	w := exp.Walker()
	if trace := w.Trace(); len(trace) > 0 {
		f.Sample = trace[len(trace)-1]
	}
	f.Landed = len(w.Landed())
	f.Remaining = w.RemainingSteps()

	feet := exp.Feet()
	for _, side := range footstep.Sides {
		if !feet.InContact(side) {
			continue
		}
		poly := feet.FootPolygon(side)
		vertices := make([]r2.Vec, poly.NumberOfVertices())
		for i := range vertices {
			vertices[i] = poly.Vertex(i)
		}
		f.Feet = append(f.Feet, vertices)
	}
	return f
}

// ViewportFor frames the straight walk a config describes.
func ViewportFor(cfg *config.Config) Viewport {
	sc := cfg.Scenario
	margin := math.Max(sc.FootLength, 0.2)
	length := float64(sc.Steps) * sc.StepLength
	half := math.Max(sc.StepWidth, 0.2) + margin
	return Viewport{
		MinX: -margin,
		MaxX: length + margin,
		MinY: -half,
		MaxY: half,
	}
}

// Model is the live view of one walking run.
type Model struct {
	title     string
	canvas    *Canvas
	frame     Frame
	hasFrame  bool
	comTrail  []r2.Vec
	icpTrail  []r2.Vec
	errors    []float64
	frozen    bool
	showTrail bool
	done      bool
	err       error
	cancel    context.CancelFunc
}

func NewModel(title string, view Viewport, cancel context.CancelFunc) Model {
	return Model{
		title:     title,
		canvas:    NewCanvas(width, height, view),
		comTrail:  make([]r2.Vec, 0, trailCapacity),
		icpTrail:  make([]r2.Vec, 0, trailCapacity),
		errors:    make([]float64, 0, historyCapacity),
		showTrail: true,
		cancel:    cancel,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case " ":
			m.frozen = !m.frozen
		case "t":
			m.showTrail = !m.showTrail
		}
	case FrameMsg:
		m.push(Frame(msg))
	case DoneMsg:
		m.done = true
		m.err = msg.Err
	}
	return m, nil
}

func (m *Model) push(f Frame) {
	m.comTrail = appendBounded(m.comTrail, f.CoM, trailCapacity)
	m.icpTrail = appendBounded(m.icpTrail, f.ICP, trailCapacity)
	if e := r2.Norm(r2.Sub(f.ICP, f.Sample.ReferenceICP)); !math.IsNaN(e) {
		m.errors = appendBounded(m.errors, e, historyCapacity)
	}
	if !m.frozen {
		m.frame = f
		m.hasFrame = true
	}
}

func appendBounded[T any](s []T, v T, capacity int) []T {
	s = append(s, v)
	if len(s) > capacity {
		s = s[1:]
	}
	return s
}

func (m *Model) draw() {
	m.canvas.Clear()
	if !m.hasFrame {
		return
	}
	for _, foot := range m.frame.Feet {
		m.canvas.Polygon(foot)
	}
	if m.showTrail {
		for _, p := range m.comTrail {
			m.canvas.Plot(p)
		}
		for i := 1; i < len(m.icpTrail); i++ {
			m.canvas.Line(m.icpTrail[i-1], m.icpTrail[i])
		}
	}
	if cmp := m.frame.Sample.CMP; !math.IsNaN(cmp.X) {
		m.canvas.Cross(cmp)
	}
	if step := m.frame.Sample.Footstep; !math.IsNaN(step.X) {
		m.canvas.Cross(step)
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")

	status := "WALKING"
	switch {
	case m.err != nil:
		status = errorStyle.Render("FAILED: " + m.err.Error())
	case m.done:
		status = "FINISHED"
	case m.frozen:
		status = "FROZEN"
	}
	s.WriteString(status + "\n\n")

	f := m.frame
	phase := f.Sample.Phase
	style, ok := phaseStyles[phase]
	if !ok {
		style = valueStyle
	}
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", f.Time)) + "\n")
	s.WriteString(labelStyle.Render("Phase") + style.Render(phase.String()) + "\n")
	s.WriteString(labelStyle.Render("Footsteps") + valueStyle.Render(fmt.Sprintf("%d landed, %d to go", f.Landed, f.Remaining)) + "\n")
	s.WriteString(labelStyle.Render("ICP") + valueStyle.Render(formatVec(f.ICP)) + "\n")
	s.WriteString(labelStyle.Render("CMP") + valueStyle.Render(formatVec(f.Sample.CMP)) + "\n")
	if !math.IsNaN(f.Sample.SwingTime) && phase == icpopt.SingleSupport {
		s.WriteString(labelStyle.Render("Swing") + valueStyle.Render(fmt.Sprintf("%.3fs", f.Sample.SwingTime)) + "\n")
	}
	if f.Sample.Adjusted {
		s.WriteString(adjustStyle.Render("step adjusted to "+formatVec(f.Sample.Footstep)) + "\n")
	}
	if force := f.Sample.Force; force.X != 0 || force.Y != 0 {
		s.WriteString(labelStyle.Render("Push") + errorStyle.Render(fmt.Sprintf("%.0f N", r2.Norm(force))) + "\n")
	}

	if len(m.errors) > 1 {
		chart := asciigraph.Plot(m.errors, asciigraph.Height(4), asciigraph.Width(24), asciigraph.Caption("ICP error (m)"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(helpStyle.Render("─────────────────────\nSP:Freeze T:Trail Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

func formatVec(v r2.Vec) string {
	if math.IsNaN(v.X) || math.IsNaN(v.Y) {
		return "-"
	}
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}

// Run shows exp live, pacing the simulation to the wall clock and sending
// fps frames per simulated second. exp must be set up.
func Run(ctx context.Context, exp *experiment.Experiment, fps int) error {
	if fps <= 0 {
		fps = 30
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(exp.Config().Name, ViewportFor(exp.Config()), cancel))

	go func() {
		period := 1 / float64(fps)
		next := 0.0
		start := time.Now()
		err := exp.RunStreaming(ctx, func(x sim.State, u sim.Control, t float64) bool {
			if t < next {
				return true
			}
			next = t + period
			p.Send(FrameMsg(Capture(exp, x, t)))

			wait := time.Duration(t*float64(time.Second)) - time.Since(start)
			if wait <= 0 {
				return true
			}
			select {
			case <-time.After(wait):
				return true
			case <-ctx.Done():
				return false
			}
		})
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		p.Send(DoneMsg{Err: err})
	}()

	_, err := p.Run()
	return err
}
