package viz

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/icpwalk/internal/config"
	"github.com/san-kum/icpwalk/internal/experiment"
	"github.com/san-kum/icpwalk/internal/icpopt"
	"github.com/san-kum/icpwalk/internal/sim"
	"github.com/san-kum/icpwalk/internal/walking"
	"gonum.org/v1/gonum/spatial/r2"
)

var testView = Viewport{MinX: -0.5, MaxX: 1.5, MinY: -0.5, MaxY: 0.5}

func TestCanvasProject(t *testing.T) {
	c := NewCanvas(40, 10, testView)
	x, y := c.Project(r2.Vec{X: -0.5, Y: 0.5})
	if x != 0 || y != 0 {
		t.Errorf("top left projected to (%d, %d)", x, y)
	}
	x, y = c.Project(r2.Vec{X: 1.5, Y: -0.5})
	if x != 79 || y != 39 {
		t.Errorf("bottom right projected to (%d, %d)", x, y)
	}
}

func TestCanvasPlotAndClear(t *testing.T) {
	c := NewCanvas(40, 10, testView)
	c.Plot(r2.Vec{})
	x, y := c.Project(r2.Vec{})
	if !c.IsSet(x, y) {
		t.Fatal("plotted dot not set")
	}

	c.Plot(r2.Vec{X: 10})
	c.Clear()
	if c.IsSet(x, y) {
		t.Error("dot survived Clear")
	}
	if strings.ContainsFunc(c.String(), func(r rune) bool { return r != blank && r != '\n' }) {
		t.Error("cleared canvas is not blank")
	}
}

func TestCanvasPolygonIsClosed(t *testing.T) {
	c := NewCanvas(40, 10, testView)
	square := []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 0.4}, {X: 0, Y: 0.4}}
	c.Polygon(square)
	for _, v := range square {
		if !c.IsSet(c.Project(v)) {
			t.Errorf("vertex %v not drawn", v)
		}
	}
}

func TestViewportForCoversPlan(t *testing.T) {
	cfg := config.DefaultConfig()
	v := ViewportFor(cfg)
	end := float64(cfg.Scenario.Steps) * cfg.Scenario.StepLength
	if v.MinX >= 0 || v.MaxX <= end {
		t.Errorf("viewport %+v does not cover x in [0, %f]", v, end)
	}
	if v.MinY >= -cfg.Scenario.StepWidth/2 || v.MaxY <= cfg.Scenario.StepWidth/2 {
		t.Errorf("viewport %+v does not cover both feet", v)
	}
}

func TestModelShowsFrames(t *testing.T) {
	m := NewModel("walk", testView, nil)
	frame := Frame{
		Time: 1.25,
		ICP:  r2.Vec{X: 0.1, Y: 0.05},
		Sample: walking.Sample{
			Phase:        icpopt.SingleSupport,
			ReferenceICP: r2.Vec{X: 0.1},
			CMP:          r2.Vec{X: 0.02, Y: 0.1},
			Footstep:     r2.Vec{X: 0.3, Y: -0.1},
			SwingTime:    0.6,
			Adjusted:     true,
		},
		Feet:      [][]r2.Vec{{{X: -0.1, Y: 0.05}, {X: 0.1, Y: 0.05}, {X: 0.1, Y: 0.15}, {X: -0.1, Y: 0.15}}},
		Landed:    1,
		Remaining: 2,
	}

	moved := frame
	moved.ICP.Y = 0.08

	next, _ := m.Update(FrameMsg(frame))
	next, _ = next.Update(FrameMsg(moved))
	view := next.View()

	for _, want := range []string{"WALK", "1.25s", "single support", "1 landed, 2 to go", "step adjusted", "ICP error"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModelFreezeKeepsFrame(t *testing.T) {
	m := NewModel("walk", testView, nil)
	next, _ := m.Update(FrameMsg(Frame{Time: 1}))
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	next, _ = next.Update(FrameMsg(Frame{Time: 2}))

	got := next.(Model)
	if !got.frozen {
		t.Fatal("space should freeze the view")
	}
	if got.frame.Time != 1 {
		t.Errorf("frozen view advanced to t=%f", got.frame.Time)
	}
	if len(got.icpTrail) != 2 {
		t.Errorf("trail should keep growing while frozen, got %d points", len(got.icpTrail))
	}
}

func TestModelQuitCancelsRun(t *testing.T) {
	cancelled := false
	m := NewModel("walk", testView, func() { cancelled = true })
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !cancelled {
		t.Error("quit should cancel the run")
	}
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit should return tea.Quit")
	}
}

func TestModelDone(t *testing.T) {
	m := NewModel("walk", testView, nil)
	next, _ := m.Update(DoneMsg{})
	if !strings.Contains(next.View(), "FINISHED") {
		t.Error("finished run not shown")
	}
	next, _ = m.Update(DoneMsg{Err: errors.New("diverged")})
	if !strings.Contains(next.View(), "diverged") {
		t.Error("run error not shown")
	}
}

func TestCaptureReadsExperiment(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario.Steps = 1
	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		t.Fatal(err)
	}

	var frames []Frame
	err := exp.RunStreaming(context.Background(), func(x sim.State, u sim.Control, tm float64) bool {
		frames = append(frames, Capture(exp, x, tm))
		return len(frames) < 5
	})
	if err != nil {
		t.Fatal(err)
	}

	last := frames[len(frames)-1]
	if len(last.Feet) != 2 {
		t.Errorf("standing frame should show both feet, got %d", len(last.Feet))
	}
	if last.Remaining != 1 || last.Landed != 0 {
		t.Errorf("landed %d remaining %d", last.Landed, last.Remaining)
	}
	if last.Sample.Phase != icpopt.Standing {
		t.Errorf("phase = %v", last.Sample.Phase)
	}
	if math.Abs(last.Time-4*cfg.Sim.Dt) > 1e-12 {
		t.Errorf("time = %f", last.Time)
	}
}
