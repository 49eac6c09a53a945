package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/icpwalk/internal/geometry"
	"github.com/san-kum/icpwalk/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

type fakeController struct {
	err      r2.Vec
	delta    r2.Vec
	failures int
}

func (f *fakeController) ICPError() r2.Vec         { return f.err }
func (f *fakeController) DesiredCMPDelta() r2.Vec  { return f.delta }
func (f *fakeController) NonConvergenceCount() int { return f.failures }

type fakeSupport struct{ polygon *geometry.ConvexPolygon }

func (f fakeSupport) SupportPolygon() *geometry.ConvexPolygon { return f.polygon }

func TestICPTracking(t *testing.T) {
	src := &fakeController{}
	m := NewICPTracking(src)

	if m.Value() != 0 {
		t.Error("expected zero before any sample")
	}

	for _, e := range []r2.Vec{{X: 0.03, Y: 0.04}, {}, {X: math.NaN()}} {
		src.err = e
		m.Observe(nil, nil, 0)
	}

	// sqrt((0.05² + 0) / 2)
	want := 0.05 / math.Sqrt2
	if got := m.Value(); math.Abs(got-want) > 1e-12 {
		t.Errorf("rms = %f, want %f", got, want)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestMaxICPError(t *testing.T) {
	src := &fakeController{}
	m := NewMaxICPError(src)

	for _, e := range []r2.Vec{{X: 0.01}, {Y: -0.2}, {X: 0.1}} {
		src.err = e
		m.Observe(nil, nil, 0)
	}
	if m.Value() != 0.2 {
		t.Errorf("max = %f, want 0.2", m.Value())
	}
}

func TestFeedbackEffort(t *testing.T) {
	src := &fakeController{}
	m := NewFeedbackEffort(src)

	src.delta = r2.Vec{X: 0.3, Y: 0.4}
	m.Observe(nil, nil, 0)
	src.delta = r2.Vec{}
	m.Observe(nil, nil, 0.1)

	if got := m.Value(); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("effort = %f, want 0.25", got)
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestCaptureRatio(t *testing.T) {
	square := geometry.NewConvexPolygon(
		r2.Vec{X: 0.1, Y: 0.1}, r2.Vec{X: -0.1, Y: 0.1}, r2.Vec{X: -0.1, Y: -0.1}, r2.Vec{X: 0.1, Y: -0.1},
	)
	m := NewCaptureRatio(fakeSupport{polygon: square}, 0.02)

	if m.Value() != 1 {
		t.Error("expected full ratio before any sample")
	}

	states := []sim.State{
		{0, 0, 0, 0},
		{0, 0, 0.11, 0},
		{0, 0, 0.2, 0},
		{0, 0, 0, -0.3},
	}
	for _, x := range states {
		m.Observe(x, nil, 0)
	}
	if got := m.Value(); got != 0.5 {
		t.Errorf("capture ratio = %f, want 0.5", got)
	}

	flight := NewCaptureRatio(fakeSupport{polygon: geometry.NewConvexPolygonWithCapacity(4)}, 1)
	flight.Observe(sim.State{0, 0, 0, 0}, nil, 0)
	if flight.Value() != 0 {
		t.Error("an empty support polygon cannot capture the ICP")
	}
}

func TestQPFailures(t *testing.T) {
	src := &fakeController{failures: 3}
	m := NewQPFailures(src)
	m.Observe(nil, nil, 0)
	if m.Value() != 3 {
		t.Errorf("failures = %f, want 3", m.Value())
	}
}

func TestForWalkNames(t *testing.T) {
	ms := ForWalk(&fakeController{}, fakeSupport{polygon: geometry.NewConvexPolygon(r2.Vec{})}, 0)
	seen := make(map[string]bool)
	for _, m := range ms {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
	for _, name := range []string{NameICPRMS, NameICPMax, NameFeedbackEffort, NameCaptureRatio, NameQPFailures} {
		if !seen[name] {
			t.Errorf("missing metric %s", name)
		}
	}
}
