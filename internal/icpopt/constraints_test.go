package icpopt

import (
	"math"
	"testing"

	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/geometry"
	"github.com/san-kum/icpwalk/internal/support"
	"gonum.org/v1/gonum/spatial/r2"
)

type recordingSetter struct {
	cop          *geometry.ConvexPolygon
	reachability *geometry.ConvexPolygon
}

func (r *recordingSetter) SetCoPConstraint(p *geometry.ConvexPolygon) {
	r.cop = p
}

func (r *recordingSetter) SetReachabilityConstraint(p *geometry.ConvexPolygon) {
	r.reachability = p
}

// buildFeet places 0.2x0.1 feet at y = ±0.1.
func buildFeet() (*support.BipedSupportPolygons, error) {
	feet, err := support.NewBipedSupportPolygons(0.2, 0.1)
	if err != nil {
		return nil, err
	}
	if err := feet.SetSolePose(footstep.Left, geometry.Pose2{Y: 0.1}); err != nil {
		return nil, err
	}
	if err := feet.SetSolePose(footstep.Right, geometry.Pose2{Y: -0.1}); err != nil {
		return nil, err
	}
	return feet, nil
}

func newTestFeet(t *testing.T) *support.BipedSupportPolygons {
	t.Helper()
	feet, err := buildFeet()
	if err != nil {
		t.Fatal(err)
	}
	return feet
}

func TestCoPConstraintHandler(t *testing.T) {
	feet := newTestFeet(t)
	h := NewCoPConstraintHandler(feet, 0.01)
	rec := &recordingSetter{}

	h.UpdateForDoubleSupport(rec)
	if rec.cop != h.Polygon() {
		t.Fatal("double support region was not submitted")
	}
	if want := 0.18 * 0.28; math.Abs(rec.cop.Area()-want) > 1e-9 {
		t.Errorf("double support area = %f, want %f", rec.cop.Area(), want)
	}
	if !rec.cop.Contains(r2.Vec{}, 0) {
		t.Error("double support region should contain the midpoint between the feet")
	}

	h.UpdateForSingleSupport(footstep.Right, rec)
	if want := 0.18 * 0.08; math.Abs(rec.cop.Area()-want) > 1e-9 {
		t.Errorf("single support area = %f, want %f", rec.cop.Area(), want)
	}
	if !rec.cop.Contains(r2.Vec{Y: -0.1}, 0) || rec.cop.Contains(r2.Vec{Y: 0.1}, 0) {
		t.Error("single support region should cover the right foot only")
	}
}

func TestReachabilityConstraintHandler(t *testing.T) {
	feet := newTestFeet(t)
	p := DefaultParameters()
	h := NewReachabilityConstraintHandler(feet, p)
	rec := &recordingSetter{}

	h.UpdateForSingleSupport(footstep.Left, rec)
	region := rec.reachability
	tests := []struct {
		name string
		q    r2.Vec
		want bool
	}{
		{"nominal step", r2.Vec{X: 0.3, Y: -0.1}, true},
		{"too far forward", r2.Vec{X: 0.7, Y: -0.1}, false},
		{"crossing under the support foot", r2.Vec{X: 0.3, Y: 0.1}, false},
		{"too narrow", r2.Vec{X: 0.3, Y: 0.05}, false},
		{"too wide", r2.Vec{X: 0.3, Y: -0.45}, false},
		{"step back", r2.Vec{X: -0.25, Y: -0.2}, true},
	}
	for _, tt := range tests {
		if got := region.Contains(tt.q, 1e-9); got != tt.want {
			t.Errorf("%s: Contains(%v) = %v, want %v", tt.name, tt.q, got, tt.want)
		}
	}

	h.UpdateForSingleSupport(footstep.Right, rec)
	if !rec.reachability.Contains(r2.Vec{X: 0.3, Y: 0.1}, 1e-9) {
		t.Error("right support should allow a left step")
	}

	h.UpdateForDoubleSupport(rec)
	if !rec.reachability.IsEmpty() {
		t.Error("double support should remove the reachability constraint")
	}
}

func TestReachabilityFollowsSoleYaw(t *testing.T) {
	feet := newTestFeet(t)
	if err := feet.SetSolePose(footstep.Left, geometry.Pose2{Y: 0.1, Yaw: math.Pi / 2}); err != nil {
		t.Fatal(err)
	}
	h := NewReachabilityConstraintHandler(feet, DefaultParameters())
	rec := &recordingSetter{}
	h.UpdateForSingleSupport(footstep.Left, rec)

	// facing +Y, the right side of the left foot is +X
	if !rec.reachability.Contains(r2.Vec{X: 0.2, Y: 0.4}, 1e-9) {
		t.Error("rotated region should extend forward along +Y on the +X side")
	}
	if rec.reachability.Contains(r2.Vec{X: -0.2, Y: 0.4}, 1e-9) {
		t.Error("rotated region should not cover the -X side")
	}
}
