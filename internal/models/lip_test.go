package models

import (
	"math"
	"testing"

	"github.com/san-kum/icpwalk/internal/sim"
)

func TestLIPEquilibrium(t *testing.T) {
	p := NewLinearInvertedPendulum()

	x := sim.State{0.1, -0.05, 0.1, -0.05}
	u := sim.Control{0.1, -0.05, 0, 0}

	dx := p.Derivative(x, u, 0)
	for i, v := range dx {
		if math.Abs(v) > 1e-12 {
			t.Errorf("dx[%d] = %g, expected rest with ICP on the CMP", i, v)
		}
	}
}

func TestLIPDimensions(t *testing.T) {
	p := NewLinearInvertedPendulum()

	if p.StateDim() != 4 {
		t.Errorf("expected state dim 4, got %d", p.StateDim())
	}

	if p.ControlDim() != 4 {
		t.Errorf("expected control dim 4, got %d", p.ControlDim())
	}
}

func TestLIPOmega(t *testing.T) {
	p := &LinearInvertedPendulum{Mass: 1, Height: 1, Gravity: 9}
	if got := p.Omega(); math.Abs(got-3) > 1e-12 {
		t.Errorf("omega = %f, want 3", got)
	}
}

func TestLIPICPDiverges(t *testing.T) {
	p := &LinearInvertedPendulum{Mass: 1, Height: 1, Gravity: 9}

	x := sim.State{0, 0, 0.02, 0}
	dx := p.Derivative(x, sim.Control{0, 0, 0, 0}, 0)

	if math.Abs(dx[ICPX]-0.06) > 1e-12 {
		t.Errorf("icp velocity = %f, want 0.06", dx[ICPX])
	}
	if math.Abs(dx[CoMX]-0.06) > 1e-12 {
		t.Errorf("com velocity = %f, want 0.06", dx[CoMX])
	}
}

func TestLIPPushForce(t *testing.T) {
	p := &LinearInvertedPendulum{Mass: 2, Height: 1, Gravity: 9}

	dx := p.Derivative(sim.State{0, 0, 0, 0}, sim.Control{0, 0, 0, 12}, 0)
	if math.Abs(dx[ICPY]-2) > 1e-12 {
		t.Errorf("pushed icp velocity = %f, want 2", dx[ICPY])
	}
	if dx[ICPX] != 0 {
		t.Errorf("unexpected x response %f", dx[ICPX])
	}
}

func TestLIPShortControl(t *testing.T) {
	p := NewLinearInvertedPendulum()
	dx := p.Derivative(sim.State{0, 0, 0.01, 0}, nil, 0)
	if dx[ICPX] <= 0 {
		t.Errorf("missing control should behave as a CMP at the origin, got %f", dx[ICPX])
	}
}

func TestICPFromCoM(t *testing.T) {
	p := &LinearInvertedPendulum{Mass: 1, Height: 1, Gravity: 9}
	icp := p.ICPFromCoM([2]float64{0.1, 0}, [2]float64{0.3, -0.6})
	if math.Abs(icp[0]-0.2) > 1e-12 || math.Abs(icp[1]+0.2) > 1e-12 {
		t.Errorf("icp = %v, want [0.2 -0.2]", icp)
	}
}
