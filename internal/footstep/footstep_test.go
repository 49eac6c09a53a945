package footstep

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/icpwalk/internal/geometry"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestSide(t *testing.T) {
	if Left.Opposite() != Right || Right.Opposite() != Left {
		t.Error("Opposite is not an involution")
	}
	if Left.Index() == Right.Index() {
		t.Error("sides share an index")
	}
	if Left.Sign() != 1 || Right.Sign() != -1 {
		t.Error("unexpected lateral signs")
	}
	s, err := ParseSide("right")
	if err != nil || s != Right {
		t.Errorf("ParseSide(right) = %v, %v", s, err)
	}
	if _, err := ParseSide("middle"); err == nil {
		t.Error("expected error for unknown side")
	}
}

func TestSideDependent(t *testing.T) {
	var d SideDependent[float64]
	d.Set(Left, 1.5)
	d.Set(Right, -2)
	if d.Get(Left) != 1.5 || d.Get(Right) != -2 {
		t.Errorf("unexpected values %v", d)
	}
	*d.Ptr(Left) += 1
	if d.Get(Left) != 2.5 {
		t.Errorf("Ptr did not alias storage: %v", d)
	}
}

func TestTimingValidate(t *testing.T) {
	tests := []struct {
		name   string
		timing Timing
		valid  bool
	}{
		{"nominal", NewTiming(0.5, 0.2), true},
		{"zero transfer", NewTiming(0.5, 0), true},
		{"zero swing", NewTiming(0, 0.2), false},
		{"NaN swing", NewTiming(math.NaN(), 0.2), false},
		{"negative transfer", NewTiming(0.5, -0.1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.timing.Validate()
			if (err == nil) != tt.valid {
				t.Errorf("Validate() = %v, valid %v", err, tt.valid)
			}
			if err != nil && !errors.Is(err, ErrInvalidTiming) {
				t.Errorf("expected ErrInvalidTiming, got %v", err)
			}
		})
	}
}

func TestPlan(t *testing.T) {
	p := NewPlan(2)
	if !math.IsNaN(p.FinalTransferDuration()) {
		t.Error("final transfer duration should start as NaN")
	}

	step := Footstep{Side: Left, Pose: geometry.Pose2{X: 0.3, Y: 0.1}}
	if err := p.Add(step, NewTiming(0.5, 0.2)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	bad := Footstep{Side: Right, Pose: geometry.Pose2{X: math.NaN()}}
	if err := p.Add(bad, NewTiming(0.5, 0.2)); !errors.Is(err, ErrNonFinitePose) {
		t.Errorf("expected ErrNonFinitePose, got %v", err)
	}

	badContact := Footstep{Side: Right, ContactPoints: []r2.Vec{{X: math.Inf(1)}}}
	if err := p.Add(badContact, NewTiming(0.5, 0.2)); !errors.Is(err, ErrNonFinitePose) {
		t.Errorf("expected ErrNonFinitePose for contact point, got %v", err)
	}

	if err := p.Add(step, NewTiming(0.5, 0.2)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := p.Add(step, NewTiming(0.5, 0.2)); !errors.Is(err, ErrPlanFull) {
		t.Errorf("expected ErrPlanFull, got %v", err)
	}
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}

	p.Clear()
	if p.Len() != 0 {
		t.Errorf("Len() after Clear = %d", p.Len())
	}
}
