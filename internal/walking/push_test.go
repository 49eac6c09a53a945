package walking

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestPushScheduleForceAt(t *testing.T) {
	s, err := NewPushSchedule(
		Push{Start: 1.0, Duration: 0.2, Force: r2.Vec{X: 10}},
		Push{Start: 0.5, Duration: 1.0, Force: r2.Vec{Y: -5}},
	)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		t    float64
		want r2.Vec
	}{
		{0.4, r2.Vec{}},
		{0.5, r2.Vec{Y: -5}},
		{1.1, r2.Vec{X: 10, Y: -5}},
		{1.2, r2.Vec{Y: -5}},
		{1.5, r2.Vec{}},
	}
	for _, tt := range tests {
		if got := s.ForceAt(tt.t); got != tt.want {
			t.Errorf("ForceAt(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
	if s.Pushes()[0].Start != 0.5 {
		t.Error("pushes should be sorted by start time")
	}
}

func TestNilPushSchedule(t *testing.T) {
	var s *PushSchedule
	if f := s.ForceAt(1); f != (r2.Vec{}) {
		t.Errorf("nil schedule pushed with %v", f)
	}
}

func TestPushValidation(t *testing.T) {
	bad := []Push{
		{Start: -1, Duration: 0.1},
		{Start: 0, Duration: 0},
		{Start: 0, Duration: 0.1, Force: r2.Vec{X: math.Inf(1)}},
	}
	for _, p := range bad {
		if _, err := NewPushSchedule(p); !errors.Is(err, ErrInvalidPush) {
			t.Errorf("%+v: expected ErrInvalidPush, got %v", p, err)
		}
	}
}

func TestRandomPushesAreReproducible(t *testing.T) {
	a := RandomPushes(7, 5, 200, 0.1, 1, 3)
	b := RandomPushes(7, 5, 200, 0.1, 1, 3)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed gave different pushes:\n%s", diff)
	}
	if cmp.Equal(a, RandomPushes(8, 5, 200, 0.1, 1, 3)) {
		t.Error("different seeds gave the same pushes")
	}

	for _, p := range a {
		if p.Start < 1 || p.Start >= 3 {
			t.Errorf("start %v outside [1, 3)", p.Start)
		}
		if m := r2.Norm(p.Force); m < 100-1e-9 || m > 200+1e-9 {
			t.Errorf("magnitude %v outside [100, 200]", m)
		}
		if err := p.Validate(); err != nil {
			t.Error(err)
		}
	}
}
