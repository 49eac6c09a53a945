package walking

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/geometry"
)

var testPlanner = Planner{
	StepLength: 0.3,
	StepWidth:  0.2,
	Timing:     footstep.NewTiming(0.6, 0.25),
}

func TestStraightLine(t *testing.T) {
	steps, err := testPlanner.StraightLine(geometry.Pose2{}, 4, footstep.Left)
	if err != nil {
		t.Fatal(err)
	}

	want := []struct {
		side footstep.Side
		x, y float64
	}{
		{footstep.Left, 0.3, 0.1},
		{footstep.Right, 0.6, -0.1},
		{footstep.Left, 0.9, 0.1},
		{footstep.Right, 0.9, -0.1},
	}
	if len(steps) != len(want) {
		t.Fatalf("got %d steps, want %d", len(steps), len(want))
	}
	for i, w := range want {
		s := steps[i]
		if s.Side != w.side || math.Abs(s.Pose.X-w.x) > 1e-12 || math.Abs(s.Pose.Y-w.y) > 1e-12 {
			t.Errorf("step %d = %v, want %s at (%.1f, %.1f)", i, s.Footstep, w.side, w.x, w.y)
		}
		if s.Timing != testPlanner.Timing {
			t.Errorf("step %d timing = %+v", i, s.Timing)
		}
	}
}

func TestStraightLineSingleStep(t *testing.T) {
	steps, err := testPlanner.StraightLine(geometry.Pose2{}, 1, footstep.Right)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 1 || steps[0].Pose.X != 0.3 || steps[0].Side != footstep.Right {
		t.Errorf("unexpected plan %+v", steps)
	}
}

func TestStraightLineFollowsHeading(t *testing.T) {
	start := geometry.Pose2{X: 1, Y: 2, Yaw: math.Pi / 2}
	steps, err := testPlanner.StraightLine(start, 1, footstep.Left)
	if err != nil {
		t.Fatal(err)
	}
	// facing +Y, the left foot is on the -X side
	got := steps[0].Pose
	if math.Abs(got.X-0.9) > 1e-12 || math.Abs(got.Y-2.3) > 1e-12 || got.Yaw != start.Yaw {
		t.Errorf("step pose = %+v, want (0.9, 2.3) facing +Y", got)
	}

	feet := testPlanner.StanceFeet(start)
	if left := feet.Get(footstep.Left); math.Abs(left.X-0.9) > 1e-12 || math.Abs(left.Y-2) > 1e-12 {
		t.Errorf("left stance foot = %+v", left)
	}
}

func TestStraightLineRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		planner Planner
		n       int
	}{
		{"negative count", testPlanner, -1},
		{"zero width", Planner{StepLength: 0.3, Timing: testPlanner.Timing}, 2},
		{"nan length", Planner{StepLength: math.NaN(), StepWidth: 0.2, Timing: testPlanner.Timing}, 2},
		{"bad timing", Planner{StepLength: 0.3, StepWidth: 0.2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.planner.StraightLine(geometry.Pose2{}, tt.n, footstep.Left)
			if !errors.Is(err, ErrInvalidPlan) {
				t.Errorf("expected ErrInvalidPlan, got %v", err)
			}
		})
	}
}
