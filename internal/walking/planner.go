package walking

import (
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/geometry"
	"gonum.org/v1/gonum/spatial/r2"
)

// Step is a planned footstep with the timing of the transfer before it and
// of its swing.
type Step struct {
	footstep.Footstep
	Timing footstep.Timing
}

// Planner lays footsteps out along a straight line.
type Planner struct {
	StepLength float64
	StepWidth  float64
	Timing     footstep.Timing
}

// StanceFeet returns the sole poses of both feet standing around start.
func (p Planner) StanceFeet(start geometry.Pose2) footstep.SideDependent[geometry.Pose2] {
	var feet footstep.SideDependent[geometry.Pose2]
	for _, side := range footstep.Sides {
		pos := start.TransformPoint(r2.Vec{Y: side.Sign() * p.StepWidth / 2})
		feet.Set(side, geometry.Pose2{X: pos.X, Y: pos.Y, Yaw: start.Yaw})
	}
	return feet
}

// StraightLine plans n steps forward from the stance frame start, the
// first one taken with the first foot. With more than one step the last
// step squares up next to the previous one.
func (p Planner) StraightLine(start geometry.Pose2, n int, first footstep.Side) ([]Step, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrInvalidPlan, "negative step count %d", n)
	}
	if math.IsNaN(p.StepLength) || math.IsInf(p.StepLength, 0) {
		return nil, errors.Wrapf(ErrInvalidPlan, "step length %v", p.StepLength)
	}
	if !(p.StepWidth > 0) {
		return nil, errors.Wrapf(ErrInvalidPlan, "step width %v", p.StepWidth)
	}
	if !start.IsFinite() || !first.IsValid() {
		return nil, errors.Wrapf(ErrInvalidPlan, "start %+v side %v", start, first)
	}
	if err := p.Timing.Validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidPlan, err.Error())
	}

	steps := make([]Step, 0, n)
	side := first
	for i := 0; i < n; i++ {
		forward := float64(i+1) * p.StepLength
		if n > 1 && i == n-1 {
			forward = float64(i) * p.StepLength
		}
		pos := start.TransformPoint(r2.Vec{X: forward, Y: side.Sign() * p.StepWidth / 2})
		steps = append(steps, Step{
			Footstep: footstep.Footstep{
				Side: side,
				Pose: geometry.Pose2{X: pos.X, Y: pos.Y, Yaw: start.Yaw},
			},
			Timing: p.Timing,
		})
		side = side.Opposite()
	}
	return steps, nil
}
