package footstep

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/icpwalk/internal/geometry"
	"gonum.org/v1/gonum/spatial/r2"
)

// Footstep is a planned foot placement. It is not modified once added to a plan.
type Footstep struct {
	Side Side
	// Pose is the planned sole pose on the ground plane.
	Pose geometry.Pose2
	// ContactPoints are the predicted contact points in sole frame.
	// Empty means the full default foot.
	ContactPoints []r2.Vec
}

func (f Footstep) Position() r2.Vec {
	return f.Pose.Position()
}

// IsFinite reports whether the pose and every predicted contact point are finite.
func (f Footstep) IsFinite() bool {
	if !f.Pose.IsFinite() {
		return false
	}
	for _, p := range f.ContactPoints {
		if !geometry.IsFiniteVec(p) {
			return false
		}
	}
	return true
}

func (f Footstep) String() string {
	return fmt.Sprintf("%s step at (%.3f, %.3f, yaw %.3f)", f.Side, f.Pose.X, f.Pose.Y, f.Pose.Yaw)
}

// Timing holds the durations of one step.
type Timing struct {
	SwingDuration    float64 `yaml:"swing_duration" json:"swing_duration"`
	TransferDuration float64 `yaml:"transfer_duration" json:"transfer_duration"`
	// Touchdown and liftoff portions are optional; zero means unused.
	TouchdownDuration float64 `yaml:"touchdown_duration,omitempty" json:"touchdown_duration,omitempty"`
	LiftoffDuration   float64 `yaml:"liftoff_duration,omitempty" json:"liftoff_duration,omitempty"`
}

func NewTiming(swing, transfer float64) Timing {
	return Timing{SwingDuration: swing, TransferDuration: transfer}
}

func (t Timing) StepDuration() float64 {
	return t.SwingDuration + t.TransferDuration
}

// Validate rejects durations that cannot describe a step.
func (t Timing) Validate() error {
	if math.IsNaN(t.SwingDuration) || t.SwingDuration <= 0 {
		return errors.Wrapf(ErrInvalidTiming, "swing duration %v", t.SwingDuration)
	}
	if math.IsNaN(t.TransferDuration) || t.TransferDuration < 0 {
		return errors.Wrapf(ErrInvalidTiming, "transfer duration %v", t.TransferDuration)
	}
	if t.TouchdownDuration < 0 || t.LiftoffDuration < 0 {
		return errors.Wrap(ErrInvalidTiming, "negative touchdown or liftoff duration")
	}
	return nil
}
