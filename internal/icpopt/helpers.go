package icpopt

import (
	"math"

	"github.com/san-kum/icpwalk/internal/geometry"
	"gonum.org/v1/gonum/spatial/r2"
)

const minimumICPVelocityForGainDirection = 1e-5

// feedbackGainMatrix applies parallel along the desired ICP velocity and
// orthogonal across it. Without a velocity direction both axes use the
// orthogonal gain.
func feedbackGainMatrix(desiredICPVelocity r2.Vec, parallel, orthogonal float64) geometry.Sym2 {
	if r2.Norm(desiredICPVelocity) < minimumICPVelocityForGainDirection {
		return geometry.Sym2{XX: orthogonal, YY: orthogonal}
	}
	return geometry.RotatedDiagonal(math.Atan2(desiredICPVelocity.Y, desiredICPVelocity.X), parallel, orthogonal)
}

// soleFrameWeights expresses forward and lateral weights of a sole in world frame.
func soleFrameWeights(sole geometry.Pose2, forward, lateral float64) geometry.Sym2 {
	return geometry.RotatedDiagonal(sole.Yaw, forward, lateral)
}

// angularMomentumTorque converts a CMP to CoP offset into the equivalent
// moment about the CoM: mass·g·(CMP − CoP).
func angularMomentumTorque(mass, gravity float64, cmpToCoP r2.Vec) r2.Vec {
	return r2.Scale(mass*gravity, cmpToCoP)
}
