package footstep

import "github.com/pkg/errors"

var (
	// ErrInvalidTiming indicates step durations that are NaN or non-positive.
	ErrInvalidTiming = errors.New("footstep: invalid timing")

	// ErrNonFinitePose indicates a footstep whose pose or contact points are not finite.
	ErrNonFinitePose = errors.New("footstep: non-finite footstep pose")

	// ErrPlanFull indicates the plan already holds its maximum number of footsteps.
	ErrPlanFull = errors.New("footstep: plan is full")
)
