package metrics

import (
	"github.com/san-kum/icpwalk/internal/geometry"
	"gonum.org/v1/gonum/spatial/r2"
)

// Metric names reported in sim.Result.Metrics.
const (
	NameICPRMS         = "icp_rms"
	NameICPMax         = "icp_max"
	NameFeedbackEffort = "cmp_feedback_effort"
	NameCaptureRatio   = "capture_ratio"
	NameQPFailures     = "qp_failures"
)

// ErrorSource reports the ICP tracking error of the last tick.
type ErrorSource interface {
	ICPError() r2.Vec
}

type FeedbackSource interface {
	DesiredCMPDelta() r2.Vec
}

type ConvergenceSource interface {
	NonConvergenceCount() int
}

type SupportSource interface {
	SupportPolygon() *geometry.ConvexPolygon
}
