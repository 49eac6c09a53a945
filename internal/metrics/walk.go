package metrics

import "github.com/san-kum/icpwalk/internal/sim"

// Controller is what the walking metrics read from the ICP controller.
type Controller interface {
	ErrorSource
	FeedbackSource
	ConvergenceSource
}

// ForWalk returns the standard metric set of a walking run.
func ForWalk(ctrl Controller, feet SupportSource, captureMargin float64) []sim.Metric {
	return []sim.Metric{
		NewICPTracking(ctrl),
		NewMaxICPError(ctrl),
		NewFeedbackEffort(ctrl),
		NewCaptureRatio(feet, captureMargin),
		NewQPFailures(ctrl),
	}
}
