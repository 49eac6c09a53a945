package metrics

import (
	"github.com/san-kum/icpwalk/internal/models"
	"github.com/san-kum/icpwalk/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

// CaptureRatio is the fraction of ticks on which the ICP lies within
// margin of the support polygon, where the robot can still stop without
// stepping.
type CaptureRatio struct {
	name       string
	src        SupportSource
	margin     float64
	violations int
	samples    int
}

func NewCaptureRatio(src SupportSource, margin float64) *CaptureRatio {
	return &CaptureRatio{
		name:   NameCaptureRatio,
		src:    src,
		margin: margin,
	}
}

func (s *CaptureRatio) Name() string {
	return s.name
}

func (s *CaptureRatio) Observe(x sim.State, u sim.Control, t float64) {
	s.samples++
	icp := r2.Vec{X: x[models.ICPX], Y: x[models.ICPY]}
	support := s.src.SupportPolygon()
	if support.IsEmpty() || !support.Contains(icp, s.margin) {
		s.violations++
	}
}

func (s *CaptureRatio) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *CaptureRatio) Reset() {
	s.violations = 0
	s.samples = 0
}
