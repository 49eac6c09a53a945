package metrics

import (
	"github.com/san-kum/icpwalk/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

// FeedbackEffort is the mean distance between the commanded and the
// reference CMP.
type FeedbackEffort struct {
	name    string
	src     FeedbackSource
	sum     float64
	samples int
}

func NewFeedbackEffort(src FeedbackSource) *FeedbackEffort {
	return &FeedbackEffort{
		name: NameFeedbackEffort,
		src:  src,
	}
}

func (c *FeedbackEffort) Name() string {
	return c.name
}

func (c *FeedbackEffort) Observe(x sim.State, u sim.Control, t float64) {
	c.sum += r2.Norm(c.src.DesiredCMPDelta())
	c.samples++
}

func (c *FeedbackEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *FeedbackEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
