package icpopt

import (
	"math"

	"github.com/san-kum/icpwalk/internal/footstep"
)

// SegmentDurations holds the per-step timing of the plan. Index i describes
// footstep i: the transfer onto the previous foothold that precedes its
// swing, and the swing itself. The entry after the last planned step holds
// the final transfer. Unset entries are NaN.
type SegmentDurations struct {
	Swing         []float64
	Transfer      []float64
	SwingSplit    []float64
	TransferSplit []float64
}

// NewSegmentDurations sizes the arrays for maxSteps footsteps plus the final transfer.
func NewSegmentDurations(maxSteps int) *SegmentDurations {
	d := &SegmentDurations{
		Swing:         make([]float64, maxSteps+1),
		Transfer:      make([]float64, maxSteps+1),
		SwingSplit:    make([]float64, maxSteps+1),
		TransferSplit: make([]float64, maxSteps+1),
	}
	d.Reset()
	return d
}

func (d *SegmentDurations) Len() int {
	return len(d.Swing)
}

func (d *SegmentDurations) Reset() {
	for i := range d.Swing {
		d.Swing[i] = math.NaN()
		d.Transfer[i] = math.NaN()
		d.SwingSplit[i] = math.NaN()
		d.TransferSplit[i] = math.NaN()
	}
}

// SetStep records the timing of footstep i with the given split fractions.
func (d *SegmentDurations) SetStep(i int, timing footstep.Timing, swingSplit, transferSplit float64) {
	d.Swing[i] = timing.SwingDuration
	d.Transfer[i] = timing.TransferDuration
	d.SwingSplit[i] = swingSplit
	d.TransferSplit[i] = transferSplit
}

// SetFinalTransfer records the transfer following the last of n planned steps.
func (d *SegmentDurations) SetFinalTransfer(n int, duration, split float64) {
	d.Transfer[n] = duration
	d.TransferSplit[n] = split
}
