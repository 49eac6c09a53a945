package footstep

import "math"

// Plan is a bounded, ordered sequence of footsteps with their timings.
type Plan struct {
	steps   []Footstep
	timings []Timing

	finalTransferDuration float64
}

func NewPlan(capacity int) *Plan {
	return &Plan{
		steps:                 make([]Footstep, 0, capacity),
		timings:               make([]Timing, 0, capacity),
		finalTransferDuration: math.NaN(),
	}
}

func (p *Plan) Capacity() int {
	return cap(p.steps)
}

func (p *Plan) Len() int {
	return len(p.steps)
}

func (p *Plan) IsFull() bool {
	return len(p.steps) == cap(p.steps)
}

// Add appends a footstep. Non-finite footsteps and a full plan are rejected.
func (p *Plan) Add(step Footstep, timing Timing) error {
	if !step.IsFinite() {
		return ErrNonFinitePose
	}
	if p.IsFull() {
		return ErrPlanFull
	}
	p.steps = append(p.steps, step)
	p.timings = append(p.timings, timing)
	return nil
}

func (p *Plan) Clear() {
	p.steps = p.steps[:0]
	p.timings = p.timings[:0]
}

func (p *Plan) Step(i int) Footstep {
	return p.steps[i]
}

func (p *Plan) Timing(i int) Timing {
	return p.timings[i]
}

func (p *Plan) SetFinalTransferDuration(d float64) {
	p.finalTransferDuration = d
}

// FinalTransferDuration is NaN until set.
func (p *Plan) FinalTransferDuration() float64 {
	return p.finalTransferDuration
}
