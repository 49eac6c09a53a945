package icpopt

import "math"

// multiplierSet weighs every CMP segment of the horizon and the terminal
// ICP onto the ICP at one instant. The weights of a set sum to one.
type multiplierSet struct {
	initial float64
	entry   []float64
	exit    []float64
	final   float64

	// footstep is the total weight of a footstep location; terminal is its
	// share of the terminal ICP, already included in footstep.
	footstep []float64
	terminal []float64

	stanceTerminal float64
	otherTerminal  float64
}

func newMultiplierSet(maxSteps int) multiplierSet {
	return multiplierSet{
		entry:    make([]float64, maxSteps+1),
		exit:     make([]float64, maxSteps+1),
		footstep: make([]float64, maxSteps),
		terminal: make([]float64, maxSteps),
	}
}

// StateMultiplierCalculator computes recursion multipliers from the
// segment durations it was built with.
//
// Foothold 0 is the stance foot (the support foot in single support, the
// foot being transferred to in transfer); foothold j > 0 is footstep j-1.
// Foothold j carries the CMP from the switch onto it, during the transfer
// preceding step j-1's successor, until the switch onto the next foothold.
// The horizon ends at the switch onto the last footstep in the horizon,
// where the ICP is taken at the midpoint of the last two footholds.
type StateMultiplierCalculator struct {
	durations *SegmentDurations
	maxSteps  int

	stepsToConsider int
	stepsInHorizon  int
	inTransfer      bool
	twoCMPs         bool
	omega           float64

	// Schedule in seconds from the start of the state.
	initialEnd float64
	holdBegin  []float64
	holdSplit  []float64
	holdEnd    []float64
	horizonEnd float64

	recursion multiplierSet
	current   multiplierSet
}

func NewStateMultiplierCalculator(durations *SegmentDurations, maxSteps int) *StateMultiplierCalculator {
	return &StateMultiplierCalculator{
		durations: durations,
		maxSteps:  maxSteps,
		holdBegin: make([]float64, maxSteps+1),
		holdSplit: make([]float64, maxSteps+1),
		holdEnd:   make([]float64, maxSteps+1),
		recursion: newMultiplierSet(maxSteps),
		current:   newMultiplierSet(maxSteps),
	}
}

// ComputeRecursionMultipliers fixes the problem layout and evaluates the
// multipliers at the start of the state. NaN durations propagate into the
// multipliers.
func (c *StateMultiplierCalculator) ComputeRecursionMultipliers(stepsToConsider, stepsRegistered int, inTransfer, useTwoCMPs bool, omega0 float64) {
	c.stepsInHorizon = min(stepsRegistered, c.maxSteps)
	c.stepsToConsider = min(stepsToConsider, c.stepsInHorizon)
	c.inTransfer = inTransfer
	c.twoCMPs = useTwoCMPs
	c.omega = omega0

	c.computeSchedule()
	c.evaluate(0, &c.recursion)
	c.evaluate(0, &c.current)
}

// ComputeCurrentMultipliers re-reads the durations and projects the
// multipliers onto timeInState.
func (c *StateMultiplierCalculator) ComputeCurrentMultipliers(timeInState float64) {
	c.computeSchedule()
	c.evaluate(math.Max(timeInState, 0), &c.current)
}

func (c *StateMultiplierCalculator) computeSchedule() {
	d := c.durations
	m := c.stepsInHorizon

	var swingStart float64
	c.initialEnd = 0
	if c.inTransfer {
		c.initialEnd = d.TransferSplit[0] * d.Transfer[0]
		swingStart = d.Transfer[0]
	}
	c.holdBegin[0] = c.initialEnd

	if m == 0 {
		c.holdEnd[0] = swingStart
		c.holdSplit[0] = swingStart
		c.horizonEnd = swingStart
		return
	}

	c.holdSplit[0] = swingStart + d.SwingSplit[0]*d.Swing[0]
	touchdown := swingStart + d.Swing[0]
	for k := 1; k <= m; k++ {
		cmpSwitch := touchdown + d.TransferSplit[k]*d.Transfer[k]
		c.holdEnd[k-1] = cmpSwitch
		if k == m {
			c.horizonEnd = cmpSwitch
			break
		}
		c.holdBegin[k] = cmpSwitch
		nextSwingStart := touchdown + d.Transfer[k]
		c.holdSplit[k] = nextSwingStart + d.SwingSplit[k]*d.Swing[k]
		touchdown = nextSwingStart + d.Swing[k]
	}
	for j := 0; j < c.NumberOfFootholds(); j++ {
		c.holdSplit[j] = math.Min(math.Max(c.holdSplit[j], c.holdBegin[j]), c.holdEnd[j])
	}
}

func (c *StateMultiplierCalculator) evaluate(t float64, out *multiplierSet) {
	decay := func(s float64) float64 {
		return math.Exp(-c.omega * math.Max(s-t, 0))
	}

	out.initial = 0
	if c.inTransfer {
		out.initial = decay(0) - decay(c.initialEnd)
	}

	holds := c.NumberOfFootholds()
	for j := 0; j < holds; j++ {
		split := c.holdEnd[j]
		if c.twoCMPs {
			split = c.holdSplit[j]
		}
		out.entry[j] = decay(c.holdBegin[j]) - decay(split)
		out.exit[j] = decay(split) - decay(c.holdEnd[j])
	}
	out.final = decay(c.horizonEnd)

	m := c.stepsInHorizon
	for i := 0; i < m; i++ {
		out.footstep[i] = 0
		out.terminal[i] = 0
		if i+1 < holds {
			out.footstep[i] = out.entry[i+1] + out.exit[i+1]
		}
	}
	out.stanceTerminal, out.otherTerminal = 0, 0
	half := 0.5 * out.final
	switch m {
	case 0:
		out.stanceTerminal = half
		out.otherTerminal = half
	case 1:
		out.stanceTerminal = half
		out.terminal[0] = half
	default:
		out.terminal[m-1] = half
		out.terminal[m-2] = half
	}
	for i := 0; i < m; i++ {
		out.footstep[i] += out.terminal[i]
	}
}

// NumberOfFootholds is the number of footholds carrying a CMP segment.
func (c *StateMultiplierCalculator) NumberOfFootholds() int {
	return max(c.stepsInHorizon, 1)
}

func (c *StateMultiplierCalculator) StepsInHorizon() int {
	return c.stepsInHorizon
}

func (c *StateMultiplierCalculator) StepsToConsider() int {
	return c.stepsToConsider
}

// FootstepRecursionMultiplier is the weight of footstep i on the ICP at the start of the state.
func (c *StateMultiplierCalculator) FootstepRecursionMultiplier(i int) float64 {
	return c.recursion.footstep[i]
}

// FootstepMultiplier is the weight of footstep i on the ICP at the current time.
func (c *StateMultiplierCalculator) FootstepMultiplier(i int) float64 {
	return c.current.footstep[i]
}

func (c *StateMultiplierCalculator) FootstepTerminalMultiplier(i int) float64 {
	return c.current.terminal[i]
}

func (c *StateMultiplierCalculator) EntryMultiplier(foothold int) float64 {
	return c.current.entry[foothold]
}

func (c *StateMultiplierCalculator) ExitMultiplier(foothold int) float64 {
	return c.current.exit[foothold]
}

// InitialMultiplier weighs the trailing CMP at the start of a transfer.
func (c *StateMultiplierCalculator) InitialMultiplier() float64 {
	return c.current.initial
}

// FinalMultiplier weighs the terminal ICP.
func (c *StateMultiplierCalculator) FinalMultiplier() float64 {
	return c.current.final
}

func (c *StateMultiplierCalculator) StanceTerminalMultiplier() float64 {
	return c.current.stanceTerminal
}

func (c *StateMultiplierCalculator) OtherTerminalMultiplier() float64 {
	return c.current.otherTerminal
}

func (c *StateMultiplierCalculator) HorizonEnd() float64 {
	return c.horizonEnd
}

// ActiveSegment locates the CMP segment containing t: the trailing CMP of a
// transfer, or the entry or exit CMP of a foothold.
func (c *StateMultiplierCalculator) ActiveSegment(t float64) (foothold int, exit, initial bool) {
	if c.inTransfer && t < c.initialEnd {
		return 0, false, true
	}
	holds := c.NumberOfFootholds()
	for j := 0; j < holds; j++ {
		if t < c.holdEnd[j] || j == holds-1 {
			return j, c.twoCMPs && t >= c.holdSplit[j] && c.holdSplit[j] < c.holdEnd[j], false
		}
	}
	return holds - 1, c.twoCMPs, false
}
