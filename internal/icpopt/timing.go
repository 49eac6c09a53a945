package icpopt

import (
	"math"

	"github.com/san-kum/icpwalk/internal/qp"
)

const minimumSwingDurationStep = 1e-6

// TimingSearch traces the swing duration search of the last Compute call.
// Costs are recorded once for the nominal duration and once per re-solve;
// each entry is the best cost found so far.
type TimingSearch struct {
	Costs     []float64
	Gradients []float64
	// Adjustments holds the best swing duration minus the duration the tick started with.
	Adjustments []float64
	Iterations  int
	Solves      int
	// SwingDuration is the duration kept for the current step.
	SwingDuration float64
}

func newTimingSearch(iterations int) TimingSearch {
	return TimingSearch{
		Costs:       make([]float64, 0, iterations+2),
		Gradients:   make([]float64, 0, iterations+2),
		Adjustments: make([]float64, 0, iterations+2),
	}
}

func (s *TimingSearch) reset(swingDuration float64) {
	s.Costs = s.Costs[:0]
	s.Gradients = s.Gradients[:0]
	s.Adjustments = s.Adjustments[:0]
	s.Iterations = 0
	s.Solves = 0
	s.SwingDuration = swingDuration
}

func (s *TimingSearch) record(cost, gradient, adjustment float64) {
	s.Costs = append(s.Costs, cost)
	s.Gradients = append(s.Gradients, gradient)
	s.Adjustments = append(s.Adjustments, adjustment)
	s.Iterations = len(s.Costs)
}

// searchSwingDuration descends the cost
//
//	TimingAdjustmentCost·(T − T₀)² + QuadraticCostScaleFactor·QPCost(T)
//
// over the current swing duration T. The gradient comes from a finite
// difference around T₀ whose sign alternates between calls, then from
// secants between accepted points. A step that does not lower the cost
// halves the gain. At most NumberOfIterations re-solves are performed and
// the solver is left on the best point.
func (c *Controller) searchSwingDuration(n int, omega0 float64, base qp.Result) qp.Result {
	p := c.params
	original := c.durations.Swing[0]
	cost := func(duration float64) float64 {
		d := duration - original
		return p.TimingAdjustmentCost*d*d + p.QuadraticCostScaleFactor*c.solver.CostToGo()
	}

	bestDuration := original
	bestCost := cost(original)
	bestResult := base
	c.bestSolution.CopyFrom(c.solver.Solution())
	c.search.record(bestCost, 0, 0)

	variation := p.SwingDurationVariation
	if !c.varyPositiveDirection {
		variation = -variation
	}
	c.varyPositiveDirection = !c.varyPositiveDirection
	if variation < 0 && !c.isFeasibleSwingDuration(original+variation) {
		variation = -variation
	}

	last := original + variation
	result := c.resolveWithSwingDuration(n, omega0, last)
	c.search.Solves++
	if !result.Converged() {
		c.restoreBest(n, omega0, bestDuration, last)
		return bestResult
	}
	variedCost := cost(last)
	gradient := (variedCost - bestCost) / variation
	if variedCost < bestCost {
		bestDuration, bestCost, bestResult = last, variedCost, result
		c.bestSolution.CopyFrom(c.solver.Solution())
	}
	c.search.record(bestCost, gradient, bestDuration-original)

	gain := p.GradientGain
	for math.Abs(gradient) > p.GradientThreshold && c.search.Solves < p.NumberOfIterations {
		next := c.clampSwingDuration(bestDuration - gain*gradient)
		if math.Abs(next-bestDuration) < minimumSwingDurationStep {
			break
		}

		last = next
		result = c.resolveWithSwingDuration(n, omega0, next)
		c.search.Solves++
		if !result.Converged() {
			break
		}

		nextCost := cost(next)
		if nextCost < bestCost {
			gradient = (nextCost - bestCost) / (next - bestDuration)
			bestDuration, bestCost, bestResult = next, nextCost, result
			c.bestSolution.CopyFrom(c.solver.Solution())
		} else {
			gain *= 0.5
		}
		c.search.record(bestCost, gradient, bestDuration-original)
	}

	c.restoreBest(n, omega0, bestDuration, last)
	return bestResult
}

// restoreBest leaves the durations, the inputs and the solver on the best point.
func (c *Controller) restoreBest(n int, omega0, bestDuration, lastSolved float64) {
	c.search.SwingDuration = bestDuration
	if bestDuration == lastSolved {
		return
	}
	c.durations.Swing[0] = bestDuration
	c.updateInputs(n, omega0)
	if c.isAdjustmentActive() {
		for i := 0; i < n; i++ {
			c.submitFootstepConditionsToSolver(i)
		}
	}
	c.solver.RestoreSolution(&c.bestSolution)
}

func (c *Controller) resolveWithSwingDuration(n int, omega0, duration float64) qp.Result {
	c.durations.Swing[0] = duration
	c.updateInputs(n, omega0)
	if c.isAdjustmentActive() {
		for i := 0; i < n; i++ {
			c.submitFootstepConditionsToSolver(i)
		}
	}
	return c.solver.Compute(c.finalICPRecursion, c.cmpConstantEffects, c.currentICP, c.referenceCMP)
}

func (c *Controller) isFeasibleSwingDuration(duration float64) bool {
	return duration-c.timeInState >= c.params.MinimumTimeRemaining
}

func (c *Controller) clampSwingDuration(duration float64) float64 {
	return math.Max(duration, c.timeInState+c.params.MinimumTimeRemaining)
}
