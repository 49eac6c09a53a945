package icpopt

import (
	"github.com/san-kum/icpwalk/internal/footstep"
	"gonum.org/v1/gonum/spatial/r2"
)

const adjustmentEpsilon = 1e-9

// SolutionHandler turns QP solutions into footstep commands and the
// reference ICP and CMP used by the next tick.
type SolutionHandler struct {
	input        *InputHandler
	plan         *footstep.Plan
	reachability *ReachabilityConstraintHandler

	deadband   float64
	resolution float64

	referenceICP         r2.Vec
	referenceICPVelocity r2.Vec
	referenceCMP         r2.Vec

	nominalReferenceICP         r2.Vec
	nominalReferenceICPVelocity r2.Vec
	nominalReferenceCMP         r2.Vec
	nominalFootsteps            []r2.Vec

	footstepAdjustment r2.Vec
	wasAdjusted        bool
	costs              CostBreakdown
}

func NewSolutionHandler(input *InputHandler, plan *footstep.Plan, reachability *ReachabilityConstraintHandler, p Parameters) *SolutionHandler {
	return &SolutionHandler{
		input:            input,
		plan:             plan,
		reachability:     reachability,
		deadband:         p.FootstepDeadband,
		resolution:       p.FootstepSolutionResolution,
		nominalFootsteps: make([]r2.Vec, p.MaximumNumberOfFootstepsToConsider),
	}
}

// ExtractFootstepSolutions reads the first n footstep adjustments. unclipped
// receives the raw solutions. solutions keeps the published commands:
// adjustments inside the deadband fall back to the nominal location and
// changes smaller than the resolution leave the previous command in place.
// The first command always ends up inside the reachable region.
func (h *SolutionHandler) ExtractFootstepSolutions(solutions, unclipped []r2.Vec, n int, solver *QPSolver) {
	h.wasAdjusted = false
	h.footstepAdjustment = r2.Vec{}
	region := h.reachability.Polygon()

	for i := 0; i < n; i++ {
		nominal := h.plan.Step(i).Position()
		raw := r2.Add(nominal, solver.FootstepAdjustment(i))
		unclipped[i] = raw

		clip := i == 0 && !region.IsEmpty()
		clipped := raw
		if clip {
			clipped = region.Project(raw)
		}

		switch {
		case r2.Norm(r2.Sub(clipped, nominal)) < h.deadband:
			solutions[i] = nominal
		case r2.Norm(r2.Sub(clipped, solutions[i])) < h.resolution:
			// keep the previous command
		default:
			solutions[i] = clipped
		}
		// nominal and previous commands may lie outside this tick's region
		if clip {
			solutions[i] = region.Project(solutions[i])
		}

		if r2.Norm(r2.Sub(solutions[i], nominal)) > adjustmentEpsilon {
			h.wasAdjusted = true
		}
		if i == 0 {
			h.footstepAdjustment = r2.Sub(solutions[0], nominal)
		}
	}
}

// ComputeReferenceFromSolutions rebuilds the reference with the optimized
// footsteps at footsteps[i].
func (h *SolutionHandler) ComputeReferenceFromSolutions(footsteps []r2.Vec, beginningICP, beginningICPVelocity r2.Vec, omega0 float64) {
	h.referenceICP = h.input.ReferenceICP(footsteps, beginningICP, beginningICPVelocity)
	h.referenceCMP = h.input.ReferenceCMP(footsteps, beginningICP, beginningICPVelocity)
	h.referenceICPVelocity = r2.Scale(omega0, r2.Sub(h.referenceICP, h.referenceCMP))
}

// ComputeReferenceFromClippedSolutions is ComputeReferenceFromSolutions fed
// with the published commands instead of the raw solutions.
func (h *SolutionHandler) ComputeReferenceFromClippedSolutions(solutions []r2.Vec, beginningICP, beginningICPVelocity r2.Vec, omega0 float64) {
	h.ComputeReferenceFromSolutions(solutions, beginningICP, beginningICPVelocity, omega0)
}

// ComputeNominalValues evaluates the reference with the planned footsteps.
func (h *SolutionHandler) ComputeNominalValues(beginningICP, beginningICPVelocity r2.Vec, omega0 float64) {
	n := h.input.NumberOfSteps()
	for i := 0; i < n; i++ {
		h.nominalFootsteps[i] = h.plan.Step(i).Position()
	}
	h.nominalReferenceICP = h.input.ReferenceICP(h.nominalFootsteps, beginningICP, beginningICPVelocity)
	h.nominalReferenceCMP = h.input.ReferenceCMP(h.nominalFootsteps, beginningICP, beginningICPVelocity)
	h.nominalReferenceICPVelocity = r2.Scale(omega0, r2.Sub(h.nominalReferenceICP, h.nominalReferenceCMP))
}

// SetValuesForFeedbackOnly tracks the desired ICP directly while standing.
func (h *SolutionHandler) SetValuesForFeedbackOnly(desiredICP, desiredICPVelocity r2.Vec, omega0 float64) {
	h.referenceICP = desiredICP
	h.referenceICPVelocity = desiredICPVelocity
	h.referenceCMP = r2.Sub(desiredICP, r2.Scale(1/omega0, desiredICPVelocity))
	h.wasAdjusted = false
	h.footstepAdjustment = r2.Vec{}
}

func (h *SolutionHandler) UpdateCostsToGo(solver *QPSolver) {
	h.costs = solver.Solution().Costs
}

func (h *SolutionHandler) WasFootstepAdjusted() bool {
	return h.wasAdjusted
}

// FootstepAdjustment is the published offset of the first footstep from its nominal location.
func (h *SolutionHandler) FootstepAdjustment() r2.Vec {
	return h.footstepAdjustment
}

func (h *SolutionHandler) ReferenceICP() r2.Vec {
	return h.referenceICP
}

func (h *SolutionHandler) ReferenceICPVelocity() r2.Vec {
	return h.referenceICPVelocity
}

func (h *SolutionHandler) ReferenceCMP() r2.Vec {
	return h.referenceCMP
}

func (h *SolutionHandler) NominalReferenceICP() r2.Vec {
	return h.nominalReferenceICP
}

func (h *SolutionHandler) NominalReferenceICPVelocity() r2.Vec {
	return h.nominalReferenceICPVelocity
}

func (h *SolutionHandler) NominalReferenceCMP() r2.Vec {
	return h.nominalReferenceCMP
}

func (h *SolutionHandler) Costs() CostBreakdown {
	return h.costs
}
