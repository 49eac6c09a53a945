package icpopt

import (
	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/geometry"
	"gonum.org/v1/gonum/spatial/r2"
)

// InputHandler turns the plan and the current multipliers into the terms of
// the ICP dynamics constraint. The reference ICP at the current time is
//
//	FinalICPRecursion + CMPConstantEffects + Σ FootstepMultiplier(i)·footstep(i)
//
// over the footsteps being optimized. Update, FinalICPRecursion and
// CMPConstantEffects must be called in that order each tick.
type InputHandler struct {
	multipliers *StateMultiplierCalculator
	plan        *footstep.Plan
	support     SupportGeometry

	entryOffset r2.Vec
	exitOffset  r2.Vec

	stanceSide    footstep.Side
	numberOfSteps int
	timeInState   float64
	twoCMPs       bool
	inTransfer    bool
	omega         float64
}

func NewInputHandler(multipliers *StateMultiplierCalculator, plan *footstep.Plan, support SupportGeometry, p Parameters) *InputHandler {
	return &InputHandler{
		multipliers: multipliers,
		plan:        plan,
		support:     support,
		entryOffset: p.EntryCMPOffset,
		exitOffset:  p.ExitCMPOffset,
	}
}

// InitializeForDoubleSupport makes the foot being transferred to the stance foot.
func (h *InputHandler) InitializeForDoubleSupport(transferToSide footstep.Side) {
	h.stanceSide = transferToSide
}

func (h *InputHandler) InitializeForSingleSupport(supportSide footstep.Side) {
	h.stanceSide = supportSide
}

// Update projects the multipliers onto timeInState. numberOfSteps is the
// count of footsteps handled as decision variables.
func (h *InputHandler) Update(numberOfSteps int, timeInState float64, useTwoCMPs, isInTransfer bool, omega0 float64) {
	h.numberOfSteps = min(numberOfSteps, h.multipliers.StepsInHorizon())
	h.timeInState = timeInState
	h.twoCMPs = useTwoCMPs
	h.inTransfer = isInTransfer
	h.omega = omega0
	h.multipliers.ComputeCurrentMultipliers(timeInState)
}

// FinalICPRecursion is the terminal ICP contribution of every foothold
// that is not a decision variable.
func (h *InputHandler) FinalICPRecursion() r2.Vec {
	m := h.multipliers
	stance := h.support.SolePose(h.stanceSide).Position()
	other := h.support.SolePose(h.stanceSide.Opposite()).Position()

	out := r2.Add(r2.Scale(m.StanceTerminalMultiplier(), stance), r2.Scale(m.OtherTerminalMultiplier(), other))
	for i := h.numberOfSteps; i < m.StepsInHorizon(); i++ {
		out = r2.Add(out, r2.Scale(m.FootstepTerminalMultiplier(i), h.plan.Step(i).Position()))
	}
	return out
}

// CMPConstantEffects is the contribution of every CMP segment that does not
// scale with a decision variable: the trailing CMP of a transfer, the
// stance foot, the CMP offsets of optimized footsteps and all of the
// footsteps that are not optimized.
func (h *InputHandler) CMPConstantEffects(beginningICP, beginningICPVelocity r2.Vec, useTwoCMPs, isInTransfer bool) r2.Vec {
	m := h.multipliers
	var out r2.Vec
	if isInTransfer {
		out = r2.Scale(m.InitialMultiplier(), h.initialCMP(beginningICP, beginningICPVelocity))
	}

	stance := h.support.SolePose(h.stanceSide)
	entry, exit := h.cmpOffsets(stance, useTwoCMPs)
	out = r2.Add(out, r2.Scale(m.EntryMultiplier(0), r2.Add(stance.Position(), entry)))
	out = r2.Add(out, r2.Scale(m.ExitMultiplier(0), r2.Add(stance.Position(), exit)))

	for j := 1; j < m.NumberOfFootholds(); j++ {
		step := h.plan.Step(j - 1)
		entry, exit := h.cmpOffsets(step.Pose, useTwoCMPs)
		if j-1 >= h.numberOfSteps {
			entry = r2.Add(entry, step.Position())
			exit = r2.Add(exit, step.Position())
		}
		out = r2.Add(out, r2.Scale(m.EntryMultiplier(j), entry))
		out = r2.Add(out, r2.Scale(m.ExitMultiplier(j), exit))
	}
	return out
}

// ReferenceICP evaluates the recursion with the optimized footsteps placed at footsteps[i].
func (h *InputHandler) ReferenceICP(footsteps []r2.Vec, beginningICP, beginningICPVelocity r2.Vec) r2.Vec {
	out := r2.Add(h.FinalICPRecursion(), h.CMPConstantEffects(beginningICP, beginningICPVelocity, h.twoCMPs, h.inTransfer))
	for i := 0; i < h.numberOfSteps; i++ {
		out = r2.Add(out, r2.Scale(h.multipliers.FootstepMultiplier(i), footsteps[i]))
	}
	return out
}

// ReferenceCMP is the CMP of the segment active at the current time.
func (h *InputHandler) ReferenceCMP(footsteps []r2.Vec, beginningICP, beginningICPVelocity r2.Vec) r2.Vec {
	foothold, exit, initial := h.multipliers.ActiveSegment(h.timeInState)
	if initial {
		return h.initialCMP(beginningICP, beginningICPVelocity)
	}

	pose := h.support.SolePose(h.stanceSide)
	position := pose.Position()
	if foothold > 0 {
		i := foothold - 1
		pose = h.plan.Step(i).Pose
		position = pose.Position()
		if i < h.numberOfSteps {
			position = footsteps[i]
		}
	}
	entryOffset, exitOffset := h.cmpOffsets(pose, h.twoCMPs)
	if exit {
		return r2.Add(position, exitOffset)
	}
	return r2.Add(position, entryOffset)
}

// NumberOfSteps is the count of optimized footsteps from the last Update.
func (h *InputHandler) NumberOfSteps() int {
	return h.numberOfSteps
}

func (h *InputHandler) initialCMP(icp, icpVelocity r2.Vec) r2.Vec {
	return r2.Sub(icp, r2.Scale(1/h.omega, icpVelocity))
}

func (h *InputHandler) cmpOffsets(pose geometry.Pose2, twoCMPs bool) (entry, exit r2.Vec) {
	if !twoCMPs {
		return r2.Vec{}, r2.Vec{}
	}
	return pose.RotateVector(h.entryOffset), pose.RotateVector(h.exitOffset)
}
