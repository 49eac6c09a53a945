package icpopt

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/geometry"
	"github.com/san-kum/icpwalk/internal/qp"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

// Phase is the walking phase the controller was initialized for.
type Phase int

const (
	Standing Phase = iota
	Transfer
	SingleSupport
)

func (p Phase) String() string {
	switch p {
	case Standing:
		return "standing"
	case Transfer:
		return "transfer"
	case SingleSupport:
		return "single support"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type Option func(*Controller)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithQPBackend replaces the active-set QP solver.
func WithQPBackend(backend QPBackend) Option {
	return func(c *Controller) {
		c.backend = backend
	}
}

// Controller computes the feedback CMP and the footstep adjustments of a
// walking biped. Phase changes come from the walking state machine through
// the Initialize methods; Compute runs once per control tick.
type Controller struct {
	params  Parameters
	logger  *zap.Logger
	backend QPBackend

	support         SupportGeometry
	plan            *footstep.Plan
	durations       *SegmentDurations
	multipliers     *StateMultiplierCalculator
	input           *InputHandler
	solver          *QPSolver
	solutionHandler *SolutionHandler
	copConstraint   *CoPConstraintHandler
	reachability    *ReachabilityConstraintHandler

	phase          Phase
	supportSide    footstep.Side
	transferToSide footstep.Side

	initialTime   float64
	timeInState   float64
	timeRemaining float64
	speedUpTime   float64

	localUseStepAdjustment        bool
	localScaleUpcomingStepWeights bool
	doingBigAdjustment            bool
	// varyPositiveDirection persists across ticks and phases.
	varyPositiveDirection bool
	numberOfFootstepsInQP int

	forwardFootstepWeight              float64
	lateralFootstepWeight              float64
	feedbackForwardWeight              float64
	feedbackLateralWeight              float64
	dynamicRelaxationWeight            float64
	scaledFootstepRegularizationWeight float64
	scaledFeedbackWeight               geometry.Sym2

	desiredICP           r2.Vec
	desiredICPVelocity   r2.Vec
	currentICP           r2.Vec
	beginningICP         r2.Vec
	beginningICPVelocity r2.Vec
	finalICPRecursion    r2.Vec
	cmpConstantEffects   r2.Vec
	referenceCMP         r2.Vec
	// reconstructed is set once a solve of the current phase rebuilt the reference.
	reconstructed        bool

	desiredCMP        r2.Vec
	desiredCMPDelta   r2.Vec
	dynamicRelaxation r2.Vec
	angularMomentum   r2.Vec
	icpError          r2.Vec

	footstepSolutions          []r2.Vec
	unclippedFootstepSolutions []r2.Vec

	qpIterations          int
	nonConvergenceCount   int
	hasNotConvergedInPast bool

	search       TimingSearch
	bestSolution QPSolution
}

// NewController validates params and builds a controller reading contact
// geometry from support.
func NewController(params Parameters, support SupportGeometry, opts ...Option) (*Controller, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if support == nil {
		return nil, ErrNilSupport
	}

	maxSteps := params.MaximumNumberOfFootstepsToConsider
	c := &Controller{
		params:                     params,
		logger:                     zap.NewNop(),
		support:                    support,
		plan:                       footstep.NewPlan(maxSteps),
		durations:                  NewSegmentDurations(maxSteps),
		varyPositiveDirection:      true,
		forwardFootstepWeight:      params.ForwardFootstepWeight,
		lateralFootstepWeight:      params.LateralFootstepWeight,
		feedbackForwardWeight:      params.FeedbackForwardWeight,
		feedbackLateralWeight:      params.FeedbackLateralWeight,
		dynamicRelaxationWeight:    params.DynamicRelaxationWeight,
		footstepSolutions:          make([]r2.Vec, maxSteps),
		unclippedFootstepSolutions: make([]r2.Vec, maxSteps),
		search:                     newTimingSearch(params.NumberOfIterations),
		bestSolution:               newQPSolution(maxSteps),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.multipliers = NewStateMultiplierCalculator(c.durations, maxSteps)
	c.input = NewInputHandler(c.multipliers, c.plan, support, params)
	c.solver = NewQPSolver(maxSteps, params.MaxQPIterations, c.backend)
	c.copConstraint = NewCoPConstraintHandler(support, params.CoPSafeDistance)
	c.reachability = NewReachabilityConstraintHandler(support, params)
	c.solutionHandler = NewSolutionHandler(c.input, c.plan, c.reachability, params)
	c.clearSolutions()
	return c, nil
}

// AddFootstepToPlan appends a step to the plan. A footstep with a
// non-finite pose, or one that does not fit in the plan, is dropped with a
// warning. Invalid timing is a programming error and panics.
func (c *Controller) AddFootstepToPlan(step footstep.Footstep, timing footstep.Timing) {
	if err := timing.Validate(); err != nil {
		panic(errors.Wrap(err, "icpopt: add footstep"))
	}
	if err := c.plan.Add(step, timing); err != nil {
		c.logger.Warn("rejected footstep", zap.Stringer("footstep", step), zap.Error(err))
		return
	}
	i := c.plan.Len() - 1
	c.durations.SetStep(i, timing, c.params.DefaultSwingSplitFraction, c.params.DefaultTransferSplitFraction)
	c.footstepSolutions[i] = step.Position()
	c.unclippedFootstepSolutions[i] = step.Position()
}

func (c *Controller) ClearPlan() {
	c.plan.Clear()
	c.durations.Reset()
	c.clearSolutions()
}

func (c *Controller) clearSolutions() {
	for i := range c.footstepSolutions {
		c.footstepSolutions[i] = geometry.NaNVec()
		c.unclippedFootstepSolutions[i] = geometry.NaNVec()
	}
}

func (c *Controller) SetFinalTransferDuration(duration float64) {
	c.plan.SetFinalTransferDuration(duration)
}

// SubmitRemainingTimeInSwingUnderDisturbance shortens the current swing
// when swing speed-up is enabled and the given remainder is shorter than
// the planned one.
func (c *Controller) SubmitRemainingTimeInSwingUnderDisturbance(remainingTimeForSwing float64) {
	if c.params.SwingSpeedUpEnabled && remainingTimeForSwing < c.timeRemaining {
		c.speedUpTime += c.timeRemaining - remainingTimeForSwing
	}
}

// SetBeginningOfStateICP overrides the ICP anchors taken at the last contact change.
func (c *Controller) SetBeginningOfStateICP(icp, icpVelocity r2.Vec) {
	c.beginningICP = icp
	c.beginningICPVelocity = icpVelocity
}

func (c *Controller) SetFootstepWeights(forward, lateral float64) {
	mustBeNonNegative("footstep", forward, lateral)
	c.forwardFootstepWeight, c.lateralFootstepWeight = forward, lateral
}

func (c *Controller) SetFeedbackWeights(forward, lateral float64) {
	mustBeNonNegative("feedback", forward, lateral)
	c.feedbackForwardWeight, c.feedbackLateralWeight = forward, lateral
}

func (c *Controller) SetDynamicRelaxationWeight(weight float64) {
	mustBeNonNegative("dynamic relaxation", weight)
	c.dynamicRelaxationWeight = weight
}

func mustBeNonNegative(name string, weights ...float64) {
	for _, w := range weights {
		if math.IsNaN(w) || w < 0 {
			panic(errors.Wrapf(ErrNegativeWeight, "%s weight %v", name, w))
		}
	}
}

func (c *Controller) InitializeForStanding(initialTime float64) {
	c.initialTime = initialTime
	c.phase = Standing
	c.setProblemBooleans()
	c.solver.ResetOnContactChange()
	c.reconstructed = false

	c.copConstraint.UpdateForDoubleSupport(c.solver)
	c.reachability.UpdateForDoubleSupport(c.solver)

	c.speedUpTime = 0
	if c.plan.Len() == 0 {
		c.durations.SetFinalTransfer(0, c.plan.FinalTransferDuration(), c.params.DefaultTransferSplitFraction)
	}
	c.logger.Debug("initialized for standing", zap.Float64("time", initialTime))
}

// InitializeForTransfer starts a double support phase shifting the weight
// onto transferToSide. It panics if the final transfer duration is unset.
func (c *Controller) InitializeForTransfer(initialTime float64, transferToSide footstep.Side, omega0 float64) {
	c.transferToSide = transferToSide
	c.phase = Transfer

	registered := c.plan.Len()
	c.setFinalTransfer(registered)
	n := c.initializeOnContactChange(initialTime)

	c.multipliers.ComputeRecursionMultipliers(n, registered, true, c.params.UseTwoCMPsPerSupport, omega0)
	c.input.InitializeForDoubleSupport(transferToSide)

	c.copConstraint.UpdateForDoubleSupport(c.solver)
	c.reachability.UpdateForDoubleSupport(c.solver)
	c.logger.Debug("initialized for transfer",
		zap.Float64("time", initialTime),
		zap.Stringer("transferToSide", transferToSide),
		zap.Int("footsteps", registered))
}

// InitializeForSingleSupport starts the swing of the first planned
// footstep. It panics on an empty plan or an unset final transfer duration.
func (c *Controller) InitializeForSingleSupport(initialTime float64, supportSide footstep.Side, omega0 float64) {
	registered := c.plan.Len()
	if registered == 0 {
		panic(errors.Wrapf(ErrEmptyPlan, "initialize for single support at %.3f", initialTime))
	}
	c.supportSide = supportSide
	c.phase = SingleSupport

	c.setFinalTransfer(registered)
	n := c.initializeOnContactChange(initialTime)

	c.multipliers.ComputeRecursionMultipliers(n, registered, false, c.params.UseTwoCMPsPerSupport, omega0)
	c.input.InitializeForSingleSupport(supportSide)

	c.copConstraint.UpdateForSingleSupport(supportSide, c.solver)
	c.reachability.UpdateForSingleSupport(supportSide, c.solver)
	c.logger.Debug("initialized for single support",
		zap.Float64("time", initialTime),
		zap.Stringer("supportSide", supportSide),
		zap.Int("footsteps", registered),
		zap.Int("footstepsToConsider", n))
}

func (c *Controller) setFinalTransfer(registered int) {
	final := c.plan.FinalTransferDuration()
	if math.IsNaN(final) || final < 0 {
		panic(errors.Wrapf(ErrMissingFinalTransfer, "final transfer duration %v", final))
	}
	c.durations.SetFinalTransfer(registered, final, c.params.DefaultTransferSplitFraction)
}

func (c *Controller) initializeOnContactChange(initialTime float64) int {
	c.setProblemBooleans()
	n := c.clipNumberOfFootsteps()

	c.initialTime = initialTime
	c.speedUpTime = 0
	c.reconstructed = false

	c.beginningICP = c.solutionHandler.ReferenceICP()
	c.beginningICPVelocity = c.solutionHandler.ReferenceICPVelocity()

	c.solver.ResetOnContactChange()
	if c.params.UseFootstepRegularization {
		for i := 0; i < n; i++ {
			c.solver.ResetFootstepRegularization(i, c.plan.Step(i).Position())
		}
	}
	return n
}

func (c *Controller) setProblemBooleans() {
	c.localUseStepAdjustment = c.params.UseStepAdjustment
	c.localScaleUpcomingStepWeights = c.params.ScaleUpcomingStepWeights
	c.doingBigAdjustment = false
}

// clipNumberOfFootsteps bounds the configured count by the plan and
// disables adjustment while standing, in transfer unless allowed, or when
// step adjustment is off.
func (c *Controller) clipNumberOfFootsteps() int {
	n := min(c.params.NumberOfFootstepsToConsider, c.plan.Len(), c.params.MaximumNumberOfFootstepsToConsider)
	if !c.localUseStepAdjustment || c.phase == Standing || (c.phase == Transfer && !c.params.AllowAdjustmentInTransfer) {
		n = 0
	}
	return n
}

func (c *Controller) isAdjustmentActive() bool {
	return c.localUseStepAdjustment && (c.phase != Transfer || c.params.AllowAdjustmentInTransfer)
}

func (c *Controller) stanceSide() footstep.Side {
	if c.phase == SingleSupport {
		return c.supportSide
	}
	return c.transferToSide
}

// Compute runs one control tick. It never fails: when the QP does not
// converge the previous outputs are kept.
func (c *Controller) Compute(currentTime float64, desiredICP, desiredICPVelocity, currentICP r2.Vec, omega0 float64) {
	c.desiredICP = desiredICP
	c.desiredICPVelocity = desiredICPVelocity
	c.currentICP = currentICP

	c.computeTimeInCurrentState(currentTime)
	c.computeTimeRemainingInState()

	n := c.clipNumberOfFootsteps()
	c.numberOfFootstepsInQP = n

	c.scaleStepRegularizationWeightWithTime()
	c.scaleFeedbackWeightWithGain()

	result := c.solve(n, omega0)
	c.readSolution(n, omega0, result)
}

func (c *Controller) solve(n int, omega0 float64) qp.Result {
	c.submitAllConditionsToSolver(n, omega0)
	c.search.reset(c.durations.Swing[0])

	result := c.solver.Compute(c.finalICPRecursion, c.cmpConstantEffects, c.currentICP, c.referenceCMP)
	if c.phase != SingleSupport || !c.params.AdjustSwingTiming || !result.Converged() {
		return result
	}
	result = c.searchSwingDuration(n, omega0, result)
	c.computeTimeRemainingInState()
	return result
}

func (c *Controller) submitAllConditionsToSolver(n int, omega0 float64) {
	if c.phase == Standing {
		c.setConditionsForFeedbackOnlyControl(n, omega0)
		return
	}
	c.setConditionsForSteppingControl(n, omega0)
}

func (c *Controller) setConditionsForFeedbackOnlyControl(n int, omega0 float64) {
	c.referenceCMP = r2.Sub(c.desiredICP, r2.Scale(1/omega0, c.desiredICPVelocity))
	c.copConstraint.UpdateForDoubleSupport(c.solver)
	c.reachability.UpdateForDoubleSupport(c.solver)

	c.solver.ResetFootstepConditions()
	c.setFeedbackRegularization()
	c.setFeedbackConditions(n)
	c.setAngularMomentumConditions()

	c.finalICPRecursion = c.desiredICP
	c.cmpConstantEffects = r2.Vec{}
}

func (c *Controller) setConditionsForSteppingControl(n int, omega0 float64) {
	c.updateInputs(n, omega0)
	// the reference rebuilt by the previous solve of this phase feeds this one
	if c.reconstructed {
		c.referenceCMP = c.solutionHandler.ReferenceCMP()
	} else {
		c.referenceCMP = c.input.ReferenceCMP(c.referenceFootsteps(), c.beginningICP, c.beginningICPVelocity)
	}

	if c.phase == Transfer {
		c.copConstraint.UpdateForDoubleSupport(c.solver)
		c.reachability.UpdateForDoubleSupport(c.solver)
	} else {
		c.copConstraint.UpdateForSingleSupport(c.supportSide, c.solver)
		c.reachability.UpdateForSingleSupport(c.supportSide, c.solver)
	}

	c.solver.ResetFootstepConditions()
	c.setFeedbackRegularization()

	if c.isAdjustmentActive() {
		for i := 0; i < n; i++ {
			c.submitFootstepConditionsToSolver(i)
		}
		if c.params.UseFootstepRegularization {
			c.solver.SetFootstepRegularizationWeight(c.scaledFootstepRegularizationWeight / c.params.ControlDT)
		}
	}

	c.setFeedbackConditions(n)
	c.setAngularMomentumConditions()
}

// referenceFootsteps are the footstep locations the reference is rebuilt from.
func (c *Controller) referenceFootsteps() []r2.Vec {
	if c.params.ReconstructCMPFromUnclipped {
		return c.unclippedFootstepSolutions
	}
	return c.footstepSolutions
}

func (c *Controller) updateInputs(n int, omega0 float64) {
	inTransfer := c.phase == Transfer
	twoCMPs := c.params.UseTwoCMPsPerSupport
	c.input.Update(n, c.timeInState, twoCMPs, inTransfer, omega0)
	c.finalICPRecursion = c.input.FinalICPRecursion()
	c.cmpConstantEffects = c.input.CMPConstantEffects(c.beginningICP, c.beginningICPVelocity, twoCMPs, inTransfer)
}

func (c *Controller) setFeedbackRegularization() {
	w := 0.0
	if c.params.UseFeedbackRegularization {
		w = c.params.FeedbackRegularizationWeight / c.params.ControlDT
	}
	c.solver.SetFeedbackRegularizationWeight(w)
}

func (c *Controller) setFeedbackConditions(n int) {
	gain := feedbackGainMatrix(c.desiredICPVelocity, c.params.FeedbackParallelGain, c.params.FeedbackOrthogonalGain)

	relaxation := c.dynamicRelaxationWeight
	if n == 0 {
		relaxation /= c.params.DynamicRelaxationDoubleSupportWeightModifier
	}

	c.solver.ResetFeedbackConditions()
	c.solver.SetFeedbackConditions(c.scaledFeedbackWeight, gain, relaxation)
}

func (c *Controller) setAngularMomentumConditions() {
	c.solver.ResetAngularMomentumConditions()
	c.solver.SetAngularMomentumConditions(c.params.AngularMomentumMinimizationWeight, c.params.UseAngularMomentum)
}

func (c *Controller) submitFootstepConditionsToSolver(i int) {
	weights := soleFrameWeights(c.support.SolePose(c.stanceSide()), c.forwardFootstepWeight, c.lateralFootstepWeight)
	if c.localScaleUpcomingStepWeights {
		weights = weights.Scale(1 / float64(i+1))
	}
	c.solver.SetFootstepAdjustmentConditions(i, c.multipliers.FootstepMultiplier(i), weights, c.plan.Step(i).Position())
}

func (c *Controller) computeTimeInCurrentState(currentTime float64) {
	c.timeInState = currentTime - c.initialTime + c.speedUpTime
}

func (c *Controller) computeTimeRemainingInState() {
	switch c.phase {
	case Transfer:
		c.timeRemaining = c.durations.Transfer[0] - c.timeInState
	case SingleSupport:
		c.timeRemaining = c.durations.Swing[0] - c.timeInState
	default:
		c.timeRemaining = 0
	}
}

func (c *Controller) scaleStepRegularizationWeightWithTime() {
	c.scaledFootstepRegularizationWeight = c.params.FootstepRegularizationWeight
	if c.params.ScaleStepRegularizationWithTime && c.phase == SingleSupport {
		alpha := math.Max(c.timeRemaining, c.params.MinimumTimeRemaining) / c.durations.Swing[0]
		c.scaledFootstepRegularizationWeight /= alpha
	}
}

func (c *Controller) scaleFeedbackWeightWithGain() {
	weights := soleFrameWeights(c.support.SolePose(c.stanceSide()), c.feedbackForwardWeight, c.feedbackLateralWeight)
	if c.params.ScaleFeedbackWeightWithGain && c.phase == SingleSupport {
		gain := feedbackGainMatrix(c.desiredICPVelocity, c.params.FeedbackParallelGain, c.params.FeedbackOrthogonalGain)
		weights = weights.Scale(1 / gain.DiagonalNorm())
	}
	c.scaledFeedbackWeight = weights
}

func (c *Controller) readSolution(n int, omega0 float64, result qp.Result) {
	if !result.Converged() {
		c.nonConvergenceCount++
		if !c.hasNotConvergedInPast {
			c.hasNotConvergedInPast = true
			c.logger.Warn("icp optimization did not converge, keeping previous outputs; later failures are only counted",
				zap.Error(result.Err()),
				zap.Stringer("phase", c.phase),
				zap.Float64("timeInState", c.timeInState))
		}
		return
	}

	sol := c.solver.Solution()
	c.qpIterations = sol.Iterations
	if c.localUseStepAdjustment {
		c.solutionHandler.ExtractFootstepSolutions(c.footstepSolutions, c.unclippedFootstepSolutions, n, c.solver)
	}
	c.desiredCMPDelta = sol.FeedbackDelta
	c.dynamicRelaxation = sol.DynamicRelaxation
	c.angularMomentum = angularMomentumTorque(c.params.Mass, c.params.Gravity, sol.AngularMomentum)
	if c.params.ComputeCostToGo {
		c.solutionHandler.UpdateCostsToGo(c.solver)
	}
	c.solver.AcceptSolution()

	if c.phase == Standing {
		c.solutionHandler.SetValuesForFeedbackOnly(c.desiredICP, c.desiredICPVelocity, omega0)
	} else {
		if c.params.ReconstructCMPFromUnclipped {
			c.solutionHandler.ComputeReferenceFromSolutions(c.unclippedFootstepSolutions, c.beginningICP, c.beginningICPVelocity, omega0)
		} else {
			c.solutionHandler.ComputeReferenceFromClippedSolutions(c.footstepSolutions, c.beginningICP, c.beginningICPVelocity, omega0)
		}
		c.reconstructed = true
		if c.params.Debug {
			c.solutionHandler.ComputeNominalValues(c.beginningICP, c.beginningICPVelocity, omega0)
		}
		if c.params.UseDifferentSplitRatioForBigAdjustment && c.phase == SingleSupport {
			c.computeUpcomingDoubleSupportSplitFraction(n, omega0)
		}
	}

	c.icpError = r2.Sub(c.currentICP, c.solutionHandler.ReferenceICP())
	c.desiredCMP = r2.Add(c.solutionHandler.ReferenceCMP(), c.desiredCMPDelta)
}

// computeUpcomingDoubleSupportSplitFraction moves the CMP switch of the
// next transfer earlier once the first footstep was adjusted by more than
// MagnitudeForBigAdjustment. It fires at most once per phase.
func (c *Controller) computeUpcomingDoubleSupportSplitFraction(n int, omega0 float64) {
	if c.doingBigAdjustment || r2.Norm(c.solutionHandler.FootstepAdjustment()) <= c.params.MagnitudeForBigAdjustment {
		return
	}
	split := c.params.MinimumTimeOnInitialCMPForBigAdjustment / c.durations.Transfer[1]
	split = math.Min(math.Max(split, c.params.TransferSplitFractionUnderDisturbance), 1)

	c.doingBigAdjustment = true
	c.durations.TransferSplit[1] = split
	c.multipliers.ComputeRecursionMultipliers(n, c.plan.Len(), false, c.params.UseTwoCMPsPerSupport, omega0)
	c.logger.Debug("big footstep adjustment, shortened next transfer split",
		zap.Float64("adjustment", r2.Norm(c.solutionHandler.FootstepAdjustment())),
		zap.Float64("split", split))
}

// DesiredCMP is the feedback CMP command.
func (c *Controller) DesiredCMP() r2.Vec {
	return c.desiredCMP
}

func (c *Controller) DesiredCMPDelta() r2.Vec {
	return c.desiredCMPDelta
}

// FootstepSolution is the commanded location of footstep i.
func (c *Controller) FootstepSolution(i int) r2.Vec {
	return c.footstepSolutions[i]
}

// UnclippedFootstepSolution is the raw QP location of footstep i.
func (c *Controller) UnclippedFootstepSolution(i int) r2.Vec {
	return c.unclippedFootstepSolutions[i]
}

func (c *Controller) WasFootstepAdjusted() bool {
	return c.solutionHandler.WasFootstepAdjusted()
}

// NumberOfFootstepsToConsider is the configured count.
func (c *Controller) NumberOfFootstepsToConsider() int {
	return c.params.NumberOfFootstepsToConsider
}

// NumberOfFootstepsInQP is the count used by the last Compute call.
func (c *Controller) NumberOfFootstepsInQP() int {
	return c.numberOfFootstepsInQP
}

func (c *Controller) NumberOfRegisteredFootsteps() int {
	return c.plan.Len()
}

func (c *Controller) UseAngularMomentum() bool {
	return c.params.UseAngularMomentum
}

func (c *Controller) Phase() Phase {
	return c.phase
}

func (c *Controller) ReferenceICP() r2.Vec {
	return c.solutionHandler.ReferenceICP()
}

func (c *Controller) ReferenceICPVelocity() r2.Vec {
	return c.solutionHandler.ReferenceICPVelocity()
}

func (c *Controller) ReferenceCMP() r2.Vec {
	return c.solutionHandler.ReferenceCMP()
}

// NominalReferenceICP is only computed with Parameters.Debug.
func (c *Controller) NominalReferenceICP() r2.Vec {
	return c.solutionHandler.NominalReferenceICP()
}

func (c *Controller) ICPError() r2.Vec {
	return c.icpError
}

func (c *Controller) DynamicRelaxation() r2.Vec {
	return c.dynamicRelaxation
}

// AngularMomentumSolution is the moment mass·g·(CMP − CoP).
func (c *Controller) AngularMomentumSolution() r2.Vec {
	return c.angularMomentum
}

// CostToGo is the cost breakdown of the last converged solve, with Parameters.ComputeCostToGo.
func (c *Controller) CostToGo() CostBreakdown {
	return c.solutionHandler.Costs()
}

func (c *Controller) NonConvergenceCount() int {
	return c.nonConvergenceCount
}

func (c *Controller) QPIterations() int {
	return c.qpIterations
}

func (c *Controller) SwingDuration(i int) float64 {
	return c.durations.Swing[i]
}

func (c *Controller) TransferDuration(i int) float64 {
	return c.durations.Transfer[i]
}

func (c *Controller) TransferSplitFraction(i int) float64 {
	return c.durations.TransferSplit[i]
}

func (c *Controller) TimeInState() float64 {
	return c.timeInState
}

func (c *Controller) TimeRemainingInState() float64 {
	return c.timeRemaining
}

// TimingSearch traces the swing duration search of the last Compute call.
// The slices are reused by the next call.
func (c *Controller) TimingSearch() TimingSearch {
	return c.search
}

// ReachabilityRegion is the region the first footstep was constrained to.
func (c *Controller) ReachabilityRegion() *geometry.ConvexPolygon {
	return c.reachability.Polygon()
}

// CoPRegion is the region the CoP was constrained to.
func (c *Controller) CoPRegion() *geometry.ConvexPolygon {
	return c.copConstraint.Polygon()
}
