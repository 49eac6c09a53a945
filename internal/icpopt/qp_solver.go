package icpopt

import (
	"github.com/san-kum/icpwalk/internal/geometry"
	"github.com/san-kum/icpwalk/internal/qp"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// QPBackend solves an assembled quadratic program. *qp.Solver is the default.
type QPBackend interface {
	Solve(p *qp.Problem, x *mat.VecDense) qp.Result
	ResetActiveSet()
}

// CostBreakdown splits the cost of a solution into its terms.
type CostBreakdown struct {
	Footstep               float64
	FootstepRegularization float64
	Feedback               float64
	FeedbackRegularization float64
	DynamicRelaxation      float64
	AngularMomentum        float64
}

func (c CostBreakdown) Total() float64 {
	return c.Footstep + c.FootstepRegularization + c.Feedback + c.FeedbackRegularization +
		c.DynamicRelaxation + c.AngularMomentum
}

// QPSolution is the decision vector of one solve.
type QPSolution struct {
	NumberOfFootsteps   int
	FootstepAdjustments []r2.Vec
	FeedbackDelta       r2.Vec
	DynamicRelaxation   r2.Vec
	// AngularMomentum is the CMP to CoP offset, zero when unused.
	AngularMomentum r2.Vec
	Costs           CostBreakdown
	Iterations      int
}

func newQPSolution(maxSteps int) QPSolution {
	return QPSolution{FootstepAdjustments: make([]r2.Vec, maxSteps)}
}

// CopyFrom copies o into s without sharing storage.
func (s *QPSolution) CopyFrom(o *QPSolution) {
	adjustments := s.FootstepAdjustments
	*s = *o
	s.FootstepAdjustments = adjustments
	copy(s.FootstepAdjustments, o.FootstepAdjustments)
}

type halfPlane struct {
	normal r2.Vec
	offset float64
}

// QPSolver assembles and solves the ICP feedback problem. The decision
// vector stacks the footstep adjustments, the CMP feedback delta, the
// dynamic relaxation and, when enabled, the CMP to CoP offset. They are
// tied by the ICP dynamics
//
//	ICP − FinalICPRecursion − CMPConstantEffects − Σ φᵢ·nominalᵢ = K⁻¹·Δr + Σ φᵢ·Δfᵢ + δ
//
// where K is the feedback gain matrix and φᵢ the footstep multipliers.
type QPSolver struct {
	backend  QPBackend
	problem  *qp.Problem
	x        *mat.VecDense
	maxSteps int

	numberOfFootsteps            int
	footstepMultipliers          []float64
	footstepWeights              []geometry.Sym2
	nominalFootsteps             []r2.Vec
	previousFootsteps            []r2.Vec
	footstepRegularizationWeight float64

	feedbackWeight               geometry.Sym2
	feedbackGain                 geometry.Sym2
	dynamicRelaxationWeight      float64
	feedbackRegularizationWeight float64
	previousFeedbackDelta        r2.Vec

	useAngularMomentum    bool
	angularMomentumWeight float64

	copPlanes          []halfPlane
	reachabilityPlanes []halfPlane

	solution   QPSolution
	lastResult qp.Result
}

// NewQPSolver pre-sizes a solver for maxSteps footsteps. A nil backend
// selects the active-set solver from package qp.
func NewQPSolver(maxSteps, maxIterations int, backend QPBackend) *QPSolver {
	maxVars := 2*maxSteps + 6
	maxIneq := 2 * MaxPolygonVertices
	if backend == nil {
		solver := qp.NewSolver(maxVars, 2, maxIneq)
		solver.MaxIterations = maxIterations
		backend = solver
	}
	s := &QPSolver{
		backend:             backend,
		problem:             qp.NewProblem(maxVars, 2, maxIneq),
		x:                   mat.NewVecDense(maxVars, nil),
		maxSteps:            maxSteps,
		footstepMultipliers: make([]float64, maxSteps),
		footstepWeights:     make([]geometry.Sym2, maxSteps),
		nominalFootsteps:    make([]r2.Vec, maxSteps),
		previousFootsteps:   make([]r2.Vec, maxSteps),
		copPlanes:           make([]halfPlane, 0, MaxPolygonVertices),
		reachabilityPlanes:  make([]halfPlane, 0, MaxPolygonVertices),
		solution:            newQPSolution(maxSteps),
	}
	s.ResetOnContactChange()
	return s
}

// ResetOnContactChange drops the backend working set, every footstep block
// and both regularization anchors.
func (s *QPSolver) ResetOnContactChange() {
	s.backend.ResetActiveSet()
	s.ResetFootstepConditions()
	for i := range s.previousFootsteps {
		s.previousFootsteps[i] = geometry.NaNVec()
	}
	s.previousFeedbackDelta = r2.Vec{}
}

func (s *QPSolver) ResetFootstepConditions() {
	s.numberOfFootsteps = 0
	s.footstepRegularizationWeight = 0
}

// SetFootstepAdjustmentConditions makes footstep i a decision variable.
func (s *QPSolver) SetFootstepAdjustmentConditions(i int, multiplier float64, weight geometry.Sym2, nominal r2.Vec) {
	s.footstepMultipliers[i] = multiplier
	s.footstepWeights[i] = weight
	s.nominalFootsteps[i] = nominal
	s.numberOfFootsteps = max(s.numberOfFootsteps, i+1)
}

func (s *QPSolver) SetFootstepRegularizationWeight(w float64) {
	s.footstepRegularizationWeight = w
}

// ResetFootstepRegularization anchors the regularization of footstep i at location.
func (s *QPSolver) ResetFootstepRegularization(i int, location r2.Vec) {
	s.previousFootsteps[i] = location
}

func (s *QPSolver) ResetFeedbackConditions() {
	s.feedbackWeight = geometry.Sym2{}
	s.feedbackGain = geometry.Sym2{}
	s.dynamicRelaxationWeight = 0
}

func (s *QPSolver) SetFeedbackConditions(weight, gain geometry.Sym2, dynamicRelaxationWeight float64) {
	s.feedbackWeight = weight
	s.feedbackGain = gain
	s.dynamicRelaxationWeight = dynamicRelaxationWeight
}

func (s *QPSolver) SetFeedbackRegularizationWeight(w float64) {
	s.feedbackRegularizationWeight = w
}

func (s *QPSolver) ResetAngularMomentumConditions() {
	s.useAngularMomentum = false
	s.angularMomentumWeight = 0
}

func (s *QPSolver) SetAngularMomentumConditions(weight float64, use bool) {
	s.angularMomentumWeight = weight
	s.useAngularMomentum = use
}

func (s *QPSolver) SetCoPConstraint(polygon *geometry.ConvexPolygon) {
	s.copPlanes = appendHalfPlanes(s.copPlanes[:0], polygon)
}

func (s *QPSolver) SetReachabilityConstraint(polygon *geometry.ConvexPolygon) {
	s.reachabilityPlanes = appendHalfPlanes(s.reachabilityPlanes[:0], polygon)
}

func appendHalfPlanes(dst []halfPlane, polygon *geometry.ConvexPolygon) []halfPlane {
	for i := 0; i < polygon.NumberOfHalfPlanes(); i++ {
		n, b := polygon.HalfPlane(i)
		dst = append(dst, halfPlane{normal: n, offset: b})
	}
	return dst
}

// Compute solves the problem for the current conditions. The solution is
// only updated when the result converged.
func (s *QPSolver) Compute(finalICPRecursion, cmpConstantEffects, currentICP, referenceCMP r2.Vec) qp.Result {
	n := s.numberOfFootsteps
	feedback := 2 * n
	relaxation := feedback + 2
	angular := relaxation + 2
	vars := angular
	if s.useAngularMomentum {
		vars += 2
	}
	inequalities := len(s.copPlanes)
	if n > 0 {
		inequalities += len(s.reachabilityPlanes)
	}

	p := s.problem
	p.Reshape(vars, 2, inequalities)

	residual := r2.Sub(r2.Sub(currentICP, finalICPRecursion), cmpConstantEffects)
	for i := 0; i < n; i++ {
		col := 2 * i
		addWeight(p, col, s.footstepWeights[i])
		if s.footstepRegularizationWeight > 0 {
			anchor := s.previousFootsteps[i]
			if !geometry.IsFiniteVec(anchor) {
				anchor = s.nominalFootsteps[i]
			}
			addTracking(p, col, s.footstepRegularizationWeight, r2.Sub(anchor, s.nominalFootsteps[i]))
		}
		phi := s.footstepMultipliers[i]
		residual = r2.Sub(residual, r2.Scale(phi, s.nominalFootsteps[i]))
		p.Aeq.Set(0, col, phi)
		p.Aeq.Set(1, col+1, phi)
	}

	addWeight(p, feedback, s.feedbackWeight)
	if s.feedbackRegularizationWeight > 0 {
		addTracking(p, feedback, s.feedbackRegularizationWeight, s.previousFeedbackDelta)
	}
	inverseGain, ok := s.feedbackGain.Inverse()
	if !ok {
		s.lastResult = qp.Result{Status: qp.Singular}
		return s.lastResult
	}
	p.Aeq.Set(0, feedback, inverseGain.XX)
	p.Aeq.Set(0, feedback+1, inverseGain.XY)
	p.Aeq.Set(1, feedback, inverseGain.XY)
	p.Aeq.Set(1, feedback+1, inverseGain.YY)

	addWeight(p, relaxation, geometry.Sym2{XX: s.dynamicRelaxationWeight, YY: s.dynamicRelaxationWeight})
	p.Aeq.Set(0, relaxation, 1)
	p.Aeq.Set(1, relaxation+1, 1)

	if s.useAngularMomentum {
		addWeight(p, angular, geometry.Sym2{XX: s.angularMomentumWeight, YY: s.angularMomentumWeight})
	}
	p.Beq.SetVec(0, residual.X)
	p.Beq.SetVec(1, residual.Y)

	// CoP = referenceCMP + Δr − τ stays in the support region
	row := 0
	for _, h := range s.copPlanes {
		p.Ain.Set(row, feedback, h.normal.X)
		p.Ain.Set(row, feedback+1, h.normal.Y)
		if s.useAngularMomentum {
			p.Ain.Set(row, angular, -h.normal.X)
			p.Ain.Set(row, angular+1, -h.normal.Y)
		}
		p.Bin.SetVec(row, h.offset-r2.Dot(h.normal, referenceCMP))
		row++
	}
	if n > 0 {
		for _, h := range s.reachabilityPlanes {
			p.Ain.Set(row, 0, h.normal.X)
			p.Ain.Set(row, 1, h.normal.Y)
			p.Bin.SetVec(row, h.offset-r2.Dot(h.normal, s.nominalFootsteps[0]))
			row++
		}
	}

	s.x.Reset()
	s.x.ReuseAsVec(vars)
	s.lastResult = s.backend.Solve(p, s.x)
	if !s.lastResult.Converged() {
		return s.lastResult
	}

	sol := &s.solution
	sol.NumberOfFootsteps = n
	for i := 0; i < n; i++ {
		sol.FootstepAdjustments[i] = s.vec(2 * i)
	}
	sol.FeedbackDelta = s.vec(feedback)
	sol.DynamicRelaxation = s.vec(relaxation)
	sol.AngularMomentum = r2.Vec{}
	if s.useAngularMomentum {
		sol.AngularMomentum = s.vec(angular)
	}
	sol.Iterations = s.lastResult.Iterations
	s.computeCosts()
	return s.lastResult
}

func (s *QPSolver) vec(i int) r2.Vec {
	return r2.Vec{X: s.x.AtVec(i), Y: s.x.AtVec(i + 1)}
}

// addWeight adds vᵀWv for the 2-vector starting at col.
func addWeight(p *qp.Problem, col int, w geometry.Sym2) {
	p.AddQuadratic(col, col, 2*w.XX)
	p.AddQuadratic(col, col+1, 2*w.XY)
	p.AddQuadratic(col+1, col+1, 2*w.YY)
}

// addTracking adds w·|v − target|² for the 2-vector starting at col.
func addTracking(p *qp.Problem, col int, w float64, target r2.Vec) {
	p.AddQuadratic(col, col, 2*w)
	p.AddQuadratic(col+1, col+1, 2*w)
	p.AddLinear(col, -2*w*target.X)
	p.AddLinear(col+1, -2*w*target.Y)
}

func quadratic(w geometry.Sym2, v r2.Vec) float64 {
	return r2.Dot(v, w.MulVec(v))
}

func (s *QPSolver) computeCosts() {
	sol := &s.solution
	c := CostBreakdown{}
	for i := 0; i < sol.NumberOfFootsteps; i++ {
		adjustment := sol.FootstepAdjustments[i]
		c.Footstep += quadratic(s.footstepWeights[i], adjustment)
		if s.footstepRegularizationWeight > 0 {
			anchor := s.previousFootsteps[i]
			if !geometry.IsFiniteVec(anchor) {
				anchor = s.nominalFootsteps[i]
			}
			d := r2.Sub(r2.Add(s.nominalFootsteps[i], adjustment), anchor)
			c.FootstepRegularization += s.footstepRegularizationWeight * r2.Norm2(d)
		}
	}
	c.Feedback = quadratic(s.feedbackWeight, sol.FeedbackDelta)
	if s.feedbackRegularizationWeight > 0 {
		c.FeedbackRegularization = s.feedbackRegularizationWeight * r2.Norm2(r2.Sub(sol.FeedbackDelta, s.previousFeedbackDelta))
	}
	c.DynamicRelaxation = s.dynamicRelaxationWeight * r2.Norm2(sol.DynamicRelaxation)
	c.AngularMomentum = s.angularMomentumWeight * r2.Norm2(sol.AngularMomentum)
	sol.Costs = c
}

// AcceptSolution makes the current solution the regularization anchor of the next tick.
func (s *QPSolver) AcceptSolution() {
	for i := 0; i < s.solution.NumberOfFootsteps; i++ {
		s.previousFootsteps[i] = r2.Add(s.nominalFootsteps[i], s.solution.FootstepAdjustments[i])
	}
	s.previousFeedbackDelta = s.solution.FeedbackDelta
}

func (s *QPSolver) Solution() *QPSolution {
	return &s.solution
}

// RestoreSolution replaces the current solution with a saved one.
func (s *QPSolver) RestoreSolution(saved *QPSolution) {
	s.solution.CopyFrom(saved)
}

// CostToGo is the total cost of the current solution.
func (s *QPSolver) CostToGo() float64 {
	return s.solution.Costs.Total()
}

func (s *QPSolver) FootstepAdjustment(i int) r2.Vec {
	return s.solution.FootstepAdjustments[i]
}

func (s *QPSolver) NumberOfFootsteps() int {
	return s.numberOfFootsteps
}

func (s *QPSolver) LastResult() qp.Result {
	return s.lastResult
}
