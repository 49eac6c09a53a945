package icpopt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/san-kum/icpwalk/internal/geometry"
	"github.com/san-kum/icpwalk/internal/qp"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

// newFeedbackSolver returns a solver with isotropic feedback weight and
// gain and a CoP region large enough to stay inactive.
func newFeedbackSolver(weight, gain, relaxation float64) *QPSolver {
	s := NewQPSolver(5, 100, nil)
	s.SetFeedbackConditions(geometry.Sym2{XX: weight, YY: weight}, geometry.Sym2{XX: gain, YY: gain}, relaxation)
	s.SetCoPConstraint(geometry.NewConvexPolygon(
		r2.Vec{X: 1, Y: 1}, r2.Vec{X: -1, Y: 1}, r2.Vec{X: -1, Y: -1}, r2.Vec{X: 1, Y: -1},
	))
	return s
}

func TestQPSolverZeroError(t *testing.T) {
	s := newFeedbackSolver(0.5, 3, 1000)
	icp := r2.Vec{X: 0.1, Y: -0.05}

	result := s.Compute(icp, r2.Vec{}, icp, icp)
	if !result.Converged() {
		t.Fatalf("solve failed: %v", result.Err())
	}
	sol := s.Solution()
	if diff := cmp.Diff(r2.Vec{}, sol.FeedbackDelta, approx); diff != "" {
		t.Errorf("feedback delta mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(CostBreakdown{}, sol.Costs, approx); diff != "" {
		t.Errorf("costs mismatch (-want +got):\n%s", diff)
	}
}

func TestQPSolverFeedbackOnly(t *testing.T) {
	const w, k, wd = 0.5, 3.0, 1000.0
	s := newFeedbackSolver(w, k, wd)
	e := r2.Vec{X: 0.02, Y: -0.01}

	result := s.Compute(r2.Vec{}, r2.Vec{}, e, r2.Vec{})
	if !result.Converged() {
		t.Fatalf("solve failed: %v", result.Err())
	}

	// minimise w|Δr|² + wd|e − Δr/k|²
	scale := (wd / k) / (w + wd/(k*k))
	want := r2.Scale(scale, e)
	sol := s.Solution()
	if diff := cmp.Diff(want, sol.FeedbackDelta, approx); diff != "" {
		t.Errorf("feedback delta mismatch (-want +got):\n%s", diff)
	}
	relaxed := r2.Add(r2.Scale(1/k, sol.FeedbackDelta), sol.DynamicRelaxation)
	if diff := cmp.Diff(e, relaxed, approx); diff != "" {
		t.Errorf("dynamics not satisfied (-want +got):\n%s", diff)
	}
}

func TestQPSolverFootstepAdjustment(t *testing.T) {
	g := NewWithT(t)
	s := newFeedbackSolver(0.5, 3, 1000)
	nominal := r2.Vec{X: 0.3, Y: -0.1}
	const phi = 0.4
	s.SetFootstepAdjustmentConditions(0, phi, geometry.Sym2{XX: 0.1, YY: 0.1}, nominal)
	s.SetReachabilityConstraint(geometry.NewConvexPolygon(
		r2.Vec{X: 0.6, Y: 0}, r2.Vec{X: -0.3, Y: 0}, r2.Vec{X: -0.3, Y: -0.4}, r2.Vec{X: 0.6, Y: -0.4},
	))

	finalRecursion := r2.Vec{X: 0.05}
	icp := r2.Add(r2.Add(finalRecursion, r2.Scale(phi, nominal)), r2.Vec{X: 0.03})
	result := s.Compute(finalRecursion, r2.Vec{}, icp, r2.Vec{})
	g.Expect(result.Converged()).To(BeTrue())
	g.Expect(s.NumberOfFootsteps()).To(Equal(1))

	sol := s.Solution()
	g.Expect(sol.FootstepAdjustments[0].X).To(BeNumerically(">", 0))
	g.Expect(sol.FeedbackDelta.X).To(BeNumerically(">", 0))

	lhs := r2.Add(r2.Add(r2.Scale(1.0/3, sol.FeedbackDelta), r2.Scale(phi, sol.FootstepAdjustments[0])), sol.DynamicRelaxation)
	g.Expect(lhs.X).To(BeNumerically("~", 0.03, 1e-9))
	g.Expect(lhs.Y).To(BeNumerically("~", 0, 1e-9))
	g.Expect(s.CostToGo()).To(BeNumerically("~", sol.Costs.Total(), 1e-12))

	s.AcceptSolution()
	g.Expect(s.previousFootsteps[0]).To(Equal(r2.Add(nominal, sol.FootstepAdjustments[0])))
}

func TestQPSolverCoPConstraintBindsFeedback(t *testing.T) {
	s := newFeedbackSolver(0.5, 3, 1000)
	s.SetCoPConstraint(geometry.NewConvexPolygon(
		r2.Vec{X: 0.05, Y: 0.05}, r2.Vec{X: -0.05, Y: 0.05}, r2.Vec{X: -0.05, Y: -0.05}, r2.Vec{X: 0.05, Y: -0.05},
	))

	result := s.Compute(r2.Vec{}, r2.Vec{}, r2.Vec{X: 0.2}, r2.Vec{})
	if !result.Converged() {
		t.Fatalf("solve failed: %v", result.Err())
	}
	sol := s.Solution()
	if diff := cmp.Diff(r2.Vec{X: 0.05}, sol.FeedbackDelta, cmpopts.EquateApprox(0, 1e-7)); diff != "" {
		t.Errorf("feedback delta mismatch (-want +got):\n%s", diff)
	}
	if sol.DynamicRelaxation.X <= 0 {
		t.Errorf("relaxation should absorb the rest of the error, got %v", sol.DynamicRelaxation)
	}
}

func TestQPSolverSingularGain(t *testing.T) {
	s := NewQPSolver(5, 100, nil)
	s.SetFeedbackConditions(geometry.Sym2{XX: 1, YY: 1}, geometry.Sym2{}, 1000)
	result := s.Compute(r2.Vec{}, r2.Vec{}, r2.Vec{X: 0.1}, r2.Vec{})
	if result.Status != qp.Singular {
		t.Errorf("status = %v, want %v", result.Status, qp.Singular)
	}
}

type failingBackend struct {
	inner *qp.Solver
	fail  bool
	calls int
}

func newFailingBackend() *failingBackend {
	return &failingBackend{inner: qp.NewSolver(2*5+6, 2, 2*MaxPolygonVertices)}
}

func (b *failingBackend) Solve(p *qp.Problem, x *mat.VecDense) qp.Result {
	b.calls++
	if b.fail {
		return qp.Result{Status: qp.MaxIterations, Iterations: 100}
	}
	return b.inner.Solve(p, x)
}

func (b *failingBackend) ResetActiveSet() {
	b.inner.ResetActiveSet()
}

func TestQPSolverKeepsSolutionOnFailure(t *testing.T) {
	backend := newFailingBackend()
	s := NewQPSolver(5, 100, backend)
	s.SetFeedbackConditions(geometry.Sym2{XX: 0.5, YY: 0.5}, geometry.Sym2{XX: 3, YY: 3}, 1000)

	if result := s.Compute(r2.Vec{}, r2.Vec{}, r2.Vec{X: 0.01}, r2.Vec{}); !result.Converged() {
		t.Fatalf("solve failed: %v", result.Err())
	}
	before := s.Solution().FeedbackDelta

	backend.fail = true
	result := s.Compute(r2.Vec{}, r2.Vec{}, r2.Vec{X: 0.5}, r2.Vec{})
	if result.Converged() {
		t.Fatal("expected a failed solve")
	}
	if s.Solution().FeedbackDelta != before {
		t.Errorf("solution changed on failure: %v, want %v", s.Solution().FeedbackDelta, before)
	}
	if s.LastResult().Status != qp.MaxIterations {
		t.Errorf("last result = %v", s.LastResult().Status)
	}
}

func TestQPSolverContactChangeClearsFeedbackAnchor(t *testing.T) {
	s := newFeedbackSolver(0.5, 3, 1000)
	s.SetFeedbackRegularizationWeight(10)
	if result := s.Compute(r2.Vec{}, r2.Vec{}, r2.Vec{X: 0.05}, r2.Vec{}); !result.Converged() {
		t.Fatalf("solve failed: %v", result.Err())
	}
	if s.Solution().FeedbackDelta.X <= 0 {
		t.Fatalf("feedback delta = %v, want positive X", s.Solution().FeedbackDelta)
	}
	s.AcceptSolution()
	s.ResetOnContactChange()

	// without an error the only pull left would come from a stale anchor
	if result := s.Compute(r2.Vec{}, r2.Vec{}, r2.Vec{}, r2.Vec{}); !result.Converged() {
		t.Fatalf("solve failed: %v", result.Err())
	}
	sol := s.Solution()
	if diff := cmp.Diff(r2.Vec{}, sol.FeedbackDelta, approx); diff != "" {
		t.Errorf("feedback delta mismatch (-want +got):\n%s", diff)
	}
	if sol.Costs.FeedbackRegularization > 1e-12 {
		t.Errorf("feedback regularization cost = %g, want zero", sol.Costs.FeedbackRegularization)
	}
}
