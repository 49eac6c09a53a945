package qp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-9

	// zeroCurvature marks a violated row whose normal lies in the span of
	// the working set, relative to its squared norm.
	zeroCurvature = 1e-14
)

// Solver is a dual active-set solver (Goldfarb and Idnani) for small dense
// strictly convex problems. It starts from the equality constrained
// minimizer and repeatedly picks the most violated inequality, raising its
// multiplier along the KKT step of the working set. An active row whose
// multiplier would turn negative blocks the step and is dropped; the
// violated row joins the working set once the full step satisfies it.
// Every iterate stays dual feasible, so the first primal feasible point is
// optimal.
//
// A Solver is not safe for concurrent use.
type Solver struct {
	MaxIterations int
	Tolerance     float64

	maxVars, maxEq, maxIneq int

	active   []int
	isActive []bool

	kkt *mat.Dense
	rhs *mat.VecDense
	sol *mat.VecDense
	lu  mat.LU

	multipliers []float64
}

func NewSolver(maxVars, maxEq, maxIneq int) *Solver {
	dim := maxVars + maxEq + maxIneq
	return &Solver{
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
		maxVars:       maxVars,
		maxEq:         maxEq,
		maxIneq:       maxIneq,
		active:        make([]int, 0, maxIneq),
		isActive:      make([]bool, maxIneq),
		kkt:           mat.NewDense(dim, dim, nil),
		rhs:           mat.NewVecDense(dim, nil),
		sol:           mat.NewVecDense(dim, nil),
		multipliers:   make([]float64, 0, maxEq+maxIneq),
	}
}

// ResetActiveSet clears the working set of the last solve. Every solve
// starts from an empty working set.
func (s *Solver) ResetActiveSet() {
	for _, i := range s.active {
		s.isActive[i] = false
	}
	s.active = s.active[:0]
}

// ActiveSet returns the indices of the inequality rows held with equality.
func (s *Solver) ActiveSet() []int {
	return s.active
}

// Multipliers returns the equality multipliers followed by those of the
// active inequalities, in ActiveSet order, from the last successful solve.
func (s *Solver) Multipliers() []float64 {
	return s.multipliers
}

// Solve writes the minimizer of p into x, which must have length
// p.NumberOfVariables(). x is only meaningful when the result is Optimal.
// H must be positive definite.
func (s *Solver) Solve(p *Problem, x *mat.VecDense) Result {
	n, meq, mineq := p.NumberOfVariables(), p.NumberOfEqualities(), p.NumberOfInequalities()
	if n == 0 || n > s.maxVars || meq > s.maxEq || mineq > s.maxIneq || meq > n || x.Len() != n {
		return Result{Status: BadDimensions}
	}
	s.ResetActiveSet()

	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	s.factorize(p)
	for i := 0; i < n; i++ {
		s.rhs.SetVec(i, -p.F.AtVec(i))
	}
	for r := 0; r < meq; r++ {
		s.rhs.SetVec(n+r, p.Beq.AtVec(r))
	}
	if !s.solve() {
		return Result{Status: Singular}
	}
	s.multipliers = s.multipliers[:0]
	for i := 0; i < n; i++ {
		x.SetVec(i, s.sol.AtVec(i))
	}
	for r := 0; r < meq; r++ {
		s.multipliers = append(s.multipliers, s.sol.AtVec(n+r))
	}

	iter := 0
	for {
		add, worst := -1, tol
		for row := 0; row < mineq; row++ {
			if s.isActive[row] {
				continue
			}
			if v := p.InequalityViolation(row, x); v > worst {
				add, worst = row, v
			}
		}
		if add < 0 {
			return Result{Status: Optimal, Iterations: iter, Cost: p.Cost(x)}
		}

		normSq := 0.0
		for j := 0; j < n; j++ {
			normSq += p.Ain.At(add, j) * p.Ain.At(add, j)
		}

		// raise the multiplier of row add until the row holds
		raised := 0.0
		for {
			iter++
			if iter > maxIter {
				return Result{Status: MaxIterations, Iterations: maxIter}
			}
			if !s.direction(p, add) {
				return Result{Status: Singular, Iterations: iter}
			}

			// the step z satisfies aᵀz = −zᵀHz
			curvature := 0.0
			for j := 0; j < n; j++ {
				curvature -= p.Ain.At(add, j) * s.sol.AtVec(j)
			}
			full := math.Inf(1)
			primal := curvature > zeroCurvature*normSq
			if primal {
				full = p.InequalityViolation(add, x) / curvature
			}

			block, partial := -1, math.Inf(1)
			for k := range s.active {
				if r := s.sol.AtVec(n + meq + k); r < 0 {
					if t := math.Max(0, -s.multipliers[meq+k]/r); t < partial {
						block, partial = k, t
					}
				}
			}

			t := min(full, partial)
			if math.IsInf(t, 1) {
				return Result{Status: Infeasible, Iterations: iter}
			}
			if primal {
				for j := 0; j < n; j++ {
					x.SetVec(j, x.AtVec(j)+t*s.sol.AtVec(j))
				}
			}
			for r := range s.multipliers {
				s.multipliers[r] += t * s.sol.AtVec(n+r)
			}
			raised += t

			if full <= partial {
				s.active = append(s.active, add)
				s.isActive[add] = true
				s.multipliers = append(s.multipliers, raised)
				s.factorize(p)
				break
			}
			s.drop(block, meq)
			s.factorize(p)
		}
	}
}

// drop removes the k-th working row and its multiplier.
func (s *Solver) drop(k, meq int) {
	s.isActive[s.active[k]] = false
	s.active = append(s.active[:k], s.active[k+1:]...)
	s.multipliers = append(s.multipliers[:meq+k], s.multipliers[meq+k+1:]...)
}

// factorize builds and factorizes
//
//	[ H   Aᵀ ]
//	[ A   0  ]
//
// where A stacks the equalities and the working inequalities, and sizes
// rhs and sol to match. A singular system shows up in the next solve.
func (s *Solver) factorize(p *Problem) {
	n, meq := p.NumberOfVariables(), p.NumberOfEqualities()
	k := meq + len(s.active)
	dim := n + k

	s.kkt.Reset()
	s.kkt.ReuseAs(dim, dim)
	s.rhs.Reset()
	s.rhs.ReuseAsVec(dim)
	s.sol.Reset()
	s.sol.ReuseAsVec(dim)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s.kkt.Set(i, j, p.H.At(i, j))
		}
	}
	for r := 0; r < k; r++ {
		for j := 0; j < n; j++ {
			var a float64
			if r < meq {
				a = p.Aeq.At(r, j)
			} else {
				a = p.Ain.At(s.active[r-meq], j)
			}
			s.kkt.Set(n+r, j, a)
			s.kkt.Set(j, n+r, a)
		}
	}

	s.lu.Factorize(s.kkt)
}

// direction solves for the primal step and the multiplier steps of the
// working set per unit multiplier on inequality row.
func (s *Solver) direction(p *Problem, row int) bool {
	n := p.NumberOfVariables()
	for i := 0; i < s.rhs.Len(); i++ {
		v := 0.0
		if i < n {
			v = -p.Ain.At(row, i)
		}
		s.rhs.SetVec(i, v)
	}
	return s.solve()
}

func (s *Solver) solve() bool {
	if err := s.lu.SolveVecTo(s.sol, false, s.rhs); err != nil {
		return false
	}
	for i := 0; i < s.sol.Len(); i++ {
		if v := s.sol.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
