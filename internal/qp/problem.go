package qp

import "gonum.org/v1/gonum/mat"

// Problem is the dense convex quadratic program
//
//	minimize   ½ xᵀ H x + fᵀ x
//	subject to Aeq x  = beq
//	           Ain x ≤ bin
//
// The matrices are exported so callers can assemble blocks with gonum
// directly. Reshape zeroes every block and keeps the backing storage.
type Problem struct {
	H   *mat.Dense
	F   *mat.VecDense
	Aeq *mat.Dense
	Beq *mat.VecDense
	Ain *mat.Dense
	Bin *mat.VecDense

	n, meq, mineq int
}

// NewProblem pre-sizes a problem for at most maxVars variables,
// maxEq equality rows and maxIneq inequality rows.
func NewProblem(maxVars, maxEq, maxIneq int) *Problem {
	p := &Problem{
		H:   mat.NewDense(maxVars, maxVars, nil),
		F:   mat.NewVecDense(maxVars, nil),
		Aeq: mat.NewDense(max(maxEq, 1), maxVars, nil),
		Beq: mat.NewVecDense(max(maxEq, 1), nil),
		Ain: mat.NewDense(max(maxIneq, 1), maxVars, nil),
		Bin: mat.NewVecDense(max(maxIneq, 1), nil),
	}
	return p
}

// Reshape resizes and zeroes the problem. Zero-row blocks keep a single
// unused row so gonum never sees an empty matrix.
func (p *Problem) Reshape(n, meq, mineq int) {
	p.n, p.meq, p.mineq = n, meq, mineq

	p.H.Reset()
	p.H.ReuseAs(n, n)
	p.F.Reset()
	p.F.ReuseAsVec(n)
	p.Aeq.Reset()
	p.Aeq.ReuseAs(max(meq, 1), n)
	p.Beq.Reset()
	p.Beq.ReuseAsVec(max(meq, 1))
	p.Ain.Reset()
	p.Ain.ReuseAs(max(mineq, 1), n)
	p.Bin.Reset()
	p.Bin.ReuseAsVec(max(mineq, 1))
}

func (p *Problem) NumberOfVariables() int {
	return p.n
}

func (p *Problem) NumberOfEqualities() int {
	return p.meq
}

func (p *Problem) NumberOfInequalities() int {
	return p.mineq
}

// AddQuadratic adds w·(xᵢ)(xⱼ) symmetrically to the Hessian block.
func (p *Problem) AddQuadratic(i, j int, w float64) {
	p.H.Set(i, j, p.H.At(i, j)+w)
	if i != j {
		p.H.Set(j, i, p.H.At(j, i)+w)
	}
}

func (p *Problem) AddLinear(i int, w float64) {
	p.F.SetVec(i, p.F.AtVec(i)+w)
}

// Cost evaluates the objective at x.
func (p *Problem) Cost(x mat.Vector) float64 {
	cost := 0.0
	for i := 0; i < p.n; i++ {
		xi := x.AtVec(i)
		cost += p.F.AtVec(i) * xi
		for j := 0; j < p.n; j++ {
			cost += 0.5 * xi * p.H.At(i, j) * x.AtVec(j)
		}
	}
	return cost
}

// InequalityViolation returns Ain[row]·x − bin[row]; positive means violated.
func (p *Problem) InequalityViolation(row int, x mat.Vector) float64 {
	v := -p.Bin.AtVec(row)
	for j := 0; j < p.n; j++ {
		v += p.Ain.At(row, j) * x.AtVec(j)
	}
	return v
}
