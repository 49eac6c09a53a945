package qp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Status tags the outcome of a solve.
type Status int

const (
	// Optimal means the KKT conditions hold for the returned point.
	Optimal Status = iota
	// MaxIterations means the working set did not settle within the iteration budget.
	MaxIterations
	// Singular means the KKT system of the working set could not be solved.
	Singular
	// BadDimensions means the problem does not fit the pre-sized solver.
	BadDimensions
	// Infeasible means no point satisfies the constraints.
	Infeasible
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case MaxIterations:
		return "max iterations"
	case Singular:
		return "singular KKT system"
	case BadDimensions:
		return "bad dimensions"
	case Infeasible:
		return "infeasible"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ErrNoConvergence is wrapped by Result.Err for every non-optimal status.
var ErrNoConvergence = errors.New("qp: no convergence")

// Result is returned by every solve. A non-optimal result carries no usable solution.
type Result struct {
	Status     Status
	Iterations int
	Cost       float64
}

func (r Result) Converged() bool {
	return r.Status == Optimal
}

func (r Result) Err() error {
	if r.Converged() {
		return nil
	}
	return errors.Wrapf(ErrNoConvergence, "%s after %d iterations", r.Status, r.Iterations)
}
