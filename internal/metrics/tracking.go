package metrics

import (
	"math"

	"github.com/san-kum/icpwalk/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// ICPTracking is the root mean square of the ICP tracking error.
type ICPTracking struct {
	name    string
	src     ErrorSource
	squares []float64
}

func NewICPTracking(src ErrorSource) *ICPTracking {
	return &ICPTracking{name: NameICPRMS, src: src}
}

func (m *ICPTracking) Name() string { return m.name }

func (m *ICPTracking) Observe(x sim.State, u sim.Control, t float64) {
	e := m.src.ICPError()
	if math.IsNaN(e.X) || math.IsNaN(e.Y) {
		return
	}
	m.squares = append(m.squares, r2.Norm2(e))
}

func (m *ICPTracking) Value() float64 {
	if len(m.squares) == 0 {
		return 0
	}
	return math.Sqrt(stat.Mean(m.squares, nil))
}

func (m *ICPTracking) Reset() {
	m.squares = m.squares[:0]
}

// MaxICPError is the largest ICP tracking error seen.
type MaxICPError struct {
	name string
	src  ErrorSource
	max  float64
}

func NewMaxICPError(src ErrorSource) *MaxICPError {
	return &MaxICPError{name: NameICPMax, src: src}
}

func (m *MaxICPError) Name() string { return m.name }

func (m *MaxICPError) Observe(x sim.State, u sim.Control, t float64) {
	if e := r2.Norm(m.src.ICPError()); e > m.max {
		m.max = e
	}
}

func (m *MaxICPError) Value() float64 { return m.max }

func (m *MaxICPError) Reset() { m.max = 0 }

// QPFailures reports the controller's count of non-converged ticks.
type QPFailures struct {
	name  string
	src   ConvergenceSource
	count int
}

func NewQPFailures(src ConvergenceSource) *QPFailures {
	return &QPFailures{name: NameQPFailures, src: src}
}

func (m *QPFailures) Name() string { return m.name }

func (m *QPFailures) Observe(x sim.State, u sim.Control, t float64) {
	m.count = m.src.NonConvergenceCount()
}

func (m *QPFailures) Value() float64 { return float64(m.count) }

func (m *QPFailures) Reset() { m.count = 0 }
