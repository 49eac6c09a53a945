package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Pose2 is a planar pose: a position on the ground plane and a heading.
type Pose2 struct {
	X   float64 `yaml:"x" json:"x"`
	Y   float64 `yaml:"y" json:"y"`
	Yaw float64 `yaml:"yaw" json:"yaw"`
}

func (p Pose2) Position() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// RotateVector expresses a vector given in the pose frame in the parent frame.
func (p Pose2) RotateVector(v r2.Vec) r2.Vec {
	s, c := math.Sincos(p.Yaw)
	return r2.Vec{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y}
}

// TransformPoint expresses a point given in the pose frame in the parent frame.
func (p Pose2) TransformPoint(v r2.Vec) r2.Vec {
	return r2.Add(p.RotateVector(v), p.Position())
}

// InverseTransformPoint expresses a parent-frame point in the pose frame.
func (p Pose2) InverseTransformPoint(v r2.Vec) r2.Vec {
	d := r2.Sub(v, p.Position())
	s, c := math.Sincos(p.Yaw)
	return r2.Vec{X: c*d.X + s*d.Y, Y: -s*d.X + c*d.Y}
}

func (p Pose2) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y) && isFinite(p.Yaw)
}

// Sym2 is a symmetric 2x2 matrix [XX XY; XY YY].
type Sym2 struct {
	XX, XY, YY float64
}

// RotatedDiagonal returns R·diag(a, b)·Rᵀ for a rotation of yaw.
// It maps forward/lateral quantities expressed in a sole frame into world frame.
func RotatedDiagonal(yaw, a, b float64) Sym2 {
	s, c := math.Sincos(yaw)
	return Sym2{
		XX: a*c*c + b*s*s,
		XY: (a - b) * c * s,
		YY: a*s*s + b*c*c,
	}
}

func (m Sym2) MulVec(v r2.Vec) r2.Vec {
	return r2.Vec{X: m.XX*v.X + m.XY*v.Y, Y: m.XY*v.X + m.YY*v.Y}
}

func (m Sym2) Det() float64 {
	return m.XX*m.YY - m.XY*m.XY
}

// Inverse returns the inverse and false when the matrix is singular.
func (m Sym2) Inverse() (Sym2, bool) {
	det := m.Det()
	if math.Abs(det) < 1e-12 {
		return Sym2{}, false
	}
	return Sym2{XX: m.YY / det, XY: -m.XY / det, YY: m.XX / det}, true
}

func (m Sym2) Scale(f float64) Sym2 {
	return Sym2{XX: f * m.XX, XY: f * m.XY, YY: f * m.YY}
}

// DiagonalNorm is the Euclidean norm of the diagonal entries.
func (m Sym2) DiagonalNorm() float64 {
	return math.Hypot(m.XX, m.YY)
}

func IsFiniteVec(v r2.Vec) bool {
	return isFinite(v.X) && isFinite(v.Y)
}

// NaNVec returns a vector with both components set to NaN.
func NaNVec() r2.Vec {
	return r2.Vec{X: math.NaN(), Y: math.NaN()}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
