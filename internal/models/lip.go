package models

import (
	"math"

	"github.com/san-kum/icpwalk/internal/sim"
)

// State layout of LinearInvertedPendulum.
const (
	CoMX = iota
	CoMY
	ICPX
	ICPY
)

// Control layout of LinearInvertedPendulum.
const (
	CMPX = iota
	CMPY
	ForceX
	ForceY
)

// LinearInvertedPendulum is the planar LIP written in centre-of-mass and
// instantaneous-capture-point coordinates. The CMP is the input; an external
// horizontal force on the CoM enters the ICP dynamics as F/(m·ω).
type LinearInvertedPendulum struct {
	Mass    float64
	Height  float64
	Gravity float64
}

func NewLinearInvertedPendulum() *LinearInvertedPendulum {
	return &LinearInvertedPendulum{
		Mass:    30.0,
		Height:  0.9,
		Gravity: 9.81,
	}
}

// Omega is the natural frequency sqrt(g/z).
func (p *LinearInvertedPendulum) Omega() float64 {
	return math.Sqrt(p.Gravity / p.Height)
}

func (p *LinearInvertedPendulum) StateDim() int {
	return 4
}

func (p *LinearInvertedPendulum) ControlDim() int {
	return 4
}

func (p *LinearInvertedPendulum) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	omega := p.Omega()

	var cmpX, cmpY, fx, fy float64
	if len(u) >= 2 {
		cmpX, cmpY = u[CMPX], u[CMPY]
	}
	if len(u) >= 4 {
		fx, fy = u[ForceX], u[ForceY]
	}
	push := p.Mass * omega

	return sim.State{
		omega * (x[ICPX] - x[CoMX]),
		omega * (x[ICPY] - x[CoMY]),
		omega*(x[ICPX]-cmpX) + fx/push,
		omega*(x[ICPY]-cmpY) + fy/push,
	}
}

// ICPFromCoM returns ξ = c + ċ/ω.
func (p *LinearInvertedPendulum) ICPFromCoM(com, comVelocity [2]float64) [2]float64 {
	omega := p.Omega()
	return [2]float64{com[0] + comVelocity[0]/omega, com[1] + comVelocity[1]/omega}
}
