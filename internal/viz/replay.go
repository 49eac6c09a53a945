package viz

import (
	"github.com/san-kum/icpwalk/internal/models"
	"github.com/san-kum/icpwalk/internal/sim"
	"github.com/san-kum/icpwalk/internal/storage"
	"gonum.org/v1/gonum/spatial/r2"
)

// RenderRun draws a stored run onto a fresh canvas: the ICP path as a
// line, the CoM as dots and a cross at every footstep.
func RenderRun(w, h int, view Viewport, states []sim.State, footsteps []storage.Footprint) *Canvas {
	c := NewCanvas(w, h, view)
	for _, f := range footsteps {
		c.Cross(r2.Vec{X: f.Pose.X, Y: f.Pose.Y})
	}
	var prev r2.Vec
	for i, x := range states {
		c.Plot(r2.Vec{X: x[models.CoMX], Y: x[models.CoMY]})
		icp := r2.Vec{X: x[models.ICPX], Y: x[models.ICPY]}
		if i > 0 {
			c.Line(prev, icp)
		}
		prev = icp
	}
	return c
}

// ViewportAround fits a viewport around the footsteps and every state with
// margin metres to spare.
func ViewportAround(states []sim.State, footsteps []storage.Footprint, margin float64) Viewport {
	v := Viewport{MinX: -margin, MaxX: margin, MinY: -margin, MaxY: margin}
	grow := func(p r2.Vec) {
		v.MinX = min(v.MinX, p.X-margin)
		v.MaxX = max(v.MaxX, p.X+margin)
		v.MinY = min(v.MinY, p.Y-margin)
		v.MaxY = max(v.MaxY, p.Y+margin)
	}
	for _, f := range footsteps {
		grow(r2.Vec{X: f.Pose.X, Y: f.Pose.Y})
	}
	for _, x := range states {
		grow(r2.Vec{X: x[models.CoMX], Y: x[models.CoMY]})
		grow(r2.Vec{X: x[models.ICPX], Y: x[models.ICPY]})
	}
	return v
}
