package icpopt

import (
	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/geometry"
	"gonum.org/v1/gonum/spatial/r2"
)

// SupportGeometry provides the current contact state in world frame.
type SupportGeometry interface {
	// FootPolygon is the support polygon of one foot in world frame.
	FootPolygon(side footstep.Side) *geometry.ConvexPolygon
	// SolePose is the sole pose of one foot in world frame.
	SolePose(side footstep.Side) geometry.Pose2
}

// CoPConstraintSetter receives the region the CoP must stay in.
type CoPConstraintSetter interface {
	SetCoPConstraint(polygon *geometry.ConvexPolygon)
}

// ReachabilityConstraintSetter receives the region the first footstep must
// stay in. An empty polygon removes the constraint.
type ReachabilityConstraintSetter interface {
	SetReachabilityConstraint(polygon *geometry.ConvexPolygon)
}

// CoPConstraintHandler derives the CoP region from the feet in contact,
// shrunk by a safety distance.
type CoPConstraintHandler struct {
	support      SupportGeometry
	safeDistance float64

	combined *geometry.ConvexPolygon
	shrunk   *geometry.ConvexPolygon
}

func NewCoPConstraintHandler(support SupportGeometry, safeDistance float64) *CoPConstraintHandler {
	return &CoPConstraintHandler{
		support:      support,
		safeDistance: safeDistance,
		combined:     geometry.NewConvexPolygonWithCapacity(MaxPolygonVertices),
		shrunk:       geometry.NewConvexPolygonWithCapacity(MaxPolygonVertices),
	}
}

// UpdateForDoubleSupport constrains the CoP to the hull of both feet.
func (h *CoPConstraintHandler) UpdateForDoubleSupport(dst CoPConstraintSetter) {
	h.combined.Combine(h.support.FootPolygon(footstep.Left), h.support.FootPolygon(footstep.Right))
	h.combined.ShrinkInto(h.shrunk, h.safeDistance)
	dst.SetCoPConstraint(h.shrunk)
}

// UpdateForSingleSupport constrains the CoP to the support foot.
func (h *CoPConstraintHandler) UpdateForSingleSupport(supportSide footstep.Side, dst CoPConstraintSetter) {
	h.support.FootPolygon(supportSide).ShrinkInto(h.shrunk, h.safeDistance)
	dst.SetCoPConstraint(h.shrunk)
}

// Polygon is the region submitted by the last update.
func (h *CoPConstraintHandler) Polygon() *geometry.ConvexPolygon {
	return h.shrunk
}

// ReachabilityConstraintHandler bounds where the swing foot can land: a
// rectangle in the support sole frame on the swing side.
type ReachabilityConstraintHandler struct {
	support SupportGeometry

	forward, backward  float64
	minWidth, maxWidth float64
	safeDistance       float64

	local   *geometry.ConvexPolygon
	world   *geometry.ConvexPolygon
	shrunk  *geometry.ConvexPolygon
	corners [4]r2.Vec
}

func NewReachabilityConstraintHandler(support SupportGeometry, p Parameters) *ReachabilityConstraintHandler {
	return &ReachabilityConstraintHandler{
		support:      support,
		forward:      p.MaximumStepForward,
		backward:     p.MaximumStepBackward,
		minWidth:     p.MinimumStepWidth,
		maxWidth:     p.MaximumStepWidth,
		safeDistance: p.ReachabilitySafeDistance,
		local:        geometry.NewConvexPolygonWithCapacity(4),
		world:        geometry.NewConvexPolygonWithCapacity(4),
		shrunk:       geometry.NewConvexPolygonWithCapacity(4),
	}
}

// UpdateForDoubleSupport removes the constraint; no foot is swinging.
func (h *ReachabilityConstraintHandler) UpdateForDoubleSupport(dst ReachabilityConstraintSetter) {
	h.shrunk.Clear()
	dst.SetReachabilityConstraint(h.shrunk)
}

func (h *ReachabilityConstraintHandler) UpdateForSingleSupport(supportSide footstep.Side, dst ReachabilityConstraintSetter) {
	// the swing foot lands on the side opposite to the support foot
	lateral := -supportSide.Sign()
	inner, outer := lateral*h.minWidth, lateral*h.maxWidth
	h.corners = [4]r2.Vec{
		{X: h.forward, Y: inner},
		{X: h.forward, Y: outer},
		{X: -h.backward, Y: outer},
		{X: -h.backward, Y: inner},
	}
	h.local.SetFromPoints(h.corners[:])
	h.world.SetTransformed(h.local, h.support.SolePose(supportSide))
	h.world.ShrinkInto(h.shrunk, h.safeDistance)
	dst.SetReachabilityConstraint(h.shrunk)
}

// Polygon is the region submitted by the last update; empty in double support.
func (h *ReachabilityConstraintHandler) Polygon() *geometry.ConvexPolygon {
	return h.shrunk
}
