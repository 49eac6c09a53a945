package support

import (
	"github.com/pkg/errors"
	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/geometry"
	"gonum.org/v1/gonum/spatial/r2"
)

// MaxContactPoints bounds the contact points of one foot.
const MaxContactPoints = 8

// BipedSupportPolygons tracks where both feet are and which of them carry
// weight. It implements icpopt.SupportGeometry.
type BipedSupportPolygons struct {
	defaultFoot *geometry.ConvexPolygon

	soles     footstep.SideDependent[geometry.Pose2]
	inContact footstep.SideDependent[bool]
	// local is the contact polygon in sole frame, world the same polygon in world frame.
	local footstep.SideDependent[*geometry.ConvexPolygon]
	world footstep.SideDependent[*geometry.ConvexPolygon]

	combined *geometry.ConvexPolygon
}

// NewBipedSupportPolygons builds a tracker for rectangular feet of the
// given length and width centered on the sole origin. Both feet start at
// the origin and in contact.
func NewBipedSupportPolygons(length, width float64) (*BipedSupportPolygons, error) {
	if !(length > 0) || !(width > 0) {
		return nil, errors.Wrapf(ErrInvalidFootSize, "%vx%v", length, width)
	}
	hl, hw := length/2, width/2
	b := &BipedSupportPolygons{
		defaultFoot: geometry.NewConvexPolygon(
			r2.Vec{X: hl, Y: hw},
			r2.Vec{X: -hl, Y: hw},
			r2.Vec{X: -hl, Y: -hw},
			r2.Vec{X: hl, Y: -hw},
		),
		combined: geometry.NewConvexPolygonWithCapacity(2 * MaxContactPoints),
	}
	for _, side := range footstep.Sides {
		b.local.Set(side, geometry.NewConvexPolygonWithCapacity(MaxContactPoints))
		b.world.Set(side, geometry.NewConvexPolygonWithCapacity(MaxContactPoints))
		b.local.Get(side).Set(b.defaultFoot)
		b.inContact.Set(side, true)
		b.update(side)
	}
	return b, nil
}

// SetSolePose moves one foot.
func (b *BipedSupportPolygons) SetSolePose(side footstep.Side, pose geometry.Pose2) error {
	if !pose.IsFinite() {
		return errors.Wrapf(ErrNonFinite, "%s sole pose %+v", side, pose)
	}
	b.soles.Set(side, pose)
	b.update(side)
	return nil
}

// SetContactPoints replaces the contact points of one foot, given in sole
// frame. No points restores the full foot.
func (b *BipedSupportPolygons) SetContactPoints(side footstep.Side, points []r2.Vec) error {
	if len(points) > MaxContactPoints {
		return errors.Wrapf(ErrTooManyContactPoints, "%d points on the %s foot", len(points), side)
	}
	for _, p := range points {
		if !geometry.IsFiniteVec(p) {
			return errors.Wrapf(ErrNonFinite, "%s contact point %v", side, p)
		}
	}
	if len(points) == 0 {
		b.local.Get(side).Set(b.defaultFoot)
	} else {
		b.local.Get(side).SetFromPoints(points)
	}
	b.update(side)
	return nil
}

func (b *BipedSupportPolygons) SetContact(side footstep.Side, inContact bool) {
	b.inContact.Set(side, inContact)
}

func (b *BipedSupportPolygons) InContact(side footstep.Side) bool {
	return b.inContact.Get(side)
}

// PlaceFoot lands a foot on a footstep: pose, predicted contact points and contact.
func (b *BipedSupportPolygons) PlaceFoot(step footstep.Footstep) error {
	if err := b.SetContactPoints(step.Side, step.ContactPoints); err != nil {
		return err
	}
	if err := b.SetSolePose(step.Side, step.Pose); err != nil {
		return err
	}
	b.SetContact(step.Side, true)
	return nil
}

func (b *BipedSupportPolygons) update(side footstep.Side) {
	b.world.Get(side).SetTransformed(b.local.Get(side), b.soles.Get(side))
}

// FootPolygon is the contact polygon of one foot in world frame, whether or not it is in contact.
func (b *BipedSupportPolygons) FootPolygon(side footstep.Side) *geometry.ConvexPolygon {
	return b.world.Get(side)
}

func (b *BipedSupportPolygons) SolePose(side footstep.Side) geometry.Pose2 {
	return b.soles.Get(side)
}

// SupportPolygon is the hull of the feet in contact. It is empty in flight.
func (b *BipedSupportPolygons) SupportPolygon() *geometry.ConvexPolygon {
	left, right := b.inContact.Get(footstep.Left), b.inContact.Get(footstep.Right)
	switch {
	case left && right:
		b.combined.Combine(b.world.Get(footstep.Left), b.world.Get(footstep.Right))
	case left:
		b.combined.Set(b.world.Get(footstep.Left))
	case right:
		b.combined.Set(b.world.Get(footstep.Right))
	default:
		b.combined.Clear()
	}
	return b.combined
}
