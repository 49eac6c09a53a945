package footstep

import (
	"fmt"

	"github.com/pkg/errors"
)

// Side identifies a foot.
type Side int

const (
	Left Side = iota
	Right
)

// Sides lists both sides in index order.
var Sides = [2]Side{Left, Right}

func (s Side) Index() int {
	return int(s)
}

func (s Side) Opposite() Side {
	if s == Left {
		return Right
	}
	return Left
}

// Sign is +1 for the left side and -1 for the right side, the lateral
// direction of that foot in its own frame.
func (s Side) Sign() float64 {
	if s == Left {
		return 1
	}
	return -1
}

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

func (s Side) IsValid() bool {
	return s == Left || s == Right
}

// ParseSide converts "left"/"right" into a Side.
func ParseSide(name string) (Side, error) {
	switch name {
	case "left", "LEFT", "l":
		return Left, nil
	case "right", "RIGHT", "r":
		return Right, nil
	}
	return Left, errors.Errorf("footstep: unknown side %q", name)
}

// SideDependent holds one value per side.
type SideDependent[T any] [2]T

func (d *SideDependent[T]) Get(s Side) T {
	return d[s.Index()]
}

func (d *SideDependent[T]) Set(s Side, v T) {
	d[s.Index()] = v
}

// Ptr returns a pointer to the value stored for s.
func (d *SideDependent[T]) Ptr(s Side) *T {
	return &d[s.Index()]
}
