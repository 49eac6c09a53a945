package support

import "github.com/pkg/errors"

var (
	ErrInvalidFootSize      = errors.New("support: foot dimensions must be positive")
	ErrNonFinite            = errors.New("support: non-finite pose or contact point")
	ErrTooManyContactPoints = errors.New("support: too many contact points")
)
