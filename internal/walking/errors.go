package walking

import "errors"

var (
	ErrInvalidPlan = errors.New("walking: invalid plan")
	ErrInvalidPush = errors.New("walking: invalid push")
)
