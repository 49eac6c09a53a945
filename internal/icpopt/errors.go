package icpopt

import "errors"

var (
	// ErrEmptyPlan indicates single support was requested without a planned step.
	ErrEmptyPlan = errors.New("icpopt: single support requires at least one planned footstep")

	// ErrMissingFinalTransfer indicates the final transfer duration was never set.
	ErrMissingFinalTransfer = errors.New("icpopt: final transfer duration not set")

	// ErrNegativeWeight indicates a runtime weight update with a negative value.
	ErrNegativeWeight = errors.New("icpopt: negative weight")

	// ErrInvalidParameters is wrapped by every Parameters.Validate failure.
	ErrInvalidParameters = errors.New("icpopt: invalid parameters")

	// ErrNilSupport indicates a controller built without support geometry.
	ErrNilSupport = errors.New("icpopt: nil support geometry")
)
