package delta

import "errors"

// Domain errors for uncertainty-block construction and validation. All are
// raised eagerly at construction or assembly time, never during a solve.
var (
	// ErrConstruction indicates an invalid or missing constructor argument.
	ErrConstruction = errors.New("delta: invalid construction")

	// ErrStability indicates a pole, transfer function or realization that
	// fails the stability check for its declared time-domain.
	ErrStability = errors.New("delta: unstable realization")

	// ErrTimeDomain indicates a discrete-time object supplied where a
	// continuous-time one is required, or vice versa.
	ErrTimeDomain = errors.New("delta: time-domain mismatch")

	// ErrUnsupported indicates a feature outside the implemented surface,
	// e.g. an uncertainty variant with no multiplier mapping.
	ErrUnsupported = errors.New("delta: unsupported feature")

	// ErrNotFound indicates a lookup by name that matched nothing.
	ErrNotFound = errors.New("delta: not found")

	// ErrValidation indicates a concrete sampled realization that violates
	// the declared bounds of its uncertainty block.
	ErrValidation = errors.New("delta: sample violates declared bounds")
)
