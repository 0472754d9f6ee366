package mapalign

import "errors"

// Usage errors: the operation is not valid for the transformer's current
// lifecycle state. These are always detected before any computation and never
// leave the transformer partially mutated.
var (
	ErrNotLoaded     = errors.New("transformer has no loaded map information")
	ErrAlreadyLoaded = errors.New("transformer must be empty before loading")
)

// ErrInvalidDocument marks input/data failures: the supplied map document is
// malformed, fails validation, or references unusable image files. Errors
// wrapping it carry a descriptive reason.
var ErrInvalidDocument = errors.New("invalid map document")

// ErrComputation marks a failure while precomputing triangle transforms, such
// as a degenerate (collinear) correspondence triangle. It surfaces at load
// time; a successfully loaded transformer never produces it.
var ErrComputation = errors.New("transform computation failed")
