package routine

import "errors"

// Contract violations. Dispatch returns these unchanged (possibly wrapped)
// so callers can match them with errors.Is.
var (
	ErrUnknownAction  = errors.New("unknown action type")
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidSection = errors.New("invalid section")
)

// ErrInvalidExercise is returned by Validate. It is a caller-side input
// problem, not a reducer contract violation.
var ErrInvalidExercise = errors.New("invalid exercise")
