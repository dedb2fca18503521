package expreplay

import "errors"

// Error implements errors unique to an experience replay buffer.
type Error struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying sentinel error
func (e *Error) Unwrap() error {
	return e.Err
}

var errInsufficientSamples = errors.New("fewer stored transitions than " +
	"requested batch size")

// IsInsufficientSamples returns whether or not an error reports that
// there are insufficient samples in the buffer to sample the requested
// batch. Callers are expected to check Size() before sampling; this
// predicate exists so the violation can be recognized at a boundary
// where the batch request originated.
func IsInsufficientSamples(err error) bool {
	return errors.Is(err, errInsufficientSamples)
}
