package rollout

import "errors"

// RolloutError implements errors unique to a rollout buffer
type RolloutError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *RolloutError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *RolloutError) Unwrap() error {
	return e.Err
}

// ErrBufferFull is returned when adding a transition to a buffer at
// maximum capacity
var ErrBufferFull = errors.New("buffer at maximum capacity")

// IsBufferFull returns whether or not an error reports that a
// buffer is at maximum capacity
func IsBufferFull(err error) bool {
	return errors.Is(err, ErrBufferFull)
}
