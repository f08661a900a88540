package persistence

import "errors"

// ErrTraceNotFound is returned when an execution trace does not exist.
var ErrTraceNotFound = errors.New("execution trace not found")

// IsTraceNotFound checks whether an error means the trace does not exist.
func IsTraceNotFound(err error) bool {
	return errors.Is(err, ErrTraceNotFound)
}
