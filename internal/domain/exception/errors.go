package exception

import "errors"

// Exception domain errors
var (
	ErrExceptionNotFound = errors.New("time exception not found")
	ErrInvalidTransition = errors.New("time exception cannot move to the requested status")
)
