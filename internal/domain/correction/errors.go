package correction

import "errors"

// Correction domain errors
var (
	ErrCorrectionNotFound = errors.New("correction request not found")
	ErrInvalidTransition  = errors.New("correction request cannot move to the requested status")
	ErrNotRecordOwner     = errors.New("attendance record belongs to another employee")
)
