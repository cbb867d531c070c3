package shift

import "errors"

// Shift domain errors
var (
	ErrShiftTypeNotFound     = errors.New("shift type not found")
	ErrAssignmentNotFound    = errors.New("shift assignment not found")
	ErrInvalidTransition     = errors.New("shift assignment cannot move to the requested status")
	ErrOverlappingAssignment = errors.New("employee already has an approved assignment overlapping this period")
	ErrNoTargetEmployees     = errors.New("assignment target resolves to no employees")
)
