package attendance

import (
	"errors"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

// Attendance domain errors
var (
	// Punch validation errors
	ErrPunchBeforeShiftWindow = errors.New("punch is earlier than the shift window allows")
	ErrPunchAfterShiftWindow  = errors.New("punch is later than the shift window allows")
	ErrDuplicateDirection     = errors.New("punch repeats the direction of an adjacent punch")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrVersionConflict    = errors.New("attendance record was modified concurrently")
)

// IsRejection reports whether err means the punch itself is unacceptable, as
// opposed to a transient failure worth retrying.
func IsRejection(err error) bool {
	var vErr validator.ValidationErrors
	return errors.As(err, &vErr) ||
		errors.Is(err, ErrPunchBeforeShiftWindow) ||
		errors.Is(err, ErrPunchAfterShiftWindow) ||
		errors.Is(err, ErrDuplicateDirection)
}
