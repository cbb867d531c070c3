package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/correction"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/exception"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/lateness"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/offlinesync"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/org"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/shift"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrDuplicateDirection):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrVersionConflict):
		Conflict(w, "Attendance record was modified concurrently, retry the request")
	case errors.Is(err, attendance.ErrPunchBeforeShiftWindow),
		errors.Is(err, attendance.ErrPunchAfterShiftWindow):
		UnprocessableEntity(w, err.Error())

	// Shift domain errors
	case errors.Is(err, shift.ErrShiftTypeNotFound):
		NotFound(w, "Shift type not found")
	case errors.Is(err, shift.ErrAssignmentNotFound):
		NotFound(w, "Shift assignment not found")
	case errors.Is(err, shift.ErrInvalidTransition):
		Conflict(w, err.Error())
	case errors.Is(err, shift.ErrOverlappingAssignment):
		Conflict(w, err.Error())
	case errors.Is(err, shift.ErrNoTargetEmployees):
		UnprocessableEntity(w, err.Error())

	// Correction & exception workflow errors
	case errors.Is(err, correction.ErrCorrectionNotFound):
		NotFound(w, "Correction request not found")
	case errors.Is(err, correction.ErrInvalidTransition):
		Conflict(w, err.Error())
	case errors.Is(err, correction.ErrNotRecordOwner):
		Forbidden(w, err.Error())
	case errors.Is(err, exception.ErrExceptionNotFound):
		NotFound(w, "Time exception not found")
	case errors.Is(err, exception.ErrInvalidTransition):
		Conflict(w, err.Error())

	// Organisation lookups
	case errors.Is(err, org.ErrPositionNotFound):
		NotFound(w, "Position not found")
	case errors.Is(err, org.ErrPositionVacant):
		UnprocessableEntity(w, err.Error())

	case errors.Is(err, lateness.ErrDepartmentRequired):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, notification.ErrNoTarget):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, offlinesync.ErrQueueFull):
		Conflict(w, "Device queue is full")
	case errors.Is(err, payroll.ErrExporterUnavailable):
		ServiceUnavailable(w, "Payroll endpoint is unavailable")

	case errors.Is(err, jwt.ErrMissingClaims):
		Unauthorized(w, "Invalid token")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
