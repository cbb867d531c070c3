package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
type AttendanceRepository interface {
	// GetOrCreate returns the record for employee on workDate, inserting an
	// empty one first when none exists.
	GetOrCreate(ctx context.Context, employeeID string, workDate time.Time) (AttendanceRecord, error)

	// GetByID retrieves a record by ID
	GetByID(ctx context.Context, id string) (AttendanceRecord, error)

	// GetByEmployeeAndDate returns nil when the employee has no record that day
	GetByEmployeeAndDate(ctx context.Context, employeeID string, workDate time.Time) (*AttendanceRecord, error)

	// Update writes punches and derived totals when the stored version still
	// equals record.Version. It returns the record with the bumped version, or
	// ErrVersionConflict.
	Update(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)

	// SetFinalised toggles the payroll-finalised flag
	SetFinalised(ctx context.Context, id string, finalised bool) error

	// AttachException adds exceptionID to the record if absent and clears the
	// finalised flag.
	AttachException(ctx context.Context, id string, exceptionID string) error

	// ListFinalisedCreatedBetween returns finalised records created in [start, end)
	ListFinalisedCreatedBetween(ctx context.Context, start, end time.Time) ([]AttendanceRecord, error)
}
