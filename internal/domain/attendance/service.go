package attendance

import (
	"context"
)

// AttendanceService defines business logic for punch ingestion
type AttendanceService interface {
	// RecordPunch validates a punch against the active shift and appends it to
	// the employee's record for that calendar day.
	RecordPunch(ctx context.Context, req RecordPunchRequest) (AttendanceRecord, error)

	// SyncOfflinePunch behaves like RecordPunch, except a same-direction punch
	// already stored within one second is treated as a replay. The boolean
	// reports whether the punch was such a replay.
	SyncOfflinePunch(ctx context.Context, req RecordPunchRequest) (AttendanceRecord, bool, error)

	// GetRecord retrieves a single record by ID
	GetRecord(ctx context.Context, id string) (AttendanceRecord, error)

	// GetEmployeeDay retrieves the record of an employee on a YYYY-MM-DD date
	GetEmployeeDay(ctx context.Context, employeeID string, date string) (AttendanceRecord, error)
}
