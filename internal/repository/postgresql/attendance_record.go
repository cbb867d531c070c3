package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const attendanceColumns = `
	id, employee_id, work_date, shift_assignment_id, punches,
	worked_minutes, overtime_minutes, lateness_minutes, has_missed_punch,
	finalised_for_payroll, exception_ids, version, created_at, updated_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanAttendance(row pgx.Row) (attendance.AttendanceRecord, error) {
	var r attendance.AttendanceRecord
	var punchesJSON []byte
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.WorkDate, &r.ShiftAssignmentID, &punchesJSON,
		&r.WorkedMinutes, &r.OvertimeMinutes, &r.LatenessMinutes, &r.HasMissedPunch,
		&r.FinalisedForPayroll, &r.ExceptionIDs, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}
	if len(punchesJSON) > 0 {
		if err := json.Unmarshal(punchesJSON, &r.Punches); err != nil {
			return attendance.AttendanceRecord{}, fmt.Errorf("failed to decode punches: %w", err)
		}
	}
	return r, nil
}

// GetOrCreate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetOrCreate(ctx context.Context, employeeID string, workDate time.Time) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	insert := `
		INSERT INTO attendance_records (employee_id, work_date)
		VALUES ($1, $2::date)
		ON CONFLICT (employee_id, work_date) DO NOTHING
	`
	if _, err := q.Exec(ctx, insert, employeeID, dateParam(workDate)); err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	query := `SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND work_date = $2::date
	`
	r, err := scanAttendance(q.QueryRow(ctx, query, employeeID, dateParam(workDate)))
	if err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to get attendance record: %w", err)
	}
	return r, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = $1`
	r, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to get attendance record: %w", err)
	}
	return r, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, workDate time.Time) (*attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND work_date = $2::date
	`
	r, err := scanAttendance(q.QueryRow(ctx, query, employeeID, dateParam(workDate)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance record: %w", err)
	}
	return &r, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	punches := record.Punches
	if punches == nil {
		punches = []attendance.Punch{}
	}
	punchesJSON, err := json.Marshal(punches)
	if err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to encode punches: %w", err)
	}

	query := `
		UPDATE attendance_records
		SET punches = $3,
			shift_assignment_id = $4,
			worked_minutes = $5,
			overtime_minutes = $6,
			lateness_minutes = $7,
			has_missed_punch = $8,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING ` + attendanceColumns

	updated, err := scanAttendance(q.QueryRow(ctx, query,
		record.ID,
		record.Version,
		punchesJSON,
		record.ShiftAssignmentID,
		record.WorkedMinutes,
		record.OvertimeMinutes,
		record.LatenessMinutes,
		record.HasMissedPunch,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to update attendance record: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM attendance_records WHERE id = $1)`, record.ID).Scan(&exists); err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to check attendance record: %w", err)
	}
	if !exists {
		return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
	}
	return attendance.AttendanceRecord{}, attendance.ErrVersionConflict
}

// SetFinalised implements attendance.AttendanceRepository.
func (a *attendanceRepository) SetFinalised(ctx context.Context, id string, finalised bool) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records
		SET finalised_for_payroll = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, id, finalised)
	if err != nil {
		return fmt.Errorf("failed to set finalised flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// AttachException implements attendance.AttendanceRepository.
func (a *attendanceRepository) AttachException(ctx context.Context, id string, exceptionID string) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records
		SET exception_ids = CASE
				WHEN $2 = ANY(exception_ids) THEN exception_ids
				ELSE array_append(exception_ids, $2)
			END,
			finalised_for_payroll = FALSE,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, id, exceptionID)
	if err != nil {
		return fmt.Errorf("failed to attach exception: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// ListFinalisedCreatedBetween implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListFinalisedCreatedBetween(ctx context.Context, start, end time.Time) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE finalised_for_payroll AND created_at >= $1 AND created_at < $2
		ORDER BY created_at, id
	`
	rows, err := q.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list finalised attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.AttendanceRecord
	for rows.Next() {
		r, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// dateParam renders the calendar date of t in its own location, so DATE
// columns never shift across zones.
func dateParam(t time.Time) string {
	return t.Format("2006-01-02")
}
