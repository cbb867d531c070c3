package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/shift"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const shiftTypeColumns = `id, name, start_minute, end_minute, grace_in_minutes, grace_out_minutes, working_days, created_at, updated_at`

type shiftTypeRepository struct {
	db *database.DB
}

func NewShiftTypeRepository(db *database.DB) shift.ShiftTypeRepository {
	return &shiftTypeRepository{db: db}
}

func scanShiftType(row pgx.Row) (shift.ShiftType, error) {
	var st shift.ShiftType
	err := row.Scan(
		&st.ID, &st.Name, &st.StartMinute, &st.EndMinute,
		&st.GraceInMinutes, &st.GraceOutMinutes, &st.WorkingDays,
		&st.CreatedAt, &st.UpdatedAt,
	)
	return st, err
}

// Create implements shift.ShiftTypeRepository.
func (r *shiftTypeRepository) Create(ctx context.Context, st shift.ShiftType) (shift.ShiftType, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shift_types (name, start_minute, end_minute, grace_in_minutes, grace_out_minutes, working_days)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + shiftTypeColumns

	created, err := scanShiftType(q.QueryRow(ctx, query,
		st.Name, st.StartMinute, st.EndMinute, st.GraceInMinutes, st.GraceOutMinutes, st.WorkingDays,
	))
	if err != nil {
		return shift.ShiftType{}, fmt.Errorf("failed to create shift type: %w", err)
	}
	return created, nil
}

// GetByID implements shift.ShiftTypeRepository.
func (r *shiftTypeRepository) GetByID(ctx context.Context, id string) (shift.ShiftType, error) {
	q := GetQuerier(ctx, r.db)

	st, err := scanShiftType(q.QueryRow(ctx, `SELECT `+shiftTypeColumns+` FROM shift_types WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.ShiftType{}, shift.ErrShiftTypeNotFound
		}
		return shift.ShiftType{}, fmt.Errorf("failed to get shift type: %w", err)
	}
	return st, nil
}

// List implements shift.ShiftTypeRepository.
func (r *shiftTypeRepository) List(ctx context.Context) ([]shift.ShiftType, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+shiftTypeColumns+` FROM shift_types ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift types: %w", err)
	}
	defer rows.Close()

	var types []shift.ShiftType
	for rows.Next() {
		st, err := scanShiftType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, st)
	}
	return types, rows.Err()
}

const assignmentColumns = `id, employee_id, shift_type_id, start_date, end_date, status, created_at, updated_at`

type assignmentRepository struct {
	db *database.DB
}

func NewAssignmentRepository(db *database.DB) shift.AssignmentRepository {
	return &assignmentRepository{db: db}
}

func scanAssignment(row pgx.Row) (shift.ShiftAssignment, error) {
	var a shift.ShiftAssignment
	err := row.Scan(&a.ID, &a.EmployeeID, &a.ShiftTypeID, &a.StartDate, &a.EndDate, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Create implements shift.AssignmentRepository.
func (r *assignmentRepository) Create(ctx context.Context, a shift.ShiftAssignment) (shift.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shift_assignments (employee_id, shift_type_id, start_date, end_date, status)
		VALUES ($1, $2, $3::date, $4::date, $5)
		RETURNING ` + assignmentColumns

	created, err := scanAssignment(q.QueryRow(ctx, query,
		a.EmployeeID, a.ShiftTypeID, dateParam(a.StartDate), dateParam(a.EndDate), string(a.Status),
	))
	if err != nil {
		return shift.ShiftAssignment{}, fmt.Errorf("failed to create shift assignment: %w", err)
	}
	return created, nil
}

// GetByID implements shift.AssignmentRepository.
func (r *assignmentRepository) GetByID(ctx context.Context, id string) (shift.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	a, err := scanAssignment(q.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM shift_assignments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.ShiftAssignment{}, shift.ErrAssignmentNotFound
		}
		return shift.ShiftAssignment{}, fmt.Errorf("failed to get shift assignment: %w", err)
	}
	return a, nil
}

// UpdateStatus implements shift.AssignmentRepository.
func (r *assignmentRepository) UpdateStatus(ctx context.Context, id string, from, to shift.AssignmentStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shift_assignments
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	tag, err := q.Exec(ctx, query, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("failed to update shift assignment status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return shift.ErrInvalidTransition
}

// FindApprovedCovering implements shift.AssignmentRepository.
func (r *assignmentRepository) FindApprovedCovering(ctx context.Context, employeeID string, day time.Time) (*shift.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT a.id, a.employee_id, a.shift_type_id, a.start_date, a.end_date, a.status, a.created_at, a.updated_at,
			   t.id, t.name, t.start_minute, t.end_minute, t.grace_in_minutes, t.grace_out_minutes, t.working_days,
			   t.created_at, t.updated_at
		FROM shift_assignments a
		INNER JOIN shift_types t ON t.id = a.shift_type_id
		WHERE a.employee_id = $1
		  AND a.status = 'approved'
		  AND a.start_date <= $2::date
		  AND a.end_date >= $2::date
		ORDER BY a.start_date DESC
		LIMIT 1
	`

	var a shift.ShiftAssignment
	var st shift.ShiftType
	err := q.QueryRow(ctx, query, employeeID, dateParam(day)).Scan(
		&a.ID, &a.EmployeeID, &a.ShiftTypeID, &a.StartDate, &a.EndDate, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		&st.ID, &st.Name, &st.StartMinute, &st.EndMinute, &st.GraceInMinutes, &st.GraceOutMinutes, &st.WorkingDays,
		&st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find covering assignment: %w", err)
	}
	a.ShiftType = &st
	return &a, nil
}

// HasApprovedOverlap implements shift.AssignmentRepository.
func (r *assignmentRepository) HasApprovedOverlap(ctx context.Context, employeeID string, start, end time.Time, excludeID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	// Serialise approvals of the same employee for the rest of the transaction
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, employeeID); err != nil {
		return false, fmt.Errorf("failed to lock employee assignments: %w", err)
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM shift_assignments
			WHERE employee_id = $1
			  AND status = 'approved'
			  AND id::text <> $4
			  AND start_date <= $3::date
			  AND end_date >= $2::date
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, dateParam(start), dateParam(end), excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check overlapping assignments: %w", err)
	}
	return exists, nil
}

// ExpireEnded implements shift.AssignmentRepository.
func (r *assignmentRepository) ExpireEnded(ctx context.Context, day time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shift_assignments
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'approved' AND end_date < $1::date
	`
	tag, err := q.Exec(ctx, query, dateParam(day))
	if err != nil {
		return 0, fmt.Errorf("failed to expire shift assignments: %w", err)
	}
	return tag.RowsAffected(), nil
}
