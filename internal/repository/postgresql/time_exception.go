package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/exception"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const exceptionColumns = `
	id, employee_id, type, target_date, attendance_id, assigned_to, status, reason,
	created_by, processed_by, processed_at, created_at, updated_at`

type exceptionRepository struct {
	db *database.DB
}

func NewExceptionRepository(db *database.DB) exception.Repository {
	return &exceptionRepository{db: db}
}

func scanException(row pgx.Row) (exception.TimeException, error) {
	var e exception.TimeException
	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.Type, &e.TargetDate, &e.AttendanceID, &e.AssignedTo, &e.Status, &e.Reason,
		&e.CreatedBy, &e.ProcessedBy, &e.ProcessedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// Create implements exception.Repository.
func (r *exceptionRepository) Create(ctx context.Context, e exception.TimeException) (exception.TimeException, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO time_exceptions (employee_id, type, target_date, attendance_id, assigned_to, status, reason, created_by)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8)
		RETURNING ` + exceptionColumns

	created, err := scanException(q.QueryRow(ctx, query,
		e.EmployeeID, string(e.Type), dateParam(e.TargetDate), e.AttendanceID, e.AssignedTo,
		string(e.Status), e.Reason, e.CreatedBy,
	))
	if err != nil {
		return exception.TimeException{}, fmt.Errorf("failed to create time exception: %w", err)
	}
	return created, nil
}

// GetByID implements exception.Repository.
func (r *exceptionRepository) GetByID(ctx context.Context, id string) (exception.TimeException, error) {
	q := GetQuerier(ctx, r.db)

	e, err := scanException(q.QueryRow(ctx, `SELECT `+exceptionColumns+` FROM time_exceptions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return exception.TimeException{}, exception.ErrExceptionNotFound
		}
		return exception.TimeException{}, fmt.Errorf("failed to get time exception: %w", err)
	}
	return e, nil
}

// Transition implements exception.Repository.
func (r *exceptionRepository) Transition(ctx context.Context, id string, from, to exception.Status, processedBy string, at time.Time) (exception.TimeException, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE time_exceptions
		SET status = $3, processed_by = $4, processed_at = $5, updated_at = $5
		WHERE id = $1 AND status = $2
		RETURNING ` + exceptionColumns

	updated, err := scanException(q.QueryRow(ctx, query, id, string(from), string(to), processedBy, at))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return exception.TimeException{}, fmt.Errorf("failed to transition time exception: %w", err)
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return exception.TimeException{}, err
	}
	return exception.TimeException{}, exception.ErrInvalidTransition
}

// SetAttendance implements exception.Repository.
func (r *exceptionRepository) SetAttendance(ctx context.Context, id string, attendanceID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE time_exceptions SET attendance_id = $2, updated_at = NOW() WHERE id = $1`, id, attendanceID)
	if err != nil {
		return fmt.Errorf("failed to link time exception: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return exception.ErrExceptionNotFound
	}
	return nil
}

// EscalatePending implements exception.Repository.
func (r *exceptionRepository) EscalatePending(ctx context.Context, at time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		UPDATE time_exceptions
		SET status = 'escalated', updated_at = $1
		WHERE status = 'pending'
		RETURNING id
	`, at)
	if err != nil {
		return nil, fmt.Errorf("failed to escalate time exceptions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByTypeCreatedBetween implements exception.Repository.
func (r *exceptionRepository) ListByTypeCreatedBetween(ctx context.Context, t exception.Type, start, end time.Time) ([]exception.TimeException, error) {
	return r.list(ctx, `type = $1 AND created_at >= $2 AND created_at < $3`, string(t), start, end)
}

// ListApprovedCreatedBetween implements exception.Repository.
func (r *exceptionRepository) ListApprovedCreatedBetween(ctx context.Context, start, end time.Time) ([]exception.TimeException, error) {
	return r.list(ctx, `status = 'approved' AND created_at >= $1 AND created_at < $2`, start, end)
}

func (r *exceptionRepository) list(ctx context.Context, where string, args ...interface{}) ([]exception.TimeException, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + exceptionColumns + ` FROM time_exceptions WHERE ` + where + ` ORDER BY created_at, id`
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list time exceptions: %w", err)
	}
	defer rows.Close()

	var out []exception.TimeException
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
