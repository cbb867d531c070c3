package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/correction"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const correctionColumns = `id, employee_id, attendance_id, reason, status, decided_by, decided_at, decision_notes, created_at, updated_at`

type correctionRepository struct {
	db *database.DB
}

func NewCorrectionRepository(db *database.DB) correction.Repository {
	return &correctionRepository{db: db}
}

func scanCorrection(row pgx.Row) (correction.CorrectionRequest, error) {
	var c correction.CorrectionRequest
	err := row.Scan(
		&c.ID, &c.EmployeeID, &c.AttendanceID, &c.Reason, &c.Status,
		&c.DecidedBy, &c.DecidedAt, &c.DecisionNotes, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// Create implements correction.Repository.
func (r *correctionRepository) Create(ctx context.Context, req correction.CorrectionRequest) (correction.CorrectionRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO correction_requests (employee_id, attendance_id, reason, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + correctionColumns

	created, err := scanCorrection(q.QueryRow(ctx, query, req.EmployeeID, req.AttendanceID, req.Reason, string(req.Status)))
	if err != nil {
		return correction.CorrectionRequest{}, fmt.Errorf("failed to create correction request: %w", err)
	}
	return created, nil
}

// GetByID implements correction.Repository.
func (r *correctionRepository) GetByID(ctx context.Context, id string) (correction.CorrectionRequest, error) {
	q := GetQuerier(ctx, r.db)

	c, err := scanCorrection(q.QueryRow(ctx, `SELECT `+correctionColumns+` FROM correction_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return correction.CorrectionRequest{}, correction.ErrCorrectionNotFound
		}
		return correction.CorrectionRequest{}, fmt.Errorf("failed to get correction request: %w", err)
	}
	return c, nil
}

// Transition implements correction.Repository.
func (r *correctionRepository) Transition(ctx context.Context, id string, from, to correction.Status, decidedBy *string, notes *string, at time.Time) (correction.CorrectionRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE correction_requests
		SET status = $3,
			decided_by = COALESCE($4, decided_by),
			decided_at = CASE WHEN $4::text IS NULL THEN decided_at ELSE $6 END,
			decision_notes = COALESCE($5, decision_notes),
			updated_at = $6
		WHERE id = $1 AND status = $2
		RETURNING ` + correctionColumns

	updated, err := scanCorrection(q.QueryRow(ctx, query, id, string(from), string(to), decidedBy, notes, at))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return correction.CorrectionRequest{}, fmt.Errorf("failed to transition correction request: %w", err)
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return correction.CorrectionRequest{}, err
	}
	return correction.CorrectionRequest{}, correction.ErrInvalidTransition
}

// EscalateSubmitted implements correction.Repository.
func (r *correctionRepository) EscalateSubmitted(ctx context.Context, at time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE correction_requests
		SET status = 'escalated', updated_at = $1
		WHERE status = 'submitted'
		RETURNING id
	`
	rows, err := q.Query(ctx, query, at)
	if err != nil {
		return nil, fmt.Errorf("failed to escalate correction requests: %w", err)
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
