package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/lateness"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
)

type latenessMarkerRepository struct {
	db *database.DB
}

func NewLatenessMarkerRepository(db *database.DB) lateness.MarkerRepository {
	return &latenessMarkerRepository{db: db}
}

// ListAll implements lateness.MarkerRepository.
func (r *latenessMarkerRepository) ListAll(ctx context.Context) ([]lateness.EscalationMarker, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT employee_id, last_escalated_count, escalated_at FROM lateness_escalation_markers`)
	if err != nil {
		return nil, fmt.Errorf("failed to list lateness markers: %w", err)
	}
	defer rows.Close()

	var markers []lateness.EscalationMarker
	for rows.Next() {
		var m lateness.EscalationMarker
		if err := rows.Scan(&m.EmployeeID, &m.LastEscalatedCount, &m.EscalatedAt); err != nil {
			return nil, err
		}
		markers = append(markers, m)
	}
	return markers, rows.Err()
}

// Upsert implements lateness.MarkerRepository.
func (r *latenessMarkerRepository) Upsert(ctx context.Context, m lateness.EscalationMarker) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO lateness_escalation_markers (employee_id, last_escalated_count, escalated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id) DO UPDATE
		SET last_escalated_count = EXCLUDED.last_escalated_count,
			escalated_at = EXCLUDED.escalated_at
	`
	if _, err := q.Exec(ctx, query, m.EmployeeID, m.LastEscalatedCount, m.EscalatedAt); err != nil {
		return fmt.Errorf("failed to save lateness marker: %w", err)
	}
	return nil
}

// Delete implements lateness.MarkerRepository.
func (r *latenessMarkerRepository) Delete(ctx context.Context, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM lateness_escalation_markers WHERE employee_id = $1`, employeeID); err != nil {
		return fmt.Errorf("failed to delete lateness marker: %w", err)
	}
	return nil
}
