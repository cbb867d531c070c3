package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/org"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type orgDirectory struct {
	db *database.DB
}

// NewOrgDirectory reads employees, positions and departments from the engine database
func NewOrgDirectory(db *database.DB) org.Directory {
	return &orgDirectory{db: db}
}

// EmployeeExists implements org.Directory.
func (d *orgDirectory) EmployeeExists(ctx context.Context, employeeID string) (bool, error) {
	q := GetQuerier(ctx, d.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM employees WHERE id::text = $1 AND is_active)`, employeeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check employee: %w", err)
	}
	return exists, nil
}

// PositionHolder implements org.Directory. With several active holders the
// longest-serving one wins.
func (d *orgDirectory) PositionHolder(ctx context.Context, positionID string) (string, error) {
	q := GetQuerier(ctx, d.db)

	query := `
		SELECT e.id
		FROM positions p
		LEFT JOIN employees e ON e.position_id = p.id AND e.is_active
		WHERE p.id::text = $1
		ORDER BY e.created_at NULLS LAST, e.id
		LIMIT 1
	`
	var holder *string
	if err := q.QueryRow(ctx, query, positionID).Scan(&holder); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", org.ErrPositionNotFound
		}
		return "", fmt.Errorf("failed to get position holder: %w", err)
	}
	if holder == nil {
		return "", org.ErrPositionVacant
	}
	return *holder, nil
}

// EmployeesInDepartment implements org.Directory.
func (d *orgDirectory) EmployeesInDepartment(ctx context.Context, departmentID string) ([]string, error) {
	return d.employeeIDs(ctx, `SELECT id FROM employees WHERE department_id::text = $1 AND is_active ORDER BY id`, departmentID)
}

// EmployeesInPosition implements org.Directory.
func (d *orgDirectory) EmployeesInPosition(ctx context.Context, positionID string) ([]string, error) {
	return d.employeeIDs(ctx, `SELECT id FROM employees WHERE position_id::text = $1 AND is_active ORDER BY id`, positionID)
}

func (d *orgDirectory) employeeIDs(ctx context.Context, query string, arg string) ([]string, error) {
	q := GetQuerier(ctx, d.db)

	rows, err := q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
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
