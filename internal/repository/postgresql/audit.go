package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/google/uuid"
)

type auditRepository struct {
	db *database.DB
}

// NewAuditRepository returns an append-only audit ledger
func NewAuditRepository(db *database.DB) audit.Repository {
	return &auditRepository{db: db}
}

// Append implements audit.Repository.
func (r *auditRepository) Append(ctx context.Context, entry audit.Entry) error {
	q := GetQuerier(ctx, r.db)

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO audit_entries (id, entity_type, entity_id, action, actor, at, notes, from_status, to_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.Exec(ctx, query,
		entry.ID,
		string(entry.EntityType),
		entry.EntityID,
		entry.Action,
		entry.By,
		entry.At,
		entry.Notes,
		entry.FromStatus,
		entry.ToStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListByEntity implements audit.Repository.
func (r *auditRepository) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID string) ([]audit.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, entity_type, entity_id, action, actor, at, notes, from_status, to_status
		FROM audit_entries
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY at, id
	`
	rows, err := q.Query(ctx, query, string(entityType), entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.By, &e.At, &e.Notes, &e.FromStatus, &e.ToStatus); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
