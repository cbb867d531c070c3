package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/offlinesync"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
)

type offlineQueueStore struct {
	db *database.DB
}

// NewOfflineQueueStore mirrors the in-memory device queues to PostgreSQL
func NewOfflineQueueStore(db *database.DB) offlinesync.Store {
	return &offlineQueueStore{db: db}
}

// Save implements offlinesync.Store.
func (s *offlineQueueStore) Save(ctx context.Context, item offlinesync.QueueItem) error {
	q := GetQuerier(ctx, s.db)

	query := `
		INSERT INTO offline_queue_items (
			id, device_id, employee_id, type, punch_time, device_timestamp,
			sync_attempts, last_error, enqueued_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET sync_attempts = EXCLUDED.sync_attempts,
			last_error = EXCLUDED.last_error
	`
	_, err := q.Exec(ctx, query,
		item.ID,
		item.DeviceID,
		item.EmployeeID,
		string(item.Type),
		item.Time,
		item.DeviceTimestamp,
		item.SyncAttempts,
		item.LastError,
		item.EnqueuedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save offline queue item: %w", err)
	}
	return nil
}

// Delete implements offlinesync.Store.
func (s *offlineQueueStore) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, s.db)

	if _, err := q.Exec(ctx, `DELETE FROM offline_queue_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete offline queue item: %w", err)
	}
	return nil
}

// DeleteDevice implements offlinesync.Store.
func (s *offlineQueueStore) DeleteDevice(ctx context.Context, deviceID string) error {
	q := GetQuerier(ctx, s.db)

	if _, err := q.Exec(ctx, `DELETE FROM offline_queue_items WHERE device_id = $1`, deviceID); err != nil {
		return fmt.Errorf("failed to clear offline queue: %w", err)
	}
	return nil
}

// LoadAll implements offlinesync.Store.
func (s *offlineQueueStore) LoadAll(ctx context.Context) ([]offlinesync.QueueItem, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT id, device_id, employee_id, type, punch_time, device_timestamp,
			   sync_attempts, last_error, enqueued_at
		FROM offline_queue_items
		ORDER BY enqueued_at, id
	`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load offline queue: %w", err)
	}
	defer rows.Close()

	var items []offlinesync.QueueItem
	for rows.Next() {
		var it offlinesync.QueueItem
		if err := rows.Scan(
			&it.ID, &it.DeviceID, &it.EmployeeID, &it.Type, &it.Time, &it.DeviceTimestamp,
			&it.SyncAttempts, &it.LastError, &it.EnqueuedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
