package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/google/uuid"
)

type notificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func encodeNotification(n *notification.Notification) (targetJSON, dataJSON []byte, err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	targetJSON, err = json.Marshal(n.Target)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal notification target: %w", err)
	}
	if n.Data != nil {
		dataJSON, err = json.Marshal(n.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal notification data: %w", err)
		}
	}
	return targetJSON, dataJSON, nil
}

// Create creates a new notification
func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	q := GetQuerier(ctx, r.db)

	targetJSON, dataJSON, err := encodeNotification(n)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO notifications (id, type, title, message, target, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = q.Exec(ctx, query, n.ID, string(n.Type), n.Title, n.Message, targetJSON, dataJSON, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// CreateBatch creates multiple notifications in a single statement
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	valueStrings := make([]string, 0, len(notifications))
	valueArgs := make([]interface{}, 0, len(notifications)*7)

	for i, n := range notifications {
		targetJSON, dataJSON, err := encodeNotification(n)
		if err != nil {
			return err
		}

		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		valueArgs = append(valueArgs,
			n.ID,
			string(n.Type),
			n.Title,
			n.Message,
			targetJSON,
			dataJSON,
			n.CreatedAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO notifications (id, type, title, message, target, data, created_at)
		VALUES %s
	`, strings.Join(valueStrings, ", "))

	_, err := q.Exec(ctx, query, valueArgs...)
	if err != nil {
		return fmt.Errorf("failed to batch create notifications: %w", err)
	}

	return nil
}

// ListRecent returns the newest notifications first
func (r *notificationRepository) ListRecent(ctx context.Context, limit int) ([]*notification.Notification, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, type, title, message, target, data, created_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		var n notification.Notification
		var targetJSON, dataJSON []byte
		var notifType string

		if err := rows.Scan(&n.ID, &notifType, &n.Title, &n.Message, &targetJSON, &dataJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		n.Type = notification.NotificationType(notifType)
		if err := json.Unmarshal(targetJSON, &n.Target); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification target: %w", err)
		}
		if dataJSON != nil {
			if err := json.Unmarshal(dataJSON, &n.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
			}
		}

		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}
