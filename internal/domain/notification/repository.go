package notification

import (
	"context"
)

// Repository defines the notification repository interface
type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	CreateBatch(ctx context.Context, notifications []*Notification) error

	// ListRecent returns the newest notifications first
	ListRecent(ctx context.Context, limit int) ([]*Notification, error)
}
