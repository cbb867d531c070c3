package notification

import (
	"context"
)

// Notifier delivers workflow notifications. Callers treat delivery as best
// effort and never fail their own operation on a Notify error.
type Notifier interface {
	Notify(ctx context.Context, req CreateNotificationRequest) error
}

// DurableNotifier persists the notification before returning, so a nil error
// means it was stored.
type DurableNotifier interface {
	NotifyNow(ctx context.Context, req CreateNotificationRequest) error
}

// Service defines the notification service interface
type Service interface {
	Notifier
	DurableNotifier

	ListRecent(ctx context.Context, limit int) ([]NotificationResponse, error)

	// Lifecycle
	Stop()
}
