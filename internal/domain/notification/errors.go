package notification

import "errors"

// Notification domain errors
var (
	ErrNoTarget  = errors.New("notification has no target")
	ErrQueueFull = errors.New("notification queue is full")
)
