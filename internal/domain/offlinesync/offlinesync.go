package offlinesync

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

var (
	ErrQueueFull = errors.New("device queue is full")
)

// QueueItem is a punch captured by a kiosk while it was offline.
type QueueItem struct {
	ID              string               `json:"id"`
	DeviceID        string               `json:"device_id"`
	EmployeeID      string               `json:"employee_id"`
	Type            attendance.Direction `json:"type"`
	Time            time.Time            `json:"time"`
	DeviceTimestamp time.Time            `json:"device_timestamp"`
	SyncAttempts    int                  `json:"sync_attempts"`
	LastError       string               `json:"last_error,omitempty"`
	EnqueuedAt      time.Time            `json:"enqueued_at"`
}

type EnqueueRequest struct {
	DeviceID        string               `json:"-"`
	EmployeeID      string               `json:"employee_id"`
	Type            attendance.Direction `json:"type"`
	Time            time.Time            `json:"time"`
	DeviceTimestamp time.Time            `json:"device_timestamp"`
}

func (r *EnqueueRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.DeviceID) {
		errs.Add("device_id", "device_id is required")
	}
	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if !validator.IsInSlice(string(r.Type), attendance.DirectionValues) {
		errs.Add("type", "type must be one of: "+strings.Join(attendance.DirectionValues, ", "))
	}
	if r.Time.IsZero() {
		errs.Add("time", "time is required")
	}
	if r.DeviceTimestamp.IsZero() {
		errs.Add("device_timestamp", "device_timestamp is required")
	}

	return errs.Err()
}

type EnqueueResult struct {
	Item      QueueItem `json:"item"`
	Duplicate bool      `json:"duplicate"`
}

type DeviceStatus struct {
	DeviceID string      `json:"device_id"`
	Pending  int         `json:"pending"`
	Items    []QueueItem `json:"items"`
}

// ProcessResult summarises one pass over all device queues.
type ProcessResult struct {
	Synced     int `json:"synced"`
	Duplicates int `json:"duplicates"`
	Retrying   int `json:"retrying"`
	Rejected   int `json:"rejected"`
	Dropped    int `json:"dropped"`
}

// Store mirrors queue contents so they survive a restart.
type Store interface {
	Save(ctx context.Context, item QueueItem) error
	Delete(ctx context.Context, id string) error
	DeleteDevice(ctx context.Context, deviceID string) error
	LoadAll(ctx context.Context) ([]QueueItem, error)
}

type Service interface {
	Enqueue(ctx context.Context, req EnqueueRequest) (EnqueueResult, error)

	// Process attempts to sync every queued item once. Items are removed on
	// success, on rejection and once they reach the attempt cap.
	Process(ctx context.Context) (ProcessResult, error)

	Status(ctx context.Context) []DeviceStatus
	DeviceStatus(ctx context.Context, deviceID string) DeviceStatus

	// Clear drops every queued item of the device and returns how many were removed
	Clear(ctx context.Context, deviceID string) (int, error)

	// Restore reloads persisted items after a restart
	Restore(ctx context.Context) (int, error)
}
