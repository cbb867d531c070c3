package offlinesync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/offlinesync"
)

// Config holds queue limits
type Config struct {
	Capacity    int // per device, default: 1000
	MaxAttempts int // default: 5
}

// Queue holds punches captured by offline kiosks, one FIFO per device.
// Store may be nil, in which case the queue lives in memory only.
type Queue struct {
	attendanceService attendance.AttendanceService
	store             offlinesync.Store
	notifier          notification.Notifier
	config            Config
	now               func() time.Time

	mu      sync.Mutex
	devices map[string][]offlinesync.QueueItem

	// processMu keeps scheduled and manual passes from overlapping
	processMu sync.Mutex
}

func NewQueue(
	attendanceService attendance.AttendanceService,
	store offlinesync.Store,
	notifier notification.Notifier,
	cfg Config,
) *Queue {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1000
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Queue{
		attendanceService: attendanceService,
		store:             store,
		notifier:          notifier,
		config:            cfg,
		now:               time.Now,
		devices:           make(map[string][]offlinesync.QueueItem),
	}
}

// Enqueue implements offlinesync.Service. A second submission of the same
// (employee, device timestamp, type) on one device returns the queued item.
func (q *Queue) Enqueue(ctx context.Context, req offlinesync.EnqueueRequest) (offlinesync.EnqueueResult, error) {
	if err := req.Validate(); err != nil {
		return offlinesync.EnqueueResult{}, err
	}

	q.mu.Lock()
	items := q.devices[req.DeviceID]
	for _, it := range items {
		if it.EmployeeID == req.EmployeeID && it.Type == req.Type && it.DeviceTimestamp.Equal(req.DeviceTimestamp) {
			q.mu.Unlock()
			return offlinesync.EnqueueResult{Item: it, Duplicate: true}, nil
		}
	}
	if len(items) >= q.config.Capacity {
		q.mu.Unlock()
		return offlinesync.EnqueueResult{}, offlinesync.ErrQueueFull
	}

	item := offlinesync.QueueItem{
		ID:              uuid.New().String(),
		DeviceID:        req.DeviceID,
		EmployeeID:      req.EmployeeID,
		Type:            req.Type,
		Time:            req.Time,
		DeviceTimestamp: req.DeviceTimestamp,
		EnqueuedAt:      q.now(),
	}
	q.devices[req.DeviceID] = append(items, item)
	q.mu.Unlock()

	q.persist(ctx, item)

	slog.Debug("Offline punch queued", "device_id", item.DeviceID, "employee_id", item.EmployeeID, "item_id", item.ID)
	return offlinesync.EnqueueResult{Item: item}, nil
}

// Process implements offlinesync.Service.
func (q *Queue) Process(ctx context.Context) (offlinesync.ProcessResult, error) {
	q.processMu.Lock()
	defer q.processMu.Unlock()

	var result offlinesync.ProcessResult
	for _, deviceID := range q.deviceIDs() {
		for _, item := range q.snapshot(deviceID) {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			q.syncItem(ctx, item, &result)
		}
	}

	if result != (offlinesync.ProcessResult{}) {
		slog.Info("Offline sync pass completed",
			"synced", result.Synced,
			"duplicates", result.Duplicates,
			"retrying", result.Retrying,
			"rejected", result.Rejected,
			"dropped", result.Dropped,
		)
	}
	return result, nil
}

func (q *Queue) syncItem(ctx context.Context, item offlinesync.QueueItem, result *offlinesync.ProcessResult) {
	punchTime := item.Time
	terminalID := item.DeviceID
	_, duplicate, err := q.attendanceService.SyncOfflinePunch(ctx, attendance.RecordPunchRequest{
		EmployeeID: item.EmployeeID,
		Type:       item.Type,
		Time:       &punchTime,
		Source:     attendance.SourceOffline,
		TerminalID: &terminalID,
	})

	switch {
	case err == nil:
		q.remove(ctx, item)
		if duplicate {
			result.Duplicates++
		} else {
			result.Synced++
		}

	case attendance.IsRejection(err):
		q.remove(ctx, item)
		result.Rejected++
		slog.Warn("Offline punch rejected",
			"device_id", item.DeviceID, "employee_id", item.EmployeeID, "item_id", item.ID, "error", err)

	default:
		item.SyncAttempts++
		item.LastError = err.Error()
		if item.SyncAttempts >= q.config.MaxAttempts {
			q.remove(ctx, item)
			result.Dropped++
			slog.Error("Offline punch dropped after max attempts",
				"device_id", item.DeviceID,
				"employee_id", item.EmployeeID,
				"item_id", item.ID,
				"attempts", item.SyncAttempts,
				"error", err,
			)
			q.notifyDropped(ctx, item)
			return
		}
		if q.replace(item) {
			q.persist(ctx, item)
		}
		result.Retrying++
	}
}

func (q *Queue) notifyDropped(ctx context.Context, item offlinesync.QueueItem) {
	if q.notifier == nil {
		return
	}
	err := q.notifier.Notify(ctx, notification.CreateNotificationRequest{
		Type:    notification.TypeOfflinePunchDropped,
		Title:   "Offline punch not recorded",
		Message: fmt.Sprintf("Your %s punch at %s could not be synced", item.Type, item.Time.Format(time.RFC3339)),
		Target:  notification.Target{EmployeeIDs: []string{item.EmployeeID}},
		Data: map[string]interface{}{
			"device_id": item.DeviceID,
			"item_id":   item.ID,
			"attempts":  item.SyncAttempts,
		},
	})
	if err != nil {
		slog.Warn("Failed to notify dropped offline punch", "item_id", item.ID, "error", err)
	}
}

// Status implements offlinesync.Service.
func (q *Queue) Status(ctx context.Context) []offlinesync.DeviceStatus {
	ids := q.deviceIDs()
	statuses := make([]offlinesync.DeviceStatus, 0, len(ids))
	for _, id := range ids {
		statuses = append(statuses, q.DeviceStatus(ctx, id))
	}
	return statuses
}

// DeviceStatus implements offlinesync.Service. Unknown devices report an
// empty queue.
func (q *Queue) DeviceStatus(ctx context.Context, deviceID string) offlinesync.DeviceStatus {
	items := q.snapshot(deviceID)
	if items == nil {
		items = []offlinesync.QueueItem{}
	}
	return offlinesync.DeviceStatus{DeviceID: deviceID, Pending: len(items), Items: items}
}

// Clear implements offlinesync.Service.
func (q *Queue) Clear(ctx context.Context, deviceID string) (int, error) {
	q.mu.Lock()
	n := len(q.devices[deviceID])
	delete(q.devices, deviceID)
	q.mu.Unlock()

	if q.store != nil {
		if err := q.store.DeleteDevice(ctx, deviceID); err != nil {
			return n, fmt.Errorf("failed to clear persisted queue: %w", err)
		}
	}

	slog.Info("Offline queue cleared", "device_id", deviceID, "removed", n)
	return n, nil
}

// Restore implements offlinesync.Service. Items already in memory are kept.
func (q *Queue) Restore(ctx context.Context) (int, error) {
	if q.store == nil {
		return 0, nil
	}
	items, err := q.store.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load persisted queue: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	known := make(map[string]bool)
	for _, list := range q.devices {
		for _, it := range list {
			known[it.ID] = true
		}
	}

	restored := 0
	for _, it := range items {
		if known[it.ID] {
			continue
		}
		q.devices[it.DeviceID] = append(q.devices[it.DeviceID], it)
		restored++
	}
	for id, list := range q.devices {
		sort.SliceStable(list, func(i, j int) bool { return list[i].EnqueuedAt.Before(list[j].EnqueuedAt) })
		q.devices[id] = list
	}

	if restored > 0 {
		slog.Info("Offline queue restored", "items", restored)
	}
	return restored, nil
}

func (q *Queue) deviceIDs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := make([]string, 0, len(q.devices))
	for id := range q.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (q *Queue) snapshot(deviceID string) []offlinesync.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.devices[deviceID]
	if len(items) == 0 {
		return nil
	}
	return append([]offlinesync.QueueItem(nil), items...)
}

// replace swaps in the updated item. It reports false when the item was
// cleared while being synced.
func (q *Queue) replace(item offlinesync.QueueItem) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.devices[item.DeviceID]
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			return true
		}
	}
	return false
}

func (q *Queue) remove(ctx context.Context, item offlinesync.QueueItem) {
	q.mu.Lock()
	items := q.devices[item.DeviceID]
	for i := range items {
		if items[i].ID == item.ID {
			items = append(items[:i:i], items[i+1:]...)
			break
		}
	}
	if len(items) == 0 {
		delete(q.devices, item.DeviceID)
	} else {
		q.devices[item.DeviceID] = items
	}
	q.mu.Unlock()

	if q.store != nil {
		if err := q.store.Delete(ctx, item.ID); err != nil {
			slog.Error("Failed to delete persisted offline punch", "item_id", item.ID, "error", err)
		}
	}
}

func (q *Queue) persist(ctx context.Context, item offlinesync.QueueItem) {
	if q.store == nil {
		return
	}
	if err := q.store.Save(ctx, item); err != nil {
		slog.Error("Failed to persist offline punch", "item_id", item.ID, "error", err)
	}
}

var _ offlinesync.Service = (*Queue)(nil)
