package testfixtures

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/lateness"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/offlinesync"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/org"
)

// Notifier records every notification it receives. When Err is set, Notify
// records nothing and fails.
type Notifier struct {
	mu   sync.Mutex
	sent []notification.CreateNotificationRequest
	Err  error
}

func (n *Notifier) Notify(ctx context.Context, req notification.CreateNotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.sent = append(n.sent, req)
	return nil
}

// NotifyNow behaves like Notify; delivery is already synchronous here.
func (n *Notifier) NotifyNow(ctx context.Context, req notification.CreateNotificationRequest) error {
	return n.Notify(ctx, req)
}

func (n *Notifier) Sent() []notification.CreateNotificationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.CreateNotificationRequest(nil), n.sent...)
}

// SentOfType filters Sent by notification type.
func (n *Notifier) SentOfType(t notification.NotificationType) []notification.CreateNotificationRequest {
	var out []notification.CreateNotificationRequest
	for _, s := range n.Sent() {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// Directory is a static org.Directory.
type Directory struct {
	Employees   map[string]bool
	Positions   map[string]string // position ID -> holder, "" when vacant
	Departments map[string][]string
	Err         error
}

func NewDirectory() *Directory {
	return &Directory{
		Employees:   make(map[string]bool),
		Positions:   make(map[string]string),
		Departments: make(map[string][]string),
	}
}

func (d *Directory) EmployeeExists(ctx context.Context, employeeID string) (bool, error) {
	if d.Err != nil {
		return false, d.Err
	}
	return d.Employees[employeeID], nil
}

func (d *Directory) PositionHolder(ctx context.Context, positionID string) (string, error) {
	if d.Err != nil {
		return "", d.Err
	}
	holder, ok := d.Positions[positionID]
	if !ok {
		return "", org.ErrPositionNotFound
	}
	if holder == "" {
		return "", org.ErrPositionVacant
	}
	return holder, nil
}

func (d *Directory) EmployeesInDepartment(ctx context.Context, departmentID string) ([]string, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Departments[departmentID], nil
}

func (d *Directory) EmployeesInPosition(ctx context.Context, positionID string) ([]string, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	if holder := d.Positions[positionID]; holder != "" {
		return []string{holder}, nil
	}
	return nil, nil
}

// MarkerRepository is an in-memory lateness.MarkerRepository.
type MarkerRepository struct {
	mu      sync.Mutex
	markers map[string]lateness.EscalationMarker
}

func NewMarkerRepository() *MarkerRepository {
	return &MarkerRepository{markers: make(map[string]lateness.EscalationMarker)}
}

func (m *MarkerRepository) ListAll(ctx context.Context) ([]lateness.EscalationMarker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]lateness.EscalationMarker, 0, len(m.markers))
	for _, mk := range m.markers {
		out = append(out, mk)
	}
	return out, nil
}

func (m *MarkerRepository) Upsert(ctx context.Context, mk lateness.EscalationMarker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers[mk.EmployeeID] = mk
	return nil
}

func (m *MarkerRepository) Delete(ctx context.Context, employeeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.markers, employeeID)
	return nil
}

// Get returns the marker of employeeID and whether it exists.
func (m *MarkerRepository) Get(employeeID string) (lateness.EscalationMarker, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk, ok := m.markers[employeeID]
	return mk, ok
}

var ErrStoreUnavailable = errors.New("store unavailable")

// OfflineStore is an in-memory offlinesync.Store.
type OfflineStore struct {
	mu    sync.Mutex
	items map[string]offlinesync.QueueItem
	Fail  bool
}

func NewOfflineStore() *OfflineStore {
	return &OfflineStore{items: make(map[string]offlinesync.QueueItem)}
}

func (s *OfflineStore) Save(ctx context.Context, item offlinesync.QueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return ErrStoreUnavailable
	}
	s.items[item.ID] = item
	return nil
}

func (s *OfflineStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return ErrStoreUnavailable
	}
	delete(s.items, id)
	return nil
}

func (s *OfflineStore) DeleteDevice(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return ErrStoreUnavailable
	}
	for id, it := range s.items {
		if it.DeviceID == deviceID {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *OfflineStore) LoadAll(ctx context.Context) ([]offlinesync.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrStoreUnavailable
	}
	out := make([]offlinesync.QueueItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EnqueuedAt.Equal(out[j].EnqueuedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].EnqueuedAt.Before(out[j].EnqueuedAt)
	})
	return out, nil
}

// Len returns the number of stored items.
func (s *OfflineStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
