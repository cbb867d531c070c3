package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/shift"
	"github.com/google/uuid"
)

// ShiftTypeRepository is an in-memory shift.ShiftTypeRepository.
type ShiftTypeRepository struct {
	mu    sync.Mutex
	now   func() time.Time
	types map[string]shift.ShiftType
}

func NewShiftTypeRepository(clock *Clock) *ShiftTypeRepository {
	return &ShiftTypeRepository{now: clock.NowFunc(), types: make(map[string]shift.ShiftType)}
}

func (m *ShiftTypeRepository) Create(ctx context.Context, st shift.ShiftType) (shift.ShiftType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	st.CreatedAt = m.now()
	st.UpdatedAt = st.CreatedAt
	m.types[st.ID] = st
	return st, nil
}

func (m *ShiftTypeRepository) GetByID(ctx context.Context, id string) (shift.ShiftType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.types[id]
	if !ok {
		return shift.ShiftType{}, shift.ErrShiftTypeNotFound
	}
	return st, nil
}

func (m *ShiftTypeRepository) List(ctx context.Context) ([]shift.ShiftType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]shift.ShiftType, 0, len(m.types))
	for _, st := range m.types {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AssignmentRepository is an in-memory shift.AssignmentRepository. It reads
// shift types from Types when joining.
type AssignmentRepository struct {
	mu          sync.Mutex
	now         func() time.Time
	Types       *ShiftTypeRepository
	assignments map[string]shift.ShiftAssignment
}

func NewAssignmentRepository(clock *Clock, types *ShiftTypeRepository) *AssignmentRepository {
	return &AssignmentRepository{
		now:         clock.NowFunc(),
		Types:       types,
		assignments: make(map[string]shift.ShiftAssignment),
	}
}

func (m *AssignmentRepository) Create(ctx context.Context, a shift.ShiftAssignment) (shift.ShiftAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = m.now()
	a.UpdatedAt = a.CreatedAt
	a.ShiftType = nil
	m.assignments[a.ID] = a
	return a, nil
}

func (m *AssignmentRepository) GetByID(ctx context.Context, id string) (shift.ShiftAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return shift.ShiftAssignment{}, shift.ErrAssignmentNotFound
	}
	return a, nil
}

func (m *AssignmentRepository) UpdateStatus(ctx context.Context, id string, from, to shift.AssignmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return shift.ErrAssignmentNotFound
	}
	if a.Status != from {
		return shift.ErrInvalidTransition
	}
	a.Status = to
	a.UpdatedAt = m.now()
	m.assignments[id] = a
	return nil
}

func (m *AssignmentRepository) FindApprovedCovering(ctx context.Context, employeeID string, day time.Time) (*shift.ShiftAssignment, error) {
	m.mu.Lock()
	var found *shift.ShiftAssignment
	for _, a := range m.assignments {
		if a.EmployeeID == employeeID && a.Status == shift.AssignmentApproved && a.Covers(day) {
			a := a
			found = &a
			break
		}
	}
	m.mu.Unlock()
	if found == nil {
		return nil, nil
	}
	st, err := m.Types.GetByID(ctx, found.ShiftTypeID)
	if err != nil {
		return nil, err
	}
	found.ShiftType = &st
	return found, nil
}

func (m *AssignmentRepository) HasApprovedOverlap(ctx context.Context, employeeID string, start, end time.Time, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.ID == excludeID || a.EmployeeID != employeeID || a.Status != shift.AssignmentApproved {
			continue
		}
		if !a.StartDate.After(end) && !a.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (m *AssignmentRepository) ExpireEnded(ctx context.Context, day time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, a := range m.assignments {
		if a.Status == shift.AssignmentApproved && a.EndDate.Before(day) {
			a.Status = shift.AssignmentExpired
			a.UpdatedAt = m.now()
			m.assignments[id] = a
			n++
		}
	}
	return n, nil
}
