package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/google/uuid"
)

// AttendanceRepository is an in-memory attendance.AttendanceRepository.
type AttendanceRepository struct {
	mu      sync.Mutex
	now     func() time.Time
	records map[string]attendance.AttendanceRecord
	byDay   map[string]string

	// UpdateHook, when set, runs before every Update and may return an error
	// to simulate a conflicting writer.
	UpdateHook func(record attendance.AttendanceRecord) error
}

func NewAttendanceRepository(clock *Clock) *AttendanceRepository {
	return &AttendanceRepository{
		now:     clock.NowFunc(),
		records: make(map[string]attendance.AttendanceRecord),
		byDay:   make(map[string]string),
	}
}

func dayKey(employeeID string, day time.Time) string {
	return employeeID + "|" + day.Format("2006-01-02")
}

func cloneRecord(r attendance.AttendanceRecord) attendance.AttendanceRecord {
	r.Punches = append([]attendance.Punch(nil), r.Punches...)
	r.ExceptionIDs = append([]string(nil), r.ExceptionIDs...)
	return r
}

// Put stores r as-is, assigning an ID when empty.
func (m *AttendanceRepository) Put(r attendance.AttendanceRecord) attendance.AttendanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now()
		r.UpdatedAt = r.CreatedAt
	}
	m.records[r.ID] = cloneRecord(r)
	m.byDay[dayKey(r.EmployeeID, r.WorkDate)] = r.ID
	return cloneRecord(r)
}

func (m *AttendanceRepository) GetOrCreate(ctx context.Context, employeeID string, workDate time.Time) (attendance.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byDay[dayKey(employeeID, workDate)]; ok {
		return cloneRecord(m.records[id]), nil
	}
	now := m.now()
	r := attendance.AttendanceRecord{
		ID:                  uuid.NewString(),
		EmployeeID:          employeeID,
		WorkDate:            workDate,
		FinalisedForPayroll: true,
		HasMissedPunch:      true,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	m.records[r.ID] = r
	m.byDay[dayKey(employeeID, workDate)] = r.ID
	return cloneRecord(r), nil
}

func (m *AttendanceRepository) GetByID(ctx context.Context, id string) (attendance.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
	}
	return cloneRecord(r), nil
}

func (m *AttendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, workDate time.Time) (*attendance.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byDay[dayKey(employeeID, workDate)]
	if !ok {
		return nil, nil
	}
	r := cloneRecord(m.records[id])
	return &r, nil
}

func (m *AttendanceRepository) Update(ctx context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	if m.UpdateHook != nil {
		if err := m.UpdateHook(record); err != nil {
			return attendance.AttendanceRecord{}, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.records[record.ID]
	if !ok {
		return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
	}
	if stored.Version != record.Version {
		return attendance.AttendanceRecord{}, attendance.ErrVersionConflict
	}
	stored.Punches = record.Punches
	stored.ShiftAssignmentID = record.ShiftAssignmentID
	stored.WorkedMinutes = record.WorkedMinutes
	stored.OvertimeMinutes = record.OvertimeMinutes
	stored.LatenessMinutes = record.LatenessMinutes
	stored.HasMissedPunch = record.HasMissedPunch
	stored.Version++
	stored.UpdatedAt = m.now()
	stored = cloneRecord(stored)
	m.records[record.ID] = stored
	return cloneRecord(stored), nil
}

func (m *AttendanceRepository) SetFinalised(ctx context.Context, id string, finalised bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	r.FinalisedForPayroll = finalised
	r.Version++
	r.UpdatedAt = m.now()
	m.records[id] = r
	return nil
}

func (m *AttendanceRepository) AttachException(ctx context.Context, id string, exceptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	if !r.HasException(exceptionID) {
		r.ExceptionIDs = append(append([]string(nil), r.ExceptionIDs...), exceptionID)
	}
	r.FinalisedForPayroll = false
	r.Version++
	r.UpdatedAt = m.now()
	m.records[id] = r
	return nil
}

func (m *AttendanceRepository) ListFinalisedCreatedBetween(ctx context.Context, start, end time.Time) ([]attendance.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.AttendanceRecord
	for _, r := range m.records {
		if r.FinalisedForPayroll && !r.CreatedAt.Before(start) && r.CreatedAt.Before(end) {
			out = append(out, cloneRecord(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
