package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/correction"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/exception"
	"github.com/google/uuid"
)

// CorrectionRepository is an in-memory correction.Repository.
type CorrectionRepository struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]correction.CorrectionRequest
}

func NewCorrectionRepository(clock *Clock) *CorrectionRepository {
	return &CorrectionRepository{now: clock.NowFunc(), items: make(map[string]correction.CorrectionRequest)}
}

func (m *CorrectionRepository) Create(ctx context.Context, req correction.CorrectionRequest) (correction.CorrectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.CreatedAt = m.now()
	req.UpdatedAt = req.CreatedAt
	m.items[req.ID] = req
	return req, nil
}

func (m *CorrectionRepository) GetByID(ctx context.Context, id string) (correction.CorrectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return correction.CorrectionRequest{}, correction.ErrCorrectionNotFound
	}
	return c, nil
}

func (m *CorrectionRepository) Transition(ctx context.Context, id string, from, to correction.Status, decidedBy *string, notes *string, at time.Time) (correction.CorrectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return correction.CorrectionRequest{}, correction.ErrCorrectionNotFound
	}
	if c.Status != from {
		return correction.CorrectionRequest{}, correction.ErrInvalidTransition
	}
	c.Status = to
	if decidedBy != nil {
		c.DecidedBy = decidedBy
		c.DecidedAt = &at
	}
	if notes != nil {
		c.DecisionNotes = notes
	}
	c.UpdatedAt = at
	m.items[id] = c
	return c, nil
}

func (m *CorrectionRepository) EscalateSubmitted(ctx context.Context, at time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, c := range m.items {
		if c.Status == correction.StatusSubmitted {
			c.Status = correction.StatusEscalated
			c.UpdatedAt = at
			m.items[id] = c
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ExceptionRepository is an in-memory exception.Repository.
type ExceptionRepository struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]exception.TimeException
}

func NewExceptionRepository(clock *Clock) *ExceptionRepository {
	return &ExceptionRepository{now: clock.NowFunc(), items: make(map[string]exception.TimeException)}
}

func (m *ExceptionRepository) Create(ctx context.Context, e exception.TimeException) (exception.TimeException, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = m.now()
	}
	e.UpdatedAt = e.CreatedAt
	m.items[e.ID] = e
	return e, nil
}

func (m *ExceptionRepository) GetByID(ctx context.Context, id string) (exception.TimeException, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return exception.TimeException{}, exception.ErrExceptionNotFound
	}
	return e, nil
}

func (m *ExceptionRepository) Transition(ctx context.Context, id string, from, to exception.Status, processedBy string, at time.Time) (exception.TimeException, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return exception.TimeException{}, exception.ErrExceptionNotFound
	}
	if e.Status != from {
		return exception.TimeException{}, exception.ErrInvalidTransition
	}
	e.Status = to
	e.ProcessedBy = &processedBy
	e.ProcessedAt = &at
	e.UpdatedAt = at
	m.items[id] = e
	return e, nil
}

func (m *ExceptionRepository) SetAttendance(ctx context.Context, id string, attendanceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return exception.ErrExceptionNotFound
	}
	e.AttendanceID = &attendanceID
	m.items[id] = e
	return nil
}

func (m *ExceptionRepository) EscalatePending(ctx context.Context, at time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, e := range m.items {
		if e.Status == exception.StatusPending {
			e.Status = exception.StatusEscalated
			e.UpdatedAt = at
			m.items[id] = e
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *ExceptionRepository) ListByTypeCreatedBetween(ctx context.Context, t exception.Type, start, end time.Time) ([]exception.TimeException, error) {
	return m.filter(func(e exception.TimeException) bool {
		return e.Type == t && !e.CreatedAt.Before(start) && e.CreatedAt.Before(end)
	}), nil
}

func (m *ExceptionRepository) ListApprovedCreatedBetween(ctx context.Context, start, end time.Time) ([]exception.TimeException, error) {
	return m.filter(func(e exception.TimeException) bool {
		return e.Status == exception.StatusApproved && !e.CreatedAt.Before(start) && e.CreatedAt.Before(end)
	}), nil
}

func (m *ExceptionRepository) filter(keep func(exception.TimeException) bool) []exception.TimeException {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []exception.TimeException
	for _, e := range m.items {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// AuditRepository is an append-only in-memory audit.Repository.
type AuditRepository struct {
	mu      sync.Mutex
	entries []audit.Entry
	Err     error
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (m *AuditRepository) Append(ctx context.Context, entry audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *AuditRepository) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID string) ([]audit.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.Entry
	for _, e := range m.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every entry in append order.
func (m *AuditRepository) All() []audit.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.Entry(nil), m.entries...)
}
