package lateness

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/exception"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/lateness"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	notificationsvc "github.com/cmlabs-hris/hris-attendance-engine/internal/service/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/testfixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	clock      *testfixtures.Clock
	exceptions *testfixtures.ExceptionRepository
	markers    *testfixtures.MarkerRepository
	directory  *testfixtures.Directory
	notifier   *testfixtures.Notifier
	svc        *service
}

func newFixture() *fixture {
	clock := testfixtures.NewClock(time.Time{})
	f := &fixture{
		clock:      clock,
		exceptions: testfixtures.NewExceptionRepository(clock),
		markers:    testfixtures.NewMarkerRepository(),
		directory:  testfixtures.NewDirectory(),
		notifier:   &testfixtures.Notifier{},
	}
	f.svc = NewLatenessService(f.exceptions, f.markers, f.directory, f.notifier).(*service)
	f.svc.now = clock.Now
	return f
}

// late records n lateness exceptions for employeeID, daysAgo days before now.
func (f *fixture) late(t *testing.T, employeeID string, n int, daysAgo int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := f.exceptions.Create(context.Background(), exception.TimeException{
			EmployeeID: employeeID,
			Type:       exception.TypeLateness,
			Status:     exception.StatusPending,
			CreatedAt:  f.clock.Now().AddDate(0, 0, -daysAgo).Add(-time.Duration(i+1) * time.Minute),
		})
		require.NoError(t, err)
	}
}

var hrTargets = notification.Target{Role: "hr"}

func detect(t *testing.T, f *fixture) lateness.DetectResult {
	t.Helper()
	result, err := f.svc.Detect(context.Background(), lateness.DetectRequest{Threshold: 3, WindowDays: 30, Targets: hrTargets})
	require.NoError(t, err)
	return result
}

func TestDetect_NotifiesOncePerEmployee(t *testing.T) {
	f := newFixture()
	f.late(t, "emp-1", 4, 2)
	f.late(t, "emp-2", 2, 2)
	f.late(t, "emp-3", 5, 45) // outside the window

	result := detect(t, f)

	sent := f.notifier.SentOfType(notification.TypeRepeatedLateness)
	require.Len(t, sent, 1)
	assert.Equal(t, "emp-1", sent[0].Data["employee_id"])
	assert.Equal(t, 4, sent[0].Data["count"])
	assert.Equal(t, hrTargets, sent[0].Target)
	assert.Equal(t, []lateness.EmployeeLateness{{EmployeeID: "emp-1", Count: 4}}, result.Notified)

	marker, ok := f.markers.Get("emp-1")
	require.True(t, ok)
	assert.Equal(t, 4, marker.LastEscalatedCount)
}

func TestDetect_OnlyNewIncrementsRenotify(t *testing.T) {
	f := newFixture()
	f.late(t, "emp-1", 4, 2)

	detect(t, f)
	second := detect(t, f)
	assert.Empty(t, second.Notified)
	assert.Len(t, second.AtOrAbove, 1)
	assert.Len(t, f.notifier.Sent(), 1)

	f.late(t, "emp-1", 1, 1)
	third := detect(t, f)
	require.Len(t, third.Notified, 1)
	assert.Equal(t, 5, third.Notified[0].Count)
}

func TestDetect_ClearsMarkerBelowThreshold(t *testing.T) {
	f := newFixture()
	f.late(t, "emp-1", 3, 20)
	detect(t, f)

	// The occurrences age out of the window.
	f.clock.Advance(15 * 24 * time.Hour)
	detect(t, f)
	_, ok := f.markers.Get("emp-1")
	assert.False(t, ok)

	f.late(t, "emp-1", 3, 0)
	result := detect(t, f)
	assert.Len(t, result.Notified, 1)
}

func TestDetect_NotifierFailureRetriesNextRun(t *testing.T) {
	f := newFixture()
	f.late(t, "emp-1", 3, 1)
	f.notifier.Err = errors.New("down")

	result := detect(t, f)
	assert.Empty(t, result.Notified)
	_, ok := f.markers.Get("emp-1")
	assert.False(t, ok)

	f.notifier.Err = nil
	result = detect(t, f)
	assert.Len(t, result.Notified, 1)
}

// flakyStore fails every write while down is set.
type flakyStore struct {
	mu     sync.Mutex
	down   bool
	stored []*notification.Notification
}

func (s *flakyStore) Create(ctx context.Context, n *notification.Notification) error {
	return s.CreateBatch(ctx, []*notification.Notification{n})
}

func (s *flakyStore) CreateBatch(ctx context.Context, ns []*notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errors.New("insert failed")
	}
	s.stored = append(s.stored, ns...)
	return nil
}

func (s *flakyStore) ListRecent(ctx context.Context, limit int) ([]*notification.Notification, error) {
	return nil, nil
}

func (s *flakyStore) setDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *flakyStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stored)
}

func TestDetect_StoreFailureRetriesWithNotificationService(t *testing.T) {
	f := newFixture()
	store := &flakyStore{down: true}
	notifications := notificationsvc.NewNotificationService(store, notificationsvc.Config{WorkerCount: 1, FlushInterval: time.Hour})
	defer notifications.Stop()
	f.svc.notifier = notifications
	f.late(t, "emp-1", 4, 1)

	result := detect(t, f)
	assert.Empty(t, result.Notified)
	_, ok := f.markers.Get("emp-1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.count())

	store.setDown(false)
	result = detect(t, f)
	assert.Equal(t, []lateness.EmployeeLateness{{EmployeeID: "emp-1", Count: 4}}, result.Notified)
	assert.Equal(t, 1, store.count())
	marker, ok := f.markers.Get("emp-1")
	require.True(t, ok)
	assert.Equal(t, 4, marker.LastEscalatedCount)
}

func TestDetect_Validation(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Detect(context.Background(), lateness.DetectRequest{})
	assert.ErrorContains(t, err, "threshold must be at least 1")
	assert.ErrorContains(t, err, "notification target")
}

func TestDepartmentReport(t *testing.T) {
	f := newFixture()
	f.directory.Departments["dept-ops"] = []string{"emp-1", "emp-2"}
	f.late(t, "emp-1", 3, 1)
	f.late(t, "emp-2", 5, 1)
	f.late(t, "emp-9", 7, 1)

	report, err := f.svc.DepartmentReport(context.Background(), "dept-ops", 3, 30)
	require.NoError(t, err)

	assert.Equal(t, []lateness.EmployeeLateness{
		{EmployeeID: "emp-2", Count: 5},
		{EmployeeID: "emp-1", Count: 3},
	}, report.Employees)
	assert.Empty(t, f.notifier.Sent())

	_, err = f.svc.DepartmentReport(context.Background(), "", 3, 30)
	assert.ErrorContains(t, err, "department_id is required")
}
