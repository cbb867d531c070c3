package correction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/correction"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/testfixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	records  *testfixtures.AttendanceRepository
	audit    *testfixtures.AuditRepository
	notifier *testfixtures.Notifier
	svc      correction.CorrectionService
	record   attendance.AttendanceRecord
}

func newFixture() *fixture {
	clock := testfixtures.NewClock(time.Time{})
	f := &fixture{
		records:  testfixtures.NewAttendanceRepository(clock),
		audit:    testfixtures.NewAuditRepository(),
		notifier: &testfixtures.Notifier{},
	}
	svc := NewCorrectionService(&testfixtures.Transactor{}, testfixtures.NewCorrectionRepository(clock), f.records, f.audit, f.notifier, "hr").(*CorrectionServiceImpl)
	svc.now = clock.Now
	f.svc = svc

	f.record = f.records.Put(attendance.AttendanceRecord{
		EmployeeID:          "emp-1",
		WorkDate:            time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		FinalisedForPayroll: true,
		Version:             1,
	})
	return f
}

func (f *fixture) finalised(t *testing.T) bool {
	t.Helper()
	r, err := f.records.GetByID(context.Background(), f.record.ID)
	require.NoError(t, err)
	return r.FinalisedForPayroll
}

func (f *fixture) submit(t *testing.T) correction.CorrectionResponse {
	t.Helper()
	c, err := f.svc.Submit(context.Background(), correction.SubmitCorrectionRequest{
		EmployeeID: "emp-1", AttendanceID: f.record.ID, Reason: "forgot to clock out",
	})
	require.NoError(t, err)
	return c
}

func TestSubmit_UnfinalisesRecord(t *testing.T) {
	f := newFixture()

	c := f.submit(t)

	assert.Equal(t, string(correction.StatusSubmitted), c.Status)
	assert.False(t, f.finalised(t))

	sent := f.notifier.SentOfType(notification.TypeCorrectionSubmitted)
	require.Len(t, sent, 1)
	assert.Equal(t, "hr", sent[0].Target.Role)
}

func TestSubmit_RejectsForeignRecord(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Submit(context.Background(), correction.SubmitCorrectionRequest{
		EmployeeID: "emp-2", AttendanceID: f.record.ID, Reason: "not mine",
	})
	assert.ErrorIs(t, err, correction.ErrNotRecordOwner)
	assert.True(t, f.finalised(t))

	_, err = f.svc.Submit(context.Background(), correction.SubmitCorrectionRequest{
		EmployeeID: "emp-1", AttendanceID: "missing", Reason: "x",
	})
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestApprove_RestoresFinalisation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.submit(t)

	notes := "checked with badge logs"
	approved, err := f.svc.Approve(ctx, correction.DecideCorrectionRequest{ID: c.ID, ProcessorID: "hr-1", Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, string(correction.StatusApproved), approved.Status)
	assert.Equal(t, "hr-1", *approved.DecidedBy)
	assert.True(t, f.finalised(t))

	decided := f.notifier.SentOfType(notification.TypeCorrectionDecided)
	require.Len(t, decided, 1)
	assert.Equal(t, []string{"emp-1"}, decided[0].Target.EmployeeIDs)

	trail, err := f.svc.AuditTrail(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "submitted", trail[1].FromStatus)
	assert.Equal(t, "approved", trail[1].ToStatus)
	assert.Equal(t, &notes, trail[1].Notes)

	_, err = f.svc.Reject(ctx, correction.DecideCorrectionRequest{ID: c.ID, ProcessorID: "hr-1"})
	assert.ErrorIs(t, err, correction.ErrInvalidTransition)
}

func TestReject_LeavesRecordUnfinalised(t *testing.T) {
	f := newFixture()
	c := f.submit(t)

	_, err := f.svc.Reject(context.Background(), correction.DecideCorrectionRequest{ID: c.ID, ProcessorID: "hr-1"})
	require.NoError(t, err)
	assert.False(t, f.finalised(t))
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.submit(t)

	_, err := f.svc.Cancel(ctx, correction.DecideCorrectionRequest{ID: c.ID, ProcessorID: "emp-2"})
	assert.ErrorIs(t, err, correction.ErrNotRecordOwner)

	cancelled, err := f.svc.Cancel(ctx, correction.DecideCorrectionRequest{ID: c.ID, ProcessorID: "emp-1"})
	require.NoError(t, err)
	assert.Equal(t, string(correction.StatusCancelled), cancelled.Status)
	assert.False(t, f.finalised(t))
	assert.Empty(t, f.notifier.SentOfType(notification.TypeCorrectionDecided))
}

func TestNotifierFailureDoesNotBlock(t *testing.T) {
	f := newFixture()
	f.notifier.Err = errors.New("notification store down")

	c := f.submit(t)
	assert.Equal(t, string(correction.StatusSubmitted), c.Status)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, correction.ErrCorrectionNotFound)

	_, err = f.svc.AuditTrail(context.Background(), "missing")
	assert.ErrorIs(t, err, correction.ErrCorrectionNotFound)
}
