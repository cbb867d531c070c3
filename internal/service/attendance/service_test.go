package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/shift"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/testfixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	clock       *testfixtures.Clock
	records     *testfixtures.AttendanceRepository
	types       *testfixtures.ShiftTypeRepository
	assignments *testfixtures.AssignmentRepository
	notifier    *testfixtures.Notifier
	svc         *AttendanceServiceImpl
}

func newServiceFixture(loc *time.Location) *serviceFixture {
	clock := testfixtures.NewClock(time.Time{})
	types := testfixtures.NewShiftTypeRepository(clock)
	f := &serviceFixture{
		clock:       clock,
		records:     testfixtures.NewAttendanceRepository(clock),
		types:       types,
		assignments: testfixtures.NewAssignmentRepository(clock, types),
		notifier:    &testfixtures.Notifier{},
	}
	f.svc = NewAttendanceService(f.records, f.assignments, f.notifier, loc).(*AttendanceServiceImpl)
	f.svc.now = clock.Now
	return f
}

// assign gives employeeID an approved assignment for March 2024.
func (f *serviceFixture) assign(t *testing.T, employeeID string, st shift.ShiftType) {
	t.Helper()
	ctx := context.Background()
	created, err := f.types.Create(ctx, st)
	require.NoError(t, err)
	_, err = f.assignments.Create(ctx, shift.ShiftAssignment{
		EmployeeID:  employeeID,
		ShiftTypeID: created.ID,
		StartDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:      shift.AssignmentApproved,
	})
	require.NoError(t, err)
}

var dayShift = shift.ShiftType{
	Name:            "Day",
	StartMinute:     9 * 60,
	EndMinute:       17 * 60,
	GraceInMinutes:  10,
	GraceOutMinutes: 30,
	WorkingDays:     []int{1, 2, 3, 4, 5},
}

func punchAt(employeeID string, dir attendance.Direction, t time.Time) attendance.RecordPunchRequest {
	return attendance.RecordPunchRequest{EmployeeID: employeeID, Type: dir, Time: &t}
}

func TestRecordPunch_GraceWindow(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.UTC)
	f.assign(t, "emp-1", dayShift)
	f.assign(t, "emp-2", dayShift)

	record, err := f.svc.RecordPunch(ctx, punchAt("emp-1", attendance.DirectionIn, at("08:58")))
	require.NoError(t, err)
	assert.Equal(t, 0, record.LatenessMinutes)
	assert.Len(t, record.Punches, 1)
	assert.True(t, record.HasMissedPunch)
	assert.NotNil(t, record.ShiftAssignmentID)

	_, err = f.svc.RecordPunch(ctx, punchAt("emp-2", attendance.DirectionIn, at("08:40")))
	assert.ErrorIs(t, err, attendance.ErrPunchBeforeShiftWindow)
	assert.True(t, attendance.IsRejection(err))

	missing, err := f.records.GetByEmployeeAndDate(ctx, "emp-2", at("00:00"))
	require.NoError(t, err)
	assert.Nil(t, missing, "rejected punch must not create a record")
}

func TestRecordPunch_SplitDay(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.UTC)
	f.assign(t, "emp-1", dayShift)

	var record attendance.AttendanceRecord
	var err error
	for _, p := range []attendance.Punch{in("09:05"), out("13:00"), in("13:30"), out("17:10")} {
		record, err = f.svc.RecordPunch(ctx, punchAt("emp-1", p.Direction, p.Time))
		require.NoError(t, err)
	}

	assert.Equal(t, 455, record.WorkedMinutes)
	assert.Equal(t, 0, record.LatenessMinutes)
	assert.Equal(t, 10, record.OvertimeMinutes)
	assert.False(t, record.HasMissedPunch)
	assert.True(t, record.FinalisedForPayroll)
	assert.Len(t, record.Punches, 4)
}

func TestRecordPunch_GraceBoundariesInclusive(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.UTC)
	f.assign(t, "emp-1", dayShift)
	f.assign(t, "emp-2", dayShift)

	record, err := f.svc.RecordPunch(ctx, punchAt("emp-1", attendance.DirectionIn, at("08:50")))
	require.NoError(t, err)
	assert.Equal(t, 0, record.LatenessMinutes)

	record, err = f.svc.RecordPunch(ctx, punchAt("emp-1", attendance.DirectionOut, at("17:30")))
	require.NoError(t, err)
	assert.Len(t, record.Punches, 2)
	assert.False(t, record.HasMissedPunch)

	_, err = f.svc.RecordPunch(ctx, punchAt("emp-2", attendance.DirectionIn, at("08:49")))
	assert.ErrorIs(t, err, attendance.ErrPunchBeforeShiftWindow)
}

func TestRecordPunch_OutAfterWindow(t *testing.T) {
	f := newServiceFixture(time.UTC)
	f.assign(t, "emp-1", dayShift)

	_, err := f.svc.RecordPunch(context.Background(), punchAt("emp-1", attendance.DirectionOut, at("17:31")))
	assert.ErrorIs(t, err, attendance.ErrPunchAfterShiftWindow)
}

func TestRecordPunch_DuplicateDirection(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.UTC)
	f.assign(t, "emp-1", dayShift)

	_, err := f.svc.RecordPunch(ctx, punchAt("emp-1", attendance.DirectionIn, at("09:00")))
	require.NoError(t, err)

	_, err = f.svc.RecordPunch(ctx, punchAt("emp-1", attendance.DirectionIn, at("09:30")))
	assert.ErrorIs(t, err, attendance.ErrDuplicateDirection)

	_, err = f.svc.RecordPunch(ctx, punchAt("emp-1", attendance.DirectionOut, at("17:00")))
	require.NoError(t, err)

	// Out of order: an Out before the stored Out would follow the In but
	// precede another Out.
	_, err = f.svc.RecordPunch(ctx, punchAt("emp-1", attendance.DirectionOut, at("12:00")))
	assert.ErrorIs(t, err, attendance.ErrDuplicateDirection)
}

func TestRecordPunch_OutOfOrderArrival(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.UTC)
	f.assign(t, "emp-1", dayShift)

	_, err := f.svc.RecordPunch(ctx, punchAt("emp-1", attendance.DirectionOut, at("17:00")))
	require.NoError(t, err)

	record, err := f.svc.RecordPunch(ctx, punchAt("emp-1", attendance.DirectionIn, at("09:00")))
	require.NoError(t, err)

	assert.Equal(t, attendance.DirectionIn, record.Punches[0].Direction)
	assert.Equal(t, 480, record.WorkedMinutes)
	assert.False(t, record.HasMissedPunch)
}

func TestRecordPunch_NoShift(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.UTC)
	f.assign(t, "emp-1", dayShift)

	sunday := time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)
	record, err := f.svc.RecordPunch(ctx, punchAt("emp-1", attendance.DirectionIn, sunday))
	require.NoError(t, err)
	assert.Equal(t, 0, record.LatenessMinutes)

	unassigned, err := f.svc.RecordPunch(ctx, punchAt("emp-9", attendance.DirectionIn, at("04:00")))
	require.NoError(t, err)
	assert.Nil(t, unassigned.ShiftAssignmentID)
}

func TestRecordPunch_MissedPunchNotification(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.UTC)

	_, err := f.svc.RecordPunch(ctx, punchAt("emp-1", attendance.DirectionOut, at("17:00")))
	require.NoError(t, err)

	sent := f.notifier.SentOfType(notification.TypeMissedPunch)
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"emp-1"}, sent[0].Target.EmployeeIDs)
	assert.Equal(t, "in", sent[0].Data["missing_direction"])

	// balancing the day sends nothing further
	_, err = f.svc.RecordPunch(ctx, punchAt("emp-1", attendance.DirectionIn, at("09:00")))
	require.NoError(t, err)
	assert.Len(t, f.notifier.SentOfType(notification.TypeMissedPunch), 1)

	// a failing notifier never fails the punch
	f.notifier.Err = assert.AnError
	_, err = f.svc.RecordPunch(ctx, punchAt("emp-2", attendance.DirectionIn, at("09:00")))
	require.NoError(t, err)
}

func TestRecordPunch_DefaultsTimeToNow(t *testing.T) {
	f := newServiceFixture(time.UTC)
	f.assign(t, "emp-1", dayShift)

	record, err := f.svc.RecordPunch(context.Background(), attendance.RecordPunchRequest{
		EmployeeID: "emp-1",
		Type:       attendance.DirectionIn,
	})
	require.NoError(t, err)

	require.Len(t, record.Punches, 1)
	assert.Equal(t, f.clock.Now(), record.Punches[0].Time)
	assert.Equal(t, attendance.SourceWeb, record.Punches[0].Source)
	assert.Equal(t, 180, record.LatenessMinutes)
}

func TestRecordPunch_Overnight(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.UTC)
	f.assign(t, "emp-1", shift.ShiftType{
		Name:        "Night",
		StartMinute: 22 * 60,
		EndMinute:   6 * 60,
		WorkingDays: []int{1, 2, 3, 4, 5, 6, 7},
	})

	// 01:00 is far before the 22:00 shift of the same day, but inside the
	// shift that started the previous evening.
	record, err := f.svc.RecordPunch(ctx, punchAt("emp-1", attendance.DirectionIn, time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", record.WorkDate.Format("2006-01-02"))

	_, err = f.svc.RecordPunch(ctx, punchAt("emp-2", attendance.DirectionIn, time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC)))
	require.NoError(t, err, "employee without an assignment is not validated")
}

func TestRecordPunch_CalendarDayInEngineZone(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	f := newServiceFixture(loc)

	record, err := f.svc.RecordPunch(context.Background(), punchAt("emp-1", attendance.DirectionIn, time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", record.WorkDate.Format("2006-01-02"))
}

func TestRecordPunch_RetriesVersionConflict(t *testing.T) {
	f := newServiceFixture(time.UTC)
	calls := 0
	f.records.UpdateHook = func(attendance.AttendanceRecord) error {
		calls++
		if calls == 1 {
			return attendance.ErrVersionConflict
		}
		return nil
	}

	record, err := f.svc.RecordPunch(context.Background(), punchAt("emp-1", attendance.DirectionIn, at("09:00")))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, record.Version)

	f.records.UpdateHook = func(attendance.AttendanceRecord) error { return attendance.ErrVersionConflict }
	_, err = f.svc.RecordPunch(context.Background(), punchAt("emp-1", attendance.DirectionOut, at("17:00")))
	assert.ErrorIs(t, err, attendance.ErrVersionConflict)
}

func TestSyncOfflinePunch_Replay(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.UTC)
	terminal := "kiosk-1"

	req := punchAt("emp-1", attendance.DirectionIn, at("09:00"))
	req.TerminalID = &terminal

	record, dup, err := f.svc.SyncOfflinePunch(ctx, req)
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, attendance.SourceOffline, record.Punches[0].Source)
	assert.Equal(t, &terminal, record.Punches[0].TerminalID)

	replay := punchAt("emp-1", attendance.DirectionIn, at("09:00").Add(500*time.Millisecond))
	record, dup, err = f.svc.SyncOfflinePunch(ctx, replay)
	require.NoError(t, err)
	assert.True(t, dup)
	assert.Len(t, record.Punches, 1)
}

func TestRecordPunch_Validation(t *testing.T) {
	f := newServiceFixture(time.UTC)

	_, err := f.svc.RecordPunch(context.Background(), attendance.RecordPunchRequest{Type: "sideways"})
	var vErr validator.ValidationErrors
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.ToMap(), "employee_id")
	assert.Contains(t, vErr.ToMap(), "type")
}

func TestGetEmployeeDay(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.UTC)

	_, err := f.svc.GetEmployeeDay(ctx, "emp-1", "2024-03-04")
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)

	created, err := f.svc.RecordPunch(ctx, punchAt("emp-1", attendance.DirectionIn, at("09:00")))
	require.NoError(t, err)

	got, err := f.svc.GetEmployeeDay(ctx, "emp-1", "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	byID, err := f.svc.GetRecord(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	_, err = f.svc.GetEmployeeDay(ctx, "emp-1", "04/03/2024")
	assert.Error(t, err)
}
