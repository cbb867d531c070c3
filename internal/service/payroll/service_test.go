package payroll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/exception"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/testfixtures"
)

type fakeExporter struct {
	calls    []payroll.Payload
	response payroll.ExportResponse
	err      error
}

func (f *fakeExporter) Export(ctx context.Context, payload payroll.Payload) (payroll.ExportResponse, error) {
	f.calls = append(f.calls, payload)
	return f.response, f.err
}

type fixture struct {
	clock      *testfixtures.Clock
	records    *testfixtures.AttendanceRepository
	exceptions *testfixtures.ExceptionRepository
	exporter   *fakeExporter
	svc        *service
}

func newFixture(withExporter bool) *fixture {
	clock := testfixtures.NewClock(time.Time{})
	f := &fixture{
		clock:      clock,
		records:    testfixtures.NewAttendanceRepository(clock),
		exceptions: testfixtures.NewExceptionRepository(clock),
		exporter:   &fakeExporter{response: payroll.ExportResponse{StatusCode: 200, Body: []byte(`{"ok":true}`)}},
	}
	var exporter payroll.Exporter
	if withExporter {
		exporter = f.exporter
	}
	f.svc = NewPayrollService(f.records, f.exceptions, exporter, time.UTC).(*service)
	f.svc.now = clock.Now
	return f
}

func day(s string) time.Time {
	t, _ := validator.ParseDateIn(s, time.UTC)
	return t
}

// seed stores one finalised record and one approved exception created on
// 2024-03-03, plus noise that must not be exported.
func (f *fixture) seed() attendance.AttendanceRecord {
	created := day("2024-03-03").Add(10 * time.Hour)
	rec := f.records.Put(attendance.AttendanceRecord{
		EmployeeID:          "emp-1",
		WorkDate:            day("2024-03-03"),
		Punches:             []attendance.Punch{{Time: created, Direction: attendance.DirectionIn, Source: attendance.SourceWeb}},
		WorkedMinutes:       455,
		OvertimeMinutes:     30,
		FinalisedForPayroll: true,
		Version:             1,
		CreatedAt:           created,
		UpdatedAt:           created,
	})
	f.records.Put(attendance.AttendanceRecord{
		EmployeeID: "emp-2", WorkDate: day("2024-03-03"), Version: 1,
		CreatedAt: created, UpdatedAt: created,
	})
	f.records.Put(attendance.AttendanceRecord{
		EmployeeID: "emp-3", WorkDate: day("2024-03-01"), FinalisedForPayroll: true, Version: 1,
		CreatedAt: day("2024-03-01"), UpdatedAt: day("2024-03-01"),
	})

	_, _ = f.exceptions.Create(context.Background(), exception.TimeException{
		EmployeeID: "emp-1", Type: exception.TypeOvertime, TargetDate: day("2024-03-03"),
		Status: exception.StatusApproved, CreatedAt: created,
	})
	_, _ = f.exceptions.Create(context.Background(), exception.TimeException{
		EmployeeID: "emp-1", Type: exception.TypeLateness, TargetDate: day("2024-03-03"),
		Status: exception.StatusPending, CreatedAt: created,
	})
	return rec
}

func TestSync_DefaultsToYesterday(t *testing.T) {
	f := newFixture(true)
	rec := f.seed()

	result, err := f.svc.Sync(context.Background(), payroll.SyncRequest{})
	require.NoError(t, err)

	assert.Equal(t, day("2024-03-03"), result.Payload.Window.Start)
	assert.Equal(t, day("2024-03-04"), result.Payload.Window.End)
	require.Len(t, result.Payload.Attendance, 1)
	got := result.Payload.Attendance[0]
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "2024-03-03", got.Date)
	assert.Equal(t, "7.58", got.WorkedHours.String())
	assert.Equal(t, "0.5", got.OvertimeHours.String())
	assert.Equal(t, []string{}, got.ExceptionIDs)
	require.Len(t, result.Payload.Exceptions, 1)
	assert.Equal(t, "overtime", result.Payload.Exceptions[0].Type)

	assert.True(t, result.Transmitted)
	assert.Equal(t, 200, result.StatusCode)
	assert.Equal(t, `{"ok":true}`, result.Response)
	assert.Len(t, f.exporter.calls, 1)
}

func TestSync_ExplicitRange(t *testing.T) {
	f := newFixture(true)
	f.seed()

	result, err := f.svc.Sync(context.Background(), payroll.SyncRequest{StartDate: "2024-03-01", EndDate: "2024-03-03", DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, day("2024-03-01"), result.Payload.Window.Start)
	assert.Equal(t, day("2024-03-04"), result.Payload.Window.End)
	assert.Len(t, result.Payload.Attendance, 2)
	assert.True(t, result.DryRun)
	assert.False(t, result.Transmitted)
	assert.Empty(t, f.exporter.calls)
}

func TestSync_StartOnlyCoversSingleDay(t *testing.T) {
	f := newFixture(false)
	f.seed()

	result, err := f.svc.Sync(context.Background(), payroll.SyncRequest{StartDate: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, day("2024-03-02"), result.Payload.Window.End)
	assert.Len(t, result.Payload.Attendance, 1)
	assert.False(t, result.Transmitted)
}

func TestSync_EndOnlyCoversSingleDay(t *testing.T) {
	f := newFixture(false)
	rec := f.seed()
	f.clock.Set(day("2024-03-10").Add(9 * time.Hour))

	result, err := f.svc.Sync(context.Background(), payroll.SyncRequest{EndDate: "2024-03-03", DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, day("2024-03-03"), result.Payload.Window.Start)
	assert.Equal(t, day("2024-03-04"), result.Payload.Window.End)
	require.Len(t, result.Payload.Attendance, 1)
	assert.Equal(t, rec.ID, result.Payload.Attendance[0].ID)
	assert.Len(t, result.Payload.Exceptions, 1)
}

func TestSync_ExportFailureReported(t *testing.T) {
	f := newFixture(true)
	f.exporter.err = payroll.ErrExporterUnavailable

	result, err := f.svc.Sync(context.Background(), payroll.SyncRequest{})
	require.NoError(t, err)
	assert.False(t, result.Transmitted)
	assert.Equal(t, payroll.ErrExporterUnavailable.Error(), result.Error)
}

func TestSync_ServerErrorPassedThrough(t *testing.T) {
	f := newFixture(true)
	f.exporter.response = payroll.ExportResponse{StatusCode: 502, Body: []byte("bad gateway")}

	result, err := f.svc.Sync(context.Background(), payroll.SyncRequest{})
	require.NoError(t, err)
	assert.True(t, result.Transmitted)
	assert.Equal(t, 502, result.StatusCode)
	assert.Equal(t, "bad gateway", result.Response)
}

func TestSync_InvalidRange(t *testing.T) {
	f := newFixture(true)

	_, err := f.svc.Sync(context.Background(), payroll.SyncRequest{StartDate: "2024-03-05", EndDate: "2024-03-01"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "end_date", verrs[0].Field)
}
