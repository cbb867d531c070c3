package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/exception"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

var minutesPerHour = decimal.NewFromInt(60)

type service struct {
	attendanceRepo attendance.AttendanceRepository
	exceptionRepo  exception.Repository
	// exporter is nil when no endpoint is configured
	exporter payroll.Exporter
	loc      *time.Location
	now      func() time.Time
}

// Sync implements payroll.Service.
func (s *service) Sync(ctx context.Context, req payroll.SyncRequest) (payroll.SyncResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.SyncResult{}, err
	}

	window := s.window(req)
	if !window.Start.Before(window.End) {
		var errs validator.ValidationErrors
		errs.Add("end_date", "end_date must not be before start_date")
		return payroll.SyncResult{}, errs
	}

	records, err := s.attendanceRepo.ListFinalisedCreatedBetween(ctx, window.Start, window.End)
	if err != nil {
		return payroll.SyncResult{}, fmt.Errorf("failed to load finalised attendance: %w", err)
	}
	exceptions, err := s.exceptionRepo.ListApprovedCreatedBetween(ctx, window.Start, window.End)
	if err != nil {
		return payroll.SyncResult{}, fmt.Errorf("failed to load approved exceptions: %w", err)
	}

	payload := payroll.Payload{
		Window:      window,
		GeneratedAt: s.now(),
		Attendance:  make([]payroll.AttendanceProjection, 0, len(records)),
		Exceptions:  make([]payroll.ExceptionProjection, 0, len(exceptions)),
	}
	for _, r := range records {
		payload.Attendance = append(payload.Attendance, projectAttendance(r))
	}
	for _, e := range exceptions {
		payload.Exceptions = append(payload.Exceptions, projectException(e))
	}

	result := payroll.SyncResult{Payload: payload, DryRun: req.DryRun}
	if req.DryRun || s.exporter == nil {
		return result, nil
	}

	resp, err := s.exporter.Export(ctx, payload)
	if err != nil {
		slog.Error("Payroll sync failed",
			"window_start", window.Start, "window_end", window.End, "error", err)
		result.Error = err.Error()
		return result, nil
	}

	result.Transmitted = true
	result.StatusCode = resp.StatusCode
	result.Response = string(resp.Body)

	slog.Info("Payroll sync transmitted",
		"window_start", window.Start,
		"attendance", len(payload.Attendance),
		"exceptions", len(payload.Exceptions),
		"status", resp.StatusCode,
	)
	return result, nil
}

// window covers whole days [start 00:00, end+1 00:00) in the engine zone.
// A single given date covers that day; no dates means yesterday.
func (s *service) window(req payroll.SyncRequest) payroll.Window {
	local := s.now().In(s.loc)
	yesterday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, -1)

	start, end := yesterday, yesterday
	switch {
	case req.StartDate != "" && req.EndDate != "":
		start, _ = validator.ParseDateIn(req.StartDate, s.loc)
		end, _ = validator.ParseDateIn(req.EndDate, s.loc)
	case req.StartDate != "":
		start, _ = validator.ParseDateIn(req.StartDate, s.loc)
		end = start
	case req.EndDate != "":
		end, _ = validator.ParseDateIn(req.EndDate, s.loc)
		start = end
	}

	return payroll.Window{Start: start, End: end.AddDate(0, 0, 1)}
}

func projectAttendance(r attendance.AttendanceRecord) payroll.AttendanceProjection {
	punches := make([]payroll.PunchProjection, 0, len(r.Punches))
	for _, p := range r.Punches {
		punches = append(punches, payroll.PunchProjection{
			Time:      p.Time,
			Direction: string(p.Direction),
			Source:    string(p.Source),
		})
	}
	exceptionIDs := r.ExceptionIDs
	if exceptionIDs == nil {
		exceptionIDs = []string{}
	}
	return payroll.AttendanceProjection{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		Date:            r.WorkDate.Format("2006-01-02"),
		Punches:         punches,
		WorkedMinutes:   r.WorkedMinutes,
		OvertimeMinutes: r.OvertimeMinutes,
		LatenessMinutes: r.LatenessMinutes,
		WorkedHours:     decimal.NewFromInt(int64(r.WorkedMinutes)).DivRound(minutesPerHour, 2),
		OvertimeHours:   decimal.NewFromInt(int64(r.OvertimeMinutes)).DivRound(minutesPerHour, 2),
		HasMissedPunch:  r.HasMissedPunch,
		ExceptionIDs:    exceptionIDs,
	}
}

func projectException(e exception.TimeException) payroll.ExceptionProjection {
	return payroll.ExceptionProjection{
		ID:           e.ID,
		EmployeeID:   e.EmployeeID,
		Type:         string(e.Type),
		Date:         e.TargetDate.Format("2006-01-02"),
		AttendanceID: e.AttendanceID,
		ProcessedBy:  e.ProcessedBy,
		CreatedAt:    e.CreatedAt,
	}
}

// NewPayrollService wires the sync. Pass a nil exporter when no payroll
// endpoint is configured.
func NewPayrollService(
	attendanceRepo attendance.AttendanceRepository,
	exceptionRepo exception.Repository,
	exporter payroll.Exporter,
	loc *time.Location,
) payroll.Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		attendanceRepo: attendanceRepo,
		exceptionRepo:  exceptionRepo,
		exporter:       exporter,
		loc:            loc,
		now:            time.Now,
	}
}
