package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/shift"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

// maxAppendAttempts bounds retries when a concurrent writer bumps the record version.
const maxAppendAttempts = 3

// replayTolerance is how close an offline punch may be to a stored one of the
// same direction and still count as the same punch.
const replayTolerance = time.Second

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	assignmentRepo shift.AssignmentRepository
	notifier       notification.Notifier
	loc            *time.Location
	now            func() time.Time
}

// shiftContext holds the shift windows that may contain a punch. The window
// anchored on the punch's own day comes first.
type shiftContext struct {
	assignmentID *string
	day          *shift.Window
	candidates   []shift.Window
}

// RecordPunch implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecordPunch(ctx context.Context, req attendance.RecordPunchRequest) (attendance.AttendanceRecord, error) {
	record, _, err := s.appendPunch(ctx, req, false)
	return record, err
}

// SyncOfflinePunch implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) SyncOfflinePunch(ctx context.Context, req attendance.RecordPunchRequest) (attendance.AttendanceRecord, bool, error) {
	req.Source = attendance.SourceOffline
	return s.appendPunch(ctx, req, true)
}

func (s *AttendanceServiceImpl) appendPunch(ctx context.Context, req attendance.RecordPunchRequest, offline bool) (attendance.AttendanceRecord, bool, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceRecord{}, false, err
	}

	punch := req.ToPunch(s.now())
	workDate := s.calendarDay(punch.Time)

	sc, err := s.resolveShift(ctx, req.EmployeeID, workDate)
	if err != nil {
		return attendance.AttendanceRecord{}, false, err
	}
	if err := checkShiftWindow(punch, sc); err != nil {
		return attendance.AttendanceRecord{}, false, err
	}

	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		record, err := s.attendanceRepo.GetOrCreate(ctx, req.EmployeeID, workDate)
		if err != nil {
			return attendance.AttendanceRecord{}, false, fmt.Errorf("failed to load attendance record: %w", err)
		}

		if offline && hasReplay(record.Punches, punch) {
			return record, true, nil
		}

		if err := insertPunch(&record, punch); err != nil {
			return attendance.AttendanceRecord{}, false, err
		}
		record.ShiftAssignmentID = sc.assignmentID
		Recompute(&record, sc.day)

		updated, err := s.attendanceRepo.Update(ctx, record)
		if errors.Is(err, attendance.ErrVersionConflict) {
			slog.Debug("attendance record changed concurrently, retrying",
				"record_id", record.ID, "attempt", attempt)
			continue
		}
		if err != nil {
			return attendance.AttendanceRecord{}, false, fmt.Errorf("failed to update attendance record: %w", err)
		}
		if updated.HasMissedPunch {
			s.notifyMissedPunch(ctx, updated)
		}
		return updated, false, nil
	}

	return attendance.AttendanceRecord{}, false, fmt.Errorf("append punch after %d attempts: %w", maxAppendAttempts, attendance.ErrVersionConflict)
}

// GetRecord implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetRecord(ctx context.Context, id string) (attendance.AttendanceRecord, error) {
	return s.attendanceRepo.GetByID(ctx, id)
}

// GetEmployeeDay implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetEmployeeDay(ctx context.Context, employeeID string, date string) (attendance.AttendanceRecord, error) {
	day, err := validator.ParseDateIn(date, s.loc)
	if err != nil {
		return attendance.AttendanceRecord{}, validator.ValidationErrors{{Field: "date", Message: "date must be in YYYY-MM-DD format"}}
	}
	record, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, employeeID, day)
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}
	if record == nil {
		return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
	}
	return *record, nil
}

// calendarDay is midnight of t's date in the engine's time zone.
func (s *AttendanceServiceImpl) calendarDay(t time.Time) time.Time {
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
}

// resolveShift finds the approved assignment of the punch day, plus the
// previous day's when that one runs overnight into the punch day.
func (s *AttendanceServiceImpl) resolveShift(ctx context.Context, employeeID string, workDate time.Time) (shiftContext, error) {
	var sc shiftContext

	current, err := s.assignmentRepo.FindApprovedCovering(ctx, employeeID, workDate)
	if err != nil {
		return sc, fmt.Errorf("failed to resolve shift assignment: %w", err)
	}
	if current != nil && current.ShiftType != nil {
		sc.assignmentID = &current.ID
		if current.ShiftType.WorksOn(workDate) {
			w := current.ShiftType.WindowOn(workDate)
			sc.day = &w
			sc.candidates = append(sc.candidates, w)
		}
	}

	prevDay := workDate.AddDate(0, 0, -1)
	previous, err := s.assignmentRepo.FindApprovedCovering(ctx, employeeID, prevDay)
	if err != nil {
		return sc, fmt.Errorf("failed to resolve shift assignment: %w", err)
	}
	if previous != nil && previous.ShiftType != nil && previous.ShiftType.Overnight() && previous.ShiftType.WorksOn(prevDay) {
		sc.candidates = append(sc.candidates, previous.ShiftType.WindowOn(prevDay))
	}

	return sc, nil
}

// checkShiftWindow accepts a punch inside any candidate window. Outside all
// of them, an In before the earliest allowed In or an Out after the latest
// allowed Out is rejected. Days without a shift are not validated.
func checkShiftWindow(p attendance.Punch, sc shiftContext) error {
	if len(sc.candidates) == 0 {
		return nil
	}
	for _, w := range sc.candidates {
		if w.Contains(p.Time) {
			return nil
		}
	}

	ref := sc.candidates[0]
	switch p.Direction {
	case attendance.DirectionIn:
		if p.Time.Before(ref.EarliestIn) {
			return fmt.Errorf("%w: earliest allowed in is %s", attendance.ErrPunchBeforeShiftWindow, ref.EarliestIn.Format("15:04"))
		}
	case attendance.DirectionOut:
		if p.Time.After(ref.LatestOut) {
			return fmt.Errorf("%w: latest allowed out is %s", attendance.ErrPunchAfterShiftWindow, ref.LatestOut.Format("15:04"))
		}
	}
	return nil
}

// insertPunch places p in chronological position. A punch may not share its
// direction with the punch before or after it.
func insertPunch(r *attendance.AttendanceRecord, p attendance.Punch) error {
	SortPunches(r.Punches)

	i := len(r.Punches)
	for i > 0 && r.Punches[i-1].Time.After(p.Time) {
		i--
	}
	if i > 0 && r.Punches[i-1].Direction == p.Direction {
		return fmt.Errorf("%w: previous punch is also %s", attendance.ErrDuplicateDirection, p.Direction)
	}
	if i < len(r.Punches) && r.Punches[i].Direction == p.Direction {
		return fmt.Errorf("%w: next punch is also %s", attendance.ErrDuplicateDirection, p.Direction)
	}

	r.Punches = append(r.Punches, attendance.Punch{})
	copy(r.Punches[i+1:], r.Punches[i:])
	r.Punches[i] = p
	return nil
}

func hasReplay(punches []attendance.Punch, p attendance.Punch) bool {
	for _, existing := range punches {
		if existing.Direction != p.Direction {
			continue
		}
		d := existing.Time.Sub(p.Time)
		if d < 0 {
			d = -d
		}
		if d <= replayTolerance {
			return true
		}
	}
	return false
}

// notifyMissedPunch tells the employee which direction the day still lacks.
// Delivery is best effort.
func (s *AttendanceServiceImpl) notifyMissedPunch(ctx context.Context, record attendance.AttendanceRecord) {
	if s.notifier == nil {
		return
	}

	missing := attendance.DirectionOut
	if record.FirstIn() == nil {
		missing = attendance.DirectionIn
	}
	date := record.WorkDate.Format("2006-01-02")

	err := s.notifier.Notify(ctx, notification.CreateNotificationRequest{
		Type:    notification.TypeMissedPunch,
		Title:   "Missed punch",
		Message: fmt.Sprintf("Employee %s has no %s punch on %s", record.EmployeeID, missing, date),
		Target:  notification.Target{EmployeeIDs: []string{record.EmployeeID}},
		Data: map[string]interface{}{
			"employee_id":       record.EmployeeID,
			"attendance_id":     record.ID,
			"date":              date,
			"missing_direction": string(missing),
		},
	})
	if err != nil {
		slog.Warn("Failed to send missed punch notification", "employee_id", record.EmployeeID, "error", err)
	}
}

// NewAttendanceService builds the punch ingestion service. notifier may be nil.
func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	assignmentRepo shift.AssignmentRepository,
	notifier notification.Notifier,
	loc *time.Location,
) attendance.AttendanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		assignmentRepo: assignmentRepo,
		notifier:       notifier,
		loc:            loc,
		now:            time.Now,
	}
}
