package exception

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/exception"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/org"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

type ExceptionServiceImpl struct {
	tx             database.Transactor
	exceptionRepo  exception.Repository
	attendanceRepo attendance.AttendanceRepository
	auditRepo      audit.Repository
	directory      org.Directory
	notifier       notification.Notifier
	loc            *time.Location
	now            func() time.Time
}

// Create implements exception.ExceptionService.
func (s *ExceptionServiceImpl) Create(ctx context.Context, req exception.CreateExceptionRequest) (exception.ExceptionResponse, error) {
	if err := req.Validate(); err != nil {
		return exception.ExceptionResponse{}, err
	}
	targetDate, _ := validator.ParseDateIn(req.TargetDate, s.loc)

	assignee := s.resolveAssignee(ctx, req.AssignedTo)

	var created exception.TimeException
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		record, err := s.lookupRecord(ctx, req.EmployeeID, targetDate, req.AttendanceID)
		if err != nil {
			return err
		}

		e := exception.TimeException{
			EmployeeID: req.EmployeeID,
			Type:       req.Type,
			TargetDate: targetDate,
			AssignedTo: assignee,
			Status:     exception.StatusPending,
			Reason:     req.Reason,
			CreatedBy:  req.CreatedBy,
		}
		if record != nil {
			e.AttendanceID = &record.ID
		}

		created, err = s.exceptionRepo.Create(ctx, e)
		if err != nil {
			return fmt.Errorf("failed to create time exception: %w", err)
		}

		if record != nil {
			if err := s.attendanceRepo.AttachException(ctx, record.ID, created.ID); err != nil {
				return fmt.Errorf("failed to link attendance record: %w", err)
			}
		}

		return s.appendAudit(ctx, created.ID, "created", req.CreatedBy, nil, "", exception.StatusPending)
	})
	if err != nil {
		return exception.ExceptionResponse{}, err
	}

	if assignee != nil {
		s.notify(ctx, notification.CreateNotificationRequest{
			Type:    notification.TypeExceptionAssigned,
			Title:   "Time exception awaiting review",
			Message: fmt.Sprintf("A %s exception for employee %s on %s needs your decision", created.Type, created.EmployeeID, req.TargetDate),
			Target:  notification.Target{EmployeeIDs: []string{*assignee}},
			Data: map[string]interface{}{
				"exception_id": created.ID,
				"employee_id":  created.EmployeeID,
			},
		})
	}

	return exception.NewExceptionResponse(created), nil
}

// resolveAssignee prefers a direct employee and falls back to the current
// holder of a position. Lookup failures leave the exception unassigned.
func (s *ExceptionServiceImpl) resolveAssignee(ctx context.Context, id string) *string {
	if id == "" {
		return nil
	}

	exists, err := s.directory.EmployeeExists(ctx, id)
	if err != nil {
		slog.Warn("Failed to look up assignee employee", "assigned_to", id, "error", err)
		return nil
	}
	if exists {
		return &id
	}

	holder, err := s.directory.PositionHolder(ctx, id)
	if err != nil {
		slog.Warn("Failed to resolve assignee position", "assigned_to", id, "error", err)
		return nil
	}
	return &holder
}

// lookupRecord returns the record named by attendanceID, or the employee's
// record of day when no ID is given. A missing day record yields nil.
func (s *ExceptionServiceImpl) lookupRecord(ctx context.Context, employeeID string, day time.Time, attendanceID *string) (*attendance.AttendanceRecord, error) {
	if attendanceID != nil && *attendanceID != "" {
		record, err := s.attendanceRepo.GetByID(ctx, *attendanceID)
		if err != nil {
			return nil, err
		}
		if record.EmployeeID != employeeID {
			return nil, validator.ValidationErrors{{Field: "attendance_id", Message: "attendance record belongs to another employee"}}
		}
		return &record, nil
	}
	return s.attendanceRepo.GetByEmployeeAndDate(ctx, employeeID, day)
}

// AttachToAttendance implements exception.ExceptionService.
func (s *ExceptionServiceImpl) AttachToAttendance(ctx context.Context, req exception.AttachExceptionRequest) (exception.ExceptionResponse, error) {
	var result exception.TimeException
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		e, err := s.exceptionRepo.GetByID(ctx, req.ExceptionID)
		if err != nil {
			return err
		}

		record, err := s.lookupRecord(ctx, e.EmployeeID, e.TargetDate, e.AttendanceID)
		if err != nil {
			return err
		}
		if record == nil {
			return attendance.ErrAttendanceNotFound
		}

		if err := s.attendanceRepo.AttachException(ctx, record.ID, e.ID); err != nil {
			return fmt.Errorf("failed to attach exception: %w", err)
		}
		if e.AttendanceID == nil {
			if err := s.exceptionRepo.SetAttendance(ctx, e.ID, record.ID); err != nil {
				return fmt.Errorf("failed to link attendance record: %w", err)
			}
			e.AttendanceID = &record.ID
		}

		from := e.Status
		if e.Status != exception.StatusApproved {
			if !exception.CanTransition(e.Status, exception.StatusApproved) {
				return fmt.Errorf("%w: %s to %s", exception.ErrInvalidTransition, e.Status, exception.StatusApproved)
			}
			updated, err := s.exceptionRepo.Transition(ctx, e.ID, e.Status, exception.StatusApproved, req.ProcessorID, s.now())
			if err != nil {
				return err
			}
			updated.AttendanceID = e.AttendanceID
			e = updated
		}

		result = e
		return s.appendAudit(ctx, e.ID, "attached", req.ProcessorID, nil, from, exception.StatusApproved)
	})
	if err != nil {
		return exception.ExceptionResponse{}, err
	}
	return exception.NewExceptionResponse(result), nil
}

// Process implements exception.ExceptionService.
func (s *ExceptionServiceImpl) Process(ctx context.Context, req exception.ProcessExceptionRequest) (exception.ExceptionResponse, error) {
	if err := req.Validate(); err != nil {
		return exception.ExceptionResponse{}, err
	}

	var result exception.TimeException
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		e, err := s.exceptionRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if !exception.CanTransition(e.Status, req.Decision) {
			return fmt.Errorf("%w: %s to %s", exception.ErrInvalidTransition, e.Status, req.Decision)
		}

		result, err = s.exceptionRepo.Transition(ctx, e.ID, e.Status, req.Decision, req.ProcessorID, s.now())
		if err != nil {
			return err
		}

		if req.Decision.Decisive() {
			record, err := s.lookupRecord(ctx, e.EmployeeID, e.TargetDate, e.AttendanceID)
			if err != nil && !errors.Is(err, attendance.ErrAttendanceNotFound) {
				return err
			}
			if record != nil {
				if err := s.attendanceRepo.SetFinalised(ctx, record.ID, true); err != nil {
					return fmt.Errorf("failed to finalise attendance record: %w", err)
				}
			}
		}

		return s.appendAudit(ctx, e.ID, "processed", req.ProcessorID, req.Notes, e.Status, req.Decision)
	})
	if err != nil {
		return exception.ExceptionResponse{}, err
	}

	if req.Decision.Decisive() {
		s.notify(ctx, notification.CreateNotificationRequest{
			Type:    notification.TypeExceptionDecided,
			Title:   "Time exception " + string(req.Decision),
			Message: fmt.Sprintf("Your %s exception for %s was %s", result.Type, result.TargetDate.Format("2006-01-02"), req.Decision),
			Target:  notification.Target{EmployeeIDs: []string{result.EmployeeID}},
			Data: map[string]interface{}{
				"exception_id": result.ID,
				"status":       string(req.Decision),
			},
		})
	}

	return exception.NewExceptionResponse(result), nil
}

// Get implements exception.ExceptionService.
func (s *ExceptionServiceImpl) Get(ctx context.Context, id string) (exception.ExceptionResponse, error) {
	e, err := s.exceptionRepo.GetByID(ctx, id)
	if err != nil {
		return exception.ExceptionResponse{}, err
	}
	return exception.NewExceptionResponse(e), nil
}

// AuditTrail implements exception.ExceptionService.
func (s *ExceptionServiceImpl) AuditTrail(ctx context.Context, id string) ([]audit.Entry, error) {
	if _, err := s.exceptionRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.auditRepo.ListByEntity(ctx, audit.EntityTimeException, id)
}

func (s *ExceptionServiceImpl) appendAudit(ctx context.Context, id, action, by string, notes *string, from, to exception.Status) error {
	if err := s.auditRepo.Append(ctx, audit.Entry{
		EntityType: audit.EntityTimeException,
		EntityID:   id,
		Action:     action,
		By:         by,
		At:         s.now(),
		Notes:      notes,
		FromStatus: string(from),
		ToStatus:   string(to),
	}); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

func (s *ExceptionServiceImpl) notify(ctx context.Context, req notification.CreateNotificationRequest) {
	if err := s.notifier.Notify(ctx, req); err != nil {
		slog.Warn("Failed to send exception notification", "type", req.Type, "error", err)
	}
}

func NewExceptionService(
	tx database.Transactor,
	exceptionRepo exception.Repository,
	attendanceRepo attendance.AttendanceRepository,
	auditRepo audit.Repository,
	directory org.Directory,
	notifier notification.Notifier,
	loc *time.Location,
) exception.ExceptionService {
	if loc == nil {
		loc = time.UTC
	}
	return &ExceptionServiceImpl{
		tx:             tx,
		exceptionRepo:  exceptionRepo,
		attendanceRepo: attendanceRepo,
		auditRepo:      auditRepo,
		directory:      directory,
		notifier:       notifier,
		loc:            loc,
		now:            time.Now,
	}
}
