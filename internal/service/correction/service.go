package correction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/correction"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
)

type CorrectionServiceImpl struct {
	tx             database.Transactor
	correctionRepo correction.Repository
	attendanceRepo attendance.AttendanceRepository
	auditRepo      audit.Repository
	notifier       notification.Notifier
	reviewerRole   string
	now            func() time.Time
}

// Submit implements correction.CorrectionService.
func (s *CorrectionServiceImpl) Submit(ctx context.Context, req correction.SubmitCorrectionRequest) (correction.CorrectionResponse, error) {
	if err := req.Validate(); err != nil {
		return correction.CorrectionResponse{}, err
	}

	var created correction.CorrectionRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		record, err := s.attendanceRepo.GetByID(ctx, req.AttendanceID)
		if err != nil {
			return err
		}
		if record.EmployeeID != req.EmployeeID {
			return correction.ErrNotRecordOwner
		}

		created, err = s.correctionRepo.Create(ctx, correction.CorrectionRequest{
			EmployeeID:   req.EmployeeID,
			AttendanceID: req.AttendanceID,
			Reason:       req.Reason,
			Status:       correction.StatusSubmitted,
		})
		if err != nil {
			return fmt.Errorf("failed to create correction request: %w", err)
		}

		if err := s.attendanceRepo.SetFinalised(ctx, record.ID, false); err != nil {
			return fmt.Errorf("failed to unfinalise attendance record: %w", err)
		}

		return s.appendAudit(ctx, created.ID, "submitted", req.EmployeeID, nil, "", correction.StatusSubmitted)
	})
	if err != nil {
		return correction.CorrectionResponse{}, err
	}

	s.notify(ctx, notification.CreateNotificationRequest{
		Type:    notification.TypeCorrectionSubmitted,
		Title:   "Attendance correction submitted",
		Message: fmt.Sprintf("Employee %s requested a correction: %s", created.EmployeeID, created.Reason),
		Target:  notification.Target{Role: s.reviewerRole},
		Data: map[string]interface{}{
			"correction_id": created.ID,
			"attendance_id": created.AttendanceID,
			"employee_id":   created.EmployeeID,
		},
	})

	return correction.NewCorrectionResponse(created), nil
}

// Approve implements correction.CorrectionService.
func (s *CorrectionServiceImpl) Approve(ctx context.Context, req correction.DecideCorrectionRequest) (correction.CorrectionResponse, error) {
	return s.decide(ctx, req, correction.StatusApproved, "approved")
}

// Reject implements correction.CorrectionService.
func (s *CorrectionServiceImpl) Reject(ctx context.Context, req correction.DecideCorrectionRequest) (correction.CorrectionResponse, error) {
	return s.decide(ctx, req, correction.StatusRejected, "rejected")
}

// Cancel implements correction.CorrectionService.
func (s *CorrectionServiceImpl) Cancel(ctx context.Context, req correction.DecideCorrectionRequest) (correction.CorrectionResponse, error) {
	return s.decide(ctx, req, correction.StatusCancelled, "cancelled")
}

func (s *CorrectionServiceImpl) decide(ctx context.Context, req correction.DecideCorrectionRequest, to correction.Status, action string) (correction.CorrectionResponse, error) {
	if err := req.Validate(); err != nil {
		return correction.CorrectionResponse{}, err
	}

	var updated correction.CorrectionRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.correctionRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if !correction.CanTransition(current.Status, to) {
			return fmt.Errorf("%w: %s to %s", correction.ErrInvalidTransition, current.Status, to)
		}
		if to == correction.StatusCancelled && req.ProcessorID != current.EmployeeID {
			return correction.ErrNotRecordOwner
		}

		updated, err = s.correctionRepo.Transition(ctx, current.ID, current.Status, to, &req.ProcessorID, req.Notes, s.now())
		if err != nil {
			return err
		}

		if to == correction.StatusApproved {
			if err := s.attendanceRepo.SetFinalised(ctx, current.AttendanceID, true); err != nil {
				return fmt.Errorf("failed to finalise attendance record: %w", err)
			}
		}

		return s.appendAudit(ctx, current.ID, action, req.ProcessorID, req.Notes, current.Status, to)
	})
	if err != nil {
		return correction.CorrectionResponse{}, err
	}

	if to != correction.StatusCancelled {
		s.notify(ctx, notification.CreateNotificationRequest{
			Type:    notification.TypeCorrectionDecided,
			Title:   "Attendance correction " + string(to),
			Message: fmt.Sprintf("Your correction request was %s", to),
			Target:  notification.Target{EmployeeIDs: []string{updated.EmployeeID}},
			Data: map[string]interface{}{
				"correction_id": updated.ID,
				"status":        string(to),
			},
		})
	}

	return correction.NewCorrectionResponse(updated), nil
}

// Get implements correction.CorrectionService.
func (s *CorrectionServiceImpl) Get(ctx context.Context, id string) (correction.CorrectionResponse, error) {
	c, err := s.correctionRepo.GetByID(ctx, id)
	if err != nil {
		return correction.CorrectionResponse{}, err
	}
	return correction.NewCorrectionResponse(c), nil
}

// AuditTrail implements correction.CorrectionService.
func (s *CorrectionServiceImpl) AuditTrail(ctx context.Context, id string) ([]audit.Entry, error) {
	if _, err := s.correctionRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.auditRepo.ListByEntity(ctx, audit.EntityCorrectionRequest, id)
}

func (s *CorrectionServiceImpl) appendAudit(ctx context.Context, id, action, by string, notes *string, from, to correction.Status) error {
	if err := s.auditRepo.Append(ctx, audit.Entry{
		EntityType: audit.EntityCorrectionRequest,
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

// notify is best effort; failures never undo the transition.
func (s *CorrectionServiceImpl) notify(ctx context.Context, req notification.CreateNotificationRequest) {
	if err := s.notifier.Notify(ctx, req); err != nil {
		slog.Warn("Failed to send correction notification", "type", req.Type, "error", err)
	}
}

func NewCorrectionService(
	tx database.Transactor,
	correctionRepo correction.Repository,
	attendanceRepo attendance.AttendanceRepository,
	auditRepo audit.Repository,
	notifier notification.Notifier,
	reviewerRole string,
) correction.CorrectionService {
	return &CorrectionServiceImpl{
		tx:             tx,
		correctionRepo: correctionRepo,
		attendanceRepo: attendanceRepo,
		auditRepo:      auditRepo,
		notifier:       notifier,
		reviewerRole:   reviewerRole,
		now:            time.Now,
	}
}
