package shift

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/org"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/shift"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

type ShiftServiceImpl struct {
	tx             database.Transactor
	shiftTypeRepo  shift.ShiftTypeRepository
	assignmentRepo shift.AssignmentRepository
	auditRepo      audit.Repository
	directory      org.Directory
	loc            *time.Location
	now            func() time.Time
}

// CreateShiftType implements shift.ShiftService.
func (s *ShiftServiceImpl) CreateShiftType(ctx context.Context, req shift.CreateShiftTypeRequest) (shift.ShiftTypeResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.ShiftTypeResponse{}, err
	}

	start, _ := validator.ParseTimeOfDay(req.StartTime)
	end, _ := validator.ParseTimeOfDay(req.EndTime)

	created, err := s.shiftTypeRepo.Create(ctx, shift.ShiftType{
		Name:            req.Name,
		StartMinute:     start,
		EndMinute:       end,
		GraceInMinutes:  req.GraceInMinutes,
		GraceOutMinutes: req.GraceOutMinutes,
		WorkingDays:     req.WorkingDays,
	})
	if err != nil {
		return shift.ShiftTypeResponse{}, fmt.Errorf("failed to create shift type: %w", err)
	}
	return shift.NewShiftTypeResponse(created), nil
}

// GetShiftType implements shift.ShiftService.
func (s *ShiftServiceImpl) GetShiftType(ctx context.Context, id string) (shift.ShiftTypeResponse, error) {
	st, err := s.shiftTypeRepo.GetByID(ctx, id)
	if err != nil {
		return shift.ShiftTypeResponse{}, err
	}
	return shift.NewShiftTypeResponse(st), nil
}

// ListShiftTypes implements shift.ShiftService.
func (s *ShiftServiceImpl) ListShiftTypes(ctx context.Context) ([]shift.ShiftTypeResponse, error) {
	types, err := s.shiftTypeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift types: %w", err)
	}
	resp := make([]shift.ShiftTypeResponse, 0, len(types))
	for _, st := range types {
		resp = append(resp, shift.NewShiftTypeResponse(st))
	}
	return resp, nil
}

// CreateAssignments implements shift.ShiftService.
func (s *ShiftServiceImpl) CreateAssignments(ctx context.Context, req shift.CreateAssignmentRequest) ([]shift.AssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	st, err := s.shiftTypeRepo.GetByID(ctx, req.ShiftTypeID)
	if err != nil {
		return nil, err
	}

	employees, err := s.resolveTarget(ctx, req.TargetType, req.TargetID)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, shift.ErrNoTargetEmployees
	}

	startDate, _ := validator.ParseDateIn(req.StartDate, s.loc)
	endDate, _ := validator.ParseDateIn(req.EndDate, s.loc)

	var created []shift.AssignmentResponse
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, employeeID := range employees {
			a, err := s.assignmentRepo.Create(ctx, shift.ShiftAssignment{
				EmployeeID:  employeeID,
				ShiftTypeID: st.ID,
				StartDate:   startDate,
				EndDate:     endDate,
				Status:      shift.AssignmentEntered,
			})
			if err != nil {
				return fmt.Errorf("failed to create assignment for employee %s: %w", employeeID, err)
			}
			a.ShiftType = &st
			created = append(created, shift.NewAssignmentResponse(a))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Shift assignments created", "shift_type_id", st.ID, "target_type", req.TargetType, "count", len(created))
	return created, nil
}

func (s *ShiftServiceImpl) resolveTarget(ctx context.Context, targetType shift.TargetType, targetID string) ([]string, error) {
	switch targetType {
	case shift.TargetDepartment:
		ids, err := s.directory.EmployeesInDepartment(ctx, targetID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve department employees: %w", err)
		}
		return ids, nil
	case shift.TargetPosition:
		ids, err := s.directory.EmployeesInPosition(ctx, targetID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve position employees: %w", err)
		}
		return ids, nil
	default:
		exists, err := s.directory.EmployeeExists(ctx, targetID)
		if err != nil {
			return nil, fmt.Errorf("failed to check employee: %w", err)
		}
		if !exists {
			return nil, shift.ErrNoTargetEmployees
		}
		return []string{targetID}, nil
	}
}

// TransitionAssignment implements shift.ShiftService.
func (s *ShiftServiceImpl) TransitionAssignment(ctx context.Context, req shift.TransitionAssignmentRequest) (shift.AssignmentResponse, error) {
	var result shift.ShiftAssignment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := s.assignmentRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if !shift.CanTransition(a.Status, req.Status) {
			return fmt.Errorf("%w: %s to %s", shift.ErrInvalidTransition, a.Status, req.Status)
		}

		if req.Status == shift.AssignmentApproved {
			overlap, err := s.assignmentRepo.HasApprovedOverlap(ctx, a.EmployeeID, a.StartDate, a.EndDate, a.ID)
			if err != nil {
				return fmt.Errorf("failed to check overlapping assignments: %w", err)
			}
			if overlap {
				return shift.ErrOverlappingAssignment
			}
		}

		if err := s.assignmentRepo.UpdateStatus(ctx, a.ID, a.Status, req.Status); err != nil {
			return err
		}

		actor := req.ActorID
		if actor == "" {
			actor = audit.ActorSystem
		}
		if err := s.auditRepo.Append(ctx, audit.Entry{
			EntityType: audit.EntityShiftAssignment,
			EntityID:   a.ID,
			Action:     "status_changed",
			By:         actor,
			At:         s.now(),
			Notes:      req.Notes,
			FromStatus: string(a.Status),
			ToStatus:   string(req.Status),
		}); err != nil {
			return fmt.Errorf("failed to write audit entry: %w", err)
		}

		a.Status = req.Status
		result = a
		return nil
	})
	if err != nil {
		return shift.AssignmentResponse{}, err
	}
	return shift.NewAssignmentResponse(result), nil
}

// ActiveAssignment implements shift.ShiftService.
func (s *ShiftServiceImpl) ActiveAssignment(ctx context.Context, employeeID string, at time.Time) (*shift.ShiftAssignment, error) {
	local := at.In(s.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	return s.assignmentRepo.FindApprovedCovering(ctx, employeeID, day)
}

// ExpireAssignments implements shift.ShiftService.
func (s *ShiftServiceImpl) ExpireAssignments(ctx context.Context) (int64, error) {
	local := s.now().In(s.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)

	n, err := s.assignmentRepo.ExpireEnded(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("failed to expire assignments: %w", err)
	}
	return n, nil
}

func NewShiftService(
	tx database.Transactor,
	shiftTypeRepo shift.ShiftTypeRepository,
	assignmentRepo shift.AssignmentRepository,
	auditRepo audit.Repository,
	directory org.Directory,
	loc *time.Location,
) shift.ShiftService {
	if loc == nil {
		loc = time.UTC
	}
	return &ShiftServiceImpl{
		tx:             tx,
		shiftTypeRepo:  shiftTypeRepo,
		assignmentRepo: assignmentRepo,
		auditRepo:      auditRepo,
		directory:      directory,
		loc:            loc,
		now:            time.Now,
	}
}
