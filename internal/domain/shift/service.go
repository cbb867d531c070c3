package shift

import (
	"context"
	"time"
)

type ShiftService interface {
	CreateShiftType(ctx context.Context, req CreateShiftTypeRequest) (ShiftTypeResponse, error)
	GetShiftType(ctx context.Context, id string) (ShiftTypeResponse, error)
	ListShiftTypes(ctx context.Context) ([]ShiftTypeResponse, error)

	// CreateAssignments expands the target to employees and creates one
	// assignment per employee in the entered status.
	CreateAssignments(ctx context.Context, req CreateAssignmentRequest) ([]AssignmentResponse, error)

	// TransitionAssignment applies a status change. Approval is rejected when
	// it would overlap another approved assignment.
	TransitionAssignment(ctx context.Context, req TransitionAssignmentRequest) (AssignmentResponse, error)

	// ActiveAssignment returns the approved assignment covering at, or nil.
	ActiveAssignment(ctx context.Context, employeeID string, at time.Time) (*ShiftAssignment, error)

	// ExpireAssignments expires approved assignments that ended before today
	ExpireAssignments(ctx context.Context) (int64, error)
}
