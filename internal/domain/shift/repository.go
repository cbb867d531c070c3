package shift

import (
	"context"
	"time"
)

type ShiftTypeRepository interface {
	Create(ctx context.Context, st ShiftType) (ShiftType, error)
	GetByID(ctx context.Context, id string) (ShiftType, error)
	List(ctx context.Context) ([]ShiftType, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, a ShiftAssignment) (ShiftAssignment, error)
	GetByID(ctx context.Context, id string) (ShiftAssignment, error)

	// UpdateStatus moves the assignment from one status to another. It returns
	// ErrInvalidTransition when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to AssignmentStatus) error

	// FindApprovedCovering returns the approved assignment of employeeID that
	// covers day, with its ShiftType populated, or nil when there is none.
	FindApprovedCovering(ctx context.Context, employeeID string, day time.Time) (*ShiftAssignment, error)

	// HasApprovedOverlap reports whether another approved assignment of the
	// employee intersects [start, end].
	HasApprovedOverlap(ctx context.Context, employeeID string, start, end time.Time, excludeID string) (bool, error)

	// ExpireEnded moves approved assignments whose end date is before day to expired
	ExpireEnded(ctx context.Context, day time.Time) (int64, error)
}
