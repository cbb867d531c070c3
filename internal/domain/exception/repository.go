package exception

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, e TimeException) (TimeException, error)
	GetByID(ctx context.Context, id string) (TimeException, error)

	// Transition moves the exception from one status to another. It returns
	// ErrInvalidTransition when the stored status is no longer from.
	Transition(ctx context.Context, id string, from, to Status, processedBy string, at time.Time) (TimeException, error)

	SetAttendance(ctx context.Context, id string, attendanceID string) error

	// EscalatePending moves every pending exception to escalated and returns
	// the IDs it changed.
	EscalatePending(ctx context.Context, at time.Time) ([]string, error)

	// ListByTypeCreatedBetween returns exceptions of type t created in [start, end)
	ListByTypeCreatedBetween(ctx context.Context, t Type, start, end time.Time) ([]TimeException, error)

	// ListApprovedCreatedBetween returns approved exceptions created in [start, end)
	ListApprovedCreatedBetween(ctx context.Context, start, end time.Time) ([]TimeException, error)
}
