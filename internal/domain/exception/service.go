package exception

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/audit"
)

type ExceptionService interface {
	// Create resolves the assignee, links any existing record of the day and
	// stores the exception as pending.
	Create(ctx context.Context, req CreateExceptionRequest) (ExceptionResponse, error)

	// AttachToAttendance links the exception to a record, clears the record's
	// finalised flag and approves the exception.
	AttachToAttendance(ctx context.Context, req AttachExceptionRequest) (ExceptionResponse, error)

	// Process applies a manual decision
	Process(ctx context.Context, req ProcessExceptionRequest) (ExceptionResponse, error)

	Get(ctx context.Context, id string) (ExceptionResponse, error)
	AuditTrail(ctx context.Context, id string) ([]audit.Entry, error)
}
