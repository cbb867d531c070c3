package correction

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, req CorrectionRequest) (CorrectionRequest, error)
	GetByID(ctx context.Context, id string) (CorrectionRequest, error)

	// Transition moves the request from one status to another and records the
	// decision fields. It returns ErrInvalidTransition when the stored status
	// is no longer from.
	Transition(ctx context.Context, id string, from, to Status, decidedBy *string, notes *string, at time.Time) (CorrectionRequest, error)

	// EscalateSubmitted moves every submitted request to escalated and returns
	// the IDs it changed.
	EscalateSubmitted(ctx context.Context, at time.Time) ([]string, error)
}
