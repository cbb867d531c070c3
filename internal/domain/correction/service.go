package correction

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/audit"
)

type CorrectionService interface {
	// Submit files a request against the employee's own record and clears the
	// record's finalised flag.
	Submit(ctx context.Context, req SubmitCorrectionRequest) (CorrectionResponse, error)

	// Approve finalises the record again; Reject leaves it unfinalised.
	Approve(ctx context.Context, req DecideCorrectionRequest) (CorrectionResponse, error)
	Reject(ctx context.Context, req DecideCorrectionRequest) (CorrectionResponse, error)

	// Cancel withdraws a request that is still submitted
	Cancel(ctx context.Context, req DecideCorrectionRequest) (CorrectionResponse, error)

	Get(ctx context.Context, id string) (CorrectionResponse, error)
	AuditTrail(ctx context.Context, id string) ([]audit.Entry, error)
}
