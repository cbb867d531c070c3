package escalation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/correction"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/escalation"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/exception"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
)

type service struct {
	tx             database.Transactor
	correctionRepo correction.Repository
	exceptionRepo  exception.Repository
	auditRepo      audit.Repository
	now            func() time.Time
}

// EscalatePending implements escalation.Service. The sweep ignores age and
// severity and flips every open item.
func (s *service) EscalatePending(ctx context.Context) (escalation.Result, error) {
	var result escalation.Result
	at := s.now()

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		correctionIDs, err := s.correctionRepo.EscalateSubmitted(ctx, at)
		if err != nil {
			return fmt.Errorf("failed to escalate correction requests: %w", err)
		}
		for _, id := range correctionIDs {
			if err := s.auditRepo.Append(ctx, audit.Entry{
				EntityType: audit.EntityCorrectionRequest,
				EntityID:   id,
				Action:     "escalated",
				By:         audit.ActorSystem,
				At:         at,
				FromStatus: string(correction.StatusSubmitted),
				ToStatus:   string(correction.StatusEscalated),
			}); err != nil {
				return fmt.Errorf("failed to write audit entry: %w", err)
			}
		}

		exceptionIDs, err := s.exceptionRepo.EscalatePending(ctx, at)
		if err != nil {
			return fmt.Errorf("failed to escalate time exceptions: %w", err)
		}
		for _, id := range exceptionIDs {
			if err := s.auditRepo.Append(ctx, audit.Entry{
				EntityType: audit.EntityTimeException,
				EntityID:   id,
				Action:     "escalated",
				By:         audit.ActorSystem,
				At:         at,
				FromStatus: string(exception.StatusPending),
				ToStatus:   string(exception.StatusEscalated),
			}); err != nil {
				return fmt.Errorf("failed to write audit entry: %w", err)
			}
		}

		result = escalation.Result{Corrections: len(correctionIDs), Exceptions: len(exceptionIDs)}
		return nil
	})
	if err != nil {
		return escalation.Result{}, err
	}

	slog.Info("Escalation sweep completed", "corrections", result.Corrections, "exceptions", result.Exceptions)
	return result, nil
}

func NewEscalationService(
	tx database.Transactor,
	correctionRepo correction.Repository,
	exceptionRepo exception.Repository,
	auditRepo audit.Repository,
) escalation.Service {
	return &service{
		tx:             tx,
		correctionRepo: correctionRepo,
		exceptionRepo:  exceptionRepo,
		auditRepo:      auditRepo,
		now:            time.Now,
	}
}
