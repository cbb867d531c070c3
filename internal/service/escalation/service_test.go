package escalation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/correction"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/exception"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/testfixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscalatePending(t *testing.T) {
	ctx := context.Background()
	clock := testfixtures.NewClock(time.Time{})
	corrections := testfixtures.NewCorrectionRepository(clock)
	exceptions := testfixtures.NewExceptionRepository(clock)
	auditRepo := testfixtures.NewAuditRepository()

	submitted, err := corrections.Create(ctx, correction.CorrectionRequest{EmployeeID: "emp-1", Status: correction.StatusSubmitted})
	require.NoError(t, err)
	approved, err := corrections.Create(ctx, correction.CorrectionRequest{EmployeeID: "emp-1", Status: correction.StatusApproved})
	require.NoError(t, err)
	pending, err := exceptions.Create(ctx, exception.TimeException{EmployeeID: "emp-2", Status: exception.StatusPending})
	require.NoError(t, err)
	_, err = exceptions.Create(ctx, exception.TimeException{EmployeeID: "emp-2", Status: exception.StatusPending})
	require.NoError(t, err)
	_, err = exceptions.Create(ctx, exception.TimeException{EmployeeID: "emp-2", Status: exception.StatusCancelled})
	require.NoError(t, err)

	svc := NewEscalationService(&testfixtures.Transactor{}, corrections, exceptions, auditRepo).(*service)
	svc.now = clock.Now

	result, err := svc.EscalatePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Corrections)
	assert.Equal(t, 2, result.Exceptions)

	got, err := corrections.GetByID(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, correction.StatusEscalated, got.Status)

	untouched, err := corrections.GetByID(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, correction.StatusApproved, untouched.Status)

	entries, err := auditRepo.ListByEntity(ctx, audit.EntityTimeException, pending.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActorSystem, entries[0].By)
	assert.Equal(t, "escalated", entries[0].ToStatus)
	assert.Equal(t, clock.Now(), entries[0].At)
	assert.Len(t, auditRepo.All(), 3)

	again, err := svc.EscalatePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Corrections+again.Exceptions)
}

func TestEscalatePending_TransactionFailure(t *testing.T) {
	clock := testfixtures.NewClock(time.Time{})
	svc := NewEscalationService(
		&testfixtures.Transactor{Err: errors.New("begin failed")},
		testfixtures.NewCorrectionRepository(clock),
		testfixtures.NewExceptionRepository(clock),
		testfixtures.NewAuditRepository(),
	)

	_, err := svc.EscalatePending(context.Background())
	assert.ErrorContains(t, err, "begin failed")
}
