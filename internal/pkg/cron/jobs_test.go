package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/escalation"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/lateness"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/offlinesync"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/shift"
)

type stubQueue struct {
	offlinesync.Service
	err error
}

func (s *stubQueue) Process(ctx context.Context) (offlinesync.ProcessResult, error) {
	return offlinesync.ProcessResult{Synced: 1}, s.err
}

type stubEscalation struct{ calls int }

func (s *stubEscalation) EscalatePending(ctx context.Context) (escalation.Result, error) {
	s.calls++
	return escalation.Result{Corrections: 1}, nil
}

type stubLateness struct {
	lateness.Service
	got lateness.DetectRequest
}

func (s *stubLateness) Detect(ctx context.Context, req lateness.DetectRequest) (lateness.DetectResult, error) {
	s.got = req
	return lateness.DetectResult{}, nil
}

type stubPayroll struct{ result payroll.SyncResult }

func (s *stubPayroll) Sync(ctx context.Context, req payroll.SyncRequest) (payroll.SyncResult, error) {
	return s.result, nil
}

type stubShifts struct {
	shift.ShiftService
	err error
}

func (s *stubShifts) ExpireAssignments(ctx context.Context) (int64, error) {
	return 2, s.err
}

func newJobs() (*EngineJobs, *stubLateness, *stubPayroll, *stubShifts) {
	lat := &stubLateness{}
	pay := &stubPayroll{}
	shifts := &stubShifts{}
	jobs := NewEngineJobs(&stubQueue{}, &stubEscalation{}, lat, pay, shifts, JobsConfig{
		OfflineSyncInterval: time.Minute,
		LatenessThreshold:   3,
		LatenessWindowDays:  30,
		LatenessNotifyRole:  "hr",
	})
	return jobs, lat, pay, shifts
}

func TestEngineJobs_LatenessUsesConfiguredRule(t *testing.T) {
	jobs, lat, _, _ := newJobs()

	require.NoError(t, jobs.DetectRepeatedLateness(context.Background()))
	assert.Equal(t, 3, lat.got.Threshold)
	assert.Equal(t, 30, lat.got.WindowDays)
	assert.Equal(t, "hr", lat.got.Targets.Role)
}

func TestEngineJobs_PayrollDeliveryFailureIsNotJobFailure(t *testing.T) {
	jobs, _, pay, _ := newJobs()
	pay.result = payroll.SyncResult{Error: payroll.ErrExporterUnavailable.Error()}

	assert.NoError(t, jobs.SyncPayroll(context.Background()))
}

func TestEngineJobs_ExpiryErrorWrapped(t *testing.T) {
	jobs, _, _, shifts := newJobs()
	shifts.err = errors.New("db down")

	err := jobs.ExpireAssignments(context.Background())
	assert.ErrorIs(t, err, shifts.err)
}

func TestEngineJobs_RegisterAndTrigger(t *testing.T) {
	jobs, _, _, _ := newJobs()
	s := NewScheduler()
	jobs.RegisterJobs(s)

	for _, name := range []string{JobOfflineSync, JobEscalation, JobLatenessDetection, JobPayrollSync} {
		assert.NoError(t, s.RunNow(context.Background(), name), name)
	}
}
