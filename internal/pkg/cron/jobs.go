package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/escalation"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/lateness"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/offlinesync"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/shift"
)

// Job names, also accepted by the manual trigger endpoint
const (
	JobOfflineSync       = "offline_sync"
	JobEscalation        = "escalate_pending_requests"
	JobLatenessDetection = "detect_repeated_lateness"
	JobPayrollSync       = "payroll_sync"
	JobAssignmentExpiry  = "expire_shift_assignments"
)

// JobsConfig holds the interval of every engine job and the lateness rule
type JobsConfig struct {
	OfflineSyncInterval time.Duration
	EscalationInterval  time.Duration
	LatenessInterval    time.Duration
	PayrollInterval     time.Duration
	AssignmentInterval  time.Duration

	LatenessThreshold  int
	LatenessWindowDays int
	LatenessNotifyRole string
}

type EngineJobs struct {
	offlineQueue  offlinesync.Service
	escalationSvc escalation.Service
	latenessSvc   lateness.Service
	payrollSvc    payroll.Service
	shiftSvc      shift.ShiftService
	config        JobsConfig
}

func NewEngineJobs(
	offlineQueue offlinesync.Service,
	escalationSvc escalation.Service,
	latenessSvc lateness.Service,
	payrollSvc payroll.Service,
	shiftSvc shift.ShiftService,
	cfg JobsConfig,
) *EngineJobs {
	return &EngineJobs{
		offlineQueue:  offlineQueue,
		escalationSvc: escalationSvc,
		latenessSvc:   latenessSvc,
		payrollSvc:    payrollSvc,
		shiftSvc:      shiftSvc,
		config:        cfg,
	}
}

func (j *EngineJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(JobOfflineSync, j.config.OfflineSyncInterval, j.ProcessOfflineQueue)
	scheduler.AddJob(JobEscalation, j.config.EscalationInterval, j.EscalatePendingRequests, WithoutInitialRun())
	scheduler.AddJob(JobLatenessDetection, j.config.LatenessInterval, j.DetectRepeatedLateness, WithoutInitialRun())
	scheduler.AddJob(JobPayrollSync, j.config.PayrollInterval, j.SyncPayroll, WithoutInitialRun())
	scheduler.AddJob(JobAssignmentExpiry, j.config.AssignmentInterval, j.ExpireAssignments)
}

func (j *EngineJobs) ProcessOfflineQueue(ctx context.Context) error {
	result, err := j.offlineQueue.Process(ctx)
	if err != nil {
		return fmt.Errorf("offline sync interrupted: %w", err)
	}
	if result.Dropped > 0 {
		slog.Warn("Cron: Offline punches dropped", "count", result.Dropped)
	}
	return nil
}

func (j *EngineJobs) EscalatePendingRequests(ctx context.Context) error {
	slog.Info("Cron: Starting escalation of pending requests")

	result, err := j.escalationSvc.EscalatePending(ctx)
	if err != nil {
		return fmt.Errorf("failed to escalate pending requests: %w", err)
	}

	slog.Info("Cron: Escalation completed",
		"corrections", result.Corrections,
		"exceptions", result.Exceptions)
	return nil
}

func (j *EngineJobs) DetectRepeatedLateness(ctx context.Context) error {
	slog.Info("Cron: Starting repeated lateness detection")

	result, err := j.latenessSvc.Detect(ctx, lateness.DetectRequest{
		Threshold:  j.config.LatenessThreshold,
		WindowDays: j.config.LatenessWindowDays,
		Targets:    notification.Target{Role: j.config.LatenessNotifyRole},
	})
	if err != nil {
		return fmt.Errorf("failed to detect repeated lateness: %w", err)
	}

	slog.Info("Cron: Lateness detection completed",
		"at_or_above", len(result.AtOrAbove),
		"notified", len(result.Notified))
	return nil
}

func (j *EngineJobs) SyncPayroll(ctx context.Context) error {
	slog.Info("Cron: Starting payroll sync")

	result, err := j.payrollSvc.Sync(ctx, payroll.SyncRequest{})
	if err != nil {
		return fmt.Errorf("failed to build payroll payload: %w", err)
	}
	if result.Error != "" {
		slog.Error("Cron: Payroll sync not delivered", "error", result.Error)
		return nil
	}

	slog.Info("Cron: Payroll sync completed",
		"transmitted", result.Transmitted,
		"status", result.StatusCode,
		"attendance", len(result.Payload.Attendance),
		"exceptions", len(result.Payload.Exceptions))
	return nil
}

func (j *EngineJobs) ExpireAssignments(ctx context.Context) error {
	n, err := j.shiftSvc.ExpireAssignments(ctx)
	if err != nil {
		return fmt.Errorf("failed to expire shift assignments: %w", err)
	}
	if n > 0 {
		slog.Info("Cron: Shift assignments expired", "count", n)
	}
	return nil
}
