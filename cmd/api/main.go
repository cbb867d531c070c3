package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/config"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/offlinesync"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/logger"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/payrollclient"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-attendance-engine/internal/service/attendance"
	correctionService "github.com/cmlabs-hris/hris-attendance-engine/internal/service/correction"
	escalationService "github.com/cmlabs-hris/hris-attendance-engine/internal/service/escalation"
	exceptionService "github.com/cmlabs-hris/hris-attendance-engine/internal/service/exception"
	latenessService "github.com/cmlabs-hris/hris-attendance-engine/internal/service/lateness"
	notificationService "github.com/cmlabs-hris/hris-attendance-engine/internal/service/notification"
	offlineSyncService "github.com/cmlabs-hris/hris-attendance-engine/internal/service/offlinesync"
	payrollService "github.com/cmlabs-hris/hris-attendance-engine/internal/service/payroll"
	shiftService "github.com/cmlabs-hris/hris-attendance-engine/internal/service/shift"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Attendance engine stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	loc := cfg.Location()

	// Repositories
	tx := postgresql.NewTransactor(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	shiftTypeRepo := postgresql.NewShiftTypeRepository(db)
	assignmentRepo := postgresql.NewAssignmentRepository(db)
	correctionRepo := postgresql.NewCorrectionRepository(db)
	exceptionRepo := postgresql.NewExceptionRepository(db)
	auditRepo := postgresql.NewAuditRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	markerRepo := postgresql.NewLatenessMarkerRepository(db)
	directory := postgresql.NewOrgDirectory(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	notificationSvc := notificationService.NewNotificationService(notificationRepo, notificationService.Config{
		BatchSize:     cfg.Notification.BatchSize,
		FlushInterval: cfg.Notification.FlushInterval,
		WorkerCount:   cfg.Notification.WorkerCount,
		QueueSize:     cfg.Notification.QueueSize,
	})
	defer notificationSvc.Stop()

	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, assignmentRepo, notificationSvc, loc)
	shiftSvc := shiftService.NewShiftService(tx, shiftTypeRepo, assignmentRepo, auditRepo, directory, loc)
	correctionSvc := correctionService.NewCorrectionService(tx, correctionRepo, attendanceRepo, auditRepo, notificationSvc, cfg.Workflow.ReviewerRole)
	exceptionSvc := exceptionService.NewExceptionService(tx, exceptionRepo, attendanceRepo, auditRepo, directory, notificationSvc, loc)
	escalationSvc := escalationService.NewEscalationService(tx, correctionRepo, exceptionRepo, auditRepo)
	latenessSvc := latenessService.NewLatenessService(exceptionRepo, markerRepo, directory, notificationSvc)

	var exporter payroll.Exporter
	if cfg.Payroll.SyncURL != "" {
		exporter = payrollclient.New(payrollclient.Config{
			URL:       cfg.Payroll.SyncURL,
			AuthToken: cfg.Payroll.AuthToken,
			Timeout:   cfg.Payroll.Timeout,
		})
	} else {
		slog.Warn("PAYROLL_SYNC_URL is not set, payroll sync will only build payloads")
	}
	payrollSvc := payrollService.NewPayrollService(attendanceRepo, exceptionRepo, exporter, loc)

	var offlineStore offlinesync.Store
	if cfg.OfflineSync.Persist {
		offlineStore = postgresql.NewOfflineQueueStore(db)
	}
	offlineQueue := offlineSyncService.NewQueue(attendanceSvc, offlineStore, notificationSvc, offlineSyncService.Config{
		Capacity:    cfg.OfflineSync.QueueCapacity,
		MaxAttempts: cfg.OfflineSync.MaxAttempts,
	})
	if _, err := offlineQueue.Restore(ctx); err != nil {
		slog.Error("Failed to restore offline queue", "error", err)
	}

	// Background jobs
	scheduler := cron.NewScheduler()
	engineJobs := cron.NewEngineJobs(offlineQueue, escalationSvc, latenessSvc, payrollSvc, shiftSvc, cron.JobsConfig{
		OfflineSyncInterval: cfg.OfflineSync.Interval,
		EscalationInterval:  cfg.Workflow.EscalationInterval,
		LatenessInterval:    cfg.Workflow.LatenessInterval,
		PayrollInterval:     cfg.Payroll.Interval,
		AssignmentInterval:  cfg.Workflow.AssignmentInterval,
		LatenessThreshold:   cfg.Workflow.LatenessThreshold,
		LatenessWindowDays:  cfg.Workflow.LatenessWindowDays,
		LatenessNotifyRole:  cfg.Workflow.LatenessNotifyRole,
	})
	engineJobs.RegisterJobs(scheduler)

	router := appHTTP.NewRouter(JWTService, appHTTP.Handlers{
		Attendance:   appHTTP.NewAttendanceHandler(attendanceSvc),
		OfflineQueue: appHTTP.NewOfflineQueueHandler(offlineQueue),
		Shift:        appHTTP.NewShiftHandler(shiftSvc),
		Correction:   appHTTP.NewCorrectionHandler(correctionSvc),
		Exception:    appHTTP.NewExceptionHandler(exceptionSvc),
		Lateness:     appHTTP.NewLatenessHandler(latenessSvc, cfg.Workflow.LatenessThreshold, cfg.Workflow.LatenessWindowDays),
		Notification: appHTTP.NewNotificationHandler(notificationSvc),
		Admin:        appHTTP.NewAdminHandler(payrollSvc, scheduler),
	}, appHTTP.RouterConfig{
		AllowedOrigins: cfg.App.AllowedOrigins,
		Logger:         log,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server running", "addr", server.Addr, "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		scheduler.Stop()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
