package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/google/uuid"
)

// Config holds notification service configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 5 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
}

type service struct {
	repo   notification.Repository
	config Config
	now    func() time.Time

	queue    chan notification.CreateNotificationRequest
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once

	// mu orders queue sends against Stop
	mu      sync.RWMutex
	stopped bool
}

// NewNotificationService creates a new notification service with background workers
func NewNotificationService(repo notification.Repository, cfg Config) notification.Service {
	// Set defaults
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}

	s := &service{
		repo:   repo,
		config: cfg,
		now:    time.Now,
		queue:  make(chan notification.CreateNotificationRequest, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	// Start background workers
	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("Notification service started",
		"workers", cfg.WorkerCount, "batch_size", cfg.BatchSize, "flush_interval", cfg.FlushInterval)

	return s
}

// worker is the background worker that processes notification queue
func (s *service) worker(id int) {
	defer s.wg.Done()

	batch := make([]notification.CreateNotificationRequest, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		notifications := make([]*notification.Notification, len(batch))
		for i, req := range batch {
			notifications[i] = s.toEntity(req)
		}

		if err := s.repo.CreateBatch(ctx, notifications); err != nil {
			slog.Error("Notification batch insert failed", "worker", id, "count", len(notifications), "error", err)
		} else {
			slog.Debug("Notification batch inserted", "worker", id, "count", len(notifications))
		}

		batch = batch[:0]
	}

	for {
		select {
		case req := <-s.queue:
			batch = append(batch, req)
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
			// Drain what is already queued before exiting
			for {
				select {
				case req := <-s.queue:
					batch = append(batch, req)
					if len(batch) >= s.config.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Notify queues a notification for async persistence
func (s *service) Notify(ctx context.Context, req notification.CreateNotificationRequest) error {
	if req.Target.IsEmpty() {
		return notification.ErrNoTarget
	}
	if s.enqueue(ctx, req) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// Queue full or stopped, try direct insert
	return s.directInsert(ctx, req)
}

// enqueue reports whether req was handed to the workers.
func (s *service) enqueue(ctx context.Context, req notification.CreateNotificationRequest) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return false
	}
	select {
	case s.queue <- req:
		return true
	case <-ctx.Done():
		return false
	default:
		return false
	}
}

// NotifyNow skips the queue and inserts before returning
func (s *service) NotifyNow(ctx context.Context, req notification.CreateNotificationRequest) error {
	if req.Target.IsEmpty() {
		return notification.ErrNoTarget
	}
	return s.directInsert(ctx, req)
}

// directInsert inserts a notification directly when queue is full
func (s *service) directInsert(ctx context.Context, req notification.CreateNotificationRequest) error {
	return s.repo.Create(ctx, s.toEntity(req))
}

func (s *service) toEntity(req notification.CreateNotificationRequest) *notification.Notification {
	return &notification.Notification{
		ID:        uuid.New().String(),
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Target:    req.Target,
		Data:      req.Data,
		CreatedAt: s.now(),
	}
}

// ListRecent returns the latest persisted notifications
func (s *service) ListRecent(ctx context.Context, limit int) ([]notification.NotificationResponse, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	notifications, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]notification.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = notification.NewNotificationResponse(n)
	}
	return responses, nil
}

// Stop flushes queued notifications and stops the workers
func (s *service) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		close(s.stopCh)
		s.mu.Unlock()

		s.wg.Wait()
		slog.Info("Notification service stopped")
	})
}
