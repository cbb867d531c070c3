package cron

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrJobNotFound = errors.New("cron job not found")

// Job represents a scheduled job
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error

	// SkipInitialRun waits one interval before the first execution
	SkipInitialRun bool
}

// JobOption customises a job at registration
type JobOption func(*Job)

// WithoutInitialRun delays the first execution by one interval
func WithoutInitialRun() JobOption {
	return func(j *Job) { j.SkipInitialRun = true }
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	jobs   []Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex

	// running serialises executions of the same job, scheduled or manual
	running map[string]*sync.Mutex
}

// NewScheduler creates a new cron scheduler
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:    make([]Job, 0),
		ctx:     ctx,
		cancel:  cancel,
		running: make(map[string]*sync.Mutex),
	}
}

// AddJob adds a job to the scheduler. A non-positive interval disables it.
func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error, opts ...JobOption) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := Job{
		Name:     name,
		Interval: interval,
		Fn:       fn,
	}
	for _, opt := range opts {
		opt(&job)
	}

	s.jobs = append(s.jobs, job)
	s.running[name] = &sync.Mutex{}
	slog.Info("Cron job registered", "name", name, "interval", interval)
}

// Start begins running all scheduled jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := 0
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			slog.Info("Cron job disabled", "name", job.Name)
			continue
		}
		s.wg.Add(1)
		started++
		go s.runJob(job)
	}

	slog.Info("Cron scheduler started", "job_count", started)
}

// Stop gracefully stops all scheduled jobs. A job already executing finishes
// its current item before returning.
func (s *Scheduler) Stop() {
	slog.Info("Stopping cron scheduler...")
	s.cancel()
	s.wg.Wait()
	slog.Info("Cron scheduler stopped")
}

// runJob runs a single job on its schedule
func (s *Scheduler) runJob(job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	if !job.SkipInitialRun {
		s.executeJob(s.ctx, job)
	}

	for {
		select {
		case <-s.ctx.Done():
			slog.Info("Cron job stopping", "name", job.Name)
			return
		case <-ticker.C:
			s.executeJob(s.ctx, job)
		}
	}
}

// executeJob executes a job and logs results
func (s *Scheduler) executeJob(ctx context.Context, job Job) error {
	lock := s.lockFor(job.Name)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	slog.Debug("Cron job starting", "name", job.Name)

	err := job.Fn(ctx)
	if err != nil {
		slog.Error("Cron job failed", "name", job.Name, "error", err, "duration", time.Since(start))
	} else {
		slog.Debug("Cron job completed", "name", job.Name, "duration", time.Since(start))
	}
	return err
}

func (s *Scheduler) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[name]
}

// RunNow executes the named job synchronously and returns its error
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	var found *Job
	for i := range s.jobs {
		if s.jobs[i].Name == name {
			found = &s.jobs[i]
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		return ErrJobNotFound
	}
	return s.executeJob(ctx, *found)
}

// RunOnce runs all jobs once (useful for testing)
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	for _, job := range jobs {
		_ = s.executeJob(ctx, job)
	}
}
