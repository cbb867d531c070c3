package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu       sync.Mutex
	batches  int
	direct   int
	stored    []*notification.Notification
	batchErr  error
	createErr error
}

func (r *memoryRepo) Create(ctx context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.direct++
	r.stored = append(r.stored, n)
	return nil
}

func (r *memoryRepo) CreateBatch(ctx context.Context, ns []*notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.batchErr != nil {
		return r.batchErr
	}
	r.batches++
	r.stored = append(r.stored, ns...)
	return nil
}

func (r *memoryRepo) ListRecent(ctx context.Context, limit int) ([]*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*notification.Notification, 0, limit)
	for i := len(r.stored) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.stored[i])
	}
	return out, nil
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stored)
}

func hrNotice(title string) notification.CreateNotificationRequest {
	return notification.CreateNotificationRequest{
		Type:    notification.TypeRepeatedLateness,
		Title:   title,
		Message: "repeated lateness",
		Target:  notification.Target{Role: "hr"},
	}
}

func TestNotify_FlushesOnStop(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewNotificationService(repo, Config{BatchSize: 10, FlushInterval: time.Hour, WorkerCount: 1})

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Notify(context.Background(), hrNotice("late")))
	}
	svc.Stop()
	svc.Stop()

	assert.Equal(t, 3, repo.count())
	assert.Equal(t, 0, repo.direct)
}

func TestNotify_FlushesOnInterval(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewNotificationService(repo, Config{BatchSize: 10, FlushInterval: 10 * time.Millisecond, WorkerCount: 1})
	defer svc.Stop()

	require.NoError(t, svc.Notify(context.Background(), hrNotice("late")))

	assert.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestNotify_RequiresTarget(t *testing.T) {
	svc := NewNotificationService(&memoryRepo{}, Config{WorkerCount: 1})
	defer svc.Stop()

	err := svc.Notify(context.Background(), notification.CreateNotificationRequest{Title: "nobody"})
	assert.ErrorIs(t, err, notification.ErrNoTarget)
}

func TestNotify_AfterStopInsertsDirectly(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewNotificationService(repo, Config{WorkerCount: 1})
	svc.Stop()

	require.NoError(t, svc.Notify(context.Background(), hrNotice("late")))
	assert.Equal(t, 1, repo.direct)
}

func TestNotify_BatchFailureIsLogged(t *testing.T) {
	repo := &memoryRepo{batchErr: errors.New("db down")}
	svc := NewNotificationService(repo, Config{WorkerCount: 1, FlushInterval: time.Hour})

	require.NoError(t, svc.Notify(context.Background(), hrNotice("late")))
	svc.Stop()

	assert.Equal(t, 0, repo.count())
}

func TestNotify_ConcurrentWithStopLosesNothing(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewNotificationService(repo, Config{WorkerCount: 2, FlushInterval: time.Hour, QueueSize: 64})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.Notify(context.Background(), hrNotice("late")); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	svc.Stop()
	wg.Wait()

	assert.Equal(t, 200, accepted)
	assert.Equal(t, accepted, repo.count())
}

func TestNotifyNow_StoresBeforeReturning(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewNotificationService(repo, Config{WorkerCount: 1, FlushInterval: time.Hour})
	defer svc.Stop()

	require.NoError(t, svc.NotifyNow(context.Background(), hrNotice("late")))
	assert.Equal(t, 1, repo.direct)
	assert.Equal(t, 1, repo.count())
}

func TestNotifyNow_ReturnsStoreError(t *testing.T) {
	repo := &memoryRepo{createErr: errors.New("db down")}
	svc := NewNotificationService(repo, Config{WorkerCount: 1})
	defer svc.Stop()

	assert.EqualError(t, svc.NotifyNow(context.Background(), hrNotice("late")), "db down")
	assert.ErrorIs(t, svc.NotifyNow(context.Background(), notification.CreateNotificationRequest{Title: "x"}), notification.ErrNoTarget)
}

func TestListRecent(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewNotificationService(repo, Config{WorkerCount: 1, FlushInterval: time.Hour})
	require.NoError(t, svc.Notify(context.Background(), hrNotice("first")))
	require.NoError(t, svc.Notify(context.Background(), hrNotice("second")))
	svc.Stop()

	list, err := svc.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)
	assert.Equal(t, "hr", list[0].Target.Role)
}
