package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsImmediatelyAndOnTicks(t *testing.T) {
	s := NewScheduler()
	var runs atomic.Int32
	s.AddJob("tick", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "job ran after Stop")
}

func TestScheduler_WithoutInitialRun(t *testing.T) {
	s := NewScheduler()
	var runs atomic.Int32
	s.AddJob("daily", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, WithoutInitialRun())

	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	assert.Equal(t, int32(0), runs.Load())
}

func TestScheduler_DisabledJob(t *testing.T) {
	s := NewScheduler()
	var runs atomic.Int32
	s.AddJob("off", 0, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	assert.Equal(t, int32(0), runs.Load())

	// still runnable on demand
	require.NoError(t, s.RunNow(context.Background(), "off"))
	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_RunNow(t *testing.T) {
	s := NewScheduler()
	boom := errors.New("boom")
	s.AddJob("failing", time.Hour, func(ctx context.Context) error { return boom })

	assert.ErrorIs(t, s.RunNow(context.Background(), "failing"), boom)
	assert.ErrorIs(t, s.RunNow(context.Background(), "missing"), ErrJobNotFound)
}

func TestScheduler_RunOnce(t *testing.T) {
	s := NewScheduler()
	var a, b atomic.Int32
	s.AddJob("a", time.Hour, func(ctx context.Context) error { a.Add(1); return nil })
	s.AddJob("b", time.Hour, func(ctx context.Context) error { b.Add(1); return errors.New("ignored") })

	s.RunOnce(context.Background())
	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(1), b.Load())
}
