// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second
const tick = time.Millisecond

// pass records one render pass.
type pass struct {
	trigger Trigger
	at      time.Time
}

type recorder struct {
	clock *FakeClock

	mu     sync.Mutex
	passes []pass

	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	// hook runs inside the render pass, after it is recorded.
	hook func(n int) error
}

func (r *recorder) render(_ context.Context, t Trigger) error {
	cur := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		prev := r.maxInFlight.Load()
		if cur <= prev || r.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}

	r.mu.Lock()
	r.passes = append(r.passes, pass{trigger: t, at: r.clock.Now()})
	n := len(r.passes)
	r.mu.Unlock()

	if r.hook != nil {
		return r.hook(n)
	}
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.passes)
}

func (r *recorder) last() pass {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.passes[len(r.passes)-1]
}

// startScheduler runs a scheduler on a fake clock and waits for the
// startup timer to be armed.
func startScheduler(t *testing.T, cfg Config, rec *recorder, opts ...Option) *Scheduler {
	t.Helper()
	rec.clock = NewFakeClock(t0)
	opts = append([]Option{WithClock(rec.clock)}, opts...)
	s, err := New(cfg, rec.render, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(waitFor):
			t.Error("Run did not return after cancel")
		}
	})

	require.Eventually(t, func() bool { return rec.clock.Waiters() == 1 }, waitFor, tick)
	return s
}

// startup advances past the initial delay and waits for the startup pass
// to finish.
func startup(t *testing.T, s *Scheduler, rec *recorder) time.Time {
	t.Helper()
	rec.clock.Advance(DefaultInitialDelay)
	require.Eventually(t, func() bool { return rec.count() == 1 }, waitFor, tick)
	require.Eventually(t, func() bool { return s.State() == StateIdle }, waitFor, tick)
	assert.Equal(t, TriggerImmediate, rec.last().trigger)
	return rec.last().at
}

func TestSchedulerStartupRender(t *testing.T) {
	rec := &recorder{}
	s := startScheduler(t, DefaultConfig(), rec)
	assert.Equal(t, StatePending, s.State())

	rec.clock.Advance(ms(99))
	assert.Never(t, func() bool { return rec.count() > 0 }, 20*time.Millisecond, tick)

	rec.clock.Advance(ms(1))
	require.Eventually(t, func() bool { return rec.count() == 1 }, waitFor, tick)
	assert.Equal(t, pass{trigger: TriggerImmediate, at: t0.Add(ms(100))}, rec.last())
	require.Eventually(t, func() bool { return s.State() == StateIdle }, waitFor, tick)
}

func TestSchedulerDebounceBurst(t *testing.T) {
	rec := &recorder{}
	s := startScheduler(t, DefaultConfig(), rec)
	base := startup(t, s, rec)

	s.Notify()
	rec.clock.Advance(ms(30))
	s.Notify()
	rec.clock.Advance(ms(30))
	s.Notify()
	rec.clock.Advance(ms(99))

	// Only the timer for base+160ms can still be waiting.
	require.Eventually(t, func() bool { return rec.clock.Waiters() == 1 }, waitFor, tick)
	assert.Equal(t, 1, rec.count())

	rec.clock.Advance(ms(1))
	require.Eventually(t, func() bool { return rec.count() == 2 }, waitFor, tick)
	assert.Equal(t, pass{trigger: TriggerDebounced, at: base.Add(ms(160))}, rec.last())

	stats := s.Stats()
	assert.Equal(t, 3, stats.Notifications)
	assert.Equal(t, 2, stats.Coalesced)
}

func TestSchedulerAtMostOneInFlight(t *testing.T) {
	release := make(chan struct{})
	rec := &recorder{hook: func(n int) error {
		if n == 2 {
			<-release
		}
		return nil
	}}
	s := startScheduler(t, DefaultConfig(), rec)
	startup(t, s, rec)

	s.Notify()
	rec.clock.Advance(DefaultDebounceWindow)
	require.Eventually(t, func() bool { return s.State() == StateRendering }, waitFor, tick)

	s.Notify()
	s.Notify()
	assert.Equal(t, StateRendering, s.State())
	assert.Equal(t, 2, rec.count())

	close(release)
	require.Eventually(t, func() bool { return rec.count() == 3 }, waitFor, tick)
	assert.Equal(t, TriggerDebounced, rec.last().trigger)
	assert.Equal(t, int32(1), rec.maxInFlight.Load())

	assert.Never(t, func() bool { return rec.count() > 3 }, 20*time.Millisecond, tick)
}

func TestSchedulerAbsorbsFailures(t *testing.T) {
	rec := &recorder{hook: func(n int) error {
		if n == 1 {
			return errors.New("disk full")
		}
		return nil
	}}
	s := startScheduler(t, DefaultConfig(), rec)
	startup(t, s, rec)
	require.Eventually(t, func() bool { return s.Stats().Failures == 1 }, waitFor, tick)

	s.Notify()
	rec.clock.Advance(DefaultDebounceWindow)
	require.Eventually(t, func() bool { return rec.count() == 2 }, waitFor, tick)

	require.Eventually(t, func() bool { return s.Stats().Renders == 2 }, waitFor, tick)
	assert.Equal(t, 1, s.Stats().Failures)
}

func TestSchedulerPeriodic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModePeriodic
	rec := &recorder{}
	s := startScheduler(t, cfg, rec)
	start := startup(t, s, rec)

	s.Notify()
	require.Eventually(t, func() bool { return rec.clock.Waiters() == 1 }, waitFor, tick)
	rec.clock.Advance(ms(500))
	assert.Never(t, func() bool { return rec.count() > 1 }, 20*time.Millisecond, tick)

	rec.clock.Advance(ms(500))
	require.Eventually(t, func() bool { return rec.count() == 2 }, waitFor, tick)
	assert.Equal(t, pass{trigger: TriggerPeriodic, at: start.Add(time.Second)}, rec.last())
}

func TestSchedulerFlushBeforeRender(t *testing.T) {
	var flushes atomic.Int32
	var queued atomic.Bool
	var s *Scheduler

	rec := &recorder{}
	rec.hook = func(int) error {
		assert.Positive(t, flushes.Load(), "flush runs before every pass")
		return nil
	}
	s = startScheduler(t, DefaultConfig(), rec, WithFlush(func() {
		flushes.Add(1)
		if queued.CompareAndSwap(true, false) {
			s.Notify()
		}
	}))
	startup(t, s, rec)

	// A mutation queued from another goroutine is applied by the flush
	// function, which reports the change.
	queued.Store(true)
	s.Wake()
	require.Eventually(t, func() bool { return s.State() == StatePending }, waitFor, tick)

	rec.clock.Advance(DefaultDebounceWindow)
	require.Eventually(t, func() bool { return rec.count() == 2 }, waitFor, tick)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DebounceWindow = 0
	_, err := New(cfg, func(context.Context, Trigger) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFakeClock(t *testing.T) {
	c := NewFakeClock(t0)

	past := c.Timer(t0)
	select {
	case <-past.C():
	default:
		t.Fatal("timer at the current time should fire immediately")
	}

	late := c.Timer(t0.Add(ms(20)))
	early := c.Timer(t0.Add(ms(10)))
	stopped := c.Timer(t0.Add(ms(10)))
	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())
	assert.Equal(t, 2, c.Waiters())

	c.Advance(ms(10))
	assert.Equal(t, t0.Add(ms(10)), <-early.C())
	select {
	case <-late.C():
		t.Fatal("late timer fired early")
	default:
	}

	c.Advance(ms(15))
	assert.Equal(t, t0.Add(ms(25)), <-late.C())
	assert.Zero(t, c.Waiters())
}
