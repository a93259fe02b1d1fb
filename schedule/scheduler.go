// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package schedule

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// RenderFunc performs one render pass. It runs on the Run goroutine and is
// never called concurrently with itself.
type RenderFunc func(ctx context.Context, t Trigger) error

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source. The default is SystemClock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFlush sets a function run on the loop goroutine before the scheduler
// decides whether to render. Scene hosts use it to apply queued mutations,
// which may call Notify.
func WithFlush(fn func()) Option {
	return func(s *Scheduler) { s.flush = fn }
}

// Stats are scheduler counters.
type Stats struct {
	Renders       int
	Failures      int
	Notifications int
	Coalesced     int
}

// Scheduler serializes render passes according to a Config.
type Scheduler struct {
	render RenderFunc
	flush  func()
	clock  Clock
	logger *slog.Logger

	wake chan struct{}

	mu       sync.Mutex
	m        *machine
	renders  int
	failures int
}

// New creates a scheduler that calls render when a trigger fires.
func New(cfg Config, render RenderFunc, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		render: render,
		clock:  SystemClock,
		logger: slog.New(slog.DiscardHandler),
		wake:   make(chan struct{}, 1),
		m:      newMachine(cfg),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Notify reports a content change. It may be called from any goroutine,
// including from inside the render or flush functions.
func (s *Scheduler) Notify() {
	s.mu.Lock()
	s.m.notify(s.clock.Now())
	s.mu.Unlock()
	s.Wake()
}

// Wake makes Run re-evaluate its state, e.g. after work was queued for the
// flush function.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.state()
}

// Stats returns a snapshot of the counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Renders:       s.renders,
		Failures:      s.failures,
		Notifications: s.m.notifications,
		Coalesced:     s.m.coalesced,
	}
}

// Run drives the scheduler until ctx is cancelled. The goroutine is locked
// to its OS thread for the duration, since render passes use a
// thread-affine GPU context. A render in progress is never interrupted;
// cancellation takes effect once it returns.
//
// Render errors are logged and absorbed. Run returns nil on cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.mu.Lock()
	s.m.start(s.clock.Now())
	s.mu.Unlock()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if s.flush != nil {
			s.flush()
		}

		s.mu.Lock()
		now := s.clock.Now()
		trigger, due := s.m.due(now)
		if due {
			s.m.begin(now)
			s.mu.Unlock()
			s.runPass(ctx, trigger)
			continue
		}
		deadline, timed := s.m.next()
		s.mu.Unlock()

		var timerC <-chan time.Time
		var timer Timer
		if timed {
			timer = s.clock.Timer(deadline)
			timerC = timer.C()
		}
		select {
		case <-ctx.Done():
		case <-s.wake:
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (s *Scheduler) runPass(ctx context.Context, t Trigger) {
	s.logger.Debug("render pass", "trigger", t)
	err := s.render(ctx, t)

	s.mu.Lock()
	s.m.finish()
	s.renders++
	if err != nil {
		s.failures++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("render pass failed", "trigger", t, "err", err)
	}
}
