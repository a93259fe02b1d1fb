// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package schedule

import "time"

// machine is the scheduler state without goroutines or clocks. Every method
// takes the current time explicitly.
type machine struct {
	cfg Config

	startPending bool
	startAt      time.Time

	tickAt time.Time

	dirty      bool
	debounceAt time.Time

	rendering bool
	rearm     bool
	rearmWith Trigger

	notifications int
	coalesced     int
}

func newMachine(cfg Config) *machine {
	return &machine{cfg: cfg}
}

// start arms the startup render and the first periodic tick.
func (m *machine) start(now time.Time) {
	m.startPending = true
	m.startAt = now.Add(m.cfg.InitialDelay)
	if m.cfg.Mode.periodic() {
		m.tickAt = m.startAt.Add(m.cfg.PeriodicInterval)
	}
}

// notify records a content change. Inside the debounce window the deadline
// is pushed back; during a render the scheduler is re-armed instead.
func (m *machine) notify(now time.Time) {
	if !m.cfg.Mode.debounced() {
		return
	}
	m.notifications++
	if m.rendering {
		if m.rearm {
			m.coalesced++
		}
		m.rearm = true
		m.rearmWith = TriggerDebounced
		return
	}
	if m.dirty || m.startPending {
		m.coalesced++
	}
	m.dirty = true
	m.debounceAt = now.Add(m.cfg.DebounceWindow)
}

// due reports the trigger that should render now, if any.
func (m *machine) due(now time.Time) (Trigger, bool) {
	switch {
	case m.rendering:
		return 0, false
	case m.rearm:
		return m.rearmWith, true
	case m.startPending && !now.Before(m.startAt):
		return TriggerImmediate, true
	case m.cfg.Mode.periodic() && !m.startPending && !now.Before(m.tickAt):
		return TriggerPeriodic, true
	case m.dirty && !now.Before(m.debounceAt):
		return TriggerDebounced, true
	}
	return 0, false
}

// next returns the earliest future deadline. ok is false when nothing is
// scheduled and only a notification can wake the scheduler.
func (m *machine) next() (deadline time.Time, ok bool) {
	if m.rendering {
		return time.Time{}, false
	}
	earliest := func(t time.Time) {
		if !ok || t.Before(deadline) {
			deadline, ok = t, true
		}
	}
	if m.startPending {
		earliest(m.startAt)
	} else if m.cfg.Mode.periodic() {
		earliest(m.tickAt)
	}
	if m.dirty {
		earliest(m.debounceAt)
	}
	return deadline, ok
}

// begin enters Rendering. The render observes every change made so far, so
// all pending conditions are consumed; a periodic tick that fell due is
// advanced past now, dropping missed ticks.
func (m *machine) begin(now time.Time) {
	m.rendering = true
	m.rearm = false
	m.dirty = false
	m.startPending = false
	if m.cfg.Mode.periodic() {
		for !now.Before(m.tickAt) {
			m.tickAt = m.tickAt.Add(m.cfg.PeriodicInterval)
		}
	}
}

// finish leaves Rendering. A re-armed trigger stays pending.
func (m *machine) finish() {
	m.rendering = false
}

func (m *machine) state() State {
	switch {
	case m.rendering:
		return StateRendering
	case m.rearm || m.startPending || m.dirty:
		return StatePending
	}
	return StateIdle
}
