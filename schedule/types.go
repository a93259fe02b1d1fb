// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode selects which triggers drive rendering.
type Mode int

const (
	// ModeDebounced renders once after a burst of change notifications
	// quiesces.
	ModeDebounced Mode = iota

	// ModePeriodic renders on a fixed cadence and ignores notifications.
	ModePeriodic

	// ModeHybrid combines periodic ticks with debounced notifications.
	ModeHybrid
)

var modeNames = [...]string{
	ModeDebounced: "debounced",
	ModePeriodic:  "periodic",
	ModeHybrid:    "hybrid",
}

// String returns the mode name.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(m), nil
		}
	}
	return 0, fmt.Errorf("schedule: unknown mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Mode) periodic() bool  { return m == ModePeriodic || m == ModeHybrid }
func (m Mode) debounced() bool { return m == ModeDebounced || m == ModeHybrid }

// Trigger is the cause of a render pass.
type Trigger int

const (
	TriggerImmediate Trigger = iota
	TriggerPeriodic
	TriggerDebounced
)

func (t Trigger) String() string {
	switch t {
	case TriggerImmediate:
		return "immediate"
	case TriggerPeriodic:
		return "periodic"
	case TriggerDebounced:
		return "debounced"
	}
	return fmt.Sprintf("Trigger(%d)", int(t))
}

// State is the scheduler state.
type State int

const (
	StateIdle State = iota
	StatePending
	StateRendering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateRendering:
		return "rendering"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Default cadence values.
const (
	DefaultDebounceWindow   = 100 * time.Millisecond
	DefaultPeriodicInterval = 1000 * time.Millisecond
	DefaultInitialDelay     = 100 * time.Millisecond
)

// Config holds the render cadence.
type Config struct {
	Mode Mode

	// DebounceWindow is the quiet period required after the last change
	// notification before a debounced render.
	DebounceWindow time.Duration

	// PeriodicInterval is the tick period in periodic and hybrid modes.
	PeriodicInterval time.Duration

	// InitialDelay is the delay before the forced startup render.
	InitialDelay time.Duration
}

// DefaultConfig returns the debounced cadence with default durations.
func DefaultConfig() Config {
	return Config{
		Mode:             ModeDebounced,
		DebounceWindow:   DefaultDebounceWindow,
		PeriodicInterval: DefaultPeriodicInterval,
		InitialDelay:     DefaultInitialDelay,
	}
}

// ErrInvalidConfig is returned for an unusable cadence.
var ErrInvalidConfig = errors.New("schedule: invalid config")

// Validate checks the durations required by the mode.
func (c Config) Validate() error {
	if c.Mode < ModeDebounced || c.Mode > ModeHybrid {
		return fmt.Errorf("%w: mode %v", ErrInvalidConfig, c.Mode)
	}
	if c.Mode.debounced() && c.DebounceWindow <= 0 {
		return fmt.Errorf("%w: debounce window %v", ErrInvalidConfig, c.DebounceWindow)
	}
	if c.Mode.periodic() && c.PeriodicInterval <= 0 {
		return fmt.Errorf("%w: periodic interval %v", ErrInvalidConfig, c.PeriodicInterval)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("%w: initial delay %v", ErrInvalidConfig, c.InitialDelay)
	}
	return nil
}
