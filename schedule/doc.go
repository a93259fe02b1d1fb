// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package schedule decides when the offscreen pipeline renders.
//
// A [Scheduler] moves between three states:
//
//	Idle ──trigger──▶ Pending ──deadline──▶ Rendering ──done──▶ Idle
//
// Triggers come from startup ([TriggerImmediate]), a fixed cadence
// ([TriggerPeriodic]) or content-change notifications ([TriggerDebounced]).
// Notifications arriving within the debounce window coalesce into one
// render; each new notification pushes the deadline back.
//
// Renders run on the goroutine that calls [Scheduler.Run] and never
// overlap. A trigger that arrives while a render is in flight re-arms the
// scheduler so that one more render runs as soon as the current one
// returns.
//
// Time comes from a [Clock]. Tests use [FakeClock] to step time by hand.
package schedule
