// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/offscreen/render"
)

// Errors returned by surface contexts.
var (
	// ErrNotCurrent is returned when a GPU object is created or destroyed
	// while the context is not current.
	ErrNotCurrent = errors.New("surface: context is not current")

	// ErrAlreadyCurrent is returned by Acquire on a context that is
	// already current.
	ErrAlreadyCurrent = errors.New("surface: context is already current")

	// ErrClosed is returned when a closed context is used.
	ErrClosed = errors.New("surface: context closed")

	// ErrIncompatibleFormat is returned when a backend cannot provide the
	// requested surface format.
	ErrIncompatibleFormat = errors.New("surface: incompatible format")
)

// Context is a rendering device bound to a non-visible surface.
//
// Acquire makes the context current on the calling goroutine, locking it to
// its OS thread; Release undoes that. Every Acquire must be paired with a
// Release on every exit path. NewTarget, DefaultTarget and target Destroy
// calls are only valid between the two.
//
// A Context is not safe for concurrent use. It is owned by exactly one
// render loop.
type Context interface {
	render.Allocator

	// Backend returns the registry name of the backend.
	Backend() string

	// Format returns the fixed surface format.
	Format() Format

	// ColorFormat returns the texture format of color attachments.
	ColorFormat() gputypes.TextureFormat

	// Limits returns the device limits.
	Limits() Limits

	// Acquire makes the context current.
	Acquire() error

	// Release makes the context no longer current. Release on a context
	// that is not current is a no-op.
	Release()

	// IsCurrent reports whether the context is current.
	IsCurrent() bool

	// DefaultTarget returns the context-owned surface target resized to
	// width x height. It is the target the window-grab strategy renders
	// into; the context destroys it on Close.
	DefaultTarget(width, height int) (render.Target, error)

	// Close releases the device. Targets created by NewTarget must be
	// destroyed before Close.
	Close() error
}

// With acquires c, runs fn, and releases c whether or not fn fails.
func With(c Context, fn func() error) error {
	if err := c.Acquire(); err != nil {
		return err
	}
	defer c.Release()
	return fn()
}
