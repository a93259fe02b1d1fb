// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Common errors returned by target allocation.
var (
	// ErrInvalidDimensions is returned when width, height or sample count
	// is not positive.
	ErrInvalidDimensions = errors.New("render: invalid dimensions")

	// ErrTargetTooLarge is returned when a requested target exceeds the
	// device texture limits.
	ErrTargetTooLarge = errors.New("render: target exceeds device limits")

	// ErrTargetDestroyed is returned when a destroyed target is used.
	ErrTargetDestroyed = errors.New("render: target destroyed")

	// ErrSizeMismatch is returned when an uploaded layer does not match
	// the target's paint size.
	ErrSizeMismatch = errors.New("render: layer size mismatch")
)

// TargetDescriptor describes a render target to allocate.
// This mirrors the subset of the WebGPU GPUTextureDescriptor the pipeline needs.
type TargetDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Width is the target width in pixels.
	Width int

	// Height is the target height in pixels.
	Height int

	// SampleCount is the number of samples per pixel.
	// Use 1 for no multisampling.
	SampleCount int

	// Format is the color attachment format.
	Format gputypes.TextureFormat

	// DepthStencil requests a depth/stencil attachment alongside the color
	// buffer. CPU targets ignore it.
	DepthStencil bool
}

// DefaultTargetDescriptor returns a TargetDescriptor with sensible defaults.
// Only Width, Height, and Format need to be set.
func DefaultTargetDescriptor(width, height int, format gputypes.TextureFormat) TargetDescriptor {
	return TargetDescriptor{
		Width:       width,
		Height:      height,
		SampleCount: 1,
		Format:      format,
	}
}

// Validate checks that the descriptor can be allocated at all and, when
// maxDimension is positive, that it fits the device limit.
func (d TargetDescriptor) Validate(maxDimension int) error {
	if d.Width <= 0 || d.Height <= 0 || d.SampleCount <= 0 {
		return fmt.Errorf("%w: %dx%d samples=%d", ErrInvalidDimensions, d.Width, d.Height, d.SampleCount)
	}
	if maxDimension > 0 && (d.Width > maxDimension || d.Height > maxDimension) {
		return fmt.Errorf("%w: %dx%d > %d", ErrTargetTooLarge, d.Width, d.Height, maxDimension)
	}
	return nil
}

// Allocator creates render targets. Surface contexts implement it; calls are
// only valid while the context is current.
type Allocator interface {
	NewTarget(desc TargetDescriptor) (Target, error)
}
