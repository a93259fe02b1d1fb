// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/offscreen/render"
)

// DefaultSoftwareMaxTextureSize is the target dimension limit of the
// software context when Options.MaxTextureSize is zero.
const DefaultSoftwareMaxTextureSize = 16384

// imageAPIConstraint is the API version range the software context emulates.
const imageAPIConstraint = ">= 1.0"

// ImageContext is a CPU-based surface context rendering into *image.RGBA
// targets.
//
// Sample counts above 1 are honored by supersampling; depth and stencil
// bits are accepted and ignored since the CPU paint pass composites layers
// in order.
//
// Example:
//
//	c, _ := surface.NewImageContext(surface.Options{Format: surface.DefaultFormat()})
//	defer c.Close()
//
//	_ = surface.With(c, func() error {
//	    t, err := c.NewTarget(render.DefaultTargetDescriptor(800, 600, c.ColorFormat()))
//	    ...
//	})
type ImageContext struct {
	format  Format
	color   gputypes.TextureFormat
	maxSize int
	logger  *slog.Logger

	def     *render.PixmapTarget
	current bool
	closed  bool
}

// NewImageContext creates a software context with the given options.
func NewImageContext(opts Options) (*ImageContext, error) {
	if err := opts.Format.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Format.CheckAPI("image", imageAPIConstraint); err != nil {
		return nil, err
	}
	colorFormat, err := opts.Format.ColorFormat()
	if err != nil {
		return nil, err
	}

	maxSize := opts.MaxTextureSize
	if maxSize <= 0 {
		maxSize = DefaultSoftwareMaxTextureSize
	}

	c := &ImageContext{
		format:  opts.Format,
		color:   colorFormat,
		maxSize: maxSize,
		logger:  opts.logger(),
	}
	c.logger.Info("surface context created", "backend", "image", "max_texture_size", maxSize)
	return c, nil
}

// Backend returns "image".
func (c *ImageContext) Backend() string { return "image" }

// Format returns the fixed surface format.
func (c *ImageContext) Format() Format { return c.format }

// ColorFormat returns RGBA8Unorm.
func (c *ImageContext) ColorFormat() gputypes.TextureFormat { return c.color }

// Limits returns the configured target size limit.
func (c *ImageContext) Limits() Limits {
	return Limits{MaxTextureSize: c.maxSize}
}

// Acquire makes the context current and locks the calling goroutine to its
// OS thread.
func (c *ImageContext) Acquire() error {
	if c.closed {
		return ErrClosed
	}
	if c.current {
		return ErrAlreadyCurrent
	}
	runtime.LockOSThread()
	c.current = true
	return nil
}

// Release makes the context no longer current.
func (c *ImageContext) Release() {
	if !c.current {
		return
	}
	c.current = false
	runtime.UnlockOSThread()
}

// IsCurrent reports whether the context is current.
func (c *ImageContext) IsCurrent() bool { return c.current }

// NewTarget allocates a CPU render target.
func (c *ImageContext) NewTarget(desc render.TargetDescriptor) (render.Target, error) {
	if err := c.checkCurrent(); err != nil {
		return nil, err
	}
	if err := desc.Validate(c.maxSize); err != nil {
		return nil, err
	}
	if desc.Format != gputypes.TextureFormatUndefined && desc.Format != c.color {
		return nil, fmt.Errorf("%w: target format %v, surface %v", ErrIncompatibleFormat, desc.Format, c.color)
	}
	label := desc.Label
	if label == "" {
		label = "pixmap"
	}
	return render.NewPixmapTargetWithSamples(label, desc.Width, desc.Height, desc.SampleCount), nil
}

// DefaultTarget returns the context-owned surface, resized in place when the
// requested size differs.
func (c *ImageContext) DefaultTarget(width, height int) (render.Target, error) {
	if err := c.checkCurrent(); err != nil {
		return nil, err
	}
	desc := render.TargetDescriptor{Width: width, Height: height, SampleCount: c.format.SampleCount}
	if err := desc.Validate(c.maxSize); err != nil {
		return nil, err
	}
	switch {
	case c.def == nil:
		c.def = render.NewPixmapTargetWithSamples("surface", width, height, c.format.SampleCount)
	case c.def.Width() != width || c.def.Height() != height:
		c.logger.Debug("default surface resized", "width", width, "height", height)
		c.def.Resize(width, height)
	}
	return c.def, nil
}

// Close destroys the default target and releases the context.
func (c *ImageContext) Close() error {
	if c.closed {
		return nil
	}
	if c.def != nil {
		c.def.Destroy()
		c.def = nil
	}
	c.Release()
	c.closed = true
	return nil
}

func (c *ImageContext) checkCurrent() error {
	if c.closed {
		return ErrClosed
	}
	if !c.current {
		return ErrNotCurrent
	}
	return nil
}

var _ Context = (*ImageContext)(nil)
