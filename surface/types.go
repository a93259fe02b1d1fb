// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/Masterminds/semver/v3"
	"github.com/gogpu/gputypes"
)

// Format describes the attachments of a surface context. It must be fixed
// before the context is opened.
type Format struct {
	// ColorBufferBits is the color depth. Only 8 bits per channel is
	// rendered; 8, 24 and 32 all select RGBA8.
	ColorBufferBits int `toml:"color_buffer_bits"`

	// DepthBufferBits is 0, 16, 24 or 32.
	DepthBufferBits int `toml:"depth_buffer_bits"`

	// StencilBufferBits is 0 or 8.
	StencilBufferBits int `toml:"stencil_buffer_bits"`

	// SampleCount is the number of samples per pixel: 1, 2, 4, 8 or 16.
	SampleCount int `toml:"sample_count"`

	// APIVersion is the minimum device API version, e.g. "1.0".
	APIVersion string `toml:"api_version"`
}

// DefaultFormat returns 8-bit color with a 24-bit depth and 8-bit stencil
// buffer, no multisampling, API version 1.0.
func DefaultFormat() Format {
	return Format{
		ColorBufferBits:   8,
		DepthBufferBits:   24,
		StencilBufferBits: 8,
		SampleCount:       1,
		APIVersion:        "1.0",
	}
}

var (
	validDepthBits   = []int{0, 16, 24, 32}
	validStencilBits = []int{0, 8}
	validSampleCount = []int{1, 2, 4, 8, 16}
)

// Validate checks the format fields against the values any backend accepts.
func (f Format) Validate() error {
	if _, err := f.ColorFormat(); err != nil {
		return err
	}
	if !slices.Contains(validDepthBits, f.DepthBufferBits) {
		return fmt.Errorf("%w: depth buffer bits %d", ErrIncompatibleFormat, f.DepthBufferBits)
	}
	if !slices.Contains(validStencilBits, f.StencilBufferBits) {
		return fmt.Errorf("%w: stencil buffer bits %d", ErrIncompatibleFormat, f.StencilBufferBits)
	}
	if !slices.Contains(validSampleCount, f.SampleCount) {
		return fmt.Errorf("%w: sample count %d", ErrIncompatibleFormat, f.SampleCount)
	}
	if _, err := f.Version(); err != nil {
		return err
	}
	return nil
}

// ColorFormat maps ColorBufferBits to a texture format.
func (f Format) ColorFormat() (gputypes.TextureFormat, error) {
	switch f.ColorBufferBits {
	case 8, 24, 32:
		return gputypes.TextureFormatRGBA8Unorm, nil
	default:
		return gputypes.TextureFormatUndefined, fmt.Errorf("%w: color buffer bits %d", ErrIncompatibleFormat, f.ColorBufferBits)
	}
}

// DepthStencilFormat maps the depth and stencil bits to a texture format.
// It returns TextureFormatUndefined when neither buffer is requested.
func (f Format) DepthStencilFormat() gputypes.TextureFormat {
	switch {
	case f.StencilBufferBits > 0:
		return gputypes.TextureFormatDepth24PlusStencil8
	case f.DepthBufferBits == 32:
		return gputypes.TextureFormatDepth32Float
	case f.DepthBufferBits == 16:
		return gputypes.TextureFormatDepth16Unorm
	case f.DepthBufferBits > 0:
		return gputypes.TextureFormatDepth24Plus
	default:
		return gputypes.TextureFormatUndefined
	}
}

// HasDepthStencil reports whether a depth or stencil attachment is requested.
func (f Format) HasDepthStencil() bool {
	return f.DepthBufferBits > 0 || f.StencilBufferBits > 0
}

// Version parses APIVersion. An empty version means "1.0".
func (f Format) Version() (*semver.Version, error) {
	s := f.APIVersion
	if s == "" {
		s = "1.0"
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("%w: api version %q: %v", ErrIncompatibleFormat, f.APIVersion, err)
	}
	return v, nil
}

// CheckAPI reports ErrIncompatibleFormat unless the requested API version
// satisfies the backend's constraint (e.g. ">= 1.0, < 2.0").
func (f Format) CheckAPI(backend, constraint string) error {
	v, err := f.Version()
	if err != nil {
		return err
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("surface: %s: bad api constraint %q: %w", backend, constraint, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: %s supports api %s, requested %s", ErrIncompatibleFormat, backend, constraint, v)
	}
	return nil
}

// Options configures a context created through the registry.
type Options struct {
	// Format is the fixed surface format.
	Format Format

	// MaxTextureSize caps target dimensions. Zero uses the backend limit.
	MaxTextureSize int

	// Logger receives backend diagnostics. Nil discards them.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Limits describes device limits relevant to target allocation.
type Limits struct {
	// MaxTextureSize is the largest supported target dimension.
	MaxTextureSize int
}
