// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
)

// CacheStats counts target cache activity.
type CacheStats struct {
	// Allocations is the number of targets created.
	Allocations int

	// Reuses is the number of TargetFor calls served by the cached target.
	Reuses int

	// Destroyed is the number of targets released.
	Destroyed int

	// Failures is the number of failed allocations.
	Failures int
}

// TargetCache owns a single render target sized to the scene.
//
// TargetFor returns the cached target when width, height and sample count
// match, and otherwise allocates a replacement. The replacement is allocated
// before the old target is destroyed, so on failure the cache keeps its
// previous (possibly nil) target and the caller skips the frame.
//
// TargetCache must only be used while the allocator's context is current.
type TargetCache struct {
	alloc        Allocator
	format       gputypes.TextureFormat
	depthStencil bool
	label        string
	logger       *slog.Logger

	target Target
	stats  CacheStats
}

// CacheOption configures a TargetCache.
type CacheOption func(*TargetCache)

// WithDepthStencil requests a depth/stencil attachment on every target.
func WithDepthStencil(enabled bool) CacheOption {
	return func(c *TargetCache) { c.depthStencil = enabled }
}

// WithLabel sets the debug label prefix for allocated targets.
func WithLabel(label string) CacheOption {
	return func(c *TargetCache) { c.label = label }
}

// WithLogger sets the logger used for allocation diagnostics.
func WithLogger(l *slog.Logger) CacheOption {
	return func(c *TargetCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewTargetCache creates an empty cache. No target is allocated until the
// first TargetFor call.
func NewTargetCache(alloc Allocator, format gputypes.TextureFormat, opts ...CacheOption) *TargetCache {
	c := &TargetCache{
		alloc:  alloc,
		format: format,
		label:  "frame",
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TargetFor returns a target of exactly width x height with sampleCount
// samples, reusing the cached one when it matches.
func (c *TargetCache) TargetFor(width, height, sampleCount int) (Target, error) {
	if t := c.target; t != nil && t.Width() == width && t.Height() == height && t.SampleCount() == sampleCount {
		c.stats.Reuses++
		return t, nil
	}

	desc := TargetDescriptor{
		Label:        fmt.Sprintf("%s_%dx%d_x%d", c.label, width, height, sampleCount),
		Width:        width,
		Height:       height,
		SampleCount:  sampleCount,
		Format:       c.format,
		DepthStencil: c.depthStencil,
	}
	if err := desc.Validate(0); err != nil {
		c.stats.Failures++
		return nil, err
	}

	next, err := c.alloc.NewTarget(desc)
	if err != nil {
		c.stats.Failures++
		return nil, fmt.Errorf("allocate %s: %w", desc.Label, err)
	}
	c.stats.Allocations++

	if prev := c.target; prev != nil {
		c.logger.Debug("render target replaced",
			"old", fmt.Sprintf("%dx%d@%d", prev.Width(), prev.Height(), prev.SampleCount()),
			"new", fmt.Sprintf("%dx%d@%d", width, height, sampleCount))
		prev.Destroy()
		c.stats.Destroyed++
	} else {
		c.logger.Debug("render target allocated", "label", desc.Label)
	}
	c.target = next
	return next, nil
}

// Current returns the cached target, or nil if none has been allocated.
func (c *TargetCache) Current() Target {
	return c.target
}

// Stats returns a snapshot of the cache counters.
func (c *TargetCache) Stats() CacheStats {
	return c.stats
}

// Destroy releases the cached target. Safe to call multiple times.
func (c *TargetCache) Destroy() {
	if c.target == nil {
		return
	}
	c.target.Destroy()
	c.target = nil
	c.stats.Destroyed++
}
