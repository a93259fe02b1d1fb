// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render defines the render target abstraction shared by the
// offscreen pipeline and its GPU backends.
//
// # Core Types
//
//   - Target: a destination for one rendered frame (CPU pixmap or GPU texture set)
//   - TargetDescriptor: size, sample count and format of a target to allocate
//   - TargetCache: owns exactly one target and reallocates it only when the
//     requested size or sample count changes
//   - Frame: an immutable CPU pixel buffer produced by readback
//
// # Target Lifecycle
//
// Targets are allocated by a surface context (see package surface) while the
// context is current. The cache allocates the replacement before destroying
// the previous target, so a failed allocation leaves the previous target in
// place:
//
//	cache := render.NewTargetCache(ctx, gputypes.TextureFormatRGBA8Unorm)
//	target, err := cache.TargetFor(800, 600, 1)
//	if err != nil {
//	    // skip this frame; the cache still holds its previous target
//	}
//
// # Thread Safety
//
// Targets and caches are NOT thread-safe. They are used only from the render
// goroutine while the owning context is current.
package render
