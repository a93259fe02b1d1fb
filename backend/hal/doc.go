// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package hal implements surface contexts on the wgpu hardware abstraction
// layer.
//
// Importing the package registers two backends with the surface registry:
//
//   - "vulkan" (priority 100): a headless Vulkan device, preferring discrete
//     or integrated GPUs
//   - "noop" (priority 1): the wgpu noop device, useful on machines without
//     a GPU and in tests
//
// Targets are texture sets: an optional multisampled color texture, an
// optional depth/stencil texture, and a single-sample resolve texture that
// is copied into a staging buffer for readback.
//
//	import _ "github.com/gogpu/offscreen/backend/hal"
//
//	ctx, err := surface.Open("vulkan", surface.Options{Format: surface.DefaultFormat()})
//
// A host application that already owns a device can share it through
// FromProvider.
package hal
