// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surface provides the GPU surface context used for offscreen
// rendering.
//
// A Context owns a rendering device bound to a surface that is never shown.
// Work against the device is scoped by Acquire and Release, which make the
// context current on the calling goroutine's OS thread and release it again.
// Target allocation and destruction are only valid while the context is
// current:
//
//	ctx, err := surface.Open("auto", surface.Options{Format: surface.DefaultFormat()})
//	if err != nil {
//	    return err // fatal: no frame can be produced
//	}
//	defer ctx.Close()
//
//	err = surface.With(ctx, func() error {
//	    target, err := ctx.NewTarget(render.DefaultTargetDescriptor(800, 600, ctx.ColorFormat()))
//	    ...
//	})
//
// # Format
//
// The surface Format (color, depth and stencil bits, sample count and API
// version) is fixed when the context is opened and cannot change afterwards.
//
// # Registry
//
// Backends register themselves by name with a priority:
//
//   - "image": CPU software context, always available (priority 10)
//   - "vulkan", "noop": wgpu HAL contexts registered by importing
//     github.com/gogpu/offscreen/backend/hal
//
// Open("auto", ...) tries available backends from highest priority down.
package surface
