// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package offscreen renders a declarative scene to image files on a
// schedule, without presenting a window.
//
// # Overview
//
// A [Host] owns the scene graph. A [Pipeline] owns the surface context
// and the cached render target; each render pass lays out and paints the
// scene into the target, reads it back and writes it to every configured
// output. [Run] connects both to a schedule.Scheduler, which decides when
// to render: once at startup, after a burst of scene changes has settled,
// on a fixed interval, or a mix of the last two.
//
// # Quick Start
//
//	cfg := offscreen.DefaultConfig()
//	cfg.Scene = "scene.yaml"
//	cfg.PNG = true
//	if err := offscreen.Run(ctx, cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Frames are written to offscreen_output.bmp (always) and
// offscreen_output.png in Config.OutputDir. Files are overwritten in place.
//
// # Backends
//
// The surface package always provides the software "image" backend.
// Importing backend/hal adds "vulkan" and "noop" backed by gogpu/wgpu.
// Config.Backend "auto" picks the best available one.
//
// # Errors
//
// Failures carry a [Kind]. Scene load and context failures at startup are
// fatal and returned by Run. Allocation, render, readback and persist
// failures skip the frame; the pending-render flag stays set and the next
// trigger retries.
//
// # Logging
//
// offscreen logs through log/slog and is silent by default. See
// [SetLogger].
package offscreen
