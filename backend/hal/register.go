// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hal

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/offscreen/surface"
	"github.com/gogpu/wgpu/hal"
)

// Registry priorities.
const (
	PriorityVulkan = 100
	PriorityNoop   = 1
)

func init() {
	surface.Register("vulkan", PriorityVulkan, func(opts surface.Options) (surface.Context, error) {
		return OpenVulkan(opts)
	}, vulkanAvailable)

	surface.Register("noop", PriorityNoop, func(opts surface.Options) (surface.Context, error) {
		return OpenNoop(opts)
	}, nil)
}

func vulkanAvailable() bool {
	_, ok := hal.GetBackend(gputypes.BackendVulkan)
	return ok
}
