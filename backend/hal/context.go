// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hal

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/offscreen/render"
	"github.com/gogpu/offscreen/surface"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	// Register the Vulkan HAL backend.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// maxTextureDimension2D is the WebGPU default limit for 2D textures.
const maxTextureDimension2D = 8192

// apiConstraint is the surface API version range served by HAL devices.
const apiConstraint = ">= 1.0, < 2.0"

// ErrNoAdapter is returned when an instance exposes no adapters.
var ErrNoAdapter = errors.New("hal: no GPU adapters found")

// instanceCreator is satisfied by hal backends and noop.API.
type instanceCreator interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// Context is a surface context backed by a wgpu HAL device.
type Context struct {
	name    string
	format  surface.Format
	color   gputypes.TextureFormat
	maxSize int
	logger  *slog.Logger

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool

	def     *Target
	current bool
	closed  bool
}

// OpenVulkan opens a headless Vulkan device.
func OpenVulkan(opts surface.Options) (*Context, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, &surface.BackendUnavailableError{Name: "vulkan"}
	}
	return open("vulkan", backend, &hal.InstanceDescriptor{Flags: 0}, opts)
}

// OpenNoop opens the wgpu noop device. Commands are accepted and discarded;
// readback yields zeroed pixels.
func OpenNoop(opts surface.Options) (*Context, error) {
	return open("noop", noop.API{}, nil, opts)
}

// FromProvider wraps a device owned by a host application. The provider
// must also expose HalDevice() and HalQueue() returning hal.Device and
// hal.Queue. Close does not destroy a shared device.
func FromProvider(provider gpucontext.DeviceProvider, opts surface.Options) (*Context, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("hal: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("hal: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("hal: provider HalQueue is not hal.Queue")
	}

	c, err := newContext("shared", opts)
	if err != nil {
		return nil, err
	}
	c.device = device
	c.queue = queue
	c.external = true
	c.logger.Info("surface context created", "backend", c.name, "provider_format", provider.SurfaceFormat())
	return c, nil
}

func newContext(name string, opts surface.Options) (*Context, error) {
	if err := opts.Format.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Format.CheckAPI(name, apiConstraint); err != nil {
		return nil, err
	}
	colorFormat, err := opts.Format.ColorFormat()
	if err != nil {
		return nil, err
	}

	maxSize := opts.MaxTextureSize
	if maxSize <= 0 || maxSize > maxTextureDimension2D {
		maxSize = maxTextureDimension2D
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Context{
		name:    name,
		format:  opts.Format,
		color:   colorFormat,
		maxSize: maxSize,
		logger:  logger,
	}, nil
}

func open(name string, api instanceCreator, desc *hal.InstanceDescriptor, opts surface.Options) (*Context, error) {
	c, err := newContext(name, opts)
	if err != nil {
		return nil, err
	}

	instance, err := api.CreateInstance(desc)
	if err != nil {
		return nil, fmt.Errorf("hal: %s: create instance: %w", name, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("hal: %s: %w", name, ErrNoAdapter)
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("hal: %s: open device: %w", name, err)
	}

	c.instance = instance
	c.device = openDev.Device
	c.queue = openDev.Queue
	c.logger.Info("surface context created", "backend", name, "adapter", selected.Info.Name)
	return c, nil
}

// Backend returns the registry name of the backend.
func (c *Context) Backend() string { return c.name }

// Format returns the fixed surface format.
func (c *Context) Format() surface.Format { return c.format }

// ColorFormat returns the color attachment format.
func (c *Context) ColorFormat() gputypes.TextureFormat { return c.color }

// Limits returns the device limits.
func (c *Context) Limits() surface.Limits {
	return surface.Limits{MaxTextureSize: c.maxSize}
}

// Acquire makes the context current and locks the calling goroutine to its
// OS thread.
func (c *Context) Acquire() error {
	if c.closed {
		return surface.ErrClosed
	}
	if c.current {
		return surface.ErrAlreadyCurrent
	}
	runtime.LockOSThread()
	c.current = true
	return nil
}

// Release makes the context no longer current.
func (c *Context) Release() {
	if !c.current {
		return
	}
	c.current = false
	runtime.UnlockOSThread()
}

// IsCurrent reports whether the context is current.
func (c *Context) IsCurrent() bool { return c.current }

// NewTarget allocates a texture set for desc.
func (c *Context) NewTarget(desc render.TargetDescriptor) (render.Target, error) {
	if err := c.checkCurrent(); err != nil {
		return nil, err
	}
	if err := desc.Validate(c.maxSize); err != nil {
		return nil, err
	}
	if desc.Format != gputypes.TextureFormatUndefined && desc.Format != c.color {
		return nil, fmt.Errorf("%w: target format %v, surface %v", surface.ErrIncompatibleFormat, desc.Format, c.color)
	}
	if desc.Label == "" {
		desc.Label = "target"
	}
	return newTarget(c, desc)
}

// DefaultTarget returns the context-owned surface texture set, recreated
// when the requested size differs.
func (c *Context) DefaultTarget(width, height int) (render.Target, error) {
	if err := c.checkCurrent(); err != nil {
		return nil, err
	}
	if c.def != nil && c.def.Width() == width && c.def.Height() == height {
		return c.def, nil
	}
	desc := render.TargetDescriptor{
		Label:        "surface",
		Width:        width,
		Height:       height,
		SampleCount:  c.format.SampleCount,
		Format:       c.color,
		DepthStencil: c.format.HasDepthStencil(),
	}
	if err := desc.Validate(c.maxSize); err != nil {
		return nil, err
	}
	next, err := newTarget(c, desc)
	if err != nil {
		return nil, err
	}
	if c.def != nil {
		c.def.Destroy()
	}
	c.def = next
	return next, nil
}

// Close destroys the default target and the device. A shared device is
// left alive.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	if c.def != nil {
		c.def.Destroy()
		c.def = nil
	}
	c.Release()
	if !c.external {
		if c.device != nil {
			c.device.Destroy()
		}
		if c.instance != nil {
			c.instance.Destroy()
		}
	}
	c.device = nil
	c.queue = nil
	c.instance = nil
	c.closed = true
	return nil
}

func (c *Context) checkCurrent() error {
	if c.closed {
		return surface.ErrClosed
	}
	if !c.current {
		return surface.ErrNotCurrent
	}
	return nil
}

var _ surface.Context = (*Context)(nil)
