// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hal

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// textureSet holds the textures backing one render target:
//   - MSAA color: SampleCount samples, RenderAttachment (only when SampleCount > 1)
//   - Depth/stencil: SampleCount samples, RenderAttachment (only when requested)
//   - Resolve: 1 sample, RenderAttachment | CopySrc | CopyDst
type textureSet struct {
	msaaTex     hal.Texture
	msaaView    hal.TextureView
	depthTex    hal.Texture
	depthView   hal.TextureView
	resolveTex  hal.Texture
	resolveView hal.TextureView
	width       uint32
	height      uint32
}

// createTextures allocates all textures of the set. On failure every
// texture created so far is destroyed.
func (ts *textureSet) createTextures(device hal.Device, w, h, samples uint32,
	color, depth gputypes.TextureFormat, labelPrefix string) error {
	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	if samples > 1 {
		msaaTex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         labelPrefix + "_msaa_color",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   samples,
			Dimension:     gputypes.TextureDimension2D,
			Format:        color,
			Usage:         gputypes.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("create MSAA color texture: %w", err)
		}
		ts.msaaTex = msaaTex

		msaaView, err := device.CreateTextureView(msaaTex, &hal.TextureViewDescriptor{
			Label: labelPrefix + "_msaa_color_view",
		})
		if err != nil {
			ts.destroyTextures(device)
			return fmt.Errorf("create MSAA color view: %w", err)
		}
		ts.msaaView = msaaView
	}

	if depth != gputypes.TextureFormatUndefined {
		depthTex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         labelPrefix + "_depth_stencil",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   samples,
			Dimension:     gputypes.TextureDimension2D,
			Format:        depth,
			Usage:         gputypes.TextureUsageRenderAttachment,
		})
		if err != nil {
			ts.destroyTextures(device)
			return fmt.Errorf("create depth/stencil texture: %w", err)
		}
		ts.depthTex = depthTex

		depthView, err := device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
			Label: labelPrefix + "_depth_stencil_view",
		})
		if err != nil {
			ts.destroyTextures(device)
			return fmt.Errorf("create depth/stencil view: %w", err)
		}
		ts.depthView = depthView
	}

	resolveTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         labelPrefix + "_resolve",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        color,
		Usage: gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc |
			gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		ts.destroyTextures(device)
		return fmt.Errorf("create resolve texture: %w", err)
	}
	ts.resolveTex = resolveTex

	resolveView, err := device.CreateTextureView(resolveTex, &hal.TextureViewDescriptor{
		Label: labelPrefix + "_resolve_view",
	})
	if err != nil {
		ts.destroyTextures(device)
		return fmt.Errorf("create resolve view: %w", err)
	}
	ts.resolveView = resolveView

	ts.width = w
	ts.height = h
	return nil
}

// colorAttachment returns the pass color attachment: the MSAA view
// resolving into the resolve view, or the resolve view directly.
func (ts *textureSet) colorAttachment(clear gputypes.Color) hal.RenderPassColorAttachment {
	if ts.msaaView != nil {
		return hal.RenderPassColorAttachment{
			View:          ts.msaaView,
			ResolveTarget: ts.resolveView,
			LoadOp:        gputypes.LoadOpClear,
			StoreOp:       gputypes.StoreOpStore,
			ClearValue:    clear,
		}
	}
	return hal.RenderPassColorAttachment{
		View:       ts.resolveView,
		LoadOp:     gputypes.LoadOpClear,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: clear,
	}
}

// depthAttachment returns the depth/stencil attachment, or nil.
func (ts *textureSet) depthAttachment() *hal.RenderPassDepthStencilAttachment {
	if ts.depthView == nil {
		return nil
	}
	return &hal.RenderPassDepthStencilAttachment{
		View:              ts.depthView,
		DepthLoadOp:       gputypes.LoadOpClear,
		DepthStoreOp:      gputypes.StoreOpDiscard,
		DepthClearValue:   1.0,
		StencilLoadOp:     gputypes.LoadOpClear,
		StencilStoreOp:    gputypes.StoreOpStore,
		StencilClearValue: 0,
	}
}

// destroyTextures releases all texture resources and resets dimensions.
func (ts *textureSet) destroyTextures(device hal.Device) {
	if ts.resolveView != nil {
		device.DestroyTextureView(ts.resolveView)
		ts.resolveView = nil
	}
	if ts.resolveTex != nil {
		device.DestroyTexture(ts.resolveTex)
		ts.resolveTex = nil
	}
	if ts.depthView != nil {
		device.DestroyTextureView(ts.depthView)
		ts.depthView = nil
	}
	if ts.depthTex != nil {
		device.DestroyTexture(ts.depthTex)
		ts.depthTex = nil
	}
	if ts.msaaView != nil {
		device.DestroyTextureView(ts.msaaView)
		ts.msaaView = nil
	}
	if ts.msaaTex != nil {
		device.DestroyTexture(ts.msaaTex)
		ts.msaaTex = nil
	}
	ts.width = 0
	ts.height = 0
}
