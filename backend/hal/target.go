// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hal

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/offscreen/render"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/draw"
)

// fenceTimeout bounds a single wait for queue completion.
const fenceTimeout = 5 * time.Second

// copyPitchAlignment is the required BytesPerRow alignment for
// texture-to-buffer copies.
const copyPitchAlignment = 256

// Target is a render target backed by a HAL texture set.
//
// Clear runs a render pass that clears every attachment. Upload composites
// the painted layer over the cleared contents and writes the result to the
// resolve texture. ReadPixels copies the resolve texture to a staging
// buffer and waits for the queue before mapping it.
type Target struct {
	ctx    *Context
	label  string
	desc   render.TargetDescriptor
	tex    textureSet
	shadow *image.RGBA

	destroyed bool
}

func newTarget(c *Context, desc render.TargetDescriptor) (*Target, error) {
	format := desc.Format
	if format == gputypes.TextureFormatUndefined {
		format = c.color
	}
	depth := gputypes.TextureFormatUndefined
	if desc.DepthStencil {
		depth = c.format.DepthStencilFormat()
	}

	t := &Target{
		ctx:    c,
		label:  desc.Label,
		desc:   desc,
		shadow: image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height)),
	}
	//nolint:gosec // G115: dimensions validated against the device limit
	err := t.tex.createTextures(c.device, uint32(desc.Width), uint32(desc.Height),
		uint32(desc.SampleCount), format, depth, desc.Label)
	if err != nil {
		return nil, fmt.Errorf("hal: %s: %w", desc.Label, err)
	}
	c.logger.Debug("hal target created", "label", desc.Label,
		"width", desc.Width, "height", desc.Height, "samples", desc.SampleCount, "depth", depth != gputypes.TextureFormatUndefined)
	return t, nil
}

// Label returns the debug label.
func (t *Target) Label() string { return t.label }

// Width returns the target width in pixels.
func (t *Target) Width() int { return t.desc.Width }

// Height returns the target height in pixels.
func (t *Target) Height() int { return t.desc.Height }

// SampleCount returns the number of samples per pixel.
func (t *Target) SampleCount() int { return t.desc.SampleCount }

// Format returns the color attachment format.
func (t *Target) Format() gputypes.TextureFormat { return t.ctx.color }

// Scale returns 1; multisampling is resolved by the render pass.
func (t *Target) Scale() int { return 1 }

// Clear encodes and submits a render pass clearing all attachments to c.
func (t *Target) Clear(c color.Color) error {
	if t.destroyed {
		return render.ErrTargetDestroyed
	}
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	draw.Draw(t.shadow, t.shadow.Bounds(), image.NewUniform(rgba), image.Point{}, draw.Src)

	clearValue := gputypes.Color{
		R: float64(rgba.R) / 255,
		G: float64(rgba.G) / 255,
		B: float64(rgba.B) / 255,
		A: float64(rgba.A) / 255,
	}

	device := t.ctx.device
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: t.label + "_clear_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(t.label + "_clear"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:                  t.label + "_clear_pass",
		ColorAttachments:       []hal.RenderPassColorAttachment{t.tex.colorAttachment(clearValue)},
		DepthStencilAttachment: t.tex.depthAttachment(),
	})
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	return t.submitAndWait(cmdBuf)
}

// Upload composites layer over the cleared contents and writes the result
// into the resolve texture.
func (t *Target) Upload(layer *image.RGBA) error {
	if t.destroyed {
		return render.ErrTargetDestroyed
	}
	if layer == nil {
		return nil
	}
	if layer.Bounds().Size() != t.shadow.Bounds().Size() {
		return fmt.Errorf("%w: layer %v, target %v", render.ErrSizeMismatch, layer.Bounds().Size(), t.shadow.Bounds().Size())
	}
	draw.Draw(t.shadow, t.shadow.Bounds(), layer, layer.Bounds().Min, draw.Over)

	//nolint:gosec // G115: dimensions validated against the device limit
	w, h := uint32(t.desc.Width), uint32(t.desc.Height)
	t.ctx.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex.resolveTex,
			MipLevel: 0,
		},
		t.shadow.Pix,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  w * 4,
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	return nil
}

// ReadPixels copies the resolve texture into a new image.
func (t *Target) ReadPixels() (*image.RGBA, error) {
	if t.destroyed {
		return nil, render.ErrTargetDestroyed
	}
	device := t.ctx.device
	//nolint:gosec // G115: dimensions validated against the device limit
	w, h := uint32(t.desc.Width), uint32(t.desc.Height)

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: t.label + "_readback_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(t.label + "_readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	// The resolve texture is left in render-attachment layout by the clear
	// pass; the copy needs it as a transfer source.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex.resolveTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingBufSize := uint64(alignedBytesPerRow) * uint64(h)

	stagingBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: t.label + "_staging",
		Size:  stagingBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(t.tex.resolveTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex.resolveTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex.resolveTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	if err := t.submitAndWait(cmdBuf); err != nil {
		return nil, err
	}

	staged := make([]byte, stagingBufSize)
	if err := t.ctx.queue.ReadBuffer(stagingBuf, 0, staged); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, t.desc.Width, t.desc.Height))
	unpadRows(img.Pix, staged, int(bytesPerRow), int(alignedBytesPerRow), int(h))
	return img, nil
}

// Destroy releases the texture set. Destroy is idempotent.
func (t *Target) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	if t.ctx.device != nil {
		t.tex.destroyTextures(t.ctx.device)
	}
	t.shadow = &image.RGBA{}
}

// Destroyed reports whether Destroy has been called.
func (t *Target) Destroyed() bool { return t.destroyed }

func (t *Target) submitAndWait(cmdBuf hal.CommandBuffer) error {
	device := t.ctx.device
	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer device.DestroyFence(fence)

	if err := t.ctx.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// unpadRows copies rows of rowBytes from src, whose rows are pitch bytes
// apart, into the tightly packed dst.
func unpadRows(dst, src []byte, rowBytes, pitch, rows int) {
	if pitch == rowBytes {
		copy(dst, src[:rowBytes*rows])
		return
	}
	for row := 0; row < rows; row++ {
		copy(dst[row*rowBytes:(row+1)*rowBytes], src[row*pitch:row*pitch+rowBytes])
	}
}

var _ render.Target = (*Target)(nil)
