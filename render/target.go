// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
)

// Target defines where one rendered frame goes.
//
// A Target is an abstraction over different rendering destinations:
//   - PixmapTarget: CPU-backed *image.RGBA, supersampled for sample counts > 1
//   - GPU texture sets provided by backend packages (color, optional
//     depth/stencil, multisample resolve)
//
// The scene paints into a CPU layer of PaintSize and hands it to Upload;
// ReadPixels returns the resolved frame at Width x Height.
type Target interface {
	// Label returns the debug label the target was created with.
	Label() string

	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// SampleCount returns the number of samples per pixel.
	SampleCount() int

	// Format returns the color attachment format.
	Format() gputypes.TextureFormat

	// Scale returns the factor the paint layer is supersampled by.
	// GPU targets resolve multisampling in hardware and return 1.
	Scale() int

	// Clear fills the entire target with the given color.
	Clear(c color.Color) error

	// Upload composites a painted layer over the target contents.
	// The layer must be exactly PaintSize.
	Upload(layer *image.RGBA) error

	// ReadPixels copies the resolved target contents into a new image of
	// Width x Height. For GPU targets this waits for the queue to drain.
	ReadPixels() (*image.RGBA, error)

	// Destroy releases the resources held by the target. Destroy is
	// idempotent.
	Destroy()
}

// PaintSize returns the layer dimensions a target expects from Upload.
func PaintSize(t Target) (width, height int) {
	s := t.Scale()
	return t.Width() * s, t.Height() * s
}

// SupersampleScale maps a sample count to a per-axis supersampling factor:
// 1 -> 1, 4 -> 2, 16 -> 4. Counts between squares round down.
func SupersampleScale(sampleCount int) int {
	if sampleCount <= 1 {
		return 1
	}
	return int(math.Sqrt(float64(sampleCount)))
}

// PixmapTarget is a CPU-backed render target using *image.RGBA.
//
// Sample counts above 1 are implemented by supersampling: the backing image
// is Scale times larger on each axis and ReadPixels downsamples it.
//
// Example:
//
//	target := render.NewPixmapTarget(800, 600)
//	target.Clear(color.White)
//	img, _ := target.ReadPixels()
type PixmapTarget struct {
	label     string
	img       *image.RGBA
	width     int
	height    int
	samples   int
	scale     int
	destroyed bool
}

// NewPixmapTarget creates a new single-sample CPU-backed render target.
func NewPixmapTarget(width, height int) *PixmapTarget {
	return NewPixmapTargetWithSamples("pixmap", width, height, 1)
}

// NewPixmapTargetWithSamples creates a CPU-backed render target that
// supersamples according to sampleCount.
func NewPixmapTargetWithSamples(label string, width, height, sampleCount int) *PixmapTarget {
	if sampleCount < 1 {
		sampleCount = 1
	}
	scale := SupersampleScale(sampleCount)
	return &PixmapTarget{
		label:   label,
		img:     image.NewRGBA(image.Rect(0, 0, width*scale, height*scale)),
		width:   width,
		height:  height,
		samples: sampleCount,
		scale:   scale,
	}
}

// NewPixmapTargetFromImage wraps an existing *image.RGBA as a render target.
// The image is used directly without copying.
func NewPixmapTargetFromImage(img *image.RGBA) *PixmapTarget {
	b := img.Bounds()
	return &PixmapTarget{
		label:   "pixmap",
		img:     img,
		width:   b.Dx(),
		height:  b.Dy(),
		samples: 1,
		scale:   1,
	}
}

// Label returns the debug label.
func (t *PixmapTarget) Label() string {
	return t.label
}

// Width returns the target width in pixels.
func (t *PixmapTarget) Width() int {
	return t.width
}

// Height returns the target height in pixels.
func (t *PixmapTarget) Height() int {
	return t.height
}

// SampleCount returns the requested sample count.
func (t *PixmapTarget) SampleCount() int {
	return t.samples
}

// Scale returns the supersampling factor.
func (t *PixmapTarget) Scale() int {
	return t.scale
}

// Format returns the pixel format (RGBA8).
func (t *PixmapTarget) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Pixels returns direct access to the backing pixel data.
func (t *PixmapTarget) Pixels() []byte {
	return t.img.Pix
}

// Stride returns the number of bytes per row of the backing image.
func (t *PixmapTarget) Stride() int {
	return t.img.Stride
}

// Image returns the underlying *image.RGBA.
// The returned image shares memory with the target.
func (t *PixmapTarget) Image() *image.RGBA {
	return t.img
}

// Clear fills the entire target with the given color.
func (t *PixmapTarget) Clear(c color.Color) error {
	if t.destroyed {
		return ErrTargetDestroyed
	}
	r, g, b, a := c.RGBA()
	// Convert from 16-bit to 8-bit (mask ensures value fits in uint8)
	//nolint:gosec // G115: mask ensures no overflow
	rgba := color.RGBA{
		R: uint8((r >> 8) & 0xFF),
		G: uint8((g >> 8) & 0xFF),
		B: uint8((b >> 8) & 0xFF),
		A: uint8((a >> 8) & 0xFF),
	}

	pix := t.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = rgba.R
		pix[i+1] = rgba.G
		pix[i+2] = rgba.B
		pix[i+3] = rgba.A
	}
	return nil
}

// Upload composites the layer over the target with source-over blending.
func (t *PixmapTarget) Upload(layer *image.RGBA) error {
	if t.destroyed {
		return ErrTargetDestroyed
	}
	if layer == nil {
		return nil
	}
	if layer.Bounds().Size() != t.img.Bounds().Size() {
		return fmt.Errorf("%w: layer %v, target %v", ErrSizeMismatch, layer.Bounds().Size(), t.img.Bounds().Size())
	}
	draw.Draw(t.img, t.img.Bounds(), layer, layer.Bounds().Min, draw.Over)
	return nil
}

// ReadPixels returns a resolved copy of the target contents.
func (t *PixmapTarget) ReadPixels() (*image.RGBA, error) {
	if t.destroyed {
		return nil, ErrTargetDestroyed
	}
	dst := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	if t.scale == 1 {
		copy(dst.Pix, t.img.Pix)
		return dst, nil
	}
	resolveBox(dst, t.img, t.scale)
	return dst, nil
}

// resolveBox averages each scale x scale block of src into one pixel of
// dst, the way a multisample resolve averages its samples.
func resolveBox(dst, src *image.RGBA, scale int) {
	n := uint32(scale * scale)
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum [4]uint32
			for sy := 0; sy < scale; sy++ {
				off := (y*scale+sy)*src.Stride + x*scale*4
				for sx := 0; sx < scale; sx++ {
					p := src.Pix[off+sx*4 : off+sx*4+4 : off+sx*4+4]
					sum[0] += uint32(p[0])
					sum[1] += uint32(p[1])
					sum[2] += uint32(p[2])
					sum[3] += uint32(p[3])
				}
			}
			d := dst.PixOffset(x, y)
			for i := range sum {
				dst.Pix[d+i] = uint8((sum[i] + n/2) / n)
			}
		}
	}
}

// SetPixel sets a single pixel of the backing image.
func (t *PixmapTarget) SetPixel(x, y int, c color.Color) {
	t.img.Set(x, y, c)
}

// GetPixel returns the color of the backing image at the given coordinates.
func (t *PixmapTarget) GetPixel(x, y int) color.Color {
	return t.img.At(x, y)
}

// Resize reallocates the backing image for the given dimensions.
// The contents are not preserved.
func (t *PixmapTarget) Resize(width, height int) {
	t.width = width
	t.height = height
	t.img = image.NewRGBA(image.Rect(0, 0, width*t.scale, height*t.scale))
}

// Destroy drops the backing image.
func (t *PixmapTarget) Destroy() {
	t.destroyed = true
	t.img = &image.RGBA{}
}

// Destroyed reports whether Destroy has been called.
func (t *PixmapTarget) Destroyed() bool {
	return t.destroyed
}

// Ensure PixmapTarget implements Target.
var _ Target = (*PixmapTarget)(nil)
