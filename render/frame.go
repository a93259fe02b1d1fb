// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrEmptyFrame is returned when readback produced no usable pixels.
var ErrEmptyFrame = errors.New("render: empty frame")

// PixelFormat identifies the memory layout of a Frame.
type PixelFormat uint8

const (
	// PixelFormatRGBA8 is 8-bit R, G, B, A with premultiplied alpha.
	PixelFormatRGBA8 PixelFormat = iota
)

// String returns the format name.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGBA8:
		return "RGBA8"
	default:
		return fmt.Sprintf("PixelFormat(%d)", f)
	}
}

// BytesPerPixel returns the pixel size in bytes.
func (f PixelFormat) BytesPerPixel() int {
	return 4
}

// Frame is an immutable CPU copy of one rendered target.
//
// A Frame is produced fresh by every readback, handed once to the image
// writer and then dropped. Nothing in this package retains or mutates it
// after construction.
type Frame struct {
	img    *image.RGBA
	format PixelFormat
	seq    uint64
}

// NewFrame takes ownership of img and wraps it as a Frame. The caller must
// not modify img afterwards. It fails with ErrEmptyFrame for nil or
// zero-sized images and for images whose pixel slice is too short.
func NewFrame(img *image.RGBA, seq uint64) (*Frame, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrEmptyFrame)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyFrame, b.Dx(), b.Dy())
	}
	if img.Stride < b.Dx()*4 || len(img.Pix) < img.Stride*(b.Dy()-1)+b.Dx()*4 {
		return nil, fmt.Errorf("%w: short pixel buffer (%d bytes for %dx%d)", ErrEmptyFrame, len(img.Pix), b.Dx(), b.Dy())
	}
	return &Frame{img: img, format: PixelFormatRGBA8, seq: seq}, nil
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.img.Bounds().Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.img.Bounds().Dy() }

// Format returns the pixel format.
func (f *Frame) Format() PixelFormat { return f.format }

// Stride returns the number of bytes per row.
func (f *Frame) Stride() int { return f.img.Stride }

// Sequence returns the render sequence number the frame was produced by.
func (f *Frame) Sequence() uint64 { return f.seq }

// At returns the pixel at (x, y).
func (f *Frame) At(x, y int) color.RGBA {
	return f.img.RGBAAt(x, y)
}

// Image exposes the frame as an image.Image for encoders.
// The returned value must be treated as read-only.
func (f *Frame) Image() image.Image {
	return f.img
}

// Bytes returns a copy of the pixel data.
func (f *Frame) Bytes() []byte {
	out := make([]byte, len(f.img.Pix))
	copy(out, f.img.Pix)
	return out
}
