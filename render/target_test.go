// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNewPixmapTarget(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{"small", 100, 100},
		{"medium", 800, 600},
		{"wide", 1000, 100},
		{"tall", 100, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := NewPixmapTarget(tt.width, tt.height)

			if target.Width() != tt.width {
				t.Errorf("Width() = %d, want %d", target.Width(), tt.width)
			}
			if target.Height() != tt.height {
				t.Errorf("Height() = %d, want %d", target.Height(), tt.height)
			}
			if target.Format() != gputypes.TextureFormatRGBA8Unorm {
				t.Errorf("Format() = %v, want RGBA8Unorm", target.Format())
			}
			if target.SampleCount() != 1 || target.Scale() != 1 {
				t.Errorf("SampleCount/Scale = %d/%d, want 1/1", target.SampleCount(), target.Scale())
			}
			if target.Stride() != tt.width*4 {
				t.Errorf("Stride() = %d, want %d", target.Stride(), tt.width*4)
			}
		})
	}
}

func TestSupersampleScale(t *testing.T) {
	tests := []struct {
		samples int
		want    int
	}{
		{0, 1},
		{1, 1},
		{2, 1},
		{4, 2},
		{8, 2},
		{9, 3},
		{16, 4},
	}
	for _, tt := range tests {
		if got := SupersampleScale(tt.samples); got != tt.want {
			t.Errorf("SupersampleScale(%d) = %d, want %d", tt.samples, got, tt.want)
		}
	}
}

func TestPixmapTargetFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	img.SetRGBA(50, 50, color.RGBA{255, 0, 0, 255})

	target := NewPixmapTargetFromImage(img)

	if target.Width() != 200 || target.Height() != 150 {
		t.Errorf("size = %dx%d, want 200x150", target.Width(), target.Height())
	}

	pixel := target.GetPixel(50, 50)
	r, g, b, a := pixel.RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 || a>>8 != 255 {
		t.Errorf("GetPixel(50, 50) = %v, want red", pixel)
	}
}

func TestPixmapTargetClear(t *testing.T) {
	target := NewPixmapTarget(10, 10)

	if err := target.Clear(color.RGBA{0, 0, 255, 255}); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			pixel := target.GetPixel(x, y).(color.RGBA)
			if pixel != (color.RGBA{0, 0, 255, 255}) {
				t.Errorf("Pixel at (%d, %d) = %v, want blue", x, y, pixel)
			}
		}
	}
}

func TestPixmapTargetUpload(t *testing.T) {
	target := NewPixmapTarget(4, 4)
	_ = target.Clear(color.White)

	layer := image.NewRGBA(image.Rect(0, 0, 4, 4))
	layer.SetRGBA(1, 1, color.RGBA{255, 0, 0, 255})

	if err := target.Upload(layer); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if got := target.GetPixel(1, 1).(color.RGBA); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("uploaded pixel = %v, want red", got)
	}
	// Transparent layer pixels keep the cleared background.
	if got := target.GetPixel(0, 0).(color.RGBA); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("background pixel = %v, want white", got)
	}
}

func TestPixmapTargetUploadSizeMismatch(t *testing.T) {
	target := NewPixmapTarget(4, 4)
	err := target.Upload(image.NewRGBA(image.Rect(0, 0, 3, 4)))
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Upload error = %v, want ErrSizeMismatch", err)
	}
}

func TestPixmapTargetReadPixelsSupersampled(t *testing.T) {
	target := NewPixmapTargetWithSamples("ss", 8, 6, 4)

	if target.Scale() != 2 {
		t.Fatalf("Scale() = %d, want 2", target.Scale())
	}
	pw, ph := PaintSize(target)
	if pw != 16 || ph != 12 {
		t.Fatalf("PaintSize = %dx%d, want 16x12", pw, ph)
	}

	_ = target.Clear(color.White)
	img, err := target.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Fatalf("resolved size = %v, want 8x6", img.Bounds().Size())
	}
	if got := img.RGBAAt(3, 3); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("resolved pixel = %v, want white", got)
	}
}

func TestPixmapTargetResolveAveragesSamples(t *testing.T) {
	target := NewPixmapTargetWithSamples("ss", 2, 1, 4)
	_ = target.Clear(color.Black)

	// Left pixel: one of four samples white. Right pixel: a hard edge with
	// the left half white.
	target.SetPixel(0, 0, color.White)
	target.SetPixel(2, 0, color.White)
	target.SetPixel(2, 1, color.White)

	img, err := target.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{64, 64, 64, 255}) {
		t.Errorf("quarter coverage = %v, want {64 64 64 255}", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{128, 128, 128, 255}) {
		t.Errorf("half coverage = %v, want {128 128 128 255}", got)
	}
}

func TestPixmapTargetReadPixelsIsCopy(t *testing.T) {
	target := NewPixmapTarget(2, 2)
	_ = target.Clear(color.Black)

	img, err := target.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	_ = target.Clear(color.White)

	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("readback changed after Clear: %v", got)
	}
}

func TestPixmapTargetResize(t *testing.T) {
	target := NewPixmapTargetWithSamples("r", 100, 100, 4)
	target.Resize(200, 50)

	if target.Width() != 200 || target.Height() != 50 {
		t.Errorf("size after Resize = %dx%d, want 200x50", target.Width(), target.Height())
	}
	if b := target.Image().Bounds(); b.Dx() != 400 || b.Dy() != 100 {
		t.Errorf("backing image = %v, want 400x100", b.Size())
	}
}

func TestPixmapTargetDestroy(t *testing.T) {
	target := NewPixmapTarget(10, 10)
	target.Destroy()
	target.Destroy()

	if !target.Destroyed() {
		t.Error("Destroyed() = false after Destroy")
	}
	if err := target.Clear(color.White); !errors.Is(err, ErrTargetDestroyed) {
		t.Errorf("Clear after Destroy = %v, want ErrTargetDestroyed", err)
	}
	if _, err := target.ReadPixels(); !errors.Is(err, ErrTargetDestroyed) {
		t.Errorf("ReadPixels after Destroy = %v, want ErrTargetDestroyed", err)
	}
}
