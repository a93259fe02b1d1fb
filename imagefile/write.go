// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagefile

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// DefaultJPEGQuality is used when Writer.JPEGQuality is zero.
const DefaultJPEGQuality = 90

// Writer encodes images to files. The zero value is ready to use.
type Writer struct {
	// JPEGQuality is the JPEG quality in [1, 100].
	JPEGQuality int
}

// Encode writes img to w in format f.
func (wr Writer) Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case BMP:
		return bmp.Encode(w, img)
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		q := wr.JPEGQuality
		if q <= 0 {
			q = DefaultJPEGQuality
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	case GIF:
		return gif.Encode(w, img, nil)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case WebP:
		return nativewebp.Encode(w, img, nil)
	case TGA:
		return tga.Encode(w, img)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
}

// Write encodes img to path in format f, truncating any existing file.
// The file is written in place, so a concurrent reader may observe a
// partial image.
func (wr Writer) Write(path string, img image.Image, f Format) (err error) {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("imagefile: write %s: empty image", path)
	}
	if f == None {
		return fmt.Errorf("%w: none", ErrUnsupportedFormat)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	bw := bufio.NewWriter(file)
	if err := wr.Encode(bw, img, f); err != nil {
		return fmt.Errorf("imagefile: encode %s: %w", path, err)
	}
	return bw.Flush()
}

// Save writes img to filename with the format inferred from its extension.
func Save(img image.Image, filename string) error {
	f, err := ExtToFormat(filepath.Ext(filename))
	if err != nil {
		return err
	}
	return Writer{}.Write(filename, img, f)
}
