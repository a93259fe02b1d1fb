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

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// sniffLen is the number of header bytes filetype needs to match a format.
const sniffLen = 262

// Open decodes the image file at filename.
func Open(filename string) (image.Image, Format, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, None, err
	}
	defer file.Close()

	img, f, err := Read(file)
	if err != nil {
		return nil, None, fmt.Errorf("imagefile: %s: %w", filepath.Base(filename), err)
	}
	return img, f, nil
}

// Read decodes an image, sniffing the format from its header. Content with
// no recognizable signature is decoded as TGA, which has none.
func Read(r io.Reader) (image.Image, Format, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, None, err
	}
	if len(head) == 0 {
		return nil, None, fmt.Errorf("%w: empty input", ErrUnsupportedFormat)
	}

	f, err := Sniff(head)
	if err != nil {
		return nil, None, err
	}

	var img image.Image
	switch f {
	case BMP:
		img, err = bmp.Decode(br)
	case PNG:
		img, err = png.Decode(br)
	case JPEG:
		img, err = jpeg.Decode(br)
	case GIF:
		img, err = gif.Decode(br)
	case TIFF:
		img, err = tiff.Decode(br)
	case WebP:
		img, err = webp.Decode(br)
	case TGA:
		img, err = tga.Decode(br)
	}
	if err != nil {
		return nil, None, fmt.Errorf("decode %v: %w", f, err)
	}
	return img, f, nil
}

// Sniff identifies the format of an encoded image from its first bytes.
// Unknown signatures are assumed to be TGA; known non-image types are
// rejected.
func Sniff(head []byte) (Format, error) {
	kind, err := filetype.Match(head)
	if err != nil {
		return None, err
	}
	// TGA has no signature, and an uncompressed true-color TGA header
	// (00 00 02 00) also matches the cursor signature.
	if kind == filetype.Unknown || kind.Extension == "cur" {
		return TGA, nil
	}
	f, err := ExtToFormat(kind.Extension)
	if err != nil {
		return None, fmt.Errorf("%w: content is %s", ErrUnsupportedFormat, kind.MIME.Value)
	}
	return f, nil
}
