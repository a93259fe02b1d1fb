// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package imagefile reads and writes image files in the formats the
// renderer can persist frames to.
package imagefile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned for unknown format names or extensions.
var ErrUnsupportedFormat = errors.New("imagefile: unsupported format")

// Format is an image encoding format.
type Format int

// Supported formats.
const (
	None Format = iota
	BMP
	PNG
	JPEG
	GIF
	TIFF
	WebP
	TGA
)

var formatNames = [...]string{
	None: "none",
	BMP:  "bmp",
	PNG:  "png",
	JPEG: "jpeg",
	GIF:  "gif",
	TIFF: "tiff",
	WebP: "webp",
	TGA:  "tga",
}

// String returns the lower-case format name.
func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// Ext returns the canonical file extension, including the dot.
func (f Format) Ext() string {
	switch f {
	case None:
		return ""
	case JPEG:
		return ".jpg"
	default:
		return "." + f.String()
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	v, err := ExtToFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ExtToFormat returns the Format for a filename extension or format name,
// with or without a leading dot.
func ExtToFormat(ext string) (Format, error) {
	if len(ext) == 0 {
		return None, fmt.Errorf("%w: empty extension", ErrUnsupportedFormat)
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "bmp":
		return BMP, nil
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "gif":
		return GIF, nil
	case "tif", "tiff":
		return TIFF, nil
	case "webp":
		return WebP, nil
	case "tga":
		return TGA, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}
