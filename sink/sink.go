// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package sink turns rendered targets into image files.
//
// Readback copies a target into an immutable [render.Frame]. Persist hands
// a frame to an [ImageWriter]. A frame is only considered done once every
// configured output was written.
package sink

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"github.com/gogpu/offscreen/imagefile"
	"github.com/gogpu/offscreen/render"
)

var (
	// ErrReadback is returned when a target could not be read back.
	ErrReadback = errors.New("sink: readback failed")

	// ErrPersist is returned when a frame could not be written.
	ErrPersist = errors.New("sink: persist failed")
)

// ImageWriter writes an image to path in format f, replacing any existing
// file. imagefile.Writer implements it.
type ImageWriter interface {
	Write(path string, img image.Image, f imagefile.Format) error
}

// Output is one file produced for every frame.
type Output struct {
	Path   string
	Format imagefile.Format
}

// OutputFor returns an Output whose format is derived from the path
// extension.
func OutputFor(path string) (Output, error) {
	f, err := imagefile.ExtToFormat(filepath.Ext(path))
	if err != nil {
		return Output{}, err
	}
	return Output{Path: path, Format: f}, nil
}

// Sink reads back targets and persists frames.
type Sink struct {
	writer ImageWriter
	logger *slog.Logger
	seq    uint64
}

// New returns a Sink writing through w. A nil logger discards output.
func New(w ImageWriter, logger *slog.Logger) *Sink {
	if w == nil {
		w = imagefile.Writer{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{writer: w, logger: logger}
}

// Readback copies the target's pixels into a new Frame. The target's
// context must be current and its render pass complete.
func (s *Sink) Readback(t render.Target) (*render.Frame, error) {
	img, err := t.ReadPixels()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadback, t.Label(), err)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadback, t.Label(), render.ErrEmptyFrame)
	}
	if got := img.Bounds().Size(); got.X != t.Width() || got.Y != t.Height() {
		return nil, fmt.Errorf("%w: %s: got %v, target is %dx%d", ErrReadback, t.Label(), got, t.Width(), t.Height())
	}
	s.seq++
	frame, err := render.NewFrame(img, s.seq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadback, t.Label(), err)
	}
	s.logger.Debug("frame read back", "target", t.Label(), "seq", frame.Sequence(),
		"width", frame.Width(), "height", frame.Height())
	return frame, nil
}

// Persist writes frame to path in format f.
func (s *Sink) Persist(frame *render.Frame, path string, f imagefile.Format) error {
	if frame == nil {
		return fmt.Errorf("%w: %s: %w", ErrPersist, path, render.ErrEmptyFrame)
	}
	if err := s.writer.Write(path, frame.Image(), f); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersist, path, err)
	}
	s.logger.Debug("frame written", "path", path, "format", f, "seq", frame.Sequence())
	return nil
}

// PersistAll writes frame to every output. All outputs are attempted; the
// returned error joins every failure.
func (s *Sink) PersistAll(frame *render.Frame, outputs []Output) error {
	var errs []error
	for _, o := range outputs {
		if err := s.Persist(frame, o.Path, o.Format); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
