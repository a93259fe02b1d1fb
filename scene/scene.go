// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scene

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

var (
	// ErrReentrantRender is returned when Paint is called while a paint
	// is already running.
	ErrReentrantRender = errors.New("scene: paint is not reentrant")

	// ErrNodeNotFound is returned by Update for an unknown node id.
	ErrNodeNotFound = errors.New("scene: node not found")
)

// Scene is a retained scene graph.
//
// Scene is not safe for concurrent use: mutation and painting happen on the
// render loop.
type Scene struct {
	doc      *Document
	assets   *assets
	override [2]int

	size        [2]int
	layoutDirty bool
	painting    bool

	onChange func()
}

// New creates a scene from doc. Relative file references are resolved
// against baseDir. Every referenced asset is loaded up front.
func New(doc *Document, baseDir string) (*Scene, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	a := newAssets(baseDir)
	if err := a.load(doc.Nodes); err != nil {
		return nil, err
	}
	return &Scene{doc: doc, assets: a, layoutDirty: true}, nil
}

// Load reads the document at path and creates a scene from it.
func Load(path string) (*Scene, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(doc, filepath.Dir(path))
}

// OnChange sets the function called after every mutation.
func (s *Scene) OnChange(fn func()) {
	s.onChange = fn
}

func (s *Scene) changed() {
	s.layoutDirty = true
	if s.onChange != nil {
		s.onChange()
	}
}

// Document returns the current document. Callers must not mutate it
// directly; use Update.
func (s *Scene) Document() *Document {
	return s.doc
}

// Background returns the background color.
func (s *Scene) Background() Color {
	return s.doc.background()
}

// SetSize overrides the scene size. Zero for either dimension restores the
// document or content size.
func (s *Scene) SetSize(width, height int) {
	s.override = [2]int{max(width, 0), max(height, 0)}
	s.changed()
}

// Replace swaps in a new document, such as a reloaded description. On
// error the previous document is kept.
func (s *Scene) Replace(doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	a := newAssets(s.assets.baseDir)
	if err := a.load(doc.Nodes); err != nil {
		return err
	}
	s.doc = doc
	s.assets = a
	s.changed()
	return nil
}

// Update applies fn to a copy of the node with the given id. The copy
// replaces the node only if it is valid and its assets load; otherwise
// the scene is left untouched and no change is reported.
func (s *Scene) Update(id string, fn func(*Node)) error {
	n := s.doc.find(id)
	if n == nil {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	next := n.clone()
	fn(next)
	if err := next.validate(id); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := s.assets.load([]*Node{next}); err != nil {
		return err
	}
	*n = *next
	s.changed()
	return nil
}

// Layout runs the layout pass and returns the natural size.
func (s *Scene) Layout() (width, height int) {
	if s.layoutDirty {
		content := s.assets.layoutNodes(s.doc.Nodes)
		s.size[0], s.size[1] = naturalSize(s.doc, s.override, content)
		s.layoutDirty = false
	}
	return s.size[0], s.size[1]
}

// Size returns the natural size, laying out if needed.
func (s *Scene) Size() (width, height int) {
	return s.Layout()
}

// Paint rasterizes the scene into dst, which must be the scene size
// multiplied by scale. dst is not cleared; nodes are drawn over it.
func (s *Scene) Paint(dst *image.RGBA, scale int) error {
	if s.painting {
		return ErrReentrantRender
	}
	s.painting = true
	defer func() { s.painting = false }()

	if scale < 1 {
		scale = 1
	}
	w, h := s.Layout()
	if got := dst.Bounds().Size(); got.X != w*scale || got.Y != h*scale {
		return fmt.Errorf("scene: paint layer %v, want %dx%d", got, w*scale, h*scale)
	}

	p := &painter{assets: s.assets, scale: float64(scale)}
	p.paintNodes(dst, s.doc.Nodes, 0, 0)
	return nil
}
