// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package offscreen

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/offscreen/render"
	"github.com/gogpu/offscreen/scene"
)

// Mutation changes the scene. Mutations run on the render loop.
type Mutation func(s *scene.Scene) error

// Host owns the scene graph on behalf of the render loop.
//
// Other goroutines never touch the scene directly: they Post mutations,
// which Flush applies on the loop before the next render decision. Every
// scene change bumps a generation counter and fires the dirty listener.
type Host struct {
	scene  *scene.Scene
	logger *slog.Logger

	mu      sync.Mutex
	queue   []Mutation
	onDirty func()
	onPost  func()

	gen       atomic.Uint64
	rendering bool
}

// NewHost takes ownership of s.
func NewHost(s *scene.Scene, logger *slog.Logger) *Host {
	if logger == nil {
		logger = Logger()
	}
	h := &Host{scene: s, logger: logger}
	s.OnChange(h.NotifyDirty)
	return h
}

// SetListeners registers the functions called when the scene becomes
// dirty and when a mutation is posted. Either may be nil.
func (h *Host) SetListeners(onDirty, onPost func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDirty = onDirty
	h.onPost = onPost
}

// Post queues a mutation. Safe for concurrent use.
func (h *Host) Post(m Mutation) {
	h.mu.Lock()
	h.queue = append(h.queue, m)
	onPost := h.onPost
	h.mu.Unlock()
	if onPost != nil {
		onPost()
	}
}

// Flush applies queued mutations in order and returns how many ran. A
// failing mutation is logged; the scene keeps whatever state it left.
func (h *Host) Flush() int {
	h.mu.Lock()
	queue := h.queue
	h.queue = nil
	h.mu.Unlock()

	for _, m := range queue {
		if err := m(h.scene); err != nil {
			h.logger.Warn("scene mutation failed", "err", err)
		}
	}
	return len(queue)
}

// NotifyDirty records a scene change. The scene calls it after every
// mutation; callers changing state the scene cannot observe may call it
// directly.
func (h *Host) NotifyDirty() {
	h.gen.Add(1)
	h.mu.Lock()
	onDirty := h.onDirty
	h.mu.Unlock()
	if onDirty != nil {
		onDirty()
	}
}

// Generation returns the number of changes recorded so far.
func (h *Host) Generation() uint64 {
	return h.gen.Load()
}

// CurrentSize returns the scene's natural size in pixels.
func (h *Host) CurrentSize() (width, height int) {
	return h.scene.Size()
}

// RenderInto lays out the scene, clears t to the background and paints
// the scene over it. t must match CurrentSize.
//
// RenderInto is not reentrant.
func (h *Host) RenderInto(t render.Target) error {
	if h.rendering {
		return scene.ErrReentrantRender
	}
	h.rendering = true
	defer func() { h.rendering = false }()

	w, ht := h.scene.Layout()
	if t.Width() != w || t.Height() != ht {
		return fmt.Errorf("%w: target %dx%d, scene %dx%d", render.ErrSizeMismatch, t.Width(), t.Height(), w, ht)
	}
	if err := t.Clear(h.scene.Background()); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	pw, ph := render.PaintSize(t)
	layer := image.NewRGBA(image.Rect(0, 0, pw, ph))
	if err := h.scene.Paint(layer, t.Scale()); err != nil {
		return err
	}
	if err := t.Upload(layer); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}
