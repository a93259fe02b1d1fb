// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package offscreen

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/gogpu/offscreen/imagefile"
	"github.com/gogpu/offscreen/render"
	"github.com/gogpu/offscreen/scene"
	"github.com/gogpu/offscreen/schedule"
	"github.com/gogpu/offscreen/sink"
	"github.com/gogpu/offscreen/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyWriter fails while fail is set and calls during on every write.
type flakyWriter struct {
	imagefile.Writer
	fail   bool
	during func()
	writes int
}

func (w *flakyWriter) Write(path string, img image.Image, f imagefile.Format) error {
	w.writes++
	if w.during != nil {
		w.during()
	}
	if w.fail {
		return errors.New("no space left on device")
	}
	return w.Writer.Write(path, img, f)
}

type pipelineFixture struct {
	p    *Pipeline
	host *Host
	dir  string
	bmp  string
}

func newHost(t *testing.T, src string) *Host {
	t.Helper()
	doc, err := scene.Parse([]byte(src))
	require.NoError(t, err)
	sc, err := scene.New(doc, "")
	require.NoError(t, err)
	return NewHost(sc, nil)
}

func newPipeline(t *testing.T, src string, strategy Strategy, sopts surface.Options, opts ...Option) *pipelineFixture {
	t.Helper()
	if sopts.Format == (surface.Format{}) {
		sopts.Format = surface.DefaultFormat()
	}
	gpu, err := surface.NewImageContext(sopts)
	require.NoError(t, err)

	host := newHost(t, src)
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	outputs, err := cfg.Outputs()
	require.NoError(t, err)

	p := NewPipeline(gpu, host, outputs, strategy, opts...)
	t.Cleanup(func() { assert.NoError(t, p.Close()) })
	return &pipelineFixture{p: p, host: host, dir: cfg.OutputDir, bmp: outputs[0].Path}
}

func readOutput(t *testing.T, path string) image.Image {
	t.Helper()
	img, format, err := imagefile.Open(path)
	require.NoError(t, err)
	require.Equal(t, imagefile.BMP, format)
	return img
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func TestPipelineStartupFrame(t *testing.T) {
	f := newPipeline(t, "nodes: []\n", StrategyFBO, surface.Options{})
	assert.True(t, f.p.Pending(), "nothing persisted yet")

	require.NoError(t, f.p.RenderOnce(context.Background()))
	assert.False(t, f.p.Pending())

	img := readOutput(t, filepath.Join(f.dir, "offscreen_output.bmp"))
	assert.Equal(t, image.Pt(800, 600), img.Bounds().Size())
	for _, p := range []image.Point{{0, 0}, {799, 599}, {400, 300}} {
		assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgba(img.At(p.X, p.Y)))
	}

	stats := f.p.Stats()
	assert.Equal(t, 1, stats.Renders)
	assert.Equal(t, 1, stats.Persisted)
	assert.Equal(t, 1, stats.Cache.Allocations)
}

func TestPipelineDrawsScene(t *testing.T) {
	src := `
width: 40
height: 40
background: black
nodes:
  - {type: rect, x: 10, y: 10, width: 20, height: 20, fill: red}
`
	for _, samples := range []int{1, 4} {
		format := surface.DefaultFormat()
		format.SampleCount = samples
		f := newPipeline(t, src, StrategyFBO, surface.Options{Format: format})
		require.NoError(t, f.p.RenderOnce(context.Background()))

		img := readOutput(t, f.bmp)
		assert.Equal(t, image.Pt(40, 40), img.Bounds().Size(), "samples=%d", samples)
		assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba(img.At(20, 20)), "samples=%d", samples)
		assert.Equal(t, color.RGBA{0, 0, 0, 255}, rgba(img.At(2, 2)), "samples=%d", samples)
	}
}

func TestPipelinePersistFailureKeepsFlag(t *testing.T) {
	w := &flakyWriter{fail: true}
	f := newPipeline(t, "nodes: []\n", StrategyFBO, surface.Options{}, WithWriter(w))

	err := f.p.Render(context.Background(), schedule.TriggerImmediate)
	require.ErrorIs(t, err, ErrPersist)
	assert.ErrorIs(t, err, sink.ErrPersist)
	assert.Equal(t, KindPersist, KindOf(err))
	assert.False(t, KindOf(err).Fatal())
	assert.True(t, f.p.Pending(), "failed persist leaves the flag set")

	w.fail = false
	require.NoError(t, f.p.Render(context.Background(), schedule.TriggerPeriodic))
	assert.False(t, f.p.Pending())

	stats := f.p.Stats()
	assert.Equal(t, 2, stats.Renders)
	assert.Equal(t, 1, stats.Failures)
	assert.Equal(t, 1, stats.Persisted)
}

func TestPipelineFlagConvergence(t *testing.T) {
	w := &flakyWriter{}
	f := newPipeline(t, "nodes: [{type: rect, id: box, width: 10, height: 10}]\n", StrategyFBO, surface.Options{}, WithWriter(w))
	ctx := context.Background()

	require.NoError(t, f.p.RenderOnce(ctx))
	assert.False(t, f.p.Pending())

	require.NoError(t, f.host.scene.Update("box", func(n *scene.Node) { n.Width = 20 }))
	assert.True(t, f.p.Pending())
	require.NoError(t, f.p.Render(ctx, schedule.TriggerDebounced))
	assert.False(t, f.p.Pending())

	// A change that lands while the frame is being written is not covered
	// by that frame.
	w.during = f.host.NotifyDirty
	require.NoError(t, f.p.Render(ctx, schedule.TriggerDebounced))
	assert.True(t, f.p.Pending())

	w.during = nil
	require.NoError(t, f.p.Render(ctx, schedule.TriggerDebounced))
	assert.False(t, f.p.Pending())
}

func TestPipelineTargetReuse(t *testing.T) {
	f := newPipeline(t, "nodes: []\n", StrategyFBO, surface.Options{})
	ctx := context.Background()

	require.NoError(t, f.p.RenderOnce(ctx))
	first := f.p.cache.Current()
	require.NoError(t, f.p.RenderOnce(ctx))
	assert.Same(t, first, f.p.cache.Current(), "same size reuses the target")

	stats := f.p.Stats().Cache
	assert.Equal(t, 1, stats.Allocations)
	assert.Equal(t, 1, stats.Reuses)

	f.host.Post(func(s *scene.Scene) error {
		s.SetSize(1024, 768)
		return nil
	})
	assert.Equal(t, 1, f.host.Flush())
	require.NoError(t, f.p.Render(ctx, schedule.TriggerPeriodic))

	stats = f.p.Stats().Cache
	assert.Equal(t, 2, stats.Allocations, "a resize reallocates exactly once")
	assert.Equal(t, 1, stats.Destroyed)
	assert.True(t, first.(*render.PixmapTarget).Destroyed())

	img := readOutput(t, f.bmp)
	assert.Equal(t, image.Pt(1024, 768), img.Bounds().Size())
}

func TestPipelineGrabStrategy(t *testing.T) {
	f := newPipeline(t, "width: 64\nheight: 32\nbackground: blue\n", StrategyGrab, surface.Options{})
	require.NoError(t, f.p.RenderOnce(context.Background()))

	img := readOutput(t, f.bmp)
	assert.Equal(t, image.Pt(64, 32), img.Bounds().Size())
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, rgba(img.At(10, 10)))
	assert.Nil(t, f.p.cache)
	assert.Zero(t, f.p.Stats().Cache)
}

func TestPipelineAllocationFailure(t *testing.T) {
	f := newPipeline(t, "nodes: []\n", StrategyFBO, surface.Options{MaxTextureSize: 256})

	err := f.p.RenderOnce(context.Background())
	require.ErrorIs(t, err, ErrAllocation)
	assert.ErrorIs(t, err, render.ErrTargetTooLarge)
	assert.True(t, f.p.Pending())
	assert.Nil(t, f.p.cache.Current())
	assert.False(t, f.p.surface.IsCurrent(), "context released on failure")
}

// lossyContext hands out targets whose readback fails while fail is set.
type lossyContext struct {
	*surface.ImageContext
	fail bool
}

func (c *lossyContext) NewTarget(desc render.TargetDescriptor) (render.Target, error) {
	t, err := c.ImageContext.NewTarget(desc)
	if err != nil {
		return nil, err
	}
	return &lossyTarget{Target: t, ctx: c}, nil
}

type lossyTarget struct {
	render.Target
	ctx *lossyContext
}

func (t *lossyTarget) ReadPixels() (*image.RGBA, error) {
	if t.ctx.fail {
		return nil, errors.New("device lost during copy")
	}
	return t.Target.ReadPixels()
}

func TestPipelineReadbackFailure(t *testing.T) {
	img, err := surface.NewImageContext(surface.Options{Format: surface.DefaultFormat()})
	require.NoError(t, err)
	gpu := &lossyContext{ImageContext: img, fail: true}

	w := &flakyWriter{}
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	outputs, err := cfg.Outputs()
	require.NoError(t, err)
	p := NewPipeline(gpu, newHost(t, "width: 16\nheight: 8\n"), outputs, StrategyFBO, WithWriter(w))
	t.Cleanup(func() { assert.NoError(t, p.Close()) })

	err = p.RenderOnce(context.Background())
	require.ErrorIs(t, err, ErrReadback)
	assert.ErrorIs(t, err, sink.ErrReadback)
	assert.Equal(t, KindReadback, KindOf(err))
	assert.False(t, KindOf(err).Fatal())
	assert.True(t, p.Pending(), "failed readback leaves the flag set")
	assert.Zero(t, w.writes, "nothing is persisted without a frame")
	assert.False(t, gpu.IsCurrent(), "context released on failure")

	gpu.fail = false
	require.NoError(t, p.Render(context.Background(), schedule.TriggerPeriodic))
	assert.False(t, p.Pending())
	assert.Equal(t, 1, w.writes)

	stats := p.Stats()
	assert.Equal(t, 1, stats.Failures)
	assert.Equal(t, 1, stats.Cache.Reuses, "the retry reuses the target")
}

func TestPipelineClosedContext(t *testing.T) {
	f := newPipeline(t, "nodes: []\n", StrategyFBO, surface.Options{})
	require.NoError(t, f.p.surface.Close())

	err := f.p.RenderOnce(context.Background())
	assert.ErrorIs(t, err, ErrContext)
	assert.ErrorIs(t, err, surface.ErrClosed)
}
