// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package offscreen

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gogpu/offscreen/imagefile"
	"github.com/gogpu/offscreen/render"
	"github.com/gogpu/offscreen/schedule"
	"github.com/gogpu/offscreen/sink"
	"github.com/gogpu/offscreen/surface"
)

// Stats counts pipeline activity.
type Stats struct {
	Renders   int
	Failures  int
	Persisted int
	Cache     render.CacheStats
}

// Pipeline renders the hosted scene and persists each frame.
//
// The pipeline owns its surface context and, with StrategyFBO, a target
// cache. Render must only be called from one goroutine at a time; the
// scheduler guarantees that.
//
// The pending-render flag is kept as two generations: the host's change
// count and the change count captured by the last persisted frame. The
// flag is set while they differ, or while a forced render (startup or
// periodic) has not yet been persisted.
type Pipeline struct {
	surface  surface.Context
	host     *Host
	sink     *sink.Sink
	outputs  []sink.Output
	strategy Strategy
	samples  int
	cache    *render.TargetCache
	logger   *slog.Logger

	mu        sync.Mutex
	persisted uint64
	forced    bool
	stats     Stats
}

// NewPipeline creates a pipeline over an open context. The pipeline owns
// sc and closes it in Close.
func NewPipeline(sc surface.Context, host *Host, outputs []sink.Output, strategy Strategy, opts ...Option) *Pipeline {
	o := applyOptions(opts)
	writer := o.writer
	if writer == nil {
		writer = imagefile.Writer{}
	}
	format := sc.Format()
	p := &Pipeline{
		surface:  sc,
		host:     host,
		sink:     sink.New(writer, o.logger),
		outputs:  outputs,
		strategy: strategy,
		samples:  max(format.SampleCount, 1),
		logger:   o.logger,
		forced:   true,
	}
	if strategy == StrategyFBO {
		p.cache = render.NewTargetCache(sc, sc.ColorFormat(),
			render.WithDepthStencil(format.HasDepthStencil()),
			render.WithLabel("offscreen"),
			render.WithLogger(o.logger))
	}
	return p
}

// Pending reports whether the latest scene state still needs to be
// persisted.
func (p *Pipeline) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.forced || p.host.Generation() > p.persisted
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	if p.cache != nil {
		s.Cache = p.cache.Stats()
	}
	return s
}

// Render runs one render-and-save cycle. Its signature matches
// schedule.RenderFunc. Immediate and periodic triggers force a frame even
// when nothing changed. The pending-render flag is cleared only when every
// output was written.
func (p *Pipeline) Render(_ context.Context, t schedule.Trigger) error {
	gen := p.host.Generation()
	p.mu.Lock()
	if t != schedule.TriggerDebounced {
		p.forced = true
	}
	p.stats.Renders++
	p.mu.Unlock()

	err := p.render()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.stats.Failures++
		return err
	}
	p.stats.Persisted++
	p.persisted = max(p.persisted, gen)
	p.forced = false
	return nil
}

// RenderOnce renders and persists a single frame.
func (p *Pipeline) RenderOnce(ctx context.Context) error {
	return p.Render(ctx, schedule.TriggerImmediate)
}

func (p *Pipeline) render() error {
	if err := p.surface.Acquire(); err != nil {
		return newError(KindContext, "acquire", err)
	}
	defer p.surface.Release()

	w, h := p.host.CurrentSize()
	target, err := p.target(w, h)
	if err != nil {
		return newError(KindAllocation, "target", err)
	}
	if err := p.host.RenderInto(target); err != nil {
		return newError(KindRender, target.Label(), err)
	}
	frame, err := p.sink.Readback(target)
	if err != nil {
		return newError(KindReadback, target.Label(), err)
	}
	if err := p.sink.PersistAll(frame, p.outputs); err != nil {
		return newError(KindPersist, "write", err)
	}
	p.logger.Info("frame persisted", "seq", frame.Sequence(),
		"width", frame.Width(), "height", frame.Height(), "outputs", len(p.outputs))
	return nil
}

func (p *Pipeline) target(w, h int) (render.Target, error) {
	if p.strategy == StrategyGrab {
		return p.surface.DefaultTarget(w, h)
	}
	return p.cache.TargetFor(w, h, p.samples)
}

// Close releases the cached target and closes the surface context.
func (p *Pipeline) Close() error {
	var errs []error
	if p.cache != nil {
		err := surface.With(p.surface, func() error {
			p.cache.Destroy()
			return nil
		})
		if err != nil && !errors.Is(err, surface.ErrClosed) {
			errs = append(errs, err)
		}
	}
	errs = append(errs, p.surface.Close())
	return errors.Join(errs...)
}
