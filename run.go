// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package offscreen

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gogpu/offscreen/imagefile"
	"github.com/gogpu/offscreen/internal/assetcache"
	"github.com/gogpu/offscreen/internal/watch"
	"github.com/gogpu/offscreen/scene"
	"github.com/gogpu/offscreen/schedule"
	"github.com/gogpu/offscreen/surface"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/sync/errgroup"
)

// Run loads the scene, opens the surface context and renders frames until
// ctx is cancelled. With cfg.Once it renders one frame and returns.
//
// Startup failures are returned as *Error of KindSceneLoad or KindContext.
// Per-frame failures are logged and retried on the next trigger; in once
// mode the frame's error is returned.
func Run(ctx context.Context, cfg Config, opts ...Option) (err error) {
	if err := cfg.Validate(); err != nil {
		return err
	}
	o := applyOptions(opts)
	logger := o.logger

	scenePath, err := homedir.Expand(cfg.Scene)
	if err != nil {
		return newError(KindSceneLoad, cfg.Scene, err)
	}
	sc, err := scene.Load(scenePath)
	if err != nil {
		return newError(KindSceneLoad, cfg.Scene, err)
	}
	if cfg.Width > 0 || cfg.Height > 0 {
		sc.SetSize(cfg.Width, cfg.Height)
	}
	w, h := sc.Size()
	logger.Info("scene loaded", "path", scenePath, "width", w, "height", h)

	host := NewHost(sc, logger)

	gpu, err := openSurface(cfg, o)
	if err != nil {
		return err
	}
	outputs, err := cfg.Outputs()
	if err != nil {
		_ = gpu.Close()
		return err
	}
	if o.writer == nil {
		o.writer = imagefile.Writer{JPEGQuality: cfg.JPEGQuality}
	}
	p := NewPipeline(gpu, host, outputs, cfg.Strategy,
		WithLogger(logger), WithWriter(o.writer))
	defer func() {
		logStats(logger, p.Stats())
		err = errors.Join(err, p.Close())
	}()

	if cfg.Once {
		return p.RenderOnce(ctx)
	}

	sched, err := schedule.New(cfg.Cadence.Schedule(), p.Render,
		schedule.WithClock(o.clock),
		schedule.WithLogger(logger),
		schedule.WithFlush(func() { host.Flush() }))
	if err != nil {
		return err
	}
	host.SetListeners(sched.Notify, sched.Wake)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })

	if cfg.Watch {
		watcher, err := watch.New(scenePath, logger)
		if err != nil {
			logger.Warn("scene file not watched", "path", scenePath, "err", err)
		} else {
			g.Go(func() error {
				return watcher.Run(gctx, func() { host.Post(reload(scenePath)) })
			})
		}
	}
	return g.Wait()
}

// openSurface opens the configured backend, or takes the injected context,
// and checks that it can be made current.
func openSurface(cfg Config, o options) (surface.Context, error) {
	gpu := o.surface
	if gpu == nil {
		var err error
		gpu, err = surface.Open(cfg.Backend, surface.Options{Format: cfg.Surface, Logger: o.logger})
		if err != nil {
			return nil, newError(KindContext, "open "+cfg.Backend, err)
		}
	}
	if err := surface.With(gpu, func() error { return nil }); err != nil {
		_ = gpu.Close()
		return nil, newError(KindContext, "acquire "+gpu.Backend(), err)
	}
	return gpu, nil
}

// reload returns a mutation replacing the scene with the file at path. On
// a parse error the previous scene is kept.
func reload(path string) Mutation {
	return func(s *scene.Scene) error {
		doc, err := scene.ReadFile(path)
		if err != nil {
			return err
		}
		return s.Replace(doc)
	}
}

func logStats(logger *slog.Logger, s Stats) {
	logger.Info("pipeline stopped",
		"renders", s.Renders, "failures", s.Failures, "persisted", s.Persisted,
		"allocations", s.Cache.Allocations, "reuses", s.Cache.Reuses,
		"asset_hits", assetcache.Shared.Stats().Hits)
}
