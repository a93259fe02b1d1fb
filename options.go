// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package offscreen

import (
	"log/slog"

	"github.com/gogpu/offscreen/schedule"
	"github.com/gogpu/offscreen/sink"
	"github.com/gogpu/offscreen/surface"
)

// Option configures Run and NewPipeline.
//
// Example:
//
//	// Write frames through a custom writer on a shared device
//	sc, _ := hal.FromProvider(provider, surface.Options{Format: cfg.Surface})
//	err := offscreen.Run(ctx, cfg, offscreen.WithContext(sc), offscreen.WithWriter(w))
type Option func(*options)

type options struct {
	logger  *slog.Logger
	clock   schedule.Clock
	writer  sink.ImageWriter
	surface surface.Context
}

func defaultOptions() options {
	return options{
		logger: Logger(),
		clock:  schedule.SystemClock,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. The default is Logger().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the scheduler's time source.
func WithClock(c schedule.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithWriter replaces the image file writer.
func WithWriter(w sink.ImageWriter) Option {
	return func(o *options) { o.writer = w }
}

// WithContext supplies an already open surface context instead of opening
// Config.Backend. The pipeline takes ownership and closes it.
func WithContext(c surface.Context) Option {
	return func(o *options) { o.surface = c }
}
