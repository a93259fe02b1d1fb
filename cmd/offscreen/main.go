// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command offscreen renders a scene description to image files without
// opening a window.
//
// Usage:
//
//	offscreen [flags] scene.yaml
//
// Frames are written to offscreen_output.bmp (and optionally .png) in the
// output directory. The scene is re-rendered after it changes, on a fixed
// interval, or both, depending on -mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogpu/offscreen"
	"github.com/gogpu/offscreen/schedule"

	// Register the wgpu HAL backends.
	_ "github.com/gogpu/offscreen/backend/hal"
)

// Exit codes.
const (
	exitSceneLoad = 1
	exitContext   = 2
	exitFailure   = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "TOML config `file`")
		verbose    = flag.Bool("v", false, "debug logging")
		once       = flag.Bool("once", false, "render a single frame and exit")
		backend    = flag.String("backend", "", "surface backend (auto, vulkan, image, noop)")
		strategy   = flag.String("strategy", "", "render strategy (fbo, grab)")
		mode       = flag.String("mode", "", "cadence (debounced, periodic, hybrid)")
		debounce   = flag.Duration("debounce", 0, "debounce window")
		interval   = flag.Duration("interval", 0, "periodic interval")
		outDir     = flag.String("out", "", "output `dir`ectory")
		png        = flag.Bool("png", false, "also write offscreen_output.png")
		watchFile  = flag.Bool("watch", false, "reload the scene when its file changes")
		width      = flag.Int("width", 0, "override scene width")
		height     = flag.Int("height", 0, "override scene height")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	offscreen.SetLogger(logger)

	cfg := offscreen.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = offscreen.LoadConfig(*configPath); err != nil {
			logger.Error("load config", "path", *configPath, "err", err)
			return exitFailure
		}
	}
	if flag.NArg() > 0 {
		cfg.Scene = flag.Arg(0)
	}

	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "once":
			cfg.Once = *once
		case "backend":
			cfg.Backend = *backend
		case "strategy":
			flagErr = errors.Join(flagErr, cfg.Strategy.UnmarshalText([]byte(*strategy)))
		case "mode":
			flagErr = errors.Join(flagErr, cfg.Cadence.Mode.UnmarshalText([]byte(*mode)))
		case "debounce":
			cfg.Cadence.DebounceWindowMs = int(*debounce / time.Millisecond)
		case "interval":
			cfg.Cadence.PeriodicIntervalMs = int(*interval / time.Millisecond)
		case "out":
			cfg.OutputDir = *outDir
		case "png":
			cfg.PNG = *png
		case "watch":
			cfg.Watch = *watchFile
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		}
	})
	if flagErr == nil {
		flagErr = cfg.Validate()
	}
	if flagErr != nil {
		fmt.Fprintln(os.Stderr, flagErr)
		flag.Usage()
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("starting", "scene", cfg.Scene, "backend", cfg.Backend,
		"strategy", cfg.Strategy, "mode", cfg.Cadence.Mode)
	err := offscreen.Run(ctx, cfg, offscreen.WithLogger(logger), offscreen.WithClock(schedule.SystemClock))
	if err == nil {
		return 0
	}
	logger.Error("offscreen", "err", err)
	switch {
	case errors.Is(err, offscreen.ErrSceneLoad):
		return exitSceneLoad
	case errors.Is(err, offscreen.ErrContext):
		return exitContext
	}
	return exitFailure
}
