// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package watch reports changes to a single file.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches one file. The parent directory is watched so that
// editors that save by renaming a temporary file are seen too.
type Watcher struct {
	path   string
	w      *fsnotify.Watcher
	logger *slog.Logger
}

// New starts watching path.
func New(path string, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{path: abs, w: w, logger: logger}, nil
}

// Run calls onChange for every write or create of the file until ctx is
// done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.w.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.logger.Debug("scene file changed", "path", w.path, "op", ev.Op.String())
				onChange()
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "path", w.path, "err", err)
		}
	}
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }
