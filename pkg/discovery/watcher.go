// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/traverse/pkg/logging"
)

// defaultDebounce batches bursts of editor writes into one rescan.
const defaultDebounce = 250 * time.Millisecond

// ManifestHandler receives the full rescan result after changes settle.
type ManifestHandler func(manifests []Manifest)

// ManifestWatcher watches source roots for page-manifest changes and
// re-scans after a debounce window. The handler is called from a single
// goroutine.
type ManifestWatcher struct {
	scanner  *Scanner
	watcher  *fsnotify.Watcher
	handler  ManifestHandler
	debounce time.Duration
	log      *logging.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a ManifestWatcher.
type WatcherOption func(*ManifestWatcher)

// WithDebounce sets how long to wait for more changes before rescanning.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *ManifestWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger. Defaults to logging.Default().
func WithWatchLogger(log *logging.Logger) WatcherOption {
	return func(w *ManifestWatcher) {
		if log != nil {
			w.log = log
		}
	}
}

// NewManifestWatcher creates a watcher over the scanner's roots. Call Start
// to begin watching and Stop when done.
func NewManifestWatcher(scanner *Scanner, handler ManifestHandler, opts ...WatcherOption) (*ManifestWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &ManifestWatcher{
		scanner:  scanner,
		watcher:  fsw,
		handler:  handler,
		debounce: defaultDebounce,
		log:      logging.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start registers the roots recursively and begins watching. It returns
// after spawning the event loop; watching stops when ctx is canceled or
// Stop is called.
func (w *ManifestWatcher) Start(ctx context.Context) error {
	for _, root := range w.scanner.roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		w.addRecursive(root)
	}

	go w.run(ctx)
	return nil
}

// Stop halts the watcher. Safe to call more than once.
func (w *ManifestWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
}

// addRecursive watches root and every non-ignored subdirectory.
func (w *ManifestWatcher) addRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if _, ok := w.scanner.ignore[d.Name()]; ok && path != root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.log.Debug("cannot watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// run is the combined event and debounce loop.
func (w *ManifestWatcher) run(ctx context.Context) {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Create) {
				// New directories need their own watch to pick up
				// manifests added below them later.
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.addRecursive(ev.Name)
				}
			}
			if filepath.Base(ev.Name) != ManifestName {
				continue
			}
			if armed && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			armed = true

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("manifest watcher error", "error", err)

		case <-timer.C:
			armed = false
			w.handler(w.scanner.Scan(ctx))
		}
	}
}
