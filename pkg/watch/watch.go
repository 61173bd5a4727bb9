// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch implements the fsnotify-based file watcher that calls the
// incremental reindex entry point (pkg/reindex) on filesystem events,
// debounced, and exposes its own running state for the watcher-status query
// operation.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kraklabs/codegraph/pkg/extract"
	"github.com/kraklabs/codegraph/pkg/reindex"
)

const defaultDebounce = 500 * time.Millisecond

// Status is the watcher-status query operation's output.
type Status struct {
	Enabled         bool
	Running         bool
	WatchedExts     []string
	EventsProcessed int64
	Error           string
}

// Watcher wraps fsnotify and drives a Reindexer on debounced change events.
type Watcher struct {
	Root      string
	Extensions []string
	Debounce  time.Duration
	Reindexer *reindex.Reindexer
	Logger    *slog.Logger

	mu        sync.RWMutex
	running   bool
	lastError string
	processed atomic.Int64

	fs *fsnotify.Watcher
}

// New builds a Watcher. extensions without a leading dot (e.g. "go", "py").
func New(root string, extensions []string, r *reindex.Reindexer, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{Root: root, Extensions: extensions, Debounce: defaultDebounce, Reindexer: r, Logger: logger}
}

func (w *Watcher) extSet() map[string]bool {
	set := make(map[string]bool, len(w.Extensions))
	for _, e := range w.Extensions {
		set[strings.TrimPrefix(e, ".")] = true
	}
	return set
}

// watchSkipDirs are never traversed: version control, dependency caches, and
// build output churn too fast to watch usefully.
var watchSkipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true,
	"dist": true, "build": true, "target": true, ".codegraph": true,
}

// Run starts the watch loop and blocks until ctx is cancelled. Each debounced
// batch of events triggers ReindexFile for every changed path under Root.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.setError(err.Error())
		return err
	}
	w.fs = fsw
	defer fsw.Close()

	if err := w.addDirsRecursive(w.Root); err != nil {
		w.setError(err.Error())
		return err
	}

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	exts := w.extSet()
	pending := make(map[string]bool)
	var debounceTimer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			ext := strings.TrimPrefix(filepath.Ext(event.Name), ".")
			if !exts[ext] {
				continue
			}
			pending[event.Name] = true
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.Debounce)
			timerCh = debounceTimer.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.setError(err.Error())
			w.Logger.Warn("watch error", "error", err)
		case <-timerCh:
			timerCh = nil
			w.flush(ctx, pending, exts)
			pending = make(map[string]bool)
		}
	}
}

func (w *Watcher) flush(ctx context.Context, pending map[string]bool, exts map[string]bool) {
	for fullPath := range pending {
		rel := strings.TrimPrefix(strings.TrimPrefix(fullPath, w.Root), "/")
		ext := strings.TrimPrefix(filepath.Ext(fullPath), ".")
		lang := extract.LanguageFromExtension(ext)
		if lang == "" {
			continue
		}
		if _, err := w.Reindexer.ReindexFile(ctx, rel, fullPath, lang); err != nil {
			w.setError(err.Error())
			w.Logger.Warn("reindex on watch event failed", "path", rel, "error", err)
			continue
		}
		w.processed.Add(1)
	}
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if watchSkipDirs[base] || (strings.HasPrefix(base, ".") && base != filepath.Base(root)) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil && !os.IsPermission(err) {
			return err
		}
		return nil
	})
}

func (w *Watcher) setError(msg string) {
	w.mu.Lock()
	w.lastError = msg
	w.mu.Unlock()
}

// Status reports the watcher's current state for the watcher-status query
// operation.
func (w *Watcher) Status(enabled bool) Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Status{
		Enabled:         enabled,
		Running:         w.running,
		WatchedExts:     w.Extensions,
		EventsProcessed: w.processed.Load(),
		Error:           w.lastError,
	}
}
