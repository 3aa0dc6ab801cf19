// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// DIRECTORY SYNC
// =============================================================================

// maxSyncFileSize caps uploads; larger files are skipped.
const maxSyncFileSize = 2 * 1024 * 1024

// ignoredDirs are never watched or uploaded.
var ignoredDirs = []string{
	".git", ".svn", ".hg",
	"node_modules", "__pycache__", ".venv", "venv",
	"vendor", "target", "dist", "build",
	".idea", ".vscode",
}

// DirSync mirrors a local project directory to the backend: an fsnotify
// watcher collects write events, debounces them, and uploads changed files
// via the project API.
type DirSync struct {
	api      ProjectAPI
	root     string
	debounce time.Duration

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	pending map[string]time.Time // path -> last change time
}

// NewDirSync creates a directory sync over root. Watching starts with Watch.
func NewDirSync(projectAPI ProjectAPI, root string, debounce time.Duration) (*DirSync, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &DirSync{
		api:      projectAPI,
		root:     root,
		debounce: debounce,
		watcher:  watcher,
		ctx:      ctx,
		cancel:   cancel,
		pending:  make(map[string]time.Time),
	}, nil
}

// Watch starts the event and debounce goroutines.
func (d *DirSync) Watch() error {
	if err := d.addRecursive(d.root); err != nil {
		return err
	}
	go d.processEvents()
	go d.processPending()
	return nil
}

// Close stops watching and releases resources.
func (d *DirSync) Close() error {
	d.cancel()
	if d.watcher != nil {
		return d.watcher.Close()
	}
	return nil
}

// addRecursive adds a directory and all its subdirectories to the watch list.
func (d *DirSync) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			return nil
		}
		if shouldIgnoreDir(filepath.Base(path)) {
			return filepath.SkipDir
		}
		// Non-fatal on individual add failures
		_ = d.watcher.Add(path)
		return nil
	})
}

// processEvents folds fsnotify events into the pending set.
func (d *DirSync) processEvents() {
	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if info, err := os.Stat(event.Name); err == nil {
					if info.IsDir() {
						_ = d.addRecursive(event.Name)
					} else {
						d.markChanged(event.Name)
					}
				}
			}

		case _, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next event still arrives.
		}
	}
}

func (d *DirSync) markChanged(path string) {
	d.mu.Lock()
	d.pending[path] = time.Now()
	d.mu.Unlock()
}

// processPending uploads files whose last change is older than the debounce.
func (d *DirSync) processPending() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()

			d.mu.Lock()
			var toUpload []string
			for path, changed := range d.pending {
				if now.Sub(changed) >= d.debounce {
					toUpload = append(toUpload, path)
					delete(d.pending, path)
				}
			}
			d.mu.Unlock()

			for _, path := range toUpload {
				_ = d.uploadFile(path)
			}
		}
	}
}

// uploadFile pushes one file to the backend under its project-relative path.
func (d *DirSync) uploadFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() > maxSyncFileSize {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	relPath, err := filepath.Rel(d.root, path)
	if err != nil {
		relPath = path
	}

	ctx, cancel := context.WithTimeout(d.ctx, 30*time.Second)
	defer cancel()
	return d.api.UploadFile(ctx, filepath.ToSlash(relPath), string(content))
}

func shouldIgnoreDir(name string) bool {
	for _, ignored := range ignoredDirs {
		if name == ignored {
			return true
		}
	}
	return false
}
