// Package watch is the new-screenshot event source: it watches a
// directory for freshly written screenshot files and publishes one scan
// job per new image. De-duplication of the filesystem's repeated
// notifications for the same file is handled here, with explicit state
// owned by the watcher; the capture pipeline downstream stays stateless.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wenqian/autobill/internal/queue"
)

// Publisher enqueues scan jobs for the worker pool.
type Publisher interface {
	Publish(ctx context.Context, job *queue.ScanJob) error
}

// dedupWindow suppresses the burst of events a single file write
// produces. A file re-reported after the window counts as new.
const dedupWindow = 2 * time.Second

// screenshotExts are the file types the pipeline can ingest.
var screenshotExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".heic": {},
	".heif": {},
	".pdf":  {},
}

// Watcher turns filesystem events in a screenshots directory into scan jobs.
type Watcher struct {
	dir string
	pub Publisher

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// New creates a watcher for dir. The directory must exist.
func New(dir string, pub Publisher) (*Watcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	return &Watcher{
		dir:      dir,
		pub:      pub,
		lastSeen: make(map[string]time.Time),
	}, nil
}

// Run watches the directory until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fs watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	slog.Info("Watching for screenshots", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			w.handleFile(ctx, event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

// handleFile filters and de-dups one reported path, then publishes a job.
func (w *Watcher) handleFile(ctx context.Context, path string) {
	if !IsScreenshot(path) {
		return
	}
	if !w.markSeen(path) {
		return
	}

	slog.Info("New screenshot detected", "path", path)
	job := &queue.ScanJob{Path: path}
	if err := w.pub.Publish(ctx, job); err != nil {
		slog.Error("Failed to enqueue scan job", "path", path, "error", err)
	}
}

// markSeen records the path and reports whether it was new within the
// de-dup window.
func (w *Watcher) markSeen(path string) bool {
	now := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()

	if last, ok := w.lastSeen[path]; ok && now.Sub(last) < dedupWindow {
		return false
	}
	w.lastSeen[path] = now
	return true
}

// IsScreenshot reports whether a path looks like a screenshot the
// pipeline should ingest: a supported extension and a screenshot-style
// filename.
func IsScreenshot(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(name)
	if _, ok := screenshotExts[ext]; !ok {
		return false
	}
	return strings.Contains(name, "screenshot") ||
		strings.Contains(name, "screen shot") ||
		strings.Contains(name, "截屏") ||
		strings.Contains(name, "截图")
}
