// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/jeranaias/orgrag-tui/internal/api"
	"github.com/jeranaias/orgrag-tui/internal/model"
)

// =============================================================================
// WATCHER CONFIG
// =============================================================================

// Config controls the document watcher.
type Config struct {
	// WatchDir is the directory whose files are auto-uploaded.
	WatchDir string
	// ManifestPath is the SQLite manifest location.
	ManifestPath string
	// Visibility applied to auto-uploaded documents.
	Visibility model.Visibility
	// Debounce is how long a file must be quiet before upload.
	Debounce time.Duration
	// UploadsPerMinute rate-limits shipping. 0 means unlimited.
	UploadsPerMinute int
	// IgnorePatterns are glob patterns (matched against the base name)
	// that are never uploaded.
	IgnorePatterns []string

	// UserID and OrgID identify the uploader.
	UserID string
	OrgID  string

	// OnUpload, if set, is called after each successful upload. Used to
	// refresh the source list in the UI.
	OnUpload func(result *api.UploadResult)
	// OnError, if set, is called for upload and watch failures.
	OnError func(path string, err error)
}

// =============================================================================
// WATCHER
// =============================================================================

// Watcher ships files dropped into a directory to the backend's ingestion
// endpoint. Changes are debounced so partially written files are not
// uploaded, and a manifest keeps restarts from re-uploading unchanged
// content.
type Watcher struct {
	cfg      Config
	client   *api.Client
	manifest *Manifest
	fsw      *fsnotify.Watcher
	limiter  *rate.Limiter

	mu      sync.Mutex
	pending map[string]time.Time // path -> last change seen

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher creates a watcher. Start must be called to begin shipping.
func NewWatcher(client *api.Client, cfg Config) (*Watcher, error) {
	manifest, err := OpenManifest(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		manifest.Close()
		return nil, err
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}

	limit := rate.Inf
	if cfg.UploadsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.UploadsPerMinute) / 60.0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		cfg:      cfg,
		client:   client,
		manifest: manifest,
		fsw:      fsw,
		limiter:  rate.NewLimiter(limit, 1),
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. Existing files in the directory are scanned once,
// so documents dropped while the client was closed still get shipped.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.cfg.WatchDir); err != nil {
		return err
	}

	entries, err := os.ReadDir(w.cfg.WatchDir)
	if err != nil {
		return err
	}
	w.mu.Lock()
	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.cfg.WatchDir, entry.Name())
		if !w.ignored(path) {
			w.pending[path] = now
		}
	}
	w.mu.Unlock()

	go w.processEvents()
	go w.processPending()
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fsw.Close()
	<-w.done
	if cerr := w.manifest.Close(); err == nil {
		err = cerr
	}
	return err
}

// Manifest exposes the upload manifest for listing.
func (w *Watcher) Manifest() *Manifest {
	return w.manifest
}

// ignored reports whether a path matches any ignore pattern.
func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.cfg.IgnorePatterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// =============================================================================
// EVENT PROCESSING
// =============================================================================

// processEvents turns filesystem events into pending entries.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if w.ignored(event.Name) {
				continue
			}
			if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
				continue
			}
			w.mu.Lock()
			w.pending[event.Name] = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.cfg.OnError != nil {
				w.cfg.OnError("", err)
			}
		}
	}
}

// processPending ships files that have been quiet for the debounce window.
func (w *Watcher) processPending() {
	defer close(w.done)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()

			w.mu.Lock()
			var ready []string
			for path, changed := range w.pending {
				if now.Sub(changed) >= w.cfg.Debounce {
					ready = append(ready, path)
					delete(w.pending, path)
				}
			}
			w.mu.Unlock()

			for _, path := range ready {
				w.ship(path)
			}
		}
	}
}

// ship uploads one file if the manifest says its content is new.
func (w *Watcher) ship(path string) {
	needs, err := w.manifest.NeedsUpload(path)
	if err != nil {
		// The file may have vanished between the event and now.
		if os.IsNotExist(err) {
			return
		}
		w.reportError(path, err)
		return
	}
	if !needs {
		return
	}

	if err := w.limiter.Wait(w.ctx); err != nil {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		w.reportError(path, err)
		return
	}
	defer f.Close()

	result, err := w.client.Upload(w.ctx, f, filepath.Base(path),
		w.cfg.UserID, w.cfg.OrgID, w.cfg.Visibility)
	if err != nil {
		w.reportError(path, err)
		return
	}
	if err := w.manifest.RecordUpload(path, result.ChunksAdded); err != nil {
		w.reportError(path, err)
		return
	}
	if w.cfg.OnUpload != nil {
		w.cfg.OnUpload(result)
	}
}

func (w *Watcher) reportError(path string, err error) {
	if w.cfg.OnError != nil {
		w.cfg.OnError(path, err)
	}
}
