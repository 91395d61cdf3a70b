package shelf

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a shelf root for markdown changes and requests a debounced
// refresh when the tree may have changed. Events arrive in bursts (editors
// write temp files, renames fire twice), so changes are coalesced into a
// single callback per quiet period.
type Watcher struct {
	scanner  *Scanner
	debounce time.Duration
	onChange func()
	logger   *slog.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher creates a watcher. onChange is invoked from the watcher's
// goroutine after the debounce window closes.
func NewWatcher(scanner *Scanner, debounce time.Duration, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		scanner:  scanner,
		debounce: debounce,
		onChange: onChange,
		logger:   slog.Default(),
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Watch registers the root and all its subdirectories and starts the event
// loop. Unreadable subtrees are skipped.
func (w *Watcher) Watch(rootPath string) error {
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("Watcher skipping path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", addErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	go w.loop()
	return nil
}

// loop consumes filesystem events until Close is called.
func (w *Watcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			// New directories must be watched immediately so files
			// created inside them are seen before the rescan.
			if event.Op.Has(fsnotify.Create) {
				w.maybeWatchDir(event.Name)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "error", err)
		case <-fire:
			fire = nil
			w.onChange()
		}
	}
}

// relevant reports whether an event can affect the navigation tree.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if w.scanner.IsMarkdown(event.Name) {
		return true
	}
	if event.Op.Has(fsnotify.Create) {
		// Created paths can still be inspected; name heuristics would
		// misclassify directories with dots like "python3.12".
		info, err := os.Stat(event.Name)
		return err == nil && info.IsDir()
	}
	// Removed or renamed paths can no longer be stat-ed, and any of them
	// may have been a directory holding markdown. The debounce coalesces
	// the resulting noise from non-markdown files.
	return true
}

// maybeWatchDir adds a newly created directory to the watch set.
func (w *Watcher) maybeWatchDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
	}
}

// Close stops the event loop and releases the underlying watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
