// Package watcher watches the document roots and reports changes to managed
// documents. Bursts of changes settle into a single callback after a debounce
// interval, which the server uses to rescan and optionally apply transitions.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change operations reported to ChangeFunc.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// ChangeFunc is called for every change to a managed document. rel is slash
// separated and relative to the project root.
type ChangeFunc func(op, rel string)

// SettleFunc is called once a burst of changes has been quiet for the
// debounce interval.
type SettleFunc func(ctx context.Context)

// Config configures Watch.
type Config struct {
	// Root is the project root on disk.
	Root string
	// Roots are the document roots, relative to Root.
	Roots    []string
	Debounce time.Duration
	// Managed reports whether a relative path is a managed document.
	Managed func(rel string) bool
	// SkipDir reports whether a relative directory should not be watched.
	SkipDir  func(rel string) bool
	OnChange ChangeFunc
	OnSettle SettleFunc
	Logger   *slog.Logger
}

// ErrNoRootExists is returned by Watch when none of the configured document
// roots is present on disk yet.
var ErrNoRootExists = errors.New("watcher: no document root exists")

// Watch starts an fsnotify watcher on the document roots and processes
// change events until ctx is cancelled.
//
// New directories created at runtime are added to the watch list and any
// documents already inside them are reported as created. Rename events
// report the old path as deleted; the new path arrives as a create.
func Watch(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if cfg.Managed == nil {
		return errors.New("watcher: managed filter is required")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return err
	}

	watched := 0
	for _, r := range cfg.Roots {
		dir := filepath.Join(root, filepath.FromSlash(r))
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			logger.Warn("watcher: root missing", slog.String("root", r))
			continue
		}
		if err := addDirsRecursive(w, root, dir, cfg.SkipDir); err != nil {
			return err
		}
		watched++
	}
	if watched == 0 {
		return ErrNoRootExists
	}

	logger.Info("watcher: started", slog.String("root", root), slog.Int("roots", watched))

	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	scheduleSettle := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(cfg.Debounce)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(cfg.Debounce)
		}
	}

	notify := func(op, rel string) {
		logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", op))
		if cfg.OnChange != nil {
			cfg.OnChange(op, rel)
		}
		scheduleSettle()
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			if cfg.OnSettle != nil {
				cfg.OnSettle(ctx)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			rel, relErr := relPath(root, ev.Name)
			if relErr != nil {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if cfg.SkipDir != nil && cfg.SkipDir(rel) {
						continue
					}
					if addErr := addDirsRecursive(w, root, ev.Name, cfg.SkipDir); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", rel),
							slog.String("error", addErr.Error()))
						continue
					}
					logger.Debug("watcher: watching new dir", slog.String("path", rel))
					for _, doc := range documentsIn(root, ev.Name, cfg.Managed) {
						notify(OpCreated, doc)
					}
					continue
				}
			}

			if !cfg.Managed(rel) {
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				notify(OpCreated, rel)
			case ev.Op&fsnotify.Write != 0:
				notify(OpUpdated, rel)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				notify(OpDeleted, rel)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// documentsIn lists managed documents already present in a new directory.
func documentsIn(root, dir string, managed func(string) bool) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := relPath(root, p)
		if relErr == nil && managed(rel) {
			out = append(out, rel)
		}
		return nil
	})
	return out
}

// addDirsRecursive adds dir and all its subdirectories to the watcher,
// skipping hidden directories and those rejected by skip.
func addDirsRecursive(w *fsnotify.Watcher, root, dir string, skip func(string) bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if skip != nil {
			if rel, relErr := relPath(root, p); relErr == nil && skip(rel) {
				return filepath.SkipDir
			}
		}
		return w.Add(p)
	})
}

func relPath(root, p string) (string, error) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
