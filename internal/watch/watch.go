// Package watch re-runs work whenever a directory tree changes.
//
// Events are coalesced: a burst of changes produces one call to the change
// handler once the tree has been quiet for the debounce interval.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Event names used in logs.
const (
	EventCreate = "create"
	EventModify = "modify"
	EventDelete = "delete"
	EventRename = "rename"
	EventChmod  = "chmod"
)

// Options configures a watch.
type Options struct {
	// Debounce is how long the tree must be quiet before the handler runs.
	Debounce time.Duration

	// Skip reports whether a path should be ignored. Skipped directories are
	// not watched at all.
	Skip func(path string) bool

	Logger *zap.Logger
}

// ChangeFunc is called with the sorted, de-duplicated paths changed since the
// previous call. An error is logged; it does not stop the watch.
type ChangeFunc func(ctx context.Context, paths []string) error

// Watch monitors root and everything below it until ctx is cancelled, which
// is not reported as an error.
func Watch(ctx context.Context, root string, opts Options, onChange ChangeFunc) error {
	if onChange == nil {
		return errors.New("watch: nil change handler")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Skip == nil {
		opts.Skip = func(string) bool { return false }
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", root, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(root); err != nil {
		return fmt.Errorf("error watching directory %s: %w", root, err)
	}
	if err := addTree(watcher, root, opts.Skip, logger); err != nil {
		return fmt.Errorf("error walking directory tree: %w", err)
	}

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]struct{})
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod || opts.Skip(event.Name) {
				continue
			}
			logger.Debug("change", zap.String("event", eventName(event.Op)), zap.String("path", event.Name))

			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := addTree(watcher, event.Name, opts.Skip, logger); err != nil {
					logger.Warn("error watching new directory", zap.String("path", event.Name), zap.Error(err))
				}
			}

			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
			} else {
				timer.Reset(opts.Debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)

			if err := onChange(ctx, paths); err != nil {
				logger.Error("error handling change", zap.Int("paths", len(paths)), zap.Error(err))
			}
		}
	}
}

// addTree registers dir and every directory below it that skip allows.
// Symbolic links are not followed.
func addTree(w *fsnotify.Watcher, dir string, skip func(string) bool, logger *zap.Logger) error {
	return godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() {
				return nil
			}
			if skip(path) {
				return godirwalk.SkipThis
			}
			if err := w.Add(path); err != nil {
				logger.Warn("error watching directory", zap.String("path", path), zap.Error(err))
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			logger.Warn("error walking directory", zap.String("path", path), zap.Error(err))
			return godirwalk.SkipNode
		},
	})
}

func isDir(path string) bool {
	de, err := godirwalk.NewDirent(path)
	return err == nil && de.IsDir()
}

func eventName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreate
	case op.Has(fsnotify.Write):
		return EventModify
	case op.Has(fsnotify.Remove):
		return EventDelete
	case op.Has(fsnotify.Rename):
		return EventRename
	default:
		return EventChmod
	}
}
