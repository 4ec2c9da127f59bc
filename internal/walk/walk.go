// Package walk provides a bounded, sorted, depth-first filesystem traversal
// exposed as an iterator.
//
// The walk runs synchronously inside the iterator: each entry is handed to
// the consumer before the next one is read, so a consumer may prune a
// directory it has just received by calling Entry.SkipDir.
package walk

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"go.uber.org/zap"

	"github.com/TFMV/ctxgen/internal/ignore"
)

// Kind classifies an entry.
type Kind int

const (
	KindOther Kind = iota // Sockets, devices and other irregular files
	KindDir
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	default:
		return "other"
	}
}

// Entry is one node yielded by the walk.
type Entry struct {
	Path    string // Absolute path
	Rel     string // Path relative to the walk root
	Kind    Kind
	Depth   int   // Number of components in Rel
	Size    int64 // Size in bytes, files only
	Symlink bool  // Entry is a symbolic link; it is never descended into

	ctl *control
}

type control struct {
	skip bool
}

// SkipDir prevents the walk from descending into this directory. It has no
// effect on files or once the consumer has asked for the next entry.
func (e Entry) SkipDir() {
	if e.ctl != nil {
		e.ctl.skip = true
	}
}

// NoLimit disables MaxDepth or MaxSize. Any negative value does.
const NoLimit = -1

// Options bounds and filters the walk. A limit of 0 is a real limit: MaxDepth 0
// yields nothing below the root and MaxSize 0 yields only empty files.
type Options struct {
	MaxDepth int   // Deepest entry yielded; directories at this depth are not descended
	MaxSize  int64 // Files larger than this are never yielded

	// SkipHidden drops dot-files and dot-directories. Hidden entries are
	// visited by default.
	SkipHidden bool

	// VCSIgnore honours .gitignore, .ignore and .git/info/exclude files.
	VCSIgnore bool
	// GlobalIgnore additionally honours the system and user-global excludes.
	GlobalIgnore bool

	Logger *zap.Logger
}

// Walker walks one root directory.
type Walker struct {
	root   string
	opts   Options
	logger *zap.Logger
}

// errStop unwinds godirwalk once the consumer stops iterating.
var errStop = errors.New("walk: stopped by consumer")

// New returns a Walker for root, which must be an existing directory.
func New(root string, opts Options) (*Walker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", abs)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{root: abs, opts: opts, logger: logger}, nil
}

// Root returns the absolute root directory.
func (w *Walker) Root() string { return w.root }

// Entries yields every entry below the root in sorted depth-first pre-order.
// The root itself is not yielded. Errors met while enumerating are yielded
// with an Entry carrying only Path; the walk then continues with the next
// sibling.
func (w *Walker) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		var rules *ignore.Rules
		if w.opts.VCSIgnore {
			var err error
			rules, err = ignore.NewRules(w.root, ignore.RulesOptions{Global: w.opts.GlobalIgnore})
			if err != nil {
				w.logger.Warn("loading ignore rules", zap.Error(err))
			}
		}

		stopped := false
		emit := func(e Entry, err error) bool {
			if stopped {
				return false
			}
			if !yield(e, err) {
				stopped = true
			}
			return !stopped
		}

		err := godirwalk.Walk(w.root, &godirwalk.Options{
			Callback: func(osPathname string, de *godirwalk.Dirent) error {
				return w.visit(osPathname, de, rules, emit)
			},
			ErrorCallback: func(osPathname string, err error) godirwalk.ErrorAction {
				if stopped || errors.Is(err, errStop) {
					return godirwalk.Halt
				}
				if !emit(Entry{Path: osPathname}, fmt.Errorf("walk %s: %w", osPathname, err)) {
					return godirwalk.Halt
				}
				return godirwalk.SkipNode
			},
		})
		if err != nil && !stopped && !errors.Is(err, errStop) {
			emit(Entry{Path: w.root}, err)
		}
	}
}

func (w *Walker) visit(path string, de *godirwalk.Dirent, rules *ignore.Rules, emit func(Entry, error) bool) error {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return err
	}
	if rel == "." {
		if rules != nil {
			if err := rules.LoadDir(nil); err != nil {
				w.logger.Warn("loading ignore rules", zap.String("path", path), zap.Error(err))
			}
		}
		return nil
	}

	components := ignore.Components(rel)
	if w.opts.MaxDepth >= 0 && len(components) > w.opts.MaxDepth {
		return godirwalk.SkipThis
	}
	entry := Entry{
		Path:    path,
		Rel:     rel,
		Depth:   len(components),
		Symlink: de.IsSymlink(),
	}
	if err := describe(&entry, de); err != nil {
		return err
	}

	if w.opts.SkipHidden && strings.HasPrefix(de.Name(), ".") {
		return godirwalk.SkipThis
	}
	if rules != nil && rules.Match(components, entry.Kind == KindDir) {
		w.logger.Debug("ignored by vcs rules", zap.String("path", rel))
		return godirwalk.SkipThis
	}
	if entry.Kind == KindFile && w.opts.MaxSize >= 0 && entry.Size > w.opts.MaxSize {
		w.logger.Debug("larger than max size", zap.String("path", rel), zap.Int64("size", entry.Size))
		return nil
	}

	entry.ctl = &control{}
	if !emit(entry, nil) {
		return errStop
	}

	if entry.Kind != KindDir || entry.Symlink {
		return nil
	}
	if entry.ctl.skip || (w.opts.MaxDepth >= 0 && entry.Depth >= w.opts.MaxDepth) {
		return godirwalk.SkipThis
	}
	if rules != nil {
		if err := rules.LoadDir(components); err != nil {
			w.logger.Warn("loading ignore rules", zap.String("path", path), zap.Error(err))
		}
	}
	return nil
}

// describe fills Kind and Size. Symbolic links take the kind of their target.
func describe(e *Entry, de *godirwalk.Dirent) error {
	var info os.FileInfo
	var err error
	if de.IsSymlink() {
		info, err = os.Stat(e.Path)
	} else {
		info, err = os.Lstat(e.Path)
	}
	if err != nil {
		return err
	}

	switch {
	case info.IsDir():
		e.Kind = KindDir
	case info.Mode().IsRegular():
		e.Kind = KindFile
		e.Size = info.Size()
	default:
		e.Kind = KindOther
	}
	return nil
}
