package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"

	"github.com/TFMV/ctxgen/internal/classify"
	"github.com/TFMV/ctxgen/internal/ignore"
	"github.com/TFMV/ctxgen/internal/tree"
	"github.com/TFMV/ctxgen/internal/walk"
)

// errOpen marks a source file that could not be opened at all.
var errOpen = errors.New("open source file")

// runState is the mutable bookkeeping of one run.
type runState struct {
	filesProcessed int
	maxFiles       int
}

func (s *runState) exhausted() bool {
	return s.maxFiles != Unlimited && s.filesProcessed >= s.maxFiles
}

type driver struct {
	cfg        Config
	outputDir  string
	names      ignore.Set
	classifier *classify.Classifier
	renderer   *tree.Renderer
	writer     *Writer
	logger     *zap.Logger
	progress   ProgressFn

	state runState
	stats Stats
}

// Run walks cfg.Root and writes the snapshot into cfg.OutputDir.
//
// Only startup faults (invalid config, unreadable root, output directory or
// tree document not creatable) and a failure to write the tree document are
// returned. Every per-entry fault is logged, counted in Stats.Errors and
// skipped. Cancelling ctx stops the run between entries.
func Run(ctx context.Context, cfg Config, opts Options) (Stats, error) {
	startTime := time.Now()
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	outputDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrOutputDir, err)
	}
	names := ignore.NewSet(cfg.IgnoreNames...)

	logger.Info("processing directory",
		zap.String("dir", cfg.Root),
		zap.Strings("ignoring", names.Names()),
		zap.Int("max_files", cfg.MaxFiles),
		zap.Int64("max_size", cfg.MaxSize),
		zap.Int("max_depth", cfg.MaxDepth),
	)

	walker, err := walk.New(cfg.Root, walk.Options{
		MaxDepth:     cfg.MaxDepth,
		MaxSize:      cfg.MaxSize,
		SkipHidden:   cfg.SkipHidden,
		VCSIgnore:    !cfg.NoVCSIgnore,
		GlobalIgnore: !cfg.NoVCSIgnore,
		Logger:       logger,
	})
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrRoot, err)
	}

	out := opts.Output
	if out == nil {
		if out, err = OutputFS(outputDir); err != nil {
			return Stats{}, err
		}
	}

	treeFile, err := out.Create(TreeFileName)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrTreeDocument, err)
	}
	defer treeFile.Close()

	renderer, err := tree.NewRenderer(treeFile)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrTreeDocument, err)
	}

	d := &driver{
		cfg:        cfg,
		outputDir:  outputDir,
		names:      names,
		classifier: classify.New(logger),
		renderer:   renderer,
		writer:     NewWriter(out),
		logger:     logger,
		progress:   opts.Progress,
		state:      runState{maxFiles: cfg.MaxFiles},
	}

	runErr := d.walk(ctx, walker)
	if err := renderer.Flush(); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("%w: %v", ErrTreeDocument, err))
	}
	if err := treeFile.Close(); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("%w: %v", ErrTreeDocument, err))
	}

	d.stats.FilesProcessed = d.state.filesProcessed
	d.stats.ElapsedTime = time.Since(startTime)
	logger.Info("context files generated",
		zap.String("output", outputDir),
		zap.Int("files_processed", d.stats.FilesProcessed),
		zap.Duration("elapsed", d.stats.ElapsedTime),
	)
	return d.stats, runErr
}

func (d *driver) walk(ctx context.Context, walker *walk.Walker) error {
	for entry, err := range walker.Entries() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.state.exhausted() {
			d.stats.BudgetExhausted = true
			d.logger.Info("maximum file limit reached, some files were skipped", zap.Int("max_files", d.cfg.MaxFiles))
			if err := d.renderer.Notice(d.cfg.MaxFiles); err != nil {
				return fmt.Errorf("%w: %v", ErrTreeDocument, err)
			}
			return nil
		}
		if err != nil {
			d.stats.Errors++
			d.logger.Error("walk error", zap.String("path", entry.Path), zap.Error(err))
			continue
		}
		if err := d.visit(entry); err != nil {
			return fmt.Errorf("%w: %v", ErrTreeDocument, err)
		}
	}
	return nil
}

// visit dispatches one entry. The returned error is a tree-document failure;
// everything else is handled in place.
func (d *driver) visit(entry walk.Entry) error {
	if ignore.ShouldSkip(entry.Path, entry.Rel, d.names, d.outputDir) {
		d.stats.Ignored++
		entry.SkipDir()
		return nil
	}

	switch entry.Kind {
	case walk.KindDir:
		rendered, err := d.renderer.Directory(entry.Rel)
		if err != nil {
			return err
		}
		if !rendered {
			d.stats.SkippedDeep++
			entry.SkipDir()
			return nil
		}
		d.stats.DirsRendered++
		return nil
	case walk.KindFile:
		return d.processFile(entry)
	default:
		return nil
	}
}

func (d *driver) processFile(entry walk.Entry) error {
	switch d.classifier.Classify(entry.Path, entry.Rel) {
	case classify.TooLongPath:
		d.stats.SkippedPathTooLong++
		return d.renderer.File(entry.Rel, tree.NotePathTooLong)
	case classify.Binary, classify.TooLarge:
		d.stats.SkippedBinary++
		return d.renderer.File(entry.Rel, tree.NoteBinaryOrTooLarge)
	}

	content, err := readSource(entry.Path)
	if errors.Is(err, errOpen) {
		d.stats.Errors++
		d.logger.Error("error opening file", zap.String("path", entry.Path), zap.Error(err))
		return nil
	}
	if err != nil {
		d.stats.SkippedReadError++
		d.logger.Error("error reading file", zap.String("path", entry.Path), zap.Error(err))
		return d.renderer.File(entry.Rel, tree.NoteReadError)
	}

	if name, err := d.writer.Write(entry.Rel, content); err != nil {
		d.stats.Errors++
		d.logger.Error("error writing artifact", zap.String("path", entry.Path), zap.String("artifact", name), zap.Error(err))
	}
	if err := d.renderer.File(entry.Rel, tree.NoteNone); err != nil {
		return err
	}

	d.state.filesProcessed++
	if d.state.filesProcessed%ProgressInterval == 0 {
		d.logger.Info("processed files", zap.Int("files_processed", d.state.filesProcessed))
		if d.progress != nil {
			stats := d.stats
			stats.FilesProcessed = d.state.filesProcessed
			d.progress(stats)
		}
	}
	return nil
}

// readSource reads a whole file as UTF-8 text. Content that is not valid
// UTF-8 is a read error, not a partial dump.
func readSource(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errOpen, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errors.New("content is not valid UTF-8 text")
	}
	return string(data), nil
}

// OutputFS opens the on-disk output directory as a filesystem, creating it
// if needed.
func OutputFS(dir string) (billy.Filesystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputDir, err)
	}
	return osfs.New(dir), nil
}
