package snapshot

import (
	"context"
	"time"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	internal "github.com/TFMV/ctxgen/internal/snapshot"
	"github.com/TFMV/ctxgen/internal/watch"
)

// Re-export the run types from the internal package
type (
	// Config holds the per-run parameters.
	Config = internal.Config

	// Options carries the logger, progress callback and output filesystem.
	Options = internal.Options

	// Stats summarises one run.
	Stats = internal.Stats

	// ProgressFn is called every ProgressInterval accepted files.
	ProgressFn = internal.ProgressFn

	// LogLevel defines the verbosity of logging.
	LogLevel = internal.LogLevel
)

const (
	// Log levels
	LogLevelError = internal.LogLevelError
	LogLevelWarn  = internal.LogLevelWarn
	LogLevelInfo  = internal.LogLevelInfo
	LogLevelDebug = internal.LogLevelDebug

	// Output layout
	TreeFileName       = internal.TreeFileName
	ArtifactSuffix     = internal.ArtifactSuffix
	MaxArtifactNameLen = internal.MaxArtifactNameLen

	ProgressInterval = internal.ProgressInterval

	// Unlimited disables a file, size or depth limit.
	Unlimited = internal.Unlimited

	// DefaultDebounce is the quiet period Watch waits for when none is set.
	DefaultDebounce = watch.DefaultDebounce
)

// Startup faults returned by Run.
var (
	ErrInvalidConfig = internal.ErrInvalidConfig
	ErrRoot          = internal.ErrRoot
	ErrOutputDir     = internal.ErrOutputDir
	ErrTreeDocument  = internal.ErrTreeDocument
)

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return internal.DefaultConfig()
}

// Run walks cfg.Root and writes the snapshot into cfg.OutputDir.
func Run(ctx context.Context, cfg Config, opts Options) (Stats, error) {
	return internal.Run(ctx, cfg, opts)
}

// RunTo writes the snapshot into fs instead of cfg.OutputDir.
func RunTo(ctx context.Context, cfg Config, fs billy.Filesystem, logger *zap.Logger) (Stats, error) {
	return internal.Run(ctx, cfg, Options{Logger: logger, Output: fs})
}

// NewLogger creates a zap logger with the specified log level.
func NewLogger(level LogLevel) *zap.Logger {
	return internal.NewLogger(level)
}

// ArtifactName returns the file name the artifact for rel is stored under.
func ArtifactName(rel string) string {
	return internal.ArtifactName(rel)
}

// WatchOptions extends Options with the watch's quiet period.
type WatchOptions struct {
	Options
	// Debounce is how long the tree must stay unchanged before a re-run.
	// Zero means DefaultDebounce.
	Debounce time.Duration
}

// Watch runs a snapshot, then runs it again from scratch every time the tree
// under cfg.Root settles after a change, until ctx is cancelled, which is not
// reported as an error. A failed re-run is logged and the watch continues.
func Watch(ctx context.Context, cfg Config, opts WatchOptions) error {
	skip, err := internal.WatchFilter(cfg)
	if err != nil {
		return err
	}
	if _, err := internal.Run(ctx, cfg, opts.Options); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return watch.Watch(ctx, cfg.Root, watch.Options{
		Debounce: opts.Debounce,
		Skip:     skip,
		Logger:   opts.Logger,
	}, func(ctx context.Context, _ []string) error {
		_, err := internal.Run(ctx, cfg, opts.Options)
		return err
	})
}
