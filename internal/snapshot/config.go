// Package snapshot turns a source tree into a flat directory of text
// artifacts plus a rendered tree document.
package snapshot

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"
)

// Defaults for a run.
const (
	DefaultRoot      = "."
	DefaultOutputDir = "llm-context"
	DefaultMaxFiles  = 2000
	DefaultMaxSize   = 500000
	DefaultMaxDepth  = 8

	// ProgressInterval is the number of accepted files between progress reports.
	ProgressInterval = 100

	// Unlimited disables MaxFiles, MaxSize or MaxDepth. Zero is a real limit.
	Unlimited = -1
)

var (
	// ErrInvalidConfig is returned for configurations that cannot be run.
	ErrInvalidConfig = errors.New("snapshot: invalid configuration")
	// ErrRoot is returned when the root directory cannot be walked at all.
	ErrRoot = errors.New("snapshot: cannot walk root")
	// ErrOutputDir is returned when the output directory cannot be created.
	ErrOutputDir = errors.New("snapshot: cannot create output directory")
	// ErrTreeDocument is returned when the tree document cannot be created or written.
	ErrTreeDocument = errors.New("snapshot: cannot write tree document")
)

// Config holds the per-run parameters. It is built once and never mutated
// by a run.
type Config struct {
	Root        string   // Directory to snapshot
	OutputDir   string   // Directory receiving the artifacts and file-tree.txt
	IgnoreNames []string // Names added to the built-in ignore set
	MaxFiles    int      // Accepted-file budget for the whole run
	MaxSize     int64    // Files larger than this are never visited
	MaxDepth    int      // Deepest level visited; 0 is the root alone

	SkipHidden  bool // Skip dot-files and dot-directories
	NoVCSIgnore bool // Disregard .gitignore/.ignore and global excludes
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Root:      DefaultRoot,
		OutputDir: DefaultOutputDir,
		MaxFiles:  DefaultMaxFiles,
		MaxSize:   DefaultMaxSize,
		MaxDepth:  DefaultMaxDepth,
	}
}

// Validate reports the first problem that prevents the config from running.
func (c Config) Validate() error {
	switch {
	case c.Root == "":
		return fmt.Errorf("%w: root directory is empty", ErrInvalidConfig)
	case c.OutputDir == "":
		return fmt.Errorf("%w: output directory is empty", ErrInvalidConfig)
	case c.MaxFiles < Unlimited:
		return fmt.Errorf("%w: max files must be %d or more (got %d)", ErrInvalidConfig, Unlimited, c.MaxFiles)
	case c.MaxSize < Unlimited:
		return fmt.Errorf("%w: max size must be %d or more (got %d)", ErrInvalidConfig, Unlimited, c.MaxSize)
	case c.MaxDepth < Unlimited:
		return fmt.Errorf("%w: max depth must be %d or more (got %d)", ErrInvalidConfig, Unlimited, c.MaxDepth)
	}
	return nil
}

// ProgressFn is called every ProgressInterval accepted files.
type ProgressFn func(stats Stats)

// Options carries collaborators that are not part of the run parameters.
type Options struct {
	Logger   *zap.Logger
	Progress ProgressFn

	// Output replaces the on-disk output directory. The configured OutputDir
	// is still excluded from the walk.
	Output billy.Filesystem
}

// Stats summarises one run.
type Stats struct {
	FilesProcessed     int  // Files with an accepted tree line
	DirsRendered       int  // Directory lines written
	SkippedBinary      int  // Binary or oversized files
	SkippedPathTooLong int  // Files whose relative path was too long
	SkippedReadError   int  // Files that could not be read as text
	SkippedDeep        int  // Directories replaced by the deep-nesting line
	Ignored            int  // Entries excluded silently by the ignore policy
	Errors             int  // Walk, open and write faults
	BudgetExhausted    bool // The run stopped on the file budget

	ElapsedTime time.Duration
}
