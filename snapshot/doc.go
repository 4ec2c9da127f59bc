// Package snapshot turns a source tree into plain-text context for a
// language model: one artifact per readable source file plus a
// file-tree.txt outline of the whole tree.
//
// Basic usage
//
//	cfg := snapshot.DefaultConfig()
//	cfg.Root = "/path/to/project"
//	cfg.OutputDir = "/tmp/llm-context"
//	stats, err := snapshot.Run(context.Background(), cfg, snapshot.Options{})
//
// Dependency and build directories (node_modules, target, .git and friends)
// are never visited, nor is anything matched by .gitignore, .ignore or the
// global git excludes unless Config.NoVCSIgnore is set. Binary files and files
// above the size limits appear in the tree with a note but get no artifact.
//
// In-memory output
//
//	fs := memfs.New()
//	stats, err := snapshot.RunTo(ctx, cfg, fs, logger)
//
// Regenerating on change
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	err := snapshot.Watch(ctx, cfg, snapshot.WatchOptions{
//		Options:  snapshot.Options{Logger: logger},
//		Debounce: time.Second,
//	})
package snapshot
