package snapshot

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/TFMV/ctxgen/internal/ignore"
)

// WatchFilter returns a predicate reporting which changed paths a run would
// never look at: the output directory, anything under an ignore name, hidden
// entries when cfg.SkipHidden is set and, unless cfg.NoVCSIgnore, anything the
// version-control ignore files exclude. A change to an ignore file is never
// filtered and makes the rules reload on the next call.
//
// The predicate is not safe for concurrent use.
func WatchFilter(cfg Config) (func(path string) bool, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	outputDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	names := ignore.NewSet(cfg.IgnoreNames...)
	f := &watchFilter{root: root, vcs: !cfg.NoVCSIgnore}

	return func(path string) bool {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return false
		}
		if ignore.ShouldSkip(path, rel, names, outputDir) {
			return true
		}
		components := ignore.Components(rel)
		if len(components) == 0 || components[0] == ".." {
			return false
		}
		if cfg.SkipHidden && hidden(components[:len(components)-1]) {
			return true
		}
		if ignore.IsRulesFile(rel) {
			f.rules = nil
			return false
		}
		if cfg.SkipHidden && hidden(components[len(components)-1:]) {
			return true
		}
		return f.vcs && f.ignored(path, components)
	}, nil
}

// watchFilter holds the ignore rules loaded so far, keyed by directory.
type watchFilter struct {
	root   string
	vcs    bool
	rules  *ignore.Rules
	loaded map[string]bool
}

// ignored applies the rules the way a walk does: a directory's files govern
// what lies below it, and an ignored ancestor hides everything beneath.
func (f *watchFilter) ignored(path string, components []string) bool {
	if f.rules == nil {
		// Partial rules still apply; read errors are reported by the run.
		f.rules, _ = ignore.NewRules(f.root, ignore.RulesOptions{Global: true})
		f.rules.LoadDir(nil)
		f.loaded = map[string]bool{}
	}
	for i := 1; i < len(components); i++ {
		dir := components[:i]
		if f.rules.Match(dir, true) {
			return true
		}
		if key := strings.Join(dir, "/"); !f.loaded[key] {
			f.loaded[key] = true
			f.rules.LoadDir(dir)
		}
	}
	info, err := os.Stat(path)
	return f.rules.Match(components, err == nil && info.IsDir())
}

func hidden(components []string) bool {
	for _, c := range components {
		if strings.HasPrefix(c, ".") {
			return true
		}
	}
	return false
}
