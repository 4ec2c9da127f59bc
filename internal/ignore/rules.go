package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Per-directory ignore files, read in this order so that .ignore entries take
// precedence over .gitignore entries of the same directory.
var dirIgnoreFiles = []string{".gitignore", ".ignore"}

const commentPrefix = "#"

// Rules accumulates version-control ignore patterns for one walk. Patterns
// read from a directory are scoped to that directory, so a single list serves
// the whole tree; patterns loaded later (deeper) win over earlier ones.
//
// Rules is not safe for concurrent use.
type Rules struct {
	fs       billy.Filesystem
	patterns []gitignore.Pattern
	matcher  gitignore.Matcher
}

// RulesOptions selects the pattern sources beyond the per-directory files.
type RulesOptions struct {
	// Global loads the system and user-global excludes files.
	Global bool
}

// NewRules prepares rules for a walk rooted at root. The repository-local
// exclude file (.git/info/exclude) is loaded immediately; per-directory files
// are loaded by LoadDir as the walk enters each directory.
func NewRules(root string, opts RulesOptions) (*Rules, error) {
	r := &Rules{fs: osfs.New(root)}
	var errs []error

	if opts.Global {
		global, err := loadGlobalPatterns()
		if err != nil {
			errs = append(errs, err)
		}
		r.patterns = append(r.patterns, global...)
	}

	exclude, err := readPatternFile(r.fs, r.fs.Join(".git", "info", "exclude"), nil)
	if err != nil {
		errs = append(errs, err)
	}
	r.patterns = append(r.patterns, exclude...)
	r.matcher = gitignore.NewMatcher(r.patterns)

	return r, errors.Join(errs...)
}

// LoadDir reads the ignore files of the directory whose root-relative
// components are dir (nil for the root).
func (r *Rules) LoadDir(dir []string) error {
	var errs []error
	added := false
	for _, name := range dirIgnoreFiles {
		ps, err := readPatternFile(r.fs, r.fs.Join(append(append([]string{}, dir...), name)...), dir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(ps) > 0 {
			r.patterns = append(r.patterns, ps...)
			added = true
		}
	}
	if added {
		r.matcher = gitignore.NewMatcher(r.patterns)
	}
	return errors.Join(errs...)
}

// IsRulesFile reports whether the root-relative path names a file Rules reads:
// a per-directory ignore file or the repository exclude file.
func IsRulesFile(rel string) bool {
	components := Components(rel)
	if len(components) == 0 {
		return false
	}
	if n := len(components); n >= 3 && components[n-3] == ".git" && components[n-2] == "info" && components[n-1] == "exclude" {
		return true
	}
	base := components[len(components)-1]
	for _, name := range dirIgnoreFiles {
		if base == name {
			return true
		}
	}
	return false
}

// Match reports whether the entry with root-relative components path is ignored.
func (r *Rules) Match(path []string, isDir bool) bool {
	if len(path) == 0 || len(r.patterns) == 0 {
		return false
	}
	return r.matcher.Match(path, isDir)
}

// Len returns the number of loaded patterns.
func (r *Rules) Len() int { return len(r.patterns) }

// loadGlobalPatterns reads the system gitconfig excludes, the user's
// core.excludesfile and, when that is unset, git's XDG default location.
func loadGlobalPatterns() ([]gitignore.Pattern, error) {
	rootFS := osfs.New("/")
	var errs []error

	ps, err := gitignore.LoadSystemPatterns(rootFS)
	if err != nil {
		errs = append(errs, fmt.Errorf("system excludes: %w", err))
	}

	global, err := gitignore.LoadGlobalPatterns(rootFS)
	if err != nil {
		errs = append(errs, fmt.Errorf("global excludes: %w", err))
	}
	if len(global) == 0 && xdg.ConfigHome != "" {
		global, err = readPatternFile(rootFS, filepath.Join(xdg.ConfigHome, "git", "ignore"), nil)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return append(ps, global...), errors.Join(errs...)
}

// readPatternFile parses one ignore file. A missing file yields no patterns
// and no error.
func readPatternFile(fs billy.Filesystem, name string, domain []string) ([]gitignore.Pattern, error) {
	f, err := fs.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ignore file %s: %w", name, err)
	}
	defer f.Close()

	var ps []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, commentPrefix) || strings.TrimSpace(line) == "" {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, domain))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ignore file %s: %w", name, err)
	}
	return ps, nil
}
