// Package ignore decides which entries of a source tree never reach a snapshot.
//
// Two mechanisms cooperate. A Set holds bare names (not paths) that exclude an
// entry wherever they appear as a path component. Rules holds version-control
// ignore patterns (.gitignore, .ignore, info/exclude and the global excludes
// file) and is consulted by the walk before the Set is.
package ignore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultNames are always excluded, regardless of user input.
var DefaultNames = []string{
	"node_modules",
	"target",
	"dist",
	"build",
	".git",
	".idea",
	".vscode",
	"__pycache__",
	".next",
	"out",
	"coverage",
	".vercel",
	".turbo",
}

// Set is an immutable collection of ignore names.
type Set struct {
	names map[string]struct{}
}

// NewSet returns the union of DefaultNames and extra. Blank names are dropped.
func NewSet(extra ...string) Set {
	s := Set{names: make(map[string]struct{}, len(DefaultNames)+len(extra))}
	for _, name := range DefaultNames {
		s.names[normalize(name)] = struct{}{}
	}
	for _, name := range extra {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		s.names[normalize(name)] = struct{}{}
	}
	return s
}

// ParseNames splits a comma-separated list of names.
func ParseNames(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	var names []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

// Contains reports whether name is in the set.
func (s Set) Contains(name string) bool {
	_, ok := s.names[normalize(name)]
	return ok
}

// Names returns the set contents in sorted order.
func (s Set) Names() []string {
	out := make([]string, 0, len(s.names))
	for name := range s.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of names in the set.
func (s Set) Len() int { return len(s.names) }

// ShouldSkip reports whether the entry at path (absolute) with the given
// root-relative path is excluded: it is the output directory or lies beneath
// it, or one of its relative components is an ignore name.
func ShouldSkip(path, rel string, names Set, outputDir string) bool {
	if Within(path, outputDir) {
		return true
	}
	for _, component := range Components(rel) {
		if names.Contains(component) {
			return true
		}
	}
	return false
}

// Within reports whether path equals dir or is nested under it.
// Both are expected to be absolute and clean.
func Within(path, dir string) bool {
	if dir == "" {
		return false
	}
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(dir, string(os.PathSeparator))+string(os.PathSeparator))
}

// Components splits a relative path on both separator styles.
func Components(rel string) []string {
	rel = filepath.Clean(rel)
	if rel == "." {
		return nil
	}
	return strings.FieldsFunc(rel, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}

// normalize folds composed and decomposed spellings of a name to NFC.
func normalize(name string) string {
	return norm.NFC.String(name)
}
