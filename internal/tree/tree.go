// Package tree renders the shape of a walk as an indented text document.
package tree

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/TFMV/ctxgen/internal/ignore"
)

const (
	// RootLine opens every document.
	RootLine = "."
	// MaxIndentLevel caps indentation; deeper entries reuse this level.
	MaxIndentLevel = 10
	// MaxComponents is the deepest directory rendered normally.
	MaxComponents = 20
	// DeepNestingLine replaces directories deeper than MaxComponents.
	DeepNestingLine = "[Deeply nested directory skipped]"

	indentUnit = "│   "
	branch     = "├── "
)

// Note explains why a file line carries no artifact.
type Note int

const (
	NoteNone Note = iota
	NoteBinaryOrTooLarge
	NotePathTooLong
	NoteReadError
)

var noteSuffix = map[Note]string{
	NoteBinaryOrTooLarge: " (skipped - binary or too large)",
	NotePathTooLong:      " (skipped - path too long)",
	NoteReadError:        " (skipped - error reading)",
}

// Indent returns the prefix for an entry at the given nesting level.
func Indent(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat(indentUnit, min(level, MaxIndentLevel))
}

// DirLine renders a directory entry.
func DirLine(rel string) string {
	return Indent(level(rel)) + branch + filepath.Base(rel) + "/"
}

// FileLine renders a file entry. Files skipped for path length show an
// ellipsis instead of their name.
func FileLine(rel string, note Note) string {
	name := filepath.Base(rel)
	if note == NotePathTooLong {
		name = "..."
	}
	return Indent(level(rel)) + branch + name + noteSuffix[note]
}

// NoticeLine is the terminal line written when the file budget runs out.
func NoticeLine(maxFiles int) string {
	return fmt.Sprintf("\n[Maximum file limit reached (%d). Some files were skipped.]", maxFiles)
}

// DeeplyNested reports whether a directory at rel is past MaxComponents.
func DeeplyNested(rel string) bool {
	return len(ignore.Components(rel)) > MaxComponents
}

func level(rel string) int {
	return len(ignore.Components(rel)) - 1
}

// Renderer appends lines to a tree document. It is not safe for concurrent use.
type Renderer struct {
	w       *bufio.Writer
	lines   int
	noticed bool
}

// NewRenderer writes the root line to w and returns a Renderer for the rest.
func NewRenderer(w io.Writer) (*Renderer, error) {
	r := &Renderer{w: bufio.NewWriter(w)}
	if err := r.writeLine(RootLine); err != nil {
		return nil, err
	}
	return r, nil
}

// Directory renders a directory line. It reports false, after writing the
// deep-nesting sentinel, when the directory is too deep to render; callers
// are expected to prune such a directory.
func (r *Renderer) Directory(rel string) (bool, error) {
	if DeeplyNested(rel) {
		return false, r.writeLine(DeepNestingLine)
	}
	return true, r.writeLine(DirLine(rel))
}

// File renders a file line with an optional skip note.
func (r *Renderer) File(rel string, note Note) error {
	return r.writeLine(FileLine(rel, note))
}

// Notice writes the budget notice. Only the first call has any effect.
func (r *Renderer) Notice(maxFiles int) error {
	if r.noticed {
		return nil
	}
	r.noticed = true
	return r.writeLine(NoticeLine(maxFiles))
}

// Lines returns how many lines have been written, the root included.
func (r *Renderer) Lines() int { return r.lines }

// Flush writes any buffered lines to the underlying writer.
func (r *Renderer) Flush() error { return r.w.Flush() }

func (r *Renderer) writeLine(line string) error {
	if _, err := r.w.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write tree line: %w", err)
	}
	r.lines++
	return nil
}
