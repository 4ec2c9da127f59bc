package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
)

const (
	// TreeFileName is the tree document written at the top of the output directory.
	TreeFileName = "file-tree.txt"
	// ArtifactSuffix is appended to every artifact name.
	ArtifactSuffix = ".txt"
	// MaxArtifactNameLen bounds the sanitized name, in characters, before the suffix.
	MaxArtifactNameLen = 150
	// ArtifactMode is the permission requested for every artifact, before umask.
	ArtifactMode os.FileMode = 0o644

	tempPrefix = ".artifact-"
	tempTries  = 100
)

// ArtifactName flattens a relative path into a file name: separators become
// underscores, the result is cut to MaxArtifactNameLen characters and the
// suffix is appended. Distinct paths may collide; the last write wins.
func ArtifactName(rel string) string {
	name := strings.NewReplacer("/", "_", `\`, "_").Replace(rel)
	if runes := []rune(name); len(runes) > MaxArtifactNameLen {
		name = string(runes[:MaxArtifactNameLen])
	}
	return name + ArtifactSuffix
}

// ArtifactHeader precedes the content: the base name and a blank line.
func ArtifactHeader(rel string) string {
	return filepath.Base(rel) + "\n\n"
}

// Writer places artifacts directly in the root of an output filesystem.
// It is not safe for concurrent use.
type Writer struct {
	fs  billy.Filesystem
	seq int
}

// NewWriter returns a Writer for fs.
func NewWriter(fs billy.Filesystem) *Writer {
	return &Writer{fs: fs}
}

// Write stores the artifact for rel and returns its name. The artifact is
// staged in a temporary file and renamed into place, so a target is either
// fully written or untouched.
func (w *Writer) Write(rel, content string) (string, error) {
	name := ArtifactName(rel)

	tmp, err := w.stage()
	if err != nil {
		return name, fmt.Errorf("create output file %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write([]byte(ArtifactHeader(rel))); err != nil {
		tmp.Close()
		w.fs.Remove(tmpName)
		return name, fmt.Errorf("write header to %s: %w", name, err)
	}
	if _, err := tmp.Write([]byte(content)); err != nil {
		tmp.Close()
		w.fs.Remove(tmpName)
		return name, fmt.Errorf("write content to %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		w.fs.Remove(tmpName)
		return name, fmt.Errorf("close %s: %w", name, err)
	}
	if err := w.fs.Rename(tmpName, name); err != nil {
		w.fs.Remove(tmpName)
		return name, fmt.Errorf("move %s into place: %w", name, err)
	}
	return name, nil
}

// stage creates a fresh temporary file with ArtifactMode, which the rename
// carries over to the artifact. billy's TempFile always uses 0600.
func (w *Writer) stage() (billy.File, error) {
	prefix := tempPrefix + strconv.Itoa(os.Getpid()) + "-"
	for range tempTries {
		w.seq++
		f, err := w.fs.OpenFile(prefix+strconv.Itoa(w.seq), os.O_RDWR|os.O_CREATE|os.O_EXCL, ArtifactMode)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		return f, err
	}
	return nil, fmt.Errorf("no free temporary name after %d tries", tempTries)
}
