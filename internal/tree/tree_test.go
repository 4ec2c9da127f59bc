package tree

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndent(t *testing.T) {
	assert.Equal(t, "", Indent(0))
	assert.Equal(t, "", Indent(-3))
	assert.Equal(t, "│   ", Indent(1))
	assert.Equal(t, "│   │   │   ", Indent(3))
	assert.Equal(t, Indent(MaxIndentLevel), Indent(MaxIndentLevel+7), "indent is capped")
	assert.Equal(t, MaxIndentLevel, strings.Count(Indent(50), "│"))
}

func TestLines(t *testing.T) {
	assert.Equal(t, "├── src/", DirLine("src"))
	assert.Equal(t, "│   ├── util/", DirLine(filepath.Join("src", "util")))
	assert.Equal(t, "├── a.txt", FileLine("a.txt", NoteNone))
	assert.Equal(t, "│   ├── logo.png (skipped - binary or too large)", FileLine(filepath.Join("img", "logo.png"), NoteBinaryOrTooLarge))
	assert.Equal(t, "├── x.go (skipped - error reading)", FileLine("x.go", NoteReadError))
	assert.Equal(t, "│   ├── ... (skipped - path too long)", FileLine(filepath.Join("d", "long.go"), NotePathTooLong))
}

func TestDeeplyNested(t *testing.T) {
	parts := make([]string, MaxComponents)
	for i := range parts {
		parts[i] = "d"
	}
	assert.False(t, DeeplyNested(filepath.Join(parts...)))
	assert.True(t, DeeplyNested(filepath.Join(append(parts, "d")...)))
}

func TestRendererDocument(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRenderer(&buf)
	require.NoError(t, err)

	ok, err := r.Directory("src")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, r.File(filepath.Join("src", "main.go"), NoteNone))
	require.NoError(t, r.Notice(5))
	require.NoError(t, r.Notice(5))
	require.NoError(t, r.Flush())

	want := ".\n" +
		"├── src/\n" +
		"│   ├── main.go\n" +
		"\n[Maximum file limit reached (5). Some files were skipped.]\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, 4, r.Lines())
}

func TestRendererDeepDirectory(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRenderer(&buf)
	require.NoError(t, err)

	deep := strings.Repeat("d"+string(filepath.Separator), MaxComponents) + "d"
	ok, err := r.Directory(deep)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, r.Flush())
	assert.Equal(t, ".\n"+DeepNestingLine+"\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRendererReportsWriteFailure(t *testing.T) {
	r, err := NewRenderer(failingWriter{})
	require.NoError(t, err, "root line is buffered")
	assert.Error(t, r.Flush())
}
