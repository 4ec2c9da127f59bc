package snapshot

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactName(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"a.txt", "a.txt.txt"},
		{"src/pkg/main.go", "src_pkg_main.go.txt"},
		{`win\style\path.cs`, "win_style_path.cs.txt"},
		{strings.Repeat("x", 200), strings.Repeat("x", MaxArtifactNameLen) + ".txt"},
		{strings.Repeat("ü", 151), strings.Repeat("ü", MaxArtifactNameLen) + ".txt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ArtifactName(tt.rel))
	}
}

func TestWriterWritesHeaderAndContent(t *testing.T) {
	fs := memfs.New()
	w := NewWriter(fs)

	name, err := w.Write(filepath.Join("src", "main.go"), "package main\n")
	require.NoError(t, err)
	assert.Equal(t, "src_main.go.txt", name)

	data, err := util.ReadFile(fs, name)
	require.NoError(t, err)
	assert.Equal(t, "main.go\n\npackage main\n", string(data))
}

func TestWriterLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(osfs.New(dir))

	_, err := w.Write("a.txt", "hello")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt.txt", entries[0].Name())
}

func TestWriterSetsArtifactMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not honored on windows")
	}
	dir := t.TempDir()
	w := NewWriter(osfs.New(dir))

	name, err := w.Write("a.txt", "hello")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, ArtifactMode, info.Mode().Perm())
}

func TestWriterSkipsStaleTempFiles(t *testing.T) {
	fs := memfs.New()
	stale := tempPrefix + strconv.Itoa(os.Getpid()) + "-1"
	require.NoError(t, util.WriteFile(fs, stale, []byte("left over"), 0o644))

	name, err := NewWriter(fs).Write("a.txt", "hello")
	require.NoError(t, err)

	data, err := util.ReadFile(fs, name)
	require.NoError(t, err)
	assert.Equal(t, "a.txt\n\nhello", string(data))
	data, err = util.ReadFile(fs, stale)
	require.NoError(t, err)
	assert.Equal(t, "left over", string(data))
}

func TestWriterLastWriterWins(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(osfs.New(dir))

	// "a/b.txt" and "a_b.txt" collapse to the same artifact name.
	_, err := w.Write(filepath.Join("a", "b.txt"), "first")
	require.NoError(t, err)
	_, err = w.Write("a_b.txt", "second")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "a_b.txt.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a_b.txt\n\nsecond", string(data))
}

func TestWriterReportsCreateFailure(t *testing.T) {
	// The output "directory" is a regular file.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	w := NewWriter(osfs.New(blocker))

	_, err := w.Write("a.txt", "hello")
	assert.Error(t, err)
}
