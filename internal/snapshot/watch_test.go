package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchFilter(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Root = root
	cfg.OutputDir = filepath.Join(root, "llm-context")
	cfg.IgnoreNames = []string{"tmp"}
	cfg.NoVCSIgnore = true

	skip, err := WatchFilter(cfg)
	require.NoError(t, err)

	assert.True(t, skip(filepath.Join(root, "llm-context")))
	assert.True(t, skip(filepath.Join(root, "llm-context", "a.txt.txt")))
	assert.True(t, skip(filepath.Join(root, "node_modules", "x.js")))
	assert.True(t, skip(filepath.Join(root, "tmp")))
	assert.False(t, skip(filepath.Join(root, "src", "main.go")))
	assert.False(t, skip(root))
}

func TestWatchFilterSkipHidden(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root, filepath.Join(t.TempDir(), "out"))
	cfg.SkipHidden = true

	skip, err := WatchFilter(cfg)
	require.NoError(t, err)

	assert.True(t, skip(filepath.Join(root, ".env")))
	assert.True(t, skip(filepath.Join(root, ".cache", "x")))
	assert.True(t, skip(filepath.Join(root, ".cache", ".gitignore")))
	assert.False(t, skip(filepath.Join(root, ".gitignore")), "ignore files change what a run sees")
	assert.False(t, skip(filepath.Join(root, "src", "main.go")))

	cfg.SkipHidden = false
	skip, err = WatchFilter(cfg)
	require.NoError(t, err)
	assert.False(t, skip(filepath.Join(root, ".env")))
}

func TestWatchFilterVCSIgnore(t *testing.T) {
	root := makeTree(t, map[string]string{
		".gitignore":     "*.snap\ngenerated/\n",
		"generated/x.go": "x",
		"pkg/.gitignore": "local.cfg\n",
		"pkg/local.cfg":  "l",
		"pkg/keep.go":    "k",
		"main.go":        "m",
	})
	cfg := testConfig(root, filepath.Join(t.TempDir(), "out"))
	cfg.NoVCSIgnore = false

	skip, err := WatchFilter(cfg)
	require.NoError(t, err)

	assert.True(t, skip(filepath.Join(root, "state.snap")))
	assert.True(t, skip(filepath.Join(root, "generated")))
	assert.True(t, skip(filepath.Join(root, "generated", "x.go")))
	assert.True(t, skip(filepath.Join(root, "pkg", "local.cfg")))
	assert.False(t, skip(filepath.Join(root, "local.cfg")), "nested rules are scoped to their directory")
	assert.False(t, skip(filepath.Join(root, "pkg", "keep.go")))
	assert.False(t, skip(filepath.Join(root, "main.go")))

	// Editing an ignore file reloads the rules.
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("main.go\n"), 0o644))
	assert.False(t, skip(filepath.Join(root, ".gitignore")))
	assert.True(t, skip(filepath.Join(root, "main.go")))
	assert.False(t, skip(filepath.Join(root, "state.snap")))

	cfg.NoVCSIgnore = true
	skip, err = WatchFilter(cfg)
	require.NoError(t, err)
	assert.False(t, skip(filepath.Join(root, "main.go")))
}
