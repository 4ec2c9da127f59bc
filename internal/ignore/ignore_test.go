package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSetIncludesDefaults(t *testing.T) {
	s := NewSet()
	for _, name := range DefaultNames {
		assert.True(t, s.Contains(name), "default %q missing", name)
	}
	assert.Equal(t, len(DefaultNames), s.Len())
	assert.False(t, s.Contains("src"))
}

func TestNewSetAddsUserNames(t *testing.T) {
	s := NewSet(ParseNames(" vendor, tmp ,,")...)
	assert.True(t, s.Contains("vendor"))
	assert.True(t, s.Contains("tmp"))
	assert.False(t, s.Contains(""))
	assert.Equal(t, len(DefaultNames)+2, s.Len())
}

func TestParseNames(t *testing.T) {
	assert.Nil(t, ParseNames(""))
	assert.Nil(t, ParseNames("   "))
	assert.Equal(t, []string{"a", "b"}, ParseNames("a,b"))
}

func TestSetNormalizesUnicode(t *testing.T) {
	// "café" decomposed (e + combining acute) must match the composed form.
	s := NewSet("cafe\u0301")
	assert.True(t, s.Contains("caf\u00e9"))
}

func TestShouldSkip(t *testing.T) {
	root := filepath.Join(string(os.PathSeparator), "src", "project")
	out := filepath.Join(root, "llm-context")
	names := NewSet("secret")

	tests := []struct {
		name string
		rel  string
		want bool
	}{
		{"plain file", "main.go", false},
		{"nested file", filepath.Join("pkg", "util", "x.go"), false},
		{"ignored top dir", "node_modules", true},
		{"under ignored dir", filepath.Join("web", "node_modules", "react", "index.js"), true},
		{"ignored leaf name", filepath.Join("cfg", "secret"), true},
		{"name prefix is not a match", filepath.Join("builder", "a.go"), false},
		{"output dir itself", "llm-context", true},
		{"inside output dir", filepath.Join("llm-context", "file-tree.txt"), true},
		{"output dir name prefix", "llm-context-old", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldSkip(filepath.Join(root, tt.rel), tt.rel, names, out)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShouldSkipIgnoresComponentsAboveRoot(t *testing.T) {
	// The root itself lives under a directory called "build"; only the
	// relative components are consulted.
	root := filepath.Join(string(os.PathSeparator), "home", "build", "project")
	assert.False(t, ShouldSkip(filepath.Join(root, "a.txt"), "a.txt", NewSet(), ""))
}

func TestComponents(t *testing.T) {
	assert.Nil(t, Components("."))
	assert.Equal(t, []string{"a", "b", "c"}, Components("a/b/c"))
	assert.Equal(t, []string{"a", "b"}, Components(`a\b`))
}

func TestRulesPerDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("# comment\n*.log\n/only-root.txt\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", ".gitignore"), []byte("!keep.log\ngen/\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", ".ignore"), []byte("scratch.txt\n"), 0o644))

	r, err := NewRules(root, RulesOptions{})
	require.NoError(t, err)
	require.NoError(t, r.LoadDir(nil))

	assert.True(t, r.Match([]string{"debug.log"}, false))
	assert.True(t, r.Match([]string{"only-root.txt"}, false))
	assert.False(t, r.Match([]string{"sub", "only-root.txt"}, false))
	assert.False(t, r.Match([]string{"main.go"}, false))

	require.NoError(t, r.LoadDir([]string{"sub"}))
	assert.True(t, r.Match([]string{"sub", "other.log"}, false))
	assert.False(t, r.Match([]string{"sub", "keep.log"}, false), "negation in nested file wins")
	assert.True(t, r.Match([]string{"sub", "gen"}, true))
	assert.False(t, r.Match([]string{"sub", "gen"}, false), "directory-only pattern")
	assert.True(t, r.Match([]string{"sub", "scratch.txt"}, false))
	assert.False(t, r.Match([]string{"scratch.txt"}, false), "nested rules stay scoped")
}

func TestRulesInfoExclude(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "info"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "info", "exclude"), []byte("local/\n"), 0o644))

	r, err := NewRules(root, RulesOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.Match([]string{"local"}, true))
}

func TestRulesWithoutFiles(t *testing.T) {
	r, err := NewRules(t.TempDir(), RulesOptions{})
	require.NoError(t, err)
	require.NoError(t, r.LoadDir(nil))
	assert.Zero(t, r.Len())
	assert.False(t, r.Match([]string{"anything"}, false))
}

func TestIsRulesFile(t *testing.T) {
	assert.True(t, IsRulesFile(".gitignore"))
	assert.True(t, IsRulesFile(filepath.Join("pkg", ".ignore")))
	assert.True(t, IsRulesFile(filepath.Join(".git", "info", "exclude")))
	assert.False(t, IsRulesFile(filepath.Join("pkg", "exclude")))
	assert.False(t, IsRulesFile("main.go"))
	assert.False(t, IsRulesFile("."))
}
