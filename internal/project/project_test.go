package project_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pymove/internal/project"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()

	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func TestPyFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "foo.py", "import os\n")
	writeFile(t, root, "pkg/__init__.py", "")
	writeFile(t, root, "pkg/bar.py", "x = 1\n")
	writeFile(t, root, "pkg/data.txt", "not python\n")
	writeFile(t, root, ".git/config.py", "ignored\n")
	writeFile(t, root, "__pycache__/foo.py", "ignored\n")

	tree := project.NewTree(root)

	files, err := tree.PyFiles()
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"foo.py", "pkg/__init__.py", "pkg/bar.py"}, files)
}

func TestPyFilesExclude(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "foo.py", "import os\n")
	writeFile(t, root, "foo_test.py", "import foo\n")
	writeFile(t, root, "pkg/bar.py", "x = 1\n")
	writeFile(t, root, "pkg/generated_pb2.py", "x = 1\n")

	tree := project.NewTree(root)
	tree.Exclude = []string{"*_test.py", "pkg/generated_*.py"}

	files, err := tree.PyFiles()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"foo.py", "pkg/bar.py"}, files)
}

func TestModulePathMapping(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "pkg/__init__.py", "")
	tree := project.NewTree(root)

	assert.Equal(t, "foo.bar", tree.ModuleForPath("foo/bar.py"))
	assert.Equal(t, "pkg", tree.ModuleForPath("pkg/__init__.py"))

	assert.Equal(t, "foo/bar.py", tree.PathForModule("foo.bar"))
	assert.Equal(t, "pkg/__init__.py", tree.PathForModule("pkg"))
}

func TestReadRejectsBinary(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "blob.py", "\x00\x01\x02")
	tree := project.NewTree(root)

	_, err := tree.Read("blob.py")
	require.Error(t, err)
}

func TestWriteAndRemove(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	tree := project.NewTree(root)

	require.NoError(t, tree.Write("a/b.py", []byte("x = 1\n")))
	require.True(t, tree.Exists("a/b.py"))

	data, err := tree.Read("a/b.py")
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(data))

	require.NoError(t, tree.Remove("a/b.py"))
	assert.False(t, tree.Exists("a/b.py"))
	assert.False(t, tree.Exists("a"))
}

func TestParseCache(t *testing.T) {
	t.Parallel()

	cache := project.NewParseCache(0)
	defer cache.Close()

	ctx := context.Background()

	f1, err := cache.Parse(ctx, "a.py", []byte("import foo\n"))
	require.NoError(t, err)

	f2, err := cache.Parse(ctx, "a.py", []byte("import foo\n"))
	require.NoError(t, err)
	assert.Same(t, f1, f2)

	f3, err := cache.Parse(ctx, "a.py", []byte("import bar\n"))
	require.NoError(t, err)
	assert.NotSame(t, f1, f3)
}

func TestParseCacheEviction(t *testing.T) {
	t.Parallel()

	cache := project.NewParseCache(16)
	defer cache.Close()

	ctx := context.Background()

	_, err := cache.Parse(ctx, "a.py", []byte("x = 1\n"))
	require.NoError(t, err)

	_, err = cache.Parse(ctx, "b.py", []byte("y = 2222222222\n"))
	require.NoError(t, err)

	f, err := cache.Parse(ctx, "a.py", []byte("x = 1\n"))
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(f.Source))
}

func TestParseCacheDroppedTreesStayUsable(t *testing.T) {
	t.Parallel()

	cache := project.NewParseCache(16)
	defer cache.Close()

	ctx := context.Background()

	evicted, err := cache.Parse(ctx, "a.py", []byte("x = 1\n"))
	require.NoError(t, err)

	// Pushes a.py over the size limit and out of the cache.
	replaced, err := cache.Parse(ctx, "b.py", []byte("y = 2222222222\n"))
	require.NoError(t, err)

	// Supersedes the b.py entry we still hold.
	_, err = cache.Parse(ctx, "b.py", []byte("y = 3\n"))
	require.NoError(t, err)

	assert.NotEmpty(t, evicted.Root().NamedChildren())
	assert.NotEmpty(t, replaced.Root().NamedChildren())
}
