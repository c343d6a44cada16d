package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pymove/cmd/pymove/commands"
)

type cliFixture struct {
	t       *testing.T
	root    string
	cfgPath string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "pymove.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(""), 0o644))

	return &cliFixture{t: t, root: filepath.Join(dir, "proj"), cfgPath: cfgPath}
}

func (f *cliFixture) write(rel, content string) {
	f.t.Helper()

	abs := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(f.t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(f.t, os.WriteFile(abs, []byte(content), 0o644))
}

func (f *cliFixture) readFile(rel string) string {
	f.t.Helper()

	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(rel)))
	require.NoError(f.t, err)

	return string(data)
}

func (f *cliFixture) execute(args ...string) (string, error) {
	f.t.Helper()

	full := append(args,
		"--root", f.root, "--config", f.cfgPath, "--no-color")

	cmd := commands.NewMvCommand()
	cmd.SetArgs(full)

	var buf bytes.Buffer

	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	err := cmd.Execute()

	return buf.String(), err
}

func TestMvMovesSymbol(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.write("foo.py", "def myfunc():\n    return 1\n")
	f.write("client.py", "import foo\n\nfoo.myfunc()\n")

	out, err := f.execute("foo.myfunc", "bar.myfunc")
	require.NoError(t, err)

	assert.Contains(t, out, "files scanned")
	assert.Equal(t, "import bar\n\nbar.myfunc()\n", f.readFile("client.py"))
	assert.Equal(t, "def myfunc():\n    return 1\n", f.readFile("bar.py"))
	assert.NoFileExists(t, filepath.Join(f.root, "foo.py"))
}

func TestMvDryRun(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.write("foo.py", "def myfunc():\n    return 1\n")
	f.write("client.py", "import foo\n\nfoo.myfunc()\n")

	out, err := f.execute("foo.myfunc", "bar.myfunc", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "+import bar")
	assert.Contains(t, out, "-import foo")
	assert.Equal(t, "import foo\n\nfoo.myfunc()\n", f.readFile("client.py"))
	assert.NoFileExists(t, filepath.Join(f.root, "bar.py"))
}

func TestMvNoAutomove(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.write("foo.py", "def myfunc():\n    return 1\n")
	f.write("client.py", "import foo\n\nfoo.myfunc()\n")

	_, err := f.execute("foo", "bar", "--no-automove")
	require.NoError(t, err)

	// References follow the new name; the file itself stays put.
	assert.Equal(t, "import bar\n\nbar.myfunc()\n", f.readFile("client.py"))
	assert.Equal(t, "def myfunc():\n    return 1\n", f.readFile("foo.py"))
	assert.NoFileExists(t, filepath.Join(f.root, "bar.py"))
}

func TestMvBatch(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.write("foo.py", "def a():\n    return 1\n\n\ndef b():\n    return 2\n")
	f.write("client.py", "import foo\n\nfoo.a()\nfoo.b()\n")

	batch := filepath.Join(t.TempDir(), "moves.yaml")
	require.NoError(t, os.WriteFile(batch, []byte(`moves:
  - old: [foo.a]
    new: bar.a
  - old: [foo.b]
    new: baz.b
`), 0o644))

	_, err := f.execute("--batch", batch)
	require.NoError(t, err)

	assert.Equal(t, "import bar\nimport baz\n\nbar.a()\nbaz.b()\n",
		f.readFile("client.py"))
	assert.Equal(t, "def a():\n    return 1\n", f.readFile("bar.py"))
	assert.Equal(t, "def b():\n    return 2\n", f.readFile("baz.py"))
}

func TestMvMissingArgs(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)

	_, err := f.execute("foo.myfunc")
	require.ErrorIs(t, err, commands.ErrMissingNames)
}

func TestMvAliasFrom(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.write("foo.py", "def myfunc():\n    return 1\n")
	f.write("client.py", "import foo\n\nfoo.myfunc()\n")

	_, err := f.execute("foo.myfunc", "bar.myfunc", "--alias", "FROM")
	require.NoError(t, err)

	assert.Equal(t, "from bar import myfunc\n\nmyfunc()\n", f.readFile("client.py"))
}

func TestMvExplicitAlias(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.write("foo.py", "def myfunc():\n    return 1\n")
	f.write("client.py", "import foo\n\nfoo.myfunc()\n")

	_, err := f.execute("foo.myfunc", "bar.myfunc", "--alias", "b")
	require.NoError(t, err)

	assert.Equal(t, "import bar as b\n\nb.myfunc()\n", f.readFile("client.py"))
}

func TestMvParseErrorFails(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.write("foo.py", "def myfunc():\n    return 1\n")
	f.write("broken.py", "def oops(:\n")

	out, err := f.execute("foo.myfunc", "bar.myfunc")
	require.ErrorIs(t, err, commands.ErrDiagnostics)
	assert.Contains(t, out, "Couldn't parse this file")
}
