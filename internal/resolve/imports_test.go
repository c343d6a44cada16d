package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pymove/pkg/pytree"
)

// importTuple is the comparable shape assertions use.
type importTuple struct {
	name  string
	alias string
	start int
	end   int
}

func parseFile(t *testing.T, path, src string) *pytree.File {
	t.Helper()

	file, err := pytree.NewParser().Parse(context.Background(), path, []byte(src))
	require.NoError(t, err)
	t.Cleanup(file.Close)

	return file
}

func importTuples(imports []Import) []importTuple {
	tuples := make([]importTuple, 0, len(imports))
	for _, imp := range imports {
		tuples = append(tuples, importTuple{imp.Name, imp.Alias, imp.Start, imp.End})
	}

	return tuples
}

func TestComputeAllImports_Simple(t *testing.T) {
	t.Parallel()

	file := parseFile(t, "some_file.py", "import foo\n")

	got := ComputeAllImports(file, Options{})

	assert.ElementsMatch(t,
		[]importTuple{{"foo", "foo", 0, 10}},
		importTuples(got))
}

func TestComputeAllImports_OtherJunk(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"# import foo\n",
		"                  # import foo\n",
		"def foo(): pass\n",
		"\"\"\"imports are \"fun\" in a multiline string\"\"\"\n",
		"from __future__ import absolute_import\n",
	} {
		file := parseFile(t, "some_file.py", src)

		assert.Empty(t, ComputeAllImports(file, Options{}), "source: %q", src)
	}
}

func TestComputeAllImports_Styles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src   string
		want  importTuple
		style Style
	}{
		{"import foo.bar.baz\n", importTuple{"foo.bar.baz", "foo.bar.baz", 0, 18}, StylePlain},
		{"import foo.bar.baz as x\n", importTuple{"foo.bar.baz", "x", 0, 23}, StyleAliased},
		{"from foo.bar import baz\n", importTuple{"foo.bar.baz", "baz", 0, 23}, StyleFrom},
		{"from foo.bar import baz as x\n", importTuple{"foo.bar.baz", "x", 0, 28}, StyleFromAliased},
	}

	for _, tt := range tests {
		file := parseFile(t, "some_file.py", tt.src)

		got := ComputeAllImports(file, Options{})
		require.Len(t, got, 1, "source: %q", tt.src)
		assert.Equal(t, tt.want, importTuples(got)[0], "source: %q", tt.src)
		assert.Equal(t, tt.style, got[0].Style, "source: %q", tt.src)
	}
}

func TestComputeAllImports_MultipleClauses(t *testing.T) {
	t.Parallel()

	file := parseFile(t, "some_file.py", "import bar as foo, baz as quux\n")

	got := ComputeAllImports(file, Options{})

	// Several clauses on one statement: spans cover each clause only.
	assert.ElementsMatch(t,
		[]importTuple{
			{"bar", "foo", 7, 17},
			{"baz", "quux", 19, 30},
		},
		importTuples(got))
}

func TestComputeAllImports_FromWithMultipleNames(t *testing.T) {
	t.Parallel()

	file := parseFile(t, "some_file.py", "from foo import bar, baz\n")

	got := ComputeAllImports(file, Options{})

	require.Len(t, got, 2)
	assert.Equal(t, "foo.bar", got[0].Name)
	assert.Equal(t, "bar", got[0].Alias)
	assert.Equal(t, "foo.baz", got[1].Name)
	assert.Equal(t, "baz", got[1].Alias)
}

func TestComputeAllImports_WildcardAndRelative(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"from foo import *\n",
		"from . import foo\n",
		"from .bar import foo\n",
	} {
		file := parseFile(t, "some_file.py", src)

		assert.Empty(t, ComputeAllImports(file, Options{}), "source: %q", src)
	}
}

func TestComputeAllImports_ToplevelOnly(t *testing.T) {
	t.Parallel()

	file := parseFile(t, "some_file.py", "def f():\n    import foo\n")

	assert.Len(t, ComputeAllImports(file, Options{}), 1)
	assert.Empty(t, ComputeAllImports(file, Options{ToplevelOnly: true}))
}

func TestComputeAllImports_WithinNode(t *testing.T) {
	t.Parallel()

	file := parseFile(t, "some_file.py",
		"import foo\n\n\ndef f():\n    import foo as bar\n")

	all := ComputeAllImports(file, Options{})
	require.Len(t, all, 2)

	var def pytree.Node

	for n := range file.Root().Walk() {
		if n.Kind() == pytree.KindFunctionDef {
			def = n

			break
		}
	}

	within := ComputeAllImports(file, Options{Within: &def})

	assert.ElementsMatch(t,
		[]importTuple{{"foo", "bar", 26, 43}},
		importTuples(within))
}

func TestComputeAllImports_ScopeTracking(t *testing.T) {
	t.Parallel()

	file := parseFile(t, "some_file.py",
		"import top\n\n\ndef f():\n    import nested\n")

	got := ComputeAllImports(file, Options{})
	require.Len(t, got, 2)

	for _, imp := range got {
		switch imp.Name {
		case "top":
			assert.Equal(t, pytree.KindModule, imp.Scope.Kind())
		case "nested":
			assert.Equal(t, pytree.KindFunctionDef, imp.Scope.Kind())
		}
	}
}

func TestImportBindsRoot(t *testing.T) {
	t.Parallel()

	file := parseFile(t, "some_file.py",
		"import foo.bar\nimport foo.bar as x\nfrom foo import bar\n")

	got := ComputeAllImports(file, Options{})
	require.Len(t, got, 3)

	assert.Equal(t, "foo", got[0].BindsRoot())
	assert.Equal(t, "x", got[1].BindsRoot())
	assert.Equal(t, "bar", got[2].BindsRoot())
}

func TestModuleNameForPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "foo", ModuleNameForPath("foo.py"))
	assert.Equal(t, "foo.bar", ModuleNameForPath("foo/bar.py"))
	assert.Equal(t, "foo.bar", ModuleNameForPath("foo/bar/__init__.py"))
	assert.Equal(t, "foo", ModuleNameForPath("foo/__init__.py"))
}
