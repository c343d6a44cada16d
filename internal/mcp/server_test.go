package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pymove/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Root: ".",
		Move: config.MoveConfig{
			AliasPolicy: config.PolicyAuto,
			Automove:    true,
		},
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()

	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func callRequest(name string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	return req
}

func resultText(t *testing.T, res *mcpgo.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(mcpgo.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestPreviewMoveLeavesDiskUntouched(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "foo.py", "def myfunc():\n    return 1\n")
	writeFile(t, root, "client.py", "import foo\n\nfoo.myfunc()\n")

	s := NewServer(root, testConfig())

	res, err := s.handlePreview(context.Background(), callRequest("preview_move",
		map[string]any{"old_names": "foo.myfunc", "new_name": "bar.myfunc"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, "+import bar")
	assert.Contains(t, text, "-import foo")
	assert.Contains(t, text, "files scanned")

	data, readErr := os.ReadFile(filepath.Join(root, "client.py"))
	require.NoError(t, readErr)
	assert.Equal(t, "import foo\n\nfoo.myfunc()\n", string(data))
}

func TestMoveSymbolWritesFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "foo.py", "def myfunc():\n    return 1\n")
	writeFile(t, root, "client.py", "import foo\n\nfoo.myfunc()\n")

	s := NewServer(root, testConfig())

	res, err := s.handleMove(context.Background(), callRequest("move_symbol",
		map[string]any{"old_names": "foo.myfunc", "new_name": "bar.myfunc"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	data, readErr := os.ReadFile(filepath.Join(root, "client.py"))
	require.NoError(t, readErr)
	assert.Equal(t, "import bar\n\nbar.myfunc()\n", string(data))

	moved, readErr := os.ReadFile(filepath.Join(root, "bar.py"))
	require.NoError(t, readErr)
	assert.Equal(t, "def myfunc():\n    return 1\n", string(moved))
}

func TestMoveSymbolMissingArguments(t *testing.T) {
	t.Parallel()

	s := NewServer(t.TempDir(), testConfig())

	res, err := s.handleMove(context.Background(), callRequest("move_symbol",
		map[string]any{"new_name": "bar.myfunc"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestMoveSymbolUnknownName(t *testing.T) {
	t.Parallel()

	s := NewServer(t.TempDir(), testConfig())

	res, err := s.handleMove(context.Background(), callRequest("move_symbol",
		map[string]any{"old_names": "ghost.fn", "new_name": "bar.fn"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
