package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBinary_EmptyData(t *testing.T) {
	t.Parallel()

	assert.False(t, IsBinary(nil))
	assert.False(t, IsBinary([]byte{}))
}

func TestIsBinary_PureText(t *testing.T) {
	t.Parallel()

	assert.False(t, IsBinary([]byte("import foo\n")))
}

func TestIsBinary_NullByte(t *testing.T) {
	t.Parallel()

	assert.True(t, IsBinary([]byte("hello\x00world")))
}

func TestIsBinary_NullBeyondSniffBoundary(t *testing.T) {
	t.Parallel()

	// Null byte beyond the sniff window should NOT be detected.
	data := make([]byte, BinarySniffLength+100)
	for i := range data {
		data[i] = 'a'
	}

	data[BinarySniffLength+50] = 0x00

	assert.False(t, IsBinary(data))
}

func TestCountLines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, CountLines(nil))
	assert.Equal(t, 1, CountLines([]byte("hello")))
	assert.Equal(t, 1, CountLines([]byte("hello\n")))
	assert.Equal(t, 3, CountLines([]byte("a\nb\nc")))
	assert.Equal(t, 3, CountLines([]byte("\n\n\n")))
}

func TestCountLines_LargeFile(t *testing.T) {
	t.Parallel()

	lines := strings.Repeat("line\n", 10000)

	assert.Equal(t, 10000, CountLines([]byte(lines)))
}

func TestLineNumber(t *testing.T) {
	t.Parallel()

	data := []byte("import foo\nimport bar\n\nx = 1\n")

	assert.Equal(t, 1, LineNumber(data, 0))
	assert.Equal(t, 1, LineNumber(data, 10))
	assert.Equal(t, 2, LineNumber(data, 11))
	assert.Equal(t, 4, LineNumber(data, 23))
	// Past the end: last line.
	assert.Equal(t, 5, LineNumber(data, 1000))
}

func TestLineAt(t *testing.T) {
	t.Parallel()

	data := []byte("import foo\nimport bar\n\nx = 1")

	assert.Equal(t, "import foo", LineAt(data, 0))
	assert.Equal(t, "import foo", LineAt(data, 7))
	assert.Equal(t, "import bar", LineAt(data, 11))
	assert.Equal(t, "", LineAt(data, 22))
	assert.Equal(t, "x = 1", LineAt(data, 25))
}

func TestOffsetOfLine(t *testing.T) {
	t.Parallel()

	data := []byte("a\nbb\nccc\n")

	assert.Equal(t, 0, OffsetOfLine(data, 1))
	assert.Equal(t, 2, OffsetOfLine(data, 2))
	assert.Equal(t, 5, OffsetOfLine(data, 3))
	assert.Equal(t, 9, OffsetOfLine(data, 4))
	assert.Equal(t, 9, OffsetOfLine(data, 100))
}
