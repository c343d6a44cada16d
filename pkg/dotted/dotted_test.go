package dotted

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartsWith(t *testing.T) {
	t.Parallel()

	assert.True(t, StartsWith("abc", "abc"))
	assert.True(t, StartsWith("abc.de", "abc"))
	assert.True(t, StartsWith("abc.de", "abc.de"))
	assert.True(t, StartsWith("abc.de.fg", "abc"))
	assert.True(t, StartsWith("abc.de.fg", "abc.de"))
	assert.True(t, StartsWith("abc.de.fg", "abc.de.fg"))

	assert.False(t, StartsWith("abc", "d"))
	assert.False(t, StartsWith("abc", "ab"))
	assert.False(t, StartsWith("abc", "abc.de"))
	assert.False(t, StartsWith("abc.de", "ab"))
	assert.False(t, StartsWith("abc.de", "abc.d"))
	assert.False(t, StartsWith("abc.de", "abc.h"))
	assert.False(t, StartsWith("exercise_util", "exercise"))
}

func TestPrefixes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"abc"}, Prefixes("abc"))
	assert.Equal(t, []string{"abc", "abc.def"}, Prefixes("abc.def"))
	assert.Equal(t,
		[]string{"abc", "abc.def", "abc.def.ghi"},
		Prefixes("abc.def.ghi"))
}

func TestJoin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "foo.bar.baz", Join("foo.bar", "baz"))
	assert.Equal(t, "baz", Join("", "baz"))
	assert.Equal(t, "foo", Join("foo", ""))
	assert.Equal(t, "", Join("", ""))
}

func TestFirstLastParent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "foo", First("foo.bar.baz"))
	assert.Equal(t, "foo", First("foo"))
	assert.Equal(t, "baz", Last("foo.bar.baz"))
	assert.Equal(t, "foo", Last("foo"))
	assert.Equal(t, "foo.bar", Parent("foo.bar.baz"))
	assert.Equal(t, "", Parent("foo"))
}

func TestTrimPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "baz", TrimPrefix("foo.bar.baz", "foo.bar"))
	assert.Equal(t, "", TrimPrefix("foo.bar", "foo.bar"))
	assert.Equal(t, "bar.baz", TrimPrefix("foo.bar.baz", "foo"))
	// Not a segment-wise prefix: unchanged.
	assert.Equal(t, "foobar.baz", TrimPrefix("foobar.baz", "foo"))
}

func TestNumSegments(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, NumSegments("foo"))
	assert.Equal(t, 3, NumSegments("foo.bar.baz"))
}
