// Package dotted provides segment-wise operations on dotted Python names.
// All prefix relations are per-segment: "exercise_util" does not start
// with "exercise", and "abc.de" does not start with "ab".
package dotted

import "strings"

// StartsWith returns true if name equals prefix or begins with prefix
// followed by a dot. Matching is segment-wise, never substring-wise.
func StartsWith(name, prefix string) bool {
	if name == prefix {
		return true
	}

	return strings.HasPrefix(name, prefix+".")
}

// Prefixes returns every dotted prefix of name, shortest first.
// Prefixes("a.b.c") is ["a", "a.b", "a.b.c"].
func Prefixes(name string) []string {
	segments := strings.Split(name, ".")
	prefixes := make([]string, 0, len(segments))

	for i := range segments {
		prefixes = append(prefixes, strings.Join(segments[:i+1], "."))
	}

	return prefixes
}

// Split returns the segments of name.
func Split(name string) []string {
	return strings.Split(name, ".")
}

// Join joins segments into a dotted name, skipping empty parts so that
// Join("", "baz") is "baz" and Join("foo.bar", "baz") is "foo.bar.baz".
func Join(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))

	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}

	return strings.Join(nonEmpty, ".")
}

// First returns the leading segment of name.
func First(name string) string {
	segment, _, _ := strings.Cut(name, ".")

	return segment
}

// Last returns the trailing segment of name.
func Last(name string) string {
	idx := strings.LastIndexByte(name, '.')

	return name[idx+1:]
}

// Parent returns everything before the trailing segment, or "" when name
// has a single segment.
func Parent(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}

	return name[:idx]
}

// TrimPrefix removes a segment-wise prefix from name. It returns the
// remainder without a leading dot, or "" when name equals prefix.
// When prefix is not a segment-wise prefix of name, name is returned
// unchanged.
func TrimPrefix(name, prefix string) string {
	if name == prefix {
		return ""
	}

	if strings.HasPrefix(name, prefix+".") {
		return name[len(prefix)+1:]
	}

	return name
}

// NumSegments returns the number of segments in name.
func NumSegments(name string) int {
	return strings.Count(name, ".") + 1
}
