// Package textrename rewrites mentions of a moved module inside string
// literals and comments. Matching is token-aware: identifier-style
// names with dots or underscores are replaced wherever they appear as a
// whole token, while plain English-looking words are only replaced when
// the context marks them as code (a dotted continuation, backticks, or
// being the entire string).
package textrename

import "strings"

// Replace rewrites mentions of oldFull (and of the local spellings it
// goes by) to newFull inside one string or comment text. The text may
// include its surrounding quote characters.
func Replace(text, oldFull, newFull string, locals []string) string {
	if inner, ok := trimQuotes(text); ok && inner == oldFull {
		return strings.Replace(text, oldFull, newFull, 1)
	}

	out := replacePath(text, oldFull, newFull)
	out = replaceName(out, oldFull, newFull)

	for _, local := range locals {
		if local == oldFull || isDottedPrefix(local, oldFull) {
			// The bare alias is indistinguishable from a reference to a
			// package that is not being renamed.
			continue
		}

		out = replaceName(out, local, newFull)
	}

	return out
}

// replacePath rewrites the file-path form of a module name, e.g.
// foo.bar -> foo/bar.py.
func replacePath(text, oldFull, newFull string) string {
	oldPath := strings.ReplaceAll(oldFull, ".", "/") + ".py"
	newPath := strings.ReplaceAll(newFull, ".", "/") + ".py"

	var b strings.Builder

	i := 0

	for {
		j := strings.Index(text[i:], oldPath)
		if j < 0 {
			b.WriteString(text[i:])

			break
		}

		j += i
		end := j + len(oldPath)

		if boundedBefore(text, j) && (end == len(text) || !isWordByte(text[end])) {
			b.WriteString(text[i:j])
			b.WriteString(newPath)
			i = end
		} else {
			b.WriteString(text[i : j+1])
			i = j + 1
		}
	}

	return b.String()
}

// replaceName rewrites token occurrences of name to newFull. A dotted
// continuation after the token is always a code reference; a bare token
// qualifies only when the name is symbol-like or explicitly backticked.
func replaceName(text, name, newFull string) string {
	var b strings.Builder

	symbolLike := strings.ContainsAny(name, "._")

	i := 0

	for {
		j := strings.Index(text[i:], name)
		if j < 0 {
			b.WriteString(text[i:])

			break
		}

		j += i
		end := j + len(name)

		if !matchesAt(text, name, j, end, symbolLike) {
			b.WriteString(text[i : j+1])
			i = j + 1

			continue
		}

		b.WriteString(text[i:j])
		b.WriteString(newFull)
		i = end
	}

	return b.String()
}

func matchesAt(text, name string, start, end int, symbolLike bool) bool {
	if !boundedBefore(text, start) {
		return false
	}

	if cont, isPy := dottedContinuation(text, end); cont {
		// A lone .py continuation is a filename, not an attribute.
		return !isPy
	}

	if end < len(text) && isWordByte(text[end]) {
		return false
	}

	if symbolLike {
		return true
	}

	backticked := start > 0 && text[start-1] == '`' &&
		end < len(text) && text[end] == '`'

	return backticked
}

// dottedContinuation reports whether the text at end continues the
// token as an attribute access, and whether that continuation is
// exactly ".py".
func dottedContinuation(text string, end int) (bool, bool) {
	if end+1 >= len(text) || text[end] != '.' || !isWordByte(text[end+1]) {
		return false, false
	}

	j := end + 1
	for j < len(text) && isWordByte(text[j]) {
		j++
	}

	return true, text[end:j] == ".py"
}

func boundedBefore(text string, start int) bool {
	if start == 0 {
		return true
	}

	c := text[start-1]

	return !isWordByte(c) && c != '.' && c != '/'
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' ||
		c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDottedPrefix(prefix, name string) bool {
	return strings.HasPrefix(name, prefix+".")
}

// trimQuotes strips one layer of matching Python string quoting and
// reports whether the text was quoted at all.
func trimQuotes(text string) (string, bool) {
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if len(text) >= 2*len(q) &&
			strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			return text[len(q) : len(text)-len(q)], true
		}
	}

	return text, false
}
