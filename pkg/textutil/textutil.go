// Package textutil provides byte-level text utilities: binary detection,
// line counting, and line lookup by byte offset.
package textutil

import "bytes"

// BinarySniffLength is the maximum number of bytes scanned for null-byte
// detection. Matches the heuristic used by Git and most editors.
const BinarySniffLength = 8000

// IsBinary returns true if data contains a null byte within the first
// BinarySniffLength bytes. Empty data is not binary.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

// CountLines returns the number of newline-delimited lines in data.
// A non-empty buffer without a trailing newline counts the last partial line.
// Returns 0 for empty data.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	lines := bytes.Count(data, []byte{'\n'})

	if data[len(data)-1] != '\n' {
		lines++
	}

	return lines
}

// LineNumber returns the 1-based line number of the byte at offset.
// Offsets past the end of data report the last line.
func LineNumber(data []byte, offset int) int {
	if offset > len(data) {
		offset = len(data)
	}

	return bytes.Count(data[:offset], []byte{'\n'}) + 1
}

// LineAt returns the text of the line containing the byte at offset,
// without its trailing newline.
func LineAt(data []byte, offset int) string {
	if offset > len(data) {
		offset = len(data)
	}

	start := bytes.LastIndexByte(data[:offset], '\n') + 1

	end := bytes.IndexByte(data[offset:], '\n')
	if end < 0 {
		end = len(data)
	} else {
		end += offset
	}

	return string(data[start:end])
}

// OffsetOfLine returns the byte offset at which the 1-based line begins,
// or len(data) when the file has fewer lines.
func OffsetOfLine(data []byte, line int) int {
	offset := 0

	for line > 1 && offset < len(data) {
		next := bytes.IndexByte(data[offset:], '\n')
		if next < 0 {
			return len(data)
		}

		offset += next + 1
		line--
	}

	return offset
}
