// Package linebuf provides the line-oriented text buffer that the
// translation engine reads from and inserts into.
//
// The engine only depends on the Buffer interface, so it can run against an
// editor widget, a file, or the in-memory Lines implementation used by the
// command-line tool and the tests.
package linebuf

import (
	"fmt"
	"os"
	"strings"
)

// Buffer is a mutable, line-addressed document. Indices always refer to
// the current state of the buffer and shift after every insertion.
type Buffer interface {
	// LineCount returns the number of lines currently in the buffer.
	LineCount() int
	// Line returns the text of line i without its line terminator.
	Line(i int) string
	// Insert inserts text at column col of line. Newlines in text split
	// the line, exactly like typing them into an editor.
	Insert(line, col int, text string) error
}

// Lines is an in-memory Buffer backed by a string slice.
type Lines struct {
	lines []string
	// crlf records whether the source used \r\n line endings.
	crlf bool
	// trailingNewline records whether the source ended with a newline.
	trailingNewline bool
}

// New returns a buffer holding a copy of lines.
func New(lines []string) *Lines {
	return &Lines{lines: append([]string(nil), lines...)}
}

// Parse splits text into lines. A trailing newline does not produce an
// extra empty line but is restored by String.
func Parse(text string) *Lines {
	b := &Lines{}
	if strings.Contains(text, "\r\n") {
		b.crlf = true
		text = strings.ReplaceAll(text, "\r\n", "\n")
	}
	if strings.HasSuffix(text, "\n") {
		b.trailingNewline = true
		text = strings.TrimSuffix(text, "\n")
	}
	b.lines = strings.Split(text, "\n")
	return b
}

// ReadFile loads a buffer from a file.
func ReadFile(path string) (*Lines, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// WriteFile writes the buffer to path, keeping the original line endings.
func (b *Lines) WriteFile(path string) error {
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LineCount implements Buffer.
func (b *Lines) LineCount() int {
	return len(b.lines)
}

// Line implements Buffer. Out-of-range indices yield an empty string.
func (b *Lines) Line(i int) string {
	if i < 0 || i >= len(b.lines) {
		return ""
	}
	return b.lines[i]
}

// Insert implements Buffer.
func (b *Lines) Insert(line, col int, text string) error {
	if line < 0 || line >= len(b.lines) {
		return fmt.Errorf("line %d out of range [0,%d)", line, len(b.lines))
	}
	cur := b.lines[line]
	if col < 0 || col > len(cur) {
		return fmt.Errorf("column %d out of range for line %d (length %d)", col, line, len(cur))
	}

	parts := strings.Split(cur[:col]+text+cur[col:], "\n")

	out := make([]string, 0, len(b.lines)+len(parts)-1)
	out = append(out, b.lines[:line]...)
	out = append(out, parts...)
	out = append(out, b.lines[line+1:]...)
	b.lines = out
	return nil
}

// Lines returns a copy of the current lines.
func (b *Lines) Lines() []string {
	return append([]string(nil), b.lines...)
}

// IsBlank reports whether the buffer holds only whitespace.
func (b *Lines) IsBlank() bool {
	for _, l := range b.lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

// String joins the lines back into a document.
func (b *Lines) String() string {
	sep := "\n"
	if b.crlf {
		sep = "\r\n"
	}
	s := strings.Join(b.lines, sep)
	if b.trailingNewline {
		s += sep
	}
	return s
}
