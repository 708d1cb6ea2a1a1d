// Package source defines the unit of user code handled by the pipeline and
// the coding modes it can be written in.
package source

import (
	"strings"

	"github.com/pkg/errors"
)

// Unit is one submission of user code: a notebook cell or a sketch file.
// It is never modified once created.
type Unit struct {
	// Filename is used in error messages, e.g. "<py5bot>" or "sketch.py".
	Filename string

	// Text with line breaks normalized to "\n".
	Text string
}

// New creates a Unit, normalizing "\r\n" and "\r" line breaks.
func New(filename, text string) *Unit {
	if strings.IndexByte(text, '\r') >= 0 {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
	}
	return &Unit{Filename: filename, Text: text}
}

// Lines splits the text into lines, without line breaks. A final line break
// does not start a new line.
func (u *Unit) Lines() []string {
	return SplitLines(u.Text)
}

// Line returns the 1-based line n, or "" if out of range.
func (u *Unit) Line(n int) string {
	lines := u.Lines()
	if n < 1 || n > len(lines) {
		return ""
	}
	return lines[n-1]
}

// NumLines returns the number of lines in the unit.
func (u *Unit) NumLines() int {
	return len(u.Lines())
}

// SplitLines splits text on "\n". Like Python's `str.splitlines()` a trailing
// line break does not produce an extra empty line, and empty text has no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// Mode is the coding mode of the user code.
type Mode int

const (
	// ImportedMode code calls the binding's functions without qualification,
	// e.g. `size(200, 200)`.
	ImportedMode Mode = iota

	// ModuleMode code imports the binding and qualifies every call with the
	// package name, e.g. `py5.size(200, 200)`.
	ModuleMode
)

func (m Mode) String() string {
	if m == ModuleMode {
		return "module"
	}
	return "imported"
}

// ParseMode converts "imported" or "module" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "imported":
		return ImportedMode, nil
	case "module":
		return ModuleMode, nil
	}
	return ImportedMode, errors.Errorf("only module mode and imported mode are supported, got %q", s)
}
