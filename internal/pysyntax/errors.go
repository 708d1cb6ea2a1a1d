package pysyntax

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

const (
	// KindSyntaxError is the Name of a generic syntax error.
	KindSyntaxError = "SyntaxError"

	// KindIndentationError is the Name of errors in the indentation of blocks.
	KindIndentationError = "IndentationError"
)

// SyntaxError is returned when the source cannot be tokenized or parsed.
// It holds enough information to point the user to the offending line.
type SyntaxError struct {
	Kind     string // KindSyntaxError or KindIndentationError.
	Msg      string
	Filename string
	Line     int // 1-based.
	Col      int // 0-based byte offset in Text.
	Text     string
}

// Error implements error, in the same form Python prints `str(SyntaxError)`.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s (%s, line %d)", e.Msg, e.Filename, e.Line)
}

// Name of the error, used as the exception name when displayed in a notebook.
func (e *SyntaxError) Name() string {
	return e.Kind
}

// Format returns the multi-line report: file and line, the offending source
// line (without its indentation) and a caret under the error column, followed
// by the error kind and message.
func (e *SyntaxError) Format() string {
	return strings.Join(e.lines(false), "\n")
}

// Traceback returns the lines of Format, with the caret and the error name
// colored, as displayed by a notebook front-end.
func (e *SyntaxError) Traceback() []string {
	return e.lines(true)
}

func (e *SyntaxError) lines(colored bool) []string {
	out := []string{fmt.Sprintf("  File %q, line %d", e.Filename, e.Line)}
	if e.Text != "" {
		text := strings.TrimRight(e.Text, " \t\r\n")
		stripped := strings.TrimLeft(text, " \t\f")
		col := e.Col - (len(text) - len(stripped))
		col = max(0, min(col, len(stripped)))
		caret := strings.Repeat(" ", 4+runewidth.StringWidth(stripped[:col])) + "^"
		if colored {
			caret = color.New(color.FgRed, color.Bold).Sprint(caret)
		}
		out = append(out, "    "+stripped, caret)
	}
	last := fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	if colored {
		last = color.New(color.FgRed).Sprint(e.Kind) + ": " + e.Msg
	}
	return append(out, last)
}

// bailout is used by the tokenizer and parser to unwind on the first error.
type bailout struct {
	err *SyntaxError
}

func newSyntaxError(kind, filename string, li *lineIndex, pos Pos, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Kind:     kind,
		Msg:      fmt.Sprintf(format, args...),
		Filename: filename,
		Line:     pos.Line,
		Col:      pos.Col,
		Text:     li.lineText(pos.Line),
	}
}
