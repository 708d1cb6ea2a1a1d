package pysyntax

import (
	"fmt"
	"sort"
)

// Kind of a Token.
type Kind int

const (
	EOF Kind = iota
	NEWLINE
	INDENT
	DEDENT
	NAME
	NUMBER
	STRING
	OP
)

var kindNames = [...]string{
	EOF:     "EOF",
	NEWLINE: "NEWLINE",
	INDENT:  "INDENT",
	DEDENT:  "DEDENT",
	NAME:    "NAME",
	NUMBER:  "NUMBER",
	STRING:  "STRING",
	OP:      "OP",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Pos is a position in the source: Offset is the byte offset, Line is 1-based
// and Col is the 0-based byte column, the same convention Python uses for
// `lineno` and `col_offset`.
type Pos struct {
	Offset, Line, Col int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// IsValid returns whether the position was set.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

// Token is one lexical token. INDENT, DEDENT and EOF tokens have empty Text.
type Token struct {
	Kind       Kind
	Text       string
	Start, End Pos
}

func (t Token) String() string {
	if t.Text == "" {
		return fmt.Sprintf("%s@%s", t.Kind, t.Start)
	}
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Text, t.Start)
}

// lineIndex converts byte offsets to positions.
type lineIndex struct {
	src    string
	starts []int
}

func newLineIndex(src string) *lineIndex {
	li := &lineIndex{src: src, starts: []int{0}}
	for ii := 0; ii < len(src); ii++ {
		if src[ii] == '\n' {
			li.starts = append(li.starts, ii+1)
		}
	}
	return li
}

func (li *lineIndex) pos(offset int) Pos {
	line := sort.Search(len(li.starts), func(ii int) bool { return li.starts[ii] > offset })
	return Pos{Offset: offset, Line: line, Col: offset - li.starts[line-1]}
}

// lineText returns the contents of the 1-based line, without its line break.
func (li *lineIndex) lineText(line int) string {
	if line < 1 || line > len(li.starts) {
		return ""
	}
	start := li.starts[line-1]
	end := len(li.src)
	if line < len(li.starts) {
		end = li.starts[line] - 1
	}
	if end < start {
		return ""
	}
	text := li.src[start:end]
	if n := len(text); n > 0 && text[n-1] == '\r' {
		text = text[:n-1]
	}
	return text
}

// numLines returns the number of lines, counting a trailing partial line.
func (li *lineIndex) numLines() int {
	n := len(li.starts)
	if n > 1 && li.starts[n-1] == len(li.src) {
		n--
	}
	return n
}
