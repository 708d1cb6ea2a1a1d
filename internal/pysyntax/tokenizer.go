package pysyntax

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize splits Python source into tokens, including the NEWLINE, INDENT and
// DEDENT tokens that delimit logical lines and blocks. Comments and blank lines
// produce no tokens.
//
// It returns a *SyntaxError for unterminated strings, unbalanced brackets and
// inconsistent dedents.
func Tokenize(filename, src string) (toks []Token, err error) {
	defer recoverSyntaxError(&err)
	t := newTokenizer(filename, src, newLineIndex(src), 0, len(src), false)
	return t.run(), nil
}

func recoverSyntaxError(err *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*err = b.err
	}
}

type paren struct {
	ch  byte
	pos Pos
}

var closingFor = map[byte]byte{'(': ')', '[': ']', '{': '}'}

type tokenizer struct {
	filename string
	src      string
	li       *lineIndex
	off, end int

	// exprMode tokenizes the expression of an f-string replacement field:
	// there is no indentation and line breaks are insignificant.
	exprMode bool

	indents     []int
	parens      []paren
	atLineStart bool
	toks        []Token
}

func newTokenizer(filename, src string, li *lineIndex, start, end int, exprMode bool) *tokenizer {
	return &tokenizer{
		filename:    filename,
		src:         src,
		li:          li,
		off:         start,
		end:         end,
		exprMode:    exprMode,
		indents:     []int{0},
		atLineStart: !exprMode,
	}
}

func (t *tokenizer) errorf(offset int, format string, args ...any) {
	panic(bailout{newSyntaxError(KindSyntaxError, t.filename, t.li, t.li.pos(offset), format, args...)})
}

func (t *tokenizer) emit(kind Kind, start, end int) {
	t.toks = append(t.toks, Token{
		Kind:  kind,
		Text:  t.src[start:end],
		Start: t.li.pos(start),
		End:   t.li.pos(end),
	})
}

func (t *tokenizer) run() []Token {
	for {
		if t.atLineStart && !t.indentation() {
			continue
		}
		t.skipSpaces()
		if t.off >= t.end {
			t.finish()
			return t.toks
		}
		c := t.src[t.off]
		switch {
		case c == '#':
			for t.off < t.end && t.src[t.off] != '\n' {
				t.off++
			}
		case c == '\n':
			start := t.off
			t.off++
			if len(t.parens) == 0 && !t.exprMode {
				t.emit(NEWLINE, start, t.off)
				t.atLineStart = true
			}
		case c == '\\':
			next := t.off + 1
			if next < t.end && t.src[next] == '\r' {
				next++
			}
			if next >= t.end {
				t.errorf(t.off, "unexpected EOF while parsing")
			}
			if t.src[next] != '\n' {
				t.errorf(t.off+1, "unexpected character after line continuation character")
			}
			t.off = next + 1
		case isDigit(c) || (c == '.' && t.off+1 < t.end && isDigit(t.src[t.off+1])):
			t.number()
		case c == '"' || c == '\'':
			t.str(t.off)
		default:
			r, _ := utf8.DecodeRuneInString(t.src[t.off:t.end])
			if isIdentStart(r) {
				t.name()
			} else {
				t.operator()
			}
		}
	}
}

func (t *tokenizer) skipSpaces() {
	for t.off < t.end {
		switch t.src[t.off] {
		case ' ', '\t', '\f', '\r':
			t.off++
		default:
			return
		}
	}
}

// indentation measures the indentation of a new line and emits INDENT and
// DEDENT tokens as needed. It returns false if the line was blank (or only a
// comment) and has been consumed.
func (t *tokenizer) indentation() bool {
	col := 0
	ii := t.off
	measuring := true
	for measuring && ii < t.end {
		switch t.src[ii] {
		case ' ':
			col++
		case '\t':
			col = (col/8 + 1) * 8
		case '\f':
			col = 0
		case '\r':
		default:
			measuring = false
			continue
		}
		ii++
	}
	if ii >= t.end {
		t.off = ii
		t.atLineStart = false
		return true
	}
	switch t.src[ii] {
	case '#':
		for ii < t.end && t.src[ii] != '\n' {
			ii++
		}
		t.off = min(ii+1, t.end)
		return false
	case '\n':
		t.off = ii + 1
		return false
	}

	t.atLineStart = false
	t.off = ii
	top := t.indents[len(t.indents)-1]
	if col > top {
		t.indents = append(t.indents, col)
		t.emit(INDENT, ii, ii)
		return true
	}
	for col < top {
		t.indents = t.indents[:len(t.indents)-1]
		top = t.indents[len(t.indents)-1]
		t.emit(DEDENT, ii, ii)
	}
	if col != top {
		panic(bailout{newSyntaxError(KindIndentationError, t.filename, t.li, t.li.pos(ii),
			"unindent does not match any outer indentation level")})
	}
	return true
}

func (t *tokenizer) finish() {
	if n := len(t.parens); n > 0 {
		p := t.parens[n-1]
		t.errorf(p.pos.Offset, "'%c' was never closed", p.ch)
	}
	if !t.exprMode {
		if n := len(t.toks); n > 0 && t.toks[n-1].Kind != NEWLINE && t.toks[n-1].Kind != DEDENT {
			t.emit(NEWLINE, t.end, t.end)
		}
		for len(t.indents) > 1 {
			t.indents = t.indents[:len(t.indents)-1]
			t.emit(DEDENT, t.end, t.end)
		}
	}
	t.emit(EOF, t.end, t.end)
}

func (t *tokenizer) name() {
	start := t.off
	for t.off < t.end {
		r, size := utf8.DecodeRuneInString(t.src[t.off:t.end])
		if !isIdentContinue(r) {
			break
		}
		t.off += size
	}
	if t.off < t.end && (t.src[t.off] == '"' || t.src[t.off] == '\'') && isStringPrefix(t.src[start:t.off]) {
		t.str(start)
		return
	}
	t.emit(NAME, start, t.off)
}

// str scans a string literal: start points to its prefix (if any) and t.off to
// the opening quote.
func (t *tokenizer) str(start int) {
	fstring := strings.ContainsAny(t.src[start:t.off], "fF")
	end, badOffset := stringEnd(t.src, t.off, t.end, fstring)
	if end < 0 {
		line := t.li.pos(badOffset).Line
		if t.off+2 < t.end && t.src[t.off+1] == t.src[t.off] && t.src[t.off+2] == t.src[t.off] {
			t.errorf(start, "unterminated triple-quoted string literal (detected at line %d)", line)
		}
		t.errorf(start, "unterminated string literal (detected at line %d)", line)
	}
	t.off = end
	t.emit(STRING, start, end)
}

// stringEnd scans the string literal of src[:end] whose opening quote is at
// quote, and returns the offset after it. If the literal is not terminated it
// returns -1 and the offset where that was detected.
//
// The replacement fields of f-strings may hold any expression, including
// strings delimited by the same quotes, as in f"{point["x"]}".
func stringEnd(src string, quote, end int, fstring bool) (int, int) {
	q := src[quote]
	triple := quote+2 < end && src[quote+1] == q && src[quote+2] == q
	ii := quote + 1
	if triple {
		ii = quote + 3
	}
	depth := 0 // Of brackets, inside a replacement field.
	for ii < end {
		c := src[ii]
		if depth > 0 {
			switch c {
			case '"', '\'':
				closing, bad := stringEnd(src, ii, end, isFStringQuote(src, ii))
				if closing < 0 {
					return -1, bad
				}
				ii = closing
				continue
			case '{', '(', '[':
				depth++
			case '}', ')', ']':
				depth--
			}
			ii++
			continue
		}
		switch {
		case c == '\\':
			ii += 2
			continue
		case c == '\n' && !triple:
			return -1, ii
		case c == q:
			if !triple {
				return ii + 1, 0
			}
			if ii+2 < end && src[ii+1] == q && src[ii+2] == q {
				return ii + 3, 0
			}
		case fstring && c == '{':
			if ii+1 < end && src[ii+1] == '{' {
				ii += 2
				continue
			}
			depth = 1
		}
		ii++
	}
	return -1, max(end-1, 0)
}

// isFStringQuote returns whether the quote at offset quote of src opens an
// f-string, judging by the prefix before it.
func isFStringQuote(src string, quote int) bool {
	start := quote
	for start > 0 && quote-start < 2 && isASCIILetter(src[start-1]) {
		start--
	}
	if start > 0 && (isASCIILetter(src[start-1]) || isDigit(src[start-1]) || src[start-1] == '_') {
		return false
	}
	prefix := src[start:quote]
	return isStringPrefix(prefix) && strings.ContainsAny(prefix, "fF")
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (t *tokenizer) number() {
	start := t.off
	s := t.src
	if s[t.off] == '0' && t.off+1 < t.end && strings.IndexByte("xXoObB", s[t.off+1]) >= 0 {
		t.off += 2
		for t.off < t.end && (isHexDigit(s[t.off]) || s[t.off] == '_') {
			t.off++
		}
	} else {
		t.digits()
		if t.off < t.end && s[t.off] == '.' {
			t.off++
			t.digits()
		}
		if t.off < t.end && (s[t.off] == 'e' || s[t.off] == 'E') {
			ii := t.off + 1
			if ii < t.end && (s[ii] == '+' || s[ii] == '-') {
				ii++
			}
			if ii < t.end && isDigit(s[ii]) {
				t.off = ii
				t.digits()
			}
		}
		if t.off < t.end && (s[t.off] == 'j' || s[t.off] == 'J') {
			t.off++
		}
	}
	t.emit(NUMBER, start, t.off)
}

func (t *tokenizer) digits() {
	for t.off < t.end && (isDigit(t.src[t.off]) || t.src[t.off] == '_') {
		t.off++
	}
}

var (
	operators3 = []string{"**=", "//=", ">>=", "<<=", "..."}
	operators2 = []string{
		"**", "//", ">>", "<<", "<=", ">=", "==", "!=", "->", ":=",
		"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	}
	operators1 = "()[]{},:;.+-*/%&|^~<>=@"
)

func (t *tokenizer) operator() {
	start := t.off
	rest := t.src[t.off:t.end]
	op := ""
	for _, candidates := range [][]string{operators3, operators2} {
		for _, candidate := range candidates {
			if strings.HasPrefix(rest, candidate) {
				op = candidate
				break
			}
		}
		if op != "" {
			break
		}
	}
	if op == "" && strings.IndexByte(operators1, rest[0]) >= 0 {
		op = rest[:1]
	}
	if op == "" {
		r, _ := utf8.DecodeRuneInString(rest)
		if r >= utf8.RuneSelf {
			t.errorf(start, "invalid character '%c' (U+%04X)", r, r)
		}
		t.errorf(start, "invalid syntax")
	}
	t.off += len(op)

	pos := t.li.pos(start)
	switch op {
	case "(", "[", "{":
		t.parens = append(t.parens, paren{ch: op[0], pos: pos})
	case ")", "]", "}":
		n := len(t.parens)
		if n == 0 {
			t.errorf(start, "unmatched '%s'", op)
		}
		open := t.parens[n-1]
		if closingFor[open.ch] != op[0] {
			if open.pos.Line != pos.Line {
				t.errorf(start, "closing parenthesis '%s' does not match opening parenthesis '%c' on line %d",
					op, open.ch, open.pos.Line)
			}
			t.errorf(start, "closing parenthesis '%s' does not match opening parenthesis '%c'", op, open.ch)
		}
		t.parens = t.parens[:n-1]
	}
	t.emit(OP, start, t.off)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	return r == '_' || unicode.IsLetter(r) || unicode.In(r, unicode.Nl, unicode.Other_ID_Start)
}

func isIdentContinue(r rune) bool {
	return isIdentStart(r) || unicode.In(r, unicode.Nd, unicode.Mn, unicode.Mc, unicode.Pc, unicode.Other_ID_Continue)
}

func isStringPrefix(prefix string) bool {
	switch strings.ToLower(prefix) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}
