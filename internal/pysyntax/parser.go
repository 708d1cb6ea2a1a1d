package pysyntax

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Parse parses the source of a whole Python file. Any error returned is a
// *SyntaxError.
//
// The statement and expression grammar of Python 3.12 is supported, including
// the soft keywords `match`, `case` and `type`.
func Parse(filename, src string) (mod *Module, err error) {
	defer recoverSyntaxError(&err)
	li := newLineIndex(src)
	p := &parser{
		filename: filename,
		src:      src,
		li:       li,
		toks:     newTokenizer(filename, src, li, 0, len(src), false).run(),
	}
	parsed := p.parseFile()
	return parsed, nil
}

// ParseExpr parses a single expression (or an unparenthesized tuple).
func ParseExpr(filename, src string) (expr Expr, err error) {
	defer recoverSyntaxError(&err)
	li := newLineIndex(src)
	p := &parser{
		filename: filename,
		src:      src,
		li:       li,
		toks:     newTokenizer(filename, src, li, 0, len(src), true).run(),
	}
	parsed := p.parseStarExprs()
	if p.tok().Kind != EOF {
		p.syntaxError(p.tok())
	}
	return parsed, nil
}

var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true, "assert": true,
	"async": true, "await": true, "break": true, "class": true, "continue": true,
	"def": true, "del": true, "elif": true, "else": true, "except": true,
	"finally": true, "for": true, "from": true, "global": true, "if": true,
	"import": true, "in": true, "is": true, "lambda": true, "nonlocal": true,
	"not": true, "or": true, "pass": true, "raise": true, "return": true,
	"try": true, "while": true, "with": true, "yield": true,
}

// IsKeyword returns whether name is a reserved Python keyword.
func IsKeyword(name string) bool {
	return keywords[name]
}

type parser struct {
	filename string
	src      string
	li       *lineIndex
	toks     []Token
	p        int
}

func (p *parser) tok() Token {
	return p.toks[p.p]
}

func (p *parser) peek(n int) Token {
	if p.p+n < len(p.toks) {
		return p.toks[p.p+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() Token {
	t := p.toks[p.p]
	if t.Kind != EOF {
		p.p++
	}
	return t
}

func (p *parser) isOp(op string) bool {
	t := p.tok()
	return t.Kind == OP && t.Text == op
}

func (p *parser) isKeyword(kw string) bool {
	t := p.tok()
	return t.Kind == NAME && t.Text == kw
}

func (p *parser) acceptOp(op string) bool {
	if p.isOp(op) {
		p.next()
		return true
	}
	return false
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectOp(op string) Token {
	if !p.isOp(op) {
		if op == ":" {
			p.errorf(p.tok().Start, "expected ':'")
		}
		p.syntaxError(p.tok())
	}
	return p.next()
}

func (p *parser) expectKeyword(kw string) Token {
	if !p.isKeyword(kw) {
		p.syntaxError(p.tok())
	}
	return p.next()
}

func (p *parser) errorf(pos Pos, format string, args ...any) {
	panic(bailout{newSyntaxError(KindSyntaxError, p.filename, p.li, pos, format, args...)})
}

func (p *parser) indentationErrorf(pos Pos, format string, args ...any) {
	panic(bailout{newSyntaxError(KindIndentationError, p.filename, p.li, pos, format, args...)})
}

func (p *parser) syntaxError(t Token) {
	if t.Kind == INDENT {
		p.indentationErrorf(t.Start, "unexpected indent")
	}
	p.errorf(t.Start, "invalid syntax")
}

// lastEnd returns the end of the last consumed token that carries text.
func (p *parser) lastEnd() Pos {
	for ii := p.p - 1; ii >= 0; ii-- {
		switch p.toks[ii].Kind {
		case NEWLINE, INDENT, DEDENT:
			continue
		}
		return p.toks[ii].End
	}
	return p.li.pos(0)
}

func (p *parser) span(from Pos) Span {
	return Span{From: from, To: p.lastEnd()}
}

// try runs f and reports whether it succeeded. On a syntax error the parser
// is rewound to where it was.
func (p *parser) try(f func()) (ok bool) {
	saved := p.p
	defer func() {
		if r := recover(); r != nil {
			if _, isBailout := r.(bailout); !isBailout {
				panic(r)
			}
			p.p = saved
			ok = false
		}
	}()
	f()
	return true
}

func (p *parser) parseName() (string, Pos) {
	t := p.tok()
	if t.Kind != NAME || keywords[t.Text] {
		p.syntaxError(t)
	}
	p.next()
	return normalizeIdentifier(t.Text), t.Start
}

// normalizeIdentifier applies NFKC normalization to non-ASCII identifiers, so
// that "ﬁll" and "fill" name the same thing, as in Python.
func normalizeIdentifier(name string) string {
	for ii := 0; ii < len(name); ii++ {
		if name[ii] >= utf8.RuneSelf {
			return norm.NFKC.String(name)
		}
	}
	return name
}

// canStartExpr returns whether the current token can start an expression.
func (p *parser) canStartExpr() bool {
	t := p.tok()
	switch t.Kind {
	case NAME:
		switch t.Text {
		case "None", "True", "False", "not", "lambda", "await":
			return true
		}
		return !keywords[t.Text]
	case NUMBER, STRING:
		return true
	case OP:
		switch t.Text {
		case "(", "[", "{", "-", "+", "~", "*", "...":
			return true
		}
	}
	return false
}

func (p *parser) setContext(e Expr, ctx Ctx) {
	switch e := e.(type) {
	case *Name:
		e.Ctx = ctx
	case *Attribute:
		e.Ctx = ctx
	case *Subscript:
		e.Ctx = ctx
	case *Starred:
		if ctx == Del {
			p.errorf(e.Pos(), "cannot delete starred")
		}
		e.Ctx = ctx
		p.setContext(e.Value, ctx)
	case *Tuple:
		e.Ctx = ctx
		for _, elt := range e.Elts {
			p.setContext(elt, ctx)
		}
	case *List:
		e.Ctx = ctx
		for _, elt := range e.Elts {
			p.setContext(elt, ctx)
		}
	default:
		verb := "assign to"
		if ctx == Del {
			verb = "delete"
		}
		p.errorf(e.Pos(), "cannot %s %s", verb, describeExpr(e))
	}
}

// describeExpr names an expression the way Python error messages do.
func describeExpr(e Expr) string {
	switch e := e.(type) {
	case *Call:
		return "function call"
	case *Constant:
		switch e.Kind {
		case NoneConst, TrueConst, FalseConst:
			return e.Value
		case EllipsisConst:
			return "ellipsis"
		}
		return "literal"
	case *JoinedStr:
		return "f-string expression"
	case *Compare:
		return "comparison"
	case *IfExp:
		return "conditional expression"
	case *Lambda:
		return "lambda"
	case *NamedExpr:
		return "named expression"
	case *Set:
		return "set display"
	case *Dict:
		return "dict literal"
	case *ListComp:
		return "list comprehension"
	case *SetComp:
		return "set comprehension"
	case *DictComp:
		return "dict comprehension"
	case *GeneratorExp:
		return "generator expression"
	case *Await:
		return "await expression"
	case *Yield, *YieldFrom:
		return "yield expression"
	case *Name:
		return fmt.Sprintf("name %q", e.Id)
	}
	return "expression"
}
