package pysyntax

import "strings"

// stringPrefix returns the prefix letters (r, b, f, u) of a string token.
func stringPrefix(text string) string {
	if idx := strings.IndexAny(text, `'"`); idx >= 0 {
		return text[:idx]
	}
	return ""
}

// parseStrings parses a sequence of adjacent string literals. If any of them
// is an f-string the result is a JoinedStr, otherwise a single Constant.
func (p *parser) parseStrings() Expr {
	first := p.tok()
	var toks []Token
	for p.tok().Kind == STRING {
		toks = append(toks, p.next())
	}
	last := toks[len(toks)-1]
	span := Span{From: first.Start, To: last.End}

	hasF, hasBytes, hasText := false, false, false
	for _, t := range toks {
		prefix := strings.ToLower(stringPrefix(t.Text))
		if strings.Contains(prefix, "b") {
			hasBytes = true
		} else {
			hasText = true
		}
		if strings.Contains(prefix, "f") {
			hasF = true
		}
	}
	if hasBytes && hasText {
		p.errorf(first.Start, "cannot mix bytes and nonbytes literals")
	}
	if !hasF {
		kind := StringConst
		if hasBytes {
			kind = BytesConst
		}
		return &Constant{Span: span, Kind: kind, Value: p.src[first.Start.Offset:last.End.Offset]}
	}

	joined := &JoinedStr{Span: span}
	for _, t := range toks {
		if !strings.ContainsAny(stringPrefix(t.Text), "fF") {
			joined.Values = append(joined.Values, &Constant{Span: tokenSpan(t), Kind: StringConst, Value: t.Text})
			continue
		}
		joined.Values = append(joined.Values, p.parseFString(t)...)
	}
	return joined
}

// parseFString splits an f-string token into its literal parts and its
// replacement fields. Field expressions are parsed in place, so their
// positions refer to the original source.
func (p *parser) parseFString(t Token) []Expr {
	prefix := stringPrefix(t.Text)
	raw := strings.ContainsAny(prefix, "rR")
	body := t.Text[len(prefix):]
	quoteLen := 1
	if len(body) >= 6 && (strings.HasPrefix(body, `"""`) || strings.HasPrefix(body, `'''`)) {
		quoteLen = 3
	}
	start := t.Start.Offset + len(prefix) + quoteLen
	end := t.End.Offset - quoteLen
	parts, _ := p.parseFStringParts(start, end, raw, false)
	return parts
}

// parseFStringParts parses src[start:end]. Inside a format spec (inSpec) it
// stops at the first unmatched '}' and returns its offset.
func (p *parser) parseFStringParts(start, end int, raw, inSpec bool) ([]Expr, int) {
	var parts []Expr
	ii, litStart := start, start
	flush := func(to int) {
		if to > litStart {
			parts = append(parts, &Constant{
				Span:  Span{From: p.li.pos(litStart), To: p.li.pos(to)},
				Kind:  StringConst,
				Value: p.src[litStart:to],
			})
		}
	}
	for ii < end {
		c := p.src[ii]
		switch {
		case c == '\\' && !raw:
			if ii+2 < end && p.src[ii+1] == 'N' && p.src[ii+2] == '{' {
				if closer := strings.IndexByte(p.src[ii:end], '}'); closer >= 0 {
					ii += closer + 1
					continue
				}
			}
			ii += 2
		case c == '{':
			if !inSpec && ii+1 < end && p.src[ii+1] == '{' {
				ii += 2
				continue
			}
			flush(ii)
			var field *FormattedValue
			field, ii = p.parseFStringField(ii, end, raw)
			parts = append(parts, field)
			litStart = ii
		case c == '}':
			if inSpec {
				flush(ii)
				return parts, ii
			}
			if ii+1 < end && p.src[ii+1] == '}' {
				ii += 2
				continue
			}
			p.errorf(p.li.pos(ii), "f-string: single '}' is not allowed")
		default:
			ii++
		}
	}
	if inSpec {
		p.errorf(p.li.pos(end), "f-string: expecting '}'")
	}
	flush(end)
	return parts, end
}

// parseFStringField parses the replacement field starting at the '{' in
// offset open. It returns the field and the offset after its closing '}'.
func (p *parser) parseFStringField(open, end int, raw bool) (*FormattedValue, int) {
	ii := open + 1
	depth := 0
	exprEnd := -1
	for ii < end && exprEnd < 0 {
		c := p.src[ii]
		switch c {
		case '\'', '"':
			ii = p.skipQuoted(ii, end)
			continue
		case '(', '[', '{':
			depth++
		case ')', ']':
			depth--
		case '}':
			if depth == 0 {
				exprEnd = ii
				continue
			}
			depth--
		case '!':
			if ii+1 < end && p.src[ii+1] == '=' {
				ii += 2
				continue
			}
			if depth == 0 {
				exprEnd = ii
				continue
			}
		case '<', '>', '=':
			if ii+1 < end && p.src[ii+1] == '=' {
				ii += 2
				continue
			}
			if c == '=' && depth == 0 {
				exprEnd = ii
				continue
			}
		case ':':
			if depth == 0 {
				exprEnd = ii
				continue
			}
		case '#':
			p.errorf(p.li.pos(ii), "f-string expression part cannot include '#'")
		}
		ii++
	}
	if exprEnd < 0 {
		p.errorf(p.li.pos(open), "f-string: expecting '}'")
	}
	if strings.TrimSpace(p.src[open+1:exprEnd]) == "" {
		p.errorf(p.li.pos(exprEnd), "f-string: valid expression required before '%c'", p.src[exprEnd])
	}
	field := &FormattedValue{Value: p.parseSubExpr(open+1, exprEnd)}

	ii = exprEnd
	if p.src[ii] == '=' {
		ii++
		for ii < end && (p.src[ii] == ' ' || p.src[ii] == '\t') {
			ii++
		}
	}
	if ii < end && p.src[ii] == '!' {
		if ii+1 >= end || !strings.ContainsRune("sra", rune(p.src[ii+1])) {
			p.errorf(p.li.pos(ii+1), "f-string: invalid conversion character: expected 's', 'r', or 'a'")
		}
		field.Conversion = rune(p.src[ii+1])
		ii += 2
	}
	if ii < end && p.src[ii] == ':' {
		specStart := ii + 1
		var parts []Expr
		parts, ii = p.parseFStringParts(specStart, end, raw, true)
		field.FormatSpec = &JoinedStr{Span: Span{From: p.li.pos(specStart), To: p.li.pos(ii)}, Values: parts}
	}
	if ii >= end || p.src[ii] != '}' {
		p.errorf(p.li.pos(min(ii, end)), "f-string: expecting '}'")
	}
	ii++
	field.Span = Span{From: p.li.pos(open), To: p.li.pos(ii)}
	return field, ii
}

// skipQuoted skips a string literal nested in a replacement field and returns
// the offset after it.
func (p *parser) skipQuoted(start, end int) int {
	closing, _ := stringEnd(p.src, start, end, isFStringQuote(p.src, start))
	if closing < 0 {
		p.errorf(p.li.pos(start), "f-string: unterminated string")
	}
	return closing
}

// parseSubExpr parses the expression of a replacement field, src[start:end].
func (p *parser) parseSubExpr(start, end int) Expr {
	sub := &parser{
		filename: p.filename,
		src:      p.src,
		li:       p.li,
		toks:     newTokenizer(p.filename, p.src, p.li, start, end, true).run(),
	}
	var e Expr
	if sub.isKeyword("yield") {
		e = sub.parseYield()
	} else {
		e = sub.parseStarExprs()
	}
	if sub.tok().Kind != EOF {
		sub.errorf(sub.tok().Start, "f-string: invalid syntax")
	}
	return e
}
