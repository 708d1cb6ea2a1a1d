package pysyntax

// parseMatch parses a match statement. `match` is a soft keyword: if the
// statement is not a match statement the parser is left unchanged and nil is
// returned.
func (p *parser) parseMatch() *Match {
	t := p.tok()
	stmt := &Match{}
	isMatch := p.try(func() {
		p.next()
		stmt.Subject = p.parseSubject()
		p.expectOp(":")
		if p.tok().Kind != NEWLINE {
			p.syntaxError(p.tok())
		}
		p.next()
		if next := p.peek(1); p.tok().Kind != INDENT || next.Kind != NAME || next.Text != "case" {
			p.syntaxError(p.tok())
		}
	})
	if !isMatch {
		return nil
	}
	p.next()
	for p.isKeyword("case") {
		stmt.Cases = append(stmt.Cases, p.parseCase())
	}
	switch p.tok().Kind {
	case DEDENT:
		p.next()
	case EOF:
	default:
		p.syntaxError(p.tok())
	}
	stmt.Span = p.span(t.Start)
	return stmt
}

func (p *parser) parseSubject() Expr {
	start := p.tok().Start
	first := p.parseNamedOrStar()
	if !p.isOp(",") {
		if _, ok := first.(*Starred); ok {
			p.errorf(first.Pos(), "can't use starred expression here")
		}
		return first
	}
	elts := []Expr{first}
	for p.acceptOp(",") {
		if p.isOp(":") {
			break
		}
		elts = append(elts, p.parseNamedOrStar())
	}
	return &Tuple{Span: p.span(start), Elts: elts}
}

func (p *parser) parseCase() *MatchCase {
	t := p.next()
	c := &MatchCase{Pattern: p.parseOpenSequencePattern()}
	if p.acceptKeyword("if") {
		c.Guard = p.parseNamedExpr()
	}
	c.Body = p.parseBlock("'case' statement", t.Start.Line)
	c.Span = p.span(t.Start)
	return c
}

// parseOpenSequencePattern parses the patterns of a case: a comma separated
// list without brackets is a sequence pattern.
func (p *parser) parseOpenSequencePattern() Pattern {
	start := p.tok().Start
	first := p.parseMaybeStarPattern()
	if !p.isOp(",") {
		if _, ok := first.(*MatchStar); ok {
			p.errorf(first.Pos(), "can't use starred expression here")
		}
		return first
	}
	patterns := []Pattern{first}
	for p.acceptOp(",") {
		if p.isOp(":") || p.isKeyword("if") {
			break
		}
		patterns = append(patterns, p.parseMaybeStarPattern())
	}
	return &MatchSequence{Span: p.span(start), Patterns: patterns}
}

func (p *parser) parseMaybeStarPattern() Pattern {
	if !p.isOp("*") {
		return p.parsePattern()
	}
	t := p.next()
	star := &MatchStar{}
	if target := p.parseCaptureTarget(); target.Id != "_" {
		star.Name = target
	}
	star.Span = p.span(t.Start)
	return star
}

// parseCaptureTarget parses a name bound by a pattern.
func (p *parser) parseCaptureTarget() *Name {
	t := p.tok()
	id, _ := p.parseName()
	return &Name{Span: tokenSpan(t), Id: id, Ctx: Store}
}

func (p *parser) parsePattern() Pattern {
	start := p.tok().Start
	pattern := p.parseOrPattern()
	if !p.isKeyword("as") {
		return pattern
	}
	p.next()
	target := p.parseCaptureTarget()
	if target.Id == "_" {
		p.errorf(target.Pos(), "cannot use '_' as a target")
	}
	return &MatchAs{Span: p.span(start), Pattern: pattern, Name: target}
}

func (p *parser) parseOrPattern() Pattern {
	start := p.tok().Start
	pattern := p.parseClosedPattern()
	if !p.isOp("|") {
		return pattern
	}
	patterns := []Pattern{pattern}
	for p.acceptOp("|") {
		patterns = append(patterns, p.parseClosedPattern())
	}
	return &MatchOr{Span: p.span(start), Patterns: patterns}
}

func (p *parser) parseClosedPattern() Pattern {
	t := p.tok()
	switch t.Kind {
	case NUMBER, STRING:
		value := p.parseLiteralPattern()
		return &MatchValue{Span: p.span(t.Start), Value: value}
	case OP:
		switch t.Text {
		case "-":
			value := p.parseLiteralPattern()
			return &MatchValue{Span: p.span(t.Start), Value: value}
		case "(", "[":
			return p.parseSequencePattern()
		case "{":
			return p.parseMappingPattern()
		}
	case NAME:
		if singleton := singletonConstant(t); singleton != nil {
			p.next()
			return &MatchSingleton{Span: tokenSpan(t), Value: singleton}
		}
		value := p.parseNameOrAttr()
		if p.isOp("(") {
			return p.parseClassPattern(value)
		}
		name, ok := value.(*Name)
		if !ok {
			return &MatchValue{Span: p.span(t.Start), Value: value}
		}
		if name.Id == "_" {
			return &MatchAs{Span: name.Span}
		}
		name.Ctx = Store
		return &MatchAs{Span: name.Span, Name: name}
	}
	p.syntaxError(t)
	return nil
}

// singletonConstant returns the constant for a None, True or False token,
// or nil.
func singletonConstant(t Token) *Constant {
	var kind ConstKind
	switch t.Text {
	case "None":
		kind = NoneConst
	case "True":
		kind = TrueConst
	case "False":
		kind = FalseConst
	default:
		return nil
	}
	return &Constant{Span: tokenSpan(t), Kind: kind, Value: t.Text}
}

// parseLiteralPattern parses a string, or a signed number optionally
// followed by an imaginary part, as in `-1 + 2j`.
func (p *parser) parseLiteralPattern() Expr {
	if p.tok().Kind == STRING {
		e := p.parseStrings()
		if _, ok := e.(*JoinedStr); ok {
			p.errorf(e.Pos(), "patterns may only match literals and attribute lookups")
		}
		return e
	}
	start := p.tok().Start
	var e Expr
	if p.isOp("-") {
		p.next()
		number := p.parseNumber()
		e = &UnaryOp{Span: p.span(start), Op: "-", Operand: number}
	} else {
		e = p.parseNumber()
	}
	if p.isOp("+") || p.isOp("-") {
		op := p.next()
		imaginary := p.parseNumber()
		e = &BinOp{Span: p.span(start), Left: e, Op: op.Text, Right: imaginary}
	}
	return e
}

func (p *parser) parseNumber() *Constant {
	t := p.tok()
	if t.Kind != NUMBER {
		p.syntaxError(t)
	}
	p.next()
	return &Constant{Span: tokenSpan(t), Kind: NumberConst, Value: t.Text}
}

// parseNameOrAttr parses a name or a dotted name.
func (p *parser) parseNameOrAttr() Expr {
	t := p.tok()
	id, _ := p.parseName()
	var e Expr = &Name{Span: tokenSpan(t), Id: id, Ctx: Load}
	for p.acceptOp(".") {
		attr, _ := p.parseName()
		e = &Attribute{Span: Span{From: t.Start, To: p.lastEnd()}, Value: e, Attr: attr}
	}
	return e
}

// parseSequencePattern parses a bracketed sequence pattern, or a
// parenthesized group pattern.
func (p *parser) parseSequencePattern() Pattern {
	open := p.next()
	closer := "]"
	if open.Text == "(" {
		closer = ")"
	}
	var patterns []Pattern
	trailingComma := false
	for !p.isOp(closer) {
		patterns = append(patterns, p.parseMaybeStarPattern())
		trailingComma = p.acceptOp(",")
		if !trailingComma {
			break
		}
	}
	p.expectOp(closer)
	if open.Text == "(" && len(patterns) == 1 && !trailingComma {
		if _, ok := patterns[0].(*MatchStar); !ok {
			return patterns[0]
		}
	}
	return &MatchSequence{Span: p.span(open.Start), Patterns: patterns}
}

func (p *parser) parseMappingPattern() Pattern {
	open := p.next()
	mapping := &MatchMapping{}
	for !p.isOp("}") {
		if p.acceptOp("**") {
			rest := p.parseCaptureTarget()
			if rest.Id == "_" {
				p.syntaxError(p.toks[p.p-1])
			}
			mapping.Rest = rest
			p.acceptOp(",")
			break
		}
		mapping.Keys = append(mapping.Keys, p.parseMappingKey())
		p.expectOp(":")
		mapping.Patterns = append(mapping.Patterns, p.parsePattern())
		if !p.acceptOp(",") {
			break
		}
	}
	p.expectOp("}")
	mapping.Span = p.span(open.Start)
	return mapping
}

func (p *parser) parseMappingKey() Expr {
	t := p.tok()
	if t.Kind != NAME {
		return p.parseLiteralPattern()
	}
	if singleton := singletonConstant(t); singleton != nil {
		p.next()
		return singleton
	}
	key := p.parseNameOrAttr()
	if _, ok := key.(*Attribute); !ok {
		p.errorf(key.Pos(), "mapping pattern keys may only match literals and attribute lookups")
	}
	return key
}

func (p *parser) parseClassPattern(cls Expr) Pattern {
	p.expectOp("(")
	classPattern := &MatchClass{Cls: cls}
	for !p.isOp(")") {
		if next := p.peek(1); p.tok().Kind == NAME && !keywords[p.tok().Text] && next.Kind == OP && next.Text == "=" {
			attr, _ := p.parseName()
			p.next()
			classPattern.KwdAttrs = append(classPattern.KwdAttrs, attr)
			classPattern.KwdPatterns = append(classPattern.KwdPatterns, p.parsePattern())
		} else {
			if len(classPattern.KwdAttrs) > 0 {
				p.errorf(p.tok().Start, "positional patterns follow keyword patterns")
			}
			classPattern.Patterns = append(classPattern.Patterns, p.parsePattern())
		}
		if !p.acceptOp(",") {
			break
		}
	}
	closer := p.expectOp(")")
	classPattern.Span = Span{From: cls.Pos(), To: closer.End}
	return classPattern
}

// parseTypeParams parses the type parameters of a generic function, class or
// type alias, if any: `[T, *Ts, **P]`.
func (p *parser) parseTypeParams() []*TypeParam {
	if !p.isOp("[") {
		return nil
	}
	open := p.next()
	var params []*TypeParam
	for !p.isOp("]") {
		start := p.tok().Start
		param := &TypeParam{}
		switch {
		case p.acceptOp("*"):
			param.Kind = TypeVarTuple
		case p.acceptOp("**"):
			param.Kind = ParamSpec
		}
		param.Name, _ = p.parseName()
		if p.isOp(":") {
			if param.Kind != TypeVar {
				p.errorf(p.tok().Start, "invalid syntax")
			}
			p.next()
			param.Bound = p.parseTest()
		}
		if p.acceptOp("=") {
			param.Default = p.parseTestOrStar()
		}
		param.Span = p.span(start)
		params = append(params, param)
		if !p.acceptOp(",") {
			break
		}
	}
	p.expectOp("]")
	if len(params) == 0 {
		p.errorf(open.Start, "Type parameter list cannot be empty")
	}
	return params
}

// parseTypeAlias parses a `type` statement. The caller has checked that the
// soft keyword `type` is followed by a name.
func (p *parser) parseTypeAlias() *TypeAlias {
	t := p.next()
	stmt := &TypeAlias{Name: p.parseCaptureTarget()}
	stmt.TypeParams = p.parseTypeParams()
	p.expectOp("=")
	stmt.Value = p.parseTest()
	stmt.Span = p.span(t.Start)
	return stmt
}
