package pysyntax

import "slices"

// parseStarExprs parses a comma separated list of expressions, possibly
// starred. More than one element (or a trailing comma) makes a Tuple.
func (p *parser) parseStarExprs() Expr {
	start := p.tok().Start
	first := p.parseTestOrStar()
	if !p.isOp(",") {
		return first
	}
	elts := []Expr{first}
	for p.acceptOp(",") {
		if !p.canStartExpr() {
			break
		}
		elts = append(elts, p.parseTestOrStar())
	}
	return &Tuple{Span: p.span(start), Elts: elts}
}

func (p *parser) parseTestOrStar() Expr {
	if p.isOp("*") {
		return p.parseStarOrBitOr()
	}
	return p.parseTest()
}

func (p *parser) parseNamedOrStar() Expr {
	if p.isOp("*") {
		return p.parseStarOrBitOr()
	}
	return p.parseNamedExpr()
}

func (p *parser) parseStarOrBitOr() Expr {
	if p.isOp("*") {
		t := p.next()
		value := p.parseBinary(0)
		return &Starred{Span: p.span(t.Start), Value: value}
	}
	return p.parseBinary(0)
}

// parseTargetList parses the targets of a `for` loop or comprehension.
func (p *parser) parseTargetList() Expr {
	start := p.tok().Start
	first := p.parseStarOrBitOr()
	if !p.isOp(",") {
		return first
	}
	elts := []Expr{first}
	for p.acceptOp(",") {
		if !p.canStartExpr() {
			break
		}
		elts = append(elts, p.parseStarOrBitOr())
	}
	return &Tuple{Span: p.span(start), Elts: elts}
}

func (p *parser) parseNamedExpr() Expr {
	start := p.tok().Start
	e := p.parseTest()
	if !p.isOp(":=") {
		return e
	}
	name, ok := e.(*Name)
	if !ok {
		p.errorf(e.Pos(), "cannot use assignment expressions with %s", describeExpr(e))
	}
	p.next()
	name.Ctx = Store
	value := p.parseTest()
	return &NamedExpr{Span: p.span(start), Target: name, Value: value}
}

func (p *parser) parseTest() Expr {
	if p.isKeyword("lambda") {
		return p.parseLambda()
	}
	start := p.tok().Start
	body := p.parseOr()
	if !p.acceptKeyword("if") {
		return body
	}
	test := p.parseOr()
	if !p.acceptKeyword("else") {
		p.errorf(p.tok().Start, "expected 'else' after 'if' expression")
	}
	orElse := p.parseTest()
	return &IfExp{Span: p.span(start), Test: test, Body: body, OrElse: orElse}
}

func (p *parser) parseLambda() Expr {
	t := p.next()
	args := p.parseParameters(":", false)
	p.expectOp(":")
	body := p.parseTest()
	return &Lambda{Span: p.span(t.Start), Args: args, Body: body}
}

func (p *parser) parseBoolOp(op string, operand func() Expr) Expr {
	start := p.tok().Start
	first := operand()
	if !p.isKeyword(op) {
		return first
	}
	values := []Expr{first}
	for p.acceptKeyword(op) {
		values = append(values, operand())
	}
	return &BoolOp{Span: p.span(start), Op: op, Values: values}
}

func (p *parser) parseOr() Expr {
	return p.parseBoolOp("or", p.parseAnd)
}

func (p *parser) parseAnd() Expr {
	return p.parseBoolOp("and", p.parseNot)
}

func (p *parser) parseNot() Expr {
	if p.isKeyword("not") {
		t := p.next()
		operand := p.parseNot()
		return &UnaryOp{Span: p.span(t.Start), Op: "not", Operand: operand}
	}
	return p.parseComparison()
}

// comparisonOp consumes and returns a comparison operator, or returns "".
func (p *parser) comparisonOp() string {
	t := p.tok()
	switch t.Kind {
	case OP:
		switch t.Text {
		case "<", ">", "==", ">=", "<=", "!=":
			p.next()
			return t.Text
		}
	case NAME:
		switch t.Text {
		case "in":
			p.next()
			return "in"
		case "not":
			if next := p.peek(1); next.Kind == NAME && next.Text == "in" {
				p.next()
				p.next()
				return "not in"
			}
		case "is":
			p.next()
			if p.acceptKeyword("not") {
				return "is not"
			}
			return "is"
		}
	}
	return ""
}

func (p *parser) parseComparison() Expr {
	start := p.tok().Start
	left := p.parseBinary(0)
	var ops []string
	var comparators []Expr
	for {
		op := p.comparisonOp()
		if op == "" {
			break
		}
		ops = append(ops, op)
		comparators = append(comparators, p.parseBinary(0))
	}
	if len(ops) == 0 {
		return left
	}
	return &Compare{Span: p.span(start), Left: left, Ops: ops, Comparators: comparators}
}

// binaryLevels lists the binary operators from the lowest to the highest
// precedence. All are left associative.
var binaryLevels = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "@", "/", "%", "//"},
}

func (p *parser) parseBinary(level int) Expr {
	if level == len(binaryLevels) {
		return p.parseFactor()
	}
	left := p.parseBinary(level + 1)
	for {
		t := p.tok()
		if t.Kind != OP || !slices.Contains(binaryLevels[level], t.Text) {
			return left
		}
		p.next()
		right := p.parseBinary(level + 1)
		left = &BinOp{Span: Span{From: left.Pos(), To: right.End()}, Left: left, Op: t.Text, Right: right}
	}
}

func (p *parser) parseFactor() Expr {
	t := p.tok()
	if t.Kind == OP && (t.Text == "+" || t.Text == "-" || t.Text == "~") {
		p.next()
		operand := p.parseFactor()
		return &UnaryOp{Span: Span{From: t.Start, To: operand.End()}, Op: t.Text, Operand: operand}
	}
	return p.parsePower()
}

func (p *parser) parsePower() Expr {
	var base Expr
	if p.isKeyword("await") {
		t := p.next()
		value := p.parsePrimary()
		base = &Await{Span: p.span(t.Start), Value: value}
	} else {
		base = p.parsePrimary()
	}
	if !p.acceptOp("**") {
		return base
	}
	exponent := p.parseFactor()
	return &BinOp{Span: Span{From: base.Pos(), To: exponent.End()}, Left: base, Op: "**", Right: exponent}
}

func (p *parser) parsePrimary() Expr {
	e := p.parseAtom()
	for {
		switch {
		case p.isOp("("):
			args, kws, closer := p.parseCallArgs()
			e = &Call{Span: Span{From: e.Pos(), To: closer.End}, Func: e, Args: args, Keywords: kws}
		case p.isOp("["):
			e = p.parseSubscript(e)
		case p.isOp("."):
			p.next()
			attr, _ := p.parseName()
			e = &Attribute{Span: Span{From: e.Pos(), To: p.lastEnd()}, Value: e, Attr: attr}
		default:
			return e
		}
	}
}

// parseCallArgs parses a parenthesized argument list, returning also the
// closing parenthesis.
func (p *parser) parseCallArgs() (args []Expr, kws []*Keyword, closer Token) {
	p.expectOp("(")
	seenKeyword, seenKwargs := false, false
	for !p.isOp(")") {
		start := p.tok().Start
		if p.acceptOp("*") {
			value := p.parseTest()
			if seenKwargs {
				p.errorf(start, "iterable argument unpacking follows keyword argument unpacking")
			}
			args = append(args, &Starred{Span: p.span(start), Value: value})
		} else if p.acceptOp("**") {
			value := p.parseTest()
			kws = append(kws, &Keyword{Span: p.span(start), Value: value})
			seenKwargs = true
		} else if next := p.peek(1); p.tok().Kind == NAME && !keywords[p.tok().Text] && next.Kind == OP && next.Text == "=" {
			name, _ := p.parseName()
			p.next()
			value := p.parseTest()
			kws = append(kws, &Keyword{Span: p.span(start), Arg: name, Value: value})
			seenKeyword = true
		} else {
			arg := p.parseNamedExpr()
			if p.isComprehensionStart() {
				generators := p.parseComprehensions()
				arg = &GeneratorExp{Span: p.span(start), Elt: arg, Generators: generators}
				if len(args) > 0 || len(kws) > 0 || !p.isOp(")") {
					p.errorf(start, "Generator expression must be parenthesized")
				}
			}
			if seenKwargs {
				p.errorf(start, "positional argument follows keyword argument unpacking")
			}
			if seenKeyword {
				p.errorf(start, "positional argument follows keyword argument")
			}
			args = append(args, arg)
		}
		if !p.acceptOp(",") {
			break
		}
	}
	closer = p.expectOp(")")
	return
}

func (p *parser) parseSubscript(value Expr) Expr {
	p.expectOp("[")
	start := p.tok().Start
	slice := p.parseSliceItem()
	if p.isOp(",") {
		elts := []Expr{slice}
		for p.acceptOp(",") {
			if p.isOp("]") {
				break
			}
			elts = append(elts, p.parseSliceItem())
		}
		slice = &Tuple{Span: p.span(start), Elts: elts}
	}
	closer := p.expectOp("]")
	return &Subscript{Span: Span{From: value.Pos(), To: closer.End}, Value: value, Slice: slice}
}

func (p *parser) parseSliceItem() Expr {
	if p.isOp("*") {
		return p.parseStarOrBitOr()
	}
	start := p.tok().Start
	var lower Expr
	if !p.isOp(":") {
		lower = p.parseNamedExpr()
		if !p.isOp(":") {
			return lower
		}
	}
	p.expectOp(":")
	slice := &Slice{Lower: lower}
	if !p.isOp(":") && !p.isOp("]") && !p.isOp(",") {
		slice.Upper = p.parseTest()
	}
	if p.acceptOp(":") && !p.isOp("]") && !p.isOp(",") {
		slice.Step = p.parseTest()
	}
	slice.Span = p.span(start)
	return slice
}

func tokenSpan(t Token) Span {
	return Span{From: t.Start, To: t.End}
}

func (p *parser) parseAtom() Expr {
	t := p.tok()
	switch t.Kind {
	case NAME:
		switch t.Text {
		case "None":
			p.next()
			return &Constant{Span: tokenSpan(t), Kind: NoneConst, Value: t.Text}
		case "True":
			p.next()
			return &Constant{Span: tokenSpan(t), Kind: TrueConst, Value: t.Text}
		case "False":
			p.next()
			return &Constant{Span: tokenSpan(t), Kind: FalseConst, Value: t.Text}
		}
		name, _ := p.parseName()
		return &Name{Span: tokenSpan(t), Id: name, Ctx: Load}
	case NUMBER:
		p.next()
		return &Constant{Span: tokenSpan(t), Kind: NumberConst, Value: t.Text}
	case STRING:
		return p.parseStrings()
	case OP:
		switch t.Text {
		case "(":
			return p.parseParenthesized()
		case "[":
			return p.parseListDisplay()
		case "{":
			return p.parseBraceDisplay()
		case "...":
			p.next()
			return &Constant{Span: tokenSpan(t), Kind: EllipsisConst, Value: t.Text}
		}
	}
	p.syntaxError(t)
	return nil
}

func (p *parser) isComprehensionStart() bool {
	if p.isKeyword("for") {
		return true
	}
	next := p.peek(1)
	return p.isKeyword("async") && next.Kind == NAME && next.Text == "for"
}

func (p *parser) parseComprehensions() []*Comprehension {
	var generators []*Comprehension
	for p.isComprehensionStart() {
		start := p.tok().Start
		comp := &Comprehension{IsAsync: p.acceptKeyword("async")}
		p.expectKeyword("for")
		comp.Target = p.parseTargetList()
		p.setContext(comp.Target, Store)
		p.expectKeyword("in")
		comp.Iter = p.parseOr()
		for p.acceptKeyword("if") {
			comp.Ifs = append(comp.Ifs, p.parseOr())
		}
		comp.Span = p.span(start)
		generators = append(generators, comp)
	}
	return generators
}

func (p *parser) parseParenthesized() Expr {
	open := p.next()
	if p.isOp(")") {
		closer := p.next()
		return &Tuple{Span: Span{From: open.Start, To: closer.End}, Parenthesized: true}
	}
	if p.isKeyword("yield") {
		e := p.parseYield()
		p.expectOp(")")
		return e
	}
	first := p.parseNamedOrStar()
	if p.isComprehensionStart() {
		generators := p.parseComprehensions()
		closer := p.expectOp(")")
		return &GeneratorExp{Span: Span{From: open.Start, To: closer.End}, Elt: first, Generators: generators}
	}
	if !p.isOp(",") {
		p.expectOp(")")
		return first
	}
	elts := []Expr{first}
	for p.acceptOp(",") {
		if p.isOp(")") {
			break
		}
		elts = append(elts, p.parseNamedOrStar())
	}
	closer := p.expectOp(")")
	return &Tuple{Span: Span{From: open.Start, To: closer.End}, Elts: elts, Parenthesized: true}
}

func (p *parser) parseListDisplay() Expr {
	open := p.next()
	if p.isOp("]") {
		closer := p.next()
		return &List{Span: Span{From: open.Start, To: closer.End}}
	}
	first := p.parseNamedOrStar()
	if p.isComprehensionStart() {
		generators := p.parseComprehensions()
		closer := p.expectOp("]")
		return &ListComp{Span: Span{From: open.Start, To: closer.End}, Elt: first, Generators: generators}
	}
	elts := []Expr{first}
	for p.acceptOp(",") {
		if p.isOp("]") {
			break
		}
		elts = append(elts, p.parseNamedOrStar())
	}
	closer := p.expectOp("]")
	return &List{Span: Span{From: open.Start, To: closer.End}, Elts: elts}
}

func (p *parser) parseBraceDisplay() Expr {
	open := p.next()
	if p.isOp("}") {
		closer := p.next()
		return &Dict{Span: Span{From: open.Start, To: closer.End}}
	}

	var first Expr
	if !p.acceptOp("**") {
		first = p.parseNamedOrStar()
		if !p.isOp(":") {
			// Set display or comprehension.
			if p.isComprehensionStart() {
				generators := p.parseComprehensions()
				closer := p.expectOp("}")
				return &SetComp{Span: Span{From: open.Start, To: closer.End}, Elt: first, Generators: generators}
			}
			elts := []Expr{first}
			for p.acceptOp(",") {
				if p.isOp("}") {
					break
				}
				elts = append(elts, p.parseNamedOrStar())
			}
			closer := p.expectOp("}")
			return &Set{Span: Span{From: open.Start, To: closer.End}, Elts: elts}
		}
	}

	dict := &Dict{}
	if first == nil {
		dict.Keys = append(dict.Keys, nil)
		dict.Values = append(dict.Values, p.parseBinary(0))
	} else {
		p.expectOp(":")
		value := p.parseTest()
		if p.isComprehensionStart() {
			generators := p.parseComprehensions()
			closer := p.expectOp("}")
			return &DictComp{Span: Span{From: open.Start, To: closer.End}, Key: first, Value: value, Generators: generators}
		}
		dict.Keys = append(dict.Keys, first)
		dict.Values = append(dict.Values, value)
	}
	for p.acceptOp(",") {
		if p.isOp("}") {
			break
		}
		if p.acceptOp("**") {
			dict.Keys = append(dict.Keys, nil)
			dict.Values = append(dict.Values, p.parseBinary(0))
			continue
		}
		key := p.parseTest()
		p.expectOp(":")
		dict.Keys = append(dict.Keys, key)
		dict.Values = append(dict.Values, p.parseTest())
	}
	closer := p.expectOp("}")
	dict.Span = Span{From: open.Start, To: closer.End}
	return dict
}

func (p *parser) parseYield() Expr {
	t := p.next()
	if p.acceptKeyword("from") {
		value := p.parseTest()
		return &YieldFrom{Span: p.span(t.Start), Value: value}
	}
	if !p.canStartExpr() {
		return &Yield{Span: tokenSpan(t)}
	}
	value := p.parseStarExprs()
	return &Yield{Span: p.span(t.Start), Value: value}
}
