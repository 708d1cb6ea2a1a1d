package pysyntax

import "fmt"

func (p *parser) parseFile() *Module {
	mod := &Module{Filename: p.filename}
	for p.tok().Kind != EOF {
		if p.tok().Kind == NEWLINE {
			p.next()
			continue
		}
		mod.Body = append(mod.Body, p.parseStatement()...)
	}
	mod.Span = Span{From: p.li.pos(0), To: p.tok().End}
	return mod
}

func (p *parser) parseStatement() []Stmt {
	t := p.tok()
	switch t.Kind {
	case INDENT, DEDENT:
		p.syntaxError(t)
	case OP:
		if t.Text == "@" {
			return []Stmt{p.parseDecorated()}
		}
	case NAME:
		switch t.Text {
		case "def":
			return []Stmt{p.parseFunctionDef(nil, Pos{}, false)}
		case "class":
			return []Stmt{p.parseClassDef(nil)}
		case "if":
			return []Stmt{p.parseIf()}
		case "while":
			return []Stmt{p.parseWhile()}
		case "for":
			return []Stmt{p.parseFor(t.Start, false)}
		case "try":
			return []Stmt{p.parseTry()}
		case "with":
			return []Stmt{p.parseWith(t.Start, false)}
		case "match":
			if stmt := p.parseMatch(); stmt != nil {
				return []Stmt{stmt}
			}
		case "async":
			next := p.peek(1)
			if next.Kind == NAME {
				switch next.Text {
				case "def":
					p.next()
					return []Stmt{p.parseFunctionDef(nil, t.Start, true)}
				case "for":
					p.next()
					return []Stmt{p.parseFor(t.Start, true)}
				case "with":
					p.next()
					return []Stmt{p.parseWith(t.Start, true)}
				}
			}
			p.syntaxError(t)
		}
	}
	return p.parseSimpleStatements()
}

// parseBlock parses the `:` and the body of a compound statement. what and
// line describe the statement for the error raised when the indented block is
// missing.
func (p *parser) parseBlock(what string, line int) []Stmt {
	p.expectOp(":")
	if p.tok().Kind != NEWLINE {
		return p.parseSimpleStatements()
	}
	p.next()
	if p.tok().Kind != INDENT {
		p.indentationErrorf(p.tok().Start, "expected an indented block after %s on line %d", what, line)
	}
	p.next()
	var body []Stmt
	for p.tok().Kind != DEDENT && p.tok().Kind != EOF {
		body = append(body, p.parseStatement()...)
	}
	if p.tok().Kind == DEDENT {
		p.next()
	}
	return body
}

func (p *parser) parseSimpleStatements() []Stmt {
	var stmts []Stmt
	for {
		stmts = append(stmts, p.parseSimpleStatement())
		if !p.acceptOp(";") || p.tok().Kind == NEWLINE {
			break
		}
	}
	if p.tok().Kind != NEWLINE {
		p.syntaxError(p.tok())
	}
	p.next()
	return stmts
}

func (p *parser) atStatementEnd() bool {
	return p.tok().Kind == NEWLINE || p.isOp(";")
}

func (p *parser) parseSimpleStatement() Stmt {
	t := p.tok()
	if t.Kind == NAME {
		switch t.Text {
		case "pass":
			p.next()
			return &Pass{Span: p.span(t.Start)}
		case "break":
			p.next()
			return &Break{Span: p.span(t.Start)}
		case "continue":
			p.next()
			return &Continue{Span: p.span(t.Start)}
		case "return":
			p.next()
			stmt := &Return{}
			if !p.atStatementEnd() {
				stmt.Value = p.parseStarExprs()
			}
			stmt.Span = p.span(t.Start)
			return stmt
		case "raise":
			p.next()
			stmt := &Raise{}
			if !p.atStatementEnd() {
				stmt.Exc = p.parseTest()
				if p.acceptKeyword("from") {
					stmt.Cause = p.parseTest()
				}
			}
			stmt.Span = p.span(t.Start)
			return stmt
		case "global", "nonlocal":
			p.next()
			var names []string
			for {
				name, _ := p.parseName()
				names = append(names, name)
				if !p.acceptOp(",") {
					break
				}
			}
			if t.Text == "global" {
				return &Global{Span: p.span(t.Start), Names: names}
			}
			return &Nonlocal{Span: p.span(t.Start), Names: names}
		case "del":
			p.next()
			stmt := &Delete{}
			for {
				target := p.parseStarOrBitOr()
				p.setContext(target, Del)
				stmt.Targets = append(stmt.Targets, target)
				if !p.acceptOp(",") || !p.canStartExpr() {
					break
				}
			}
			stmt.Span = p.span(t.Start)
			return stmt
		case "assert":
			p.next()
			stmt := &Assert{Test: p.parseTest()}
			if p.acceptOp(",") {
				stmt.Msg = p.parseTest()
			}
			stmt.Span = p.span(t.Start)
			return stmt
		case "import":
			return p.parseImport()
		case "from":
			return p.parseImportFrom()
		case "type":
			if next := p.peek(1); next.Kind == NAME && !keywords[next.Text] {
				return p.parseTypeAlias()
			}
		}
	}
	return p.parseExprStatement()
}

func (p *parser) parseDottedName() string {
	name, _ := p.parseName()
	for p.acceptOp(".") {
		part, _ := p.parseName()
		name += "." + part
	}
	return name
}

func (p *parser) parseAlias(dotted bool) *Alias {
	start := p.tok().Start
	alias := &Alias{}
	if dotted {
		alias.Name = p.parseDottedName()
	} else {
		alias.Name, _ = p.parseName()
	}
	if p.acceptKeyword("as") {
		alias.AsName, _ = p.parseName()
	}
	alias.Span = p.span(start)
	return alias
}

func (p *parser) parseImport() *Import {
	t := p.next()
	stmt := &Import{}
	for {
		stmt.Names = append(stmt.Names, p.parseAlias(true))
		if !p.acceptOp(",") {
			break
		}
	}
	stmt.Span = p.span(t.Start)
	return stmt
}

func (p *parser) parseImportFrom() *ImportFrom {
	t := p.next()
	stmt := &ImportFrom{}
	for p.isOp(".") || p.isOp("...") {
		stmt.Level += len(p.next().Text)
	}
	if !p.isKeyword("import") || stmt.Level == 0 {
		stmt.Module = p.parseDottedName()
	}
	p.expectKeyword("import")
	switch {
	case p.isOp("*"):
		star := p.next()
		stmt.Names = []*Alias{{Span: Span{From: star.Start, To: star.End}, Name: "*"}}
	case p.acceptOp("("):
		for !p.isOp(")") {
			stmt.Names = append(stmt.Names, p.parseAlias(false))
			if !p.acceptOp(",") {
				break
			}
		}
		if len(stmt.Names) == 0 {
			p.syntaxError(p.tok())
		}
		p.expectOp(")")
	default:
		for {
			stmt.Names = append(stmt.Names, p.parseAlias(false))
			if !p.isOp(",") {
				break
			}
			comma := p.next()
			if p.atStatementEnd() {
				p.errorf(comma.Start, "trailing comma not allowed without surrounding parentheses")
			}
		}
	}
	stmt.Span = p.span(t.Start)
	return stmt
}

var augmentedAssignOps = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "//=": true, "%=": true, "@=": true,
	"&=": true, "|=": true, "^=": true, ">>=": true, "<<=": true, "**=": true,
}

func (p *parser) parseAssignValue() Expr {
	if p.isKeyword("yield") {
		return p.parseYield()
	}
	return p.parseStarExprs()
}

func (p *parser) parseExprStatement() Stmt {
	start := p.tok().Start
	if p.isKeyword("yield") {
		value := p.parseYield()
		return &ExprStmt{Span: p.span(start), Value: value}
	}
	first := p.parseStarExprs()
	t := p.tok()
	switch {
	case t.Kind == OP && t.Text == ":":
		p.next()
		switch first.(type) {
		case *Name, *Attribute, *Subscript:
		case *Tuple:
			p.errorf(first.Pos(), "only single target (not tuple) can be annotated")
		default:
			p.errorf(first.Pos(), "illegal target for annotation")
		}
		p.setContext(first, Store)
		stmt := &AnnAssign{Target: first, Annotation: p.parseTest()}
		_, stmt.Simple = first.(*Name)
		if p.acceptOp("=") {
			stmt.Value = p.parseAssignValue()
		}
		stmt.Span = p.span(start)
		return stmt

	case t.Kind == OP && augmentedAssignOps[t.Text]:
		p.next()
		switch first.(type) {
		case *Name, *Attribute, *Subscript:
		default:
			p.errorf(first.Pos(), "'%s' is an illegal expression for augmented assignment", describeExpr(first))
		}
		p.setContext(first, Store)
		value := p.parseAssignValue()
		return &AugAssign{Span: p.span(start), Target: first, Op: t.Text[:len(t.Text)-1], Value: value}

	case t.Kind == OP && t.Text == "=":
		exprs := []Expr{first}
		for p.acceptOp("=") {
			exprs = append(exprs, p.parseAssignValue())
		}
		targets := exprs[:len(exprs)-1]
		for _, target := range targets {
			p.setContext(target, Store)
		}
		return &Assign{Span: p.span(start), Targets: targets, Value: exprs[len(exprs)-1]}
	}
	return &ExprStmt{Span: p.span(start), Value: first}
}

func (p *parser) parseIf() *If {
	t := p.next()
	stmt := &If{Test: p.parseNamedExpr()}
	stmt.Body = p.parseBlock(fmt.Sprintf("'%s' statement", t.Text), t.Start.Line)
	if p.isKeyword("elif") {
		stmt.OrElse = []Stmt{p.parseIf()}
	} else {
		stmt.OrElse = p.parseElse()
	}
	stmt.Span = p.span(t.Start)
	return stmt
}

func (p *parser) parseElse() []Stmt {
	if !p.isKeyword("else") {
		return nil
	}
	t := p.next()
	return p.parseBlock("'else' statement", t.Start.Line)
}

func (p *parser) parseWhile() *While {
	t := p.next()
	stmt := &While{Test: p.parseNamedExpr()}
	stmt.Body = p.parseBlock("'while' statement", t.Start.Line)
	stmt.OrElse = p.parseElse()
	stmt.Span = p.span(t.Start)
	return stmt
}

func (p *parser) parseFor(start Pos, isAsync bool) *For {
	t := p.expectKeyword("for")
	stmt := &For{IsAsync: isAsync, Target: p.parseTargetList()}
	p.setContext(stmt.Target, Store)
	p.expectKeyword("in")
	stmt.Iter = p.parseStarExprs()
	stmt.Body = p.parseBlock("'for' statement", t.Start.Line)
	stmt.OrElse = p.parseElse()
	stmt.Span = p.span(start)
	return stmt
}

func (p *parser) parseTry() *Try {
	t := p.next()
	stmt := &Try{Body: p.parseBlock("'try' statement", t.Start.Line)}
	for p.isKeyword("except") {
		e := p.next()
		if p.acceptOp("*") {
			stmt.Star = true
		}
		handler := &ExceptHandler{}
		if !p.isOp(":") {
			handler.Type = p.parseTest()
			if p.isOp(",") {
				p.errorf(handler.Type.Pos(), "multiple exception types must be parenthesized")
			}
			if p.acceptKeyword("as") {
				handler.Name, _ = p.parseName()
			}
		}
		handler.Body = p.parseBlock("'except' statement", e.Start.Line)
		handler.Span = p.span(e.Start)
		stmt.Handlers = append(stmt.Handlers, handler)
	}
	if len(stmt.Handlers) > 0 {
		stmt.OrElse = p.parseElse()
	}
	hasFinally := false
	if p.isKeyword("finally") {
		f := p.next()
		stmt.FinalBody = p.parseBlock("'finally' statement", f.Start.Line)
		hasFinally = true
	}
	if len(stmt.Handlers) == 0 && !hasFinally {
		p.errorf(p.tok().Start, "expected 'except' or 'finally' block")
	}
	stmt.Span = p.span(t.Start)
	return stmt
}

func (p *parser) parseWithItem() *WithItem {
	start := p.tok().Start
	item := &WithItem{Context: p.parseTest()}
	if p.acceptKeyword("as") {
		item.Vars = p.parseStarOrBitOr()
		p.setContext(item.Vars, Store)
	}
	item.Span = p.span(start)
	return item
}

func (p *parser) parseWith(start Pos, isAsync bool) *With {
	t := p.expectKeyword("with")
	stmt := &With{IsAsync: isAsync}
	parenthesized := false
	if p.isOp("(") {
		parenthesized = p.try(func() {
			p.next()
			stmt.Items = nil
			for !p.isOp(")") {
				stmt.Items = append(stmt.Items, p.parseWithItem())
				if !p.acceptOp(",") {
					break
				}
			}
			p.expectOp(")")
			if !p.isOp(":") || len(stmt.Items) == 0 {
				p.syntaxError(p.tok())
			}
		})
	}
	if !parenthesized {
		stmt.Items = nil
		for {
			stmt.Items = append(stmt.Items, p.parseWithItem())
			if !p.acceptOp(",") {
				break
			}
		}
	}
	stmt.Body = p.parseBlock("'with' statement", t.Start.Line)
	stmt.Span = p.span(start)
	return stmt
}

func (p *parser) parseDecorated() Stmt {
	var decorators []Expr
	for p.acceptOp("@") {
		decorators = append(decorators, p.parseNamedExpr())
		if p.tok().Kind != NEWLINE {
			p.syntaxError(p.tok())
		}
		p.next()
	}
	switch {
	case p.isKeyword("def"):
		return p.parseFunctionDef(decorators, Pos{}, false)
	case p.isKeyword("class"):
		return p.parseClassDef(decorators)
	case p.isKeyword("async") && p.peek(1).Kind == NAME && p.peek(1).Text == "def":
		t := p.next()
		return p.parseFunctionDef(decorators, t.Start, true)
	}
	p.syntaxError(p.tok())
	return nil
}

// parseFunctionDef parses a `def`. start is the position of a preceding
// `async`, if any.
func (p *parser) parseFunctionDef(decorators []Expr, start Pos, isAsync bool) *FunctionDef {
	t := p.expectKeyword("def")
	if !start.IsValid() {
		start = t.Start
	}
	stmt := &FunctionDef{DecoratorList: decorators, IsAsync: isAsync}
	stmt.Name, stmt.NamePos = p.parseName()
	stmt.TypeParams = p.parseTypeParams()
	p.expectOp("(")
	stmt.Args = p.parseParameters(")", true)
	p.expectOp(")")
	if p.acceptOp("->") {
		stmt.Returns = p.parseTest()
	}
	stmt.Body = p.parseBlock("function definition", t.Start.Line)
	stmt.Span = p.span(start)
	return stmt
}

func (p *parser) parseClassDef(decorators []Expr) *ClassDef {
	t := p.expectKeyword("class")
	stmt := &ClassDef{DecoratorList: decorators}
	stmt.Name, stmt.NamePos = p.parseName()
	stmt.TypeParams = p.parseTypeParams()
	if p.isOp("(") {
		stmt.Bases, stmt.Keywords, _ = p.parseCallArgs()
	}
	stmt.Body = p.parseBlock("class definition", t.Start.Line)
	stmt.Span = p.span(t.Start)
	return stmt
}

// parseParameters parses a parameter list up to (not including) closer.
func (p *parser) parseParameters(closer string, annotations bool) *Arguments {
	start := p.tok().Start
	args := &Arguments{}
	seenStar, seenDefault := false, false
	for !p.isOp(closer) {
		switch {
		case p.acceptOp("/"):
			if seenStar || len(args.PosOnly) > 0 || len(args.Args) == 0 {
				p.errorf(p.lastEnd(), "invalid syntax")
			}
			args.PosOnly, args.Args = args.Args, nil
		case p.acceptOp("*"):
			if seenStar {
				p.errorf(p.lastEnd(), "* argument may appear only once")
			}
			seenStar = true
			if p.tok().Kind == NAME {
				args.Vararg = p.parseArg(annotations)
			}
		case p.acceptOp("**"):
			args.Kwarg = p.parseArg(annotations)
		default:
			arg := p.parseArg(annotations)
			var value Expr
			if p.acceptOp("=") {
				value = p.parseTest()
			}
			if seenStar {
				args.KwOnly = append(args.KwOnly, arg)
				args.KwDefaults = append(args.KwDefaults, value)
				break
			}
			if value != nil {
				seenDefault = true
				args.Defaults = append(args.Defaults, value)
			} else if seenDefault {
				p.errorf(arg.Pos(), "parameter without a default follows parameter with a default")
			}
			args.Args = append(args.Args, arg)
		}
		if !p.acceptOp(",") {
			break
		}
	}
	args.Span = p.span(start)
	return args
}

func (p *parser) parseArg(annotations bool) *Arg {
	start := p.tok().Start
	arg := &Arg{}
	arg.Name, _ = p.parseName()
	if annotations && p.acceptOp(":") {
		arg.Annotation = p.parseTest()
	}
	arg.Span = p.span(start)
	return arg
}
