package pysyntax

// MapFunc is called by MapExpr for each expression. It returns the expression
// that replaces e (possibly e itself) and whether the children of the
// returned expression should be mapped as well.
type MapFunc func(e Expr) (replacement Expr, descend bool)

// MapExpr maps e, and its children while f asks to descend, returning the
// replacement of e. Nodes are modified in place. A nil e is returned as is.
func MapExpr(e Expr, f MapFunc) Expr {
	if e == nil {
		return nil
	}
	replacement, descend := f(e)
	if descend && replacement != nil {
		mapChildren(replacement, f)
	}
	return replacement
}

// MapExprs maps every expression contained in node (which itself is not
// replaced), modifying the tree in place.
//
// The target of a NamedExpr is not mapped, since it must remain a Name. Nor
// are the patterns of match statements, which are not expressions, though
// their guards are.
func MapExprs(node Node, f MapFunc) {
	if node != nil {
		mapChildren(node, f)
	}
}

func mapChildren(node Node, f MapFunc) {
	expr := func(e *Expr) {
		*e = MapExpr(*e, f)
	}
	exprs := func(es []Expr) {
		for ii := range es {
			es[ii] = MapExpr(es[ii], f)
		}
	}
	stmts := func(ss []Stmt) {
		for _, s := range ss {
			mapChildren(s, f)
		}
	}
	keywords := func(kws []*Keyword) {
		for _, kw := range kws {
			expr(&kw.Value)
		}
	}
	comprehensions := func(gens []*Comprehension) {
		for _, gen := range gens {
			expr(&gen.Target)
			expr(&gen.Iter)
			exprs(gen.Ifs)
		}
	}
	typeParams := func(params []*TypeParam) {
		for _, param := range params {
			expr(&param.Bound)
			expr(&param.Default)
		}
	}

	switch n := node.(type) {
	case *Module:
		stmts(n.Body)

	// Expressions.
	case *Name, *Constant:
	case *JoinedStr:
		exprs(n.Values)
	case *FormattedValue:
		expr(&n.Value)
		if n.FormatSpec != nil {
			mapChildren(n.FormatSpec, f)
		}
	case *Attribute:
		expr(&n.Value)
	case *Subscript:
		expr(&n.Value)
		expr(&n.Slice)
	case *Slice:
		expr(&n.Lower)
		expr(&n.Upper)
		expr(&n.Step)
	case *Starred:
		expr(&n.Value)
	case *Call:
		expr(&n.Func)
		exprs(n.Args)
		keywords(n.Keywords)
	case *BinOp:
		expr(&n.Left)
		expr(&n.Right)
	case *UnaryOp:
		expr(&n.Operand)
	case *BoolOp:
		exprs(n.Values)
	case *Compare:
		expr(&n.Left)
		exprs(n.Comparators)
	case *IfExp:
		expr(&n.Test)
		expr(&n.Body)
		expr(&n.OrElse)
	case *Lambda:
		mapChildren(n.Args, f)
		expr(&n.Body)
	case *NamedExpr:
		expr(&n.Value)
	case *Tuple:
		exprs(n.Elts)
	case *List:
		exprs(n.Elts)
	case *Set:
		exprs(n.Elts)
	case *Dict:
		exprs(n.Keys)
		exprs(n.Values)
	case *ListComp:
		expr(&n.Elt)
		comprehensions(n.Generators)
	case *SetComp:
		expr(&n.Elt)
		comprehensions(n.Generators)
	case *GeneratorExp:
		expr(&n.Elt)
		comprehensions(n.Generators)
	case *DictComp:
		expr(&n.Key)
		expr(&n.Value)
		comprehensions(n.Generators)
	case *Await:
		expr(&n.Value)
	case *Yield:
		expr(&n.Value)
	case *YieldFrom:
		expr(&n.Value)

	// Auxiliary nodes.
	case *Arguments:
		for _, group := range [][]*Arg{n.PosOnly, n.Args, n.KwOnly, {n.Vararg, n.Kwarg}} {
			for _, a := range group {
				if a != nil {
					expr(&a.Annotation)
				}
			}
		}
		exprs(n.KwDefaults)
		exprs(n.Defaults)

	// Statements.
	case *FunctionDef:
		typeParams(n.TypeParams)
		mapChildren(n.Args, f)
		stmts(n.Body)
		exprs(n.DecoratorList)
		expr(&n.Returns)
	case *ClassDef:
		typeParams(n.TypeParams)
		exprs(n.Bases)
		keywords(n.Keywords)
		stmts(n.Body)
		exprs(n.DecoratorList)
	case *Return:
		expr(&n.Value)
	case *Delete:
		exprs(n.Targets)
	case *Assign:
		exprs(n.Targets)
		expr(&n.Value)
	case *AugAssign:
		expr(&n.Target)
		expr(&n.Value)
	case *AnnAssign:
		expr(&n.Target)
		expr(&n.Annotation)
		expr(&n.Value)
	case *For:
		expr(&n.Target)
		expr(&n.Iter)
		stmts(n.Body)
		stmts(n.OrElse)
	case *While:
		expr(&n.Test)
		stmts(n.Body)
		stmts(n.OrElse)
	case *If:
		expr(&n.Test)
		stmts(n.Body)
		stmts(n.OrElse)
	case *With:
		for _, item := range n.Items {
			expr(&item.Context)
			expr(&item.Vars)
		}
		stmts(n.Body)
	case *Raise:
		expr(&n.Exc)
		expr(&n.Cause)
	case *Try:
		stmts(n.Body)
		for _, handler := range n.Handlers {
			expr(&handler.Type)
			stmts(handler.Body)
		}
		stmts(n.OrElse)
		stmts(n.FinalBody)
	case *Assert:
		expr(&n.Test)
		expr(&n.Msg)
	case *ExprStmt:
		expr(&n.Value)
	case *Match:
		expr(&n.Subject)
		for _, c := range n.Cases {
			expr(&c.Guard)
			stmts(c.Body)
		}
	case *TypeAlias:
		typeParams(n.TypeParams)
		expr(&n.Value)
	case *Import, *ImportFrom, *Global, *Nonlocal, *Pass, *Break, *Continue:
	}
}
