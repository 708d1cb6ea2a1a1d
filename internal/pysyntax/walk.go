package pysyntax

import (
	"fmt"
	"reflect"
)

// Inspect traverses the tree rooted at node in depth-first order: it calls
// f(node) and, if it returns true, inspects each of the node's children.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	forEachChild(node, func(child Node) {
		Inspect(child, f)
	})
}

// forEachChild calls visit for each non-nil child of node, in the order of
// the node's fields.
func forEachChild(node Node, visit func(Node)) {
	expr := func(e Expr) {
		if e != nil {
			visit(e)
		}
	}
	exprs := func(es []Expr) {
		for _, e := range es {
			expr(e)
		}
	}
	stmts := func(ss []Stmt) {
		for _, s := range ss {
			visit(s)
		}
	}
	arg := func(a *Arg) {
		if a != nil {
			visit(a)
		}
	}
	args := func(as []*Arg) {
		for _, a := range as {
			visit(a)
		}
	}
	keywords := func(kws []*Keyword) {
		for _, kw := range kws {
			visit(kw)
		}
	}
	comprehensions := func(gens []*Comprehension) {
		for _, gen := range gens {
			visit(gen)
		}
	}
	aliases := func(names []*Alias) {
		for _, alias := range names {
			visit(alias)
		}
	}
	name := func(n *Name) {
		if n != nil {
			visit(n)
		}
	}
	pattern := func(pat Pattern) {
		if pat != nil {
			visit(pat)
		}
	}
	patterns := func(pats []Pattern) {
		for _, pat := range pats {
			visit(pat)
		}
	}
	typeParams := func(params []*TypeParam) {
		for _, param := range params {
			visit(param)
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
		expr(n.Value)
		if n.FormatSpec != nil {
			visit(n.FormatSpec)
		}
	case *Attribute:
		expr(n.Value)
	case *Subscript:
		expr(n.Value)
		expr(n.Slice)
	case *Slice:
		expr(n.Lower)
		expr(n.Upper)
		expr(n.Step)
	case *Starred:
		expr(n.Value)
	case *Call:
		expr(n.Func)
		exprs(n.Args)
		keywords(n.Keywords)
	case *BinOp:
		expr(n.Left)
		expr(n.Right)
	case *UnaryOp:
		expr(n.Operand)
	case *BoolOp:
		exprs(n.Values)
	case *Compare:
		expr(n.Left)
		exprs(n.Comparators)
	case *IfExp:
		expr(n.Test)
		expr(n.Body)
		expr(n.OrElse)
	case *Lambda:
		visit(n.Args)
		expr(n.Body)
	case *NamedExpr:
		visit(n.Target)
		expr(n.Value)
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
		expr(n.Elt)
		comprehensions(n.Generators)
	case *SetComp:
		expr(n.Elt)
		comprehensions(n.Generators)
	case *GeneratorExp:
		expr(n.Elt)
		comprehensions(n.Generators)
	case *DictComp:
		expr(n.Key)
		expr(n.Value)
		comprehensions(n.Generators)
	case *Await:
		expr(n.Value)
	case *Yield:
		expr(n.Value)
	case *YieldFrom:
		expr(n.Value)

	// Auxiliary nodes.
	case *Keyword:
		expr(n.Value)
	case *Comprehension:
		expr(n.Target)
		expr(n.Iter)
		exprs(n.Ifs)
	case *Arguments:
		args(n.PosOnly)
		args(n.Args)
		arg(n.Vararg)
		args(n.KwOnly)
		exprs(n.KwDefaults)
		arg(n.Kwarg)
		exprs(n.Defaults)
	case *Arg:
		expr(n.Annotation)
	case *Alias:
	case *WithItem:
		expr(n.Context)
		expr(n.Vars)
	case *ExceptHandler:
		expr(n.Type)
		stmts(n.Body)
	case *MatchCase:
		pattern(n.Pattern)
		expr(n.Guard)
		stmts(n.Body)
	case *TypeParam:
		expr(n.Bound)
		expr(n.Default)

	// Patterns.
	case *MatchValue:
		expr(n.Value)
	case *MatchSingleton:
		visit(n.Value)
	case *MatchSequence:
		patterns(n.Patterns)
	case *MatchMapping:
		exprs(n.Keys)
		patterns(n.Patterns)
		name(n.Rest)
	case *MatchClass:
		expr(n.Cls)
		patterns(n.Patterns)
		patterns(n.KwdPatterns)
	case *MatchStar:
		name(n.Name)
	case *MatchAs:
		pattern(n.Pattern)
		name(n.Name)
	case *MatchOr:
		patterns(n.Patterns)

	// Statements.
	case *FunctionDef:
		typeParams(n.TypeParams)
		visit(n.Args)
		stmts(n.Body)
		exprs(n.DecoratorList)
		expr(n.Returns)
	case *ClassDef:
		typeParams(n.TypeParams)
		exprs(n.Bases)
		keywords(n.Keywords)
		stmts(n.Body)
		exprs(n.DecoratorList)
	case *Return:
		expr(n.Value)
	case *Delete:
		exprs(n.Targets)
	case *Assign:
		exprs(n.Targets)
		expr(n.Value)
	case *AugAssign:
		expr(n.Target)
		expr(n.Value)
	case *AnnAssign:
		expr(n.Target)
		expr(n.Annotation)
		expr(n.Value)
	case *For:
		expr(n.Target)
		expr(n.Iter)
		stmts(n.Body)
		stmts(n.OrElse)
	case *While:
		expr(n.Test)
		stmts(n.Body)
		stmts(n.OrElse)
	case *If:
		expr(n.Test)
		stmts(n.Body)
		stmts(n.OrElse)
	case *With:
		for _, item := range n.Items {
			visit(item)
		}
		stmts(n.Body)
	case *Raise:
		expr(n.Exc)
		expr(n.Cause)
	case *Try:
		stmts(n.Body)
		for _, handler := range n.Handlers {
			visit(handler)
		}
		stmts(n.OrElse)
		stmts(n.FinalBody)
	case *Assert:
		expr(n.Test)
		expr(n.Msg)
	case *Import:
		aliases(n.Names)
	case *ImportFrom:
		aliases(n.Names)
	case *ExprStmt:
		expr(n.Value)
	case *Match:
		expr(n.Subject)
		for _, c := range n.Cases {
			visit(c)
		}
	case *TypeAlias:
		visit(n.Name)
		typeParams(n.TypeParams)
		expr(n.Value)
	case *Global, *Nonlocal, *Pass, *Break, *Continue:

	default:
		panic(fmt.Sprintf("pysyntax: unexpected node type %T", node))
	}
}

// Clone returns a deep copy of the tree rooted at node.
func Clone[T Node](node T) T {
	return cloneValue(reflect.ValueOf(node)).Interface().(T)
}

func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		c := reflect.New(v.Elem().Type())
		c.Elem().Set(cloneValue(v.Elem()))
		return c
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		c := reflect.New(v.Type()).Elem()
		c.Set(cloneValue(v.Elem()))
		return c
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for ii := 0; ii < v.Len(); ii++ {
			c.Index(ii).Set(cloneValue(v.Index(ii)))
		}
		return c
	case reflect.Struct:
		c := reflect.New(v.Type()).Elem()
		for ii := 0; ii < v.NumField(); ii++ {
			c.Field(ii).Set(cloneValue(v.Field(ii)))
		}
		return c
	}
	return v
}
