// Package pysyntax tokenizes and parses Python 3 source code into a syntax tree
// whose nodes keep their exact positions in the source, so that diagnostics
// and source rewrites can refer back to the lines the user wrote.
package pysyntax

// Node is implemented by every syntax tree node.
type Node interface {
	Pos() Pos // Position of the first character of the node.
	End() Pos // Position immediately after the node.
}

// Span holds the source range of a node. It is embedded in every node.
type Span struct {
	From, To Pos
}

// Pos implements Node.
func (s Span) Pos() Pos { return s.From }

// End implements Node.
func (s Span) End() Pos { return s.To }

// Expr is a node that is an expression. The set of implementations is closed.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a node that is a statement. The set of implementations is closed.
type Stmt interface {
	Node
	stmtNode()
}

// Pattern is a node that is a pattern of a match statement case. The set of
// implementations is closed.
type Pattern interface {
	Node
	patternNode()
}

// Ctx is the context in which a Name, Attribute, Subscript, Starred, Tuple or
// List is used.
type Ctx int

const (
	Load Ctx = iota
	Store
	Del
)

func (c Ctx) String() string {
	switch c {
	case Store:
		return "Store"
	case Del:
		return "Del"
	}
	return "Load"
}

// ConstKind enumerates the kinds of literals.
type ConstKind int

const (
	NumberConst ConstKind = iota
	StringConst
	BytesConst
	NoneConst
	TrueConst
	FalseConst
	EllipsisConst
)

// Module is the root of a parsed file.
type Module struct {
	Span
	Filename string
	Body     []Stmt
}

// Expressions.
type (
	Name struct {
		Span
		Id  string
		Ctx Ctx
	}

	// Constant holds a literal: Value is its source text. Adjacent string
	// literals are merged into one Constant.
	Constant struct {
		Span
		Kind  ConstKind
		Value string
	}

	// JoinedStr is an f-string: Values are string Constant parts and
	// FormattedValue fields.
	JoinedStr struct {
		Span
		Values []Expr
	}

	FormattedValue struct {
		Span
		Value      Expr
		Conversion rune // 0, 's', 'r' or 'a'.
		FormatSpec *JoinedStr
	}

	Attribute struct {
		Span
		Value Expr
		Attr  string
		Ctx   Ctx
	}

	Subscript struct {
		Span
		Value Expr
		Slice Expr
		Ctx   Ctx
	}

	Slice struct {
		Span
		Lower, Upper, Step Expr
	}

	Starred struct {
		Span
		Value Expr
		Ctx   Ctx
	}

	// Call of Func. Implicit is set on calls synthesized from a bare name,
	// which have no parentheses in the source.
	Call struct {
		Span
		Func     Expr
		Args     []Expr
		Keywords []*Keyword
		Implicit bool
	}

	BinOp struct {
		Span
		Left  Expr
		Op    string
		Right Expr
	}

	UnaryOp struct {
		Span
		Op      string
		Operand Expr
	}

	BoolOp struct {
		Span
		Op     string
		Values []Expr
	}

	Compare struct {
		Span
		Left        Expr
		Ops         []string
		Comparators []Expr
	}

	IfExp struct {
		Span
		Test, Body, OrElse Expr
	}

	Lambda struct {
		Span
		Args *Arguments
		Body Expr
	}

	NamedExpr struct {
		Span
		Target *Name
		Value  Expr
	}

	Tuple struct {
		Span
		Elts          []Expr
		Ctx           Ctx
		Parenthesized bool
	}

	List struct {
		Span
		Elts []Expr
		Ctx  Ctx
	}

	Set struct {
		Span
		Elts []Expr
	}

	// Dict literal: a nil key stands for a `**mapping` entry.
	Dict struct {
		Span
		Keys   []Expr
		Values []Expr
	}

	ListComp struct {
		Span
		Elt        Expr
		Generators []*Comprehension
	}

	SetComp struct {
		Span
		Elt        Expr
		Generators []*Comprehension
	}

	GeneratorExp struct {
		Span
		Elt        Expr
		Generators []*Comprehension
	}

	DictComp struct {
		Span
		Key, Value Expr
		Generators []*Comprehension
	}

	Await struct {
		Span
		Value Expr
	}

	Yield struct {
		Span
		Value Expr // May be nil.
	}

	YieldFrom struct {
		Span
		Value Expr
	}
)

// Auxiliary nodes, neither expressions nor statements.
type (
	// Keyword argument of a call or class definition. Arg is empty for `**kwargs`.
	Keyword struct {
		Span
		Arg   string
		Value Expr
	}

	Comprehension struct {
		Span
		Target  Expr
		Iter    Expr
		Ifs     []Expr
		IsAsync bool
	}

	// Arguments of a function definition or lambda. Defaults apply to the last
	// parameters of PosOnly+Args; KwDefaults has one (possibly nil) entry per
	// KwOnly parameter.
	Arguments struct {
		Span
		PosOnly    []*Arg
		Args       []*Arg
		Vararg     *Arg
		KwOnly     []*Arg
		KwDefaults []Expr
		Kwarg      *Arg
		Defaults   []Expr
	}

	Arg struct {
		Span
		Name       string
		Annotation Expr
	}

	Alias struct {
		Span
		Name   string
		AsName string
	}

	WithItem struct {
		Span
		Context Expr
		Vars    Expr
	}

	ExceptHandler struct {
		Span
		Type Expr
		Name string
		Body []Stmt
	}

	MatchCase struct {
		Span
		Pattern Pattern
		Guard   Expr // May be nil.
		Body    []Stmt
	}

	// TypeParam of a generic function, class or type alias: `T`, `T: int`,
	// `*Ts` or `**P`, with an optional default.
	TypeParam struct {
		Span
		Name    string
		Kind    TypeParamKind
		Bound   Expr
		Default Expr
	}
)

// TypeParamKind enumerates the kinds of type parameters.
type TypeParamKind int

const (
	TypeVar TypeParamKind = iota
	TypeVarTuple
	ParamSpec
)

// Patterns. Names bound by a pattern are Names in the Store context.
type (
	// MatchValue matches a literal or the value of a dotted name.
	MatchValue struct {
		Span
		Value Expr
	}

	// MatchSingleton matches None, True or False.
	MatchSingleton struct {
		Span
		Value *Constant
	}

	MatchSequence struct {
		Span
		Patterns []Pattern
	}

	// MatchMapping matches Keys to Patterns. Rest is the `**rest` capture,
	// or nil.
	MatchMapping struct {
		Span
		Keys     []Expr
		Patterns []Pattern
		Rest     *Name
	}

	MatchClass struct {
		Span
		Cls         Expr
		Patterns    []Pattern
		KwdAttrs    []string
		KwdPatterns []Pattern
	}

	// MatchStar is the `*rest` of a sequence pattern. Name is nil for `*_`.
	MatchStar struct {
		Span
		Name *Name
	}

	// MatchAs is a capture (`name`), the wildcard (`_`, with neither Pattern
	// nor Name) or `pattern as name`.
	MatchAs struct {
		Span
		Pattern Pattern
		Name    *Name
	}

	MatchOr struct {
		Span
		Patterns []Pattern
	}
)

// Statements.
type (
	FunctionDef struct {
		Span
		Name          string
		NamePos       Pos
		Args          *Arguments
		Body          []Stmt
		DecoratorList []Expr
		Returns       Expr
		IsAsync       bool
		TypeParams    []*TypeParam
	}

	ClassDef struct {
		Span
		Name          string
		NamePos       Pos
		Bases         []Expr
		Keywords      []*Keyword
		Body          []Stmt
		DecoratorList []Expr
		TypeParams    []*TypeParam
	}

	Return struct {
		Span
		Value Expr
	}

	Delete struct {
		Span
		Targets []Expr
	}

	Assign struct {
		Span
		Targets []Expr
		Value   Expr
	}

	AugAssign struct {
		Span
		Target Expr
		Op     string
		Value  Expr
	}

	AnnAssign struct {
		Span
		Target     Expr
		Annotation Expr
		Value      Expr
		Simple     bool
	}

	For struct {
		Span
		Target, Iter Expr
		Body, OrElse []Stmt
		IsAsync      bool
	}

	While struct {
		Span
		Test         Expr
		Body, OrElse []Stmt
	}

	If struct {
		Span
		Test         Expr
		Body, OrElse []Stmt
	}

	With struct {
		Span
		Items   []*WithItem
		Body    []Stmt
		IsAsync bool
	}

	Raise struct {
		Span
		Exc, Cause Expr
	}

	Try struct {
		Span
		Body      []Stmt
		Handlers  []*ExceptHandler
		OrElse    []Stmt
		FinalBody []Stmt
		Star      bool
	}

	Assert struct {
		Span
		Test, Msg Expr
	}

	Import struct {
		Span
		Names []*Alias
	}

	ImportFrom struct {
		Span
		Module string
		Names  []*Alias
		Level  int
	}

	Global struct {
		Span
		Names []string
	}

	Nonlocal struct {
		Span
		Names []string
	}

	ExprStmt struct {
		Span
		Value Expr
	}

	Match struct {
		Span
		Subject Expr
		Cases   []*MatchCase
	}

	// TypeAlias is a `type Name[T] = value` statement.
	TypeAlias struct {
		Span
		Name       *Name
		TypeParams []*TypeParam
		Value      Expr
	}

	Pass     struct{ Span }
	Break    struct{ Span }
	Continue struct{ Span }
)

func (*Name) exprNode()           {}
func (*Constant) exprNode()       {}
func (*JoinedStr) exprNode()      {}
func (*FormattedValue) exprNode() {}
func (*Attribute) exprNode()      {}
func (*Subscript) exprNode()      {}
func (*Slice) exprNode()          {}
func (*Starred) exprNode()        {}
func (*Call) exprNode()           {}
func (*BinOp) exprNode()          {}
func (*UnaryOp) exprNode()        {}
func (*BoolOp) exprNode()         {}
func (*Compare) exprNode()        {}
func (*IfExp) exprNode()          {}
func (*Lambda) exprNode()         {}
func (*NamedExpr) exprNode()      {}
func (*Tuple) exprNode()          {}
func (*List) exprNode()           {}
func (*Set) exprNode()            {}
func (*Dict) exprNode()           {}
func (*ListComp) exprNode()       {}
func (*SetComp) exprNode()        {}
func (*GeneratorExp) exprNode()   {}
func (*DictComp) exprNode()       {}
func (*Await) exprNode()          {}
func (*Yield) exprNode()          {}
func (*YieldFrom) exprNode()      {}

func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Return) stmtNode()      {}
func (*Delete) stmtNode()      {}
func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*AnnAssign) stmtNode()   {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*If) stmtNode()          {}
func (*With) stmtNode()        {}
func (*Raise) stmtNode()       {}
func (*Try) stmtNode()         {}
func (*Assert) stmtNode()      {}
func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*Global) stmtNode()      {}
func (*Nonlocal) stmtNode()    {}
func (*ExprStmt) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*Match) stmtNode()       {}
func (*TypeAlias) stmtNode()   {}

func (*MatchValue) patternNode()     {}
func (*MatchSingleton) patternNode() {}
func (*MatchSequence) patternNode()  {}
func (*MatchMapping) patternNode()   {}
func (*MatchClass) patternNode()     {}
func (*MatchStar) patternNode()      {}
func (*MatchAs) patternNode()        {}
func (*MatchOr) patternNode()        {}
