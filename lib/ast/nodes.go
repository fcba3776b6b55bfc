package ast

import "github.com/alecthomas/participle/v2/lexer"

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

// AssignStmt covers declarations, assignments and bare expression
// statements: `var a: int, b = f(x);`. Rhs is empty for declarations without
// initializer and for expression statements.
type AssignStmt struct {
	Pos lexer.Position
	Lhs []Expr
	Rhs []Expr
}

type IfElse struct {
	Pos     lexer.Position
	Cond    Expr
	Then    []Stmt
	Else    []Stmt
	HasElse bool
}

type While struct {
	Pos  lexer.Position
	Cond Expr
	Body []Stmt
}

type RepeatUntil struct {
	Pos  lexer.Position
	Body []Stmt
	Cond Expr
}

type ScopeBlock struct {
	Pos  lexer.Position
	Body []Stmt
}

type Return struct {
	Pos lexer.Position
}

type Break struct {
	Pos lexer.Position
}

type Continue struct {
	Pos lexer.Position
}

// Decl declares a local: `var x: int`. It only appears on the left of an
// AssignStmt.
type Decl struct {
	Pos   lexer.Position
	Name  string
	Const bool
	Type  *TypeExpr
}

type Ident struct {
	Pos  lexer.Position
	Name string
}

type Self struct {
	Pos lexer.Position
}

type LitKind int

const (
	BoolLit LitKind = iota
	IntLit
	RealLit
)

// Literal is a scalar constant. TypeName names the scalar type selected by
// the literal's suffix.
type Literal struct {
	Pos      lexer.Position
	Kind     LitKind
	TypeName string
	Bool     bool
	Int      uint64
	Real     float64
	Text     string
}

type Unary struct {
	Pos lexer.Position
	Op  string
	X   Expr
}

type Binary struct {
	Pos lexer.Position
	Op  string
	X   Expr
	Y   Expr
}

type MemberAccess struct {
	Pos  lexer.Position
	X    Expr
	Name string
}

type IndexExpr struct {
	Pos   lexer.Position
	X     Expr
	Index Expr
}

type Deref struct {
	Pos lexer.Position
	X   Expr
}

// MethodCall invokes a reader or writer on an instance: `v.len()`.
type MethodCall struct {
	Pos  lexer.Position
	X    Expr
	Name string
	Args []Expr
}

// RoutineCall is `name(args)` or `Class::name(args)`. Without a class
// qualifier the name may also denote a class, making the call a constructor
// expression.
type RoutineCall struct {
	Pos   lexer.Position
	Class string
	Name  string
	Args  []Expr
}

// CCall calls an extern function: `c_call puts(s)`.
type CCall struct {
	Pos  lexer.Position
	Name string
	Args []Expr
}

func (s *AssignStmt) Position() lexer.Position  { return s.Pos }
func (s *IfElse) Position() lexer.Position      { return s.Pos }
func (s *While) Position() lexer.Position       { return s.Pos }
func (s *RepeatUntil) Position() lexer.Position { return s.Pos }
func (s *ScopeBlock) Position() lexer.Position  { return s.Pos }
func (s *Return) Position() lexer.Position      { return s.Pos }
func (s *Break) Position() lexer.Position       { return s.Pos }
func (s *Continue) Position() lexer.Position    { return s.Pos }

func (*AssignStmt) stmtNode()  {}
func (*IfElse) stmtNode()      {}
func (*While) stmtNode()       {}
func (*RepeatUntil) stmtNode() {}
func (*ScopeBlock) stmtNode()  {}
func (*Return) stmtNode()      {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}

func (e *Decl) Position() lexer.Position         { return e.Pos }
func (e *Ident) Position() lexer.Position        { return e.Pos }
func (e *Self) Position() lexer.Position         { return e.Pos }
func (e *Literal) Position() lexer.Position      { return e.Pos }
func (e *Unary) Position() lexer.Position        { return e.Pos }
func (e *Binary) Position() lexer.Position       { return e.Pos }
func (e *MemberAccess) Position() lexer.Position { return e.Pos }
func (e *IndexExpr) Position() lexer.Position    { return e.Pos }
func (e *Deref) Position() lexer.Position        { return e.Pos }
func (e *MethodCall) Position() lexer.Position   { return e.Pos }
func (e *RoutineCall) Position() lexer.Position  { return e.Pos }
func (e *CCall) Position() lexer.Position        { return e.Pos }

func (*Decl) exprNode()         {}
func (*Ident) exprNode()        {}
func (*Self) exprNode()         {}
func (*Literal) exprNode()      {}
func (*Unary) exprNode()        {}
func (*Binary) exprNode()       {}
func (*MemberAccess) exprNode() {}
func (*IndexExpr) exprNode()    {}
func (*Deref) exprNode()        {}
func (*MethodCall) exprNode()   {}
func (*RoutineCall) exprNode()  {}
func (*CCall) exprNode()        {}

// IsCall reports whether e is one of the call expression variants.
func IsCall(e Expr) bool {
	switch e.(type) {
	case *MethodCall, *RoutineCall, *CCall:
		return true
	}
	return false
}
