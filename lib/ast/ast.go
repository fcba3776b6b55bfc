// Package ast holds the syntax tree consumed by the analyzer and the IR
// generator. Node categories are closed sets: every Stmt and Expr is one of the
// types declared in this package.
package ast

import "github.com/alecthomas/participle/v2/lexer"

type Node interface {
	Position() lexer.Position
}

type Program struct {
	Classes []*Class
	Externs []*Extern
}

type Class struct {
	Pos     lexer.Position
	Name    string
	Simd    bool
	Members []Member
}

// Member is either *MemberVar or *MemberFunc.
type Member interface {
	Node
	memberNode()
}

type MemberVar struct {
	Pos  lexer.Position
	Name string
	Type *TypeExpr
}

type FuncKind int

const (
	Create FuncKind = iota
	Assign
	Reader
	Writer
	Routine
	Operator
)

var funcKindNames = [...]string{"create", "assign", "reader", "writer", "routine", "operator"}

func (k FuncKind) String() string { return funcKindNames[k] }

// FuncKindByName maps a keyword to its kind.
func FuncKindByName(s string) (FuncKind, bool) {
	for i, n := range funcKindNames {
		if n == s {
			return FuncKind(i), true
		}
	}
	return 0, false
}

type MemberFunc struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Kind   FuncKind
	Name   string
	Simd   bool
	In     []*Param
	Out    []*Param
	Body   []Stmt
}

type Extern struct {
	Pos  lexer.Position
	Name string
	In   []*Param
	Out  []*Param
}

type Qualifier int

const (
	QualNone Qualifier = iota
	QualVar
	QualConst
	QualRef
	QualConstRef
)

type Param struct {
	Pos  lexer.Position
	Name string
	Qual Qualifier
	Type *TypeExpr
}

type ContainerKind int

const (
	NoContainer ContainerKind = iota
	PtrKind
	ArrayKind
	SimdKind
)

// TypeExpr is a written type: a name or ptr{T}, array{T}, simd{T}.
type TypeExpr struct {
	Pos       lexer.Position
	Name      string
	Container ContainerKind
	Inner     *TypeExpr
}

func (t *TypeExpr) String() string {
	switch t.Container {
	case PtrKind:
		return "ptr{" + t.Inner.String() + "}"
	case ArrayKind:
		return "array{" + t.Inner.String() + "}"
	case SimdKind:
		return "simd{" + t.Inner.String() + "}"
	}
	return t.Name
}

func (c *Class) Position() lexer.Position      { return c.Pos }
func (m *MemberVar) Position() lexer.Position  { return m.Pos }
func (m *MemberFunc) Position() lexer.Position { return m.Pos }
func (e *Extern) Position() lexer.Position     { return e.Pos }
func (p *Param) Position() lexer.Position      { return p.Pos }
func (t *TypeExpr) Position() lexer.Position   { return t.Pos }

func (*MemberVar) memberNode()  {}
func (*MemberFunc) memberNode() {}
