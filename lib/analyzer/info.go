package analyzer

import (
	"github.com/vyPal/Lanec/lib/ast"
	"github.com/vyPal/Lanec/lib/types"
)

// CallKind classifies how one assignment or construction is carried out.
type CallKind int

const (
	// Copy is a scalar or pointer store. Without a right-hand side it zero
	// initializes the target.
	Copy CallKind = iota
	// User calls a declared (or auto-generated) create or assign.
	User
	ContainerCopy
	// ContainerCreate allocates a container from an index-typed size.
	ContainerCreate
	// Empty marks a pair whose analysis already failed; nothing is emitted.
	Empty
	// InitializedByCaller declares a non-atomic local whose storage is handed
	// to the callee as its hidden result pointer.
	InitializedByCaller
	// AddressOf stores the address of a pointee-typed value into a pointer.
	AddressOf
)

var callKindNames = [...]string{"copy", "user", "container-copy", "container-create", "empty", "initialized-by-caller", "address-of"}

func (k CallKind) String() string { return callKindNames[k] }

// Value is one result of a right-hand expression. Multi-result calls produce
// one Value per result.
type Value struct {
	Expr  ast.Expr
	Index int
	Type  types.Type
}

// Pair is one classified left-hand side of an assignment.
type Pair struct {
	Kind CallKind
	Lhs  ast.Expr
	// Values feeds the left-hand side: the argument list for a User call, a
	// single value otherwise, empty for default initialization.
	Values []Value
	Fn     *types.MemberFunction
	// Decl is set when the left-hand side declares a new local.
	Decl *types.Local
}

// Assignment is the analysis of one AssignStmt.
type Assignment struct {
	Pairs []*Pair
	// Discard lists the calls of an expression statement, evaluated only for
	// their effect.
	Discard []ast.Expr
	// Exprs are all distinct right-hand expressions in source order; each is
	// evaluated exactly once.
	Exprs []ast.Expr
}

// Call records the resolution of a call expression, of an operator applied
// to a class value, or of a constructor expression.
type Call struct {
	Fn     *types.MemberFunction
	Extern *types.Extern
	// Recv is the instance a reader or writer is invoked on; for a
	// constructor expression it is nil and the callee initializes a
	// temporary.
	Recv ast.Expr
	Args []ast.Expr
	// Construct marks `C(args)`.
	Construct bool
	// Convert is set for a scalar conversion `real32(x)`.
	Convert *types.Scalar
}

// Info holds the results of analysis, keyed by syntax node.
type Info struct {
	Types   map[ast.Expr][]types.Type
	Uses    map[*ast.Ident]*types.Local
	Selfs   map[*ast.Self]*types.Local
	Decls   map[*ast.Decl]*types.Local
	Members map[*ast.MemberAccess]*types.MemberVar
	Calls   map[ast.Expr]*Call
	Assigns map[*ast.AssignStmt]*Assignment

	// Foldable is true for member accesses whose whole chain resolves to a
	// constant offset from a variable's storage.
	Foldable map[*ast.MemberAccess]bool

	Scopes     map[ast.Node]*types.Scope
	ElseScopes map[*ast.IfElse]*types.Scope
	Funcs      map[*ast.MemberFunc]*types.MemberFunction
}

func NewInfo() *Info {
	return &Info{
		Types:      make(map[ast.Expr][]types.Type),
		Uses:       make(map[*ast.Ident]*types.Local),
		Selfs:      make(map[*ast.Self]*types.Local),
		Decls:      make(map[*ast.Decl]*types.Local),
		Members:    make(map[*ast.MemberAccess]*types.MemberVar),
		Calls:      make(map[ast.Expr]*Call),
		Assigns:    make(map[*ast.AssignStmt]*Assignment),
		Foldable:   make(map[*ast.MemberAccess]bool),
		Scopes:     make(map[ast.Node]*types.Scope),
		ElseScopes: make(map[*ast.IfElse]*types.Scope),
		Funcs:      make(map[*ast.MemberFunc]*types.MemberFunction),
	}
}

// TypeOf returns the single type of e, or nil if e yields zero or several
// values or was never analyzed.
func (i *Info) TypeOf(e ast.Expr) types.Type {
	ts := i.Types[e]
	if len(ts) != 1 {
		return nil
	}
	return ts[0]
}

// LocalOf returns the variable an Ident, Self or Decl is bound to.
func (i *Info) LocalOf(e ast.Expr) *types.Local {
	switch x := e.(type) {
	case *ast.Ident:
		return i.Uses[x]
	case *ast.Self:
		return i.Selfs[x]
	case *ast.Decl:
		return i.Decls[x]
	}
	return nil
}
