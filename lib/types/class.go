package types

import (
	"sort"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/vyPal/Lanec/lib/ast"
)

// Member is *MemberVar or *MemberFunction.
type Member interface {
	MemberName() string
	MemberPos() lexer.Position
}

type MemberVar struct {
	Name  string
	Pos   lexer.Position
	Type  Type
	Class *Class
	Index int
}

func (v *MemberVar) MemberName() string        { return v.Name }
func (v *MemberVar) MemberPos() lexer.Position { return v.Pos }

type MemberFunction struct {
	Kind  ast.FuncKind
	Name  string
	Pos   lexer.Position
	Class *Class
	Simd  bool
	Sig   *Signature

	// Scope is the function's root scope; parameters live in it and it is
	// also the scope of the outermost body block.
	Scope *Scope
	Self  *Local

	Decl *ast.MemberFunc

	// AutoGenerated marks the default and copy constructors and the copy
	// assignment the analyzer adds to every class.
	AutoGenerated bool
	Copy          bool

	// Analyzed is set once the body has been checked without errors.
	Analyzed bool
}

func (f *MemberFunction) MemberName() string        { return f.Name }
func (f *MemberFunction) MemberPos() lexer.Position { return f.Pos }

// HasSelf reports whether the function receives the instance as a hidden
// first parameter.
func (f *MemberFunction) HasSelf() bool {
	switch f.Kind {
	case ast.Create, ast.Assign, ast.Reader, ast.Writer:
		return true
	}
	return false
}

// ConstSelf reports whether self may not be written through.
func (f *MemberFunction) ConstSelf() bool { return f.Kind == ast.Reader }

func (f *MemberFunction) String() string {
	if f.Kind == ast.Operator {
		return f.Class.Name + ".operator " + f.Name
	}
	return f.Class.Name + "." + f.Name
}

// Describe renders the function the way it appears in candidate lists.
func (f *MemberFunction) Describe() string {
	return f.Kind.String() + " " + f.String() + f.Sig.String()
}

type Class struct {
	Name string
	Pos  lexer.Position
	Simd bool
	Decl *ast.Class

	Members []Member
	Vars    []*MemberVar
	Funcs   []*MemberFunction

	vars  map[string]*MemberVar
	funcs map[string][]*MemberFunction
}

func NewClassDecl(decl *ast.Class) *Class {
	return &Class{
		Name:  decl.Name,
		Pos:   decl.Pos,
		Simd:  decl.Simd,
		Decl:  decl,
		vars:  make(map[string]*MemberVar),
		funcs: make(map[string][]*MemberFunction),
	}
}

// AddVar registers a member variable. It returns the previous declaration if
// the name is taken.
func (c *Class) AddVar(v *MemberVar) (*MemberVar, bool) {
	if prev, ok := c.vars[v.Name]; ok {
		return prev, false
	}
	v.Class = c
	v.Index = len(c.Vars)
	c.vars[v.Name] = v
	c.Vars = append(c.Vars, v)
	c.Members = append(c.Members, v)
	return v, true
}

func (c *Class) Var(name string) *MemberVar {
	return c.vars[name]
}

// AddFunc registers a member function unless a redundant one (same name, kind
// and in/out types) exists, which is returned instead.
func (c *Class) AddFunc(f *MemberFunction) (*MemberFunction, bool) {
	for _, g := range c.funcs[f.Name] {
		if g.Kind == f.Kind && g.Sig.Equal(f.Sig) {
			return g, false
		}
	}
	f.Class = c
	c.funcs[f.Name] = append(c.funcs[f.Name], f)
	c.Funcs = append(c.Funcs, f)
	c.Members = append(c.Members, f)
	return f, true
}

// Lookup returns every overload named name whose kind is one of kinds. With no
// kinds every overload is returned.
func (c *Class) Lookup(name string, kinds ...ast.FuncKind) []*MemberFunction {
	if len(kinds) == 0 {
		return c.funcs[name]
	}
	var out []*MemberFunction
	for _, f := range c.funcs[name] {
		for _, k := range kinds {
			if f.Kind == k {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func (c *Class) FuncNames() []string {
	names := make([]string, 0, len(c.funcs))
	for n := range c.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type Extern struct {
	Name string
	Pos  lexer.Position
	Sig  *Signature
	Decl *ast.Extern
}

// Program is the registry of every class and extern of a compilation unit.
type Program struct {
	Classes []*Class
	Externs []*Extern

	classes map[string]*Class
	externs map[string]*Extern
}

func NewProgram() *Program {
	return &Program{
		classes: make(map[string]*Class),
		externs: make(map[string]*Extern),
	}
}

func (p *Program) AddClass(c *Class) (*Class, bool) {
	if prev, ok := p.classes[c.Name]; ok {
		return prev, false
	}
	p.classes[c.Name] = c
	p.Classes = append(p.Classes, c)
	return c, true
}

func (p *Program) Class(name string) *Class {
	return p.classes[name]
}

func (p *Program) AddExtern(e *Extern) (*Extern, bool) {
	if prev, ok := p.externs[e.Name]; ok {
		return prev, false
	}
	p.externs[e.Name] = e
	p.Externs = append(p.Externs, e)
	return e, true
}

func (p *Program) Extern(name string) *Extern {
	return p.externs[name]
}
