package types

import (
	"sort"

	"github.com/alecthomas/participle/v2/lexer"
)

// Local is a variable binding: a declared local, a parameter, or self.
type Local struct {
	Name  string
	Pos   lexer.Position
	Type  Type
	Param *Param
	Self  bool
}

func (l *Local) IsParam() bool { return l.Param != nil }

// Scope is one level of the lexical scope tree. The parent link is only used
// for lookup; scopes are owned by the node that opened them.
type Scope struct {
	parent *Scope
	locals map[string]*Local
	// Function is set on a function's root scope.
	Function *MemberFunction
}

func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, locals: make(map[string]*Local)}
}

func (s *Scope) Parent() *Scope { return s.parent }

// Insert binds l at this level. On collision the existing binding is returned
// with ok == false.
func (s *Scope) Insert(l *Local) (*Local, bool) {
	if prev, ok := s.locals[l.Name]; ok {
		return prev, false
	}
	s.locals[l.Name] = l
	return l, true
}

func (s *Scope) LookupLocal(name string) *Local {
	return s.locals[name]
}

// Lookup walks from s to the root; the innermost binding wins.
func (s *Scope) Lookup(name string) *Local {
	for sc := s; sc != nil; sc = sc.parent {
		if l, ok := sc.locals[name]; ok {
			return l
		}
	}
	return nil
}

// Root returns the outermost scope of the chain.
func (s *Scope) Root() *Scope {
	sc := s
	for sc.parent != nil {
		sc = sc.parent
	}
	return sc
}

// Locals returns the bindings of this level sorted by name.
func (s *Scope) Locals() []*Local {
	out := make([]*Local, 0, len(s.locals))
	for _, l := range s.locals {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scope) Len() int { return len(s.locals) }
