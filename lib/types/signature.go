package types

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

type Param struct {
	Name  string
	Pos   lexer.Position
	Type  Type
	Out   bool
	Local *Local
}

// Hidden reports whether the parameter is an out-parameter passed as a
// caller-allocated address.
func (p *Param) Hidden() bool {
	return p.Out && !IsAtomic(p.Type)
}

type Signature struct {
	In  []*Param
	Out []*Param
}

func (s *Signature) InTypes() []Type {
	out := make([]Type, len(s.In))
	for i, p := range s.In {
		out[i] = p.Type
	}
	return out
}

func (s *Signature) OutTypes() []Type {
	out := make([]Type, len(s.Out))
	for i, p := range s.Out {
		out[i] = p.Type
	}
	return out
}

// HiddenOuts are the non-atomic results, passed by the caller as trailing
// pointer arguments.
func (s *Signature) HiddenOuts() []*Param {
	var out []*Param
	for _, p := range s.Out {
		if p.Hidden() {
			out = append(out, p)
		}
	}
	return out
}

// AtomicOuts are the results returned by value.
func (s *Signature) AtomicOuts() []*Param {
	var out []*Param
	for _, p := range s.Out {
		if !p.Hidden() {
			out = append(out, p)
		}
	}
	return out
}

// Applicable reports whether args match the in-group by exact arity and
// pairwise Check.
func (s *Signature) Applicable(args []Type) bool {
	if len(args) != len(s.In) {
		return false
	}
	for i, p := range s.In {
		if !Check(p.Type, args[i]) {
			return false
		}
	}
	return true
}

// Equal compares both groups structurally. Error types never compare equal so
// a broken declaration does not also report as a duplicate.
func (s *Signature) Equal(o *Signature) bool {
	return paramsEqual(s.In, o.In) && paramsEqual(s.Out, o.Out)
}

func paramsEqual(a, b []*Param) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Identical(a[i].Type, b[i].Type) {
			return false
		}
	}
	return true
}

func (s *Signature) String() string {
	var sb strings.Builder
	writeParams(&sb, s.In)
	if len(s.Out) > 0 {
		sb.WriteString(" -> ")
		writeParams(&sb, s.Out)
	}
	return sb.String()
}

func writeParams(sb *strings.Builder, ps []*Param) {
	sb.WriteByte('(')
	for i, p := range ps {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Type.String())
	}
	sb.WriteByte(')')
}

// TypeList renders a list of argument types for diagnostics.
func TypeList(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
