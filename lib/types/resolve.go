package types

import (
	"fmt"
	"strings"

	"github.com/vyPal/Lanec/lib/ast"
)

// ResolveError is returned when overload resolution does not find exactly one
// applicable member function.
type ResolveError struct {
	Name       string
	Receiver   string
	Args       []Type
	Ambiguous  bool
	Candidates []*MemberFunction
	Matches    []*MemberFunction
}

func (e *ResolveError) Error() string {
	var sb strings.Builder
	if e.Ambiguous {
		fmt.Fprintf(&sb, "ambiguous call to %s.%s%s", e.Receiver, e.Name, TypeList(e.Args))
	} else {
		fmt.Fprintf(&sb, "no applicable %s for %s with arguments %s", e.Name, e.Receiver, TypeList(e.Args))
	}
	list := e.Candidates
	if e.Ambiguous {
		list = e.Matches
	}
	for _, c := range list {
		fmt.Fprintf(&sb, "\n\tcandidate %s at %s", c.Describe(), c.Pos)
	}
	return sb.String()
}

// Resolve picks the single candidate applicable to args. Declaration order
// never breaks a tie.
func Resolve(name string, cands []*MemberFunction, args []Type) (*MemberFunction, error) {
	var matches []*MemberFunction
	for _, c := range cands {
		if c.Sig.Applicable(args) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	err := &ResolveError{Name: name, Args: args, Candidates: cands, Matches: matches, Ambiguous: len(matches) > 1}
	if len(cands) > 0 {
		err.Receiver = cands[0].Class.Name
	}
	return nil, err
}

// ResolveMember looks name up in c restricted to kinds and resolves it.
func ResolveMember(c *Class, name string, args []Type, kinds ...ast.FuncKind) (*MemberFunction, error) {
	f, err := Resolve(name, c.Lookup(name, kinds...), args)
	if rerr, ok := err.(*ResolveError); ok {
		rerr.Receiver = c.Name
	}
	return f, err
}

// ResolveOperator resolves an operator call whose left operand has class c.
// Minus is declarable with one or two parameters; candidates are narrowed by
// the number of arguments at the call site, and if both arities accept the
// left operand the call is rejected as ambiguous.
func ResolveOperator(c *Class, op string, args []Type) (*MemberFunction, error) {
	cands := c.Lookup(op, ast.Operator)
	if op == "-" && len(args) > 0 {
		var unary, binary []*MemberFunction
		for _, f := range cands {
			switch len(f.Sig.In) {
			case 1:
				unary = append(unary, f)
			case 2:
				binary = append(binary, f)
			}
		}
		for _, u := range unary {
			for _, b := range binary {
				if Check(u.Sig.In[0].Type, b.Sig.In[0].Type) && Check(u.Sig.In[0].Type, args[0]) {
					return nil, &ResolveError{
						Name:       "operator -",
						Receiver:   c.Name,
						Args:       args,
						Ambiguous:  true,
						Candidates: cands,
						Matches:    []*MemberFunction{u, b},
					}
				}
			}
		}
		if len(args) == 1 {
			cands = unary
		} else {
			cands = binary
		}
	}
	f, err := Resolve("operator "+op, cands, args)
	if rerr, ok := err.(*ResolveError); ok {
		rerr.Receiver = c.Name
	}
	return f, err
}

type Builtin int

const (
	NotBuiltin Builtin = iota
	// BuiltinCopy is a bitwise copy of a scalar or pointer, or an element-wise
	// copy of a container.
	BuiltinCopy
	// BuiltinAlloc allocates a container from an index-typed size.
	BuiltinAlloc
	// BuiltinAddress points a pointer at a value of its pointee type.
	BuiltinAddress
)

// Construct resolves construction or assignment of a value of type t from
// args. Scalars, pointers and containers are handled without member
// functions; classes resolve against their create or assign overloads.
func Construct(t Type, kind ast.FuncKind, args []Type) (*MemberFunction, Builtin, error) {
	switch x := t.(type) {
	case *ErrorType:
		return nil, NotBuiltin, nil
	case *Scalar:
		if len(args) == 1 && Check(t, args[0]) {
			return nil, BuiltinCopy, nil
		}
	case *Ptr:
		if len(args) == 1 {
			if Check(x.Inner, args[0]) {
				return nil, BuiltinAddress, nil
			}
			if Check(t, args[0]) {
				return nil, BuiltinCopy, nil
			}
		}
	case *Container:
		if len(args) == 1 {
			if Check(t, args[0]) {
				return nil, BuiltinCopy, nil
			}
			if IsIndex(args[0]) {
				return nil, BuiltinAlloc, nil
			}
		}
	case *ClassType:
		f, err := ResolveMember(x.Class, kind.String(), args, kind)
		return f, NotBuiltin, err
	}
	return nil, NotBuiltin, &ResolveError{Name: kind.String(), Receiver: t.Name(), Args: args}
}
