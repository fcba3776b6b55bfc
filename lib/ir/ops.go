package ir

import (
	"fmt"
	"math"
)

// Op is an instruction operand.
type Op interface {
	Type() Type
	String() string
}

type Const struct {
	Typ Type
	// Bits holds integers and booleans; reals use Real.
	Bits uint64
	Real float64
}

func IntConst(t Type, v uint64) *Const    { return &Const{Typ: t, Bits: v} }
func RealConst(t Type, v float64) *Const  { return &Const{Typ: t, Real: v} }
func BoolConst(v bool) *Const {
	if v {
		return &Const{Typ: BoolType, Bits: 1}
	}
	return &Const{Typ: BoolType}
}
func Zero(t Type) *Const { return &Const{Typ: t} }

func (c *Const) Type() Type { return c.Typ }

func (c *Const) String() string {
	var s string
	switch {
	case c.Typ.Kind.IsReal():
		s = fmt.Sprintf("%g", c.Real)
	case c.Typ.Kind == Ptr && c.Bits == 0:
		s = "null"
	case c.Typ.Kind.IsSigned():
		s = fmt.Sprintf("%d", int64(c.Bits))
	default:
		s = fmt.Sprintf("%d", c.Bits)
	}
	if c.Typ.IsVector() {
		return fmt.Sprintf("%s splat(%s)", c.Typ, s)
	}
	return fmt.Sprintf("%s %s", c.Typ, s)
}

// RealBits returns the IEEE bits of a real constant of its width.
func (c *Const) RealBits() uint64 {
	if c.Typ.Kind == Real32 {
		return uint64(math.Float32bits(float32(c.Real)))
	}
	return math.Float64bits(c.Real)
}

// Reg is a temporary assigned exactly once.
type Reg struct {
	ID  int
	Typ Type
}

func (r *Reg) Type() Type     { return r.Typ }
func (r *Reg) String() string { return fmt.Sprintf("%%r%d", r.ID) }

// Var is a mutable atomic variable: a local, a by-value parameter, or the
// address held by a pointer parameter.
type Var struct {
	ID   int
	Name string
	Typ  Type
}

func (v *Var) Type() Type     { return v.Typ }
func (v *Var) String() string { return fmt.Sprintf("$%s.%d", v.Name, v.ID) }

// Slot is stack memory of the function. As an operand it is its address.
type Slot struct {
	ID    int
	Name  string
	Size  int64
	Align int64
	// Struct is the layout stored in the slot, nil for raw storage.
	Struct *Struct
}

func (s *Slot) Type() Type     { return PtrType }
func (s *Slot) String() string { return fmt.Sprintf("&%s.%d", s.Name, s.ID) }
