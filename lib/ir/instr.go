package ir

import (
	"fmt"
	"strings"
)

type Instr interface {
	// Name is the opcode, used when counting instruction shapes.
	Name() string
	String() string
	base() *link
}

type Label struct {
	link
	ID   int
	Hint string
}

func (*Label) Name() string     { return "label" }
func (l *Label) String() string { return l.Ref() + ":" }
func (l *Label) Ref() string    { return fmt.Sprintf("%s.%d", l.Hint, l.ID) }

type Goto struct {
	link
	Target *Label
}

func (*Goto) Name() string     { return "goto" }
func (g *Goto) String() string { return "goto " + g.Target.Ref() }

type Branch struct {
	link
	Cond        Op
	True, False *Label
}

func (*Branch) Name() string { return "branch" }
func (b *Branch) String() string {
	return fmt.Sprintf("branch %s, %s, %s", b.Cond, b.True.Ref(), b.False.Ref())
}

type AssignKind int

const (
	Move AssignKind = iota
	Add
	Sub
	Mul
	Div
	Rem
	And
	Or
	Xor
	Neg
	Not
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	// Convert changes the scalar kind of its argument to the kind of Dst.
	Convert
	// PtrAdd offsets a pointer by an integer byte count.
	PtrAdd
	// Splat broadcasts a scalar to every lane of a vector.
	Splat
	// Select picks lanes from Args[1] where the mask Args[0] is set and from
	// Args[2] elsewhere.
	Select
)

var assignNames = [...]string{
	"move", "add", "sub", "mul", "div", "rem", "and", "or", "xor", "neg", "not",
	"eq", "ne", "lt", "le", "gt", "ge", "convert", "ptradd", "splat", "select",
}

func (k AssignKind) String() string { return assignNames[k] }

// IsCompare reports whether k yields a boolean.
func (k AssignKind) IsCompare() bool { return k >= Eq && k <= Ge }

// Assign computes Dst from Args; Dst is a Reg or a Var.
type Assign struct {
	link
	Kind AssignKind
	Dst  Op
	Args []Op
}

func (*Assign) Name() string { return "assign" }
func (a *Assign) String() string {
	return fmt.Sprintf("%s = %s %s", a.Dst, a.Kind, joinOps(a.Args))
}

// Load reads Dst from Ptr plus Offset.
type Load struct {
	link
	Dst    Op
	Ptr    Op
	Offset *StructOffset
}

func (*Load) Name() string { return "load" }
func (l *Load) String() string {
	return fmt.Sprintf("%s = load %s [%s%s]", l.Dst, l.Dst.Type(), l.Ptr, l.Offset)
}

type Store struct {
	link
	Ptr    Op
	Offset *StructOffset
	Src    Op
}

func (*Store) Name() string { return "store" }
func (s *Store) String() string {
	return fmt.Sprintf("store [%s%s], %s", s.Ptr, s.Offset, s.Src)
}

// Lea computes the address Ptr plus Offset.
type Lea struct {
	link
	Dst    Op
	Ptr    Op
	Offset *StructOffset
}

func (*Lea) Name() string { return "lea" }
func (l *Lea) String() string {
	return fmt.Sprintf("%s = lea [%s%s]", l.Dst, l.Ptr, l.Offset)
}

// Alloc allocates Size bytes of heap memory.
type Alloc struct {
	link
	Dst  Op
	Size Op
}

func (*Alloc) Name() string { return "alloc" }
func (a *Alloc) String() string {
	return fmt.Sprintf("%s = alloc %s", a.Dst, a.Size)
}

type Memcpy struct {
	link
	Dst, Src Op
	Size     Op
}

func (*Memcpy) Name() string { return "memcpy" }
func (m *Memcpy) String() string {
	return fmt.Sprintf("memcpy %s, %s, %s", m.Dst, m.Src, m.Size)
}

// Call passes In (hidden self, arguments, then hidden result addresses) and
// receives the by-value results into Out.
type Call struct {
	link
	Callee *FuncDecl
	In     []Op
	Out    []Op
}

func (*Call) Name() string { return "call" }
func (c *Call) String() string {
	if len(c.Out) == 0 {
		return fmt.Sprintf("call %s(%s)", c.Callee.ID, joinOps(c.In))
	}
	return fmt.Sprintf("%s = call %s(%s)", joinOps(c.Out), c.Callee.ID, joinOps(c.In))
}

// SetParams binds the incoming parameters at function entry.
type SetParams struct {
	link
	Params []Op
}

func (*SetParams) Name() string     { return "params" }
func (p *SetParams) String() string { return "params " + joinOps(p.Params) }

// SetResults hands the by-value results back at the epilogue.
type SetResults struct {
	link
	Results []Op
}

func (*SetResults) Name() string     { return "results" }
func (r *SetResults) String() string { return "results " + joinOps(r.Results) }

func joinOps(ops []Op) string {
	parts := make([]string, len(ops))
	for i, o := range ops {
		parts[i] = o.String()
	}
	return strings.Join(parts, ", ")
}
