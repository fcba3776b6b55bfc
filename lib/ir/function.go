package ir

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Function is the instruction stream of one member function. Entry is the
// first instruction and Epilogue is followed only by the SetResults.
type Function struct {
	Decl     *FuncDecl
	Body     *List
	Entry    *Label
	Epilogue *Label

	Params  *SetParams
	Results *SetResults

	Vars  []*Var
	Slots []*Slot

	regs, labels, vars, slots int
}

func NewFunction(decl *FuncDecl) *Function {
	f := &Function{Decl: decl, Body: &List{}}
	f.Entry = f.NewLabel("entry")
	f.Epilogue = f.NewLabel("epilogue")
	f.Params = &SetParams{}
	f.Results = &SetResults{}
	f.Body.PushBack(f.Entry)
	f.Body.PushBack(f.Params)
	f.Body.PushBack(f.Epilogue)
	f.Body.PushBack(f.Results)
	return f
}

func (f *Function) NewReg(t Type) *Reg {
	f.regs++
	return &Reg{ID: f.regs, Typ: t}
}

func (f *Function) NewVar(name string, t Type) *Var {
	f.vars++
	v := &Var{ID: f.vars, Name: name, Typ: t}
	f.Vars = append(f.Vars, v)
	return v
}

func (f *Function) NewSlot(name string, size, align int64) *Slot {
	f.slots++
	s := &Slot{ID: f.slots, Name: name, Size: size, Align: align}
	f.Slots = append(f.Slots, s)
	return s
}

// NewLabel allocates a label; it is not part of the stream until emitted.
func (f *Function) NewLabel(hint string) *Label {
	f.labels++
	return &Label{ID: f.labels, Hint: hint}
}

// Emit appends i to the body, before the epilogue.
func (f *Function) Emit(i Instr) {
	f.Body.InsertBefore(i, f.Epilogue)
}

// Instrs returns the body between the parameter binding and the epilogue.
func (f *Function) Instrs() []Instr {
	var out []Instr
	for i := Next(f.Params); i != nil && i != Instr(f.Epilogue); i = Next(i) {
		out = append(out, i)
	}
	return out
}

// Count returns how many instructions of the body have the given opcode.
func (f *Function) Count(name string) int {
	n := 0
	for _, i := range f.Instrs() {
		if i.Name() == name {
			n++
		}
	}
	return n
}

// Shape lists the opcodes of the body in order.
func (f *Function) Shape() []string {
	var out []string
	for _, i := range f.Instrs() {
		out = append(out, i.Name())
	}
	return out
}

// Verify checks the sentinels and that every branch targets a label that
// is part of the stream.
func (f *Function) Verify() error {
	if f.Body.Front() != Instr(f.Entry) || Next(f.Entry) != Instr(f.Params) {
		return errors.Errorf("%s: entry label and parameter binding must open the function", f.Decl.ID)
	}
	if f.Body.Back() != Instr(f.Results) || Prev(f.Results) != Instr(f.Epilogue) {
		return errors.Errorf("%s: epilogue and result binding must close the function", f.Decl.ID)
	}
	defined := make(map[*Reg]bool)
	for i := f.Body.Front(); i != nil; i = Next(i) {
		var targets []*Label
		switch x := i.(type) {
		case *Goto:
			targets = []*Label{x.Target}
		case *Branch:
			targets = []*Label{x.True, x.False}
		}
		for _, t := range targets {
			if t == nil || !f.Body.Contains(t) {
				return errors.Errorf("%s: %s targets a label outside the stream", f.Decl.ID, i)
			}
		}
		if r, ok := dst(i).(*Reg); ok {
			if defined[r] {
				return errors.Errorf("%s: register %s assigned twice", f.Decl.ID, r)
			}
			defined[r] = true
		}
	}
	return nil
}

func dst(i Instr) Op {
	switch x := i.(type) {
	case *Assign:
		return x.Dst
	case *Load:
		return x.Dst
	case *Lea:
		return x.Dst
	case *Alloc:
		return x.Dst
	}
	return nil
}

func (f *Function) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "func %s {\n", f.Decl)
	for _, s := range f.Slots {
		fmt.Fprintf(&sb, "\tslot %s size %d align %d\n", s, s.Size, s.Align)
	}
	for i := f.Body.Front(); i != nil; i = Next(i) {
		if _, ok := i.(*Label); ok {
			fmt.Fprintf(&sb, "%s\n", i)
			continue
		}
		fmt.Fprintf(&sb, "\t%s\n", i)
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Module is the lowered program.
type Module struct {
	Name      string
	Registry  *Registry
	Structs   []*Struct
	Functions []*Function
}

func NewModule(name string) *Module {
	return &Module{Name: name, Registry: NewRegistry()}
}

func (m *Module) Function(id string) *Function {
	for _, f := range m.Functions {
		if f.Decl.ID == id {
			return f
		}
	}
	return nil
}

func (m *Module) String() string {
	var sb strings.Builder
	for _, s := range m.Structs {
		sb.WriteString(s.String())
		sb.WriteByte('\n')
	}
	for _, d := range m.Registry.Decls() {
		if d.Extern {
			fmt.Fprintf(&sb, "extern %s\n", d)
		}
	}
	for _, f := range m.Functions {
		sb.WriteByte('\n')
		sb.WriteString(f.String())
	}
	return sb.String()
}
