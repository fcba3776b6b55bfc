package compiler

import (
	"strings"

	lltypes "github.com/llir/llvm/ir/types"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/ir"
	"github.com/vyPal/Lanec/lib/types"
)

// Layout returns the flattened layout of cl, building it and the layouts of
// every class it contains by value on first use. It returns nil if cl is
// part of a layout cycle or contains a class that is.
func (c *Compiler) Layout(cl *types.Class) *ir.Struct {
	return c.layout(cl, nil)
}

func (c *Compiler) layout(cl *types.Class, building []*types.Class) *ir.Struct {
	if s, ok := c.layouts[cl]; ok {
		return s
	}
	for i, b := range building {
		if b == cl {
			names := make([]string, 0, len(building)-i+1)
			for _, x := range building[i:] {
				names = append(names, x.Name)
			}
			names = append(names, cl.Name)
			c.errorf(diag.CyclicLayout, cl.Pos, "class %s contains itself by value: %s", cl.Name, strings.Join(names, " -> "))
			return nil
		}
	}
	building = append(building, cl)

	s := ir.NewStruct(cl.Name)
	var fields []lltypes.Type
	ok := true
	for _, v := range cl.Vars {
		m := &ir.Member{Name: v.Name}
		switch t := v.Type.(type) {
		case *types.ClassType:
			m.Struct = c.layout(t.Class, building)
			if m.Struct == nil {
				ok = false
				continue
			}
		case *types.Container:
			m.Container = true
		case *types.ErrorType:
			ok = false
			continue
		default:
			m.Type = irType(t)
		}
		s.Append(m)
		fields = append(fields, m.LL())
	}
	s.Finish()
	if !ok {
		c.layouts[cl] = nil
		return nil
	}
	handle := lltypes.NewStruct(fields...)
	handle.SetName(cl.Name)
	s.Handle = handle
	c.layouts[cl] = s
	c.Module.Structs = append(c.Module.Structs, s)
	return s
}

// member returns the layout entry of a member variable.
func (c *Compiler) member(v *types.MemberVar) *ir.Member {
	s := c.Layout(v.Class)
	if s == nil {
		diag.Bug("member %s.%s of a class without layout", v.Class.Name, v.Name)
	}
	return s.Member(v.Name)
}

// sizeOf returns the byte size and alignment of a value of type t.
func (c *Compiler) sizeOf(t types.Type) (int64, int64) {
	switch t := t.(type) {
	case *types.ClassType:
		s := c.Layout(t.Class)
		if s == nil {
			diag.Bug("size of %s without layout", t.Class.Name)
		}
		return s.Size, s.Align
	case *types.Container:
		return ir.HeaderSize, 8
	}
	n := types.AtomicSize(t)
	return n, n
}
