package vectorizer

import (
	"fmt"

	lltypes "github.com/llir/llvm/ir/types"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/ir"
	"github.com/vyPal/Lanec/lib/types"
)

// Packed returns the packed layout of a simd class: W instances stored
// lane by lane. It returns nil, after reporting, if cl cannot be packed.
func (v *Vectorizer) Packed(cl *types.Class) *ir.Struct {
	if s, ok := v.packed[cl]; ok {
		return s
	}
	scalar := v.comp.Layout(cl)
	if scalar == nil || !cl.Simd {
		v.packed[cl] = nil
		return nil
	}
	mask := ir.Scalar(ir.IntOfSize(widest(cl))).Vector(v.width)

	s := ir.NewStruct(fmt.Sprintf("%s.x%d", cl.Name, v.width))
	s.Packed = true
	s.Lanes = v.width
	var fields []lltypes.Type
	ok := true
	for _, mv := range cl.Vars {
		sm := scalar.Member(mv.Name)
		pm := &ir.Member{Name: mv.Name}
		switch t := mv.Type.(type) {
		case *types.ClassType:
			if !t.Class.Simd {
				v.errorf(diag.NotVectorizable, mv.Pos, "class %s is simd but its member '%s' has non-simd class %s", cl.Name, mv.Name, t.Class.Name)
				ok = false
				continue
			}
			pm.Struct = v.Packed(t.Class)
			if pm.Struct == nil {
				ok = false
				continue
			}
		case *types.Container:
			pm.Container = true
		default:
			switch {
			case sm.Type.Kind == ir.Bool:
				pm.Type = mask
				v.masks[pm] = true
			case sm.Type.Kind == ir.Ptr:
				pm.Type = sm.Type
			default:
				pm.Type = sm.Type.Vector(v.width)
			}
		}
		s.Append(pm)
		v.members[sm] = pm
		fields = append(fields, pm.LL())
	}
	s.Finish()
	if !ok {
		v.packed[cl] = nil
		return nil
	}
	handle := lltypes.NewStruct(fields...)
	handle.SetName(s.Name)
	s.Handle = handle
	v.packed[cl] = s
	v.byScalar[scalar] = s
	v.Module.Structs = append(v.Module.Structs, s)
	return s
}

// widest is the byte size of the widest scalar of cl, nested simd classes
// included. Bool lanes are stored with this width.
func widest(cl *types.Class) int64 {
	var w int64 = 1
	for _, mv := range cl.Vars {
		var n int64
		switch t := mv.Type.(type) {
		case *types.Scalar:
			n = t.Kind.Size()
		case *types.ClassType:
			if t.Class.Simd && t.Class != cl {
				n = widest(t.Class)
			}
		}
		if n > w {
			w = n
		}
	}
	return w
}

// offset maps a member path of a scalar layout onto the packed layout.
// Container header fields map to themselves.
func (v *Vectorizer) offset(o *ir.StructOffset) (*ir.StructOffset, *ir.Member, bool) {
	if o == nil || len(o.Path) == 0 {
		return nil, nil, false
	}
	var path []*ir.Member
	for _, m := range o.Path {
		if m == ir.HeaderData || m == ir.HeaderLen {
			path = append(path, m)
			continue
		}
		pm, ok := v.members[m]
		if !ok {
			return nil, nil, false
		}
		path = append(path, pm)
	}
	return ir.NewOffset(path...), path[len(path)-1], true
}
