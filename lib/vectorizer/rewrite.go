package vectorizer

import (
	"fmt"

	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/ir"
	"github.com/vyPal/Lanec/lib/types"
)

// lane says how an operand of a packed function relates to its W
// instances.
type lane int

const (
	// uniform operands hold one value shared by every lane.
	uniform lane = iota
	// packed operands are addresses of lane-major memory: a packed struct
	// or a W-lane vector.
	packed
	// varying operands are W-lane vectors.
	varying
)

func (l lane) String() string {
	return [...]string{"uniform", "packed", "varying"}[l]
}

// notVectorizable aborts a rewrite.
type notVectorizable struct {
	msg string
}

type rewriter struct {
	*Vectorizer
	fn  *types.MemberFunction
	src *ir.Function
	dst *ir.Function

	lanes  map[ir.Op]lane
	ops    map[ir.Op]ir.Op
	labels map[*ir.Label]*ir.Label
}

// rewrite builds the packed function of f from its scalar lowering. It
// returns nil after reporting if the body cannot run lane-parallel.
func (v *Vectorizer) rewrite(f *types.MemberFunction, src *ir.Function) (pf *ir.Function) {
	d, _ := v.Module.Registry.Packed(src.Decl)
	r := &rewriter{
		Vectorizer: v,
		fn:         f,
		src:        src,
		dst:        ir.NewFunction(d),
		lanes:      make(map[ir.Op]lane),
		ops:        make(map[ir.Op]ir.Op),
		labels:     map[*ir.Label]*ir.Label{},
	}
	r.labels[src.Entry] = r.dst.Entry
	r.labels[src.Epilogue] = r.dst.Epilogue

	defer func() {
		if e := recover(); e != nil {
			nv, ok := e.(notVectorizable)
			if !ok {
				panic(e)
			}
			v.errorf(diag.NotVectorizable, f.Pos, "%s cannot be vectorized: %s", f, nv.msg)
			pf = nil
		}
	}()

	params := v.params[d]
	for i, p := range src.Params.Params {
		r.lanes[p] = params[i]
	}
	for i, p := range src.Results.Results {
		r.lanes[p] = v.results[d][i]
	}
	r.analyze()

	for _, p := range src.Params.Params {
		r.dst.Params.Params = append(r.dst.Params.Params, r.op(p))
	}
	for _, p := range src.Results.Results {
		r.dst.Results.Results = append(r.dst.Results.Results, r.op(p))
	}
	for _, i := range src.Instrs() {
		r.instr(i)
	}
	if err := r.dst.Verify(); err != nil {
		diag.Bug("%v", err)
	}
	return r.dst
}

func (r *rewriter) fail(format string, args ...interface{}) {
	panic(notVectorizable{msg: fmt.Sprintf(format, args...)})
}

func (r *rewriter) lane(o ir.Op) lane {
	return r.lanes[o]
}

// raise moves o to a higher lane and reports whether that changed anything.
func (r *rewriter) raise(o ir.Op, l lane) bool {
	if o == nil || l <= r.lanes[o] {
		return false
	}
	if _, ok := o.(*ir.Const); ok {
		return false
	}
	r.lanes[o] = l
	return true
}

// analyze propagates lanes through the scalar body until nothing changes.
// Vars are assigned in loops, so one pass is not enough.
func (r *rewriter) analyze() {
	for _, s := range r.src.Slots {
		if s.Struct != nil && r.byScalar[s.Struct] != nil {
			r.lanes[s] = packed
		}
	}
	for changed := true; changed; {
		changed = false
		for _, i := range r.src.Instrs() {
			switch x := i.(type) {
			case *ir.Assign:
				l := uniform
				switch x.Kind {
				case ir.Move:
					l = r.lane(x.Args[0])
				case ir.PtrAdd:
				default:
					for _, a := range x.Args {
						if r.lane(a) == varying {
							l = varying
						}
					}
				}
				changed = r.raise(x.Dst, l) || changed
			case *ir.Load:
				changed = r.raise(x.Dst, r.loaded(x.Ptr, x.Offset)) || changed
			case *ir.Lea:
				if r.lane(x.Ptr) == packed {
					changed = r.raise(x.Dst, packed) || changed
				}
			case *ir.Store:
				// a varying value spilled for a ref argument
				if x.Offset == nil && r.lane(x.Src) == varying {
					if s, ok := x.Ptr.(*ir.Slot); ok {
						changed = r.raise(s, packed) || changed
					}
				}
			case *ir.Call:
				if d, ok := r.Module.Registry.Packed(x.Callee); ok {
					for j, o := range x.Out {
						changed = r.raise(o, r.results[d][j]) || changed
					}
				}
			}
		}
	}
}

// loaded is the lane of a value read from ptr plus off.
func (r *rewriter) loaded(ptr ir.Op, off *ir.StructOffset) lane {
	if r.lane(ptr) != packed {
		return uniform
	}
	if off == nil || len(off.Path) == 0 {
		return varying
	}
	if _, m, ok := r.offset(off); ok && m.Type.IsVector() {
		return varying
	}
	return uniform
}

// op returns the packed counterpart of a scalar operand, creating it on
// first use.
func (r *rewriter) op(o ir.Op) ir.Op {
	if n, ok := r.ops[o]; ok {
		return n
	}
	var n ir.Op
	switch x := o.(type) {
	case *ir.Const:
		return x
	case *ir.Reg:
		n = r.dst.NewReg(r.laneType(x.Typ, r.lane(x)))
	case *ir.Var:
		n = r.dst.NewVar(x.Name, r.laneType(x.Typ, r.lane(x)))
	case *ir.Slot:
		s := r.dst.NewSlot(x.Name, x.Size, x.Align)
		if r.lane(x) == packed {
			if x.Struct != nil {
				s.Struct = r.byScalar[x.Struct]
				s.Size, s.Align = s.Struct.Size, s.Struct.Align
			} else {
				s.Size *= int64(r.width)
				s.Align = s.Size
			}
		} else {
			s.Struct = x.Struct
		}
		n = s
	default:
		diag.Bug("unexpected operand %s", o)
	}
	r.ops[o] = n
	return n
}

// vec returns o as a W-lane vector, broadcasting uniform values.
func (r *rewriter) vec(o ir.Op) ir.Op {
	n := r.op(o)
	if n.Type().IsVector() {
		return n
	}
	s := r.dst.NewReg(n.Type().Vector(r.width))
	r.dst.Emit(&ir.Assign{Kind: ir.Splat, Dst: s, Args: []ir.Op{n}})
	return s
}

func (r *rewriter) label(l *ir.Label) *ir.Label {
	if n, ok := r.labels[l]; ok {
		return n
	}
	n := r.dst.NewLabel(l.Hint)
	r.labels[l] = n
	return n
}

func (r *rewriter) mapOffset(off *ir.StructOffset) (*ir.StructOffset, *ir.Member) {
	o, m, ok := r.offset(off)
	if !ok {
		r.fail("access %s is not part of a packed layout", off)
	}
	return o, m
}

func (r *rewriter) instr(i ir.Instr) {
	switch x := i.(type) {
	case *ir.Label:
		r.dst.Emit(r.label(x))
	case *ir.Goto:
		r.dst.Emit(&ir.Goto{Target: r.label(x.Target)})
	case *ir.Branch:
		if r.lane(x.Cond) == varying {
			r.fail("branch on a lane-varying condition")
		}
		r.dst.Emit(&ir.Branch{Cond: r.op(x.Cond), True: r.label(x.True), False: r.label(x.False)})
	case *ir.Assign:
		r.assign(x)
	case *ir.Load:
		r.load(x)
	case *ir.Store:
		r.store(x)
	case *ir.Lea:
		off := x.Offset
		if r.lane(x.Ptr) == packed {
			off, _ = r.mapOffset(x.Offset)
		}
		r.dst.Emit(&ir.Lea{Dst: r.op(x.Dst), Ptr: r.op(x.Ptr), Offset: off})
	case *ir.Alloc, *ir.Memcpy:
		r.fail("allocates heap memory")
	case *ir.Call:
		r.call(x)
	default:
		diag.Bug("unexpected instruction %s", i)
	}
}

func (r *rewriter) assign(x *ir.Assign) {
	if x.Kind == ir.PtrAdd {
		for _, a := range x.Args {
			if r.lane(a) == varying {
				r.fail("address depends on a lane-varying value")
			}
		}
	}
	dst := r.op(x.Dst)
	args := make([]ir.Op, len(x.Args))
	for j, a := range x.Args {
		if dst.Type().IsVector() {
			args[j] = r.vec(a)
		} else {
			args[j] = r.op(a)
		}
	}
	r.dst.Emit(&ir.Assign{Kind: x.Kind, Dst: dst, Args: args})
}

func (r *rewriter) load(x *ir.Load) {
	if r.lane(x.Ptr) != packed || x.Offset == nil || len(x.Offset.Path) == 0 {
		r.dst.Emit(&ir.Load{Dst: r.op(x.Dst), Ptr: r.op(x.Ptr), Offset: x.Offset})
		return
	}
	off, m := r.mapOffset(x.Offset)
	if !r.masks[m] {
		r.dst.Emit(&ir.Load{Dst: r.op(x.Dst), Ptr: r.op(x.Ptr), Offset: off})
		return
	}
	// bool lanes are stored as integer masks
	raw := r.dst.NewReg(m.Type)
	r.dst.Emit(&ir.Load{Dst: raw, Ptr: r.op(x.Ptr), Offset: off})
	r.dst.Emit(&ir.Assign{Kind: ir.Ne, Dst: r.op(x.Dst), Args: []ir.Op{raw, ir.Zero(m.Type)}})
}

func (r *rewriter) store(x *ir.Store) {
	if r.lane(x.Ptr) != packed {
		if r.lane(x.Src) == varying {
			r.fail("lane-varying value stored to shared memory")
		}
		r.dst.Emit(&ir.Store{Ptr: r.op(x.Ptr), Offset: x.Offset, Src: r.op(x.Src)})
		return
	}
	if x.Offset == nil || len(x.Offset.Path) == 0 {
		r.dst.Emit(&ir.Store{Ptr: r.op(x.Ptr), Src: r.vec(x.Src)})
		return
	}
	off, m := r.mapOffset(x.Offset)
	switch {
	case r.masks[m]:
		raw := r.dst.NewReg(m.Type)
		r.dst.Emit(&ir.Assign{Kind: ir.Convert, Dst: raw, Args: []ir.Op{r.vec(x.Src)}})
		r.dst.Emit(&ir.Store{Ptr: r.op(x.Ptr), Offset: off, Src: raw})
	case m.Type.IsVector():
		r.dst.Emit(&ir.Store{Ptr: r.op(x.Ptr), Offset: off, Src: r.vec(x.Src)})
	default:
		if r.lane(x.Src) == varying {
			r.fail("lane-varying value stored to shared member '%s'", m.Name)
		}
		r.dst.Emit(&ir.Store{Ptr: r.op(x.Ptr), Offset: off, Src: r.op(x.Src)})
	}
}

func (r *rewriter) call(x *ir.Call) {
	d, ok := r.Module.Registry.Packed(x.Callee)
	if !ok {
		for _, a := range x.In {
			if r.lane(a) != uniform {
				r.fail("call to %s, which has no packed version", x.Callee.ID)
			}
		}
		r.dst.Emit(&ir.Call{Callee: x.Callee, In: r.mapOps(x.In), Out: r.mapOps(x.Out)})
		return
	}
	in := make([]ir.Op, len(x.In))
	for j, a := range x.In {
		switch want := r.params[d][j]; {
		case want == varying:
			in[j] = r.vec(a)
		case want != r.lane(a):
			r.fail("argument %d of %s is %s, %s expects it %s", j+1, x.Callee.ID, r.lane(a), d.ID, want)
		default:
			in[j] = r.op(a)
		}
	}
	r.dst.Emit(&ir.Call{Callee: d, In: in, Out: r.mapOps(x.Out)})
}

func (r *rewriter) mapOps(os []ir.Op) []ir.Op {
	out := make([]ir.Op, len(os))
	for j, o := range os {
		out[j] = r.op(o)
	}
	return out
}
