package compiler

import (
	"github.com/vyPal/Lanec/lib/analyzer"
	"github.com/vyPal/Lanec/lib/ast"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/ir"
	"github.com/vyPal/Lanec/lib/types"
)

// storage is where a local lives: v for atomic values held in variables,
// addr for everything that lives in memory.
type storage struct {
	v    *ir.Var
	addr ir.Op
}

// place is an addressable location: a variable, or a base address plus a
// folded member offset.
type place struct {
	v    *ir.Var
	base ir.Op
	off  *ir.StructOffset
	typ  types.Type
}

func (s *storage) place(t types.Type) place {
	if s.v != nil {
		return place{v: s.v, typ: t}
	}
	return place{base: s.addr, typ: t}
}

// bind allocates storage for a declared local.
func (ctx *Context) bind(l *types.Local) *storage {
	if s, ok := ctx.locals[l]; ok {
		return s
	}
	var s *storage
	if types.IsAtomic(l.Type) {
		s = &storage{v: ctx.NewVar(l.Name, irType(l.Type))}
	} else {
		s = &storage{addr: ctx.slot(l.Name, l.Type)}
	}
	ctx.locals[l] = s
	return s
}

// temp allocates unnamed stack storage for a non-atomic value.
func (ctx *Context) temp(t types.Type) *ir.Slot {
	return ctx.slot("tmp", t)
}

func (ctx *Context) slot(name string, t types.Type) *ir.Slot {
	size, align := ctx.sizeOf(t)
	s := ctx.NewSlot(name, size, align)
	if cl := types.ClassOf(t); cl != nil && !isPtr(t) {
		s.Struct = ctx.Layout(cl)
	}
	return s
}

func isPtr(t types.Type) bool {
	_, ok := t.(*types.Ptr)
	return ok
}

func (ctx *Context) read(p place) ir.Op {
	if p.v != nil {
		return p.v
	}
	if !types.IsAtomic(p.typ) {
		return ctx.address(p)
	}
	r := ctx.NewReg(irType(p.typ))
	ctx.Emit(&ir.Load{Dst: r, Ptr: p.base, Offset: p.off})
	return r
}

func (ctx *Context) write(p place, src ir.Op) {
	if p.v != nil {
		ctx.Emit(&ir.Assign{Kind: ir.Move, Dst: p.v, Args: []ir.Op{src}})
		return
	}
	ctx.Emit(&ir.Store{Ptr: p.base, Offset: p.off, Src: src})
}

// address materializes the address of a memory place.
func (ctx *Context) address(p place) ir.Op {
	if p.v != nil {
		diag.Bug("%s: address of variable %s", ctx.Decl.ID, p.v)
	}
	if p.off.Value() == 0 {
		return p.base
	}
	r := ctx.NewReg(ir.PtrType)
	ctx.Emit(&ir.Lea{Dst: r, Ptr: p.base, Offset: p.off})
	return r
}

// field narrows a memory place to one member, or one header field.
func (p place) field(m *ir.Member, t types.Type) place {
	return place{base: p.base, off: p.off.Add(m), typ: t}
}

func (ctx *Context) loadField(p place, m *ir.Member) *ir.Reg {
	r := ctx.NewReg(m.Type)
	ctx.Emit(&ir.Load{Dst: r, Ptr: p.base, Offset: p.off.Add(m)})
	return r
}

func (ctx *Context) storeField(p place, m *ir.Member, src ir.Op) {
	ctx.Emit(&ir.Store{Ptr: p.base, Offset: p.off.Add(m), Src: src})
}

func (ctx *Context) typeOf(e ast.Expr) types.Type {
	t := ctx.Info.TypeOf(e)
	if t == nil {
		diag.Bug("%s: expression at %s has no single type", ctx.Decl.ID, diag.FormatPos(e.Position()))
	}
	return t
}

// placeOf lowers an addressable expression. Member steps on a value fold into
// the offset of their base; indexing and dereferencing start a new base.
func (ctx *Context) placeOf(e ast.Expr) place {
	t := ctx.typeOf(e)
	switch e := e.(type) {
	case *ast.Ident, *ast.Self, *ast.Decl:
		l := ctx.Info.LocalOf(e)
		if l == nil {
			diag.Bug("%s: unbound variable at %s", ctx.Decl.ID, diag.FormatPos(e.Position()))
		}
		return ctx.lookupLocal(l).place(t)
	case *ast.MemberAccess:
		v := ctx.Info.Members[e]
		if v == nil {
			break
		}
		m := ctx.member(v)
		if _, ok := ctx.typeOf(e.X).(*types.Ptr); ok {
			return place{base: ctx.value(e.X), off: ir.NewOffset(m), typ: t}
		}
		return ctx.object(e.X).field(m, t)
	case *ast.IndexExpr:
		c := ctx.typeOf(e.X).(*types.Container)
		header := ctx.object(e.X)
		data := ctx.loadField(header, ir.HeaderData)
		i := ctx.value(e.Index)
		size, _ := ctx.elemSize(c)
		if size != 1 {
			scaled := ctx.NewReg(ir.IndexType)
			ctx.Emit(&ir.Assign{Kind: ir.Mul, Dst: scaled, Args: []ir.Op{i, ir.IntConst(ir.IndexType, uint64(size))}})
			i = scaled
		}
		addr := ctx.NewReg(ir.PtrType)
		ctx.Emit(&ir.Assign{Kind: ir.PtrAdd, Dst: addr, Args: []ir.Op{data, i}})
		return place{base: addr, typ: t}
	case *ast.Deref:
		return place{base: ctx.value(e.X), typ: t}
	}
	diag.Bug("%s: expression at %s is not addressable", ctx.Decl.ID, diag.FormatPos(e.Position()))
	return place{}
}

func addressable(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Ident, *ast.Self, *ast.Decl, *ast.MemberAccess, *ast.IndexExpr, *ast.Deref:
		return true
	}
	return false
}

// object returns the memory place of a non-atomic expression, evaluating
// calls into temporaries.
func (ctx *Context) object(e ast.Expr) place {
	if addressable(e) {
		if ma, ok := e.(*ast.MemberAccess); !ok || ctx.Info.Members[ma] != nil {
			return ctx.placeOf(e)
		}
	}
	return place{base: ctx.value(e), typ: ctx.typeOf(e)}
}

// value lowers an expression yielding one value. Non-atomic values yield
// their address.
func (ctx *Context) value(e ast.Expr) ir.Op {
	ops := ctx.compileExpression(e, nil)
	if len(ops) != 1 {
		diag.Bug("%s: expression at %s yields %d values", ctx.Decl.ID, diag.FormatPos(e.Position()), len(ops))
	}
	return ops[0]
}

// compileExpression lowers e to one operand per result. dests, if given,
// supplies caller storage for non-atomic results.
func (ctx *Context) compileExpression(e ast.Expr, dests []ir.Op) []ir.Op {
	if call := ctx.Info.Calls[e]; call != nil {
		return ctx.compileCall(call, dests)
	}
	switch e := e.(type) {
	case *ast.Literal:
		return []ir.Op{literal(e)}
	case *ast.Unary:
		x := ctx.value(e.X)
		r := ctx.NewReg(irType(ctx.typeOf(e)))
		ctx.Emit(&ir.Assign{Kind: unaryOps[e.Op], Dst: r, Args: []ir.Op{x}})
		return []ir.Op{r}
	case *ast.Binary:
		x := ctx.value(e.X)
		y := ctx.value(e.Y)
		r := ctx.NewReg(irType(ctx.typeOf(e)))
		ctx.Emit(&ir.Assign{Kind: binaryOps[e.Op], Dst: r, Args: []ir.Op{x, y}})
		return []ir.Op{r}
	case *ast.MemberAccess:
		if _, ok := ctx.typeOf(e.X).(*types.Container); ok && ctx.Info.Members[e] == nil {
			return []ir.Op{ctx.loadField(ctx.object(e.X), ir.HeaderLen)}
		}
	case *ast.MethodCall, *ast.RoutineCall, *ast.CCall:
		diag.Bug("%s: unresolved call at %s", ctx.Decl.ID, diag.FormatPos(e.Position()))
	}
	return []ir.Op{ctx.read(ctx.placeOf(e))}
}

func literal(e *ast.Literal) *ir.Const {
	k, ok := types.LookupScalar(e.TypeName)
	if !ok {
		diag.Bug("literal %s has unknown type %s", e.Text, e.TypeName)
	}
	t := ir.Scalar(scalarKinds[k])
	switch e.Kind {
	case ast.BoolLit:
		return ir.BoolConst(e.Bool)
	case ast.RealLit:
		return ir.RealConst(t, e.Real)
	}
	return ir.IntConst(t, e.Int)
}

// compileCall lowers a resolved call. The in-list is the hidden self, the
// arguments and then the addresses of non-atomic results; the out-list
// holds the atomic results.
func (ctx *Context) compileCall(call *analyzer.Call, dests []ir.Op) []ir.Op {
	if call.Convert != nil {
		x := ctx.value(call.Args[0])
		r := ctx.NewReg(irType(call.Convert))
		ctx.Emit(&ir.Assign{Kind: ir.Convert, Dst: r, Args: []ir.Op{x}})
		return []ir.Op{r}
	}

	var sig *types.Signature
	var decl *ir.FuncDecl
	if call.Extern != nil {
		sig, decl = call.Extern.Sig, ctx.externs[call.Extern]
	} else {
		sig, decl = call.Fn.Sig, ctx.decls[call.Fn]
	}
	if decl == nil {
		diag.Bug("%s: call to a function without declaration", ctx.Decl.ID)
	}

	var in []ir.Op
	var self ir.Op
	if call.Fn != nil && call.Fn.HasSelf() {
		switch {
		case call.Construct:
			self = dest(dests, 0)
			if self == nil {
				self = ctx.temp(types.NewClass(call.Fn.Class))
			}
		case call.Recv != nil:
			self = ctx.receiver(call.Recv)
		default:
			diag.Bug("%s: %s called without an instance", ctx.Decl.ID, call.Fn)
		}
		in = append(in, self)
	}
	args, writeback := ctx.arguments(sig.In, call.Args)
	in = append(in, args...)

	results := make([]ir.Op, len(sig.Out))
	var out []ir.Op
	for i, p := range sig.Out {
		if p.Hidden() {
			results[i] = dest(dests, i)
			if results[i] == nil {
				results[i] = ctx.temp(p.Type)
			}
			in = append(in, results[i])
			continue
		}
		r := ctx.NewReg(irType(p.Type))
		results[i] = r
		out = append(out, r)
	}
	if !decl.Trivial || len(out) > 0 {
		ctx.Emit(&ir.Call{Callee: decl, In: in, Out: out})
	}
	writeback()
	if call.Construct {
		return []ir.Op{self}
	}
	return results
}

func dest(dests []ir.Op, i int) ir.Op {
	if i < len(dests) {
		return dests[i]
	}
	return nil
}

// receiver is the address a reader or writer is invoked on.
func (ctx *Context) receiver(e ast.Expr) ir.Op {
	if _, ok := ctx.typeOf(e).(*types.Ptr); ok {
		return ctx.value(e)
	}
	return ctx.address(ctx.object(e))
}

// arguments lowers call arguments against their parameters. Atomic
// variables bound to ref parameters are copied into a stack slot and back
// after the call; the returned function performs the copy back.
func (ctx *Context) arguments(params []*types.Param, es []ast.Expr) ([]ir.Op, func()) {
	var ops []ir.Op
	var back []func()
	for i, p := range params {
		e := es[i]
		switch {
		case !types.IsAtomic(p.Type):
			ops = append(ops, ctx.address(ctx.object(e)))
		case p.Type.Modifier() == types.Ref:
			pl := ctx.placeOf(e)
			if pl.v == nil {
				ops = append(ops, ctx.address(pl))
				continue
			}
			op, wb := ctx.spill(pl.v)
			ops = append(ops, op)
			back = append(back, wb)
		default:
			ops = append(ops, ctx.value(e))
		}
	}
	return ops, func() {
		for _, wb := range back {
			wb()
		}
	}
}

// spill copies v to a stack slot and returns the slot with a function that
// copies it back.
func (ctx *Context) spill(v *ir.Var) (ir.Op, func()) {
	size := v.Typ.Size()
	slot := ctx.NewSlot(v.Name, size, size)
	ctx.Emit(&ir.Store{Ptr: slot, Src: v})
	return slot, func() {
		r := ctx.NewReg(v.Typ)
		ctx.Emit(&ir.Load{Dst: r, Ptr: slot})
		ctx.Emit(&ir.Assign{Kind: ir.Move, Dst: v, Args: []ir.Op{r}})
	}
}

func (ctx *Context) declOf(f *types.MemberFunction) *ir.FuncDecl {
	decl := ctx.decls[f]
	if decl == nil {
		diag.Bug("%s: call to %s without declaration", ctx.Decl.ID, f)
	}
	return decl
}

// invoke calls a create or assign on self.
func (ctx *Context) invoke(f *types.MemberFunction, self ir.Op, args []ir.Op) {
	decl := ctx.declOf(f)
	if decl.Trivial {
		return
	}
	ctx.Emit(&ir.Call{Callee: decl, In: append([]ir.Op{self}, args...)})
}

// invokeAt is invoke on places. Addresses are only computed when the
// call is emitted.
func (ctx *Context) invokeAt(f *types.MemberFunction, self place, args ...place) {
	if ctx.declOf(f).Trivial {
		return
	}
	ops := make([]ir.Op, len(args))
	for i, a := range args {
		ops[i] = ctx.address(a)
	}
	ctx.invoke(f, ctx.address(self), ops)
}
