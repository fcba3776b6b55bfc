// Package emit translates a lowered module into LLVM IR. Every label opens
// a basic block, variables and slots live in entry-block allocas and struct
// offsets become byte-wise getelementptrs.
package emit

import (
	"fmt"
	"io"

	ll "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/ir"
)

type Emitter struct {
	Module *ll.Module

	src    *ir.Module
	funcs  map[*ir.FuncDecl]*ll.Func
	malloc *ll.Func
	memcpy *ll.Func
}

// Emit builds the LLVM module of m.
func Emit(m *ir.Module) (*ll.Module, error) {
	e := &Emitter{
		Module: ll.NewModule(),
		src:    m,
		funcs:  make(map[*ir.FuncDecl]*ll.Func),
	}
	if err := e.emit(); err != nil {
		return nil, errors.Wrapf(err, "emitting %s", m.Name)
	}
	return e.Module, nil
}

// Write emits m and writes its textual form to w.
func Write(w io.Writer, m *ir.Module) error {
	mod, err := Emit(m)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, mod.String())
	return errors.Wrap(err, "writing llvm ir")
}

func (e *Emitter) emit() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if x, ok := r.(error); ok {
				err = x
				return
			}
			panic(r)
		}
	}()
	e.Module.SourceFilename = e.src.Name
	for _, s := range e.src.Structs {
		if s.Handle != nil {
			e.Module.NewTypeDef(s.Name, s.Handle)
		}
	}
	for _, d := range e.src.Registry.Decls() {
		e.declare(d)
	}
	e.malloc = e.runtime("malloc", ir.BytePtr, ll.NewParam("size", lltypes.I64))
	e.memcpy = e.runtime("memcpy", ir.BytePtr,
		ll.NewParam("dst", ir.BytePtr), ll.NewParam("src", ir.BytePtr), ll.NewParam("n", lltypes.I64))
	for _, f := range e.src.Functions {
		e.function(f)
	}
	return nil
}

// runtime declares a C library function unless the program already did.
func (e *Emitter) runtime(name string, ret lltypes.Type, params ...*ll.Param) *ll.Func {
	for _, f := range e.Module.Funcs {
		if f.Name() == name {
			return f
		}
	}
	return e.Module.NewFunc(name, ret, params...)
}

func (e *Emitter) declare(d *ir.FuncDecl) {
	params := make([]*ll.Param, len(d.Params))
	for i, t := range d.Params {
		params[i] = ll.NewParam("", t.LL())
	}
	e.funcs[d] = e.Module.NewFunc(d.ID, resultType(d), params...)
}

// resultType is void, the single result, or a struct of all results.
func resultType(d *ir.FuncDecl) lltypes.Type {
	switch len(d.Results) {
	case 0:
		return lltypes.Void
	case 1:
		return d.Results[0].LL()
	}
	fields := make([]lltypes.Type, len(d.Results))
	for i, t := range d.Results {
		fields[i] = t.LL()
	}
	return lltypes.NewStruct(fields...)
}

func (e *Emitter) callee(d *ir.FuncDecl) *ll.Func {
	f, ok := e.funcs[d]
	if !ok {
		diag.Bug("call to undeclared %s", d.ID)
	}
	return f
}

// Context is the emission state of one function.
type Context struct {
	*ll.Block
	*Emitter
	fn     *ir.Function
	llf    *ll.Func
	regs   map[*ir.Reg]value.Value
	vars   map[*ir.Var]value.Value
	slots  map[*ir.Slot]value.Value
	blocks map[*ir.Label]*ll.Block
}

func (e *Emitter) function(f *ir.Function) {
	fn := e.funcs[f.Decl]
	entry := fn.NewBlock("entry")
	ctx := &Context{
		Block:   entry,
		Emitter: e,
		fn:      f,
		llf:     fn,
		regs:    make(map[*ir.Reg]value.Value),
		vars:    make(map[*ir.Var]value.Value),
		slots:   make(map[*ir.Slot]value.Value),
		blocks:  map[*ir.Label]*ll.Block{f.Entry: entry},
	}
	for i, v := range f.Vars {
		a := entry.NewAlloca(v.Typ.LL())
		a.SetName(fmt.Sprintf("%s.v%d", v.Name, i))
		a.Align = ll.Align(v.Typ.Size())
		ctx.vars[v] = a
	}
	for i, s := range f.Slots {
		a := entry.NewAlloca(lltypes.I8)
		a.SetName(fmt.Sprintf("%s.s%d", s.Name, i))
		a.NElems = constant.NewInt(lltypes.I64, s.Size)
		if s.Align > 1 {
			a.Align = ll.Align(s.Align)
		}
		ctx.slots[s] = a
	}
	for i, p := range f.Params.Params {
		ctx.define(p, fn.Params[i])
	}

	for i := ir.Next(f.Params); i != nil; i = ir.Next(i) {
		switch x := i.(type) {
		case *ir.Label:
			ctx.enter(ctx.block(x))
		case *ir.SetResults:
			ctx.ret(x)
		default:
			if ctx.Term != nil {
				// unreachable code after a jump
				ctx.Block = fn.NewBlock("")
			}
			ctx.instr(i)
		}
	}
}

func (ctx *Context) block(l *ir.Label) *ll.Block {
	if b, ok := ctx.blocks[l]; ok {
		return b
	}
	b := ctx.llf.NewBlock(l.Ref())
	ctx.blocks[l] = b
	return b
}

// enter falls through into b.
func (ctx *Context) enter(b *ll.Block) {
	if ctx.Term == nil {
		ctx.NewBr(b)
	}
	ctx.Block = b
}

func (ctx *Context) ret(r *ir.SetResults) {
	switch len(r.Results) {
	case 0:
		ctx.NewRet(nil)
	case 1:
		ctx.NewRet(ctx.value(r.Results[0]))
	default:
		var agg value.Value = constant.NewUndef(ctx.llf.Sig.RetType)
		for i, o := range r.Results {
			agg = ctx.NewInsertValue(agg, ctx.value(o), uint64(i))
		}
		ctx.NewRet(agg)
	}
}

// value reads an operand. Variables are loaded from their allocas and
// slots evaluate to their address.
func (ctx *Context) value(o ir.Op) value.Value {
	switch x := o.(type) {
	case *ir.Const:
		return constOf(x)
	case *ir.Reg:
		v, ok := ctx.regs[x]
		if !ok {
			diag.Bug("%s: register %s used before definition", ctx.fn.Decl.ID, x)
		}
		return v
	case *ir.Var:
		return ctx.NewLoad(x.Typ.LL(), ctx.vars[x])
	case *ir.Slot:
		return ctx.slots[x]
	}
	diag.Bug("unexpected operand %s", o)
	return nil
}

func (ctx *Context) define(dst ir.Op, v value.Value) {
	switch x := dst.(type) {
	case *ir.Reg:
		ctx.regs[x] = v
	case *ir.Var:
		ctx.NewStore(v, ctx.vars[x])
	default:
		diag.Bug("cannot assign to %s", dst)
	}
}

// address computes base plus the byte offset of off.
func (ctx *Context) address(base ir.Op, off *ir.StructOffset) value.Value {
	p := ctx.value(base)
	if off.Value() == 0 {
		return p
	}
	return ctx.NewGetElementPtr(lltypes.I8, p, constant.NewInt(lltypes.I64, off.Value()))
}

// typed casts a byte address to a pointer to t.
func (ctx *Context) typed(p value.Value, t ir.Type) value.Value {
	return ctx.NewBitCast(p, lltypes.NewPointer(t.LL()))
}

func (ctx *Context) instr(i ir.Instr) {
	switch x := i.(type) {
	case *ir.Goto:
		ctx.NewBr(ctx.block(x.Target))
	case *ir.Branch:
		ctx.NewCondBr(ctx.value(x.Cond), ctx.block(x.True), ctx.block(x.False))
	case *ir.Assign:
		ctx.define(x.Dst, ctx.assign(x))
	case *ir.Load:
		t := x.Dst.Type()
		p := ctx.typed(ctx.address(x.Ptr, x.Offset), t)
		ctx.define(x.Dst, ctx.NewLoad(t.LL(), p))
	case *ir.Store:
		t := x.Src.Type()
		p := ctx.typed(ctx.address(x.Ptr, x.Offset), t)
		ctx.NewStore(ctx.value(x.Src), p)
	case *ir.Lea:
		ctx.define(x.Dst, ctx.address(x.Ptr, x.Offset))
	case *ir.Alloc:
		ctx.define(x.Dst, ctx.NewCall(ctx.malloc, ctx.value(x.Size)))
	case *ir.Memcpy:
		ctx.NewCall(ctx.memcpy, ctx.value(x.Dst), ctx.value(x.Src), ctx.value(x.Size))
	case *ir.Call:
		ctx.call(x)
	default:
		diag.Bug("%s: cannot emit %s", ctx.fn.Decl.ID, i)
	}
}

func (ctx *Context) call(c *ir.Call) {
	args := make([]value.Value, len(c.In))
	for i, o := range c.In {
		args[i] = ctx.value(o)
	}
	res := ctx.NewCall(ctx.callee(c.Callee), args...)
	switch len(c.Out) {
	case 0:
	case 1:
		ctx.define(c.Out[0], res)
	default:
		for i, o := range c.Out {
			ctx.define(o, ctx.NewExtractValue(res, uint64(i)))
		}
	}
}

func constOf(c *ir.Const) constant.Constant {
	t := c.Typ
	if t.IsVector() {
		if c.Bits == 0 && c.Real == 0 {
			return constant.NewZeroInitializer(t.LL())
		}
		elems := make([]constant.Constant, t.Lanes)
		for i := range elems {
			elems[i] = constOf(&ir.Const{Typ: t.Elem(), Bits: c.Bits, Real: c.Real})
		}
		return constant.NewVector(t.LL().(*lltypes.VectorType), elems...)
	}
	switch {
	case t.Kind == ir.Ptr:
		return constant.NewNull(ir.BytePtr)
	case t.Kind.IsReal():
		return constant.NewFloat(t.LL().(*lltypes.FloatType), c.Real)
	}
	return constant.NewInt(t.LL().(*lltypes.IntType), int64(c.Bits))
}

// allOnes is the constant with every bit set, used to negate booleans and
// integers with xor.
func allOnes(t ir.Type) *ir.Const {
	if t.Kind == ir.Bool {
		return &ir.Const{Typ: t, Bits: 1}
	}
	return &ir.Const{Typ: t, Bits: ^uint64(0)}
}

var (
	signedPreds   = map[ir.AssignKind]enum.IPred{ir.Eq: enum.IPredEQ, ir.Ne: enum.IPredNE, ir.Lt: enum.IPredSLT, ir.Le: enum.IPredSLE, ir.Gt: enum.IPredSGT, ir.Ge: enum.IPredSGE}
	unsignedPreds = map[ir.AssignKind]enum.IPred{ir.Eq: enum.IPredEQ, ir.Ne: enum.IPredNE, ir.Lt: enum.IPredULT, ir.Le: enum.IPredULE, ir.Gt: enum.IPredUGT, ir.Ge: enum.IPredUGE}
	realPreds     = map[ir.AssignKind]enum.FPred{ir.Eq: enum.FPredOEQ, ir.Ne: enum.FPredUNE, ir.Lt: enum.FPredOLT, ir.Le: enum.FPredOLE, ir.Gt: enum.FPredOGT, ir.Ge: enum.FPredOGE}
)

func (ctx *Context) assign(a *ir.Assign) value.Value {
	args := make([]value.Value, len(a.Args))
	for i, o := range a.Args {
		args[i] = ctx.value(o)
	}
	var k ir.Kind
	if len(a.Args) > 0 {
		k = a.Args[0].Type().Kind
	}
	switch a.Kind {
	case ir.Move:
		return args[0]
	case ir.Add:
		if k.IsReal() {
			return ctx.NewFAdd(args[0], args[1])
		}
		return ctx.NewAdd(args[0], args[1])
	case ir.Sub:
		if k.IsReal() {
			return ctx.NewFSub(args[0], args[1])
		}
		return ctx.NewSub(args[0], args[1])
	case ir.Mul:
		if k.IsReal() {
			return ctx.NewFMul(args[0], args[1])
		}
		return ctx.NewMul(args[0], args[1])
	case ir.Div:
		switch {
		case k.IsReal():
			return ctx.NewFDiv(args[0], args[1])
		case k.IsSigned():
			return ctx.NewSDiv(args[0], args[1])
		}
		return ctx.NewUDiv(args[0], args[1])
	case ir.Rem:
		switch {
		case k.IsReal():
			return ctx.NewFRem(args[0], args[1])
		case k.IsSigned():
			return ctx.NewSRem(args[0], args[1])
		}
		return ctx.NewURem(args[0], args[1])
	case ir.And:
		return ctx.NewAnd(args[0], args[1])
	case ir.Or:
		return ctx.NewOr(args[0], args[1])
	case ir.Xor:
		return ctx.NewXor(args[0], args[1])
	case ir.Neg:
		if k.IsReal() {
			return ctx.NewFNeg(args[0])
		}
		return ctx.NewSub(constOf(ir.Zero(a.Args[0].Type())), args[0])
	case ir.Not:
		return ctx.NewXor(args[0], constOf(allOnes(a.Args[0].Type())))
	case ir.Eq, ir.Ne, ir.Lt, ir.Le, ir.Gt, ir.Ge:
		switch {
		case k.IsReal():
			return ctx.NewFCmp(realPreds[a.Kind], args[0], args[1])
		case k.IsSigned():
			return ctx.NewICmp(signedPreds[a.Kind], args[0], args[1])
		}
		return ctx.NewICmp(unsignedPreds[a.Kind], args[0], args[1])
	case ir.Convert:
		return ctx.convert(args[0], a.Args[0].Type(), a.Dst.Type())
	case ir.PtrAdd:
		return ctx.NewGetElementPtr(lltypes.I8, args[0], args[1])
	case ir.Splat:
		t := a.Dst.Type()
		one := ctx.NewInsertElement(constant.NewUndef(t.LL()), args[0], constant.NewInt(lltypes.I32, 0))
		mask := constant.NewZeroInitializer(lltypes.NewVector(uint64(t.Lanes), lltypes.I32))
		return ctx.NewShuffleVector(one, constant.NewUndef(t.LL()), mask)
	case ir.Select:
		return ctx.NewSelect(args[0], args[1], args[2])
	}
	diag.Bug("unknown assignment %s", a.Kind)
	return nil
}

func bits(k ir.Kind) int64 {
	if k == ir.Bool {
		return 1
	}
	return k.Size() * 8
}

// convert changes the element kind of v. Booleans widen to 0 or 1, except
// vector masks, which widen to all ones per set lane.
func (ctx *Context) convert(v value.Value, from, to ir.Type) value.Value {
	dst := to.LL()
	switch {
	case from.Kind == to.Kind:
		return v
	case from.Kind.IsReal() && to.Kind.IsReal():
		if to.Kind.Size() > from.Kind.Size() {
			return ctx.NewFPExt(v, dst)
		}
		return ctx.NewFPTrunc(v, dst)
	case from.Kind.IsReal():
		if to.Kind.IsSigned() {
			return ctx.NewFPToSI(v, dst)
		}
		return ctx.NewFPToUI(v, dst)
	case to.Kind.IsReal():
		if from.Kind.IsSigned() {
			return ctx.NewSIToFP(v, dst)
		}
		return ctx.NewUIToFP(v, dst)
	}
	switch fb, tb := bits(from.Kind), bits(to.Kind); {
	case fb == tb:
		return v
	case fb > tb:
		return ctx.NewTrunc(v, dst)
	case from.Kind == ir.Bool && from.IsVector(), from.Kind.IsSigned():
		return ctx.NewSExt(v, dst)
	}
	return ctx.NewZExt(v, dst)
}
