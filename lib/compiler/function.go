package compiler

import (
	"github.com/vyPal/Lanec/lib/ast"
	"github.com/vyPal/Lanec/lib/ir"
	"github.com/vyPal/Lanec/lib/types"
)

// prologue binds self, the parameters and the results. A var parameter of
// non-atomic type arrives by address and is copied into a local slot; a
// non-atomic result is default initialized in the caller's storage.
func (ctx *Context) prologue() {
	f := ctx.fn
	var params []ir.Op
	if f.HasSelf() {
		v := ctx.NewVar("self", ir.PtrType)
		ctx.locals[f.Self] = &storage{addr: v}
		params = append(params, v)
	}
	var copies []*types.Param
	for _, p := range f.Sig.In {
		switch {
		case byAddress(p.Type):
			v := ctx.NewVar(p.Name, ir.PtrType)
			ctx.locals[p.Local] = &storage{addr: v}
			params = append(params, v)
			if !types.IsAtomic(p.Type) && p.Type.Modifier() == types.Var {
				copies = append(copies, p)
			}
		default:
			v := ctx.NewVar(p.Name, irType(p.Type))
			ctx.locals[p.Local] = &storage{v: v}
			params = append(params, v)
		}
	}
	hidden := f.Sig.HiddenOuts()
	for _, p := range hidden {
		v := ctx.NewVar(p.Name, ir.PtrType)
		ctx.locals[p.Local] = &storage{addr: v}
		params = append(params, v)
	}
	var results []ir.Op
	for _, p := range f.Sig.AtomicOuts() {
		v := ctx.NewVar(p.Name, irType(p.Type))
		ctx.locals[p.Local] = &storage{v: v}
		results = append(results, v)
	}
	ctx.Params.Params = params
	ctx.Results.Results = results

	for _, p := range copies {
		from := ctx.locals[p.Local].place(p.Type)
		local := &storage{addr: ctx.temp(p.Type)}
		ctx.copyValue(local.place(p.Type), from)
		ctx.locals[p.Local] = local
	}
	for _, p := range hidden {
		ctx.defaultValue(ctx.locals[p.Local].place(p.Type))
	}
}

// copyValue copy-constructs the non-atomic value at src into dst.
func (ctx *Context) copyValue(dst, src place) {
	switch t := dst.typ.(type) {
	case *types.Container:
		ctx.copyContainer(dst, src)
	case *types.ClassType:
		arg := types.Clone(t, types.ConstRef)
		if f, err := types.ResolveMember(t.Class, "create", []types.Type{arg}, ast.Create); err == nil {
			ctx.invokeAt(f, dst, src)
		}
	default:
		ctx.write(dst, ctx.read(src))
	}
}

// defaultValue default-constructs the value at dst.
func (ctx *Context) defaultValue(dst place) {
	switch t := dst.typ.(type) {
	case *types.Container:
		ctx.emptyContainer(dst)
	case *types.ClassType:
		if f, err := types.ResolveMember(t.Class, "create", nil, ast.Create); err == nil {
			ctx.invokeAt(f, dst)
		}
	default:
		ctx.write(dst, ir.Zero(irType(dst.typ)))
	}
}

// assignValue copy-assigns the value at src to dst.
func (ctx *Context) assignValue(dst, src place) {
	if t, ok := dst.typ.(*types.ClassType); ok {
		arg := types.Clone(t, types.ConstRef)
		if f, err := types.ResolveMember(t.Class, "assign", []types.Type{arg}, ast.Assign); err == nil {
			ctx.invokeAt(f, dst, src)
		}
		return
	}
	ctx.copyValue(dst, src)
}

// generated emits the body of an auto-generated member: member-wise default
// construction, copy construction or copy assignment.
func (ctx *Context) generated() {
	f := ctx.fn
	self := ctx.locals[f.Self].place(types.NewClass(f.Class))
	var other place
	if f.Copy {
		p := f.Sig.In[0]
		other = ctx.locals[p.Local].place(p.Type)
	}
	for _, v := range f.Class.Vars {
		m := ctx.member(v)
		dst := self.field(m, v.Type)
		switch {
		case !f.Copy:
			ctx.defaultValue(dst)
		case f.Kind == ast.Assign:
			ctx.assignValue(dst, other.field(m, v.Type))
		default:
			ctx.copyValue(dst, other.field(m, v.Type))
		}
	}
}
