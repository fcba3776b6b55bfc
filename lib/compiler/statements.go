package compiler

import (
	"github.com/vyPal/Lanec/lib/analyzer"
	"github.com/vyPal/Lanec/lib/ast"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/ir"
	"github.com/vyPal/Lanec/lib/types"
)

func (ctx *Context) compileStatements(stmts []ast.Stmt) {
	for _, s := range stmts {
		ctx.compileStatement(s)
	}
}

func (ctx *Context) compileStatement(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.AssignStmt:
		ctx.compileAssign(s)
	case *ast.IfElse:
		ctx.compileIf(s)
	case *ast.While:
		ctx.compileWhile(s)
	case *ast.RepeatUntil:
		ctx.compileRepeat(s)
	case *ast.ScopeBlock:
		ctx.NewContext(ctx.fc).compileStatements(s.Body)
	case *ast.Return:
		ctx.Emit(&ir.Goto{Target: ctx.Epilogue})
	case *ast.Break:
		ctx.Emit(&ir.Goto{Target: ctx.fc.Leave})
	case *ast.Continue:
		ctx.fc.continued = true
		ctx.Emit(&ir.Goto{Target: ctx.fc.Continue})
	default:
		diag.Bug("unknown statement %T", s)
	}
}

//	branch cond, then, next
//	then: ...
//	next:
//
// With an else part the then block ends in a goto to next and the false
// edge leads to an else label.
func (ctx *Context) compileIf(s *ast.IfElse) {
	cond := ctx.value(s.Cond)
	then := ctx.NewLabel("then")
	next := ctx.NewLabel("next")
	if !s.HasElse {
		ctx.Emit(&ir.Branch{Cond: cond, True: then, False: next})
		ctx.Emit(then)
		ctx.NewContext(ctx.fc).compileStatements(s.Then)
		ctx.Emit(next)
		return
	}
	els := ctx.NewLabel("else")
	ctx.Emit(&ir.Branch{Cond: cond, True: then, False: els})
	ctx.Emit(then)
	ctx.NewContext(ctx.fc).compileStatements(s.Then)
	ctx.Emit(&ir.Goto{Target: next})
	ctx.Emit(els)
	ctx.NewContext(ctx.fc).compileStatements(s.Else)
	ctx.Emit(next)
}

func (ctx *Context) compileWhile(s *ast.While) {
	header := ctx.NewLabel("header")
	loop := ctx.NewLabel("loop")
	out := ctx.NewLabel("out")

	ctx.Emit(header)
	cond := ctx.value(s.Cond)
	ctx.Emit(&ir.Branch{Cond: cond, True: loop, False: out})
	ctx.Emit(loop)
	loopCtx := ctx.NewContext(&FlowControl{Leave: out, Continue: header})
	loopCtx.compileStatements(s.Body)
	ctx.Emit(&ir.Goto{Target: header})
	ctx.Emit(out)
}

// The condition of a repeat loop sees the locals of its body, so both are
// lowered in the same context. The cond label is only emitted when a
// continue targets it.
func (ctx *Context) compileRepeat(s *ast.RepeatUntil) {
	loop := ctx.NewLabel("loop")
	out := ctx.NewLabel("out")
	next := ctx.NewLabel("cond")

	ctx.Emit(loop)
	loopCtx := ctx.NewContext(&FlowControl{Leave: out, Continue: next})
	loopCtx.compileStatements(s.Body)
	if loopCtx.fc.continued {
		ctx.Emit(next)
	}
	cond := loopCtx.value(s.Cond)
	ctx.Emit(&ir.Branch{Cond: cond, True: out, False: loop})
	ctx.Emit(out)
}

// compileAssign evaluates every right-hand expression once, in order, and
// then carries out each pair as classified by the analyzer.
func (ctx *Context) compileAssign(s *ast.AssignStmt) {
	as := ctx.Info.Assigns[s]
	if as == nil {
		diag.Bug("%s: assignment at %s was not analyzed", ctx.Decl.ID, diag.FormatPos(s.Pos))
	}
	for _, e := range as.Discard {
		ctx.compileExpression(e, nil)
	}

	// the callee writes these results straight into the new local
	dests := make(map[ast.Expr][]ir.Op)
	for _, p := range as.Pairs {
		if p.Kind != analyzer.InitializedByCaller {
			continue
		}
		v := p.Values[0]
		ds := dests[v.Expr]
		for len(ds) <= v.Index {
			ds = append(ds, nil)
		}
		ds[v.Index] = ctx.bind(p.Decl).addr
		dests[v.Expr] = ds
	}

	// pointers to atomic values take the address instead of loading
	pointees := make(map[ast.Expr]bool)
	for _, p := range as.Pairs {
		if p.Kind == analyzer.AddressOf && types.IsAtomic(p.Values[0].Type) {
			pointees[p.Values[0].Expr] = true
		}
	}

	// a single create or assign takes its arguments directly
	if len(as.Pairs) == 1 && as.Pairs[0].Kind == analyzer.User && direct(as.Pairs[0]) {
		p := as.Pairs[0]
		self := ctx.address(ctx.target(p))
		exprs := make([]ast.Expr, len(p.Values))
		for i, v := range p.Values {
			exprs[i] = v.Expr
		}
		args, writeback := ctx.arguments(p.Fn.Sig.In, exprs)
		ctx.invoke(p.Fn, self, args)
		writeback()
		return
	}

	vals := make(map[ast.Expr][]ir.Op)
	for _, e := range as.Exprs {
		var ops []ir.Op
		if pointees[e] {
			ops = []ir.Op{ctx.address(ctx.placeOf(e))}
		} else {
			ops = ctx.compileExpression(e, dests[e])
		}
		if len(as.Pairs) > 1 {
			ops = ctx.snapshot(ops)
		}
		vals[e] = ops
	}
	for _, p := range as.Pairs {
		ctx.compilePair(p, vals)
	}
}

// direct reports whether every value of p comes from its own single-result
// expression.
func direct(p *analyzer.Pair) bool {
	for _, v := range p.Values {
		if v.Index != 0 {
			return false
		}
	}
	return true
}

// snapshot copies variables read on the right so that earlier pairs of a
// parallel assignment cannot change the values later pairs see.
func (ctx *Context) snapshot(ops []ir.Op) []ir.Op {
	out := make([]ir.Op, len(ops))
	for i, op := range ops {
		out[i] = op
		if v, ok := op.(*ir.Var); ok {
			r := ctx.NewReg(v.Typ)
			ctx.Emit(&ir.Assign{Kind: ir.Move, Dst: r, Args: []ir.Op{v}})
			out[i] = r
		}
	}
	return out
}

// target is the place a pair writes to, allocating storage for a new local.
func (ctx *Context) target(p *analyzer.Pair) place {
	if p.Decl != nil {
		return ctx.bind(p.Decl).place(p.Decl.Type)
	}
	return ctx.placeOf(p.Lhs)
}

func valueOf(v analyzer.Value, vals map[ast.Expr][]ir.Op) ir.Op {
	ops := vals[v.Expr]
	if v.Index >= len(ops) {
		diag.Bug("value %d of expression at %s was not lowered", v.Index, diag.FormatPos(v.Expr.Position()))
	}
	return ops[v.Index]
}

func (ctx *Context) compilePair(p *analyzer.Pair, vals map[ast.Expr][]ir.Op) {
	switch p.Kind {
	case analyzer.Empty:
		if p.Decl != nil {
			ctx.bind(p.Decl)
		}
	case analyzer.InitializedByCaller:
	case analyzer.Copy:
		dst := ctx.target(p)
		var src ir.Op = ir.Zero(irType(dst.typ))
		if len(p.Values) > 0 {
			src = valueOf(p.Values[0], vals)
		}
		ctx.write(dst, src)
	case analyzer.AddressOf:
		ctx.write(ctx.target(p), valueOf(p.Values[0], vals))
	case analyzer.ContainerCopy:
		dst := ctx.target(p)
		src := place{base: valueOf(p.Values[0], vals), typ: p.Values[0].Type}
		ctx.copyContainer(dst, src)
	case analyzer.ContainerCreate:
		dst := ctx.target(p)
		if len(p.Values) == 0 {
			ctx.emptyContainer(dst)
			return
		}
		ctx.allocContainer(dst, valueOf(p.Values[0], vals))
	case analyzer.User:
		self := ctx.address(ctx.target(p))
		args := make([]ir.Op, len(p.Values))
		for i, v := range p.Values {
			args[i] = valueOf(v, vals)
			if prm := p.Fn.Sig.In[i]; types.IsAtomic(prm.Type) && prm.Type.Modifier() == types.Ref {
				args[i] = ctx.spillValue(args[i])
			}
		}
		ctx.invoke(p.Fn, self, args)
	default:
		diag.Bug("unknown call kind %s", p.Kind)
	}
}

// spillValue stores an rvalue bound to a ref parameter in a stack slot.
func (ctx *Context) spillValue(op ir.Op) ir.Op {
	size := op.Type().Size()
	slot := ctx.NewSlot("arg", size, size)
	ctx.Emit(&ir.Store{Ptr: slot, Src: op})
	return slot
}
