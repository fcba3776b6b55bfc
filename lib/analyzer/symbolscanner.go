package analyzer

import (
	"github.com/vyPal/Lanec/lib/ast"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/types"
)

var operatorArity = map[string][]int{
	"+": {2}, "-": {1, 2}, "*": {2}, "/": {2}, "%": {2},
	"==": {2}, "!=": {2}, "<": {2}, "<=": {2}, ">": {2}, ">=": {2},
	"and": {2}, "or": {2}, "xor": {2}, "not": {1},
}

// scanSymbols registers every class and extern name so later passes can
// refer to them regardless of declaration order.
func (a *Analyzer) scanSymbols(tree *ast.Program) {
	for _, c := range tree.Classes {
		cl := types.NewClassDecl(c)
		if prev, ok := a.prog.AddClass(cl); !ok {
			a.ctx.Errorf(diag.DuplicateDeclaration, c.Pos, "class %s is already declared at %s", c.Name, diag.FormatPos(prev.Pos))
		}
	}
}

func (a *Analyzer) declareVars(cl *types.Class) {
	for _, m := range cl.Decl.Members {
		v, ok := m.(*ast.MemberVar)
		if !ok {
			continue
		}
		t := a.resolveType(v.Type)
		if cl.Simd {
			if ct, ok := t.(*types.ClassType); ok && !ct.Class.Simd {
				a.ctx.Errorf(diag.InvalidContainerUsage, v.Pos,
					"simd class %s has member '%s' of class %s, which is not declared simd", cl.Name, v.Name, ct.Class.Name)
				t = types.NewError()
			}
		}
		if prev, ok := cl.AddVar(&types.MemberVar{Name: v.Name, Pos: v.Pos, Type: t}); !ok {
			a.ctx.Errorf(diag.DuplicateDeclaration, v.Pos, "member '%s' of %s is already declared at %s", v.Name, cl.Name, diag.FormatPos(prev.Pos))
		}
	}
}

func (a *Analyzer) declareFuncs(cl *types.Class) {
	for _, m := range cl.Decl.Members {
		d, ok := m.(*ast.MemberFunc)
		if !ok {
			continue
		}
		f := &types.MemberFunction{Kind: d.Kind, Name: d.Name, Pos: d.Pos, Simd: d.Simd, Decl: d, Class: cl}
		a.signature(f, d.In, d.Out)
		a.checkShape(f)
		if f.Simd && !cl.Simd {
			a.ctx.Errorf(diag.NotVectorizable, d.Pos, "simd %s %s in class %s, which is not declared simd", f.Kind, f.Name, cl.Name)
		}
		if prev, ok := cl.AddFunc(f); !ok {
			a.ctx.Errorf(diag.DuplicateDeclaration, d.Pos, "redundant declaration of %s, previous declaration at %s", prev.Describe(), diag.FormatPos(prev.Pos))
			continue
		}
		a.info.Funcs[d] = f
	}
}

// signature builds f's signature and root scope. Every parameter is visited
// even after a failure so all bad types are reported.
func (a *Analyzer) signature(f *types.MemberFunction, in, out []*ast.Param) {
	f.Sig = &types.Signature{}
	f.Scope = types.NewScope(nil)
	f.Scope.Function = f
	if f.HasSelf() {
		mod := types.Ref
		if f.ConstSelf() {
			mod = types.ConstRef
		}
		f.Self = &types.Local{Name: "self", Pos: f.Pos, Type: &types.ClassType{Class: f.Class, Mod: mod}, Self: true}
	}
	for _, p := range in {
		t := a.resolveType(p.Type)
		f.Sig.In = append(f.Sig.In, a.param(f.Scope, p, types.Clone(t, paramModifier(p.Qual, t)), false))
	}
	for _, p := range out {
		t := a.resolveType(p.Type)
		f.Sig.Out = append(f.Sig.Out, a.param(f.Scope, p, types.Clone(t, types.Var), true))
	}
}

func (a *Analyzer) param(scope *types.Scope, p *ast.Param, t types.Type, out bool) *types.Param {
	param := &types.Param{Name: p.Name, Pos: p.Pos, Type: t, Out: out}
	param.Local = &types.Local{Name: p.Name, Pos: p.Pos, Type: t, Param: param}
	if scope != nil {
		if prev, ok := scope.Insert(param.Local); !ok {
			a.ctx.Errorf(diag.DuplicateDeclaration, p.Pos, "parameter '%s' is already declared at %s", p.Name, diag.FormatPos(prev.Pos))
		}
	}
	return param
}

func (a *Analyzer) checkShape(f *types.MemberFunction) {
	switch f.Kind {
	case ast.Create, ast.Assign:
		if len(f.Sig.Out) != 0 {
			a.ctx.Errorf(diag.TypeMismatch, f.Pos, "%s of %s cannot return results", f.Kind, f.Class.Name)
		}
	case ast.Operator:
		arity, ok := operatorArity[f.Name]
		if !ok {
			a.ctx.Errorf(diag.Syntax, f.Pos, "unknown operator '%s'", f.Name)
			return
		}
		n := len(f.Sig.In)
		if !contains(arity, n) || len(f.Sig.Out) != 1 {
			a.ctx.Errorf(diag.TypeMismatch, f.Pos, "operator %s takes %s parameters and returns one result", f.Name, arityText(arity))
			return
		}
		self := types.NewClass(f.Class)
		for _, p := range f.Sig.In {
			if types.Identical(p.Type, self) {
				return
			}
		}
		a.ctx.Errorf(diag.TypeMismatch, f.Pos, "operator %s of %s must take a %s operand", f.Name, f.Class.Name, f.Class.Name)
	}
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func arityText(arity []int) string {
	if len(arity) == 2 {
		return "1 or 2"
	}
	if arity[0] == 1 {
		return "1"
	}
	return "2"
}

// declareAutoGenerated adds the default create when no create is declared,
// and the copy create and copy assign unless declared by hand.
func (a *Analyzer) declareAutoGenerated(cl *types.Class) {
	if len(cl.Lookup("create", ast.Create)) == 0 {
		a.synthesize(cl, ast.Create, false)
	}
	a.synthesize(cl, ast.Create, true)
	a.synthesize(cl, ast.Assign, true)
}

func (a *Analyzer) synthesize(cl *types.Class, kind ast.FuncKind, copy bool) {
	f := &types.MemberFunction{
		Kind:          kind,
		Name:          kind.String(),
		Pos:           cl.Pos,
		Class:         cl,
		Simd:          cl.Simd,
		AutoGenerated: true,
		Copy:          copy,
		Analyzed:      true,
	}
	var in []*ast.Param
	if copy {
		in = []*ast.Param{{Pos: cl.Pos, Name: "other", Qual: ast.QualConstRef, Type: &ast.TypeExpr{Pos: cl.Pos, Name: cl.Name}}}
	}
	a.signature(f, in, nil)
	cl.AddFunc(f)
}

func (a *Analyzer) declareExtern(e *ast.Extern) {
	sig := &types.Signature{}
	for _, p := range e.In {
		sig.In = append(sig.In, a.externParam(e, p, false))
	}
	for _, p := range e.Out {
		sig.Out = append(sig.Out, a.externParam(e, p, true))
	}
	if len(sig.Out) > 1 {
		a.ctx.Errorf(diag.TypeMismatch, e.Pos, "extern %s returns more than one result", e.Name)
	}
	if prev, ok := a.prog.AddExtern(&types.Extern{Name: e.Name, Pos: e.Pos, Sig: sig, Decl: e}); !ok {
		a.ctx.Errorf(diag.DuplicateDeclaration, e.Pos, "extern %s is already declared at %s", e.Name, diag.FormatPos(prev.Pos))
	}
}

func (a *Analyzer) externParam(e *ast.Extern, p *ast.Param, out bool) *types.Param {
	t := a.resolveType(p.Type)
	if !types.IsError(t) && !types.IsAtomic(t) {
		a.ctx.Errorf(diag.TypeMismatch, p.Pos, "extern %s: parameter '%s' must be a scalar or pointer, found %s", e.Name, p.Name, t)
	}
	return a.param(nil, p, types.Clone(t, types.Var), out)
}
