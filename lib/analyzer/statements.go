package analyzer

import (
	"github.com/vyPal/Lanec/lib/ast"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/types"
)

// statements analyzes every statement, even after a failure. It reports
// whether all of them succeeded.
func (a *Analyzer) statements(stmts []ast.Stmt) bool {
	ok := true
	for _, s := range stmts {
		ok = a.statement(s) && ok
	}
	return ok
}

func (a *Analyzer) statement(s ast.Stmt) bool {
	errs := a.ctx.Errors()
	switch s := s.(type) {
	case *ast.AssignStmt:
		a.assign(s)
	case *ast.IfElse:
		a.condition(s.Cond)
		a.block(s, s.Then)
		if s.HasElse {
			sc, leave := a.ctx.NewScope()
			a.info.ElseScopes[s] = sc
			a.statements(s.Else)
			leave()
		}
	case *ast.While:
		a.condition(s.Cond)
		leave := a.ctx.EnterLoop()
		a.block(s, s.Body)
		leave()
	case *ast.RepeatUntil:
		// the condition sees the body's locals
		sc, leave := a.ctx.NewScope()
		a.info.Scopes[s] = sc
		leaveLoop := a.ctx.EnterLoop()
		a.statements(s.Body)
		leaveLoop()
		a.condition(s.Cond)
		leave()
	case *ast.ScopeBlock:
		a.block(s, s.Body)
	case *ast.Return:
	case *ast.Break:
		if !a.ctx.InLoop() {
			a.ctx.Errorf(diag.Syntax, s.Pos, "break outside of a loop")
		}
	case *ast.Continue:
		if !a.ctx.InLoop() {
			a.ctx.Errorf(diag.Syntax, s.Pos, "continue outside of a loop")
		}
	default:
		diag.Bug("unknown statement %T", s)
	}
	return a.ctx.Errors() == errs
}

func (a *Analyzer) block(owner ast.Node, body []ast.Stmt) bool {
	sc, leave := a.ctx.NewScope()
	defer leave()
	a.info.Scopes[owner] = sc
	return a.statements(body)
}

func (a *Analyzer) condition(e ast.Expr) {
	t := a.single(e)
	if !types.IsError(t) && !types.IsBool(t) {
		a.ctx.Errorf(diag.TypeMismatch, e.Position(), "condition must be bool, found %s", t)
	}
}

// assign analyzes declarations, assignments and expression statements.
//
//	var v: Vec = 1.0, 2.0;   one target, several values: create/assign call
//	x = y;                   one target, one value
//	a, b = f();              as many targets as values, paired in order
func (a *Analyzer) assign(s *ast.AssignStmt) {
	as := &Assignment{}
	a.info.Assigns[s] = as

	lhs := make([]types.Type, len(s.Lhs))
	decls := make([]*types.Local, len(s.Lhs))
	for i, l := range s.Lhs {
		if d, ok := l.(*ast.Decl); ok {
			decls[i] = a.declLocal(d)
			lhs[i] = decls[i].Type
		} else if len(s.Rhs) == 0 {
			a.expr(l)
		} else {
			lhs[i] = a.single(l)
			a.checkWritable(l, lhs[i])
		}
	}

	var values []Value
	for _, r := range s.Rhs {
		as.Exprs = append(as.Exprs, r)
		ts := a.expr(r)
		if len(ts) == 0 {
			a.ctx.Errorf(diag.TypeMismatch, r.Position(), "expression yields no value")
			values = append(values, Value{Expr: r, Type: types.NewError()})
		}
		for i, t := range ts {
			values = append(values, Value{Expr: r, Index: i, Type: t})
		}
	}

	// locals become visible only after their initializers
	for _, d := range decls {
		if d != nil {
			a.ctx.InsertLocal(d)
		}
	}

	switch {
	case len(s.Rhs) == 0:
		for i, l := range s.Lhs {
			if decls[i] != nil {
				as.Pairs = append(as.Pairs, a.defaultInit(l, decls[i]))
			} else if ast.IsCall(l) {
				as.Discard = append(as.Discard, l)
			} else {
				a.ctx.Warnf(diag.TypeMismatch, l.Position(), "expression has no effect")
			}
		}
	case len(s.Lhs) == 1 && len(values) != 1:
		as.Pairs = append(as.Pairs, a.construct(s.Lhs[0], lhs[0], decls[0], values))
	case len(s.Lhs) == 1:
		as.Pairs = append(as.Pairs, a.classify(s.Lhs[0], lhs[0], decls[0], values[0]))
	case len(values) != len(s.Lhs):
		a.ctx.Errorf(diag.TypeMismatch, s.Pos, "assignment mismatch: %d targets but %d values", len(s.Lhs), len(values))
		for i, l := range s.Lhs {
			as.Pairs = append(as.Pairs, &Pair{Kind: Empty, Lhs: l, Decl: decls[i]})
		}
	default:
		for i, l := range s.Lhs {
			as.Pairs = append(as.Pairs, a.classify(l, lhs[i], decls[i], values[i]))
		}
	}
}

// declLocal resolves a declaration without binding it yet.
func (a *Analyzer) declLocal(d *ast.Decl) *types.Local {
	t := a.resolveType(d.Type)
	mod := types.Var
	if d.Const {
		mod = types.Const
	}
	l := &types.Local{Name: d.Name, Pos: d.Pos, Type: types.Clone(t, mod)}
	a.info.Decls[d] = l
	a.info.Types[d] = []types.Type{l.Type}
	return l
}

func kindFor(decl *types.Local) ast.FuncKind {
	if decl != nil {
		return ast.Create
	}
	return ast.Assign
}

func (a *Analyzer) defaultInit(lhs ast.Expr, decl *types.Local) *Pair {
	p := &Pair{Lhs: lhs, Decl: decl}
	if decl.Type.Modifier().IsConst() {
		a.ctx.Errorf(diag.TypeMismatch, decl.Pos, "constant '%s' needs an initializer", decl.Name)
	}
	switch t := decl.Type.(type) {
	case *types.ErrorType:
		p.Kind = Empty
	case *types.Scalar, *types.Ptr:
		p.Kind = Copy
	case *types.Container:
		p.Kind = ContainerCreate
	case *types.ClassType:
		f, err := types.ResolveMember(t.Class, "create", nil, ast.Create)
		if err != nil {
			a.ctx.Errorf(diag.OverloadResolutionFailure, decl.Pos, "class %s has no default create: %s", t.Class.Name, err)
			p.Kind = Empty
			break
		}
		p.Kind, p.Fn = User, f
	}
	return p
}

// construct handles one target fed by zero or several values, which become
// the arguments of a create or assign.
func (a *Analyzer) construct(lhs ast.Expr, t types.Type, decl *types.Local, values []Value) *Pair {
	p := &Pair{Kind: Empty, Lhs: lhs, Decl: decl, Values: values}
	args := make([]types.Type, len(values))
	for i, v := range values {
		if types.IsError(v.Type) {
			return p
		}
		args[i] = v.Type
	}
	if types.IsError(t) {
		return p
	}
	kind := kindFor(decl)
	f, builtin, err := types.Construct(t, kind, args)
	if err != nil {
		a.ctx.Errorf(diag.OverloadResolutionFailure, lhs.Position(), "cannot %s %s from %s: %s", kind, t, types.TypeList(args), err)
		return p
	}
	if builtin != types.NotBuiltin {
		diag.Bug("builtin construction from %d values", len(values))
	}
	p.Kind, p.Fn = User, f
	return p
}

// classify pairs one target with one value.
func (a *Analyzer) classify(lhs ast.Expr, t types.Type, decl *types.Local, v Value) *Pair {
	p := &Pair{Kind: Empty, Lhs: lhs, Decl: decl, Values: []Value{v}}
	if types.IsError(t) || types.IsError(v.Type) {
		return p
	}
	if decl != nil && !types.IsAtomic(t) && a.isCall(v.Expr) && types.Identical(t, v.Type) {
		p.Kind = InitializedByCaller
		return p
	}
	kind := kindFor(decl)
	f, builtin, err := types.Construct(t, kind, []types.Type{v.Type})
	if err != nil {
		if _, ok := t.(*types.ClassType); ok {
			a.ctx.Errorf(diag.OverloadResolutionFailure, v.Expr.Position(), "cannot %s %s from %s: %s", kind, t, v.Type, err)
		} else {
			a.ctx.Errorf(diag.TypeMismatch, v.Expr.Position(), "cannot %s %s from %s", kind, t, v.Type)
		}
		return p
	}
	switch builtin {
	case types.BuiltinCopy:
		p.Kind = Copy
		if _, ok := t.(*types.Container); ok {
			p.Kind = ContainerCopy
		}
	case types.BuiltinAlloc:
		p.Kind = ContainerCreate
	case types.BuiltinAddress:
		if types.IsAtomic(v.Type) && !a.inMemory(v.Expr) {
			a.ctx.Errorf(diag.TypeMismatch, v.Expr.Position(), "cannot point %s at a value without storage", t)
			return p
		}
		p.Kind = AddressOf
	default:
		p.Kind, p.Fn = User, f
	}
	return p
}

// isCall reports whether e is a resolved call to a member function or extern
// whose results are written through hidden pointers.
func (a *Analyzer) isCall(e ast.Expr) bool {
	c := a.info.Calls[e]
	return c != nil && (c.Fn != nil || c.Extern != nil)
}

// checkWritable reports assignments to read-only or non-addressable targets.
func (a *Analyzer) checkWritable(e ast.Expr, t types.Type) {
	if types.IsError(t) {
		return
	}
	if !a.addressable(e) {
		a.ctx.Errorf(diag.TypeMismatch, e.Position(), "cannot assign to this expression")
		return
	}
	if t.Modifier().IsConst() {
		a.ctx.Errorf(diag.TypeMismatch, e.Position(), "cannot assign to read-only %s", t)
	}
}

// inMemory reports whether an atomic expression lives in addressable
// memory. Atomic locals are held in variables and have no address.
func (a *Analyzer) inMemory(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.IndexExpr, *ast.Deref:
		return true
	case *ast.MemberAccess:
		return a.info.Members[x] != nil
	}
	return false
}

func (a *Analyzer) addressable(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.Ident, *ast.Self, *ast.IndexExpr, *ast.Deref:
		return true
	case *ast.MemberAccess:
		return a.info.Members[x] != nil
	}
	return false
}
