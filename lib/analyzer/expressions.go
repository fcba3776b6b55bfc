package analyzer

import (
	"github.com/vyPal/Lanec/lib/ast"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/types"
)

var errorTypes = []types.Type{types.NewError()}

// expr analyzes e and records its result types. Calls yield as many types as
// results; every other expression yields exactly one.
func (a *Analyzer) expr(e ast.Expr) []types.Type {
	var ts []types.Type
	switch e := e.(type) {
	case *ast.Decl:
		a.ctx.Errorf(diag.Syntax, e.Pos, "declaration of '%s' is only allowed as an assignment target", e.Name)
		ts = errorTypes
	case *ast.Ident:
		ts = one(a.ident(e))
	case *ast.Self:
		ts = one(a.self(e))
	case *ast.Literal:
		ts = one(a.literal(e))
	case *ast.Unary:
		ts = a.unary(e)
	case *ast.Binary:
		ts = a.binary(e)
	case *ast.MemberAccess:
		ts = one(a.member(e))
	case *ast.IndexExpr:
		ts = one(a.index(e))
	case *ast.Deref:
		ts = one(a.deref(e))
	case *ast.MethodCall:
		ts = a.methodCall(e)
	case *ast.RoutineCall:
		ts = a.routineCall(e)
	case *ast.CCall:
		ts = a.cCall(e)
	default:
		diag.Bug("unknown expression %T", e)
	}
	a.info.Types[e] = ts
	return ts
}

func one(t types.Type) []types.Type { return []types.Type{t} }

// single analyzes an expression used where exactly one value is expected.
func (a *Analyzer) single(e ast.Expr) types.Type {
	ts := a.expr(e)
	if len(ts) == 1 {
		return ts[0]
	}
	a.ctx.Errorf(diag.TypeMismatch, e.Position(), "expression yields %d values where one is expected", len(ts))
	return types.NewError()
}

// args analyzes every argument before any resolution happens.
func (a *Analyzer) args(es []ast.Expr) ([]types.Type, bool) {
	ok := true
	out := make([]types.Type, len(es))
	for i, e := range es {
		out[i] = a.single(e)
		if types.IsError(out[i]) {
			ok = false
		}
	}
	return out, ok
}

func results(sig *types.Signature) []types.Type {
	out := make([]types.Type, len(sig.Out))
	for i, p := range sig.Out {
		out[i] = types.Clone(p.Type, types.Var)
	}
	return out
}

func (a *Analyzer) ident(e *ast.Ident) types.Type {
	l := a.ctx.LookupVar(e.Name)
	if l == nil {
		a.ctx.Errorf(diag.UndeclaredIdentifier, e.Pos, "undeclared identifier '%s'", e.Name)
		return types.NewError()
	}
	a.info.Uses[e] = l
	return l.Type
}

func (a *Analyzer) self(e *ast.Self) types.Type {
	f := a.ctx.Function()
	if f == nil || f.Self == nil {
		a.ctx.Errorf(diag.UndeclaredIdentifier, e.Pos, "'self' is only available in create, assign, reader and writer")
		return types.NewError()
	}
	a.info.Selfs[e] = f.Self
	return f.Self.Type
}

func (a *Analyzer) literal(e *ast.Literal) types.Type {
	k, ok := types.LookupScalar(e.TypeName)
	if !ok {
		diag.Bug("literal %s has unknown type %s", e.Text, e.TypeName)
	}
	if e.Kind == ast.IntLit && !fits(k, e.Int) {
		a.ctx.Errorf(diag.TypeMismatch, e.Pos, "literal %s overflows %s", e.Text, k)
	}
	return &types.Scalar{Kind: k, Mod: types.Const}
}

func fits(k types.ScalarKind, v uint64) bool {
	bits := uint(k.Size() * 8)
	if bits >= 64 {
		return !k.IsSigned() || v <= 1<<63-1
	}
	if k.IsSigned() {
		return v <= 1<<(bits-1)-1
	}
	return v <= 1<<bits-1
}

func (a *Analyzer) unary(e *ast.Unary) []types.Type {
	x := a.single(e.X)
	if types.IsError(x) {
		return errorTypes
	}
	if ct, ok := x.(*types.ClassType); ok {
		return a.operator(e, ct.Class, e.Op, []ast.Expr{e.X}, []types.Type{x})
	}
	s, ok := x.(*types.Scalar)
	switch {
	case ok && e.Op == "-" && s.Kind != types.Bool:
		return one(types.Clone(x, types.Var))
	case ok && e.Op == "not" && (s.Kind == types.Bool || s.Kind.IsInteger()):
		return one(types.Clone(x, types.Var))
	}
	a.ctx.Errorf(diag.TypeMismatch, e.Pos, "operator %s is not defined for %s", e.Op, x)
	return errorTypes
}

func (a *Analyzer) binary(e *ast.Binary) []types.Type {
	x := a.single(e.X)
	y := a.single(e.Y)
	if types.IsError(x) || types.IsError(y) {
		return errorTypes
	}
	operands := []ast.Expr{e.X, e.Y}
	if ct, ok := x.(*types.ClassType); ok {
		return a.operator(e, ct.Class, e.Op, operands, []types.Type{x, y})
	}
	if t := scalarBinary(e.Op, x, y); t != nil {
		return one(t)
	}
	a.ctx.Errorf(diag.TypeMismatch, e.Pos, "operator %s is not defined for %s and %s", e.Op, x, y)
	return errorTypes
}

// scalarBinary types a built-in operator, or returns nil.
func scalarBinary(op string, x, y types.Type) types.Type {
	if !types.Check(x, y) {
		return nil
	}
	boolean := types.NewScalar(types.Bool)
	if _, ok := x.(*types.Ptr); ok {
		if op == "==" || op == "!=" {
			return boolean
		}
		return nil
	}
	s, ok := x.(*types.Scalar)
	if !ok {
		return nil
	}
	switch op {
	case "+", "-", "*", "/":
		if s.Kind != types.Bool {
			return types.Clone(x, types.Var)
		}
	case "%":
		if s.Kind.IsInteger() {
			return types.Clone(x, types.Var)
		}
	case "==", "!=":
		return boolean
	case "<", "<=", ">", ">=":
		if s.Kind != types.Bool {
			return boolean
		}
	case "and", "or", "xor":
		if s.Kind == types.Bool || s.Kind.IsInteger() {
			return types.Clone(x, types.Var)
		}
	}
	return nil
}

func (a *Analyzer) operator(e ast.Expr, cl *types.Class, op string, operands []ast.Expr, args []types.Type) []types.Type {
	f, err := types.ResolveOperator(cl, op, args)
	if err != nil {
		a.ctx.Errorf(diag.OverloadResolutionFailure, e.Position(), "%s", err)
		return errorTypes
	}
	a.checkRefArgs(f, operands)
	a.info.Calls[e] = &Call{Fn: f, Args: operands}
	return results(f.Sig)
}

func (a *Analyzer) member(e *ast.MemberAccess) types.Type {
	x := a.single(e.X)
	if types.IsError(x) {
		return x
	}
	a.info.Foldable[e] = a.foldableBase(e.X, x)
	switch t := x.(type) {
	case *types.Container:
		if e.Name == "size" {
			return &types.Scalar{Kind: types.Index, Mod: types.Const}
		}
		a.ctx.Errorf(diag.InvalidContainerUsage, e.Pos, "%s has no member '%s'", x, e.Name)
		return types.NewError()
	case *types.ClassType, *types.Ptr:
		cl := types.ClassOf(t)
		if cl == nil {
			break
		}
		v := cl.Var(e.Name)
		if v == nil {
			a.ctx.Errorf(diag.UndeclaredIdentifier, e.Pos, "class %s has no member variable '%s'", cl.Name, e.Name)
			return types.NewError()
		}
		a.info.Members[e] = v
		mod := types.Var
		if ct, ok := t.(*types.ClassType); ok && ct.Mod.IsConst() {
			mod = types.Const
		}
		return types.Clone(v.Type, mod)
	}
	a.ctx.Errorf(diag.TypeMismatch, e.Pos, "%s has no members", x)
	return types.NewError()
}

// foldableBase reports whether a member of x is at a constant offset from
// the storage of a variable: x must be reached by direct member steps from
// a variable and must not be a pointer.
func (a *Analyzer) foldableBase(x ast.Expr, t types.Type) bool {
	if _, ok := t.(*types.Ptr); ok {
		return false
	}
	switch x := x.(type) {
	case *ast.Ident, *ast.Self:
		return true
	case *ast.MemberAccess:
		return a.info.Foldable[x] && a.info.Members[x] != nil
	}
	return false
}

func (a *Analyzer) index(e *ast.IndexExpr) types.Type {
	x := a.single(e.X)
	i := a.single(e.Index)
	if !types.IsError(i) && !types.IsIndex(i) {
		a.ctx.Errorf(diag.InvalidContainerUsage, e.Index.Position(), "index must be of type index, found %s", i)
	}
	if types.IsError(x) {
		return x
	}
	c, ok := x.(*types.Container)
	if !ok {
		a.ctx.Errorf(diag.InvalidContainerUsage, e.Pos, "cannot index %s", x)
		return types.NewError()
	}
	mod := types.Var
	if c.Mod.IsConst() {
		mod = types.Const
	}
	return types.Clone(c.Inner, mod)
}

func (a *Analyzer) deref(e *ast.Deref) types.Type {
	x := a.single(e.X)
	if types.IsError(x) {
		return x
	}
	p, ok := x.(*types.Ptr)
	if !ok {
		a.ctx.Errorf(diag.TypeMismatch, e.Pos, "cannot dereference %s", x)
		return types.NewError()
	}
	return types.Clone(p.Inner, types.Var)
}

func (a *Analyzer) methodCall(e *ast.MethodCall) []types.Type {
	x := a.single(e.X)
	args, ok := a.args(e.Args)
	if types.IsError(x) || !ok {
		return errorTypes
	}
	cl := types.ClassOf(x)
	if cl == nil {
		a.ctx.Errorf(diag.TypeMismatch, e.Pos, "%s has no member functions", x)
		return errorTypes
	}
	f, err := types.ResolveMember(cl, e.Name, args, ast.Reader, ast.Writer)
	if err != nil {
		a.ctx.Errorf(diag.OverloadResolutionFailure, e.Pos, "%s", err)
		return errorTypes
	}
	if ct, ok := x.(*types.ClassType); ok && f.Kind == ast.Writer && ct.Mod.IsConst() {
		a.ctx.Errorf(diag.TypeMismatch, e.Pos, "cannot call writer %s on read-only %s", e.Name, x)
	}
	a.checkRefArgs(f, e.Args)
	a.info.Calls[e] = &Call{Fn: f, Recv: e.X, Args: e.Args}
	return results(f.Sig)
}

// routineCall covers `C::r(args)`, constructor expressions `C(args)`, scalar
// conversions `real(x)` and unqualified routines of the current class.
func (a *Analyzer) routineCall(e *ast.RoutineCall) []types.Type {
	args, ok := a.args(e.Args)
	if e.Class != "" {
		cl := a.prog.Class(e.Class)
		if cl == nil {
			a.ctx.Errorf(diag.UndeclaredIdentifier, e.Pos, "undeclared class '%s'", e.Class)
			return errorTypes
		}
		return a.routine(e, cl, args, ok)
	}
	if k, isScalar := types.LookupScalar(e.Name); isScalar {
		return a.conversion(e, k, args, ok)
	}
	if cl := a.prog.Class(e.Name); cl != nil {
		if !ok {
			return one(types.NewClass(cl))
		}
		f, err := types.ResolveMember(cl, "create", args, ast.Create)
		if err != nil {
			a.ctx.Errorf(diag.OverloadResolutionFailure, e.Pos, "%s", err)
			return errorTypes
		}
		a.checkRefArgs(f, e.Args)
		a.info.Calls[e] = &Call{Fn: f, Args: e.Args, Construct: true}
		return one(types.NewClass(cl))
	}
	if cl := a.ctx.Class(); cl != nil && len(cl.Lookup(e.Name, ast.Routine)) > 0 {
		return a.routine(e, cl, args, ok)
	}
	a.ctx.Errorf(diag.UndeclaredIdentifier, e.Pos, "undeclared routine '%s'", e.Name)
	return errorTypes
}

func (a *Analyzer) routine(e *ast.RoutineCall, cl *types.Class, args []types.Type, ok bool) []types.Type {
	if !ok {
		return errorTypes
	}
	f, err := types.ResolveMember(cl, e.Name, args, ast.Routine)
	if err != nil {
		a.ctx.Errorf(diag.OverloadResolutionFailure, e.Pos, "%s", err)
		return errorTypes
	}
	a.checkRefArgs(f, e.Args)
	a.info.Calls[e] = &Call{Fn: f, Args: e.Args}
	return results(f.Sig)
}

func (a *Analyzer) conversion(e *ast.RoutineCall, k types.ScalarKind, args []types.Type, ok bool) []types.Type {
	to := types.NewScalar(k)
	if !ok {
		return one(to)
	}
	if len(args) != 1 || !types.IsNumeric(args[0]) || k == types.Bool {
		a.ctx.Errorf(diag.TypeMismatch, e.Pos, "cannot convert %s to %s", types.TypeList(args), to)
		return errorTypes
	}
	a.info.Calls[e] = &Call{Args: e.Args, Convert: to}
	return one(to)
}

func (a *Analyzer) cCall(e *ast.CCall) []types.Type {
	args, ok := a.args(e.Args)
	ext := a.prog.Extern(e.Name)
	if ext == nil {
		a.ctx.Errorf(diag.UndeclaredIdentifier, e.Pos, "undeclared extern '%s'", e.Name)
		return errorTypes
	}
	if !ok {
		return results(ext.Sig)
	}
	if !ext.Sig.Applicable(args) {
		a.ctx.Errorf(diag.TypeMismatch, e.Pos, "arguments %s do not match extern %s%s", types.TypeList(args), ext.Name, ext.Sig)
		return errorTypes
	}
	a.info.Calls[e] = &Call{Extern: ext, Args: e.Args}
	return results(ext.Sig)
}

// checkRefArgs requires arguments bound to ref parameters to be writable
// variables.
func (a *Analyzer) checkRefArgs(f *types.MemberFunction, args []ast.Expr) {
	for i, p := range f.Sig.In {
		if p.Type.Modifier() != types.Ref || i >= len(args) {
			continue
		}
		t := a.info.TypeOf(args[i])
		if !a.addressable(args[i]) || (t != nil && t.Modifier().IsConst()) {
			a.ctx.Errorf(diag.TypeMismatch, args[i].Position(), "argument %d of %s must be a writable variable", i+1, f)
		}
	}
}
