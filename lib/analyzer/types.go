package analyzer

import (
	"github.com/vyPal/Lanec/lib/ast"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/types"
)

// resolveType turns a written type into a type of the model. Undeclared
// names yield ErrorType after reporting.
func (a *Analyzer) resolveType(te *ast.TypeExpr) types.Type {
	if te == nil {
		return types.NewError()
	}
	switch te.Container {
	case ast.PtrKind:
		inner := a.resolveType(te.Inner)
		if types.IsError(inner) {
			return inner
		}
		return types.NewPtr(inner)
	case ast.ArrayKind:
		inner := a.resolveType(te.Inner)
		if types.IsError(inner) {
			return inner
		}
		return types.NewContainer(types.Array, inner)
	case ast.SimdKind:
		inner := a.resolveType(te.Inner)
		if types.IsError(inner) {
			return inner
		}
		if !a.simdElement(te, inner) {
			return types.NewError()
		}
		return types.NewContainer(types.Simd, inner)
	}
	if k, ok := types.LookupScalar(te.Name); ok {
		return types.NewScalar(k)
	}
	if cl := a.ctx.Program.Class(te.Name); cl != nil {
		return types.NewClass(cl)
	}
	a.ctx.Errorf(diag.UndeclaredIdentifier, te.Pos, "undeclared type '%s'", te.Name)
	return types.NewError()
}

// simdElement checks that a simd container holds scalars or simd classes.
func (a *Analyzer) simdElement(te *ast.TypeExpr, inner types.Type) bool {
	switch x := inner.(type) {
	case *types.Scalar:
		return true
	case *types.ClassType:
		if x.Class.Simd {
			return true
		}
		a.ctx.Errorf(diag.InvalidContainerUsage, te.Pos, "%s: class %s is not declared simd", te, x.Class.Name)
		return false
	}
	a.ctx.Errorf(diag.InvalidContainerUsage, te.Pos, "%s: simd containers hold scalars or simd classes", te)
	return false
}

// paramModifier maps a parameter qualifier to the modifier its local
// carries. Non-atomic values are always passed by address; without a
// qualifier they are read-only.
func paramModifier(q ast.Qualifier, t types.Type) types.Modifier {
	atomic := types.IsAtomic(t)
	switch q {
	case ast.QualConst:
		if atomic {
			return types.Const
		}
		return types.ConstRef
	case ast.QualRef:
		return types.Ref
	case ast.QualConstRef:
		if atomic {
			return types.Const
		}
		return types.ConstRef
	case ast.QualVar:
		return types.Var
	}
	if atomic {
		return types.Var
	}
	return types.ConstRef
}
