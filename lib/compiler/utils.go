package compiler

import (
	"github.com/vyPal/Lanec/lib/ir"
	"github.com/vyPal/Lanec/lib/types"
)

var scalarKinds = [...]ir.Kind{
	types.Bool: ir.Bool, types.Int8: ir.Int8, types.Int16: ir.Int16, types.Int32: ir.Int32,
	types.Int64: ir.Int64, types.UInt8: ir.UInt8, types.UInt16: ir.UInt16, types.UInt32: ir.UInt32,
	types.UInt64: ir.UInt64, types.Index: ir.UInt64, types.Real32: ir.Real32, types.Real64: ir.Real64,
}

// irType maps an atomic type to its register type. Everything else is
// handled through its address.
func irType(t types.Type) ir.Type {
	if s, ok := t.(*types.Scalar); ok {
		return ir.Scalar(scalarKinds[s.Kind])
	}
	return ir.PtrType
}

// paramType is the type a parameter is passed as: atomic values by value
// unless they are ref, everything else by address.
func paramType(t types.Type) ir.Type {
	if types.IsAtomic(t) && t.Modifier() != types.Ref {
		return irType(t)
	}
	return ir.PtrType
}

// byAddress reports whether a parameter of type t arrives as a pointer.
func byAddress(t types.Type) bool {
	return !types.IsAtomic(t) || t.Modifier() == types.Ref
}

var operatorNames = map[string]string{
	"+": "add", "-": "sub", "*": "mul", "/": "div", "%": "rem",
	"==": "eq", "!=": "ne", "<": "lt", "<=": "le", ">": "gt", ">=": "ge",
	"and": "and", "or": "or", "xor": "xor", "not": "not",
}

var binaryOps = map[string]ir.AssignKind{
	"+": ir.Add, "-": ir.Sub, "*": ir.Mul, "/": ir.Div, "%": ir.Rem,
	"and": ir.And, "or": ir.Or, "xor": ir.Xor,
	"==": ir.Eq, "!=": ir.Ne, "<": ir.Lt, "<=": ir.Le, ">": ir.Gt, ">=": ir.Ge,
}

var unaryOps = map[string]ir.AssignKind{
	"-":   ir.Neg,
	"not": ir.Not,
}
