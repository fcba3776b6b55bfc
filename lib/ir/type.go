// Package ir is the low-level instruction stream produced by lowering: one
// doubly linked list of instructions per function, bracketed by an entry and
// an epilogue label.
package ir

import (
	"fmt"

	lltypes "github.com/llir/llvm/ir/types"
)

type Kind int

const (
	Bool Kind = iota
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Real32
	Real64
	Ptr
)

var kindNames = [...]string{"i1", "i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64", "f32", "f64", "ptr"}

var kindSizes = [...]int64{1, 1, 2, 4, 8, 1, 2, 4, 8, 4, 8, 8}

func (k Kind) String() string { return kindNames[k] }

func (k Kind) Size() int64 { return kindSizes[k] }

func (k Kind) IsInteger() bool { return k >= Int8 && k <= UInt64 }

func (k Kind) IsSigned() bool { return k >= Int8 && k <= Int64 }

func (k Kind) IsReal() bool { return k == Real32 || k == Real64 }

// IntOfSize returns the signed integer kind of n bytes.
func IntOfSize(n int64) Kind {
	switch n {
	case 1:
		return Int8
	case 2:
		return Int16
	case 4:
		return Int32
	}
	return Int64
}

// Type is a scalar kind, or a vector of Lanes scalars when Lanes > 1.
type Type struct {
	Kind  Kind
	Lanes int
}

var (
	BoolType  = Type{Kind: Bool}
	IndexType = Type{Kind: UInt64}
	PtrType   = Type{Kind: Ptr}
)

func Scalar(k Kind) Type { return Type{Kind: k} }

func (t Type) IsVector() bool { return t.Lanes > 1 }

func (t Type) Elem() Type { return Type{Kind: t.Kind} }

func (t Type) Vector(lanes int) Type { return Type{Kind: t.Kind, Lanes: lanes} }

func (t Type) Size() int64 {
	if t.Lanes > 1 {
		return t.Kind.Size() * int64(t.Lanes)
	}
	return t.Kind.Size()
}

func (t Type) String() string {
	if t.Lanes > 1 {
		return fmt.Sprintf("<%d x %s>", t.Lanes, t.Kind)
	}
	return t.Kind.String()
}

// BytePtr is the backend type of every pointer.
var BytePtr = lltypes.NewPointer(lltypes.I8)

var llKinds = [...]lltypes.Type{
	Bool: lltypes.I1, Int8: lltypes.I8, Int16: lltypes.I16, Int32: lltypes.I32, Int64: lltypes.I64,
	UInt8: lltypes.I8, UInt16: lltypes.I16, UInt32: lltypes.I32, UInt64: lltypes.I64,
	Real32: lltypes.Float, Real64: lltypes.Double, Ptr: BytePtr,
}

// LL returns the backend type of t. Pointers are untyped byte pointers.
func (t Type) LL() lltypes.Type {
	elem := llKinds[t.Kind]
	if t.Lanes > 1 {
		return lltypes.NewVector(uint64(t.Lanes), elem)
	}
	return elem
}

// HeaderLL is the backend type of a container header.
var HeaderLL = lltypes.NewStruct(BytePtr, lltypes.I64)
