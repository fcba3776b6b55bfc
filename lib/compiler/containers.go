package compiler

import (
	"github.com/vyPal/Lanec/lib/ir"
	"github.com/vyPal/Lanec/lib/types"
)

// elemSize is the stride of a container's elements. Simd containers store
// their elements the same way; only their capacity is rounded.
func (ctx *Context) elemSize(c *types.Container) (int64, int64) {
	return ctx.sizeOf(c.Inner)
}

func (ctx *Context) emptyContainer(dst place) {
	ctx.storeField(dst, ir.HeaderData, ir.Zero(ir.PtrType))
	ctx.storeField(dst, ir.HeaderLen, ir.Zero(ir.IndexType))
}

// byteSize computes the allocation size for n elements. For simd
// containers n is first rounded up to a multiple of the packed width:
//
//	(n + W - 1) & ~(W - 1)
func (ctx *Context) byteSize(c *types.Container, n ir.Op) ir.Op {
	count := n
	if c.Kind == types.Simd {
		w := uint64(ctx.Options.PackedWidth)
		sum := ctx.NewReg(ir.IndexType)
		ctx.Emit(&ir.Assign{Kind: ir.Add, Dst: sum, Args: []ir.Op{n, ir.IntConst(ir.IndexType, w-1)}})
		rounded := ctx.NewReg(ir.IndexType)
		ctx.Emit(&ir.Assign{Kind: ir.And, Dst: rounded, Args: []ir.Op{sum, ir.IntConst(ir.IndexType, ^(w - 1))}})
		count = rounded
	}
	size, _ := ctx.elemSize(c)
	if size == 1 {
		return count
	}
	bytes := ctx.NewReg(ir.IndexType)
	ctx.Emit(&ir.Assign{Kind: ir.Mul, Dst: bytes, Args: []ir.Op{count, ir.IntConst(ir.IndexType, uint64(size))}})
	return bytes
}

// allocContainer allocates n elements and stores the data pointer and the
// element count into the header at dst.
func (ctx *Context) allocContainer(dst place, n ir.Op) {
	c := dst.typ.(*types.Container)
	data := ctx.NewReg(ir.PtrType)
	ctx.Emit(&ir.Alloc{Dst: data, Size: ctx.byteSize(c, n)})
	ctx.storeField(dst, ir.HeaderData, data)
	ctx.storeField(dst, ir.HeaderLen, n)
}

// copyContainer gives dst its own copy of the elements of src.
func (ctx *Context) copyContainer(dst, src place) {
	c := dst.typ.(*types.Container)
	from := ctx.loadField(src, ir.HeaderData)
	n := ctx.loadField(src, ir.HeaderLen)
	bytes := ctx.byteSize(c, n)
	data := ctx.NewReg(ir.PtrType)
	ctx.Emit(&ir.Alloc{Dst: data, Size: bytes})
	ctx.Emit(&ir.Memcpy{Dst: data, Src: from, Size: bytes})
	ctx.storeField(dst, ir.HeaderData, data)
	ctx.storeField(dst, ir.HeaderLen, n)
}
