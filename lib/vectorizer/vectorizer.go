// Package vectorizer derives packed implementations of simd member
// functions. A packed function runs W instances of its class at once: every
// lane-varying scalar becomes a W-lane vector and the instance data is read
// from the packed layout of the class.
package vectorizer

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/vyPal/Lanec/lib/compiler"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/ir"
	"github.com/vyPal/Lanec/lib/types"
)

type Vectorizer struct {
	Module *ir.Module

	comp   *compiler.Compiler
	sink   *diag.Sink
	width  int
	errors int

	packed   map[*types.Class]*ir.Struct
	byScalar map[*ir.Struct]*ir.Struct
	members  map[*ir.Member]*ir.Member
	masks    map[*ir.Member]bool
	// lanes of the parameters and results of every packed declaration
	params  map[*ir.FuncDecl][]lane
	results map[*ir.FuncDecl][]lane
}

func New(c *compiler.Compiler, sink *diag.Sink) *Vectorizer {
	return &Vectorizer{
		Module:   c.Module,
		comp:     c,
		sink:     sink,
		width:    c.Options.PackedWidth,
		packed:   make(map[*types.Class]*ir.Struct),
		byScalar: make(map[*ir.Struct]*ir.Struct),
		members:  make(map[*ir.Member]*ir.Member),
		masks:    make(map[*ir.Member]bool),
		params:   make(map[*ir.FuncDecl][]lane),
		results:  make(map[*ir.FuncDecl][]lane),
	}
}

// Vectorize adds a packed version of every simd function of every simd
// class to the module of c.
func Vectorize(c *compiler.Compiler, sink *diag.Sink) (*Vectorizer, bool) {
	v := New(c, sink)
	return v, v.Run()
}

func (v *Vectorizer) Run() bool {
	var todo []*types.MemberFunction
	for _, cl := range v.comp.Program.Classes {
		if !cl.Simd || v.Packed(cl) == nil {
			continue
		}
		for _, f := range cl.Funcs {
			if !f.Simd || f.AutoGenerated || !f.Analyzed {
				continue
			}
			if v.comp.FuncDecl(f) == nil || v.Module.Function(v.comp.FuncDecl(f).ID) == nil {
				continue
			}
			todo = append(todo, f)
		}
	}
	// every packed declaration exists before any body is rewritten, so
	// packed functions can call each other in any order
	for _, f := range todo {
		v.declare(f)
	}
	for _, f := range todo {
		scalar := v.Module.Function(v.comp.FuncDecl(f).ID)
		if pf := v.rewrite(f, scalar); pf != nil {
			v.Module.Functions = append(v.Module.Functions, pf)
		}
	}
	return v.errors == 0
}

func (v *Vectorizer) errorf(kind diag.Kind, pos lexer.Position, format string, args ...interface{}) {
	v.errors++
	v.sink.Errorf(kind, pos, format, args...)
}

// PackedID is the identifier of the packed version of a scalar function.
func (v *Vectorizer) PackedID(scalar *ir.FuncDecl) string {
	return fmt.Sprintf("%s.x%d", scalar.ID, v.width)
}

// declare registers the packed declaration of f and maps the scalar
// identifier to it.
func (v *Vectorizer) declare(f *types.MemberFunction) {
	scalar := v.comp.FuncDecl(f)
	params, results := v.classify(f)
	d := &ir.FuncDecl{ID: v.PackedID(scalar), Trivial: scalar.Trivial}
	for i, t := range scalar.Params {
		d.Params = append(d.Params, v.laneType(t, params[i]))
	}
	for i, t := range scalar.Results {
		d.Results = append(d.Results, v.laneType(t, results[i]))
	}
	if err := v.Module.Registry.Declare(d); err != nil {
		diag.Bug("%v", err)
	}
	v.Module.Registry.MapPacked(scalar, d)
	v.params[d] = params
	v.results[d] = results
}

func (v *Vectorizer) laneType(t ir.Type, l lane) ir.Type {
	if l == varying {
		return t.Vector(v.width)
	}
	return t
}

// classify assigns a lane to every parameter and result of f, in the order
// of its scalar declaration.
func (v *Vectorizer) classify(f *types.MemberFunction) (params, results []lane) {
	if f.HasSelf() {
		params = append(params, packed)
	}
	for _, p := range f.Sig.In {
		params = append(params, v.paramLane(p.Type))
	}
	for _, p := range f.Sig.HiddenOuts() {
		params = append(params, v.paramLane(p.Type))
	}
	for _, p := range f.Sig.AtomicOuts() {
		results = append(results, v.valueLane(p.Type))
	}
	return params, results
}

func (v *Vectorizer) paramLane(t types.Type) lane {
	switch x := t.(type) {
	case *types.ClassType:
		if x.Class.Simd && v.packed[x.Class] != nil {
			return packed
		}
		return uniform
	case *types.Scalar:
		if x.Mod == types.Ref {
			return packed
		}
	}
	return v.valueLane(t)
}

// valueLane is the lane of an atomic value: scalars vary per lane,
// pointers are shared.
func (v *Vectorizer) valueLane(t types.Type) lane {
	if _, ok := t.(*types.Scalar); ok {
		return varying
	}
	return uniform
}
