// Package compiler lowers analyzed member functions to ir instruction
// streams. It also owns class layouts and the function registry.
package compiler

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/vyPal/Lanec/lib/ast"
	"github.com/vyPal/Lanec/lib/analyzer"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/ir"
	"github.com/vyPal/Lanec/lib/types"
)

type Context struct {
	*ir.Function
	*Compiler
	parent *Context
	fn     *types.MemberFunction
	locals map[*types.Local]*storage
	fc     *FlowControl
}

type FlowControl struct {
	Leave    *ir.Label
	Continue *ir.Label
	// continued is set once a continue jumps to Continue
	continued bool
}

func NewContext(f *ir.Function, comp *Compiler, fn *types.MemberFunction) *Context {
	return &Context{
		Function: f,
		Compiler: comp,
		fn:       fn,
		locals:   make(map[*types.Local]*storage),
		fc:       &FlowControl{},
	}
}

// NewContext opens a nested context with its own locals and flow control.
func (c *Context) NewContext(fc *FlowControl) *Context {
	ctx := NewContext(c.Function, c.Compiler, c.fn)
	ctx.parent = c
	ctx.fc = fc
	return ctx
}

func (c *Context) lookupLocal(l *types.Local) *storage {
	if s, ok := c.locals[l]; ok {
		return s
	}
	if c.parent != nil {
		return c.parent.lookupLocal(l)
	}
	diag.Bug("%s: no storage for '%s'", c.Decl.ID, l.Name)
	return nil
}

type Options struct {
	// PackedWidth is the lane count used to round simd container sizes.
	PackedWidth int
	Name        string
}

type Compiler struct {
	Module  *ir.Module
	Program *types.Program
	Info    *analyzer.Info
	Options Options

	sink    *diag.Sink
	errors  int
	layouts map[*types.Class]*ir.Struct
	decls   map[*types.MemberFunction]*ir.FuncDecl
	externs map[*types.Extern]*ir.FuncDecl
	// counter disambiguates generated function identifiers; it restarts
	// with every Compiler so output is reproducible.
	counter int
}

func NewCompiler(res *analyzer.Result, opts Options, sink *diag.Sink) *Compiler {
	if opts.PackedWidth <= 0 {
		opts.PackedWidth = 4
	}
	return &Compiler{
		Module:  ir.NewModule(opts.Name),
		Program: res.Program,
		Info:    res.Info,
		Options: opts,
		sink:    sink,
		layouts: make(map[*types.Class]*ir.Struct),
		decls:   make(map[*types.MemberFunction]*ir.FuncDecl),
		externs: make(map[*types.Extern]*ir.FuncDecl),
	}
}

// Compile lowers res. Only functions whose bodies analyzed cleanly are
// lowered. Nothing is lowered if a class has no layout.
func Compile(res *analyzer.Result, opts Options, sink *diag.Sink) (*Compiler, bool) {
	c := NewCompiler(res, opts, sink)
	return c, c.Compile()
}

func (c *Compiler) Compile() bool {
	c.counter = 0
	laidOut := true
	for _, cl := range c.Program.Classes {
		if c.Layout(cl) == nil {
			laidOut = false
		}
	}
	if !laidOut {
		return false
	}
	c.declareExterns()
	for _, cl := range c.Program.Classes {
		for _, f := range cl.Funcs {
			c.declare(f)
		}
	}
	for _, cl := range c.Program.Classes {
		for _, f := range cl.Funcs {
			if f.Analyzed && c.decls[f] != nil {
				c.Module.Functions = append(c.Module.Functions, c.function(f))
			}
		}
	}
	return c.errors == 0
}

func (c *Compiler) errorf(kind diag.Kind, pos lexer.Position, format string, args ...interface{}) {
	c.errors++
	c.sink.Errorf(kind, pos, format, args...)
}

// FuncDecl returns the registered declaration of f, or nil if its
// signature did not analyze.
func (c *Compiler) FuncDecl(f *types.MemberFunction) *ir.FuncDecl { return c.decls[f] }

func (c *Compiler) declareExterns() {
	for _, e := range c.Program.Externs {
		if brokenSig(e.Sig) {
			continue
		}
		d := &ir.FuncDecl{ID: e.Name, Extern: true}
		for _, p := range e.Sig.In {
			d.Params = append(d.Params, irType(p.Type))
		}
		for _, p := range e.Sig.Out {
			d.Results = append(d.Results, irType(p.Type))
		}
		if err := c.Module.Registry.Declare(d); err != nil {
			diag.Bug("%v", err)
		}
		c.externs[e] = d
	}
}

func (c *Compiler) declare(f *types.MemberFunction) {
	if brokenSig(f.Sig) {
		return
	}
	d := &ir.FuncDecl{ID: c.uniqueID(f), Trivial: c.trivial(f)}
	if f.HasSelf() {
		d.Params = append(d.Params, ir.PtrType)
	}
	for _, p := range f.Sig.In {
		d.Params = append(d.Params, paramType(p.Type))
	}
	for _, p := range f.Sig.HiddenOuts() {
		d.Params = append(d.Params, paramType(p.Type))
	}
	for _, p := range f.Sig.AtomicOuts() {
		d.Results = append(d.Results, irType(p.Type))
	}
	if err := c.Module.Registry.Declare(d); err != nil {
		diag.Bug("%v", err)
	}
	c.decls[f] = d
}

// uniqueID names a function after its class and member name plus the
// running counter, so overloads never collide.
func (c *Compiler) uniqueID(f *types.MemberFunction) string {
	name := f.Name
	if f.Kind == ast.Operator {
		name = "operator_" + operatorNames[f.Name]
	}
	id := fmt.Sprintf("%s.%s.%d", f.Class.Name, name, c.counter)
	c.counter++
	return id
}

// trivial functions have nothing to execute; calls to them are elided.
func (c *Compiler) trivial(f *types.MemberFunction) bool {
	if f.AutoGenerated {
		return len(f.Class.Vars) == 0
	}
	return len(f.Decl.Body) == 0
}

func brokenSig(sig *types.Signature) bool {
	for _, p := range sig.In {
		if types.IsError(p.Type) {
			return true
		}
	}
	for _, p := range sig.Out {
		if types.IsError(p.Type) {
			return true
		}
	}
	return false
}

func (c *Compiler) function(f *types.MemberFunction) *ir.Function {
	fn := ir.NewFunction(c.decls[f])
	ctx := NewContext(fn, c, f)
	ctx.prologue()
	if f.AutoGenerated {
		ctx.generated()
	} else {
		ctx.compileStatements(f.Decl.Body)
	}
	if err := fn.Verify(); err != nil {
		diag.Bug("%v", err)
	}
	return fn
}
