// Package analyzer resolves names and types over the syntax tree. Results go
// to an Info side table; errors go to the diagnostic sink and never stop the
// walk, so one run reports as much as possible.
package analyzer

import (
	"github.com/vyPal/Lanec/lib/ast"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/types"
)

type Analyzer struct {
	ctx  *Context
	info *Info
	prog *types.Program
}

// Result is everything the later passes need from analysis.
type Result struct {
	Program *types.Program
	Info    *Info
	// OK is false if any error was reported.
	OK bool
}

func Analyze(tree *ast.Program, sink *diag.Sink) *Result {
	prog := types.NewProgram()
	info := NewInfo()
	a := &Analyzer{ctx: NewContext(prog, info, sink), info: info, prog: prog}

	a.scanSymbols(tree)
	for _, cl := range prog.Classes {
		a.declareVars(cl)
	}
	for _, e := range tree.Externs {
		a.declareExtern(e)
	}
	for _, cl := range prog.Classes {
		a.declareFuncs(cl)
	}
	for _, cl := range prog.Classes {
		a.declareAutoGenerated(cl)
	}
	for _, cl := range prog.Classes {
		for _, f := range cl.Funcs {
			if !f.AutoGenerated {
				a.function(f)
			}
		}
	}
	if a.ctx.Depth() != 0 {
		diag.Bug("scope stack not empty after analysis: depth %d", a.ctx.Depth())
	}
	return &Result{Program: prog, Info: info, OK: a.ctx.Result()}
}

func (a *Analyzer) function(f *types.MemberFunction) {
	defer a.ctx.EnterClass(f.Class)()
	defer a.ctx.EnterFunction(f)()

	errs := a.ctx.Errors()
	a.info.Scopes[f.Decl] = f.Scope
	a.statements(f.Decl.Body)
	f.Analyzed = a.ctx.Errors() == errs
}
