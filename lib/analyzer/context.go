package analyzer

import (
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/types"
)

// Context is the mutable state threaded through every visitor: the scope
// stack, the class and function being analyzed and the failure flag. The
// Enter methods return the matching leave function, meant to be deferred.
type Context struct {
	Program *types.Program
	Info    *Info

	sink   *diag.Sink
	result bool
	errors int

	scopes   []*types.Scope
	class    *types.Class
	function *types.MemberFunction
	loops    int
}

func NewContext(prog *types.Program, info *Info, sink *diag.Sink) *Context {
	return &Context{Program: prog, Info: info, sink: sink, result: true}
}

// Result is false once any error was reported.
func (c *Context) Result() bool { return c.result }

// Errors counts the errors reported through this context.
func (c *Context) Errors() int { return c.errors }

func (c *Context) Errorf(kind diag.Kind, pos lexer.Position, format string, args ...interface{}) {
	c.result = false
	c.errors++
	c.sink.Errorf(kind, pos, format, args...)
}

func (c *Context) Warnf(kind diag.Kind, pos lexer.Position, format string, args ...interface{}) {
	c.sink.Warnf(kind, pos, format, args...)
}

func (c *Context) Current() *types.Scope {
	if len(c.scopes) == 0 {
		return nil
	}
	return c.scopes[len(c.scopes)-1]
}

func (c *Context) Depth() int { return len(c.scopes) }

func (c *Context) Class() *types.Class { return c.class }

func (c *Context) Function() *types.MemberFunction { return c.function }

func (c *Context) InLoop() bool { return c.loops > 0 }

// EnterScope pushes s. The returned function pops it and must run exactly
// once.
func (c *Context) EnterScope(s *types.Scope) func() {
	c.scopes = append(c.scopes, s)
	depth := len(c.scopes)
	return func() {
		if len(c.scopes) != depth || c.scopes[depth-1] != s {
			diag.Bug("scope stack out of balance: depth %d, expected %d", len(c.scopes), depth)
		}
		c.scopes = c.scopes[:depth-1]
	}
}

// NewScope creates a child of the current scope and enters it.
func (c *Context) NewScope() (*types.Scope, func()) {
	s := types.NewScope(c.Current())
	return s, c.EnterScope(s)
}

func (c *Context) EnterClass(cl *types.Class) func() {
	old := c.class
	c.class = cl
	return func() { c.class = old }
}

// EnterFunction makes f current and enters its root scope.
func (c *Context) EnterFunction(f *types.MemberFunction) func() {
	oldFn, oldLoops := c.function, c.loops
	c.function, c.loops = f, 0
	leave := c.EnterScope(f.Scope)
	return func() {
		leave()
		c.function, c.loops = oldFn, oldLoops
	}
}

func (c *Context) EnterLoop() func() {
	c.loops++
	return func() { c.loops-- }
}

// InsertLocal binds l in the current scope. A name already bound at this
// level, or naming a parameter of the current function, is a duplicate.
func (c *Context) InsertLocal(l *types.Local) bool {
	cur := c.Current()
	if c.function != nil && cur != c.function.Scope {
		if p := c.function.Scope.LookupLocal(l.Name); p != nil && p.IsParam() {
			c.Errorf(diag.DuplicateDeclaration, l.Pos, "'%s' collides with parameter declared at %s", l.Name, diag.FormatPos(p.Pos))
			return false
		}
	}
	if prev, ok := cur.Insert(l); !ok {
		c.Errorf(diag.DuplicateDeclaration, l.Pos, "'%s' is already declared at %s", l.Name, diag.FormatPos(prev.Pos))
		return false
	}
	return true
}

func (c *Context) LookupVar(name string) *types.Local {
	if cur := c.Current(); cur != nil {
		return cur.Lookup(name)
	}
	return nil
}
