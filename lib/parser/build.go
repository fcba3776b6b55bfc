package parser

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/vyPal/Lanec/lib/ast"
	"github.com/vyPal/Lanec/lib/diag"
	lnlex "github.com/vyPal/Lanec/lib/lexer"
)

// Build converts the participle parse tree into the ast sum types.
func Build(p *Program, sink *diag.Sink) *ast.Program {
	b := &builder{sink: sink}
	prog := &ast.Program{}
	for _, d := range p.Decls {
		if d.Class != nil {
			prog.Classes = append(prog.Classes, b.class(d.Class))
		} else if d.Extern != nil {
			prog.Externs = append(prog.Externs, &ast.Extern{
				Pos:  d.Extern.Pos,
				Name: d.Extern.Name,
				In:   b.params(d.Extern.Parameters),
				Out:  b.params(d.Extern.Results),
			})
		}
	}
	return prog
}

type builder struct {
	sink *diag.Sink
}

func (b *builder) class(c *ClassDefinition) *ast.Class {
	cl := &ast.Class{Pos: c.Pos, Name: c.Name, Simd: c.Simd}
	for _, m := range c.Members {
		if m.Field != nil {
			cl.Members = append(cl.Members, &ast.MemberVar{
				Pos:  m.Field.Pos,
				Name: m.Field.Name,
				Type: b.typ(m.Field.Type),
			})
		} else if m.Function != nil {
			cl.Members = append(cl.Members, b.function(m.Function))
		}
	}
	return cl
}

func (b *builder) function(f *FunctionDefinition) *ast.MemberFunc {
	kind, _ := ast.FuncKindByName(f.Kind)
	name := f.Name
	switch kind {
	case ast.Create, ast.Assign:
		if name != "" {
			b.sink.Errorf(diag.Syntax, f.Pos, "%s takes no name, found '%s'", kind, name)
		}
		name = kind.String()
	default:
		if name == "" {
			b.sink.Errorf(diag.Syntax, f.Pos, "%s needs a name", kind)
		}
	}
	return &ast.MemberFunc{
		Pos:    f.Pos,
		EndPos: f.EndPos,
		Kind:   kind,
		Name:   name,
		Simd:   f.Simd,
		In:     b.params(f.Parameters),
		Out:    b.params(f.Results),
		Body:   b.statements(f.Body),
	}
}

func (b *builder) params(args []*ArgumentDefinition) []*ast.Param {
	var out []*ast.Param
	for _, a := range args {
		p := &ast.Param{Pos: a.Pos, Name: a.Name, Type: b.typ(a.Type)}
		switch a.Qualifier {
		case "var":
			p.Qual = ast.QualVar
		case "const":
			p.Qual = ast.QualConst
		case "ref":
			p.Qual = ast.QualRef
		case "cref":
			p.Qual = ast.QualConstRef
		}
		out = append(out, p)
	}
	return out
}

func (b *builder) typ(t *Type) *ast.TypeExpr {
	if t == nil {
		return nil
	}
	te := &ast.TypeExpr{Pos: t.Pos, Name: t.Name}
	switch t.Container {
	case "ptr":
		te.Container = ast.PtrKind
	case "array":
		te.Container = ast.ArrayKind
	case "simd":
		te.Container = ast.SimdKind
	}
	if t.Inner != nil {
		te.Inner = b.typ(t.Inner)
	}
	return te
}

func (b *builder) statements(stmts []*Statement) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		if st := b.statement(s); st != nil {
			out = append(out, st)
		}
	}
	return out
}

func (b *builder) statement(s *Statement) ast.Stmt {
	switch {
	case s.If != nil:
		return b.ifStmt(s.If)
	case s.While != nil:
		return &ast.While{Pos: s.While.Pos, Cond: b.expr(s.While.Condition), Body: b.statements(s.While.Body)}
	case s.Repeat != nil:
		return &ast.RepeatUntil{Pos: s.Repeat.Pos, Body: b.statements(s.Repeat.Body), Cond: b.expr(s.Repeat.Condition)}
	case s.Block != nil:
		return &ast.ScopeBlock{Pos: s.Block.Pos, Body: b.statements(s.Block.Body)}
	case s.Return:
		return &ast.Return{Pos: s.Pos}
	case s.Break:
		return &ast.Break{Pos: s.Pos}
	case s.Continue:
		return &ast.Continue{Pos: s.Pos}
	case s.Assign != nil:
		return b.assignment(s.Assign)
	}
	b.sink.Errorf(diag.Syntax, s.Pos, "unknown statement")
	return nil
}

func (b *builder) ifStmt(i *If) *ast.IfElse {
	st := &ast.IfElse{Pos: i.Pos, Cond: b.expr(i.Condition), Then: b.statements(i.Body)}
	if i.ElseIf != nil {
		st.HasElse = true
		st.Else = []ast.Stmt{b.ifStmt(i.ElseIf)}
	} else if i.Else != nil {
		st.HasElse = true
		st.Else = b.statements(i.Else.Body)
	}
	return st
}

func (b *builder) assignment(a *Assignment) *ast.AssignStmt {
	st := &ast.AssignStmt{Pos: a.Pos}
	for _, t := range a.Left {
		if t.Definition != nil {
			d := t.Definition
			st.Lhs = append(st.Lhs, &ast.Decl{
				Pos:   d.Pos,
				Name:  d.Name,
				Const: d.Kind == "const",
				Type:  b.typ(d.Type),
			})
		} else {
			st.Lhs = append(st.Lhs, b.expr(t.Expression))
		}
	}
	for _, e := range a.Right {
		st.Rhs = append(st.Rhs, b.expr(e))
	}
	return st
}

func (b *builder) exprs(es []*Expression) []ast.Expr {
	out := make([]ast.Expr, 0, len(es))
	for _, e := range es {
		out = append(out, b.expr(e))
	}
	return out
}

func (b *builder) expr(e *Expression) ast.Expr {
	x := b.conjunction(e.Left)
	for _, r := range e.Right {
		x = &ast.Binary{Pos: r.Pos, Op: r.Op, X: x, Y: b.conjunction(r.Right)}
	}
	return x
}

func (b *builder) conjunction(c *Conjunction) ast.Expr {
	x := b.comparison(c.Left)
	for _, r := range c.Right {
		x = &ast.Binary{Pos: r.Pos, Op: r.Op, X: x, Y: b.comparison(r.Right)}
	}
	return x
}

func (b *builder) comparison(c *Comparison) ast.Expr {
	x := b.sum(c.Left)
	for _, r := range c.Right {
		x = &ast.Binary{Pos: r.Pos, Op: r.Op, X: x, Y: b.sum(r.Right)}
	}
	return x
}

func (b *builder) sum(s *Sum) ast.Expr {
	x := b.term(s.Left)
	for _, r := range s.Right {
		x = &ast.Binary{Pos: r.Pos, Op: r.Op, X: x, Y: b.term(r.Right)}
	}
	return x
}

func (b *builder) term(t *Term) ast.Expr {
	x := b.unary(t.Left)
	for _, r := range t.Right {
		x = &ast.Binary{Pos: r.Pos, Op: r.Op, X: x, Y: b.unary(r.Right)}
	}
	return x
}

func (b *builder) unary(u *Unary) ast.Expr {
	if u.Operand != nil {
		return &ast.Unary{Pos: u.Pos, Op: u.Op, X: b.unary(u.Operand)}
	}
	return b.postfix(u.Postfix)
}

func (b *builder) postfix(p *Postfix) ast.Expr {
	x := b.factor(p.Factor)
	for _, s := range p.Suffixes {
		switch {
		case s.Member != nil && s.Member.Call:
			x = &ast.MethodCall{Pos: s.Pos, X: x, Name: s.Member.Name, Args: b.exprs(s.Member.Args)}
		case s.Member != nil:
			x = &ast.MemberAccess{Pos: s.Pos, X: x, Name: s.Member.Name}
		case s.Index != nil:
			x = &ast.IndexExpr{Pos: s.Pos, X: x, Index: b.expr(s.Index)}
		case s.Deref:
			x = &ast.Deref{Pos: s.Pos, X: x}
		}
	}
	return x
}

func (b *builder) factor(f *Factor) ast.Expr {
	switch {
	case f.Real != nil:
		return b.realLit(f.Pos, *f.Real)
	case f.Int != nil:
		return b.intLit(f.Pos, *f.Int)
	case f.Bool != nil:
		return &ast.Literal{Pos: f.Pos, Kind: ast.BoolLit, TypeName: "bool", Bool: bool(*f.Bool), Text: strconv.FormatBool(bool(*f.Bool))}
	case f.Self:
		return &ast.Self{Pos: f.Pos}
	case f.CCall != nil:
		return &ast.CCall{Pos: f.CCall.Pos, Name: f.CCall.Name, Args: b.exprs(f.CCall.Args)}
	case f.StaticCall != nil:
		return &ast.RoutineCall{Pos: f.StaticCall.Pos, Class: f.StaticCall.Class, Name: f.StaticCall.Name, Args: b.exprs(f.StaticCall.Args)}
	case f.FunctionCall != nil:
		return &ast.RoutineCall{Pos: f.FunctionCall.Pos, Name: f.FunctionCall.Name, Args: b.exprs(f.FunctionCall.Args)}
	case f.Identifier != nil:
		return &ast.Ident{Pos: f.Pos, Name: *f.Identifier}
	case f.SubExpression != nil:
		return b.expr(f.SubExpression)
	}
	b.sink.Errorf(diag.Syntax, f.Pos, "unknown expression")
	return &ast.Literal{Pos: f.Pos, Kind: ast.BoolLit, TypeName: "bool"}
}

func (b *builder) intLit(pos lexer.Position, text string) ast.Expr {
	digits := strings.TrimRight(text, "xbslu")
	suffix := text[len(digits):]
	lit := &ast.Literal{Pos: pos, Kind: ast.IntLit, Text: text, TypeName: lnlex.IntSuffixes[suffix]}
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		b.sink.Errorf(diag.Syntax, pos, "invalid integer literal '%s'", text)
	}
	lit.Int = v
	return lit
}

func (b *builder) realLit(pos lexer.Position, text string) ast.Expr {
	lit := &ast.Literal{Pos: pos, Kind: ast.RealLit, Text: text, TypeName: "real"}
	digits := text
	if strings.HasSuffix(text, "r32") {
		digits = strings.TrimSuffix(text, "r32")
		lit.TypeName = "real32"
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		b.sink.Errorf(diag.Syntax, pos, "invalid real literal '%s'", text)
	}
	lit.Real = v
	return lit
}
