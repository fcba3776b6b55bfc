package analyzer

import (
	"strings"
	"testing"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/go-test/deep"
	"github.com/vyPal/Lanec/lib/ast"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/parser"
	"github.com/vyPal/Lanec/lib/types"
)

func analyze(t *testing.T, src string) (*Result, *diag.Sink) {
	t.Helper()
	sink := diag.NewSink()
	tree := parser.ParseString("test.ln", src, sink)
	if tree == nil || sink.Failed() {
		t.Fatalf("parse failed:\n%s", sink)
	}
	return Analyze(tree, sink), sink
}

func function(t *testing.T, res *Result, class, name string) *types.MemberFunction {
	t.Helper()
	cl := res.Program.Class(class)
	if cl == nil {
		t.Fatalf("class %s not registered", class)
	}
	fs := cl.Lookup(name)
	if len(fs) == 0 {
		t.Fatalf("%s.%s not registered", class, name)
	}
	return fs[0]
}

func pairKinds(res *Result, f *types.MemberFunction) []CallKind {
	var out []CallKind
	for _, s := range f.Decl.Body {
		if as, ok := s.(*ast.AssignStmt); ok {
			for _, p := range res.Info.Assigns[as].Pairs {
				out = append(out, p.Kind)
			}
		}
	}
	return out
}

const pairSource = `
class Pair {
	var x: int
	var y: int

	routine swap(p: ref Pair) {
		var t: int = p.x;
		p.x = p.y;
		p.y = t;
	}
}
`

func TestSwapSymbols(t *testing.T) {
	res, sink := analyze(t, pairSource)
	if !res.OK {
		t.Fatalf("analysis failed:\n%s", sink)
	}
	swap := function(t, res, "Pair", "swap")
	if !swap.Analyzed {
		t.Error("swap not marked analyzed")
	}
	var names []string
	for _, l := range swap.Scope.Locals() {
		names = append(names, l.Name)
	}
	if diff := deep.Equal(names, []string{"p", "t"}); diff != nil {
		t.Error(diff)
	}
	tl := swap.Scope.LookupLocal("t")
	if tl.IsParam() || !types.Identical(tl.Type, types.NewScalar(types.Int32)) {
		t.Errorf("t: %s param=%v", tl.Type, tl.IsParam())
	}
	if diff := deep.Equal(pairKinds(res, swap), []CallKind{Copy, Copy, Copy}); diff != nil {
		t.Error(diff)
	}
}

func TestSimdMemberOfPlainClass(t *testing.T) {
	res, sink := analyze(t, `
simd class V {
	var w: W
}
class W { }
`)
	if res.OK || !sink.Failed() {
		t.Fatal("analysis should fail")
	}
	if diff := deep.Equal(sink.Kinds(), []diag.Kind{diag.InvalidContainerUsage}); diff != nil {
		t.Fatalf("%v\n%s", diff, sink)
	}
	msg := sink.Errors()[0].Msg
	if !strings.Contains(msg, "V") || !strings.Contains(msg, "W") {
		t.Errorf("message does not name both classes: %s", msg)
	}
}

func TestSimdContainerOfPlainClass(t *testing.T) {
	_, sink := analyze(t, `
class W { }
class U {
	routine f() {
		var ws: simd{W};
	}
}
`)
	if diff := deep.Equal(sink.Kinds(), []diag.Kind{diag.InvalidContainerUsage}); diff != nil {
		t.Fatalf("%v\n%s", diff, sink)
	}
}

func TestShadowingAndCollision(t *testing.T) {
	res, sink := analyze(t, `
class S {
	routine f(n: int) {
		var x: real = 1.0;
		{
			var x: int = 1;
		}
	}
}
`)
	if !res.OK {
		t.Fatalf("shadowing rejected:\n%s", sink)
	}

	_, sink = analyze(t, `
class S {
	routine f(n: int) {
		var x: int = 1;
		var x: int = 2;
		if true {
			var n: int = 3;
		}
	}
}
`)
	want := []diag.Kind{diag.DuplicateDeclaration, diag.DuplicateDeclaration}
	if diff := deep.Equal(sink.Kinds(), want); diff != nil {
		t.Fatalf("%v\n%s", diff, sink)
	}
}

func TestOverloadResolution(t *testing.T) {
	res, sink := analyze(t, `
class C {
	var v: real
	create(a: int) { }
	create(a: real) { }
}
class U {
	routine f() {
		var c: C = 1;
		var d: C = 2.0;
		var e: C = true;
	}
}
`)
	if diff := deep.Equal(sink.Kinds(), []diag.Kind{diag.OverloadResolutionFailure}); diff != nil {
		t.Fatalf("%v\n%s", diff, sink)
	}
	f := function(t, res, "U", "f")
	var got []string
	for _, s := range f.Decl.Body {
		p := res.Info.Assigns[s.(*ast.AssignStmt)].Pairs[0]
		if p.Fn == nil {
			got = append(got, p.Kind.String())
			continue
		}
		got = append(got, p.Fn.Sig.In[0].Type.Name())
	}
	if diff := deep.Equal(got, []string{"int32", "real64", "empty"}); diff != nil {
		t.Error(diff)
	}
}

func TestRedundantDeclaration(t *testing.T) {
	res, sink := analyze(t, `
class C {
	create(a: int) { }
	create(b: int) { }
	reader get() -> (r: int) { }
	reader get() -> (r: real) { }
}
`)
	if diff := deep.Equal(sink.Kinds(), []diag.Kind{diag.DuplicateDeclaration}); diff != nil {
		t.Fatalf("%v\n%s", diff, sink)
	}
	if n := len(res.Program.Class("C").Lookup("get")); n != 2 {
		t.Errorf("overloads differing in results: %d registered", n)
	}
}

func TestDiagnosticsAccumulate(t *testing.T) {
	_, sink := analyze(t, `
class C {
	routine r(a: int, b: int) { }
	routine f() {
		x = 1;
		while 1 {
			y = 2;
		}
		C::r(p, q);
		break;
	}
}
`)
	want := []diag.Kind{
		diag.UndeclaredIdentifier,
		diag.TypeMismatch,
		diag.UndeclaredIdentifier,
		diag.UndeclaredIdentifier,
		diag.UndeclaredIdentifier,
		diag.Syntax,
	}
	if diff := deep.Equal(sink.Kinds(), want); diff != nil {
		t.Fatalf("%v\n%s", diff, sink)
	}
}

func TestCallKinds(t *testing.T) {
	res, sink := analyze(t, `
class P {
	var a: int
	reader twice() -> (q: P) { }
}
class U {
	routine f(n: index) {
		var v: simd{real32} = n;
		var w: simd{real32} = v;
		var p: P = P();
		var q: P = p;
		var r: P = p.twice();
		var s: P;
		var i: int;
		v = w;
		q = r;
	}
}
`)
	if !res.OK {
		t.Fatalf("analysis failed:\n%s", sink)
	}
	want := []CallKind{
		ContainerCreate, ContainerCopy, InitializedByCaller, User,
		InitializedByCaller, User, Copy, ContainerCopy, User,
	}
	if diff := deep.Equal(pairKinds(res, function(t, res, "U", "f")), want); diff != nil {
		t.Error(diff)
	}
}

func TestMultipleTargets(t *testing.T) {
	res, sink := analyze(t, `
class V {
	var x: real
	var y: real
	create(a: real, b: real) { self.x = a; self.y = b; }
	reader parts() -> (a: real, b: real) { a = self.x; b = self.y; }
}
class U {
	routine f() {
		var v: V = 1.0, 2.0;
		var a: real, var b: real = v.parts();
		var w: V = v.parts();
		var c: real, var d: real = 1.0;
	}
}
`)
	want := []diag.Kind{diag.TypeMismatch}
	if diff := deep.Equal(sink.Kinds(), want); diff != nil {
		t.Fatalf("%v\n%s", diff, sink)
	}
	got := pairKinds(res, function(t, res, "U", "f"))
	if diff := deep.Equal(got, []CallKind{User, Copy, Copy, User, Empty, Empty}); diff != nil {
		t.Error(diff)
	}
}

func TestConstCorrectness(t *testing.T) {
	_, sink := analyze(t, `
class C {
	var x: int
	reader get() -> (r: int) {
		self.x = 1;
		r = self.x;
	}
	writer set(v: int) {
		self.x = v;
	}
	routine f(c: C) {
		const k: int = 1;
		k = 2;
		c.set(3);
	}
}
`)
	want := []diag.Kind{diag.TypeMismatch, diag.TypeMismatch, diag.TypeMismatch}
	if diff := deep.Equal(sink.Kinds(), want); diff != nil {
		t.Fatalf("%v\n%s", diff, sink)
	}
}

func TestMemberFolding(t *testing.T) {
	res, sink := analyze(t, `
class In { var v: int }
class Mid { var i: In  var p: ptr{In} }
class Out {
	var m: Mid
	var arr: array{Mid}
	writer f(k: index) {
		var a: int = self.m.i.v;
		var b: int = self.m.p.v;
		var c: int = self.arr[k].i.v;
	}
}
`)
	if !res.OK {
		t.Fatalf("analysis failed:\n%s", sink)
	}
	var folded []bool
	f := function(t, res, "Out", "f")
	for _, s := range f.Decl.Body {
		rhs := res.Info.Assigns[s.(*ast.AssignStmt)].Exprs[0].(*ast.MemberAccess)
		folded = append(folded, res.Info.Foldable[rhs])
	}
	if diff := deep.Equal(folded, []bool{true, false, false}); diff != nil {
		t.Error(diff)
	}
}

func TestUnaryMinusOverlap(t *testing.T) {
	_, sink := analyze(t, `
class V {
	var x: real
	operator -(a: V) -> (r: V) { }
	operator -(a: V, b: V) -> (r: V) { }
	routine f(a: V) {
		var b: V = -a;
	}
}
`)
	if diff := deep.Equal(sink.Kinds(), []diag.Kind{diag.OverloadResolutionFailure}); diff != nil {
		t.Fatalf("%v\n%s", diff, sink)
	}
}

func TestOperatorFromLeftOperand(t *testing.T) {
	_, sink := analyze(t, `
class V {
	var x: real
	operator *(a: V, k: real) -> (r: V) { }
	routine f(a: V) {
		var b: V = a * 2.0;
		var c: V = 2.0 * a;
	}
}
`)
	if diff := deep.Equal(sink.Kinds(), []diag.Kind{diag.TypeMismatch}); diff != nil {
		t.Fatalf("%v\n%s", diff, sink)
	}
	if pos := sink.Errors()[0].Pos; pos.Line != 7 {
		t.Errorf("error at line %d, want the scalar-led product", pos.Line)
	}
}

func TestScopeGuards(t *testing.T) {
	ctx := NewContext(types.NewProgram(), NewInfo(), diag.NewSink())
	root := types.NewScope(nil)
	leaveRoot := ctx.EnterScope(root)
	for i := 0; i < 3; i++ {
		_, leave := ctx.NewScope()
		func() {
			defer leave()
			ctx.Errorf(diag.TypeMismatch, lexer.Position{}, "failure inside scope %d", i)
		}()
		if ctx.Depth() != 1 || ctx.Current() != root {
			t.Fatalf("depth %d after leaving nested scope", ctx.Depth())
		}
	}
	leaveRoot()
	if ctx.Depth() != 0 || ctx.Result() {
		t.Errorf("depth %d result %v", ctx.Depth(), ctx.Result())
	}
}

func TestPointerFromPointee(t *testing.T) {
	res, sink := analyze(t, `
class Node {
	var k: int
	var n: int
	var next: ptr{Node}

	writer link(o: ref Node) {
		self.next = o;
		var p: ptr{int} = o.n;
		var q: ptr{Node} = self.next;
	}
	routine loose() {
		var j: int = 1;
		var p: ptr{int} = j;
		var r: ptr{int} = 2;
	}
}
`)
	if diff := deep.Equal(sink.Kinds(), []diag.Kind{diag.TypeMismatch, diag.TypeMismatch}); diff != nil {
		t.Fatalf("%v\n%s", diff, sink)
	}
	got := pairKinds(res, function(t, res, "Node", "link"))
	if diff := deep.Equal(got, []CallKind{AddressOf, AddressOf, Copy}); diff != nil {
		t.Error(diff)
	}
}
