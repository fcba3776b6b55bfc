package compiler

import (
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/vyPal/Lanec/lib/analyzer"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/ir"
	"github.com/vyPal/Lanec/lib/parser"
)

func compile(t *testing.T, src string) (*Compiler, *diag.Sink) {
	t.Helper()
	sink := diag.NewSink()
	tree := parser.ParseString("test.ln", src, sink)
	if tree == nil || sink.Failed() {
		t.Fatalf("parse failed:\n%s", sink)
	}
	res := analyzer.Analyze(tree, sink)
	if !res.OK {
		t.Fatalf("analysis failed:\n%s", sink)
	}
	c, ok := Compile(res, Options{PackedWidth: 4, Name: "test"}, sink)
	if !ok {
		t.Fatalf("lowering failed:\n%s", sink)
	}
	return c, sink
}

func lowered(t *testing.T, c *Compiler, class, name string) *ir.Function {
	t.Helper()
	cl := c.Program.Class(class)
	if cl == nil {
		t.Fatalf("class %s not registered", class)
	}
	fs := cl.Lookup(name)
	if len(fs) == 0 {
		t.Fatalf("%s.%s not registered", class, name)
	}
	d := c.FuncDecl(fs[0])
	if d == nil {
		t.Fatalf("%s.%s not declared", class, name)
	}
	f := c.Module.Function(d.ID)
	if f == nil {
		t.Fatalf("%s not lowered", d.ID)
	}
	return f
}

func loads(f *ir.Function) []*ir.Load {
	var out []*ir.Load
	for _, i := range f.Instrs() {
		if l, ok := i.(*ir.Load); ok {
			out = append(out, l)
		}
	}
	return out
}

func TestSwap(t *testing.T) {
	c, _ := compile(t, `
class Pair {
	var x: int
	var y: int

	routine swap(p: ref Pair) {
		var t: int = p.x;
		p.x = p.y;
		p.y = t;
	}
}
`)
	f := lowered(t, c, "Pair", "swap")
	if diff := deep.Equal(f.Shape(), []string{"load", "assign", "load", "store", "store"}); diff != nil {
		t.Error(diff)
	}
	got := []int{f.Count("load"), f.Count("store"), f.Count("assign")}
	if diff := deep.Equal(got, []int{2, 2, 1}); diff != nil {
		t.Error(diff)
	}
	if len(f.Params.Params) != 1 || f.Params.Params[0].Type() != ir.PtrType {
		t.Errorf("params %v", f.Params)
	}
	if !strings.HasPrefix(f.Decl.ID, "Pair.swap.") {
		t.Errorf("identifier %s", f.Decl.ID)
	}
}

func TestEmptyWhile(t *testing.T) {
	c, _ := compile(t, `
class Spin {
	routine run() {
		while true { }
	}
}
`)
	f := lowered(t, c, "Spin", "run")
	if diff := deep.Equal(f.Shape(), []string{"label", "branch", "label", "goto", "label"}); diff != nil {
		t.Error(diff)
	}
	header := f.Instrs()[0].(*ir.Label)
	if g := f.Instrs()[3].(*ir.Goto); g.Target != header {
		t.Errorf("loop jumps to %s, want %s", g.Target.Ref(), header.Ref())
	}
}

func TestLabelBalance(t *testing.T) {
	c, _ := compile(t, `
class Flow {
	routine one(a: int) -> (r: int) {
		if a < 1 {
			r = 1;
		}
	}
	routine two(a: int) -> (r: int) {
		if a < 1 {
			r = 1;
		} else {
			r = 2;
		}
	}
	routine three(a: int) -> (r: int) {
		repeat {
			r = r + 1;
			if r == a {
				continue;
			}
		} until r > a;
	}
}
`)
	tests := []struct {
		name                  string
		labels, branch, gotos int
	}{
		{"one", 2, 1, 0},
		{"two", 3, 1, 1},
		{"three", 5, 2, 1},
	}
	for _, test := range tests {
		f := lowered(t, c, "Flow", test.name)
		got := []int{f.Count("label"), f.Count("branch"), f.Count("goto")}
		if diff := deep.Equal(got, []int{test.labels, test.branch, test.gotos}); diff != nil {
			t.Errorf("%s: %v\n%s", test.name, diff, f)
		}
	}
}

func TestBreakAndReturn(t *testing.T) {
	c, _ := compile(t, `
class Flow {
	routine first(a: int) -> (r: int) {
		while true {
			if a > 3 {
				break;
			}
			return;
		}
	}
}
`)
	f := lowered(t, c, "Flow", "first")
	var targets []string
	for _, i := range f.Instrs() {
		if g, ok := i.(*ir.Goto); ok {
			targets = append(targets, g.Target.Hint)
		}
	}
	if diff := deep.Equal(targets, []string{"out", "epilogue", "header"}); diff != nil {
		t.Error(diff)
	}
}

const nested = `
class Inner {
	var a: int
	var b: real
}
class Mid {
	var pad: int
	var inner: Inner
}
class Node {
	var v: int
	var next: ptr{Node}
}
class Out {
	var x: int
	var mid: Mid
	var items: array{Mid}

	routine direct(o: Out) -> (r: real) {
		r = o.mid.inner.b;
	}
	routine indexed(o: Out, i: index) -> (r: real) {
		r = o.items[i].inner.b;
	}
	routine chased(n: Node) -> (r: int) {
		r = n.next^.v;
	}
}
`

func TestMemberFolding(t *testing.T) {
	c, _ := compile(t, nested)

	direct := loads(lowered(t, c, "Out", "direct"))
	if len(direct) != 1 {
		t.Fatalf("folded chain lowered to %d loads", len(direct))
	}
	if got := direct[0].Offset.String(); got != "+24(.mid.inner.b)" {
		t.Errorf("folded offset %s", got)
	}

	indexed := loads(lowered(t, c, "Out", "indexed"))
	var offsets []string
	for _, l := range indexed {
		offsets = append(offsets, l.Offset.String())
	}
	if diff := deep.Equal(offsets, []string{"+32(.items.data)", "+16(.inner.b)"}); diff != nil {
		t.Error(diff)
	}

	chased := loads(lowered(t, c, "Out", "chased"))
	if len(chased) != 2 {
		t.Errorf("dereference lowered to %d loads", len(chased))
	}
}

func TestSimdContainerRounding(t *testing.T) {
	c, _ := compile(t, `
class Buf {
	routine make(n: index) {
		var v: simd{real32} = n;
		var w: array{real32} = n;
	}
}
`)
	f := lowered(t, c, "Buf", "make")
	var assigns []*ir.Assign
	for _, i := range f.Instrs() {
		if a, ok := i.(*ir.Assign); ok {
			assigns = append(assigns, a)
		}
	}
	var kinds []string
	for _, a := range assigns {
		kinds = append(kinds, a.Kind.String())
	}
	if diff := deep.Equal(kinds, []string{"add", "and", "mul", "mul"}); diff != nil {
		t.Fatal(diff)
	}
	if c := assigns[0].Args[1].(*ir.Const); c.Bits != 3 {
		t.Errorf("rounding adds %d", c.Bits)
	}
	if c := assigns[1].Args[1].(*ir.Const); c.Bits != ^uint64(3) {
		t.Errorf("rounding mask %#x", c.Bits)
	}
	if f.Count("alloc") != 2 || f.Count("store") != 4 {
		t.Errorf("container creation:\n%s", f)
	}
}

func TestCallLowering(t *testing.T) {
	c, _ := compile(t, `
class Vec {
	var x: real
	var y: real

	create(x: real, y: real) {
		self.x = x;
		self.y = y;
	}
	reader len2() -> (r: real) {
		r = self.x * self.x + self.y * self.y;
	}
	routine scaled(v: Vec, k: real) -> (out: Vec, n: real) {
		out = Vec(v.x * k, v.y * k);
		n = out.len2();
	}
	routine use(a: Vec) {
		var b: Vec, var m: real = Vec::scaled(a, 2.0);
		var c: Vec = 1.0, 2.0;
	}
	routine nothing() { }
	routine caller() {
		nothing();
	}
	routine bump(x: ref int) {
		x = x + 1;
	}
	routine bumper() {
		var i: int = 0;
		bump(i);
	}
}
`)
	scaled := lowered(t, c, "Vec", "scaled")
	if diff := deep.Equal(scaled.Decl.Params, []ir.Type{ir.PtrType, ir.Scalar(ir.Real64), ir.PtrType}); diff != nil {
		t.Errorf("hidden result not passed as trailing pointer: %v", diff)
	}
	if diff := deep.Equal(scaled.Decl.Results, []ir.Type{ir.Scalar(ir.Real64)}); diff != nil {
		t.Error(diff)
	}

	use := lowered(t, c, "Vec", "use")
	var calls []*ir.Call
	for _, i := range use.Instrs() {
		if call, ok := i.(*ir.Call); ok {
			calls = append(calls, call)
		}
	}
	if len(calls) != 2 {
		t.Fatalf("calls in use:\n%s", use)
	}
	// b is handed to scaled as its result storage
	b, ok := calls[0].In[2].(*ir.Slot)
	if !ok || b.Name != "b" || len(calls[0].Out) != 1 {
		t.Errorf("scaled call %s", calls[0])
	}
	if len(calls[1].In) != 3 || !strings.HasPrefix(calls[1].Callee.ID, "Vec.create.") {
		t.Errorf("create call %s", calls[1])
	}

	if n := lowered(t, c, "Vec", "caller").Count("call"); n != 0 {
		t.Errorf("call to trivial routine not elided: %d calls", n)
	}

	bumper := lowered(t, c, "Vec", "bumper")
	if diff := deep.Equal(bumper.Shape(), []string{"assign", "store", "call", "load", "assign"}); diff != nil {
		t.Errorf("copy-in/copy-out: %v\n%s", diff, bumper)
	}
}

func TestAutoGenerated(t *testing.T) {
	c, _ := compile(t, `
class Empty { }
class Holder {
	var n: int
	var e: Empty
	var xs: array{int}
}
`)
	def := lowered(t, c, "Holder", "create")
	// n is zeroed, the empty class needs no call, xs gets an empty header
	if diff := deep.Equal(def.Shape(), []string{"store", "store", "store"}); diff != nil {
		t.Errorf("%v\n%s", diff, def)
	}
	for _, f := range c.Program.Class("Empty").Funcs {
		if d := c.FuncDecl(f); d == nil || !d.Trivial {
			t.Errorf("%s of an empty class is not trivial", f)
		}
	}
	// elided calls leave no address computation behind
	for _, f := range c.Program.Class("Holder").Funcs {
		fn := c.Module.Function(c.FuncDecl(f).ID)
		if fn == nil {
			t.Fatalf("%s not lowered", f)
		}
		if n := fn.Count("lea"); n != 0 {
			t.Errorf("%s: %d dead address computations\n%s", f, n, fn)
		}
	}
}

func TestUniqueIdentifiers(t *testing.T) {
	src := `
class A {
	routine f(x: int) { }
	routine f(x: real) { }
}
`
	first, _ := compile(t, src)
	second, _ := compile(t, src)
	var a, b []string
	for _, d := range first.Module.Registry.Decls() {
		a = append(a, d.ID)
	}
	for _, d := range second.Module.Registry.Decls() {
		b = append(b, d.ID)
	}
	if diff := deep.Equal(a, b); diff != nil {
		t.Error(diff)
	}
	if a[0] == a[1] {
		t.Errorf("overloads share identifier %s", a[0])
	}
}

func TestCyclicLayout(t *testing.T) {
	sink := diag.NewSink()
	tree := parser.ParseString("test.ln", `
class A { var b: B }
class B { var c: C }
class C { var a: A }
class D { var a: ptr{D} }
`, sink)
	res := analyzer.Analyze(tree, sink)
	if !res.OK {
		t.Fatalf("analysis failed:\n%s", sink)
	}
	if _, ok := Compile(res, Options{}, sink); ok {
		t.Fatal("cyclic layout accepted")
	}
	if diff := deep.Equal(sink.Kinds(), []diag.Kind{diag.CyclicLayout}); diff != nil {
		t.Fatal(diff)
	}
	msg := sink.Errors()[0].Msg
	if !strings.Contains(msg, "A -> B -> C -> A") {
		t.Errorf("cycle not listed: %s", msg)
	}
}

func TestPointerFromPointee(t *testing.T) {
	c, _ := compile(t, `
class Node {
	var k: int
	var n: int
	var next: ptr{Node}

	writer link(o: ref Node) {
		self.next = o;
	}
	routine inner(o: ref Node) -> (p: ptr{int}) {
		p = o.n;
	}
}
`)
	link := lowered(t, c, "Node", "link")
	if diff := deep.Equal(link.Shape(), []string{"store"}); diff != nil {
		t.Errorf("%v\n%s", diff, link)
	}
	inner := lowered(t, c, "Node", "inner")
	if diff := deep.Equal(inner.Shape(), []string{"lea", "assign"}); diff != nil {
		t.Errorf("%v\n%s", diff, inner)
	}
	if n := inner.Count("load"); n != 0 {
		t.Errorf("pointee was loaded:\n%s", inner)
	}
}

func TestRepeatLabels(t *testing.T) {
	c, _ := compile(t, `
class Flow {
	routine skip(a: int) -> (r: int) {
		repeat {
			r = r + 1;
			if r == a {
				continue;
			}
		} until r > a;
	}
	routine plain(a: int) -> (r: int) {
		repeat {
			r = r + 1;
		} until r > a;
	}
}
`)
	ids := make(map[string]int)
	for _, i := range lowered(t, c, "Flow", "skip").Instrs() {
		if l, ok := i.(*ir.Label); ok {
			ids[l.Hint] = l.ID
		}
	}
	// the continue target exists before the body is lowered
	if ids["cond"] == 0 || ids["cond"] > ids["then"] {
		t.Errorf("label ids %v", ids)
	}
	plain := lowered(t, c, "Flow", "plain")
	if diff := deep.Equal(plain.Count("label"), 2); diff != nil {
		t.Errorf("%v\n%s", diff, plain)
	}
}
