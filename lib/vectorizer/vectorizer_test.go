package vectorizer

import (
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/vyPal/Lanec/lib/analyzer"
	"github.com/vyPal/Lanec/lib/compiler"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/ir"
	"github.com/vyPal/Lanec/lib/parser"
)

func lower(t *testing.T, src string) (*compiler.Compiler, *diag.Sink) {
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
	c, ok := compiler.Compile(res, compiler.Options{PackedWidth: 4, Name: "test"}, sink)
	if !ok {
		t.Fatalf("lowering failed:\n%s", sink)
	}
	return c, sink
}

func vectorize(t *testing.T, src string) *Vectorizer {
	t.Helper()
	c, sink := lower(t, src)
	v, ok := Vectorize(c, sink)
	if !ok {
		t.Fatalf("vectorization failed:\n%s", sink)
	}
	return v
}

// packedOf returns the packed version of the first overload of class.name.
func packedOf(t *testing.T, v *Vectorizer, class, name string) *ir.Function {
	t.Helper()
	f := v.comp.Program.Class(class).Lookup(name)[0]
	d, ok := v.Module.Registry.Packed(v.comp.FuncDecl(f))
	if !ok {
		t.Fatalf("%s.%s has no packed version", class, name)
	}
	pf := v.Module.Function(d.ID)
	if pf == nil {
		t.Fatalf("%s was not generated", d.ID)
	}
	return pf
}

func assignKinds(f *ir.Function) []string {
	var out []string
	for _, i := range f.Instrs() {
		if a, ok := i.(*ir.Assign); ok {
			out = append(out, a.Kind.String())
		}
	}
	return out
}

func TestPackedLayout(t *testing.T) {
	v := vectorize(t, `
simd class Pair {
	var a: int16
	var b: int16
}
simd class V {
	var x: real32
	var y: real
	var on: bool
	var p: Pair
	var next: ptr{V}
	var xs: array{int}
}
simd class Flags {
	var a: int16
	var on: bool
}
`)
	s := v.Packed(v.comp.Program.Class("V"))
	if s == nil || !s.Packed || s.Lanes != 4 || s.Name != "V.x4" {
		t.Fatalf("packed layout %v", s)
	}
	var got []string
	for _, m := range s.Members {
		switch {
		case m.Struct != nil:
			got = append(got, m.Name+":"+m.Struct.Name)
		case m.Container:
			got = append(got, m.Name+":header")
		default:
			got = append(got, m.Name+":"+m.Type.String())
		}
	}
	want := []string{"x:<4 x f32>", "y:<4 x f64>", "on:<4 x i64>", "p:Pair.x4", "next:ptr", "xs:header"}
	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}

	pair := s.Member("p").Struct
	if pair.Member("b").Type.String() != "<4 x i16>" || pair.Size != 16 {
		t.Errorf("nested packed layout %s", pair)
	}
	// bool lanes take the width of the widest scalar of their own class
	flags := v.Packed(v.comp.Program.Class("Flags"))
	if got := flags.Member("on").Type.String(); got != "<4 x i16>" {
		t.Errorf("mask lanes %s", got)
	}
	if s.Member("y").Offset%32 != 0 {
		t.Errorf("vector member misaligned: %s", s)
	}
}

const particles = `
simd class P {
	var x: real
	var y: real
	var alive: bool

	simd reader sum() -> (r: real) {
		r = self.x + self.y;
	}
	simd reader twice() -> (r: real) {
		r = self.sum() + self.sum();
	}
	simd writer scale() {
		self.x = self.x * 2.0;
	}
	simd writer kill() {
		self.alive = not self.alive;
	}
	reader plain() -> (r: real) {
		r = self.x;
	}
}
`

func TestPackedRewrite(t *testing.T) {
	v := vectorize(t, particles)

	sum := packedOf(t, v, "P", "sum")
	if !strings.HasSuffix(sum.Decl.ID, ".x4") {
		t.Errorf("packed identifier %s", sum.Decl.ID)
	}
	if diff := deep.Equal(sum.Shape(), []string{"load", "load", "assign", "assign"}); diff != nil {
		t.Error(diff)
	}
	for _, i := range sum.Instrs() {
		if l, ok := i.(*ir.Load); ok && l.Dst.Type().String() != "<4 x f64>" {
			t.Errorf("scalar load in packed function: %s", l)
		}
	}
	if diff := deep.Equal(sum.Decl.Params, []ir.Type{ir.PtrType}); diff != nil {
		t.Error(diff)
	}
	if diff := deep.Equal(sum.Decl.Results, []ir.Type{ir.Scalar(ir.Real64).Vector(4)}); diff != nil {
		t.Error(diff)
	}

	scale := packedOf(t, v, "P", "scale")
	if diff := deep.Equal(assignKinds(scale), []string{"splat", "mul"}); diff != nil {
		t.Errorf("uniform constant not broadcast: %v\n%s", diff, scale)
	}

	kill := packedOf(t, v, "P", "kill")
	if diff := deep.Equal(assignKinds(kill), []string{"ne", "not", "convert"}); diff != nil {
		t.Errorf("mask conversion: %v\n%s", diff, kill)
	}
	if st := kill.Instrs()[len(kill.Instrs())-1].(*ir.Store); st.Src.Type().String() != "<4 x i64>" {
		t.Errorf("mask stored as %s", st.Src.Type())
	}

	twice := packedOf(t, v, "P", "twice")
	for _, i := range twice.Instrs() {
		if call, ok := i.(*ir.Call); ok && call.Callee != sum.Decl {
			t.Errorf("packed function calls %s", call.Callee.ID)
		}
	}
	if twice.Count("call") != 2 {
		t.Errorf("calls in packed twice:\n%s", twice)
	}

	plain := v.comp.Program.Class("P").Lookup("plain")[0]
	if _, ok := v.Module.Registry.Packed(v.comp.FuncDecl(plain)); ok {
		t.Error("function not declared simd was vectorized")
	}
	for _, f := range v.comp.Program.Class("P").Funcs {
		if _, ok := v.Module.Registry.Packed(v.comp.FuncDecl(f)); ok && f.AutoGenerated {
			t.Errorf("auto-generated %s was vectorized", f)
		}
	}
}

func TestNotVectorizable(t *testing.T) {
	tests := []struct {
		name, src, msg string
	}{
		{"branch", `
simd class P {
	var x: real
	simd reader pos() -> (r: bool) {
		if self.x > 0.0 {
			r = true;
		}
	}
}`, "lane-varying condition"},
		{"extern", `
extern show(x: real);
simd class P {
	var x: real
	simd reader dump() {
		c_call show(self.x);
	}
}`, "no packed version"},
		{"alloc", `
simd class P {
	var xs: array{int}
	simd writer grow(n: index) {
		self.xs = n;
	}
}`, "allocates"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, sink := lower(t, test.src)
			if _, ok := Vectorize(c, sink); ok {
				t.Fatal("vectorization succeeded")
			}
			if diff := deep.Equal(sink.Kinds(), []diag.Kind{diag.NotVectorizable}); diff != nil {
				t.Fatal(diff)
			}
			if msg := sink.Errors()[0].Msg; !strings.Contains(msg, test.msg) {
				t.Errorf("message %q", msg)
			}
		})
	}
}

func TestUniformBranch(t *testing.T) {
	v := vectorize(t, `
simd class P {
	var x: real
	simd writer bump3() {
		var i: int = 0;
		while i < 3 {
			self.x = self.x + 1.0;
			i = i + 1;
		}
	}
}
`)
	f := packedOf(t, v, "P", "bump3")
	for _, i := range f.Instrs() {
		if b, ok := i.(*ir.Branch); ok && b.Cond.Type().IsVector() {
			t.Errorf("uniform loop condition became %s", b.Cond.Type())
		}
	}
}
