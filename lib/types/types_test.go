package types

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/vyPal/Lanec/lib/ast"
)

func newClass(name string, simd bool) *Class {
	return NewClassDecl(&ast.Class{Name: name, Simd: simd})
}

func fn(c *Class, kind ast.FuncKind, name string, in []Type, out ...Type) *MemberFunction {
	sig := &Signature{}
	for _, t := range in {
		sig.In = append(sig.In, &Param{Type: t})
	}
	for _, t := range out {
		sig.Out = append(sig.Out, &Param{Type: t, Out: true})
	}
	f := &MemberFunction{Kind: kind, Name: name, Sig: sig}
	if _, ok := c.AddFunc(f); !ok {
		return nil
	}
	return f
}

func TestCheck(t *testing.T) {
	a := newClass("A", false)
	b := newClass("A", false)
	tests := []struct {
		name string
		x, y Type
		want bool
	}{
		{"same scalar", NewScalar(Int32), NewScalar(Int32), true},
		{"modifier ignored", &Scalar{Kind: Real64, Mod: ConstRef}, NewScalar(Real64), true},
		{"int vs index", NewScalar(Int32), NewScalar(Index), false},
		{"uint64 vs index", NewScalar(UInt64), NewScalar(Index), false},
		{"class identity", NewClass(a), NewClass(a), true},
		{"same name different class", NewClass(a), NewClass(b), false},
		{"ptr inner", NewPtr(NewClass(a)), NewPtr(NewClass(a)), true},
		{"ptr vs pointee", NewPtr(NewClass(a)), NewClass(a), false},
		{"container kind", NewContainer(Array, NewScalar(Int32)), NewContainer(Simd, NewScalar(Int32)), false},
		{"container inner", NewContainer(Array, NewScalar(Int32)), NewContainer(Array, NewScalar(Int64)), false},
		{"error left", NewError(), NewScalar(Bool), true},
		{"error right", NewClass(a), NewError(), true},
	}
	for _, tt := range tests {
		if got := Check(tt.x, tt.y); got != tt.want {
			t.Errorf("%s: Check(%s, %s) = %v, want %v", tt.name, tt.x, tt.y, got, tt.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := NewContainer(Simd, NewPtr(NewScalar(Real32)))
	c := Clone(orig, Const).(*Container)
	if c == orig || c.Inner == orig.Inner {
		t.Fatal("clone shares structure with the original")
	}
	if c.Mod != Const || orig.Mod != Var {
		t.Errorf("modifiers: clone %v, original %v", c.Mod, orig.Mod)
	}
	if !Check(c, orig) {
		t.Error("clone no longer checks against the original")
	}
	if got := c.String(); got != "const simd{ptr{real32}}" {
		t.Errorf("String() = %q", got)
	}
}

func TestLookupScalar(t *testing.T) {
	for name, want := range map[string]ScalarKind{
		"int": Int32, "uint": UInt32, "real": Real64, "index": Index, "bool": Bool, "uint8": UInt8,
	} {
		got, ok := LookupScalar(name)
		if !ok || got != want {
			t.Errorf("LookupScalar(%q) = %v, %v", name, got, ok)
		}
	}
	if _, ok := LookupScalar("Pair"); ok {
		t.Error("class name resolved as scalar")
	}
}

func TestAtomic(t *testing.T) {
	c := newClass("C", false)
	if !IsAtomic(NewScalar(Bool)) || !IsAtomic(NewPtr(NewClass(c))) {
		t.Error("scalars and pointers are atomic")
	}
	if IsAtomic(NewClass(c)) || IsAtomic(NewContainer(Array, NewScalar(Int32))) {
		t.Error("classes and containers are not atomic")
	}
	sig := &Signature{Out: []*Param{
		{Type: NewScalar(Int32), Out: true},
		{Type: NewClass(c), Out: true},
		{Type: NewContainer(Simd, NewScalar(Real32)), Out: true},
	}}
	if len(sig.HiddenOuts()) != 2 || len(sig.AtomicOuts()) != 1 {
		t.Errorf("hidden %d atomic %d", len(sig.HiddenOuts()), len(sig.AtomicOuts()))
	}
}

func TestScopeShadowing(t *testing.T) {
	outer := NewScope(nil)
	if _, ok := outer.Insert(&Local{Name: "x", Type: NewScalar(Real64)}); !ok {
		t.Fatal("first insert failed")
	}
	inner := NewScope(outer)
	if _, ok := inner.Insert(&Local{Name: "x", Type: NewScalar(Int32)}); !ok {
		t.Fatal("shadowing an outer local must succeed")
	}
	if _, ok := inner.Insert(&Local{Name: "x", Type: NewScalar(Int32)}); ok {
		t.Fatal("same-level duplicate must fail")
	}
	if got := inner.Lookup("x").Type; !Check(got, NewScalar(Int32)) {
		t.Errorf("innermost binding not preferred: %s", got)
	}
	if got := outer.Lookup("x").Type; !Check(got, NewScalar(Real64)) {
		t.Errorf("outer binding changed: %s", got)
	}
	if inner.Root() != outer || inner.LookupLocal("y") != nil || inner.Lookup("y") != nil {
		t.Error("scope chain")
	}
}

func TestResolveOverloads(t *testing.T) {
	c := newClass("C", false)
	fi := fn(c, ast.Create, "create", []Type{NewScalar(Int32)})
	fr := fn(c, ast.Create, "create", []Type{NewScalar(Real64)})
	if fi == nil || fr == nil {
		t.Fatal("distinct overloads rejected")
	}
	if dup := fn(c, ast.Create, "create", []Type{&Scalar{Kind: Int32, Mod: Const}}); dup != nil {
		t.Fatal("redundant overload accepted")
	}
	if fn(c, ast.Reader, "create", []Type{NewScalar(Int32)}) == nil {
		t.Fatal("different kind is not redundant")
	}

	got, err := ResolveMember(c, "create", []Type{NewScalar(Int32)}, ast.Create)
	if err != nil || got != fi {
		t.Fatalf("int argument: %v, %v", got, err)
	}
	got, err = ResolveMember(c, "create", []Type{NewScalar(Real64)}, ast.Create)
	if err != nil || got != fr {
		t.Fatalf("real argument: %v, %v", got, err)
	}
	_, err = ResolveMember(c, "create", []Type{NewScalar(Bool)}, ast.Create)
	rerr, ok := err.(*ResolveError)
	if !ok || rerr.Ambiguous || len(rerr.Candidates) != 2 {
		t.Fatalf("bool argument: %#v", err)
	}
	_, err = ResolveMember(c, "create", []Type{NewError()}, ast.Create)
	if rerr, ok := err.(*ResolveError); !ok || !rerr.Ambiguous || len(rerr.Matches) != 2 {
		t.Fatalf("error argument should match both: %#v", err)
	}
}

func TestResolveMinus(t *testing.T) {
	v := newClass("V", false)
	vt := NewClass(v)
	neg := fn(v, ast.Operator, "-", []Type{vt}, vt)
	sub := fn(v, ast.Operator, "-", []Type{NewScalar(Int32), vt}, vt)
	if f, err := ResolveOperator(v, "-", []Type{vt}); err != nil || f != neg {
		t.Fatalf("unary: %v %v", f, err)
	}
	if f, err := ResolveOperator(v, "-", []Type{NewScalar(Int32), vt}); err != nil || f != sub {
		t.Fatalf("binary: %v %v", f, err)
	}

	w := newClass("W", false)
	wt := NewClass(w)
	fn(w, ast.Operator, "-", []Type{wt}, wt)
	fn(w, ast.Operator, "-", []Type{wt, wt}, wt)
	_, err := ResolveOperator(w, "-", []Type{wt, wt})
	rerr, ok := err.(*ResolveError)
	if !ok || !rerr.Ambiguous {
		t.Fatalf("overlapping minus overloads: %#v", err)
	}
}

func TestConstruct(t *testing.T) {
	c := newClass("C", false)
	ct := NewClass(c)
	def := fn(c, ast.Create, "create", nil)
	arr := NewContainer(Simd, NewScalar(Real32))
	tests := []struct {
		name    string
		t       Type
		args    []Type
		fn      *MemberFunction
		builtin Builtin
		fails   bool
	}{
		{"scalar copy", NewScalar(Int32), []Type{NewScalar(Int32)}, nil, BuiltinCopy, false},
		{"scalar mismatch", NewScalar(Int32), []Type{NewScalar(Real64)}, nil, NotBuiltin, true},
		{"pointer copy", NewPtr(ct), []Type{NewPtr(ct)}, nil, BuiltinCopy, false},
		{"pointer from pointee", NewPtr(NewScalar(Int32)), []Type{NewScalar(Int32)}, nil, BuiltinAddress, false},
		{"pointer from class", NewPtr(ct), []Type{ct}, nil, BuiltinAddress, false},
		{"pointer from wrong pointee", NewPtr(NewScalar(Int32)), []Type{NewScalar(Real64)}, nil, NotBuiltin, true},
		{"pointer two args", NewPtr(ct), []Type{NewPtr(ct), NewPtr(ct)}, nil, NotBuiltin, true},
		{"container copy", arr, []Type{NewContainer(Simd, NewScalar(Real32))}, nil, BuiltinCopy, false},
		{"container alloc", arr, []Type{NewScalar(Index)}, nil, BuiltinAlloc, false},
		{"container int size", arr, []Type{NewScalar(Int32)}, nil, NotBuiltin, true},
		{"class default", ct, nil, def, NotBuiltin, false},
		{"class missing", ct, []Type{NewScalar(Bool)}, nil, NotBuiltin, true},
	}
	for _, tt := range tests {
		f, b, err := Construct(tt.t, ast.Create, tt.args)
		if (err != nil) != tt.fails {
			t.Errorf("%s: err = %v", tt.name, err)
		}
		if diff := deep.Equal([]interface{}{f == tt.fn, b}, []interface{}{true, tt.builtin}); diff != nil {
			t.Errorf("%s: %v", tt.name, diff)
		}
	}
}
