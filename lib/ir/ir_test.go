package ir

import (
	"testing"

	"github.com/go-test/deep"
)

func names(l *List) []string {
	var out []string
	for _, i := range l.Slice() {
		out = append(out, i.String())
	}
	return out
}

func TestListInsertRemove(t *testing.T) {
	f := NewFunction(&FuncDecl{ID: "T.f.0"})
	a, b, c := f.NewLabel("a"), f.NewLabel("b"), f.NewLabel("c")
	l := &List{}
	l.PushBack(b)
	l.PushFront(a)
	l.InsertAfter(c, b)
	if diff := deep.Equal(names(l), []string{"a.3:", "b.4:", "c.5:"}); diff != nil {
		t.Fatal(diff)
	}
	l.Remove(b)
	if l.Len() != 2 || Next(a) != Instr(c) || Prev(c) != Instr(a) || l.Contains(b) {
		t.Fatalf("after remove: %v", names(l))
	}
	l.InsertBefore(b, c)
	if diff := deep.Equal(names(l), []string{"a.3:", "b.4:", "c.5:"}); diff != nil {
		t.Fatal(diff)
	}
}

func TestFunctionSentinels(t *testing.T) {
	f := NewFunction(&FuncDecl{ID: "T.f.0"})
	r := f.NewReg(Scalar(Int32))
	f.Emit(&Assign{Kind: Move, Dst: r, Args: []Op{IntConst(Scalar(Int32), 1)}})
	if err := f.Verify(); err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(f.Shape(), []string{"assign"}); diff != nil {
		t.Error(diff)
	}

	dangling := f.NewLabel("nowhere")
	f.Emit(&Goto{Target: dangling})
	if err := f.Verify(); err == nil {
		t.Error("goto to a label outside the stream accepted")
	}
	f.Emit(dangling)
	if err := f.Verify(); err != nil {
		t.Errorf("label emitted after its goto: %v", err)
	}

	f.Emit(&Assign{Kind: Move, Dst: r, Args: []Op{IntConst(Scalar(Int32), 2)}})
	if err := f.Verify(); err == nil {
		t.Error("register assigned twice accepted")
	}
}

func TestStructLayout(t *testing.T) {
	in := NewStruct("In")
	in.Append(&Member{Name: "b", Type: BoolType})
	in.Append(&Member{Name: "d", Type: Scalar(Real64)})
	in.Finish()

	out := NewStruct("Out")
	out.Append(&Member{Name: "s", Type: Scalar(Int16)})
	nested := out.Append(&Member{Name: "in", Struct: in})
	items := out.Append(&Member{Name: "items", Container: true})
	out.Finish()

	got := []int64{in.Member("d").Offset, in.Size, nested.Offset, items.Offset, out.Size, out.Align}
	if diff := deep.Equal(got, []int64{8, 16, 8, 24, 40, 8}); diff != nil {
		t.Error(diff)
	}

	off := NewOffset(nested, in.Member("d"))
	if off.Value() != 16 || off.String() != "+16(.in.d)" {
		t.Errorf("offset %d %q", off.Value(), off)
	}
	if ext := off.Add(HeaderLen); ext.Value() != 24 || off.Value() != 16 {
		t.Error("Add must not modify its receiver")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	scalar := &FuncDecl{ID: "V.len.0"}
	packed := &FuncDecl{ID: "V.len.0.x4"}
	if err := r.Declare(scalar); err != nil {
		t.Fatal(err)
	}
	if err := r.Declare(&FuncDecl{ID: "V.len.0"}); err == nil {
		t.Error("duplicate identifier accepted")
	}
	r.MapPacked(scalar, packed)
	if got, ok := r.Packed(scalar); !ok || got != packed {
		t.Error("packed mapping lost")
	}
	if r.Lookup("V.len.0") != scalar || len(r.Decls()) != 1 {
		t.Error("lookup")
	}
}
