package cache

import (
	"testing"
)

func TestKey(t *testing.T) {
	src := []byte("class A { }")
	base := Key(src, "packedWidth=4", "0.3.1")
	if Key(src, "packedWidth=4", "0.3.1") != base {
		t.Error("key is not deterministic")
	}
	for _, other := range []string{
		Key([]byte("class B { }"), "packedWidth=4", "0.3.1"),
		Key(src, "packedWidth=8", "0.3.1"),
		Key(src, "packedWidth=4", "0.3.2"),
	} {
		if other == base {
			t.Error("key ignores an input")
		}
	}
}

func TestStoreLookup(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key([]byte("x"), "", "0.0.0")
	if _, ok, err := c.Lookup(key); ok || err != nil {
		t.Fatalf("empty cache hit: %v %v", ok, err)
	}
	if err := c.Store(key, []byte("define void @f()")); err != nil {
		t.Fatal(err)
	}
	out, ok, err := c.Lookup(key)
	if !ok || err != nil || string(out) != "define void @f()" {
		t.Errorf("lookup %q %v %v", out, ok, err)
	}
	if err := c.Clean(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Lookup(key); ok {
		t.Error("entry survived Clean")
	}
}
