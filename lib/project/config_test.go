package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-test/deep"
)

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	var c Config
	c.CreateDefault("demo")
	c.Compiler.Requires = ">= 0.1.0"
	if err := c.Save(filepath.Join(dir, FileName), true); err != nil {
		t.Fatal(err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(got, c); diff != nil {
		t.Error(diff)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("name: bare\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if c.Compiler.PackedWidth != DefaultPackedWidth || c.SourceDir != "." {
		t.Errorf("defaults not applied: %+v", c)
	}

	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("name: bad\nlanes: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("unknown field accepted")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		err    string
	}{
		{"default", func(*Config) {}, ""},
		{"width", func(c *Config) { c.Compiler.PackedWidth = 6 }, "power of two"},
		{"emit", func(c *Config) { c.Compiler.Emit = "asm" }, "emit must be"},
		{"constraint", func(c *Config) { c.Compiler.Requires = "not a version" }, "requires"},
		{"too old", func(c *Config) { c.Compiler.Requires = ">= 2.0.0" }, "requires compiler"},
		{"satisfied", func(c *Config) { c.Compiler.Requires = "^0.3" }, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var c Config
			c.CreateDefault("demo")
			test.mutate(&c)
			err := c.Validate("0.3.1")
			switch {
			case test.err == "" && err != nil:
				t.Errorf("unexpected error %v", err)
			case test.err != "" && (err == nil || !strings.Contains(err.Error(), test.err)):
				t.Errorf("error %v, want %q", err, test.err)
			}
		})
	}
}

func TestSources(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"src/main.ln", "src/geo/vec.ln", "src/notes.txt", "src/.hidden/skip.ln"} {
		p := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	c := Config{SourceDir: "src"}
	files, err := c.Sources(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "src/geo/vec.ln"), filepath.Join(dir, "src/main.ln")}
	if diff := deep.Equal(files, want); diff != nil {
		t.Error(diff)
	}
}
