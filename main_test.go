package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/project"
)

const broken = `
class A {
	var n: int
	routine f() {
		var x: int = true;
	}
}
`

func testApp(out *bytes.Buffer) *cli.App {
	app := newApp()
	app.Writer = out
	app.ErrWriter = out
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app
}

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCompileSource(t *testing.T) {
	for _, emit := range []string{"ir", "llvm"} {
		t.Run(emit, func(t *testing.T) {
			o := &options{compiler: project.CompilerConfig{PackedWidth: 4, Emit: emit}}
			sink := diag.NewSink()
			out, err := compileSource("main.ln", []byte(starter), o, sink)
			if err != nil || sink.Failed() {
				t.Fatalf("compile failed: %v\n%s", err, sink)
			}
			if len(out) == 0 {
				t.Fatal("no output")
			}
			if emit == "llvm" && !strings.Contains(string(out), "define") {
				t.Errorf("no definitions in\n%s", out)
			}
		})
	}
}

func TestCompileSourceDiagnostics(t *testing.T) {
	o := &options{compiler: project.CompilerConfig{PackedWidth: 4, Emit: "llvm"}}
	sink := diag.NewSink()
	out, err := compileSource("broken.ln", []byte(broken), o, sink)
	if err != nil {
		t.Fatal(err)
	}
	if out != nil || !sink.Failed() {
		t.Errorf("broken program compiled: %q", out)
	}
}

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.ln", starter)
	target := filepath.Join(dir, "out", "main.ll")

	var out bytes.Buffer
	err := testApp(&out).Run([]string{"lanec", "build", "--no-cache", "-o", target, src})
	if err != nil {
		t.Fatalf("build failed: %v\n%s", err, out.String())
	}
	ll, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ll), "define") {
		t.Errorf("unexpected output\n%s", ll)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeSource(t, dir, "good.ln", starter)
	bad := writeSource(t, dir, "bad.ln", broken)

	var out bytes.Buffer
	if err := testApp(&out).Run([]string{"lanec", "check", good}); err != nil {
		t.Errorf("check of a valid file failed: %v", err)
	}
	err := testApp(&out).Run([]string{"lanec", "check", good, bad})
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files failed") {
		t.Errorf("error %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "good.ll")); !os.IsNotExist(err) {
		t.Error("check wrote an output file")
	}
}

func TestVersionCommand(t *testing.T) {
	tests := []struct {
		require string
		fails   bool
	}{
		{"", false},
		{"^0.3", false},
		{">= 1.0.0", true},
		{"not a constraint", true},
	}
	for _, test := range tests {
		var out bytes.Buffer
		args := []string{"lanec", "version"}
		if test.require != "" {
			args = append(args, "--require", test.require)
		}
		err := testApp(&out).Run(args)
		if (err != nil) != test.fails {
			t.Errorf("require %q: error %v", test.require, err)
		}
		if !test.fails && !strings.Contains(out.String(), Version) {
			t.Errorf("require %q: output %q", test.require, out.String())
		}
	}
}
