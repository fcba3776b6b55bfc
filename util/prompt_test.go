package util

import (
	"bufio"
	"io"
	"strings"
	"testing"
)

func TestPrompter(t *testing.T) {
	p := &Prompter{In: bufio.NewReader(strings.NewReader("lanes\n\nyes\nn\n")), Out: io.Discard}
	if got := p.String("name", "demo"); got != "lanes" {
		t.Errorf("String = %q", got)
	}
	if got := p.String("version", "1.0.0"); got != "1.0.0" {
		t.Errorf("empty answer gave %q", got)
	}
	if !p.YN("overwrite?", false) {
		t.Error("yes read as no")
	}
	if p.YN("overwrite?", true) {
		t.Error("n read as yes")
	}
	// input is exhausted
	if !p.YN("again?", true) || p.String("x", "d") != "d" {
		t.Error("closed input did not fall back to defaults")
	}
}
