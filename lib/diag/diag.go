package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

type Kind int

const (
	Syntax Kind = iota
	UndeclaredIdentifier
	DuplicateDeclaration
	TypeMismatch
	OverloadResolutionFailure
	InvalidContainerUsage
	CyclicLayout
	NotVectorizable
)

var kindNames = [...]string{
	Syntax:                    "syntax",
	UndeclaredIdentifier:      "undeclared-identifier",
	DuplicateDeclaration:      "duplicate-declaration",
	TypeMismatch:              "type-mismatch",
	OverloadResolutionFailure: "overload-resolution",
	InvalidContainerUsage:     "invalid-container-usage",
	CyclicLayout:              "cyclic-layout",
	NotVectorizable:           "not-vectorizable",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Pos      lexer.Position
	Msg      string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", FormatPos(d.Pos), d.Severity, d.Msg)
}

func FormatPos(pos lexer.Position) string {
	name := pos.Filename
	if name == "" {
		name = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", name, pos.Line, pos.Column)
}

// Sink collects diagnostics in the order they are reported. Any error marks
// the whole compilation unit as failed.
type Sink struct {
	diags  []Diagnostic
	failed bool
}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Errorf(kind Kind, pos lexer.Position, format string, args ...interface{}) {
	s.failed = true
	s.diags = append(s.diags, Diagnostic{Severity: Error, Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (s *Sink) Warnf(kind Kind, pos lexer.Position, format string, args ...interface{}) {
	s.diags = append(s.diags, Diagnostic{Severity: Warning, Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (s *Sink) Failed() bool { return s.failed }

func (s *Sink) Diagnostics() []Diagnostic { return s.diags }

func (s *Sink) Len() int { return len(s.diags) }

// Errors returns only the error diagnostics.
func (s *Sink) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range s.diags {
		if d.Severity == Error {
			out = append(out, d)
		}
	}
	return out
}

// Kinds lists the kind of every error diagnostic in report order.
func (s *Sink) Kinds() []Kind {
	var out []Kind
	for _, d := range s.Errors() {
		out = append(out, d.Kind)
	}
	return out
}

func (s *Sink) Print(w io.Writer) {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	for _, d := range s.diags {
		label := red(d.Severity.String())
		if d.Severity == Warning {
			label = yellow(d.Severity.String())
		}
		fmt.Fprintf(w, "%s: %s: %s\n", FormatPos(d.Pos), label, d.Msg)
	}
}

func (s *Sink) String() string {
	var b strings.Builder
	for _, d := range s.diags {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Bug aborts the compilation. It is reserved for broken invariants of the
// compiler itself, never for errors in the user's program.
func Bug(format string, args ...interface{}) {
	panic(errors.Errorf("internal compiler error: "+format, args...))
}
