package parser

import (
	"os"
	"sync"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	"github.com/vyPal/Lanec/lib/ast"
	"github.com/vyPal/Lanec/lib/diag"
	lnlex "github.com/vyPal/Lanec/lib/lexer"
)

var (
	buildOnce sync.Once
	built     *participle.Parser[Program]
)

func Parser() *participle.Parser[Program] {
	buildOnce.Do(func() {
		built = participle.MustBuild[Program](
			participle.Lexer(lnlex.Definition),
			participle.Elide(lnlex.Elided...),
			participle.UseLookahead(8),
		)
	})
	return built
}

// ParseFile reads and parses a source file. Syntax errors are reported to
// sink; the returned error is only set when the file cannot be read.
func ParseFile(filename string, sink *diag.Sink) (*ast.Program, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return ParseBytes(filename, src, sink), nil
}

func ParseString(filename, code string, sink *diag.Sink) *ast.Program {
	return ParseBytes(filename, []byte(code), sink)
}

func ParseBytes(filename string, src []byte, sink *diag.Sink) *ast.Program {
	tree, err := Parser().ParseBytes(filename, src)
	if err != nil {
		reportSyntax(filename, err, sink)
		return nil
	}
	return Build(tree, sink)
}

func reportSyntax(filename string, err error, sink *diag.Sink) {
	var perr participle.Error
	if errors.As(err, &perr) {
		sink.Errorf(diag.Syntax, perr.Position(), "%s", perr.Message())
		return
	}
	sink.Errorf(diag.Syntax, lexer.Position{Filename: filename}, "%s", err.Error())
}
