package lnlex

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Definition tokenizes Lanec source. Keywords are plain identifiers and are
// matched by value in the grammar.
var Definition = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Real", Pattern: `\d+\.\d+(?:[eE][-+]?\d+)?(?:r32)?`},
	{Name: "Int", Pattern: `\d+(?:ub|us|ul|x|b|s|l|u)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Op", Pattern: `::|->|==|!=|<=|>=|[-+*/%<>=^]`},
	{Name: "Punct", Pattern: `[(){},;:.\[\]]`},
})

// Elided token types never reach the grammar.
var Elided = []string{"Comment", "Whitespace"}

// IntSuffixes maps integer literal suffixes to scalar type names.
var IntSuffixes = map[string]string{
	"":   "int",
	"x":  "index",
	"b":  "int8",
	"s":  "int16",
	"l":  "int64",
	"u":  "uint",
	"ub": "uint8",
	"us": "uint16",
	"ul": "uint64",
}
