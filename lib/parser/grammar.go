package parser

import "github.com/alecthomas/participle/v2/lexer"

type Bool bool

func (b *Bool) Capture(values []string) error {
	*b = values[0] == "true"
	return nil
}

type Program struct {
	Pos   lexer.Position
	Decls []*TopDecl `parser:"@@*"`
}

type TopDecl struct {
	Class  *ClassDefinition  `parser:"  @@"`
	Extern *ExternDefinition `parser:"| @@"`
}

type ClassDefinition struct {
	Pos     lexer.Position
	Simd    bool           `parser:"@'simd'?"`
	Name    string         `parser:"'class' @Ident"`
	Members []*ClassMember `parser:"'{' @@* '}'"`
}

type ClassMember struct {
	Field    *FieldDefinition    `parser:"  @@"`
	Function *FunctionDefinition `parser:"| @@"`
}

type FieldDefinition struct {
	Pos  lexer.Position
	Name string `parser:"'var' @Ident"`
	Type *Type  `parser:"':' @@ ';'?"`
}

type FunctionDefinition struct {
	Pos        lexer.Position
	EndPos     lexer.Position
	Simd       bool                  `parser:"@'simd'?"`
	Kind       string                `parser:"@('create' | 'assign' | 'reader' | 'writer' | 'routine' | 'operator')"`
	Name       string                `parser:"@( Ident | Op )?"`
	Parameters []*ArgumentDefinition `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
	Results    []*ArgumentDefinition `parser:"( '->' '(' ( @@ ( ',' @@ )* )? ')' )?"`
	Body       []*Statement          `parser:"'{' @@* '}'"`
}

type ExternDefinition struct {
	Pos        lexer.Position
	Name       string                `parser:"'extern' @Ident"`
	Parameters []*ArgumentDefinition `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
	Results    []*ArgumentDefinition `parser:"( '->' '(' ( @@ ( ',' @@ )* )? ')' )? ';'"`
}

type ArgumentDefinition struct {
	Pos       lexer.Position
	Name      string `parser:"@Ident ':'"`
	Qualifier string `parser:"@( 'var' | 'const' | 'ref' | 'cref' )?"`
	Type      *Type  `parser:"@@"`
}

type Type struct {
	Pos       lexer.Position
	Container string `parser:"  ( @( 'ptr' | 'array' | 'simd' ) '{'"`
	Inner     *Type  `parser:"    @@ '}' )"`
	Name      string `parser:"| @Ident"`
}

type Statement struct {
	Pos      lexer.Position
	If       *If          `parser:"  @@"`
	While    *While       `parser:"| @@"`
	Repeat   *Repeat      `parser:"| @@"`
	Block    *Block       `parser:"| @@"`
	Return   bool         `parser:"| @'return' ';'"`
	Break    bool         `parser:"| @'break' ';'"`
	Continue bool         `parser:"| @'continue' ';'"`
	Assign   *Assignment  `parser:"| @@"`
}

type If struct {
	Pos       lexer.Position
	Condition *Expression  `parser:"'if' @@"`
	Body      []*Statement `parser:"'{' @@* '}'"`
	ElseIf    *If          `parser:"( 'else' ( @@"`
	Else      *Block       `parser:"           | @@ ) )?"`
}

type While struct {
	Pos       lexer.Position
	Condition *Expression  `parser:"'while' @@"`
	Body      []*Statement `parser:"'{' @@* '}'"`
}

type Repeat struct {
	Pos       lexer.Position
	Body      []*Statement `parser:"'repeat' '{' @@* '}'"`
	Condition *Expression  `parser:"'until' @@ ';'"`
}

type Block struct {
	Pos  lexer.Position
	Body []*Statement `parser:"'{' @@* '}'"`
}

type Assignment struct {
	Pos   lexer.Position
	Left  []*Target     `parser:"@@ ( ',' @@ )*"`
	Right []*Expression `parser:"( '=' @@ ( ',' @@ )* )? ';'"`
}

type Target struct {
	Pos        lexer.Position
	Definition *VariableDefinition `parser:"  @@"`
	Expression *Expression         `parser:"| @@"`
}

type VariableDefinition struct {
	Pos  lexer.Position
	Kind string `parser:"@( 'var' | 'const' )"`
	Name string `parser:"@Ident"`
	Type *Type  `parser:"':' @@"`
}

type Expression struct {
	Pos   lexer.Position
	Left  *Conjunction    `parser:"@@"`
	Right []*OpDisjunction `parser:"@@*"`
}

type OpDisjunction struct {
	Pos   lexer.Position
	Op    string       `parser:"@( 'or' | 'xor' )"`
	Right *Conjunction `parser:"@@"`
}

type Conjunction struct {
	Pos   lexer.Position
	Left  *Comparison      `parser:"@@"`
	Right []*OpConjunction `parser:"@@*"`
}

type OpConjunction struct {
	Pos   lexer.Position
	Op    string      `parser:"@'and'"`
	Right *Comparison `parser:"@@"`
}

type Comparison struct {
	Pos   lexer.Position
	Left  *Sum            `parser:"@@"`
	Right []*OpComparison `parser:"@@*"`
}

type OpComparison struct {
	Pos   lexer.Position
	Op    string `parser:"@( '==' | '!=' | '<=' | '>=' | '<' | '>' )"`
	Right *Sum   `parser:"@@"`
}

type Sum struct {
	Pos   lexer.Position
	Left  *Term    `parser:"@@"`
	Right []*OpSum `parser:"@@*"`
}

type OpSum struct {
	Pos   lexer.Position
	Op    string `parser:"@( '+' | '-' )"`
	Right *Term  `parser:"@@"`
}

type Term struct {
	Pos   lexer.Position
	Left  *Unary    `parser:"@@"`
	Right []*OpTerm `parser:"@@*"`
}

type OpTerm struct {
	Pos   lexer.Position
	Op    string `parser:"@( '*' | '/' | '%' )"`
	Right *Unary `parser:"@@"`
}

type Unary struct {
	Pos     lexer.Position
	Op      string   `parser:"  ( @( '-' | 'not' )"`
	Operand *Unary   `parser:"    @@ )"`
	Postfix *Postfix `parser:"| @@"`
}

type Postfix struct {
	Pos      lexer.Position
	Factor   *Factor   `parser:"@@"`
	Suffixes []*Suffix `parser:"@@*"`
}

type Suffix struct {
	Pos    lexer.Position
	Member *MemberSuffix `parser:"  '.' @@"`
	Index  *Expression   `parser:"| '[' @@ ']'"`
	Deref  bool          `parser:"| @'^'"`
}

type MemberSuffix struct {
	Pos  lexer.Position
	Name string        `parser:"@Ident"`
	Call bool          `parser:"( @'('"`
	Args []*Expression `parser:"  ( @@ ( ',' @@ )* )? ')' )?"`
}

type Factor struct {
	Pos           lexer.Position
	Real          *string        `parser:"  @Real"`
	Int           *string        `parser:"| @Int"`
	Bool          *Bool          `parser:"| @( 'true' | 'false' )"`
	Self          bool           `parser:"| @'self'"`
	CCall         *CCall         `parser:"| @@"`
	StaticCall    *StaticCall    `parser:"| (?= Ident '::') @@"`
	FunctionCall  *FunctionCall  `parser:"| (?= Ident '(') @@"`
	Identifier    *string        `parser:"| @Ident"`
	SubExpression *Expression    `parser:"| '(' @@ ')'"`
}

type CCall struct {
	Pos  lexer.Position
	Name string        `parser:"'c_call' @Ident"`
	Args []*Expression `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
}

type StaticCall struct {
	Pos   lexer.Position
	Class string        `parser:"@Ident '::'"`
	Name  string        `parser:"@Ident"`
	Args  []*Expression `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
}

type FunctionCall struct {
	Pos  lexer.Position
	Name string        `parser:"@Ident"`
	Args []*Expression `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
}
