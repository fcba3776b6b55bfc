package types

type Modifier int

const (
	Var Modifier = iota
	Const
	Ref
	ConstRef
)

func (m Modifier) String() string {
	switch m {
	case Const:
		return "const"
	case Ref:
		return "ref"
	case ConstRef:
		return "cref"
	}
	return "var"
}

// IsConst reports whether values of this modifier may not be written.
func (m Modifier) IsConst() bool { return m == Const || m == ConstRef }

// IsRef reports whether the value is passed by address.
func (m Modifier) IsRef() bool { return m == Ref || m == ConstRef }

type Type interface {
	Modifier() Modifier
	Name() string
	String() string
	clone(m Modifier) Type
}

type ScalarKind int

const (
	Bool ScalarKind = iota
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Index
	Real32
	Real64
)

var scalarNames = [...]string{
	Bool: "bool", Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64",
	UInt8: "uint8", UInt16: "uint16", UInt32: "uint32", UInt64: "uint64",
	Index: "index", Real32: "real32", Real64: "real64",
}

var scalarSizes = [...]int64{
	Bool: 1, Int8: 1, Int16: 2, Int32: 4, Int64: 8,
	UInt8: 1, UInt16: 2, UInt32: 4, UInt64: 8,
	Index: 8, Real32: 4, Real64: 8,
}

var scalarAliases = map[string]ScalarKind{
	"int":  Int32,
	"uint": UInt32,
	"real": Real64,
}

func (k ScalarKind) String() string { return scalarNames[k] }

func (k ScalarKind) Size() int64 { return scalarSizes[k] }

func (k ScalarKind) IsInteger() bool { return k >= Int8 && k <= Index }

func (k ScalarKind) IsSigned() bool { return k >= Int8 && k <= Int64 }

func (k ScalarKind) IsReal() bool { return k == Real32 || k == Real64 }

// LookupScalar resolves a scalar type name including the int/uint/real aliases.
func LookupScalar(name string) (ScalarKind, bool) {
	if k, ok := scalarAliases[name]; ok {
		return k, true
	}
	for i, n := range scalarNames {
		if n == name {
			return ScalarKind(i), true
		}
	}
	return 0, false
}

type Scalar struct {
	Kind ScalarKind
	Mod  Modifier
}

type ClassType struct {
	Class *Class
	Mod   Modifier
}

type Ptr struct {
	Inner Type
	Mod   Modifier
}

type ContainerKind int

const (
	Array ContainerKind = iota
	Simd
)

func (k ContainerKind) String() string {
	if k == Simd {
		return "simd"
	}
	return "array"
}

type Container struct {
	Kind  ContainerKind
	Inner Type
	Mod   Modifier
}

// ErrorType stands in for the type of anything whose analysis already failed.
// It is compatible with every type so the failure is reported only once.
type ErrorType struct {
	Mod Modifier
}

func NewScalar(k ScalarKind) *Scalar           { return &Scalar{Kind: k} }
func NewClass(c *Class) *ClassType             { return &ClassType{Class: c} }
func NewPtr(inner Type) *Ptr                   { return &Ptr{Inner: inner} }
func NewContainer(k ContainerKind, inner Type) *Container {
	return &Container{Kind: k, Inner: inner}
}
func NewError() *ErrorType { return &ErrorType{} }

func (t *Scalar) Modifier() Modifier    { return t.Mod }
func (t *ClassType) Modifier() Modifier { return t.Mod }
func (t *Ptr) Modifier() Modifier       { return t.Mod }
func (t *Container) Modifier() Modifier { return t.Mod }
func (t *ErrorType) Modifier() Modifier { return t.Mod }

func (t *Scalar) Name() string    { return t.Kind.String() }
func (t *ClassType) Name() string { return t.Class.Name }
func (t *Ptr) Name() string       { return "ptr{" + t.Inner.Name() + "}" }
func (t *Container) Name() string { return t.Kind.String() + "{" + t.Inner.Name() + "}" }
func (t *ErrorType) Name() string { return "<error>" }

func withMod(m Modifier, name string) string {
	if m == Var {
		return name
	}
	return m.String() + " " + name
}

func (t *Scalar) String() string    { return withMod(t.Mod, t.Name()) }
func (t *ClassType) String() string { return withMod(t.Mod, t.Name()) }
func (t *Ptr) String() string       { return withMod(t.Mod, t.Name()) }
func (t *Container) String() string { return withMod(t.Mod, t.Name()) }
func (t *ErrorType) String() string { return t.Name() }

func (t *Scalar) clone(m Modifier) Type    { return &Scalar{Kind: t.Kind, Mod: m} }
func (t *ClassType) clone(m Modifier) Type { return &ClassType{Class: t.Class, Mod: m} }
func (t *Ptr) clone(m Modifier) Type       { return &Ptr{Inner: Clone(t.Inner, t.Inner.Modifier()), Mod: m} }
func (t *Container) clone(m Modifier) Type {
	return &Container{Kind: t.Kind, Inner: Clone(t.Inner, t.Inner.Modifier()), Mod: m}
}
func (t *ErrorType) clone(m Modifier) Type { return &ErrorType{Mod: m} }

// Clone returns a deep copy of t carrying modifier m.
func Clone(t Type, m Modifier) Type {
	return t.clone(m)
}

// Check reports whether a and b are structurally compatible, ignoring
// modifiers. Classes compare by declaration identity.
func Check(a, b Type) bool {
	if IsError(a) || IsError(b) {
		return true
	}
	switch x := a.(type) {
	case *Scalar:
		y, ok := b.(*Scalar)
		return ok && x.Kind == y.Kind
	case *ClassType:
		y, ok := b.(*ClassType)
		return ok && x.Class == y.Class
	case *Ptr:
		y, ok := b.(*Ptr)
		return ok && Check(x.Inner, y.Inner)
	case *Container:
		y, ok := b.(*Container)
		return ok && x.Kind == y.Kind && Check(x.Inner, y.Inner)
	}
	return false
}

// Identical is Check without the error-type wildcard.
func Identical(a, b Type) bool {
	if IsError(a) || IsError(b) {
		return false
	}
	return Check(a, b)
}

func IsError(t Type) bool {
	_, ok := t.(*ErrorType)
	return ok || t == nil
}

// IsAtomic reports whether t fits a single machine scalar and is passed by
// value. Classes and containers are passed through hidden pointers.
func IsAtomic(t Type) bool {
	switch t.(type) {
	case *Scalar, *Ptr:
		return true
	}
	return false
}

func IsBool(t Type) bool {
	s, ok := t.(*Scalar)
	return ok && s.Kind == Bool
}

func IsIndex(t Type) bool {
	s, ok := t.(*Scalar)
	return ok && s.Kind == Index
}

func IsNumeric(t Type) bool {
	s, ok := t.(*Scalar)
	return ok && s.Kind != Bool
}

// ClassOf returns the class of a class type or of a pointer to one.
func ClassOf(t Type) *Class {
	switch x := t.(type) {
	case *ClassType:
		return x.Class
	case *Ptr:
		if c, ok := x.Inner.(*ClassType); ok {
			return c.Class
		}
	}
	return nil
}

// AtomicSize is the byte size of an atomic type; pointers are 8 bytes.
func AtomicSize(t Type) int64 {
	switch x := t.(type) {
	case *Scalar:
		return x.Kind.Size()
	case *Ptr:
		return 8
	}
	return 0
}
