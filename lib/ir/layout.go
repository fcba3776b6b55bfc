package ir

import (
	"fmt"
	"strings"

	lltypes "github.com/llir/llvm/ir/types"
)

// Member is one field of a Struct. Atomic fields carry Type; nested class
// fields carry Struct; container fields carry Container and occupy a header.
type Member struct {
	Name      string
	Offset    int64
	Type      Type
	Struct    *Struct
	Container bool
}

func (m *Member) Size() int64 {
	switch {
	case m.Struct != nil:
		return m.Struct.Size
	case m.Container:
		return HeaderSize
	}
	return m.Type.Size()
}

func (m *Member) Align() int64 {
	switch {
	case m.Struct != nil:
		return m.Struct.Align
	case m.Container:
		return 8
	case m.Type.IsVector():
		return m.Type.Size()
	}
	return m.Type.Kind.Size()
}

// LL is the backend type of the member.
func (m *Member) LL() lltypes.Type {
	switch {
	case m.Struct != nil:
		return m.Struct.Handle
	case m.Container:
		return HeaderLL
	}
	return m.Type.LL()
}

// A container value is a header of a data pointer and an element count.
const HeaderSize = 16

var (
	HeaderData = &Member{Name: "data", Offset: 0, Type: PtrType}
	HeaderLen  = &Member{Name: "size", Offset: 8, Type: IndexType}
)

// Struct is the flattened layout of a class. Handle is the backend's type
// for it; lowering only passes it through.
type Struct struct {
	Name    string
	Members []*Member
	Size    int64
	Align   int64
	Packed  bool
	Lanes   int
	Handle  lltypes.Type
	byName  map[string]*Member
}

func NewStruct(name string) *Struct {
	return &Struct{Name: name, Align: 1, byName: make(map[string]*Member)}
}

// Append places m after the existing members at its natural alignment.
func (s *Struct) Append(m *Member) *Member {
	align := m.Align()
	off := alignUp(s.Size, align)
	m.Offset = off
	s.Size = off + m.Size()
	if align > s.Align {
		s.Align = align
	}
	s.Members = append(s.Members, m)
	s.byName[m.Name] = m
	return m
}

// Finish pads the size to a multiple of the alignment.
func (s *Struct) Finish() {
	s.Size = alignUp(s.Size, s.Align)
}

func (s *Struct) Member(name string) *Member { return s.byName[name] }

func alignUp(n, a int64) int64 {
	if a <= 1 {
		return n
	}
	return (n + a - 1) &^ (a - 1)
}

func (s *Struct) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "struct %s size %d align %d {", s.Name, s.Size, s.Align)
	for _, m := range s.Members {
		fmt.Fprintf(&sb, " %s@%d", m.Name, m.Offset)
	}
	sb.WriteString(" }")
	return sb.String()
}

// StructOffset is a chain of member steps from one base address, composed
// into a single byte offset.
type StructOffset struct {
	Path  []*Member
	Bytes int64
}

func NewOffset(path ...*Member) *StructOffset {
	o := &StructOffset{}
	for _, m := range path {
		o = o.Add(m)
	}
	return o
}

// Add returns the offset extended by one member step; o is not modified.
func (o *StructOffset) Add(m *Member) *StructOffset {
	var path []*Member
	var bytes int64
	if o != nil {
		path = append(path, o.Path...)
		bytes = o.Bytes
	}
	return &StructOffset{Path: append(path, m), Bytes: bytes + m.Offset}
}

// Value returns the byte offset; a nil offset is zero.
func (o *StructOffset) Value() int64 {
	if o == nil {
		return 0
	}
	return o.Bytes
}

func (o *StructOffset) String() string {
	if o == nil || len(o.Path) == 0 {
		return ""
	}
	names := make([]string, len(o.Path))
	for i, m := range o.Path {
		names[i] = m.Name
	}
	return fmt.Sprintf("+%d(.%s)", o.Bytes, strings.Join(names, "."))
}
