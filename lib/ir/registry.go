package ir

import (
	"strings"

	"github.com/pkg/errors"
)

// FuncDecl is the callable seen by call instructions: its generated
// identifier and its parameter and result layout.
type FuncDecl struct {
	ID      string
	Params  []Type
	Results []Type
	// Trivial functions have an empty body and calls to them are elided.
	Trivial bool
	Extern  bool
}

func (d *FuncDecl) String() string {
	var sb strings.Builder
	sb.WriteString(d.ID)
	writeTypes(&sb, d.Params)
	if len(d.Results) > 0 {
		sb.WriteString(" -> ")
		writeTypes(&sb, d.Results)
	}
	return sb.String()
}

func writeTypes(sb *strings.Builder, ts []Type) {
	sb.WriteByte('(')
	for i, t := range ts {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
	sb.WriteByte(')')
}

// Registry holds every function declaration of a module by identifier, and
// the mapping from scalar functions to their packed versions.
type Registry struct {
	decls  map[string]*FuncDecl
	order  []*FuncDecl
	packed map[string]*FuncDecl
}

func NewRegistry() *Registry {
	return &Registry{decls: make(map[string]*FuncDecl), packed: make(map[string]*FuncDecl)}
}

func (r *Registry) Declare(d *FuncDecl) error {
	if _, ok := r.decls[d.ID]; ok {
		return errors.Errorf("function %s declared twice", d.ID)
	}
	r.decls[d.ID] = d
	r.order = append(r.order, d)
	return nil
}

func (r *Registry) Lookup(id string) *FuncDecl { return r.decls[id] }

// Decls returns the declarations in registration order.
func (r *Registry) Decls() []*FuncDecl { return r.order }

// MapPacked records that scalar has the packed implementation packed.
func (r *Registry) MapPacked(scalar, packed *FuncDecl) {
	r.packed[scalar.ID] = packed
}

func (r *Registry) Packed(scalar *FuncDecl) (*FuncDecl, bool) {
	d, ok := r.packed[scalar.ID]
	return d, ok
}
