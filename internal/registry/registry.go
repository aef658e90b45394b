// Package registry holds the append-only namespace of resolved aggregates
// and enums.
package registry

import "elnino/internal/types"

// Namespace separates the registry's independent name spaces. Structs and
// unions share one namespace, enums have their own.
type Namespace uint8

const (
	NamespaceAggregate Namespace = iota
	NamespaceEnum
)

func (ns Namespace) String() string {
	if ns == NamespaceEnum {
		return "enum"
	}
	return "struct"
}

// NamespaceFor returns the namespace a type of kind k is registered in.
func NamespaceFor(k types.Kind) Namespace {
	if k == types.KindEnum {
		return NamespaceEnum
	}
	return NamespaceAggregate
}

// Entry is one registered definition.
type Entry struct {
	Name string
	Type *types.Type
}

// Registry maps names to resolved types. A name is written at most once;
// entries are never replaced or removed.
type Registry struct {
	spaces [2]namespace
}

type namespace struct {
	byName map[string]int
	order  []Entry
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{}
	for i := range r.spaces {
		r.spaces[i].byName = make(map[string]int, 64)
	}
	return r
}

// Define stores t under name unless the name is already taken, and reports
// whether it did.
func (r *Registry) Define(ns Namespace, name string, t *types.Type) bool {
	space := &r.spaces[ns]
	if _, ok := space.byName[name]; ok {
		return false
	}
	space.byName[name] = len(space.order)
	space.order = append(space.order, Entry{Name: name, Type: t})
	return true
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(ns Namespace, name string) (*types.Type, bool) {
	if r == nil {
		return nil, false
	}
	space := &r.spaces[ns]
	idx, ok := space.byName[name]
	if !ok {
		return nil, false
	}
	return space.order[idx].Type, true
}

// Has reports whether name is registered in ns.
func (r *Registry) Has(ns Namespace, name string) bool {
	_, ok := r.Lookup(ns, name)
	return ok
}

// Len returns the number of entries in ns.
func (r *Registry) Len(ns Namespace) int {
	if r == nil {
		return 0
	}
	return len(r.spaces[ns].order)
}

// Entries returns the entries of ns in registration order. The returned
// slice must not be modified.
func (r *Registry) Entries(ns Namespace) []Entry {
	if r == nil {
		return nil
	}
	return r.spaces[ns].order
}

// View is the read-only side of a Registry handed to resolution code.
type View interface {
	Lookup(ns Namespace, name string) (*types.Type, bool)
}
