// Package testkit holds structural checks shared by the resolver tests.
package testkit

import (
	"fmt"

	"elnino/internal/registry"
	"elnino/internal/types"
)

// CheckLayout runs a minimal set of layout invariants on one resolved
// definition:
// 1) struct members appear in offset order and fit in the declared width
// 2) union members start at offset 0
// 3) pointers carry pointerWidth (skipped when pointerWidth is 0)
// 4) every firm reference is accepted by known
func CheckLayout(name string, t *types.Type, pointerWidth int, known func(types.Ref) bool) error {
	if t == nil {
		return fmt.Errorf("%s: nil type", name)
	}
	return checkType(name, t, pointerWidth, known)
}

func checkType(path string, t *types.Type, pointerWidth int, known func(types.Ref) bool) error {
	switch t.Kind {
	case types.KindStruct, types.KindUnion:
		last := 0
		for _, m := range t.Members {
			mpath := path + "." + m.Name
			if m.Type == nil {
				return fmt.Errorf("%s: nil member type", mpath)
			}
			if t.Kind == types.KindUnion && m.Offset != 0 {
				return fmt.Errorf("%s: union member at offset %d", mpath, m.Offset)
			}
			if m.Offset < last {
				return fmt.Errorf("%s: offset %d before previous member at %d", mpath, m.Offset, last)
			}
			last = m.Offset
			if size := m.Type.Size(); size > 0 && t.Width > 0 && m.Offset+size > t.Width {
				return fmt.Errorf("%s: member ends at %d past width %d", mpath, m.Offset+size, t.Width)
			}
			if err := checkType(mpath, m.Type, pointerWidth, known); err != nil {
				return err
			}
		}
	case types.KindPointer:
		if pointerWidth > 0 && t.Width != pointerWidth {
			return fmt.Errorf("%s: pointer width %d, want %d", path, t.Width, pointerWidth)
		}
		// pointer targets may be loose and unregistered
		if t.Elem != nil && !t.Elem.IsNamed() {
			return checkType(path+"*", t.Elem, pointerWidth, known)
		}
	case types.KindArray:
		if t.Elem == nil {
			return fmt.Errorf("%s: array without element type", path)
		}
		if w := t.Elem.Size(); w > 0 && t.Count*w > t.Width {
			return fmt.Errorf("%s: %d elements of %d bytes exceed width %d", path, t.Count, w, t.Width)
		}
		return checkType(path+"[]", t.Elem, pointerWidth, known)
	case types.KindNamed:
		if t.Ref.Firm && known != nil && !known(t.Ref) {
			return fmt.Errorf("%s: firm reference to %s %s before its definition", path, t.Ref.Class, t.Ref.Name)
		}
	}
	return nil
}

// CheckRegistry checks every registered definition with CheckLayout and
// additionally requires firm references to point at definitions registered
// earlier. Enums are always registered before aggregates.
func CheckRegistry(reg *registry.Registry, pointerWidth int) error {
	seen := map[registry.Namespace]map[string]bool{
		registry.NamespaceEnum:      {},
		registry.NamespaceAggregate: {},
	}
	known := func(ref types.Ref) bool {
		ns := registry.NamespaceAggregate
		if ref.Class == types.ClassEnum {
			ns = registry.NamespaceEnum
		}
		return seen[ns][ref.Name]
	}
	for _, ns := range []registry.Namespace{registry.NamespaceEnum, registry.NamespaceAggregate} {
		for _, e := range reg.Entries(ns) {
			if err := CheckLayout(e.Name, e.Type, pointerWidth, known); err != nil {
				return err
			}
			seen[ns][e.Name] = true
		}
	}
	return nil
}
