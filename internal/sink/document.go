package sink

import (
	"elnino/internal/types"
)

// Current schema version - increment when the Database layout changes
const SchemaVersion uint16 = 1

// Database is the persisted form of a load: every definition in the order
// the resolver produced it.
type Database struct {
	Schema       uint16          `json:"schema" msgpack:"schema"`
	Arch         string          `json:"arch" msgpack:"arch"`
	PointerWidth int             `json:"pointer_width" msgpack:"pointer_width"`
	Types        []DefinitionDoc `json:"types" msgpack:"types"`
}

// DefinitionDoc is one named definition.
type DefinitionDoc struct {
	Name string   `json:"name" msgpack:"name"`
	Kind string   `json:"kind" msgpack:"kind"`
	Size int      `json:"size" msgpack:"size"`
	C    string   `json:"c" msgpack:"c"` // C declaration
	Type *TypeDoc `json:"type" msgpack:"type"`
}

// TypeDoc mirrors types.Type with readable kind names.
type TypeDoc struct {
	Kind        string          `json:"kind" msgpack:"kind"`
	Width       int             `json:"width,omitempty" msgpack:"width,omitempty"`
	Signed      bool            `json:"signed,omitempty" msgpack:"signed,omitempty"`
	Count       int             `json:"count,omitempty" msgpack:"count,omitempty"`
	Elem        *TypeDoc        `json:"elem,omitempty" msgpack:"elem,omitempty"`
	Members     []MemberDoc     `json:"members,omitempty" msgpack:"members,omitempty"`
	Enumerators []EnumeratorDoc `json:"enumerators,omitempty" msgpack:"enumerators,omitempty"`
	Ref         *RefDoc         `json:"ref,omitempty" msgpack:"ref,omitempty"`
}

type MemberDoc struct {
	Name   string   `json:"name" msgpack:"name"`
	Offset int      `json:"offset" msgpack:"offset"`
	Type   *TypeDoc `json:"type" msgpack:"type"`
}

type EnumeratorDoc struct {
	Name  string `json:"name" msgpack:"name"`
	Value int64  `json:"value" msgpack:"value"`
}

type RefDoc struct {
	Class string `json:"class" msgpack:"class"`
	Name  string `json:"name" msgpack:"name"`
	Firm  bool   `json:"firm,omitempty" msgpack:"firm,omitempty"`
}

// Document converts a definition into its persisted form.
func Document(name string, kind types.Kind, t *types.Type) DefinitionDoc {
	return DefinitionDoc{
		Name: name,
		Kind: kind.String(),
		Size: t.Size(),
		C:    types.Declaration(name, t),
		Type: DocumentType(t),
	}
}

// DocumentType converts a descriptor tree. Registry references stay
// references, so the tree is always finite.
func DocumentType(t *types.Type) *TypeDoc {
	if t == nil {
		return nil
	}
	doc := &TypeDoc{
		Kind:   t.Kind.String(),
		Width:  t.Width,
		Signed: t.Signed,
		Count:  t.Count,
		Elem:   DocumentType(t.Elem),
	}
	if len(t.Members) > 0 {
		doc.Members = make([]MemberDoc, len(t.Members))
		for i, m := range t.Members {
			doc.Members[i] = MemberDoc{Name: m.Name, Offset: m.Offset, Type: DocumentType(m.Type)}
		}
	}
	if len(t.Enumerators) > 0 {
		doc.Enumerators = make([]EnumeratorDoc, len(t.Enumerators))
		for i, e := range t.Enumerators {
			doc.Enumerators[i] = EnumeratorDoc{Name: e.Name, Value: e.Value}
		}
	}
	if t.Kind == types.KindNamed {
		doc.Ref = &RefDoc{Class: t.Ref.Class.String(), Name: t.Ref.Name, Firm: t.Ref.Firm}
	}
	return doc
}
