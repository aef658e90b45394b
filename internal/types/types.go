package types

import "fmt"

// Kind enumerates the resolved type shapes.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindInt
	KindFloat
	KindChar
	KindWideChar
	KindPointer
	KindArray
	KindStruct
	KindUnion
	KindEnum
	// KindNamed is a by-name reference into the registry.
	KindNamed
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindChar:
		return "char"
	case KindWideChar:
		return "wchar"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindNamed:
		return "named"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Class is the namespace a named reference points into.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassStruct
	ClassUnion
	ClassEnum
)

func (c Class) String() string {
	switch c {
	case ClassStruct:
		return "struct"
	case ClassUnion:
		return "union"
	case ClassEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Ref is a name-qualified handle into the registry.
//
// A loose ref only promises that the name exists somewhere (pointer targets);
// a firm ref was produced after the referenced type was registered, so its
// width is known.
type Ref struct {
	Class Class
	Name  string
	Firm  bool
}

// Member is a single struct or union field. Type is either a named reference
// or an inlined descriptor.
type Member struct {
	Name   string
	Offset int
	Type   *Type
}

// Enumerator is one (name, value) pair of an enumeration.
type Enumerator struct {
	Name  string
	Value int64
}

// Type is an immutable resolved type descriptor. Descriptors are shared by
// pointer and must not be modified after construction.
type Type struct {
	Kind   Kind
	Width  int  // bytes; 0 for void and loose refs
	Signed bool // for integers

	Elem  *Type // pointer target, array element
	Count int   // array element count

	Members     []Member     // struct/union
	Enumerators []Enumerator // enum

	Ref Ref // for KindNamed
}

// Descriptor helpers ---------------------------------------------------------

// MakeVoid describes void.
func MakeVoid() *Type { return &Type{Kind: KindVoid} }

// MakeBool describes a boolean of the given width.
func MakeBool(width int) *Type { return &Type{Kind: KindBool, Width: width} }

// MakeInt describes an integer.
func MakeInt(width int, signed bool) *Type {
	return &Type{Kind: KindInt, Width: width, Signed: signed}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width int) *Type { return &Type{Kind: KindFloat, Width: width} }

// MakeChar describes a narrow character.
func MakeChar() *Type { return &Type{Kind: KindChar, Width: 1} }

// MakeWideChar describes a wide character of the given width.
func MakeWideChar(width int) *Type { return &Type{Kind: KindWideChar, Width: width} }

// MakePointer describes a pointer of the given width to elem.
func MakePointer(elem *Type, width int) *Type {
	return &Type{Kind: KindPointer, Width: width, Elem: elem}
}

// MakeArray describes a fixed array. width is the declared byte size.
func MakeArray(elem *Type, count, width int) *Type {
	return &Type{Kind: KindArray, Width: width, Elem: elem, Count: count}
}

// MakeStruct describes a structure with the given members and byte size.
func MakeStruct(members []Member, width int) *Type {
	return &Type{Kind: KindStruct, Width: width, Members: members}
}

// MakeUnion describes a union with the given members and byte size.
func MakeUnion(members []Member, width int) *Type {
	return &Type{Kind: KindUnion, Width: width, Members: members}
}

// MakeEnum describes an enumeration of the given underlying width.
func MakeEnum(width int, enumerators []Enumerator) *Type {
	return &Type{Kind: KindEnum, Width: width, Enumerators: enumerators}
}

// MakeLoose creates a loose reference to name. Its width is unknown.
func MakeLoose(class Class, name string) *Type {
	return &Type{Kind: KindNamed, Ref: Ref{Class: class, Name: name}}
}

// MakeFirm creates a firm reference to a registered type of the given width.
func MakeFirm(class Class, name string, width int) *Type {
	return &Type{Kind: KindNamed, Width: width, Ref: Ref{Class: class, Name: name, Firm: true}}
}

// Predicates -----------------------------------------------------------------

// IsNamed reports whether t is a registry reference.
func (t *Type) IsNamed() bool { return t != nil && t.Kind == KindNamed }

// IsFirm reports whether t may be used by value: every concrete descriptor is
// firm, named references only when marked so.
func (t *Type) IsFirm() bool {
	if t == nil {
		return false
	}
	if t.Kind == KindNamed {
		return t.Ref.Firm
	}
	return true
}

// IsAggregate reports whether t is a struct or union descriptor.
func (t *Type) IsAggregate() bool {
	return t != nil && (t.Kind == KindStruct || t.Kind == KindUnion)
}

// Size returns the byte width, treating nil as zero-sized.
func (t *Type) Size() int {
	if t == nil {
		return 0
	}
	return t.Width
}

// ClassOf returns the registry class matching an aggregate or enum kind.
func ClassOf(k Kind) Class {
	switch k {
	case KindStruct:
		return ClassStruct
	case KindUnion:
		return ClassUnion
	case KindEnum:
		return ClassEnum
	default:
		return ClassUnknown
	}
}
