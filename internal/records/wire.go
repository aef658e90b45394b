package records

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
)

// File is the on-disk shape of a record stream. Records reference each other
// through type indices; Link turns a File into a pointer-linked Stream.
type File struct {
	Arch    string  `json:"arch,omitempty" msgpack:"arch,omitempty"`
	Records []Entry `json:"records" msgpack:"records"`
}

// Entry is one serialized record. Which fields are meaningful depends on Leaf.
type Entry struct {
	TI       uint32  `json:"ti,omitempty" msgpack:"ti,omitempty"`
	Leaf     string  `json:"leaf" msgpack:"leaf"`
	Name     string  `json:"name,omitempty" msgpack:"name,omitempty"`
	Size     uint64  `json:"size,omitempty" msgpack:"size,omitempty"`
	Offset   uint64  `json:"offset,omitempty" msgpack:"offset,omitempty"`
	FwdRef   bool    `json:"fwdref,omitempty" msgpack:"fwdref,omitempty"`
	Type     *Ref    `json:"type,omitempty" msgpack:"type,omitempty"`
	Fields   []Entry `json:"fields,omitempty" msgpack:"fields,omitempty"`
	Value    int64   `json:"value,omitempty" msgpack:"value,omitempty"`
	Bits     uint8   `json:"bits,omitempty" msgpack:"bits,omitempty"`
	Position uint8   `json:"bitpos,omitempty" msgpack:"bitpos,omitempty"`
}

// Ref points either at another entry (TI) or at a primitive code (Prim).
type Ref struct {
	TI   uint32 `json:"ti,omitempty" msgpack:"ti,omitempty"`
	Prim string `json:"prim,omitempty" msgpack:"prim,omitempty"`
}

// LinkError reports a malformed or dangling reference in a File.
type LinkError struct {
	TI     uint32 // entry that holds the reference (0 for nested fields)
	Target uint32 // referenced index, when dangling
	Msg    string
}

func (e *LinkError) Error() string {
	if e.Target != 0 {
		return fmt.Sprintf("record 0x%x: %s (index 0x%x)", e.TI, e.Msg, e.Target)
	}
	return fmt.Sprintf("record 0x%x: %s", e.TI, e.Msg)
}

type linker struct {
	byTI map[uint32]Record
}

// Link resolves type indices into a pointer graph. Top-level entries keep
// their order; type names are normalised to NFC.
func Link(f *File) (*Stream, error) {
	if f == nil {
		return &Stream{}, nil
	}
	l := &linker{byTI: make(map[uint32]Record, len(f.Records))}
	shells := make([]Record, len(f.Records))

	// Allocate first so entries can reference later ones.
	for i := range f.Records {
		e := &f.Records[i]
		shell := newShell(e)
		shells[i] = shell
		if e.TI == 0 {
			continue
		}
		if _, dup := l.byTI[e.TI]; dup {
			return nil, &LinkError{TI: e.TI, Msg: "duplicate type index"}
		}
		l.byTI[e.TI] = shell
	}
	for i := range f.Records {
		if err := l.fill(shells[i], &f.Records[i], f.Records[i].TI); err != nil {
			return nil, err
		}
	}
	return &Stream{Arch: f.Arch, Records: shells}, nil
}

func newShell(e *Entry) Record {
	switch e.Leaf {
	case LeafStructure, LeafStructureST, LeafClass:
		return &Structure{}
	case LeafUnion, LeafUnionST:
		return &Union{}
	case LeafEnum:
		return &Enum{}
	case LeafPointer:
		return &Pointer{}
	case LeafArray, LeafArrayST:
		return &Array{}
	case LeafBitfield:
		return &Bitfield{}
	case LeafMember:
		return &Member{}
	case LeafEnumerate:
		return &Enumerate{}
	case LeafPrimitive:
		return &Primitive{}
	default:
		return &Unknown{}
	}
}

func (l *linker) fill(shell Record, e *Entry, owner uint32) error {
	name := normalizeName(e.Name)
	switch r := shell.(type) {
	case *Structure:
		size, err := l.toInt(e.Size, owner, "size")
		if err != nil {
			return err
		}
		fields, err := l.fields(e.Fields, owner)
		if err != nil {
			return err
		}
		*r = Structure{TI: e.TI, LeafName: e.Leaf, Name: name, Size: size, FwdRef: e.FwdRef, Fields: fields}
	case *Union:
		size, err := l.toInt(e.Size, owner, "size")
		if err != nil {
			return err
		}
		fields, err := l.fields(e.Fields, owner)
		if err != nil {
			return err
		}
		*r = Union{TI: e.TI, LeafName: e.Leaf, Name: name, Size: size, FwdRef: e.FwdRef, Fields: fields}
	case *Enum:
		under, err := l.ref(e.Type, owner, false)
		if err != nil {
			return err
		}
		fields, err := l.fields(e.Fields, owner)
		if err != nil {
			return err
		}
		*r = Enum{TI: e.TI, Name: name, FwdRef: e.FwdRef, Underlying: under, Fields: fields}
	case *Pointer:
		target, err := l.ref(e.Type, owner, true)
		if err != nil {
			return err
		}
		r.Target = target
	case *Array:
		elem, err := l.ref(e.Type, owner, true)
		if err != nil {
			return err
		}
		size, err := l.toInt(e.Size, owner, "size")
		if err != nil {
			return err
		}
		*r = Array{Name: name, Element: elem, Size: size}
	case *Bitfield:
		base, err := l.ref(e.Type, owner, true)
		if err != nil {
			return err
		}
		*r = Bitfield{Base: base, Length: int(e.Bits), Position: int(e.Position)}
	case *Member:
		typ, err := l.ref(e.Type, owner, true)
		if err != nil {
			return err
		}
		offset, err := l.toInt(e.Offset, owner, "offset")
		if err != nil {
			return err
		}
		*r = Member{Name: name, Offset: offset, Type: typ}
	case *Enumerate:
		*r = Enumerate{Name: name, Value: e.Value}
	case *Primitive:
		r.Code = e.Name
	case *Unknown:
		*r = Unknown{LeafName: e.Leaf, Name: name}
	}
	return nil
}

func (l *linker) fields(entries []Entry, owner uint32) ([]Record, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make([]Record, 0, len(entries))
	for i := range entries {
		shell := newShell(&entries[i])
		if err := l.fill(shell, &entries[i], owner); err != nil {
			return nil, err
		}
		out = append(out, shell)
	}
	return out, nil
}

func (l *linker) ref(ref *Ref, owner uint32, required bool) (Record, error) {
	if ref == nil || (ref.TI == 0 && ref.Prim == "") {
		if required {
			return nil, &LinkError{TI: owner, Msg: "missing type reference"}
		}
		return nil, nil
	}
	if ref.Prim != "" {
		return &Primitive{Code: strings.TrimSpace(ref.Prim)}, nil
	}
	r, ok := l.byTI[ref.TI]
	if !ok {
		return nil, &LinkError{TI: owner, Target: ref.TI, Msg: "dangling type index"}
	}
	return r, nil
}

func (l *linker) toInt(v uint64, owner uint32, what string) (int, error) {
	n, err := safecast.Conv[int](v)
	if err != nil {
		return 0, &LinkError{TI: owner, Msg: fmt.Sprintf("%s out of range: %v", what, err)}
	}
	return n, nil
}

func normalizeName(name string) string {
	if name == "" {
		return ""
	}
	return norm.NFC.String(name)
}
