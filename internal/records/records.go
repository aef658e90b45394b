// Package records models the raw type records of a debug-info type stream.
//
// Record is a closed union: every leaf kind the resolver understands has its
// own concrete type carrying only the fields relevant to it, so consumers
// dispatch with a type switch instead of probing for optional attributes.
// Records reference each other by pointer; cycles through pointers and field
// lists are expected.
package records

// Leaf names as they appear in the type stream.
const (
	LeafStructure   = "LF_STRUCTURE"
	LeafStructureST = "LF_STRUCTURE_ST"
	LeafClass       = "LF_CLASS"
	LeafUnion       = "LF_UNION"
	LeafUnionST     = "LF_UNION_ST"
	LeafEnum        = "LF_ENUM"
	LeafPointer     = "LF_POINTER"
	LeafArray       = "LF_ARRAY"
	LeafArrayST     = "LF_ARRAY_ST"
	LeafBitfield    = "LF_BITFIELD"
	LeafMember      = "LF_MEMBER"
	LeafEnumerate   = "LF_ENUMERATE"
	LeafPrimitive   = "primitive"
)

// Record is one raw type record.
type Record interface {
	// Leaf returns the record's leaf kind tag.
	Leaf() string
	isRecord()
}

// Primitive is a builtin type code such as T_INT4.
type Primitive struct {
	Code string
}

// Member is a data member inside a field list.
type Member struct {
	Name   string
	Offset int
	Type   Record
}

// Pointer points at Target.
type Pointer struct {
	Target Record
}

// Array is a fixed array of Element occupying Size bytes.
type Array struct {
	Name    string
	Element Record
	Size    int
}

// Bitfield narrows Base to Length bits starting at Position.
type Bitfield struct {
	Base     Record
	Length   int
	Position int
}

// Structure is a struct or class definition.
type Structure struct {
	TI       uint32
	LeafName string
	Name     string
	Size     int
	FwdRef   bool
	Fields   []Record
}

// Union is a union definition.
type Union struct {
	TI       uint32
	LeafName string
	Name     string
	Size     int
	FwdRef   bool
	Fields   []Record
}

// Enum is an enumeration whose fields are Enumerate records (or noise that
// makes the enum malformed).
type Enum struct {
	TI         uint32
	Name       string
	FwdRef     bool
	Underlying Record
	Fields     []Record
}

// Enumerate is a single enumerator.
type Enumerate struct {
	Name  string
	Value int64
}

// Unknown is any leaf kind the resolver does not interpret.
type Unknown struct {
	LeafName string
	Name     string
}

func (*Primitive) Leaf() string { return LeafPrimitive }
func (*Member) Leaf() string    { return LeafMember }
func (*Pointer) Leaf() string   { return LeafPointer }
func (*Array) Leaf() string     { return LeafArray }
func (*Bitfield) Leaf() string  { return LeafBitfield }
func (*Enum) Leaf() string      { return LeafEnum }
func (*Enumerate) Leaf() string { return LeafEnumerate }
func (r *Unknown) Leaf() string { return r.LeafName }

func (r *Structure) Leaf() string {
	if r.LeafName != "" {
		return r.LeafName
	}
	return LeafStructure
}

func (r *Union) Leaf() string {
	if r.LeafName != "" {
		return r.LeafName
	}
	return LeafUnion
}

func (*Primitive) isRecord() {}
func (*Member) isRecord()    {}
func (*Pointer) isRecord()   {}
func (*Array) isRecord()     {}
func (*Bitfield) isRecord()  {}
func (*Structure) isRecord() {}
func (*Union) isRecord()     {}
func (*Enum) isRecord()      {}
func (*Enumerate) isRecord() {}
func (*Unknown) isRecord()   {}

// Name returns the record's own name, or "" when the kind carries none.
func Name(r Record) string {
	switch r := r.(type) {
	case *Structure:
		return r.Name
	case *Union:
		return r.Name
	case *Enum:
		return r.Name
	case *Member:
		return r.Name
	case *Array:
		return r.Name
	case *Enumerate:
		return r.Name
	case *Unknown:
		return r.Name
	case *Primitive:
		return r.Code
	default:
		return ""
	}
}

// IsForwardRef reports whether r is a forward-declaration stub.
func IsForwardRef(r Record) bool {
	switch r := r.(type) {
	case *Structure:
		return r.FwdRef
	case *Union:
		return r.FwdRef
	case *Enum:
		return r.FwdRef
	default:
		return false
	}
}

// Stream is an ordered, linked record stream.
type Stream struct {
	Arch    string
	Records []Record
}

// Definitions splits the stream into the enums and aggregates (structures
// and unions) to resolve, in stream order, skipping forward declarations.
func (s *Stream) Definitions() (enums []*Enum, aggregates []Record) {
	if s == nil {
		return nil, nil
	}
	for _, r := range s.Records {
		if IsForwardRef(r) {
			continue
		}
		switch r := r.(type) {
		case *Enum:
			enums = append(enums, r)
		case *Structure, *Union:
			aggregates = append(aggregates, r)
		}
	}
	return enums, aggregates
}
