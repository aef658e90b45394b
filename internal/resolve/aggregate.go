package resolve

import (
	"errors"

	"elnino/internal/diag"
	"elnino/internal/records"
	"elnino/internal/types"
)

// Missing names a member whose type is not firm yet.
type Missing struct {
	Member string
	Type   string
}

func (m Missing) String() string {
	return m.Type + " (" + m.Member + ")"
}

// Aggregate is the outcome of one BuildAggregate attempt. Type is nil when
// at least one member is still missing.
type Aggregate struct {
	Name    string
	Type    *types.Type
	Missing []Missing
	Inlined []string // anonymous member types flattened into Type
}

// BuildAggregate assembles a struct or union from rec's field list. Field
// order and offsets are kept as declared. Field list entries that are not
// data members (methods, nested types, base classes) are skipped.
func (r *Resolver) BuildAggregate(rec records.Record) (Aggregate, error) {
	var (
		name   string
		size   int
		fields []records.Record
		kind   types.Kind
	)
	switch rec := rec.(type) {
	case *records.Structure:
		name, size, fields, kind = rec.Name, rec.Size, rec.Fields, types.KindStruct
	case *records.Union:
		name, size, fields, kind = rec.Name, rec.Size, rec.Fields, types.KindUnion
	default:
		leaf := "<none>"
		if rec != nil {
			leaf = rec.Leaf()
		}
		return Aggregate{}, &Error{Kind: ErrNotAggregate, Subject: records.Name(rec), Leaf: leaf}
	}

	out := Aggregate{Name: name}
	members := make([]types.Member, 0, len(fields))
	for _, f := range fields {
		m, ok := f.(*records.Member)
		if !ok {
			continue
		}
		memberName := m.Name
		if memberName == "" {
			memberName = UnnamedMember
		}
		res, err := r.Resolve(m)
		if err != nil {
			var e *Error
			if errors.As(err, &e) && e.Subject == "" {
				e.Subject = name
			}
			return Aggregate{}, err
		}
		var t *types.Type
		switch {
		case r.IsAnonymous(res.Name):
			t = res.Concrete
			if t != nil {
				out.Inlined = append(out.Inlined, res.Name)
			}
		case res.Firm != nil:
			t = res.Firm
		}
		if t == nil {
			out.Missing = append(out.Missing, Missing{Member: memberName, Type: res.Name})
			continue
		}
		members = append(members, types.Member{Name: memberName, Offset: m.Offset, Type: t})
	}
	if len(out.Missing) > 0 {
		return out, nil
	}

	if size <= 0 {
		size = computedWidth(kind, members)
	}
	if kind == types.KindUnion {
		out.Type = types.MakeUnion(members, size)
	} else {
		out.Type = types.MakeStruct(members, size)
	}
	for _, inl := range out.Inlined {
		diag.ReportInfo(r.reporter, diag.ResInlinedAnonymous, name, "inlined anonymous "+inl).Emit()
	}
	return out, nil
}

func computedWidth(kind types.Kind, members []types.Member) int {
	width := 0
	for _, m := range members {
		end := m.Type.Size()
		if kind == types.KindStruct {
			end += m.Offset
		}
		if end > width {
			width = end
		}
	}
	return width
}
