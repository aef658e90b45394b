// Package resolve turns raw type records into resolved type descriptors.
//
// Resolve handles a single reference, BuildAggregate and BuildEnum assemble
// whole definitions. None of them write to the registry: they only read the
// View they were created with, the scheduler owns every write.
package resolve

import (
	"strconv"
	"strings"

	"elnino/internal/builtin"
	"elnino/internal/diag"
	"elnino/internal/records"
	"elnino/internal/registry"
	"elnino/internal/types"
)

const (
	// InvalidTypeName is the display name of uninterpreted leaf kinds.
	InvalidTypeName = "invalid_type"
	// UnnamedMember names members that carry no name of their own.
	UnnamedMember = "unnamed_substruct"
)

// DefaultAnonymousMarkers match the names compilers give to nested unnamed
// structs and unions.
var DefaultAnonymousMarkers = []string{"__unnamed", "<unnamed-", "<anonymous-"}

// Resolution is the result of resolving one reference.
//
// Loose is set whenever the referenced type is known to exist by name, Firm
// only when its size is known. Concrete is the descriptor itself, for
// registered aggregates the stored definition. A Resolution with neither
// Loose nor Firm means "not yet": retry in a later pass.
type Resolution struct {
	Concrete *types.Type
	Loose    *types.Type
	Firm     *types.Type
	Name     string
}

// Pending reports whether nothing usable was produced yet.
func (r Resolution) Pending() bool {
	return r.Loose == nil && r.Firm == nil
}

func same(t *types.Type, name string) Resolution {
	return Resolution{Concrete: t, Loose: t, Firm: t, Name: name}
}

// Options tune a Resolver.
type Options struct {
	// AnonymousMarkers overrides DefaultAnonymousMarkers when non-empty.
	AnonymousMarkers []string
	// Strict turns unknown leaf kinds into fatal errors.
	Strict bool
	// Reporter receives non-fatal findings. May be nil.
	Reporter diag.Reporter
}

// Resolver resolves records against a registry view.
type Resolver struct {
	dec      *builtin.Decoder
	reg      registry.View
	markers  []string
	strict   bool
	reporter diag.Reporter
}

// New creates a Resolver reading reg and decoding primitives with dec.
func New(dec *builtin.Decoder, reg registry.View, opts Options) *Resolver {
	markers := opts.AnonymousMarkers
	if len(markers) == 0 {
		markers = DefaultAnonymousMarkers
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Resolver{
		dec:      dec,
		reg:      reg,
		markers:  markers,
		strict:   opts.Strict,
		reporter: reporter,
	}
}

// IsAnonymous reports whether name follows a compiler's naming convention for
// unnamed nested aggregates.
func (r *Resolver) IsAnonymous(name string) bool {
	for _, m := range r.markers {
		if m != "" && strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// Resolve produces the descriptor and references for rec. The only errors
// are fatal ones (*Error); "not yet resolvable" is a Pending resolution.
func (r *Resolver) Resolve(rec records.Record) (Resolution, error) {
	switch rec := rec.(type) {
	case *records.Primitive:
		t, err := r.dec.Decode(rec.Code)
		if err != nil {
			return Resolution{Name: rec.Code}, &Error{Kind: ErrUnknownBuiltinCode, Err: err}
		}
		return same(t, rec.Code), nil

	case *records.Member:
		return r.Resolve(rec.Type)

	case *records.Structure:
		return r.named(types.ClassStruct, rec.Name), nil

	case *records.Union:
		return r.named(types.ClassUnion, rec.Name), nil

	case *records.Enum:
		stored, ok := r.reg.Lookup(registry.NamespaceEnum, rec.Name)
		if !ok {
			return Resolution{Name: rec.Name}, nil
		}
		ref := types.MakeFirm(types.ClassEnum, rec.Name, stored.Size())
		return Resolution{Concrete: stored, Loose: ref, Firm: ref, Name: rec.Name}, nil

	case *records.Pointer:
		return r.pointer(rec)

	case *records.Array:
		return r.array(rec)

	case *records.Bitfield:
		inner, err := r.Resolve(rec.Base)
		if err != nil {
			return inner, err
		}
		inner.Name = bitfieldName(inner.Name, rec.Length)
		return inner, nil

	case *records.Unknown:
		return r.unknown(rec.LeafName, rec.Name)

	case nil:
		return r.unknown("<none>", "")

	default:
		return r.unknown(rec.Leaf(), records.Name(rec))
	}
}

func (r *Resolver) named(class types.Class, name string) Resolution {
	res := Resolution{
		Loose: types.MakeLoose(class, name),
		Name:  name,
	}
	if stored, ok := r.reg.Lookup(registry.NamespaceAggregate, name); ok {
		res.Concrete = stored
		res.Firm = types.MakeFirm(class, name, stored.Size())
	}
	return res
}

func (r *Resolver) pointer(rec *records.Pointer) (Resolution, error) {
	inner, err := r.Resolve(rec.Target)
	if err != nil {
		return inner, err
	}
	target := inner.Loose
	if target == nil {
		target = inner.Firm
	}
	if target == nil {
		// e.g. an enum that never made it into the registry
		target = types.MakeLoose(types.ClassUnknown, inner.Name)
	}
	p := types.MakePointer(target, r.dec.PointerWidth())
	return same(p, inner.Name+"*"), nil
}

func (r *Resolver) array(rec *records.Array) (Resolution, error) {
	inner, err := r.Resolve(rec.Element)
	if err != nil {
		return inner, err
	}
	if inner.Firm == nil {
		return Resolution{Name: inner.Name}, nil
	}
	count := 0
	if w := inner.Firm.Size(); w != 0 {
		count = rec.Size / w
	}
	a := types.MakeArray(inner.Firm, count, rec.Size)
	return same(a, inner.Name), nil
}

func (r *Resolver) unknown(leaf, name string) (Resolution, error) {
	if r.strict {
		return Resolution{Name: InvalidTypeName}, &Error{Kind: ErrUnknownLeafKind, Subject: name, Leaf: leaf}
	}
	b := diag.ReportWarning(r.reporter, diag.ResUnknownLeafKind, name, "unknown leaf kind "+leaf+", substituting void")
	b.Emit()
	return same(types.MakeVoid(), InvalidTypeName), nil
}

func bitfieldName(base string, length int) string {
	return base + ":" + strconv.Itoa(length)
}
