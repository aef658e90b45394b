package fixpoint

import (
	"context"
	"errors"
	"testing"

	"elnino/internal/diag"
	"elnino/internal/records"
	"elnino/internal/registry"
	"elnino/internal/resolve"
	"elnino/internal/target"
	"elnino/internal/testkit"
	"elnino/internal/trace"
	"elnino/internal/types"
)

type defineCall struct {
	name string
	kind types.Kind
}

type recordingSink struct {
	calls []defineCall
	err   error
}

func (s *recordingSink) DefineType(name string, kind types.Kind, _ *types.Type) error {
	s.calls = append(s.calls, defineCall{name: name, kind: kind})
	return s.err
}

func (s *recordingSink) count(name string) int {
	n := 0
	for _, c := range s.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

func prim(code string) *records.Primitive { return &records.Primitive{Code: code} }

func field(name string, offset int, t records.Record) *records.Member {
	return &records.Member{Name: name, Offset: offset, Type: t}
}

func run(t *testing.T, stream *records.Stream, sink Sink) *Result {
	t.Helper()
	res, err := Run(context.Background(), stream, Options{Profile: target.X86_64(), Sink: sink})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := testkit.CheckRegistry(res.Registry, res.Profile.PointerWidth); err != nil {
		t.Fatalf("registry invariants: %v", err)
	}
	return res
}

func TestPointerToUndefinedResolvesInFirstPass(t *testing.T) {
	b := &records.Structure{Name: "B", FwdRef: true}
	a := &records.Structure{Name: "A", Size: 8, Fields: []records.Record{
		field("b", 0, &records.Pointer{Target: b}),
	}}
	res := run(t, &records.Stream{Records: []records.Record{b, a}}, nil)
	if !res.Registry.Has(registry.NamespaceAggregate, "A") {
		t.Fatal("A should resolve")
	}
	if res.Stats.PassProgress[0] != 1 {
		t.Fatalf("A should resolve in pass 1: %+v", res.Stats)
	}
	if res.Registry.Has(registry.NamespaceAggregate, "B") {
		t.Fatal("forward stub must not be registered")
	}
}

func TestMutualPointersResolveInOnePass(t *testing.T) {
	a := &records.Structure{Name: "A", Size: 8}
	b := &records.Structure{Name: "B", Size: 8}
	a.Fields = []records.Record{field("b", 0, &records.Pointer{Target: b})}
	b.Fields = []records.Record{field("a", 0, &records.Pointer{Target: a})}

	sink := &recordingSink{}
	res := run(t, &records.Stream{Records: []records.Record{a, b}}, sink)
	if res.Stats.PassProgress[0] != 2 || res.Stats.AggregatesParsed != 2 {
		t.Fatalf("both should resolve in pass 1: %+v", res.Stats)
	}
	if len(sink.calls) != 2 || sink.calls[0].name != "A" || sink.calls[1].name != "B" {
		t.Fatalf("unexpected sink calls: %+v", sink.calls)
	}
}

func TestValueCycleReachesZeroProgressFixpoint(t *testing.T) {
	a := &records.Structure{Name: "A", Size: 8}
	b := &records.Structure{Name: "B", Size: 8}
	a.Fields = []records.Record{field("b", 0, b)}
	b.Fields = []records.Record{field("a", 0, a)}

	res := run(t, &records.Stream{Records: []records.Record{a, b}}, nil)
	if res.Stats.Passes != 1 || res.Stats.PassProgress[0] != 0 {
		t.Fatalf("expected a single zero-progress pass: %+v", res.Stats)
	}
	if len(res.Unresolved) != 2 || res.Unresolved[0].Name != "A" || res.Unresolved[1].Name != "B" {
		t.Fatalf("both should be reported: %+v", res.Unresolved)
	}
	if got := res.Unresolved[0].Missing; len(got) != 1 || got[0] != (resolve.Missing{Member: "b", Type: "B"}) {
		t.Fatalf("A should name B as missing: %+v", got)
	}
	if res.Bag.Count(diag.ResUnresolvedAfterFixpoint) != 2 {
		t.Fatalf("expected two unresolved diagnostics: %+v", res.Bag.Items())
	}
	if res.Bag.HasErrors() {
		t.Fatal("unresolved aggregates are not errors")
	}
}

func TestPointerOneWayValueOtherWay(t *testing.T) {
	a := &records.Structure{Name: "A", Size: 8}
	b := &records.Structure{Name: "B", Size: 8}
	a.Fields = []records.Record{field("b", 0, &records.Pointer{Target: b})}
	b.Fields = []records.Record{field("a", 0, a)}

	res := run(t, &records.Stream{Records: []records.Record{b, a}}, nil)
	if res.Stats.AggregatesParsed != 2 || len(res.Unresolved) != 0 {
		t.Fatalf("chain should resolve: %+v", res.Stats)
	}
	// B depends on A by value and comes first in the stream.
	if len(res.Stats.PassProgress) != 2 || res.Stats.PassProgress[0] != 1 || res.Stats.PassProgress[1] != 1 {
		t.Fatalf("expected one success per pass: %+v", res.Stats.PassProgress)
	}
}

func TestSamePassChaining(t *testing.T) {
	inner := &records.Structure{Name: "Inner", Size: 4, Fields: []records.Record{field("x", 0, prim("T_INT4"))}}
	outer := &records.Structure{Name: "Outer", Size: 4, Fields: []records.Record{field("in", 0, inner)}}
	res := run(t, &records.Stream{Records: []records.Record{inner, outer}}, nil)
	if res.Stats.Passes != 1 || res.Stats.PassProgress[0] != 2 {
		t.Fatalf("Outer should see Inner in the same pass: %+v", res.Stats)
	}
}

func TestArrayCounts(t *testing.T) {
	empty := &records.Structure{Name: "Empty"}
	s := &records.Structure{Name: "S", Size: 52, Fields: []records.Record{
		field("ints", 0, &records.Array{Element: prim("T_INT4"), Size: 40}),
		field("none", 40, &records.Array{Element: empty, Size: 12}),
	}}
	res := run(t, &records.Stream{Records: []records.Record{empty, s}}, nil)
	st, ok := res.Registry.Lookup(registry.NamespaceAggregate, "S")
	if !ok {
		t.Fatalf("S unresolved: %+v", res.Unresolved)
	}
	if st.Members[0].Type.Count != 10 || st.Members[1].Type.Count != 0 {
		t.Fatalf("unexpected counts: %d %d", st.Members[0].Type.Count, st.Members[1].Type.Count)
	}
}

func TestAnonymousInlined(t *testing.T) {
	anon := &records.Union{Name: "__unnamed_0007", Size: 4, Fields: []records.Record{
		field("i", 0, prim("T_INT4")),
		field("f", 0, prim("T_REAL32")),
	}}
	outer := &records.Structure{Name: "Outer", Size: 4, Fields: []records.Record{field("", 0, anon)}}
	res := run(t, &records.Stream{Records: []records.Record{outer, anon}}, nil)
	st, ok := res.Registry.Lookup(registry.NamespaceAggregate, "Outer")
	if !ok {
		t.Fatalf("Outer unresolved: %+v", res.Unresolved)
	}
	m := st.Members[0].Type
	if m.Kind != types.KindUnion || len(m.Members) != 2 {
		t.Fatalf("anonymous union should be inlined, got %+v", m)
	}
	if res.Stats.Inlined != 1 {
		t.Fatalf("inlined = %d", res.Stats.Inlined)
	}
}

func TestForwardStubAndDefinitionDefineOnce(t *testing.T) {
	stub := &records.Structure{Name: "S", FwdRef: true}
	def := &records.Structure{Name: "S", Size: 4, Fields: []records.Record{field("x", 0, prim("T_INT4"))}}
	sink := &recordingSink{}
	res := run(t, &records.Stream{Records: []records.Record{stub, def}}, sink)
	if sink.count("S") != 1 {
		t.Fatalf("expected one define_type for S, got %+v", sink.calls)
	}
	st, _ := res.Registry.Lookup(registry.NamespaceAggregate, "S")
	if len(st.Members) != 1 {
		t.Fatalf("stub shadowed the definition: %+v", st)
	}
}

func TestDuplicateFirstWins(t *testing.T) {
	first := &records.Structure{Name: "S", Size: 4, Fields: []records.Record{field("a", 0, prim("T_INT4"))}}
	second := &records.Structure{Name: "S", Size: 8, Fields: []records.Record{field("b", 0, prim("T_QUAD"))}}
	sink := &recordingSink{}
	res := run(t, &records.Stream{Records: []records.Record{first, second}}, sink)
	st, _ := res.Registry.Lookup(registry.NamespaceAggregate, "S")
	if st.Width != 4 || sink.count("S") != 1 || res.Stats.Duplicates != 1 {
		t.Fatalf("first definition should win: %+v %+v", st, res.Stats)
	}
}

func TestEnumsSinglePass(t *testing.T) {
	good := &records.Enum{Name: "Color", Underlying: prim("T_INT4"), Fields: []records.Record{
		&records.Enumerate{Name: "RED"}, &records.Enumerate{Name: "GREEN", Value: 1},
	}}
	bad := &records.Enum{Name: "Broken", Underlying: prim("T_INT4"), Fields: []records.Record{
		&records.Enumerate{Value: 3},
	}}
	user := &records.Structure{Name: "Paint", Size: 16, Fields: []records.Record{
		field("c", 0, good),
		field("b", 8, &records.Pointer{Target: bad}),
	}}
	sink := &recordingSink{}
	res := run(t, &records.Stream{Records: []records.Record{user, good, bad}}, sink)
	if res.Stats.EnumsParsed != 1 || res.Stats.EnumsDropped != 1 {
		t.Fatalf("unexpected enum stats: %+v", res.Stats)
	}
	if sink.calls[0] != (defineCall{name: "Color", kind: types.KindEnum}) {
		t.Fatalf("enums should be defined before aggregates: %+v", sink.calls)
	}
	if res.Bag.Count(diag.ResMalformedEnum) != 1 {
		t.Fatalf("expected malformed enum diagnostic: %+v", res.Bag.Items())
	}
	st, ok := res.Registry.Lookup(registry.NamespaceAggregate, "Paint")
	if !ok || st.Members[0].Type.Ref.Class != types.ClassEnum {
		t.Fatalf("Paint should resolve with an enum member: %+v", res.Unresolved)
	}
}

func TestUnknownBuiltinCodeAborts(t *testing.T) {
	s := &records.Structure{Name: "S", Fields: []records.Record{field("x", 0, prim("T_MYSTERY"))}}
	res, err := Run(context.Background(), &records.Stream{Records: []records.Record{s}}, Options{})
	var rerr *resolve.Error
	if !errors.As(err, &rerr) || rerr.Kind != resolve.ErrUnknownBuiltinCode {
		t.Fatalf("expected fatal unknown code, got %v", err)
	}
	if res == nil || res.Registry == nil {
		t.Fatal("partial result should still be returned")
	}
}

func TestUnknownLeafReportedOnce(t *testing.T) {
	a := &records.Structure{Name: "A", Fields: []records.Record{
		field("f", 0, &records.Unknown{LeafName: "LF_PROCEDURE", Name: "fn"}),
		field("b", 8, &records.Structure{Name: "Never"}),
	}}
	res := run(t, &records.Stream{Records: []records.Record{a}}, nil)
	if res.Bag.Count(diag.ResUnknownLeafKind) != 1 {
		t.Fatalf("expected one unknown-leaf diagnostic: %+v", res.Bag.Items())
	}

	_, err := Run(context.Background(), &records.Stream{Records: []records.Record{a}}, Options{Strict: true})
	var rerr *resolve.Error
	if !errors.As(err, &rerr) || rerr.Kind != resolve.ErrUnknownLeafKind {
		t.Fatalf("strict mode should abort, got %v", err)
	}
}

func TestSinkErrorAborts(t *testing.T) {
	s := &records.Structure{Name: "S", Size: 4, Fields: []records.Record{field("x", 0, prim("T_INT4"))}}
	boom := errors.New("disk full")
	_, err := Run(context.Background(), &records.Stream{Records: []records.Record{s}}, Options{Sink: &recordingSink{err: boom}})
	var serr *SinkError
	if !errors.As(err, &serr) || serr.Name != "S" || !errors.Is(err, boom) {
		t.Fatalf("expected SinkError wrapping boom, got %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &records.Structure{Name: "S"}
	_, err := Run(ctx, &records.Stream{Records: []records.Record{s}}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProgressEventsAndTrace(t *testing.T) {
	ch := make(chan Event, 64)
	ring := trace.NewRingTracer(64, trace.LevelDebug)
	gauge := trace.NewGauge()
	ctx := trace.WithGauge(trace.WithTracer(context.Background(), ring), gauge)
	s := &records.Structure{Name: "S", Size: 4, Fields: []records.Record{field("x", 0, prim("T_INT4"))}}
	if _, err := Run(ctx, &records.Stream{Records: []records.Record{s}}, Options{Progress: ChannelSink{Ch: ch}}); err != nil {
		t.Fatal(err)
	}
	close(ch)
	var defined, done int
	for ev := range ch {
		switch ev.Status {
		case StatusDefined:
			defined++
		case StatusDone:
			done++
		}
	}
	if defined != 1 || done != 2 {
		t.Fatalf("defined=%d done=%d", defined, done)
	}
	var sawPass bool
	for _, ev := range ring.Snapshot() {
		if ev.Scope == trace.ScopePass && ev.Name == "pass#1" {
			sawPass = true
		}
	}
	if !sawPass {
		t.Fatal("expected a pass span in the trace")
	}
	if got := gauge.Snapshot(); got != (trace.GaugeState{Stage: "aggregates", Pass: 1, Pending: 0, Defined: 1}) {
		t.Fatalf("gauge = %+v", got)
	}
}
