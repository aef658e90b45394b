package sink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"elnino/internal/fixpoint"
	"elnino/internal/records"
	"elnino/internal/target"
	"elnino/internal/types"
)

func sampleStruct() *types.Type {
	return types.MakeStruct([]types.Member{
		{Name: "next", Offset: 0, Type: types.MakePointer(types.MakeLoose(types.ClassStruct, "Node"), 8)},
		{Name: "value", Offset: 8, Type: types.MakeInt(4, true)},
	}, 16)
}

func TestMemoryLookupSeparatesEnums(t *testing.T) {
	m := NewMemory()
	_ = m.DefineType("X", types.KindStruct, sampleStruct())
	_ = m.DefineType("X", types.KindEnum, types.MakeEnum(4, nil))
	if d, ok := m.Lookup("X", types.KindEnum); !ok || d.Kind != types.KindEnum {
		t.Fatalf("enum lookup failed: %+v", d)
	}
	if d, ok := m.Lookup("X", types.KindUnion); !ok || d.Kind != types.KindStruct {
		t.Fatalf("aggregate lookup failed: %+v", d)
	}
	if len(m.Definitions()) != 2 {
		t.Fatalf("expected 2 definitions")
	}
}

func TestMemoryDatabase(t *testing.T) {
	m := NewMemory()
	_ = m.DefineType("Pair", types.KindStruct, sampleStruct())
	db := m.Database(target.X86_64())
	if db.Schema != SchemaVersion || db.Arch != "x86_64" || db.PointerWidth != 8 {
		t.Fatalf("unexpected header: %+v", db)
	}
	if len(db.Types) != 1 || db.Types[0].Name != "Pair" || db.Types[0].Size != 16 {
		t.Fatalf("unexpected types: %+v", db.Types)
	}
}

type failingSink struct{ err error }

func (f failingSink) DefineType(string, types.Kind, *types.Type) error { return f.err }

type closingSink struct {
	Memory
	closed bool
}

func (c *closingSink) Close() error {
	c.closed = true
	return nil
}

func TestMultiStopsAtFirstErrorAndClosesAll(t *testing.T) {
	first := &closingSink{}
	boom := errors.New("boom")
	last := &closingSink{}
	m := Multi(first, nil, failingSink{err: boom}, last)
	if err := m.DefineType("S", types.KindStruct, sampleStruct()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(first.Definitions()) != 1 || len(last.Definitions()) != 0 {
		t.Fatal("fan-out should stop at the failing sink")
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if !first.closed || !last.closed {
		t.Fatal("closers not closed")
	}
}

func TestFileSinkRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"types.mp", "types.json"} {
		path := filepath.Join(dir, "out", name)
		s, err := NewFileSink(path, target.X86_64())
		if err != nil {
			t.Fatal(err)
		}
		if err := s.DefineType("Node", types.KindStruct, sampleStruct()); err != nil {
			t.Fatal(err)
		}
		if err := s.DefineType("Color", types.KindEnum, types.MakeEnum(4, []types.Enumerator{{Name: "RED", Value: 1}})); err != nil {
			t.Fatal(err)
		}
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
		if err := s.DefineType("Late", types.KindStruct, sampleStruct()); err == nil {
			t.Fatal("define after close should fail")
		}

		db, err := ReadDatabase(path)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if db.Arch != "x86_64" || db.PointerWidth != 8 || len(db.Types) != 2 {
			t.Fatalf("%s: unexpected database %+v", name, db)
		}
		node := db.Types[0]
		if node.Kind != "struct" || node.Size != 16 || len(node.Type.Members) != 2 {
			t.Fatalf("%s: unexpected node doc %+v", name, node)
		}
		next := node.Type.Members[0].Type
		if next.Kind != "pointer" || next.Elem.Ref == nil || next.Elem.Ref.Name != "Node" {
			t.Fatalf("%s: unexpected pointer doc %+v", name, next)
		}
		if !strings.Contains(node.C, "struct Node {") {
			t.Fatalf("%s: missing C declaration: %q", name, node.C)
		}
		if db.Types[1].Type.Enumerators[0].Value != 1 {
			t.Fatalf("%s: enum values lost", name)
		}
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "out"))
	if len(entries) != 2 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestFileSinkRejectsExtension(t *testing.T) {
	if _, err := NewFileSink(filepath.Join(t.TempDir(), "types.db"), target.X86_64()); err == nil {
		t.Fatal("expected error for unknown extension")
	}
}

func TestReadDatabaseSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"schema": 99, "types": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadDatabase(path)
	var serr *SchemaError
	if !errors.As(err, &serr) || serr.Got != 99 {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

type bufCloser struct {
	strings.Builder
	closed bool
}

func (b *bufCloser) Close() error {
	b.closed = true
	return nil
}

func TestHeaderSink(t *testing.T) {
	var out bufCloser
	h := NewHeaderSink(&out, "generated")
	_ = h.DefineType("Color", types.KindEnum, types.MakeEnum(4, []types.Enumerator{{Name: "RED", Value: 0}}))
	_ = h.DefineType("List", types.KindStruct, types.MakeStruct([]types.Member{
		{Name: "head", Offset: 0, Type: types.MakePointer(types.MakeLoose(types.ClassStruct, "Node"), 8)},
		{Name: "c", Offset: 8, Type: types.MakeFirm(types.ClassEnum, "Color", 4)},
	}, 16))
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatal("second close should be a no-op")
	}
	got := out.String()
	for _, want := range []string{
		"/* generated */",
		"struct List;\nstruct Node;\n",
		"enum Color { /* 4 bytes */",
		"struct Node *head;",
		"enum Color c;",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("header missing %q:\n%s", want, got)
		}
	}
	if !out.closed {
		t.Fatal("underlying writer not closed")
	}
}

func TestHeaderFileWritesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "include", "types.h")
	h := NewHeaderFile(path, "")
	if err := h.DefineType("Pair", types.KindStruct, sampleStruct()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("header written before Close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "#pragma once\n") || !strings.Contains(string(data), "struct Pair") {
		t.Fatalf("unexpected header:\n%s", data)
	}
}

func TestMultiDrivesScheduler(t *testing.T) {
	stream, err := records.Link(&records.File{Records: []records.Entry{
		{TI: 1, Leaf: records.LeafStructure, Name: "Pair", Size: 8, Fields: []records.Entry{
			{Leaf: records.LeafMember, Name: "a", Offset: 0, Type: &records.Ref{Prim: "T_INT4"}},
			{Leaf: records.LeafMember, Name: "b", Offset: 4, Type: &records.Ref{Prim: "T_INT4"}},
		}},
	}})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	mem := NewMemory()
	if _, err := fixpoint.Run(context.Background(), stream, fixpoint.Options{Sink: Multi(mem)}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d, ok := mem.Lookup("Pair", types.KindStruct); !ok || d.Type.Size() != 8 {
		t.Fatalf("Pair not recorded: %+v", mem.Definitions())
	}

	boom := errors.New("disk full")
	_, err = fixpoint.Run(context.Background(), stream, fixpoint.Options{Sink: Multi(NewMemory(), failingSink{err: boom})})
	var serr *fixpoint.SinkError
	if !errors.As(err, &serr) || serr.Name != "Pair" || !errors.Is(err, boom) {
		t.Fatalf("expected SinkError for Pair, got %v", err)
	}
}
