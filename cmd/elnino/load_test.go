package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"elnino/internal/config"
	"elnino/internal/diag"
	"elnino/internal/diagfmt"
	"elnino/internal/fixpoint"
	"elnino/internal/query"
	"elnino/internal/records"
	"elnino/internal/resolve"
	"elnino/internal/sink"
)

func writeStream(t *testing.T, dir, name string, f *records.File) string {
	t.Helper()
	path := filepath.Join(dir, name)
	format, err := records.FormatForPath(path)
	if err != nil {
		t.Fatalf("FormatForPath: %v", err)
	}
	fh, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := records.EncodeFile(fh, f, format); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := fh.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func listFile() *records.File {
	return &records.File{
		Arch: "x86_64",
		Records: []records.Entry{
			{TI: 0x1000, Leaf: records.LeafStructure, Name: "node", FwdRef: true},
			{TI: 0x1001, Leaf: records.LeafPointer, Type: &records.Ref{TI: 0x1000}},
			{TI: 0x1002, Leaf: records.LeafStructure, Name: "node", Size: 16, Fields: []records.Entry{
				{Leaf: records.LeafMember, Name: "next", Offset: 0, Type: &records.Ref{TI: 0x1001}},
				{Leaf: records.LeafMember, Name: "value", Offset: 8, Type: &records.Ref{Prim: "T_INT4"}},
			}},
			{TI: 0x1003, Leaf: records.LeafEnum, Name: "color", Type: &records.Ref{Prim: "T_INT4"}, Fields: []records.Entry{
				{Leaf: records.LeafEnumerate, Name: "RED", Value: 0},
				{Leaf: records.LeafEnumerate, Name: "GREEN", Value: 1},
			}},
		},
	}
}

// cycleFile holds two structs that contain each other by value.
func cycleFile() *records.File {
	return &records.File{
		Records: []records.Entry{
			{TI: 1, Leaf: records.LeafStructure, Name: "A", Size: 4, Fields: []records.Entry{
				{Leaf: records.LeafMember, Name: "b", Offset: 0, Type: &records.Ref{TI: 2}},
			}},
			{TI: 2, Leaf: records.LeafStructure, Name: "B", Size: 4, Fields: []records.Entry{
				{Leaf: records.LeafMember, Name: "a", Offset: 0, Type: &records.Ref{TI: 1}},
			}},
		},
	}
}

func testOptions() loadOptions {
	return loadOptions{
		cfg:    config.Default(),
		format: diagfmt.FormatJSON,
		ui:     uiModeOff,
		quiet:  true,
	}
}

func decodeDiagnostics(t *testing.T, data []byte) diagfmt.DiagnosticsOutput {
	t.Helper()
	var out diagfmt.DiagnosticsOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("diagnostics are not JSON: %v\n%s", err, data)
	}
	return out
}

func hasCode(out diagfmt.DiagnosticsOutput, id string) bool {
	for _, d := range out.Diagnostics {
		if d.Code == id {
			return true
		}
	}
	return false
}

func TestLoadWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	path := writeStream(t, dir, "types.json", listFile())

	opts := testOptions()
	opts.cfg.Output.Database = filepath.Join(dir, "out", "types.mp")
	opts.cfg.Output.Header = filepath.Join(dir, "out", "types.h")
	opts.jsonOut = filepath.Join(dir, "out", "types.json")
	q, err := query.Parse(".types[].name")
	if err != nil {
		t.Fatal(err)
	}
	opts.query = q
	opts.raw = true

	var stdout, stderr bytes.Buffer
	code, err := executeLoad(context.Background(), []string{path}, opts, &stdout, &stderr)
	if err != nil {
		t.Fatalf("executeLoad: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %d\n%s", code, stdout.String())
	}
	if !strings.HasPrefix(stdout.String(), "color\nnode\n") {
		t.Fatalf("unexpected query output:\n%s", stdout.String())
	}

	for _, p := range []string{opts.cfg.Output.Database, opts.jsonOut} {
		db, err := sink.ReadDatabase(p)
		if err != nil {
			t.Fatalf("ReadDatabase(%s): %v", p, err)
		}
		if db.Arch != "x86_64" || db.PointerWidth != 8 || len(db.Types) != 2 {
			t.Fatalf("%s: unexpected database %+v", p, db)
		}
	}
	header, err := os.ReadFile(opts.cfg.Output.Header)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(header), "struct node {") || !strings.Contains(string(header), "enum color {") {
		t.Fatalf("unexpected header:\n%s", header)
	}
}

func TestLoadDecodeErrorExitsOne(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions()
	opts.cfg.Output.Database = filepath.Join(dir, "types.mp")

	var stdout, stderr bytes.Buffer
	code, err := executeLoad(context.Background(), []string{filepath.Join(dir, "missing.json")}, opts, &stdout, &stderr)
	if err != nil {
		t.Fatalf("executeLoad: %v", err)
	}
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if out := decodeDiagnostics(t, stdout.Bytes()); !hasCode(out, "LOAD2001") {
		t.Fatalf("missing stream error: %+v", out)
	}
	if _, err := os.Stat(opts.cfg.Output.Database); !os.IsNotExist(err) {
		t.Fatalf("database written after a failed load: %v", err)
	}
}

func TestLoadFailUnresolved(t *testing.T) {
	dir := t.TempDir()
	path := writeStream(t, dir, "cycle.mp", cycleFile())

	for _, fail := range []bool{false, true} {
		opts := testOptions()
		opts.failUnresolved = fail
		var stdout, stderr bytes.Buffer
		code, err := executeLoad(context.Background(), []string{path}, opts, &stdout, &stderr)
		if err != nil {
			t.Fatalf("executeLoad: %v", err)
		}
		want := 0
		if fail {
			want = 1
		}
		if code != want {
			t.Fatalf("fail-unresolved=%v: exit code = %d, want %d", fail, code, want)
		}
		out := decodeDiagnostics(t, stdout.Bytes())
		if !hasCode(out, "RES1006") {
			t.Fatalf("missing unresolved warning: %+v", out)
		}
	}
}

func TestLoadTimingsDiagnostic(t *testing.T) {
	dir := t.TempDir()
	path := writeStream(t, dir, "types.json", listFile())
	opts := testOptions()
	opts.quiet = false
	opts.timings = true

	var stdout, stderr bytes.Buffer
	if _, err := executeLoad(context.Background(), []string{path}, opts, &stdout, &stderr); err != nil {
		t.Fatalf("executeLoad: %v", err)
	}
	out := decodeDiagnostics(t, stdout.Bytes())
	for _, d := range out.Diagnostics {
		if d.Code != "OBS6001" {
			continue
		}
		notes := make(map[string]bool, len(d.Notes))
		for _, n := range d.Notes {
			notes[n.Subject] = true
		}
		for _, want := range []string{"decode", "resolve", "write", "passes"} {
			if !notes[want] {
				t.Fatalf("timings note %q missing: %+v", want, d.Notes)
			}
		}
		if !strings.Contains(stderr.String(), "1/1 enums, 1/1 aggregates") {
			t.Fatalf("missing stats line: %s", stderr.String())
		}
		return
	}
	t.Fatalf("no timings diagnostic: %+v", out)
}

func TestSelectProfile(t *testing.T) {
	cfg := config.Default().Resolve

	bag := diag.NewBag(0)
	r := diag.BagReporter{Bag: bag}

	p, err := selectProfile(cfg, false, "x86", r)
	if err != nil || p.Name != "x86" || p.PointerWidth != 4 {
		t.Fatalf("stream arch should win over config: %+v %v", p, err)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}

	p, err = selectProfile(cfg, false, "sparc", r)
	if err != nil || p.Name != "x86_64" {
		t.Fatalf("unknown stream arch should fall back: %+v %v", p, err)
	}
	if bag.Count(diag.LoadUnknownArch) != 1 {
		t.Fatalf("expected LoadUnknownArch: %+v", bag.Items())
	}

	flagCfg := cfg
	flagCfg.Arch = "arm"
	flagCfg.PointerWidth = 2
	p, err = selectProfile(flagCfg, true, "x86_64", r)
	if err != nil || p.Name != "arm" || p.PointerWidth != 2 {
		t.Fatalf("--arch should win: %+v %v", p, err)
	}
	if bag.Count(diag.LoadArchOverride) != 1 {
		t.Fatalf("expected LoadArchOverride: %+v", bag.Items())
	}
}

func TestReportFatalCodes(t *testing.T) {
	cases := []struct {
		err  error
		code diag.Code
	}{
		{&resolve.Error{Kind: resolve.ErrUnknownBuiltinCode, Subject: "S"}, diag.ResUnknownBuiltinCode},
		{&fixpoint.SinkError{Name: "S", Err: errors.New("disk full")}, diag.SinkWriteError},
		{context.Canceled, diag.LoadInfo},
		{errors.New("boom"), diag.UnknownCode},
	}
	for _, tc := range cases {
		bag := diag.NewBag(0)
		reportFatal(diag.BagReporter{Bag: bag}, tc.err)
		items := bag.Items()
		if len(items) != 1 || items[0].Code != tc.code || items[0].Severity != diag.SevError {
			t.Fatalf("%v: got %+v, want code %v", tc.err, items, tc.code)
		}
	}
}
