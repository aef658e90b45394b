package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"elnino/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(0)
	bag.Add(diag.New(diag.SevWarning, diag.ResUnresolvedAfterFixpoint, "Outer", "unresolved after 2 passes").
		WithNote("Inner", "member in has no complete type"))
	bag.Add(diag.New(diag.SevInfo, diag.ResInlinedAnonymous, "S", "inlined anonymous __unnamed_1"))
	return bag
}

func TestPrettyAlignsSubjects(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, sampleBag(), PrettyOpts{ShowNotes: true, Summary: true}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "WARNING RES1006 Outer unresolved after 2 passes" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if lines[1] != "    note: Inner: member in has no complete type" {
		t.Fatalf("unexpected note %q", lines[1])
	}
	if lines[2] != "INFO    RES1008 S     inlined anonymous __unnamed_1" {
		t.Fatalf("subjects not aligned: %q", lines[2])
	}
	if lines[3] != "0 error(s), 1 warning(s), 1 info" {
		t.Fatalf("unexpected summary %q", lines[3])
	}
}

func TestPrettyClipsWideSubjects(t *testing.T) {
	bag := diag.NewBag(0)
	bag.Add(diag.New(diag.SevError, diag.ResUnknownLeafKind, "VeryLongTypeName", "x"))
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, PrettyOpts{SubjectWidth: 8}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "VeryL...") {
		t.Fatalf("subject not clipped: %q", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleBag(), JSONOpts{Max: 1, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || out.Suppressed != 1 {
		t.Fatalf("count=%d suppressed=%d", out.Count, out.Suppressed)
	}
	d := out.Diagnostics[0]
	if d.Code != "RES1006" || d.Subject != "Outer" || len(d.Notes) != 1 || d.Notes[0].Subject != "Inner" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestShort(t *testing.T) {
	var buf bytes.Buffer
	if err := Short(&buf, sampleBag()); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "RES1006:WARNING:Outer: unresolved after 2 passes\n") {
		t.Fatalf("unexpected short output %q", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Fatalf("got %v %v", f, err)
	}
	if _, err := ParseFormat("sarif"); err == nil {
		t.Fatal("expected error")
	}
}
