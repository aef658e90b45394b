package diag

import "testing"

func TestCodeIDRanges(t *testing.T) {
	cases := map[Code]string{
		ResUnknownBuiltinCode: "RES1001",
		LoadStreamError:       "LOAD2001",
		SinkWriteError:        "SINK3001",
		ObsTimings:            "OBS6001",
		UnknownCode:           "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Fatalf("%d.ID() = %q, want %q", code, got, want)
		}
	}
	if got := Code(4242).Title(); got != "Unknown error" {
		t.Fatalf("unexpected title for unknown code: %q", got)
	}
	if got := ResInlinedAnonymous.String(); got != "[RES1008]: Anonymous aggregate inlined" {
		t.Fatalf("unexpected String(): %q", got)
	}
}

func TestCodesSorted(t *testing.T) {
	codes := Codes()
	if len(codes) != len(codeDescription) {
		t.Fatalf("expected %d codes, got %d", len(codeDescription), len(codes))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted at %d: %v", i, codes)
		}
	}
}

func TestBagLimitAndSeverity(t *testing.T) {
	bag := NewBag(2)
	if !bag.Add(New(SevInfo, ResInfo, "", "first")) {
		t.Fatal("first add rejected")
	}
	if bag.HasWarnings() || bag.HasErrors() {
		t.Fatal("info diagnostic must not count as warning or error")
	}
	bag.Add(NewError(ResUnresolvableEnum, "E", "boom"))
	if bag.Add(New(SevWarning, ResDuplicateDefinition, "S", "dup")) {
		t.Fatal("add beyond limit should be rejected")
	}
	if bag.Len() != 2 || bag.Dropped() != 1 {
		t.Fatalf("len=%d dropped=%d", bag.Len(), bag.Dropped())
	}
	if !bag.HasErrors() {
		t.Fatal("expected HasErrors")
	}
}

func TestBagSortDedupFilter(t *testing.T) {
	bag := NewBag(0)
	bag.Add(New(SevWarning, ResDuplicateDefinition, "B", "dup"))
	bag.Add(NewError(ResUnresolvedAfterFixpoint, "Z", "stuck"))
	bag.Add(NewError(ResUnresolvedAfterFixpoint, "A", "stuck"))
	bag.Add(New(SevWarning, ResDuplicateDefinition, "B", "dup"))
	bag.Add(New(SevInfo, ResInlinedAnonymous, "C", "inlined"))

	bag.Dedup()
	if bag.Len() != 4 {
		t.Fatalf("dedup left %d items", bag.Len())
	}
	bag.Sort()
	items := bag.Items()
	if items[0].Subject != "A" || items[1].Subject != "Z" {
		t.Fatalf("errors should come first ordered by subject: %+v", items)
	}
	if items[3].Severity != SevInfo {
		t.Fatalf("info should sort last: %+v", items[3])
	}
	bag.Filter(SevWarning)
	if bag.Len() != 3 {
		t.Fatalf("filter kept %d items", bag.Len())
	}
	if bag.Count(ResUnresolvedAfterFixpoint) != 2 {
		t.Fatalf("unexpected count")
	}
}

func TestBagMergeGrowsLimit(t *testing.T) {
	a := NewBag(1)
	a.Add(New(SevInfo, ResInfo, "", "a"))
	b := NewBag(0)
	b.Add(New(SevInfo, ResInfo, "", "b"))
	b.Add(New(SevInfo, ResInfo, "", "c"))
	a.Merge(b)
	if a.Len() != 3 || a.Cap() != 3 {
		t.Fatalf("len=%d cap=%d", a.Len(), a.Cap())
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(0)
	r := BagReporter{Bag: bag}
	b := ReportError(r, ResUnresolvedAfterFixpoint, "Outer", "stuck").
		WithNote("Inner", "never completed")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("expected one diagnostic, got %d", bag.Len())
	}
	d := bag.Items()[0]
	if d.Subject != "Outer" || len(d.Notes) != 1 || d.Notes[0].Subject != "Inner" {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	r.Report(ResDuplicateDefinition, SevWarning, "S", "dup", nil)
	r.Report(ResDuplicateDefinition, SevWarning, "S", "dup", nil)
	r.Report(ResDuplicateDefinition, SevWarning, "T", "dup", nil)
	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", bag.Len())
	}
}

func TestParseSeverity(t *testing.T) {
	if s, err := ParseSeverity(" Warn "); err != nil || s != SevWarning {
		t.Fatalf("got %v, %v", s, err)
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Fatal("expected error")
	}
}
