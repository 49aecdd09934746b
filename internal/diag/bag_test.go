package diag

import (
	"testing"

	"amplc/internal/source"
)

func TestBagLimitAndCounts(t *testing.T) {
	bag := NewBag(2)
	r := BagReporter{Bag: bag}
	ReportWarning(r, SymShadowed, source.Span{Start: 5, End: 6}, "shadow").Emit()
	ReportError(r, SymDuplicateName, source.Span{Start: 1, End: 2}, "dup").
		WithNote(source.Span{Start: 0, End: 1}, "previous declaration here").
		Emit()
	ReportError(r, SymUndeclared, source.Span{Start: 9, End: 9}, "over the limit").Emit()

	if bag.Len() != 2 || bag.Dropped() != 1 {
		t.Fatalf("len=%d dropped=%d", bag.Len(), bag.Dropped())
	}
	if !bag.HasErrors() || !bag.HasWarnings() || bag.Count(SevError) != 1 {
		t.Fatalf("unexpected severity counts")
	}
	bag.Sort()
	if codes := bag.Codes(); codes[0] != SymDuplicateName || codes[1] != SymShadowed {
		t.Fatalf("unexpected order %v", codes)
	}
	if len(bag.Items()[0].Notes) != 1 {
		t.Fatalf("note lost")
	}
}

func TestBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(0)
	b := NewReportBuilder(BagReporter{Bag: bag}, SevInfo, SymInfo, source.Span{}, "hello")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("builder emitted %d times", bag.Len())
	}
	var nilBuilder *ReportBuilder
	nilBuilder.WithNote(source.Span{}, "ignored").Emit()

	base := NewError(SymDuplicateName, source.Span{}, "dup").WithNote(source.Span{Start: 1}, "a")
	left := base.WithNote(source.Span{Start: 2}, "b")
	right := base.WithNote(source.Span{Start: 3}, "c")
	if left.Notes[1].Msg != "b" || right.Notes[1].Msg != "c" {
		t.Fatalf("notes shared between copies: %v %v", left.Notes, right.Notes)
	}
}

func TestBagDedupAndMerge(t *testing.T) {
	a := NewBag(0)
	a.Add(NewError(SymDuplicateName, source.Span{Start: 1, End: 2}, "dup"))
	a.Add(NewError(SymDuplicateName, source.Span{Start: 1, End: 2}, "dup"))
	b := NewBag(1)
	b.Add(NewError(SymUndeclared, source.Span{Start: 3, End: 4}, "missing"))
	a.Merge(b)
	a.Dedup()
	if a.Len() != 2 {
		t.Fatalf("len after dedup = %d", a.Len())
	}
	if got := SymArityMismatch.ID(); got != "SYM3007" {
		t.Fatalf("code id %q", got)
	}
	if got := Code(1234).ID(); got != "E0000" {
		t.Fatalf("unknown code id %q", got)
	}
}

func TestBagFilter(t *testing.T) {
	b := NewBag(0)
	b.Add(New(SevWarning, SymShadowed, source.Span{}, "hidden"))
	b.Add(NewError(SymUndeclared, source.Span{}, "missing"))
	b.Filter(func(d Diagnostic) bool { return d.Severity != SevWarning })
	if b.Len() != 1 || b.Items()[0].Code != SymUndeclared {
		t.Fatalf("unexpected items after filter: %+v", b.Items())
	}
}
