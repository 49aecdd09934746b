package symbols

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"amplc/internal/layout"
	"amplc/internal/valtypes"
)

func newBytesTable(limits Limits) *Table {
	return NewTable(ScopeGlobal, layout.New(layout.Bytes()), limits)
}

func TestTableInsertFindRoundTrip(t *testing.T) {
	table := newBytesTable(Limits{})
	cases := []struct {
		name  string
		props Properties
		want  Properties
	}{
		{"count", NewVariable(valtypes.Integer), Variable{ValType: valtypes.Integer, Offset: 0}},
		{"flags", NewVariable(valtypes.Boolean | valtypes.Array), Variable{ValType: valtypes.Boolean | valtypes.Array, Offset: 4}},
		{"gcd", NewFunction(valtypes.Integer, valtypes.Integer, valtypes.Integer), Subroutine{Return: valtypes.Integer, Params: []valtypes.ValType{valtypes.Integer, valtypes.Integer}}},
		{"report", NewProcedure(), Subroutine{Return: valtypes.None, Params: nil}},
	}
	for _, tc := range cases {
		if _, err := table.Insert(tc.name, tc.props); err != nil {
			t.Fatalf("insert %s: %v", tc.name, err)
		}
	}
	for _, tc := range cases {
		got, ok := table.Find(tc.name)
		if !ok {
			t.Fatalf("find %s: not found", tc.name)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("find %s (-want +got):\n%s", tc.name, diff)
		}
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestTableDuplicateKeepsFirst(t *testing.T) {
	table := newBytesTable(Limits{})
	if _, err := table.Insert("x", NewVariable(valtypes.Integer)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := table.Insert("x", NewVariable(valtypes.Boolean))
	if !errors.Is(err, ErrDuplicateName) || !IsDuplicate(err) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	got, _ := table.Find("x")
	if diff := cmp.Diff(Properties(Variable{ValType: valtypes.Integer}), got); diff != "" {
		t.Fatalf("first entry changed (-want +got):\n%s", diff)
	}
	if table.Width() != 4 || table.Len() != 1 {
		t.Fatalf("failed insert mutated table: width=%d len=%d", table.Width(), table.Len())
	}
}

func TestTableOffsetsFollowInsertionOrder(t *testing.T) {
	table := newBytesTable(Limits{})
	types := []valtypes.ValType{
		valtypes.Integer,
		valtypes.Boolean,
		valtypes.Integer | valtypes.Array,
		valtypes.Integer,
	}
	wantOffsets := []int{0, 4, 5, 13}
	for i, typ := range types {
		rec, err := table.Insert(string(rune('a'+i)), NewVariable(typ))
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if got := rec.Props.(Variable).Offset; got != wantOffsets[i] {
			t.Errorf("var %d: offset %d, want %d", i, got, wantOffsets[i])
		}
	}
	// subroutines take no frame storage
	if _, err := table.Insert("f", NewFunction(valtypes.Integer)); err != nil {
		t.Fatalf("insert f: %v", err)
	}
	if table.Width() != 17 {
		t.Fatalf("width = %d, want 17", table.Width())
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d", "f"}, table.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
}

func TestTableIgnoresCallerOffset(t *testing.T) {
	table := newBytesTable(Limits{})
	rec, err := table.Insert("x", Variable{ValType: valtypes.Integer, Offset: 99})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if rec.Props.(Variable).Offset != 0 {
		t.Fatalf("caller offset leaked into table: %+v", rec.Props)
	}
}

func TestTableTakesOwnershipOfParams(t *testing.T) {
	table := newBytesTable(Limits{})
	params := []valtypes.ValType{valtypes.Integer, valtypes.Boolean}
	if _, err := table.Insert("f", Subroutine{Return: valtypes.Integer, Params: params}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	params[0] = valtypes.Boolean
	got, _ := table.Find("f")
	if got.(Subroutine).Params[0] != valtypes.Integer {
		t.Fatalf("caller mutation reached the table: %v", got)
	}

	ptr := &Subroutine{Return: valtypes.None, Params: []valtypes.ValType{valtypes.Integer}}
	if _, err := table.Insert("p", ptr); err != nil {
		t.Fatalf("insert pointer: %v", err)
	}
	ptr.Params = nil
	got, _ = table.Find("p")
	if got.(Subroutine).NParams() != 1 {
		t.Fatalf("pointer props not copied: %v", got)
	}

	rec, err := table.Insert("g", NewFunction(valtypes.Boolean, valtypes.Integer))
	if err != nil {
		t.Fatalf("insert g: %v", err)
	}
	rec.Props.(Subroutine).Params[0] = valtypes.Boolean
	got, _ = table.Find("g")
	if got.(Subroutine).Params[0] != valtypes.Integer {
		t.Fatalf("returned record aliases table state: %v", got)
	}
}

func TestTableCapacity(t *testing.T) {
	table := newBytesTable(Limits{MaxEntries: 2})
	for _, name := range []string{"a", "b"} {
		if _, err := table.Insert(name, NewVariable(valtypes.Integer)); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}
	_, err := table.Insert("c", NewVariable(valtypes.Integer))
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if _, ok := table.Find("c"); ok || table.Width() != 8 {
		t.Fatalf("rejected insert mutated table")
	}

	narrow := newBytesTable(Limits{MaxWidth: 6})
	if _, err := narrow.Insert("i", NewVariable(valtypes.Integer)); err != nil {
		t.Fatalf("insert i: %v", err)
	}
	if _, err := narrow.Insert("j", NewVariable(valtypes.Integer)); KindOf(err) != ErrKindCapacityExceeded {
		t.Fatalf("expected width limit, got %v", err)
	}
	// a smaller variable still fits
	if _, err := narrow.Insert("b", NewVariable(valtypes.Boolean)); err != nil {
		t.Fatalf("insert b: %v", err)
	}
	if narrow.Width() != 5 {
		t.Fatalf("width = %d, want 5", narrow.Width())
	}
}

func TestTableRejectsInvalidArguments(t *testing.T) {
	table := newBytesTable(Limits{})
	cases := []struct {
		label string
		name  string
		props Properties
	}{
		{"empty name", "", NewVariable(valtypes.Integer)},
		{"nil props", "x", nil},
		{"nil pointer props", "x", (*Variable)(nil)},
		{"unsized variable", "x", NewVariable(valtypes.None)},
		{"callable variable", "x", NewVariable(valtypes.Integer.AsCallable())},
	}
	for _, tc := range cases {
		_, err := table.Insert(tc.name, tc.props)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: expected invalid argument, got %v", tc.label, err)
		}
	}
	if table.Len() != 0 || table.Width() != 0 {
		t.Fatalf("rejected inserts mutated table")
	}
}

func TestTableDestroy(t *testing.T) {
	table := newBytesTable(Limits{})
	if _, err := table.Insert("x", NewVariable(valtypes.Integer)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := table.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if !table.Destroyed() || table.Len() != 0 {
		t.Fatalf("destroyed table still reports records")
	}
	if _, ok := table.Find("x"); ok {
		t.Fatalf("destroyed table still finds records")
	}
	if err := table.Destroy(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second destroy: expected invalid state, got %v", err)
	}
	if _, err := table.Insert("y", NewVariable(valtypes.Integer)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("insert after destroy: expected invalid state, got %v", err)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate destroyed: %v", err)
	}
}

func TestErrorFormatting(t *testing.T) {
	table := newBytesTable(Limits{})
	_, _ = table.Insert("x", NewVariable(valtypes.Integer))
	_, err := table.Insert("x", NewVariable(valtypes.Integer))
	if got, want := err.Error(), `insert: duplicate name "x"`; got != want {
		t.Fatalf("error text %q, want %q", got, want)
	}
	var serr *Error
	if !errors.As(err, &serr) || serr.Name != "x" || serr.Op != "insert" {
		t.Fatalf("unexpected error value %#v", err)
	}
}
