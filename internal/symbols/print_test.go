package symbols

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"amplc/internal/valtypes"
)

func TestPrintCurrentTable(t *testing.T) {
	m := newManager(t, Options{})
	mustInsert(t, m, "x", NewVariable(valtypes.Integer))
	mustInsert(t, m, "y", NewVariable(valtypes.Integer))
	if err := m.OpenSubroutine("f", NewFunction(valtypes.Integer, valtypes.Integer, valtypes.Integer)); err != nil {
		t.Fatalf("open: %v", err)
	}

	var local strings.Builder
	if err := m.Print(&local); err != nil {
		t.Fatalf("print local: %v", err)
	}
	if got, want := local.String(), "scope subroutine f: 0 entries, width 0\n"; got != want {
		t.Fatalf("local print %q, want %q", got, want)
	}

	if err := m.CloseSubroutine(); err != nil {
		t.Fatalf("close: %v", err)
	}
	var global strings.Builder
	if err := m.Print(&global); err != nil {
		t.Fatalf("print global: %v", err)
	}
	want := strings.Join([]string{
		"scope global: 3 entries, width 2",
		"  NAME  KIND      TYPE     STORAGE",
		"  x     variable  integer  offset 0",
		"  y     variable  integer  offset 1",
		"  f     function  integer  params (integer, integer)",
		"",
	}, "\n")
	if diff := cmp.Diff(want, global.String()); diff != "" {
		t.Fatalf("print (-want +got):\n%s", diff)
	}
}

func TestPrintInactive(t *testing.T) {
	m := NewManager(Options{})
	var sb strings.Builder
	if err := m.Print(&sb); err != nil {
		t.Fatalf("print: %v", err)
	}
	if sb.String() != "symbol table uninitialized\n" {
		t.Fatalf("unexpected output %q", sb.String())
	}
}

func TestSnapshotEntryProperties(t *testing.T) {
	m := newManager(t, Options{})
	mustInsert(t, m, "v", NewVariable(valtypes.Boolean|valtypes.Array))
	mustInsert(t, m, "w", NewVariable(valtypes.Integer))
	mustInsert(t, m, "p", NewProcedure(valtypes.Integer|valtypes.Array))

	snap := m.Snapshot()
	if len(snap.Scopes) != 1 {
		t.Fatalf("scopes = %d", len(snap.Scopes))
	}
	for _, e := range snap.Scopes[0].Entries {
		want, _ := m.Find(e.Name)
		if diff := cmp.Diff(want, e.Properties()); diff != "" {
			t.Errorf("%s (-want +got):\n%s", e.Name, diff)
		}
	}
	if got := ParamList([]valtypes.ValType{valtypes.Integer, valtypes.Boolean | valtypes.Array}); got != "(integer, boolean array)" {
		t.Fatalf("ParamList = %q", got)
	}
}
