package symbols

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"amplc/internal/layout"
	"amplc/internal/valtypes"
)

func newManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	m := NewManager(opts)
	if err := m.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return m
}

func mustInsert(t *testing.T, m *Manager, name string, props Properties) Record {
	t.Helper()
	rec, err := m.Insert(name, props)
	if err != nil {
		t.Fatalf("insert %s: %v", name, err)
	}
	return rec
}

// TestManagerScenario walks a global/subroutine lifecycle. With LookupNested a
// global stays visible inside the subroutine; with LookupCurrent it does not.
func TestManagerScenario(t *testing.T) {
	for _, mode := range []LookupMode{LookupNested, LookupCurrent} {
		t.Run(mode.String(), func(t *testing.T) {
			m := newManager(t, Options{Sizer: layout.New(layout.Bytes()), Lookup: mode})
			intSize := layout.Bytes().IntegerSize

			if rec := mustInsert(t, m, "x", NewVariable(valtypes.Integer)); rec.Props.(Variable).Offset != 0 {
				t.Fatalf("x offset = %d, want 0", rec.Props.(Variable).Offset)
			}
			if rec := mustInsert(t, m, "y", NewVariable(valtypes.Integer)); rec.Props.(Variable).Offset != intSize {
				t.Fatalf("y offset = %d, want %d", rec.Props.(Variable).Offset, intSize)
			}
			if err := m.OpenSubroutine("f", NewFunction(valtypes.Integer, valtypes.Integer, valtypes.Integer)); err != nil {
				t.Fatalf("open f: %v", err)
			}
			if diff := cmp.Diff([]string{"x", "y", "f"}, m.Global().Names()); diff != "" {
				t.Fatalf("global names (-want +got):\n%s", diff)
			}
			if m.State() != StateInSubroutine || m.Owner() != "f" {
				t.Fatalf("state=%s owner=%q", m.State(), m.Owner())
			}
			if rec := mustInsert(t, m, "a", NewVariable(valtypes.Integer)); rec.Props.(Variable).Offset != 0 {
				t.Fatalf("local accumulator did not restart: offset %d", rec.Props.(Variable).Offset)
			}

			_, found := m.Find("x")
			if want := mode == LookupNested; found != want {
				t.Fatalf("find x inside f: found=%v, want %v", found, want)
			}
			if b, ok := m.Lookup("a"); !ok || b.Scope != ScopeSubroutine || b.Owner != "f" || b.Depth != 1 {
				t.Fatalf("lookup a: %+v %v", b, ok)
			}

			if err := m.CloseSubroutine(); err != nil {
				t.Fatalf("close: %v", err)
			}
			if _, ok := m.Find("a"); ok {
				t.Fatalf("local a visible after close")
			}
			props, ok := m.Find("f")
			if !ok {
				t.Fatalf("f missing after close")
			}
			sub, isSub := props.(Subroutine)
			if !isSub || sub.NParams() != 2 {
				t.Fatalf("f props = %#v", props)
			}
			if m.VariablesWidth() != 2*intSize {
				t.Fatalf("global width = %d", m.VariablesWidth())
			}
			if err := m.Validate(); err != nil {
				t.Fatalf("validate: %v", err)
			}
			if err := m.Release(); err != nil {
				t.Fatalf("release: %v", err)
			}
		})
	}
}

func TestOpenCloseRestoresGlobal(t *testing.T) {
	m := newManager(t, Options{})
	mustInsert(t, m, "n", NewVariable(valtypes.Integer))
	mustInsert(t, m, "ok", NewVariable(valtypes.Boolean))
	before := m.Snapshot()
	width := m.VariablesWidth()

	if err := m.OpenSubroutine("p", NewProcedure(valtypes.Boolean)); err != nil {
		t.Fatalf("open: %v", err)
	}
	mustInsert(t, m, "tmp", NewVariable(valtypes.Integer))
	mustInsert(t, m, "n", NewVariable(valtypes.Boolean)) // shadows global n
	if err := m.CloseSubroutine(); err != nil {
		t.Fatalf("close: %v", err)
	}

	after := m.Snapshot()
	// the subroutine record itself stays in global
	before.Scopes[0].Entries = append(before.Scopes[0].Entries, EntrySnapshot{
		Name: "p", Kind: "procedure", Type: uint8(valtypes.None), Params: []uint8{uint8(valtypes.Boolean)},
	})
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("global changed across open/close (-want +got):\n%s", diff)
	}
	if m.VariablesWidth() != width {
		t.Fatalf("width %d, want %d", m.VariablesWidth(), width)
	}
}

func TestOpenSubroutineFailsAtomically(t *testing.T) {
	m := newManager(t, Options{})
	mustInsert(t, m, "f", NewVariable(valtypes.Integer))

	err := m.OpenSubroutine("f", NewFunction(valtypes.Integer))
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	var serr *Error
	if !errors.As(err, &serr) || serr.Op != "open" {
		t.Fatalf("expected open error, got %#v", err)
	}
	if m.State() != StateGlobalOnly || m.Depth() != 0 {
		t.Fatalf("failed open changed state: %s depth %d", m.State(), m.Depth())
	}

	capped := newManager(t, Options{Limits: Limits{MaxEntries: 1}})
	mustInsert(t, capped, "x", NewVariable(valtypes.Integer))
	if err := capped.OpenSubroutine("g", NewProcedure()); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if capped.Depth() != 0 {
		t.Fatalf("local scope created despite failure")
	}
}

func TestOpenSubroutineRequiresSubroutine(t *testing.T) {
	m := newManager(t, Options{})
	if err := m.OpenSubroutine("v", NewVariable(valtypes.Integer)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if err := m.OpenSubroutine("v", nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for nil, got %v", err)
	}
	if _, ok := m.Find("v"); ok {
		t.Fatalf("rejected open inserted a record")
	}
}

func TestNestedOpenRejected(t *testing.T) {
	m := newManager(t, Options{})
	if err := m.OpenSubroutine("outer", NewProcedure()); err != nil {
		t.Fatalf("open outer: %v", err)
	}
	if err := m.OpenSubroutine("inner", NewProcedure()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if _, ok := m.Find("inner"); ok {
		t.Fatalf("rejected nested open inserted a record")
	}
}

func TestDeeperStackWhenAllowed(t *testing.T) {
	m := newManager(t, Options{MaxDepth: 3})
	mustInsert(t, m, "g", NewVariable(valtypes.Integer))
	if err := m.OpenSubroutine("outer", NewProcedure()); err != nil {
		t.Fatalf("open outer: %v", err)
	}
	mustInsert(t, m, "o", NewVariable(valtypes.Integer))
	if err := m.OpenSubroutine("inner", NewProcedure()); err != nil {
		t.Fatalf("open inner: %v", err)
	}
	if m.Depth() != 2 {
		t.Fatalf("depth = %d", m.Depth())
	}
	for _, name := range []string{"g", "o", "inner", "outer"} {
		if _, ok := m.Find(name); !ok {
			t.Errorf("%s not visible from inner scope", name)
		}
	}
	if b, _ := m.Lookup("inner"); b.Owner != "outer" {
		t.Fatalf("inner declared in %q, want outer", b.Owner)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := m.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestCloseOutsideSubroutine(t *testing.T) {
	m := newManager(t, Options{})
	if err := m.CloseSubroutine(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if m.State() != StateGlobalOnly {
		t.Fatalf("state changed to %s", m.State())
	}
}

func TestFindUnknown(t *testing.T) {
	m := newManager(t, Options{})
	if _, ok := m.Find("ghost"); ok {
		t.Fatalf("ghost found in global scope")
	}
	if err := m.OpenSubroutine("f", NewProcedure()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := m.Find("ghost"); ok {
		t.Fatalf("ghost found in subroutine scope")
	}
}

func TestShadows(t *testing.T) {
	m := newManager(t, Options{})
	mustInsert(t, m, "n", NewVariable(valtypes.Integer))
	if _, ok := m.Shadows("n"); ok {
		t.Fatalf("global declaration cannot shadow")
	}
	if err := m.OpenSubroutine("f", NewProcedure()); err != nil {
		t.Fatalf("open: %v", err)
	}
	b, ok := m.Shadows("n")
	if !ok || b.Scope != ScopeGlobal || b.Name != "n" {
		t.Fatalf("shadows n: %+v %v", b, ok)
	}
	if _, ok := m.Shadows("m"); ok {
		t.Fatalf("m shadows nothing")
	}

	cur := newManager(t, Options{Lookup: LookupCurrent})
	mustInsert(t, cur, "n", NewVariable(valtypes.Integer))
	if err := cur.OpenSubroutine("f", NewProcedure()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := cur.Shadows("n"); ok {
		t.Fatalf("global scope is not visible with LookupCurrent")
	}
}

func TestVisibleNames(t *testing.T) {
	for _, tc := range []struct {
		mode LookupMode
		want []string
	}{
		{LookupNested, []string{"n", "k", "f"}},
		{LookupCurrent, []string{"n"}},
	} {
		m := newManager(t, Options{Lookup: tc.mode})
		mustInsert(t, m, "n", NewVariable(valtypes.Integer))
		mustInsert(t, m, "k", NewVariable(valtypes.Boolean))
		if err := m.OpenSubroutine("f", NewProcedure()); err != nil {
			t.Fatalf("open: %v", err)
		}
		mustInsert(t, m, "n", NewVariable(valtypes.Boolean))
		if diff := cmp.Diff(tc.want, m.VisibleNames()); diff != "" {
			t.Errorf("%s: visible names (-want +got):\n%s", tc.mode, diff)
		}
	}
}

func TestParseLookupMode(t *testing.T) {
	for in, want := range map[string]LookupMode{"nested": LookupNested, "Fallback": LookupNested, "current": LookupCurrent} {
		got, err := ParseLookupMode(in)
		if err != nil || got != want {
			t.Errorf("ParseLookupMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLookupMode("global"); err == nil {
		t.Errorf("expected error for unknown mode")
	}
}

func TestLifecycle(t *testing.T) {
	m := NewManager(Options{})
	if _, err := m.Insert("x", NewVariable(valtypes.Integer)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("insert before init: %v", err)
	}
	if err := m.Release(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("release before init: %v", err)
	}
	if err := m.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := m.Init(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second init: %v", err)
	}
	mustInsert(t, m, "x", NewVariable(valtypes.Integer))
	if err := m.OpenSubroutine("f", NewProcedure()); err != nil {
		t.Fatalf("open: %v", err)
	}
	local := m.Current()
	mustInsert(t, m, "a", NewVariable(valtypes.Integer))

	// release with a subroutine still open closes it first
	if err := m.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if !local.Destroyed() {
		t.Fatalf("pending local scope not destroyed")
	}
	if m.State() != StateReleased {
		t.Fatalf("state = %s", m.State())
	}

	if _, err := m.Insert("y", NewVariable(valtypes.Integer)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("insert after release: %v", err)
	}
	if err := m.OpenSubroutine("g", NewProcedure()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("open after release: %v", err)
	}
	if err := m.CloseSubroutine(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("close after release: %v", err)
	}
	if _, ok := m.Find("x"); ok {
		t.Fatalf("find after release succeeded")
	}
	if m.VariablesWidth() != 0 || m.Current() != nil {
		t.Fatalf("released manager still exposes a table")
	}
	if err := m.Release(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second release: %v", err)
	}

	// a fresh init starts over with an empty global scope
	if err := m.Init(); err != nil {
		t.Fatalf("re-init: %v", err)
	}
	if _, ok := m.Find("x"); ok || m.VariablesWidth() != 0 {
		t.Fatalf("re-init kept old global contents")
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestManagerLogsTransitions(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	m := newManager(t, Options{Logger: &logger})
	if err := m.OpenSubroutine("f", NewProcedure()); err != nil {
		t.Fatalf("open: %v", err)
	}
	_, _ = m.Insert("f", NewVariable(valtypes.Integer))
	_, _ = m.Insert("f", NewVariable(valtypes.Integer))
	if err := m.CloseSubroutine(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"subroutine scope opened", "symbol table operation failed", `"kind":"duplicate name"`, "subroutine scope closed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}
