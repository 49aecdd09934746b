package symbols

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"amplc/internal/layout"
)

// State is the lifecycle position of a Manager.
type State uint8

const (
	StateUninitialized State = iota
	StateGlobalOnly          // global table current, no subroutine open
	StateInSubroutine        // a subroutine's local table is current
	StateReleased            // global table destroyed; only Init is valid
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateGlobalOnly:
		return "global-only"
	case StateInSubroutine:
		return "in-subroutine"
	case StateReleased:
		return "released"
	default:
		return "invalid"
	}
}

// LookupMode selects how far Find searches.
type LookupMode uint8

const (
	// LookupNested searches the current scope, then each enclosing one.
	LookupNested LookupMode = iota
	// LookupCurrent searches the current scope only.
	LookupCurrent
)

func (m LookupMode) String() string {
	if m == LookupCurrent {
		return "current"
	}
	return "nested"
}

// ParseLookupMode reads "nested" (also "fallback") or "current".
func ParseLookupMode(s string) (LookupMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nested", "fallback":
		return LookupNested, nil
	case "current":
		return LookupCurrent, nil
	default:
		return LookupNested, fmt.Errorf("invalid lookup mode %q (expected nested|current)", s)
	}
}

// DefaultMaxDepth allows a global scope plus one subroutine scope.
const DefaultMaxDepth = 2

// Options configures a Manager. The zero value is usable.
type Options struct {
	Sizer    Sizer // defaults to the JVM layout
	Limits   Limits
	Lookup   LookupMode
	MaxDepth int             // scope stack bound including global; defaults to DefaultMaxDepth
	Logger   *zerolog.Logger // defaults to a disabled logger
}

// Binding is a record together with the scope that holds it.
type Binding struct {
	Record
	Scope ScopeKind
	Depth int    // 0 for global
	Owner string // subroutine whose body the scope is, empty for global
}

type frame struct {
	table *Table
	owner string
}

// Manager coordinates the global table and the stack of subroutine tables
// layered over it. All name operations go to the current (innermost) table.
type Manager struct {
	sizer    Sizer
	limits   Limits
	lookup   LookupMode
	maxDepth int
	log      zerolog.Logger

	stack []frame
	state State
}

// NewManager returns an uninitialized manager; call Init before use.
func NewManager(opts Options) *Manager {
	m := &Manager{
		sizer:    opts.Sizer,
		limits:   opts.Limits,
		lookup:   opts.Lookup,
		maxDepth: opts.MaxDepth,
		log:      zerolog.Nop(),
	}
	if m.sizer == nil {
		m.sizer = layout.New(layout.JVM())
	}
	if m.maxDepth < 1 {
		m.maxDepth = DefaultMaxDepth
	}
	if opts.Logger != nil {
		m.log = opts.Logger.With().Str("component", "symbols").Logger()
	}
	return m
}

// Init creates the global table and makes it current. It is valid once per
// lifecycle: on a fresh manager or after Release.
func (m *Manager) Init() error {
	if m.state != StateUninitialized && m.state != StateReleased {
		return newError("init", "", ErrKindInvalidState, fmt.Errorf("manager is %s", m.state))
	}
	m.stack = append(m.stack[:0], frame{table: NewTable(ScopeGlobal, m.sizer, m.limits)})
	m.state = StateGlobalOnly
	m.log.Debug().Msg("global scope initialised")
	return nil
}

// OpenSubroutine inserts name into the current table and, only if that
// succeeds, pushes a fresh local table for the subroutine's body.
func (m *Manager) OpenSubroutine(name string, props Properties) error {
	const op = "open"
	if !m.active() {
		return newError(op, name, ErrKindInvalidState, fmt.Errorf("manager is %s", m.state))
	}
	if len(m.stack) >= m.maxDepth {
		return newError(op, name, ErrKindInvalidState, errNestedSubroutine)
	}
	switch p := props.(type) {
	case Subroutine:
	case *Subroutine:
		if p == nil {
			return newError(op, name, ErrKindInvalidArgument, errNoProperties)
		}
	default:
		return newError(op, name, ErrKindInvalidArgument, errNotSubroutine)
	}
	if _, err := m.current().Insert(name, props); err != nil {
		m.logFailure(op, name, err)
		return retag(op, err)
	}
	m.stack = append(m.stack, frame{
		table: NewTable(ScopeSubroutine, m.sizer, m.limits),
		owner: name,
	})
	m.state = StateInSubroutine
	m.log.Debug().Str("name", name).Int("depth", len(m.stack)-1).Msg("subroutine scope opened")
	return nil
}

// CloseSubroutine destroys the current local table and makes the enclosing
// table current again.
func (m *Manager) CloseSubroutine() error {
	if !m.active() || len(m.stack) < 2 {
		return newError("close", "", ErrKindInvalidState, errNoSubroutine)
	}
	top := m.stack[len(m.stack)-1]
	m.stack[len(m.stack)-1] = frame{}
	m.stack = m.stack[:len(m.stack)-1]
	if len(m.stack) == 1 {
		m.state = StateGlobalOnly
	}
	m.log.Debug().Str("name", top.owner).Int("entries", top.table.Len()).Int("width", top.table.Width()).Msg("subroutine scope closed")
	return top.table.Destroy()
}

// Insert binds name in the current table. See Table.Insert for ownership rules.
func (m *Manager) Insert(name string, props Properties) (Record, error) {
	if !m.active() {
		return Record{}, newError("insert", name, ErrKindInvalidState, fmt.Errorf("manager is %s", m.state))
	}
	rec, err := m.current().Insert(name, props)
	if err != nil {
		m.logFailure("insert", name, err)
		return Record{}, err
	}
	return rec, nil
}

// Find returns the properties visible under name, following the lookup mode.
func (m *Manager) Find(name string) (Properties, bool) {
	b, ok := m.Lookup(name)
	if !ok {
		return nil, false
	}
	return b.Props, true
}

// Lookup is Find with the scope that holds the record.
func (m *Manager) Lookup(name string) (Binding, bool) {
	if !m.active() {
		return Binding{}, false
	}
	lowest := 0
	if m.lookup == LookupCurrent {
		lowest = len(m.stack) - 1
	}
	return m.search(name, len(m.stack)-1, lowest)
}

// Shadows reports the enclosing-scope binding that a declaration of name in
// the current scope would hide. With LookupCurrent nothing is ever hidden.
func (m *Manager) Shadows(name string) (Binding, bool) {
	if !m.active() || len(m.stack) < 2 || m.lookup == LookupCurrent {
		return Binding{}, false
	}
	return m.search(name, len(m.stack)-2, 0)
}

// VisibleNames lists the names Find can reach, innermost scope first.
// A name hidden by an inner declaration is listed once.
func (m *Manager) VisibleNames() []string {
	if !m.active() {
		return nil
	}
	lowest := 0
	if m.lookup == LookupCurrent {
		lowest = len(m.stack) - 1
	}
	seen := make(map[string]struct{})
	var out []string
	for depth := len(m.stack) - 1; depth >= lowest; depth-- {
		for _, name := range m.stack[depth].table.Names() {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

func (m *Manager) search(name string, from, lowest int) (Binding, bool) {
	for depth := from; depth >= lowest; depth-- {
		f := m.stack[depth]
		if rec := f.table.lookup(name); rec != nil {
			return Binding{Record: *rec, Scope: f.table.Kind(), Depth: depth, Owner: f.owner}, true
		}
	}
	return Binding{}, false
}

// VariablesWidth returns the current table's variable storage width.
func (m *Manager) VariablesWidth() int {
	if !m.active() {
		return 0
	}
	return m.current().Width()
}

// Release destroys the global table, closing any subroutine still open first.
// Afterwards only Init is valid.
func (m *Manager) Release() error {
	if !m.active() {
		return newError("release", "", ErrKindInvalidState, fmt.Errorf("manager is %s", m.state))
	}
	var errs []error
	for len(m.stack) > 1 {
		m.log.Debug().Str("name", m.stack[len(m.stack)-1].owner).Msg("closing pending subroutine scope on release")
		if err := m.CloseSubroutine(); err != nil {
			errs = append(errs, err)
		}
	}
	global := m.stack[0].table
	m.stack[0] = frame{}
	m.stack = m.stack[:0]
	m.state = StateReleased
	if err := global.Destroy(); err != nil {
		errs = append(errs, err)
	}
	m.log.Debug().Msg("global scope released")
	return errors.Join(errs...)
}

// State reports the lifecycle state.
func (m *Manager) State() State { return m.state }

// Depth reports how many subroutine scopes are open.
func (m *Manager) Depth() int {
	if len(m.stack) == 0 {
		return 0
	}
	return len(m.stack) - 1
}

// LookupMode reports the lookup mode in effect.
func (m *Manager) LookupMode() LookupMode { return m.lookup }

// Current returns the table operations are routed to, or nil when inactive.
func (m *Manager) Current() *Table {
	if !m.active() {
		return nil
	}
	return m.current()
}

// Global returns the global table, or nil when inactive.
func (m *Manager) Global() *Table {
	if !m.active() {
		return nil
	}
	return m.stack[0].table
}

// Owner names the subroutine whose scope is current; empty in global scope.
func (m *Manager) Owner() string {
	if !m.active() {
		return ""
	}
	return m.stack[len(m.stack)-1].owner
}

func (m *Manager) active() bool {
	return (m.state == StateGlobalOnly || m.state == StateInSubroutine) && len(m.stack) > 0
}

func (m *Manager) current() *Table { return m.stack[len(m.stack)-1].table }

func (m *Manager) logFailure(op, name string, err error) {
	m.log.Debug().Str("op", op).Str("name", name).Str("kind", KindOf(err).String()).Err(err).Msg("symbol table operation failed")
}

// retag reports a table failure under the manager operation that caused it.
func retag(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return newError(op, e.Name, e.Kind, e.Err)
	}
	return err
}

var (
	errNestedSubroutine = errors.New("nested subroutines are not supported")
	errNoSubroutine     = errors.New("no subroutine is open")
	errNotSubroutine    = errors.New("properties do not describe a subroutine")
)
