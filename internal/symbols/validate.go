package symbols

import (
	"errors"
	"fmt"
)

// Validate walks the table checking structural invariants. Returns nil if
// everything is consistent; otherwise aggregates all detected issues.
func (t *Table) Validate() error {
	if t.destroyed {
		if t.records.Len() != 0 || len(t.index) != 0 {
			return fmt.Errorf("%s scope: destroyed table still holds records", t.kind)
		}
		return nil
	}
	var errs []error
	recs := t.Records()

	// Check name index consistency.
	if len(t.index) != len(recs) {
		errs = append(errs, fmt.Errorf("%s scope: index has %d names, arena has %d records", t.kind, len(t.index), len(recs)))
	}
	for name, id := range t.index {
		rec := t.records.Get(id)
		if rec == nil {
			errs = append(errs, fmt.Errorf("%s scope: name %q references missing record %d", t.kind, name, id))
			continue
		}
		if rec.Name != name {
			errs = append(errs, fmt.Errorf("%s scope: name %q indexes record %d named %q", t.kind, name, id, rec.Name))
		}
	}

	// Check offsets follow insertion order.
	running := 0
	for i := range recs {
		rec := recs[i]
		if rec.Name == "" {
			errs = append(errs, fmt.Errorf("%s scope: record %d has empty name", t.kind, i+1))
		}
		v, ok := rec.Props.(Variable)
		if !ok {
			if _, isSub := rec.Props.(Subroutine); !isSub {
				errs = append(errs, fmt.Errorf("%s scope: record %q has invalid properties", t.kind, rec.Name))
			}
			continue
		}
		if v.Offset != running {
			errs = append(errs, fmt.Errorf("%s scope: variable %q has offset %d, want %d", t.kind, rec.Name, v.Offset, running))
		}
		size, err := t.sizer.SizeOf(v.ValType)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s scope: variable %q: %w", t.kind, rec.Name, err))
			continue
		}
		running += size
	}
	if running != t.width {
		errs = append(errs, fmt.Errorf("%s scope: width %d, variables sum to %d", t.kind, t.width, running))
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// Validate checks the manager's state against its scope stack and validates
// every live table.
func (m *Manager) Validate() error {
	var errs []error
	switch m.state {
	case StateUninitialized, StateReleased:
		if len(m.stack) != 0 {
			errs = append(errs, fmt.Errorf("state %s with %d live scopes", m.state, len(m.stack)))
		}
	case StateGlobalOnly:
		if len(m.stack) != 1 {
			errs = append(errs, fmt.Errorf("state %s with %d live scopes", m.state, len(m.stack)))
		}
	case StateInSubroutine:
		if len(m.stack) < 2 {
			errs = append(errs, fmt.Errorf("state %s with %d live scopes", m.state, len(m.stack)))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid state %d", m.state))
	}
	if len(m.stack) > m.maxDepth {
		errs = append(errs, fmt.Errorf("scope stack depth %d exceeds %d", len(m.stack), m.maxDepth))
	}
	for depth, f := range m.stack {
		want := ScopeSubroutine
		if depth == 0 {
			want = ScopeGlobal
		}
		if f.table == nil {
			errs = append(errs, fmt.Errorf("scope %d is nil", depth))
			continue
		}
		if f.table.Kind() != want {
			errs = append(errs, fmt.Errorf("scope %d is %s, want %s", depth, f.table.Kind(), want))
		}
		if depth > 0 {
			if _, ok := m.stack[depth-1].table.Find(f.owner); !ok {
				errs = append(errs, fmt.Errorf("scope %d owner %q is not declared in the enclosing scope", depth, f.owner))
			}
		}
		if err := f.table.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
