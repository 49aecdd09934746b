package symbols

import (
	"strings"

	"amplc/internal/valtypes"
)

// EntrySnapshot is a plain-data copy of one record.
type EntrySnapshot struct {
	Name   string  `msgpack:"name"`
	Kind   string  `msgpack:"kind"` // variable, function or procedure
	Type   uint8   `msgpack:"type"`
	Offset int     `msgpack:"offset,omitempty"`
	Params []uint8 `msgpack:"params,omitempty"`
}

// ScopeSnapshot is a plain-data copy of one table.
type ScopeSnapshot struct {
	Kind    string          `msgpack:"kind"`
	Owner   string          `msgpack:"owner,omitempty"`
	Width   int             `msgpack:"width"`
	Entries []EntrySnapshot `msgpack:"entries"`
}

// Snapshot captures every live scope, global first.
type Snapshot struct {
	State  string          `msgpack:"state"`
	Lookup string          `msgpack:"lookup"`
	Scopes []ScopeSnapshot `msgpack:"scopes"`
}

// Snapshot copies the manager's live tables. It shares no memory with them.
func (m *Manager) Snapshot() Snapshot {
	snap := Snapshot{State: m.state.String(), Lookup: m.lookup.String()}
	if !m.active() {
		return snap
	}
	snap.Scopes = make([]ScopeSnapshot, 0, len(m.stack))
	for _, f := range m.stack {
		snap.Scopes = append(snap.Scopes, snapshotTable(f.table, f.owner))
	}
	return snap
}

func snapshotTable(t *Table, owner string) ScopeSnapshot {
	recs := t.Records()
	out := ScopeSnapshot{
		Kind:    t.Kind().String(),
		Owner:   owner,
		Width:   t.Width(),
		Entries: make([]EntrySnapshot, 0, len(recs)),
	}
	for i := range recs {
		e := EntrySnapshot{
			Name: recs[i].Name,
			Kind: Label(recs[i].Props),
			Type: uint8(recs[i].Props.Type()),
		}
		switch v := recs[i].Props.(type) {
		case Variable:
			e.Offset = v.Offset
		case Subroutine:
			e.Params = make([]uint8, len(v.Params))
			for j, p := range v.Params {
				e.Params[j] = uint8(p)
			}
		}
		out.Entries = append(out.Entries, e)
	}
	return out
}

// Properties rebuilds the record properties described by the entry.
func (e EntrySnapshot) Properties() Properties {
	if e.Kind == "variable" {
		return Variable{ValType: valtypes.ValType(e.Type), Offset: e.Offset}
	}
	var params []valtypes.ValType
	if len(e.Params) > 0 {
		params = make([]valtypes.ValType, len(e.Params))
	}
	for i, p := range e.Params {
		params[i] = valtypes.ValType(p)
	}
	return Subroutine{Return: valtypes.ValType(e.Type), Params: params}
}

// ParamList renders a parameter signature as "(integer, boolean array)".
func ParamList(params []valtypes.ValType) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
