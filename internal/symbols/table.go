package symbols

import (
	"math"

	"amplc/internal/valtypes"
)

// Sizer reports how much frame storage a variable of a given type needs.
type Sizer interface {
	SizeOf(t valtypes.ValType) (int, error)
}

// Limits bound how much a single table may hold. Zero means no limit beyond
// what RecordID and int can address.
type Limits struct {
	MaxEntries int
	MaxWidth   int
}

// Table holds the identifier records of one lexical scope.
type Table struct {
	kind      ScopeKind
	records   *Records
	index     map[string]RecordID
	width     int
	sizer     Sizer
	limits    Limits
	destroyed bool
}

// NewTable builds an empty table. sizer must not be nil.
func NewTable(kind ScopeKind, sizer Sizer, limits Limits) *Table {
	hint := uint32(16)
	if limits.MaxEntries > 0 && limits.MaxEntries < int(hint) {
		hint = uint32(limits.MaxEntries)
	}
	return &Table{
		kind:    kind,
		records: NewRecords(hint),
		index:   make(map[string]RecordID, hint),
		sizer:   sizer,
		limits:  limits,
	}
}

// Kind reports which scope the table represents.
func (t *Table) Kind() ScopeKind { return t.kind }

// Insert binds name to props. The table takes ownership of props: subroutine
// parameter lists are copied, and a Variable gets the current width as its
// offset before the width advances by the variable's size. The returned
// record is a copy the caller may keep and modify. On failure the table is
// left unchanged.
func (t *Table) Insert(name string, props Properties) (Record, error) {
	const op = "insert"
	if t.destroyed {
		return Record{}, newError(op, name, ErrKindInvalidState, errTableDestroyed)
	}
	if name == "" {
		return Record{}, newError(op, name, ErrKindInvalidArgument, errEmptyName)
	}
	props = own(props)
	if props == nil {
		return Record{}, newError(op, name, ErrKindInvalidArgument, errNoProperties)
	}
	if _, exists := t.index[name]; exists {
		return Record{}, newError(op, name, ErrKindDuplicateName, nil)
	}
	if t.limits.MaxEntries > 0 && t.records.Len() >= t.limits.MaxEntries {
		return Record{}, newError(op, name, ErrKindCapacityExceeded, errEntryLimit)
	}

	width := t.width
	if v, ok := props.(Variable); ok {
		size, err := t.sizer.SizeOf(v.ValType)
		if err != nil {
			return Record{}, newError(op, name, ErrKindInvalidArgument, err)
		}
		if size > math.MaxInt-width || (t.limits.MaxWidth > 0 && width+size > t.limits.MaxWidth) {
			return Record{}, newError(op, name, ErrKindCapacityExceeded, errWidthLimit)
		}
		v.Offset = width
		width += size
		props = v
	}

	rec := Record{Name: name, Props: props}
	id, err := t.records.New(rec)
	if err != nil {
		return Record{}, newError(op, name, ErrKindCapacityExceeded, err)
	}
	t.index[name] = id
	t.width = width
	rec.Props = own(props)
	return rec, nil
}

// Find returns the properties bound to name in this table only. The returned
// value is a view: a Subroutine's Params must not be modified.
func (t *Table) Find(name string) (Properties, bool) {
	rec := t.lookup(name)
	if rec == nil {
		return nil, false
	}
	return rec.Props, true
}

func (t *Table) lookup(name string) *Record {
	if t == nil || t.destroyed {
		return nil
	}
	id, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.records.Get(id)
}

// Width returns the storage consumed by the variables inserted so far.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return t.width
}

// Len reports the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.records.Len()
}

// Records returns the records in insertion order. Callers must not modify them.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	return t.records.Data()
}

// Names lists bound names in insertion order.
func (t *Table) Names() []string {
	recs := t.Records()
	out := make([]string, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].Name)
	}
	return out
}

// Destroy releases every record. A table must be destroyed exactly once;
// a second call reports ErrInvalidState.
func (t *Table) Destroy() error {
	if t.destroyed {
		return newError("destroy", "", ErrKindInvalidState, errTableDestroyed)
	}
	t.records.release()
	clear(t.index)
	t.index = nil
	t.width = 0
	t.destroyed = true
	return nil
}

// Destroyed reports whether Destroy has been called.
func (t *Table) Destroyed() bool { return t.destroyed }
