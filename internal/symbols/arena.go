package symbols

import (
	"fmt"

	"fortio.org/safecast"
)

// Record binds an identifier name to the properties it denotes.
type Record struct {
	Name  string
	Props Properties
}

// Records stores a table's records in insertion order.
type Records struct {
	data []Record
}

// NewRecords creates an arena with optional capacity hint.
func NewRecords(capacity uint32) *Records {
	if capacity == 0 {
		capacity = 16
	}
	return &Records{
		data: make([]Record, 1, capacity+1), // index 0 reserved for NoRecordID
	}
}

// nextID returns the ID the next record will get, or an error once the
// arena can no longer be addressed by RecordID.
func (r *Records) nextID() (RecordID, error) {
	value, err := safecast.Conv[uint32](len(r.data))
	if err != nil {
		return NoRecordID, fmt.Errorf("records arena overflow: %w", err)
	}
	if value == ^uint32(0) {
		return NoRecordID, fmt.Errorf("records arena overflow at %d", value)
	}
	return RecordID(value), nil
}

// New appends rec to the arena and returns its ID.
func (r *Records) New(rec Record) (RecordID, error) {
	id, err := r.nextID()
	if err != nil {
		return NoRecordID, err
	}
	r.data = append(r.data, rec)
	return id, nil
}

// Get returns a record pointer or nil for invalid ID.
func (r *Records) Get(id RecordID) *Record {
	if r == nil || !id.IsValid() || int(id) >= len(r.data) {
		return nil
	}
	return &r.data[id]
}

// Len reports number of stored records excluding sentinel.
func (r *Records) Len() int {
	if r == nil || len(r.data) == 0 {
		return 0
	}
	return len(r.data) - 1
}

// Data exposes the arena storage without the sentinel.
func (r *Records) Data() []Record {
	if r == nil || len(r.data) <= 1 {
		return nil
	}
	return r.data[1:]
}

// release drops every record so the arena can no longer reach them.
func (r *Records) release() {
	if r == nil {
		return
	}
	clear(r.data)
	r.data = nil
}
