package symbols

// RecordID identifies a record inside a table arena.
type RecordID uint32

const (
	// NoRecordID marks the absence of a record reference.
	NoRecordID RecordID = 0
)

// IsValid reports whether the record ID refers to an allocated record.
func (id RecordID) IsValid() bool { return id != NoRecordID }
