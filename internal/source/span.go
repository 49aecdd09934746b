package source

import (
	"fmt"
)

// Span is a byte range [Start, End) inside one file. Scenario steps point at
// their [[step]] header; whole-file problems use a zero-length span at 0.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

// At builds a span of n bytes starting at off.
func At(file FileID, off, n uint32) Span {
	return Span{File: file, Start: off, End: off + n}
}

func (s Span) Empty() bool { return s.End <= s.Start }

func (s Span) Len() uint32 {
	if s.Empty() {
		return 0
	}
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("file#%d[%d:%d]", s.File, s.Start, s.End)
}
