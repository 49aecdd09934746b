package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"amplc/internal/source"
)

// CheckSpanInvariants checks spans reported against one file:
// 1) every span points at sf and is non-empty
// 2) every span lies within the file content
// 3) spans are in source order and do not overlap
func CheckSpanInvariants(sf *source.File, spans []source.Span) error {
	if sf == nil {
		return fmt.Errorf("nil file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	var prev source.Span
	for i, sp := range spans {
		if sp.File != sf.ID {
			return fmt.Errorf("span %d points to different file id: got=%d want=%d", i, sp.File, sf.ID)
		}
		if sp.Empty() {
			return fmt.Errorf("span %d is empty: %v", i, sp)
		}
		if sp.End > lenContent {
			return fmt.Errorf("span %d end beyond content: %d > %d", i, sp.End, lenContent)
		}
		if i > 0 && sp.Start < prev.End {
			return fmt.Errorf("span %d %v overlaps or precedes %v", i, sp, prev)
		}
		prev = sp
	}
	return nil
}

// SpanText returns the bytes sp covers, or "" when out of range.
func SpanText(sf *source.File, sp source.Span) string {
	if sf == nil || sp.End < sp.Start || int(sp.End) > len(sf.Content) {
		return ""
	}
	return string(sf.Content[sp.Start:sp.End])
}
