package layout

import (
	"fmt"

	"amplc/internal/valtypes"
)

// LayoutErrorKind enumerates types of sizing errors.
type LayoutErrorKind uint8

const (
	// LayoutErrUnsized marks a tag with no storage representation (none, callables).
	LayoutErrUnsized LayoutErrorKind = iota + 1
	// LayoutErrInvalidTag marks a tag with unknown or conflicting bits.
	LayoutErrInvalidTag
	// LayoutErrBadTarget marks a target with a non-positive size.
	LayoutErrBadTarget
)

// LayoutError represents an error during size calculation.
type LayoutError struct {
	Kind   LayoutErrorKind
	Type   valtypes.ValType
	Target string
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrUnsized:
		return fmt.Sprintf("type %s has no storage size", e.Type)
	case LayoutErrInvalidTag:
		return fmt.Sprintf("invalid type tag %s", e.Type)
	case LayoutErrBadTarget:
		return fmt.Sprintf("target %q has a non-positive size for %s", e.Target, e.Type)
	default:
		return fmt.Sprintf("layout error kind=%d type=%s", e.Kind, e.Type)
	}
}
