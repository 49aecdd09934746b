package symbols

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a symbol table operation failed.
type ErrorKind uint8

const (
	ErrKindUnknown ErrorKind = iota
	// ErrKindDuplicateName: the name is already bound in the target scope.
	ErrKindDuplicateName
	// ErrKindCapacityExceeded: the table cannot hold another entry or more storage.
	ErrKindCapacityExceeded
	// ErrKindInvalidState: the operation is not allowed in the current lifecycle state.
	ErrKindInvalidState
	// ErrKindInvalidArgument: empty name, missing properties or an unsized variable type.
	ErrKindInvalidArgument
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindDuplicateName:
		return "duplicate name"
	case ErrKindCapacityExceeded:
		return "capacity exceeded"
	case ErrKindInvalidState:
		return "invalid state"
	case ErrKindInvalidArgument:
		return "invalid argument"
	default:
		return "unknown"
	}
}

var (
	ErrDuplicateName    = errors.New("duplicate name")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidState     = errors.New("invalid state")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// Error reports a failed operation. It matches the sentinel of its kind with errors.Is.
type Error struct {
	Op   string // "insert", "open", ...
	Name string // identifier involved, if any
	Kind ErrorKind
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Op + ": " + e.Kind.String()
	if e.Name != "" {
		msg += fmt.Sprintf(" %q", e.Name)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrDuplicateName:
		return e.Kind == ErrKindDuplicateName
	case ErrCapacityExceeded:
		return e.Kind == ErrKindCapacityExceeded
	case ErrInvalidState:
		return e.Kind == ErrKindInvalidState
	case ErrInvalidArgument:
		return e.Kind == ErrKindInvalidArgument
	}
	return false
}

func newError(op, name string, kind ErrorKind, cause error) *Error {
	return &Error{Op: op, Name: name, Kind: kind, Err: cause}
}

// KindOf extracts the ErrorKind from err, or ErrKindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

// IsDuplicate reports whether err is a duplicate-name failure.
func IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicateName) }

var (
	errTableDestroyed = errors.New("table already destroyed")
	errEmptyName      = errors.New("empty identifier")
	errNoProperties   = errors.New("missing properties")
	errEntryLimit     = errors.New("entry limit reached")
	errWidthLimit     = errors.New("frame width limit reached")
)
