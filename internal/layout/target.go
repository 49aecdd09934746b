package layout

import (
	"fmt"
	"strings"
)

// Target describes how many storage units each kind of value occupies in a frame.
//
// The unit is target-defined: JVM counts local variable slots, Bytes counts bytes.
type Target struct {
	Name          string // e.g. "jvm"
	BooleanSize   int
	IntegerSize   int
	ReferenceSize int // arrays are stored by reference
}

// JVM is the default target: every storable value takes one local slot.
func JVM() Target {
	return Target{
		Name:          "jvm",
		BooleanSize:   1,
		IntegerSize:   1,
		ReferenceSize: 1,
	}
}

// Bytes sizes values in bytes for a 64-bit machine.
func Bytes() Target {
	return Target{
		Name:          "bytes",
		BooleanSize:   1,
		IntegerSize:   4,
		ReferenceSize: 8,
	}
}

// TargetByName resolves a built-in target; the empty name selects JVM.
func TargetByName(name string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "jvm":
		return JVM(), nil
	case "bytes":
		return Bytes(), nil
	default:
		return Target{}, fmt.Errorf("unknown layout target %q (expected jvm|bytes)", name)
	}
}
