package valtypes

import (
	"fmt"
	"strings"
)

// ValType tags the type of a value. Base types and modifiers share one bit set,
// so "array of integer" is Array|Integer and "integer function" is Callable|Integer.
type ValType uint8

const (
	None     ValType = 0
	Array    ValType = 1 << 0
	Boolean  ValType = 1 << 1
	Integer  ValType = 1 << 2
	Callable ValType = 1 << 3
)

const (
	modifierMask = Array | Callable
	baseMask     = Boolean | Integer
)

func (t ValType) IsNone() bool     { return t == None }
func (t ValType) IsArray() bool    { return t&Array != 0 }
func (t ValType) IsBoolean() bool  { return t&Boolean != 0 }
func (t ValType) IsInteger() bool  { return t&Integer != 0 }
func (t ValType) IsCallable() bool { return t&Callable != 0 }

// IsProcedure reports a callable tag without a return type.
func (t ValType) IsProcedure() bool { return t.IsCallable() && t.Base() == None }

// Base strips the array and callable modifiers.
func (t ValType) Base() ValType { return t & baseMask }

// AsArray returns the array-of form of t.
func (t ValType) AsArray() ValType { return t | Array }

// AsCallable returns the callable form of t.
func (t ValType) AsCallable() ValType { return t | Callable }

// Valid reports whether the tag carries at most one base type and only known bits.
func (t ValType) Valid() bool {
	if t&^(modifierMask|baseMask) != 0 {
		return false
	}
	return t.Base() != Boolean|Integer
}

func (t ValType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("invalid(0x%02x)", uint8(t))
	}
	var base string
	switch t.Base() {
	case Boolean:
		base = "boolean"
	case Integer:
		base = "integer"
	}
	switch {
	case t.IsCallable() && base == "":
		return "procedure"
	case t.IsCallable() && t.IsArray():
		return base + " array function"
	case t.IsCallable():
		return base + " function"
	case t.IsArray() && base == "":
		return "array"
	case t.IsArray():
		return base + " array"
	case base == "":
		return "none"
	default:
		return base
	}
}

// Parse reads the spelling used by scenario and config files:
// "none", "boolean", "integer", optionally suffixed with "[]".
func Parse(s string) (ValType, error) {
	text := strings.TrimSpace(strings.ToLower(s))
	var t ValType
	if rest, ok := strings.CutSuffix(text, "[]"); ok {
		t |= Array
		text = strings.TrimSpace(rest)
	}
	switch text {
	case "none", "":
		if t.IsArray() {
			return None, fmt.Errorf("array of none is not a type: %q", s)
		}
		if text == "" {
			return None, fmt.Errorf("empty type")
		}
	case "boolean", "bool":
		t |= Boolean
	case "integer", "int":
		t |= Integer
	default:
		return None, fmt.Errorf("unknown type %q (expected none|boolean|integer, optionally with [])", s)
	}
	return t, nil
}

// MustParse is Parse for literals in tests and tables.
func MustParse(s string) ValType {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseList parses every element of list, stopping at the first error.
func ParseList(list []string) ([]ValType, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]ValType, 0, len(list))
	for i, s := range list {
		t, err := Parse(s)
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", i+1, err)
		}
		out = append(out, t)
	}
	return out, nil
}
