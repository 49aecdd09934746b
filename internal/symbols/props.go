package symbols

import (
	"slices"

	"amplc/internal/valtypes"
)

// PropKind names the active case of a Properties value.
type PropKind uint8

const (
	PropInvalid PropKind = iota
	PropVariable
	PropSubroutine
)

func (k PropKind) String() string {
	switch k {
	case PropVariable:
		return "variable"
	case PropSubroutine:
		return "subroutine"
	default:
		return "invalid"
	}
}

// Properties describes what an identifier denotes. The only implementations
// are Variable and Subroutine; use a type switch to get at the case data.
type Properties interface {
	Type() valtypes.ValType
	Kind() PropKind
	isProperties()
}

// Variable is a storage location in the enclosing scope's frame.
// Offset is assigned by the table on insertion.
type Variable struct {
	ValType valtypes.ValType
	Offset  int
}

// NewVariable returns variable properties of type t.
func NewVariable(t valtypes.ValType) Variable {
	return Variable{ValType: t}
}

func (v Variable) Type() valtypes.ValType { return v.ValType }
func (Variable) Kind() PropKind           { return PropVariable }
func (Variable) isProperties()            {}

// Subroutine is a function or procedure signature.
// Return is valtypes.None for procedures.
type Subroutine struct {
	Return valtypes.ValType
	Params []valtypes.ValType
}

// NewFunction returns the signature of a function returning ret.
func NewFunction(ret valtypes.ValType, params ...valtypes.ValType) Subroutine {
	return Subroutine{Return: ret, Params: slices.Clone(params)}
}

// NewProcedure returns the signature of a procedure.
func NewProcedure(params ...valtypes.ValType) Subroutine {
	return Subroutine{Return: valtypes.None, Params: slices.Clone(params)}
}

func (s Subroutine) Type() valtypes.ValType { return s.Return }
func (Subroutine) Kind() PropKind           { return PropSubroutine }
func (Subroutine) isProperties()            {}

// NParams reports the number of formal parameters.
func (s Subroutine) NParams() int { return len(s.Params) }

// IsProcedure reports whether the subroutine has no return value.
func (s Subroutine) IsProcedure() bool { return s.Return == valtypes.None }

// Label is the human name of the record's role: variable, function or procedure.
func Label(p Properties) string {
	switch v := p.(type) {
	case Variable:
		return "variable"
	case Subroutine:
		if v.IsProcedure() {
			return "procedure"
		}
		return "function"
	default:
		return "invalid"
	}
}

// own detaches props from any caller-held storage.
func own(p Properties) Properties {
	switch v := p.(type) {
	case Subroutine:
		v.Params = slices.Clone(v.Params)
		return v
	case *Subroutine:
		if v == nil {
			return nil
		}
		return Subroutine{Return: v.Return, Params: slices.Clone(v.Params)}
	case *Variable:
		if v == nil {
			return nil
		}
		return *v
	default:
		return p
	}
}
